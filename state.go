package autoexpr

// State is the rebuild state of a [Node].
type State uint8

const (
	// Clean means the ports reflect the last rebuild.
	Clean State = iota
	// PendingRebuild means the source was edited since the last rebuild. The
	// next update rebuilds only if the declared interface changed.
	PendingRebuild
	// RebuildRequested means a rebuild was explicitly requested. The next
	// update rebuilds unconditionally.
	RebuildRequested
)

func (s State) String() string {
	switch s {
	case Clean:
		return "clean"
	case PendingRebuild:
		return "pending"
	case RebuildRequested:
		return "requested"
	}
	return "invalid"
}

// Event drives [State] transitions.
type Event uint8

const (
	// EventTextEdited is sent when the source code changes.
	EventTextEdited Event = iota
	// EventRebuildRequested is sent on node creation and when the user asks
	// for a rebuild.
	EventRebuildRequested
	// EventLogicUpdate is sent on every host logic tick.
	EventLogicUpdate
	// EventGenerate is sent before code generation.
	EventGenerate
	// EventLoaded is sent after the node state is restored from storage.
	EventLoaded
)

type rebuildMode uint8

const (
	rebuildNone rebuildMode = iota
	rebuildIfChanged
	rebuildForced
)

// next returns the state after ev and the kind of rebuild the transition
// performs.
func (s State) next(ev Event) (State, rebuildMode) {
	switch ev {
	case EventTextEdited:
		if s == Clean {
			return PendingRebuild, rebuildNone
		}
		return s, rebuildNone
	case EventRebuildRequested:
		return RebuildRequested, rebuildNone
	case EventLogicUpdate, EventGenerate:
		switch s {
		case PendingRebuild:
			return Clean, rebuildIfChanged
		case RebuildRequested:
			return Clean, rebuildForced
		}
		return Clean, rebuildNone
	case EventLoaded:
		// Stored ports are trusted, the forced pass only makes sure the
		// port objects exist before connections are restored.
		return Clean, rebuildForced
	}
	return s, rebuildNone
}
