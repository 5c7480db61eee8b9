// Package autoexpr implements shader graph nodes whose ports are generated
// from //@in and //@out comment directives in their source code.
//
// A [Node] owns its source text, display name and the signature of the last
// interface it materialized. Its ports live in a host owned [Host] which the
// node reconciles against the declared interface whenever it changes. During
// code generation the node renames every function of its source with a prefix
// unique to the node, registers the renamed code once with an
// [emit.Registrar] and returns a call of the renamed main function.
package autoexpr

import (
	"fmt"
	"log/slog"

	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/emit"
	"github.com/soypat/autoexpr/persist"
	"github.com/soypat/autoexpr/reconcile"
	"github.com/soypat/autoexpr/rename"
)

// DefaultCode is the source of a newly created node.
const DefaultCode = `//@out float Out
//@in float X
//@in float Y

float helper(float a, float b)
{
    return a*b;
}

float main(float X, float Y)
{
    return helper(X, Y);
}`

// Host is the graph side owner of a node's ports.
type Host interface {
	reconcile.PortSet
	// Argument returns the expression that feeds input port p.
	Argument(p reconcile.Port) string
}

// Node is a single auto parsed expression instance.
// A Node is not safe for concurrent use.
type Node struct {
	id    int
	code  string
	sig   directive.Signature
	name  string
	state State
	host  Host
	asm   emit.Assembler
	log   *slog.Logger
}

// Option configures a [Node] on creation.
type Option func(*Node)

// WithLogger sets the node's logger. The default is [slog.Default].
func WithLogger(l *slog.Logger) Option {
	return func(n *Node) { n.log = l }
}

// WithRenameCache shares a rename cache between nodes.
func WithRenameCache(c *rename.Cache) Option {
	return func(n *Node) { n.asm.Cache = c }
}

// WithCode sets the initial source code instead of [DefaultCode].
func WithCode(code string) Option {
	return func(n *Node) { n.code = code }
}

// WithName sets the node's custom display name.
func WithName(name string) Option {
	return func(n *Node) { n.name = name }
}

// New creates a node with the given unique ID whose ports live in host. The
// ports are built on the first [Node.LogicUpdate] or [Node.GenerateCall].
func New(id int, host Host, opts ...Option) *Node {
	n := &Node{
		id:   id,
		code: DefaultCode,
		host: host,
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(n)
	}
	n.log = n.log.With(slog.Int("node", id))
	n.state, _ = n.state.next(EventRebuildRequested)
	return n
}

func (n *Node) ID() int { return n.id }

// Code returns the node's source code.
func (n *Node) Code() string { return n.code }

// Signature returns the signature of the last materialized interface.
func (n *Node) Signature() directive.Signature { return n.sig }

// State returns the rebuild state.
func (n *Node) State() State { return n.state }

// Prefix returns the function name prefix unique to this node.
func (n *Node) Prefix() string { return emit.InstancePrefix(n.id) }

// DisplayName returns the custom name, trimmed, or the default label.
func (n *Node) DisplayName() string { return emit.Label(n.name) }

// CustomName returns the custom name as set by the user.
func (n *Node) CustomName() string { return n.name }

func (n *Node) SetDisplayName(name string) { n.name = name }

// Interface parses the current source code's directives.
func (n *Node) Interface() directive.Result { return directive.Parse(n.code) }

// SetCode replaces the source code. Ports are updated on the next logic
// update or code generation if the declared interface changed.
func (n *Node) SetCode(code string) {
	if code == n.code {
		return
	}
	n.code = code
	n.transition(EventTextEdited)
}

// RequestRebuild schedules an unconditional rebuild of the ports.
func (n *Node) RequestRebuild() {
	n.transition(EventRebuildRequested)
}

// LogicUpdate performs any rebuild scheduled by earlier edits or requests.
func (n *Node) LogicUpdate() error {
	_, err := n.handle(EventLogicUpdate)
	return err
}

func (n *Node) transition(ev Event) {
	next, _ := n.state.next(ev)
	if next != n.state {
		n.log.Debug("state change", slog.String("from", n.state.String()), slog.String("to", next.String()))
	}
	n.state = next
}

func (n *Node) handle(ev Event) (changed bool, err error) {
	next, mode := n.state.next(ev)
	switch mode {
	case rebuildForced:
		changed, err = n.Rebuild(true)
	case rebuildIfChanged:
		changed, err = n.Rebuild(false)
	}
	if err != nil {
		return changed, err // Keep state so the rebuild is retried.
	}
	n.state = next
	return changed, nil
}

// Rebuild reconciles the host's ports with the declared interface. Unless
// force is set the ports are left untouched when the declared signature
// matches the last materialized one. It reports whether ports were reconciled.
func (n *Node) Rebuild(force bool) (bool, error) {
	res := directive.Parse(n.code)
	if !force && res.Signature == n.sig {
		return false, nil
	}
	for _, skip := range res.Skipped {
		n.log.Debug("directive skipped", slog.Int("line", skip.Line), slog.String("text", skip.Text), slog.String("reason", skip.Reason.Error()))
	}
	plan, err := reconcile.Reconcile(n.host, res)
	if err != nil {
		return false, fmt.Errorf("node %d: reconciling ports: %w", n.id, err)
	}
	n.log.Debug("ports rebuilt", slog.Bool("forced", force), slog.Int("actions", len(plan.Actions)), slog.String("signature", string(res.Signature)))
	n.sig = res.Signature
	return true, nil
}

// GenerateCall emits the node for one code generation pass. Pending rebuilds
// run first. The renamed source is registered with reg and the returned
// result holds the expression computing the node's output.
func (n *Node) GenerateCall(reg emit.Registrar) (emit.Result, error) {
	if _, err := n.handle(EventGenerate); err != nil {
		return emit.Result{}, err
	}
	inputs := n.host.Inputs()
	args := make([]string, len(inputs))
	for i, p := range inputs {
		args[i] = n.host.Argument(p)
	}
	res, err := n.asm.Assemble(reg, emit.Request{
		Prefix:  n.Prefix(),
		Source:  n.code,
		Label:   n.DisplayName(),
		Args:    args,
		Outputs: len(n.host.Outputs()),
	})
	if err != nil {
		return emit.Result{}, fmt.Errorf("node %d: %w", n.id, err)
	}
	if res.Inline {
		n.log.Debug("no entry point, emitting inline expression")
	}
	return res, nil
}

// MarshalFields returns the node's persisted fields.
func (n *Node) MarshalFields() []string {
	return persist.Encode(persist.State{Code: n.code, Signature: string(n.sig), Name: n.name})
}

// UnmarshalFields restores the node from persisted fields and returns the
// number of fields consumed. The stored port layout is trusted: no
// signature-driven rebuild is scheduled, but the ports are reconciled once
// so they exist before the host restores connections.
func (n *Node) UnmarshalFields(fields []string) (int, error) {
	st, consumed := persist.Decode(fields)
	if consumed > 0 {
		n.code = st.Code
		n.sig = directive.Signature(st.Signature)
		n.name = st.Name
	}
	_, err := n.handle(EventLoaded)
	return consumed, err
}

// Teardown removes every port of the node, severing its connections. It is
// used when the node is deleted from the graph.
func (n *Node) Teardown() error {
	for _, p := range n.host.Inputs() {
		if err := n.host.RemoveInput(p.ID()); err != nil {
			return err
		}
	}
	for _, p := range n.host.Outputs() {
		if err := n.host.RemoveOutput(p.ID()); err != nil {
			return err
		}
	}
	n.sig = ""
	n.state, _ = n.state.next(EventRebuildRequested)
	return nil
}
