// Package reconcile brings a host-owned set of named ports in line with a
// freshly parsed interface while preserving the identity of ports whose names
// survive the edit.
//
// Reconciliation runs in two steps. [MakePlan] diffs the current ports against
// the declarations and returns an auditable list of actions. [Apply] executes
// a plan against a [PortSet].
package reconcile

import (
	"errors"
	"fmt"

	"github.com/soypat/autoexpr/directive"
)

// DefaultOutputName is the name of the output port used when the source
// declares no outputs.
const DefaultOutputName = "Out"

// PortID is a host-assigned stable identifier of a port.
type PortID int

// Port is a named, typed, identity-bearing port owned by the host graph.
type Port interface {
	ID() PortID
	Name() string
	Type() directive.PortType
	// ChangeType sets the port type. The host revalidates any connections
	// attached to the port.
	ChangeType(directive.PortType)
	// SetOrder stores the port's index in declaration order.
	SetOrder(int)
}

// PortSet is the host side collection of a node's ports.
type PortSet interface {
	Inputs() []Port
	Outputs() []Port
	AddInput(t directive.PortType, name string) (Port, error)
	AddOutput(t directive.PortType, name string) (Port, error)
	// RemoveInput and RemoveOutput delete a port and sever its connections.
	RemoveInput(id PortID) error
	RemoveOutput(id PortID) error
	// SetInputOrder sets the iteration order of inputs and rebuilds any
	// index keyed by PortID. ids contains every input port exactly once.
	SetInputOrder(ids []PortID) error
	// SetOutputs is SetInputOrder for outputs.
	SetOutputs(ids []PortID) error
}

// PortState is a snapshot of a port used for planning.
type PortState struct {
	ID   PortID
	Name string
	Type directive.PortType
}

// Op is a reconciliation operation.
type Op uint8

const (
	OpUpdate Op = iota + 1
	OpAdd
	OpRemove
)

func (op Op) String() string {
	switch op {
	case OpUpdate:
		return "update"
	case OpAdd:
		return "add"
	case OpRemove:
		return "remove"
	}
	return "invalid"
}

// Action is a single step of a [Plan].
type Action struct {
	Op   Op
	Kind directive.Kind
	// ID is the existing port's ID for update and remove actions.
	ID   PortID
	Name string
	Type directive.PortType
	// Order is the declaration index of an input, -1 for removals and outputs.
	Order int
}

func (a Action) String() string {
	if a.Op == OpRemove {
		return fmt.Sprintf("%s %s #%d %q", a.Op, a.Kind, a.ID, a.Name)
	}
	return fmt.Sprintf("%s %s %q %s order=%d", a.Op, a.Kind, a.Name, a.Type, a.Order)
}

// Plan is the ordered list of actions required to reconcile a port set.
// Input add/update actions appear in declaration order, followed by input
// removals, then the output action and output removals.
type Plan struct {
	Actions []Action
}

// Changes returns the number of actions that add or remove a port or change
// the type of a kept port.
func (p Plan) Changes(current []PortState) int {
	types := make(map[PortID]directive.PortType, len(current))
	for _, st := range current {
		types[st.ID] = st.Type
	}
	n := 0
	for _, a := range p.Actions {
		if a.Op != OpUpdate || types[a.ID] != a.Type {
			n++
		}
	}
	return n
}

// MakePlan diffs the existing ports against the parsed declarations.
//
// Inputs are matched by name: a port whose name is declared again is kept and
// updated, others are removed and new names are added. Only the first
// declaration of a repeated input name counts. The output resolves to the first
// output declaration, or a Float named [DefaultOutputName] when there is none,
// and every other output port is removed.
func MakePlan(inputs, outputs []PortState, res directive.Result) Plan {
	var plan Plan
	// First port of a duplicated name wins, the others are never used.
	byName := make(map[string]PortID, len(inputs))
	for _, in := range inputs {
		if _, dup := byName[in.Name]; !dup {
			byName[in.Name] = in.ID
		}
	}
	used := make(map[PortID]bool, len(inputs))
	declared := make(map[string]bool, len(res.Inputs))
	order := 0
	for _, decl := range res.Inputs {
		if declared[decl.Name] {
			continue
		}
		declared[decl.Name] = true
		if id, ok := byName[decl.Name]; ok {
			used[id] = true
			plan.Actions = append(plan.Actions, Action{Op: OpUpdate, Kind: directive.Input, ID: id, Name: decl.Name, Type: decl.Type, Order: order})
		} else {
			plan.Actions = append(plan.Actions, Action{Op: OpAdd, Kind: directive.Input, Name: decl.Name, Type: decl.Type, Order: order})
		}
		order++
	}
	for _, in := range inputs {
		if !used[in.ID] {
			plan.Actions = append(plan.Actions, Action{Op: OpRemove, Kind: directive.Input, ID: in.ID, Name: in.Name, Type: in.Type, Order: -1})
		}
	}

	outName, outType := DefaultOutputName, directive.Float
	if out, ok := res.Output(); ok {
		outName, outType = out.Name, out.Type
	}
	var keep PortID
	found := false
	for _, out := range outputs {
		if out.Name == outName {
			keep, found = out.ID, true
			break
		}
	}
	if found {
		plan.Actions = append(plan.Actions, Action{Op: OpUpdate, Kind: directive.Output, ID: keep, Name: outName, Type: outType, Order: -1})
	} else {
		plan.Actions = append(plan.Actions, Action{Op: OpAdd, Kind: directive.Output, Name: outName, Type: outType, Order: -1})
	}
	for _, out := range outputs {
		if !found || out.ID != keep {
			plan.Actions = append(plan.Actions, Action{Op: OpRemove, Kind: directive.Output, ID: out.ID, Name: out.Name, Type: out.Type, Order: -1})
		}
	}
	return plan
}

// Snapshot returns the planning state of ports.
func Snapshot(ports []Port) []PortState {
	states := make([]PortState, len(ports))
	for i, p := range ports {
		states[i] = PortState{ID: p.ID(), Name: p.Name(), Type: p.Type()}
	}
	return states
}

var errMissingPort = errors.New("port referenced by plan not found in set")

// Apply executes plan on set. Removal errors are accumulated so a single
// failing removal does not leave the remaining ports unreconciled.
func Apply(set PortSet, plan Plan) error {
	inputs := indexPorts(set.Inputs())
	outputs := indexPorts(set.Outputs())
	var order []PortID
	var outIDs []PortID
	var errs []error
	for _, a := range plan.Actions {
		var err error
		switch {
		case a.Op == OpUpdate:
			ports := inputs
			if a.Kind == directive.Output {
				ports = outputs
			}
			p, ok := ports[a.ID]
			if !ok {
				return fmt.Errorf("update %s %q: %w", a.Kind, a.Name, errMissingPort)
			}
			if p.Type() != a.Type {
				p.ChangeType(a.Type)
			}
			if a.Kind == directive.Input {
				p.SetOrder(a.Order)
				order = append(order, p.ID())
			} else {
				outIDs = append(outIDs, p.ID())
			}

		case a.Op == OpAdd && a.Kind == directive.Input:
			var p Port
			p, err = set.AddInput(a.Type, a.Name)
			if err != nil {
				return fmt.Errorf("add input %q: %w", a.Name, err)
			}
			p.SetOrder(a.Order)
			order = append(order, p.ID())

		case a.Op == OpAdd:
			var p Port
			p, err = set.AddOutput(a.Type, a.Name)
			if err != nil {
				return fmt.Errorf("add output %q: %w", a.Name, err)
			}
			outIDs = append(outIDs, p.ID())

		case a.Op == OpRemove && a.Kind == directive.Input:
			err = set.RemoveInput(a.ID)
		case a.Op == OpRemove:
			err = set.RemoveOutput(a.ID)
		default:
			err = fmt.Errorf("invalid action %v", a)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("%v: %w", a, err))
		}
	}
	if err := set.SetInputOrder(order); err != nil {
		errs = append(errs, fmt.Errorf("ordering inputs: %w", err))
	}
	if err := set.SetOutputs(outIDs); err != nil {
		errs = append(errs, fmt.Errorf("setting output: %w", err))
	}
	return errors.Join(errs...)
}

// Reconcile plans and applies in one step and returns the applied plan.
func Reconcile(set PortSet, res directive.Result) (Plan, error) {
	plan := MakePlan(Snapshot(set.Inputs()), Snapshot(set.Outputs()), res)
	return plan, Apply(set, plan)
}

func indexPorts(ports []Port) map[PortID]Port {
	m := make(map[PortID]Port, len(ports))
	for _, p := range ports {
		m[p.ID()] = p
	}
	return m
}
