// Package graph is a small in-memory node port host. It owns port identity,
// connections and default values the way an editor graph would and implements
// [reconcile.PortSet] so snippet instances can be driven without an editor.
package graph

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/emit"
	"github.com/soypat/autoexpr/reconcile"
)

var (
	ErrNoPort      = errors.New("port not found")
	ErrDuplicate   = errors.New("duplicate port name")
	ErrOrder       = errors.New("port order must list every port exactly once")
	ErrIncompat    = errors.New("incompatible connection type")
	errInvalidType = errors.New("invalid port type")
)

// Link is a connection attached to a port. For inputs Expr is the expression
// of the upstream value, for outputs it names the downstream consumer.
type Link struct {
	Expr string
	Type directive.PortType
}

// Port is a port owned by a [Node].
type Port struct {
	id    reconcile.PortID
	kind  directive.Kind
	name  string
	typ   directive.PortType
	order int
	link  *Link
	owner *Node
	// Default is used as argument when an input is not connected.
	Default emit.Value
}

var _ reconcile.Port = (*Port)(nil) // Interface implementation compile-time check.

func (p *Port) ID() reconcile.PortID     { return p.id }
func (p *Port) Name() string             { return p.name }
func (p *Port) Type() directive.PortType { return p.typ }
func (p *Port) Kind() directive.Kind     { return p.kind }
func (p *Port) Order() int               { return p.order }
func (p *Port) SetOrder(i int)           { p.order = i }

// Link returns the port's connection or nil.
func (p *Port) Link() *Link { return p.link }

// ChangeType sets the port type and severs the connection if the linked value
// can no longer feed the port. Samplers only connect to samplers.
func (p *Port) ChangeType(t directive.PortType) {
	if p.typ == t {
		return
	}
	p.typ = t
	if p.link != nil && p.owner != nil && !compatible(p.link.Type, t) {
		p.owner.sever(p, "type change")
	}
}

func compatible(a, b directive.PortType) bool {
	return a.IsSampler() == b.IsSampler()
}

// Severed records a connection dropped by the host.
type Severed struct {
	Port   reconcile.PortID
	Name   string
	Link   Link
	Reason string
}

// Node is the port collection of one graph node.
type Node struct {
	nextID  reconcile.PortID
	inputs  []*Port
	outputs []*Port
	index   map[reconcile.PortID]*Port
	severed []Severed
	log     *slog.Logger
}

var _ reconcile.PortSet = (*Node)(nil) // Interface implementation compile-time check.

// NewNode returns an empty node. A nil logger uses [slog.Default].
func NewNode(logger *slog.Logger) *Node {
	if logger == nil {
		logger = slog.Default()
	}
	return &Node{
		index: make(map[reconcile.PortID]*Port),
		log:   logger,
	}
}

func (n *Node) Inputs() []reconcile.Port  { return asPorts(n.inputs) }
func (n *Node) Outputs() []reconcile.Port { return asPorts(n.outputs) }

func asPorts(ps []*Port) []reconcile.Port {
	out := make([]reconcile.Port, len(ps))
	for i, p := range ps {
		out[i] = p
	}
	return out
}

// Port returns the port with the given ID or nil.
func (n *Node) Port(id reconcile.PortID) *Port { return n.index[id] }

// Input returns the input port named name or nil.
func (n *Node) Input(name string) *Port { return findName(n.inputs, name) }

// Output returns the output port named name or nil.
func (n *Node) Output(name string) *Port { return findName(n.outputs, name) }

func findName(ps []*Port, name string) *Port {
	for _, p := range ps {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (n *Node) AddInput(t directive.PortType, name string) (reconcile.Port, error) {
	return n.add(&n.inputs, directive.Input, t, name)
}

func (n *Node) AddOutput(t directive.PortType, name string) (reconcile.Port, error) {
	return n.add(&n.outputs, directive.Output, t, name)
}

func (n *Node) add(dst *[]*Port, kind directive.Kind, t directive.PortType, name string) (*Port, error) {
	if !t.Valid() {
		return nil, errInvalidType
	} else if findName(*dst, name) != nil {
		return nil, fmt.Errorf("%s %q: %w", kind, name, ErrDuplicate)
	}
	p := &Port{id: n.nextID, kind: kind, name: name, typ: t, order: len(*dst), owner: n}
	n.nextID++
	*dst = append(*dst, p)
	n.index[p.id] = p
	n.log.Debug("port added", slog.String("kind", kind.String()), slog.String("name", name), slog.String("type", t.String()), slog.Int("id", int(p.id)))
	return p, nil
}

func (n *Node) RemoveInput(id reconcile.PortID) error {
	return n.remove(&n.inputs, id)
}

func (n *Node) RemoveOutput(id reconcile.PortID) error {
	return n.remove(&n.outputs, id)
}

func (n *Node) remove(src *[]*Port, id reconcile.PortID) error {
	idx := slices.IndexFunc(*src, func(p *Port) bool { return p.id == id })
	if idx < 0 {
		return fmt.Errorf("remove #%d: %w", id, ErrNoPort)
	}
	p := (*src)[idx]
	if p.link != nil {
		n.sever(p, "port removed")
	}
	*src = slices.Delete(*src, idx, idx+1)
	delete(n.index, id)
	p.owner = nil
	n.log.Debug("port removed", slog.String("kind", p.kind.String()), slog.String("name", p.name), slog.Int("id", int(id)))
	return nil
}

func (n *Node) SetInputOrder(ids []reconcile.PortID) error {
	ordered, err := n.reorder(n.inputs, ids)
	if err != nil {
		return err
	}
	n.inputs = ordered
	return nil
}

func (n *Node) SetOutputs(ids []reconcile.PortID) error {
	ordered, err := n.reorder(n.outputs, ids)
	if err != nil {
		return err
	}
	n.outputs = ordered
	return nil
}

func (n *Node) reorder(current []*Port, ids []reconcile.PortID) ([]*Port, error) {
	if len(ids) != len(current) {
		return nil, ErrOrder
	}
	ordered := make([]*Port, 0, len(ids))
	for _, id := range ids {
		p := n.index[id]
		if p == nil || !slices.Contains(current, p) || slices.Contains(ordered, p) {
			return nil, ErrOrder
		}
		ordered = append(ordered, p)
	}
	return ordered, nil
}

// Connect attaches a link to the port with the given ID, replacing any
// previous connection.
func (n *Node) Connect(id reconcile.PortID, link Link) error {
	p := n.index[id]
	if p == nil {
		return fmt.Errorf("connect #%d: %w", id, ErrNoPort)
	} else if !compatible(link.Type, p.typ) {
		return fmt.Errorf("connect %s to %s port %q: %w", link.Type, p.typ, p.name, ErrIncompat)
	}
	p.link = &link
	return nil
}

// Disconnect removes the link of a port, if any.
func (n *Node) Disconnect(id reconcile.PortID) {
	if p := n.index[id]; p != nil && p.link != nil {
		n.sever(p, "disconnected")
	}
}

func (n *Node) sever(p *Port, reason string) {
	n.severed = append(n.severed, Severed{Port: p.id, Name: p.name, Link: *p.link, Reason: reason})
	n.log.Debug("connection severed", slog.String("port", p.name), slog.String("reason", reason))
	p.link = nil
}

// Severed returns the connections dropped so far.
func (n *Node) Severed() []Severed { return append([]Severed(nil), n.severed...) }

// Argument returns the expression feeding input p: the connected expression
// or the literal of the port's default value.
func (n *Node) Argument(p reconcile.Port) string {
	gp := n.index[p.ID()]
	if gp == nil {
		return emit.ZeroLiteral(p.Type())
	}
	if gp.link != nil {
		return gp.link.Expr
	}
	return emit.DefaultLiteral(gp.typ, gp.Default)
}
