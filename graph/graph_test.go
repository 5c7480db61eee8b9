package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soypat/autoexpr/directive"
	"github.com/soypat/autoexpr/emit"
	"github.com/soypat/autoexpr/graph"
	"github.com/soypat/autoexpr/reconcile"
	"github.com/soypat/geometry/ms3"
)

func TestAddRemove(t *testing.T) {
	node := graph.NewNode(nil)
	a, err := node.AddInput(directive.Float, "A")
	require.NoError(t, err)
	_, err = node.AddInput(directive.Float2, "A")
	assert.ErrorIs(t, err, graph.ErrDuplicate)
	_, err = node.AddInput(0, "Bad")
	assert.Error(t, err)

	require.NoError(t, node.Connect(a.ID(), graph.Link{Expr: "x", Type: directive.Float}))
	require.NoError(t, node.RemoveInput(a.ID()))
	assert.Nil(t, node.Port(a.ID()))
	assert.ErrorIs(t, node.RemoveInput(a.ID()), graph.ErrNoPort)
	sev := node.Severed()
	require.Len(t, sev, 1)
	assert.Equal(t, "port removed", sev[0].Reason)
}

func TestChangeTypeSeversIncompatible(t *testing.T) {
	node := graph.NewNode(nil)
	p, err := node.AddInput(directive.Float3, "N")
	require.NoError(t, err)
	require.NoError(t, node.Connect(p.ID(), graph.Link{Expr: "normal", Type: directive.Float3}))

	p.ChangeType(directive.Float4)
	assert.NotNil(t, node.Port(p.ID()).Link(), "vector to vector keeps link")

	p.ChangeType(directive.Sampler2D)
	assert.Nil(t, node.Port(p.ID()).Link(), "vector to sampler severs link")
	assert.Len(t, node.Severed(), 1)

	err = node.Connect(p.ID(), graph.Link{Expr: "1.0", Type: directive.Float})
	assert.ErrorIs(t, err, graph.ErrIncompat)
}

func TestOrder(t *testing.T) {
	node := graph.NewNode(nil)
	a, _ := node.AddInput(directive.Float, "A")
	b, _ := node.AddInput(directive.Float, "B")
	require.NoError(t, node.SetInputOrder([]reconcile.PortID{b.ID(), a.ID()}))
	ins := node.Inputs()
	assert.Equal(t, "B", ins[0].Name())
	assert.Equal(t, "A", ins[1].Name())
	assert.ErrorIs(t, node.SetInputOrder([]reconcile.PortID{a.ID()}), graph.ErrOrder)
	assert.ErrorIs(t, node.SetInputOrder([]reconcile.PortID{a.ID(), a.ID()}), graph.ErrOrder)
}

func TestArgument(t *testing.T) {
	node := graph.NewNode(nil)
	p, _ := node.AddInput(directive.Float3, "V")
	assert.Equal(t, "float3(0,0,0)", node.Argument(p))
	node.Input("V").Default = emit.Vec3(ms3.Vec{X: 1, Y: 2, Z: 3})
	assert.Equal(t, "float3(1.,2.,3.)", node.Argument(p))
	require.NoError(t, node.Connect(p.ID(), graph.Link{Expr: "i.worldPos", Type: directive.Float3}))
	assert.Equal(t, "i.worldPos", node.Argument(p))
	node.Disconnect(p.ID())
	assert.Equal(t, "float3(1.,2.,3.)", node.Argument(p))
}
