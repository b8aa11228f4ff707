package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/tgraph/internal/core/domain"
)

func node(label string) *domain.TargetNode {
	id, err := domain.ParseTarget(label, "root")
	if err != nil {
		panic(err)
	}
	return &domain.TargetNode{ID: id}
}

func TestTargetGraph_AddNodeAndEdges(t *testing.T) {
	g := domain.NewTargetGraph()
	foo := node("//a:foo")
	bar := node("//b:bar")

	g.AddNode(bar)
	g.AddNode(foo)
	g.AddNode(foo)
	require.NoError(t, g.AddEdge(foo.ID, bar.ID))
	require.NoError(t, g.AddEdge(foo.ID, bar.ID))

	assert.Equal(t, 2, g.Len())
	assert.Equal(t, 1, g.EdgeCount())
	assert.Equal(t, []domain.TargetID{bar.ID}, g.OutgoingEdges(foo.ID))
	assert.Equal(t, []domain.TargetID{foo.ID}, g.IncomingEdges(bar.ID))
	assert.Empty(t, g.OutgoingEdges(bar.ID))
}

func TestTargetGraph_AddEdgeMissingNode(t *testing.T) {
	g := domain.NewTargetGraph()
	foo := node("//a:foo")
	g.AddNode(foo)

	err := g.AddEdge(foo.ID, node("//b:bar").ID)
	require.ErrorIs(t, err, domain.ErrTargetNotFound)
}

func TestTargetGraph_WalkIsInsertionOrder(t *testing.T) {
	g := domain.NewTargetGraph()
	leaf := node("//c:leaf")
	mid := node("//b:mid")
	top := node("//a:top")
	for _, n := range []*domain.TargetNode{leaf, mid, top} {
		g.AddNode(n)
	}

	var got []string
	for n := range g.Walk() {
		got = append(got, n.ID.String())
	}
	assert.Equal(t, []string{"root//c:leaf", "root//b:mid", "root//a:top"}, got)
	assert.Equal(t, []domain.TargetID{top.ID, mid.ID, leaf.ID}, g.Nodes())
}

func TestTargetGraph_GetUsesIndex(t *testing.T) {
	g := domain.NewTargetGraph()
	flavored := node("//a:foo#shared")
	g.AddNode(flavored)
	g.SetIndex(map[domain.TargetID]*domain.TargetNode{
		flavored.ID:              flavored,
		flavored.ID.Unflavored(): flavored,
	})

	got, ok := g.Get(flavored.ID.Unflavored())
	require.True(t, ok)
	assert.Same(t, flavored, got)

	_, ok = g.Get(node("//x:y").ID)
	assert.False(t, ok)
}
