package graph

import (
	"testing"

	"floorplan-engine/internal/planner/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPointIndex_MergesAcrossCellBoundary(t *testing.T) {
	ix := NewPointIndex(0.1)
	a := ix.Insert(pt(0.099, 5))
	b := ix.Insert(pt(0.101, 5.02))
	c := ix.Insert(pt(0.3, 5))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, ix.Len())

	_, ok := ix.Find(pt(50, 50))
	assert.False(t, ok)
}

func TestBuild_SquareWithTail(t *testing.T) {
	segs := []models.Segment{
		{P1: pt(0, 0), P2: pt(100, 0)},
		{P1: pt(100, 0), P2: pt(100, 100)},
		{P1: pt(100, 100.05), P2: pt(0, 100)},
		{P1: pt(0, 100), P2: pt(0, 0)},
		{P1: pt(100, 0), P2: pt(150, 0)},
		{P1: pt(300, 300), P2: pt(400, 300)},
	}
	g := Build(segs)

	require.Len(t, g.Nodes, 7)
	corner, ok := g.NodeAt(pt(100, 0))
	require.True(t, ok)
	assert.Equal(t, 3, g.Degree(corner))

	top, ok := g.NodeAt(pt(100, 100))
	require.True(t, ok)
	assert.Equal(t, 2, g.Degree(top), "endpoints within tolerance collapse")

	assert.Len(t, g.Edges(), 6)
	assert.Len(t, g.Components(), 2)
}

func TestSortByAngle(t *testing.T) {
	segs := []models.Segment{
		{P1: pt(0, 0), P2: pt(0, 10)},
		{P1: pt(0, 0), P2: pt(-10, 0)},
		{P1: pt(0, 0), P2: pt(10, 0)},
		{P1: pt(0, 0), P2: pt(0, -10)},
	}
	g := Build(segs)
	g.SortByAngle()

	center, ok := g.NodeAt(pt(0, 0))
	require.True(t, ok)
	got := g.Points(g.Nodes[center].Connections)
	assert.Equal(t, []models.Point{pt(0, -10), pt(10, 0), pt(0, 10), pt(-10, 0)}, got)
}
