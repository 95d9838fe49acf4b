package graph

import (
	"testing"

	"synapse/internal/links"
	"synapse/internal/note"
)

func TestBuildAggregatesEdgeWeight(t *testing.T) {
	notes := []note.Note{
		{ID: "a", Title: "Alpha"},
		{ID: "b", Title: "Beta"},
	}
	edges := []links.Edge{
		{Source: "a", Target: "b"},
		{Source: "a", Target: "b"},
	}
	view := Build(notes, edges, "")
	if len(view.Links) != 1 {
		t.Fatalf("expected one aggregated link, got %+v", view.Links)
	}
	if view.Links[0].Weight != 2 {
		t.Fatalf("expected weight 2 from multiplicity, got %d", view.Links[0].Weight)
	}
}

func TestBuildMarksActiveNode(t *testing.T) {
	notes := []note.Note{{ID: "a", Title: "Alpha"}, {ID: "b", Title: "Beta"}}
	view := Build(notes, nil, "b")

	var active, inactive Node
	for _, n := range view.Nodes {
		if n.ID == "b" {
			active = n
		} else {
			inactive = n
		}
	}
	if !active.Active {
		t.Fatal("expected node b to be active")
	}
	if active.Radius <= inactive.Radius {
		t.Fatalf("active node must be larger: %f <= %f", active.Radius, inactive.Radius)
	}
}

func TestBuildDegreeGrowsRadius(t *testing.T) {
	notes := []note.Note{{ID: "hub", Title: "Hub"}, {ID: "x", Title: "X"}, {ID: "y", Title: "Y"}}
	edges := []links.Edge{
		{Source: "x", Target: "hub"},
		{Source: "y", Target: "hub"},
	}
	view := Build(notes, edges, "")
	byID := make(map[string]Node)
	for _, n := range view.Nodes {
		byID[n.ID] = n
	}
	if byID["hub"].Degree != 2 {
		t.Fatalf("expected hub degree 2, got %d", byID["hub"].Degree)
	}
	if byID["hub"].Radius <= byID["x"].Radius {
		t.Fatal("higher degree must yield larger radius")
	}
}

func TestLayoutPreservesPositionsAcrossRefresh(t *testing.T) {
	notes := []note.Note{{ID: "a", Title: "Alpha"}, {ID: "b", Title: "Beta"}}
	view := Build(notes, nil, "")

	l := NewLayout()
	l.Apply(view)
	l.Step(view, 30)
	before := l.Positions()

	// Refreshing with the same membership must not move anything.
	l.Apply(Build(notes, nil, "a"))
	after := l.Positions()
	for id, p := range before {
		if after[id] != p {
			t.Fatalf("node %s moved on refresh: %+v -> %+v", id, p, after[id])
		}
	}
}

func TestLayoutSeedsOnlyNewNodes(t *testing.T) {
	notes := []note.Note{{ID: "a", Title: "Alpha"}}
	l := NewLayout()
	l.Apply(Build(notes, nil, ""))
	aBefore := l.Positions()["a"]

	grown := append(notes, note.Note{ID: "b", Title: "Beta"})
	l.Apply(Build(grown, nil, ""))
	pos := l.Positions()
	if pos["a"] != aBefore {
		t.Fatalf("existing node must keep its position, %+v -> %+v", aBefore, pos["a"])
	}
	if _, ok := pos["b"]; !ok {
		t.Fatal("new node must be seeded")
	}
}

func TestLayoutSeedIsDeterministic(t *testing.T) {
	if seedPosition("same-id") != seedPosition("same-id") {
		t.Fatal("seed must be deterministic per id")
	}
	if seedPosition("one") == seedPosition("two") {
		t.Fatal("different ids should not share a seed position")
	}
}

func TestLayoutForgetsRemovedNodes(t *testing.T) {
	l := NewLayout()
	l.Apply(Build([]note.Note{{ID: "a"}, {ID: "b"}}, nil, ""))
	l.Apply(Build([]note.Note{{ID: "a"}}, nil, ""))
	if _, ok := l.Positions()["b"]; ok {
		t.Fatal("removed node must be dropped from the layout")
	}
}

func TestPinnedNodeDoesNotMove(t *testing.T) {
	notes := []note.Note{{ID: "a", Title: "Alpha"}, {ID: "b", Title: "Beta"}}
	edges := []links.Edge{{Source: "a", Target: "b"}}
	view := Build(notes, edges, "")

	l := NewLayout()
	l.Apply(view)
	want := Point{X: 42, Y: -7}
	l.Pin("a", want)
	l.Step(view, 25)
	if got := l.Positions()["a"]; got != want {
		t.Fatalf("pinned node moved: %+v", got)
	}

	l.Release("a")
	l.Step(view, 5)
	if got := l.Positions()["a"]; got == want {
		t.Fatal("released node should rejoin the simulation")
	}
}

func TestConnectedNodesPullCloser(t *testing.T) {
	// Same seeds with and without the edge: the spring must bring the pair
	// strictly closer than free repulsion would.
	notes := []note.Note{{ID: "a"}, {ID: "b"}}
	linked := Build(notes, []links.Edge{{Source: "a", Target: "b"}}, "")
	unlinked := Build(notes, nil, "")

	withEdge := NewLayout()
	withEdge.Apply(linked)
	withEdge.Step(linked, 300)

	withoutEdge := NewLayout()
	withoutEdge.Apply(unlinked)
	withoutEdge.Step(unlinked, 300)

	dLinked := dist(withEdge.Positions()["a"], withEdge.Positions()["b"])
	dFree := dist(withoutEdge.Positions()["a"], withoutEdge.Positions()["b"])
	if dLinked >= dFree {
		t.Fatalf("spring had no effect: linked=%f free=%f", dLinked, dFree)
	}
}

func dist(p, q Point) float64 {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx + dy*dy
}
