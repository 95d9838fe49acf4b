// Package graph turns the derived link edges into a renderable view model
// with a force-directed layout. Rendering, camera animation and input stay in
// the front end; this package owns node positions so the layout survives data
// refreshes instead of exploding every time an unrelated note changes.
package graph

import (
	"sort"

	"synapse/internal/links"
	"synapse/internal/note"
)

// Zoom bounds for the front-end viewport.
const (
	MinZoom = 0.25
	MaxZoom = 4.0
)

const (
	baseRadius      = 8.0
	radiusPerDegree = 1.5
	maxRadius       = 24.0
	activeBoost     = 4.0
)

type Node struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Degree int     `json:"degree"`
	Radius float64 `json:"radius"`
	Active bool    `json:"active"`
}

// Link is an aggregated edge; Weight counts reference multiplicity.
type Link struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Weight int    `json:"weight"`
}

type View struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Build produces the view model for the current collection. Edge multiplicity
// collapses into link weight; node radius grows with degree and the active
// node gets a visible boost.
func Build(notes []note.Note, edges []links.Edge, activeID string) View {
	type pair struct{ source, target string }
	weights := make(map[pair]int)
	degree := make(map[string]int)
	var order []pair
	for _, e := range edges {
		p := pair{e.Source, e.Target}
		if weights[p] == 0 {
			order = append(order, p)
		}
		weights[p]++
		degree[e.Source]++
		degree[e.Target]++
	}

	view := View{
		Nodes: make([]Node, 0, len(notes)),
		Links: make([]Link, 0, len(order)),
	}
	for _, n := range notes {
		d := degree[n.ID]
		r := baseRadius + radiusPerDegree*float64(d)
		if r > maxRadius {
			r = maxRadius
		}
		active := n.ID == activeID
		if active {
			r += activeBoost
		}
		view.Nodes = append(view.Nodes, Node{
			ID:     n.ID,
			Title:  n.Title,
			Degree: d,
			Radius: r,
			Active: active,
		})
	}
	sort.SliceStable(view.Nodes, func(i, j int) bool { return view.Nodes[i].ID < view.Nodes[j].ID })

	for _, p := range order {
		view.Links = append(view.Links, Link{Source: p.source, Target: p.target, Weight: weights[p]})
	}
	return view
}
