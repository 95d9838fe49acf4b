package graph

import (
	"hash/fnv"
	"math"
	"sync"
)

// Layout force constants, tuned for collections of tens to a few hundred
// notes.
const (
	repulsion    = 2000.0
	springLength = 60.0
	springK      = 0.06
	centering    = 0.01
	damping      = 0.85
	seedSpread   = 120.0
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type bodyState struct {
	pos    Point
	vel    Point
	pinned bool
}

// Layout owns node positions across data refreshes. Settled nodes keep their
// coordinates when the collection changes; only genuinely new nodes are
// seeded, with a deterministic jitter derived from their ID so layouts are
// reproducible.
type Layout struct {
	mu     sync.Mutex
	bodies map[string]*bodyState
}

func NewLayout() *Layout {
	return &Layout{bodies: make(map[string]*bodyState)}
}

// Apply reconciles tracked nodes with the view: new nodes are seeded,
// vanished nodes are forgotten, existing nodes are left exactly where they
// are.
func (l *Layout) Apply(view View) {
	l.mu.Lock()
	defer l.mu.Unlock()

	present := make(map[string]bool, len(view.Nodes))
	for _, n := range view.Nodes {
		present[n.ID] = true
		if _, ok := l.bodies[n.ID]; !ok {
			l.bodies[n.ID] = &bodyState{pos: seedPosition(n.ID)}
		}
	}
	for id := range l.bodies {
		if !present[id] {
			delete(l.bodies, id)
		}
	}
}

// Step advances the simulation: nodes repel each other, links pull their
// endpoints together, and a weak global force drags everything toward the
// origin. Pinned nodes exert forces but do not move.
func (l *Layout) Step(view View, iterations int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for it := 0; it < iterations; it++ {
		forces := make(map[string]Point, len(view.Nodes))

		for i := 0; i < len(view.Nodes); i++ {
			a := l.bodies[view.Nodes[i].ID]
			if a == nil {
				continue
			}
			for j := i + 1; j < len(view.Nodes); j++ {
				b := l.bodies[view.Nodes[j].ID]
				if b == nil {
					continue
				}
				dx := a.pos.X - b.pos.X
				dy := a.pos.Y - b.pos.Y
				distSq := dx*dx + dy*dy
				if distSq < 1 {
					distSq = 1
				}
				dist := math.Sqrt(distSq)
				f := repulsion / distSq
				fx := f * dx / dist
				fy := f * dy / dist
				addForce(forces, view.Nodes[i].ID, fx, fy)
				addForce(forces, view.Nodes[j].ID, -fx, -fy)
			}
		}

		for _, link := range view.Links {
			a := l.bodies[link.Source]
			b := l.bodies[link.Target]
			if a == nil || b == nil {
				continue
			}
			dx := b.pos.X - a.pos.X
			dy := b.pos.Y - a.pos.Y
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist < 1 {
				dist = 1
			}
			stretch := dist - springLength
			f := springK * stretch * float64(link.Weight)
			fx := f * dx / dist
			fy := f * dy / dist
			addForce(forces, link.Source, fx, fy)
			addForce(forces, link.Target, -fx, -fy)
		}

		for _, n := range view.Nodes {
			body := l.bodies[n.ID]
			if body == nil || body.pinned {
				continue
			}
			f := forces[n.ID]
			f.X -= body.pos.X * centering
			f.Y -= body.pos.Y * centering
			body.vel.X = (body.vel.X + f.X) * damping
			body.vel.Y = (body.vel.Y + f.Y) * damping
			body.pos.X += body.vel.X
			body.pos.Y += body.vel.Y
		}
	}
}

// Pin fixes a node at the given position for the duration of a drag.
func (l *Layout) Pin(id string, p Point) {
	l.mu.Lock()
	defer l.mu.Unlock()
	body, ok := l.bodies[id]
	if !ok {
		body = &bodyState{}
		l.bodies[id] = body
	}
	body.pos = p
	body.vel = Point{}
	body.pinned = true
}

// Release returns a pinned node to the simulation.
func (l *Layout) Release(id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if body, ok := l.bodies[id]; ok {
		body.pinned = false
	}
}

// Positions snapshots current node coordinates.
func (l *Layout) Positions() map[string]Point {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(map[string]Point, len(l.bodies))
	for id, body := range l.bodies {
		out[id] = body.pos
	}
	return out
}

func addForce(forces map[string]Point, id string, fx, fy float64) {
	f := forces[id]
	f.X += fx
	f.Y += fy
	forces[id] = f
}

// seedPosition places a new node deterministically from its ID so a rebuild
// of the same collection yields the same initial layout.
func seedPosition(id string) Point {
	h := fnv.New64a()
	_, _ = h.Write([]byte(id))
	sum := h.Sum64()
	angle := float64(sum%3600) / 3600 * 2 * math.Pi
	radius := float64((sum>>16)%uint64(seedSpread)) + 10
	return Point{X: radius * math.Cos(angle), Y: radius * math.Sin(angle)}
}
