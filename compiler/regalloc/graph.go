package regalloc

import (
	"github.com/slowlang/ecc/compiler/set"
)

type (
	// Graph is an undirected graph over interned locations.
	// It never has self-loops.
	Graph struct {
		Locs *Locations

		verts set.Bitmap
		adj   []set.Bitmap
	}
)

func NewGraph(locs *Locations) *Graph {
	return &Graph{Locs: locs}
}

func (g *Graph) AddVertex(l Location) {
	g.addVertex(g.Locs.ID(l))
}

func (g *Graph) AddEdge(a, b Location) {
	g.addEdge(g.Locs.ID(a), g.Locs.ID(b))
}

func (g *Graph) HasEdge(a, b Location) bool {
	x, ok := g.Locs.Lookup(a)
	if !ok {
		return false
	}

	y, ok := g.Locs.Lookup(b)
	if !ok {
		return false
	}

	return g.hasEdge(x, y)
}

func (g *Graph) HasVertex(l Location) bool {
	id, ok := g.Locs.Lookup(l)

	return ok && g.verts.IsSet(id)
}

// Adjacent returns neighbours of l ordered by id.
func (g *Graph) Adjacent(l Location) []Location {
	id, ok := g.Locs.Lookup(l)
	if !ok || id >= len(g.adj) {
		return nil
	}

	return g.Locs.Slice(g.adj[id])
}

func (g *Graph) Vertices() []Location {
	return g.Locs.Slice(g.verts)
}

// Edges returns number of edges.
func (g *Graph) Edges() (n int) {
	for _, a := range g.adj {
		n += a.Size()
	}

	return n / 2
}

func (g *Graph) addVertex(id int) {
	g.verts.Set(id)

	for id >= len(g.adj) {
		g.adj = append(g.adj, set.Bitmap{})
	}
}

func (g *Graph) addEdge(a, b int) {
	if a == b {
		return
	}

	g.addVertex(a)
	g.addVertex(b)

	g.adj[a].Set(b)
	g.adj[b].Set(a)
}

func (g *Graph) hasEdge(a, b int) bool {
	return a < len(g.adj) && g.adj[a].IsSet(b)
}

func (g *Graph) neighbours(id int) set.Bitmap {
	if id >= len(g.adj) {
		return set.Bitmap{}
	}

	return g.adj[id]
}
