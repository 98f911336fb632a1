// Package tgen builds and serializes action-dependency graphs for the tgen
// traffic generator.
package tgen

import (
	"cmp"
	"slices"

	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/multi"
)

// WeightAttr is the edge attribute tgen reads for weighted random choice.
const WeightAttr = "weight"

// Node is a named tgen action.
type Node struct {
	id    int64
	Name  string
	Attrs map[string]string
}

// ID implements graph.Node.
func (n *Node) ID() int64 { return n.id }

// Edge is a directed dependency between two actions. Weight is only
// meaningful when Weighted is set.
type Edge struct {
	F, T     *Node
	UID      int64
	W        float64
	Weighted bool
	Attrs    map[string]string
}

func (e *Edge) From() graph.Node { return e.F }
func (e *Edge) To() graph.Node   { return e.T }
func (e *Edge) ID() int64        { return e.UID }
func (e *Edge) Weight() float64  { return e.W }

func (e *Edge) ReversedLine() graph.Line {
	r := *e
	r.F, r.T = e.T, e.F
	return &r
}

// Graph is a directed graph of named actions. Self-loops are allowed; at
// most one edge connects an ordered pair of nodes.
type Graph struct {
	g        *multi.WeightedDirectedGraph
	byName   map[string]*Node
	nextNode int64
	nextEdge int64
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{
		g:      multi.NewWeightedDirectedGraph(),
		byName: make(map[string]*Node),
	}
}

// AddNode adds name, merging attrs into an existing node of that name.
func (g *Graph) AddNode(name string, attrs map[string]string) *Node {
	n, ok := g.byName[name]
	if !ok {
		n = &Node{id: g.nextNode, Name: name, Attrs: make(map[string]string)}
		g.nextNode++
		g.byName[name] = n
		g.g.AddNode(n)
	}
	for k, v := range attrs {
		n.Attrs[k] = v
	}
	return n
}

// Node returns the node called name, or nil.
func (g *Graph) Node(name string) *Node {
	return g.byName[name]
}

// SetNodeAttr sets one attribute, adding the node if needed.
func (g *Graph) SetNodeAttr(name, key, value string) {
	g.AddNode(name, map[string]string{key: value})
}

// AddEdge connects from to to without a weight, adding missing nodes and
// replacing any existing edge between them.
func (g *Graph) AddEdge(from, to string) *Edge {
	return g.setEdge(from, to, 0, false)
}

// AddWeightedEdge is AddEdge with a weight attribute.
func (g *Graph) AddWeightedEdge(from, to string, weight float64) *Edge {
	return g.setEdge(from, to, weight, true)
}

func (g *Graph) setEdge(from, to string, weight float64, weighted bool) *Edge {
	f := g.AddNode(from, nil)
	t := g.AddNode(to, nil)

	for _, l := range graph.LinesOf(g.g.Lines(f.id, t.id)) {
		g.g.RemoveLine(f.id, t.id, l.ID())
	}

	e := &Edge{F: f, T: t, UID: g.nextEdge, W: weight, Weighted: weighted, Attrs: make(map[string]string)}
	g.nextEdge++
	g.g.SetWeightedLine(e)
	return e
}

// Edge returns the edge from -> to, or nil.
func (g *Graph) Edge(from, to string) *Edge {
	f, t := g.byName[from], g.byName[to]
	if f == nil || t == nil {
		return nil
	}
	lines := graph.LinesOf(g.g.Lines(f.id, t.id))
	if len(lines) == 0 {
		return nil
	}
	return lines[0].(*Edge)
}

// HasEdge reports whether from -> to exists.
func (g *Graph) HasEdge(from, to string) bool {
	return g.Edge(from, to) != nil
}

// Nodes returns all nodes in insertion order.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.byName))
	for _, n := range graph.NodesOf(g.g.Nodes()) {
		nodes = append(nodes, n.(*Node))
	}
	slices.SortFunc(nodes, func(a, b *Node) int { return cmp.Compare(a.id, b.id) })
	return nodes
}

// Edges returns all edges in insertion order.
func (g *Graph) Edges() []*Edge {
	var edges []*Edge
	for _, n := range g.Nodes() {
		for _, succ := range graph.NodesOf(g.g.From(n.id)) {
			for _, l := range graph.LinesOf(g.g.Lines(n.id, succ.ID())) {
				edges = append(edges, l.(*Edge))
			}
		}
	}
	slices.SortFunc(edges, func(a, b *Edge) int { return cmp.Compare(a.UID, b.UID) })
	return edges
}

// Successors returns the names of the actions reachable in one step from
// name, in edge insertion order.
func (g *Graph) Successors(name string) []string {
	var out []string
	for _, e := range g.Edges() {
		if e.F.Name == name {
			out = append(out, e.T.Name)
		}
	}
	return out
}
