package topic

import (
	"sort"
)

// Edge kinds
const (
	EdgeDeclared = "declared"
	EdgeKeyword  = "keyword"
)

// Edge is an undirected relation between two topics
type Edge struct {
	From     string  `json:"from"`
	To       string  `json:"to"`
	Kind     string  `json:"kind"`
	Strength float64 `json:"strength"`
}

// Graph relates topics through declared related topics (strength 1.0) and
// shared keywords (strength 0.6). A declared edge is never downgraded.
type Graph struct {
	nodes []string
	adj   map[string]map[string]Edge
}

// NewGraph derives the topic graph from reg
func NewGraph(reg *Registry) *Graph {
	g := &Graph{adj: make(map[string]map[string]Edge)}
	for _, t := range reg.All() {
		g.nodes = append(g.nodes, t.Name())
		g.adj[t.Name()] = make(map[string]Edge)
	}

	for _, t := range reg.All() {
		for _, rel := range t.RelatedTopics() {
			g.link(t.Name(), rel, EdgeDeclared, 1.0)
		}
	}

	index := make(map[string][]string)
	for _, t := range reg.All() {
		for _, kw := range t.Keywords() {
			index[kw] = append(index[kw], t.Name())
		}
	}
	for _, names := range index {
		for i := 0; i < len(names); i++ {
			for j := i + 1; j < len(names); j++ {
				g.link(names[i], names[j], EdgeKeyword, 0.6)
			}
		}
	}

	return g
}

func (g *Graph) link(a, b, kind string, strength float64) {
	if a == b {
		return
	}
	if g.adj[a] == nil || g.adj[b] == nil {
		return
	}
	if existing, ok := g.adj[a][b]; ok && existing.Strength >= strength {
		return
	}
	g.adj[a][b] = Edge{From: a, To: b, Kind: kind, Strength: strength}
	g.adj[b][a] = Edge{From: b, To: a, Kind: kind, Strength: strength}
}

// Nodes returns topic names in registration order
func (g *Graph) Nodes() []string {
	return append([]string(nil), g.nodes...)
}

// Related returns the neighbours of name, strongest first, ties by name.
// A non-positive limit returns all of them.
func (g *Graph) Related(name string, limit int) []Edge {
	edges := make([]Edge, 0, len(g.adj[name]))
	for _, e := range g.adj[name] {
		edges = append(edges, e)
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Strength != edges[j].Strength {
			return edges[i].Strength > edges[j].Strength
		}
		return edges[i].To < edges[j].To
	})
	if limit > 0 && len(edges) > limit {
		edges = edges[:limit]
	}
	return edges
}

// Edges returns every edge once, with From < To
func (g *Graph) Edges() []Edge {
	var out []Edge
	for _, name := range g.nodes {
		for _, e := range g.Related(name, 0) {
			if e.From < e.To {
				out = append(out, e)
			}
		}
	}
	return out
}

// Bridges returns the intermediate topics on a shortest path from a to b.
// Adjacent topics yield an empty, non-nil slice; unconnected topics yield nil.
func (g *Graph) Bridges(a, b string) []string {
	if g.adj[a] == nil || g.adj[b] == nil || a == b {
		return nil
	}

	prev := map[string]string{a: ""}
	queue := []string{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == b {
			break
		}
		for _, e := range g.Related(cur, 0) {
			if _, ok := prev[e.To]; ok {
				continue
			}
			prev[e.To] = cur
			queue = append(queue, e.To)
		}
	}

	if _, ok := prev[b]; !ok {
		return nil
	}
	path := []string{}
	for n := prev[b]; n != a; n = prev[n] {
		path = append([]string{n}, path...)
	}
	return path
}
