package catalog

import (
	"strings"

	"github.com/2x3systems/motifs/motif"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/encoding/graph6"
	"gonum.org/v1/gonum/graph/simple"
)

// graph6Header is the optional header line some graph6 files start with.
const graph6Header = ">>graph6<<"

// ParseGraph6 decodes a single graph6 line into a Skeleton.
//
// Nodes are 0..n-1 and edges are listed as (u, v) with u < v, ordered by u and then v.
func ParseGraph6(line string) (motif.Skeleton, error) {
	line = strings.TrimPrefix(strings.TrimSpace(line), graph6Header)

	g := graph6.Graph(line)
	if len(line) == 0 || !graph6.IsValid(g) {
		return motif.Skeleton{}, errors.Wrapf(motif.ErrBadGraph6, "%q", line)
	}

	n := g.Nodes().Len()
	sk := motif.Skeleton{
		Nodes:  make([]motif.NodeID, n),
		Graph6: line,
	}
	for u := 0; u < n; u++ {
		sk.Nodes[u] = motif.NodeID(u)
		for v := u + 1; v < n; v++ {
			if g.HasEdgeBetween(int64(u), int64(v)) {
				sk.Edges = append(sk.Edges, motif.Edge{U: motif.NodeID(u), V: motif.NodeID(v)})
			}
		}
	}
	return sk, nil
}

// EncodeGraph6 returns the graph6 encoding of the given skeleton's topology.
func EncodeGraph6(sk *motif.Skeleton) string {
	g := simple.NewUndirectedGraph()
	for _, id := range sk.Nodes {
		g.AddNode(simple.Node(id))
	}
	for _, e := range sk.Edges {
		g.SetEdge(simple.Edge{F: simple.Node(e.U), T: simple.Node(e.V)})
	}
	return string(graph6.Encode(g))
}
