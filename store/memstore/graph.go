package memstore

import (
	"bytes"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/graph/simple"
	"gopkg.in/yaml.v3"
)

var ErrBadGraph = errors.New("bad graph")

// Node is a labeled node of a Graph.
type Node struct {
	ID     int64          `yaml:"id"`
	Labels []string       `yaml:"labels"`
	Props  map[string]any `yaml:"props,omitempty"`
}

// HasLabel returns true if this node carries the given label.
func (n *Node) HasLabel(label string) bool {
	for _, li := range n.Labels {
		if li == label {
			return true
		}
	}
	return false
}

// GraphFile is the YAML form of a Graph:
//
//	nodes:
//	  - {id: 1, labels: [Person], props: {name: Ann}}
//	  - {id: 2, labels: [Company]}
//	edges:
//	  - [1, 2]
type GraphFile struct {
	Nodes []Node    `yaml:"nodes"`
	Edges [][]int64 `yaml:"edges"`
}

// Graph is an in-memory labeled graph with untyped, undirected relationships.
//
// At most one relationship joins a pair of nodes and no relationship joins a node to itself.
type Graph struct {
	mu      sync.RWMutex
	g       *simple.UndirectedGraph
	nodes   map[int64]*Node
	adj     map[int64][]int64 // neighbors, ascending
	all     []int64           // node IDs, ascending
	byLabel map[string][]int64
}

func NewGraph() *Graph {
	return &Graph{
		g:       simple.NewUndirectedGraph(),
		nodes:   make(map[int64]*Node),
		adj:     make(map[int64][]int64),
		byLabel: make(map[string][]int64),
	}
}

func insertSorted(list []int64, id int64) []int64 {
	i := sort.Search(len(list), func(i int) bool { return list[i] >= id })
	list = append(list, 0)
	copy(list[i+1:], list[i:])
	list[i] = id
	return list
}

// AddNode adds a node, failing if its ID is already present.
func (G *Graph) AddNode(n Node) error {
	G.mu.Lock()
	defer G.mu.Unlock()

	if _, exists := G.nodes[n.ID]; exists {
		return errors.Wrapf(ErrBadGraph, "duplicate node %d", n.ID)
	}
	if n.Props == nil {
		n.Props = make(map[string]any)
	}
	G.g.AddNode(simple.Node(n.ID))
	G.nodes[n.ID] = &n
	G.all = insertSorted(G.all, n.ID)

	seen := make(map[string]bool, len(n.Labels))
	for _, label := range n.Labels {
		if !seen[label] {
			seen[label] = true
			G.byLabel[label] = insertSorted(G.byLabel[label], n.ID)
		}
	}
	return nil
}

// AddEdge joins the two given nodes.  Joining an already joined pair has no effect.
func (G *Graph) AddEdge(u, v int64) error {
	G.mu.Lock()
	defer G.mu.Unlock()

	if u == v {
		return errors.Wrapf(ErrBadGraph, "self loop on node %d", u)
	}
	for _, id := range [2]int64{u, v} {
		if _, exists := G.nodes[id]; !exists {
			return errors.Wrapf(ErrBadGraph, "edge references unknown node %d", id)
		}
	}
	if G.g.HasEdgeBetween(u, v) {
		return nil
	}
	G.g.SetEdge(G.g.NewEdge(simple.Node(u), simple.Node(v)))
	G.adj[u] = insertSorted(G.adj[u], v)
	G.adj[v] = insertSorted(G.adj[v], u)
	return nil
}

// NodeCount returns the number of nodes in this graph.
func (G *Graph) NodeCount() int {
	G.mu.RLock()
	defer G.mu.RUnlock()
	return G.g.Nodes().Len()
}

// EdgeCount returns the number of relationships in this graph.
func (G *Graph) EdgeCount() int {
	G.mu.RLock()
	defer G.mu.RUnlock()
	return G.g.Edges().Len()
}

// Node returns the node having the given ID, or nil.
func (G *Graph) Node(id int64) *Node {
	G.mu.RLock()
	defer G.mu.RUnlock()
	return G.nodes[id]
}

// The accessors below expect the caller to hold G.mu.

func (G *Graph) hasEdge(u, v int64) bool {
	return G.g.HasEdgeBetween(u, v)
}

func (G *Graph) neighbors(id int64) []int64 {
	return G.adj[id]
}

func (G *Graph) withLabel(label string) []int64 {
	return G.byLabel[label]
}

// LoadGraph reads a Graph from its YAML form (see GraphFile).
func LoadGraph(r io.Reader) (*Graph, error) {
	var file GraphFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && err != io.EOF {
		return nil, errors.Wrap(ErrBadGraph, err.Error())
	}

	G := NewGraph()
	for _, n := range file.Nodes {
		if err := G.AddNode(n); err != nil {
			return nil, err
		}
	}
	for i, e := range file.Edges {
		if len(e) != 2 {
			return nil, errors.Wrapf(ErrBadGraph, "edge %d has %d endpoints", i, len(e))
		}
		if err := G.AddEdge(e[0], e[1]); err != nil {
			return nil, err
		}
	}
	return G, nil
}

// LoadGraphFile reads a Graph from the given YAML file.
func LoadGraphFile(pathname string) (*Graph, error) {
	data, err := os.ReadFile(pathname)
	if err != nil {
		return nil, err
	}
	G, err := LoadGraph(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "graph file %q", pathname)
	}
	return G, nil
}
