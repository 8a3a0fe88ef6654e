package motif

import (
	"context"
)

const (

	// MinNodes and MaxNodes bound the skeleton sizes that catalogs are expected to carry.
	MinNodes = 3
	MaxNodes = 7

	// DefaultLimit is the number of accepted patterns Generate stops at when no limit is given.
	DefaultLimit = 100

	// NoLimit disables the accepted-pattern limit.
	NoLimit = -1

	// DefaultNullProbability is the success probability assumed under the binomial null hypothesis.
	DefaultNullProbability = 0.5

	// ClauseDelim separates the per-edge clauses of a Pattern.
	ClauseDelim = ","

	// CountField is the result column read by the counting queries.
	CountField = "count"
)

// NodeID is a zero-based node index within a Skeleton.  Node 0 is the distinguished node.
type NodeID int

// Edge is an undirected skeleton edge, U < V.
type Edge struct {
	U, V NodeID
}

// Skeleton is an unlabeled simple undirected graph representing one isomorphism class.
//
// Nodes are 0..n-1 in order; Edges keep the catalog's declaration order.
type Skeleton struct {
	Nodes  []NodeID
	Edges  []Edge
	Graph6 string // catalog encoding this skeleton was read from (if any)
}

// NodeCount returns the number of nodes of this skeleton.
func (sk *Skeleton) NodeCount() int {
	return len(sk.Nodes)
}

// EdgeCount returns the number of edges of this skeleton.
func (sk *Skeleton) EdgeCount() int {
	return len(sk.Edges)
}

// LabelAssignment maps each NodeID (used as an index) to a node type.
type LabelAssignment []string

// Type returns the node type assigned to the given node.
func (la LabelAssignment) Type(id NodeID) string {
	return la[id]
}

// Pattern is a rendered pattern expression: one "(a:T)-[]-(b:U)" clause per skeleton edge joined by ClauseDelim.
type Pattern string

// String implements fmt.Stringer
func (p Pattern) String() string {
	return string(p)
}

// PredictedEdge is the (source type, target type) pair whose presence is being predicted.
type PredictedEdge struct {
	Source string
	Target string
}

// StatResult is the outcome of scoring a pattern against a store.
type StatResult struct {
	Positive int64
	Negative int64
	PValue   float64
}

// Total returns the number of examples (trials) the p-value was computed over.
func (res StatResult) Total() int64 {
	return res.Positive + res.Negative
}

// Record is a single query result row, mapping result column names to values.
type Record map[string]any

// Store is a graph store client able to run declarative (Cypher) queries.
//
// Implementations differ per backend; the pattern and stats packages depend only on this interface.
type Store interface {

	// Query runs the given query and returns each result row with driver-native values.
	Query(ctx context.Context, query string, params map[string]any) ([]Record, error)

	// QueryAsJSON runs the given query and returns each result row with JSON-compatible values
	// (see NormalizeRecords).
	QueryAsJSON(ctx context.Context, query string, params map[string]any) ([]Record, error)

	// Close releases the connection(s) held by this store.
	Close(ctx context.Context) error
}

// Catalog is a source of canonical non-isomorphic skeletons, addressable by node count.
type Catalog interface {

	// Skeletons returns a lazy, non-restartable stream of every skeleton in this catalog having
	// exactly numNodes nodes, in catalog order.
	//
	// If the catalog has no entry for numNodes, ErrCatalogNotFound is returned.
	Skeletons(ctx context.Context, numNodes int) (*SkeletonStream, error)

	// Close releases any resources held by this catalog.
	Close() error
}
