package pattern

import (
	"github.com/2x3systems/motifs/motif"
)

// Symbol returns the name a node goes by in a rendered pattern: node 0 is "a", node 1 is "b", and so on.
func Symbol(id motif.NodeID) string {
	return string(rune('a' + id))
}

// Labeler enumerates every LabelAssignment of a skeleton where node 0 is pinned to a given type and
// nodes 1..n-1 range over the Cartesian product of the node type vocabulary.
//
// Assignments come in product order: the highest node ID varies fastest, each position following the
// vocabulary's order.  No reduction by skeleton automorphism is made.
type Labeler struct {
	nodeTypes  []string
	sourceType string
	numNodes   int
	digits     []int // digits[i] indexes nodeTypes for node i+1
	started    bool
	done       bool
}

// NewLabeler returns a Labeler over the given skeleton.
func NewLabeler(sk *motif.Skeleton, nodeTypes []string, sourceType string) *Labeler {
	lb := &Labeler{
		nodeTypes:  nodeTypes,
		sourceType: sourceType,
		numNodes:   sk.NodeCount(),
	}
	if lb.numNodes == 0 {
		lb.done = true
	} else {
		lb.digits = make([]int, lb.numNodes-1)
		if len(lb.digits) > 0 && len(nodeTypes) == 0 {
			lb.done = true
		}
	}
	return lb
}

// Count returns the total number of assignments this Labeler produces: |nodeTypes|^(n-1).
func (lb *Labeler) Count() int64 {
	if lb.numNodes == 0 {
		return 0
	}
	count := int64(1)
	for range lb.digits {
		count *= int64(len(lb.nodeTypes))
	}
	return count
}

// Next advances to the next assignment, returning false once all have been visited.
func (lb *Labeler) Next() bool {
	if lb.done {
		return false
	}
	if !lb.started {
		lb.started = true
		return true
	}

	// "Increment" to the next combination
	for i := len(lb.digits) - 1; i >= 0; i-- {
		lb.digits[i]++
		if lb.digits[i] < len(lb.nodeTypes) {
			return true
		}
		lb.digits[i] = 0
	}

	lb.done = true
	return false
}

// Assignment returns a new LabelAssignment for the current combination.
func (lb *Labeler) Assignment() motif.LabelAssignment {
	la := make(motif.LabelAssignment, lb.numNodes)
	la[0] = lb.sourceType
	for i, di := range lb.digits {
		la[i+1] = lb.nodeTypes[di]
	}
	return la
}
