package pattern

import (
	"fmt"

	"github.com/2x3systems/motifs/motif"
)

// PredSymbol is the variable bound to the predicted edge's target node in the counting queries.
const PredSymbol = "pred"

// PresenceQuery returns a query yielding at least one row iff p has a match in the store.
func PresenceQuery(p motif.Pattern) string {
	return fmt.Sprintf("MATCH %s RETURN * LIMIT 1", p)
}

// PositiveQuery counts the matches of p where the pattern's node 0 is adjacent to a node of the
// predicted edge's target type.
func PositiveQuery(p motif.Pattern, edge motif.PredictedEdge) string {
	return fmt.Sprintf("MATCH (%s:%s)-[]-(%s:%s), %s RETURN COUNT(*) AS %s",
		Symbol(0), QuoteLabel(edge.Source),
		PredSymbol, QuoteLabel(edge.Target),
		p, motif.CountField)
}

// NegativeQuery counts, over every node of the predicted edge's target type, the matches of p where
// the pattern's node 0 is not adjacent to that node.
//
// Note that the pattern and the target node are not otherwise related, so the count is a cross
// product over all target-typed nodes and may include the target node standing in for a pattern node.
func NegativeQuery(p motif.Pattern, edge motif.PredictedEdge) string {
	return fmt.Sprintf("MATCH (%s:%s), %s WHERE NOT (%s)-[]-(%s) RETURN COUNT(*) AS %s",
		PredSymbol, QuoteLabel(edge.Target),
		p,
		Symbol(0), PredSymbol,
		motif.CountField)
}
