package pattern

import (
	"regexp"
	"strings"

	"github.com/2x3systems/motifs/motif"
)

var plainLabel = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// QuoteLabel returns a node type as it must appear after a ':' in a Cypher node pattern.
//
// Plain identifiers are returned as-is; anything else is backtick-quoted.
func QuoteLabel(nodeType string) string {
	if plainLabel.MatchString(nodeType) {
		return nodeType
	}
	return "`" + strings.ReplaceAll(nodeType, "`", "``") + "`"
}

// Encode renders a labeled skeleton as a pattern expression:
//
//	(a:T)-[]-(b:U),(b:U)-[]-(c:V)
//
// One clause per edge in the skeleton's edge order, with an untyped, undirected relationship.
func Encode(sk *motif.Skeleton, la motif.LabelAssignment) motif.Pattern {
	var b strings.Builder
	b.Grow(24 * len(sk.Edges))

	for i, e := range sk.Edges {
		if i > 0 {
			b.WriteString(motif.ClauseDelim)
		}
		writeNode(&b, e.U, la.Type(e.U))
		b.WriteString("-[]-")
		writeNode(&b, e.V, la.Type(e.V))
	}
	return motif.Pattern(b.String())
}

func writeNode(b *strings.Builder, id motif.NodeID, nodeType string) {
	b.WriteByte('(')
	b.WriteString(Symbol(id))
	b.WriteByte(':')
	b.WriteString(QuoteLabel(nodeType))
	b.WriteByte(')')
}
