package pattern

import (
	"strings"

	"github.com/2x3systems/motifs/motif"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// NodeRef is one endpoint of a pattern clause.
type NodeRef struct {
	Symbol string
	Type   string
}

// Clause is a single "(a:T)-[]-(b:U)" edge clause of a pattern.
type Clause struct {
	A, B NodeRef
}

type patternExpr struct {
	Clauses []*clauseExpr `@@ ( "," @@ )*`
}

type clauseExpr struct {
	From *nodeExpr `@@ "-" "[" "]" "-"`
	To   *nodeExpr `@@`
}

type nodeExpr struct {
	Symbol string `"(" @Ident ":"`
	Plain  string `( @Ident`
	Quoted string `| @Quoted ) ")"`
}

var sPatternLexer = lexer.MustSimple([]lexer.SimpleRule{
	{"Ident", `[A-Za-z_][A-Za-z0-9_]*`},
	{"Quoted", "`(?:[^`]|``)*`"},
	{"Punct", `[(),:\[\]-]`},
	{"whitespace", `\s+`},
})

var sParsePattern = participle.MustBuild[patternExpr](
	participle.Lexer(sPatternLexer),
)

func (node *nodeExpr) ref() NodeRef {
	ref := NodeRef{
		Symbol: node.Symbol,
		Type:   node.Plain,
	}
	if len(node.Quoted) > 0 {
		inner := node.Quoted[1 : len(node.Quoted)-1]
		ref.Type = strings.ReplaceAll(inner, "``", "`")
	}
	return ref
}

// Parse reads a pattern expression back into its clauses.
func Parse(p motif.Pattern) ([]Clause, error) {
	expr, err := sParsePattern.ParseString("", string(p))
	if err != nil {
		return nil, errors.Wrap(motif.ErrBadPattern, err.Error())
	}

	clauses := make([]Clause, len(expr.Clauses))
	for i, ci := range expr.Clauses {
		clauses[i] = Clause{
			A: ci.From.ref(),
			B: ci.To.ref(),
		}
	}
	return clauses, nil
}

// Labels returns the node type bound to each symbol of the given pattern, failing if a symbol is
// bound to two different types.
func Labels(p motif.Pattern) (map[string]string, error) {
	clauses, err := Parse(p)
	if err != nil {
		return nil, err
	}

	labels := make(map[string]string)
	for _, ci := range clauses {
		for _, ref := range []NodeRef{ci.A, ci.B} {
			if prev, exists := labels[ref.Symbol]; exists && prev != ref.Type {
				return nil, errors.Wrapf(motif.ErrBadPattern, "%s is both %s and %s", ref.Symbol, prev, ref.Type)
			}
			labels[ref.Symbol] = ref.Type
		}
	}
	return labels, nil
}
