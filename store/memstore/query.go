package memstore

import (
	"strings"

	"github.com/2x3systems/motifs/motif"
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/pkg/errors"
)

// Query is the subset of Cypher this store evaluates:
//
//	MATCH <path> [, <path> ...] [WHERE NOT <path>] RETURN * | COUNT(*) AS <name> [LIMIT <n>]
//
// where a path is a chain of node patterns "(sym:Label)" (symbol and label both optional) joined by
// untyped, undirected relationships "-[]-".
type Query struct {
	Match   []Path
	Exclude *Path  // WHERE NOT
	CountAs string // if set, RETURN COUNT(*) AS CountAs; otherwise RETURN *
	Limit   int    // < 0 means no limit
}

// Path is a chain of node patterns, each joined to the next by a relationship.
type Path struct {
	Nodes []NodePat
}

// NodePat is a node pattern.  An empty Symbol denotes an anonymous node, an empty Label any node.
type NodePat struct {
	Symbol string
	Label  string
}

type queryExpr struct {
	Match  []*pathExpr `"MATCH" @@ ( "," @@ )*`
	Where  *pathExpr   `( "WHERE" "NOT" @@ )?`
	Return *returnExpr `"RETURN" @@`
	Limit  *int        `( "LIMIT" @Int )?`
}

type pathExpr struct {
	Head *nodeExpr   `@@`
	Tail []*nodeExpr `( "-" "[" "]" "-" @@ )*`
}

type nodeExpr struct {
	Symbol string `"(" @Ident?`
	Plain  string `( ":" ( @Ident`
	Quoted string `| @Quoted ) )? ")"`
}

type returnExpr struct {
	All     bool   `  @"*"`
	CountAs string `| "COUNT" "(" "*" ")" "AS" @Ident`
}

var sQueryLexer = lexer.MustSimple([]lexer.SimpleRule{
	{"Ident", `[A-Za-z_][A-Za-z0-9_]*`},
	{"Quoted", "`(?:[^`]|``)*`"},
	{"Int", `[0-9]+`},
	{"Punct", `[(),:\[\]*-]`},
	{"whitespace", `\s+`},
})

var sParseQuery = participle.MustBuild[queryExpr](
	participle.Lexer(sQueryLexer),
	participle.CaseInsensitive("Ident"),
)

// ParseQuery parses a query of the supported form (see Query).
func ParseQuery(query string) (*Query, error) {
	expr, err := sParseQuery.ParseString("", query)
	if err != nil {
		return nil, errors.Wrap(motif.ErrUnsupportedQuery, err.Error())
	}

	q := &Query{
		Match: make([]Path, len(expr.Match)),
		Limit: -1,
	}
	for i, pi := range expr.Match {
		q.Match[i] = pi.path()
	}
	if expr.Where != nil {
		exclude := expr.Where.path()
		q.Exclude = &exclude
	}
	q.CountAs = expr.Return.CountAs
	if expr.Limit != nil {
		q.Limit = *expr.Limit
	}
	return q, nil
}

func (expr *pathExpr) path() Path {
	p := Path{
		Nodes: make([]NodePat, 0, 1+len(expr.Tail)),
	}
	p.Nodes = append(p.Nodes, expr.Head.pat())
	for _, ni := range expr.Tail {
		p.Nodes = append(p.Nodes, ni.pat())
	}
	return p
}

func (expr *nodeExpr) pat() NodePat {
	np := NodePat{
		Symbol: expr.Symbol,
		Label:  expr.Plain,
	}
	if len(expr.Quoted) > 0 {
		np.Label = strings.ReplaceAll(expr.Quoted[1:len(expr.Quoted)-1], "``", "`")
	}
	return np
}
