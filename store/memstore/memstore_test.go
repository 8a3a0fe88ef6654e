package memstore_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2x3systems/motifs/catalog"
	"github.com/2x3systems/motifs/motif"
	"github.com/2x3systems/motifs/pattern"
	"github.com/2x3systems/motifs/stats"
	"github.com/2x3systems/motifs/store/memstore"
)

func openSocial(t *testing.T) *memstore.Store {
	st, err := memstore.Open("testdata/social.yaml", testr.New(t))
	require.NoError(t, err)
	return st
}

func count(t *testing.T, st *memstore.Store, query string) int64 {
	records, err := st.QueryAsJSON(context.Background(), query, nil)
	require.NoError(t, err, query)
	n, err := motif.ReadCount(records)
	require.NoError(t, err, query)
	return n
}

func TestLoadGraph(t *testing.T) {
	st := openSocial(t)
	assert.Equal(t, 6, st.G.NodeCount())
	assert.Equal(t, 5, st.G.EdgeCount()) // [3, 1] repeats [1, 3]
	assert.Equal(t, "Ann", st.G.Node(1).Props["name"])
	assert.True(t, st.G.Node(6).HasLabel("Big Co"))
	assert.Nil(t, st.G.Node(7))

	for _, bad := range []string{
		"nodes: [{id: 1}, {id: 1}]",
		"nodes: [{id: 1}]\nedges: [[1, 1]]",
		"nodes: [{id: 1}]\nedges: [[1, 2]]",
		"nodes: [{id: 1}, {id: 2}]\nedges: [[1, 2, 3]]",
		"nodes: [{id: 1, color: red}]",
	} {
		_, err := memstore.LoadGraph(strings.NewReader(bad))
		assert.ErrorIs(t, err, memstore.ErrBadGraph, bad)
	}

	G, err := memstore.LoadGraph(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, 0, G.NodeCount())
}

func TestParseQuery(t *testing.T) {
	q, err := memstore.ParseQuery("MATCH (pred:T), (a:S)-[]-(b:`X y`) WHERE NOT (a)-[]-(pred) RETURN COUNT(*) AS count")
	require.NoError(t, err)
	require.Len(t, q.Match, 2)
	assert.Equal(t, []memstore.NodePat{{Symbol: "pred", Label: "T"}}, q.Match[0].Nodes)
	assert.Equal(t, []memstore.NodePat{{Symbol: "a", Label: "S"}, {Symbol: "b", Label: "X y"}}, q.Match[1].Nodes)
	require.NotNil(t, q.Exclude)
	assert.Equal(t, []memstore.NodePat{{Symbol: "a"}, {Symbol: "pred"}}, q.Exclude.Nodes)
	assert.Equal(t, "count", q.CountAs)
	assert.Equal(t, -1, q.Limit)

	q, err = memstore.ParseQuery("match (a:S)-[]-()-[]-(:X) return * limit 1")
	require.NoError(t, err)
	assert.Len(t, q.Match[0].Nodes, 3)
	assert.Empty(t, q.CountAs)
	assert.Equal(t, 1, q.Limit)

	for _, bad := range []string{
		"MATCH (a)-->(b) RETURN *",
		"MATCH (a)-[:KNOWS]-(b) RETURN *",
		"MATCH (a) RETURN a",
		"CREATE (a:S)",
		"MATCH (a) RETURN * LIMIT",
	} {
		_, err := memstore.ParseQuery(bad)
		assert.ErrorIs(t, err, motif.ErrUnsupportedQuery, bad)
	}
}

func TestCounts(t *testing.T) {
	st := openSocial(t)

	cases := []struct {
		query string
		want  int64
	}{
		{"MATCH (x) RETURN COUNT(*) AS count", 6},
		{"match (a:Person) return count(*) as count", 2},
		{"MATCH (x:`Big Co`) RETURN COUNT(*) AS count", 1},
		{"MATCH (a:Person)-[]-(b:Company) RETURN COUNT(*) AS count", 3},
		{"MATCH (a:Person)-[]-(b:Person) RETURN COUNT(*) AS count", 2},

		// A relationship binds at most once per match
		{"MATCH (a:Person)-[]-(b:Person), (b:Person)-[]-(a:Person) RETURN COUNT(*) AS count", 0},
		{"MATCH (a)-[]-(b)-[]-(c) RETURN COUNT(*) AS count", 12},
		{"MATCH (a:Person)-[]-(c:Company), (b:Person)-[]-(c:Company) RETURN COUNT(*) AS count", 2},

		// Distinct variables may bind the same node
		{"MATCH (a:Person), (b:Person) RETURN COUNT(*) AS count", 4},

		{"MATCH (a:Person)-[]-(pred:Company), (a:Person)-[]-(b:Person) RETURN COUNT(*) AS count", 3},
		{"MATCH (pred:Company), (a:Person)-[]-(b:Person) WHERE NOT (a)-[]-(pred) RETURN COUNT(*) AS count", 1},
		{"MATCH (a:Person) WHERE NOT (a)-[]-(:Company) RETURN COUNT(*) AS count", 0},
		{"MATCH (a:Company) WHERE NOT (a)-[]-(:City) RETURN COUNT(*) AS count", 1},
		{"MATCH (a:Person)-[]-(b:City) RETURN COUNT(*) AS count", 0},
		{"MATCH (a:Nobody) RETURN COUNT(*) AS count", 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, count(t, st, tc.query), tc.query)
	}
}

func TestReturnAll(t *testing.T) {
	st := openSocial(t)
	ctx := context.Background()

	records, err := st.QueryAsJSON(ctx, "MATCH (a:Person) RETURN *", nil)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, motif.Record{"a": map[string]any{"name": "Ann", "age": json.Number("41")}}, records[0])
	assert.Equal(t, motif.Record{"a": map[string]any{"name": "Bob"}}, records[1])

	records, err = st.QueryAsJSON(ctx, "MATCH (a:Company)-[]-(b:City) RETURN * LIMIT 1", nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, motif.Record{"a": map[string]any{"name": "Initech"}, "b": map[string]any{}}, records[0])

	records, err = st.Query(ctx, "MATCH (a:Person)-[]-(b:City) RETURN * LIMIT 1", nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	records, err = st.Query(ctx, "MATCH (a) RETURN * LIMIT 0", nil)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestQueryErrors(t *testing.T) {
	st := openSocial(t)
	ctx := context.Background()

	_, err := st.Query(ctx, "MATCH () RETURN *", nil)
	assert.ErrorIs(t, err, motif.ErrUnsupportedQuery)

	_, err = st.Query(ctx, "MATCH (a) WHERE NOT (a)-[]-(z) RETURN *", nil)
	assert.ErrorIs(t, err, motif.ErrUnsupportedQuery)

	_, err = st.Query(ctx, "MATCH (a:Person) RETURN *", map[string]any{"name": "Ann"})
	assert.ErrorIs(t, err, motif.ErrUnsupportedQuery)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = st.QueryAsJSON(cancelled, "MATCH (a) RETURN *", nil)
	assert.ErrorIs(t, err, context.Canceled)

	assert.NoError(t, st.Close(ctx))
}

func TestGenerateAndScore(t *testing.T) {
	st := openSocial(t)
	ctx := context.Background()
	edge := motif.PredictedEdge{Source: "Person", Target: "Company"}

	want := []motif.Pattern{
		"(a:Person)-[]-(c:Company),(b:Person)-[]-(c:Company)",
		"(a:Person)-[]-(c:Person),(b:Company)-[]-(c:Person)",
		"(a:Person)-[]-(c:Company),(b:City)-[]-(c:Company)",
		"(a:Person)-[]-(b:Person),(a:Person)-[]-(c:Company),(b:Person)-[]-(c:Company)",
		"(a:Person)-[]-(b:Company),(a:Person)-[]-(c:Person),(b:Company)-[]-(c:Person)",
	}

	for _, workers := range []int{1, 3} {
		pats, err := pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
			NodeTypes: []string{"Person", "Company", "City"},
			Edge:      edge,
			NumNodes:  3,
			Store:     st,
			Workers:   workers,
			Log:       testr.New(t),
		})
		require.NoError(t, err)
		assert.Equal(t, want, pats, "workers=%d", workers)
	}

	res, err := stats.Score(ctx, st, "(a:Person)-[]-(b:Person)", edge, stats.ScoreOpts{})
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Positive)
	assert.EqualValues(t, 1, res.Negative)
	assert.InDelta(t, 0.625, res.PValue, 1e-9)

	_, err = stats.Score(ctx, st, "(a:Person)-[]-(b:City)", edge, stats.ScoreOpts{})
	assert.ErrorIs(t, err, motif.ErrDegenerateSample)
}
