package pattern_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"testing/fstest"

	"github.com/go-logr/logr/funcr"
	"github.com/go-logr/logr/testr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2x3systems/motifs/catalog"
	"github.com/2x3systems/motifs/motif"
	"github.com/2x3systems/motifs/motif/motiftest"
	"github.com/2x3systems/motifs/pattern"
)

var (
	path3 = motif.Skeleton{
		Nodes: []motif.NodeID{0, 1, 2},
		Edges: []motif.Edge{{0, 2}, {1, 2}},
	}
	edgeST = motif.PredictedEdge{Source: "S", Target: "T"}
)

func TestLabeler(t *testing.T) {
	sk := motif.Skeleton{Nodes: []motif.NodeID{0, 1, 2, 3}}
	lb := pattern.NewLabeler(&sk, []string{"A", "B", "C"}, "S")
	assert.EqualValues(t, 27, lb.Count())

	var all []motif.LabelAssignment
	for lb.Next() {
		all = append(all, lb.Assignment())
	}
	require.Len(t, all, 27)
	assert.Equal(t, motif.LabelAssignment{"S", "A", "A", "A"}, all[0])
	assert.Equal(t, motif.LabelAssignment{"S", "A", "A", "B"}, all[1])
	assert.Equal(t, motif.LabelAssignment{"S", "A", "B", "A"}, all[3])
	assert.Equal(t, motif.LabelAssignment{"S", "C", "C", "C"}, all[26])
	for _, la := range all {
		assert.Equal(t, "S", la.Type(0))
	}
	assert.False(t, lb.Next())

	// No vocabulary means no labelings once there is more than the pinned node
	lb = pattern.NewLabeler(&sk, nil, "S")
	assert.False(t, lb.Next())
	assert.EqualValues(t, 0, lb.Count())

	single := motif.Skeleton{Nodes: []motif.NodeID{0}}
	lb = pattern.NewLabeler(&single, nil, "S")
	require.True(t, lb.Next())
	assert.Equal(t, motif.LabelAssignment{"S"}, lb.Assignment())
	assert.False(t, lb.Next())
}

func TestEncode(t *testing.T) {
	p := pattern.Encode(&path3, motif.LabelAssignment{"S", "X", "Y"})
	assert.Equal(t, motif.Pattern("(a:S)-[]-(c:Y),(b:X)-[]-(c:Y)"), p)

	p = pattern.Encode(&path3, motif.LabelAssignment{"S", "my type", "x`y"})
	assert.Equal(t, motif.Pattern("(a:S)-[]-(c:`x``y`),(b:`my type`)-[]-(c:`x``y`)"), p)

	clauses, err := pattern.Parse(p)
	require.NoError(t, err)
	require.Len(t, clauses, 2)
	assert.Equal(t, pattern.NodeRef{Symbol: "b", Type: "my type"}, clauses[1].A)
	assert.Equal(t, pattern.NodeRef{Symbol: "c", Type: "x`y"}, clauses[1].B)
}

func TestParse(t *testing.T) {
	labels, err := pattern.Labels("(a:S)-[]-(b:X), (b:X)-[]-(c:Y)")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "S", "b": "X", "c": "Y"}, labels)

	for _, bad := range []motif.Pattern{
		"",
		"(a:X)-[]-",
		"(a:X)-[]-(b:Y),",
		"(a)-[]-(b:Y)",
		"(a:X)-[:R]-(b:Y)",
	} {
		_, err := pattern.Parse(bad)
		assert.ErrorIs(t, err, motif.ErrBadPattern, "%q", bad)
	}

	_, err = pattern.Labels("(a:X)-[]-(b:Y),(a:Z)-[]-(b:Y)")
	assert.ErrorIs(t, err, motif.ErrBadPattern)
}

func TestQueries(t *testing.T) {
	p := motif.Pattern("(a:S)-[]-(b:X)")
	assert.Equal(t, "MATCH (a:S)-[]-(b:X) RETURN * LIMIT 1", pattern.PresenceQuery(p))
	assert.Equal(t,
		"MATCH (a:S)-[]-(pred:T), (a:S)-[]-(b:X) RETURN COUNT(*) AS count",
		pattern.PositiveQuery(p, edgeST))
	assert.Equal(t,
		"MATCH (pred:T), (a:S)-[]-(b:X) WHERE NOT (a)-[]-(pred) RETURN COUNT(*) AS count",
		pattern.NegativeQuery(p, edgeST))
	assert.Equal(t,
		"MATCH (pred:`T 2`), (a:S)-[]-(b:X) WHERE NOT (a)-[]-(pred) RETURN COUNT(*) AS count",
		pattern.NegativeQuery(p, motif.PredictedEdge{Source: "S", Target: "T 2"}))
}

func TestGenerateUnfiltered(t *testing.T) {
	ctx := context.Background()
	pats, err := pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X", "Y"},
		Edge:      edgeST,
		NumNodes:  3,
		Limit:     motif.NoLimit,
		Log:       testr.New(t),
	})
	require.NoError(t, err)
	assert.Equal(t, []motif.Pattern{
		"(a:S)-[]-(c:X),(b:X)-[]-(c:X)",
		"(a:S)-[]-(c:Y),(b:X)-[]-(c:Y)",
		"(a:S)-[]-(c:X),(b:Y)-[]-(c:X)",
		"(a:S)-[]-(c:Y),(b:Y)-[]-(c:Y)",
		"(a:S)-[]-(b:X),(a:S)-[]-(c:X),(b:X)-[]-(c:X)",
		"(a:S)-[]-(b:X),(a:S)-[]-(c:Y),(b:X)-[]-(c:Y)",
		"(a:S)-[]-(b:Y),(a:S)-[]-(c:X),(b:Y)-[]-(c:X)",
		"(a:S)-[]-(b:Y),(a:S)-[]-(c:Y),(b:Y)-[]-(c:Y)",
	}, pats)
}

func TestGenerateCounts(t *testing.T) {
	ctx := context.Background()
	cat := catalog.Embedded()
	nodeTypes := []string{"X", "Y"}

	for n := motif.MinNodes; n <= motif.MaxNodes; n++ {
		stream, err := cat.Skeletons(ctx, n)
		require.NoError(t, err)
		skeletons, err := stream.PullAll()
		require.NoError(t, err)

		pats, err := pattern.Generate(ctx, cat, pattern.GenerateOpts{
			NodeTypes: nodeTypes,
			Edge:      edgeST,
			NumNodes:  n,
			Limit:     motif.NoLimit,
		})
		require.NoError(t, err)

		require.Len(t, pats, len(skeletons)<<(n-1), "n=%d", n)

		// Spot check every pattern's shape
		i := 0
		for _, sk := range skeletons {
			for j := 0; j < 1<<(n-1); j++ {
				p := pats[i]
				i++
				assert.Equal(t, sk.EdgeCount(), strings.Count(string(p), "-[]-"))
				labels, err := pattern.Labels(p)
				require.NoError(t, err)
				assert.Equal(t, "S", labels["a"])
				assert.Len(t, labels, n)
			}
		}
	}
}

func TestGenerateLimit(t *testing.T) {
	ctx := context.Background()
	opts := pattern.GenerateOpts{
		NodeTypes: []string{"A", "B", "C"},
		Edge:      edgeST,
		NumNodes:  5,
		Limit:     motif.NoLimit,
	}

	all, err := pattern.Generate(ctx, catalog.Embedded(), opts)
	require.NoError(t, err)
	require.Len(t, all, 21*81)

	opts.Limit = 0
	pats, err := pattern.Generate(ctx, catalog.Embedded(), opts)
	require.NoError(t, err)
	assert.Equal(t, all[:motif.DefaultLimit], pats)

	opts.Limit = 5
	pats, err = pattern.Generate(ctx, catalog.Embedded(), opts)
	require.NoError(t, err)
	assert.Equal(t, all[:5], pats)
}

func TestGenerateEdgeCases(t *testing.T) {
	ctx := context.Background()
	log := testr.New(t)

	// Empty vocabulary
	pats, err := pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		Edge:     edgeST,
		NumNodes: 3,
		Log:      log,
	})
	require.NoError(t, err)
	assert.Empty(t, pats)

	// Out of range sizes are only advisory; the catalog decides
	_, err = pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X"},
		Edge:      edgeST,
		NumNodes:  2,
		Log:       log,
	})
	assert.ErrorIs(t, err, motif.ErrCatalogNotFound)

	_, err = pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X", ""},
		Edge:      edgeST,
		NumNodes:  3,
	})
	assert.ErrorIs(t, err, motif.ErrBadNodeType)

	_, err = pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X"},
		Edge:      motif.PredictedEdge{Target: "T"},
		NumNodes:  3,
	})
	assert.ErrorIs(t, err, motif.ErrBadEdgeSpec)

	// Only the source type takes part in enumeration
	pats, err = pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X"},
		Edge:      motif.PredictedEdge{Source: "S"},
		NumNodes:  3,
	})
	require.NoError(t, err)
	assert.Equal(t, []motif.Pattern{
		"(a:S)-[]-(c:X),(b:X)-[]-(c:X)",
		"(a:S)-[]-(b:X),(a:S)-[]-(c:X),(b:X)-[]-(c:X)",
	}, pats)

	// Edge selection
	pats, err = pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X"},
		Edge:      edgeST,
		NumNodes:  4,
		Selector:  motif.SkeletonSelector{MinEdges: 5},
	})
	require.NoError(t, err)
	assert.Len(t, pats, 2) // K4 and K4 minus an edge

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = pattern.Generate(cancelled, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X"},
		Edge:      edgeST,
		NumNodes:  3,
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerateOutOfRange(t *testing.T) {
	ctx := context.Background()
	cat := catalog.FS(fstest.MapFS{
		"graph2c.g6": {Data: []byte("A_\n")},     // K2
		"graph8c.g6": {Data: []byte("G~~~~{\n")}, // K8
	}, testr.New(t))

	var (
		mu    sync.Mutex
		lines []string
	)
	log := funcr.New(func(prefix, args string) {
		mu.Lock()
		lines = append(lines, args)
		mu.Unlock()
	}, funcr.Options{})

	for _, tc := range []struct {
		numNodes int
		clauses  int
	}{
		{2, 1},
		{8, 28},
	} {
		lines = nil
		pats, err := pattern.Generate(ctx, cat, pattern.GenerateOpts{
			NodeTypes: []string{"X"},
			Edge:      edgeST,
			NumNodes:  tc.numNodes,
			Log:       log,
		})
		require.NoError(t, err, "n=%d", tc.numNodes)
		require.Len(t, pats, 1, "n=%d", tc.numNodes)

		clauses, err := pattern.Parse(pats[0])
		require.NoError(t, err)
		assert.Len(t, clauses, tc.clauses)
		assert.Equal(t, pattern.NodeRef{Symbol: "a", Type: "S"}, clauses[0].A)

		advisory := motif.CheckNodeCount(tc.numNodes).Error()
		assert.ErrorIs(t, motif.CheckNodeCount(tc.numNodes), motif.ErrNodeCountRange)
		mu.Lock()
		logged := strings.Join(lines, "\n")
		mu.Unlock()
		assert.Contains(t, logged, "generating anyway")
		assert.Contains(t, logged, advisory)
	}

	// In range sizes log no advisory
	lines = nil
	_, err := pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X"},
		Edge:      edgeST,
		NumNodes:  3,
		Log:       log,
	})
	require.NoError(t, err)
	assert.NotContains(t, strings.Join(lines, "\n"), "generating anyway")
}

func TestGenerateValidated(t *testing.T) {
	ctx := context.Background()
	store := motiftest.NewStore(motiftest.Present("(b:Y)"))

	pats, err := pattern.Generate(ctx, catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"X", "Y"},
		Edge:      edgeST,
		NumNodes:  3,
		Store:     store,
		Log:       testr.New(t),
	})
	require.NoError(t, err)
	assert.Equal(t, []motif.Pattern{
		"(a:S)-[]-(c:X),(b:Y)-[]-(c:X)",
		"(a:S)-[]-(c:Y),(b:Y)-[]-(c:Y)",
		"(a:S)-[]-(b:Y),(a:S)-[]-(c:X),(b:Y)-[]-(c:X)",
		"(a:S)-[]-(b:Y),(a:S)-[]-(c:Y),(b:Y)-[]-(c:Y)",
	}, pats)

	queries := store.Queries()
	require.Len(t, queries, 8)
	for _, q := range queries {
		assert.True(t, strings.HasPrefix(q, "MATCH (a:S)"))
		assert.True(t, strings.HasSuffix(q, " RETURN * LIMIT 1"))
	}
}

func TestGenerateStopsQuerying(t *testing.T) {
	store := motiftest.NewStore(motiftest.Present("(a:S)"))
	pats, err := pattern.Generate(context.Background(), catalog.Embedded(), pattern.GenerateOpts{
		NodeTypes: []string{"A", "B", "C"},
		Edge:      edgeST,
		NumNodes:  6,
		Store:     store,
		Limit:     3,
	})
	require.NoError(t, err)
	assert.Len(t, pats, 3)
	assert.LessOrEqual(t, len(store.Queries()), 5)
}

func TestGenerateParallel(t *testing.T) {
	ctx := context.Background()
	opts := pattern.GenerateOpts{
		NodeTypes: []string{"A", "B", "C"},
		Edge:      edgeST,
		NumNodes:  4,
		Limit:     motif.NoLimit,
	}

	opts.Store = motiftest.NewStore(motiftest.Present("(c:B)", "(d:A)"))
	sequential, err := pattern.Generate(ctx, catalog.Embedded(), opts)
	require.NoError(t, err)
	require.NotEmpty(t, sequential)

	for _, workers := range []int{2, 4, 16} {
		opts.Workers = workers
		opts.Store = motiftest.NewStore(motiftest.Present("(c:B)", "(d:A)"))
		parallel, err := pattern.Generate(ctx, catalog.Embedded(), opts)
		require.NoError(t, err)
		assert.Equal(t, sequential, parallel, "workers=%d", workers)

		opts.Limit = 7
		opts.Store = motiftest.NewStore(motiftest.Present("(c:B)", "(d:A)"))
		parallel, err = pattern.Generate(ctx, catalog.Embedded(), opts)
		require.NoError(t, err)
		assert.Equal(t, sequential[:7], parallel, "workers=%d", workers)
		opts.Limit = motif.NoLimit
	}
}

func TestGenerateStoreError(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("connection refused")

	opts := pattern.GenerateOpts{
		NodeTypes: []string{"A", "B"},
		Edge:      edgeST,
		NumNodes:  4,
		Limit:     motif.NoLimit,
	}
	all, err := pattern.Generate(ctx, catalog.Embedded(), opts)
	require.NoError(t, err)

	failing := pattern.PresenceQuery(all[4])
	respond := func(query string, params map[string]any) ([]motif.Record, error) {
		if query == failing {
			return nil, errBoom
		}
		return motiftest.Present("(a:S)")(query, params)
	}

	for _, workers := range []int{1, 4} {
		opts.Workers = workers
		opts.Store = motiftest.NewStore(respond)
		pats, err := pattern.Generate(ctx, catalog.Embedded(), opts)
		assert.Equal(t, errBoom, err, "workers=%d", workers)
		assert.Equal(t, all[:4], pats, "workers=%d", workers)
	}
}
