package stats_test

import (
	"context"
	"math"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2x3systems/motifs/motif"
	"github.com/2x3systems/motifs/motif/motiftest"
	"github.com/2x3systems/motifs/stats"
)

var edgeST = motif.PredictedEdge{Source: "S", Target: "T"}

const someP = motif.Pattern("(a:S)-[]-(b:X)")

func TestBinomTest(t *testing.T) {
	cases := []struct {
		k, n int64
		p    float64
		want float64
	}{
		{7, 10, 0.5, 0.34375},
		{3, 10, 0.5, 0.34375},
		{5, 10, 0.5, 1},
		{0, 10, 0.5, 2.0 / 1024},
		{10, 10, 0.5, 2.0 / 1024},
		{2, 10, 0.3, 0.733172068},
		{9, 10, 0.3, 0.0001436859},
		{0, 20, 0.05, 0.6226463974646917},
		{12, 40, 0.25, 0.4668097611024688},
		{50, 1000, 0.1, 1.0513488930771701e-08},
		{0, 5, 0, 1},
		{1, 5, 0, 0},
		{5, 5, 1, 1},
		{4, 5, 1, 0},
	}
	for _, tc := range cases {
		got, err := stats.BinomTest(tc.k, tc.n, tc.p)
		require.NoError(t, err)
		if tc.want == 0 {
			assert.Zero(t, got, "%+v", tc)
		} else {
			assert.InEpsilon(t, tc.want, got, 1e-6, "%+v", tc)
		}
		assert.LessOrEqual(t, got, 1.0)
	}
}

func TestBinomTestErrors(t *testing.T) {
	_, err := stats.BinomTest(0, 0, 0.5)
	assert.ErrorIs(t, err, motif.ErrDegenerateSample)

	for _, p := range []float64{-0.1, 1.5, math.NaN()} {
		_, err = stats.BinomTest(3, 10, p)
		assert.ErrorIs(t, err, motif.ErrBadProbability, "p=%v", p)
	}

	_, err = stats.BinomTest(11, 10, 0.5)
	assert.ErrorIs(t, err, motif.ErrBadSample)
}

func TestScore(t *testing.T) {
	ctx := context.Background()
	store := motiftest.NewStore(motiftest.Counts(7, 3))

	res, err := stats.Score(ctx, store, someP, edgeST, stats.ScoreOpts{Log: testr.New(t)})
	require.NoError(t, err)
	assert.EqualValues(t, 7, res.Positive)
	assert.EqualValues(t, 3, res.Negative)
	assert.EqualValues(t, 10, res.Total())
	assert.InDelta(t, 0.34375, res.PValue, 1e-9)

	queries := store.Queries()
	require.Len(t, queries, 2)
	assert.Equal(t, "MATCH (a:S)-[]-(pred:T), (a:S)-[]-(b:X) RETURN COUNT(*) AS count", queries[0])
	assert.Equal(t, "MATCH (pred:T), (a:S)-[]-(b:X) WHERE NOT (a)-[]-(pred) RETURN COUNT(*) AS count", queries[1])

	res, err = stats.Score(ctx, store, someP, edgeST, stats.ScoreOpts{NullProbability: stats.NullProbability(0.3)})
	require.NoError(t, err)
	assert.Less(t, res.PValue, 0.05)

	// A null probability of 0 is honored: any success rejects it outright
	res, err = stats.Score(ctx, store, someP, edgeST, stats.ScoreOpts{NullProbability: stats.NullProbability(0)})
	require.NoError(t, err)
	assert.Zero(t, res.PValue)

	res, err = stats.Score(ctx, motiftest.NewStore(motiftest.Counts(0, 4)), someP, edgeST, stats.ScoreOpts{NullProbability: stats.NullProbability(0)})
	require.NoError(t, err)
	assert.Equal(t, 1.0, res.PValue)
}

func TestScoreDegenerate(t *testing.T) {
	store := motiftest.NewStore(motiftest.Counts(0, 0))
	res, err := stats.Score(context.Background(), store, someP, edgeST, stats.ScoreOpts{})
	assert.ErrorIs(t, err, motif.ErrDegenerateSample)
	assert.EqualValues(t, 0, res.Total())
}

func TestScoreErrors(t *testing.T) {
	ctx := context.Background()
	errBoom := errors.New("session expired")

	store := motiftest.NewStore(motiftest.Fail(errBoom))
	_, err := stats.Score(ctx, store, someP, edgeST, stats.ScoreOpts{})
	assert.Equal(t, errBoom, err)

	store = motiftest.NewStore(motiftest.FailAfter(1, errBoom, motiftest.Counts(1, 1)))
	res, err := stats.Score(ctx, store, someP, edgeST, stats.ScoreOpts{})
	assert.Equal(t, errBoom, err)
	assert.EqualValues(t, 1, res.Positive)

	store = motiftest.NewStore(motiftest.Counts(1, 1))
	_, err = stats.Score(ctx, store, someP, edgeST, stats.ScoreOpts{NullProbability: stats.NullProbability(2)})
	assert.ErrorIs(t, err, motif.ErrBadProbability)
	assert.Empty(t, store.Queries())

	for _, bad := range []motif.Pattern{"", "(n) DETACH DELETE n", "(a:S)-[]-(b:X) RETURN *", "(a:S)-[]-(a:X)"} {
		store = motiftest.NewStore(motiftest.Counts(1, 1))
		_, err = stats.Score(ctx, store, bad, edgeST, stats.ScoreOpts{})
		assert.ErrorIs(t, err, motif.ErrBadPattern, "%q", bad)
		assert.Empty(t, store.Queries(), "%q", bad)
	}

	store = motiftest.NewStore(func(query string, params map[string]any) ([]motif.Record, error) {
		return []motif.Record{{"n": 3}}, nil
	})
	_, err = stats.Score(ctx, store, someP, edgeST, stats.ScoreOpts{})
	assert.ErrorIs(t, err, motif.ErrBadCountRecord)

	_, err = stats.Score(ctx, nil, someP, edgeST, stats.ScoreOpts{})
	assert.ErrorIs(t, err, motif.ErrNilStore)
}

func TestScoreAll(t *testing.T) {
	store := motiftest.NewStore(func(query string, params map[string]any) ([]motif.Record, error) {
		if query == "MATCH (a:S)-[]-(pred:T), (a:S)-[]-(b:Y) RETURN COUNT(*) AS count" ||
			query == "MATCH (pred:T), (a:S)-[]-(b:Y) WHERE NOT (a)-[]-(pred) RETURN COUNT(*) AS count" {
			return []motif.Record{{motif.CountField: 0}}, nil
		}
		return motiftest.Counts(7, 3)(query, params)
	})

	scored, err := stats.ScoreAll(context.Background(), store,
		[]motif.Pattern{someP, "(a:S)-[]-(b:Y)", "(a:S)-[]-(b:Z)"},
		edgeST, stats.ScoreOpts{Log: testr.New(t)})
	require.NoError(t, err)
	require.Len(t, scored, 2)
	assert.Equal(t, someP, scored[0].Pattern)
	assert.Equal(t, motif.Pattern("(a:S)-[]-(b:Z)"), scored[1].Pattern)
	assert.InDelta(t, 0.34375, scored[1].PValue, 1e-9)
}
