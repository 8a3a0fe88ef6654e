package stats

import (
	"context"

	"github.com/2x3systems/motifs/motif"
	"github.com/2x3systems/motifs/pattern"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// ScoreOpts specifies how patterns are scored.
type ScoreOpts struct {
	NullProbability *float64    // success probability under the null hypothesis; nil means motif.DefaultNullProbability
	Log             logr.Logger // zero value discards
}

// NullProbability returns a ScoreOpts.NullProbability value for p.
func NullProbability(p float64) *float64 {
	return &p
}

func (opts *ScoreOpts) nullProbability() float64 {
	if opts.NullProbability == nil {
		return motif.DefaultNullProbability
	}
	return *opts.NullProbability
}

// Score counts the positive and negative examples of the predicted edge alongside pattern p and
// tests the positive count against the null probability.
//
// Store errors are returned as-is.  If the store has neither positive nor negative examples, the
// counts are returned with motif.ErrDegenerateSample.
func Score(ctx context.Context, store motif.Store, p motif.Pattern, edge motif.PredictedEdge, opts ScoreOpts) (motif.StatResult, error) {
	var res motif.StatResult
	if store == nil {
		return res, motif.ErrNilStore
	}

	nullP := opts.nullProbability()
	if !(nullP >= 0 && nullP <= 1) {
		return res, errors.Wrapf(motif.ErrBadProbability, "got %v", nullP)
	}
	if _, err := pattern.Labels(p); err != nil {
		return res, err
	}

	var err error
	res.Positive, err = count(ctx, store, pattern.PositiveQuery(p, edge))
	if err != nil {
		return res, err
	}
	res.Negative, err = count(ctx, store, pattern.NegativeQuery(p, edge))
	if err != nil {
		return res, err
	}

	res.PValue, err = BinomTest(res.Positive, res.Total(), nullP)
	if err != nil {
		return res, errors.Wrapf(err, "scoring %s", p)
	}

	opts.Log.V(1).Info("scored pattern", "pattern", p, "positive", res.Positive, "negative", res.Negative, "pvalue", res.PValue)
	return res, nil
}

func count(ctx context.Context, store motif.Store, query string) (int64, error) {
	records, err := store.QueryAsJSON(ctx, query, nil)
	if err != nil {
		return 0, err
	}
	n, err := motif.ReadCount(records)
	if err != nil {
		return 0, errors.Wrapf(err, "query %q", query)
	}
	return n, nil
}

// Scored pairs a pattern with its StatResult.
type Scored struct {
	Pattern motif.Pattern
	motif.StatResult
}

// ScoreAll scores each pattern in order.
//
// Patterns with no examples are logged and skipped.  On any other error, the patterns scored so far
// are returned along with the error.
func ScoreAll(ctx context.Context, store motif.Store, patterns []motif.Pattern, edge motif.PredictedEdge, opts ScoreOpts) ([]Scored, error) {
	scored := make([]Scored, 0, len(patterns))
	for _, p := range patterns {
		res, err := Score(ctx, store, p, edge, opts)
		if errors.Is(err, motif.ErrDegenerateSample) {
			opts.Log.Info("skipping pattern without examples", "pattern", p)
			continue
		}
		if err != nil {
			return scored, err
		}
		scored = append(scored, Scored{
			Pattern:    p,
			StatResult: res,
		})
	}
	return scored, nil
}
