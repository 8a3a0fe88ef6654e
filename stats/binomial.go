package stats

import (
	"math"

	"github.com/2x3systems/motifs/motif"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"
)

// relErr is the relative tolerance under which two pmf values are taken as equally likely.
const relErr = 1 + 1e-7

// BinomTest returns the two-sided exact binomial test p-value of observing k successes out of n
// trials when each succeeds independently with probability p.
//
// The p-value is the total probability of every outcome no more likely than k (the "minlike"
// method), so both tails are summed without assuming symmetry.
func BinomTest(k, n int64, p float64) (float64, error) {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return math.NaN(), errors.Wrapf(motif.ErrBadProbability, "got %v", p)
	}
	if n <= 0 {
		return math.NaN(), motif.ErrDegenerateSample
	}
	if k < 0 || k > n {
		return math.NaN(), errors.Wrapf(motif.ErrBadSample, "%d of %d", k, n)
	}

	// Point masses
	switch p {
	case 0:
		if k == 0 {
			return 1, nil
		}
		return 0, nil
	case 1:
		if k == n {
			return 1, nil
		}
		return 0, nil
	}

	dist := distuv.Binomial{N: float64(n), P: p}
	mean := p * float64(n)
	kf := float64(k)
	if kf == mean {
		return 1, nil
	}

	dk := dist.Prob(kf) * relErr
	var pval float64

	if kf < mean {
		// The pmf is non-increasing on [ceil(mean), n]: find the first outcome there no more likely than k
		lo, hi := int64(math.Ceil(mean)), n+1
		for lo < hi {
			mid := lo + (hi-lo)/2
			if dist.Prob(float64(mid)) <= dk {
				hi = mid
			} else {
				lo = mid + 1
			}
		}
		pval = dist.CDF(kf) + upperTail(lo, n, p)
	} else {
		// The pmf is non-decreasing on [0, floor(mean)]: find the last outcome there no more likely than k
		lo, hi := int64(-1), int64(math.Floor(mean))
		for lo < hi {
			mid := hi - (hi-lo)/2
			if dist.Prob(float64(mid)) <= dk {
				lo = mid
			} else {
				hi = mid - 1
			}
		}
		pval = upperTail(k, n, p)
		if lo >= 0 {
			pval += dist.CDF(float64(lo))
		}
	}

	return math.Min(1, pval), nil
}

// upperTail returns P(X >= j) for X ~ Binomial(n, p), computed directly rather than as 1 - CDF so
// that small tails keep their precision.
func upperTail(j, n int64, p float64) float64 {
	switch {
	case j <= 0:
		return 1
	case j > n:
		return 0
	}
	return mathext.RegIncBeta(float64(j), float64(n-j+1), p)
}
