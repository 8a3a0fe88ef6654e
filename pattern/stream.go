package pattern

import (
	"context"

	"github.com/2x3systems/motifs/motif"
	"github.com/emirpasic/gods/trees/redblacktree"
	"github.com/emirpasic/gods/utils"
	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"
)

// Candidate is one labeled skeleton and its rendered pattern.
type Candidate struct {
	Seq      int64 // zero-based position in generation order
	Skeleton *motif.Skeleton
	Labels   motif.LabelAssignment
	Pattern  motif.Pattern
}

// CandidateStream is a lazy, finite sequence of Candidates, in generation order.
type CandidateStream struct {
	Outlet chan Candidate
	err    error
}

func NewCandidateStream() *CandidateStream {
	return &CandidateStream{
		Outlet: make(chan Candidate, 1),
	}
}

// Push sends c to the consumer, returning false if ctx was cancelled first.
func (stream *CandidateStream) Push(ctx context.Context, c Candidate) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case stream.Outlet <- c:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close records the producer's terminal error (nil on success) and closes Outlet.
func (stream *CandidateStream) Close(err error) {
	stream.err = err
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

// Err returns the error the producer closed with.  Only valid after Outlet has been drained.
func (stream *CandidateStream) Err() error {
	return stream.err
}

// PullAll drains this stream and returns what was read.
func (stream *CandidateStream) PullAll() ([]Candidate, error) {
	var all []Candidate
	for c := range stream.Outlet {
		all = append(all, c)
	}
	return all, stream.err
}

func drainCandidates(outlet <-chan Candidate) {
	go func() {
		for range outlet {
		}
	}()
}

// Candidates expands each skeleton of the given stream into every labeling of it (see Labeler),
// skeletons in stream order and labelings in product order.
func Candidates(ctx context.Context, skeletons *motif.SkeletonStream, nodeTypes []string, sourceType string) *CandidateStream {
	next := NewCandidateStream()

	go func() {
		seq := int64(0)
		for sk := range skeletons.Outlet {
			sk := sk // per-iteration copy: candidates keep &sk (go1.22 loopvar semantics under go 1.21)
			lb := NewLabeler(&sk, nodeTypes, sourceType)
			for lb.Next() {
				la := lb.Assignment()
				c := Candidate{
					Seq:      seq,
					Skeleton: &sk,
					Labels:   la,
					Pattern:  Encode(&sk, la),
				}
				if !next.Push(ctx, c) {
					drainSkeletons(skeletons)
					next.Close(ctx.Err())
					return
				}
				seq++
			}
		}
		next.Close(skeletons.Err())
	}()

	return next
}

func drainSkeletons(stream *motif.SkeletonStream) {
	go func() {
		for range stream.Outlet {
		}
	}()
}

// IsPresent reports whether p has at least one match in the given store.
//
// Store errors are returned as-is.
func IsPresent(ctx context.Context, store motif.Store, p motif.Pattern) (bool, error) {
	records, err := store.QueryAsJSON(ctx, PresenceQuery(p), nil)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// ValidateOpts specifies how a CandidateStream is filtered against a store.
type ValidateOpts struct {
	Workers int         // number of concurrent presence queries (<= 1 means sequential)
	Log     logr.Logger // zero value discards
}

// Validate returns a stream that only passes the candidates having a match in the given store.
//
// Candidate Seq values must run contiguously from 0, as Candidates emits them.
// Output order is input order regardless of opts.Workers.  The first store error (in input order)
// closes the returned stream, so the candidates passed before it are exactly those a sequential
// pass would have passed.
func (stream *CandidateStream) Validate(ctx context.Context, store motif.Store, opts ValidateOpts) *CandidateStream {
	if opts.Workers > 1 {
		return stream.validateParallel(ctx, store, opts)
	}

	next := NewCandidateStream()

	go func() {
		for c := range stream.Outlet {
			present, err := IsPresent(ctx, store, c.Pattern)
			if err != nil {
				drainCandidates(stream.Outlet)
				next.Close(err)
				return
			}
			if !present {
				continue
			}
			opts.Log.V(1).Info("pattern is valid", "pattern", c.Pattern)
			if !next.Push(ctx, c) {
				drainCandidates(stream.Outlet)
				next.Close(ctx.Err())
				return
			}
		}
		next.Close(stream.err)
	}()

	return next
}

type verdict struct {
	cand    Candidate
	present bool
	err     error
}

func (stream *CandidateStream) validateParallel(ctx context.Context, store motif.Store, opts ValidateOpts) *CandidateStream {
	next := NewCandidateStream()

	ctx, cancel := context.WithCancel(ctx)
	jobs := make(chan Candidate)
	results := make(chan verdict, opts.Workers)
	grp, grpCtx := errgroup.WithContext(ctx)

	grp.Go(func() error {
		defer close(jobs)
		for c := range stream.Outlet {
			select {
			case jobs <- c:
			case <-grpCtx.Done():
				drainCandidates(stream.Outlet)
				return nil
			}
		}
		return nil
	})

	for i := 0; i < opts.Workers; i++ {
		grp.Go(func() error {
			for c := range jobs {
				present, err := IsPresent(grpCtx, store, c.Pattern)
				select {
				case results <- verdict{c, present, err}:
				case <-grpCtx.Done():
					return nil
				}
			}
			return nil
		})
	}

	go func() {
		grp.Wait()
		close(results)
	}()

	// Verdicts arrive out of order; hold each until all that precede it have been released.
	go func() {
		defer cancel()

		pending := redblacktree.NewWith(utils.Int64Comparator)
		nextSeq := int64(0)
		var err error

		for v := range results {
			if err != nil {
				continue
			}
			pending.Put(v.cand.Seq, v)

			for err == nil {
				val, found := pending.Get(nextSeq)
				if !found {
					break
				}
				pending.Remove(nextSeq)
				nextSeq++

				vi := val.(verdict)
				if vi.err != nil {
					err = vi.err
				} else if vi.present {
					opts.Log.V(1).Info("pattern is valid", "pattern", vi.cand.Pattern)
					if !next.Push(ctx, vi.cand) {
						err = ctx.Err()
					}
				}
				if err != nil {
					cancel()
				}
			}
		}

		// Unless cancelled, results is closed only after the feeder has read all of upstream
		if err == nil {
			err = ctx.Err()
		}
		if err == nil {
			err = stream.err
		}
		next.Close(err)
	}()

	return next
}
