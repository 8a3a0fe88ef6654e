package motif

import (
	"context"
)

// SkeletonStream is a lazy, finite, non-restartable sequence of Skeletons.
//
// A producer sends on Outlet and calls Close once done; a consumer ranges over Outlet and then checks Err().
// Ownership of each Skeleton travels through the channel.
type SkeletonStream struct {
	Outlet chan Skeleton
	err    error
}

func NewSkeletonStream() *SkeletonStream {
	return &SkeletonStream{
		Outlet: make(chan Skeleton, 1),
	}
}

// StreamSkeletons returns a stream that emits the given skeletons in order.
func StreamSkeletons(ctx context.Context, skeletons ...Skeleton) *SkeletonStream {
	next := NewSkeletonStream()

	go func() {
		for _, sk := range skeletons {
			if !next.Push(ctx, sk) {
				next.Close(ctx.Err())
				return
			}
		}
		next.Close(nil)
	}()

	return next
}

// Push sends sk to the consumer, returning false if ctx was cancelled first.
func (stream *SkeletonStream) Push(ctx context.Context, sk Skeleton) bool {
	if ctx.Err() != nil {
		return false
	}
	select {
	case stream.Outlet <- sk:
		return true
	case <-ctx.Done():
		return false
	}
}

// Close records the producer's terminal error (nil on success) and closes Outlet.
func (stream *SkeletonStream) Close(err error) {
	stream.err = err
	if stream.Outlet != nil {
		close(stream.Outlet)
	}
}

// Err returns the error the producer closed with.  Only valid after Outlet has been drained.
func (stream *SkeletonStream) Err() error {
	return stream.err
}

// PullAll drains this stream and returns what was read.
func (stream *SkeletonStream) PullAll() ([]Skeleton, error) {
	var all []Skeleton
	for sk := range stream.Outlet {
		all = append(all, sk)
	}
	return all, stream.err
}

// Select returns a stream that only passes the skeletons that sel accepts.
func (stream *SkeletonStream) Select(ctx context.Context, sel SkeletonSelector) *SkeletonStream {
	next := NewSkeletonStream()

	go func() {
		for sk := range stream.Outlet {
			if !sel.Selects(&sk) {
				continue
			}
			if !next.Push(ctx, sk) {
				drain(stream.Outlet)
				next.Close(ctx.Err())
				return
			}
		}
		next.Close(stream.err)
	}()

	return next
}

// drain unblocks an upstream producer that is not watching ctx.
func drain(outlet <-chan Skeleton) {
	go func() {
		for range outlet {
		}
	}()
}

// SkeletonSelector selects skeletons by edge count.  A zero MaxEdges means no upper bound.
type SkeletonSelector struct {
	MinEdges int
	MaxEdges int
}

// Selects is a convenience function used to see if a Skeleton is selected.
func (sel *SkeletonSelector) Selects(sk *Skeleton) bool {
	Ne := sk.EdgeCount()
	if Ne < sel.MinEdges {
		return false
	}
	if sel.MaxEdges > 0 && Ne > sel.MaxEdges {
		return false
	}
	return true
}
