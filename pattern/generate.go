package pattern

import (
	"context"

	"github.com/2x3systems/motifs/motif"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// GenerateOpts specifies a pattern generation pass.
type GenerateOpts struct {
	NodeTypes []string               // vocabulary for nodes 1..n-1
	Edge      motif.PredictedEdge    // node 0 is pinned to Edge.Source
	NumNodes  int                    // skeleton size to draw from the catalog
	Store     motif.Store            // if set, only patterns having a match are accepted
	Limit     int                    // 0 means motif.DefaultLimit; < 0 means no limit
	Workers   int                    // concurrent presence queries when Store is set
	Selector  motif.SkeletonSelector // restricts which skeletons are expanded
	Log       logr.Logger            // zero value discards
}

// EffectiveLimit returns the number of accepted patterns generation stops at, or motif.NoLimit.
func (opts *GenerateOpts) EffectiveLimit() int {
	switch {
	case opts.Limit == 0:
		return motif.DefaultLimit
	case opts.Limit < 0:
		return motif.NoLimit
	default:
		return opts.Limit
	}
}

// Generate enumerates labeled patterns drawn from the catalog's skeletons of opts.NumNodes nodes.
//
// Skeletons are visited in catalog order and each is expanded over every labeling (see Labeler).
// If opts.Store is set, each pattern is kept only if it has at least one match in the store.
// Generation stops as soon as the limit is reached, so only as many patterns (and presence queries)
// as needed are produced.
//
// On failure, the patterns accepted up to that point are returned along with the error.  Store
// errors are returned as-is.
func Generate(ctx context.Context, cat motif.Catalog, opts GenerateOpts) ([]motif.Pattern, error) {
	if err := motif.CheckNodeCount(opts.NumNodes); err != nil {
		opts.Log.Error(err, "generating anyway", "nodes", opts.NumNodes)
	}
	for _, nodeType := range opts.NodeTypes {
		if len(nodeType) == 0 {
			return nil, errors.Wrap(motif.ErrBadNodeType, "node type is empty")
		}
	}
	if len(opts.Edge.Source) == 0 {
		return nil, errors.Wrapf(motif.ErrBadEdgeSpec, "no source type in %q", opts.Edge.String())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	skeletons, err := cat.Skeletons(ctx, opts.NumNodes)
	if err != nil {
		return nil, err
	}

	stream := Candidates(ctx, skeletons.Select(ctx, opts.Selector), opts.NodeTypes, opts.Edge.Source)
	if opts.Store != nil {
		stream = stream.Validate(ctx, opts.Store, ValidateOpts{
			Workers: opts.Workers,
			Log:     opts.Log,
		})
	}

	limit := opts.EffectiveLimit()
	accepted := make([]motif.Pattern, 0, 16)
	for c := range stream.Outlet {
		accepted = append(accepted, c.Pattern)
		if limit > 0 && len(accepted) >= limit {
			cancel()
			drainCandidates(stream.Outlet)
			opts.Log.V(1).Info("pattern limit reached", "limit", limit)
			return accepted, nil
		}
	}

	err = stream.Err()
	if err == nil {
		opts.Log.V(1).Info("generated patterns", "nodes", opts.NumNodes, "accepted", len(accepted))
	}
	return accepted, err
}
