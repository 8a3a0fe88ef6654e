package main

import (
	"fmt"

	"github.com/2x3systems/motifs/motif"
	"github.com/2x3systems/motifs/pattern"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		nodeTypes  []string
		edge       string
		numNodes   int
		limit      int
		workers    int
		minEdges   int
		maxEdges   int
		noValidate bool
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Print the labeled patterns anchored at the predicted edge's source type, one per line",
		Long: `generate labels every connected skeleton of the given node count with the node types, anchoring
node a at the predicted edge's source type.  Unless --no-validate is given, only patterns present
in the configured store are printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			gen := &a.cfg.Generate
			fs := cmd.Flags()
			if fs.Changed("types") {
				gen.NodeTypes = nodeTypes
			}
			if fs.Changed("edge") {
				gen.Edge = edge
			}
			if fs.Changed("nodes") {
				gen.Nodes = numNodes
			}
			if fs.Changed("limit") {
				gen.Limit = limit
			}
			if fs.Changed("workers") {
				gen.Workers = workers
			}
			if fs.Changed("min-edges") {
				gen.MinEdges = minEdges
			}
			if fs.Changed("max-edges") {
				gen.MaxEdges = maxEdges
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.generate(cmd, !noValidate)
		},
	}

	fs := cmd.Flags()
	fs.StringSliceVarP(&nodeTypes, "types", "t", nil, "node types to label pattern nodes with")
	fs.StringVarP(&edge, "edge", "e", "", "predicted edge as Source->Target")
	fs.IntVarP(&numNodes, "nodes", "n", motif.MinNodes, "pattern node count")
	fs.IntVar(&limit, "limit", motif.DefaultLimit, "max patterns to print (negative for no limit)")
	fs.IntVar(&workers, "workers", 1, "concurrent presence queries")
	fs.IntVar(&minEdges, "min-edges", 0, "skip skeletons with fewer edges")
	fs.IntVar(&maxEdges, "max-edges", 0, "skip skeletons with more edges (0 for no bound)")
	fs.BoolVar(&noValidate, "no-validate", false, "print every labeling without querying the store")
	return cmd
}

func (a *app) generate(cmd *cobra.Command, validate bool) error {
	ctx := cmd.Context()
	gen := &a.cfg.Generate

	if len(gen.Edge) == 0 {
		return errors.Wrap(motif.ErrBadEdgeSpec, "no predicted edge given")
	}
	if len(gen.NodeTypes) == 0 {
		return errors.Wrap(motif.ErrBadNodeType, "no node types given")
	}
	edge, err := motif.ParsePredictedEdge(gen.Edge)
	if err != nil {
		return err
	}

	mctx := motif.NewContext()
	defer mctx.Close()

	cat, err := a.openCatalog(mctx)
	if err != nil {
		return err
	}

	opts := pattern.GenerateOpts{
		NodeTypes: gen.NodeTypes,
		Edge:      edge,
		NumNodes:  gen.Nodes,
		Limit:     gen.Limit,
		Workers:   gen.Workers,
		Selector: motif.SkeletonSelector{
			MinEdges: gen.MinEdges,
			MaxEdges: gen.MaxEdges,
		},
		Log: a.log,
	}
	if validate {
		if opts.Store, err = a.openStore(ctx, mctx); err != nil {
			return err
		}
	}

	patterns, err := pattern.Generate(ctx, cat, opts)
	out := cmd.OutOrStdout()
	for _, p := range patterns {
		fmt.Fprintln(out, p)
	}
	return err
}
