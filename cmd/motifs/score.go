package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/2x3systems/motifs/motif"
	"github.com/2x3systems/motifs/stats"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) scoreCmd() *cobra.Command {
	var (
		edge  string
		nullP float64
	)

	cmd := &cobra.Command{
		Use:   "score [pattern ...]",
		Short: "Score patterns against the predicted edge, printing pattern, positive, negative and p-value",
		Long: `score counts, for each pattern, the matches where the source node connects to a target-type node
(positive) and the matches where it does not (negative), then prints the two-sided binomial test
p-value of the positive count.  Patterns are read one per line from stdin when none are given.
Patterns with no examples either way are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			if fs.Changed("edge") {
				a.cfg.Generate.Edge = edge
			}
			if fs.Changed("null-p") {
				a.cfg.Stats.NullProbability = nullP
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return a.score(cmd, args)
		},
	}

	fs := cmd.Flags()
	fs.StringVarP(&edge, "edge", "e", "", "predicted edge as Source->Target")
	fs.Float64Var(&nullP, "null-p", motif.DefaultNullProbability, "probability of success under the null hypothesis")
	return cmd
}

func (a *app) score(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if len(a.cfg.Generate.Edge) == 0 {
		return errors.Wrap(motif.ErrBadEdgeSpec, "no predicted edge given")
	}
	edge, err := motif.ParsePredictedEdge(a.cfg.Generate.Edge)
	if err != nil {
		return err
	}

	patterns := make([]motif.Pattern, 0, len(args))
	for _, arg := range args {
		patterns = append(patterns, motif.Pattern(arg))
	}
	if len(args) == 0 {
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			if line := strings.TrimSpace(scanner.Text()); len(line) > 0 {
				patterns = append(patterns, motif.Pattern(line))
			}
		}
		if err = scanner.Err(); err != nil {
			return errors.Wrap(err, "reading patterns")
		}
	}

	mctx := motif.NewContext()
	defer mctx.Close()

	st, err := a.openStore(ctx, mctx)
	if err != nil {
		return err
	}

	scored, err := stats.ScoreAll(ctx, st, patterns, edge, stats.ScoreOpts{
		NullProbability: stats.NullProbability(a.cfg.Stats.NullProbability),
		Log:             a.log,
	})
	out := cmd.OutOrStdout()
	for _, si := range scored {
		fmt.Fprintf(out, "%s\t%d\t%d\t%.6g\n", si.Pattern, si.Positive, si.Negative, si.PValue)
	}
	return err
}
