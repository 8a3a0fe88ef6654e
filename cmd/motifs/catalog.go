package main

import (
	"fmt"

	"github.com/2x3systems/motifs/catalog"
	"github.com/2x3systems/motifs/config"
	"github.com/2x3systems/motifs/motif"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func (a *app) catalogCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage skeleton catalogs",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "catalog db path (default from config)")

	useDb := func(cmd *cobra.Command) {
		if cmd.Flags().Changed("db") {
			a.cfg.Catalog.DbPath = dbPath
			a.cfg.Catalog.Dir = ""
		}
	}

	var sizes []int
	importCmd := &cobra.Command{
		Use:   "import [dir]",
		Short: "Import graph{n}c.g6 files from dir (or the embedded catalog) into the catalog db",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			useDb(cmd)
			if len(a.cfg.Catalog.DbPath) == 0 {
				return errors.Wrap(config.ErrBadConfig, "catalog import requires --db or catalog.db_path")
			}

			src := catalog.Embedded()
			if len(args) > 0 {
				src = catalog.Dir(args[0], a.log)
			}
			defer src.Close()

			db, err := catalog.OpenDb(catalog.DbOpts{
				DbPathName: a.cfg.Catalog.DbPath,
				Log:        a.log,
			})
			if err != nil {
				return err
			}
			added, err := db.ImportFrom(cmd.Context(), src, sizes...)
			if errClose := db.Close(); err == nil {
				err = errClose
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d skeletons\n", added)
			return err
		},
	}
	importCmd.Flags().IntSliceVar(&sizes, "sizes", []int{3, 4, 5, 6, 7}, "node counts to import")

	countCmd := &cobra.Command{
		Use:   "count",
		Short: "Print the number of skeletons per node count, one \"nodes<TAB>count\" line each",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			useDb(cmd)
			return a.countSkeletons(cmd)
		},
	}

	cmd.AddCommand(importCmd, countCmd)
	return cmd
}

func (a *app) countSkeletons(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	mctx := motif.NewContext()
	defer mctx.Close()

	cat, err := a.openCatalog(mctx)
	if err != nil {
		return err
	}

	if db, isDb := cat.(*catalog.Db); isDb {
		for _, Nv := range db.Sizes() {
			fmt.Fprintf(out, "%d\t%d\n", Nv, db.NumSkeletons(Nv))
		}
		return nil
	}

	for Nv := motif.MinNodes; Nv <= motif.MaxNodes; Nv++ {
		stream, err := cat.Skeletons(ctx, Nv)
		if errors.Is(err, motif.ErrCatalogNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		count := 0
		for range stream.Outlet {
			count++
		}
		if err = stream.Err(); err != nil {
			return err
		}
		fmt.Fprintf(out, "%d\t%d\n", Nv, count)
	}
	return nil
}
