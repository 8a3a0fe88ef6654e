package main

import (
	"context"

	"github.com/2x3systems/motifs/catalog"
	"github.com/2x3systems/motifs/config"
	"github.com/2x3systems/motifs/motif"
	"github.com/2x3systems/motifs/store"
	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
)

// app holds the state shared by every subcommand once the config is loaded.
type app struct {
	configPath string
	verbosity  int
	cfg        *config.Config
	log        logr.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "motifs",
		Short: "Enumerate and score labeled graph motifs for link prediction",
		Long: `motifs enumerates every small connected labeled pattern anchored at the source type of a
predicted edge, keeps those present in a graph store, and scores each pattern with an exact
binomial test comparing how often it co-occurs with the edge against how often it does not.`,
		SilenceUsage:      true,
		PersistentPreRunE: a.setup,
	}

	fs := root.PersistentFlags()
	fs.StringVar(&a.configPath, "config", "", "YAML config file (MOTIFS_* env vars override it)")
	fs.IntVarP(&a.verbosity, "verbosity", "v", -1, "log verbosity (default from config)")

	root.AddCommand(
		a.generateCmd(),
		a.scoreCmd(),
		a.catalogCmd(),
	)
	return root
}

func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.verbosity >= 0 {
		cfg.Log.Verbosity = a.verbosity
	}
	a.cfg = cfg
	a.log = newKlogLogger(cfg.Log.Verbosity).WithName("motifs")
	a.log.V(1).Info("config loaded", "config", cfg.String())
	return nil
}

// openCatalog opens the configured catalog: a catalog db, a directory of graph6 files, or the embedded one.
func (a *app) openCatalog(mctx motif.Context) (motif.Catalog, error) {
	var cat motif.Catalog
	switch {
	case len(a.cfg.Catalog.DbPath) > 0:
		db, err := catalog.OpenDb(catalog.DbOpts{
			DbPathName: a.cfg.Catalog.DbPath,
			ReadOnly:   true,
			Log:        a.log,
		})
		if err != nil {
			return nil, err
		}
		cat = db
	case len(a.cfg.Catalog.Dir) > 0:
		cat = catalog.Dir(a.cfg.Catalog.Dir, a.log)
	default:
		cat = catalog.Embedded()
	}
	mctx.Attach(cat)
	return cat, nil
}

func (a *app) openStore(ctx context.Context, mctx motif.Context) (motif.Store, error) {
	st, err := store.Open(ctx, a.cfg.Store, a.log)
	if err != nil {
		return nil, err
	}
	mctx.Attach(motif.StoreCloser(ctx, st))
	return st, nil
}
