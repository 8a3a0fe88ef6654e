// Package store opens the motif.Store named by a config.StoreConfig.
package store

import (
	"context"

	"github.com/2x3systems/motifs/config"
	"github.com/2x3systems/motifs/motif"
	"github.com/2x3systems/motifs/store/bolt"
	"github.com/2x3systems/motifs/store/memstore"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// Open connects to (or loads) the store described by cfg.
//
// A memory store with no graph file starts empty.
func Open(ctx context.Context, cfg config.StoreConfig, log logr.Logger) (motif.Store, error) {
	log = log.WithValues("store", cfg.Kind)

	switch cfg.Kind {
	case config.StoreNeo4j, config.StoreMemgraph:
		mode := bolt.SessionPerQuery
		if cfg.Kind == config.StoreMemgraph {
			mode = bolt.ExecuteAndFetch
		}
		return bolt.Open(ctx, bolt.Opts{
			Mode:         mode,
			URI:          cfg.URI,
			Username:     cfg.Username,
			Password:     cfg.Password,
			Database:     cfg.Database,
			QueryTimeout: cfg.QueryTimeout,
			Log:          log,
		})
	case config.StoreMemory:
		if len(cfg.GraphFile) == 0 {
			return memstore.New(memstore.NewGraph(), log), nil
		}
		return memstore.Open(cfg.GraphFile, log)
	}
	return nil, errors.Wrapf(motif.ErrUnknownStore, "%q", cfg.Kind)
}
