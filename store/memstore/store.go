// Package memstore is an in-process motif.Store over a labeled graph held in memory.
//
// It evaluates the queries the pattern and stats packages issue (see Query) with Cypher match
// semantics, making it suitable for tests, demos and small graphs.
package memstore

import (
	"context"

	"github.com/2x3systems/motifs/motif"
	"github.com/go-logr/logr"
	"github.com/pkg/errors"
)

// Store is a motif.Store backed by a Graph.
type Store struct {
	G   *Graph
	log logr.Logger
}

var _ motif.Store = (*Store)(nil)

// New returns a Store over the given graph.
func New(G *Graph, log logr.Logger) *Store {
	return &Store{
		G:   G,
		log: log,
	}
}

// Open loads the given graph file (see GraphFile) and returns a Store over it.
func Open(pathname string, log logr.Logger) (*Store, error) {
	G, err := LoadGraphFile(pathname)
	if err != nil {
		return nil, err
	}
	log.Info("loaded graph", "path", pathname, "nodes", G.NodeCount(), "edges", G.EdgeCount())
	return New(G, log), nil
}

func (st *Store) Query(ctx context.Context, query string, params map[string]any) ([]motif.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(params) > 0 {
		return nil, errors.Wrap(motif.ErrUnsupportedQuery, "query parameters")
	}
	q, err := ParseQuery(query)
	if err != nil {
		return nil, err
	}
	records, err := st.G.Evaluate(ctx, q)
	if err != nil {
		return nil, err
	}
	st.log.V(2).Info("query", "query", query, "records", len(records))
	return records, nil
}

func (st *Store) QueryAsJSON(ctx context.Context, query string, params map[string]any) ([]motif.Record, error) {
	records, err := st.Query(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return motif.NormalizeRecords(records)
}

func (st *Store) Close(ctx context.Context) error {
	return nil
}
