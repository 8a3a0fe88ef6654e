// Package motiftest provides scripted motif.Store fakes for tests.
package motiftest

import (
	"context"
	"strings"
	"sync"

	"github.com/2x3systems/motifs/motif"
)

// Responder answers a single query.
type Responder func(query string, params map[string]any) ([]motif.Record, error)

// Store is a motif.Store that answers every query with a Responder and records what it was asked.
type Store struct {
	Respond Responder

	mu      sync.Mutex
	queries []string
	closed  bool
}

// NewStore returns a Store answering with respond.
func NewStore(respond Responder) *Store {
	return &Store{Respond: respond}
}

func (st *Store) Query(ctx context.Context, query string, params map[string]any) ([]motif.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st.mu.Lock()
	st.queries = append(st.queries, query)
	st.mu.Unlock()
	return st.Respond(query, params)
}

func (st *Store) QueryAsJSON(ctx context.Context, query string, params map[string]any) ([]motif.Record, error) {
	records, err := st.Query(ctx, query, params)
	if err != nil {
		return nil, err
	}
	return motif.NormalizeRecords(records)
}

func (st *Store) Close(ctx context.Context) error {
	st.mu.Lock()
	st.closed = true
	st.mu.Unlock()
	return nil
}

// Queries returns a copy of every query issued so far, in arrival order.
func (st *Store) Queries() []string {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]string(nil), st.queries...)
}

// Closed reports if Close was called.
func (st *Store) Closed() bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.closed
}

// Present returns a Responder for presence queries: a query matches (one record) if it contains any of the given fragments.
func Present(fragments ...string) Responder {
	return func(query string, params map[string]any) ([]motif.Record, error) {
		for _, frag := range fragments {
			if strings.Contains(query, frag) {
				return []motif.Record{{"a": map[string]any{"labels": []any{"X"}}}}, nil
			}
		}
		return nil, nil
	}
}

// Counts returns a Responder for the two scoring queries: positive is returned for queries without a
// WHERE NOT predicate and negative for those with one.
func Counts(positive, negative int64) Responder {
	return func(query string, params map[string]any) ([]motif.Record, error) {
		count := positive
		if strings.Contains(query, "WHERE NOT") {
			count = negative
		}
		return []motif.Record{{motif.CountField: count}}, nil
	}
}

// Fail returns a Responder that fails every query with err.
func Fail(err error) Responder {
	return func(query string, params map[string]any) ([]motif.Record, error) {
		return nil, err
	}
}

// FailAfter returns a Responder that defers to next for the first n queries and then fails with err.
func FailAfter(n int, err error, next Responder) Responder {
	var (
		mu    sync.Mutex
		count int
	)
	return func(query string, params map[string]any) ([]motif.Record, error) {
		mu.Lock()
		count++
		over := count > n
		mu.Unlock()
		if over {
			return nil, err
		}
		return next(query, params)
	}
}
