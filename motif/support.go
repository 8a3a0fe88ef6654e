package motif

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// CheckNodeCount returns ErrNodeCountRange if numNodes is outside [MinNodes, MaxNodes].
//
// The check is advisory: callers log the error and carry on, leaving the catalog to decide if the size exists.
func CheckNodeCount(numNodes int) error {
	if numNodes < MinNodes || numNodes > MaxNodes {
		return errors.Wrapf(ErrNodeCountRange, "got %d", numNodes)
	}
	return nil
}

// ParsePredictedEdge reads "Source->Target", "Source-Target" or "Source,Target".
func ParsePredictedEdge(spec string) (PredictedEdge, error) {
	for _, sep := range []string{"->", ",", "-"} {
		src, dst, found := strings.Cut(spec, sep)
		if !found {
			continue
		}
		edge := PredictedEdge{
			Source: strings.TrimSpace(src),
			Target: strings.TrimSpace(dst),
		}
		if len(edge.Source) == 0 || len(edge.Target) == 0 {
			break
		}
		return edge, nil
	}
	return PredictedEdge{}, errors.Wrapf(ErrBadEdgeSpec, "%q", spec)
}

// String renders this edge as "Source->Target".
func (edge PredictedEdge) String() string {
	return edge.Source + "->" + edge.Target
}

// NormalizeRecords rewrites the values of the given records so they only contain JSON-compatible types.
//
// Numbers come back as json.Number, so integer counts keep full precision.
func NormalizeRecords(records []Record) ([]Record, error) {
	buf, err := json.Marshal(records)
	if err != nil {
		return nil, errors.Wrap(err, "encoding records")
	}

	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()

	out := make([]Record, 0, len(records))
	if err = dec.Decode(&out); err != nil && err != io.EOF {
		return nil, errors.Wrap(err, "decoding records")
	}
	return out, nil
}

// ReadCount returns the CountField value of a single-record count query result.
func ReadCount(records []Record) (int64, error) {
	if len(records) != 1 {
		return 0, errors.Wrapf(ErrBadCountRecord, "got %d records", len(records))
	}
	val, exists := records[0][CountField]
	if !exists {
		return 0, errors.Wrapf(ErrBadCountRecord, "missing %q column", CountField)
	}

	var count int64
	switch v := val.(type) {
	case int64:
		count = v
	case int:
		count = int64(v)
	case int32:
		count = int64(v)
	case float64:
		count = int64(v)
		if float64(count) != v {
			return 0, errors.Wrapf(ErrBadCountRecord, "non-integer count %v", v)
		}
	case json.Number:
		n, err := strconv.ParseInt(v.String(), 10, 64)
		if err != nil {
			return 0, errors.Wrapf(ErrBadCountRecord, "non-integer count %v", v)
		}
		count = n
	default:
		return 0, errors.Wrapf(ErrBadCountRecord, "unexpected count type %T", val)
	}

	if count < 0 {
		return 0, errors.Wrapf(ErrBadCountRecord, "negative count %d", count)
	}
	return count, nil
}

// Context is a container for open catalogs and stores, closing them together.
type Context interface {

	// Attach registers c to be closed when this Context closes.
	Attach(c io.Closer)

	// Detach removes c, leaving it open.
	//
	// Closers are matched by ==, so a closer whose value is not comparable (e.g. a struct holding a
	// slice or map) cannot be detached and stays attached.
	Detach(c io.Closer)

	// Close closes everything attached (in reverse attach order) and returns the first error.
	Close() error

	// Done signals when Close() completed.
	Done() <-chan struct{}
}

func NewContext() Context {
	return &closerContext{
		closed: make(chan struct{}),
	}
}

type closerContext struct {
	mu      sync.Mutex
	open    []io.Closer
	closed  chan struct{}
	closing bool
}

func (ctx *closerContext) Attach(c io.Closer) {
	ctx.mu.Lock()
	ctx.open = append(ctx.open, c)
	ctx.mu.Unlock()
}

func (ctx *closerContext) Detach(c io.Closer) {
	if c == nil || !reflect.ValueOf(c).Comparable() {
		return
	}
	ctx.mu.Lock()
	for i, ci := range ctx.open {
		if reflect.ValueOf(ci).Comparable() && ci == c {
			ctx.open = append(ctx.open[:i], ctx.open[i+1:]...)
			break
		}
	}
	ctx.mu.Unlock()
}

func (ctx *closerContext) Done() <-chan struct{} {
	return ctx.closed
}

func (ctx *closerContext) Close() error {
	ctx.mu.Lock()
	if ctx.closing {
		ctx.mu.Unlock()
		<-ctx.closed
		return nil
	}
	ctx.closing = true
	open := ctx.open
	ctx.open = nil
	ctx.mu.Unlock()

	var first error
	for i := len(open) - 1; i >= 0; i-- {
		if err := open[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	close(ctx.closed)
	return first
}

// StoreCloser adapts a Store to an io.Closer so it can be attached to a Context.
func StoreCloser(ctx context.Context, store Store) io.Closer {
	return storeCloser{ctx, store}
}

type storeCloser struct {
	ctx   context.Context
	store Store
}

func (sc storeCloser) Close() error {
	return sc.store.Close(sc.ctx)
}
