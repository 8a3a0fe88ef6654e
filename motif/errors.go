package motif

import "errors"

// Errors
var (
	ErrCatalogNotFound  = errors.New("no skeleton catalog for node count")
	ErrNodeCountRange   = errors.New("number of nodes must be between 3 and 7")
	ErrDegenerateSample = errors.New("no positive or negative examples")
	ErrBadSample        = errors.New("success count exceeds number of trials")
	ErrBadGraph6        = errors.New("bad graph6 encoding")
	ErrBadPattern       = errors.New("bad pattern expression")
	ErrBadNodeType      = errors.New("bad node type")
	ErrBadEdgeSpec      = errors.New("bad predicted edge")
	ErrBadProbability   = errors.New("null probability must be within [0, 1]")
	ErrBadCountRecord   = errors.New("count query did not return a single count")
	ErrUnknownStore     = errors.New("unknown store kind")
	ErrNilStore         = errors.New("nil store")
	ErrReadOnly         = errors.New("catalog is read-only")
	ErrBadCatalogParam  = errors.New("bad catalog param")
	ErrUnsupportedQuery = errors.New("query not supported by this store")
)
