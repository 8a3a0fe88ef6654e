package memstore

import (
	"context"
	"sort"

	"github.com/2x3systems/motifs/motif"
	"github.com/pkg/errors"
)

// slot is a node variable to be bound during a match.
type slot struct {
	symbol string   // "" if anonymous
	labels []string // labels the bound node must carry
	edges  []int    // indexes of plan.edges incident to this slot
}

type planEdge struct {
	a, b int // slot indexes
}

// plan is a set of paths compiled into slots (shared by symbol) and the relationships between them.
type plan struct {
	slots    []slot
	edges    []planEdge
	bySymbol map[string]int
}

func compilePlan(paths []Path) *plan {
	pl := &plan{
		bySymbol: make(map[string]int),
	}
	for _, path := range paths {
		prev := -1
		for _, np := range path.Nodes {
			si := pl.slotFor(np)
			if prev >= 0 {
				ei := len(pl.edges)
				pl.edges = append(pl.edges, planEdge{prev, si})
				pl.slots[prev].edges = append(pl.slots[prev].edges, ei)
				if si != prev {
					pl.slots[si].edges = append(pl.slots[si].edges, ei)
				}
			}
			prev = si
		}
	}
	return pl
}

func (pl *plan) slotFor(np NodePat) int {
	si, exists := -1, false
	if len(np.Symbol) > 0 {
		si, exists = pl.bySymbol[np.Symbol]
	}
	if !exists {
		si = len(pl.slots)
		pl.slots = append(pl.slots, slot{symbol: np.Symbol})
		if len(np.Symbol) > 0 {
			pl.bySymbol[np.Symbol] = si
		}
	}
	if len(np.Label) > 0 {
		sl := &pl.slots[si]
		for _, li := range sl.labels {
			if li == np.Label {
				return si
			}
		}
		sl.labels = append(sl.labels, np.Label)
	}
	return si
}

// symbols returns the named slots' symbols, sorted.
func (pl *plan) symbols() []string {
	symbols := make([]string, 0, len(pl.bySymbol))
	for sym := range pl.bySymbol {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

type nodePair [2]int64

func pairOf(u, v int64) nodePair {
	if u > v {
		u, v = v, u
	}
	return nodePair{u, v}
}

const kCheckCtxEvery = 1 << 12

// matcher enumerates every binding of a plan's slots to graph nodes such that each slot's labels are
// carried and each plan edge maps to a distinct relationship.  Distinct slots may bind the same node.
type matcher struct {
	ctx    context.Context
	G      *Graph
	pl     *plan
	fixed  map[int]int64 // slots bound in advance
	order  []int         // slot visit order
	placed []bool
	bound  []int64
	used   map[nodePair]struct{}
	steps  int
	err    error
	onHit  func(bound []int64) bool
}

func newMatcher(ctx context.Context, G *Graph, pl *plan, fixed map[int]int64) *matcher {
	m := &matcher{
		ctx:    ctx,
		G:      G,
		pl:     pl,
		fixed:  fixed,
		placed: make([]bool, len(pl.slots)),
		bound:  make([]int64, len(pl.slots)),
		used:   make(map[nodePair]struct{}, len(pl.edges)),
	}
	m.order = m.visitOrder()
	return m
}

// visitOrder places fixed slots first, then grows outward along plan edges so each slot after the
// first of its component draws candidates from a placed neighbor.  A new component starts from its
// most selective slot.
func (m *matcher) visitOrder() []int {
	Ns := len(m.pl.slots)
	order := make([]int, 0, Ns)
	inOrder := make([]bool, Ns)

	push := func(si int) {
		order = append(order, si)
		inOrder[si] = true
	}
	for si := 0; si < Ns; si++ {
		if _, isFixed := m.fixed[si]; isFixed {
			push(si)
		}
	}

	for len(order) < Ns {
		next := -1
		for _, si := range order {
			for _, ei := range m.pl.slots[si].edges {
				e := m.pl.edges[ei]
				other := e.a
				if other == si {
					other = e.b
				}
				if !inOrder[other] {
					next = other
					break
				}
			}
			if next >= 0 {
				break
			}
		}
		if next < 0 {
			best := -1
			for si := 0; si < Ns; si++ {
				if inOrder[si] {
					continue
				}
				if n := m.candidateCount(si); best < 0 || n < best {
					best, next = n, si
				}
			}
		}
		push(next)
	}
	return order
}

func (m *matcher) candidateCount(si int) int {
	sl := &m.pl.slots[si]
	if len(sl.labels) == 0 {
		return len(m.G.all)
	}
	return len(m.G.withLabel(sl.labels[0]))
}

// run calls onHit for each complete binding until onHit returns false.
func (m *matcher) run(onHit func(bound []int64) bool) error {
	m.onHit = onHit
	m.place(0)
	return m.err
}

// place binds order[depth] and recurses, returning false once the search is to stop.
func (m *matcher) place(depth int) bool {
	if depth == len(m.order) {
		return m.onHit(m.bound)
	}

	m.steps++
	if m.steps%kCheckCtxEvery == 0 {
		if err := m.ctx.Err(); err != nil {
			m.err = err
			return false
		}
	}

	si := m.order[depth]
	for _, id := range m.candidates(si) {
		keepGoing := true
		added, ok := m.tryBind(si, id)
		if ok {
			m.placed[si] = true
			keepGoing = m.place(depth + 1)
			m.placed[si] = false
		}
		for _, pair := range added {
			delete(m.used, pair)
		}
		if !keepGoing {
			return false
		}
	}
	return true
}

func (m *matcher) candidates(si int) []int64 {
	if id, isFixed := m.fixed[si]; isFixed {
		return []int64{id}
	}
	sl := &m.pl.slots[si]
	for _, ei := range sl.edges {
		e := m.pl.edges[ei]
		other := e.a
		if other == si {
			other = e.b
		}
		if other != si && m.placed[other] {
			return m.G.neighbors(m.bound[other])
		}
	}
	if len(sl.labels) > 0 {
		return m.G.withLabel(sl.labels[0])
	}
	return m.G.all
}

// tryBind binds slot si to node id, claiming the relationships to placed neighbors.
// The claimed pairs are returned even on failure so the caller can release them.
func (m *matcher) tryBind(si int, id int64) (added []nodePair, ok bool) {
	node := m.G.nodes[id]
	if node == nil {
		return nil, false
	}
	sl := &m.pl.slots[si]
	for _, label := range sl.labels {
		if !node.HasLabel(label) {
			return nil, false
		}
	}

	m.bound[si] = id
	for _, ei := range sl.edges {
		e := m.pl.edges[ei]
		other := e.a
		if other == si {
			other = e.b
		}
		if other == si {
			return added, false // no self loops
		}
		if !m.placed[other] {
			continue
		}
		otherID := m.bound[other]
		if !m.G.hasEdge(id, otherID) {
			return added, false
		}
		pair := pairOf(id, otherID)
		if _, taken := m.used[pair]; taken {
			return added, false
		}
		m.used[pair] = struct{}{}
		added = append(added, pair)
	}
	return added, true
}

// Evaluate runs the given query against this graph.
//
// RETURN * yields one record per match mapping each named symbol to its node's properties; COUNT(*)
// yields a single record holding the number of matches as an int64.
func (G *Graph) Evaluate(ctx context.Context, q *Query) ([]motif.Record, error) {
	G.mu.RLock()
	defer G.mu.RUnlock()

	pl := compilePlan(q.Match)
	symbols := pl.symbols()
	if len(q.CountAs) == 0 && len(symbols) == 0 {
		return nil, errors.Wrap(motif.ErrUnsupportedQuery, "RETURN * requires a named variable")
	}

	var exclude *plan
	var excludeBound map[int]int // exclude slot => match slot
	if q.Exclude != nil {
		exclude = compilePlan([]Path{*q.Exclude})
		excludeBound = make(map[int]int)
		for sym, xi := range exclude.bySymbol {
			si, exists := pl.bySymbol[sym]
			if !exists {
				return nil, errors.Wrapf(motif.ErrUnsupportedQuery, "WHERE references unbound variable %q", sym)
			}
			excludeBound[xi] = si
		}
	}

	var (
		count   int64
		records []motif.Record
		errSub  error
	)

	m := newMatcher(ctx, G, pl, nil)
	err := m.run(func(bound []int64) bool {
		if exclude != nil {
			fixed := make(map[int]int64, len(excludeBound))
			for xi, si := range excludeBound {
				fixed[xi] = bound[si]
			}
			found := false
			errSub = newMatcher(ctx, G, exclude, fixed).run(func([]int64) bool {
				found = true
				return false
			})
			if errSub != nil {
				return false
			}
			if found {
				return true
			}
		}

		if len(q.CountAs) > 0 {
			count++
			return true
		}

		rec := make(motif.Record, len(symbols))
		for _, sym := range symbols {
			rec[sym] = G.nodes[bound[pl.bySymbol[sym]]].value()
		}
		records = append(records, rec)
		return q.Limit < 0 || len(records) < q.Limit
	})
	if err == nil {
		err = errSub
	}
	if err != nil {
		return nil, err
	}

	if len(q.CountAs) > 0 {
		records = []motif.Record{{q.CountAs: count}}
	}
	if q.Limit >= 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

// value returns a copy of this node's properties, as a bolt driver renders a node in record data.
func (n *Node) value() map[string]any {
	props := make(map[string]any, len(n.Props))
	for k, v := range n.Props {
		props[k] = v
	}
	return props
}
