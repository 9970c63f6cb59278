// Package search implements the two best-first engines built on top of the
// inside solver and the context representation: MPT, which sums every run of
// a tree before declaring it the winner, and BestParse, which stops at the
// first completed run since no later one can beat it.
//
// Both share one frontier discipline: a max-priority queue over Contexts,
// ordered by Prio and, on a tie, by insertion order (FIFO), the same
// generalised-Dijkstra shape the inside package uses over states, lifted to
// partial trees.
package search

import (
	"container/heap"
	"time"

	"github.com/cirdeirf/mpt/context"
	"github.com/cirdeirf/mpt/inside"
	"github.com/cirdeirf/mpt/mptlog"
	"github.com/cirdeirf/mpt/pta"
)

// Options configures a search run. Zero value is not ready to use; call
// DefaultOptions and override individual fields.
type Options struct {
	// Tolerance absorbs floating-point noise when comparing a frontier
	// priority against the best probability found so far.
	Tolerance float64
	// StrictDraining selects the stop rule: true drains every frontier
	// entry whose priority still ties the best probability found, so a
	// tied tree is never cut off before it can be counted. false stops
	// as soon as no strict improvement is possible; kept only to let
	// experiments compare against the naive rule.
	StrictDraining bool
	// SymbolOrder fixes the order symbols are tried when expanding a
	// hole. Nil means lexicographic (Automaton.SortedSymbols), which is
	// both deterministic and sufficient for the engines' correctness;
	// a caller-supplied order only affects which of several
	// equal-probability trees is found first.
	SymbolOrder []string
	// MaxInsertions bounds the number of Contexts ever pushed onto the
	// frontier. Zero means unbounded. A positive cap is a safety net for
	// pathological automata where a state carries a p=1.0 self-loop and
	// the stop rule alone cannot be shown to terminate.
	MaxInsertions int
	Logger        mptlog.Logger
}

// DefaultOptions returns the engines' default configuration.
func DefaultOptions() Options {
	return Options{
		Tolerance:      1e-12,
		StrictDraining: true,
		MaxInsertions:  0,
		Logger:         mptlog.Noop(),
	}
}

func (o Options) logger() mptlog.Logger {
	if o.Logger == nil {
		return mptlog.Noop()
	}
	return o.Logger
}

func (o Options) symbolOrder(a *pta.Automaton) []string {
	if len(o.SymbolOrder) > 0 {
		return o.SymbolOrder
	}
	return a.SortedSymbols()
}

// Result is the record a search run hands back to the caller.
type Result struct {
	Tree        string
	Probability float64
	Insertions  int
	Elapsed     time.Duration
}

// frontier is a max-heap of *context.Context ordered by Prio desc, Seq asc.
type frontier []*context.Context

func (f frontier) Len() int { return len(f) }
func (f frontier) Less(i, j int) bool {
	if f[i].Prio != f[j].Prio {
		return f[i].Prio > f[j].Prio
	}
	return f[i].Seq < f[j].Seq
}
func (f frontier) Swap(i, j int) { f[i], f[j] = f[j], f[i] }
func (f *frontier) Push(x any)   { *f = append(*f, x.(*context.Context)) }
func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	v := old[n-1]
	*f = old[:n-1]
	return v
}

// engine bundles the state shared by MPT and BestParse: the automaton, the
// bound function, the symbol iteration order, and an insertion counter
// guarded by MaxInsertions.
type engine struct {
	a       *pta.Automaton
	bound   context.BoundFunc
	symbols []string
	opts    Options

	frontier   frontier
	nextSeq    uint64
	insertions int
}

func newEngine(a *pta.Automaton, bounds inside.Bounds, opts Options) *engine {
	return &engine{
		a:       a,
		bound:   bounds.GetBound,
		symbols: opts.symbolOrder(a),
		opts:    opts,
	}
}

func (e *engine) push(c *context.Context) bool {
	if e.opts.MaxInsertions > 0 && e.insertions >= e.opts.MaxInsertions {
		return false
	}
	c.Seq = e.nextSeq
	e.nextSeq++
	e.insertions++
	heap.Push(&e.frontier, c)
	return true
}

func (e *engine) seedRoots() {
	for _, q := range e.a.RootStates() {
		if e.bound(q) <= 0 {
			continue
		}
		e.push(context.NewRoot(q, e.a.RootWeight(q), e.bound))
	}
}

// expand pushes one child Context per (symbol, transition) applicable at
// the context's first remaining hole. Always expanding the first hole
// (rather than some other choice) is safe: Prio is the product of BaseW
// and every remaining hole's bound regardless of fill order, so which hole
// is expanded next cannot change admissibility, only traversal order.
func (e *engine) expand(c *context.Context) bool {
	hole := c.Holes[0]
	ok := true
	for _, sym := range e.symbols {
		for _, t := range e.a.TransitionsFor(hole.State, sym) {
			child := context.Expand(c, 0, sym, t.Children, t.Prob, e.bound)
			if !e.push(child) {
				ok = false
			}
		}
	}
	return ok
}

// noAcceptingTree reports whether no root state has both positive weight
// and a positive bound, i.e. the automaton accepts no tree at all.
func noAcceptingTree(a *pta.Automaton, bounds inside.Bounds) bool {
	for _, q := range a.RootStates() {
		if bounds.GetBound(q) > 0 {
			return false
		}
	}
	return true
}

func (o Options) lessStrict(prio, best float64) bool {
	if o.StrictDraining {
		return prio < best-o.Tolerance
	}
	return prio <= best+o.Tolerance
}
