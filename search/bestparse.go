package search

import (
	"container/heap"
	"time"

	"github.com/cirdeirf/mpt/context"
	"github.com/cirdeirf/mpt/inside"
	"github.com/cirdeirf/mpt/mpterr"
	"github.com/cirdeirf/mpt/pta"
)

// BestParse finds the tree whose single best run has maximal probability.
// Unlike MPT, a run's probability is never split across multiple
// completions of the same tree, so the first context popped off the
// frontier that is already complete is provably the optimum: prio uses
// R[q] (bounds.Get), and the frontier dominates every unexplored run.
func BestParse(a *pta.Automaton, bounds inside.Bounds, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.logger()

	if noAcceptingRun(a, bounds) {
		return nil, mpterr.ErrNoAcceptingTree
	}

	e := &engine{
		a:       a,
		bound:   bounds.Get,
		symbols: opts.symbolOrder(a),
		opts:    opts,
	}
	e.seedRoots()

	for e.frontier.Len() > 0 {
		top := heap.Pop(&e.frontier).(*context.Context)

		if top.IsComplete() {
			log.Infof("best-parse done insertions=%d probability=%v", e.insertions, top.BaseW)
			return &Result{
				Tree:        top.Root.String(),
				Probability: top.BaseW,
				Insertions:  e.insertions,
				Elapsed:     time.Since(start),
			}, nil
		}

		if !e.expand(top) {
			return nil, mpterr.Wrap(mpterr.Aborted, nil,
				"insertion limit %d reached before best-parse search drained", opts.MaxInsertions)
		}
	}

	return nil, mpterr.ErrNoAcceptingTree
}

// noAcceptingRun reports whether no root state has both positive weight and
// a positive best-run value, i.e. no tree admits any run at all.
func noAcceptingRun(a *pta.Automaton, bounds inside.Bounds) bool {
	for _, q := range a.RootStates() {
		if bounds.Get(q) > 0 {
			return false
		}
	}
	return true
}
