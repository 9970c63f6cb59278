package search

import (
	"container/heap"
	"time"

	"github.com/cirdeirf/mpt/context"
	"github.com/cirdeirf/mpt/inside"
	"github.com/cirdeirf/mpt/mpterr"
	"github.com/cirdeirf/mpt/pta"
)

// MPT finds the most-probable tree: the tree t maximising P(t), the sum of
// probability over every run producing t. bounds must come from
// inside.Compute(a, ...).
//
// Frontier entries commit one transition per expansion, so several entries
// can complete into the same tree, one per run. The first time a tree
// completes, its total probability is computed exactly by marginalising over
// every run on that concrete tree (see treeProb); later completions of the
// same tree are recognised by fingerprint and skipped. Stopping is then
// sound as soon as the top priority falls below the best total found.
func MPT(a *pta.Automaton, bounds inside.Bounds, opts Options) (*Result, error) {
	start := time.Now()
	log := opts.logger()

	if noAcceptingTree(a, bounds) {
		return nil, mpterr.ErrNoAcceptingTree
	}

	e := newEngine(a, bounds, opts)
	e.seedRoots()

	fp := context.NewFingerprinter()
	marg := newMarginaliser(a)
	totals := make(map[string]float64)
	trees := make(map[string]*context.Node)

	var bestProb float64
	var bestKey string

	for e.frontier.Len() > 0 {
		top := heap.Pop(&e.frontier).(*context.Context)

		if bestProb > 0 && opts.lessStrict(top.Prio, bestProb) {
			break
		}

		if top.IsComplete() {
			key := fp.Fingerprint(top.Root)
			if _, seen := totals[key]; !seen {
				totals[key] = marg.treeProb(top.Root)
				trees[key] = top.Root
				if totals[key] > bestProb {
					bestProb = totals[key]
					bestKey = key
				}
				log.Debugf("completed tree=%s run=%v total=%v", top.Root, top.BaseW, totals[key])
			}
			continue
		}

		if !e.expand(top) {
			return nil, mpterr.Wrap(mpterr.Aborted, nil,
				"insertion limit %d reached before MPT search drained", opts.MaxInsertions)
		}
	}

	if bestKey == "" {
		return nil, mpterr.ErrNoAcceptingTree
	}

	log.Infof("MPT done insertions=%d probability=%v", e.insertions, bestProb)
	return &Result{
		Tree:        trees[bestKey].String(),
		Probability: bestProb,
		Insertions:  e.insertions,
		Elapsed:     time.Since(start),
	}, nil
}

// marginaliser computes the exact probability of a complete tree, summed
// over every run the automaton has on it. Per-subtree state vectors are
// memoised by node pointer; Expand shares untouched subtrees by pointer
// across contexts, so the cache is hit heavily as the search revisits the
// same regions of tree space.
type marginaliser struct {
	a     *pta.Automaton
	cache map[*context.Node]map[string]float64
}

func newMarginaliser(a *pta.Automaton) *marginaliser {
	return &marginaliser{a: a, cache: make(map[*context.Node]map[string]float64, 256)}
}

// treeProb returns P(t) = sum over states q of root(q) * inside(t, q).
func (m *marginaliser) treeProb(n *context.Node) float64 {
	var p float64
	for q, v := range m.insideVec(n) {
		p += m.a.RootWeight(q) * v
	}
	return p
}

// insideVec returns, per state q, the summed probability of every run on n
// that labels n's root position with q.
func (m *marginaliser) insideVec(n *context.Node) map[string]float64 {
	if v, ok := m.cache[n]; ok {
		return v
	}
	out := make(map[string]float64)
	for _, t := range m.a.TransitionsFromSymbol(n.Symbol) {
		p := t.Prob
		for i, c := range n.Children {
			p *= m.insideVec(c)[t.Children[i]]
			if p == 0 {
				break
			}
		}
		if p > 0 {
			out[t.State] += p
		}
	}
	m.cache[n] = out
	return out
}
