// Package inside computes the per-state fixpoints consumed as admissible
// bounds by the search engines: R[q], the best-run value, and B[q], the
// best-tree bound.
//
// Both are obtained by one Knuth-style best-first relaxation, the
// generalisation of Dijkstra's algorithm to monotone hypergraphs: finalise
// the best reachable state, then relax the transitions that depend on it.
package inside

import (
	"container/heap"

	"github.com/cirdeirf/mpt/mptlog"
	"github.com/cirdeirf/mpt/pta"
)

// Bounds holds the two fixpoints computed over an Automaton's states.
//
// B is set equal to R, an admissible over-approximation: for any tree t
// rooted at q, P(t|q) may sum many runs, but no single run of t can exceed
// R[q], which is the one property the MPT stop rule needs. A tighter
// admissible B may be substituted by constructing Bounds directly.
type Bounds struct {
	R map[string]float64
	B map[string]float64
}

// Get returns R[q] (or 0 if q is unknown).
func (b Bounds) Get(q string) float64 { return b.R[q] }

// GetBound returns B[q] (or 0 if q is unknown).
func (b Bounds) GetBound(q string) float64 { return b.B[q] }

// candidate is a pending (state, value) pair: popping a transition whose
// children are all finalised proposes val as a candidate final value for
// the state it produces.
type candidate struct {
	state string
	val   float64
}

type candidateHeap []candidate

func (h candidateHeap) Len() int            { return len(h) }
func (h candidateHeap) Less(i, j int) bool  { return h[i].val > h[j].val } // max-heap
func (h candidateHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)         { *h = append(*h, x.(candidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	v := old[n-1]
	*h = old[:n-1]
	return v
}

// Compute runs the Knuth relaxation over every state reachable in a, and
// returns the frozen R and B tables. logger may be nil (treated as a no-op
// logger).
func Compute(a *pta.Automaton, logger mptlog.Logger) Bounds {
	if logger == nil {
		logger = mptlog.Noop()
	}

	states := a.States()
	finalVal := make(map[string]float64, len(states))
	finalized := make(map[string]bool, len(states))

	// pending.remaining counts how many of a transition's children are
	// not yet finalized; users[q] lists the transitions that use q as a
	// child, so finalizing q can make them ready.
	type pending struct {
		t         pta.Transition
		remaining int
	}
	pendings := make([]*pending, 0)
	users := make(map[string][]*pending)

	var h candidateHeap

	readyValue := func(t pta.Transition) float64 {
		val := t.Prob
		for _, c := range t.Children {
			val *= finalVal[c]
		}
		return val
	}

	for _, q := range states {
		for _, t := range a.TransitionsTo(q) {
			if len(t.Children) == 0 {
				heap.Push(&h, candidate{state: q, val: t.Prob})
				continue
			}
			p := &pending{t: t, remaining: len(t.Children)}
			pendings = append(pendings, p)
			for _, c := range t.Children {
				users[c] = append(users[c], p)
			}
		}
	}

	for h.Len() > 0 {
		top := heap.Pop(&h).(candidate)
		if finalized[top.state] {
			continue // stale entry from an earlier, now-superseded push
		}
		// The heap is a max-heap and every weight lies in (0,1], so the
		// first time a state is popped its value is maximal: finalize it.
		finalized[top.state] = true
		finalVal[top.state] = top.val
		logger.Infof("finalized state %s value=%v", top.state, top.val)

		for _, p := range users[top.state] {
			if p.remaining == 0 {
				continue // already triggered by a repeated child occurrence
			}
			p.remaining--
			if p.remaining == 0 {
				heap.Push(&h, candidate{state: p.t.State, val: readyValue(p.t)})
			}
		}
	}

	r := make(map[string]float64, len(states))
	for _, q := range states {
		r[q] = finalVal[q] // 0 for states never finalized
	}
	b := make(map[string]float64, len(states))
	for q, v := range r {
		b[q] = v
	}
	return Bounds{R: r, B: b}
}
