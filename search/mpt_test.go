package search_test

import (
	"math"
	"testing"

	"github.com/cirdeirf/mpt/inside"
	"github.com/cirdeirf/mpt/mpterr"
	"github.com/cirdeirf/mpt/pta/parse"
	"github.com/cirdeirf/mpt/search"
)

// ambiguousExample accepts trees with several runs each, so the most
// probable tree (summing runs) differs from the best parse (one run).
const ambiguousExample = `
root: q0 # 0.9
root: q1 # 0.1
transition: q1 -> alpha() # 0.1
transition: q2 -> alpha() # 0.5
transition: q2 -> beta() # 0.5
transition: q1 -> gamma(q1) # 0.5
transition: q1 -> gamma(q2) # 0.3
transition: q1 -> sigma(q1, q2) # 0.1
transition: q0 -> sigma(q1, q2) # 1.0
`

func approxEqual(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func mustMPT(t *testing.T, src string) *search.Result {
	t.Helper()
	a, err := parse.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	r, err := search.MPT(a, bounds, search.DefaultOptions())
	if err != nil {
		t.Fatalf("MPT: %v", err)
	}
	return r
}

// The winning tree sums four runs: two through root q0 (0.09) and two
// through root q1 (0.001), for a total of 0.091 — more than any single
// run's 0.0675.
func TestMPT_AmbiguousExample(t *testing.T) {
	r := mustMPT(t, ambiguousExample)
	if !approxEqual(r.Probability, 0.091) {
		t.Errorf("probability = %v, want 0.091", r.Probability)
	}
	optima := []string{"sigma(gamma(alpha), beta)", "sigma(gamma(alpha), alpha)"}
	if !contains(optima, r.Tree) {
		t.Errorf("tree = %q, want one of %v", r.Tree, optima)
	}
}

func TestMPT_TrivialAutomaton(t *testing.T) {
	r := mustMPT(t, "root: q # 1.0\ntransition: q -> a() # 1.0\n")
	if r.Tree != "a" {
		t.Errorf("tree = %q, want %q", r.Tree, "a")
	}
	if !approxEqual(r.Probability, 1.0) {
		t.Errorf("probability = %v, want 1.0", r.Probability)
	}
}

func TestMPT_NoAcceptingTree(t *testing.T) {
	a, err := parse.ParseString("root: q # 1.0\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	_, err = search.MPT(a, bounds, search.DefaultOptions())
	if err == nil {
		t.Fatal("expected NoAcceptingTree, got nil")
	}
	if !errIsKind(err, mpterr.NoAcceptingTree) {
		t.Errorf("expected NoAcceptingTree, got %v", err)
	}
}

// Two distinct transitions producing the same tree sum their probabilities
// under MPT.
func TestMPT_DuplicateTransitionsSum(t *testing.T) {
	r := mustMPT(t, "root: q # 1.0\ntransition: q -> a() # 0.3\ntransition: q -> a() # 0.4\n")
	if !approxEqual(r.Probability, 0.7) {
		t.Errorf("probability = %v, want 0.7", r.Probability)
	}
	if r.Tree != "a" {
		t.Errorf("tree = %q, want %q", r.Tree, "a")
	}
}

// With a p=0.5 self-loop, every tree of height h has total probability
// 0.5^(h+1), so the leaf alone wins and the search must not descend forever.
func TestMPT_PrefersShallowTree(t *testing.T) {
	r := mustMPT(t, "root: q # 1.0\ntransition: q -> f(q) # 0.5\ntransition: q -> a() # 0.5\n")
	if r.Tree != "a" {
		t.Errorf("tree = %q, want %q", r.Tree, "a")
	}
	if !approxEqual(r.Probability, 0.5) {
		t.Errorf("probability = %v, want 0.5", r.Probability)
	}
}

func TestMPT_Diagnostics(t *testing.T) {
	a, err := parse.ParseString(ambiguousExample)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	r, err := search.MPT(a, bounds, search.DefaultOptions())
	if err != nil {
		t.Fatalf("MPT: %v", err)
	}
	if r.Probability <= 0 || r.Probability > 1 {
		t.Errorf("probability = %v, want in (0,1]", r.Probability)
	}
	if r.Insertions <= 0 {
		t.Errorf("insertions = %d, want > 0", r.Insertions)
	}
}

// Running the engine twice on the same automaton yields the same result bit
// for bit: the symbol iteration order is canonicalised, so the whole search
// is deterministic.
func TestMPT_Idempotent(t *testing.T) {
	r1 := mustMPT(t, ambiguousExample)
	r2 := mustMPT(t, ambiguousExample)
	if r1.Probability != r2.Probability {
		t.Errorf("two runs returned %v and %v, want identical", r1.Probability, r2.Probability)
	}
	if r1.Tree != r2.Tree {
		t.Errorf("two runs returned trees %q and %q, want identical", r1.Tree, r2.Tree)
	}
}

func TestMPT_MaxInsertionsAborts(t *testing.T) {
	a, err := parse.ParseString("root: q # 1.0\ntransition: q -> f(q) # 0.99\ntransition: q -> a() # 0.01\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	opts := search.DefaultOptions()
	opts.MaxInsertions = 2
	_, err = search.MPT(a, bounds, opts)
	if err == nil {
		t.Fatal("expected an aborted-insertion error, got nil")
	}
	if !errIsKind(err, mpterr.Aborted) {
		t.Errorf("expected Aborted, got %v", err)
	}
}

func contains(ss []string, s string) bool {
	for _, x := range ss {
		if x == s {
			return true
		}
	}
	return false
}

func errIsKind(err error, kind mpterr.Kind) bool {
	me, ok := err.(*mpterr.Error)
	return ok && me.Kind == kind
}
