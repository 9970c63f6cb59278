package search_test

import (
	"testing"

	"github.com/cirdeirf/mpt/inside"
	"github.com/cirdeirf/mpt/mpterr"
	"github.com/cirdeirf/mpt/pta/parse"
	"github.com/cirdeirf/mpt/search"
)

func mustBestParse(t *testing.T, src string) *search.Result {
	t.Helper()
	a, err := parse.ParseString(src)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	r, err := search.BestParse(a, bounds, search.DefaultOptions())
	if err != nil {
		t.Fatalf("BestParse: %v", err)
	}
	return r
}

// The best single run on ambiguousExample has probability 0.0675, below the
// MPT total of 0.091 for the same automaton.
func TestBestParse_AmbiguousExample(t *testing.T) {
	r := mustBestParse(t, ambiguousExample)
	if !approxEqual(r.Probability, 0.0675) {
		t.Errorf("probability = %v, want 0.0675", r.Probability)
	}
}

func TestBestParse_TrivialAutomaton(t *testing.T) {
	r := mustBestParse(t, "root: q # 1.0\ntransition: q -> a() # 1.0\n")
	if r.Tree != "a" {
		t.Errorf("tree = %q, want %q", r.Tree, "a")
	}
	if !approxEqual(r.Probability, 1.0) {
		t.Errorf("probability = %v, want 1.0", r.Probability)
	}
}

func TestBestParse_NoAcceptingTree(t *testing.T) {
	a, err := parse.ParseString("root: q # 1.0\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	_, err = search.BestParse(a, bounds, search.DefaultOptions())
	if !errIsKind(err, mpterr.NoAcceptingTree) {
		t.Errorf("expected NoAcceptingTree, got %v", err)
	}
}

// Best-parse returns the single best transition's probability, not the sum
// over duplicate transitions.
func TestBestParse_DuplicateTransitions(t *testing.T) {
	r := mustBestParse(t, "root: q # 1.0\ntransition: q -> a() # 0.3\ntransition: q -> a() # 0.4\n")
	if !approxEqual(r.Probability, 0.4) {
		t.Errorf("probability = %v, want 0.4", r.Probability)
	}
}

// On an automaton where every tree has exactly one run, the best parse and
// the most probable tree coincide.
func TestBestParse_MatchesMPTWhenUnambiguous(t *testing.T) {
	const src = "root: q # 1.0\ntransition: q -> f(q) # 0.5\ntransition: q -> a() # 0.5\n"
	bp := mustBestParse(t, src)
	mpt := mustMPT(t, src)
	if !approxEqual(bp.Probability, mpt.Probability) {
		t.Errorf("best-parse probability %v != MPT probability %v on an unambiguous automaton", bp.Probability, mpt.Probability)
	}
}
