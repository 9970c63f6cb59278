package inside_test

import (
	"math"
	"testing"

	"github.com/cirdeirf/mpt/inside"
	"github.com/cirdeirf/mpt/pta/parse"
)

const exampleAutomaton = `
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

func TestComputeBestRunValue(t *testing.T) {
	a, err := parse.ParseString(exampleAutomaton)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)

	// q2: max(alpha:0.5, beta:0.5) = 0.5
	if got, want := bounds.Get("q2"), 0.5; !approxEqual(got, want) {
		t.Errorf("R(q2) = %v, want %v", got, want)
	}
	// q1: best of alpha(0.1), gamma(q1)=0.5*R(q1) (fixpoint, self-referential
	// and therefore never improves on a terminating chain), gamma(q2)=0.3*0.5=0.15,
	// sigma(q1,q2)=0.1*R(q1)*0.5. The acyclic-reachable maximum is gamma(q2)=0.15.
	if got, want := bounds.Get("q1"), 0.15; !approxEqual(got, want) {
		t.Errorf("R(q1) = %v, want %v", got, want)
	}
	// B is defined equal to R.
	if got, want := bounds.GetBound("q1"), bounds.Get("q1"); got != want {
		t.Errorf("B(q1) = %v, want R(q1) = %v", got, want)
	}
}

func TestComputeMissingStateIsZero(t *testing.T) {
	a, err := parse.ParseString("root: q # 1.0\ntransition: q -> a(q2) # 1.0\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	if got := bounds.Get("q2"); got != 0 {
		t.Errorf("R(q2) = %v, want 0 (q2 has no transitions)", got)
	}
	if got := bounds.Get("q"); got != 0 {
		t.Errorf("R(q) = %v, want 0 (q's only transition needs q2, which never finalizes)", got)
	}
}

func TestComputeBoundsInUnitInterval(t *testing.T) {
	a, err := parse.ParseString(exampleAutomaton)
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	for _, q := range a.States() {
		r := bounds.Get(q)
		if r < 0 || r > 1 {
			t.Errorf("R(%s) = %v, want in [0,1]", q, r)
		}
	}
}

func TestComputeTrivialAutomaton(t *testing.T) {
	a, err := parse.ParseString("root: q # 1.0\ntransition: q -> a() # 1.0\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	bounds := inside.Compute(a, nil)
	if got := bounds.Get("q"); got != 1.0 {
		t.Errorf("R(q) = %v, want 1.0", got)
	}
}
