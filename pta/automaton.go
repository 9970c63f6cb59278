// Package pta implements the probabilistic tree automaton data model and
// its normalisation invariants. An Automaton is built once via Builder,
// validated, and is immutable thereafter.
package pta

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/cirdeirf/mpt/mpterr"
)

// reservedChars forbidden in bare (unquoted) state and symbol identifiers.
const reservedChars = "\" ->→,;()[]%"

// Transition is the tuple (q, f, (q1,...,qk), p): a run can assign
// state q to a node labelled f whose children were assigned q1..qk,
// contributing factor p.
type Transition struct {
	State    string   // q, the state this transition produces
	Symbol   string   // f
	Children []string // q1..qk, empty for a 0-ary symbol
	Prob     float64  // p ∈ (0,1]
}

// Arity reports the rank of this transition's symbol.
func (t Transition) Arity() int { return len(t.Children) }

// Automaton is an immutable, validated PTA (Q, Σ, μ, ν).
type Automaton struct {
	symbols map[string]int // Σ → arity
	states  map[string]struct{}
	root    map[string]float64

	byState       map[string][]Transition            // transitions producing q
	bySymbol      map[string][]Transition            // transitions labelled f
	byStateSymbol map[string]map[string][]Transition // transitions producing q via f
}

// States returns every state with either a root weight or at least one
// transition mentioning it.
func (a *Automaton) States() []string {
	out := make([]string, 0, len(a.states))
	for q := range a.states {
		out = append(out, q)
	}
	sort.Strings(out)
	return out
}

// Symbols returns the ranked alphabet Σ → arity.
func (a *Automaton) Symbols() map[string]int {
	out := make(map[string]int, len(a.symbols))
	for f, k := range a.symbols {
		out[f] = k
	}
	return out
}

// SortedSymbols returns Σ's symbols in a canonicalised (lexicographic)
// order, the default symbol iteration order used by the search engines.
func (a *Automaton) SortedSymbols() []string {
	out := make([]string, 0, len(a.symbols))
	for f := range a.symbols {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// RootWeight returns root(q), or 0 if q carries no root weight.
func (a *Automaton) RootWeight(q string) float64 {
	return a.root[q]
}

// RootStates returns every state with positive root weight, sorted.
func (a *Automaton) RootStates() []string {
	out := make([]string, 0, len(a.root))
	for q, p := range a.root {
		if p > 0 {
			out = append(out, q)
		}
	}
	sort.Strings(out)
	return out
}

// TransitionsTo returns the transitions producing state q.
func (a *Automaton) TransitionsTo(q string) []Transition {
	return a.byState[q]
}

// TransitionsFromSymbol returns every transition labelled f, used when
// extending a hole by a chosen symbol.
func (a *Automaton) TransitionsFromSymbol(f string) []Transition {
	return a.bySymbol[f]
}

// TransitionsFor returns the transitions producing q using symbol f.
func (a *Automaton) TransitionsFor(q, f string) []Transition {
	return a.byStateSymbol[q][f]
}

// WriteTo pretty-prints the automaton back into the file grammar parsed by
// pta/parse: one "root: <state> # <weight>" line per positive root weight,
// then one "transition: <q> -> <f>(<q1>, ...) # <weight>" line per
// transition. Root lines are sorted by state; transition lines are grouped
// by producing state in sorted order and keep insertion order within a
// state, so repeated serialisation is stable and the output re-parses to an
// equal automaton.
func (a *Automaton) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	for _, q := range a.RootStates() {
		fmt.Fprintf(&b, "root: %s # %s\n", quoteIfNeeded(q), formatWeight(a.root[q]))
	}
	for _, q := range a.States() {
		for _, t := range a.byState[q] {
			b.WriteString("transition: ")
			b.WriteString(quoteIfNeeded(t.State))
			b.WriteString(" -> ")
			b.WriteString(quoteIfNeeded(t.Symbol))
			b.WriteByte('(')
			for i, c := range t.Children {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(quoteIfNeeded(c))
			}
			b.WriteString(") # ")
			b.WriteString(formatWeight(t.Prob))
			b.WriteByte('\n')
		}
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

func formatWeight(p float64) string {
	return strconv.FormatFloat(p, 'g', -1, 64)
}

func quoteIfNeeded(tok string) string {
	if tok != "" && !strings.ContainsAny(tok, reservedChars) {
		return tok
	}
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range tok {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

// Builder accumulates root weights and transitions, then Build validates
// and freezes them into an Automaton.
type Builder struct {
	root        map[string]float64
	transitions []Transition
	err         *mpterr.Error // first validation error encountered eagerly, if any
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{root: make(map[string]float64)}
}

// AddRoot records a root weight for q. Re-adding q overwrites the previous
// weight: later wins is the natural reading of a line-oriented format.
func (b *Builder) AddRoot(q string, p float64) *Builder {
	if b.err != nil {
		return b
	}
	if err := validIdentifier(q); err != nil {
		b.err = err
		return b
	}
	if err := validWeight(p); err != nil {
		b.err = err
		return b
	}
	b.root[q] = p
	return b
}

// AddTransition records a transition (q, f, children, p).
func (b *Builder) AddTransition(q, f string, children []string, p float64) *Builder {
	if b.err != nil {
		return b
	}
	if err := validIdentifier(q); err != nil {
		b.err = err
		return b
	}
	if err := validIdentifier(f); err != nil {
		b.err = err
		return b
	}
	for _, c := range children {
		if err := validIdentifier(c); err != nil {
			b.err = err
			return b
		}
	}
	if err := validWeight(p); err != nil {
		b.err = err
		return b
	}
	kids := make([]string, len(children))
	copy(kids, children)
	b.transitions = append(b.transitions, Transition{State: q, Symbol: f, Children: kids, Prob: p})
	return b
}

func validIdentifier(tok string) *mpterr.Error {
	if tok == "" {
		return mpterr.Invalid("identifier must not be empty")
	}
	if strings.ContainsAny(tok, reservedChars) {
		return mpterr.Invalid("identifier %q contains a reserved character", tok)
	}
	return nil
}

func validWeight(p float64) *mpterr.Error {
	if math.IsNaN(p) || math.IsInf(p, 0) {
		return mpterr.Invalid("weight %v is not finite", p)
	}
	if p <= 0 || p > 1 {
		return mpterr.Invalid("weight %v is not in (0,1]", p)
	}
	return nil
}

// Err returns the first validation error recorded by AddRoot/AddTransition,
// without finalising the builder. Callers that attribute errors to a source
// line (pta/parse) use this to check for a problem immediately after each
// directive instead of waiting for Build.
func (b *Builder) Err() *mpterr.Error { return b.err }

// Build validates arity consistency, indexes the transitions, and freezes
// the result. Validation fails with InvalidAutomaton on the first problem
// found.
func (b *Builder) Build() (*Automaton, error) {
	if b.err != nil {
		return nil, b.err
	}

	a := &Automaton{
		symbols:       make(map[string]int),
		states:        make(map[string]struct{}),
		root:          make(map[string]float64, len(b.root)),
		byState:       make(map[string][]Transition),
		bySymbol:      make(map[string][]Transition),
		byStateSymbol: make(map[string]map[string][]Transition),
	}

	for q, p := range b.root {
		a.root[q] = p
		a.states[q] = struct{}{}
	}

	// Transitions sharing a (q, f, q1...qk) key are kept as independent
	// entries, each contributing its own probability mass when a run
	// uses it.
	for _, t := range b.transitions {
		if arity, ok := a.symbols[t.Symbol]; ok {
			if arity != len(t.Children) {
				return nil, mpterr.Invalid(
					"symbol %q used with arity %d and %d in different transitions",
					t.Symbol, arity, len(t.Children))
			}
		} else {
			a.symbols[t.Symbol] = len(t.Children)
		}

		a.states[t.State] = struct{}{}
		for _, c := range t.Children {
			a.states[c] = struct{}{}
		}

		a.byState[t.State] = append(a.byState[t.State], t)
		a.bySymbol[t.Symbol] = append(a.bySymbol[t.Symbol], t)
		if a.byStateSymbol[t.State] == nil {
			a.byStateSymbol[t.State] = make(map[string][]Transition)
		}
		a.byStateSymbol[t.State][t.Symbol] = append(a.byStateSymbol[t.State][t.Symbol], t)
	}

	if len(a.states) == 0 {
		return nil, mpterr.Invalid("automaton has no states")
	}

	return a, nil
}
