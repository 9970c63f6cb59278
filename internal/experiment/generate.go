package experiment

import (
	"fmt"
	"math/rand"
	"os"

	goyaml "github.com/itchyny/go-yaml"

	"github.com/cirdeirf/mpt/pta"
)

// GeneratorConfig configures synthetic PTA generation for the `-g` CLI
// flag.
type GeneratorConfig struct {
	States   int     `yaml:"states"`
	Symbols  int     `yaml:"symbols"`
	MaxArity int     `yaml:"maxArity"`
	Seed     int64   `yaml:"seed"`
	MinProb  float64 `yaml:"minProb"`
}

// DefaultGeneratorConfig produces modest automata: a handful of states and
// symbols, arity capped at 2.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{States: 5, Symbols: 4, MaxArity: 2, Seed: 1, MinProb: 0.05}
}

// LoadGeneratorConfig reads and decodes a generator config file.
func LoadGeneratorConfig(path string) (GeneratorConfig, error) {
	cfg := DefaultGeneratorConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading generator config %s: %w", path, err)
	}
	if err := goyaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing generator config %s: %w", path, err)
	}
	return cfg, nil
}

// GenerateRandomPTA builds a random, internally consistent PTA from cfg: a
// fixed ranked alphabet of cfg.Symbols symbols (arities 0..cfg.MaxArity
// assigned round-robin, so every arity in range is exercised when
// cfg.Symbols > cfg.MaxArity), cfg.States states named q0..q(n-1), and for
// every (state, symbol) pair a transition with probability drawn uniformly
// from [cfg.MinProb, 1). At least one state is
// always given a positive root weight so the result always accepts some
// tree. The generator is seeded deterministically so a -g run is
// reproducible.
func GenerateRandomPTA(cfg GeneratorConfig) (*pta.Automaton, error) {
	if cfg.States <= 0 || cfg.Symbols <= 0 {
		return nil, fmt.Errorf("generator config needs States>0 and Symbols>0, got %+v", cfg)
	}
	if cfg.MaxArity < 0 {
		cfg.MaxArity = 0
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	states := make([]string, cfg.States)
	for i := range states {
		states[i] = fmt.Sprintf("q%d", i)
	}

	type symDef struct {
		name  string
		arity int
	}
	symbols := make([]symDef, cfg.Symbols)
	for i := range symbols {
		arity := i % (cfg.MaxArity + 1)
		symbols[i] = symDef{name: fmt.Sprintf("sym%d", i), arity: arity}
	}

	b := pta.NewBuilder()
	for _, q := range states {
		for _, sym := range symbols {
			children := make([]string, sym.arity)
			for i := range children {
				children[i] = states[rng.Intn(len(states))]
			}
			p := cfg.MinProb + rng.Float64()*(1-cfg.MinProb)
			b.AddTransition(q, sym.name, children, p)
		}
	}

	// Guarantee at least one accepting root so the automaton is never
	// vacuous: NoAcceptingTree would otherwise be the generic outcome of
	// an unlucky draw.
	root := states[rng.Intn(len(states))]
	b.AddRoot(root, cfg.MinProb+rng.Float64()*(1-cfg.MinProb))

	return b.Build()
}
