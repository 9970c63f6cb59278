package experiment_test

import (
	"testing"

	"github.com/cirdeirf/mpt/internal/experiment"
)

func TestGenerateRandomPTADeterministic(t *testing.T) {
	cfg := experiment.GeneratorConfig{States: 4, Symbols: 3, MaxArity: 2, Seed: 42, MinProb: 0.05}
	a1, err := experiment.GenerateRandomPTA(cfg)
	if err != nil {
		t.Fatalf("GenerateRandomPTA: %v", err)
	}
	a2, err := experiment.GenerateRandomPTA(cfg)
	if err != nil {
		t.Fatalf("GenerateRandomPTA: %v", err)
	}
	if got, want := len(a1.States()), len(a2.States()); got != want {
		t.Fatalf("non-deterministic state count across identical seeds: %d vs %d", got, want)
	}
	for _, q := range a1.States() {
		if a1.RootWeight(q) != a2.RootWeight(q) {
			t.Errorf("non-deterministic root weight for %s across identical seeds", q)
		}
	}
}

func TestGenerateRandomPTAHasAcceptingRoot(t *testing.T) {
	cfg := experiment.DefaultGeneratorConfig()
	a, err := experiment.GenerateRandomPTA(cfg)
	if err != nil {
		t.Fatalf("GenerateRandomPTA: %v", err)
	}
	if got := len(a.RootStates()); got == 0 {
		t.Error("expected at least one positive root weight")
	}
}

func TestGenerateRandomPTARejectsEmptyConfig(t *testing.T) {
	_, err := experiment.GenerateRandomPTA(experiment.GeneratorConfig{})
	if err == nil {
		t.Fatal("expected an error for a zero-valued generator config")
	}
}
