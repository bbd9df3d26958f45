package evolution

import (
	"math"
	"testing"

	"github.com/protoloop/loopcore/internal/cognition"
)

func setLevel(t *testing.T, s *cognition.State, name string, level float64) {
	t.Helper()
	m, ok := s.Modules[name]
	if !ok {
		t.Fatalf("unknown module %q", name)
	}
	m.Level = level
	m.Status = cognition.StatusForLevel(level)
	s.CalculateEvolutionScore()
	s.UpdateDominantTraits()
}

func TestEngine_CompareConsciousnessTrees(t *testing.T) {
	e := newTestEngine(t, 0, 1)
	s1 := e.InitializeCognitiveState("p1")
	s2 := e.InitializeCognitiveState("p2")

	// logic: both strong and close -> shared strength (sim 0.95).
	setLevel(t, s1, "logic", 70)
	setLevel(t, s2, "logic", 75)
	// empathy: both past 20 but 45 apart -> divergent (sim 0.55).
	setLevel(t, s1, "empathy", 25)
	setLevel(t, s2, "empathy", 70)
	// creativity: one weak, one strong -> complementary (below the
	// level-20 filter on s1's side, so it contributes no similarity).
	setLevel(t, s1, "creativity", 10)
	setLevel(t, s2, "creativity", 65)

	cmp := e.CompareConsciousnessTrees(s1, s2)

	if len(cmp.SharedStrengths) != 1 || cmp.SharedStrengths[0] != "logic" {
		t.Errorf("shared strengths = %v, want [logic]", cmp.SharedStrengths)
	}

	if len(cmp.DivergentTraits) != 1 {
		t.Fatalf("divergent traits = %v, want one entry", cmp.DivergentTraits)
	}
	dt := cmp.DivergentTraits[0]
	if dt.Module != "empathy" || dt.Level1 != 25 || dt.Level2 != 70 {
		t.Errorf("divergent trait = %+v", dt)
	}

	if len(cmp.ComplementaryModules) != 1 || cmp.ComplementaryModules[0] != "creativity" {
		t.Errorf("complementary = %v, want [creativity]", cmp.ComplementaryModules)
	}

	// Mean of 0.95 (logic) and 0.55 (empathy).
	if math.Abs(cmp.SimilarityScore-0.75) > 1e-9 {
		t.Errorf("similarity = %v, want 0.75", cmp.SimilarityScore)
	}

	wantDistance := math.Abs(s1.EvolutionScore - s2.EvolutionScore)
	if math.Abs(cmp.EvolutionDistance-wantDistance) > 1e-9 {
		t.Errorf("distance = %v, want %v", cmp.EvolutionDistance, wantDistance)
	}
}

func TestEngine_CompareConsciousnessTrees_NoQualifyingModules(t *testing.T) {
	e := newTestEngine(t, 0, 1)
	s1 := e.InitializeCognitiveState("p1")
	s2 := e.InitializeCognitiveState("p2")

	cmp := e.CompareConsciousnessTrees(s1, s2)

	if cmp.SimilarityScore != 0 {
		t.Errorf("similarity = %v, want 0 when nothing qualifies", cmp.SimilarityScore)
	}
	if cmp.EvolutionDistance != 0 {
		t.Errorf("distance = %v, want 0 for identical fresh agents", cmp.EvolutionDistance)
	}
}
