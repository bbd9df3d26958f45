package cognition

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// testState builds a state with every catalog module present, the core
// four at the seed level and the rest locked.
func testState(t *testing.T) *State {
	t.Helper()

	modules := make(map[string]*Module, len(ModuleNames))
	core := make(map[string]bool, len(CoreModules))
	for _, name := range CoreModules {
		core[name] = true
	}

	for _, name := range ModuleNames {
		m := &Module{
			Name:               name,
			UnlockRequirements: UnlockRequirementsFor(name),
		}
		if core[name] {
			m.Level = UnlockSeedLevel
			m.Status = StatusNascent
		} else {
			m.Status = StatusLocked
		}
		modules[name] = m
	}

	s := &State{AgentID: "p1", Modules: modules}
	s.CalculateEvolutionScore()
	s.UpdateDominantTraits()
	return s
}

func TestState_CalculateEvolutionScore(t *testing.T) {
	s := testState(t)

	// Four modules at 5.0 out of eight: (4*5)/(8*100)*100 = 2.5.
	if s.EvolutionScore != 2.5 {
		t.Errorf("evolution score = %v, want 2.5", s.EvolutionScore)
	}
}

func TestState_CalculateEvolutionScore_Formula(t *testing.T) {
	s := testState(t)
	s.Modules["logic"].Level = 80
	s.Modules["empathy"].Level = 40

	s.CalculateEvolutionScore()

	var total float64
	for _, m := range s.Modules {
		total += m.Level
	}
	want := 100 * total / (100 * float64(len(s.Modules)))

	if math.Abs(s.EvolutionScore-want) > 1e-9 {
		t.Errorf("evolution score = %v, want %v", s.EvolutionScore, want)
	}
}

func TestState_UpdateModule(t *testing.T) {
	s := testState(t)

	if !s.UpdateModule("logic", 0.2) {
		t.Fatal("update of known module returned false")
	}

	if got := s.ModuleLevel("logic"); got != 5.2 {
		t.Errorf("logic level = %v, want 5.2", got)
	}
	if s.TotalExperience != 20 {
		t.Errorf("total experience = %d, want 20", s.TotalExperience)
	}

	// Score must reflect the update immediately.
	want := 100 * (5.2 + 3*5.0) / (100 * 8)
	if math.Abs(s.EvolutionScore-want) > 1e-9 {
		t.Errorf("evolution score = %v, want %v", s.EvolutionScore, want)
	}
}

func TestState_UpdateModule_UnknownIsNoOp(t *testing.T) {
	s := testState(t)
	before := s.EvolutionScore

	if s.UpdateModule("telepathy", 5) {
		t.Error("update of unknown module returned true")
	}
	if s.EvolutionScore != before {
		t.Error("unknown module update mutated the score")
	}
	if s.TotalExperience != 0 {
		t.Error("unknown module update accumulated experience")
	}
}

func TestState_UpdateDominantTraits(t *testing.T) {
	s := testState(t)
	s.Modules["creativity"].Level = 60
	s.Modules["ethics"].Level = 40
	s.Modules["logic"].Level = 50

	s.UpdateDominantTraits()

	want := []string{"creativity", "logic", "ethics"}
	if diff := cmp.Diff(want, s.DominantTraits); diff != "" {
		t.Errorf("dominant traits mismatch (-want +got):\n%s", diff)
	}
}

func TestState_UpdateDominantTraits_TiesUseCatalogOrder(t *testing.T) {
	s := testState(t)
	// Core four all tied at the seed level; catalog order is
	// logic, empathy, then curiosity/fear.
	want := []string{"logic", "empathy", "fear"}
	if diff := cmp.Diff(want, s.DominantTraits); diff != "" {
		t.Errorf("dominant traits mismatch (-want +got):\n%s", diff)
	}
}

func TestState_UpdateDominantTraits_Idempotent(t *testing.T) {
	s := testState(t)
	s.Modules["humor"].Level = 33

	s.UpdateDominantTraits()
	first := append([]string(nil), s.DominantTraits...)
	s.UpdateDominantTraits()

	if diff := cmp.Diff(first, s.DominantTraits); diff != "" {
		t.Errorf("second recompute diverged (-first +second):\n%s", diff)
	}
}

func TestState_Clone_IsDeep(t *testing.T) {
	s := testState(t)
	cp := s.Clone()

	cp.UpdateModule("logic", 10)

	if s.ModuleLevel("logic") != 5.0 {
		t.Errorf("mutating clone changed original: logic = %v", s.ModuleLevel("logic"))
	}
	if cp.ModuleLevel("logic") != 15.0 {
		t.Errorf("clone logic = %v, want 15", cp.ModuleLevel("logic"))
	}

	cp.Modules["humor"].UnlockRequirements["creativity"] = 99
	if s.Modules["humor"].UnlockRequirements["creativity"] != 30 {
		t.Error("clone shares unlock requirement maps with original")
	}
}
