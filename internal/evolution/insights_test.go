package evolution

import (
	"strings"
	"testing"

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/memory"
)

func TestEngine_GenerateEvolutionInsights_Ordering(t *testing.T) {
	e := newTestEngine(t, 0, 1)
	state := e.InitializeCognitiveState("p1")

	// Four growing modules, empathy near trust's unlock threshold.
	for _, name := range []string{"logic", "empathy", "curiosity", "fear"} {
		state.Modules[name].Level = 45
		state.Modules[name].Status = cognition.StatusDeveloping
	}
	state.CalculateEvolutionScore()
	state.UpdateDominantTraits()

	memories := []memory.Memory{
		{Type: memory.TypeEmotionalMoment},
		{Type: memory.TypeEmotionalMoment},
		{Type: memory.TypeDecision},
	}

	insights := e.GenerateEvolutionInsights(state, memories)

	if len(insights) != 4 {
		t.Fatalf("insights = %d, want 4:\n%s", len(insights), strings.Join(insights, "\n"))
	}

	if !strings.Contains(insights[0], "LOGIC") {
		t.Errorf("first insight should name the dominant trait: %q", insights[0])
	}
	if !strings.Contains(insights[1], "4 cognitive modules") {
		t.Errorf("second insight should report broad development: %q", insights[1])
	}
	if !strings.Contains(insights[2], "emotional experiences") {
		t.Errorf("third insight should report memory pattern: %q", insights[2])
	}
	if !strings.Contains(insights[3], "trust") {
		t.Errorf("fourth insight should hint at the trust unlock: %q", insights[3])
	}
}

func TestEngine_GenerateEvolutionInsights_OmitsAbsentConditions(t *testing.T) {
	e := newTestEngine(t, 0, 1)
	state := e.InitializeCognitiveState("p1")

	insights := e.GenerateEvolutionInsights(state, nil)

	// A fresh agent triggers the dominant-trait line and the near-unlock
	// hint (creativity has no prerequisites); nothing is developing and
	// no memories exist.
	if len(insights) != 2 {
		t.Fatalf("insights = %d, want 2:\n%s", len(insights), strings.Join(insights, "\n"))
	}
	if !strings.Contains(insights[0], "LOGIC") {
		t.Errorf("insight = %q, want dominant trait callout", insights[0])
	}
	if !strings.Contains(insights[1], "creativity") {
		t.Errorf("insight = %q, want creativity unlock hint", insights[1])
	}
}

func TestEngine_GenerateEvolutionInsights_NearUnlockListsAtMostTwo(t *testing.T) {
	e := newTestEngine(t, 0, 1)
	state := e.InitializeCognitiveState("p1")

	// Satisfy prerequisites for trust, ethics, and humor at once
	// without running the unlock sweep.
	state.Modules["empathy"].Level = 40
	state.Modules["logic"].Level = 40
	state.Modules["creativity"].Level = 40

	insights := e.GenerateEvolutionInsights(state, nil)

	var unlockLine string
	for _, line := range insights {
		if strings.Contains(line, "close to unlocking") {
			unlockLine = line
		}
	}
	if unlockLine == "" {
		t.Fatal("expected a near-unlock insight")
	}

	// The first two satisfiable locked modules in catalog order are
	// creativity (no prerequisites) and trust; the hint caps there.
	if !strings.Contains(unlockLine, "creativity") || !strings.Contains(unlockLine, "trust") {
		t.Errorf("unlock hint = %q, want creativity and trust", unlockLine)
	}
	if strings.Contains(unlockLine, "humor") || strings.Contains(unlockLine, "ethics") {
		t.Errorf("unlock hint should cap at two modules: %q", unlockLine)
	}
}
