package evolution

import (
	"math"
	"testing"

	"github.com/protoloop/loopcore/internal/cognition"
)

func envState(t *testing.T, levels map[string]float64) *cognition.State {
	t.Helper()
	state := newTestEngine(t, 0, 1).InitializeCognitiveState("p1")
	for name, level := range levels {
		state.Modules[name].Level = level
		if level > 0 {
			state.Modules[name].Status = cognition.StatusActive
		}
	}
	state.CalculateEvolutionScore()
	state.UpdateDominantTraits()
	return state
}

func TestEvolveLoopEnvironment_Anomalies(t *testing.T) {
	e := newTestEngine(t, 0, 1)

	tests := []struct {
		name   string
		levels map[string]float64
		want   []string
	}{
		{
			name:   "fresh agent has none",
			levels: nil,
			want:   []string{},
		},
		{
			name: "high evolution glitches reality",
			levels: map[string]float64{
				"logic": 60, "empathy": 60, "curiosity": 60, "fear": 60,
				"creativity": 60, "ethics": 60, "humor": 60, "trust": 60,
			},
			// Score 60 crosses the glitch bar; no module is above 60, so
			// no conflict.
			want: []string{"reality_glitches"},
		},
		{
			name:   "logic and empathy conflict",
			levels: map[string]float64{"logic": 65, "empathy": 65},
			want:   []string{"mentor_debate_chamber"},
		},
		{
			name:   "fear and trust conflict",
			levels: map[string]float64{"fear": 70, "trust": 70},
			want:   []string{"mentor_debate_chamber"},
		},
		{
			name: "both anomalies",
			levels: map[string]float64{
				"logic": 65, "empathy": 65, "curiosity": 65, "fear": 65,
				"creativity": 65, "ethics": 65, "humor": 65, "trust": 65,
			},
			want: []string{"reality_glitches", "mentor_debate_chamber"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := envState(t, tt.levels)
			mut := e.EvolveLoopEnvironment(state, 3, nil)

			if len(mut.Anomalies) != len(tt.want) {
				t.Fatalf("anomalies = %v, want %v", mut.Anomalies, tt.want)
			}
			for i, a := range tt.want {
				if mut.Anomalies[i] != a {
					t.Errorf("anomalies[%d] = %q, want %q", i, mut.Anomalies[i], a)
				}
			}
		})
	}
}

func TestEvolveLoopEnvironment_VisualStyle(t *testing.T) {
	e := newTestEngine(t, 0, 1)

	tests := []struct {
		name   string
		levels map[string]float64
		want   string
	}{
		{"logic leads", map[string]float64{"logic": 70}, "geometric_precision"},
		{"creativity leads", map[string]float64{"creativity": 70}, "organic_flow"},
		{"fear leads", map[string]float64{"fear": 70}, "dark_fragmented"},
		{"empathy leads", map[string]float64{"empathy": 70}, "warm_connected"},
		{"nothing developed", nil, "neutral_clean"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mut := e.EvolveLoopEnvironment(envState(t, tt.levels), 1, nil)
			if mut.VisualStyle != tt.want {
				t.Errorf("visual style = %q, want %q", mut.VisualStyle, tt.want)
			}
		})
	}
}

func TestEvolveLoopEnvironment_AudioFollowsDominantTrait(t *testing.T) {
	e := newTestEngine(t, 0, 1)

	mut := e.EvolveLoopEnvironment(envState(t, map[string]float64{"empathy": 80}), 1, nil)
	if mut.AudioProfile != "warm_harmonics" {
		t.Errorf("audio = %q, want warm_harmonics for an empathy-led agent", mut.AudioProfile)
	}

	mut = e.EvolveLoopEnvironment(&cognition.State{AgentID: "p1", Modules: map[string]*cognition.Module{}}, 1, nil)
	if mut.AudioProfile != "ambient_neutral" {
		t.Errorf("audio = %q, want ambient_neutral without dominant traits", mut.AudioProfile)
	}
}

func TestEvolveLoopEnvironment_Layout(t *testing.T) {
	e := newTestEngine(t, 0, 1)

	state := envState(t, map[string]float64{"creativity": 55})
	mut := e.EvolveLoopEnvironment(state, 7, nil)

	layout := mut.FacilityLayout
	if layout.Complexity != 1 {
		t.Errorf("complexity = %d, want 1 at loop 7", layout.Complexity)
	}
	// Core four seeded plus the creativity unlock.
	if layout.ChambersUnlocked != 5 {
		t.Errorf("chambers = %d, want 5", layout.ChambersUnlocked)
	}
	if layout.PathwayStyle != "branching" {
		t.Errorf("pathway = %q, want branching above creativity 50", layout.PathwayStyle)
	}
	if layout.Scale != "intimate" {
		t.Errorf("scale = %q, want intimate below score 40", layout.Scale)
	}

	mut = e.EvolveLoopEnvironment(state, 120, nil)
	if mut.FacilityLayout.Complexity != 10 {
		t.Errorf("complexity = %d, want cap of 10", mut.FacilityLayout.Complexity)
	}

	grown := envState(t, map[string]float64{
		"logic": 50, "empathy": 50, "curiosity": 50, "fear": 50,
		"creativity": 50, "ethics": 50, "humor": 50, "trust": 50,
	})
	mut = e.EvolveLoopEnvironment(grown, 7, nil)
	if mut.FacilityLayout.Scale != "expanding" {
		t.Errorf("scale = %q, want expanding above score 40", mut.FacilityLayout.Scale)
	}
}

func TestEvolveLoopEnvironment_MentorStates(t *testing.T) {
	e := newTestEngine(t, 0, 1)
	state := envState(t, nil)

	recent := make([]DecisionSummary, 0, 10)
	for i := 0; i < 8; i++ {
		recent = append(recent, DecisionSummary{MentorInfluence: "LOGIC"})
	}
	recent = append(recent,
		DecisionSummary{MentorInfluence: "COMPASSION"},
		DecisionSummary{MentorInfluence: "COMPASSION"},
	)

	mut := e.EvolveLoopEnvironment(state, 3, recent)
	if len(mut.MentorStates) != len(cognition.MentorNames) {
		t.Fatalf("mentor states = %d, want %d", len(mut.MentorStates), len(cognition.MentorNames))
	}

	logic := mut.MentorStates["LOGIC"]
	if math.Abs(logic.Relationship-0.8) > 1e-9 {
		t.Errorf("LOGIC relationship = %v, want 0.8", logic.Relationship)
	}
	if logic.VisualClarity != 1.0 {
		t.Errorf("LOGIC clarity = %v, want cap of 1.0", logic.VisualClarity)
	}
	if logic.DialogueDepth != "deep" || logic.Attitude != "supportive" {
		t.Errorf("LOGIC state = %+v, want deep/supportive", logic)
	}

	compassion := mut.MentorStates["COMPASSION"]
	if math.Abs(compassion.Relationship-0.2) > 1e-9 {
		t.Errorf("COMPASSION relationship = %v, want 0.2", compassion.Relationship)
	}
	if math.Abs(compassion.VisualClarity-0.5) > 1e-9 {
		t.Errorf("COMPASSION clarity = %v, want 0.5", compassion.VisualClarity)
	}
	if compassion.DialogueDepth != "surface" || compassion.Attitude != "distant" {
		t.Errorf("COMPASSION state = %+v, want surface/distant", compassion)
	}

	curiosity := mut.MentorStates["CURIOSITY"]
	if curiosity.Relationship != 0 || curiosity.Attitude != "distant" {
		t.Errorf("CURIOSITY state = %+v, want untouched mentor to stay distant", curiosity)
	}
	if math.Abs(curiosity.VisualClarity-0.3) > 1e-9 {
		t.Errorf("CURIOSITY clarity = %v, want the 0.3 floor", curiosity.VisualClarity)
	}
}

func TestEvolveLoopEnvironment_NoDecisions(t *testing.T) {
	e := newTestEngine(t, 0, 1)

	mut := e.EvolveLoopEnvironment(envState(t, nil), 1, nil)
	for name, ms := range mut.MentorStates {
		if ms.Relationship != 0 {
			t.Errorf("%s relationship = %v, want 0 with no decisions", name, ms.Relationship)
		}
	}
}
