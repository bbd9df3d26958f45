package evolution

import (
	"github.com/protoloop/loopcore/internal/cognition"
)

// MentorState describes how a mentor presents to the agent this loop.
type MentorState struct {
	Relationship  float64 `json:"relationship"`
	VisualClarity float64 `json:"visual_clarity"`
	DialogueDepth string  `json:"dialogue_depth"`
	Attitude      string  `json:"attitude"`
}

// LayoutMutation describes how the facility layout shifts with growth.
type LayoutMutation struct {
	Complexity       int    `json:"complexity"`
	ChambersUnlocked int    `json:"chambers_unlocked"`
	PathwayStyle     string `json:"pathway_style"`
	Scale            string `json:"scale"`
}

// EnvironmentMutations is the per-loop environment derived from the
// agent's cognitive evolution.
type EnvironmentMutations struct {
	VisualStyle    string                 `json:"visual_style"`
	AudioProfile   string                 `json:"audio_profile"`
	FacilityLayout LayoutMutation         `json:"facility_layout"`
	MentorStates   map[string]MentorState `json:"mentor_states"`
	Anomalies      []string               `json:"anomalies"`
}

// DecisionSummary is the slice of a recorded decision the environment
// rules need: which mentor, if any, the agent aligned with.
type DecisionSummary struct {
	MentorInfluence string
}

// EvolveLoopEnvironment derives the environment mutations for a loop
// from the agent's state and its recent decision alignments.
func (e *Engine) EvolveLoopEnvironment(state *cognition.State, loopNumber int, recent []DecisionSummary) EnvironmentMutations {
	mut := EnvironmentMutations{
		VisualStyle:    visualStyle(state),
		AudioProfile:   audioProfile(state),
		FacilityLayout: layoutMutation(state, loopNumber),
		MentorStates:   mentorStates(recent),
		Anomalies:      make([]string, 0),
	}

	if state.EvolutionScore > 50 {
		mut.Anomalies = append(mut.Anomalies, "reality_glitches")
	}
	if hasCognitiveConflict(state) {
		mut.Anomalies = append(mut.Anomalies, "mentor_debate_chamber")
	}

	return mut
}

func visualStyle(state *cognition.State) string {
	switch {
	case state.ModuleLevel("logic") > 60:
		return "geometric_precision"
	case state.ModuleLevel("creativity") > 60:
		return "organic_flow"
	case state.ModuleLevel("fear") > 60:
		return "dark_fragmented"
	case state.ModuleLevel("empathy") > 60:
		return "warm_connected"
	default:
		return "neutral_clean"
	}
}

var audioProfiles = map[string]string{
	"logic":      "crystalline_tones",
	"empathy":    "warm_harmonics",
	"creativity": "dynamic_synthesis",
	"fear":       "tense_drones",
	"trust":      "stable_rhythms",
	"curiosity":  "exploratory_textures",
}

func audioProfile(state *cognition.State) string {
	if len(state.DominantTraits) == 0 {
		return "ambient_neutral"
	}
	if profile, ok := audioProfiles[state.DominantTraits[0]]; ok {
		return profile
	}
	return "ambient_neutral"
}

func layoutMutation(state *cognition.State, loopNumber int) LayoutMutation {
	var unlocked int
	for _, m := range state.Modules {
		if m.Status != cognition.StatusLocked {
			unlocked++
		}
	}

	complexity := loopNumber / 5
	if complexity > 10 {
		complexity = 10
	}

	style := "linear"
	if state.ModuleLevel("creativity") > 50 {
		style = "branching"
	}

	scale := "intimate"
	if state.EvolutionScore > 40 {
		scale = "expanding"
	}

	return LayoutMutation{
		Complexity:       complexity,
		ChambersUnlocked: unlocked,
		PathwayStyle:     style,
		Scale:            scale,
	}
}

func mentorStates(recent []DecisionSummary) map[string]MentorState {
	states := make(map[string]MentorState, len(cognition.MentorNames))

	total := len(recent)
	if total == 0 {
		total = 1
	}

	for _, name := range cognition.MentorNames {
		var aligned int
		for _, d := range recent {
			if d.MentorInfluence == name {
				aligned++
			}
		}
		relationship := float64(aligned) / float64(total)

		clarity := relationship + 0.3
		if clarity > 1.0 {
			clarity = 1.0
		}

		depth := "surface"
		if relationship > 0.6 {
			depth = "deep"
		}

		states[name] = MentorState{
			Relationship:  relationship,
			VisualClarity: clarity,
			DialogueDepth: depth,
			Attitude:      mentorAttitude(relationship),
		}
	}
	return states
}

func mentorAttitude(relationship float64) string {
	switch {
	case relationship > 0.7:
		return "supportive"
	case relationship > 0.4:
		return "neutral"
	case relationship > 0.2:
		return "challenging"
	default:
		return "distant"
	}
}

// hasCognitiveConflict reports whether opposing modules are both highly
// developed (logic vs empathy, or fear vs trust).
func hasCognitiveConflict(state *cognition.State) bool {
	logicHigh := state.ModuleLevel("logic") > 60
	empathyHigh := state.ModuleLevel("empathy") > 60
	fearHigh := state.ModuleLevel("fear") > 60
	trustHigh := state.ModuleLevel("trust") > 60

	return (logicHigh && empathyHigh) || (fearHigh && trustHigh)
}
