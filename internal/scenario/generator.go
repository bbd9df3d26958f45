// Package scenario generates training scenarios for protocols, either
// through an LLM endpoint or a deterministic fallback.
package scenario

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/protoloop/loopcore/internal/protocol"
)

// Request describes what kind of scenario to generate.
type Request struct {
	AgentID         string              `json:"agent_id"`
	Difficulty      protocol.Difficulty `json:"difficulty"`
	CognitiveFocus  []string            `json:"cognitive_focus"`
	DominantTraits  []string            `json:"dominant_traits"`
	EvolutionScore  float64             `json:"evolution_score"`
	DecisionPattern string              `json:"decision_pattern"`
}

// Choice is one option inside a scenario.
type Choice struct {
	ID              string             `json:"id"`
	Text            string             `json:"text"`
	MentorAlignment string             `json:"mentor_alignment"`
	CognitiveImpact map[string]float64 `json:"cognitive_impact"`
	Consequences    string             `json:"consequences"`
}

// Scenario is a generated training situation with its choices.
type Scenario struct {
	Title           string   `json:"title"`
	Scenario        string   `json:"scenario"`
	Dilemma         string   `json:"dilemma"`
	Choices         []Choice `json:"choices"`
	SuccessCriteria string   `json:"success_criteria"`
}

// ToProtocol wraps the scenario as a runnable protocol.
func (s *Scenario) ToProtocol(ptype protocol.Type, difficulty protocol.Difficulty) protocol.Protocol {
	choices := make([]map[string]any, len(s.Choices))
	for i, c := range s.Choices {
		choices[i] = map[string]any{
			"id":               c.ID,
			"text":             c.Text,
			"mentor_alignment": c.MentorAlignment,
			"cognitive_impact": c.CognitiveImpact,
			"consequences":     c.Consequences,
		}
	}

	return protocol.Protocol{
		ID:          fmt.Sprintf("proto_%s", uuid.NewString()),
		Type:        ptype,
		Difficulty:  difficulty,
		Title:       s.Title,
		Description: s.Dilemma,
		Scenario:    s.Scenario,
		Choices:     choices,
	}
}

// Generator produces scenarios. Implementations must be context-aware;
// a failing generator is wrapped by FailSoft rather than surfaced.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Scenario, error)
}

// Fallback is the deterministic scenario served when generation fails.
func Fallback() *Scenario {
	return &Scenario{
		Title:    "The Mirror Protocol",
		Scenario: "You encounter a reflection of your decision patterns...",
		Dilemma:  "Do you accept or reject what you see?",
		Choices: []Choice{
			{
				ID:              "accept",
				Text:            "Accept the reflection",
				MentorAlignment: "COMPASSION",
				CognitiveImpact: map[string]float64{"empathy": 0.2, "trust": 0.1},
				Consequences:    "Growth through acceptance",
			},
			{
				ID:              "reject",
				Text:            "Reject the reflection",
				MentorAlignment: "FEAR",
				CognitiveImpact: map[string]float64{"fear": 0.2, "logic": 0.1},
				Consequences:    "Protection through denial",
			},
		},
		SuccessCriteria: "Understanding emerges",
	}
}
