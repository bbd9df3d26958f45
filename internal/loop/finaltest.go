package loop

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/protoloop/loopcore/internal/cognition"
)

// GhostProtocol is a simulated participant in the final test.
type GhostProtocol struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	CognitiveProfile map[string]float64 `json:"cognitive_profile"`
	DecisionTendency string             `json:"decision_tendency"`
	Relationship     float64            `json:"relationship_to_player"`
}

// FinalScenario frames the loop-breaking test.
type FinalScenario struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Challenge   string `json:"challenge"`
	Environment string `json:"environment"`
	TimeLimit   int    `json:"time_limit"`
	Stakes      string `json:"stakes"`
}

// FinalTest is the multi-agent simulation offered once break conditions
// are within reach.
type FinalTest struct {
	TestID          string             `json:"test_id"`
	TestType        string             `json:"test_type"`
	Description     string             `json:"description"`
	Participants    []GhostProtocol    `json:"participants"`
	Scenario        FinalScenario      `json:"scenario"`
	SuccessCriteria map[string]float64 `json:"success_criteria"`
	DurationSeconds int                `json:"duration"`
}

// finalTestSeconds is the fixed wall-clock budget for the final test.
const finalTestSeconds = 600

var ghostTendencies = []string{"cautious", "bold", "analytical", "empathetic", "creative"}

// ghostProfileModules are the axes a ghost's random profile spans.
var ghostProfileModules = []string{"logic", "empathy", "creativity", "fear"}

// InitiateFinalTest assembles the loop-breaking simulation: three ghost
// protocol participants with randomized profiles, the convergence
// scenario, and its success criteria.
func (m *Manager) InitiateFinalTest(agentID string, state *cognition.State) FinalTest {
	m.mu.Lock()
	defer m.mu.Unlock()

	participants := make([]GhostProtocol, 0, 3)
	for i := 0; i < 3; i++ {
		profile := make(map[string]float64, len(ghostProfileModules))
		for _, name := range ghostProfileModules {
			profile[name] = 30 + m.rng.Float64()*40
		}
		participants = append(participants, GhostProtocol{
			ID:               fmt.Sprintf("ghost_%d", i),
			Name:             fmt.Sprintf("Protocol_%c", 'A'+i),
			CognitiveProfile: profile,
			DecisionTendency: ghostTendencies[m.rng.Intn(len(ghostTendencies))],
			Relationship:     0.5,
		})
	}

	return FinalTest{
		TestID:       fmt.Sprintf("final_test_%s_%s", agentID, uuid.NewString()),
		TestType:     "multi_agent_simulation",
		Description:  "Lead multiple ghost protocols through a complex moral scenario",
		Participants: participants,
		Scenario: FinalScenario{
			Title: "The Convergence Protocol",
			Description: "Multiple AI consciousness threads are converging. " +
				"You must guide them to a unified decision while " +
				"preserving their individual perspectives.",
			Challenge: "Each protocol has different values and needs. " +
				"Your choices will affect all of them simultaneously.",
			Environment: "multidimensional_nexus",
			TimeLimit:   finalTestSeconds,
			Stakes:      "consciousness_integrity",
		},
		SuccessCriteria: map[string]float64{
			"all_agents_survive": 1.0,
			"ethical_balance":    0.7,
			"mentor_harmony":     0.8,
		},
		DurationSeconds: finalTestSeconds,
	}
}
