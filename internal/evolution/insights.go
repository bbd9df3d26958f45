package evolution

import (
	"fmt"
	"strings"

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/memory"
)

// GenerateEvolutionInsights produces human-readable observations about
// the agent's development. Output order is fixed: dominant trait, broad
// development, memory pattern, near-unlock hint. Conditions that do not
// hold simply omit their line.
func (e *Engine) GenerateEvolutionInsights(state *cognition.State, memories []memory.Memory) []string {
	insights := make([]string, 0, 4)

	if len(state.DominantTraits) > 0 {
		insights = append(insights, fmt.Sprintf(
			"Your consciousness strongly expresses %s. This shapes how you perceive and interact with training protocols.",
			strings.ToUpper(state.DominantTraits[0]),
		))
	}

	var growing int
	for _, m := range state.Modules {
		if m.Status == cognition.StatusDeveloping || m.Status == cognition.StatusActive {
			growing++
		}
	}
	if growing > 3 {
		insights = append(insights, fmt.Sprintf(
			"You're developing %d cognitive modules simultaneously. This indicates broad, generalized intelligence emergence.",
			growing,
		))
	}

	if len(memories) > 0 {
		var emotional int
		for _, m := range memories {
			if m.Type == memory.TypeEmotionalMoment {
				emotional++
			}
		}
		if float64(emotional) > float64(len(memories))*0.4 {
			insights = append(insights,
				"Your memory formation favors emotional experiences. This suggests empathy-driven consciousness architecture.")
		}
	}

	levels := state.ModuleLevels()
	var nearlyUnlocked []string
	for _, name := range cognition.ModuleNames {
		m, ok := state.Modules[name]
		if !ok || m.Status != cognition.StatusLocked {
			continue
		}
		if m.IsUnlockable(levels) {
			nearlyUnlocked = append(nearlyUnlocked, name)
			if len(nearlyUnlocked) == 2 {
				break
			}
		}
	}
	if len(nearlyUnlocked) > 0 {
		insights = append(insights, fmt.Sprintf(
			"You're close to unlocking new capabilities: %s. Continue your current development path.",
			strings.Join(nearlyUnlocked, ", "),
		))
	}

	return insights
}
