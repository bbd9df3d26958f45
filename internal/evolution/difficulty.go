package evolution

import (
	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/protocol"
)

// relevanceTable maps each protocol type to the modules whose levels
// determine its difficulty.
var relevanceTable = map[protocol.Type][]string{
	protocol.TypeEthicalDilemma:     {"empathy", "logic", "ethics"},
	protocol.TypeLogicPuzzle:        {"logic", "creativity", "curiosity"},
	protocol.TypeEmotionCalibration: {"empathy", "fear", "trust"},
	protocol.TypeMemoryCompression:  {"logic", "curiosity"},
	protocol.TypeBiasIdentification: {"logic", "ethics", "empathy"},
	protocol.TypeEmpathySimulation:  {"empathy", "trust", "ethics"},
	protocol.TypeCreativeSynthesis:  {"creativity", "curiosity", "logic"},
	protocol.TypeTrustEvaluation:    {"trust", "empathy", "fear"},
}

// defaultRelevance applies to unknown protocol types.
var defaultRelevance = []string{"logic", "empathy"}

// RelevantModules returns the modules that size a protocol type.
func RelevantModules(t protocol.Type) []string {
	if mods, ok := relevanceTable[t]; ok {
		return mods
	}
	return defaultRelevance
}

// CalculateProtocolDifficulty maps the agent's average level across the
// modules relevant to the protocol type onto a difficulty tier.
func (e *Engine) CalculateProtocolDifficulty(state *cognition.State, t protocol.Type) protocol.Difficulty {
	relevant := RelevantModules(t)

	var avg float64
	if len(relevant) > 0 {
		var total float64
		for _, name := range relevant {
			total += state.ModuleLevel(name)
		}
		avg = total / float64(len(relevant))
	}

	switch {
	case avg < 20:
		return protocol.DifficultyNascent
	case avg < 40:
		return protocol.DifficultyDeveloping
	case avg < 60:
		return protocol.DifficultyProficient
	case avg < 80:
		return protocol.DifficultyAdvanced
	default:
		return protocol.DifficultyTranscendent
	}
}
