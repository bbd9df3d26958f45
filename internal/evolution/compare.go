package evolution

import (
	"github.com/protoloop/loopcore/internal/cognition"
)

// DivergentTrait reports a module where two agents differ strongly.
type DivergentTrait struct {
	Module string  `json:"module"`
	Level1 float64 `json:"agent1_level"`
	Level2 float64 `json:"agent2_level"`
}

// TreeComparison is the result of comparing two consciousness trees.
type TreeComparison struct {
	SimilarityScore      float64          `json:"similarity_score"`
	SharedStrengths      []string         `json:"shared_strengths"`
	DivergentTraits      []DivergentTrait `json:"divergent_traits"`
	ComplementaryModules []string         `json:"complementary_modules"`
	EvolutionDistance    float64          `json:"evolution_distance"`
}

// CompareConsciousnessTrees compares two agents module by module.
// Modules where both agents are past level 20 contribute a similarity
// of 1-|Δ|/100; pairs above 0.8 are shared strengths, gaps over 40 are
// divergent. Complementary modules (one <30, other >60) are collected
// independently of the level-20 filter.
func (e *Engine) CompareConsciousnessTrees(s1, s2 *cognition.State) TreeComparison {
	cmp := TreeComparison{
		SharedStrengths:      make([]string, 0),
		DivergentTraits:      make([]DivergentTrait, 0),
		ComplementaryModules: make([]string, 0),
	}

	var similarities []float64
	for _, name := range cognition.ModuleNames {
		l1 := s1.ModuleLevel(name)
		l2 := s2.ModuleLevel(name)

		if l1 > 20 && l2 > 20 {
			diff := l1 - l2
			if diff < 0 {
				diff = -diff
			}
			similarity := 1 - diff/100
			similarities = append(similarities, similarity)

			if similarity > 0.8 {
				cmp.SharedStrengths = append(cmp.SharedStrengths, name)
			} else if diff > 40 {
				cmp.DivergentTraits = append(cmp.DivergentTraits, DivergentTrait{
					Module: name,
					Level1: l1,
					Level2: l2,
				})
			}
		}

		if (l1 < 30 && l2 > 60) || (l2 < 30 && l1 > 60) {
			cmp.ComplementaryModules = append(cmp.ComplementaryModules, name)
		}
	}

	if len(similarities) > 0 {
		var total float64
		for _, s := range similarities {
			total += s
		}
		cmp.SimilarityScore = total / float64(len(similarities))
	}

	cmp.EvolutionDistance = s1.EvolutionScore - s2.EvolutionScore
	if cmp.EvolutionDistance < 0 {
		cmp.EvolutionDistance = -cmp.EvolutionDistance
	}

	return cmp
}
