// Package behavior scores decision-making patterns across agents:
// classification, pairwise similarity, and the adaptive difficulty
// derived from them.
package behavior

import (
	"math"
	"sort"

	"github.com/protoloop/loopcore/internal/loop"
)

// PatternType classifies how an agent makes decisions.
type PatternType string

const (
	PatternDecisive         PatternType = "decisive"
	PatternContemplative    PatternType = "contemplative"
	PatternAdaptive         PatternType = "adaptive"
	PatternSpecialized      PatternType = "specialized"
	PatternBalanced         PatternType = "balanced"
	PatternInsufficientData PatternType = "insufficient_data"
)

// minHistoryForPattern decisions are needed before a pattern is called.
const minHistoryForPattern = 5

// Pattern is the behavioral profile extracted from an agent's decision
// history.
type Pattern struct {
	AgentID string      `json:"agent_id"`
	Type    PatternType `json:"pattern_type"`

	// MentorAffinity and CognitiveFocus are "balanced" when nothing
	// stands out.
	MentorAffinity string `json:"mentor_affinity"`
	CognitiveFocus string `json:"cognitive_focus"`

	AvgDecisionTime  float64 `json:"average_decision_time"`
	AvgConfidence    float64 `json:"average_confidence"`
	ConsistencyScore float64 `json:"consistency_score"`
}

// AnalyzePattern extracts a behavioral profile from a decision history.
// Fewer than five decisions yields PatternInsufficientData.
func AnalyzePattern(agentID string, history []loop.DecisionRecord) Pattern {
	if len(history) < minHistoryForPattern {
		return Pattern{AgentID: agentID, Type: PatternInsufficientData}
	}

	mentorCounts := map[string]int{}
	focusWeights := map[string]float64{}
	var speeds []float64
	var confidences []float64

	for i, d := range history {
		if d.MentorInfluence != "" {
			mentorCounts[d.MentorInfluence]++
		}
		for module, impact := range d.CognitiveImpact {
			if math.Abs(impact) > 0.1 {
				focusWeights[module] += math.Abs(impact)
			}
		}
		// Decision speed is the gap to the previous decision.
		if i > 0 {
			gap := d.Timestamp.Sub(history[i-1].Timestamp).Seconds()
			if gap > 0 {
				speeds = append(speeds, gap)
			}
		}
		confidences = append(confidences, d.Confidence)
	}

	return Pattern{
		AgentID:          agentID,
		Type:             classifyPattern(mentorCounts, speeds, confidences, len(history)),
		MentorAffinity:   dominantIntKey(mentorCounts),
		CognitiveFocus:   dominantFloatKey(focusWeights),
		AvgDecisionTime:  mean(speeds, 0),
		AvgConfidence:    mean(confidences, 0.5),
		ConsistencyScore: consistency(history),
	}
}

// classifyPattern buckets the profile. The checks are ordered: speed
// dominates, then confidence spread, then mentor loyalty.
func classifyPattern(mentorCounts map[string]int, speeds, confidences []float64, total int) PatternType {
	avgSpeed := mean(speeds, 5.0)
	avgConfidence := mean(confidences, 0.5)

	switch {
	case avgSpeed < 3 && avgConfidence > 0.7:
		return PatternDecisive
	case avgSpeed > 7 && avgConfidence > 0.6:
		return PatternContemplative
	case stddev(confidences) > 0.3:
		return PatternAdaptive
	case maxCount(mentorCounts) > float64(total)*0.6:
		return PatternSpecialized
	default:
		return PatternBalanced
	}
}

// consistency measures mentor-choice regularity as inverted normalized
// entropy: a single mentor scores 1, an even spread scores 0.
func consistency(history []loop.DecisionRecord) float64 {
	if len(history) < 3 {
		return 0.5
	}

	counts := map[string]int{}
	total := 0
	for _, d := range history {
		if d.MentorInfluence != "" {
			counts[d.MentorInfluence]++
			total++
		}
	}
	if total == 0 {
		return 0.5
	}
	if len(counts) == 1 {
		return 1
	}

	var entropy float64
	for _, c := range counts {
		p := float64(c) / float64(total)
		entropy -= p * math.Log2(p)
	}
	maxEntropy := math.Log2(float64(len(counts)))
	return 1 - entropy/maxEntropy
}

// Similarity scores two patterns in [0, 1]: 0.3 for a matching pattern
// type, 0.3 for a matching cognitive focus, 0.2 each for close
// confidence and consistency.
func Similarity(a, b Pattern) float64 {
	if a.Type == PatternInsufficientData || b.Type == PatternInsufficientData {
		return 0
	}

	var score float64
	if a.Type == b.Type {
		score += 0.3
	}
	if a.CognitiveFocus == b.CognitiveFocus {
		score += 0.3
	}
	score += (1 - math.Abs(a.AvgConfidence-b.AvgConfidence)) * 0.2
	score += (1 - math.Abs(a.ConsistencyScore-b.ConsistencyScore)) * 0.2
	return score
}

// dominantIntKey returns the key with the highest count, ties broken
// lexicographically, "balanced" when empty.
func dominantIntKey(counts map[string]int) string {
	if len(counts) == 0 {
		return "balanced"
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys[0]
}

func dominantFloatKey(weights map[string]float64) string {
	if len(weights) == 0 {
		return "balanced"
	}
	keys := make([]string, 0, len(weights))
	for k := range weights {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if weights[keys[i]] != weights[keys[j]] {
			return weights[keys[i]] > weights[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys[0]
}

func maxCount(counts map[string]int) float64 {
	var max int
	for _, c := range counts {
		if c > max {
			max = c
		}
	}
	return float64(max)
}

func mean(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values, 0)
	var sum float64
	for _, v := range values {
		sum += (v - m) * (v - m)
	}
	return math.Sqrt(sum / float64(len(values)))
}
