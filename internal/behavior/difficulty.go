package behavior

// Performance is the recent outcome summary used to adapt difficulty.
type Performance struct {
	SuccessRate float64 `json:"success_rate"`
}

// AdaptiveDifficultyMultiplier scales protocol difficulty for an agent.
// Strong, confident agents get harder protocols; struggling ones get
// easier ones. Consistent agents are nudged slightly upward. The result
// is clamped to [0.5, 2.0]; an unreadable pattern keeps difficulty flat.
func AdaptiveDifficultyMultiplier(p Pattern, perf Performance) float64 {
	if p.Type == PatternInsufficientData {
		return 1.0
	}

	var multiplier float64
	switch {
	case perf.SuccessRate > 0.8 && p.AvgConfidence > 0.7:
		multiplier = 1.3
	case perf.SuccessRate < 0.4 || p.AvgConfidence < 0.3:
		multiplier = 0.7
	default:
		multiplier = 1.0
	}

	multiplier *= 0.9 + p.ConsistencyScore*0.2

	if multiplier < 0.5 {
		return 0.5
	}
	if multiplier > 2.0 {
		return 2.0
	}
	return multiplier
}
