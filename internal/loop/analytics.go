package loop

import (
	"context"
	"fmt"
)

// Trend describes whether an agent's protocol completion is moving.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// Analytics aggregates an agent's archived loop history.
type Analytics struct {
	TotalLoops      int            `json:"total_loops"`
	TotalDecisions  int            `json:"total_decisions"`
	TotalProtocols  int            `json:"total_protocols"`
	MentorAffinity  map[string]int `json:"mentor_affinities"`
	AverageLoopTime float64        `json:"average_loop_time"`
	ItemsCollected  int            `json:"items_collected"`
	MemoriesFormed  int            `json:"memories_formed"`
	Trend           Trend          `json:"progression_trend"`
}

// Analytics computes totals, mentor influence tallies, average wall
// time, and the progression trend over the archived history.
func (m *Manager) Analytics(ctx context.Context, agentID string) (Analytics, error) {
	history, err := m.repo.LoadHistory(ctx, agentID, 0)
	if err != nil {
		return Analytics{}, fmt.Errorf("load history for %q: %w", agentID, err)
	}

	a := Analytics{
		TotalLoops:     len(history),
		MentorAffinity: map[string]int{},
		Trend:          progressionTrend(history),
	}

	var totalSeconds float64
	var timed int
	for _, rec := range history {
		a.TotalDecisions += len(rec.Decisions)
		a.TotalProtocols += len(rec.ActiveProtocols)
		a.ItemsCollected += len(rec.Items)
		a.MemoriesFormed += len(rec.MemoriesFormed)

		for _, d := range rec.Decisions {
			if d.MentorInfluence != "" {
				a.MentorAffinity[d.MentorInfluence]++
			}
		}
		if rec.Stats != nil {
			totalSeconds += rec.Stats.CompletionSeconds
			timed++
		}
	}
	if timed > 0 {
		a.AverageLoopTime = totalSeconds / float64(timed)
	}
	return a, nil
}

// progressionTrend compares early and late protocol completion over the
// last five archived loops. Within a +-20% band the trend is stable.
func progressionTrend(history []Loop) Trend {
	if len(history) < 3 {
		return TrendInsufficientData
	}

	window := history
	if len(window) > 5 {
		window = window[len(window)-5:]
	}

	var scores []float64
	for _, rec := range window {
		if rec.Stats != nil {
			scores = append(scores, float64(rec.Stats.ProtocolsCompleted))
		}
	}
	if len(scores) < 2 {
		return TrendInsufficientData
	}

	half := len(scores) / 2
	var early, late float64
	for _, s := range scores[:half] {
		early += s
	}
	for _, s := range scores[half:] {
		late += s
	}
	early /= float64(half)
	late /= float64(len(scores) - half)

	switch {
	case late > early*1.2:
		return TrendImproving
	case late < early*0.8:
		return TrendDeclining
	default:
		return TrendStable
	}
}
