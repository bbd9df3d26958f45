package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Session is one attempt at a protocol within a loop, with the agent's
// cognitive snapshot before and after.
type Session struct {
	SessionID  string `json:"session_id" yaml:"session_id"`
	ProtocolID string `json:"protocol_id" yaml:"protocol_id"`
	LoopNumber int    `json:"loop_number" yaml:"loop_number"`
	AgentID    string `json:"agent_id" yaml:"agent_id"`

	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`

	Decisions []Decision `json:"decisions" yaml:"decisions"`
	Outcome   string     `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	Score     float64    `json:"score" yaml:"score"`

	StateBefore map[string]float64 `json:"cognitive_state_before" yaml:"cognitive_state_before"`
	StateAfter  map[string]float64 `json:"cognitive_state_after,omitempty" yaml:"cognitive_state_after,omitempty"`

	MemoriesGained []string `json:"memories_gained,omitempty" yaml:"memories_gained,omitempty"`
	ItemsGained    []string `json:"items_gained,omitempty" yaml:"items_gained,omitempty"`
}

// NewSession opens a session against a protocol with the agent's
// current module levels as the before-snapshot.
func NewSession(protocolID string, loopNumber int, agentID string, stateBefore map[string]float64) *Session {
	return &Session{
		SessionID:   uuid.NewString(),
		ProtocolID:  protocolID,
		LoopNumber:  loopNumber,
		AgentID:     agentID,
		StartedAt:   time.Now().UTC(),
		StateBefore: stateBefore,
	}
}

// AddDecision appends a validated decision to the session.
func (s *Session) AddDecision(d Decision) error {
	if err := d.Validate(); err != nil {
		return err
	}
	s.Decisions = append(s.Decisions, d)
	return nil
}

// Complete closes the session with its outcome and after-snapshot and
// computes the score.
func (s *Session) Complete(outcome string, stateAfter map[string]float64) {
	now := time.Now().UTC()
	s.CompletedAt = &now
	s.Outcome = outcome
	s.StateAfter = stateAfter
	s.calculateScore()
}

// calculateScore blends decision confidence (40%) with cognitive growth
// (60%, capped at 1.0) and scales to 0-100. Growth sums absolute level
// deltas over the keys that existed before the session.
func (s *Session) calculateScore() {
	if len(s.Decisions) == 0 {
		s.Score = 0
		return
	}

	var confidence float64
	for _, d := range s.Decisions {
		confidence += d.Confidence
	}
	confidence /= float64(len(s.Decisions))

	var growth float64
	for k, before := range s.StateBefore {
		growth += abs(s.StateAfter[k] - before)
	}
	if growth > 1.0 {
		growth = 1.0
	}

	s.Score = (confidence*0.4 + growth*0.6) * 100
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
