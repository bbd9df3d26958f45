// Package loop manages the lifecycle of loop iterations: starting,
// timing, recording what happened inside, completing, and the analytics
// derived from archived history.
package loop

import (
	"context"
	"errors"
	"time"

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/memory"
	"github.com/protoloop/loopcore/internal/protocol"
)

// ErrNotFound is returned for operations addressing a loop id that is
// not in the active table.
var ErrNotFound = errors.New("loop not found")

// Status of a loop iteration.
type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// ProtocolEntry tracks one protocol run inside a loop.
type ProtocolEntry struct {
	ProtocolID string        `json:"protocol_id"`
	Type       protocol.Type `json:"type"`
	StartedAt  time.Time     `json:"started_at"`
	Completed  bool          `json:"completed"`
}

// DecisionRecord is the normalized form of a decision kept on the loop.
type DecisionRecord struct {
	Timestamp       time.Time          `json:"timestamp"`
	ProtocolID      string             `json:"protocol_id"`
	ChoiceID        string             `json:"choice_id"`
	MentorInfluence string             `json:"mentor_influence,omitempty"`
	CognitiveImpact map[string]float64 `json:"cognitive_impact,omitempty"`
	Confidence      float64            `json:"confidence"`
}

// Item is something picked up during a loop. Non-persistent items are
// lost when the loop resets.
type Item struct {
	ID          string         `json:"id"`
	CollectedAt time.Time      `json:"collected_at"`
	Data        map[string]any `json:"data,omitempty"`
	Persists    bool           `json:"persists"`
}

// MemoryStub is the lightweight reference a loop keeps to a formed
// memory; the full memory lives in the agent's bank.
type MemoryStub struct {
	MemoryID   string            `json:"memory_id"`
	Type       memory.Type       `json:"type"`
	Importance memory.Importance `json:"importance"`
	Title      string            `json:"title"`
	FormedAt   time.Time         `json:"formed_at"`
}

// Environment is the facility snapshot generated when a loop starts.
type Environment struct {
	FacilityState   string            `json:"facility_state"`
	Lighting        string            `json:"lighting"`
	AmbientSound    string            `json:"ambient_sound"`
	VisibleChambers int               `json:"visible_chambers"`
	MentorLocations map[string]string `json:"mentor_locations"`
	Anomalies       []string          `json:"anomalies"`
	Accessibility   map[string]bool   `json:"accessibility"`
}

// Stats summarizes a completed loop.
type Stats struct {
	ProtocolsCompleted int     `json:"protocols_completed"`
	DecisionsMade      int     `json:"decisions_made"`
	ItemsCollected     int     `json:"items_collected"`
	MemoriesFormed     int     `json:"memories_formed"`
	CompletionSeconds  float64 `json:"completion_seconds"`
}

// Loop is one iteration: active while running, archived once completed.
type Loop struct {
	ID              string     `json:"loop_id"`
	AgentID         string     `json:"agent_id"`
	LoopNumber      int        `json:"loop_number"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	DurationSeconds int        `json:"duration_seconds"`
	TimeRemaining   int        `json:"time_remaining"`
	Status          Status     `json:"status"`

	// StateStart is a deep copy of the cognitive state at loop start.
	StateStart *cognition.State `json:"cognitive_state_start"`

	ActiveProtocols []ProtocolEntry  `json:"active_protocols"`
	Decisions       []DecisionRecord `json:"decisions_made"`
	Items           []Item           `json:"items_collected"`
	MemoriesFormed  []MemoryStub     `json:"memories_formed"`
	AreasUnlocked   []string         `json:"areas_unlocked,omitempty"`

	Environment Environment `json:"environment_state"`
	Stats       *Stats      `json:"stats,omitempty"`
}

// snapshot returns a copy safe to hand outside the manager's lock.
func (l *Loop) snapshot() Loop {
	cp := *l

	if l.StateStart != nil {
		cp.StateStart = l.StateStart.Clone()
	}
	cp.ActiveProtocols = append([]ProtocolEntry(nil), l.ActiveProtocols...)
	cp.Decisions = append([]DecisionRecord(nil), l.Decisions...)
	cp.Items = append([]Item(nil), l.Items...)
	cp.MemoriesFormed = append([]MemoryStub(nil), l.MemoriesFormed...)
	cp.AreasUnlocked = append([]string(nil), l.AreasUnlocked...)

	cp.Environment.MentorLocations = make(map[string]string, len(l.Environment.MentorLocations))
	for k, v := range l.Environment.MentorLocations {
		cp.Environment.MentorLocations[k] = v
	}
	cp.Environment.Accessibility = make(map[string]bool, len(l.Environment.Accessibility))
	for k, v := range l.Environment.Accessibility {
		cp.Environment.Accessibility[k] = v
	}
	cp.Environment.Anomalies = append([]string(nil), l.Environment.Anomalies...)

	if l.Stats != nil {
		st := *l.Stats
		cp.Stats = &st
	}
	return cp
}

// Repository is the persistence surface the manager needs. The storage
// package provides implementations with a wider interface.
type Repository interface {
	SaveState(ctx context.Context, state *cognition.State) error
	ArchiveLoop(ctx context.Context, rec Loop) error
	LoadHistory(ctx context.Context, agentID string, limit int) ([]Loop, error)
}
