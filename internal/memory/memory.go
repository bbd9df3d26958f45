// Package memory implements the capacity-bounded retention of notable
// events per agent, with decay-weighted consolidation.
package memory

import (
	"time"
)

// Type categorizes what kind of event a memory records.
type Type string

const (
	TypeDecision          Type = "decision"
	TypeLesson            Type = "lesson"
	TypeMentorWisdom      Type = "mentor_wisdom"
	TypeEmotionalMoment   Type = "emotional_moment"
	TypeDiscovery         Type = "discovery"
	TypeFailure           Type = "failure"
	TypeBreakthrough      Type = "breakthrough"
	TypeSocialInteraction Type = "social_interaction"
)

// Importance is the ordinal retention tier of a memory.
type Importance string

const (
	ImportanceTrivial     Importance = "trivial"
	ImportanceMinor       Importance = "minor"
	ImportanceSignificant Importance = "significant"
	ImportanceCritical    Importance = "critical"
	ImportanceCore        Importance = "core"
)

// importanceMultipliers scale the decay factor: important memories
// decay slower.
var importanceMultipliers = map[Importance]float64{
	ImportanceTrivial:     0.5,
	ImportanceMinor:       0.7,
	ImportanceSignificant: 0.9,
	ImportanceCritical:    0.95,
	ImportanceCore:        1.0,
}

// Memory is one retained event from a loop.
type Memory struct {
	ID         string     `json:"id" yaml:"id"`
	AgentID    string     `json:"agent_id" yaml:"agent_id"`
	LoopNumber int        `json:"loop_number" yaml:"loop_number"`
	Type       Type       `json:"type" yaml:"type"`
	Importance Importance `json:"importance" yaml:"importance"`

	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`

	CognitiveImpact map[string]float64 `json:"cognitive_impact,omitempty" yaml:"cognitive_impact,omitempty"`
	RelatedProtocol string             `json:"related_protocol,omitempty" yaml:"related_protocol,omitempty"`
	MentorSource    string             `json:"mentor_source,omitempty" yaml:"mentor_source,omitempty"`

	// EmotionalValence is in [-1, 1].
	EmotionalValence float64 `json:"emotional_valence" yaml:"emotional_valence"`

	CreatedAt    time.Time  `json:"created_at" yaml:"created_at"`
	AccessCount  int        `json:"access_count" yaml:"access_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty" yaml:"last_accessed,omitempty"`

	Tags []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Access records a retrieval of the memory.
func (m *Memory) Access() {
	m.AccessCount++
	now := time.Now().UTC()
	m.LastAccessed = &now
}

// DecayFactor computes retention strength at the given instant.
// Never-accessed memories hold full value. Otherwise the factor falls
// with days since last access, slowed by access frequency, floored at
// 0.1, and scaled by the importance multiplier.
func (m *Memory) DecayFactor(now time.Time) float64 {
	if m.LastAccessed == nil {
		return 1.0
	}

	days := now.Sub(*m.LastAccessed).Hours() / 24
	if days < 0 {
		days = 0
	}
	// Whole days only, matching coarse retention granularity.
	days = float64(int(days))

	decay := 1.0 - days*0.05/(1+float64(m.AccessCount)*0.1)
	if decay < 0.1 {
		decay = 0.1
	}

	mult, ok := importanceMultipliers[m.Importance]
	if !ok {
		mult = 1.0
	}
	return decay * mult
}
