package memory

import (
	"testing"
	"time"

	"github.com/protoloop/loopcore/internal/protocol"
)

func TestFromDecision(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name           string
		impact         map[string]float64
		mentor         string
		wantType       Type
		wantImportance Importance
		wantValence    float64
	}{
		{
			name:           "emotional impact dominates",
			impact:         map[string]float64{"empathy": 0.5},
			mentor:         "COMPASSION",
			wantType:       TypeEmotionalMoment,
			wantImportance: ImportanceMinor,
			wantValence:    0.5,
		},
		{
			name:           "analytic impact",
			impact:         map[string]float64{"logic": 1.2, "empathy": 0.3},
			wantType:       TypeDecision,
			wantImportance: ImportanceSignificant,
			wantValence:    0.3,
		},
		{
			name:           "large impact is critical",
			impact:         map[string]float64{"logic": 3.5},
			wantType:       TypeDecision,
			wantImportance: ImportanceCritical,
			wantValence:    0,
		},
		{
			name:           "tiny impact is trivial",
			impact:         map[string]float64{"logic": 0.1},
			wantType:       TypeDecision,
			wantImportance: ImportanceTrivial,
			wantValence:    0,
		},
		{
			name:           "valence clamps to -1",
			impact:         map[string]float64{"fear": 2.5},
			wantType:       TypeEmotionalMoment,
			wantImportance: ImportanceSignificant,
			wantValence:    -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := protocol.Decision{
				Timestamp:       now,
				ChoiceID:        "c1",
				ChoiceText:      "accept the offer",
				MentorInfluence: tt.mentor,
				CognitiveImpact: tt.impact,
				Confidence:      0.8,
			}

			mem, ok := FromDecision("p1", 3, d, "proto_1", now)
			if !ok {
				t.Fatal("FromDecision() returned no memory")
			}
			if mem.ID == "" {
				t.Error("memory id not assigned")
			}
			if mem.AgentID != "p1" || mem.LoopNumber != 3 {
				t.Errorf("agent/loop = %q/%d", mem.AgentID, mem.LoopNumber)
			}
			if mem.Type != tt.wantType {
				t.Errorf("type = %q, want %q", mem.Type, tt.wantType)
			}
			if mem.Importance != tt.wantImportance {
				t.Errorf("importance = %q, want %q", mem.Importance, tt.wantImportance)
			}
			if mem.EmotionalValence != tt.wantValence {
				t.Errorf("valence = %v, want %v", mem.EmotionalValence, tt.wantValence)
			}
			if mem.RelatedProtocol != "proto_1" {
				t.Errorf("related protocol = %q", mem.RelatedProtocol)
			}
			if mem.Content != "accept the offer" {
				t.Errorf("content = %q", mem.Content)
			}
		})
	}
}

func TestFromDecision_NoImpactNoMemory(t *testing.T) {
	d := protocol.Decision{ChoiceID: "c1", Confidence: 0.5}
	if _, ok := FromDecision("p1", 1, d, "", time.Now().UTC()); ok {
		t.Error("a decision without cognitive impact must not form a memory")
	}
}
