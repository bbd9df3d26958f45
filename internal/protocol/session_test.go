package protocol

import (
	"errors"
	"math"
	"testing"
	"time"
)

func TestDecision_Validate(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		wantErr    bool
	}{
		{"zero", 0, false},
		{"one", 1, false},
		{"middle", 0.5, false},
		{"negative", -0.1, true},
		{"above one", 1.1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decision{ChoiceID: "c1", Confidence: tt.confidence}
			err := d.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, ErrValidation) {
				t.Errorf("Validate() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestSession_AddDecision_RejectsInvalid(t *testing.T) {
	s := NewSession("proto-1", 1, "p1", map[string]float64{"logic": 5})

	if err := s.AddDecision(Decision{ChoiceID: "c1", Confidence: 2}); err == nil {
		t.Fatal("expected validation error")
	}
	if len(s.Decisions) != 0 {
		t.Error("invalid decision was recorded")
	}

	if err := s.AddDecision(Decision{ChoiceID: "c1", Confidence: 0.8, Timestamp: time.Now()}); err != nil {
		t.Fatalf("valid decision rejected: %v", err)
	}
	if len(s.Decisions) != 1 {
		t.Error("valid decision not recorded")
	}
}

func TestSession_Complete_Score(t *testing.T) {
	before := map[string]float64{"logic": 10, "empathy": 20}
	s := NewSession("proto-1", 1, "p1", before)

	mustAdd := func(c float64) {
		t.Helper()
		if err := s.AddDecision(Decision{ChoiceID: "c", Confidence: c, Timestamp: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	mustAdd(0.6)
	mustAdd(0.8)

	s.Complete("resolved", map[string]float64{"logic": 10.3, "empathy": 20.2})

	// avg confidence 0.7, growth 0.5 -> (0.7*0.4 + 0.5*0.6) * 100 = 58.
	if math.Abs(s.Score-58) > 1e-9 {
		t.Errorf("score = %v, want 58", s.Score)
	}
	if s.CompletedAt == nil {
		t.Error("completion timestamp not set")
	}
	if s.Outcome != "resolved" {
		t.Errorf("outcome = %q", s.Outcome)
	}
}

func TestSession_Complete_GrowthCapped(t *testing.T) {
	before := map[string]float64{"logic": 10}
	s := NewSession("proto-1", 1, "p1", before)
	if err := s.AddDecision(Decision{ChoiceID: "c", Confidence: 1}); err != nil {
		t.Fatal(err)
	}

	// Growth of 40 levels caps at 1.0.
	s.Complete("resolved", map[string]float64{"logic": 50})

	if math.Abs(s.Score-100) > 1e-9 {
		t.Errorf("score = %v, want 100", s.Score)
	}
}

func TestSession_Complete_NoDecisions(t *testing.T) {
	s := NewSession("proto-1", 1, "p1", map[string]float64{"logic": 10})
	s.Complete("abandoned", map[string]float64{"logic": 50})

	if s.Score != 0 {
		t.Errorf("score = %v, want 0 with no decisions", s.Score)
	}
}

func TestNewSession_UniqueIDs(t *testing.T) {
	a := NewSession("p", 1, "p1", nil)
	b := NewSession("p", 1, "p1", nil)
	if a.SessionID == b.SessionID {
		t.Error("session ids collide")
	}
}
