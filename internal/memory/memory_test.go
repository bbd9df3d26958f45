package memory

import (
	"math"
	"testing"
	"time"
)

func TestMemory_DecayFactor_NeverAccessed(t *testing.T) {
	m := Memory{ID: "m1", Importance: ImportanceTrivial}

	if got := m.DecayFactor(time.Now()); got != 1.0 {
		t.Errorf("decay for never-accessed memory = %v, want 1.0", got)
	}
}

func TestMemory_DecayFactor_ImportanceMultiplier(t *testing.T) {
	now := time.Now().UTC()
	accessed := now // zero days elapsed, so raw decay is 1.0

	tests := []struct {
		importance Importance
		want       float64
	}{
		{ImportanceTrivial, 0.5},
		{ImportanceMinor, 0.7},
		{ImportanceSignificant, 0.9},
		{ImportanceCritical, 0.95},
		{ImportanceCore, 1.0},
	}

	for _, tt := range tests {
		t.Run(string(tt.importance), func(t *testing.T) {
			m := Memory{Importance: tt.importance, LastAccessed: &accessed}
			if got := m.DecayFactor(now); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("decay = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMemory_DecayFactor_AgeAndFrequency(t *testing.T) {
	now := time.Now().UTC()
	tenDaysAgo := now.Add(-10 * 24 * time.Hour)

	stale := Memory{Importance: ImportanceCore, LastAccessed: &tenDaysAgo}
	want := 1.0 - 10*0.05 // 0.5
	if got := stale.DecayFactor(now); math.Abs(got-want) > 1e-9 {
		t.Errorf("stale decay = %v, want %v", got, want)
	}

	// Frequent access slows decay.
	frequent := Memory{Importance: ImportanceCore, AccessCount: 10, LastAccessed: &tenDaysAgo}
	if frequent.DecayFactor(now) <= stale.DecayFactor(now) {
		t.Error("frequently accessed memory should decay slower")
	}
}

func TestMemory_DecayFactor_Floor(t *testing.T) {
	now := time.Now().UTC()
	ancient := now.Add(-1000 * 24 * time.Hour)

	m := Memory{Importance: ImportanceCore, LastAccessed: &ancient}
	if got := m.DecayFactor(now); got != 0.1 {
		t.Errorf("decay = %v, want floor 0.1", got)
	}
}

func TestMemory_Access(t *testing.T) {
	m := Memory{ID: "m1"}

	m.Access()
	m.Access()

	if m.AccessCount != 2 {
		t.Errorf("access count = %d, want 2", m.AccessCount)
	}
	if m.LastAccessed == nil {
		t.Fatal("last accessed not set")
	}
	if time.Since(*m.LastAccessed) > time.Minute {
		t.Error("last accessed not recent")
	}
}
