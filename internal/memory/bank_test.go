package memory

import (
	"fmt"
	"testing"
	"time"
)

func makeMemory(id string, importance Importance, accesses int, tags ...string) Memory {
	m := Memory{
		ID:         id,
		AgentID:    "p1",
		Type:       TypeDecision,
		Importance: importance,
		Title:      id,
		CreatedAt:  time.Now().UTC(),
		Tags:       tags,
	}
	for i := 0; i < accesses; i++ {
		m.Access()
	}
	return m
}

func TestBank_Add_WithinCapacity(t *testing.T) {
	b := NewBank("p1", 10)

	b.Add(makeMemory("m1", ImportanceMinor, 0))
	b.Add(makeMemory("m2", ImportanceCore, 0))

	if len(b.Memories) != 2 {
		t.Errorf("len = %d, want 2", len(b.Memories))
	}
	if b.TotalMemories != 2 {
		t.Errorf("total = %d, want 2", b.TotalMemories)
	}
}

func TestBank_CapacityInvariant(t *testing.T) {
	b := NewBank("p1", 5)

	for i := 0; i < 50; i++ {
		b.Add(makeMemory(fmt.Sprintf("m%d", i), ImportanceMinor, i%4))
		if len(b.Memories) > b.Capacity {
			t.Fatalf("after %d adds: len %d exceeds capacity %d", i+1, len(b.Memories), b.Capacity)
		}
	}

	if b.TotalMemories != 50 {
		t.Errorf("total = %d, want 50 (evictions must not reduce the count)", b.TotalMemories)
	}
}

func TestBank_Consolidate_KeepsHighestScores(t *testing.T) {
	b := NewBank("p1", 2)
	b.Memories = []Memory{
		makeMemory("weak", ImportanceTrivial, 1),
		makeMemory("strong", ImportanceCore, 9, "pivotal", "loop3"),
		makeMemory("mid", ImportanceSignificant, 3),
	}

	b.Consolidate(time.Now().UTC())

	if len(b.Memories) != 2 {
		t.Fatalf("len = %d, want 2", len(b.Memories))
	}
	if b.Memories[0].ID != "strong" {
		t.Errorf("top memory = %q, want strong", b.Memories[0].ID)
	}
	if b.Memories[1].ID != "mid" {
		t.Errorf("second memory = %q, want mid", b.Memories[1].ID)
	}
}

func TestBank_Consolidate_TiesKeepInsertionOrder(t *testing.T) {
	b := NewBank("p1", 3)
	// Identical scores: same importance, same access counts, no tags.
	b.Memories = []Memory{
		makeMemory("first", ImportanceMinor, 2),
		makeMemory("second", ImportanceMinor, 2),
		makeMemory("third", ImportanceMinor, 2),
	}

	b.Consolidate(time.Now().UTC())

	want := []string{"first", "second", "third"}
	for i, id := range want {
		if b.Memories[i].ID != id {
			t.Errorf("position %d = %q, want %q", i, b.Memories[i].ID, id)
		}
	}
}

func TestBank_ByType(t *testing.T) {
	b := NewBank("p1", 10)
	b.Add(makeMemory("d1", ImportanceMinor, 0))
	lesson := makeMemory("l1", ImportanceMinor, 0)
	lesson.Type = TypeLesson
	b.Add(lesson)

	got := b.ByType(TypeLesson)
	if len(got) != 1 || got[0].ID != "l1" {
		t.Errorf("ByType(lesson) = %v, want [l1]", got)
	}
}

func TestBank_Relevant_BoostsProtocolAndTags(t *testing.T) {
	b := NewBank("p1", 10)

	plain := makeMemory("plain", ImportanceCore, 0)
	b.Add(plain)

	matching := makeMemory("matching", ImportanceCore, 0, "ethics")
	matching.RelatedProtocol = "proto-7"
	b.Add(matching)

	got := b.Relevant(RelevanceContext{ProtocolID: "proto-7", Tags: []string{"ethics"}}, 2)

	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "matching" {
		t.Errorf("top relevant = %q, want matching", got[0].ID)
	}
}

func TestBank_Relevant_Limit(t *testing.T) {
	b := NewBank("p1", 10)
	for i := 0; i < 8; i++ {
		b.Add(makeMemory(fmt.Sprintf("m%d", i), ImportanceMinor, 0))
	}

	if got := b.Relevant(RelevanceContext{}, 5); len(got) != 5 {
		t.Errorf("len = %d, want 5", len(got))
	}
}

func TestBank_ExportForSharing(t *testing.T) {
	b := NewBank("p1", 10)
	b.Add(makeMemory("trivial", ImportanceTrivial, 0))
	b.Add(makeMemory("critical", ImportanceCritical, 0))
	b.Add(makeMemory("core", ImportanceCore, 0))

	export := b.ExportForSharing()

	if export.AgentID != "p1" {
		t.Errorf("agent = %q, want p1", export.AgentID)
	}
	if export.TotalMemories != 3 {
		t.Errorf("total = %d, want 3", export.TotalMemories)
	}
	if len(export.SignificantMemories) != 2 {
		t.Fatalf("significant = %d, want 2", len(export.SignificantMemories))
	}
	for _, sm := range export.SignificantMemories {
		if sm.Importance != ImportanceCritical && sm.Importance != ImportanceCore {
			t.Errorf("exported memory with importance %q", sm.Importance)
		}
	}
}
