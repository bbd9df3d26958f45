package memory

import (
	"sort"
	"time"
)

// DefaultCapacity is the retention limit for a bank unless configured.
const DefaultCapacity = 100

// Bank is the ordered, capacity-bounded memory collection of one agent.
//
// Insertion and consolidation happen under one lock-free sequence owned
// by the agent's single writer; the bank itself is not internally locked.
type Bank struct {
	AgentID  string   `json:"agent_id" yaml:"agent_id"`
	Memories []Memory `json:"memories" yaml:"memories"`

	// TotalMemories counts every memory ever added, including evicted.
	TotalMemories int `json:"total_memories" yaml:"total_memories"`
	Capacity      int `json:"capacity" yaml:"capacity"`
}

// NewBank creates a bank for an agent. capacity <= 0 uses the default.
func NewBank(agentID string, capacity int) *Bank {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Bank{AgentID: agentID, Capacity: capacity}
}

// Add inserts a memory, consolidating first if the bank is full.
// The size invariant len(Memories) <= Capacity always holds afterward.
func (b *Bank) Add(m Memory) {
	if len(b.Memories) >= b.Capacity {
		b.Consolidate(time.Now().UTC())
		// Consolidation keeps at most Capacity entries; drop the
		// weakest one to make room.
		if len(b.Memories) >= b.Capacity {
			b.Memories = b.Memories[:b.Capacity-1]
		}
	}

	b.Memories = append(b.Memories, m)
	b.TotalMemories++
}

// retentionScore ranks a memory for consolidation:
// decay * accesses * (1 + 0.1 per tag).
func retentionScore(m *Memory, now time.Time) float64 {
	return m.DecayFactor(now) * float64(m.AccessCount) * (1 + 0.1*float64(len(m.Tags)))
}

// Consolidate retains the top-capacity memories by retention score.
// Ties keep their original relative order so repeated consolidation is
// deterministic.
func (b *Bank) Consolidate(now time.Time) {
	type scored struct {
		mem   Memory
		score float64
	}

	entries := make([]scored, len(b.Memories))
	for i := range b.Memories {
		entries[i] = scored{mem: b.Memories[i], score: retentionScore(&b.Memories[i], now)}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	if len(entries) > b.Capacity {
		entries = entries[:b.Capacity]
	}

	kept := make([]Memory, len(entries))
	for i, e := range entries {
		kept[i] = e.mem
	}
	b.Memories = kept
}

// ByType returns memories of the given type in insertion order.
func (b *Bank) ByType(t Type) []Memory {
	var out []Memory
	for _, m := range b.Memories {
		if m.Type == t {
			out = append(out, m)
		}
	}
	return out
}

// RelevanceContext describes what the caller is currently doing, so
// Relevant can boost matching memories.
type RelevanceContext struct {
	ProtocolID string
	Tags       []string
}

// Relevant returns up to limit memories scored by decay factor plus
// contextual boosts: +0.5 for a protocol match and +0.2 per shared tag.
func (b *Bank) Relevant(ctx RelevanceContext, limit int) []Memory {
	now := time.Now().UTC()

	ctxTags := make(map[string]bool, len(ctx.Tags))
	for _, tag := range ctx.Tags {
		ctxTags[tag] = true
	}

	type scored struct {
		mem   Memory
		score float64
	}
	entries := make([]scored, 0, len(b.Memories))

	for i := range b.Memories {
		m := &b.Memories[i]
		score := m.DecayFactor(now)

		if ctx.ProtocolID != "" && m.RelatedProtocol == ctx.ProtocolID {
			score += 0.5
		}
		for _, tag := range m.Tags {
			if ctxTags[tag] {
				score += 0.2
			}
		}

		entries = append(entries, scored{mem: *m, score: score})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})

	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]Memory, len(entries))
	for i, e := range entries {
		out[i] = e.mem
	}
	return out
}

// SharedMemory is the social-sharing projection of a significant memory.
type SharedMemory struct {
	Title            string     `json:"title"`
	Type             Type       `json:"type"`
	Loop             int        `json:"loop"`
	Importance       Importance `json:"importance"`
	EmotionalValence float64    `json:"emotional_valence"`
}

// BankExport summarizes a bank for sharing with other agents.
type BankExport struct {
	AgentID             string         `json:"agent_id"`
	TotalMemories       int            `json:"total_memories"`
	SignificantMemories []SharedMemory `json:"significant_memories"`
}

// ExportForSharing exposes only critical and core memories.
func (b *Bank) ExportForSharing() BankExport {
	export := BankExport{
		AgentID:             b.AgentID,
		TotalMemories:       b.TotalMemories,
		SignificantMemories: make([]SharedMemory, 0),
	}

	for _, m := range b.Memories {
		if m.Importance != ImportanceCritical && m.Importance != ImportanceCore {
			continue
		}
		export.SignificantMemories = append(export.SignificantMemories, SharedMemory{
			Title:            m.Title,
			Type:             m.Type,
			Loop:             m.LoopNumber,
			Importance:       m.Importance,
			EmotionalValence: m.EmotionalValence,
		})
	}
	return export
}
