package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/memory"
)

// InMemoryRepository keeps everything in process memory. Used by tests
// and by ephemeral runs that do not want a database on disk.
type InMemoryRepository struct {
	mu      sync.RWMutex
	states  map[string]*cognition.State
	banks   map[string]*memory.Bank
	history map[string][]loop.Loop
}

// NewInMemoryRepository creates an empty in-memory repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		states:  make(map[string]*cognition.State),
		banks:   make(map[string]*memory.Bank),
		history: make(map[string][]loop.Loop),
	}
}

// SaveState stores a deep copy so later caller mutations never leak in.
func (r *InMemoryRepository) SaveState(ctx context.Context, state *cognition.State) error {
	if state.AgentID == "" {
		return fmt.Errorf("save state: agent id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.states[state.AgentID] = state.Clone()
	return nil
}

// LoadState returns a deep copy of the stored state.
func (r *InMemoryRepository) LoadState(ctx context.Context, agentID string) (*cognition.State, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	state, ok := r.states[agentID]
	if !ok {
		return nil, fmt.Errorf("state for %q: %w", agentID, ErrNotFound)
	}
	return state.Clone(), nil
}

// SaveBank stores a deep copy of the bank.
func (r *InMemoryRepository) SaveBank(ctx context.Context, bank *memory.Bank) error {
	if bank.AgentID == "" {
		return fmt.Errorf("save bank: agent id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.banks[bank.AgentID] = cloneBank(bank)
	return nil
}

// LoadBank returns a deep copy of the stored bank.
func (r *InMemoryRepository) LoadBank(ctx context.Context, agentID string) (*memory.Bank, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	bank, ok := r.banks[agentID]
	if !ok {
		return nil, fmt.Errorf("bank for %q: %w", agentID, ErrNotFound)
	}
	return cloneBank(bank), nil
}

// ArchiveLoop appends a completed loop to the agent's history. Loop ids
// are deterministic per agent and number, so re-archiving replaces the
// existing record in place.
func (r *InMemoryRepository) ArchiveLoop(ctx context.Context, rec loop.Loop) error {
	if rec.AgentID == "" {
		return fmt.Errorf("archive loop: agent id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	history := r.history[rec.AgentID]
	for i := range history {
		if history[i].ID == rec.ID {
			history[i] = rec
			return nil
		}
	}
	r.history[rec.AgentID] = append(history, rec)
	return nil
}

// LoadHistory returns archived loops in chronological order; a positive
// limit keeps only the most recent records.
func (r *InMemoryRepository) LoadHistory(ctx context.Context, agentID string, limit int) ([]loop.Loop, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	history := r.history[agentID]
	if limit > 0 && len(history) > limit {
		history = history[len(history)-limit:]
	}
	return append([]loop.Loop(nil), history...), nil
}

// Close is a no-op for in-memory storage.
func (r *InMemoryRepository) Close() error {
	return nil
}

// cloneBank deep-copies a bank, including each memory's access pointer.
func cloneBank(b *memory.Bank) *memory.Bank {
	cp := *b
	cp.Memories = make([]memory.Memory, len(b.Memories))
	for i, m := range b.Memories {
		mc := m
		if m.LastAccessed != nil {
			t := *m.LastAccessed
			mc.LastAccessed = &t
		}
		mc.CognitiveImpact = cloneFloatMap(m.CognitiveImpact)
		mc.Tags = append([]string(nil), m.Tags...)
		cp.Memories[i] = mc
	}
	return &cp
}

func cloneFloatMap(in map[string]float64) map[string]float64 {
	if in == nil {
		return nil
	}
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
