package loop

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/memory"
	"github.com/protoloop/loopcore/internal/protocol"
)

// Config carries the manager tunables.
type Config struct {
	// DurationSeconds is the wall-clock length of one loop.
	DurationSeconds int
}

// DefaultConfig returns the stock loop configuration.
func DefaultConfig() Config {
	return Config{DurationSeconds: 300}
}

// Manager owns the active-loop table and drives loops through their
// lifecycle. All methods are safe for concurrent use; per-agent
// cognitive state itself stays single-writer as documented on State.
type Manager struct {
	mu     sync.Mutex
	cfg    Config
	repo   Repository
	rng    *rand.Rand
	active map[string]*Loop

	now func() time.Time
}

// NewManager builds a manager over the given repository. A nil rng gets
// a time-based seed; tests inject a fixed one.
func NewManager(cfg Config, repo Repository, rng *rand.Rand) *Manager {
	if cfg.DurationSeconds <= 0 {
		cfg.DurationSeconds = DefaultConfig().DurationSeconds
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Manager{
		cfg:    cfg,
		repo:   repo,
		rng:    rng,
		active: make(map[string]*Loop),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// StartLoop opens the next iteration for an agent. The loop number is
// state.LoopNumber+1 but is not committed to the state until
// CompleteLoop; abandoning a loop leaves the counter untouched.
func (m *Manager) StartLoop(agentID string, state *cognition.State) Loop {
	m.mu.Lock()
	defer m.mu.Unlock()

	loopNumber := state.LoopNumber + 1
	l := &Loop{
		ID:              fmt.Sprintf("%s_loop_%d", agentID, loopNumber),
		AgentID:         agentID,
		LoopNumber:      loopNumber,
		StartedAt:       m.now(),
		DurationSeconds: m.cfg.DurationSeconds,
		TimeRemaining:   m.cfg.DurationSeconds,
		Status:          StatusActive,
		StateStart:      state.Clone(),
		ActiveProtocols: []ProtocolEntry{},
		Decisions:       []DecisionRecord{},
		Items:           []Item{},
		MemoriesFormed:  []MemoryStub{},
		Environment:     buildEnvironment(state),
	}

	m.active[l.ID] = l
	slog.Debug("loop started", "loop", l.ID, "agent", agentID, "number", loopNumber)
	return l.snapshot()
}

// buildEnvironment derives the initial facility snapshot from the
// agent's cognitive state.
func buildEnvironment(state *cognition.State) Environment {
	visible := state.LoopNumber + 2
	if visible > 4 {
		visible = 4
	}

	return Environment{
		FacilityState:   "stable",
		Lighting:        "neutral",
		AmbientSound:    "low_hum",
		VisibleChambers: visible,
		MentorLocations: map[string]string{
			"LOGIC":      "central_chamber",
			"COMPASSION": "reflection_room",
			"CURIOSITY":  "exploration_hub",
			"FEAR":       "warning_corridor",
		},
		Anomalies: []string{},
		Accessibility: map[string]bool{
			"training_chamber": true,
			"mentor_sanctum":   state.EvolutionScore > 20,
			"memory_vault":     state.LoopNumber > 5,
			"synthesis_lab":    state.ModuleLevel("creativity") > 30,
			"ethics_courtroom": state.ModuleLevel("ethics") > 25,
			"final_chamber":    state.EvolutionScore > 70,
		},
	}
}

// Restore re-inserts a previously snapshotted active loop, typically
// rehydrated from disk by a new process. Completed loops are rejected.
func (m *Manager) Restore(l Loop) error {
	if l.Status != StatusActive {
		return fmt.Errorf("restore loop %q: status %q is not active", l.ID, l.Status)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	cp := l.snapshot()
	m.active[cp.ID] = &cp
	return nil
}

// GetLoop returns a snapshot of an active loop.
func (m *Manager) GetLoop(loopID string) (Loop, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok {
		return Loop{}, false
	}
	return l.snapshot(), true
}

// TimerStatus is the outcome of a timer tick.
type TimerStatus string

const (
	TimerNotFound  TimerStatus = "not_found"
	TimerRunning   TimerStatus = "running"
	TimerCompleted TimerStatus = "completed"
)

// TimerUpdate reports the loop clock after a tick. Completion carries
// the completion result when the tick exhausted the timer.
type TimerUpdate struct {
	Status        TimerStatus `json:"status"`
	TimeRemaining int         `json:"time_remaining,omitempty"`
	Progress      float64     `json:"progress,omitempty"`
	Completion    *Completion `json:"completion,omitempty"`
}

// UpdateTimer advances the loop clock to the given elapsed wall time.
// When the timer reaches zero on an active loop the loop completes,
// which commits the loop counter to the given state.
func (m *Manager) UpdateTimer(ctx context.Context, loopID string, elapsedSeconds int, state *cognition.State) (TimerUpdate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok {
		return TimerUpdate{Status: TimerNotFound}, nil
	}

	remaining := l.DurationSeconds - elapsedSeconds
	if remaining < 0 {
		remaining = 0
	}
	l.TimeRemaining = remaining

	if remaining == 0 && l.Status == StatusActive {
		done, err := m.completeLocked(ctx, loopID, state)
		if err != nil {
			return TimerUpdate{}, err
		}
		return TimerUpdate{Status: TimerCompleted, Completion: done}, nil
	}

	return TimerUpdate{
		Status:        TimerRunning,
		TimeRemaining: remaining,
		Progress:      1 - float64(remaining)/float64(l.DurationSeconds),
	}, nil
}

// AddProtocol attaches a protocol run to an active loop. Returns false
// when the loop is unknown or no longer active.
func (m *Manager) AddProtocol(loopID string, p protocol.Protocol) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok || l.Status != StatusActive {
		return false
	}

	l.ActiveProtocols = append(l.ActiveProtocols, ProtocolEntry{
		ProtocolID: p.ID,
		Type:       p.Type,
		StartedAt:  m.now(),
	})
	return true
}

// MarkProtocolCompleted flips a protocol entry to completed. Returns
// false when the loop or the protocol is unknown.
func (m *Manager) MarkProtocolCompleted(loopID, protocolID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok {
		return false
	}
	for i := range l.ActiveProtocols {
		if l.ActiveProtocols[i].ProtocolID == protocolID {
			l.ActiveProtocols[i].Completed = true
			return true
		}
	}
	return false
}

// RecordDecision appends a normalized decision record to the loop.
func (m *Manager) RecordDecision(loopID string, d protocol.Decision, protocolID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok {
		return false
	}

	l.Decisions = append(l.Decisions, DecisionRecord{
		Timestamp:       d.Timestamp,
		ProtocolID:      protocolID,
		ChoiceID:        d.ChoiceID,
		MentorInfluence: d.MentorInfluence,
		CognitiveImpact: d.CognitiveImpact,
		Confidence:      d.Confidence,
	})
	return true
}

// CollectItem records an item pickup. Items persist across loops unless
// the data marks them "persistent": false.
func (m *Manager) CollectItem(loopID, itemID string, data map[string]any) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok {
		return false
	}

	persists := true
	if v, ok := data["persistent"].(bool); ok {
		persists = v
	}

	l.Items = append(l.Items, Item{
		ID:          itemID,
		CollectedAt: m.now(),
		Data:        data,
		Persists:    persists,
	})
	return true
}

// FormMemory records that a memory was formed during the loop. The full
// memory belongs to the agent's bank; the loop keeps a stub.
func (m *Manager) FormMemory(loopID string, mem memory.Memory) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok {
		return false
	}

	l.MemoriesFormed = append(l.MemoriesFormed, MemoryStub{
		MemoryID:   mem.ID,
		Type:       mem.Type,
		Importance: mem.Importance,
		Title:      mem.Title,
		FormedAt:   m.now(),
	})
	return true
}

// UnlockArea records an area unlocked this loop; it joins the agent's
// persistent unlocked set once the loop archives.
func (m *Manager) UnlockArea(loopID, area string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok {
		return false
	}
	for _, a := range l.AreasUnlocked {
		if a == area {
			return true
		}
	}
	l.AreasUnlocked = append(l.AreasUnlocked, area)
	return true
}

// Completion is returned when a loop finishes.
type Completion struct {
	LoopNumber   int   `json:"loop_number"`
	Stats        Stats `json:"stats"`
	ReadyForNext bool  `json:"ready_for_next"`
}

// CompleteLoop finishes a loop: stats are computed, the loop is archived
// and removed from the active table, and the agent's loop counter is
// incremented and persisted in the same call. A second call on the same
// id reports ErrNotFound.
func (m *Manager) CompleteLoop(ctx context.Context, loopID string, state *cognition.State) (*Completion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.completeLocked(ctx, loopID, state)
}

func (m *Manager) completeLocked(ctx context.Context, loopID string, state *cognition.State) (*Completion, error) {
	l, ok := m.active[loopID]
	if !ok {
		return nil, fmt.Errorf("complete loop %q: %w", loopID, ErrNotFound)
	}

	now := m.now()
	completed := 0
	for _, p := range l.ActiveProtocols {
		if p.Completed {
			completed++
		}
	}
	stats := Stats{
		ProtocolsCompleted: completed,
		DecisionsMade:      len(l.Decisions),
		ItemsCollected:     len(l.Items),
		MemoriesFormed:     len(l.MemoriesFormed),
		CompletionSeconds:  now.Sub(l.StartedAt).Seconds(),
	}

	// Archive a completed copy first; the live loop is only marked
	// completed once the archive lands, so a failed write leaves it
	// active and a later call can retry.
	rec := l.snapshot()
	rec.Status = StatusCompleted
	rec.CompletedAt = &now
	rec.Stats = &stats
	if err := m.repo.ArchiveLoop(ctx, rec); err != nil {
		return nil, fmt.Errorf("archive loop %q: %w", loopID, err)
	}

	l.Status = StatusCompleted
	l.CompletedAt = &now
	l.Stats = &stats
	delete(m.active, loopID)

	state.LoopNumber = l.LoopNumber
	state.Timestamp = now
	if err := m.repo.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("persist state for %q: %w", l.AgentID, err)
	}

	slog.Debug("loop completed", "loop", loopID, "number", l.LoopNumber,
		"decisions", l.Stats.DecisionsMade, "protocols_completed", completed)

	return &Completion{
		LoopNumber:   l.LoopNumber,
		Stats:        *l.Stats,
		ReadyForNext: true,
	}, nil
}

// BreakCheck reports how close an agent is to breaking out of the loop.
type BreakCheck struct {
	CanBreak           bool            `json:"can_break"`
	Reason             string          `json:"reason,omitempty"`
	Conditions         map[string]bool `json:"conditions,omitempty"`
	ConditionsMet      int             `json:"conditions_met"`
	ConditionsRequired int             `json:"conditions_required"`
}

// breakConditionsRequired of the four conditions must hold.
const breakConditionsRequired = 3

// CheckBreakConditions evaluates the four break conditions against an
// active loop and the agent's current state.
func (m *Manager) CheckBreakConditions(loopID string, state *cognition.State) BreakCheck {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, ok := m.active[loopID]
	if !ok {
		return BreakCheck{Reason: "loop_not_found", ConditionsRequired: breakConditionsRequired}
	}

	coreMastered := true
	for _, name := range cognition.CoreModules {
		if state.ModuleLevel(name) <= 60 {
			coreMastered = false
			break
		}
	}

	conditions := map[string]bool{
		"evolution_threshold":        state.EvolutionScore >= 75,
		"core_modules_mastered":      coreMastered,
		"minimum_loops":              l.LoopNumber >= 10,
		"special_protocol_completed": hasSpecialProtocol(l),
	}

	met := 0
	for _, ok := range conditions {
		if ok {
			met++
		}
	}

	return BreakCheck{
		CanBreak:           met >= breakConditionsRequired,
		Conditions:         conditions,
		ConditionsMet:      met,
		ConditionsRequired: breakConditionsRequired,
	}
}

// hasSpecialProtocol reports whether a loop-breaking protocol type was
// completed this loop.
func hasSpecialProtocol(l *Loop) bool {
	for _, p := range l.ActiveProtocols {
		switch p.Type {
		case "final_test", "breakthrough_scenario":
			if p.Completed {
				return true
			}
		}
	}
	return false
}

// PersistentData is the read-side projection of what survives loop
// resets for one agent.
type PersistentData struct {
	Items         []Item       `json:"items"`
	Memories      []MemoryStub `json:"memories"`
	UnlockedAreas []string     `json:"unlocked_areas"`
	TotalLoops    int          `json:"total_loops"`
}

// PersistentData folds the archived history into the set of items,
// memory stubs, and areas that carry across loops.
func (m *Manager) PersistentData(ctx context.Context, agentID string) (PersistentData, error) {
	history, err := m.repo.LoadHistory(ctx, agentID, 0)
	if err != nil {
		return PersistentData{}, fmt.Errorf("load history for %q: %w", agentID, err)
	}

	data := PersistentData{
		Items:         []Item{},
		Memories:      []MemoryStub{},
		UnlockedAreas: []string{},
		TotalLoops:    len(history),
	}

	seen := map[string]bool{}
	for _, rec := range history {
		for _, item := range rec.Items {
			if item.Persists {
				data.Items = append(data.Items, item)
			}
		}
		data.Memories = append(data.Memories, rec.MemoriesFormed...)
		for _, area := range rec.AreasUnlocked {
			if !seen[area] {
				seen[area] = true
				data.UnlockedAreas = append(data.UnlockedAreas, area)
			}
		}
	}
	return data, nil
}
