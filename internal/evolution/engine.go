// Package evolution implements the rules that mutate an agent's
// cognitive state: decision impacts, mentor influence, unlock sweeps,
// random breakthroughs, and the derived insights and comparisons.
package evolution

import (
	"log/slog"
	"math/rand"

	"github.com/protoloop/loopcore/internal/cognition"
)

// Config holds the engine tunables.
type Config struct {
	// MutationThreshold is reserved for future variance rules.
	MutationThreshold float64

	// BreakthroughChance is the per-decision probability of a random
	// +10 boost to a developing module.
	BreakthroughChance float64
}

// DefaultConfig returns the standard engine tunables.
func DefaultConfig() Config {
	return Config{
		MutationThreshold:  0.15,
		BreakthroughChance: 0.05,
	}
}

// MentorBonus is the flat level bonus applied per matching mentor trait.
const MentorBonus = 0.05

// BreakthroughBoost is the flat level boost a breakthrough grants.
const BreakthroughBoost = 10.0

// Engine applies evolution rules to cognitive states. The random source
// is injected so breakthrough behavior is reproducible in tests.
type Engine struct {
	cfg Config
	rng *rand.Rand
}

// NewEngine creates an engine with the given tunables and random source.
// A nil rng gets an arbitrary seed.
func NewEngine(cfg Config, rng *rand.Rand) *Engine {
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}
	return &Engine{cfg: cfg, rng: rng}
}

// InitializeCognitiveState creates the starting profile for a new agent:
// every catalog module present, the core four seeded nascent, the rest
// locked behind their prerequisite tables.
func (e *Engine) InitializeCognitiveState(agentID string) *cognition.State {
	core := make(map[string]bool, len(cognition.CoreModules))
	for _, name := range cognition.CoreModules {
		core[name] = true
	}

	modules := make(map[string]*cognition.Module, len(cognition.ModuleNames))
	for _, name := range cognition.ModuleNames {
		m := &cognition.Module{
			Name:               name,
			Status:             cognition.StatusLocked,
			UnlockRequirements: cognition.UnlockRequirementsFor(name),
			Description:        cognition.ModuleDescription(name),
			Icon:               cognition.ModuleIcon(name),
			Color:              cognition.ModuleColor(name),
		}
		if core[name] {
			m.Level = cognition.UnlockSeedLevel
			m.Status = cognition.StatusNascent
		}
		modules[name] = m
	}

	state := &cognition.State{
		AgentID: agentID,
		Modules: modules,
	}
	state.CalculateEvolutionScore()
	state.UpdateDominantTraits()
	return state
}

// ApplyDecisionImpact mutates the state in place with a decision's
// module deltas, an optional mentor trait bonus, an unlock sweep, and a
// chance of breakthrough. The same state pointer is returned; callers
// branching a hypothetical must Clone first.
func (e *Engine) ApplyDecisionImpact(state *cognition.State, impact map[string]float64, mentorInfluence string) *cognition.State {
	for _, name := range cognition.ModuleNames {
		if delta, ok := impact[name]; ok {
			state.UpdateModule(name, delta)
		}
	}
	// Deltas aimed at modules outside the catalog still surface as
	// warnings instead of silently vanishing.
	for name, delta := range impact {
		if _, known := state.Modules[name]; !known {
			state.UpdateModule(name, delta)
		}
	}

	if mentor, ok := cognition.Mentors[mentorInfluence]; ok {
		for _, trait := range mentor.Traits {
			if _, known := state.Modules[trait]; known {
				state.UpdateModule(trait, MentorBonus)
			}
		}
	}

	e.checkModuleUnlocks(state)

	if e.rng.Float64() < e.cfg.BreakthroughChance {
		e.triggerBreakthrough(state)
	}

	return state
}

// checkModuleUnlocks opens every locked module whose prerequisites are
// satisfied. Unlocks never reverse; a module that leaves locked status
// stays open regardless of later decay.
func (e *Engine) checkModuleUnlocks(state *cognition.State) {
	levels := state.ModuleLevels()
	for _, name := range cognition.ModuleNames {
		m, ok := state.Modules[name]
		if !ok || m.Status != cognition.StatusLocked {
			continue
		}
		if m.IsUnlockable(levels) {
			m.Unlock()
			slog.Debug("cognitive module unlocked", "agent", state.AgentID, "module", name)
		}
	}
	state.CalculateEvolutionScore()
	state.UpdateDominantTraits()
}

// triggerBreakthrough boosts a uniformly random developing module.
// No-op when nothing is developing.
func (e *Engine) triggerBreakthrough(state *cognition.State) {
	var developing []string
	for _, name := range cognition.ModuleNames {
		if m, ok := state.Modules[name]; ok && m.Status == cognition.StatusDeveloping {
			developing = append(developing, name)
		}
	}
	if len(developing) == 0 {
		return
	}

	chosen := developing[e.rng.Intn(len(developing))]
	state.UpdateModule(chosen, BreakthroughBoost)
	slog.Debug("cognitive breakthrough", "agent", state.AgentID, "module", chosen)
}
