package cognition

import (
	"log/slog"
	"math"
	"sort"
	"time"
)

// State is the complete cognitive profile of one agent.
//
// A State is owned by a single goroutine per agent; mutating methods are
// not internally locked. Mutations happen in place and callers that want
// to branch a hypothetical must Clone first.
type State struct {
	AgentID    string `json:"agent_id" yaml:"agent_id"`
	LoopNumber int    `json:"loop_number" yaml:"loop_number"`

	// Modules always contains every catalog module name.
	Modules map[string]*Module `json:"modules" yaml:"modules"`

	TotalExperience int       `json:"total_experience" yaml:"total_experience"`
	EvolutionScore  float64   `json:"evolution_score" yaml:"evolution_score"`
	DominantTraits  []string  `json:"dominant_traits" yaml:"dominant_traits"`
	Timestamp       time.Time `json:"timestamp" yaml:"timestamp"`
}

// ModuleLevel returns the level of a module, 0 for unknown names.
func (s *State) ModuleLevel(name string) float64 {
	if m, ok := s.Modules[name]; ok {
		return m.Level
	}
	return 0
}

// ModuleLevels returns a snapshot of module name -> level.
func (s *State) ModuleLevels() map[string]float64 {
	levels := make(map[string]float64, len(s.Modules))
	for name, m := range s.Modules {
		levels[name] = m.Level
	}
	return levels
}

// UpdateModule applies a level delta to a named module and recomputes
// the derived score and dominant traits. Unknown module names are an
// invariant violation by the caller; they are logged and ignored rather
// than failing the mutation path. Returns whether the update applied.
func (s *State) UpdateModule(name string, delta float64) bool {
	m, ok := s.Modules[name]
	if !ok {
		slog.Warn("update for unknown cognitive module", "agent", s.AgentID, "module", name)
		return false
	}

	m.GainExperience(delta)
	s.TotalExperience += int(math.Round(delta * 100))
	s.CalculateEvolutionScore()
	s.UpdateDominantTraits()
	return true
}

// CalculateEvolutionScore recomputes the aggregate score:
// (sum of levels) / (module count * 100) * 100.
func (s *State) CalculateEvolutionScore() {
	if len(s.Modules) == 0 {
		s.EvolutionScore = 0
		return
	}

	var total float64
	for _, m := range s.Modules {
		total += m.Level
	}
	s.EvolutionScore = total / (float64(len(s.Modules)) * 100) * 100
}

// UpdateDominantTraits recomputes the top-3 modules by level.
// Ties break on catalog order so the result is deterministic.
func (s *State) UpdateDominantTraits() {
	names := make([]string, 0, len(s.Modules))
	for name := range s.Modules {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool {
		li, lj := s.Modules[names[i]].Level, s.Modules[names[j]].Level
		if li != lj {
			return li > lj
		}
		return catalogRank(names[i]) < catalogRank(names[j])
	})

	if len(names) > 3 {
		names = names[:3]
	}
	s.DominantTraits = names
}

func catalogRank(name string) int {
	if i, ok := moduleIndex[name]; ok {
		return i
	}
	return len(ModuleNames)
}

// Clone returns a deep copy of the state. Use this before feeding a
// state into a hypothetical branch; all engine mutations are in place.
func (s *State) Clone() *State {
	cp := *s

	cp.Modules = make(map[string]*Module, len(s.Modules))
	for name, m := range s.Modules {
		mc := *m
		mc.UnlockRequirements = make(map[string]float64, len(m.UnlockRequirements))
		for k, v := range m.UnlockRequirements {
			mc.UnlockRequirements[k] = v
		}
		cp.Modules[name] = &mc
	}

	cp.DominantTraits = append([]string(nil), s.DominantTraits...)
	return &cp
}
