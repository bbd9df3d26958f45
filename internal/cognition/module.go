// Package cognition defines the cognitive profile of an agent: named
// skill modules with levels, unlock prerequisites, and the aggregate
// state derived from them.
package cognition

import (
	"math"
)

// ModuleStatus describes how developed a cognitive module is.
// It is a pure function of level; see StatusForLevel.
type ModuleStatus string

const (
	StatusLocked     ModuleStatus = "locked"
	StatusNascent    ModuleStatus = "nascent"
	StatusDeveloping ModuleStatus = "developing"
	StatusActive     ModuleStatus = "active"
	StatusMastered   ModuleStatus = "mastered"
)

// UnlockSeedLevel is the level a module is seeded with when its
// prerequisites are first satisfied (locked -> nascent).
const UnlockSeedLevel = 5.0

// StatusForLevel maps a level to its module status.
func StatusForLevel(level float64) ModuleStatus {
	switch {
	case level == 0:
		return StatusLocked
	case level < 20:
		return StatusNascent
	case level < 50:
		return StatusDeveloping
	case level < 90:
		return StatusActive
	default:
		return StatusMastered
	}
}

// Module is a single cognitive capability axis.
type Module struct {
	Name   string       `json:"name" yaml:"name"`
	Level  float64      `json:"level" yaml:"level"`
	Status ModuleStatus `json:"status" yaml:"status"`

	// Experience accumulates round(delta*100) per applied delta.
	Experience int `json:"experience" yaml:"experience"`

	// UnlockRequirements maps prerequisite module name -> minimum level.
	// Empty for modules that start available.
	UnlockRequirements map[string]float64 `json:"unlock_requirements,omitempty" yaml:"unlock_requirements,omitempty"`

	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string `json:"icon,omitempty" yaml:"icon,omitempty"`
	Color       string `json:"color,omitempty" yaml:"color,omitempty"`
}

// GainExperience applies a level delta and keeps status consistent.
// Level is clamped to [0, 100] on both ends; negative deltas model
// skill decay. Experience follows the raw delta. Unlocks are monotone:
// a module that has left locked status never reports locked again, even
// if decay drives its level back to zero.
func (m *Module) GainExperience(amount float64) {
	wasOpen := m.Status != StatusLocked

	m.Experience += int(math.Round(amount * 100))
	m.Level += amount
	if m.Level > 100 {
		m.Level = 100
	}
	if m.Level < 0 {
		m.Level = 0
	}

	m.Status = StatusForLevel(m.Level)
	if wasOpen && m.Status == StatusLocked {
		m.Status = StatusNascent
	}
}

// Unlock transitions a locked module to nascent at the seed level.
// No-op if the module is not locked.
func (m *Module) Unlock() {
	if m.Status != StatusLocked {
		return
	}
	m.Level = UnlockSeedLevel
	m.Status = StatusNascent
}

// IsUnlockable reports whether every prerequisite is satisfied by the
// given level snapshot. A missing prerequisite counts as level 0.
func (m *Module) IsUnlockable(levels map[string]float64) bool {
	for req, min := range m.UnlockRequirements {
		if levels[req] < min {
			return false
		}
	}
	return true
}
