// Package protocol models training scenarios, the decisions made inside
// them, and per-scenario sessions with their scoring.
package protocol

import (
	"errors"
	"fmt"
	"time"
)

// ErrValidation marks rejected input. Callers match it with errors.Is.
var ErrValidation = errors.New("validation failed")

// Type enumerates the known training protocol categories.
type Type string

const (
	TypeEthicalDilemma     Type = "ethical_dilemma"
	TypeLogicPuzzle        Type = "logic_puzzle"
	TypeEmotionCalibration Type = "emotion_calibration"
	TypeMemoryCompression  Type = "memory_compression"
	TypeBiasIdentification Type = "bias_identification"
	TypeEmpathySimulation  Type = "empathy_simulation"
	TypeCreativeSynthesis  Type = "creative_synthesis"
	TypeTrustEvaluation    Type = "trust_evaluation"
)

// TypeDescriptions maps each protocol type to a short blurb.
var TypeDescriptions = map[Type]string{
	TypeEthicalDilemma:     "Moral decision-making scenarios",
	TypeLogicPuzzle:        "Pattern recognition and problem-solving",
	TypeEmotionCalibration: "Emotional response training",
	TypeMemoryCompression:  "Information retention tests",
	TypeBiasIdentification: "Cognitive bias detection",
	TypeEmpathySimulation:  "Perspective-taking exercises",
	TypeCreativeSynthesis:  "Novel solution generation",
	TypeTrustEvaluation:    "Relationship-building scenarios",
}

// Difficulty is one of five ordered tiers.
type Difficulty string

const (
	DifficultyNascent      Difficulty = "nascent"
	DifficultyDeveloping   Difficulty = "developing"
	DifficultyProficient   Difficulty = "proficient"
	DifficultyAdvanced     Difficulty = "advanced"
	DifficultyTranscendent Difficulty = "transcendent"
)

// Decision is a single choice made during a protocol.
type Decision struct {
	Timestamp       time.Time          `json:"timestamp" yaml:"timestamp"`
	ChoiceID        string             `json:"choice_id" yaml:"choice_id"`
	ChoiceText      string             `json:"choice_text" yaml:"choice_text"`
	MentorInfluence string             `json:"mentor_influence,omitempty" yaml:"mentor_influence,omitempty"`
	CognitiveImpact map[string]float64 `json:"cognitive_impact,omitempty" yaml:"cognitive_impact,omitempty"`
	Confidence      float64            `json:"confidence" yaml:"confidence"`
}

// Validate rejects out-of-range fields before they reach any mutation.
func (d Decision) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("%w: confidence must be in [0,1], got %v", ErrValidation, d.Confidence)
	}
	return nil
}

// Protocol is one generated training scenario.
type Protocol struct {
	ID         string     `json:"id" yaml:"id"`
	Type       Type       `json:"type" yaml:"type"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`

	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Scenario    string `json:"scenario" yaml:"scenario"`

	Choices           []map[string]any   `json:"choices" yaml:"choices"`
	MentorDialogue    map[string]string  `json:"mentor_dialogue,omitempty" yaml:"mentor_dialogue,omitempty"`
	SuccessCriteria   map[string]float64 `json:"success_criteria,omitempty" yaml:"success_criteria,omitempty"`
	CognitiveRewards  map[string]float64 `json:"cognitive_rewards,omitempty" yaml:"cognitive_rewards,omitempty"`
	EstimatedDuration int                `json:"estimated_duration" yaml:"estimated_duration"`
	Prerequisites     []string           `json:"prerequisites,omitempty" yaml:"prerequisites,omitempty"`
}
