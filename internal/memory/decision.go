package memory

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/protoloop/loopcore/internal/protocol"
)

// emotionalModules weigh a decision toward emotional retention.
var emotionalModules = map[string]bool{
	"empathy": true,
	"fear":    true,
	"trust":   true,
}

// FromDecision derives the memory a recorded decision leaves behind.
// Importance tracks the total impact magnitude, and choices dominated
// by emotional modules are retained as emotional moments. Decisions
// with no cognitive impact leave no trace; the second return is false.
func FromDecision(agentID string, loopNumber int, d protocol.Decision, protocolID string, now time.Time) (Memory, bool) {
	if len(d.CognitiveImpact) == 0 {
		return Memory{}, false
	}

	var total, emotional float64
	for module, delta := range d.CognitiveImpact {
		mag := math.Abs(delta)
		total += mag
		if emotionalModules[module] {
			emotional += mag
		}
	}

	mtype := TypeDecision
	if emotional*2 >= total {
		mtype = TypeEmotionalMoment
	}

	importance := ImportanceTrivial
	switch {
	case total >= 3:
		importance = ImportanceCritical
	case total >= 1:
		importance = ImportanceSignificant
	case total >= 0.3:
		importance = ImportanceMinor
	}

	valence := d.CognitiveImpact["empathy"] + d.CognitiveImpact["trust"] - d.CognitiveImpact["fear"]
	if valence > 1 {
		valence = 1
	}
	if valence < -1 {
		valence = -1
	}

	title := fmt.Sprintf("Chose %s", d.ChoiceID)
	if d.MentorInfluence != "" {
		title = fmt.Sprintf("Chose %s with %s", d.ChoiceID, d.MentorInfluence)
	}

	return Memory{
		ID:               uuid.NewString(),
		AgentID:          agentID,
		LoopNumber:       loopNumber,
		Type:             mtype,
		Importance:       importance,
		Title:            title,
		Content:          d.ChoiceText,
		CognitiveImpact:  d.CognitiveImpact,
		RelatedProtocol:  protocolID,
		MentorSource:     d.MentorInfluence,
		EmotionalValence: valence,
		CreatedAt:        now,
	}, true
}
