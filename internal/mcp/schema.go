// Package mcp provides an MCP (Model Context Protocol) server for loopcore.
package mcp

import (
	"github.com/protoloop/loopcore/internal/behavior"
	"github.com/protoloop/loopcore/internal/evolution"
	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/protocol"
)

// LoopStartInput defines the input for the loop_start tool.
type LoopStartInput struct {
	AgentID string `json:"agent_id" jsonschema:"Agent identifier"`
}

// LoopStartOutput defines the output for the loop_start tool.
type LoopStartOutput struct {
	LoopID          string           `json:"loop_id" jsonschema:"Identifier of the started loop"`
	LoopNumber      int              `json:"loop_number" jsonschema:"Iteration number (committed on completion)"`
	DurationSeconds int              `json:"duration_seconds" jsonschema:"Wall-clock length of the loop"`
	Environment     loop.Environment `json:"environment" jsonschema:"Facility snapshot derived from the agent's state"`
	EvolutionScore  float64          `json:"evolution_score" jsonschema:"Agent's evolution score at loop start"`
	DominantTraits  []string         `json:"dominant_traits,omitempty" jsonschema:"Agent's current dominant traits"`
}

// LoopTickInput defines the input for the loop_tick tool.
type LoopTickInput struct {
	LoopID         string `json:"loop_id" jsonschema:"Loop identifier"`
	AgentID        string `json:"agent_id" jsonschema:"Agent identifier"`
	ElapsedSeconds int    `json:"elapsed_seconds" jsonschema:"Wall-clock seconds elapsed since loop start"`
}

// LoopTickOutput defines the output for the loop_tick tool.
type LoopTickOutput struct {
	Status        string           `json:"status" jsonschema:"Timer status: running | completed | not_found"`
	TimeRemaining int              `json:"time_remaining,omitempty" jsonschema:"Seconds left on the loop clock"`
	Progress      float64          `json:"progress,omitempty" jsonschema:"Fraction of the loop elapsed (0.0-1.0)"`
	Completion    *loop.Completion `json:"completion,omitempty" jsonschema:"Completion result when the tick exhausted the timer"`
}

// LoopDecideInput defines the input for the loop_decide tool.
type LoopDecideInput struct {
	LoopID          string             `json:"loop_id" jsonschema:"Loop identifier"`
	AgentID         string             `json:"agent_id" jsonschema:"Agent identifier"`
	ProtocolID      string             `json:"protocol_id,omitempty" jsonschema:"Protocol this decision belongs to"`
	ChoiceID        string             `json:"choice_id" jsonschema:"Identifier of the chosen option"`
	MentorInfluence string             `json:"mentor_influence,omitempty" jsonschema:"Mentor invoked by the choice (LOGIC | COMPASSION | CURIOSITY | FEAR)"`
	CognitiveImpact map[string]float64 `json:"cognitive_impact,omitempty" jsonschema:"Module level deltas caused by the choice"`
	Confidence      float64            `json:"confidence" jsonschema:"Decision confidence (0.0-1.0)"`
}

// LoopDecideOutput defines the output for the loop_decide tool.
type LoopDecideOutput struct {
	Recorded       bool               `json:"recorded" jsonschema:"Whether the decision was recorded on the loop"`
	MemoryID       string             `json:"memory_id,omitempty" jsonschema:"Memory deposited in the agent's bank when the decision carried cognitive impact"`
	EvolutionScore float64            `json:"evolution_score" jsonschema:"Evolution score after the decision"`
	DominantTraits []string           `json:"dominant_traits,omitempty" jsonschema:"Dominant traits after the decision"`
	ModuleLevels   map[string]float64 `json:"module_levels" jsonschema:"Module levels after the decision"`
}

// LoopCompleteInput defines the input for the loop_complete tool.
type LoopCompleteInput struct {
	LoopID  string `json:"loop_id" jsonschema:"Loop identifier"`
	AgentID string `json:"agent_id" jsonschema:"Agent identifier"`
}

// LoopCompleteOutput defines the output for the loop_complete tool.
type LoopCompleteOutput struct {
	LoopNumber   int        `json:"loop_number" jsonschema:"Committed loop number"`
	Stats        loop.Stats `json:"stats" jsonschema:"Stats of the completed loop"`
	ReadyForNext bool       `json:"ready_for_next" jsonschema:"Whether the next loop can start"`
}

// LoopBreakCheckInput defines the input for the loop_break_check tool.
type LoopBreakCheckInput struct {
	LoopID  string `json:"loop_id" jsonschema:"Loop identifier"`
	AgentID string `json:"agent_id" jsonschema:"Agent identifier"`
}

// LoopBreakCheckOutput defines the output for the loop_break_check tool.
type LoopBreakCheckOutput struct {
	CanBreak           bool            `json:"can_break" jsonschema:"Whether the agent can break the loop"`
	Reason             string          `json:"reason,omitempty" jsonschema:"Failure reason when the check could not run"`
	Conditions         map[string]bool `json:"conditions,omitempty" jsonschema:"Per-condition results"`
	ConditionsMet      int             `json:"conditions_met" jsonschema:"Number of conditions currently met"`
	ConditionsRequired int             `json:"conditions_required" jsonschema:"Number of conditions required to break"`
}

// LoopEnvironmentInput defines the input for the loop_environment tool.
type LoopEnvironmentInput struct {
	AgentID string `json:"agent_id" jsonschema:"Agent identifier"`
	LoopID  string `json:"loop_id,omitempty" jsonschema:"Active loop whose decisions drive mentor alignment; omit to use recent archived history"`
}

// LoopEnvironmentOutput defines the output for the loop_environment tool.
type LoopEnvironmentOutput struct {
	LoopNumber int                            `json:"loop_number" jsonschema:"Loop the mutations apply to"`
	Mutations  evolution.EnvironmentMutations `json:"mutations" jsonschema:"Environment derived from the agent's evolution and mentor alignments"`
}

// AgentInsightsInput defines the input for the agent_insights tool.
type AgentInsightsInput struct {
	AgentID string `json:"agent_id" jsonschema:"Agent identifier"`
}

// AgentInsightsOutput defines the output for the agent_insights tool.
type AgentInsightsOutput struct {
	Insights       []string         `json:"insights" jsonschema:"Human-readable development observations"`
	EvolutionScore float64          `json:"evolution_score" jsonschema:"Current evolution score"`
	DominantTraits []string         `json:"dominant_traits,omitempty" jsonschema:"Current dominant traits"`
	Pattern        behavior.Pattern `json:"decision_pattern" jsonschema:"Behavioral profile extracted from decision history"`
}

// AgentAnalyticsInput defines the input for the agent_analytics tool.
type AgentAnalyticsInput struct {
	AgentID string `json:"agent_id" jsonschema:"Agent identifier"`
}

// AgentAnalyticsOutput defines the output for the agent_analytics tool.
type AgentAnalyticsOutput struct {
	Analytics loop.Analytics `json:"analytics" jsonschema:"Aggregates over the agent's archived loop history"`
}

// ScenarioNextInput defines the input for the scenario_next tool.
type ScenarioNextInput struct {
	AgentID string `json:"agent_id" jsonschema:"Agent identifier"`
	LoopID  string `json:"loop_id,omitempty" jsonschema:"Active loop to attach the protocol to"`
	Type    string `json:"type,omitempty" jsonschema:"Protocol type (default: ethical_dilemma)"`
}

// ScenarioNextOutput defines the output for the scenario_next tool.
type ScenarioNextOutput struct {
	Protocol protocol.Protocol `json:"protocol" jsonschema:"Generated protocol ready to run"`
	Attached bool              `json:"attached" jsonschema:"Whether the protocol was attached to the given loop"`
}
