package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/protoloop/loopcore/internal/behavior"
	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/evolution"
	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/memory"
	"github.com/protoloop/loopcore/internal/protocol"
	"github.com/protoloop/loopcore/internal/scenario"
	"github.com/protoloop/loopcore/internal/storage"
	"github.com/protoloop/loopcore/internal/visualization"
)

// registerTools registers all loopcore MCP tools with the server.
func (s *Server) registerTools() error {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "loop_start",
		Description: "Start the next loop iteration for an agent and return its environment",
	}, s.handleLoopStart)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "loop_tick",
		Description: "Advance a loop's timer; completes the loop when the clock reaches zero",
	}, s.handleLoopTick)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "loop_decide",
		Description: "Record a decision inside a loop and apply its cognitive impact",
	}, s.handleLoopDecide)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "loop_complete",
		Description: "Complete an active loop: archive it and commit the agent's loop counter",
	}, s.handleLoopComplete)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "loop_break_check",
		Description: "Evaluate the loop break conditions for an agent",
	}, s.handleLoopBreakCheck)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "loop_environment",
		Description: "Derive the loop's environment mutations from the agent's evolution and mentor alignments",
	}, s.handleLoopEnvironment)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "agent_insights",
		Description: "Generate evolution insights and the behavioral pattern for an agent",
	}, s.handleAgentInsights)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "agent_analytics",
		Description: "Aggregate an agent's archived loop history: totals, mentor affinities, progression trend",
	}, s.handleAgentAnalytics)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "scenario_next",
		Description: "Generate the next training protocol for an agent, sized to its cognitive state",
	}, s.handleScenarioNext)

	return nil
}

// registerResources registers MCP resources.
func (s *Server) registerResources() error {
	s.server.AddResourceTemplate(&sdk.ResourceTemplate{
		URITemplate: "loopcore://agents/{id}/tree",
		Name:        "loopcore-agent-tree",
		Description: "Neural tree projection of an agent's cognitive state: modules, levels, prerequisite links.",
		MIMEType:    "application/json",
	}, s.handleTreeResource)

	return nil
}

// handleTreeResource serves the neural tree for one agent as JSON.
func (s *Server) handleTreeResource(ctx context.Context, req *sdk.ReadResourceRequest) (*sdk.ReadResourceResult, error) {
	uri := req.Params.URI
	const prefix = "loopcore://agents/"
	const suffix = "/tree"
	if !strings.HasPrefix(uri, prefix) || !strings.HasSuffix(uri, suffix) {
		return nil, fmt.Errorf("invalid URI format: %s", uri)
	}
	agentID := strings.TrimSuffix(strings.TrimPrefix(uri, prefix), suffix)
	if agentID == "" {
		return nil, fmt.Errorf("agent id is required")
	}

	state, err := s.repo.LoadState(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("load state for %q: %w", agentID, err)
	}

	data, err := json.Marshal(visualization.RenderJSON(state.NeuralTreeExport()))
	if err != nil {
		return nil, fmt.Errorf("encode tree: %w", err)
	}

	return &sdk.ReadResourceResult{
		Contents: []*sdk.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(data),
			},
		},
	}, nil
}

// loadOrInitState loads an agent's cognitive state, initializing a
// fresh profile on first contact.
func (s *Server) loadOrInitState(ctx context.Context, agentID string) (*cognition.State, error) {
	state, err := s.repo.LoadState(ctx, agentID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load state for %q: %w", agentID, err)
	}

	state = s.engine.InitializeCognitiveState(agentID)
	if err := s.repo.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("persist initial state for %q: %w", agentID, err)
	}
	return state, nil
}

// decisionHistory flattens the agent's archived loops into one
// chronological decision list.
func (s *Server) decisionHistory(ctx context.Context, agentID string) ([]loop.DecisionRecord, error) {
	history, err := s.repo.LoadHistory(ctx, agentID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history for %q: %w", agentID, err)
	}
	var decisions []loop.DecisionRecord
	for _, rec := range history {
		decisions = append(decisions, rec.Decisions...)
	}
	return decisions, nil
}

// handleLoopStart implements the loop_start tool.
func (s *Server) handleLoopStart(ctx context.Context, req *sdk.CallToolRequest, args LoopStartInput) (*sdk.CallToolResult, LoopStartOutput, error) {
	if args.AgentID == "" {
		return nil, LoopStartOutput{}, fmt.Errorf("agent_id is required")
	}

	state, err := s.loadOrInitState(ctx, args.AgentID)
	if err != nil {
		return nil, LoopStartOutput{}, err
	}

	l := s.manager.StartLoop(args.AgentID, state)
	s.events.Log(map[string]any{
		"event": "loop_start",
		"agent": args.AgentID,
		"loop":  l.ID,
	})

	return nil, LoopStartOutput{
		LoopID:          l.ID,
		LoopNumber:      l.LoopNumber,
		DurationSeconds: l.DurationSeconds,
		Environment:     l.Environment,
		EvolutionScore:  state.EvolutionScore,
		DominantTraits:  state.DominantTraits,
	}, nil
}

// handleLoopTick implements the loop_tick tool.
func (s *Server) handleLoopTick(ctx context.Context, req *sdk.CallToolRequest, args LoopTickInput) (*sdk.CallToolResult, LoopTickOutput, error) {
	state, err := s.loadOrInitState(ctx, args.AgentID)
	if err != nil {
		return nil, LoopTickOutput{}, err
	}

	update, err := s.manager.UpdateTimer(ctx, args.LoopID, args.ElapsedSeconds, state)
	if err != nil {
		return nil, LoopTickOutput{}, err
	}

	return nil, LoopTickOutput{
		Status:        string(update.Status),
		TimeRemaining: update.TimeRemaining,
		Progress:      update.Progress,
		Completion:    update.Completion,
	}, nil
}

// handleLoopDecide implements the loop_decide tool.
func (s *Server) handleLoopDecide(ctx context.Context, req *sdk.CallToolRequest, args LoopDecideInput) (*sdk.CallToolResult, LoopDecideOutput, error) {
	d := protocol.Decision{
		Timestamp:       time.Now().UTC(),
		ChoiceID:        args.ChoiceID,
		MentorInfluence: args.MentorInfluence,
		CognitiveImpact: args.CognitiveImpact,
		Confidence:      args.Confidence,
	}
	if err := d.Validate(); err != nil {
		return nil, LoopDecideOutput{}, err
	}

	state, err := s.loadOrInitState(ctx, args.AgentID)
	if err != nil {
		return nil, LoopDecideOutput{}, err
	}

	recorded := s.manager.RecordDecision(args.LoopID, d, args.ProtocolID)
	if !recorded {
		return nil, LoopDecideOutput{}, fmt.Errorf("record decision: %w", loop.ErrNotFound)
	}

	s.engine.ApplyDecisionImpact(state, args.CognitiveImpact, args.MentorInfluence)
	if err := s.repo.SaveState(ctx, state); err != nil {
		return nil, LoopDecideOutput{}, fmt.Errorf("persist state for %q: %w", args.AgentID, err)
	}

	memoryID, err := s.depositDecisionMemory(ctx, args.AgentID, args.LoopID, args.ProtocolID, d)
	if err != nil {
		return nil, LoopDecideOutput{}, err
	}

	s.events.Log(map[string]any{
		"event":  "decision",
		"agent":  args.AgentID,
		"loop":   args.LoopID,
		"choice": args.ChoiceID,
		"mentor": args.MentorInfluence,
		"score":  state.EvolutionScore,
	})

	return nil, LoopDecideOutput{
		Recorded:       true,
		MemoryID:       memoryID,
		EvolutionScore: state.EvolutionScore,
		DominantTraits: state.DominantTraits,
		ModuleLevels:   state.ModuleLevels(),
	}, nil
}

// depositDecisionMemory folds a recorded decision into the agent's
// memory bank and onto the loop's formed-memory list. Decisions without
// cognitive impact deposit nothing and return an empty id.
func (s *Server) depositDecisionMemory(ctx context.Context, agentID, loopID, protocolID string, d protocol.Decision) (string, error) {
	l, ok := s.manager.GetLoop(loopID)
	if !ok {
		return "", nil
	}
	mem, ok := memory.FromDecision(agentID, l.LoopNumber, d, protocolID, d.Timestamp)
	if !ok {
		return "", nil
	}

	bank, err := s.repo.LoadBank(ctx, agentID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		bank = memory.NewBank(agentID, s.app.Memory.Capacity)
	case err != nil:
		return "", fmt.Errorf("load bank for %q: %w", agentID, err)
	}

	bank.Add(mem)
	if err := s.repo.SaveBank(ctx, bank); err != nil {
		return "", fmt.Errorf("persist bank for %q: %w", agentID, err)
	}
	s.manager.FormMemory(loopID, mem)
	return mem.ID, nil
}

// handleLoopComplete implements the loop_complete tool.
func (s *Server) handleLoopComplete(ctx context.Context, req *sdk.CallToolRequest, args LoopCompleteInput) (*sdk.CallToolResult, LoopCompleteOutput, error) {
	state, err := s.loadOrInitState(ctx, args.AgentID)
	if err != nil {
		return nil, LoopCompleteOutput{}, err
	}

	done, err := s.manager.CompleteLoop(ctx, args.LoopID, state)
	if err != nil {
		return nil, LoopCompleteOutput{}, err
	}

	s.events.Log(map[string]any{
		"event": "loop_complete",
		"agent": args.AgentID,
		"loop":  args.LoopID,
		"stats": done.Stats,
	})

	return nil, LoopCompleteOutput{
		LoopNumber:   done.LoopNumber,
		Stats:        done.Stats,
		ReadyForNext: done.ReadyForNext,
	}, nil
}

// handleLoopBreakCheck implements the loop_break_check tool.
func (s *Server) handleLoopBreakCheck(ctx context.Context, req *sdk.CallToolRequest, args LoopBreakCheckInput) (*sdk.CallToolResult, LoopBreakCheckOutput, error) {
	state, err := s.loadOrInitState(ctx, args.AgentID)
	if err != nil {
		return nil, LoopBreakCheckOutput{}, err
	}

	check := s.manager.CheckBreakConditions(args.LoopID, state)
	return nil, LoopBreakCheckOutput{
		CanBreak:           check.CanBreak,
		Reason:             check.Reason,
		Conditions:         check.Conditions,
		ConditionsMet:      check.ConditionsMet,
		ConditionsRequired: check.ConditionsRequired,
	}, nil
}

// recentDecisionWindow bounds how far back mentor alignments count when
// deriving the environment from archived history.
const recentDecisionWindow = 20

// handleLoopEnvironment implements the loop_environment tool.
func (s *Server) handleLoopEnvironment(ctx context.Context, req *sdk.CallToolRequest, args LoopEnvironmentInput) (*sdk.CallToolResult, LoopEnvironmentOutput, error) {
	state, err := s.loadOrInitState(ctx, args.AgentID)
	if err != nil {
		return nil, LoopEnvironmentOutput{}, err
	}

	loopNumber := state.LoopNumber
	var recent []evolution.DecisionSummary
	if args.LoopID != "" {
		l, ok := s.manager.GetLoop(args.LoopID)
		if !ok {
			return nil, LoopEnvironmentOutput{}, fmt.Errorf("loop %q: %w", args.LoopID, loop.ErrNotFound)
		}
		loopNumber = l.LoopNumber
		for _, d := range l.Decisions {
			recent = append(recent, evolution.DecisionSummary{MentorInfluence: d.MentorInfluence})
		}
	} else {
		decisions, err := s.decisionHistory(ctx, args.AgentID)
		if err != nil {
			return nil, LoopEnvironmentOutput{}, err
		}
		if len(decisions) > recentDecisionWindow {
			decisions = decisions[len(decisions)-recentDecisionWindow:]
		}
		for _, d := range decisions {
			recent = append(recent, evolution.DecisionSummary{MentorInfluence: d.MentorInfluence})
		}
	}

	return nil, LoopEnvironmentOutput{
		LoopNumber: loopNumber,
		Mutations:  s.engine.EvolveLoopEnvironment(state, loopNumber, recent),
	}, nil
}

// handleAgentInsights implements the agent_insights tool.
func (s *Server) handleAgentInsights(ctx context.Context, req *sdk.CallToolRequest, args AgentInsightsInput) (*sdk.CallToolResult, AgentInsightsOutput, error) {
	state, err := s.loadOrInitState(ctx, args.AgentID)
	if err != nil {
		return nil, AgentInsightsOutput{}, err
	}

	var memories []memory.Memory
	bank, err := s.repo.LoadBank(ctx, args.AgentID)
	switch {
	case err == nil:
		memories = bank.Memories
	case errors.Is(err, storage.ErrNotFound):
		// No bank yet; insights run without memory signals.
	default:
		return nil, AgentInsightsOutput{}, fmt.Errorf("load bank for %q: %w", args.AgentID, err)
	}

	decisions, err := s.decisionHistory(ctx, args.AgentID)
	if err != nil {
		return nil, AgentInsightsOutput{}, err
	}

	return nil, AgentInsightsOutput{
		Insights:       s.engine.GenerateEvolutionInsights(state, memories),
		EvolutionScore: state.EvolutionScore,
		DominantTraits: state.DominantTraits,
		Pattern:        behavior.AnalyzePattern(args.AgentID, decisions),
	}, nil
}

// handleAgentAnalytics implements the agent_analytics tool.
func (s *Server) handleAgentAnalytics(ctx context.Context, req *sdk.CallToolRequest, args AgentAnalyticsInput) (*sdk.CallToolResult, AgentAnalyticsOutput, error) {
	analytics, err := s.manager.Analytics(ctx, args.AgentID)
	if err != nil {
		return nil, AgentAnalyticsOutput{}, err
	}
	return nil, AgentAnalyticsOutput{Analytics: analytics}, nil
}

// handleScenarioNext implements the scenario_next tool.
func (s *Server) handleScenarioNext(ctx context.Context, req *sdk.CallToolRequest, args ScenarioNextInput) (*sdk.CallToolResult, ScenarioNextOutput, error) {
	state, err := s.loadOrInitState(ctx, args.AgentID)
	if err != nil {
		return nil, ScenarioNextOutput{}, err
	}

	ptype := protocol.TypeEthicalDilemma
	if args.Type != "" {
		ptype = protocol.Type(args.Type)
	}
	difficulty := s.engine.CalculateProtocolDifficulty(state, ptype)

	decisions, err := s.decisionHistory(ctx, args.AgentID)
	if err != nil {
		return nil, ScenarioNextOutput{}, err
	}
	pattern := behavior.AnalyzePattern(args.AgentID, decisions)

	sc, err := s.gen.Generate(ctx, scenario.Request{
		AgentID:         args.AgentID,
		Difficulty:      difficulty,
		CognitiveFocus:  evolution.RelevantModules(ptype),
		DominantTraits:  state.DominantTraits,
		EvolutionScore:  state.EvolutionScore,
		DecisionPattern: string(pattern.Type),
	})
	if err != nil {
		// The configured generator is fail-soft; an error here means a
		// non-FailSoft generator was injected.
		return nil, ScenarioNextOutput{}, fmt.Errorf("generate scenario: %w", err)
	}

	p := sc.ToProtocol(ptype, difficulty)

	attached := false
	if args.LoopID != "" {
		attached = s.manager.AddProtocol(args.LoopID, p)
	}

	return nil, ScenarioNextOutput{Protocol: p, Attached: attached}, nil
}
