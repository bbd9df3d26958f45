package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/protocol"
)

func newStartCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the next loop iteration for an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			agentID, err := requireAgent(cmd)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			state, err := rt.loadOrInitState(cmd.Context(), agentID)
			if err != nil {
				return err
			}

			l := rt.manager.StartLoop(agentID, state)
			if err := rt.saveSnapshot(l); err != nil {
				return err
			}

			rt.events.Log(map[string]any{
				"event":  "loop_start",
				"agent":  agentID,
				"loop":   l.ID,
				"number": l.LoopNumber,
			})

			if jsonOut {
				return printJSON(cmd, l)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Started %s (loop %d, %ds)\n", l.ID, l.LoopNumber, l.DurationSeconds)
			fmt.Fprintf(out, "Evolution score: %.1f\n", state.EvolutionScore)
			for area, open := range l.Environment.Accessibility {
				if open {
					fmt.Fprintf(out, "  open: %s\n", area)
				}
			}
			return nil
		},
	}
}

func newTickCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tick",
		Short: "Advance a loop's timer",
		Long: `Advance the loop clock to the given elapsed wall time. When the timer
runs out the loop completes and the agent's loop counter is committed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			loopID, _ := cmd.Flags().GetString("loop")
			elapsed, _ := cmd.Flags().GetInt("elapsed")
			agentID, err := requireAgent(cmd)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if err := rt.restoreLoop(loopID); err != nil {
				return err
			}
			state, err := rt.loadOrInitState(ctx, agentID)
			if err != nil {
				return err
			}

			update, err := rt.manager.UpdateTimer(ctx, loopID, elapsed, state)
			if err != nil {
				return err
			}

			switch update.Status {
			case loop.TimerCompleted:
				if err := rt.removeSnapshot(loopID); err != nil {
					return err
				}
			case loop.TimerRunning:
				if err := rt.resnapshot(loopID); err != nil {
					return err
				}
			}

			if jsonOut {
				return printJSON(cmd, update)
			}

			out := cmd.OutOrStdout()
			if update.Status == loop.TimerCompleted {
				fmt.Fprintf(out, "Loop %d completed (%d decisions)\n",
					update.Completion.LoopNumber, update.Completion.Stats.DecisionsMade)
				return nil
			}
			fmt.Fprintf(out, "%ds remaining (%.0f%% elapsed)\n", update.TimeRemaining, update.Progress*100)
			return nil
		},
	}

	cmd.Flags().String("loop", "", "Loop ID")
	cmd.Flags().Int("elapsed", 0, "Elapsed seconds since the loop started")
	cmd.MarkFlagRequired("loop")

	return cmd
}

func newDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide",
		Short: "Record a decision and apply its cognitive impact",
		Long: `Record a decision made during a protocol. The cognitive impact is
applied to the agent's modules and the updated state is persisted.

Examples:
  loopcore decide --agent p1 --loop p1_loop_1 --protocol proto_1 \
    --choice c2 --confidence 0.8 --impact empathy=0.5 --impact logic=-0.1`,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			loopID, _ := cmd.Flags().GetString("loop")
			protocolID, _ := cmd.Flags().GetString("protocol")
			choiceID, _ := cmd.Flags().GetString("choice")
			mentor, _ := cmd.Flags().GetString("mentor")
			confidence, _ := cmd.Flags().GetFloat64("confidence")
			impactArgs, _ := cmd.Flags().GetStringArray("impact")
			agentID, err := requireAgent(cmd)
			if err != nil {
				return err
			}

			impact, err := parseImpact(impactArgs)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if err := rt.restoreLoop(loopID); err != nil {
				return err
			}
			state, err := rt.loadOrInitState(ctx, agentID)
			if err != nil {
				return err
			}

			d := protocol.Decision{
				Timestamp:       time.Now().UTC(),
				ChoiceID:        choiceID,
				MentorInfluence: mentor,
				CognitiveImpact: impact,
				Confidence:      confidence,
			}
			if err := d.Validate(); err != nil {
				return err
			}

			if !rt.manager.RecordDecision(loopID, d, protocolID) {
				return fmt.Errorf("record decision: %w", loop.ErrNotFound)
			}
			rt.engine.ApplyDecisionImpact(state, impact, mentor)

			if err := rt.repo.SaveState(ctx, state); err != nil {
				return fmt.Errorf("persist state: %w", err)
			}

			memoryID, err := rt.depositDecisionMemory(ctx, agentID, loopID, protocolID, d)
			if err != nil {
				return err
			}
			if err := rt.resnapshot(loopID); err != nil {
				return err
			}

			rt.events.Log(map[string]any{
				"event":      "decision",
				"agent":      agentID,
				"loop":       loopID,
				"protocol":   protocolID,
				"choice":     choiceID,
				"confidence": confidence,
				"score":      state.EvolutionScore,
			})

			if jsonOut {
				return printJSON(cmd, map[string]any{
					"recorded":        true,
					"memory_id":       memoryID,
					"evolution_score": state.EvolutionScore,
					"dominant_traits": state.DominantTraits,
					"module_levels":   state.ModuleLevels(),
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s (evolution score %.1f)\n", choiceID, state.EvolutionScore)
			return nil
		},
	}

	cmd.Flags().String("loop", "", "Loop ID")
	cmd.Flags().String("protocol", "", "Protocol ID the decision belongs to")
	cmd.Flags().String("choice", "", "Choice ID")
	cmd.Flags().String("mentor", "", "Mentor influencing the decision")
	cmd.Flags().Float64("confidence", 0.5, "Decision confidence in [0,1]")
	cmd.Flags().StringArray("impact", nil, "Cognitive impact as module=delta (repeatable)")
	cmd.MarkFlagRequired("loop")
	cmd.MarkFlagRequired("choice")

	return cmd
}

// parseImpact turns repeated module=delta flags into an impact map.
func parseImpact(args []string) (map[string]float64, error) {
	if len(args) == 0 {
		return nil, nil
	}
	impact := make(map[string]float64, len(args))
	for _, arg := range args {
		name, raw, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --impact %q (want module=delta)", arg)
		}
		delta, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --impact %q: %w", arg, err)
		}
		impact[name] = delta
	}
	return impact, nil
}

func newCompleteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "complete",
		Short: "Complete a loop and archive it",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			loopID, _ := cmd.Flags().GetString("loop")
			agentID, err := requireAgent(cmd)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			if err := rt.restoreLoop(loopID); err != nil {
				return err
			}
			state, err := rt.loadOrInitState(ctx, agentID)
			if err != nil {
				return err
			}

			done, err := rt.manager.CompleteLoop(ctx, loopID, state)
			if err != nil {
				return err
			}
			if err := rt.removeSnapshot(loopID); err != nil {
				return err
			}

			rt.events.Log(map[string]any{
				"event":  "loop_complete",
				"agent":  agentID,
				"loop":   loopID,
				"number": done.LoopNumber,
			})

			if jsonOut {
				return printJSON(cmd, done)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loop %d completed\n", done.LoopNumber)
			fmt.Fprintf(out, "  decisions: %d  protocols: %d  memories: %d\n",
				done.Stats.DecisionsMade, done.Stats.ProtocolsCompleted, done.Stats.MemoriesFormed)
			return nil
		},
	}

	cmd.Flags().String("loop", "", "Loop ID")
	cmd.MarkFlagRequired("loop")

	return cmd
}

func newBreakCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "break-check",
		Short: "Check how close an agent is to breaking the loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			loopID, _ := cmd.Flags().GetString("loop")
			agentID, err := requireAgent(cmd)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			if err := rt.restoreLoop(loopID); err != nil {
				return err
			}
			state, err := rt.loadOrInitState(cmd.Context(), agentID)
			if err != nil {
				return err
			}

			check := rt.manager.CheckBreakConditions(loopID, state)

			if jsonOut {
				return printJSON(cmd, check)
			}

			out := cmd.OutOrStdout()
			if check.CanBreak {
				fmt.Fprintf(out, "BREAK POSSIBLE (%d/%d conditions met)\n", check.ConditionsMet, check.ConditionsRequired)
			} else {
				fmt.Fprintf(out, "Not yet (%d/%d conditions met)\n", check.ConditionsMet, check.ConditionsRequired)
			}
			for name, ok := range check.Conditions {
				marker := " "
				if ok {
					marker = "x"
				}
				fmt.Fprintf(out, "  [%s] %s\n", marker, name)
			}
			return nil
		},
	}

	cmd.Flags().String("loop", "", "Loop ID")
	cmd.MarkFlagRequired("loop")

	return cmd
}
