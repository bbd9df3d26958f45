package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/protoloop/loopcore/internal/behavior"
	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/memory"
	"github.com/protoloop/loopcore/internal/storage"
	"github.com/protoloop/loopcore/internal/visualization"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show an agent's cognitive state",
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

			if jsonOut {
				return printJSON(cmd, state)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Agent %s (loop %d)\n", state.AgentID, state.LoopNumber)
			fmt.Fprintf(out, "Evolution score: %.1f\n", state.EvolutionScore)
			if len(state.DominantTraits) > 0 {
				fmt.Fprintf(out, "Dominant traits: %s\n", strings.Join(state.DominantTraits, ", "))
			}
			fmt.Fprintln(out, "Modules:")
			for _, name := range cognition.ModuleNames {
				m, ok := state.Modules[name]
				if !ok {
					continue
				}
				fmt.Fprintf(out, "  %-12s %6.1f  %s\n", name, m.Level, m.Status)
			}
			return nil
		},
	}
}

func newTreeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Visualize an agent's neural tree",
		Long:  `Output the agent's neural tree in DOT (Graphviz) or JSON format.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			agentID, err := requireAgent(cmd)
			if err != nil {
				return err
			}

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			state, err := rt.repo.LoadState(cmd.Context(), agentID)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					return fmt.Errorf("unknown agent %q (run 'loopcore init --agent %s' first)", agentID, agentID)
				}
				return fmt.Errorf("load state: %w", err)
			}

			tree := state.NeuralTreeExport()
			switch visualization.Format(format) {
			case visualization.FormatDOT:
				fmt.Fprint(cmd.OutOrStdout(), visualization.RenderDOT(tree))
			case visualization.FormatJSON:
				return printJSON(cmd, visualization.RenderJSON(tree))
			default:
				return fmt.Errorf("unsupported format %q (use 'dot' or 'json')", format)
			}
			return nil
		},
	}

	cmd.Flags().String("format", "dot", "Output format: dot or json")

	return cmd
}

func newInsightsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "insights",
		Short: "Show evolution insights and the behavioral pattern for an agent",
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

			ctx := cmd.Context()
			state, err := rt.loadOrInitState(ctx, agentID)
			if err != nil {
				return err
			}

			var memories []memory.Memory
			bank, err := rt.repo.LoadBank(ctx, agentID)
			switch {
			case err == nil:
				memories = bank.Memories
			case errors.Is(err, storage.ErrNotFound):
				// No memories formed yet.
			default:
				return fmt.Errorf("load memory bank: %w", err)
			}

			history, err := rt.decisionHistory(ctx, agentID)
			if err != nil {
				return err
			}

			insights := rt.engine.GenerateEvolutionInsights(state, memories)
			pattern := behavior.AnalyzePattern(agentID, history)

			if jsonOut {
				return printJSON(cmd, map[string]any{
					"insights":        insights,
					"evolution_score": state.EvolutionScore,
					"dominant_traits": state.DominantTraits,
					"pattern":         pattern,
				})
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Agent %s\n", agentID)
			fmt.Fprintf(out, "Decision pattern: %s (confidence %.2f, consistency %.2f)\n",
				pattern.Type, pattern.AvgConfidence, pattern.ConsistencyScore)
			for _, line := range insights {
				fmt.Fprintf(out, "  - %s\n", line)
			}
			return nil
		},
	}
}

func newAnalyticsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "analytics",
		Short: "Show loop analytics for an agent",
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

			analytics, err := rt.manager.Analytics(cmd.Context(), agentID)
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(cmd, analytics)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loops completed:  %d\n", analytics.TotalLoops)
			fmt.Fprintf(out, "Decisions made:   %d\n", analytics.TotalDecisions)
			fmt.Fprintf(out, "Protocols run:    %d\n", analytics.TotalProtocols)
			fmt.Fprintf(out, "Items collected:  %d\n", analytics.ItemsCollected)
			fmt.Fprintf(out, "Memories formed:  %d\n", analytics.MemoriesFormed)
			fmt.Fprintf(out, "Average loop:     %.1fs\n", analytics.AverageLoopTime)
			fmt.Fprintf(out, "Trend:            %s\n", analytics.Trend)
			for mentor, count := range analytics.MentorAffinity {
				fmt.Fprintf(out, "  mentor %-10s %d\n", mentor, count)
			}
			return nil
		},
	}
}

func newCompareCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compare <agent1> <agent2>",
		Short: "Compare two agents' consciousness trees",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			rt, err := openRuntime(cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			ctx := cmd.Context()
			s1, err := rt.repo.LoadState(ctx, args[0])
			if err != nil {
				return fmt.Errorf("load state for %q: %w", args[0], err)
			}
			s2, err := rt.repo.LoadState(ctx, args[1])
			if err != nil {
				return fmt.Errorf("load state for %q: %w", args[1], err)
			}

			result := rt.engine.CompareConsciousnessTrees(s1, s2)

			if jsonOut {
				return printJSON(cmd, result)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Similarity:        %.2f\n", result.SimilarityScore)
			fmt.Fprintf(out, "Evolution distance: %.1f\n", result.EvolutionDistance)
			if len(result.SharedStrengths) > 0 {
				fmt.Fprintf(out, "Shared strengths:  %s\n", strings.Join(result.SharedStrengths, ", "))
			}
			if len(result.ComplementaryModules) > 0 {
				fmt.Fprintf(out, "Complementary:     %s\n", strings.Join(result.ComplementaryModules, ", "))
			}
			for _, d := range result.DivergentTraits {
				fmt.Fprintf(out, "  divergent %-12s %.1f vs %.1f\n", d.Module, d.Level1, d.Level2)
			}
			return nil
		},
	}
}
