package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/config"
	"github.com/protoloop/loopcore/internal/evolution"
	"github.com/protoloop/loopcore/internal/logging"
	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/memory"
	"github.com/protoloop/loopcore/internal/protocol"
	"github.com/protoloop/loopcore/internal/storage"
)

// runtime bundles the pieces every lifecycle command needs. Each CLI
// invocation is a fresh process, so active loops are rehydrated from
// snapshot files under .loopcore/active/.
type runtime struct {
	root    string
	app     *config.Config
	repo    storage.Repository
	manager *loop.Manager
	engine  *evolution.Engine
	events  *logging.EventLogger
}

// openRuntime loads config and opens the project's SQLite store.
func openRuntime(cmd *cobra.Command) (*runtime, error) {
	root, _ := cmd.Flags().GetString("root")

	app, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	repo, err := storage.NewSQLiteRepository(root)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	return &runtime{
		root:    root,
		app:     app,
		repo:    repo,
		manager: loop.NewManager(loop.Config{DurationSeconds: app.Loop.DurationSeconds}, repo, nil),
		engine: evolution.NewEngine(evolution.Config{
			MutationThreshold:  app.Evolution.MutationThreshold,
			BreakthroughChance: app.Evolution.BreakthroughChance,
		}, nil),
		events: logging.NewEventLogger(filepath.Join(root, ".loopcore"), app.Logging.Level),
	}, nil
}

func (rt *runtime) Close() error {
	rt.events.Close()
	return rt.repo.Close()
}

// requireAgent reads the --agent flag and rejects an empty value.
func requireAgent(cmd *cobra.Command) (string, error) {
	agentID, _ := cmd.Flags().GetString("agent")
	if agentID == "" {
		return "", fmt.Errorf("--agent is required")
	}
	return agentID, nil
}

// loadOrInitState fetches an agent's cognitive state, creating and
// persisting the starting profile on first contact.
func (rt *runtime) loadOrInitState(ctx context.Context, agentID string) (*cognition.State, error) {
	state, err := rt.repo.LoadState(ctx, agentID)
	if err == nil {
		return state, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load state for %q: %w", agentID, err)
	}

	state = rt.engine.InitializeCognitiveState(agentID)
	if err := rt.repo.SaveState(ctx, state); err != nil {
		return nil, fmt.Errorf("persist initial state for %q: %w", agentID, err)
	}
	return state, nil
}

// decisionHistory flattens the archived loops into one ordered record
// list for behavioral analysis.
func (rt *runtime) decisionHistory(ctx context.Context, agentID string) ([]loop.DecisionRecord, error) {
	history, err := rt.repo.LoadHistory(ctx, agentID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history for %q: %w", agentID, err)
	}

	var records []loop.DecisionRecord
	for _, rec := range history {
		records = append(records, rec.Decisions...)
	}
	return records, nil
}

// depositDecisionMemory folds a recorded decision into the agent's
// memory bank and onto the loop's formed-memory list. Decisions without
// cognitive impact deposit nothing.
func (rt *runtime) depositDecisionMemory(ctx context.Context, agentID, loopID, protocolID string, d protocol.Decision) (string, error) {
	l, ok := rt.manager.GetLoop(loopID)
	if !ok {
		return "", nil
	}
	mem, ok := memory.FromDecision(agentID, l.LoopNumber, d, protocolID, d.Timestamp)
	if !ok {
		return "", nil
	}

	bank, err := rt.repo.LoadBank(ctx, agentID)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		bank = memory.NewBank(agentID, rt.app.Memory.Capacity)
	case err != nil:
		return "", fmt.Errorf("load bank for %q: %w", agentID, err)
	}

	bank.Add(mem)
	if err := rt.repo.SaveBank(ctx, bank); err != nil {
		return "", fmt.Errorf("persist bank for %q: %w", agentID, err)
	}
	rt.manager.FormMemory(loopID, mem)
	return mem.ID, nil
}

// activeLoopDir is where snapshots of in-flight loops live.
func activeLoopDir(root string) string {
	return filepath.Join(root, ".loopcore", "active")
}

func snapshotPath(root, loopID string) string {
	return filepath.Join(activeLoopDir(root), loopID+".json")
}

// saveSnapshot writes the active-loop snapshot so the next invocation
// can pick the loop back up.
func (rt *runtime) saveSnapshot(l loop.Loop) error {
	if err := os.MkdirAll(activeLoopDir(rt.root), 0o755); err != nil {
		return fmt.Errorf("create active loop directory: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode loop %q: %w", l.ID, err)
	}
	if err := os.WriteFile(snapshotPath(rt.root, l.ID), data, 0o644); err != nil {
		return fmt.Errorf("write loop snapshot: %w", err)
	}
	return nil
}

// restoreLoop rehydrates one active loop from its snapshot into the
// manager. A missing snapshot maps to loop.ErrNotFound.
func (rt *runtime) restoreLoop(loopID string) error {
	data, err := os.ReadFile(snapshotPath(rt.root, loopID))
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("loop %q: %w", loopID, loop.ErrNotFound)
		}
		return fmt.Errorf("read loop snapshot: %w", err)
	}

	var l loop.Loop
	if err := json.Unmarshal(data, &l); err != nil {
		return fmt.Errorf("decode loop snapshot %q: %w", loopID, err)
	}
	return rt.manager.Restore(l)
}

// resnapshot refreshes the snapshot from the manager's current view.
func (rt *runtime) resnapshot(loopID string) error {
	l, ok := rt.manager.GetLoop(loopID)
	if !ok {
		return fmt.Errorf("loop %q: %w", loopID, loop.ErrNotFound)
	}
	return rt.saveSnapshot(l)
}

// removeSnapshot drops the snapshot once a loop completes.
func (rt *runtime) removeSnapshot(loopID string) error {
	if err := os.Remove(snapshotPath(rt.root, loopID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove loop snapshot: %w", err)
	}
	return nil
}

// printJSON encodes v to the command's stdout.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
