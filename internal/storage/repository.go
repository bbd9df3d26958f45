// Package storage persists agent state, memory banks, and archived
// loops. Two implementations exist: an in-memory store for tests and
// ephemeral runs, and a SQLite store for durable per-project data.
package storage

import (
	"context"
	"errors"

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/memory"
)

// ErrNotFound is returned when a load misses.
var ErrNotFound = errors.New("not found")

// Repository is the full persistence surface. It is a superset of
// loop.Repository so any implementation can back a loop.Manager.
type Repository interface {
	SaveState(ctx context.Context, state *cognition.State) error
	LoadState(ctx context.Context, agentID string) (*cognition.State, error)

	SaveBank(ctx context.Context, bank *memory.Bank) error
	LoadBank(ctx context.Context, agentID string) (*memory.Bank, error)

	ArchiveLoop(ctx context.Context, rec loop.Loop) error
	// LoadHistory returns archived loops in chronological order. A
	// positive limit keeps only the most recent records.
	LoadHistory(ctx context.Context, agentID string, limit int) ([]loop.Loop, error)

	Close() error
}
