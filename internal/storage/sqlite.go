package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/memory"
)

// SQLiteRepository persists agents to .loopcore/loopcore.db under the
// project root. SQLite works best with a single writer, so the
// connection pool is capped at one connection.
type SQLiteRepository struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLiteRepository opens (and creates if needed) the database under
// projectRoot/.loopcore.
func NewSQLiteRepository(projectRoot string) (*SQLiteRepository, error) {
	dataDir := filepath.Join(projectRoot, ".loopcore")
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create .loopcore directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "loopcore.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db}, nil
}

// SaveState upserts the JSON-encoded state for an agent.
func (r *SQLiteRepository) SaveState(ctx context.Context, state *cognition.State) error {
	if state.AgentID == "" {
		return fmt.Errorf("save state: agent id is required")
	}

	payload, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO agent_states (agent_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		state.AgentID, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save state for %q: %w", state.AgentID, err)
	}
	return nil
}

// LoadState fetches and decodes an agent's state.
func (r *SQLiteRepository) LoadState(ctx context.Context, agentID string) (*cognition.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM agent_states WHERE agent_id = ?`, agentID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("state for %q: %w", agentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load state for %q: %w", agentID, err)
	}

	var state cognition.State
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		return nil, fmt.Errorf("decode state for %q: %w", agentID, err)
	}
	return &state, nil
}

// SaveBank upserts the JSON-encoded memory bank for an agent.
func (r *SQLiteRepository) SaveBank(ctx context.Context, bank *memory.Bank) error {
	if bank.AgentID == "" {
		return fmt.Errorf("save bank: agent id is required")
	}

	payload, err := json.Marshal(bank)
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO memory_banks (agent_id, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(agent_id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		bank.AgentID, string(payload), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save bank for %q: %w", bank.AgentID, err)
	}
	return nil
}

// LoadBank fetches and decodes an agent's memory bank.
func (r *SQLiteRepository) LoadBank(ctx context.Context, agentID string) (*memory.Bank, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM memory_banks WHERE agent_id = ?`, agentID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("bank for %q: %w", agentID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("load bank for %q: %w", agentID, err)
	}

	var bank memory.Bank
	if err := json.Unmarshal([]byte(payload), &bank); err != nil {
		return nil, fmt.Errorf("decode bank for %q: %w", agentID, err)
	}
	return &bank, nil
}

// ArchiveLoop inserts a completed loop into the archive. Loop ids are
// deterministic per agent and number, so re-archiving replaces the row.
func (r *SQLiteRepository) ArchiveLoop(ctx context.Context, rec loop.Loop) error {
	if rec.AgentID == "" {
		return fmt.Errorf("archive loop: agent id is required")
	}

	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal loop: %w", err)
	}

	completedAt := time.Now().UTC()
	if rec.CompletedAt != nil {
		completedAt = *rec.CompletedAt
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO loop_archive (loop_id, agent_id, loop_number, payload, completed_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(loop_id) DO UPDATE SET
			payload = excluded.payload,
			completed_at = excluded.completed_at`,
		rec.ID, rec.AgentID, rec.LoopNumber, string(payload),
		completedAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("archive loop %q: %w", rec.ID, err)
	}
	return nil
}

// LoadHistory returns archived loops in loop-number order; a positive
// limit keeps only the most recent records.
func (r *SQLiteRepository) LoadHistory(ctx context.Context, agentID string, limit int) ([]loop.Loop, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Fetch newest-first so LIMIT trims from the old end, then reverse.
	sqlLimit := limit
	if sqlLimit <= 0 {
		sqlLimit = -1
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT payload FROM loop_archive
		WHERE agent_id = ?
		ORDER BY loop_number DESC
		LIMIT ?`, agentID, sqlLimit)
	if err != nil {
		return nil, fmt.Errorf("load history for %q: %w", agentID, err)
	}
	defer rows.Close()

	var history []loop.Loop
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan loop row: %w", err)
		}
		var rec loop.Loop
		if err := json.Unmarshal([]byte(payload), &rec); err != nil {
			return nil, fmt.Errorf("decode loop row: %w", err)
		}
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history for %q: %w", agentID, err)
	}

	for i, j := 0, len(history)-1; i < j; i, j = i+1, j-1 {
		history[i], history[j] = history[j], history[i]
	}
	return history, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
