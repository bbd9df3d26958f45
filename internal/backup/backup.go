// Package backup exports and restores per-agent loopcore data: the
// cognitive state, the memory bank, and the archived loop history.
//
// A backup file is one plain-text JSON header line followed by the
// gzip-compressed JSON archive. The header carries a checksum of the
// uncompressed archive so corruption is caught before restore touches
// the store.
package backup

import (
	"bufio"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/protoloop/loopcore/internal/cognition"
	"github.com/protoloop/loopcore/internal/loop"
	"github.com/protoloop/loopcore/internal/memory"
	"github.com/protoloop/loopcore/internal/storage"
)

// FormatVersion identifies the backup file layout.
const FormatVersion = 1

// MaxArchiveSize caps decompressed archive data (200MB) so a corrupt or
// hostile file cannot exhaust memory.
const MaxArchiveSize = 200 * 1024 * 1024

// Header is the plain-text first line of a backup file.
type Header struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	AgentID   string    `json:"agent_id"`
	Checksum  string    `json:"checksum"`
	LoopCount int       `json:"loop_count"`
}

// Archive is the full exported record of one agent.
type Archive struct {
	Version   int              `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	AgentID   string           `json:"agent_id"`
	State     *cognition.State `json:"state"`
	Bank      *memory.Bank     `json:"bank,omitempty"`
	History   []loop.Loop      `json:"history"`
}

// DefaultDir returns the default backup directory (~/.loopcore/backups).
func DefaultDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(homeDir, ".loopcore", "backups"), nil
}

// DefaultFileName builds the timestamped name for an agent backup.
func DefaultFileName(agentID string, now time.Time) string {
	return fmt.Sprintf("loopcore-%s-%s.backup", agentID, now.UTC().Format("20060102-150405"))
}

// Backup exports one agent from the repository to outputPath.
func Backup(ctx context.Context, repo storage.Repository, agentID, outputPath string) (*Header, error) {
	state, err := repo.LoadState(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("load state for %q: %w", agentID, err)
	}

	bank, err := repo.LoadBank(ctx, agentID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("load bank for %q: %w", agentID, err)
	}

	history, err := repo.LoadHistory(ctx, agentID, 0)
	if err != nil {
		return nil, fmt.Errorf("load history for %q: %w", agentID, err)
	}

	archive := &Archive{
		Version:   FormatVersion,
		CreatedAt: time.Now().UTC(),
		AgentID:   agentID,
		State:     state,
		Bank:      bank,
		History:   history,
	}

	payload, err := json.Marshal(archive)
	if err != nil {
		return nil, fmt.Errorf("encode archive: %w", err)
	}

	sum := sha256.Sum256(payload)
	header := &Header{
		Version:   FormatVersion,
		CreatedAt: archive.CreatedAt,
		AgentID:   agentID,
		Checksum:  hex.EncodeToString(sum[:]),
		LoopCount: len(history),
	}

	if err := writeFile(outputPath, header, payload); err != nil {
		return nil, err
	}
	return header, nil
}

func writeFile(path string, header *Header, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	headerLine, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("encode header: %w", err)
	}
	if _, err := f.Write(append(headerLine, '\n')); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	zw := gzip.NewWriter(f)
	if _, err := zw.Write(payload); err != nil {
		return fmt.Errorf("compress archive: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return nil
}

// ReadHeader parses just the header line of a backup file.
func ReadHeader(path string) (*Header, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	return readHeader(bufio.NewReader(f))
}

func readHeader(r *bufio.Reader) (*Header, error) {
	line, err := r.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("read header line: %w", err)
	}

	var header Header
	if err := json.Unmarshal(line, &header); err != nil {
		return nil, fmt.Errorf("decode header: %w", err)
	}
	if header.Version != FormatVersion {
		return nil, fmt.Errorf("unsupported backup version %d", header.Version)
	}
	return &header, nil
}

// Read loads and verifies a backup file.
func Read(path string) (*Header, *Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open backup file: %w", err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	header, err := readHeader(br)
	if err != nil {
		return nil, nil, err
	}

	zr, err := gzip.NewReader(br)
	if err != nil {
		return nil, nil, fmt.Errorf("open archive stream: %w", err)
	}
	defer zr.Close()

	payload, err := io.ReadAll(io.LimitReader(zr, MaxArchiveSize+1))
	if err != nil {
		return nil, nil, fmt.Errorf("decompress archive: %w", err)
	}
	if len(payload) > MaxArchiveSize {
		return nil, nil, fmt.Errorf("archive exceeds %d bytes", MaxArchiveSize)
	}

	sum := sha256.Sum256(payload)
	if got := hex.EncodeToString(sum[:]); got != header.Checksum {
		return nil, nil, fmt.Errorf("checksum mismatch: file is corrupt")
	}

	var archive Archive
	if err := json.Unmarshal(payload, &archive); err != nil {
		return nil, nil, fmt.Errorf("decode archive: %w", err)
	}
	return header, &archive, nil
}

// Restore writes a verified backup back into the repository. State and
// bank are overwritten; archived loops upsert by loop id, so restoring
// over existing history is safe.
func Restore(ctx context.Context, repo storage.Repository, path string) (*Header, error) {
	header, archive, err := Read(path)
	if err != nil {
		return nil, err
	}

	if archive.State == nil || archive.State.AgentID == "" {
		return nil, fmt.Errorf("archive has no agent state")
	}

	if err := repo.SaveState(ctx, archive.State); err != nil {
		return nil, fmt.Errorf("restore state: %w", err)
	}
	if archive.Bank != nil {
		if err := repo.SaveBank(ctx, archive.Bank); err != nil {
			return nil, fmt.Errorf("restore bank: %w", err)
		}
	}
	for _, rec := range archive.History {
		if err := repo.ArchiveLoop(ctx, rec); err != nil {
			return nil, fmt.Errorf("restore loop %q: %w", rec.ID, err)
		}
	}
	return header, nil
}
