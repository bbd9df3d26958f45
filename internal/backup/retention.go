package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Info holds per-file metadata for retention decisions.
type Info struct {
	Path      string
	Size      int64
	CreatedAt time.Time
	AgentID   string
}

// Policy decides which backups to keep. Input is sorted newest-first.
type Policy interface {
	Apply(backups []Info) (keep []Info)
}

// CountPolicy keeps the N most recent backups.
type CountPolicy struct {
	MaxCount int
}

func (p CountPolicy) Apply(backups []Info) []Info {
	if len(backups) <= p.MaxCount {
		return backups
	}
	return backups[:p.MaxCount]
}

// AgePolicy keeps backups newer than MaxAge.
type AgePolicy struct {
	MaxAge time.Duration

	now func() time.Time
}

func (p AgePolicy) Apply(backups []Info) []Info {
	nowFunc := p.now
	if nowFunc == nil {
		nowFunc = time.Now
	}
	cutoff := nowFunc().Add(-p.MaxAge)

	var keep []Info
	for _, b := range backups {
		if b.CreatedAt.After(cutoff) {
			keep = append(keep, b)
		}
	}
	return keep
}

// List scans a directory for backup files, newest first. Files whose
// header cannot be parsed are skipped.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".backup" {
			continue
		}
		path := filepath.Join(dir, entry.Name())

		header, err := ReadHeader(path)
		if err != nil {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		backups = append(backups, Info{
			Path:      path,
			Size:      fi.Size(),
			CreatedAt: header.CreatedAt,
			AgentID:   header.AgentID,
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Prune applies a retention policy to a directory and deletes everything
// the policy does not keep. Returns the deleted files.
func Prune(dir string, policy Policy) ([]Info, error) {
	backups, err := List(dir)
	if err != nil {
		return nil, err
	}

	keep := policy.Apply(backups)
	kept := make(map[string]bool, len(keep))
	for _, b := range keep {
		kept[b.Path] = true
	}

	var deleted []Info
	for _, b := range backups {
		if kept[b.Path] {
			continue
		}
		if err := os.Remove(b.Path); err != nil {
			return deleted, fmt.Errorf("delete %s: %w", b.Path, err)
		}
		deleted = append(deleted, b)
	}
	return deleted, nil
}
