package backup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/protoloop/loopcore/internal/storage"
)

// writeBackups drops n real backup files into dir.
func writeBackups(t *testing.T, dir string, n int) []string {
	t.Helper()
	repo := storage.NewInMemoryRepository()
	seedAgent(t, repo, "p1", 1)

	var paths []string
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, DefaultFileName("p1", time.Date(2026, 3, 1, 10, i, 0, 0, time.UTC)))
		if _, err := Backup(context.Background(), repo, "p1", path); err != nil {
			t.Fatalf("Backup %d: %v", i, err)
		}
		paths = append(paths, path)
	}
	return paths
}

func TestList_SortsNewestFirst(t *testing.T) {
	dir := t.TempDir()
	writeBackups(t, dir, 3)

	backups, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("listed %d backups, want 3", len(backups))
	}
	for i := 1; i < len(backups); i++ {
		if backups[i].CreatedAt.After(backups[i-1].CreatedAt) {
			t.Errorf("backups out of order at %d", i)
		}
	}
}

func TestList_MissingDirIsEmpty(t *testing.T) {
	backups, err := List(filepath.Join(t.TempDir(), "nope"))
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 0 {
		t.Errorf("listed %d backups, want 0", len(backups))
	}
}

func TestList_SkipsForeignFiles(t *testing.T) {
	dir := t.TempDir()
	writeBackups(t, dir, 1)
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hi"), 0o644); err != nil {
		t.Fatalf("write foreign file: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "junk.backup"), []byte("not a header"), 0o644); err != nil {
		t.Fatalf("write junk file: %v", err)
	}

	backups, err := List(dir)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(backups) != 1 {
		t.Errorf("listed %d backups, want 1", len(backups))
	}
}

func TestPrune_CountPolicy(t *testing.T) {
	dir := t.TempDir()
	writeBackups(t, dir, 4)

	deleted, err := Prune(dir, CountPolicy{MaxCount: 2})
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if len(deleted) != 2 {
		t.Errorf("deleted %d backups, want 2", len(deleted))
	}

	remaining, _ := List(dir)
	if len(remaining) != 2 {
		t.Errorf("remaining = %d backups, want 2", len(remaining))
	}
}

func TestAgePolicy(t *testing.T) {
	now := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	backups := []Info{
		{Path: "new", CreatedAt: now.Add(-time.Hour)},
		{Path: "old", CreatedAt: now.Add(-48 * time.Hour)},
	}

	p := AgePolicy{MaxAge: 24 * time.Hour, now: func() time.Time { return now }}
	keep := p.Apply(backups)
	if len(keep) != 1 || keep[0].Path != "new" {
		t.Errorf("keep = %+v, want only the new backup", keep)
	}
}
