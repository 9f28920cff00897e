package dismissed

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDismissAndReappear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dismissed.json")
	store, err := NewStoreAt(path)
	if err != nil {
		t.Fatalf("NewStoreAt() error: %v", err)
	}

	updated := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	key := "golang/go#123"

	if !store.ShouldShow(key, updated) {
		t.Error("unknown issue should be shown")
	}
	if err := store.Dismiss(key, updated); err != nil {
		t.Fatalf("Dismiss() error: %v", err)
	}
	if store.ShouldShow(key, updated) {
		t.Error("dismissed issue without new activity should be hidden")
	}
	if !store.ShouldShow(key, updated.Add(time.Minute)) {
		t.Error("dismissed issue with new activity should be shown")
	}

	reopened, err := NewStoreAt(path)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	if reopened.Count() != 1 || reopened.ShouldShow(key, updated) {
		t.Error("dismissal should persist across store instances")
	}

	if err := reopened.Restore(key); err != nil {
		t.Fatalf("Restore() error: %v", err)
	}
	if !reopened.ShouldShow(key, updated) {
		t.Error("restored issue should be shown")
	}
}

func TestReset(t *testing.T) {
	store, err := NewStoreAt(filepath.Join(t.TempDir(), "d.json"))
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Dismiss("a/b#1", time.Now())
	_ = store.Dismiss("a/b#2", time.Now())
	if err := store.Reset(); err != nil {
		t.Fatalf("Reset() error: %v", err)
	}
	if store.Count() != 0 {
		t.Errorf("Count() = %d after Reset", store.Count())
	}
}

func TestLoadTolerantOfBadFiles(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"null", "null"},
		{"empty object", "{}"},
		{"corrupt", "{not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "dismissed.json")
			if err := os.WriteFile(path, []byte(tt.content), 0o600); err != nil {
				t.Fatal(err)
			}
			store, err := NewStoreAt(path)
			if err != nil {
				t.Fatalf("NewStoreAt() error: %v", err)
			}
			if err := store.Dismiss("a/b#1", time.Now()); err != nil {
				t.Fatalf("Dismiss() error: %v", err)
			}
			if store.Count() != 1 {
				t.Errorf("Count() = %d, want 1", store.Count())
			}
		})
	}
}
