package checkpoint

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileStartsFreshRun(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "checkpoint.json"))

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if state.RunID == "" {
		t.Error("fresh state must carry a run id")
	}
	if len(state.Processed) != 0 {
		t.Errorf("fresh state has %d processed ids", len(state.Processed))
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewStore(path)

	state, err := store.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	state.MarkProcessed("aaaaaaaaaaa")
	state.MarkProcessed("bbbbbbbbbbb")
	state.MarkProcessed("aaaaaaaaaaa")

	if err := store.Save(state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after save error = %v", err)
	}
	if loaded.RunID != state.RunID {
		t.Errorf("RunID = %s, want %s", loaded.RunID, state.RunID)
	}
	if len(loaded.Processed) != 2 {
		t.Errorf("Processed = %v, want 2 unique ids", loaded.Processed)
	}
	if !loaded.IsProcessed("bbbbbbbbbbb") || loaded.IsProcessed("ccccccccccc") {
		t.Error("IsProcessed() wrong after round trip")
	}
	if loaded.UpdatedAt.IsZero() {
		t.Error("Save() must stamp UpdatedAt")
	}
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	store := NewStore(path)

	state, _ := store.Load()
	if err := store.Save(state); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Fatalf("Clear() error = %v", err)
	}
	if err := store.Clear(); err != nil {
		t.Errorf("Clear() on missing file = %v, want nil", err)
	}

	fresh, err := store.Load()
	if err != nil {
		t.Fatalf("Load() after clear error = %v", err)
	}
	if state.RunID == fresh.RunID {
		t.Error("cleared store must start a new run")
	}
}
