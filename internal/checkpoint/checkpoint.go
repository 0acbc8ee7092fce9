// Package checkpoint persists batch progress so an interrupted run can resume
// where it stopped.
package checkpoint

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// State is the persisted progress of one batch run.
type State struct {
	// RunID identifies the batch run across restarts.
	RunID string `json:"run_id"`
	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`
	// UpdatedAt is when the state was last saved.
	UpdatedAt time.Time `json:"updated_at"`
	// Processed lists the video ids already handled, in order.
	Processed []string `json:"processed"`
}

// MarkProcessed records a handled video id, once.
func (s *State) MarkProcessed(videoID string) {
	for _, id := range s.Processed {
		if id == videoID {
			return
		}
	}
	s.Processed = append(s.Processed, videoID)
}

// IsProcessed reports whether the id was handled in this run.
func (s *State) IsProcessed(videoID string) bool {
	for _, id := range s.Processed {
		if id == videoID {
			return true
		}
	}
	return false
}

// Store reads and writes checkpoint state at a fixed path.
type Store struct {
	path string
}

// NewStore creates a store backed by the given file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the persisted state. A missing file starts a fresh run.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return &State{
			RunID:     uuid.NewString(),
			StartedAt: time.Now().UTC(),
		}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read checkpoint %s: %w", s.path, err)
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", s.path, err)
	}
	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}
	return &state, nil
}

// Save writes the state atomically: temp file in the same directory, then
// rename. A crash mid-write leaves the previous checkpoint intact.
func (s *Store) Save(state *State) error {
	state.UpdatedAt = time.Now().UTC()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode checkpoint: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create checkpoint temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write checkpoint: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace checkpoint: %w", err)
	}
	return nil
}

// Clear removes the checkpoint file. Missing files are not an error.
func (s *Store) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
