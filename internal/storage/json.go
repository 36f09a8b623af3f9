package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/vedsharma/apiclient/internal/state"
)

const stateFile = "state.json"

// jsonMu serializes updates within one process; the JSON backend has no
// cross-process locking
var jsonMu sync.Mutex

// JSONStorage keeps the whole state in a single JSON file
type JSONStorage struct {
	dataDir string
}

// NewJSONStorage creates a JSON storage instance under dataDir
func NewJSONStorage(dataDir string) (*JSONStorage, error) {
	dir, err := ensureDataDir(dataDir)
	if err != nil {
		return nil, err
	}
	return &JSONStorage{dataDir: dir}, nil
}

func (s *JSONStorage) path() string {
	return filepath.Join(s.dataDir, stateFile)
}

// Load reads the state file. A missing file yields a fresh state; an
// unreadable one is reported and also yields a fresh state.
func (s *JSONStorage) Load() (state.State, error) {
	data, err := os.ReadFile(s.path())
	if err != nil {
		if os.IsNotExist(err) {
			return state.New(), nil
		}
		return state.State{}, err
	}
	return decodeState(data, s.path()), nil
}

// Save writes the state file
func (s *JSONStorage) Save(st state.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	// Write a sibling file and rename it so readers never see a partial file
	tmp, err := os.CreateTemp(s.dataDir, stateFile+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(secureFileMode); err != nil {
		tmp.Close()
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path())
}

// Update loads, applies fn and saves
func (s *JSONStorage) Update(fn func(state.State) state.State) (state.State, error) {
	jsonMu.Lock()
	defer jsonMu.Unlock()

	st, err := s.Load()
	if err != nil {
		return state.State{}, err
	}
	next := fn(st)
	return next, s.Save(next)
}

// Close is a no-op
func (s *JSONStorage) Close() error {
	return nil
}

// decodeState overlays stored fields on a fresh state so settings missing
// from older files keep their defaults.
func decodeState(data []byte, source string) state.State {
	st := state.New()
	if err := json.Unmarshal(data, &st); err != nil {
		slog.Warn("Ignoring unreadable saved state", "source", source, "error", err)
		return state.New()
	}
	return st.Normalize()
}
