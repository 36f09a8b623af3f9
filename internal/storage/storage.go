package storage

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/vedsharma/apiclient/internal/state"
)

// Backend names accepted by Open
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

const (
	// Secure file permissions - owner read/write only
	secureFileMode = 0600 // -rw-------
	secureDirMode  = 0700 // drwx------
)

// Store persists the application state as a whole
type Store interface {
	Load() (state.State, error)
	Save(s state.State) error
	// Update applies fn to the stored state and saves the result
	// without interleaving with other updates
	Update(fn func(state.State) state.State) (state.State, error)
	Close() error
}

// Open returns the store for backend rooted at dataDir
func Open(backend, dataDir string) (Store, error) {
	switch backend {
	case BackendSQLite, "":
		return NewSQLiteStorage(dataDir)
	case BackendJSON:
		return NewJSONStorage(dataDir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// DefaultDataDir is ~/.apicli
func DefaultDataDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".apicli"), nil
}

func ensureDataDir(dataDir string) (string, error) {
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return "", err
		}
		dataDir = dir
	}
	if err := os.MkdirAll(dataDir, secureDirMode); err != nil {
		return "", fmt.Errorf("create data directory: %w", err)
	}
	return dataDir, nil
}

// ensureSecureFile creates a file with secure permissions if it doesn't exist,
// or fixes permissions if it does. Creating it up front avoids a window in
// which the file exists with default permissions.
func ensureSecureFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY, secureFileMode)
		if err != nil {
			return fmt.Errorf("failed to create secure file: %w", err)
		}
		return f.Close()
	}
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	if info.Mode().Perm() != secureFileMode {
		if err := os.Chmod(path, secureFileMode); err != nil {
			return fmt.Errorf("failed to set secure permissions: %w", err)
		}
	}
	return nil
}
