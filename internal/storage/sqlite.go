package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"

	_ "modernc.org/sqlite"
)

const dbFile = "apicli.db"

// busyTimeoutMs is how long a connection waits on another process's lock
const busyTimeoutMs = 5000

// State sections, one row each
const (
	sectionCollections = "collections"
	sectionHistory     = "history"
	sectionSettings    = "settings"
	sectionTabs        = "tabs"
	sectionAliases     = "aliases"
	sectionUI          = "ui"
)

// uiState holds the scalar fields that have no section of their own
type uiState struct {
	DarkMode    bool   `json:"darkMode"`
	ActiveTabID string `json:"activeTabId,omitempty"`
}

// SQLiteStorage keeps each state section as a JSON document in SQLite
type SQLiteStorage struct {
	db      *sql.DB
	dataDir string
}

// NewSQLiteStorage opens (creating if needed) the database under dataDir and
// imports a JSON state file left by the JSON backend.
func NewSQLiteStorage(dataDir string) (*SQLiteStorage, error) {
	dir, err := ensureDataDir(dataDir)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, dbFile)
	if err := ensureSecureFile(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("%s?_pragma=busy_timeout(%d)", dbPath, busyTimeoutMs))
	if err != nil {
		return nil, err
	}

	s := &SQLiteStorage{db: db, dataDir: dir}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	if err := s.migrateFromJSON(); err != nil {
		// Migration errors shouldn't prevent startup
		slog.Warn("JSON state migration failed", "error", err)
	}

	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func (s *SQLiteStorage) initSchema() error {
	_, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS state (
		section TEXT PRIMARY KEY,
		data TEXT NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`)
	return err
}

// sqlExecer is satisfied by *sql.DB, *sql.Tx and *sql.Conn
type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Load assembles the state from its sections. Missing sections keep their
// defaults; unreadable ones are reported and skipped.
func (s *SQLiteStorage) Load() (state.State, error) {
	return loadSections(context.Background(), s.db)
}

// Save replaces every section in one transaction
func (s *SQLiteStorage) Save(st state.State) error {
	ctx := context.Background()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := saveSections(ctx, tx, st); err != nil {
		return err
	}
	return tx.Commit()
}

// Update runs load, fn and save under one write lock, so updates from
// concurrent processes are applied one after the other
func (s *SQLiteStorage) Update(fn func(state.State) state.State) (state.State, error) {
	ctx := context.Background()
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return state.State{}, err
	}
	defer conn.Close()

	// IMMEDIATE takes the write lock up front; a deferred transaction
	// could read, then fail to upgrade and lose the update
	if _, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE"); err != nil {
		return state.State{}, fmt.Errorf("begin update: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if _, err := conn.ExecContext(ctx, "ROLLBACK"); err != nil {
				slog.Warn("Rollback failed", "error", err)
			}
		}
	}()

	st, err := loadSections(ctx, conn)
	if err != nil {
		return state.State{}, err
	}
	next := fn(st)
	if err := saveSections(ctx, conn, next); err != nil {
		return state.State{}, err
	}
	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return state.State{}, fmt.Errorf("commit update: %w", err)
	}
	committed = true
	return next, nil
}

func loadSections(ctx context.Context, q sqlExecer) (state.State, error) {
	rows, err := q.QueryContext(ctx, "SELECT section, data FROM state")
	if err != nil {
		return state.State{}, err
	}
	defer rows.Close()

	st := state.New()
	for rows.Next() {
		var section, data string
		if err := rows.Scan(&section, &data); err != nil {
			return state.State{}, err
		}
		if err := decodeSection(&st, section, []byte(data)); err != nil {
			slog.Warn("Ignoring unreadable state section", "section", section, "error", err)
		}
	}
	if err := rows.Err(); err != nil {
		return state.State{}, err
	}

	return st.Normalize(), nil
}

func saveSections(ctx context.Context, e sqlExecer, st state.State) error {
	sections := map[string]any{
		sectionCollections: st.Collections,
		sectionHistory:     st.History,
		sectionSettings:    st.Settings,
		sectionTabs:        st.Tabs,
		sectionAliases:     st.Aliases,
		sectionUI:          uiState{DarkMode: st.DarkMode, ActiveTabID: st.ActiveTabID},
	}

	for section, value := range sections {
		data, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode %s: %w", section, err)
		}
		_, err = e.ExecContext(ctx, `
			INSERT INTO state (section, data, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
			ON CONFLICT(section) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
			section, string(data))
		if err != nil {
			return fmt.Errorf("save %s: %w", section, err)
		}
	}
	return nil
}

func decodeSection(st *state.State, section string, data []byte) error {
	switch section {
	case sectionCollections:
		var v []model.Collection
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		st.Collections = v
	case sectionHistory:
		var v []model.Request
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		st.History = v
	case sectionSettings:
		// Stored fields overlay the defaults
		v := model.DefaultSettings()
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		st.Settings = v
	case sectionTabs:
		var v []model.Tab
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		st.Tabs = v
	case sectionAliases:
		var v map[string]string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		st.Aliases = v
	case sectionUI:
		var v uiState
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		st.DarkMode = v.DarkMode
		st.ActiveTabID = v.ActiveTabID
	default:
		return errors.New("unknown section")
	}
	return nil
}

// migrateFromJSON imports state.json into an empty database and renames it
func (s *SQLiteStorage) migrateFromJSON() error {
	var count int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM state").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	jsonPath := filepath.Join(s.dataDir, stateFile)
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if err := s.Save(decodeState(data, jsonPath)); err != nil {
		return err
	}

	slog.Info("Migrated JSON state into SQLite", "from", jsonPath)
	return os.Rename(jsonPath, jsonPath+".migrated")
}
