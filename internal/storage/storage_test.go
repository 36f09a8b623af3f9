package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
)

func sampleState() state.State {
	s := state.New()
	s = state.Reduce(s, state.AddCollection{ID: "c1", Name: "users"})
	s = state.Reduce(s, state.SaveRequest{CollectionID: "c1", Request: model.Request{ID: "r1", Method: "GET", URL: "https://api.example.com/users"}})
	s = state.Reduce(s, state.AddToHistory{Request: model.Request{ID: "h1", Method: "POST", URL: "https://api.example.com/users"}.
		WithOutcome(model.RequestOutcome{Status: 201, StatusText: "Created", Time: 42, Timestamp: 1714564800000})})
	s = state.Reduce(s, state.AddTab{Tab: model.NewTab(model.Request{ID: "t1", Name: "Users"})})
	s = state.Reduce(s, state.SetAlias{Name: "api", URL: "https://api.example.com"})
	s = state.Reduce(s, state.SetDarkMode{Enabled: true})
	return s
}

func backends(t *testing.T) map[string]func(dir string) Store {
	return map[string]func(dir string) Store{
		BackendSQLite: func(dir string) Store {
			s, err := NewSQLiteStorage(dir)
			require.NoError(t, err)
			return s
		},
		BackendJSON: func(dir string) Store {
			s, err := NewJSONStorage(dir)
			require.NoError(t, err)
			return s
		},
	}
}

func TestStore_SaveAndLoad(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			store := open(dir)

			want := sampleState()
			require.NoError(t, store.Save(want))
			require.NoError(t, store.Close())

			store = open(dir)
			defer store.Close()

			got, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestStore_UpdateAppliesOnTopOfStoredState(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t.TempDir())
			defer store.Close()
			require.NoError(t, store.Save(sampleState()))

			got, err := store.Update(func(s state.State) state.State {
				return state.Reduce(s, state.SetAlias{Name: "local", URL: "http://localhost"})
			})
			require.NoError(t, err)
			assert.Equal(t, "https://api.example.com", got.Aliases["api"])

			loaded, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, got, loaded)
		})
	}
}

func TestStore_ConcurrentUpdatesAreNotLost(t *testing.T) {
	const writers, perWriter = 4, 3

	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()

			// One store per writer, as separate processes would have
			stores := make([]Store, writers)
			for i := range stores {
				stores[i] = open(dir)
				defer stores[i].Close()
			}

			var wg sync.WaitGroup
			for i, store := range stores {
				wg.Add(1)
				go func(i int, store Store) {
					defer wg.Done()
					for j := 0; j < perWriter; j++ {
						req := model.Request{ID: fmt.Sprintf("w%d-%d", i, j), Method: "GET", URL: "https://api.example.com"}
						_, err := store.Update(func(s state.State) state.State {
							return state.Reduce(s, state.AddToHistory{Request: req})
						})
						assert.NoError(t, err)
					}
				}(i, store)
			}
			wg.Wait()

			got, err := stores[0].Load()
			require.NoError(t, err)
			assert.Len(t, got.History, writers*perWriter)
		})
	}
}

func TestStore_LoadEmpty(t *testing.T) {
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := open(t.TempDir())
			defer store.Close()

			got, err := store.Load()
			require.NoError(t, err)
			assert.Equal(t, state.New(), got)
		})
	}
}

func TestJSONStorage_CorruptFileYieldsFreshState(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFile), []byte("{not json"), 0600))

	store, err := NewJSONStorage(dir)
	require.NoError(t, err)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, state.New(), got)
}

func TestJSONStorage_MissingSettingsKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	raw := `{"history":[],"collections":[],"settings":{"accentColor":"green"}}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, stateFile), []byte(raw), 0600))

	store, err := NewJSONStorage(dir)
	require.NoError(t, err)

	got, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, "green", got.Settings.AccentColor)
	assert.Equal(t, model.ThemeSystem, got.Settings.ThemeMode)
	assert.Equal(t, model.SidebarExpanded, got.Settings.SidebarState)
	assert.NotNil(t, got.Tabs)
}

func TestSQLiteStorage_MigratesJSONState(t *testing.T) {
	dir := t.TempDir()

	js, err := NewJSONStorage(dir)
	require.NoError(t, err)
	want := sampleState()
	require.NoError(t, js.Save(want))

	db, err := NewSQLiteStorage(dir)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Load()
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = os.Stat(filepath.Join(dir, stateFile))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(dir, stateFile+".migrated"))
	assert.NoError(t, err)
}

func TestSQLiteStorage_SecureFileMode(t *testing.T) {
	dir := t.TempDir()
	store, err := NewSQLiteStorage(dir)
	require.NoError(t, err)
	defer store.Close()

	info, err := os.Stat(filepath.Join(dir, dbFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(secureFileMode), info.Mode().Perm())
}

func TestOpen(t *testing.T) {
	store, err := Open(BackendJSON, t.TempDir())
	require.NoError(t, err)
	assert.IsType(t, &JSONStorage{}, store)

	_, err = Open("redis", t.TempDir())
	assert.Error(t, err)
}
