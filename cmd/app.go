package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/env"
	httpclient "github.com/vedsharma/apiclient/internal/http"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
	"github.com/vedsharma/apiclient/internal/storage"
)

// loadState reads the persisted state and refreshes the system dark mode
func loadState() (state.State, error) {
	store, err := storage.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return state.State{}, fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	st, err := store.Load()
	if err != nil {
		return state.State{}, fmt.Errorf("load state: %w", err)
	}

	if st.Settings.ThemeMode == model.ThemeSystem {
		st = state.Reduce(st, state.SetDarkMode{Enabled: prefersDark()})
	}
	return st, nil
}

// dispatch applies actions to the stored state in one atomic update, so
// concurrent invocations never overwrite each other's changes
func dispatch(actions ...state.Action) (state.State, error) {
	store, err := storage.Open(cfg.Storage, cfg.DataDir)
	if err != nil {
		return state.State{}, fmt.Errorf("open storage: %w", err)
	}
	defer store.Close()

	dark := prefersDark()
	st, err := store.Update(func(st state.State) state.State {
		if st.Settings.ThemeMode == model.ThemeSystem {
			st = state.Reduce(st, state.SetDarkMode{Enabled: dark})
		}
		for _, a := range actions {
			st = state.Reduce(st, a)
		}
		return st
	})
	if err != nil {
		return st, fmt.Errorf("save state: %w", err)
	}
	return st, nil
}

// prefersDark reads the terminal background from COLORFGBG ("fg;bg")
func prefersDark() bool {
	v := os.Getenv("COLORFGBG")
	if v == "" {
		return false
	}
	parts := strings.Split(v, ";")
	bg, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return false
	}
	return bg < 7 || bg == 8
}

func newClient() *httpclient.Client {
	return httpclient.NewClient(
		httpclient.WithMaxResponseBytes(cfg.HTTP.MaxResponseBytes),
		httpclient.WithMetadataBlocking(cfg.BlockMetadata()),
		httpclient.WithLogger(slog.Default()),
	)
}

// prepare resolves aliases and expands environment variables, leaving req
// untouched.
func prepare(req model.Request, st state.State, envName string) (model.Request, error) {
	out := req.Clone()
	out.URL = resolveAlias(out.URL, st.Aliases)

	var environment *model.Environment
	if envName != "" {
		e, err := st.Environment(envName)
		if err != nil {
			return out, err
		}
		environment = &e
	} else if e, ok := st.Settings.ActiveEnvironment(); ok {
		environment = e
	}

	if environment != nil {
		lookup := env.FromEnvironment(*environment)
		out = env.Apply(out, lookup)
		if missing := env.Unresolved(out.URL+out.Body, lookup); len(missing) > 0 {
			slog.Warn("Unresolved environment variables", "environment", environment.Name, "names", missing)
		}
	}
	return out, nil
}

// resolveAlias expands a leading alias name into its base URL.
// Full URLs and unknown names are returned as-is.
func resolveAlias(url string, aliases map[string]string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}

	aliasName, path, _ := strings.Cut(url, "/")
	baseURL, exists := aliases[aliasName]
	if !exists {
		return url
	}

	baseURL = strings.TrimSuffix(baseURL, "/")
	path = strings.TrimPrefix(path, "/")
	if path == "" {
		return baseURL
	}
	return baseURL + "/" + path
}

func verbose(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}

func shortRef(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
