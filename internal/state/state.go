// Package state holds the persisted application state and the pure reducer
// that evolves it.
package state

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/vedsharma/apiclient/internal/model"
)

// HistoryLimit is the maximum number of history entries retained
const HistoryLimit = 20

// ErrNotFound is returned by lookups that match nothing
var ErrNotFound = errors.New("not found")

// State is everything the client persists between runs
type State struct {
	Collections []model.Collection `json:"collections"`
	// History is ordered newest first
	History     []model.Request   `json:"history"`
	DarkMode    bool              `json:"darkMode"`
	Settings    model.Settings    `json:"settings"`
	Tabs        []model.Tab       `json:"tabs"`
	ActiveTabID string            `json:"activeTabId,omitempty"`
	Aliases     map[string]string `json:"aliases"`
}

// New returns the state of a fresh installation
func New() State {
	return State{
		Collections: []model.Collection{},
		History:     []model.Request{},
		Settings:    model.DefaultSettings(),
		Tabs:        []model.Tab{},
		Aliases:     map[string]string{},
	}
}

// Normalize replaces nil collections left by partial decoding with empty ones
func (s State) Normalize() State {
	if s.Collections == nil {
		s.Collections = []model.Collection{}
	}
	if s.History == nil {
		s.History = []model.Request{}
	}
	if s.Tabs == nil {
		s.Tabs = []model.Tab{}
	}
	if s.Aliases == nil {
		s.Aliases = map[string]string{}
	}
	if s.Settings.Environments == nil {
		s.Settings.Environments = []model.Environment{}
	}
	return s
}

// HistoryEntry finds a history entry by id, id prefix, or 1-based index
func (s State) HistoryEntry(ref string) (model.Request, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(s.History) {
		return s.History[n-1], nil
	}
	for _, req := range s.History {
		if req.ID == ref {
			return req, nil
		}
	}
	var match *model.Request
	for i := range s.History {
		if strings.HasPrefix(s.History[i].ID, ref) {
			if match != nil {
				return model.Request{}, fmt.Errorf("history id prefix %q is ambiguous", ref)
			}
			match = &s.History[i]
		}
	}
	if match == nil {
		return model.Request{}, fmt.Errorf("%w: history entry %q", ErrNotFound, ref)
	}
	return *match, nil
}

// SearchHistory returns the entries whose name, URL or method contains
// query, ignoring case, newest first. An empty query matches everything.
func (s State) SearchHistory(query string) []model.Request {
	q := strings.ToLower(strings.TrimSpace(query))
	matches := []model.Request{}
	for _, req := range s.History {
		if strings.Contains(strings.ToLower(req.Name), q) ||
			strings.Contains(strings.ToLower(req.URL), q) ||
			strings.Contains(strings.ToLower(req.Method), q) {
			matches = append(matches, req)
		}
	}
	return matches
}

// Collection finds a collection by id or name
func (s State) Collection(ref string) (model.Collection, error) {
	for _, c := range s.Collections {
		if c.ID == ref {
			return c, nil
		}
	}
	for _, c := range s.Collections {
		if c.Name == ref {
			return c, nil
		}
	}
	return model.Collection{}, fmt.Errorf("%w: collection %q", ErrNotFound, ref)
}

// Tab finds an open tab by id, id prefix, or 1-based position
func (s State) Tab(ref string) (model.Tab, error) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(s.Tabs) {
		return s.Tabs[n-1], nil
	}
	for _, tab := range s.Tabs {
		if tab.ID == ref || strings.HasPrefix(tab.ID, ref) {
			return tab, nil
		}
	}
	return model.Tab{}, fmt.Errorf("%w: tab %q", ErrNotFound, ref)
}

// ActiveTab returns the active tab, if any
func (s State) ActiveTab() (model.Tab, bool) {
	for _, tab := range s.Tabs {
		if tab.ID == s.ActiveTabID {
			return tab, true
		}
	}
	return model.Tab{}, false
}

// Environment finds an environment by id or name
func (s State) Environment(ref string) (model.Environment, error) {
	for _, e := range s.Settings.Environments {
		if e.ID == ref || e.Name == ref {
			return e, nil
		}
	}
	return model.Environment{}, fmt.Errorf("%w: environment %q", ErrNotFound, ref)
}
