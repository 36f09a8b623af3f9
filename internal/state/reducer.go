package state

import (
	"github.com/google/uuid"

	"github.com/vedsharma/apiclient/internal/model"
)

// Reduce returns the state that results from applying a to s. It never
// modifies s: every changed slice or map is rebuilt, unchanged ones are shared.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetDarkMode:
		s.DarkMode = a.Enabled

	case AddToHistory:
		history := make([]model.Request, 0, len(s.History)+1)
		history = append(history, a.Request.Clone())
		for _, req := range s.History {
			if req.ID != a.Request.ID {
				history = append(history, req)
			}
		}
		if len(history) > HistoryLimit {
			history = history[:HistoryLimit]
		}
		s.History = history

	case ClearHistory:
		s.History = []model.Request{}

	case AddCollection:
		id := a.ID
		if id == "" {
			id = uuid.NewString()
		}
		collections := append(copyCollections(s.Collections), model.Collection{
			ID:       id,
			Name:     a.Name,
			Requests: []model.Request{},
		})
		s.Collections = collections

	case RenameCollection:
		s.Collections = mapCollection(s.Collections, a.ID, func(c model.Collection) model.Collection {
			c.Name = a.Name
			return c
		})

	case DeleteCollection:
		collections := make([]model.Collection, 0, len(s.Collections))
		for _, c := range s.Collections {
			if c.ID != a.ID {
				collections = append(collections, c)
			}
		}
		s.Collections = collections

	case SaveRequest:
		s.Collections = mapCollection(s.Collections, a.CollectionID, func(c model.Collection) model.Collection {
			requests := make([]model.Request, len(c.Requests), len(c.Requests)+1)
			copy(requests, c.Requests)
			if i := c.FindRequest(a.Request.ID); i >= 0 {
				requests[i] = a.Request.Clone()
			} else {
				requests = append(requests, a.Request.Clone())
			}
			c.Requests = requests
			return c
		})

	case DeleteRequest:
		s.Collections = mapCollection(s.Collections, a.CollectionID, func(c model.Collection) model.Collection {
			requests := make([]model.Request, 0, len(c.Requests))
			for _, req := range c.Requests {
				if req.ID != a.RequestID {
					requests = append(requests, req)
				}
			}
			c.Requests = requests
			return c
		})

	case ImportCollections:
		s.Collections = append(copyCollections(s.Collections), a.Collections...)

	case UpdateSettings:
		s = applySettings(s, a)

	case AddTab:
		s.Tabs = append(copyTabs(s.Tabs), a.Tab)
		s.ActiveTabID = a.Tab.ID

	case CloseTab:
		s = closeTab(s, a.ID)

	case SetActiveTab:
		s.ActiveTabID = a.ID

	case UpdateTab:
		tabs := copyTabs(s.Tabs)
		for i := range tabs {
			if tabs[i].ID == a.ID {
				tabs[i] = a.Patch.apply(tabs[i])
			}
		}
		s.Tabs = tabs

	case ReorderTabs:
		s.Tabs = reorder(s.Tabs, a.ActiveID, a.OverID)

	case SetAlias:
		aliases := copyAliases(s.Aliases)
		aliases[a.Name] = a.URL
		s.Aliases = aliases

	case DeleteAlias:
		aliases := copyAliases(s.Aliases)
		delete(aliases, a.Name)
		s.Aliases = aliases
	}

	return s
}

func applySettings(s State, a UpdateSettings) State {
	settings := s.Settings
	p := a.Patch

	if p.SidebarState != nil {
		settings.SidebarState = *p.SidebarState
	}
	if p.AccentColor != nil {
		settings.AccentColor = *p.AccentColor
	}
	if p.OpenAI != nil {
		openai := *p.OpenAI
		settings.OpenAI = &openai
	}
	if p.Environments != nil {
		settings.Environments = append([]model.Environment(nil), p.Environments...)
	}
	if p.ActiveEnvironmentID != nil {
		settings.ActiveEnvironmentID = *p.ActiveEnvironmentID
	}
	if p.ThemeMode != nil {
		settings.ThemeMode = *p.ThemeMode
		s.DarkMode = *p.ThemeMode == model.ThemeDark ||
			(*p.ThemeMode == model.ThemeSystem && a.PrefersDark)
	}

	s.Settings = settings
	return s
}

// closeTab moves focus to the tab before the closed one, else the first
// remaining tab, else nothing.
func closeTab(s State, id string) State {
	closed := -1
	tabs := make([]model.Tab, 0, len(s.Tabs))
	for i, tab := range s.Tabs {
		if tab.ID == id {
			closed = i
			continue
		}
		tabs = append(tabs, tab)
	}

	if s.ActiveTabID == id {
		switch {
		case closed > 0:
			s.ActiveTabID = s.Tabs[closed-1].ID
		case len(tabs) > 0:
			s.ActiveTabID = tabs[0].ID
		default:
			s.ActiveTabID = ""
		}
	}

	s.Tabs = tabs
	return s
}

func reorder(tabs []model.Tab, activeID, overID string) []model.Tab {
	from, to := -1, -1
	for i, tab := range tabs {
		if tab.ID == activeID {
			from = i
		}
		if tab.ID == overID {
			to = i
		}
	}
	if from < 0 || to < 0 || from == to {
		return tabs
	}

	moved := tabs[from]
	out := make([]model.Tab, 0, len(tabs))
	out = append(out, tabs[:from]...)
	out = append(out, tabs[from+1:]...)

	out = append(out[:to], append([]model.Tab{moved}, out[to:]...)...)
	return out
}

func (p TabPatch) apply(tab model.Tab) model.Tab {
	if p.Title != nil {
		tab.Title = *p.Title
	}
	if p.Request != nil {
		tab.Request = p.Request.Clone()
	}
	if p.IsDirty != nil {
		tab.IsDirty = *p.IsDirty
	}
	if p.GroupID != nil {
		tab.GroupID = *p.GroupID
	}
	return tab
}

func mapCollection(collections []model.Collection, id string, fn func(model.Collection) model.Collection) []model.Collection {
	out := copyCollections(collections)
	for i := range out {
		if out[i].ID == id {
			out[i] = fn(out[i])
		}
	}
	return out
}

func copyCollections(in []model.Collection) []model.Collection {
	out := make([]model.Collection, len(in), len(in)+1)
	copy(out, in)
	return out
}

func copyTabs(in []model.Tab) []model.Tab {
	out := make([]model.Tab, len(in), len(in)+1)
	copy(out, in)
	return out
}

func copyAliases(in map[string]string) map[string]string {
	out := make(map[string]string, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}
