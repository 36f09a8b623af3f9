package state

import "github.com/vedsharma/apiclient/internal/model"

// Action is a state transition understood by Reduce
type Action interface {
	isAction()
}

// SetDarkMode switches the rendered theme
type SetDarkMode struct{ Enabled bool }

// AddToHistory records a sent request, replacing any entry with the same id
type AddToHistory struct{ Request model.Request }

// ClearHistory drops every history entry
type ClearHistory struct{}

// AddCollection appends an empty collection. A blank ID is generated.
type AddCollection struct {
	ID   string
	Name string
}

// RenameCollection renames the collection with the given id
type RenameCollection struct {
	ID   string
	Name string
}

// DeleteCollection removes the collection with the given id
type DeleteCollection struct{ ID string }

// SaveRequest replaces a request with the same id in a collection, or appends it
type SaveRequest struct {
	CollectionID string
	Request      model.Request
}

// DeleteRequest removes a request from a collection
type DeleteRequest struct {
	CollectionID string
	RequestID    string
}

// ImportCollections appends collections as-is
type ImportCollections struct{ Collections []model.Collection }

// SettingsPatch carries the settings fields to change; nil means unchanged
type SettingsPatch struct {
	SidebarState        *string
	ThemeMode           *string
	AccentColor         *string
	OpenAI              *model.OpenAISettings
	Environments        []model.Environment
	ActiveEnvironmentID *string
}

// UpdateSettings merges a patch into the settings. PrefersDark is the
// platform preference consulted when the theme becomes "system".
type UpdateSettings struct {
	Patch       SettingsPatch
	PrefersDark bool
}

// AddTab opens a tab and makes it active
type AddTab struct{ Tab model.Tab }

// CloseTab closes the tab with the given id
type CloseTab struct{ ID string }

// SetActiveTab selects a tab
type SetActiveTab struct{ ID string }

// TabPatch carries the tab fields to change; nil means unchanged
type TabPatch struct {
	Title   *string
	Request *model.Request
	IsDirty *bool
	GroupID *string
}

// UpdateTab merges a patch into a tab
type UpdateTab struct {
	ID    string
	Patch TabPatch
}

// ReorderTabs moves the tab ActiveID to the position held by OverID
type ReorderTabs struct {
	ActiveID string
	OverID   string
}

// SetAlias creates or replaces a URL alias
type SetAlias struct {
	Name string
	URL  string
}

// DeleteAlias removes a URL alias
type DeleteAlias struct{ Name string }

func (SetDarkMode) isAction()       {}
func (AddToHistory) isAction()      {}
func (ClearHistory) isAction()      {}
func (AddCollection) isAction()     {}
func (RenameCollection) isAction()  {}
func (DeleteCollection) isAction()  {}
func (SaveRequest) isAction()       {}
func (DeleteRequest) isAction()     {}
func (ImportCollections) isAction() {}
func (UpdateSettings) isAction()    {}
func (AddTab) isAction()            {}
func (CloseTab) isAction()          {}
func (SetActiveTab) isAction()      {}
func (UpdateTab) isAction()         {}
func (ReorderTabs) isAction()       {}
func (SetAlias) isAction()          {}
func (DeleteAlias) isAction()       {}
