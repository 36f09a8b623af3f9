package model

// Sidebar states
const (
	SidebarExpanded  = "expanded"
	SidebarCollapsed = "collapsed"
)

// Theme modes
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// AccentColors lists the accepted accent colors
var AccentColors = []string{"blue", "purple", "green", "red", "amber", "pink"}

// OpenAISettings holds the credentials used for response analysis
type OpenAISettings struct {
	APIKey string `json:"apiKey"`
	Model  string `json:"model"`
}

// Settings are the user preferences persisted with the application state
type Settings struct {
	SidebarState        string          `json:"sidebarState"`
	ThemeMode           string          `json:"themeMode"`
	AccentColor         string          `json:"accentColor"`
	OpenAI              *OpenAISettings `json:"openai,omitempty"`
	Environments        []Environment   `json:"environments"`
	ActiveEnvironmentID string          `json:"activeEnvironmentId,omitempty"`
}

// DefaultSettings returns the settings of a fresh installation
func DefaultSettings() Settings {
	return Settings{
		SidebarState: SidebarExpanded,
		ThemeMode:    ThemeSystem,
		AccentColor:  "blue",
		Environments: []Environment{},
	}
}

// ActiveEnvironment returns the selected environment, if any
func (s Settings) ActiveEnvironment() (*Environment, bool) {
	if s.ActiveEnvironmentID == "" {
		return nil, false
	}
	for i := range s.Environments {
		if s.Environments[i].ID == s.ActiveEnvironmentID {
			return &s.Environments[i], true
		}
	}
	return nil, false
}

// EnvironmentVariable is one {{key}} substitution
type EnvironmentVariable struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// Environment is a named set of variables
type Environment struct {
	ID        string                `json:"id"`
	Name      string                `json:"name"`
	Variables []EnvironmentVariable `json:"variables"`
	IsActive  bool                  `json:"isActive"`
}

// Lookup returns the value of the variable named key
func (e Environment) Lookup(key string) (string, bool) {
	for _, v := range e.Variables {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}
