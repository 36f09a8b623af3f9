package format

import (
	"strings"

	"github.com/vedsharma/apiclient/internal/catalog"
	"github.com/vedsharma/apiclient/internal/model"
)

// PrintTabs lists open tabs, marking the active one
func PrintTabs(tabs []model.Tab, activeID string) {
	if len(tabs) == 0 {
		dimColor.Fprintln(Output, "No open tabs")
		return
	}

	for i, tab := range tabs {
		marker := " "
		if tab.ID == activeID {
			marker = "*"
		}
		dirty := ""
		if tab.IsDirty {
			dirty = " (modified)"
		}
		successColor.Fprintf(Output, "%s ", marker)
		dimColor.Fprintf(Output, "[%d] %s ", i+1, shortID(tab.ID))
		outf("%s%s  ", sanitizeOutput(tab.Title), dirty)
		methodColor.Fprintf(Output, "%s ", tab.Request.Method)
		urlColor.Fprintln(Output, sanitizeOutput(tab.Request.URL))
	}
}

// PrintEnvironments lists environments, marking the active one
func PrintEnvironments(envs []model.Environment, activeID string) {
	if len(envs) == 0 {
		dimColor.Fprintln(Output, "No environments found")
		return
	}

	for _, e := range envs {
		marker := " "
		if e.ID == activeID {
			marker = "*"
		}
		successColor.Fprintf(Output, "%s ", marker)
		headerKeyColor.Fprintf(Output, "%s ", sanitizeOutput(e.Name))
		dimColor.Fprintf(Output, "(%d variables)\n", len(e.Variables))
		for _, v := range e.Variables {
			outf("    %s = %s\n", sanitizeOutput(v.Key), sanitizeOutput(v.Value))
		}
	}
}

// PrintWarning prints a warning on the output stream
func PrintWarning(msg string) {
	warnColor.Fprintf(Output, "! %s\n", msg)
}

// PrintSettings prints the user preferences. The OpenAI key is masked.
func PrintSettings(s model.Settings, darkMode bool) {
	headerKeyColor.Fprintln(Output, "Settings")
	outln(strings.Repeat("-", 40))
	outf("  theme:       %s (dark mode %s)\n", s.ThemeMode, onOff(darkMode))
	outf("  accent:      %s\n", s.AccentColor)
	outf("  sidebar:     %s\n", s.SidebarState)

	active := "none"
	if e, ok := s.ActiveEnvironment(); ok {
		active = sanitizeOutput(e.Name)
	}
	outf("  environment: %s (%d defined)\n", active, len(s.Environments))

	if s.OpenAI == nil || s.OpenAI.APIKey == "" {
		dimColor.Fprintln(Output, "  openai:      not configured")
		return
	}
	outf("  openai:      %s (model %s)\n", MaskSecret(s.OpenAI.APIKey), s.OpenAI.Model)
}

// MaskSecret keeps the last four characters of a secret
func MaskSecret(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return strings.Repeat("*", 8) + secret[len(secret)-4:]
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

// PrintCatalog lists example requests by category
func PrintCatalog(categories []catalog.Category) {
	for i, c := range categories {
		if i > 0 {
			outln()
		}
		headerKeyColor.Fprintln(Output, c.Name)
		dimColor.Fprintln(Output, c.Description)
		for _, req := range c.Requests {
			outf("  %-16s ", req.ID)
			methodColor.Fprintf(Output, "%-6s ", req.Method)
			outf("%s\n", req.Name)
			dimColor.Fprintf(Output, "  %-16s %s\n", "", req.Description)
		}
	}
}
