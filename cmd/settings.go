package cmd

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
)

func init() {
	settingsCmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change preferences",
		Args:  cobra.NoArgs,
		RunE:  runSettingsShow,
	}

	themeCmd := &cobra.Command{
		Use:       "theme <light|dark|system>",
		Short:     "Set the theme mode",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{model.ThemeLight, model.ThemeDark, model.ThemeSystem},
		RunE:      runSettingsTheme,
	}

	accentCmd := &cobra.Command{
		Use:   "accent <color>",
		Short: "Set the accent color (" + strings.Join(model.AccentColors, ", ") + ")",
		Args:  cobra.ExactArgs(1),
		RunE:  runSettingsAccent,
	}

	sidebarCmd := &cobra.Command{
		Use:   "sidebar <expanded|collapsed>",
		Short: "Set the sidebar state",
		Args:  cobra.ExactArgs(1),
		RunE:  runSettingsSidebar,
	}

	openaiCmd := &cobra.Command{
		Use:   "openai",
		Short: "Configure the OpenAI key and model used by --analyze",
		Args:  cobra.NoArgs,
		RunE:  runSettingsOpenAI,
	}
	openaiCmd.Flags().String("key", "", "OpenAI API key")
	openaiCmd.Flags().String("model", "", "Chat completion model")

	settingsCmd.AddCommand(themeCmd, accentCmd, sidebarCmd, openaiCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	format.PrintSettings(st.Settings, st.DarkMode)
	return nil
}

func runSettingsTheme(cmd *cobra.Command, args []string) error {
	mode := strings.ToLower(args[0])
	if mode != model.ThemeLight && mode != model.ThemeDark && mode != model.ThemeSystem {
		return fmt.Errorf("invalid theme %q (expected light, dark or system)", args[0])
	}
	return updateSettings(state.SettingsPatch{ThemeMode: &mode}, fmt.Sprintf("Theme set to %s", mode))
}

func runSettingsAccent(cmd *cobra.Command, args []string) error {
	accent := strings.ToLower(args[0])
	if !slices.Contains(model.AccentColors, accent) {
		return fmt.Errorf("invalid accent color %q (expected one of %s)", args[0], strings.Join(model.AccentColors, ", "))
	}
	return updateSettings(state.SettingsPatch{AccentColor: &accent}, fmt.Sprintf("Accent color set to %s", accent))
}

func runSettingsSidebar(cmd *cobra.Command, args []string) error {
	sidebar := strings.ToLower(args[0])
	if sidebar != model.SidebarExpanded && sidebar != model.SidebarCollapsed {
		return fmt.Errorf("invalid sidebar state %q (expected expanded or collapsed)", args[0])
	}
	return updateSettings(state.SettingsPatch{SidebarState: &sidebar}, fmt.Sprintf("Sidebar set to %s", sidebar))
}

func runSettingsOpenAI(cmd *cobra.Command, args []string) error {
	if !cmd.Flags().Changed("key") && !cmd.Flags().Changed("model") {
		return errors.New("nothing to change: pass --key and/or --model")
	}

	st, err := loadState()
	if err != nil {
		return err
	}

	openai := model.OpenAISettings{Model: cfg.OpenAI.Model}
	if st.Settings.OpenAI != nil {
		openai = *st.Settings.OpenAI
	}
	if cmd.Flags().Changed("key") {
		openai.APIKey, _ = cmd.Flags().GetString("key")
	}
	if cmd.Flags().Changed("model") {
		openai.Model, _ = cmd.Flags().GetString("model")
	}
	return updateSettings(state.SettingsPatch{OpenAI: &openai}, "OpenAI settings updated")
}

func updateSettings(patch state.SettingsPatch, message string) error {
	if _, err := dispatch(state.UpdateSettings{Patch: patch, PrefersDark: prefersDark()}); err != nil {
		return fmt.Errorf("failed to update settings: %w", err)
	}
	format.PrintSuccess(message)
	return nil
}
