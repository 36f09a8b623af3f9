package cmd

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/state"
)

var aliasNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func init() {
	aliasCmd := &cobra.Command{
		Use:     "alias",
		Aliases: []string{"a"},
		Short:   "Manage URL aliases",
		Long: `Manage URL aliases for frequently used endpoints.

Aliases are shortcuts for base URLs, so 'starwars/people/1' can stand in
for 'https://www.swapi.tech/api/people/1'.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all aliases",
		Args:  cobra.NoArgs,
		RunE:  runAliasList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name> <url>",
		Short: "Create or replace an alias",
		Long: `Create or replace an alias for a base URL.

Example:
  apicli alias create starwars https://www.swapi.tech/api
  apicli get starwars/people/1`,
		Args: cobra.ExactArgs(2),
		RunE: runAliasCreate,
	}

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show an alias",
		Args:  cobra.ExactArgs(1),
		RunE:  runAliasShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an alias",
		Args:  cobra.ExactArgs(1),
		RunE:  runAliasDelete,
	}

	aliasCmd.AddCommand(listCmd, createCmd, showCmd, deleteCmd)
	rootCmd.AddCommand(aliasCmd)
}

func runAliasList(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	format.PrintAliasList(st.Aliases)
	return nil
}

func runAliasCreate(cmd *cobra.Command, args []string) error {
	name, url := args[0], strings.TrimSpace(args[1])
	if err := validateAlias(name, url); err != nil {
		return err
	}

	if _, err := dispatch(state.SetAlias{Name: name, URL: url}); err != nil {
		return fmt.Errorf("failed to create alias: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Alias '%s' created for %s", name, url))
	return nil
}

func runAliasShow(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}

	url, exists := st.Aliases[args[0]]
	if !exists {
		return fmt.Errorf("alias '%s' not found", args[0])
	}
	format.PrintAlias(args[0], url)
	return nil
}

func runAliasDelete(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	if _, exists := st.Aliases[args[0]]; !exists {
		return fmt.Errorf("alias '%s' not found", args[0])
	}

	if _, err := dispatch(state.DeleteAlias{Name: args[0]}); err != nil {
		return fmt.Errorf("failed to delete alias: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Alias '%s' deleted", args[0]))
	return nil
}

func validateAlias(name, url string) error {
	if !aliasNamePattern.MatchString(name) {
		return fmt.Errorf("invalid alias name %q: use letters, digits, '-' or '_'", name)
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return fmt.Errorf("alias URL must start with http:// or https://")
	}
	return nil
}
