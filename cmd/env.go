package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
)

func init() {
	envCmd := &cobra.Command{
		Use:     "env",
		Aliases: []string{"environment"},
		Short:   "Manage environments",
		Long: `Manage environments of {{name}} variables.

Placeholders in the URL, params, headers and body are replaced with the
active environment's values before a request is sent.

Example:
  apicli env create staging
  apicli env set staging host api.staging.example.com
  apicli env use staging
  apicli get "https://{{host}}/users"`,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an environment",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnvCreate,
	}

	setCmd := &cobra.Command{
		Use:   "set <env> <key> <value>",
		Short: "Set a variable",
		Args:  cobra.ExactArgs(3),
		RunE:  runEnvSet,
	}

	unsetCmd := &cobra.Command{
		Use:   "unset <env> <key>",
		Short: "Remove a variable",
		Args:  cobra.ExactArgs(2),
		RunE:  runEnvUnset,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List environments and their variables",
		Args:  cobra.NoArgs,
		RunE:  runEnvList,
	}

	useCmd := &cobra.Command{
		Use:   "use [env]",
		Short: "Select the active environment (no argument to clear)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runEnvUse,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <env>",
		Short: "Delete an environment",
		Args:  cobra.ExactArgs(1),
		RunE:  runEnvDelete,
	}

	envCmd.AddCommand(createCmd, setCmd, unsetCmd, listCmd, useCmd, deleteCmd)
	rootCmd.AddCommand(envCmd)
}

func runEnvCreate(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("environment name cannot be empty")
	}

	st, err := loadState()
	if err != nil {
		return err
	}
	if _, err := st.Environment(name); err == nil {
		return fmt.Errorf("environment '%s' already exists", name)
	}

	envs := append(copyEnvironments(st.Settings.Environments), model.Environment{
		ID:        uuid.NewString(),
		Name:      name,
		Variables: []model.EnvironmentVariable{},
	})
	if err := updateEnvironments(envs, nil); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Environment '%s' created", name))
	return nil
}

func runEnvSet(cmd *cobra.Command, args []string) error {
	key, value := strings.TrimSpace(args[1]), args[2]
	if key == "" {
		return errors.New("variable name cannot be empty")
	}

	err := editEnvironment(args[0], func(e *model.Environment) error {
		for i := range e.Variables {
			if e.Variables[i].Key == key {
				e.Variables[i].Value = value
				return nil
			}
		}
		e.Variables = append(e.Variables, model.EnvironmentVariable{ID: uuid.NewString(), Key: key, Value: value})
		return nil
	})
	if err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Set %s in '%s'", key, args[0]))
	return nil
}

func runEnvUnset(cmd *cobra.Command, args []string) error {
	key := args[1]
	err := editEnvironment(args[0], func(e *model.Environment) error {
		for i := range e.Variables {
			if e.Variables[i].Key == key {
				e.Variables = append(e.Variables[:i], e.Variables[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: variable %q in environment '%s'", state.ErrNotFound, key, e.Name)
	})
	if err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Removed %s from '%s'", key, args[0]))
	return nil
}

func runEnvList(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	format.PrintEnvironments(st.Settings.Environments, st.Settings.ActiveEnvironmentID)
	return nil
}

func runEnvUse(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}

	activeID, name := "", ""
	if len(args) == 1 {
		e, err := st.Environment(args[0])
		if err != nil {
			return err
		}
		activeID, name = e.ID, e.Name
	}

	envs := copyEnvironments(st.Settings.Environments)
	for i := range envs {
		envs[i].IsActive = envs[i].ID == activeID
	}
	if err := updateEnvironments(envs, &activeID); err != nil {
		return err
	}

	if name == "" {
		format.PrintSuccess("No environment is active")
	} else {
		format.PrintSuccess(fmt.Sprintf("Environment '%s' is now active", name))
	}
	return nil
}

func runEnvDelete(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	target, err := st.Environment(args[0])
	if err != nil {
		return err
	}

	envs := make([]model.Environment, 0, len(st.Settings.Environments))
	for _, e := range copyEnvironments(st.Settings.Environments) {
		if e.ID != target.ID {
			envs = append(envs, e)
		}
	}

	var activeID *string
	if st.Settings.ActiveEnvironmentID == target.ID {
		none := ""
		activeID = &none
	}
	if err := updateEnvironments(envs, activeID); err != nil {
		return err
	}
	format.PrintSuccess(fmt.Sprintf("Environment '%s' deleted", target.Name))
	return nil
}

// editEnvironment applies fn to a copy of the named environment and saves it
func editEnvironment(ref string, fn func(*model.Environment) error) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	target, err := st.Environment(ref)
	if err != nil {
		return err
	}

	envs := copyEnvironments(st.Settings.Environments)
	for i := range envs {
		if envs[i].ID == target.ID {
			if err := fn(&envs[i]); err != nil {
				return err
			}
		}
	}
	return updateEnvironments(envs, nil)
}

func updateEnvironments(envs []model.Environment, activeID *string) error {
	patch := state.SettingsPatch{Environments: envs, ActiveEnvironmentID: activeID}
	if _, err := dispatch(state.UpdateSettings{Patch: patch, PrefersDark: prefersDark()}); err != nil {
		return fmt.Errorf("failed to update environments: %w", err)
	}
	return nil
}

func copyEnvironments(in []model.Environment) []model.Environment {
	out := make([]model.Environment, len(in))
	for i, e := range in {
		out[i] = e
		out[i].Variables = append([]model.EnvironmentVariable{}, e.Variables...)
	}
	return out
}
