package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/catalog"
	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
)

func init() {
	examplesCmd := &cobra.Command{
		Use:   "examples",
		Short: "Browse example API requests",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			format.PrintCatalog(catalog.Categories())
		},
	}

	openCmd := &cobra.Command{
		Use:   "open <example id>",
		Short: "Open an example request in a new tab",
		Args:  cobra.ExactArgs(1),
		RunE:  runExamplesOpen,
	}

	examplesCmd.AddCommand(openCmd)
	rootCmd.AddCommand(examplesCmd)
}

func runExamplesOpen(cmd *cobra.Command, args []string) error {
	tab, err := exampleTab(args[0])
	if err != nil {
		return err
	}
	if _, err := dispatch(state.AddTab{Tab: tab}); err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Opened example '%s' in tab %s", tab.Request.Name, shortRef(tab.ID)))
	return nil
}

// exampleTab gives the example a fresh id so several tabs can hold it at once
func exampleTab(id string) (model.Tab, error) {
	req, ok := catalog.Find(id)
	if !ok {
		return model.Tab{}, fmt.Errorf("example '%s' not found, run 'apicli examples' to list them", id)
	}
	return model.NewTab(req.CloneWithNewID()), nil
}
