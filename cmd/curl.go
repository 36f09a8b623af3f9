package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/format"
	httpclient "github.com/vedsharma/apiclient/internal/http"
	"github.com/vedsharma/apiclient/internal/model"
)

func init() {
	curlCmd := &cobra.Command{
		Use:   "curl <id or index>",
		Short: "Print a history entry as a curl command",
		Long: `Print a history entry as a curl command.

With --tab the argument names an open tab instead. With --expand aliases
and environment variables are resolved first.`,
		Args: cobra.ExactArgs(1),
		RunE: runCurl,
	}
	curlCmd.Flags().Bool("tab", false, "Read the request from a tab")
	curlCmd.Flags().Bool("expand", false, "Resolve aliases and environment variables")
	curlCmd.Flags().StringP("env", "e", "", "Environment to expand with instead of the active one")

	rootCmd.AddCommand(curlCmd)
}

func runCurl(cmd *cobra.Command, args []string) error {
	fromTab, _ := cmd.Flags().GetBool("tab")
	expand, _ := cmd.Flags().GetBool("expand")
	envName, _ := cmd.Flags().GetString("env")

	st, err := loadState()
	if err != nil {
		return err
	}

	var req model.Request
	if fromTab {
		tab, err := st.Tab(args[0])
		if err != nil {
			return err
		}
		req = tab.Request
	} else {
		req, err = st.HistoryEntry(args[0])
		if err != nil {
			return err
		}
	}

	if expand {
		req, err = prepare(req, st, envName)
		if err != nil {
			return err
		}
	}

	command, err := httpclient.CurlCommand(req)
	if err != nil {
		return err
	}
	fmt.Fprintln(format.Output, command)
	return nil
}
