package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
)

func init() {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View request history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryList,
	}
	historyCmd.Flags().IntP("limit", "n", 10, "Number of requests to show")

	showCmd := &cobra.Command{
		Use:   "show <id or index>",
		Short: "Show full details of a request",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryShow,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all history",
		Args:  cobra.NoArgs,
		RunE:  runHistoryClear,
	}

	openCmd := &cobra.Command{
		Use:   "open <id or index>",
		Short: "Open a history entry in a new tab",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistoryOpen,
	}

	searchCmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search history by name, URL or method",
		Args:  cobra.ExactArgs(1),
		RunE:  runHistorySearch,
	}
	searchCmd.Flags().IntP("limit", "n", 0, "Maximum number of matches to show (0 for all)")

	historyCmd.AddCommand(showCmd, clearCmd, openCmd, searchCmd)
	rootCmd.AddCommand(historyCmd)
}

func runHistoryList(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}

	limit, _ := cmd.Flags().GetInt("limit")
	format.PrintHistoryList(st.History, limit)
	return nil
}

func runHistorySearch(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}

	matches := st.SearchHistory(args[0])
	if limit, _ := cmd.Flags().GetInt("limit"); limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	format.PrintHistoryMatches(args[0], matches)
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}

	req, err := st.HistoryEntry(args[0])
	if err != nil {
		return err
	}
	format.PrintRequestDetail(&req)
	return nil
}

func runHistoryClear(cmd *cobra.Command, args []string) error {
	if _, err := dispatch(state.ClearHistory{}); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	format.PrintSuccess("History cleared")
	return nil
}

// runHistoryOpen opens a copy of the entry so later edits and sends never
// rewrite the history record itself
func runHistoryOpen(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}

	req, err := st.HistoryEntry(args[0])
	if err != nil {
		return err
	}

	tab := model.NewTab(req.CloneWithNewID().WithoutOutcome())
	if _, err := dispatch(state.AddTab{Tab: tab}); err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Opened %s %s in tab %s", req.Method, req.URL, shortRef(tab.ID)))
	return nil
}
