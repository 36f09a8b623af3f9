package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
)

var tabEditFlags requestFlags

func init() {
	tabCmd := &cobra.Command{
		Use:   "tab",
		Short: "Manage open request tabs",
		Long: `Tabs hold requests being worked on. Tabs are referenced by
1-based position or id prefix; commands default to the active tab.`,
	}

	newCmd := &cobra.Command{
		Use:   "new [method] [url]",
		Short: "Open a new tab",
		Args:  cobra.MaximumNArgs(2),
		RunE:  runTabNew,
	}
	newCmd.Flags().String("name", "", "Tab title")

	openCmd := &cobra.Command{
		Use:   "open <collection> <request>",
		Short: "Open a copy of a saved request in a new tab",
		Args:  cobra.ExactArgs(2),
		RunE:  runTabOpen,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List open tabs",
		Args:  cobra.NoArgs,
		RunE:  runTabList,
	}

	closeCmd := &cobra.Command{
		Use:   "close [tab]",
		Short: "Close a tab",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTabClose,
	}

	activateCmd := &cobra.Command{
		Use:   "activate <tab>",
		Short: "Make a tab active",
		Args:  cobra.ExactArgs(1),
		RunE:  runTabActivate,
	}

	moveCmd := &cobra.Command{
		Use:   "move <tab> <over-tab>",
		Short: "Move a tab to the position of another",
		Args:  cobra.ExactArgs(2),
		RunE:  runTabMove,
	}

	renameCmd := &cobra.Command{
		Use:   "rename <tab> <title>",
		Short: "Rename a tab",
		Args:  cobra.ExactArgs(2),
		RunE:  runTabRename,
	}

	editCmd := &cobra.Command{
		Use:   "edit [tab]",
		Short: "Change the request held by a tab",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTabEdit,
	}
	editCmd.Flags().StringP("method", "X", "", "HTTP method")
	editCmd.Flags().String("url", "", "Request URL")
	editCmd.Flags().StringArrayVarP(&tabEditFlags.headers, "header", "H", []string{}, "Add header as 'Key: Value'")
	editCmd.Flags().StringArrayVarP(&tabEditFlags.params, "param", "p", []string{}, "Add query parameter as key=value")
	editCmd.Flags().StringVarP(&tabEditFlags.data, "data", "d", "", "Request body (JSON string or @filename)")

	showCmd := &cobra.Command{
		Use:   "show [tab]",
		Short: "Show the request held by a tab",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTabShow,
	}

	saveCmd := &cobra.Command{
		Use:   "save <collection> [tab]",
		Short: "Save a tab's request into a collection",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  runTabSave,
	}

	sendCmd := &cobra.Command{
		Use:   "send [tab]",
		Short: "Send the request held by a tab",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTabSend,
	}
	sendCmd.Flags().StringP("env", "e", "", "Environment to use instead of the active one")
	sendCmd.Flags().Bool("no-history", false, "Don't save to history")

	tabCmd.AddCommand(newCmd, openCmd, listCmd, closeCmd, activateCmd, moveCmd, renameCmd, editCmd, showCmd, saveCmd, sendCmd)
	rootCmd.AddCommand(tabCmd)
}

// resolveTab finds the tab named by args, or the active tab
func resolveTab(st state.State, args []string) (model.Tab, error) {
	if len(args) > 0 {
		return st.Tab(args[0])
	}
	tab, ok := st.ActiveTab()
	if !ok {
		return model.Tab{}, errors.New("no active tab")
	}
	return tab, nil
}

func runTabNew(cmd *cobra.Command, args []string) error {
	req := model.NewRequest()
	if len(args) > 0 {
		method := strings.ToUpper(args[0])
		if !validMethod(method) {
			return fmt.Errorf("unsupported method %q", args[0])
		}
		req.Method = method
	}
	if len(args) > 1 {
		req.URL = args[1]
	}
	if name, _ := cmd.Flags().GetString("name"); name != "" {
		req.Name = name
	}

	tab := model.NewTab(req)
	if _, err := dispatch(state.AddTab{Tab: tab}); err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Opened tab %s", shortRef(tab.ID)))
	return nil
}

func runTabOpen(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	col, err := st.Collection(args[0])
	if err != nil {
		return err
	}
	req, err := findCollectionRequest(col, args[1])
	if err != nil {
		return err
	}

	tab := model.NewTab(req.CloneWithNewID().WithoutOutcome())
	if _, err := dispatch(state.AddTab{Tab: tab}); err != nil {
		return fmt.Errorf("failed to open tab: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Opened '%s' in tab %s", tab.Title, shortRef(tab.ID)))
	return nil
}

func runTabList(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	format.PrintTabs(st.Tabs, st.ActiveTabID)
	return nil
}

func runTabClose(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	tab, err := resolveTab(st, args)
	if err != nil {
		return err
	}
	if tab.IsDirty {
		format.PrintWarning(fmt.Sprintf("Tab '%s' had unsaved changes", tab.Title))
	}

	if _, err := dispatch(state.CloseTab{ID: tab.ID}); err != nil {
		return fmt.Errorf("failed to close tab: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Closed tab '%s'", tab.Title))
	return nil
}

func runTabActivate(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	tab, err := st.Tab(args[0])
	if err != nil {
		return err
	}

	if _, err := dispatch(state.SetActiveTab{ID: tab.ID}); err != nil {
		return fmt.Errorf("failed to activate tab: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Tab '%s' is now active", tab.Title))
	return nil
}

func runTabMove(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	moving, err := st.Tab(args[0])
	if err != nil {
		return err
	}
	over, err := st.Tab(args[1])
	if err != nil {
		return err
	}

	next, err := dispatch(state.ReorderTabs{ActiveID: moving.ID, OverID: over.ID})
	if err != nil {
		return fmt.Errorf("failed to move tab: %w", err)
	}
	format.PrintTabs(next.Tabs, next.ActiveTabID)
	return nil
}

func runTabRename(cmd *cobra.Command, args []string) error {
	title := strings.TrimSpace(args[1])
	if title == "" {
		return errors.New("tab title cannot be empty")
	}

	st, err := loadState()
	if err != nil {
		return err
	}
	tab, err := st.Tab(args[0])
	if err != nil {
		return err
	}

	if _, err := dispatch(state.UpdateTab{ID: tab.ID, Patch: state.TabPatch{Title: &title}}); err != nil {
		return fmt.Errorf("failed to rename tab: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Tab renamed to '%s'", title))
	return nil
}

func runTabEdit(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	tab, err := resolveTab(st, args)
	if err != nil {
		return err
	}

	req := tab.Request.Clone()
	if cmd.Flags().Changed("method") {
		method, _ := cmd.Flags().GetString("method")
		method = strings.ToUpper(method)
		if !validMethod(method) {
			return fmt.Errorf("unsupported method %q", method)
		}
		req.Method = method
	}
	if cmd.Flags().Changed("url") {
		req.URL, _ = cmd.Flags().GetString("url")
	}

	edits, err := composeRequest(req.Method, req.URL, tabEditFlags)
	if err != nil {
		return err
	}
	req.Headers = append(activePairs(req.Headers), edits.Headers...)
	req.Params = append(activePairs(req.Params), edits.Params...)
	if cmd.Flags().Changed("data") {
		req.Body = edits.Body
	}

	dirty := true
	if _, err := dispatch(state.UpdateTab{ID: tab.ID, Patch: state.TabPatch{Request: &req, IsDirty: &dirty}}); err != nil {
		return fmt.Errorf("failed to update tab: %w", err)
	}
	format.PrintRequestDetail(&req)
	return nil
}

func runTabShow(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	tab, err := resolveTab(st, args)
	if err != nil {
		return err
	}
	format.PrintRequestDetail(&tab.Request)
	return nil
}

func runTabSave(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	tab, err := resolveTab(st, args[1:])
	if err != nil {
		return err
	}

	req := tab.Request.WithoutOutcome()
	if tab.Title != "" {
		req.Name = tab.Title
	}
	clean := false
	actions := saveToCollectionActions(st, args[0], redact(req))
	actions = append(actions, state.UpdateTab{ID: tab.ID, Patch: state.TabPatch{IsDirty: &clean}})
	if _, err := dispatch(actions...); err != nil {
		return fmt.Errorf("failed to save tab: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Saved '%s' to collection '%s'", req.Name, args[0]))
	return nil
}

// runTabSend sends a tab's request under the tab's own id, so resending
// replaces the tab's previous history entry
func runTabSend(cmd *cobra.Command, args []string) error {
	envName, _ := cmd.Flags().GetString("env")
	noHistory, _ := cmd.Flags().GetBool("no-history")

	st, err := loadState()
	if err != nil {
		return err
	}
	tab, err := resolveTab(st, args)
	if err != nil {
		return err
	}
	if strings.TrimSpace(tab.Request.URL) == "" {
		return fmt.Errorf("tab '%s' has no URL", tab.Title)
	}

	req := tab.Request.WithoutOutcome()
	if !noHistory {
		warnIfSensitiveBody(req.Body)
	}

	resp, sent, err := send(cmd.Context(), req, st, envName)
	if err != nil {
		return err
	}
	format.PrintResponse(resp, verbose(cmd))

	if noHistory {
		return nil
	}
	if _, err := dispatch(state.AddToHistory{Request: redact(sent)}); err != nil {
		slog.Warn("Failed to record request", "error", err)
	}
	return nil
}

// activePairs drops blank rows so edits don't accumulate empty entries
func activePairs(pairs []model.KeyValuePair) []model.KeyValuePair {
	out := make([]model.KeyValuePair, 0, len(pairs))
	for _, p := range pairs {
		if strings.TrimSpace(p.Key) != "" {
			out = append(out, p)
		}
	}
	return out
}
