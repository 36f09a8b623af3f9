package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/time/rate"

	"github.com/vedsharma/apiclient/internal/format"
	"github.com/vedsharma/apiclient/internal/model"
	"github.com/vedsharma/apiclient/internal/state"
)

var collectionAddFlags requestFlags

func init() {
	collectionCmd := &cobra.Command{
		Use:     "collection",
		Aliases: []string{"col"},
		Short:   "Manage request collections",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List all collections",
		Args:  cobra.NoArgs,
		RunE:  runCollectionList,
	}

	createCmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a new collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollectionCreate,
	}

	renameCmd := &cobra.Command{
		Use:   "rename <collection> <new-name>",
		Short: "Rename a collection",
		Args:  cobra.ExactArgs(2),
		RunE:  runCollectionRename,
	}

	showCmd := &cobra.Command{
		Use:   "show <collection>",
		Short: "Show requests in a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollectionShow,
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <collection>",
		Short: "Delete a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollectionDelete,
	}

	addCmd := &cobra.Command{
		Use:   "add <collection> <name> <method> <url>",
		Short: "Add a request to a collection",
		Long: `Add a request to a collection. The collection is created if needed.

Example:
  apicli collection add my-api "Get Users" GET https://api.example.com/users`,
		Args: cobra.ExactArgs(4),
		RunE: runCollectionAdd,
	}
	addCmd.Flags().StringArrayVarP(&collectionAddFlags.headers, "header", "H", []string{}, "Add header")
	addCmd.Flags().StringArrayVarP(&collectionAddFlags.params, "param", "p", []string{}, "Add query parameter as key=value")
	addCmd.Flags().StringVarP(&collectionAddFlags.data, "data", "d", "", "Request body (JSON string or @filename)")

	removeCmd := &cobra.Command{
		Use:   "remove <collection> <request>",
		Short: "Remove a request from a collection by name, id or 1-based index",
		Args:  cobra.ExactArgs(2),
		RunE:  runCollectionRemove,
	}

	runCmd := &cobra.Command{
		Use:   "run <collection>",
		Short: "Run all requests in a collection",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollectionRun,
	}
	runCmd.Flags().Float64("rps", 0, "Maximum requests per second (0 for no limit)")
	runCmd.Flags().Int("repeat", 1, "Number of passes over the collection")
	runCmd.Flags().Bool("no-history", false, "Don't save results to history")
	runCmd.Flags().StringP("env", "e", "", "Environment to use instead of the active one")

	exportCmd := &cobra.Command{
		Use:   "export [file]",
		Short: "Export all collections as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runCollectionExport,
	}

	importCmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import collections from a JSON export",
		Args:  cobra.ExactArgs(1),
		RunE:  runCollectionImport,
	}

	collectionCmd.AddCommand(listCmd, createCmd, renameCmd, showCmd, deleteCmd, addCmd, removeCmd, runCmd, exportCmd, importCmd)
	rootCmd.AddCommand(collectionCmd)
}

func runCollectionList(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	format.PrintCollectionList(st.Collections)
	return nil
}

func runCollectionCreate(cmd *cobra.Command, args []string) error {
	name := strings.TrimSpace(args[0])
	if name == "" {
		return errors.New("collection name cannot be empty")
	}

	st, err := loadState()
	if err != nil {
		return err
	}
	if _, err := st.Collection(name); err == nil {
		return fmt.Errorf("collection '%s' already exists", name)
	}

	if _, err := dispatch(state.AddCollection{Name: name}); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Collection '%s' created", name))
	return nil
}

func runCollectionRename(cmd *cobra.Command, args []string) error {
	newName := strings.TrimSpace(args[1])
	if newName == "" {
		return errors.New("collection name cannot be empty")
	}

	st, err := loadState()
	if err != nil {
		return err
	}
	col, err := st.Collection(args[0])
	if err != nil {
		return err
	}

	if _, err := dispatch(state.RenameCollection{ID: col.ID, Name: newName}); err != nil {
		return fmt.Errorf("failed to rename collection: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Collection '%s' renamed to '%s'", col.Name, newName))
	return nil
}

func runCollectionShow(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	col, err := st.Collection(args[0])
	if err != nil {
		return err
	}
	format.PrintCollectionRequests(&col)
	return nil
}

func runCollectionDelete(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}
	col, err := st.Collection(args[0])
	if err != nil {
		return err
	}

	if _, err := dispatch(state.DeleteCollection{ID: col.ID}); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Collection '%s' deleted", col.Name))
	return nil
}

func runCollectionAdd(cmd *cobra.Command, args []string) error {
	collectionName, requestName := args[0], args[1]
	method, url := strings.ToUpper(args[2]), args[3]
	if !validMethod(method) {
		return fmt.Errorf("unsupported method %q", args[2])
	}

	flags := collectionAddFlags
	flags.name = requestName
	req, err := composeRequest(method, url, flags)
	if err != nil {
		return err
	}

	st, err := loadState()
	if err != nil {
		return err
	}

	// Sensitive header values never reach the collection
	if _, err := dispatch(saveToCollectionActions(st, collectionName, redact(req))...); err != nil {
		return fmt.Errorf("failed to add request: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Request '%s' added to collection '%s'", requestName, collectionName))
	return nil
}

func runCollectionRemove(cmd *cobra.Command, args []string) error {
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

	if _, err := dispatch(state.DeleteRequest{CollectionID: col.ID, RequestID: req.ID}); err != nil {
		return fmt.Errorf("failed to remove request: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Request '%s' removed from collection '%s'", req.Name, col.Name))
	return nil
}

func runCollectionRun(cmd *cobra.Command, args []string) error {
	rps, _ := cmd.Flags().GetFloat64("rps")
	repeat, _ := cmd.Flags().GetInt("repeat")
	noHistory, _ := cmd.Flags().GetBool("no-history")
	envName, _ := cmd.Flags().GetString("env")
	if repeat < 1 {
		return errors.New("--repeat must be at least 1")
	}

	st, err := loadState()
	if err != nil {
		return err
	}
	col, err := st.Collection(args[0])
	if err != nil {
		return err
	}
	if len(col.Requests) == 0 {
		return fmt.Errorf("collection '%s' is empty", col.Name)
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}

	ctx := cmd.Context()
	total := len(col.Requests) * repeat
	fmt.Fprintf(format.Output, "Running %d requests from collection '%s'\n\n", total, col.Name)

	var sent []model.Request
	n := 0
	for pass := 0; pass < repeat; pass++ {
		for _, req := range col.Requests {
			n++
			if err := limiter.Wait(ctx); err != nil {
				return err
			}

			if req.Name != "" {
				fmt.Fprintf(format.Output, "[%d/%d] %s\n", n, total, req.Name)
			} else {
				fmt.Fprintf(format.Output, "[%d/%d] %s %s\n", n, total, req.Method, req.URL)
			}

			// Every run is its own history entry so monitoring sees each sample
			resp, outcome, err := send(ctx, req.CloneWithNewID().WithoutOutcome(), st, envName)
			if err != nil {
				format.PrintError(fmt.Sprintf("Request failed: %v", err))
				continue
			}
			format.PrintResponse(resp, verbose(cmd))
			fmt.Fprintln(format.Output)
			sent = append(sent, redact(outcome))
		}
	}

	if !noHistory && len(sent) > 0 {
		actions := make([]state.Action, len(sent))
		for i, req := range sent {
			actions[i] = state.AddToHistory{Request: req}
		}
		if _, err := dispatch(actions...); err != nil {
			return fmt.Errorf("failed to record history: %w", err)
		}
	}

	format.PrintSuccess(fmt.Sprintf("Completed running collection '%s'", col.Name))
	return nil
}

func runCollectionExport(cmd *cobra.Command, args []string) error {
	st, err := loadState()
	if err != nil {
		return err
	}

	path := exportFileName(time.Now())
	if len(args) == 1 {
		path = args[0]
	}

	data, err := json.MarshalIndent(st.Collections, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode collections: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Exported %d collections to %s", len(st.Collections), path))
	return nil
}

func runCollectionImport(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read import file: %w", err)
	}

	collections, err := decodeCollections(data)
	if err != nil {
		return err
	}

	if _, err := dispatch(state.ImportCollections{Collections: collections}); err != nil {
		return fmt.Errorf("failed to import collections: %w", err)
	}
	format.PrintSuccess(fmt.Sprintf("Imported %d collections", len(collections)))
	return nil
}

// exportFileName is the default export name for the given day
func exportFileName(now time.Time) string {
	return fmt.Sprintf("rest-client-collections-%s.json", now.Format("2006-01-02"))
}

// decodeCollections parses an export file. Missing ids are filled in so
// imported requests can be addressed.
func decodeCollections(data []byte) ([]model.Collection, error) {
	var collections []model.Collection
	if err := json.Unmarshal(data, &collections); err != nil {
		return nil, fmt.Errorf("invalid collections file: %w", err)
	}

	for i := range collections {
		c := &collections[i]
		if c.ID == "" {
			c.ID = model.NewCollection(c.Name).ID
		}
		if c.Requests == nil {
			c.Requests = []model.Request{}
		}
		for j := range c.Requests {
			if c.Requests[j].ID == "" {
				c.Requests[j] = c.Requests[j].CloneWithNewID()
			}
		}
	}
	return collections, nil
}

// findCollectionRequest matches a request by 1-based index, id or name
func findCollectionRequest(col model.Collection, ref string) (model.Request, error) {
	if index, err := strconv.Atoi(ref); err == nil && index >= 1 && index <= len(col.Requests) {
		return col.Requests[index-1], nil
	}
	for _, req := range col.Requests {
		if req.ID == ref || req.Name == ref {
			return req, nil
		}
	}
	return model.Request{}, fmt.Errorf("%w: request %q in collection '%s'", state.ErrNotFound, ref, col.Name)
}

func validMethod(method string) bool {
	return slices.Contains(model.Methods, method)
}
