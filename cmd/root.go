package cmd

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vedsharma/apiclient/internal/config"
	"github.com/vedsharma/apiclient/internal/format"
)

// cfg is loaded once before any command runs
var cfg = config.Default()

var rootCmd = &cobra.Command{
	Use:   "apicli",
	Short: "A CLI tool for making HTTP requests",
	Long: `apicli is a command-line HTTP client, similar to Postman.

Send HTTP requests, track history, organize requests into collections,
keep several requests open in tabs and watch endpoint health.

Examples:
  apicli get https://api.example.com/users -p page=2
  apicli post https://api.example.com/users -d '{"name": "John"}'
  apicli history
  apicli collection list
  apicli monitor --window 1h`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		format.PrintError(err.Error())
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Show response headers")
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: search $XDG_CONFIG_HOME, ~/.config/apicli, ~/.apicli)")
}

func setup(cmd *cobra.Command, args []string) error {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loaded, err := config.LoadFile(path)
		if err != nil {
			return err
		}
		cfg = loaded
	} else {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		cfg = loaded
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Log.Format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))

	slog.Debug("Configuration loaded", "storage", cfg.Storage, "data_dir", cfg.DataDir)
	return nil
}
