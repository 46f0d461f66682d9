// Package cmd provides the CLI commands for indexprep.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexprep/internal/config"
	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
	"github.com/Aman-CERP/indexprep/internal/logging"
	"github.com/Aman-CERP/indexprep/pkg/version"
)

// Global flags
var (
	debugMode      bool
	configPath     string
	errorFormat    string
	loggingCleanup func()
)

// NewRootCmd creates the root command for the indexprep CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexprep",
		Short: "Prepare items for search indexing",
		Long: `indexprep runs search index preprocessing over batches of items:

  role_filter       drops users by role
  aggregated_field  combines fields into aggregated fields
  ignore_character  strips ignorable characters from text and search keys

Processed batches can be written to a file and indexed into bleve or
SQLite FTS5.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cmd.SetVersionTemplate("indexprep version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.indexprep/logs/")
	cmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: .indexprep.yaml in the current directory)")
	cmd.PersistentFlags().StringVar(&errorFormat, "error-format", "text", "Error output format: text or json")

	cmd.PersistentPreRunE = startLogging
	cmd.PersistentPostRunE = stopLogging

	cmd.AddCommand(newProcessCmd())
	cmd.AddCommand(newValidateCmd())
	cmd.AddCommand(newNormalizeCmd())
	cmd.AddCommand(newPropertiesCmd())
	cmd.AddCommand(newClassesCmd())
	cmd.AddCommand(newProcessorsCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// startLogging installs the process logger. Without --debug only warnings
// reach stderr until a command applies the configured level.
func startLogging(cmd *cobra.Command, _ []string) error {
	if errorFormat != "text" && errorFormat != "json" {
		return amerrors.New(amerrors.ErrCodeInvalidInput,
			fmt.Sprintf("unknown error format %q", errorFormat), nil).
			WithSuggestion("Use --error-format text or --error-format json")
	}

	cfg := logging.Config{Level: "warn", Stderr: cmd.ErrOrStderr()}
	if debugMode {
		cfg = logging.DebugConfig()
		cfg.Stderr = cmd.ErrOrStderr()
	}

	cleanup, err := logging.SetupDefault(cfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	if debugMode {
		slog.Info("debug_logging_enabled",
			slog.String("log_file", cfg.FilePath),
			slog.String("version", version.Version))
	}
	return nil
}

func stopLogging(_ *cobra.Command, _ []string) error {
	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return nil
}

// loadConfig loads the configuration selected by --config, or the project
// config in the working directory, and applies its log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		dir, wdErr := os.Getwd()
		if wdErr != nil {
			return nil, amerrors.IOError("failed to get working directory", wdErr)
		}
		cfg, err = config.Load(dir)
	}
	if err != nil {
		return nil, err
	}

	if !debugMode {
		if err := applyLogLevel(cmd, cfg.Logging.Level); err != nil {
			return nil, err
		}
	}
	slog.Debug("config_loaded", slog.Any("sources", cfg.Sources))
	return cfg, nil
}

func applyLogLevel(cmd *cobra.Command, level string) error {
	if loggingCleanup != nil {
		loggingCleanup()
	}
	cleanup, err := logging.SetupDefault(logging.Config{Level: level, Stderr: cmd.ErrOrStderr()})
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup
	return nil
}

// Execute runs the root command, cancelling on SIGINT or SIGTERM.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := NewRootCmd()
	err := root.ExecuteContext(ctx)
	if err != nil {
		reportError(ctx, root.ErrOrStderr(), err)
	}
	// PersistentPostRunE does not run when a command fails.
	_ = stopLogging(root, nil)
	return err
}

// reportError logs err and prints it in the selected --error-format.
func reportError(ctx context.Context, w io.Writer, err error) {
	slog.LogAttrs(ctx, slog.LevelDebug, "command_failed", amerrors.LogAttrs(err)...)

	if errorFormat == "json" {
		if data, jerr := amerrors.FormatJSON(err); jerr == nil {
			_, _ = fmt.Fprintln(w, string(data))
			return
		}
	}
	_, _ = fmt.Fprint(w, amerrors.FormatForCLI(err, debugMode))
}
