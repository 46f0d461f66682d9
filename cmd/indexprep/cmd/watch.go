package cmd

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
	"github.com/Aman-CERP/indexprep/internal/output"
	"github.com/Aman-CERP/indexprep/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run process when the input or configuration changes",
		Long: `Process the input once, then watch the input file and every loaded
config file. Each change reloads the configuration and processes the input
again. A configuration that fails to load or validate is reported and the
previous one stays in use. Errors are reported and watching continues.

Stop with Ctrl-C.`,
		Example: `  indexprep watch --input items.yaml --output out.json`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runWatch(cmd, &opts)
		},
	}

	opts.addFlags(cmd)
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

func runWatch(cmd *cobra.Command, opts *processOptions) error {
	ctx := cmd.Context()
	status := output.New(cmd.ErrOrStderr())

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := opts.applySinkFlags(cfg); err != nil {
		return err
	}
	debounce, err := cfg.WatchDebounce()
	if err != nil {
		return err
	}

	processOnce := func() {
		res, err := runProcess(ctx, cfg, opts, cmd.OutOrStdout(), status)
		if err != nil {
			if ctx.Err() == nil {
				slog.LogAttrs(ctx, slog.LevelWarn, "watch_run_failed", amerrors.LogAttrs(err)...)
				status.Error(amerrors.FormatForCLI(err, debugMode))
			}
			return
		}
		status.Successf("Processed %d items (%d removed)", res.Items, len(res.Removed))
	}
	processOnce()

	paths := append([]string{opts.input}, cfg.Sources...)
	w, err := watcher.New(paths, watcher.Options{Debounce: debounce})
	if err != nil {
		return amerrors.IOError("failed to create watcher", err)
	}

	startErr := make(chan error, 1)
	go func() { startErr <- w.Start(ctx) }()
	defer func() {
		_ = w.Stop()
		if dropped := w.DroppedBatches(); dropped > 0 {
			slog.Warn("watch_batches_dropped", slog.Uint64("count", dropped))
		}
	}()

	status.Statusf("👀", "Watching %d file(s) with %s", len(w.Paths()), w.Type())

	errs := w.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-startErr:
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return amerrors.IOError("watcher stopped", err)
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("watcher_error", slog.String("error", err.Error()))
		case batch, ok := <-w.Events():
			if !ok {
				return nil
			}
			for _, e := range batch {
				slog.Info("watch_change_detected",
					slog.String("path", e.Path),
					slog.String("op", e.Operation.String()))
			}

			reloaded, err := loadConfig(cmd)
			if err == nil {
				err = opts.applySinkFlags(reloaded)
			}
			switch {
			case err == nil:
				cfg = reloaded
			case amerrors.IsConfig(err):
				slog.LogAttrs(ctx, slog.LevelWarn, "watch_config_rejected", amerrors.LogAttrs(err)...)
				status.Warningf("Configuration rejected, keeping the previous one: %v", err)
			default:
				slog.LogAttrs(ctx, slog.LevelWarn, "watch_config_reload_failed", amerrors.LogAttrs(err)...)
				status.Error(amerrors.FormatForCLI(err, debugMode))
				continue
			}
			processOnce()
		}
	}
}
