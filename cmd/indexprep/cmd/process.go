package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexprep/internal/config"
	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
	"github.com/Aman-CERP/indexprep/internal/item"
	"github.com/Aman-CERP/indexprep/internal/output"
	"github.com/Aman-CERP/indexprep/internal/pipeline"
	"github.com/Aman-CERP/indexprep/internal/store"
)

// processOptions holds the flags shared by process and watch.
type processOptions struct {
	input    string
	output   string
	format   string
	sink     string
	sinkPath string
}

func (o *processOptions) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.input, "input", "i", "", "Batch file to process (YAML or JSON)")
	cmd.Flags().StringVarP(&o.output, "output", "o", "", "Write the processed batch to FILE (default: stdout)")
	cmd.Flags().StringVar(&o.format, "format", "", "Output format: json or yaml (default: from the output extension, else json)")
	cmd.Flags().StringVar(&o.sink, "sink", "", "Index the result: none, bleve or sqlite (overrides config)")
	cmd.Flags().StringVar(&o.sinkPath, "sink-path", "", "Index path (overrides config)")
	_ = cmd.MarkFlagRequired("input")
}

// outputFormat picks the explicit format, else the one implied by the
// output file extension.
func (o *processOptions) outputFormat() (item.Format, error) {
	name := o.format
	if name == "" {
		switch strings.ToLower(filepath.Ext(o.output)) {
		case ".yaml", ".yml":
			name = string(item.FormatYAML)
		}
	}
	f, err := item.ParseFormat(name)
	if err != nil {
		return "", amerrors.ValidationError(err.Error(), err)
	}
	return f, nil
}

// applySinkFlags overrides the configured sink.
func (o *processOptions) applySinkFlags(cfg *config.Config) error {
	if o.sink != "" {
		cfg.Sink.Backend = o.sink
	}
	if o.sinkPath != "" {
		cfg.Sink.Path = o.sinkPath
	}
	return cfg.Validate()
}

func newProcessCmd() *cobra.Command {
	var opts processOptions

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Run the preprocessing pipeline over a batch",
		Long: `Decode a batch of items, run the enabled processors in weight order,
and write the result.

Processors run in ascending weight: role_filter (-10), aggregated_field (-5),
ignore_character (0) by default.`,
		Example: `  # Process a batch and print JSON
  indexprep process --input items.yaml

  # Write YAML and index into bleve
  indexprep process -i items.yaml -o out.yaml --sink bleve --sink-path ./index.bleve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := opts.applySinkFlags(cfg); err != nil {
				return err
			}

			status := output.New(cmd.ErrOrStderr())
			res, err := runProcess(cmd.Context(), cfg, &opts, cmd.OutOrStdout(), status)
			if err != nil {
				return err
			}

			status.Successf("Processed %d items (%d removed) in %s", res.Items, len(res.Removed), res.Duration.Round(time.Millisecond))
			return nil
		},
	}

	opts.addFlags(cmd)
	return cmd
}

// runProcess decodes the input, runs the pipeline, writes the result and
// feeds the configured sink.
func runProcess(ctx context.Context, cfg *config.Config, opts *processOptions, stdout io.Writer, status *output.Writer) (*pipeline.Result, error) {
	format, err := opts.outputFormat()
	if err != nil {
		return nil, err
	}

	procs, err := cfg.BuildProcessors()
	if err != nil {
		return nil, err
	}

	batch, err := readBatch(opts.input)
	if err != nil {
		return nil, err
	}

	p := pipeline.New(procs, pipeline.WithWorkers(cfg.Pipeline.Workers))
	res, err := p.Run(ctx, batch)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, amerrors.New(amerrors.ErrCodePipelineFailed, "pipeline failed", err)
	}

	if err := writeBatch(opts.output, batch, format, stdout); err != nil {
		return nil, err
	}

	if err := indexBatch(ctx, cfg, batch, status); err != nil {
		return nil, err
	}
	return res, nil
}

func readBatch(path string) (*item.Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, amerrors.New(amerrors.ErrCodeFileNotFound,
				fmt.Sprintf("input file %s not found", path), err)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, amerrors.New(amerrors.ErrCodeFilePermission,
				fmt.Sprintf("cannot read input file %s", path), err)
		}
		return nil, amerrors.IOError(fmt.Sprintf("failed to open input file %s", path), err)
	}
	defer func() { _ = f.Close() }()

	batch, err := item.Decode(f)
	if err != nil {
		return nil, amerrors.ValidationError(fmt.Sprintf("invalid batch in %s", path), err).
			WithSuggestion("Batches are YAML or JSON documents with an items list")
	}
	slog.Debug("batch_decoded",
		slog.String("path", path),
		slog.Int("items", batch.Len()),
		slog.Any("ids", batch.IDs()))
	return batch, nil
}

// writeBatch writes to path through a temporary file so watchers never see
// a partial result. An empty path writes to stdout.
func writeBatch(path string, b *item.Batch, format item.Format, stdout io.Writer) error {
	if path == "" {
		return item.Encode(stdout, b, format)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return amerrors.IOError("failed to create output directory", err)
	}
	tmp, err := os.CreateTemp(dir, ".indexprep-*")
	if err != nil {
		return amerrors.IOError("failed to create output file", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if err := item.Encode(tmp, b, format); err != nil {
		_ = tmp.Close()
		return amerrors.IOError("failed to write output", err)
	}
	if err := tmp.Close(); err != nil {
		return amerrors.IOError("failed to write output", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return amerrors.IOError(fmt.Sprintf("failed to write %s", path), err)
	}
	return nil
}

func indexBatch(ctx context.Context, cfg *config.Config, b *item.Batch, status *output.Writer) error {
	sink, err := store.Open(store.Options{
		Backend: cfg.SinkBackend(),
		Path:    cfg.Sink.Path,
		Filter:  cfg.Processors.IgnoreCharacter.NormalizerConfig,
	})
	if err != nil {
		return err
	}
	if sink == nil {
		return nil
	}
	defer func() { _ = sink.Close() }()

	if err := sink.Write(ctx, b); err != nil {
		return amerrors.New(amerrors.ErrCodeIndexFailed, "failed to index batch", err).
			WithDetail("backend", string(cfg.SinkBackend()))
	}
	count, err := sink.Count(ctx)
	if err != nil {
		return amerrors.New(amerrors.ErrCodeIndexFailed, "failed to count indexed documents", err)
	}
	status.Statusf("📦", "Indexed into %s at %s (%d documents)", cfg.SinkBackend(), cfg.Sink.Path, count)
	return nil
}
