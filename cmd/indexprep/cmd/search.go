package cmd

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
	"github.com/Aman-CERP/indexprep/internal/processor"
	"github.com/Aman-CERP/indexprep/internal/store"
)

func newSearchCmd() *cobra.Command {
	var (
		sink     string
		sinkPath string
		limit    int
	)

	cmd := &cobra.Command{
		Use:   "search QUERY...",
		Short: "Search the index built by process",
		Long: `Search the configured sink and print the IDs of matching items, one per
line. The keys go through ignore_character first, so they are normalized
the same way as the indexed text.`,
		Example: `  indexprep search --sink sqlite --sink-path ./index.db alice@example.com`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if sink != "" {
				cfg.Sink.Backend = sink
			}
			if sinkPath != "" {
				cfg.Sink.Path = sinkPath
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			if cfg.SinkBackend() == store.BackendNone {
				return amerrors.New(amerrors.ErrCodeConfigInvalid, "no sink configured", nil).
					WithSuggestion("Pass --sink and --sink-path, or set sink in the configuration")
			}
			if limit < 1 {
				return amerrors.ValidationError(fmt.Sprintf("limit must be positive, got %d", limit), nil)
			}

			procs, err := cfg.BuildProcessors()
			if err != nil {
				return err
			}
			keys := args
			if p, ok := processor.Find(procs, processor.IDIgnoreCharacter); ok {
				if n, ok := p.(*processor.Normalizer); ok {
					keys = n.NormalizeQuery(args)
				}
			}
			query := strings.Join(keys, " ")
			slog.Debug("search_query",
				slog.Any("keys", args),
				slog.String("query", query))

			s, err := store.Open(store.Options{
				Backend: cfg.SinkBackend(),
				Path:    cfg.Sink.Path,
				Filter:  cfg.Processors.IgnoreCharacter.NormalizerConfig,
			})
			if err != nil {
				return err
			}
			defer func() { _ = s.Close() }()

			ids, err := s.Match(cmd.Context(), query, limit)
			if err != nil {
				return amerrors.New(amerrors.ErrCodeIndexFailed, "search failed", err).
					WithDetail("backend", string(cfg.SinkBackend()))
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sink, "sink", "", "Sink to search: bleve or sqlite (overrides config)")
	cmd.Flags().StringVar(&sinkPath, "sink-path", "", "Index path (overrides config)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of results")
	return cmd
}
