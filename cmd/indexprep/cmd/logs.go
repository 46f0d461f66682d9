package cmd

import (
	"fmt"
	"regexp"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexprep/internal/logging"
	"github.com/Aman-CERP/indexprep/internal/output"
)

func newLogsCmd() *cobra.Command {
	var (
		lines   int
		follow  bool
		level   string
		pattern string
		file    string
		noColor bool
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View the indexprep log file",
		Long: `Print recent entries of the JSON log written with --debug.`,
		Example: `  # Last 50 entries
  indexprep logs

  # Follow pipeline events only
  indexprep logs -f --pattern pipeline_`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := logging.FindLogFile(file)
			if err != nil {
				return err
			}

			vcfg := logging.ViewerConfig{
				Level:   level,
				NoColor: noColor || !output.New(cmd.OutOrStdout()).UseColor(),
			}
			if pattern != "" {
				re, err := regexp.Compile(pattern)
				if err != nil {
					return fmt.Errorf("invalid pattern: %w", err)
				}
				vcfg.Pattern = re
			}
			viewer := logging.NewViewer(vcfg, cmd.OutOrStdout())

			entries, err := viewer.Tail(path, lines)
			if err != nil {
				return err
			}
			viewer.Print(entries)

			if !follow {
				return nil
			}

			ch := make(chan logging.LogEntry, 64)
			errCh := make(chan error, 1)
			go func() {
				errCh <- viewer.Follow(cmd.Context(), path, ch)
				close(ch)
			}()
			for entry := range ch {
				viewer.Print([]logging.LogEntry{entry})
			}
			return <-errCh
		},
	}

	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Follow new entries")
	cmd.Flags().StringVar(&level, "level", "", "Minimum level: debug, info, warn, error")
	cmd.Flags().StringVar(&pattern, "pattern", "", "Only show lines matching the regular expression")
	cmd.Flags().StringVar(&file, "file", "", "Log file (default: ~/.indexprep/logs/indexprep.log)")
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}
