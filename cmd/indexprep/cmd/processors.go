package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
	"github.com/Aman-CERP/indexprep/internal/output"
	"github.com/Aman-CERP/indexprep/internal/processor"
)

func newProcessorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "processors [ID]",
		Short: "List the available processors and their state",
		Long: `List every available processor with its kind and whether the loaded
configuration enables it. Pass a processor ID to show only that one.`,
		Args: cobra.MaximumNArgs(1),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			ids := make([]string, 0, len(processor.Kinds()))
			for _, k := range processor.Kinds() {
				ids = append(ids, k.ID)
			}
			return ids, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			out := output.New(cmd.OutOrStdout())

			if len(args) == 1 {
				id := args[0]
				if !processor.IsKnown(id) {
					return amerrors.New(amerrors.ErrCodeUnknownProcessor,
						fmt.Sprintf("unknown processor %q", id), nil).
						WithSuggestion("Run 'indexprep processors' to list them")
				}
				for _, k := range processor.Kinds() {
					if k.ID != id {
						continue
					}
					enabled, weight := cfg.Processors.State(id)
					out.Header(k.Label)
					out.KeyValue("id", k.ID)
					out.KeyValue("kind", k.Kind)
					out.KeyValue("enabled", enabled)
					out.KeyValue("weight", weight)
					out.KeyValue("description", k.Description)
				}
				return nil
			}

			rows := [][]string{{"ID", "KIND", "WEIGHT", "ENABLED", "DESCRIPTION"}}
			for _, k := range processor.Kinds() {
				enabled, weight := cfg.Processors.State(k.ID)
				mark := ""
				if enabled {
					mark = "yes"
				}
				rows = append(rows, []string{k.ID, string(k.Kind), strconv.Itoa(weight), mark, k.Description})
			}
			out.Table(rows)
			return nil
		},
	}
}
