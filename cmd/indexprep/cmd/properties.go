package cmd

import (
	"encoding/json"
	"sort"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexprep/internal/output"
	"github.com/Aman-CERP/indexprep/internal/processor"
)

func newPropertiesCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "properties",
		Short: "Print the aggregated property definitions",
		Long: `Print the property definitions contributed by aggregated_field: the
label, data type and description of every configured aggregated field.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			settings := cfg.Processors.AggregatedField
			var defs map[string]processor.PropertyDefinition
			if settings.Enabled {
				defs = processor.NewAggregator(settings.AggregatorConfig, settings.Weight).
					PropertyDefinitions("", nil)
			}

			if jsonOutput {
				if defs == nil {
					defs = map[string]processor.PropertyDefinition{}
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(defs)
			}

			out := output.New(cmd.OutOrStdout())
			if !settings.Enabled {
				out.Warning("aggregated_field is disabled")
				return nil
			}
			if len(defs) == 0 {
				out.Status("", "No aggregated fields configured")
				return nil
			}

			targets := make([]string, 0, len(defs))
			for t := range defs {
				targets = append(targets, t)
			}
			sort.Strings(targets)

			rows := [][]string{{"FIELD", "LABEL", "TYPE", "DESCRIPTION"}}
			for _, t := range targets {
				d := defs[t]
				rows = append(rows, []string{t, d.Label, d.DataType.String(), d.Description})
			}
			out.Table(rows)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
