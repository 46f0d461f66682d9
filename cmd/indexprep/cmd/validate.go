package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexprep/internal/output"
	"github.com/Aman-CERP/indexprep/internal/pipeline"
	"github.com/Aman-CERP/indexprep/internal/processor"
)

func newValidateCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long: `Load the configuration and check every processor option.

Each problem is reported with the processor and option it belongs to.
Exits non-zero when the configuration is invalid.`,
		Example: `  indexprep validate
  indexprep validate --config ./prod.yaml --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runValidate(cmd, jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output problems as JSON")
	return cmd
}

type validationReport struct {
	Valid      bool                        `json:"valid"`
	Sources    []string                    `json:"sources,omitempty"`
	Processors []string                    `json:"processors,omitempty"`
	Errors     []processor.ValidationError `json:"errors,omitempty"`
}

func runValidate(cmd *cobra.Command, jsonOutput bool) error {
	report := validationReport{}

	cfg, err := loadConfig(cmd)
	if err != nil {
		var issues processor.ValidationErrors
		if !errors.As(err, &issues) {
			return err
		}
		report.Errors = issues
	} else {
		report.Valid = true
		report.Sources = cfg.Sources
		procs, err := cfg.BuildProcessors()
		if err != nil {
			return err
		}
		for _, p := range pipeline.New(procs).Processors() {
			report.Processors = append(report.Processors, p.ID())
		}
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			return err
		}
	} else {
		printValidation(output.New(cmd.OutOrStdout()), report)
	}

	if !report.Valid {
		return fmt.Errorf("configuration has %d problem(s)", len(report.Errors))
	}
	return nil
}

func printValidation(out *output.Writer, report validationReport) {
	if !report.Valid {
		out.Errorf("Configuration has %d problem(s)", len(report.Errors))
		for _, e := range report.Errors {
			out.Status("", e.Error())
		}
		return
	}

	out.Success("Configuration is valid")
	if len(report.Sources) == 0 {
		out.KeyValue("sources", "defaults")
	}
	for _, src := range report.Sources {
		out.KeyValue("source", src)
	}
	if len(report.Processors) == 0 {
		out.KeyValue("processors", "none enabled")
		return
	}
	for i, id := range report.Processors {
		out.KeyValue(fmt.Sprintf("step %d", i+1), id)
	}
}
