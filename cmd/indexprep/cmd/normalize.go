package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexprep/internal/charclass"
	"github.com/Aman-CERP/indexprep/internal/processor"
)

func newNormalizeCmd() *cobra.Command {
	var (
		ignorable string
		classes   []string
	)

	cmd := &cobra.Command{
		Use:   "normalize TEXT...",
		Short: "Normalize search keys with ignore_character",
		Long: `Apply the ignore_character configuration to search keys, the same way
indexed text is processed, and print one result per line.

Flags override the configured pattern and character classes.`,
		Example: `  indexprep normalize "¿Qué pasa?" "e-mail"
  indexprep normalize --ignorable "[-]" --classes Zs "a - b"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			nc := cfg.Processors.IgnoreCharacter.NormalizerConfig
			if cmd.Flags().Changed("ignorable") {
				nc.Ignorable = ignorable
			}
			if cmd.Flags().Changed("classes") {
				nc.CharacterSets = classes
			}
			if err := processor.ValidateNormalizerConfig(nc).Err(); err != nil {
				return err
			}

			n := processor.NewNormalizer(nc, cfg.Processors.IgnoreCharacter.Weight)
			for _, key := range n.NormalizeQuery(args) {
				if _, err := fmt.Fprintln(cmd.OutOrStdout(), key); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&ignorable, "ignorable", "", "Regular expression of characters to remove")
	cmd.Flags().StringSliceVar(&classes, "classes", nil, "Character classes to remove, e.g. Pc,Po,Zs")
	_ = cmd.RegisterFlagCompletionFunc("classes", completeClassCodes)
	return cmd
}

// completeClassCodes offers the registered class codes in canonical order.
func completeClassCodes(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return charclass.Codes(), cobra.ShellCompDirectiveNoFileComp
}
