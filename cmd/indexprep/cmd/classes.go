package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexprep/internal/charclass"
	"github.com/Aman-CERP/indexprep/internal/output"
)

func newClassesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classes",
		Short: "List the character classes ignore_character can strip",
		Long: `List the Unicode general categories available to ignore_character in
the order they are applied. Classes enabled by the configuration are marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			enabled := make(map[string]bool)
			if cfg.Processors.IgnoreCharacter.Enabled {
				for _, code := range cfg.Processors.IgnoreCharacter.CharacterSets {
					enabled[code] = true
				}
			}

			rows := [][]string{{"CODE", "ENABLED", "NAME"}}
			for _, c := range charclass.Classes() {
				mark := ""
				if enabled[c.Code] {
					mark = "yes"
				}
				rows = append(rows, []string{c.Code, mark, c.Label})
			}
			output.New(cmd.OutOrStdout()).Table(rows)
			return nil
		},
	}
}
