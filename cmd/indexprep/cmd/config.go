package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/indexprep/configs"
	"github.com/Aman-CERP/indexprep/internal/config"
	amerrors "github.com/Aman-CERP/indexprep/internal/errors"
	"github.com/Aman-CERP/indexprep/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration files",
		Long: `Manage indexprep configuration files.

Configuration precedence (lowest to highest):
  1. Built-in defaults
  2. User config (~/.config/indexprep/config.yaml)
  3. Project config (.indexprep.yaml) or --config FILE
  4. Environment variables (INDEXPREP_*)`,
		Example: `  # Create a project config from the template
  indexprep config init --project

  # Show the effective configuration
  indexprep config show`,
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())
	cmd.AddCommand(newConfigRestoreCmd())
	return cmd
}

// configTarget returns the file config init and path operate on.
func configTarget(project bool) (string, error) {
	if !project {
		return config.GetUserConfigPath(), nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}
	if existing := config.FindProjectConfig(cwd); existing != "" {
		return existing, nil
	}
	return config.ProjectConfigPath(cwd), nil
}

func newConfigInitCmd() *cobra.Command {
	var force, project bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from the template",
		Long: `Create the user configuration file, or with --project a .indexprep.yaml
in the current directory.

With --force an existing file is backed up and rewritten with any new
defaults filled in. Existing settings are preserved.`,
		Example: `  indexprep config init
  indexprep config init --project --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configTarget(project)
			if err != nil {
				return err
			}
			return runConfigInit(cmd, path, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Back up and upgrade an existing configuration")
	cmd.Flags().BoolVar(&project, "project", false, "Create .indexprep.yaml in the current directory")
	return cmd
}

func runConfigInit(cmd *cobra.Command, path string, force bool) error {
	out := output.New(cmd.OutOrStdout())

	if _, err := os.Stat(path); err == nil {
		if !force {
			out.Warning("Configuration already exists")
			out.Statusf("📁", "Location: %s", path)
			out.Status("💡", "Use --force to upgrade it with new defaults (a backup is kept)")
			return nil
		}
		return runConfigUpgrade(out, path)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(configs.ConfigTemplate), 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	out.Success("Created configuration")
	out.Statusf("📁", "Location: %s", path)
	out.Status("📋", "Next: enable processors, then run 'indexprep validate'")
	return nil
}

// runConfigUpgrade backs up path and rewrites it decoded over the current
// defaults.
func runConfigUpgrade(out *output.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config: %w", err)
	}
	cfg, err := config.Parse(data)
	if err != nil {
		return err
	}

	backupPath, err := config.BackupConfig(path)
	if err != nil {
		return fmt.Errorf("failed to backup config: %w", err)
	}
	if err := cfg.WriteYAML(path); err != nil {
		return err
	}

	out.Success("Configuration upgraded")
	out.Statusf("📁", "Location: %s", path)
	out.Statusf("💾", "Backup: %s", backupPath)
	return nil
}

func newConfigShowCmd() *cobra.Command {
	var (
		jsonOutput bool
		defaults   bool
	)

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long: `Show the configuration after merging defaults, the user config, the
project config and the environment.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.NewConfig()
			if !defaults {
				var err error
				if cfg, err = loadConfig(cmd); err != nil {
					return err
				}
			}

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(cfg)
			}

			data, err := cfg.YAML()
			if err != nil {
				return err
			}
			if len(cfg.Sources) > 0 {
				for _, src := range cfg.Sources {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", src)
				}
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	cmd.Flags().BoolVar(&defaults, "defaults", false, "Show the built-in defaults only")
	return cmd
}

func newConfigPathCmd() *cobra.Command {
	var project bool

	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configTarget(project)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), path)
			return err
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "Print the project config path")
	return cmd
}

func newConfigRestoreCmd() *cobra.Command {
	var (
		project bool
		backup  string
	)

	cmd := &cobra.Command{
		Use:   "restore",
		Short: "Restore a configuration file from a backup",
		Long: `Replace the configuration file with its newest backup, or with the
backup given by --backup. The current file is backed up first, so a
restore can itself be undone.`,
		Example: `  indexprep config restore
  indexprep config restore --project --backup .indexprep.yaml.bak.20240102-150405.000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configTarget(project)
			if err != nil {
				return err
			}
			return runConfigRestore(cmd, path, backup)
		},
	}

	cmd.Flags().BoolVar(&project, "project", false, "Restore the project config")
	cmd.Flags().StringVar(&backup, "backup", "", "Backup file to restore (default: the newest)")
	return cmd
}

func runConfigRestore(cmd *cobra.Command, path, backup string) error {
	if backup == "" {
		backups, err := config.ListBackups(path)
		if err != nil {
			return amerrors.IOError("failed to list backups", err)
		}
		if len(backups) == 0 {
			return amerrors.New(amerrors.ErrCodeConfigNotFound,
				fmt.Sprintf("no backups of %s", path), nil).
				WithSuggestion("Backups are created by 'indexprep config init --force'")
		}
		backup = backups[0]
	}

	if err := config.RestoreConfig(path, backup); err != nil {
		return amerrors.IOError("failed to restore configuration", err).WithDetail("backup", backup)
	}

	out := output.New(cmd.OutOrStdout())
	out.Success("Configuration restored")
	out.Statusf("📁", "Location: %s", path)
	out.Statusf("💾", "From: %s", backup)
	return nil
}
