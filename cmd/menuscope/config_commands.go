package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"menuscope/internal/config"
)

var skipConfigLoad = map[string]string{"skipConfigLoad": "true"}

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Create or check the menuscope configuration",
	}
	configCmd.AddCommand(newConfigInitCommand(), newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write the sample configuration",
		Long:        "Write the sample configuration and report which estimators could run with the keys found in the environment.",
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := initTarget(targetPath)
			if err != nil {
				return err
			}
			if err := refuseExisting(target, overwrite); err != nil {
				return err
			}
			if err := config.CreateSample(target); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			cfg, _, _, err := config.Load(target)
			if err != nil {
				// The sample always parses; a failure here comes from the environment.
				return fmt.Errorf("check new config: %w", err)
			}
			if ready := writeEstimatorStatus(out, cfg); ready < len(cfg.Estimators.Enabled) {
				fmt.Fprintln(out, "Add the missing keys to the file, to ./.env or to the environment before running 'menuscope nutrition'.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Where to write the file (defaults to ~/.config/menuscope/config.toml)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	return cmd
}

func initTarget(flagValue string) (string, error) {
	if target := strings.TrimSpace(flagValue); target != "" {
		expanded, err := config.ExpandPath(target)
		if err != nil {
			return "", fmt.Errorf("resolve config path: %w", err)
		}
		return expanded, nil
	}
	target, err := config.DefaultConfigPath()
	if err != nil {
		return "", fmt.Errorf("determine default config path: %w", err)
	}
	return target, nil
}

func refuseExisting(target string, overwrite bool) error {
	if overwrite {
		return nil
	}
	_, err := os.Stat(target)
	switch {
	case err == nil:
		return fmt.Errorf("%s already exists (pass --overwrite to replace it)", target)
	case errors.Is(err, fs.ErrNotExist):
		return nil
	default:
		return fmt.Errorf("check config path: %w", err)
	}
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Load the configuration, create its directories and check estimator keys",
		Annotations: skipConfigLoad,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, path, exists, err := config.Load(ctx.configPath())
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}

			out := cmd.OutOrStdout()
			source := path
			if !exists {
				source += " (not found, using defaults)"
			}
			fmt.Fprintf(out, "Config path: %s\n", source)
			writeEstimatorStatus(out, cfg)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// writeEstimatorStatus prints one row per enabled estimator and returns how
// many of them have credentials.
func writeEstimatorStatus(out io.Writer, cfg *config.Config) int {
	rows := make([][]string, 0, len(cfg.Estimators.Enabled))
	ready := 0
	for _, name := range cfg.Estimators.Enabled {
		status, detail := "ready", ""
		if err := cfg.ProviderReady(name); err != nil {
			status, detail = "not ready", err.Error()
		} else {
			ready++
		}
		rows = append(rows, []string{name, status, detail})
	}
	fmt.Fprintln(out, renderTable(out, []string{"Estimator", "Status", "Detail"}, rows, nil))
	return ready
}
