package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"ffqueue/internal/config"
	"ffqueue/internal/preset"
	"ffqueue/internal/services"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}
	configCmd.AddCommand(newConfigInitCommand())
	configCmd.AddCommand(newConfigValidateCommand(ctx))
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Create a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := resolveInitTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !errors.Is(err, fs.ErrNotExist) {
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Put preset (.prst) files in the directory named by paths.preset_dir.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Overwrite existing configuration if present")
	return cmd
}

func resolveInitTarget(targetPath string) (string, error) {
	target := strings.TrimSpace(targetPath)
	if target == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return defaultPath, nil
	}
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return expanded, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			out := cmd.OutOrStdout()
			path := ctx.configPath
			fmt.Fprintf(out, "Config path: %s\n", path)
			if _, statErr := os.Stat(path); statErr != nil {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			fmt.Fprintf(out, "Preset directory: %s\n", cfg.Paths.PresetDir)
			fmt.Fprintf(out, "History database: %s\n", cfg.HistoryPath())

			problems, err := checkPresets(cmd.Context(), preset.NewDirStore(cfg.Paths.PresetDir), out)
			if err != nil {
				return err
			}
			if len(problems) > 0 {
				for _, problem := range problems {
					fmt.Fprintf(out, "  invalid: %s\n", problem)
				}
				return services.Wrap(services.ErrValidation, "config", "validate",
					fmt.Sprintf("%d preset problem(s)", len(problems)), nil)
			}
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

// checkPresets decodes every profile of every preset and returns one message
// per unusable preset file or profile.
func checkPresets(ctx context.Context, store preset.Store, out io.Writer) ([]string, error) {
	names, err := store.Presets(ctx)
	if err != nil {
		return nil, err
	}
	var (
		problems []string
		profiles int
	)
	for _, name := range names {
		list, err := store.Profiles(ctx, name)
		if err != nil {
			problems = append(problems, err.Error())
			continue
		}
		for _, profile := range list {
			if _, err := profile.Passes(); err != nil {
				problems = append(problems, fmt.Sprintf("%s/%s: %v", name, profile.Name, err))
				continue
			}
			profiles++
		}
	}
	fmt.Fprintf(out, "Presets: %d (%d usable profiles)\n", len(names), profiles)
	return problems, nil
}
