package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"ffqueue/internal/preset"
	"ffqueue/internal/runner"
	"ffqueue/internal/task"
)

func newPresetsCommand(ctx *commandContext) *cobra.Command {
	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "Inspect stored presets and profiles",
	}
	presetsCmd.AddCommand(newPresetsListCommand(ctx))
	presetsCmd.AddCommand(newPresetsShowCommand(ctx))
	return presetsCmd
}

func newPresetsListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list [preset]",
		Short: "List presets, or the profiles of one preset",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := preset.NewDirStore(cfg.Paths.PresetDir)
			out := cmd.OutOrStdout()

			if len(args) == 1 {
				profiles, err := store.Profiles(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if len(profiles) == 0 {
					fmt.Fprintf(out, "Preset %q has no profiles\n", args[0])
					return nil
				}
				rows := make([][]string, 0, len(profiles))
				for _, p := range profiles {
					rows = append(rows, []string{p.Name, p.Description, displayExtension(p), displaySupported(p)})
				}
				fmt.Fprintln(out, renderTable([]string{"Profile", "Description", "Output", "Accepts"}, rows))
				return nil
			}

			names, err := store.Presets(cmd.Context())
			if err != nil {
				return err
			}
			if len(names) == 0 {
				fmt.Fprintf(out, "No presets found in %s\n", store.Dir())
				return nil
			}
			rows := make([][]string, 0, len(names))
			for _, name := range names {
				count := "?"
				if profiles, err := store.Profiles(cmd.Context(), name); err == nil {
					count = strconv.Itoa(len(profiles))
				}
				rows = append(rows, []string{name, count})
			}
			fmt.Fprintln(out, renderTable([]string{"Preset", "Profiles"}, rows, alignLeft, alignRight))
			return nil
		},
	}
}

func newPresetsShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <preset> <profile>",
		Short: "Show a profile's passes and the commands they produce",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store := preset.NewDirStore(cfg.Paths.PresetDir)
			profile, err := store.Profile(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			passes, err := profile.Passes()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Preset:      %s\n", profile.Preset)
			fmt.Fprintf(out, "Profile:     %s\n", profile.Name)
			fmt.Fprintf(out, "Description: %s\n", profile.Description)
			fmt.Fprintf(out, "Output:      %s\n", displayExtension(profile))
			fmt.Fprintf(out, "Accepts:     %s\n\n", displaySupported(profile))

			rows := make([][]string, 0, len(passes))
			for i, pass := range passes {
				rows = append(rows, []string{strconv.Itoa(i + 1), pass.Args, pass.Suffix, pass.Subdir})
			}
			fmt.Fprintln(out, renderTable([]string{"Pass", "Arguments", "Suffix", "Subdir"}, rows, alignRight))

			ext := profile.OutputExtension
			if profile.KeepsExtension() {
				ext = "mkv"
			}
			sample := task.Source{Input: "INPUT." + ext, Output: "OUTPUT." + ext}
			builder := task.NewBuilder(cfg.FFmpeg)
			fmt.Fprintln(out, "\nCommands:")
			for _, d := range task.BuildQueue([]task.Source{sample}, passes, ext) {
				argv, err := builder.Command(d)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "  %d. %s\n", d.PassIndex, runner.FormatArgv(argv))
			}
			return nil
		},
	}
}

func displayExtension(p preset.Profile) string {
	if p.KeepsExtension() {
		return "same as source"
	}
	return p.OutputExtension
}

func displaySupported(p preset.Profile) string {
	exts := p.Extensions()
	if len(exts) == 0 {
		return "any"
	}
	return strings.Join(exts, ", ")
}
