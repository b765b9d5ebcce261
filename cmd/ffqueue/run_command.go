package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ffqueue/internal/logging"
	"ffqueue/internal/peak"
	"ffqueue/internal/preset"
	"ffqueue/internal/probe"
	"ffqueue/internal/services"
	"ffqueue/internal/task"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		presetName  string
		profileName string
		outputDir   string
		volume      string
		peakTarget  float64
		peakMap     string
		suppress    bool
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "run --preset P --profile N [--output DIR] [--volume ARGS | --normalize-peak DB] files...",
		Short: "Encode files with every pass of a preset profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := logging.NewComponentLogger(ctx.appLogger(cmd), "cli")

			store := preset.NewDirStore(cfg.Paths.PresetDir)
			profile, err := store.Profile(cmd.Context(), presetName, profileName)
			if err != nil {
				return err
			}
			passes, err := profile.Passes()
			if err != nil {
				return fmt.Errorf("preset %q profile %q: %w", presetName, profileName, err)
			}

			inputs, err := selectInputs(cmd, profile, args)
			if err != nil {
				return err
			}

			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.Paths.OutputDir
			}
			if dir != "" {
				if dir, err = filepath.Abs(dir); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}

			var volumes map[string]string
			if cmd.Flags().Changed("normalize-peak") {
				fmt.Fprintf(cmd.ErrOrStderr(), "Measuring audio peak level of %d file(s)\n", len(inputs))
				detector := peak.Detector{FFmpeg: cfg.FFmpeg.Binary, TimeSeq: cfg.FFmpeg.TimeSeq, AudioMap: peakMap}
				if volumes, err = detector.Volumes(cmd.Context(), inputs, peakTarget, logger); err != nil {
					return err
				}
			}

			durations := probe.Durations(cmd.Context(), probe.FFprobe{Binary: cfg.FFmpeg.FFprobeBinary}, inputs, logger)
			sources := make([]task.Source, 0, len(inputs))
			for _, input := range inputs {
				vol := strings.TrimSpace(volume)
				if filter, ok := volumes[input]; ok {
					vol = filter
				}
				sources = append(sources, task.Source{
					Input:    input,
					Output:   task.DestinationFor(dir, input, profile.OutputExtension),
					Volume:   vol,
					Duration: durations[input],
				})
			}

			tasks := task.BuildQueue(sources, passes, profile.OutputExtension)
			if err := prepareOutputDirs(tasks); err != nil {
				return err
			}

			return executeRun(cmd, ctx, cfg, runSpec{
				name:     presetName + "/" + profileName,
				logName:  runLogName(task.KindEncode),
				builder:  task.NewBuilder(cfg.FFmpeg),
				tasks:    tasks,
				suppress: suppress,
				noBars:   noProgress,
			})
		},
	}

	cmd.Flags().StringVarP(&presetName, "preset", "p", "", "Preset name (file name without .prst)")
	cmd.Flags().StringVarP(&profileName, "profile", "n", "", "Profile name inside the preset")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (defaults to paths.output_dir, or next to each input)")
	cmd.Flags().StringVar(&volume, "volume", "", "Audio filter arguments appended after the pass arguments, e.g. \"-af volume=-3dB\"")
	cmd.Flags().Float64Var(&peakTarget, "normalize-peak", -1, "Measure each file's audio peak and adjust it to this level in dBFS (-99..0)")
	cmd.Flags().StringVar(&peakMap, "peak-map", "", "Stream selection for the peak measurement, e.g. \"-map 0:a:1\"")
	cmd.Flags().BoolVar(&suppress, "suppress-output", false, "Hide ffmpeg output; show progress and outcomes only")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the animated progress bar")
	_ = cmd.MarkFlagRequired("preset")
	_ = cmd.MarkFlagRequired("profile")
	cmd.MarkFlagsMutuallyExclusive("volume", "normalize-peak")
	return cmd
}

// selectInputs resolves args to absolute paths of existing files the profile
// accepts. Unsupported files are reported and skipped.
func selectInputs(cmd *cobra.Command, profile preset.Profile, args []string) ([]string, error) {
	inputs := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("resolve input %q: %w", arg, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, services.Wrap(services.ErrNotFound, "cli", "select inputs",
					fmt.Sprintf("input %q does not exist", arg), nil)
			}
			return nil, fmt.Errorf("stat input %q: %w", arg, err)
		}
		if info.IsDir() {
			return nil, services.Wrap(services.ErrValidation, "cli", "select inputs",
				fmt.Sprintf("input %q is a directory", arg), nil)
		}
		if !profile.Supports(path) {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipping %s: profile %q accepts %s\n",
				arg, profile.Name, strings.Join(profile.Extensions(), ", "))
			continue
		}
		inputs = append(inputs, path)
	}
	if len(inputs) == 0 {
		return nil, services.Wrap(services.ErrValidation, "cli", "select inputs",
			"no input files match the profile's supported formats", nil)
	}
	return inputs, nil
}

func prepareOutputDirs(tasks []task.Descriptor) error {
	seen := make(map[string]bool)
	for _, d := range tasks {
		if filepath.Clean(d.Output) == filepath.Clean(d.Input) {
			return services.Wrap(services.ErrValidation, "cli", "prepare outputs",
				fmt.Sprintf("output would overwrite input %q; choose another --output directory or a pass suffix", d.Input), nil)
		}
		dir := filepath.Dir(d.Output)
		if seen[dir] {
			continue
		}
		seen[dir] = true
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output directory %q: %w", dir, err)
		}
	}
	return nil
}
