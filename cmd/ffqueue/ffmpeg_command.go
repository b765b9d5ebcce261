package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"ffqueue/internal/ffcaps"
)

func newFFmpegCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ffmpeg",
		Short: "Show what the configured ffmpeg supports",
	}
	cmd.AddCommand(newFFmpegBuildConfCommand(ctx))
	cmd.AddCommand(newFFmpegFormatsCommand(ctx))
	cmd.AddCommand(newFFmpegCodecsCommand(ctx, ffcaps.Encoders))
	cmd.AddCommand(newFFmpegCodecsCommand(ctx, ffcaps.Decoders))
	return cmd
}

func (c *commandContext) querier() (ffcaps.Querier, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return ffcaps.Querier{}, err
	}
	return ffcaps.Querier{FFmpeg: cfg.FFmpeg.Binary}, nil
}

func newFFmpegBuildConfCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "buildconf",
		Short: "Print the ffmpeg version, configure options and libraries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.querier()
			if err != nil {
				return err
			}
			conf, err := q.BuildConf(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Version: %s\n", conf.Version)
			fmt.Fprintln(out, "\nConfiguration:")
			for _, opt := range conf.Options {
				fmt.Fprintf(out, "  %s\n", opt)
			}
			if len(conf.Libraries) > 0 {
				fmt.Fprintln(out, "\nLibraries:")
				for _, lib := range conf.Libraries {
					fmt.Fprintf(out, "  %s\n", lib)
				}
			}
			return nil
		},
	}
}

func newFFmpegFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "formats [filter]",
		Short: "List container formats ffmpeg can read or write",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.querier()
			if err != nil {
				return err
			}
			formats, err := q.Formats(cmd.Context())
			if err != nil {
				return err
			}
			filter := firstArg(args)
			rows := make([][]string, 0, len(formats))
			for _, f := range formats {
				if !matchesFilter(filter, f.Name, f.Description) {
					continue
				}
				rows = append(rows, []string{f.Name, yesNo(f.Demux), yesNo(f.Mux), f.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Demux", "Mux", "Description"}, rows))
			return nil
		},
	}
}

func newFFmpegCodecsCommand(ctx *commandContext, kind ffcaps.CodecKind) *cobra.Command {
	return &cobra.Command{
		Use:   string(kind) + " [filter]",
		Short: "List ffmpeg " + string(kind),
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := ctx.querier()
			if err != nil {
				return err
			}
			codecs, err := q.Codecs(cmd.Context(), kind)
			if err != nil {
				return err
			}
			filter := firstArg(args)
			rows := make([][]string, 0, len(codecs))
			for _, c := range codecs {
				if !matchesFilter(filter, c.Name, c.Type, c.Description) {
					continue
				}
				rows = append(rows, []string{c.Name, c.Type, c.Flags, c.Description})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Name", "Type", "Flags", "Description"}, rows))
			return nil
		},
	}
}

func firstArg(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return strings.TrimSpace(args[0])
}

// matchesFilter is a case-insensitive substring match over fields.
func matchesFilter(filter string, fields ...string) bool {
	if filter == "" {
		return true
	}
	filter = strings.ToLower(filter)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), filter) {
			return true
		}
	}
	return false
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "-"
}
