package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ffqueue/internal/logging"
	"ffqueue/internal/playlist"
	"ffqueue/internal/task"
	"ffqueue/internal/ytinfo"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var (
		format     string
		outputDir  string
		noPlaylist bool
		suppress   bool
		noProgress bool
	)

	cmd := &cobra.Command{
		Use:   "download [--format F] urls...",
		Short: "Download URLs with yt-dlp, one task per video",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.appLogger(cmd)

			urls := make([]string, 0, len(args))
			for _, arg := range args {
				if url := strings.TrimSpace(arg); url != "" {
					urls = append(urls, url)
				}
			}
			if cfg.Downloader.ExpandPlaylist && !noPlaylist {
				expander := playlist.NewExpander(logger)
				if ctx.playlistLister != nil {
					expander.Lister = ctx.playlistLister
				}
				if urls, err = expander.Expand(cmd.Context(), urls); err != nil {
					return err
				}
			}

			dir := strings.TrimSpace(outputDir)
			if dir == "" {
				dir = cfg.Paths.OutputDir
			}
			if dir == "" {
				if dir, err = os.Getwd(); err != nil {
					return fmt.Errorf("resolve output directory: %w", err)
				}
			}
			if dir, err = filepath.Abs(dir); err != nil {
				return fmt.Errorf("resolve output directory: %w", err)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output directory %q: %w", dir, err)
			}

			downloader := cfg.Downloader
			if cmd.Flags().Changed("format") {
				downloader.Format = strings.TrimSpace(format)
			}
			builder := task.NewDownloadBuilder(downloader, dir)
			tasks := builder.DownloadQueue(urls)
			logger.Info("download queue built",
				logging.String(logging.FieldEventType, "download_queue_built"),
				logging.Int("urls", len(args)),
				logging.Int("tasks", len(tasks)),
			)

			return executeRun(cmd, ctx, cfg, runSpec{
				name:     "download",
				logName:  runLogName(task.KindDownload),
				builder:  builder,
				tasks:    tasks,
				suppress: suppress,
				noBars:   noProgress,
			})
		},
	}

	cmd.AddCommand(newDownloadFormatsCommand(ctx))
	cmd.AddCommand(newDownloadVersionCommand(ctx))

	cmd.Flags().StringVarP(&format, "format", "f", "", "yt-dlp format selector (overrides downloader.format)")
	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Download directory (defaults to paths.output_dir)")
	cmd.Flags().BoolVar(&noPlaylist, "no-playlist", false, "Pass playlist URLs to yt-dlp unchanged")
	cmd.Flags().BoolVar(&suppress, "suppress-output", false, "Hide yt-dlp output; show progress and outcomes only")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false, "Disable the animated progress bar")
	return cmd
}

func newDownloadFormatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "formats url",
		Short: "List the formats yt-dlp offers for a URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := ytinfo.Client{Builder: task.NewDownloadBuilder(cfg.Downloader, "")}
			lines, err := client.Formats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, line := range lines {
				fmt.Fprintln(out, line)
			}
			return nil
		},
	}
}

func newDownloadVersionCommand(ctx *commandContext) *cobra.Command {
	var checkLatest bool
	cmd := &cobra.Command{
		Use:   "version [--check-latest]",
		Short: "Show the installed yt-dlp version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			client := ytinfo.Client{
				Builder:    task.NewDownloadBuilder(cfg.Downloader, ""),
				ReleaseURL: cfg.Downloader.ReleaseURL,
			}
			installed, err := client.InstalledVersion(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Installed: %s\n", installed)
			if !checkLatest {
				return nil
			}
			latest, err := client.LatestVersion(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Latest:    %s\n", latest)
			if ytinfo.SameVersion(installed, latest) {
				fmt.Fprintln(out, "yt-dlp is up to date")
			} else {
				fmt.Fprintf(out, "Update available: %s -> %s\n", installed, latest)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&checkLatest, "check-latest", false, "Also look up the latest published release (downloader.release_url)")
	return cmd
}
