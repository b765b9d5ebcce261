package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ffqueue/internal/logs"
	"ffqueue/internal/services"
	"ffqueue/internal/task"
)

func newLogCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		path   bool
	)

	cmd := &cobra.Command{
		Use:       "log [encode|download]",
		Short:     "Show the latest run log",
		Long:      "Print the tail of the most recent run log, optionally restricted to one queue kind.",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{string(task.KindEncode), string(task.KindDownload)},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			kind := ""
			if len(args) == 1 {
				kind = args[0]
				if kind != string(task.KindEncode) && kind != string(task.KindDownload) {
					return services.Wrap(services.ErrValidation, "cli", "log",
						fmt.Sprintf("unknown log kind %q (want %s or %s)", kind, task.KindEncode, task.KindDownload), nil)
				}
			}
			logPath, err := logs.Latest(cfg.Paths.LogDir, kind)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if path {
				fmt.Fprintln(out, logPath)
				return nil
			}

			tail, offset, err := logs.Last(logPath, lines)
			if err != nil {
				return err
			}
			for _, line := range tail {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}

			followCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return logs.Follow(followCtx, logPath, offset, 250*time.Millisecond, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 40, "Number of trailing lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing lines as they are appended")
	cmd.Flags().BoolVar(&path, "path", false, "Print the log path only")
	return cmd
}
