package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"ffqueue/internal/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int

	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				runs, err := store.ListRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if len(runs) == 0 {
					fmt.Fprintln(out, "No runs recorded")
					return nil
				}
				rows := make([][]string, 0, len(runs))
				for _, run := range runs {
					rows = append(rows, []string{
						shortID(run.ID),
						formatStarted(run.StartedAt),
						run.Name,
						string(run.State),
						fmt.Sprintf("%d/%d", run.Completed, run.Failed),
						strconv.Itoa(run.Skipped),
						formatDuration(run.Duration()),
					})
				}
				fmt.Fprintln(out, renderTable(
					[]string{"Run", "Started", "Name", "State", "Done/Failed", "Skipped", "Duration"},
					rows,
					alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight,
				))
				return nil
			})
		},
	}
	historyCmd.Flags().IntVarP(&limit, "limit", "l", 20, "Number of runs to show (0 for all)")

	historyCmd.AddCommand(newHistoryShowCommand(ctx))
	historyCmd.AddCommand(newHistoryClearCommand(ctx))
	return historyCmd
}

func newHistoryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show one run and its task outcomes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				run, tasks, err := store.GetRun(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Run:      %s\n", run.ID)
				fmt.Fprintf(out, "Name:     %s\n", run.Name)
				fmt.Fprintf(out, "State:    %s\n", run.State)
				fmt.Fprintf(out, "Started:  %s\n", formatStarted(run.StartedAt))
				fmt.Fprintf(out, "Duration: %s\n", formatDuration(run.Duration()))
				fmt.Fprintf(out, "Tasks:    %d launched of %d, %d skipped\n", run.Launched, run.Total, run.Skipped)
				if run.FatalError != "" {
					fmt.Fprintf(out, "Fatal:    %s\n", run.FatalError)
				}
				if len(tasks) == 0 {
					return nil
				}
				rows := make([][]string, 0, len(tasks))
				for _, t := range tasks {
					status := string(t.Status)
					if t.Status == history.TaskFailed && t.ExitCode > 0 {
						status = fmt.Sprintf("failed (exit %d)", t.ExitCode)
					}
					rows = append(rows, []string{
						strconv.Itoa(t.Index),
						t.Input,
						fmt.Sprintf("%d/%d", t.PassIndex, t.PassCount),
						status,
						formatDuration(t.Elapsed),
					})
				}
				fmt.Fprintln(out)
				fmt.Fprintln(out, renderTable([]string{"#", "Source", "Pass", "Status", "Elapsed"}, rows,
					alignRight, alignLeft, alignRight, alignLeft, alignRight))
				return nil
			})
		},
	}
}

func newHistoryClearCommand(ctx *commandContext) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove finished runs from history",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withHistory(ctx, func(store *history.Store) error {
				removed, err := store.Clear(cmd.Context(), all)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed %d run(s)\n", removed)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "Also remove runs still marked running")
	return cmd
}

func withHistory(ctx *commandContext, fn func(*history.Store) error) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := history.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStarted(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	return d.Round(time.Second).String()
}
