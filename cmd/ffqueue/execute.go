package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"ffqueue/internal/config"
	"ffqueue/internal/console"
	"ffqueue/internal/history"
	"ffqueue/internal/logging"
	"ffqueue/internal/progress"
	"ffqueue/internal/queue"
	"ffqueue/internal/runlock"
	"ffqueue/internal/runner"
	"ffqueue/internal/services"
	"ffqueue/internal/task"
)

// runSpec is a built queue ready to execute.
type runSpec struct {
	name     string
	logName  string
	builder  task.CommandBuilder
	tasks    []task.Descriptor
	suppress bool
	noBars   bool
}

// executeRun drives spec to completion under the run lock, rendering progress
// on the command's output. SIGINT and SIGTERM cancel the run.
func executeRun(cmd *cobra.Command, cmdCtx *commandContext, cfg *config.Config, spec runSpec) error {
	if err := task.Validate(spec.builder, spec.tasks); err != nil {
		return err
	}
	lock, err := runlock.Acquire(cfg.LockPath())
	if err != nil {
		return err
	}
	defer func() { _ = lock.Release() }()

	runID := uuid.NewString()
	ctx := services.WithRunID(cmd.Context(), runID)
	logger := logging.NewComponentLogger(cmdCtx.appLogger(cmd), "cli")

	logFile, err := runner.OpenLogFile(cfg.Paths.LogDir, spec.logName)
	if err != nil {
		return err
	}
	defer logFile.Close()

	var recorder queue.Recorder
	store, err := history.Open(cfg)
	if err != nil {
		logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "this run will not appear in ffqueue history"),
		)
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: run history unavailable: %v\n", err)
	} else {
		defer store.Close()
		recorder = store
	}

	out := cmd.OutOrStdout()
	con := console.New(out, console.Options{
		SuppressOutput: cfg.Console.SuppressOutput || spec.suppress,
		Color:          cfg.Console.Color,
		Bars:           !spec.noBars,
	})
	listener := progress.NewAsync(con, 256)

	driver := queue.NewDriver(queue.Options{
		Runner:   runner.New(spec.builder, runner.WithLogFile(logFile), runner.WithLogger(logger)),
		Listener: listener,
		Recorder: recorder,
		Log:      logFile,
		Logger:   logger,
	})
	if err := driver.Start(ctx, queue.Run{ID: runID, Name: spec.name, Tasks: spec.tasks}); err != nil {
		listener.Close()
		con.Close()
		return err
	}

	stop := cancelOnSignal(ctx, driver)
	summary := driver.Wait()
	stop()
	listener.Close()
	con.Close()

	fmt.Fprintf(out, "\nRun ID: %s\nRun log: %s\n", summary.RunID, logFile.Path())
	if dropped := listener.Dropped(); dropped > 0 {
		logger.Debug("console dropped output lines", logging.Int("dropped", int(dropped)))
	}

	switch summary.State {
	case queue.StateCompleted:
		return nil
	case queue.StateAborted:
		return &exitError{code: 130, state: string(summary.State)}
	default:
		return &exitError{code: 1, state: string(summary.State)}
	}
}

func cancelOnSignal(ctx context.Context, driver *queue.Driver) func() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		select {
		case <-signals:
			_ = driver.Cancel()
		case <-ctx.Done():
			_ = driver.Cancel()
		case <-done:
		}
	}()
	return func() {
		signal.Stop(signals)
		close(done)
	}
}

func runLogName(kind task.Kind) string {
	return fmt.Sprintf("ffqueue-%s-%s", kind, time.Now().Format("20060102"))
}
