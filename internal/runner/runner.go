package runner

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"ffqueue/internal/logging"
	"ffqueue/internal/progress"
	"ffqueue/internal/services"
	"ffqueue/internal/task"
)

// Result is the outcome of one task.
type Result struct {
	Descriptor task.Descriptor
	Argv       []string
	ExitCode   int
	Err        error
	// Fatal is set when the remaining tasks cannot run either.
	Fatal     bool
	Cancelled bool
	Elapsed   time.Duration
}

// Succeeded reports whether the process ran to completion with exit code 0.
func (r Result) Succeeded() bool {
	return r.Err == nil && !r.Cancelled && r.ExitCode == 0
}

// Option configures a Runner.
type Option func(*Runner)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(r *Runner) {
		if exec != nil {
			r.exec = exec
		}
	}
}

// WithLogFile attaches the run log that receives headers and raw lines.
func WithLogFile(log *LogFile) Option {
	return func(r *Runner) { r.log = log }
}

// WithLogger sets the application logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Runner executes single descriptors.
type Runner struct {
	builder task.CommandBuilder
	exec    Executor
	log     *LogFile
	logger  *slog.Logger
	now     func() time.Time
}

// New constructs a Runner that builds argv with builder.
func New(builder task.CommandBuilder, opts ...Option) *Runner {
	r := &Runner{
		builder: builder,
		exec:    CommandExecutor{},
		logger:  logging.NewNop(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "runner")
	return r
}

// Validate checks that every descriptor in tasks yields a command.
func (r *Runner) Validate(tasks []task.Descriptor) error {
	return task.Validate(r.builder, tasks)
}

// Run executes d and publishes its lifecycle to listener. Output lines are
// forwarded as they arrive; cancellation via ctx terminates the process and
// leaves any partial output file in place.
func (r *Runner) Run(ctx context.Context, d task.Descriptor, listener progress.Listener) Result {
	if listener == nil {
		listener = progress.Discard
	}
	ctx = services.WithTaskIndex(ctx, d.Index)
	logger := logging.WithContext(ctx, r.logger)
	res := Result{Descriptor: d, ExitCode: -1}
	base := eventFor(ctx, d)

	argv, err := r.builder.Command(d)
	if err != nil {
		res.Err = err
		r.publishFailure(listener, base, res, logger)
		return res
	}
	res.Argv = argv
	command := FormatArgv(argv)

	r.log.TaskHeader(d, command)
	started := base
	started.Kind = progress.KindTaskStarted
	started.Time = r.now()
	listener.Notify(started)
	logger.Info("task started",
		logging.String(logging.FieldEventType, "task_started"),
		logging.String("source", d.Input),
		logging.String("destination", d.Output),
		logging.String("command", command),
	)

	begin := r.now()
	download := d.Kind == task.KindDownload
	sampler := logging.NewProgressSampler(10)
	onLine := func(line string) {
		// The tool's last words after a cancel still belong in the run log.
		r.log.Line(line)
		if ctx.Err() != nil {
			return
		}
		ev := base
		ev.Kind = progress.KindLine
		ev.Time = r.now()
		ev.Line = line
		ev.Elapsed = ev.Time.Sub(begin)
		ev.Percent = progress.LinePercent(download, line, d.Duration)
		listener.Notify(ev)
		if ev.Percent >= 0 && sampler.ShouldLog(ev.Percent, d.Label()) {
			logger.Debug("task progress", logging.Float64("percent", ev.Percent))
		}
	}

	code, err := r.exec.Run(ctx, argv, onLine)
	res.ExitCode = code
	res.Elapsed = r.now().Sub(begin)

	switch {
	case errors.Is(err, services.ErrCancelled) || (err == nil && ctx.Err() != nil):
		res.Cancelled = true
		res.Err = err
		if res.Err == nil {
			res.Err = services.Wrap(services.ErrCancelled, "runner", "run", d.Label(), ctx.Err())
		}
		r.log.Note("Interrupted by user")
		ev := base
		ev.Kind = progress.KindTaskFailed
		ev.Time = r.now()
		ev.ExitCode = code
		ev.Elapsed = res.Elapsed
		ev.Err = res.Err
		listener.Notify(ev)
		logger.Info("task cancelled", logging.String(logging.FieldEventType, "task_cancelled"))
	case err != nil:
		res.Err = err
		res.Fatal = services.IsFatal(err)
		r.publishFailure(listener, base, res, logger)
	case code != 0:
		r.log.ExitStatus(code)
		ev := base
		ev.Kind = progress.KindTaskFailed
		ev.Time = r.now()
		ev.ExitCode = code
		ev.Elapsed = res.Elapsed
		listener.Notify(ev)
		logging.WarnWithContext(logger, "task failed", "task_failed",
			logging.Int("exit_status", code),
			logging.String(logging.FieldErrorHint, "see the run log for tool output"),
		)
	default:
		res.ExitCode = 0
		ev := base
		ev.Kind = progress.KindTaskFinished
		ev.Time = r.now()
		ev.Elapsed = res.Elapsed
		ev.Percent = 100
		listener.Notify(ev)
		logger.Info("task finished",
			logging.String(logging.FieldEventType, "task_finished"),
			logging.Duration("elapsed", res.Elapsed),
		)
	}
	return res
}

func (r *Runner) publishFailure(listener progress.Listener, base progress.Event, res Result, logger *slog.Logger) {
	hint := services.Hint(res.Err, r.builder.Binary())
	ev := base
	ev.Time = r.now()
	ev.ExitCode = res.ExitCode
	ev.Err = res.Err
	ev.Hint = hint
	if res.Fatal {
		ev.Kind = progress.KindFatal
		r.log.Note(res.Err.Error() + "\n  " + hint)
		logging.ErrorWithContext(logger, "task could not start", "task_fatal",
			logging.Error(res.Err),
			logging.String(logging.FieldErrorHint, hint),
		)
	} else {
		ev.Kind = progress.KindTaskFailed
		r.log.Note(res.Err.Error())
		logging.WarnWithContext(logger, "task failed", "task_failed",
			logging.Error(res.Err),
			logging.String(logging.FieldErrorHint, hint),
		)
	}
	listener.Notify(ev)
}

func eventFor(ctx context.Context, d task.Descriptor) progress.Event {
	runID, _ := services.RunIDFromContext(ctx)
	return progress.Event{
		RunID:     runID,
		Index:     d.Index,
		Total:     d.Total,
		FileIndex: d.FileIndex,
		FileCount: d.FileCount,
		PassIndex: d.PassIndex,
		PassCount: d.PassCount,
		Source:    d.Input,
		Dest:      d.Output,
		Percent:   -1,
	}
}
