package queue

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"ffqueue/internal/logging"
	"ffqueue/internal/progress"
	"ffqueue/internal/runner"
	"ffqueue/internal/services"
	"ffqueue/internal/task"
)

// TaskRunner executes one descriptor. *runner.Runner satisfies it.
type TaskRunner interface {
	Run(ctx context.Context, d task.Descriptor, listener progress.Listener) runner.Result
}

// Validator is implemented by runners that can check a whole queue before
// anything is spawned. *runner.Runner satisfies it.
type Validator interface {
	Validate(tasks []task.Descriptor) error
}

// Recorder persists run outcomes. Errors are logged and never stop a run.
type Recorder interface {
	RunStarted(ctx context.Context, run RunInfo) error
	TaskFinished(ctx context.Context, runID string, res runner.Result) error
	RunFinished(ctx context.Context, summary Summary) error
}

// RunInfo describes a run as it starts.
type RunInfo struct {
	ID      string
	Name    string
	Kind    task.Kind
	Total   int
	Started time.Time
}

// Run is a queued batch.
type Run struct {
	// ID is generated when empty.
	ID    string
	Name  string
	Tasks []task.Descriptor
}

// Options configures a Driver. Runner is required.
type Options struct {
	Runner   TaskRunner
	Listener progress.Listener
	Recorder Recorder
	Log      *runner.LogFile
	Logger   *slog.Logger
}

// Driver supervises a single background worker.
type Driver struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	state     State
	cancel    context.CancelFunc
	done      chan struct{}
	summary   Summary
	cancelled atomic.Bool
}

// NewDriver constructs an idle driver.
func NewDriver(opts Options) *Driver {
	if opts.Listener == nil {
		opts.Listener = progress.Discard
	}
	return &Driver{
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "queue"),
		now:    time.Now,
		state:  StateIdle,
	}
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Start launches the worker for run. It returns ErrAlreadyRunning while a run
// is active and ErrInvalidTransition when a finished run has not been Reset.
// A queue the runner rejects is returned as an error before any task starts.
func (d *Driver) Start(ctx context.Context, run Run) error {
	if d.opts.Runner == nil {
		return services.Wrap(services.ErrConfiguration, "queue", "start", "no task runner configured", nil)
	}
	if len(run.Tasks) == 0 {
		return services.Wrap(services.ErrValidation, "queue", "start", "queue is empty", nil)
	}
	if v, ok := d.opts.Runner.(Validator); ok {
		if err := v.Validate(run.Tasks); err != nil {
			return err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateRunning {
		return ErrAlreadyRunning
	}
	if !isValidTransition(d.state, StateRunning) {
		return transitionError(d.state, StateRunning)
	}

	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	tasks := append([]task.Descriptor(nil), run.Tasks...)
	workerCtx := services.WithPreset(services.WithRunID(ctx, run.ID), run.Name)
	workerCtx, cancel := context.WithCancel(workerCtx)

	d.state = StateRunning
	d.cancel = cancel
	d.done = make(chan struct{})
	d.cancelled.Store(false)
	d.summary = Summary{
		RunID:   run.ID,
		Name:    run.Name,
		State:   StateRunning,
		Started: d.now(),
		Total:   len(tasks),
	}

	go d.work(workerCtx, run, tasks, d.done)
	return nil
}

// Cancel stops launching new tasks and terminates the active one.
func (d *Driver) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state != StateRunning {
		return ErrNotRunning
	}
	d.cancelled.Store(true)
	if d.cancel != nil {
		d.cancel()
	}
	return nil
}

// Wait blocks until the active worker exits and returns the run summary.
// Without a started run it returns the last known summary immediately.
func (d *Driver) Wait() Summary {
	d.mu.Lock()
	done := d.done
	d.mu.Unlock()
	if done != nil {
		<-done
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.summary.clone()
}

// Reset dismisses a finished run and returns the driver to Idle.
func (d *Driver) Reset() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == StateIdle {
		return nil
	}
	if !isValidTransition(d.state, StateIdle) {
		return transitionError(d.state, StateIdle)
	}
	d.state = StateIdle
	d.cancel = nil
	d.done = nil
	d.summary = Summary{}
	return nil
}

// Execute starts run and waits for it.
func (d *Driver) Execute(ctx context.Context, run Run) (Summary, error) {
	if err := d.Start(ctx, run); err != nil {
		return Summary{}, err
	}
	return d.Wait(), nil
}

func (d *Driver) work(ctx context.Context, run Run, tasks []task.Descriptor, done chan struct{}) {
	defer close(done)
	d.mu.Lock()
	summary := d.summary
	cancel := d.cancel
	d.mu.Unlock()
	defer cancel()

	logger := logging.WithContext(ctx, d.logger)
	kind := tasks[0].Kind
	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_started"),
		logging.String("name", run.Name),
		logging.Int("tasks", len(tasks)),
	)
	d.record(ctx, logger, "run_started", func(r Recorder) error {
		return r.RunStarted(ctx, RunInfo{ID: run.ID, Name: run.Name, Kind: kind, Total: len(tasks), Started: summary.Started})
	})

	fileFailed := make(map[int]bool)
	aborted := false
	for i, desc := range tasks {
		if d.cancelled.Load() || ctx.Err() != nil {
			aborted = true
			summary.Skipped = append(summary.Skipped, tasks[i:]...)
			break
		}

		summary.Launched++
		res := d.opts.Runner.Run(ctx, desc, d.opts.Listener)
		d.record(ctx, logger, "task_record", func(r Recorder) error {
			return r.TaskFinished(context.WithoutCancel(ctx), run.ID, res)
		})

		if res.Cancelled {
			aborted = true
			summary.Failed = append(summary.Failed, outcome(res))
			summary.Skipped = append(summary.Skipped, tasks[i+1:]...)
			break
		}
		if res.Fatal {
			summary.Fatal = res.Err
			summary.Failed = append(summary.Failed, outcome(res))
			summary.Skipped = append(summary.Skipped, tasks[i+1:]...)
			break
		}
		if !res.Succeeded() {
			fileFailed[desc.FileIndex] = true
			summary.Failed = append(summary.Failed, outcome(res))
		}
		if desc.LastPass() && !fileFailed[desc.FileIndex] {
			summary.Completed = append(summary.Completed, desc.Input)
		}
	}

	switch {
	case aborted:
		summary.State = StateAborted
	case summary.Fatal != nil || len(summary.Failed) > 0:
		summary.State = StateFailed
	default:
		summary.State = StateCompleted
	}
	summary.Finished = d.now()

	if d.opts.Log != nil {
		d.opts.Log.Note("\n" + summary.Banner())
	}
	d.record(ctx, logger, "run_record", func(r Recorder) error {
		return r.RunFinished(context.WithoutCancel(ctx), summary)
	})
	logger.Info("run finished",
		logging.String(logging.FieldEventType, "run_finished"),
		logging.String("state", string(summary.State)),
		logging.Int("completed_files", len(summary.Completed)),
		logging.Int("failed_tasks", len(summary.Failed)),
		logging.Int("skipped_tasks", len(summary.Skipped)),
		logging.Duration("elapsed", summary.Duration()),
	)

	d.mu.Lock()
	d.summary = summary
	d.state = summary.State
	d.mu.Unlock()

	d.opts.Listener.Notify(progress.Event{
		Kind:      progress.KindRunFinished,
		Time:      summary.Finished,
		RunID:     run.ID,
		Total:     summary.Total,
		Elapsed:   summary.Duration(),
		Percent:   -1,
		Err:       summary.Fatal,
		State:     string(summary.State),
		Completed: append([]string(nil), summary.Completed...),
	})
}

func (d *Driver) record(ctx context.Context, logger *slog.Logger, event string, fn func(Recorder) error) {
	if d.opts.Recorder == nil {
		return
	}
	if err := fn(d.opts.Recorder); err != nil && !errors.Is(err, context.Canceled) {
		logging.WarnWithContext(logger, "history record failed", event,
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run history may be incomplete; check state_dir permissions"),
		)
	}
}

func outcome(res runner.Result) TaskOutcome {
	return TaskOutcome{
		Descriptor: res.Descriptor,
		ExitCode:   res.ExitCode,
		Err:        res.Err,
		Elapsed:    res.Elapsed,
	}
}
