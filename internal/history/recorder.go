package history

import (
	"context"
	"fmt"
	"time"

	"ffqueue/internal/queue"
	"ffqueue/internal/runner"
)

var _ queue.Recorder = (*Store)(nil)

// RunStarted inserts a running entry for the run.
func (s *Store) RunStarted(ctx context.Context, info queue.RunInfo) error {
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, name, kind, state, total, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		info.ID, info.Name, string(info.Kind), string(queue.StateRunning), info.Total, formatTime(info.Started),
	)
	if err != nil {
		return fmt.Errorf("insert run %s: %w", info.ID, err)
	}
	return nil
}

// TaskFinished records the outcome of one task.
func (s *Store) TaskFinished(ctx context.Context, runID string, res runner.Result) error {
	d := res.Descriptor
	errMsg := ""
	if res.Err != nil {
		errMsg = res.Err.Error()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID,
		d.Index,
		d.Input,
		d.Output,
		d.PassIndex,
		d.PassCount,
		string(statusFor(res)),
		res.ExitCode,
		nullString(errMsg),
		res.Elapsed.Milliseconds(),
		formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert task %d of run %s: %w", d.Index, runID, err)
	}
	return nil
}

// RunFinished stores the final summary. A run whose start was never
// recorded is inserted here.
func (s *Store) RunFinished(ctx context.Context, summary queue.Summary) error {
	fatal := ""
	if summary.Fatal != nil {
		fatal = summary.Fatal.Error()
	}
	finished := summary.Finished
	if finished.IsZero() {
		finished = time.Now()
	}
	_, err := s.execWithRetry(ctx,
		`INSERT INTO runs (id, name, state, total, launched, completed, failed, skipped, fatal_error, started_at, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   state = excluded.state,
		   total = excluded.total,
		   launched = excluded.launched,
		   completed = excluded.completed,
		   failed = excluded.failed,
		   skipped = excluded.skipped,
		   fatal_error = excluded.fatal_error,
		   finished_at = excluded.finished_at`,
		summary.RunID,
		summary.Name,
		string(summary.State),
		summary.Total,
		summary.Launched,
		len(summary.Completed),
		len(summary.Failed),
		len(summary.Skipped),
		nullString(fatal),
		formatTime(summary.Started),
		formatTime(finished),
	)
	if err != nil {
		return fmt.Errorf("finish run %s: %w", summary.RunID, err)
	}
	return nil
}

func statusFor(res runner.Result) TaskStatus {
	switch {
	case res.Succeeded():
		return TaskCompleted
	case res.Cancelled:
		return TaskCancelled
	default:
		return TaskFailed
	}
}
