package history

import (
	"database/sql"
	"time"

	"ffqueue/internal/queue"
	"ffqueue/internal/task"
)

// TaskStatus is the recorded outcome of one task.
type TaskStatus string

const (
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// RunRecord is one stored run.
type RunRecord struct {
	ID         string
	Name       string
	Kind       task.Kind
	State      queue.State
	Total      int
	Launched   int
	Completed  int
	Failed     int
	Skipped    int
	FatalError string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns the run's wall-clock time, or 0 while it is unfinished.
func (r RunRecord) Duration() time.Duration {
	if r.FinishedAt.IsZero() || r.StartedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TaskRecord is one stored task outcome.
type TaskRecord struct {
	RunID      string
	Index      int
	Input      string
	Output     string
	PassIndex  int
	PassCount  int
	Status     TaskStatus
	ExitCode   int
	Error      string
	Elapsed    time.Duration
	RecordedAt time.Time
}

const runColumns = "id, name, kind, state, total, launched, completed, failed, skipped, fatal_error, started_at, finished_at"

const taskColumns = "run_id, task_index, input, output, pass_index, pass_count, status, exit_code, error_message, elapsed_ms, recorded_at"

type rowScanner interface{ Scan(dest ...any) error }

func scanRun(scanner rowScanner) (RunRecord, error) {
	var (
		rec         RunRecord
		kind, state string
		fatal       sql.NullString
		startedRaw  string
		finishedRaw sql.NullString
	)
	if err := scanner.Scan(
		&rec.ID,
		&rec.Name,
		&kind,
		&state,
		&rec.Total,
		&rec.Launched,
		&rec.Completed,
		&rec.Failed,
		&rec.Skipped,
		&fatal,
		&startedRaw,
		&finishedRaw,
	); err != nil {
		return RunRecord{}, err
	}
	rec.Kind = task.Kind(kind)
	rec.State = queue.State(state)
	rec.FatalError = fatal.String
	rec.StartedAt = parseTime(startedRaw)
	if finishedRaw.Valid {
		rec.FinishedAt = parseTime(finishedRaw.String)
	}
	return rec, nil
}

func scanTask(scanner rowScanner) (TaskRecord, error) {
	var (
		rec         TaskRecord
		status      string
		errMsg      sql.NullString
		elapsedMS   int64
		recordedRaw string
	)
	if err := scanner.Scan(
		&rec.RunID,
		&rec.Index,
		&rec.Input,
		&rec.Output,
		&rec.PassIndex,
		&rec.PassCount,
		&status,
		&rec.ExitCode,
		&errMsg,
		&elapsedMS,
		&recordedRaw,
	); err != nil {
		return TaskRecord{}, err
	}
	rec.Status = TaskStatus(status)
	rec.Error = errMsg.String
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	rec.RecordedAt = parseTime(recordedRaw)
	return rec, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(raw string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}
