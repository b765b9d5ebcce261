package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ffqueue/internal/services"
)

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns
// every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// GetRun returns the run whose id equals or starts with id, with its tasks
// in queue order.
func (s *Store) GetRun(ctx context.Context, id string) (RunRecord, []TaskRecord, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return RunRecord{}, nil, services.Wrap(services.ErrValidation, "history", "get run", "empty run id", nil)
	}

	run, err := s.resolveRun(ctx, id)
	if err != nil {
		return RunRecord{}, nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE run_id = ? ORDER BY task_index, id`, run.ID)
	if err != nil {
		return RunRecord{}, nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []TaskRecord
	for rows.Next() {
		rec, err := scanTask(rows)
		if err != nil {
			return RunRecord{}, nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, rec)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, nil, err
	}
	return run, tasks, nil
}

func (s *Store) resolveRun(ctx context.Context, id string) (RunRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return RunRecord{}, fmt.Errorf("get run: %w", err)
	}

	pattern := strings.NewReplacer("%", `\%`, "_", `\_`).Replace(id) + "%"
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ESCAPE '\' LIMIT 2`, pattern)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return RunRecord{}, fmt.Errorf("scan run: %w", err)
		}
		matches = append(matches, rec)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, err
	}
	switch len(matches) {
	case 0:
		return RunRecord{}, services.Wrap(services.ErrNotFound, "history", "get run",
			fmt.Sprintf("run %q not found", id), nil)
	case 1:
		return matches[0], nil
	default:
		return RunRecord{}, services.Wrap(services.ErrValidation, "history", "get run",
			fmt.Sprintf("run id prefix %q is ambiguous", id), nil)
	}
}

// Clear removes every finished run and its tasks. Runs still marked running
// are kept unless all is set.
func (s *Store) Clear(ctx context.Context, all bool) (int64, error) {
	query := `DELETE FROM runs WHERE finished_at IS NOT NULL`
	if all {
		query = `DELETE FROM runs`
	}
	res, err := s.execWithRetry(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("clear runs: %w", err)
	}
	return res.RowsAffected()
}
