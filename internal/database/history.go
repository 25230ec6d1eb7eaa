package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"audio-toolkit/internal/logging"
)

// Operation statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusBypass  = "bypass"
)

// Operation is one completed processing request.
type Operation struct {
	ID           string    `json:"id"`
	Kind         string    `json:"kind"`
	Status       string    `json:"status"`
	InputFormat  string    `json:"input_format,omitempty"`
	OutputFormat string    `json:"output_format,omitempty"`
	InputBytes   int64     `json:"input_bytes"`
	OutputBytes  int64     `json:"output_bytes"`
	Duration     int64     `json:"duration_ms"`
	Detail       string    `json:"detail,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Stats summarizes the recorded history.
type Stats struct {
	TotalOperations  int64            `json:"total_operations"`
	TotalErrors      int64            `json:"total_errors"`
	TotalInputBytes  int64            `json:"total_input_bytes"`
	TotalOutputBytes int64            `json:"total_output_bytes"`
	ByKind           map[string]int64 `json:"by_kind"`
}

// RecordOperation inserts one history row. A missing ID is assigned; the
// returned ID is always the stored one. Recording failures are the caller's
// to tolerate: history is an audit trail, not part of the request result.
func (d *Database) RecordOperation(ctx context.Context, op Operation) (string, error) {
	if op.ID == "" {
		op.ID = uuid.NewString()
	}

	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := d.db.ExecContext(opCtx, `
		INSERT INTO operations (id, kind, status, input_format, output_format,
			input_bytes, output_bytes, duration_ms, detail, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, strftime('%s', 'now'))`,
		op.ID, op.Kind, op.Status, op.InputFormat, op.OutputFormat,
		op.InputBytes, op.OutputBytes, op.Duration, op.Detail)
	observe("record", start, err)
	if err != nil {
		return "", fmt.Errorf("failed to record operation: %w", err)
	}

	logging.Debug("Recorded %s operation %s (%s)", op.Kind, op.ID, op.Status)
	return op.ID, nil
}

// RecentOperations returns up to limit history rows, newest first.
func (d *Database) RecentOperations(ctx context.Context, limit int) ([]Operation, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	rows, err := d.db.QueryContext(opCtx, `
		SELECT id, kind, status, input_format, output_format,
			input_bytes, output_bytes, duration_ms, detail, created_at
		FROM operations
		ORDER BY created_at DESC, id
		LIMIT ?`, limit)
	observe("recent", start, err)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	ops := make([]Operation, 0, limit)
	for rows.Next() {
		var op Operation
		var createdAt int64
		if err := rows.Scan(&op.ID, &op.Kind, &op.Status, &op.InputFormat, &op.OutputFormat,
			&op.InputBytes, &op.OutputBytes, &op.Duration, &op.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		op.CreatedAt = time.Unix(createdAt, 0).UTC()
		ops = append(ops, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate history rows: %w", err)
	}

	return ops, nil
}

// OperationStats aggregates totals across the whole history.
func (d *Database) OperationStats(ctx context.Context) (Stats, error) {
	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	stats := Stats{ByKind: make(map[string]int64)}

	err := d.db.QueryRowContext(opCtx, `
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'error' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(input_bytes), 0),
			COALESCE(SUM(output_bytes), 0)
		FROM operations`).Scan(
		&stats.TotalOperations, &stats.TotalErrors,
		&stats.TotalInputBytes, &stats.TotalOutputBytes)
	if err != nil {
		observe("stats", start, err)
		return Stats{}, fmt.Errorf("failed to aggregate stats: %w", err)
	}

	rows, err := d.db.QueryContext(opCtx, `
		SELECT kind, COUNT(*) FROM operations GROUP BY kind`)
	observe("stats", start, err)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to aggregate per-kind stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int64
		if err := rows.Scan(&kind, &count); err != nil {
			return Stats{}, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats.ByKind[kind] = count
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("failed to iterate stats rows: %w", err)
	}

	return stats, nil
}

// PruneOlderThan deletes history rows older than the given age and returns
// the number removed.
func (d *Database) PruneOlderThan(ctx context.Context, age time.Duration) (int64, error) {
	start := time.Now()
	opCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cutoff := time.Now().Add(-age).Unix()
	res, err := d.db.ExecContext(opCtx, `DELETE FROM operations WHERE created_at < ?`, cutoff)
	observe("prune", start, err)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}

	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		logging.Info("Pruned %d history rows older than %s", removed, age)
	}
	return removed, nil
}
