package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestDB(t *testing.T) *Database {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "history.db")
	d, err := New(context.Background(), dbPath)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	return d
}

func TestRecordOperationAssignsID(t *testing.T) {
	d := newTestDB(t)

	id, err := d.RecordOperation(context.Background(), Operation{
		Kind:         "convert",
		Status:       StatusSuccess,
		InputFormat:  "wav",
		OutputFormat: "mp3",
		InputBytes:   1024,
		OutputBytes:  512,
		Duration:     42,
	})
	if err != nil {
		t.Fatalf("RecordOperation() error = %v", err)
	}
	if id == "" {
		t.Fatal("RecordOperation() returned empty id")
	}

	ops, err := d.RecentOperations(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentOperations() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d operations, want 1", len(ops))
	}
	if ops[0].ID != id {
		t.Errorf("stored id = %s, want %s", ops[0].ID, id)
	}
	if ops[0].Kind != "convert" || ops[0].OutputFormat != "mp3" {
		t.Errorf("stored row = %+v", ops[0])
	}
	if ops[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestRecordOperationKeepsExplicitID(t *testing.T) {
	d := newTestDB(t)

	id, err := d.RecordOperation(context.Background(), Operation{
		ID:     "explicit-id",
		Kind:   "trim",
		Status: StatusSuccess,
	})
	if err != nil {
		t.Fatalf("RecordOperation() error = %v", err)
	}
	if id != "explicit-id" {
		t.Errorf("RecordOperation() id = %s, want explicit-id", id)
	}
}

func TestRecentOperationsLimit(t *testing.T) {
	d := newTestDB(t)

	for i := 0; i < 5; i++ {
		if _, err := d.RecordOperation(context.Background(), Operation{
			Kind:   "compress",
			Status: StatusSuccess,
		}); err != nil {
			t.Fatalf("RecordOperation() error = %v", err)
		}
	}

	ops, err := d.RecentOperations(context.Background(), 3)
	if err != nil {
		t.Fatalf("RecentOperations() error = %v", err)
	}
	if len(ops) != 3 {
		t.Errorf("got %d operations, want 3", len(ops))
	}
}

func TestOperationStats(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	records := []Operation{
		{Kind: "convert", Status: StatusSuccess, InputBytes: 100, OutputBytes: 50},
		{Kind: "convert", Status: StatusError, InputBytes: 200, OutputBytes: 0},
		{Kind: "merge", Status: StatusSuccess, InputBytes: 300, OutputBytes: 250},
		{Kind: "compress", Status: StatusBypass, InputBytes: 400, OutputBytes: 400},
	}
	for _, op := range records {
		if _, err := d.RecordOperation(ctx, op); err != nil {
			t.Fatalf("RecordOperation() error = %v", err)
		}
	}

	stats, err := d.OperationStats(ctx)
	if err != nil {
		t.Fatalf("OperationStats() error = %v", err)
	}

	if stats.TotalOperations != 4 {
		t.Errorf("TotalOperations = %d, want 4", stats.TotalOperations)
	}
	if stats.TotalErrors != 1 {
		t.Errorf("TotalErrors = %d, want 1", stats.TotalErrors)
	}
	if stats.TotalInputBytes != 1000 {
		t.Errorf("TotalInputBytes = %d, want 1000", stats.TotalInputBytes)
	}
	if stats.TotalOutputBytes != 700 {
		t.Errorf("TotalOutputBytes = %d, want 700", stats.TotalOutputBytes)
	}
	if stats.ByKind["convert"] != 2 || stats.ByKind["merge"] != 1 || stats.ByKind["compress"] != 1 {
		t.Errorf("ByKind = %v", stats.ByKind)
	}
}

func TestOperationStatsEmpty(t *testing.T) {
	d := newTestDB(t)

	stats, err := d.OperationStats(context.Background())
	if err != nil {
		t.Fatalf("OperationStats() error = %v", err)
	}
	if stats.TotalOperations != 0 || len(stats.ByKind) != 0 {
		t.Errorf("empty stats = %+v", stats)
	}
}

func TestPruneOlderThan(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()

	if _, err := d.RecordOperation(ctx, Operation{Kind: "convert", Status: StatusSuccess}); err != nil {
		t.Fatalf("RecordOperation() error = %v", err)
	}

	// A fresh row survives a one-hour cutoff.
	removed, err := d.PruneOlderThan(ctx, time.Hour)
	if err != nil {
		t.Fatalf("PruneOlderThan() error = %v", err)
	}
	if removed != 0 {
		t.Errorf("PruneOlderThan(1h) removed %d rows, want 0", removed)
	}

	// A negative age moves the cutoff into the future and removes it.
	removed, err = d.PruneOlderThan(ctx, -time.Hour)
	if err != nil {
		t.Fatalf("PruneOlderThan() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("PruneOlderThan(-1h) removed %d rows, want 1", removed)
	}
}
