package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/loykin/procshim/internal/history"
)

func TestSQLiteSinkFile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "history.db")
	sink, err := New("sqlite://" + dbPath)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("close sink: %v", err)
		}
	}()

	ctx := context.Background()
	start := history.Event{
		Type:       history.EventStart,
		OccurredAt: time.Now().UTC(),
		Name:       "blackbird",
		PID:        12345,
		OK:         true,
	}
	if err := sink.Send(ctx, start); err != nil {
		t.Fatalf("send start event: %v", err)
	}

	stop := history.Event{
		Type:       history.EventStop,
		OccurredAt: time.Now().UTC(),
		Name:       "blackbird",
		PID:        12345,
		OK:         false,
		Detail:     "no such process",
	}
	if err := sink.Send(ctx, stop); err != nil {
		t.Fatalf("send stop event: %v", err)
	}

	var n int
	row := sink.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM supervisor_history`)
	if err := row.Scan(&n); err != nil {
		t.Fatalf("count rows: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
}

func TestSQLiteSinkInMemory(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("create in-memory sink: %v", err)
	}
	defer func() { _ = sink.Close() }()

	e := history.Event{Type: history.EventStart, OccurredAt: time.Now().UTC(), Name: "x", PID: 1, OK: true}
	if err := sink.Send(context.Background(), e); err != nil {
		t.Fatalf("send: %v", err)
	}
}

func TestSQLiteSinkEmptyDSN(t *testing.T) {
	if _, err := New("  "); err == nil {
		t.Fatalf("expected error for empty DSN")
	}
}
