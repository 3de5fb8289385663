// Package runlog persists per-candidate pipeline events to a local SQLite
// database, so interrupted runs can be audited and resumed decisions checked
// after the fact.
package runlog

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cquispe/eoi-consolidator/constants"
)

const schema = `
CREATE TABLE IF NOT EXISTS run_events (
	id         TEXT PRIMARY KEY,
	run_id     TEXT NOT NULL,
	folder     TEXT NOT NULL,
	stage      TEXT NOT NULL,
	status     TEXT NOT NULL,
	detail     TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_run_events_run ON run_events(run_id, created_at);
CREATE INDEX IF NOT EXISTS idx_run_events_folder ON run_events(run_id, folder);
`

// Event is one pipeline state transition for one candidate folder.
type Event struct {
	ID        uuid.UUID
	RunID     uuid.UUID
	Folder    string
	Stage     string
	Status    constants.StageStatus
	Detail    string
	CreatedAt time.Time
}

// Stages recorded by the pipeline.
const (
	StageClassify = "classify"
	StageExtract  = "extract"
	StageScore    = "score"
	StageFill     = "fill"
	StageExport   = "export"
)

type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens (or creates) the run log at path. Use ":memory:" for an
// ephemeral store.
func Open(path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open runlog %s: %w", path, err)
	}
	// the sqlite driver is not safe for concurrent writes over many conns
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init runlog schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Record appends one event. Missing IDs and timestamps are filled in.
func (s *Store) Record(ctx context.Context, ev Event) error {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO run_events (id, run_id, folder, stage, status, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		ev.ID.String(), ev.RunID.String(), ev.Folder, ev.Stage, string(ev.Status), ev.Detail, ev.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record event %s/%s: %w", ev.Folder, ev.Stage, err)
	}
	s.logger.Debug("runlog.event", "folder", ev.Folder, "stage", ev.Stage, "status", ev.Status)
	return nil
}

// ListRun returns a run's events in insertion order.
func (s *Store) ListRun(ctx context.Context, runID uuid.UUID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, run_id, folder, stage, status, detail, created_at
		 FROM run_events WHERE run_id = ? ORDER BY created_at, id`, runID.String())
	if err != nil {
		return nil, fmt.Errorf("list run %s: %w", runID, err)
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			s.logger.Warn("runlog.rows_close_error", "error", cerr)
		}
	}()

	var out []Event
	for rows.Next() {
		var ev Event
		var id, run, status string
		if err := rows.Scan(&id, &run, &ev.Folder, &ev.Stage, &status, &ev.Detail, &ev.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.ID, _ = uuid.Parse(id)
		ev.RunID, _ = uuid.Parse(run)
		ev.Status = constants.StageStatus(status)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// LastStatus returns the most recent status per folder for a run.
func (s *Store) LastStatus(ctx context.Context, runID uuid.UUID) (map[string]constants.StageStatus, error) {
	events, err := s.ListRun(ctx, runID)
	if err != nil {
		return nil, err
	}
	out := map[string]constants.StageStatus{}
	for _, ev := range events {
		out[ev.Folder] = ev.Status
	}
	return out, nil
}
