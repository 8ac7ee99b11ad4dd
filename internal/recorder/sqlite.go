package recorder

import (
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"PriceSentinel/internal/model"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Printf("[INFO] sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id            TEXT PRIMARY KEY,
			started_at    INTEGER NOT NULL,
			finished_at   INTEGER NOT NULL,
			source        TEXT,
			outcome       TEXT NOT NULL,
			final_state   TEXT NOT NULL,
			baseline_size INTEGER,
			fetched_items INTEGER,
			drop_count    INTEGER,
			notified      INTEGER,
			persisted     INTEGER,
			error         TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS drop_events (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id    TEXT NOT NULL REFERENCES runs(id),
			timestamp INTEGER NOT NULL,
			item      TEXT NOT NULL,
			previous  INTEGER NOT NULL,
			current   INTEGER NOT NULL,
			magnitude INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_drops_item ON drop_events(item, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

// RecordRun stores the run summary and its drop events in one transaction.
func (r *SQLiteRecorder) RecordRun(rep *model.RunReport) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`INSERT INTO runs
		(id, started_at, finished_at, source, outcome, final_state,
		 baseline_size, fetched_items, drop_count, notified, persisted, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		rep.ID, rep.StartedAt.Unix(), rep.FinishedAt.Unix(), rep.Source,
		string(rep.Outcome), string(rep.State()),
		rep.BaselineSize, rep.FetchedItems, len(rep.Drops),
		boolToInt(rep.Notified), boolToInt(rep.Persisted), errorText(rep),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	ts := rep.StartedAt.Unix()
	for _, e := range rep.Drops {
		if _, err := tx.Exec(`INSERT INTO drop_events
			(run_id, timestamp, item, previous, current, magnitude)
			VALUES (?,?,?,?,?,?)`,
			rep.ID, ts, e.Item, e.Previous, e.Current, e.Magnitude,
		); err != nil {
			return fmt.Errorf("insert drop %q: %w", e.Item, err)
		}
	}
	return tx.Commit()
}

// ItemHistory returns the recorded drops for one item, newest first.
func (r *SQLiteRecorder) ItemHistory(item string, limit int) ([]model.DropEvent, []time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT timestamp, previous, current, magnitude
		FROM drop_events WHERE item = ? ORDER BY timestamp DESC, id DESC LIMIT ?`, item, limit)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var events []model.DropEvent
	var times []time.Time
	for rows.Next() {
		var ts int64
		e := model.DropEvent{Item: item}
		if err := rows.Scan(&ts, &e.Previous, &e.Current, &e.Magnitude); err != nil {
			return nil, nil, err
		}
		events = append(events, e)
		times = append(times, time.Unix(ts, 0))
	}
	return events, times, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Println("[INFO] closing sqlite recorder")
	return r.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func errorText(rep *model.RunReport) string {
	switch {
	case rep.Panic != "":
		return "panic: " + rep.Panic
	case rep.FetchErr != nil:
		return rep.FetchErr.Error()
	case rep.StoreErr != nil:
		return rep.StoreErr.Error()
	case rep.NotifyErr != nil:
		return rep.NotifyErr.Error()
	}
	return ""
}
