// Package sqlite implements internal/persist.Backend on SQLite: the
// durable fallback record/replay store. Grounded on the teacher's
// internal/store/sqlite.Writer — WAL mode, single-writer connection pool,
// INSERT OR REPLACE idempotent writes — generalised from per-candle
// tables to one generic entries table keyed by recordable id + time.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hgraph-go/runtime/internal/clock"
	"github.com/hgraph-go/runtime/internal/persist"

	_ "github.com/mattn/go-sqlite3"
)

// Config configures the SQLite backend.
type Config struct {
	DBPath string
}

// Backend implements persist.Backend over a SQLite file.
type Backend struct {
	db *sql.DB
}

// New opens (creating if absent) the database at cfg.DBPath and ensures
// its schema exists.
func New(cfg Config) (*Backend, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("persist/sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS entries (
			recordable_id TEXT    NOT NULL,
			engine_time   INTEGER NOT NULL,
			payload       BLOB    NOT NULL,
			PRIMARY KEY (recordable_id, engine_time)
		);
	`); err != nil {
		return nil, fmt.Errorf("persist/sqlite: schema: %w", err)
	}
	return &Backend{db: db}, nil
}

func (b *Backend) Record(ctx context.Context, e persist.Entry) error {
	_, err := b.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO entries (recordable_id, engine_time, payload) VALUES (?, ?, ?)`,
		e.RecordableID, int64(e.At), e.Payload,
	)
	if err != nil {
		return fmt.Errorf("persist/sqlite: insert %s@%d: %w", e.RecordableID, e.At, err)
	}
	return nil
}

func (b *Backend) Replay(ctx context.Context, recordableID string, from, to clock.EngineTime) ([]persist.Entry, error) {
	rows, err := b.db.QueryContext(ctx,
		`SELECT engine_time, payload FROM entries
		 WHERE recordable_id = ? AND engine_time >= ? AND engine_time <= ?
		 ORDER BY engine_time ASC`,
		recordableID, int64(from), int64(to),
	)
	if err != nil {
		return nil, fmt.Errorf("persist/sqlite: replay %s: %w", recordableID, err)
	}
	defer rows.Close()

	var out []persist.Entry
	for rows.Next() {
		var at int64
		var payload []byte
		if err := rows.Scan(&at, &payload); err != nil {
			return nil, fmt.Errorf("persist/sqlite: scan %s: %w", recordableID, err)
		}
		out = append(out, persist.Entry{RecordableID: recordableID, At: clock.EngineTime(at), Payload: payload})
	}
	return out, rows.Err()
}

func (b *Backend) LastRecorded(ctx context.Context, recordableID string) (clock.EngineTime, error) {
	var at sql.NullInt64
	err := b.db.QueryRowContext(ctx,
		`SELECT MAX(engine_time) FROM entries WHERE recordable_id = ?`, recordableID,
	).Scan(&at)
	if err != nil {
		return clock.MinDT, fmt.Errorf("persist/sqlite: last recorded %s: %w", recordableID, err)
	}
	if !at.Valid {
		return clock.MinDT, nil
	}
	return clock.EngineTime(at.Int64), nil
}

func (b *Backend) Close() error { return b.db.Close() }
