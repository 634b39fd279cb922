package events

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

const schema = `
CREATE TABLE IF NOT EXISTS workflow_events (
	id         TEXT PRIMARY KEY,
	type       TEXT NOT NULL,
	timestamp  DATETIME NOT NULL,
	path       TEXT NOT NULL DEFAULT '',
	severity   TEXT NOT NULL DEFAULT 'info',
	message    TEXT NOT NULL,
	data       TEXT NOT NULL DEFAULT '{}'
);

CREATE INDEX IF NOT EXISTS idx_workflow_events_path ON workflow_events(path);
CREATE INDEX IF NOT EXISTS idx_workflow_events_timestamp ON workflow_events(timestamp);
`

// Log is a sqlite-backed event log
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the event log at path
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create event log directory: %w", err)
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open event log: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping event log: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize event log schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Close releases the underlying database
func (l *Log) Close() error {
	return l.db.Close()
}

// Append stores one event. Missing ID, timestamp, and severity are filled
// with sensible values.
func (l *Log) Append(ctx context.Context, event *Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.Severity == "" {
		event.Severity = SeverityInfo
	}

	dataJSON, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal event data: %w", err)
	}

	_, err = l.db.ExecContext(ctx, `
		INSERT INTO workflow_events (id, type, timestamp, path, severity, message, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		event.ID, string(event.Type), event.Timestamp, event.Path,
		string(event.Severity), event.Message, string(dataJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to store event (type=%s, path=%s): %w", event.Type, event.Path, err)
	}
	return nil
}

// Recent retrieves events matching the filter, most recent first
func (l *Log) Recent(ctx context.Context, filter Filter) ([]*Event, error) {
	query := `SELECT id, type, timestamp, path, severity, message, data FROM workflow_events WHERE 1=1`
	args := []any{}

	if filter.Path != "" {
		query += " AND path = ?"
		args = append(args, filter.Path)
	}
	if filter.Type != "" {
		query += " AND type = ?"
		args = append(args, string(filter.Type))
	}
	if !filter.AfterTime.IsZero() {
		query += " AND timestamp > ?"
		args = append(args, filter.AfterTime)
	}

	query += " ORDER BY timestamp DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var out []*Event
	for rows.Next() {
		var e Event
		var dataJSON string
		if err := rows.Scan(&e.ID, &e.Type, &e.Timestamp, &e.Path, &e.Severity, &e.Message, &dataJSON); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		if dataJSON != "" && dataJSON != "{}" && dataJSON != "null" {
			if err := json.Unmarshal([]byte(dataJSON), &e.Data); err != nil {
				return nil, fmt.Errorf("failed to unmarshal event data for %s: %w", e.ID, err)
			}
		}
		out = append(out, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return out, nil
}
