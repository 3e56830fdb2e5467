package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

// HistoryEntry is the flattened, persisted form of one execution.
// Header maps are stored as JSON text columns.
type HistoryEntry struct {
	ID              int64
	EntryID         string
	Endpoint        string
	Method          string
	RequestHeaders  string
	RequestBody     string
	Status          int
	ResponseHeaders string
	ResponseBody    string
	ElapsedMS       int64
	ExecutedAt      time.Time
	EnvironmentID   *int64
}

// AppendHistory writes one entry to the append-only log. A missing
// EntryID or timestamp is filled in here.
func (s *Store) AppendHistory(ctx context.Context, entry HistoryEntry) (int64, error) {
	if entry.EntryID == "" {
		entry.EntryID = uuid.NewString()
	}
	if entry.ExecutedAt.IsZero() {
		entry.ExecutedAt = time.Now().UTC()
	}

	var envID sql.NullInt64
	if entry.EnvironmentID != nil {
		envID = sql.NullInt64{Int64: *entry.EnvironmentID, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO history (
			entry_id, endpoint, method, request_headers, request_body,
			status, response_headers, response_body, elapsed_ms,
			executed_at, environment_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.EntryID, entry.Endpoint, entry.Method,
		emptyJSONObject(entry.RequestHeaders), entry.RequestBody,
		entry.Status, emptyJSONObject(entry.ResponseHeaders), entry.ResponseBody,
		entry.ElapsedMS, entry.ExecutedAt, envID)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeHistory, err, "append history")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeHistory, err, "append history")
	}
	return id, nil
}

// RecentHistory returns up to limit entries, most recent first.
func (s *Store) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, entry_id, endpoint, method, request_headers, request_body,
			status, response_headers, response_body, elapsed_ms,
			executed_at, environment_id
		FROM history
		ORDER BY executed_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "query history")
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var entry HistoryEntry
		var envID sql.NullInt64
		if err := rows.Scan(&entry.ID, &entry.EntryID, &entry.Endpoint, &entry.Method,
			&entry.RequestHeaders, &entry.RequestBody, &entry.Status,
			&entry.ResponseHeaders, &entry.ResponseBody, &entry.ElapsedMS,
			&entry.ExecutedAt, &envID); err != nil {
			return nil, errdef.Wrap(errdef.CodeHistory, err, "scan history entry")
		}
		if envID.Valid {
			value := envID.Int64
			entry.EnvironmentID = &value
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeHistory, err, "query history")
	}
	return entries, nil
}

func emptyJSONObject(value string) string {
	if value == "" {
		return "{}"
	}
	return value
}
