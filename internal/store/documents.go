package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/unkn0wn-root/apidash/internal/errdef"
)

type Document struct {
	ID         int64
	Name       string
	Source     string
	Content    []byte
	UploadedAt time.Time
	ModifiedAt time.Time
}

// SaveDocument upserts by name: re-uploading a document replaces its
// content and bumps the modified timestamp, last write wins.
func (s *Store) SaveDocument(ctx context.Context, name, source string, content []byte) (int64, error) {
	now := time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (name, source, content, uploaded_at, modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (name) DO UPDATE SET
			source = excluded.source,
			content = excluded.content,
			modified_at = excluded.modified_at`,
		name, source, content, now, now)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeStorage, err, "save document %q", name)
	}

	if id, err := res.LastInsertId(); err == nil && id > 0 {
		return id, nil
	}
	var id int64
	err = s.db.QueryRowContext(ctx, `SELECT id FROM documents WHERE name = ?`, name).Scan(&id)
	if err != nil {
		return 0, errdef.Wrap(errdef.CodeStorage, err, "lookup document %q", name)
	}
	return id, nil
}

func (s *Store) Documents(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, source, content, uploaded_at, modified_at
		FROM documents ORDER BY name`)
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "list documents")
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var doc Document
		if err := rows.Scan(&doc.ID, &doc.Name, &doc.Source, &doc.Content,
			&doc.UploadedAt, &doc.ModifiedAt); err != nil {
			return nil, errdef.Wrap(errdef.CodeStorage, err, "scan document")
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "list documents")
	}
	return docs, nil
}

// DocumentByID returns nil when no document matches.
func (s *Store) DocumentByID(ctx context.Context, id int64) (*Document, error) {
	var doc Document
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, source, content, uploaded_at, modified_at
		FROM documents WHERE id = ?`, id).
		Scan(&doc.ID, &doc.Name, &doc.Source, &doc.Content, &doc.UploadedAt, &doc.ModifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errdef.Wrap(errdef.CodeStorage, err, "get document %d", id)
	}
	return &doc, nil
}

func (s *Store) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "delete document %d", id)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, errdef.Wrap(errdef.CodeStorage, err, "delete document %d", id)
	}
	return affected > 0, nil
}
