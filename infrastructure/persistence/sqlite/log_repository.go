package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"learninglog-backend/application/ports"
	"learninglog-backend/domain/learninglog"
	apperrors "learninglog-backend/pkg/errors"
)

// Compile-time check that *DB satisfies the repository port.
var _ ports.LearningLogRepository = (*DB)(nil)

// timeLayout is the stored timestamp format: UTC, millisecond precision,
// fixed width. Lexicographic order equals chronological order, which the
// seek predicate in List relies on.
const timeLayout = "2006-01-02T15:04:05.000Z"

const logColumns = "id, title, reflection, tags, time_spent, source_url, created_at"

// Create inserts a new row. The caller has already assigned id and
// createdAt.
func (db *DB) Create(ctx context.Context, log *learninglog.Log) error {
	tags, err := json.Marshal(log.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	_, err = db.conn.ExecContext(ctx,
		`INSERT INTO learning_logs (`+logColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		log.ID,
		log.Title,
		log.Reflection,
		string(tags),
		log.TimeSpent,
		nullableString(log.SourceURL),
		log.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating learning log: %w", err)
	}
	return nil
}

// GetByID fetches a single row, mapping sql.ErrNoRows to the not-found
// error kind.
func (db *DB) GetByID(ctx context.Context, id string) (*learninglog.Log, error) {
	row := db.conn.QueryRowContext(ctx,
		`SELECT `+logColumns+` FROM learning_logs WHERE id = ?`, id)

	log, err := scanLog(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperrors.NewNotFoundError("learning log", id)
		}
		return nil, fmt.Errorf("sqlite: getting learning log %s: %w", id, err)
	}
	return log, nil
}

// List returns one forward page of the canonical ordering (created_at
// DESC, id DESC). It fetches first+1 rows and reports the overflow row
// as HasNextPage; the page is positioned strictly after the (created_at,
// id) tuple of the row named by AfterID, never by offset, so pages stay
// stable under concurrent inserts.
//
// A cursor naming a row that no longer exists (deleted, or produced by a
// different connection) yields an empty page rather than an error.
func (db *DB) List(ctx context.Context, q ports.ListQuery) (*ports.ListPage, error) {
	where, args := compileFilter(q.Filter)

	if q.AfterID != "" {
		var seekCreatedAt string
		err := db.conn.QueryRowContext(ctx,
			`SELECT created_at FROM learning_logs WHERE id = ?`, q.AfterID,
		).Scan(&seekCreatedAt)
		if err == sql.ErrNoRows {
			return &ports.ListPage{Items: []learninglog.Log{}}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("sqlite: resolving cursor row %s: %w", q.AfterID, err)
		}
		where = append(where, "(created_at < ? OR (created_at = ? AND id < ?))")
		args = append(args, seekCreatedAt, seekCreatedAt, q.AfterID)
	}

	query := `SELECT ` + logColumns + ` FROM learning_logs`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ?`
	args = append(args, q.First+1)

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing learning logs: %w", err)
	}
	defer rows.Close()

	items := make([]learninglog.Log, 0, q.First+1)
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning learning log row: %w", err)
		}
		items = append(items, *log)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating learning logs: %w", err)
	}

	page := &ports.ListPage{Items: items}
	if len(items) > q.First {
		page.Items = items[:q.First]
		page.HasNextPage = true
	}
	return page, nil
}

// Update rewrites the mutable columns of an existing row. id and
// created_at are immutable. RowsAffected distinguishes "no such row"
// from success in a single statement.
func (db *DB) Update(ctx context.Context, log *learninglog.Log) error {
	tags, err := json.Marshal(log.Tags)
	if err != nil {
		return fmt.Errorf("sqlite: encoding tags: %w", err)
	}

	result, err := db.conn.ExecContext(ctx,
		`UPDATE learning_logs
		 SET title = ?, reflection = ?, tags = ?, time_spent = ?, source_url = ?
		 WHERE id = ?`,
		log.Title,
		log.Reflection,
		string(tags),
		log.TimeSpent,
		nullableString(log.SourceURL),
		log.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating learning log %s: %w", log.ID, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("learning log", log.ID)
	}
	return nil
}

// Delete removes a row permanently. Deleting an absent row is an error,
// consistent with the mutation contract.
func (db *DB) Delete(ctx context.Context, id string) error {
	result, err := db.conn.ExecContext(ctx,
		`DELETE FROM learning_logs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting learning log %s: %w", id, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if affected == 0 {
		return apperrors.NewNotFoundError("learning log", id)
	}
	return nil
}

// compileFilter turns the structured filter into WHERE clauses. Absent
// filter matches everything; active clauses combine with AND.
func compileFilter(f *ports.ListFilter) ([]string, []any) {
	if f == nil {
		return nil, nil
	}

	var where []string
	var args []any

	if len(f.TagsAny) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(f.TagsAny)), ",")
		where = append(where,
			`EXISTS (SELECT 1 FROM json_each(learning_logs.tags)
			 WHERE json_each.value IN (`+placeholders+`))`)
		for _, tag := range f.TagsAny {
			args = append(args, tag)
		}
	}

	for _, tag := range f.TagsAll {
		where = append(where,
			`EXISTS (SELECT 1 FROM json_each(learning_logs.tags)
			 WHERE json_each.value = ?)`)
		args = append(args, tag)
	}

	if f.Query != "" {
		where = append(where,
			`(instr(lower(title), lower(?)) > 0 OR instr(lower(reflection), lower(?)) > 0)`)
		args = append(args, f.Query, f.Query)
	}

	if f.From != nil {
		where = append(where, `created_at >= ?`)
		args = append(args, f.From.UTC().Format(timeLayout))
	}
	if f.To != nil {
		where = append(where, `created_at <= ?`)
		args = append(args, f.To.UTC().Format(timeLayout))
	}

	return where, args
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanLog(s scanner) (*learninglog.Log, error) {
	var (
		log       learninglog.Log
		tags      string
		sourceURL sql.NullString
		createdAt string
	)

	if err := s.Scan(
		&log.ID,
		&log.Title,
		&log.Reflection,
		&tags,
		&log.TimeSpent,
		&sourceURL,
		&createdAt,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(tags), &log.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if log.Tags == nil {
		log.Tags = []string{}
	}
	if sourceURL.Valid {
		log.SourceURL = &sourceURL.String
	}

	ts, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("decoding created_at: %w", err)
	}
	log.CreatedAt = ts

	return &log, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
