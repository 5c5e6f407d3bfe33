package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DeepakDums1998/blog-app-skilldzire/pkg/logger"
)

// sqliteTimeLayout is what strftime('%Y-%m-%dT%H:%M:%fZ') produces.
const sqliteTimeLayout = "2006-01-02T15:04:05.000Z"

type dialect struct {
	name   string
	schema string
	list   string
	get    string
	insert string
	update string
	delete string
}

var postgresDialect = dialect{
	name: "postgres",
	schema: `CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		data JSONB NOT NULL DEFAULT '{}'::jsonb,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	list:   `SELECT id, data, created_at FROM posts ORDER BY created_at DESC`,
	get:    `SELECT id, data, created_at FROM posts WHERE id = $1`,
	insert: `INSERT INTO posts (id, data, created_at) VALUES ($1, $2::jsonb, NOW())`,
	update: `UPDATE posts SET data = data || $1::jsonb WHERE id = $2`,
	delete: `DELETE FROM posts WHERE id = $1`,
}

var sqliteDialect = dialect{
	name: "sqlite",
	schema: `CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		data TEXT NOT NULL DEFAULT '{}',
		created_at TEXT NOT NULL
	)`,
	list:   `SELECT id, data, created_at FROM posts ORDER BY created_at DESC, rowid DESC`,
	get:    `SELECT id, data, created_at FROM posts WHERE id = ?`,
	insert: `INSERT INTO posts (id, data, created_at) VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))`,
	update: `UPDATE posts SET data = json_patch(data, ?) WHERE id = ?`,
	delete: `DELETE FROM posts WHERE id = ?`,
}

// SQLStore keeps each post as a JSON object in a single posts table.
// createdAt is always filled in by the database itself.
type SQLStore struct {
	DB *sql.DB
	d  dialect
}

// NewPostgresStore uses JSONB and NOW(); pair it with the lib/pq driver.
func NewPostgresStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, d: postgresDialect}
}

// NewSQLiteStore uses JSON text and json_patch; pair it with modernc.org/sqlite.
func NewSQLiteStore(db *sql.DB) *SQLStore {
	return &SQLStore{DB: db, d: sqliteDialect}
}

// Init creates the posts table when it does not exist yet.
func (r *SQLStore) Init(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, r.d.schema); err != nil {
		logger.Sugar.Errorf("Failed to create %s posts table: %v", r.d.name, err)
		return unavailable("init", err)
	}
	return nil
}

func (r *SQLStore) ListAll(ctx context.Context) ([]Document, error) {
	rows, err := r.DB.QueryContext(ctx, r.d.list)
	if err != nil {
		logger.Sugar.Errorf("Failed to list posts: %v", err)
		return nil, unavailable("list", err)
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			logger.Sugar.Errorf("Failed to scan post: %v", err)
			return nil, unavailable("list", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		logger.Sugar.Errorf("Failed to iterate posts: %v", err)
		return nil, unavailable("list", err)
	}
	return docs, nil
}

func (r *SQLStore) GetByID(ctx context.Context, id string) (Document, bool, error) {
	doc, err := scanDocument(r.DB.QueryRowContext(ctx, r.d.get, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, false, nil
	}
	if err != nil {
		logger.Sugar.Errorf("Failed to get post %s: %v", id, err)
		return Document{}, false, unavailable("get", err)
	}
	return doc, true, nil
}

func (r *SQLStore) Create(ctx context.Context, fields map[string]any) (string, error) {
	data, err := json.Marshal(withoutReserved(fields))
	if err != nil {
		return "", fmt.Errorf("encode post: %w", err)
	}

	id := newID()
	// lib/pq wants JSONB parameters as string, not []byte
	if _, err := r.DB.ExecContext(ctx, r.d.insert, id, string(data)); err != nil {
		logger.Sugar.Errorf("Failed to create post: %v", err)
		return "", unavailable("create", err)
	}
	return id, nil
}

func (r *SQLStore) UpdateByID(ctx context.Context, id string, fields map[string]any) (bool, error) {
	data, err := json.Marshal(withoutReserved(fields))
	if err != nil {
		return false, fmt.Errorf("encode post: %w", err)
	}

	result, err := r.DB.ExecContext(ctx, r.d.update, string(data), id)
	if err != nil {
		logger.Sugar.Errorf("Failed to update post %s: %v", id, err)
		return false, unavailable("update", err)
	}
	return affected(result, "update")
}

func (r *SQLStore) DeleteByID(ctx context.Context, id string) (bool, error) {
	result, err := r.DB.ExecContext(ctx, r.d.delete, id)
	if err != nil {
		logger.Sugar.Errorf("Failed to delete post %s: %v", id, err)
		return false, unavailable("delete", err)
	}
	return affected(result, "delete")
}

func affected(result sql.Result, op string) (bool, error) {
	n, err := result.RowsAffected()
	if err != nil {
		return false, unavailable(op, err)
	}
	return n > 0, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (Document, error) {
	var (
		doc       Document
		data      []byte
		createdAt any
	)
	if err := s.Scan(&doc.ID, &data, &createdAt); err != nil {
		return Document{}, err
	}

	doc.Fields = map[string]any{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &doc.Fields); err != nil {
			return Document{}, fmt.Errorf("decode post %s: %w", doc.ID, err)
		}
	}

	ts, err := parseTimestamp(createdAt)
	if err != nil {
		return Document{}, fmt.Errorf("decode post %s: %w", doc.ID, err)
	}
	doc.CreatedAt = ts
	return doc, nil
}

// parseTimestamp accepts what either driver hands back for created_at.
func parseTimestamp(v any) (*time.Time, error) {
	var t time.Time
	switch v := v.(type) {
	case nil:
		return nil, nil
	case time.Time:
		t = v
	case string:
		return parseTimestampText(v)
	case []byte:
		return parseTimestampText(string(v))
	default:
		return nil, fmt.Errorf("unexpected created_at type %T", v)
	}
	t = t.UTC()
	return &t, nil
}

func parseTimestampText(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{sqliteTimeLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("unparseable created_at %q", s)
}
