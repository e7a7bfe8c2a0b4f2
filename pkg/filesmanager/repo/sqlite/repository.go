package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	sqlite3 "github.com/mattn/go-sqlite3"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager/repo/sqlite/migrations"
)

const selectColumns = `id, owner_id, name, kind, parent_id, is_public, content_ref, created_at, updated_at`

// Repository implements filesmanager.Repository on a single SQLite file
type Repository struct {
	db *sql.DB
}

// Open opens and configures a SQLite database connection and applies
// pending migrations. path can be a file path or ":memory:".
func Open(path string) (*Repository, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}

	return New(db), nil
}

// OpenConnection opens a SQLite database with the PRAGMAs the repository
// relies on. An in-memory database is private to its connection, so the
// pool is limited to one.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if path == ":memory:" || strings.Contains(path, "mode=memory") {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	return db, nil
}

// New wraps an existing, already migrated connection
func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// DB returns the underlying connection
func (r *Repository) DB() *sql.DB {
	return r.db
}

// Close closes the database
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) handleSQLiteError(operation string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return filesmanager.ErrNotFound
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.ExtendedCode {
		case sqlite3.ErrConstraintPrimaryKey, sqlite3.ErrConstraintUnique:
			return fmt.Errorf("object already exists")
		case sqlite3.ErrConstraintCheck:
			return fmt.Errorf("object violates constraint: %w", err)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateObject(ctx context.Context, object *filesmanager.Object) error {
	query := `
		INSERT INTO files (
			id, owner_id, name, kind, parent_id, is_public, content_ref, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	var contentRef sql.NullString
	if object.ContentRef != "" {
		contentRef = sql.NullString{String: object.ContentRef, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		object.ID.String(), object.OwnerID, object.Name, string(object.Kind),
		object.ParentID.UUID().String(), object.IsPublic, contentRef,
		object.CreatedAt.UTC(), object.UpdatedAt.UTC())
	if err != nil {
		return r.handleSQLiteError("create object", err)
	}

	return nil
}

func (r *Repository) GetObject(ctx context.Context, id uuid.UUID) (*filesmanager.Object, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE id = ?`

	object, err := scanObject(r.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		return nil, r.handleSQLiteError("get object", err)
	}
	return object, nil
}

func (r *Repository) GetOwnedObject(ctx context.Context, id uuid.UUID, ownerID string) (*filesmanager.Object, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE id = ? AND owner_id = ?`

	object, err := scanObject(r.db.QueryRowContext(ctx, query, id.String(), ownerID))
	if err != nil {
		return nil, r.handleSQLiteError("get owned object", err)
	}
	return object, nil
}

func (r *Repository) SetVisibility(ctx context.Context, id uuid.UUID, ownerID string, isPublic bool) (*filesmanager.Object, error) {
	query := `
		UPDATE files SET is_public = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND owner_id = ?
		RETURNING ` + selectColumns

	object, err := scanObject(r.db.QueryRowContext(ctx, query, isPublic, id.String(), ownerID))
	if err != nil {
		return nil, r.handleSQLiteError("set visibility", err)
	}
	return object, nil
}

func (r *Repository) ListObjects(ctx context.Context, params filesmanager.ListObjectsParams) ([]*filesmanager.Object, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE 1=1`
	args := []interface{}{}

	if params.OwnerID != nil {
		query += " AND owner_id = ?"
		args = append(args, *params.OwnerID)
	}
	if params.ParentID != nil {
		query += " AND parent_id = ?"
		args = append(args, params.ParentID.String())
	}
	if params.Kind != nil {
		query += " AND kind = ?"
		args = append(args, string(*params.Kind))
	}

	query += " ORDER BY created_at ASC, id ASC"

	// SQLite requires LIMIT whenever OFFSET is present; -1 means no limit
	limit := -1
	if params.Limit > 0 {
		limit = params.Limit
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, params.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, r.handleSQLiteError("list objects", err)
	}
	defer rows.Close()

	objects := []*filesmanager.Object{}
	for rows.Next() {
		object, err := scanObject(rows)
		if err != nil {
			return nil, r.handleSQLiteError("list objects", err)
		}
		objects = append(objects, object)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handleSQLiteError("list objects", err)
	}

	return objects, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanObject(row rowScanner) (*filesmanager.Object, error) {
	var (
		object     filesmanager.Object
		id         string
		kind       string
		parentID   string
		contentRef sql.NullString
	)
	err := row.Scan(&id, &object.OwnerID, &object.Name, &kind, &parentID,
		&object.IsPublic, &contentRef, &object.CreatedAt, &object.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if object.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("invalid id %q: %w", id, err)
	}
	parent, err := uuid.Parse(parentID)
	if err != nil {
		return nil, fmt.Errorf("invalid parent id %q: %w", parentID, err)
	}
	object.ParentID = filesmanager.ParentRef(parent)
	object.Kind = filesmanager.Kind(kind)
	object.ContentRef = contentRef.String
	object.CreatedAt = object.CreatedAt.UTC()
	object.UpdatedAt = object.UpdatedAt.UTC()
	return &object, nil
}

var _ filesmanager.Repository = (*Repository)(nil)
