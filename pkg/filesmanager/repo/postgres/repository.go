package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Moseh-25-sudo/alx-files-manager/pkg/filesmanager"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Schema creates the files table. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS files (
	id          UUID PRIMARY KEY,
	owner_id    TEXT NOT NULL,
	name        TEXT NOT NULL,
	kind        TEXT NOT NULL CHECK (kind IN ('folder', 'file', 'image')),
	parent_id   UUID NOT NULL,
	is_public   BOOLEAN NOT NULL DEFAULT FALSE,
	content_ref TEXT,
	created_at  TIMESTAMPTZ NOT NULL,
	updated_at  TIMESTAMPTZ NOT NULL,
	CHECK ((kind = 'folder') = (content_ref IS NULL))
);
CREATE INDEX IF NOT EXISTS files_owner_parent_idx ON files (owner_id, parent_id, created_at);
CREATE INDEX IF NOT EXISTS files_kind_idx ON files (kind, created_at);
`

const selectColumns = `id, owner_id, name, kind, parent_id, is_public, content_ref, created_at, updated_at`

// Repository implements filesmanager.Repository using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// EnsureSchema applies Schema
func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return r.handlePostgresError("ensure schema", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("object already exists")
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "23514": // check_violation
			return fmt.Errorf("object violates constraint %s", pgErr.ConstraintName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	if errors.Is(err, pgx.ErrNoRows) {
		return filesmanager.ErrNotFound
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

func (r *Repository) CreateObject(ctx context.Context, object *filesmanager.Object) error {
	query := `
		INSERT INTO files (
			id, owner_id, name, kind, parent_id, is_public, content_ref, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	var contentRef *string
	if object.ContentRef != "" {
		contentRef = &object.ContentRef
	}

	_, err := r.db.Exec(ctx, query,
		object.ID, object.OwnerID, object.Name, string(object.Kind), object.ParentID.UUID(),
		object.IsPublic, contentRef, object.CreatedAt, object.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create object", err)
	}

	return nil
}

func (r *Repository) GetObject(ctx context.Context, id uuid.UUID) (*filesmanager.Object, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE id = $1`

	object, err := scanObject(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, r.handlePostgresError("get object", err)
	}
	return object, nil
}

func (r *Repository) GetOwnedObject(ctx context.Context, id uuid.UUID, ownerID string) (*filesmanager.Object, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE id = $1 AND owner_id = $2`

	object, err := scanObject(r.db.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		return nil, r.handlePostgresError("get owned object", err)
	}
	return object, nil
}

func (r *Repository) SetVisibility(ctx context.Context, id uuid.UUID, ownerID string, isPublic bool) (*filesmanager.Object, error) {
	query := `
		UPDATE files SET is_public = $3, updated_at = NOW()
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + selectColumns

	object, err := scanObject(r.db.QueryRow(ctx, query, id, ownerID, isPublic))
	if err != nil {
		return nil, r.handlePostgresError("set visibility", err)
	}
	return object, nil
}

func (r *Repository) ListObjects(ctx context.Context, params filesmanager.ListObjectsParams) ([]*filesmanager.Object, error) {
	query := `SELECT ` + selectColumns + ` FROM files WHERE 1=1`

	args := []interface{}{}
	argIndex := 1

	if params.OwnerID != nil {
		query += fmt.Sprintf(" AND owner_id = $%d", argIndex)
		args = append(args, *params.OwnerID)
		argIndex++
	}
	if params.ParentID != nil {
		query += fmt.Sprintf(" AND parent_id = $%d", argIndex)
		args = append(args, *params.ParentID)
		argIndex++
	}
	if params.Kind != nil {
		query += fmt.Sprintf(" AND kind = $%d", argIndex)
		args = append(args, string(*params.Kind))
		argIndex++
	}

	query += " ORDER BY created_at ASC, id ASC"

	if params.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIndex)
		args = append(args, params.Limit)
		argIndex++
	}
	if params.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIndex)
		args = append(args, params.Offset)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list objects", err)
	}
	defer rows.Close()

	objects := []*filesmanager.Object{}
	for rows.Next() {
		object, err := scanObject(rows)
		if err != nil {
			return nil, r.handlePostgresError("list objects", err)
		}
		objects = append(objects, object)
	}
	if err := rows.Err(); err != nil {
		return nil, r.handlePostgresError("list objects", err)
	}

	return objects, nil
}

func scanObject(row pgx.Row) (*filesmanager.Object, error) {
	var (
		object     filesmanager.Object
		kind       string
		parentID   uuid.UUID
		contentRef *string
	)
	err := row.Scan(
		&object.ID, &object.OwnerID, &object.Name, &kind, &parentID,
		&object.IsPublic, &contentRef, &object.CreatedAt, &object.UpdatedAt)
	if err != nil {
		return nil, err
	}

	object.Kind = filesmanager.Kind(kind)
	object.ParentID = filesmanager.ParentRef(parentID)
	if contentRef != nil {
		object.ContentRef = *contentRef
	}
	object.CreatedAt = object.CreatedAt.UTC()
	object.UpdatedAt = object.UpdatedAt.UTC()
	return &object, nil
}

var _ filesmanager.Repository = (*Repository)(nil)
