package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/cursor"
	"github.com/logvaultdb/logvault/internal/model"
)

const schemaColumns = `id, name, version, description, schema_definition, created_at, updated_at`

// CreateSchema inserts a new schema record. ID and timestamps must already
// be set by the service layer.
func (s *Store) CreateSchema(ctx context.Context, schema *model.Schema) error {
	q := s.rebind(`INSERT INTO schemas
		(id, name, version, description, schema_definition, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)

	_, err := s.db.ExecContext(ctx, q,
		schema.ID, schema.Name, schema.Version, schema.Description,
		schema.SchemaDefinition, schema.CreatedAt, schema.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("schema with name %q and version %q already exists",
				schema.Name, schema.Version)
		}
		return dbErr(err, "insert schema")
	}
	return nil
}

// GetSchema returns a schema by id.
func (s *Store) GetSchema(ctx context.Context, id uuid.UUID) (*model.Schema, error) {
	var schema model.Schema
	q := s.rebind(`SELECT ` + schemaColumns + ` FROM schemas WHERE id = ?`)
	if err := s.db.GetContext(ctx, &schema, q, id); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundf("schema with id %s not found", id)
		}
		return nil, dbErr(err, "get schema")
	}
	return &schema, nil
}

// GetSchemaByNameVersion returns the schema with the exact (name, version).
func (s *Store) GetSchemaByNameVersion(ctx context.Context, name, version string) (*model.Schema, error) {
	var schema model.Schema
	q := s.rebind(`SELECT ` + schemaColumns + ` FROM schemas WHERE name = ? AND version = ?`)
	if err := s.db.GetContext(ctx, &schema, q, name, version); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundf("schema %s:%s not found", name, version)
		}
		return nil, dbErr(err, "get schema by name and version")
	}
	return &schema, nil
}

// GetSchemaByNameLatest returns the highest version of the named schema,
// ordered by numeric component comparison of the dotted version string, not
// lexicographically.
func (s *Store) GetSchemaByNameLatest(ctx context.Context, name string) (*model.Schema, error) {
	var schemas []model.Schema
	q := s.rebind(`SELECT ` + schemaColumns + ` FROM schemas WHERE name = ?`)
	if err := s.db.SelectContext(ctx, &schemas, q, name); err != nil {
		return nil, dbErr(err, "get schema versions")
	}
	if len(schemas) == 0 {
		return nil, apperr.NotFoundf("schema %s:latest not found", name)
	}

	sort.Slice(schemas, func(i, j int) bool {
		return model.CompareVersions(schemas[i].Version, schemas[j].Version) > 0
	})
	return &schemas[0], nil
}

// ListSchemasByCursor fetches a window of schemas in compound
// (created_at, id) order. The cursor is the id of the boundary row; its
// created_at is looked up first so the compound comparison stays exact
// across timestamp ties. A cursor whose row was deleted degrades to a
// plain id comparison. Fetches limit+1 rows so the caller can detect a
// further page.
func (s *Store) ListSchemasByCursor(ctx context.Context, cur *uuid.UUID, limit int, dir cursor.Direction, nameFilter string) ([]model.Schema, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`SELECT ` + schemaColumns + ` FROM schemas WHERE 1 = 1`)

	if nameFilter != "" {
		sb.WriteString(` AND name = ?`)
		args = append(args, nameFilter)
	}
	if cur != nil {
		var boundaryAt time.Time
		err := s.db.GetContext(ctx, &boundaryAt,
			s.rebind(`SELECT created_at FROM schemas WHERE id = ?`), *cur)
		switch {
		case err == nil:
			fmt.Fprintf(&sb, ` AND (created_at, id) %s (?, ?)`, dir.CompareOp())
			args = append(args, boundaryAt, *cur)
		case isNoRows(err):
			fmt.Fprintf(&sb, ` AND id %s ?`, dir.CompareOp())
			args = append(args, *cur)
		default:
			return nil, dbErr(err, "resolve schema cursor")
		}
	}

	sb.WriteString(" " + dir.OrderSQL("created_at", "id"))
	sb.WriteString(` LIMIT ?`)
	args = append(args, limit+1)

	var schemas []model.Schema
	if err := s.db.SelectContext(ctx, &schemas, s.rebind(sb.String()), args...); err != nil {
		return nil, dbErr(err, "list schemas")
	}
	return schemas, nil
}

// UpdateSchema rewrites a schema's mutable fields. UpdatedAt is refreshed;
// CreatedAt is preserved from the stored record by the service layer.
func (s *Store) UpdateSchema(ctx context.Context, schema *model.Schema) error {
	schema.UpdatedAt = time.Now().UTC()

	q := s.rebind(`UPDATE schemas
		SET name = ?, version = ?, description = ?, schema_definition = ?, updated_at = ?
		WHERE id = ?`)

	result, err := s.db.ExecContext(ctx, q,
		schema.Name, schema.Version, schema.Description, schema.SchemaDefinition,
		schema.UpdatedAt, schema.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("schema with name %q and version %q already exists",
				schema.Name, schema.Version)
		}
		return dbErr(err, "update schema")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return dbErr(err, "update schema rows affected")
	}
	if n == 0 {
		return apperr.NotFoundf("schema with id %s not found", schema.ID)
	}
	return nil
}

// DeleteSchema removes a schema by id and returns its final state.
func (s *Store) DeleteSchema(ctx context.Context, id uuid.UUID) (*model.Schema, error) {
	schema, err := s.GetSchema(ctx, id)
	if err != nil {
		return nil, err
	}
	q := s.rebind(`DELETE FROM schemas WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		if isForeignKeyViolation(err) {
			return nil, apperr.Conflictf("schema %s still has associated logs", id)
		}
		return nil, dbErr(err, "delete schema")
	}
	return schema, nil
}
