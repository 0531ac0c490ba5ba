package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/cursor"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/store"
	"github.com/logvaultdb/logvault/internal/validate"
)

// SchemaService manages schema definitions. Every definition is compiled
// before it is accepted, so anything the store returns is known-valid JSON
// Schema.
type SchemaService struct {
	store     *store.Store
	validator validate.SchemaValidator
}

func NewSchemaService(st *store.Store, v validate.SchemaValidator) *SchemaService {
	return &SchemaService{store: st, validator: v}
}

// Create registers a new (name, version) schema.
func (s *SchemaService) Create(ctx context.Context, in model.Schema) (*model.Schema, error) {
	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if in.Version == "" {
		return nil, apperr.Validationf("version is required")
	}
	if !in.SchemaDefinition.IsObject() {
		return nil, apperr.Validationf("schema_definition must be a JSON object")
	}
	if err := s.validator.CompileDefinition(json.RawMessage(in.SchemaDefinition)); err != nil {
		return nil, err
	}

	in.ID = uuid.New()
	now := time.Now().UTC()
	in.CreatedAt = now
	in.UpdatedAt = now
	if err := s.store.CreateSchema(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Get returns a schema by id.
func (s *SchemaService) Get(ctx context.Context, id uuid.UUID) (*model.Schema, error) {
	return s.store.GetSchema(ctx, id)
}

// Resolve finds a schema by name. With a version it is an exact match;
// without one, the numerically highest version wins.
func (s *SchemaService) Resolve(ctx context.Context, ref model.SchemaRef) (*model.Schema, error) {
	if ref.Name == "" {
		return nil, apperr.Validationf("schema name is required")
	}
	if ref.Version != nil {
		return s.store.GetSchemaByNameVersion(ctx, ref.Name, *ref.Version)
	}
	return s.store.GetSchemaByNameLatest(ctx, ref.Name)
}

// List returns a window of schemas in creation order, optionally filtered
// by name.
func (s *SchemaService) List(ctx context.Context, cur *uuid.UUID, limit int, dir cursor.Direction, nameFilter string) (*cursor.Page[model.Schema, uuid.UUID], error) {
	if limit <= 0 {
		return nil, apperr.Validationf("limit must be positive")
	}

	rows, err := s.store.ListSchemasByCursor(ctx, cur, limit, dir, nameFilter)
	if err != nil {
		return nil, err
	}

	page := cursor.Resolve(rows, limit, dir, func(sc model.Schema) uuid.UUID { return sc.ID })
	return &page, nil
}

// Update replaces a schema's fields. The new (name, version) pair must not
// collide with a different schema, and the new definition must compile.
func (s *SchemaService) Update(ctx context.Context, id uuid.UUID, in model.Schema) (*model.Schema, error) {
	if in.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if in.Version == "" {
		return nil, apperr.Validationf("version is required")
	}
	if !in.SchemaDefinition.IsObject() {
		return nil, apperr.Validationf("schema_definition must be a JSON object")
	}
	if err := s.validator.CompileDefinition(json.RawMessage(in.SchemaDefinition)); err != nil {
		return nil, err
	}

	existing, err := s.store.GetSchema(ctx, id)
	if err != nil {
		return nil, err
	}

	if other, err := s.store.GetSchemaByNameVersion(ctx, in.Name, in.Version); err == nil && other.ID != id {
		return nil, apperr.Conflictf("schema %s version %s already exists", in.Name, in.Version)
	} else if err != nil && !apperr.IsKind(err, apperr.NotFound) {
		return nil, err
	}

	in.ID = id
	in.CreatedAt = existing.CreatedAt
	if err := s.store.UpdateSchema(ctx, &in); err != nil {
		return nil, err
	}
	return &in, nil
}

// Delete removes a schema. Without force it refuses when logs still
// reference the schema, naming the count. With force the logs are deleted
// first.
func (s *SchemaService) Delete(ctx context.Context, id uuid.UUID, force bool) (*model.DeletedSchema, error) {
	schema, err := s.store.GetSchema(ctx, id)
	if err != nil {
		return nil, err
	}

	count, err := s.store.CountLogsBySchema(ctx, id, model.LogFilters{})
	if err != nil {
		return nil, err
	}

	var deletedLogs int64
	if count > 0 {
		if !force {
			return nil, apperr.Conflictf("schema has %d associated logs; retry with force to delete them", count)
		}
		deletedLogs, err = s.store.DeleteLogsBySchema(ctx, id)
		if err != nil {
			return nil, err
		}
	}

	if _, err := s.store.DeleteSchema(ctx, id); err != nil {
		return nil, err
	}

	return &model.DeletedSchema{Schema: *schema, DeletedLogs: deletedLogs}, nil
}
