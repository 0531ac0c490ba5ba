package service

import (
	"context"
	"encoding/json"
	"math"

	"github.com/google/uuid"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/cursor"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/store"
	"github.com/logvaultdb/logvault/internal/validate"
)

// LogService handles log ingestion and retrieval. Ingestion only requires
// the payload to be a JSON object; full validation against the schema
// definition is opt-in per request.
type LogService struct {
	store     *store.Store
	validator validate.SchemaValidator
}

func NewLogService(st *store.Store, v validate.SchemaValidator) *LogService {
	return &LogService{store: st, validator: v}
}

// Create ingests a log record under a schema. When validateData is set the
// payload is checked against the schema's definition and rejected with the
// individual violations on failure.
func (s *LogService) Create(ctx context.Context, schemaID uuid.UUID, data model.JSONDoc, validateData bool) (*model.LogRecord, error) {
	if !data.IsObject() {
		return nil, apperr.Validationf("log_data must be a JSON object")
	}

	if validateData {
		schema, err := s.store.GetSchema(ctx, schemaID)
		if err != nil {
			return nil, err
		}
		if err := s.validator.ValidateDocument(json.RawMessage(schema.SchemaDefinition), json.RawMessage(data)); err != nil {
			return nil, err
		}
	}

	log := &model.LogRecord{SchemaID: schemaID, LogData: data}
	if err := s.store.CreateLog(ctx, log); err != nil {
		return nil, err
	}
	return log, nil
}

// Get returns a log record by id.
func (s *LogService) Get(ctx context.Context, id int64) (*model.LogRecord, error) {
	return s.store.GetLog(ctx, id)
}

// Delete removes a log record and returns its final state.
func (s *LogService) Delete(ctx context.Context, id int64) (*model.LogRecord, error) {
	return s.store.DeleteLog(ctx, id)
}

// List returns a window of a schema's logs in (created_at, id) descending
// order, walking forward (older) or backward (newer) from the cursor.
func (s *LogService) List(ctx context.Context, schemaID uuid.UUID, cur *int64, limit int, dir cursor.Direction, f model.LogFilters) (*cursor.Page[model.LogRecord, int64], error) {
	if limit <= 0 {
		return nil, apperr.Validationf("limit must be positive")
	}
	if f.Filters != nil && !f.Filters.IsObject() {
		return nil, apperr.Validationf("filters must be a JSON object")
	}
	if f.HasDateRange() && f.DateEnd.Before(*f.DateBegin) {
		return nil, apperr.Validationf("date_end must not precede date_begin")
	}

	if _, err := s.store.GetSchema(ctx, schemaID); err != nil {
		return nil, err
	}

	rows, err := s.store.ListLogsByCursor(ctx, schemaID, cur, limit, dir, f)
	if err != nil {
		return nil, err
	}

	page := cursor.Resolve(rows, limit, dir, func(l model.LogRecord) int64 { return l.ID })
	return &page, nil
}

// Count reports how many of a schema's logs match the filters.
func (s *LogService) Count(ctx context.Context, schemaID uuid.UUID, f model.LogFilters) (int64, error) {
	if f.Filters != nil && !f.Filters.IsObject() {
		return 0, apperr.Validationf("filters must be a JSON object")
	}
	if _, err := s.store.GetSchema(ctx, schemaID); err != nil {
		return 0, err
	}
	return s.store.CountLogsBySchema(ctx, schemaID, f)
}

// InitialCursor returns a seed positioned one past the newest log, so the
// first forward page starts at the newest record. An empty collection gets
// the maximum cursor, which also scans from the top.
func (s *LogService) InitialCursor(ctx context.Context, schemaID uuid.UUID) (int64, error) {
	if _, err := s.store.GetSchema(ctx, schemaID); err != nil {
		return 0, err
	}

	latest, err := s.store.LatestLogID(ctx, schemaID)
	if err != nil {
		return 0, err
	}
	if latest == nil {
		return math.MaxInt64, nil
	}
	return *latest + 1, nil
}
