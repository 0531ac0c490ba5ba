package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/cursor"
	"github.com/logvaultdb/logvault/internal/model"
)

const logColumns = `id, schema_id, log_data, created_at`

// CreateLog inserts a log record, populating its ID and CreatedAt. A
// foreign-key violation means the schema does not exist and is reported as
// NotFound, never as a raw database error.
func (s *Store) CreateLog(ctx context.Context, log *model.LogRecord) error {
	log.CreatedAt = time.Now().UTC()

	q := s.rebind(`INSERT INTO logs (schema_id, log_data, created_at)
		VALUES (?, ?, ?)
		RETURNING id`)

	err := s.db.GetContext(ctx, &log.ID, q, log.SchemaID, log.LogData, log.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return apperr.NotFoundf("schema with id %s not found", log.SchemaID)
		}
		return dbErr(err, "insert log")
	}
	return nil
}

// GetLog returns a log record by id.
func (s *Store) GetLog(ctx context.Context, id int64) (*model.LogRecord, error) {
	var log model.LogRecord
	q := s.rebind(`SELECT ` + logColumns + ` FROM logs WHERE id = ?`)
	if err := s.db.GetContext(ctx, &log, q, id); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundf("log with id %d not found", id)
		}
		return nil, dbErr(err, "get log")
	}
	return &log, nil
}

// DeleteLog removes a log record and returns its final state.
func (s *Store) DeleteLog(ctx context.Context, id int64) (*model.LogRecord, error) {
	log, err := s.GetLog(ctx, id)
	if err != nil {
		return nil, err
	}
	q := s.rebind(`DELETE FROM logs WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return nil, dbErr(err, "delete log")
	}
	return log, nil
}

// ListLogsByCursor fetches a window of a schema's logs in compound
// (created_at, id) order. cur is the id of the boundary row (exclusive);
// its created_at is looked up first so the compound comparison stays exact
// across timestamp ties. A cursor whose row no longer exists (the initial
// seed, or a since-deleted boundary) degrades to a plain id comparison.
// Fetches limit+1 rows. Filters are AND-composed with the cursor predicate
// and never alter the ordering.
func (s *Store) ListLogsByCursor(ctx context.Context, schemaID uuid.UUID, cur *int64, limit int, dir cursor.Direction, f model.LogFilters) ([]model.LogRecord, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`SELECT ` + logColumns + ` FROM logs WHERE schema_id = ?`)
	args = append(args, schemaID)

	if cur != nil {
		var boundaryAt time.Time
		err := s.db.GetContext(ctx, &boundaryAt,
			s.rebind(`SELECT created_at FROM logs WHERE id = ?`), *cur)
		switch {
		case err == nil:
			fmt.Fprintf(&sb, ` AND (created_at, id) %s (?, ?)`, dir.CompareOp())
			args = append(args, boundaryAt, *cur)
		case isNoRows(err):
			fmt.Fprintf(&sb, ` AND id %s ?`, dir.CompareOp())
			args = append(args, *cur)
		default:
			return nil, dbErr(err, "resolve log cursor")
		}
	}

	if err := s.appendLogFilters(&sb, &args, f); err != nil {
		return nil, err
	}

	sb.WriteString(" " + dir.OrderSQL("created_at", "id"))
	sb.WriteString(` LIMIT ?`)
	args = append(args, limit+1)

	var logs []model.LogRecord
	if err := s.db.SelectContext(ctx, &logs, s.rebind(sb.String()), args...); err != nil {
		return nil, dbErr(err, "list logs")
	}
	return logs, nil
}

// CountLogsBySchema counts a schema's logs under the same filters the cursor
// listing applies.
func (s *Store) CountLogsBySchema(ctx context.Context, schemaID uuid.UUID, f model.LogFilters) (int64, error) {
	var sb strings.Builder
	var args []any

	sb.WriteString(`SELECT COUNT(*) FROM logs WHERE schema_id = ?`)
	args = append(args, schemaID)

	if err := s.appendLogFilters(&sb, &args, f); err != nil {
		return 0, err
	}

	var count int64
	if err := s.db.GetContext(ctx, &count, s.rebind(sb.String()), args...); err != nil {
		return 0, dbErr(err, "count logs")
	}
	return count, nil
}

// DeleteLogsBySchema removes all of a schema's logs and reports how many
// were deleted. Used by the forced cascade delete.
func (s *Store) DeleteLogsBySchema(ctx context.Context, schemaID uuid.UUID) (int64, error) {
	q := s.rebind(`DELETE FROM logs WHERE schema_id = ?`)
	result, err := s.db.ExecContext(ctx, q, schemaID)
	if err != nil {
		return 0, dbErr(err, "delete logs by schema")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, dbErr(err, "delete logs rows affected")
	}
	return n, nil
}

// LatestLogID returns the newest log id for a schema, or nil if the schema
// has no logs yet.
func (s *Store) LatestLogID(ctx context.Context, schemaID uuid.UUID) (*int64, error) {
	var id *int64
	q := s.rebind(`SELECT MAX(id) FROM logs WHERE schema_id = ?`)
	if err := s.db.GetContext(ctx, &id, q, schemaID); err != nil {
		return nil, dbErr(err, "get latest log id")
	}
	return id, nil
}

// appendLogFilters adds the containment and date-range predicates to an
// in-progress WHERE clause.
func (s *Store) appendLogFilters(sb *strings.Builder, args *[]any, f model.LogFilters) error {
	if f.HasContainment() {
		if s.dialect == DialectPostgres {
			sb.WriteString(` AND log_data @> ?::jsonb`)
			*args = append(*args, string(f.Filters))
		} else {
			if err := appendSQLiteContainment(sb, args, f.Filters); err != nil {
				return err
			}
		}
	}
	if f.HasDateRange() {
		sb.WriteString(` AND created_at BETWEEN ? AND ?`)
		*args = append(*args, f.DateBegin.UTC(), f.DateEnd.UTC())
	}
	return nil
}

// appendSQLiteContainment emulates the JSONB superset-match operator on
// SQLite: the filter object is flattened into JSON paths and each leaf is
// compared via json_extract. Scalar leaves compare by value; array leaves
// compare by minified JSON text.
func appendSQLiteContainment(sb *strings.Builder, args *[]any, filters model.JSONDoc) error {
	var obj map[string]any
	if err := json.Unmarshal(filters, &obj); err != nil {
		return apperr.BadRequestf("filters must be a JSON object")
	}

	var walk func(path string, v any) error
	walk = func(path string, v any) error {
		switch leaf := v.(type) {
		case map[string]any:
			for k, child := range leaf {
				if err := walk(path+"."+k, child); err != nil {
					return err
				}
			}
		case nil:
			sb.WriteString(` AND json_extract(log_data, ?) IS NULL`)
			*args = append(*args, path)
		case []any:
			raw, err := json.Marshal(leaf)
			if err != nil {
				return apperr.BadRequestf("filters contain an unencodable value at %s", path)
			}
			sb.WriteString(` AND json_extract(log_data, ?) = json(?)`)
			*args = append(*args, path, string(raw))
		default:
			sb.WriteString(` AND json_extract(log_data, ?) = ?`)
			*args = append(*args, path, leaf)
		}
		return nil
	}

	for k, v := range obj {
		if err := walk("$."+k, v); err != nil {
			return err
		}
	}
	return nil
}
