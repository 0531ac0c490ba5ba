package model

import (
	"time"

	"github.com/google/uuid"
)

// LogRecord is one structured log entry submitted against a schema. The
// sequential id doubles as the pagination tiebreak: it is assumed to increase
// monotonically with insertion order.
type LogRecord struct {
	ID        int64     `json:"id" db:"id"`
	SchemaID  uuid.UUID `json:"schema_id" db:"schema_id"`
	LogData   JSONDoc   `json:"log_data" db:"log_data"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// LogFilters are the optional predicates AND-composed with the cursor window
// when listing logs: a JSON-containment match against log_data and a closed
// date range. Filters never override the cursor ordering.
type LogFilters struct {
	Filters   JSONDoc    `json:"filters,omitempty"`
	DateBegin *time.Time `json:"date_begin,omitempty"`
	DateEnd   *time.Time `json:"date_end,omitempty"`
}

// HasContainment reports whether a usable containment filter is present.
// Mirroring the query semantics, a non-object filter document is ignored
// rather than rejected.
func (f LogFilters) HasContainment() bool {
	return len(f.Filters) > 0 && f.Filters.IsObject()
}

// HasDateRange reports whether both range endpoints are present. A half-open
// range is ignored.
func (f LogFilters) HasDateRange() bool {
	return f.DateBegin != nil && f.DateEnd != nil
}
