package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Schema is a registered JSON-Schema document that log records are submitted
// against. The (name, version) pair is jointly unique; the id is the stable
// identity and the pagination tiebreak for schema listings.
type Schema struct {
	ID               uuid.UUID `json:"id" db:"id"`
	Name             string    `json:"name" db:"name"`
	Version          string    `json:"version" db:"version"`
	Description      *string   `json:"description,omitempty" db:"description"`
	SchemaDefinition JSONDoc   `json:"schema_definition" db:"schema_definition"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// SchemaRef identifies a schema by name with an optional exact version.
// Without a version it resolves to the latest version by numeric component
// comparison, not lexicographic order.
type SchemaRef struct {
	Name    string
	Version *string
}

func (r SchemaRef) String() string {
	if r.Version != nil {
		return r.Name + ":" + *r.Version
	}
	return r.Name + ":latest"
}

// JSONDoc is a raw JSON document persisted in a single text/jsonb column.
type JSONDoc json.RawMessage

// IsObject reports whether the document is a JSON object.
func (d JSONDoc) IsObject() bool {
	var probe map[string]json.RawMessage
	return json.Unmarshal(d, &probe) == nil
}

func (d JSONDoc) MarshalJSON() ([]byte, error) {
	if len(d) == 0 {
		return []byte("null"), nil
	}
	return d, nil
}

func (d *JSONDoc) UnmarshalJSON(data []byte) error {
	*d = append((*d)[:0], data...)
	return nil
}

// Scan implements sql.Scanner.
func (d *JSONDoc) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = nil
		return nil
	case []byte:
		*d = append((*d)[:0], v...)
		return nil
	case string:
		*d = JSONDoc(v)
		return nil
	default:
		return fmt.Errorf("cannot scan %T into JSONDoc", src)
	}
}

// Value implements driver.Valuer.
func (d JSONDoc) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	return string(d), nil
}
