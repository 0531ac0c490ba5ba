package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/logvaultdb/logvault/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewSQLite("") // in-memory
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func seedSchema(t *testing.T, s *Store, name, version string) *model.Schema {
	t.Helper()
	now := time.Now().UTC()
	schema := &model.Schema{
		ID:               uuid.New(),
		Name:             name,
		Version:          version,
		SchemaDefinition: model.JSONDoc(`{"type":"object"}`),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.CreateSchema(context.Background(), schema); err != nil {
		t.Fatalf("CreateSchema(%s:%s): %v", name, version, err)
	}
	return schema
}

func seedLog(t *testing.T, s *Store, schemaID uuid.UUID, data string) *model.LogRecord {
	t.Helper()
	log := &model.LogRecord{
		SchemaID: schemaID,
		LogData:  model.JSONDoc(data),
	}
	if err := s.CreateLog(context.Background(), log); err != nil {
		t.Fatalf("CreateLog: %v", err)
	}
	return log
}

func TestStorePing(t *testing.T) {
	s := newTestStore(t)
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping: %v", err)
	}
	if s.Dialect() != DialectSQLite {
		t.Errorf("Dialect() = %v, want sqlite", s.Dialect())
	}
}

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("oracle", "", ""); err == nil {
		t.Error("expected error for unsupported driver")
	}
}
