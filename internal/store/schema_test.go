package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/cursor"
	"github.com/logvaultdb/logvault/internal/model"
)

func TestSchemaCreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	created := seedSchema(t, s, "events", "1.0.0")

	got, err := s.GetSchema(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if got.Name != "events" || got.Version != "1.0.0" {
		t.Errorf("got %s:%s, want events:1.0.0", got.Name, got.Version)
	}
	if string(got.SchemaDefinition) != `{"type":"object"}` {
		t.Errorf("schema_definition = %s", got.SchemaDefinition)
	}
}

func TestSchemaGet_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetSchema(context.Background(), uuid.New())
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("error = %v, want NotFound kind", err)
	}
}

func TestSchemaCreate_DuplicateNameVersion(t *testing.T) {
	s := newTestStore(t)

	seedSchema(t, s, "dup", "1.0.0")

	now := time.Now().UTC()
	err := s.CreateSchema(context.Background(), &model.Schema{
		ID:               uuid.New(),
		Name:             "dup",
		Version:          "1.0.0",
		SchemaDefinition: model.JSONDoc(`{}`),
		CreatedAt:        now,
		UpdatedAt:        now,
	})
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("error = %v, want Conflict kind", err)
	}
}

func TestSchemaGetByNameVersion(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSchema(t, s, "events", "1.0.0")
	seedSchema(t, s, "events", "2.0.0")

	got, err := s.GetSchemaByNameVersion(ctx, "events", "1.0.0")
	if err != nil {
		t.Fatalf("GetSchemaByNameVersion: %v", err)
	}
	if got.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", got.Version)
	}

	_, err = s.GetSchemaByNameVersion(ctx, "events", "9.9.9")
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("error = %v, want NotFound kind", err)
	}
}

func TestSchemaGetByNameLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSchema(t, s, "events", "1.9.0")
	seedSchema(t, s, "events", "1.10.0")
	seedSchema(t, s, "events", "1.2.3")

	got, err := s.GetSchemaByNameLatest(ctx, "events")
	if err != nil {
		t.Fatalf("GetSchemaByNameLatest: %v", err)
	}
	// Numeric comparison, not lexicographic.
	if got.Version != "1.10.0" {
		t.Errorf("latest = %q, want 1.10.0", got.Version)
	}

	_, err = s.GetSchemaByNameLatest(ctx, "nothing")
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("error = %v, want NotFound kind", err)
	}
}

func TestSchemaUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	schema := seedSchema(t, s, "events", "1.0.0")

	desc := "updated description"
	schema.Description = &desc
	schema.SchemaDefinition = model.JSONDoc(`{"type":"object","required":["k"]}`)
	if err := s.UpdateSchema(ctx, schema); err != nil {
		t.Fatalf("UpdateSchema: %v", err)
	}

	got, err := s.GetSchema(ctx, schema.ID)
	if err != nil {
		t.Fatalf("GetSchema: %v", err)
	}
	if got.Description == nil || *got.Description != desc {
		t.Errorf("description = %v, want %q", got.Description, desc)
	}
	if string(got.SchemaDefinition) != `{"type":"object","required":["k"]}` {
		t.Errorf("schema_definition = %s", got.SchemaDefinition)
	}
}

func TestSchemaUpdate_NotFound(t *testing.T) {
	s := newTestStore(t)

	err := s.UpdateSchema(context.Background(), &model.Schema{
		ID:               uuid.New(),
		Name:             "ghost",
		Version:          "1.0.0",
		SchemaDefinition: model.JSONDoc(`{}`),
	})
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("error = %v, want NotFound kind", err)
	}
}

func TestSchemaUpdate_ConflictWithOtherRecord(t *testing.T) {
	s := newTestStore(t)

	seedSchema(t, s, "a", "1.0.0")
	b := seedSchema(t, s, "b", "1.0.0")

	b.Name = "a"
	err := s.UpdateSchema(context.Background(), b)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("error = %v, want Conflict kind", err)
	}
}

func TestSchemaDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	schema := seedSchema(t, s, "doomed", "1.0.0")

	final, err := s.DeleteSchema(ctx, schema.ID)
	if err != nil {
		t.Fatalf("DeleteSchema: %v", err)
	}
	if final.Name != "doomed" {
		t.Errorf("final state name = %q, want doomed", final.Name)
	}

	_, err = s.GetSchema(ctx, schema.ID)
	if !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("error = %v, want NotFound kind", err)
	}
}

func TestSchemaDelete_RestrictedByLogs(t *testing.T) {
	s := newTestStore(t)

	schema := seedSchema(t, s, "referenced", "1.0.0")
	seedLog(t, s, schema.ID, `{"k":"v"}`)

	_, err := s.DeleteSchema(context.Background(), schema.ID)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Errorf("error = %v, want Conflict kind while logs reference the schema", err)
	}
}

// seedSchemaAt inserts a schema with an explicit id and creation time, for
// exercising the compound ordering deterministically.
func seedSchemaAt(t *testing.T, s *Store, name, version, id string, at time.Time) uuid.UUID {
	t.Helper()
	uid := uuid.MustParse(id)
	schema := &model.Schema{
		ID:               uid,
		Name:             name,
		Version:          version,
		SchemaDefinition: model.JSONDoc(`{}`),
		CreatedAt:        at,
		UpdatedAt:        at,
	}
	if err := s.CreateSchema(context.Background(), schema); err != nil {
		t.Fatalf("CreateSchema(%s): %v", id, err)
	}
	return uid
}

func TestListSchemasByCursor(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id1 := seedSchemaAt(t, s, "s1", "1.0.0", "00000000-0000-0000-0000-000000000001", base)
	id2 := seedSchemaAt(t, s, "s2", "1.0.0", "00000000-0000-0000-0000-000000000002", base.Add(time.Second))
	id3 := seedSchemaAt(t, s, "s3", "1.0.0", "00000000-0000-0000-0000-000000000003", base.Add(2*time.Second))

	// First page, no cursor: newest first, over-fetch included.
	rows, err := s.ListSchemasByCursor(ctx, nil, 2, cursor.Forward, "")
	if err != nil {
		t.Fatalf("ListSchemasByCursor: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("row count = %d, want 3 (limit+1 over-fetch)", len(rows))
	}
	if rows[0].ID != id3 || rows[1].ID != id2 {
		t.Errorf("order = %v, %v; want s3, s2", rows[0].ID, rows[1].ID)
	}

	// Resume forward past s2.
	rows, err = s.ListSchemasByCursor(ctx, &id2, 2, cursor.Forward, "")
	if err != nil {
		t.Fatalf("ListSchemasByCursor: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id1 {
		t.Fatalf("resumed rows = %v, want just s1", rows)
	}

	// Backward from s2 scans toward newer records, oldest first.
	rows, err = s.ListSchemasByCursor(ctx, &id2, 2, cursor.Backward, "")
	if err != nil {
		t.Fatalf("ListSchemasByCursor backward: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id3 {
		t.Fatalf("backward rows = %v, want just s3", rows)
	}
}

func TestListSchemasByCursor_TimestampTie(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Identical created_at forces the id tiebreak.
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	idA := seedSchemaAt(t, s, "tie-a", "1.0.0", "00000000-0000-0000-0000-00000000000a", at)
	idB := seedSchemaAt(t, s, "tie-b", "1.0.0", "00000000-0000-0000-0000-00000000000b", at)

	rows, err := s.ListSchemasByCursor(ctx, nil, 10, cursor.Forward, "")
	if err != nil {
		t.Fatalf("ListSchemasByCursor: %v", err)
	}
	if len(rows) != 2 || rows[0].ID != idB || rows[1].ID != idA {
		t.Fatalf("tie order = %v, want b then a", rows)
	}

	// Resuming past the higher id yields exactly the lower one.
	rows, err = s.ListSchemasByCursor(ctx, &idB, 10, cursor.Forward, "")
	if err != nil {
		t.Fatalf("ListSchemasByCursor: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != idA {
		t.Fatalf("resumed tie rows = %v, want just a", rows)
	}
}

func TestListSchemasByCursor_DeletedBoundary(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	id1 := seedSchemaAt(t, s, "s1", "1.0.0", "00000000-0000-0000-0000-000000000001", base)
	id2 := seedSchemaAt(t, s, "s2", "1.0.0", "00000000-0000-0000-0000-000000000002", base.Add(time.Second))

	// Delete the boundary row; the cursor degrades to a plain id comparison.
	if _, err := s.DeleteSchema(ctx, id2); err != nil {
		t.Fatalf("DeleteSchema: %v", err)
	}

	rows, err := s.ListSchemasByCursor(ctx, &id2, 10, cursor.Forward, "")
	if err != nil {
		t.Fatalf("ListSchemasByCursor: %v", err)
	}
	if len(rows) != 1 || rows[0].ID != id1 {
		t.Fatalf("rows = %v, want just s1", rows)
	}
}

func TestListSchemasByCursor_NameFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seedSchema(t, s, "events", "1.0.0")
	seedSchema(t, s, "events", "2.0.0")
	seedSchema(t, s, "metrics", "1.0.0")

	rows, err := s.ListSchemasByCursor(ctx, nil, 10, cursor.Forward, "events")
	if err != nil {
		t.Fatalf("ListSchemasByCursor: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("filtered count = %d, want 2", len(rows))
	}
	for _, r := range rows {
		if r.Name != "events" {
			t.Errorf("unexpected schema %q in filtered listing", r.Name)
		}
	}
}
