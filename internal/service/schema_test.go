package service

import (
	"context"
	"testing"
	"time"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/store"
	"github.com/logvaultdb/logvault/internal/validate"
)

const leveledSchema = `{
	"type": "object",
	"properties": {
		"level": {"type": "string"},
		"message": {"type": "string"}
	},
	"required": ["level"]
}`

func newTestServices(t *testing.T) (*SchemaService, *LogService) {
	t.Helper()
	st, err := store.NewSQLite("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	v := validate.New()
	return NewSchemaService(st, v), NewLogService(st, v)
}

func TestSchemaCreate_StampsTimestamps(t *testing.T) {
	schemas, _ := newTestServices(t)
	ctx := context.Background()

	created, err := schemas.Create(ctx, model.Schema{
		Name:             "events",
		Version:          "1.0.0",
		SchemaDefinition: model.JSONDoc(leveledSchema),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps = %v / %v, want both stamped", created.CreatedAt, created.UpdatedAt)
	}
	if time.Since(created.CreatedAt) > time.Minute {
		t.Errorf("created_at = %v, want recent", created.CreatedAt)
	}

	// The persisted row carries the same stamps, not the zero time.
	persisted, err := schemas.Get(ctx, created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if persisted.CreatedAt.IsZero() || persisted.UpdatedAt.IsZero() {
		t.Errorf("persisted timestamps = %v / %v, want both stamped",
			persisted.CreatedAt, persisted.UpdatedAt)
	}
	if d := persisted.CreatedAt.Sub(created.CreatedAt); d < -time.Second || d > time.Second {
		t.Errorf("persisted created_at = %v, want %v", persisted.CreatedAt, created.CreatedAt)
	}
}

func TestSchemaCreate_RejectsBadDefinition(t *testing.T) {
	schemas, _ := newTestServices(t)

	_, err := schemas.Create(context.Background(), model.Schema{
		Name:             "events",
		Version:          "1.0.0",
		SchemaDefinition: model.JSONDoc(`{"type": 42}`),
	})
	if !apperr.IsKind(err, apperr.Validation) {
		t.Errorf("error = %v, want Validation kind", err)
	}
}

func TestSchemaUpdate_PreservesCreatedAt(t *testing.T) {
	schemas, _ := newTestServices(t)
	ctx := context.Background()

	created, err := schemas.Create(ctx, model.Schema{
		Name:             "events",
		Version:          "1.0.0",
		SchemaDefinition: model.JSONDoc(leveledSchema),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := schemas.Update(ctx, created.ID, model.Schema{
		Name:             "events",
		Version:          "1.1.0",
		SchemaDefinition: model.JSONDoc(leveledSchema),
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if updated.CreatedAt.IsZero() {
		t.Fatal("created_at lost on update")
	}
	if d := updated.CreatedAt.Sub(created.CreatedAt); d < -time.Second || d > time.Second {
		t.Errorf("created_at = %v, want the original %v", updated.CreatedAt, created.CreatedAt)
	}
	if updated.UpdatedAt.IsZero() {
		t.Error("updated_at should be stamped")
	}
}

func TestSchemaDelete_ForceCascades(t *testing.T) {
	schemas, logs := newTestServices(t)
	ctx := context.Background()

	created, err := schemas.Create(ctx, model.Schema{
		Name:             "events",
		Version:          "1.0.0",
		SchemaDefinition: model.JSONDoc(leveledSchema),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := logs.Create(ctx, created.ID, model.JSONDoc(`{"level":"info"}`), false); err != nil {
			t.Fatalf("ingest log: %v", err)
		}
	}

	_, err = schemas.Delete(ctx, created.ID, false)
	if !apperr.IsKind(err, apperr.Conflict) {
		t.Fatalf("delete without force error = %v, want Conflict kind", err)
	}

	deleted, err := schemas.Delete(ctx, created.ID, true)
	if err != nil {
		t.Fatalf("forced delete: %v", err)
	}
	if deleted.DeletedLogs != 2 {
		t.Errorf("deleted_logs = %d, want 2", deleted.DeletedLogs)
	}

	if _, err := schemas.Get(ctx, created.ID); !apperr.IsKind(err, apperr.NotFound) {
		t.Errorf("error = %v, want NotFound kind after delete", err)
	}
}

func TestLogCreate_ValidateOptIn(t *testing.T) {
	schemas, logs := newTestServices(t)
	ctx := context.Background()

	created, err := schemas.Create(ctx, model.Schema{
		Name:             "events",
		Version:          "1.0.0",
		SchemaDefinition: model.JSONDoc(leveledSchema),
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Missing required field passes without opt-in validation.
	if _, err := logs.Create(ctx, created.ID, model.JSONDoc(`{"message":"no level"}`), false); err != nil {
		t.Errorf("unvalidated ingest: %v", err)
	}

	_, err = logs.Create(ctx, created.ID, model.JSONDoc(`{"message":"no level"}`), true)
	if !apperr.IsKind(err, apperr.SchemaValidation) {
		t.Errorf("validated ingest error = %v, want SchemaValidation kind", err)
	}

	if _, err := logs.Create(ctx, created.ID, model.JSONDoc(`{"level":"info"}`), true); err != nil {
		t.Errorf("conforming validated ingest: %v", err)
	}
}
