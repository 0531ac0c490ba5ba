package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/cursor"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/service"
)

const (
	defaultListLimit = 50
	maxListLimit     = 1000
)

// SchemaHandler exposes schema CRUD and name-based resolution.
type SchemaHandler struct {
	schemas *service.SchemaService
}

func NewSchemaHandler(schemas *service.SchemaService) *SchemaHandler {
	return &SchemaHandler{schemas: schemas}
}

// Routes mounts the schema endpoints on a router.
func (h *SchemaHandler) Routes(r chi.Router) {
	r.Get("/schemas", h.List)
	r.Post("/schemas", h.Create)
	r.Get("/schemas/{id}", h.Get)
	r.Put("/schemas/{id}", h.Update)
	r.Delete("/schemas/{id}", h.Delete)
	r.Get("/schemas/by-name/{name}", h.GetByName)
	r.Get("/schemas/by-name/{name}/versions/{version}", h.GetByNameVersion)
}

type schemaRequest struct {
	Name             string        `json:"name"`
	Version          string        `json:"version"`
	Description      *string       `json:"description,omitempty"`
	SchemaDefinition model.JSONDoc `json:"schema_definition"`
}

func (h *SchemaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req schemaRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	schema, err := h.schemas.Create(r.Context(), model.Schema{
		Name:             req.Name,
		Version:          req.Version,
		Description:      req.Description,
		SchemaDefinition: req.SchemaDefinition,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, schema)
}

func (h *SchemaHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := clampInt(queryInt(r, "limit", defaultListLimit), 1, maxListLimit)

	dir, err := cursor.ParseDirection(queryString(r, "direction"))
	if err != nil {
		writeError(w, r, apperr.BadRequestf("%v", err))
		return
	}

	var cur *uuid.UUID
	if raw := queryString(r, "cursor"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, r, apperr.BadRequestf("cursor must be a UUID"))
			return
		}
		cur = &id
	}

	page, err := h.schemas.List(r.Context(), cur, limit, dir, queryString(r, "name"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *SchemaHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	schema, err := h.schemas.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *SchemaHandler) GetByName(w http.ResponseWriter, r *http.Request) {
	h.resolve(w, r, model.SchemaRef{Name: chi.URLParam(r, "name")})
}

func (h *SchemaHandler) GetByNameVersion(w http.ResponseWriter, r *http.Request) {
	version := chi.URLParam(r, "version")
	h.resolve(w, r, model.SchemaRef{Name: chi.URLParam(r, "name"), Version: &version})
}

func (h *SchemaHandler) resolve(w http.ResponseWriter, r *http.Request, ref model.SchemaRef) {
	schema, err := h.schemas.Resolve(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *SchemaHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req schemaRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	schema, err := h.schemas.Update(r.Context(), id, model.Schema{
		Name:             req.Name,
		Version:          req.Version,
		Description:      req.Description,
		SchemaDefinition: req.SchemaDefinition,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func (h *SchemaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	deleted, err := h.schemas.Delete(r.Context(), id, queryBool(r, "force"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeletedResponse[*model.DeletedSchema]{
		Deleted: true,
		Data:    deleted,
	})
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, key))
	if err != nil {
		return uuid.Nil, apperr.BadRequestf("%s must be a UUID", key)
	}
	return id, nil
}
