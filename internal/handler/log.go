package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/cursor"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/service"
)

// LogHandler exposes log ingestion, retrieval, and the cursor-paginated
// listings by schema id and schema name.
type LogHandler struct {
	logs    *service.LogService
	schemas *service.SchemaService
}

func NewLogHandler(logs *service.LogService, schemas *service.SchemaService) *LogHandler {
	return &LogHandler{logs: logs, schemas: schemas}
}

// Routes mounts the log endpoints on a router.
func (h *LogHandler) Routes(r chi.Router) {
	r.Post("/logs", h.Create)
	r.Get("/logs/{id}", h.Get)
	r.Delete("/logs/{id}", h.Delete)
	r.Get("/logs/schemas/{schema_id}", h.ListBySchema)
	r.Post("/logs/schemas/{schema_id}", h.QueryBySchema)
	r.Get("/logs/schemas/{schema_id}/cursor", h.InitialCursor)
	r.Get("/logs/by-schema-name/{name}", h.ListBySchemaName)
	r.Post("/logs/by-schema-name/{name}", h.QueryBySchemaName)
	r.Get("/logs/by-schema-name/{name}/versions/{version}", h.ListBySchemaNameVersion)
	r.Post("/logs/by-schema-name/{name}/versions/{version}", h.QueryBySchemaNameVersion)
}

type createLogRequest struct {
	SchemaID uuid.UUID     `json:"schema_id"`
	LogData  model.JSONDoc `json:"log_data"`
}

func (h *LogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createLogRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.SchemaID == uuid.Nil {
		writeError(w, r, apperr.Validationf("schema_id is required"))
		return
	}

	log, err := h.logs.Create(r.Context(), req.SchemaID, req.LogData, queryBool(r, "validate"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, log)
}

func (h *LogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	log, err := h.logs.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, log)
}

func (h *LogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	log, err := h.logs.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeletedResponse[*model.LogRecord]{
		Deleted: true,
		Data:    log,
	})
}

// logQuery is the shared shape of a log listing request, whether it arrives
// as query parameters or a POST body.
type logQuery struct {
	Cursor    *int64        `json:"cursor,omitempty"`
	Limit     int           `json:"limit,omitempty"`
	Direction string        `json:"direction,omitempty"`
	Filters   model.JSONDoc `json:"filters,omitempty"`
	DateBegin *time.Time    `json:"date_begin,omitempty"`
	DateEnd   *time.Time    `json:"date_end,omitempty"`
}

func (q *logQuery) normalize() (int, cursor.Direction, model.LogFilters, error) {
	limit := q.Limit
	if limit == 0 {
		limit = defaultListLimit
	}
	limit = clampInt(limit, 1, maxListLimit)

	dir, err := cursor.ParseDirection(q.Direction)
	if err != nil {
		return 0, dir, model.LogFilters{}, apperr.BadRequestf("%v", err)
	}

	return limit, dir, model.LogFilters{
		Filters:   q.Filters,
		DateBegin: q.DateBegin,
		DateEnd:   q.DateEnd,
	}, nil
}

func logQueryFromParams(r *http.Request) (*logQuery, error) {
	q := &logQuery{
		Limit:     queryInt(r, "limit", 0),
		Direction: queryString(r, "direction"),
	}

	var err error
	if q.Cursor, err = queryInt64Ptr(r, "cursor"); err != nil {
		return nil, err
	}
	if q.DateBegin, err = queryTime(r, "date_begin"); err != nil {
		return nil, err
	}
	if q.DateEnd, err = queryTime(r, "date_end"); err != nil {
		return nil, err
	}
	if raw := queryString(r, "filters"); raw != "" {
		q.Filters = model.JSONDoc(raw)
		if !q.Filters.IsObject() {
			return nil, apperr.BadRequestf("filters must be a JSON object")
		}
	}
	return q, nil
}

func (h *LogHandler) ListBySchema(w http.ResponseWriter, r *http.Request) {
	q, err := logQueryFromParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.serveBySchemaID(w, r, q)
}

func (h *LogHandler) QueryBySchema(w http.ResponseWriter, r *http.Request) {
	var q logQuery
	if err := readJSON(r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	h.serveBySchemaID(w, r, &q)
}

func (h *LogHandler) serveBySchemaID(w http.ResponseWriter, r *http.Request, q *logQuery) {
	schemaID, err := pathUUID(r, "schema_id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.servePage(w, r, schemaID, q)
}

func (h *LogHandler) ListBySchemaName(w http.ResponseWriter, r *http.Request) {
	q, err := logQueryFromParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.serveByName(w, r, model.SchemaRef{Name: chi.URLParam(r, "name")}, q)
}

func (h *LogHandler) QueryBySchemaName(w http.ResponseWriter, r *http.Request) {
	var q logQuery
	if err := readJSON(r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	h.serveByName(w, r, model.SchemaRef{Name: chi.URLParam(r, "name")}, &q)
}

func (h *LogHandler) ListBySchemaNameVersion(w http.ResponseWriter, r *http.Request) {
	q, err := logQueryFromParams(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	version := chi.URLParam(r, "version")
	h.serveByName(w, r, model.SchemaRef{Name: chi.URLParam(r, "name"), Version: &version}, q)
}

func (h *LogHandler) QueryBySchemaNameVersion(w http.ResponseWriter, r *http.Request) {
	var q logQuery
	if err := readJSON(r, &q); err != nil {
		writeError(w, r, err)
		return
	}
	version := chi.URLParam(r, "version")
	h.serveByName(w, r, model.SchemaRef{Name: chi.URLParam(r, "name"), Version: &version}, &q)
}

func (h *LogHandler) serveByName(w http.ResponseWriter, r *http.Request, ref model.SchemaRef, q *logQuery) {
	schema, err := h.schemas.Resolve(r.Context(), ref)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.servePage(w, r, schema.ID, q)
}

func (h *LogHandler) servePage(w http.ResponseWriter, r *http.Request, schemaID uuid.UUID, q *logQuery) {
	limit, dir, filters, err := q.normalize()
	if err != nil {
		writeError(w, r, err)
		return
	}

	page, err := h.logs.List(r.Context(), schemaID, q.Cursor, limit, dir, filters)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *LogHandler) InitialCursor(w http.ResponseWriter, r *http.Request) {
	schemaID, err := pathUUID(r, "schema_id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	cur, err := h.logs.InitialCursor(r.Context(), schemaID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.InitialCursorResponse{Cursor: cur})
}

func pathInt64(r *http.Request, key string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, key), 10, 64)
	if err != nil {
		return 0, apperr.BadRequestf("%s must be an integer", key)
	}
	return id, nil
}
