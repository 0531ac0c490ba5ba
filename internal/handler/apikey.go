package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/service"
)

// APIKeyHandler exposes the admin key-management surface. Every response
// carries key metadata only; the plaintext secret appears exactly once, in
// the create and rotate responses.
type APIKeyHandler struct {
	keys *service.APIKeyService
}

func NewAPIKeyHandler(keys *service.APIKeyService) *APIKeyHandler {
	return &APIKeyHandler{keys: keys}
}

// Routes mounts the key-management endpoints on a router.
func (h *APIKeyHandler) Routes(r chi.Router) {
	r.Get("/api-keys", h.List)
	r.Post("/api-keys", h.Create)
	r.Get("/api-keys/{id}", h.Get)
	r.Delete("/api-keys/{id}", h.Delete)
	r.Post("/api-keys/{id}/rotate", h.Rotate)
}

type createAPIKeyRequest struct {
	Name               string         `json:"name"`
	Description        *string        `json:"description,omitempty"`
	ExpiresAt          *time.Time     `json:"expires_at,omitempty"`
	AllowedIPs         model.CIDRList `json:"allowed_ips,omitempty"`
	RateLimitPerSecond *int           `json:"rate_limit_per_second,omitempty"`
	RateLimitBurst     *int           `json:"rate_limit_burst,omitempty"`
}

func (h *APIKeyHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAPIKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := h.keys.Create(r.Context(), model.CreateAPIKey{
		Name:               req.Name,
		Description:        req.Description,
		ExpiresAt:          req.ExpiresAt,
		AllowedIPs:         req.AllowedIPs,
		RateLimitPerSecond: req.RateLimitPerSecond,
		RateLimitBurst:     req.RateLimitBurst,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *APIKeyHandler) List(w http.ResponseWriter, r *http.Request) {
	var (
		keys []model.APIKey
		err  error
	)
	if queryBool(r, "expired") {
		keys, err = h.keys.ListExpired(r.Context())
	} else {
		keys, err = h.keys.List(r.Context())
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (h *APIKeyHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	key, err := h.keys.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, key)
}

func (h *APIKeyHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	key, err := h.keys.Delete(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, model.DeletedResponse[*model.APIKey]{
		Deleted: true,
		Data:    key,
	})
}

func (h *APIKeyHandler) Rotate(w http.ResponseWriter, r *http.Request) {
	id, err := pathInt64(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	rotated, err := h.keys.Rotate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rotated)
}
