package handler

import (
	"net/http"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/store"
)

// SystemHandler serves liveness and readiness probes.
type SystemHandler struct {
	store   *store.Store
	version string
}

func NewSystemHandler(st *store.Store, version string) *SystemHandler {
	return &SystemHandler{store: st, version: version}
}

// Healthz reports process liveness. It never touches the store.
// GET /healthz
func (h *SystemHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}

// Readyz reports readiness to serve, gated on a store ping.
// GET /readyz
func (h *SystemHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Ping(r.Context()); err != nil {
		writeError(w, r, apperr.Wrap(apperr.Database, err, "store ping"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}
