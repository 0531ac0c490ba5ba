package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/server/middleware"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError renders err through the standard error envelope. The status
// and machine-readable code come from the error's kind; database and
// internal failures get an opaque message so storage details never leak.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	writeJSON(w, kind.HTTPStatus(), model.ErrorResponse{
		Error:     kind.Code(),
		Message:   apperr.ClientMessage(err),
		RequestID: middleware.GetRequestID(r.Context()),
	})
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure. A body that fails to decode is
// structurally malformed and maps to 422, not 400.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Unprocessablef("invalid JSON body: %v", err)
	}
	return nil
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryString extracts a string query parameter.
func queryString(r *http.Request, key string) string {
	return r.URL.Query().Get(key)
}

// queryBool extracts a boolean query parameter. Returns false if the parameter
// is missing or not "true"/"1".
func queryBool(r *http.Request, key string) bool {
	val := r.URL.Query().Get(key)
	return val == "true" || val == "1"
}

// queryTime extracts an RFC 3339 query parameter. A missing parameter
// returns nil; a present but malformed one returns an error.
func queryTime(r *http.Request, key string) (*time.Time, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil, apperr.BadRequestf("%s must be an RFC 3339 timestamp", key)
	}
	return &t, nil
}

// queryInt64Ptr extracts an optional int64 query parameter.
func queryInt64Ptr(r *http.Request, key string) (*int64, error) {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return nil, apperr.BadRequestf("%s must be an integer", key)
	}
	return &n, nil
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
