package model

// ErrorResponse is the standard envelope for error responses. RequestID is
// the correlation identifier assigned by the request-ID middleware.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// DeletedResponse wraps the final state of a deleted resource.
type DeletedResponse[T any] struct {
	Deleted bool `json:"deleted"`
	Data    T    `json:"data"`
}

// DeletedSchema reports a schema deletion, including how many logs the
// forced cascade removed.
type DeletedSchema struct {
	Schema      Schema `json:"schema"`
	DeletedLogs int64  `json:"deleted_logs"`
}

// InitialCursorResponse carries the cursor-seed value for a collection:
// one past the newest record, so a forward scan from it yields the whole
// collection newest-first.
type InitialCursorResponse struct {
	Cursor int64 `json:"cursor"`
}
