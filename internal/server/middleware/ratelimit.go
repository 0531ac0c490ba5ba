package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// IPRateLimit returns an HTTP middleware that throttles unauthenticated
// traffic per client IP. It sits in front of the API-key gate so probing
// for valid keys is rate limited too.
func IPRateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.LimitByIP(requestsPerMinute, time.Minute)
}
