package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/netip"
	"strconv"
	"strings"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/ratelimit"
	"github.com/logvaultdb/logvault/internal/service"
)

// APIKeyContextKey is the context key for the authenticated API key.
const APIKeyContextKey contextKey = "api_key"

// AdminContextKey is the context key for the authenticated admin principal.
const AdminContextKey contextKey = "admin_principal"

// APIKeyAuth returns the gate every data-plane request passes through. In
// order it extracts the key from the X-API-Key header or an Authorization
// Bearer token, validates it by hash, enforces the key's IP allow-list,
// and charges the request against the key's rate limit. Each rejection
// maps to its own status: 401 for a missing or unknown key, 403 for a
// disallowed IP, 429 when the limit is exhausted. Admitted requests carry
// the key in the context and the remaining quota in X-RateLimit headers.
func APIKeyAuth(authSvc *service.AuthService, limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawKey := extractKey(r)
			if rawKey == "" {
				writeAuthError(w, r, apperr.Unauthorizedf("missing API key: provide X-API-Key header or Bearer token"))
				return
			}

			key, err := authSvc.ValidateAPIKey(r.Context(), rawKey, clientAddr(r))
			if err != nil {
				writeAuthError(w, r, err)
				return
			}

			rate, burst := key.EffectiveLimits()
			if err := limiter.Allow(key.KeyHash, rate, burst); err != nil {
				var rej *ratelimit.RejectionError
				if errors.As(err, &rej) {
					h := w.Header()
					h.Set("X-RateLimit-Limit", strconv.Itoa(rej.Limit))
					h.Set("X-RateLimit-Remaining", "0")
					h.Set("Retry-After", strconv.Itoa(rej.RetryAfter))
				}
				writeAuthError(w, r, apperr.RateLimitedf("rate limit exceeded: %d requests per second", rate))
				return
			}

			status := limiter.Status(key.KeyHash, rate, burst)
			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(status.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(status.Remaining))
			h.Set("X-RateLimit-Reset", strconv.Itoa(status.ResetInSecs))

			ctx := context.WithValue(r.Context(), APIKeyContextKey, key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminAuth returns the gate for the management surface. It accepts only a
// JWT Bearer token issued by the admin CLI.
func AdminAuth(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				writeAuthError(w, r, apperr.Unauthorizedf("missing admin token"))
				return
			}

			principal, err := authSvc.ValidateJWT(token)
			if err != nil {
				writeAuthError(w, r, err)
				return
			}

			ctx := context.WithValue(r.Context(), AdminContextKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAPIKey extracts the authenticated API key from the context. Returns
// nil on the admin surface and in unauthenticated handlers.
func GetAPIKey(ctx context.Context) *model.APIKey {
	if k, ok := ctx.Value(APIKeyContextKey).(*model.APIKey); ok {
		return k
	}
	return nil
}

// GetAdmin extracts the authenticated admin principal from the context.
func GetAdmin(ctx context.Context) *service.AdminPrincipal {
	if p, ok := ctx.Value(AdminContextKey).(*service.AdminPrincipal); ok {
		return p
	}
	return nil
}

func extractKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return bearerToken(r)
}

func bearerToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// clientAddr parses the peer address of the connection. The allow-list
// check treats an unparseable address as no address at all.
func clientAddr(r *http.Request) netip.Addr {
	if ap, err := netip.ParseAddrPort(r.RemoteAddr); err == nil {
		return ap.Addr()
	}
	if addr, err := netip.ParseAddr(r.RemoteAddr); err == nil {
		return addr
	}
	return netip.Addr{}
}

// writeAuthError renders the standard error envelope without importing the
// handler package.
func writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	kind := apperr.KindOf(err)
	resp := model.ErrorResponse{
		Error:     kind.Code(),
		Message:   apperr.ClientMessage(err),
		RequestID: GetRequestID(r.Context()),
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(kind.HTTPStatus())
	json.NewEncoder(w).Encode(resp)
}
