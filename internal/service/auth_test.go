package service

import (
	"context"
	"io"
	"log/slog"
	"net/netip"
	"strings"
	"testing"
	"time"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/store"
)

func newTestAuth(t *testing.T) (*AuthService, *APIKeyService) {
	t.Helper()
	st, err := store.NewSQLite("")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthService(st, "test-secret", logger), NewAPIKeyService(st)
}

func TestGenerateKey(t *testing.T) {
	a, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	b, err := GenerateKey()
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}

	if !strings.HasPrefix(a, "sk_") {
		t.Errorf("key %q lacks the sk_ prefix", a)
	}
	if a == b {
		t.Error("consecutive keys must differ")
	}
	// 32 random bytes in unpadded base64 is 43 characters.
	if len(a) != len("sk_")+43 {
		t.Errorf("key length = %d", len(a))
	}
}

func TestHashKey(t *testing.T) {
	h := HashKey("sk_example")
	if len(h) != 64 {
		t.Errorf("hash length = %d, want hex SHA-256", len(h))
	}
	if h != HashKey("sk_example") {
		t.Error("hashing must be deterministic")
	}
	if h == HashKey("sk_other") {
		t.Error("distinct keys must hash differently")
	}
}

func TestKeyPrefix(t *testing.T) {
	if got := KeyPrefix("sk_abcdefghijklmnop"); got != "sk_abcdefg..." {
		t.Errorf("prefix = %q", got)
	}
	if got := KeyPrefix("short"); got != "short" {
		t.Errorf("short key prefix = %q", got)
	}
}

func TestValidateAPIKey(t *testing.T) {
	auth, keys := newTestAuth(t)
	ctx := context.Background()
	clientIP := netip.MustParseAddr("192.0.2.1")

	created, err := keys.Create(ctx, model.CreateAPIKey{Name: "svc"})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	key, err := auth.ValidateAPIKey(ctx, created.PlainKey, clientIP)
	if err != nil {
		t.Fatalf("ValidateAPIKey: %v", err)
	}
	if key.Name != "svc" {
		t.Errorf("validated key name = %q", key.Name)
	}

	_, err = auth.ValidateAPIKey(ctx, "sk_never_issued", clientIP)
	if !apperr.IsKind(err, apperr.Unauthorized) {
		t.Errorf("unknown key error = %v, want Unauthorized kind", err)
	}
}

func TestValidateAPIKey_IPAllowList(t *testing.T) {
	auth, keys := newTestAuth(t)
	ctx := context.Background()

	created, err := keys.Create(ctx, model.CreateAPIKey{
		Name:       "restricted",
		AllowedIPs: model.CIDRList{"10.0.0.0/8"},
	})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	if _, err := auth.ValidateAPIKey(ctx, created.PlainKey, netip.MustParseAddr("10.1.2.3")); err != nil {
		t.Errorf("in-range IP: %v", err)
	}

	_, err = auth.ValidateAPIKey(ctx, created.PlainKey, netip.MustParseAddr("192.0.2.1"))
	if !apperr.IsKind(err, apperr.Forbidden) {
		t.Errorf("out-of-range IP error = %v, want Forbidden kind", err)
	}
}

func TestJWTRoundTrip(t *testing.T) {
	auth, _ := newTestAuth(t)

	token, err := auth.IssueJWT("admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	principal, err := auth.ValidateJWT(token)
	if err != nil {
		t.Fatalf("ValidateJWT: %v", err)
	}
	if principal.Subject != "admin" {
		t.Errorf("subject = %q", principal.Subject)
	}
}

func TestValidateJWT_Rejections(t *testing.T) {
	auth, _ := newTestAuth(t)

	expired, err := auth.IssueJWT("admin", -time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	other := NewAuthService(nil, "different-secret", nil)
	foreign, err := other.IssueJWT("admin", time.Hour)
	if err != nil {
		t.Fatalf("IssueJWT: %v", err)
	}

	for name, token := range map[string]string{
		"expired":      expired,
		"wrong secret": foreign,
		"garbage":      "not.a.jwt",
	} {
		if _, err := auth.ValidateJWT(token); !apperr.IsKind(err, apperr.Unauthorized) {
			t.Errorf("%s token error = %v, want Unauthorized kind", name, err)
		}
	}
}

func TestAPIKeyService_CreateValidation(t *testing.T) {
	_, keys := newTestAuth(t)
	ctx := context.Background()

	neg := -1
	tests := []struct {
		name string
		req  model.CreateAPIKey
	}{
		{"missing name", model.CreateAPIKey{}},
		{"bad cidr", model.CreateAPIKey{Name: "x", AllowedIPs: model.CIDRList{"not-a-network"}}},
		{"negative rate", model.CreateAPIKey{Name: "x", RateLimitPerSecond: &neg}},
		{"negative burst", model.CreateAPIKey{Name: "x", RateLimitBurst: &neg}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := keys.Create(ctx, tt.req); !apperr.IsKind(err, apperr.Validation) {
				t.Errorf("error = %v, want Validation kind", err)
			}
		})
	}
}

func TestAPIKeyService_RotateInvalidatesOldSecret(t *testing.T) {
	auth, keys := newTestAuth(t)
	ctx := context.Background()
	clientIP := netip.MustParseAddr("192.0.2.1")

	created, err := keys.Create(ctx, model.CreateAPIKey{Name: "rotating"})
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	rotated, err := keys.Rotate(ctx, created.ID)
	if err != nil {
		t.Fatalf("Rotate: %v", err)
	}
	if rotated.PlainKey == created.PlainKey {
		t.Error("rotation must mint a fresh secret")
	}
	if rotated.ID != created.ID {
		t.Errorf("rotated id = %d, want %d", rotated.ID, created.ID)
	}

	if _, err := auth.ValidateAPIKey(ctx, created.PlainKey, clientIP); !apperr.IsKind(err, apperr.Unauthorized) {
		t.Errorf("old secret error = %v, want Unauthorized kind", err)
	}
	if _, err := auth.ValidateAPIKey(ctx, rotated.PlainKey, clientIP); err != nil {
		t.Errorf("new secret: %v", err)
	}
}
