package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"log/slog"
	"net/netip"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/store"
)

const keyDisplayPrefixLen = 10

// AuthService validates API keys and issues admin JWTs.
type AuthService struct {
	store     *store.Store
	jwtSecret []byte
	logger    *slog.Logger
}

func NewAuthService(st *store.Store, jwtSecret string, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthService{
		store:     st,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}
}

// HashKey returns the hex-encoded SHA-256 digest of a raw key. Only this
// digest is ever stored or compared.
func HashKey(rawKey string) string {
	h := sha256.Sum256([]byte(rawKey))
	return hex.EncodeToString(h[:])
}

// GenerateKey produces a new secret of the form "sk_" followed by 32
// random bytes in unpadded URL-safe base64.
func GenerateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", apperr.Internalf("generate api key: %v", err)
	}
	return "sk_" + base64.RawURLEncoding.EncodeToString(buf), nil
}

// KeyPrefix derives the short display prefix stored alongside the hash so
// keys can be recognized in listings without revealing the secret.
func KeyPrefix(rawKey string) string {
	if len(rawKey) <= keyDisplayPrefixLen {
		return rawKey
	}
	return rawKey[:keyDisplayPrefixLen] + "..."
}

// ValidateAPIKey checks a raw key against stored hashes and enforces the
// key's IP allow-list. The hash lookup only matches keys that are active
// and unexpired, so every miss surfaces as Unauthorized without revealing
// whether the key exists. Usage tracking runs in the background and never
// delays the request.
func (s *AuthService) ValidateAPIKey(ctx context.Context, rawKey string, clientIP netip.Addr) (*model.APIKey, error) {
	key, err := s.store.GetValidAPIKeyByHash(ctx, HashKey(rawKey))
	if err != nil {
		if apperr.IsKind(err, apperr.NotFound) {
			return nil, apperr.Unauthorizedf("invalid API key")
		}
		return nil, err
	}

	if !key.IsIPAllowed(clientIP) {
		return nil, apperr.Forbiddenf("IP address not allowed")
	}

	go func() {
		if err := s.store.UpdateAPIKeyUsage(context.Background(), key.KeyHash); err != nil {
			s.logger.Warn("update api key usage", "key_prefix", key.KeyPrefix, "error", err)
		}
	}()

	return key, nil
}

// ValidateJWT verifies an admin bearer token.
func (s *AuthService) ValidateJWT(tokenStr string) (*AdminPrincipal, error) {
	claims := &jwtClaims{}

	token, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, apperr.Unauthorizedf("invalid admin token")
	}

	return &AdminPrincipal{Subject: claims.Subject}, nil
}

// IssueJWT creates a signed admin token.
func (s *AuthService) IssueJWT(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwtClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    "logvault",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// AdminPrincipal is the identity carried by a valid admin JWT.
type AdminPrincipal struct {
	Subject string
}

type jwtClaims struct {
	jwt.RegisteredClaims
}
