package service

import (
	"context"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/model"
	"github.com/logvaultdb/logvault/internal/store"
)

// APIKeyService manages the lifecycle of API keys. The generated secret is
// returned exactly once, at creation or rotation; only its hash persists.
type APIKeyService struct {
	store *store.Store
}

func NewAPIKeyService(st *store.Store) *APIKeyService {
	return &APIKeyService{store: st}
}

// Create mints a new key. The plaintext secret in the result is the only
// copy that will ever exist.
func (s *APIKeyService) Create(ctx context.Context, req model.CreateAPIKey) (*model.CreatedAPIKey, error) {
	if req.Name == "" {
		return nil, apperr.Validationf("name is required")
	}
	if err := req.AllowedIPs.Validate(); err != nil {
		return nil, apperr.Validationf("%v", err)
	}
	if req.RateLimitPerSecond != nil && *req.RateLimitPerSecond <= 0 {
		return nil, apperr.Validationf("rate_limit_per_second must be positive")
	}
	if req.RateLimitBurst != nil && *req.RateLimitBurst <= 0 {
		return nil, apperr.Validationf("rate_limit_burst must be positive")
	}

	rawKey, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	key := &model.APIKey{
		KeyHash:            HashKey(rawKey),
		KeyPrefix:          KeyPrefix(rawKey),
		Name:               req.Name,
		Description:        req.Description,
		ExpiresAt:          req.ExpiresAt,
		IsActive:           true,
		AllowedIPs:         req.AllowedIPs,
		RateLimitPerSecond: req.RateLimitPerSecond,
		RateLimitBurst:     req.RateLimitBurst,
	}
	if err := s.store.CreateAPIKey(ctx, key); err != nil {
		return nil, err
	}

	return &model.CreatedAPIKey{APIKey: *key, PlainKey: rawKey}, nil
}

// Get returns a key's metadata by id.
func (s *APIKeyService) Get(ctx context.Context, id int64) (*model.APIKey, error) {
	return s.store.GetAPIKey(ctx, id)
}

// List returns all keys, newest first.
func (s *APIKeyService) List(ctx context.Context) ([]model.APIKey, error) {
	return s.store.ListAPIKeys(ctx)
}

// ListExpired returns keys that are past their expiry but still flagged
// active, for audit and cleanup.
func (s *APIKeyService) ListExpired(ctx context.Context) ([]model.APIKey, error) {
	return s.store.ListExpiredActiveAPIKeys(ctx)
}

// Rotate replaces a key's secret in place, keeping its id, limits and
// allow-list. The old secret stops working immediately.
func (s *APIKeyService) Rotate(ctx context.Context, id int64) (*model.CreatedAPIKey, error) {
	rawKey, err := GenerateKey()
	if err != nil {
		return nil, err
	}

	key, err := s.store.RotateAPIKey(ctx, id, HashKey(rawKey), KeyPrefix(rawKey))
	if err != nil {
		return nil, err
	}

	return &model.CreatedAPIKey{APIKey: *key, PlainKey: rawKey}, nil
}

// Revoke deactivates a key without deleting its record.
func (s *APIKeyService) Revoke(ctx context.Context, id int64) (*model.APIKey, error) {
	if err := s.store.RevokeAPIKey(ctx, id); err != nil {
		return nil, err
	}
	return s.store.GetAPIKey(ctx, id)
}

// Delete permanently removes a key and returns its final state.
func (s *APIKeyService) Delete(ctx context.Context, id int64) (*model.APIKey, error) {
	return s.store.DeleteAPIKey(ctx, id)
}
