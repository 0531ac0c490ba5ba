package store

import (
	"context"
	"time"

	"github.com/logvaultdb/logvault/internal/apperr"
	"github.com/logvaultdb/logvault/internal/model"
)

const apiKeyColumns = `id, key_hash, key_prefix, name, description, created_at,
	last_used_at, expires_at, is_active, usage_count, allowed_ips,
	rate_limit_per_second, rate_limit_burst`

// CreateAPIKey inserts a new API key record. The ID and CreatedAt fields on
// key are populated after a successful insert.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	key.CreatedAt = time.Now().UTC()

	q := s.rebind(`INSERT INTO api_keys
		(key_hash, key_prefix, name, description, created_at, expires_at,
		 is_active, allowed_ips, rate_limit_per_second, rate_limit_burst)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`)

	err := s.db.GetContext(ctx, &key.ID, q,
		key.KeyHash, key.KeyPrefix, key.Name, key.Description, key.CreatedAt,
		key.ExpiresAt, key.IsActive, key.AllowedIPs,
		key.RateLimitPerSecond, key.RateLimitBurst)
	if err != nil {
		if isUniqueViolation(err) {
			return apperr.Conflictf("an API key with this hash already exists")
		}
		return dbErr(err, "insert api key")
	}
	return nil
}

// GetAPIKey returns an API key by ID.
func (s *Store) GetAPIKey(ctx context.Context, id int64) (*model.APIKey, error) {
	var key model.APIKey
	q := s.rebind(`SELECT ` + apiKeyColumns + ` FROM api_keys WHERE id = ?`)
	if err := s.db.GetContext(ctx, &key, q, id); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundf("API key with id %d not found", id)
		}
		return nil, dbErr(err, "get api key")
	}
	return &key, nil
}

// GetValidAPIKeyByHash looks up a usable key by its SHA-256 hash. The
// validity predicate (active and not expired) is encoded in the query so a
// revoked or expired key is indistinguishable from an absent one.
func (s *Store) GetValidAPIKeyByHash(ctx context.Context, hash string) (*model.APIKey, error) {
	var key model.APIKey
	q := s.rebind(`SELECT ` + apiKeyColumns + ` FROM api_keys
		WHERE key_hash = ?
		  AND is_active = ?
		  AND (expires_at IS NULL OR expires_at > ?)`)
	if err := s.db.GetContext(ctx, &key, q, hash, true, time.Now().UTC()); err != nil {
		if isNoRows(err) {
			return nil, apperr.NotFoundf("valid API key not found")
		}
		return nil, dbErr(err, "get api key by hash")
	}
	return &key, nil
}

// ListAPIKeys returns all keys, newest first.
func (s *Store) ListAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	q := `SELECT ` + apiKeyColumns + ` FROM api_keys ORDER BY created_at DESC, id DESC`
	if err := s.db.SelectContext(ctx, &keys, q); err != nil {
		return nil, dbErr(err, "list api keys")
	}
	return keys, nil
}

// ListExpiredActiveAPIKeys returns keys that are still flagged active but
// whose expiry has passed. Used by the key audit CLI.
func (s *Store) ListExpiredActiveAPIKeys(ctx context.Context) ([]model.APIKey, error) {
	var keys []model.APIKey
	q := s.rebind(`SELECT ` + apiKeyColumns + ` FROM api_keys
		WHERE is_active = ? AND expires_at IS NOT NULL AND expires_at <= ?
		ORDER BY expires_at`)
	if err := s.db.SelectContext(ctx, &keys, q, true, time.Now().UTC()); err != nil {
		return nil, dbErr(err, "list expired api keys")
	}
	return keys, nil
}

// RotateAPIKey replaces the hash and prefix of an existing key, preserving
// its identity, name, and limits. Returns the updated record.
func (s *Store) RotateAPIKey(ctx context.Context, id int64, newHash, newPrefix string) (*model.APIKey, error) {
	q := s.rebind(`UPDATE api_keys SET key_hash = ?, key_prefix = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, q, newHash, newPrefix, id)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperr.Conflictf("rotated key hash collides with an existing key")
		}
		return nil, dbErr(err, "rotate api key")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, dbErr(err, "rotate api key rows affected")
	}
	if n == 0 {
		return nil, apperr.NotFoundf("API key with id %d not found", id)
	}
	return s.GetAPIKey(ctx, id)
}

// RevokeAPIKey marks a key inactive. Revocation is logical: the record
// remains for audit.
func (s *Store) RevokeAPIKey(ctx context.Context, id int64) error {
	q := s.rebind(`UPDATE api_keys SET is_active = ? WHERE id = ?`)
	result, err := s.db.ExecContext(ctx, q, false, id)
	if err != nil {
		return dbErr(err, "revoke api key")
	}
	n, err := result.RowsAffected()
	if err != nil {
		return dbErr(err, "revoke api key rows affected")
	}
	if n == 0 {
		return apperr.NotFoundf("API key with id %d not found", id)
	}
	return nil
}

// DeleteAPIKey removes a key record entirely and returns its final state.
func (s *Store) DeleteAPIKey(ctx context.Context, id int64) (*model.APIKey, error) {
	key, err := s.GetAPIKey(ctx, id)
	if err != nil {
		return nil, err
	}
	q := s.rebind(`DELETE FROM api_keys WHERE id = ?`)
	if _, err := s.db.ExecContext(ctx, q, id); err != nil {
		return nil, dbErr(err, "delete api key")
	}
	return key, nil
}

// UpdateAPIKeyUsage stamps last_used_at and increments the usage counter.
// Runs off the request path; failures are logged by the caller, never
// surfaced to the client.
func (s *Store) UpdateAPIKeyUsage(ctx context.Context, hash string) error {
	q := s.rebind(`UPDATE api_keys
		SET last_used_at = ?, usage_count = COALESCE(usage_count, 0) + 1
		WHERE key_hash = ?`)
	if _, err := s.db.ExecContext(ctx, q, time.Now().UTC(), hash); err != nil {
		return dbErr(err, "update api key usage")
	}
	return nil
}
