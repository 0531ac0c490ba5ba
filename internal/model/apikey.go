package model

import (
	"net/netip"
	"time"
)

// Rate-limit defaults applied when a key carries no explicit configuration.
// A key that sets a rate but no burst gets twice its rate as the burst
// ceiling; a key that sets neither gets DefaultRatePerSecond/DefaultBurst.
const (
	DefaultRatePerSecond = 10
	DefaultBurst         = 20
)

// APIKey represents an issued API key. The raw key is never stored; only a
// SHA-256 hash and a short display prefix are persisted.
type APIKey struct {
	ID                 int64      `json:"id" db:"id"`
	KeyHash            string     `json:"-" db:"key_hash"` // never expose
	KeyPrefix          string     `json:"key_prefix" db:"key_prefix"`
	Name               string     `json:"name" db:"name"`
	Description        *string    `json:"description,omitempty" db:"description"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	LastUsedAt         *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	IsActive           bool       `json:"is_active" db:"is_active"`
	UsageCount         *int64     `json:"usage_count,omitempty" db:"usage_count"`
	AllowedIPs         CIDRList   `json:"allowed_ips,omitempty" db:"allowed_ips"`
	RateLimitPerSecond *int       `json:"rate_limit_per_second,omitempty" db:"rate_limit_per_second"`
	RateLimitBurst     *int       `json:"rate_limit_burst,omitempty" db:"rate_limit_burst"`
}

// IsExpired reports whether the key's validity window has passed.
func (k *APIKey) IsExpired() bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(time.Now())
}

// IsIPAllowed reports whether addr falls within the key's allow-list.
// An absent or empty allow-list admits any address. Address families are
// matched strictly: an IPv4 address never matches an IPv6 network and
// vice versa.
func (k *APIKey) IsIPAllowed(addr netip.Addr) bool {
	if len(k.AllowedIPs) == 0 {
		return true
	}
	for _, cidr := range k.AllowedIPs {
		prefix, err := netip.ParsePrefix(cidr)
		if err != nil {
			continue
		}
		if prefix.Addr().Is4() != addr.Is4() {
			continue
		}
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// EffectiveLimits resolves the key's rate-limit configuration against the
// defaults. Burst is the enforced per-window ceiling; rate is reported in
// response headers.
func (k *APIKey) EffectiveLimits() (rate, burst int) {
	rate = DefaultRatePerSecond
	if k.RateLimitPerSecond != nil && *k.RateLimitPerSecond > 0 {
		rate = *k.RateLimitPerSecond
	}
	switch {
	case k.RateLimitBurst != nil && *k.RateLimitBurst > 0:
		burst = *k.RateLimitBurst
	case k.RateLimitPerSecond != nil && *k.RateLimitPerSecond > 0:
		burst = 2 * rate
	default:
		burst = DefaultBurst
	}
	return rate, burst
}

// CreateAPIKey carries the caller-supplied attributes for key issuance.
type CreateAPIKey struct {
	Name               string     `json:"name"`
	Description        *string    `json:"description,omitempty"`
	ExpiresAt          *time.Time `json:"expires_at,omitempty"`
	AllowedIPs         CIDRList   `json:"allowed_ips,omitempty"`
	RateLimitPerSecond *int       `json:"rate_limit_per_second,omitempty"`
	RateLimitBurst     *int       `json:"rate_limit_burst,omitempty"`
}

// CreatedAPIKey is the one-time issuance response carrying the plaintext.
// The plaintext cannot be recovered afterwards.
type CreatedAPIKey struct {
	APIKey
	PlainKey string `json:"plain_key"`
}
