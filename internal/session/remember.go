package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/estatehub/marketplace-access/internal/core/domain"
)

// RememberTokenKey is the storage key of the remember-me token.
const RememberTokenKey = "remember_token"

type storedToken struct {
	Token   string    `json:"token"`
	Expires time.Time `json:"expires"`
}

// SaveRememberToken persists t under RememberTokenKey.
func SaveRememberToken(ctx context.Context, store KVStore, t domain.RememberToken) error {
	raw, err := json.Marshal(storedToken{Token: t.Token, Expires: t.Expires})
	if err != nil {
		return fmt.Errorf("encode remember token: %w", err)
	}
	return store.Set(ctx, RememberTokenKey, string(raw))
}

// LoadRememberToken returns the stored token, or nil when there is none.
func LoadRememberToken(ctx context.Context, store KVStore) (*domain.RememberToken, error) {
	raw, ok, err := store.Get(ctx, RememberTokenKey)
	if err != nil {
		return nil, fmt.Errorf("read remember token: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var st storedToken
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, fmt.Errorf("decode remember token: %w", err)
	}
	return &domain.RememberToken{Token: st.Token, Expires: st.Expires}, nil
}

// ClearRememberToken removes the token and the fingerprint tied to it.
func ClearRememberToken(ctx context.Context, store KVStore) error {
	if err := store.Remove(ctx, RememberTokenKey); err != nil {
		return fmt.Errorf("remove remember token: %w", err)
	}
	if err := store.Remove(ctx, FingerprintKey); err != nil {
		return fmt.Errorf("remove fingerprint: %w", err)
	}
	return nil
}

// SweepRememberToken clears the remember data when the token has expired or
// can no longer be decoded. It reports whether anything was removed.
func SweepRememberToken(ctx context.Context, store KVStore, now time.Time) (bool, error) {
	raw, ok, err := store.Get(ctx, RememberTokenKey)
	if err != nil {
		return false, fmt.Errorf("read remember token: %w", err)
	}
	if !ok {
		return false, nil
	}

	var st storedToken
	if json.Unmarshal([]byte(raw), &st) == nil && now.Before(st.Expires) {
		return false, nil
	}

	if err := ClearRememberToken(ctx, store); err != nil {
		return false, err
	}
	return true, nil
}
