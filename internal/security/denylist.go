package security

import (
	"context"
	"time"
)

// Denylist records revoked token identifiers until the token would have
// expired anyway.
type Denylist interface {
	Revoke(ctx context.Context, jti string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// StoreDenylist keeps revocations as flags in a CounterStore.
type StoreDenylist struct {
	store CounterStore
	now   func() time.Time
}

// NewDenylist creates a denylist backed by store.
func NewDenylist(store CounterStore) *StoreDenylist {
	return &StoreDenylist{store: store, now: time.Now}
}

func (d *StoreDenylist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	if jti == "" {
		return nil
	}
	ttl := expiresAt.Sub(d.now())
	if ttl <= 0 {
		return nil
	}
	return d.store.SetFlag(ctx, "token:revoked:"+jti, ttl)
}

func (d *StoreDenylist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	return d.store.HasFlag(ctx, "token:revoked:"+jti)
}
