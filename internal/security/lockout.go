package security

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrLockedOut indicates too many failed login attempts.
var ErrLockedOut = errors.New("too many failed login attempts, try again later")

// LockoutPolicy configures login throttling.
type LockoutPolicy struct {
	MaxAttempts    int
	AccountLockout time.Duration
	AddressLockout time.Duration
	AttemptsWindow time.Duration
}

// DefaultLockoutPolicy allows five failures before locking the account for
// fifteen minutes and the client address for thirty.
func DefaultLockoutPolicy() LockoutPolicy {
	return LockoutPolicy{
		MaxAttempts:    5,
		AccountLockout: 15 * time.Minute,
		AddressLockout: 30 * time.Minute,
		AttemptsWindow: 30 * time.Minute,
	}
}

// Lockout tracks failed logins per account and per client address.
type Lockout struct {
	store  CounterStore
	policy LockoutPolicy
}

// NewLockout builds a tracker over store.
func NewLockout(store CounterStore, policy LockoutPolicy) *Lockout {
	defaults := DefaultLockoutPolicy()
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = defaults.MaxAttempts
	}
	if policy.AccountLockout <= 0 {
		policy.AccountLockout = defaults.AccountLockout
	}
	if policy.AddressLockout <= 0 {
		policy.AddressLockout = defaults.AddressLockout
	}
	if policy.AttemptsWindow <= 0 {
		policy.AttemptsWindow = defaults.AttemptsWindow
	}
	return &Lockout{store: store, policy: policy}
}

// CheckAddress fails with ErrLockedOut while ip is locked.
func (l *Lockout) CheckAddress(ctx context.Context, ip string) error {
	return l.check(ctx, addressLockKey(ip))
}

// CheckAccount fails with ErrLockedOut while the account is locked.
func (l *Lockout) CheckAccount(ctx context.Context, accountID uint) error {
	return l.check(ctx, accountLockKey(accountID))
}

func (l *Lockout) check(ctx context.Context, key string) error {
	locked, err := l.store.HasFlag(ctx, key)
	if err != nil {
		return err
	}
	if locked {
		return ErrLockedOut
	}
	return nil
}

// RecordFailure counts a failed attempt. accountID is zero when the
// registration number did not match any account. It returns ErrLockedOut
// when this failure crossed a threshold.
func (l *Lockout) RecordFailure(ctx context.Context, ip string, accountID uint) error {
	var locked bool

	if ip != "" {
		count, err := l.store.Increment(ctx, addressAttemptsKey(ip), l.policy.AttemptsWindow)
		if err != nil {
			return err
		}
		if count >= int64(l.policy.MaxAttempts) {
			if err := l.store.SetFlag(ctx, addressLockKey(ip), l.policy.AddressLockout); err != nil {
				return err
			}
			locked = true
		}
	}

	if accountID != 0 {
		count, err := l.store.Increment(ctx, accountAttemptsKey(accountID), l.policy.AttemptsWindow)
		if err != nil {
			return err
		}
		if count >= int64(l.policy.MaxAttempts) {
			if err := l.store.SetFlag(ctx, accountLockKey(accountID), l.policy.AccountLockout); err != nil {
				return err
			}
			locked = true
		}
	}

	if locked {
		return ErrLockedOut
	}
	return nil
}

// Reset clears counters after a successful login.
func (l *Lockout) Reset(ctx context.Context, ip string, accountID uint) error {
	keys := []string{accountAttemptsKey(accountID), accountLockKey(accountID)}
	if ip != "" {
		keys = append(keys, addressAttemptsKey(ip))
	}
	return l.store.Delete(ctx, keys...)
}

func addressAttemptsKey(ip string) string { return fmt.Sprintf("login:ip:%s:attempts", ip) }
func addressLockKey(ip string) string     { return fmt.Sprintf("login:ip:%s:locked", ip) }
func accountAttemptsKey(id uint) string   { return fmt.Sprintf("login:account:%d:attempts", id) }
func accountLockKey(id uint) string       { return fmt.Sprintf("login:account:%d:locked", id) }
