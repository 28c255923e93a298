package runtime

import (
	"context"
	"fmt"
	"journal-live/contract"
	"journal-live/domain"
	"journal-live/errors"
	"log/slog"
	"time"
)

// TokenMonitor checks a connection's credential on every inbound event.
// It is a point-in-time comparison, no timer is armed.
type TokenMonitor struct {
	log       *slog.Logger
	tokens    contract.ITokenService
	threshold time.Duration
	timeout   time.Duration
	now       func() time.Time
}

func NewTokenMonitor(log *slog.Logger, tokens contract.ITokenService, threshold, timeout time.Duration) *TokenMonitor {
	return &TokenMonitor{log: log, tokens: tokens, threshold: threshold, timeout: timeout, now: time.Now}
}

// WithClock replaces the time source, used by tests.
func (m *TokenMonitor) WithClock(now func() time.Time) *TokenMonitor {
	m.now = now
	return m
}

// Check returns ErrTokenExpired once the credential is past its expiry, and a
// refreshed credential when the remaining validity falls under the threshold.
// A failed refresh keeps the current, still valid, credential.
func (m *TokenMonitor) Check(ctx context.Context, conn *Connection) (*domain.Credential, error) {
	now := m.now()
	current := conn.Credential()
	if current.Expired(now) {
		return nil, fmt.Errorf("%w: expired at %s", errors.ErrTokenExpired, current.ExpiresAt.UTC().Format(time.RFC3339))
	}
	if current.Remaining(now) >= m.threshold {
		return nil, nil
	}

	refreshCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()
	fresh, err := m.tokens.Refresh(refreshCtx, conn.UserID())
	if err != nil {
		m.log.Warn("Token refresh failed", "user_id", conn.UserID(), "conn_id", conn.ID(), "error", err)
		return nil, nil
	}
	if fresh.UserID != conn.UserID() || !fresh.ExpiresAt.After(current.ExpiresAt) {
		m.log.Error("Refreshed token rejected", "user_id", conn.UserID(), "refreshed_user_id", fresh.UserID)
		return nil, nil
	}
	conn.setCredential(fresh)
	m.log.Debug("Token refreshed", "user_id", conn.UserID(), "expires_at", fresh.ExpiresAt)
	return &fresh, nil
}
