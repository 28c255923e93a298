package domain

import "time"

// Credential is a short-lived signed token resolved by the token service.
type Credential struct {
	Token     string
	UserID    UserID
	ExpiresAt time.Time
}

func (c Credential) Remaining(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

func (c Credential) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
