package errors

import (
	stderrors "errors"
	"fmt"
)

var (
	ErrWorkerPanic = fmt.Errorf("worker panic")

	// Connection-fatal.
	ErrAuthRejected = fmt.Errorf("authentication rejected")
	ErrTokenExpired = fmt.Errorf("token expired")
	ErrSlowConsumer = fmt.Errorf("slow consumer")

	// Event-level, the connection stays open.
	ErrForbidden     = fmt.Errorf("not a participant of this journal")
	ErrNotSubscribed = fmt.Errorf("not subscribed to this journal")
	ErrInvalidEvent  = fmt.Errorf("invalid event")

	ErrDeliveryBestEffort = fmt.Errorf("best-effort delivery failed")
	ErrSinkClosed         = fmt.Errorf("sink closed")
	ErrPairingNotFound    = fmt.Errorf("pairing not found")
	ErrInvalidPairing     = fmt.Errorf("pairing needs two distinct users")
	ErrTokenGeneration    = fmt.Errorf("token generation failed")
)

// Wire values of the "type" field of an error event.
const (
	TypeAuthRejected  = "auth_rejected"
	TypeTokenExpired  = "token_expired"
	TypeForbidden     = "forbidden"
	TypeNotSubscribed = "not_subscribed"
	TypeInvalidEvent  = "invalid_event"
	TypeSlowConsumer  = "slow_consumer"
	TypeInternal      = "internal"

	TypePairingNotFound = "pairing_not_found"
	TypeInvalidPairing  = "invalid_pairing"
)

// TypeOf maps an error to the type reported to the client.
func TypeOf(err error) string {
	switch {
	case stderrors.Is(err, ErrAuthRejected):
		return TypeAuthRejected
	case stderrors.Is(err, ErrTokenExpired):
		return TypeTokenExpired
	case stderrors.Is(err, ErrForbidden):
		return TypeForbidden
	case stderrors.Is(err, ErrNotSubscribed):
		return TypeNotSubscribed
	case stderrors.Is(err, ErrInvalidEvent):
		return TypeInvalidEvent
	case stderrors.Is(err, ErrSlowConsumer):
		return TypeSlowConsumer
	case stderrors.Is(err, ErrPairingNotFound):
		return TypePairingNotFound
	case stderrors.Is(err, ErrInvalidPairing):
		return TypeInvalidPairing
	default:
		return TypeInternal
	}
}

// IsConnectionFatal reports errors after which the socket must be closed.
func IsConnectionFatal(err error) bool {
	return stderrors.Is(err, ErrAuthRejected) ||
		stderrors.Is(err, ErrTokenExpired) ||
		stderrors.Is(err, ErrSlowConsumer)
}
