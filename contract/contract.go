//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"journal-live/domain"
	"journal-live/domain/event"
	"reflect"
)

type ISupervisor interface {
	Add(worker ...Worker) ISupervisor
	Run(ctx context.Context)
	Start(ctx context.Context, worker Worker)
	Stop()
}

type WorkerName string

// Worker doesn't protect itself
// Can be silly, focused
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes during worker initialization
// or lifecycle events, avoiding the need for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}

// EventSink is the outbound side of one live connection.
// Deliver must not block: it enqueues and returns.
// Close asks the transport to flush pending frames and close the socket.
type EventSink interface {
	Deliver(e event.Outbound) error
	Close(reason error)
}

// ITokenService is the authentication collaborator.
type ITokenService interface {
	Validate(ctx context.Context, token string) (domain.Credential, error)
	Refresh(ctx context.Context, userID domain.UserID) (domain.Credential, error)
}

// IPairingService resolves which two users may join a journal.
type IPairingService interface {
	ParticipantsOf(ctx context.Context, journalID domain.JournalID) (domain.Participants, error)
}

// IPushNotifier delivers a best-effort push notification.
type IPushNotifier interface {
	Send(ctx context.Context, userID domain.UserID, summary domain.PushSummary) error
}

// IOfflineBridge hands updates for absent participants to push delivery.
type IOfflineBridge interface {
	NotifyOffline(userID domain.UserID, journalID domain.JournalID, summary domain.PushSummary)
}
