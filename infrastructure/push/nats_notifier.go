//go:generate go run go.uber.org/mock/mockgen -source=nats_notifier.go -destination=../../mocks/mock_nats_notifier.go -package=mocks
package push

import (
	"context"
	"encoding/json"
	"fmt"
	"journal-live/domain"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
)

// Publisher is the part of *nats.Conn the notifier needs.
type Publisher interface {
	Publish(subj string, data []byte) error
	FlushWithContext(ctx context.Context) error
}

type ConnectParams struct {
	URL                 string
	ConnectTimeout      time.Duration
	MaxReconnectAttempt int
	ReconnectWait       time.Duration
}

// Connect opens the NATS connection used by the push gateway bridge.
func Connect(log *slog.Logger, param ConnectParams) (*nats.Conn, error) {
	nc, err := nats.Connect(
		param.URL,
		nats.Name("journal-live"),
		nats.Timeout(param.ConnectTimeout),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(param.MaxReconnectAttempt),
		nats.ReconnectWait(param.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("NATS disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info("NATS reconnected", "url", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("NATS connection closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", param.URL, err)
	}
	return nc, nil
}

// notification is the message consumed by the push gateway.
type notification struct {
	UserID    domain.UserID    `json:"user_id"`
	JournalID domain.JournalID `json:"journal_id"`
	Kind      domain.PushKind  `json:"kind"`
	FromUser  domain.UserID    `json:"from_user,omitempty"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	SentAt    time.Time        `json:"sent_at"`
}

// NatsNotifier hands push notifications to the gateway over NATS, one subject
// per user: <subject>.<user id>.
type NatsNotifier struct {
	log       *slog.Logger
	publisher Publisher
	subject   string
}

func NewNatsNotifier(log *slog.Logger, publisher Publisher, subject string) *NatsNotifier {
	return &NatsNotifier{log: log, publisher: publisher, subject: subject}
}

// Send publishes the notification and waits for the server to acknowledge it
// within the context deadline.
func (n *NatsNotifier) Send(ctx context.Context, userID domain.UserID, summary domain.PushSummary) error {
	data, err := json.Marshal(notification{
		UserID:    userID,
		JournalID: summary.JournalID,
		Kind:      summary.Kind,
		FromUser:  summary.FromUser,
		Title:     summary.Title,
		Body:      summary.Body,
		SentAt:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}
	subject := n.subject + "." + userID.String()
	if err = n.publisher.Publish(subject, data); err != nil {
		return fmt.Errorf("publish on %s: %w", subject, err)
	}
	if err = n.publisher.FlushWithContext(ctx); err != nil {
		return fmt.Errorf("flush on %s: %w", subject, err)
	}
	n.log.Debug("Push handed to gateway", "user_id", userID, "journal_id", summary.JournalID, "subject", subject)
	return nil
}
