package push

import (
	"context"
	"journal-live/domain"
	"log/slog"
)

// LogNotifier stands in for the gateway when no NATS server is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Send(ctx context.Context, userID domain.UserID, summary domain.PushSummary) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.log.Info("Push notification",
		"user_id", userID,
		"journal_id", summary.JournalID,
		"kind", summary.Kind,
		"title", summary.Title)
	return nil
}
