package runtime

import (
	"journal-live/domain"
	"journal-live/errors"
	"log/slog"
)

// OfflineBridge routes updates for absent participants to the push pool.
// NotifyOffline never blocks the broadcaster: a full queue drops the job.
type OfflineBridge struct {
	log  *slog.Logger
	jobs chan<- domain.PushJob
}

func NewOfflineBridge(log *slog.Logger, jobs chan<- domain.PushJob) *OfflineBridge {
	return &OfflineBridge{log: log, jobs: jobs}
}

func (b *OfflineBridge) NotifyOffline(userID domain.UserID, journalID domain.JournalID, summary domain.PushSummary) {
	summary.JournalID = journalID
	job := domain.PushJob{UserID: userID, JournalID: journalID, Summary: summary}
	select {
	case b.jobs <- job:
	default:
		b.log.Warn("Push queue full, dropping notification",
			"user_id", userID, "journal_id", journalID, "error", errors.ErrDeliveryBestEffort)
	}
}
