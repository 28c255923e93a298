package workers

import (
	"context"
	"journal-live/contract"
	"journal-live/domain"
	"journal-live/errors"
	"log/slog"
	"time"
)

// PushWorker is one unit of the offline notification pool. Several workers
// share the same job channel; a failed push is logged and dropped.
type PushWorker struct {
	log      *slog.Logger
	notifier contract.IPushNotifier
	jobs     <-chan domain.PushJob
	timeout  time.Duration
}

func NewPushWorker(log *slog.Logger, notifier contract.IPushNotifier, jobs <-chan domain.PushJob, timeout time.Duration) *PushWorker {
	return &PushWorker{log: log, notifier: notifier, jobs: jobs, timeout: timeout}
}

func (w *PushWorker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Stopping push worker")
			return nil
		case job, ok := <-w.jobs:
			if !ok {
				return nil
			}
			w.send(ctx, job)
		}
	}
}

func (w *PushWorker) send(ctx context.Context, job domain.PushJob) {
	sendCtx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.notifier.Send(sendCtx, job.UserID, job.Summary); err != nil {
		w.log.Warn("Push notification dropped",
			"user_id", job.UserID,
			"journal_id", job.JournalID,
			"error", errors.ErrDeliveryBestEffort,
			"cause", err)
		return
	}
	w.log.Debug("Push notification sent", "user_id", job.UserID, "journal_id", job.JournalID, "kind", job.Summary.Kind)
}
