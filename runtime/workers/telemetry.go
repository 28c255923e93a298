package workers

import (
	"context"
	"journal-live/domain"
	"log/slog"
	"os"
	"time"

	"github.com/shirou/gopsutil/process"
)

// TelemetryWorker periodically logs the live registry size with the
// process CPU and memory usage.
type TelemetryWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
	stats          func() domain.LiveStats
	pushBacklog    func() int
}

func NewTelemetryWorker(log *slog.Logger, metricInterval time.Duration,
	stats func() domain.LiveStats, pushBacklog func() int) *TelemetryWorker {
	return &TelemetryWorker{
		log:            log,
		metricInterval: metricInterval,
		stats:          stats,
		pushBacklog:    pushBacklog,
	}
}

func (w *TelemetryWorker) Run(ctx context.Context) error {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}
	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping telemetry")
			return nil
		case <-ticker.C:
			w.report(p)
		}
	}
}

func (w *TelemetryWorker) report(p *process.Process) {
	stats := w.stats()
	attrs := []any{
		"rooms", stats.Rooms,
		"connections", stats.Connections,
		"online_users", stats.OnlineUsers,
		"push_backlog", w.pushBacklog(),
	}
	if cpu, err := p.CPUPercent(); err == nil {
		attrs = append(attrs, "cpu_percent", cpu)
	}
	if mem, err := p.MemoryInfo(); err == nil {
		attrs = append(attrs, "rss_bytes", mem.RSS)
	}
	w.log.Info("Live telemetry", attrs...)
}
