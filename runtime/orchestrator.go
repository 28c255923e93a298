package runtime

import (
	"context"
	"journal-live/contract"
	"journal-live/domain"
	"journal-live/runtime/workers"
	"log/slog"
	"sync"
	"time"
)

type OrchestratorConfig struct {
	PushWorkers    int
	PushQueueSize  int
	PushTimeout    time.Duration
	MetricInterval time.Duration
}

// Orchestrator owns the live components and the supervised background pools.
// Connections and broadcasts run on their callers' goroutines; offline
// notifications and telemetry run under the supervisor.
type Orchestrator struct {
	mu         sync.Mutex
	log        *slog.Logger
	config     OrchestratorConfig
	supervisor contract.ISupervisor
	registry   *Registry
	dispatcher *Dispatcher
	notifier   contract.IPushNotifier
	pushJobs   chan domain.PushJob
	cancel     context.CancelFunc
	done       chan struct{}
}

func NewOrchestrator(log *slog.Logger, supervisor contract.ISupervisor, registry *Registry,
	monitor *TokenMonitor, notifier contract.IPushNotifier, config OrchestratorConfig) *Orchestrator {
	if config.PushWorkers <= 0 {
		config.PushWorkers = 1
	}
	pushJobs := make(chan domain.PushJob, config.PushQueueSize)
	bridge := NewOfflineBridge(log, pushJobs)
	return &Orchestrator{
		log:        log,
		config:     config,
		supervisor: supervisor,
		registry:   registry,
		dispatcher: NewDispatcher(log, registry, monitor, bridge),
		notifier:   notifier,
		pushJobs:   pushJobs,
	}
}

func (o *Orchestrator) Registry() *Registry { return o.registry }

func (o *Orchestrator) Dispatcher() *Dispatcher { return o.dispatcher }

// Start registers the background workers and runs the supervisor in its own
// goroutine. It returns immediately.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for i := 0; i < o.config.PushWorkers; i++ {
		o.supervisor.Add(workers.NewPushWorker(o.log, o.notifier, o.pushJobs, o.config.PushTimeout))
	}
	if o.config.MetricInterval > 0 {
		o.supervisor.Add(workers.NewTelemetryWorker(o.log, o.config.MetricInterval,
			o.registry.Stats, func() int { return len(o.pushJobs) }))
	}

	ctx, o.cancel = context.WithCancel(ctx)
	o.done = make(chan struct{})
	o.log.Info("Starting orchestrator and all supervised workers", "push_workers", o.config.PushWorkers)
	go func(done chan struct{}) {
		defer close(done)
		o.supervisor.Run(ctx)
	}(o.done)
	return nil
}

// Stop cancels the supervised workers and waits for them to return.
func (o *Orchestrator) Stop() {
	o.log.Info("Requesting orchestrator shutdown")
	o.supervisor.Stop()
	o.mu.Lock()
	done := o.done
	if o.cancel != nil {
		o.cancel()
	}
	o.mu.Unlock()
	if done != nil {
		<-done
	}
	o.registry.Close()
	o.log.Debug("Orchestrator stopped")
}
