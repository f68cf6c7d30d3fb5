package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lapeslabs/foodhub/internal/domain/user"
	"github.com/lapeslabs/foodhub/internal/jobs"
	"github.com/lapeslabs/foodhub/internal/notifications"
	"github.com/lapeslabs/foodhub/internal/observability"
)

type Queue interface {
	Enqueue(ctx context.Context, j jobs.Job) error
	Dequeue(ctx context.Context, timeout time.Duration) (jobs.Job, bool, error)
	Ping(ctx context.Context) error
}

type UserFetcher interface {
	GetByID(ctx context.Context, id string) (user.User, error)
}

type Config struct {
	WorkerID       string
	Concurrency    int
	DequeueTimeout time.Duration
	ShutdownGrace  time.Duration
}

type Worker struct {
	cfg      Config
	queue    Queue
	users    UserFetcher
	notifier notifications.Notifier
	prom     *observability.Prom
	log      *slog.Logger

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, queue Queue, users UserFetcher, notifier notifications.Notifier, prom *observability.Prom, log *slog.Logger) *Worker {
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	if cfg.DequeueTimeout <= 0 {
		cfg.DequeueTimeout = 1 * time.Second
	}
	if cfg.ShutdownGrace <= 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &Worker{
		cfg:      cfg,
		queue:    queue,
		users:    users,
		notifier: notifier,
		prom:     prom,
		log:      log,
	}
}

// Run pulls jobs until the context ends. Each goroutine loops on a blocking
// dequeue, so there is no polling interval to tune.
func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	var wg sync.WaitGroup

	for i := 0; i < w.cfg.Concurrency; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()
			w.loop(ctx)
		}()
	}

	<-ctx.Done()
	w.setReady(false)
	w.log.Info("worker shutting down", "worker_id", w.cfg.WorkerID)

	done := make(chan struct{})

	go func() {
		defer close(done)
		wg.Wait()
	}()

	select {
	case <-done:
	case <-time.After(w.cfg.ShutdownGrace):
		w.log.Error("worker shutdown grace expired")
	}

	return nil
}

func (w *Worker) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		processed, err := w.ProcessOne(ctx)

		if err != nil {
			if ctx.Err() != nil {
				return
			}

			w.log.Error("dequeue failed", "err", err)

			// back off before hammering a broken broker
			select {
			case <-time.After(2 * time.Second):
			case <-ctx.Done():
				return
			}

			continue
		}

		_ = processed
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}
