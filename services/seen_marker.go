// services/seen_marker.go - asynchronous mark-seen worker
package services

import (
	"context"
	"sync"
	"time"

	"codemaster/logger"

	"github.com/cenkalti/backoff/v5"
	"github.com/google/uuid"
)

// SeenStore acknowledges earned achievements.
type SeenStore interface {
	MarkSeen(ctx context.Context, userID uuid.UUID, ids ...uint) (int64, error)
}

type SeenMarkerConfig struct {
	QueueSize       int
	MaxTries        uint
	InitialInterval time.Duration
}

type seenJob struct {
	userID uuid.UUID
	ids    []uint
}

// SeenMarker acknowledges achievements off the request path. Enqueue never
// blocks: a full queue drops the job, and the client sees the toast again on
// its next poll. A single worker retries failed writes with exponential
// backoff.
type SeenMarker struct {
	store SeenStore
	cfg   SeenMarkerConfig
	log   *logger.Logger

	queue chan seenJob
	quit  chan struct{}
	wg    sync.WaitGroup

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
}

func NewSeenMarker(store SeenStore, cfg SeenMarkerConfig, log *logger.Logger) *SeenMarker {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 256
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = 5
	}
	if cfg.InitialInterval <= 0 {
		cfg.InitialInterval = 200 * time.Millisecond
	}
	return &SeenMarker{
		store: store,
		cfg:   cfg,
		log:   log.With("service", "SeenMarker"),
		queue: make(chan seenJob, cfg.QueueSize),
		quit:  make(chan struct{}),
	}
}

// Start launches the worker. Calling it twice is a no-op.
func (m *SeenMarker) Start(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running || m.stopped {
		return
	}
	ctx, m.cancel = context.WithCancel(ctx)
	m.running = true

	m.wg.Add(1)
	go m.run(ctx)
	m.log.Info("seen marker started", "queue_size", m.cfg.QueueSize)
}

// Stop refuses new jobs, lets the worker finish what is queued and waits for it.
func (m *SeenMarker) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return
	}
	m.stopped = true
	wasRunning := m.running
	m.running = false
	close(m.quit)
	m.mu.Unlock()

	if !wasRunning {
		return
	}
	m.wg.Wait()
	m.cancel()
	m.log.Info("seen marker stopped")
}

// Enqueue schedules ids (all unseen when empty) to be marked seen for userID.
// It reports whether the job was accepted.
func (m *SeenMarker) Enqueue(userID uuid.UUID, ids []uint) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return false
	}

	job := seenJob{userID: userID, ids: append([]uint(nil), ids...)}
	select {
	case m.queue <- job:
		return true
	default:
		m.log.Warn("seen queue full, dropping job", "user_id", userID, "ids", ids)
		return false
	}
}

// Pending reports how many jobs are waiting.
func (m *SeenMarker) Pending() int {
	return len(m.queue)
}

func (m *SeenMarker) run(ctx context.Context) {
	defer m.wg.Done()
	for {
		select {
		case job := <-m.queue:
			m.process(ctx, job)
		case <-m.quit:
			for {
				select {
				case job := <-m.queue:
					m.process(ctx, job)
				default:
					return
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (m *SeenMarker) process(ctx context.Context, job seenJob) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = m.cfg.InitialInterval

	n, err := backoff.Retry(ctx, func() (int64, error) {
		return m.store.MarkSeen(ctx, job.userID, job.ids...)
	},
		backoff.WithBackOff(b),
		backoff.WithMaxTries(m.cfg.MaxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			m.log.Debug("retrying mark seen", "user_id", job.userID, "error", err, "next", next)
		}),
	)
	if err != nil {
		m.log.Warn("mark seen failed", "user_id", job.userID, "ids", job.ids, "error", err)
		return
	}
	m.log.Debug("marked achievements seen", "user_id", job.userID, "rows", n)
}
