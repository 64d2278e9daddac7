// Package queue moves work off the request path. Jobs are JSON encoded into
// an envelope, pushed to a Driver and consumed by Manager.Work.
//
//	m := queue.New(queue.NewMemoryDriver())
//	m.Register("order.placed", func() queue.Job { return &OrderPlacedJob{} })
//	_ = m.Dispatch(ctx, &OrderPlacedJob{OrderID: 7})
//	go m.Work(ctx)
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/cherrydine/cherrydine/config"
	"github.com/cherrydine/cherrydine/pkg/logger"
	"github.com/cherrydine/cherrydine/pkg/metrics"
	"github.com/cherrydine/cherrydine/pkg/workerpool"
)

// ErrUnknownJob is returned when an envelope names a job type nobody registered.
var ErrUnknownJob = errors.New("queue: unknown job type")

type Job interface {
	Handle(ctx context.Context) error
}

// Named lets a job choose its registry key. Jobs without it are keyed by
// their Go type name.
type Named interface {
	JobName() string
}

// Driver is a queue backend. Pop blocks until a payload is available or ctx
// is done; it may return (nil, nil) on an idle timeout.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	Pop(ctx context.Context) ([]byte, error)
	Close() error
}

type envelope struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queued_at"`
}

type Manager struct {
	mu          sync.RWMutex
	driver      Driver
	registry    map[string]func() Job
	workers     int
	maxAttempts int
	backoff     time.Duration
	failed      *gorm.DB
}

type Option func(*Manager)

func WithWorkers(n int) Option { return func(m *Manager) { m.workers = n } }

// WithMaxAttempts sets how many times a job runs before it is recorded as failed.
func WithMaxAttempts(n int) Option { return func(m *Manager) { m.maxAttempts = n } }

func WithBackoff(d time.Duration) Option { return func(m *Manager) { m.backoff = d } }

// WithFailedStore persists exhausted jobs to the failed_jobs table.
func WithFailedStore(db *gorm.DB) Option { return func(m *Manager) { m.failed = db } }

func New(driver Driver, opts ...Option) *Manager {
	m := &Manager{
		driver:      driver,
		registry:    map[string]func() Job{},
		workers:     config.QueueWorkers(),
		maxAttempts: config.QueueMaxAttempts(),
		backoff:     time.Second,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.workers < 1 {
		m.workers = 1
	}
	if m.maxAttempts < 1 {
		m.maxAttempts = 1
	}
	return m
}

// Connect builds the driver selected by QUEUE_DRIVER.
func Connect() (Driver, error) {
	switch driver := config.QueueDriver(); driver {
	case "memory", "":
		return NewMemoryDriver(), nil
	case "redis":
		return NewRedisDriver(config.RedisAddr(), config.RedisPassword(), config.QueueName())
	case "amqp", "rabbitmq":
		return NewAMQPDriver(config.AMQPURL(), config.QueueName())
	default:
		return nil, fmt.Errorf("queue: unsupported driver %q", driver)
	}
}

// Register makes a job type decodable by name. Call it at boot for every job.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registry[name] = factory
}

func NameOf(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

// Dispatch encodes job and pushes it to the driver.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	name := NameOf(job)

	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue: marshal %s: %w", name, err)
	}
	raw, err := json.Marshal(envelope{Type: name, Payload: payload, QueuedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("queue: marshal envelope: %w", err)
	}

	if err := m.driver.Push(ctx, raw); err != nil {
		return fmt.Errorf("queue: push %s: %w", name, err)
	}
	logger.WithCtx(ctx).Debug("queue: dispatched", "type", name)
	return nil
}

// Work consumes jobs until ctx is cancelled, then waits for the jobs already
// handed to the pool.
func (m *Manager) Work(ctx context.Context) {
	pool := workerpool.New(m.workers)
	defer pool.Shutdown()

	logger.Info("queue: worker started", "workers", m.workers, "max_attempts", m.maxAttempts)
	for {
		raw, err := m.driver.Pop(ctx)
		if ctx.Err() != nil {
			logger.Info("queue: worker stopping")
			return
		}
		if err != nil {
			logger.Warn("queue: pop failed", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(500 * time.Millisecond):
			}
			continue
		}
		if raw == nil {
			continue
		}

		jobCtx := context.WithoutCancel(ctx)
		if err := pool.Submit(func() { _ = m.Process(jobCtx, raw) }); err != nil {
			logger.Error("queue: could not schedule job", "error", err)
		}
	}
}

// Process decodes one envelope and runs it with retries. Exposed so tests and
// the sync path can run a payload without a worker loop.
func (m *Manager) Process(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		logger.Error("queue: bad envelope", "error", err)
		return fmt.Errorf("queue: decode envelope: %w", err)
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		logger.Warn("queue: unregistered job type", "type", env.Type)
		m.recordFailure(ctx, env.Type, env.Payload, ErrUnknownJob, 0)
		return fmt.Errorf("%w: %s", ErrUnknownJob, env.Type)
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		m.recordFailure(ctx, env.Type, env.Payload, err, 0)
		return fmt.Errorf("queue: decode %s: %w", env.Type, err)
	}

	log := logger.WithCtx(ctx).With("type", env.Type)
	var lastErr error
	attempts := 0
	for attempts < m.maxAttempts {
		attempts++
		start := time.Now()
		lastErr = job.Handle(ctx)
		if lastErr == nil {
			metrics.RecordQueueJob(env.Type, "processed", start)
			log.Info("queue: job processed", "attempt", attempts)
			return nil
		}
		metrics.RecordQueueJob(env.Type, "error", start)
		log.Warn("queue: job attempt failed", "attempt", attempts, "error", lastErr)

		if attempts < m.maxAttempts && !sleep(ctx, time.Duration(attempts)*m.backoff) {
			break
		}
	}

	m.recordFailure(ctx, env.Type, env.Payload, lastErr, attempts)
	log.Error("queue: job failed", "attempts", attempts, "error", lastErr)
	return lastErr
}

// sleep reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// Close releases the driver.
func (m *Manager) Close() error { return m.driver.Close() }
