package queue

import (
	"context"
	"errors"
	"sync"
)

var errDriverClosed = errors.New("queue: driver closed")

// MemoryDriver is an in-process buffered queue. Jobs do not survive a restart.
type MemoryDriver struct {
	ch     chan []byte
	once   sync.Once
	closed chan struct{}
}

func NewMemoryDriver() *MemoryDriver {
	return &MemoryDriver{ch: make(chan []byte, 1024), closed: make(chan struct{})}
}

func (d *MemoryDriver) Push(ctx context.Context, payload []byte) error {
	select {
	case <-d.closed:
		return errDriverClosed
	case <-ctx.Done():
		return ctx.Err()
	case d.ch <- payload:
		return nil
	}
}

func (d *MemoryDriver) Pop(ctx context.Context) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.closed:
		return nil, errDriverClosed
	case payload := <-d.ch:
		return payload, nil
	}
}

// Len reports how many payloads are waiting.
func (d *MemoryDriver) Len() int { return len(d.ch) }

func (d *MemoryDriver) Close() error {
	d.once.Do(func() { close(d.closed) })
	return nil
}
