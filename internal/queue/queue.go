// Package queue provides the FIFO conversion queue consumed by the worker
// pool. The default backend is an in-process channel; a Redis list backend
// allows the API and workers to run as separate processes.
package queue

import (
	"context"
	"errors"

	"reelforge/internal/models"
)

// ErrQueueFull is returned by Enqueue when the queue has no free capacity.
var ErrQueueFull = errors.New("queue full")

// Queue is a FIFO of pending conversion units. Dequeue blocks until an item
// is available or the context is cancelled.
type Queue interface {
	Enqueue(ctx context.Context, item models.QueueItem) error
	Dequeue(ctx context.Context) (models.QueueItem, error)
	Depth(ctx context.Context) (int, error)
}

// Memory is a bounded in-process FIFO backed by a buffered channel. Workers
// block on the channel instead of polling, so arrival order is preserved.
type Memory struct {
	items chan models.QueueItem
}

// NewMemory builds a memory queue with the given capacity.
func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = 256
	}
	return &Memory{items: make(chan models.QueueItem, capacity)}
}

// Enqueue appends an item, failing fast when the queue is saturated.
func (m *Memory) Enqueue(_ context.Context, item models.QueueItem) error {
	select {
	case m.items <- item:
		return nil
	default:
		return ErrQueueFull
	}
}

// Dequeue removes the oldest item, blocking until one arrives.
func (m *Memory) Dequeue(ctx context.Context) (models.QueueItem, error) {
	select {
	case item := <-m.items:
		return item, nil
	case <-ctx.Done():
		return models.QueueItem{}, ctx.Err()
	}
}

// Depth reports the number of queued items.
func (m *Memory) Depth(_ context.Context) (int, error) {
	return len(m.items), nil
}
