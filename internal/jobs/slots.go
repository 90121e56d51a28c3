package jobs

import "context"

// Slots bounds the number of simultaneously processing jobs. It is a
// counting semaphore backed by a buffered channel, so waiting workers block
// without polling and queue order is preserved under contention.
type Slots struct {
	ch chan struct{}
}

// NewSlots builds a semaphore with the given capacity.
func NewSlots(cap int) *Slots {
	if cap <= 0 {
		cap = 2
	}
	return &Slots{ch: make(chan struct{}, cap)}
}

// Acquire blocks until a slot is free or the context is cancelled.
func (s *Slots) Acquire(ctx context.Context) error {
	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a previously acquired slot.
func (s *Slots) Release() {
	<-s.ch
}

// Active reports the number of held slots.
func (s *Slots) Active() int {
	return len(s.ch)
}

// Cap reports the configured concurrency cap.
func (s *Slots) Cap() int {
	return cap(s.ch)
}
