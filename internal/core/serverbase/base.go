// SPDX-License-Identifier: MPL-2.0

package serverbase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Base is the lifecycle embedded by long-running servers. It is single-use:
// once stopped or failed, create a new instance.
type Base struct {
	state atomic.Int32

	mu      sync.Mutex
	lastErr error

	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	startedCh chan struct{}
	errCh     chan error

	sessions      atomic.Int64
	totalSessions atomic.Uint64
}

// NewBase creates a Base in the Created state.
func NewBase() *Base {
	b := &Base{
		startedCh: make(chan struct{}),
		errCh:     make(chan error, 1),
	}
	b.state.Store(int32(StateCreated))
	return b
}

// State returns the current state without locking.
func (b *Base) State() State {
	return State(b.state.Load())
}

// IsRunning returns true if the server is in the Running state.
func (b *Base) IsRunning() bool {
	return b.State() == StateRunning
}

// Err returns a channel for asynchronous fatal errors. It is closed by
// CloseErr once the server has fully stopped.
func (b *Base) Err() <-chan error {
	return b.errCh
}

// LastError returns the error that caused the Failed state, or nil.
func (b *Base) LastError() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

// Ready is closed when the server reaches Running.
func (b *Base) Ready() <-chan struct{} {
	return b.startedCh
}

// Context is cancelled when the server stops or fails. It is nil before
// Starting succeeds.
func (b *Base) Context() context.Context {
	return b.ctx
}

// Starting moves Created to Starting. A cancelled ctx fails the server
// before any transition so a later Running cannot race the cancellation.
func (b *Base) Starting(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		b.Fail(fmt.Errorf("context cancelled before start: %w", err))
		return b.LastError()
	}

	if !b.state.CompareAndSwap(int32(StateCreated), int32(StateStarting)) {
		return &TransitionError{From: b.State(), To: StateStarting}
	}

	b.ctx, b.cancel = context.WithCancel(context.Background())
	return nil
}

// Running moves Starting to Running and releases Ready waiters.
func (b *Base) Running() {
	if b.state.CompareAndSwap(int32(StateStarting), int32(StateRunning)) {
		close(b.startedCh)
	}
}

// Fail records err, enters Failed and cancels the server context.
func (b *Base) Fail(err error) {
	b.mu.Lock()
	b.lastErr = err
	b.mu.Unlock()

	b.state.Store(int32(StateFailed))
	if b.cancel != nil {
		b.cancel()
	}
	b.SendError(err)
}

// Stopping moves Starting or Running to Stopping and cancels the server
// context. It returns false when there is nothing to shut down: the server
// never started, already stopped or failed, or another caller is stopping it.
func (b *Base) Stopping() bool {
	for {
		current := b.State()
		switch current {
		case StateCreated:
			if b.state.CompareAndSwap(int32(StateCreated), int32(StateStopped)) {
				return false
			}
		case StateStarting, StateRunning:
			if b.state.CompareAndSwap(int32(current), int32(StateStopping)) {
				if b.cancel != nil {
					b.cancel()
				}
				return true
			}
		default:
			return false
		}
	}
}

// Stopped marks shutdown complete. Call after Wait.
func (b *Base) Stopped() {
	b.state.Store(int32(StateStopped))
}

// Go runs fn in a goroutine that Wait will wait for.
func (b *Base) Go(fn func()) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		fn()
	}()
}

// Wait blocks until every goroutine started with Go has returned.
func (b *Base) Wait() {
	b.wg.Wait()
}

// WaitForReady blocks until Running or until ctx is done.
func (b *Base) WaitForReady(ctx context.Context) error {
	select {
	case <-b.startedCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for server ready: %w", ctx.Err())
	}
}

// SendError publishes err without blocking; it is dropped if the channel
// is full.
func (b *Base) SendError(err error) {
	select {
	case b.errCh <- err:
	default:
	}
}

// CloseErr closes the error channel. Call once, after Stopped.
func (b *Base) CloseErr() {
	close(b.errCh)
}

// SessionStarted counts a client session. Pair with the returned func.
func (b *Base) SessionStarted() (done func()) {
	b.sessions.Add(1)
	b.totalSessions.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { b.sessions.Add(-1) })
	}
}

// ActiveSessions returns the number of sessions currently open.
func (b *Base) ActiveSessions() int64 {
	return b.sessions.Load()
}

// TotalSessions returns the number of sessions ever started.
func (b *Base) TotalSessions() uint64 {
	return b.totalSessions.Load()
}
