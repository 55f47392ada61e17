// Package engine bridges the host's blocking, single-threaded calls into
// concurrent network work. It owns the process-wide worker context and the
// bounded-concurrency batch executor.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sqlite-ai/rembed/pkg/types"
)

// Defaults for the worker context.
const (
	DefaultMaxConcurrent  = 4
	DefaultRequestTimeout = 30 * time.Second
)

// Runtime is the worker context: a concurrency limiter shared by every
// provider call plus a fixed per-request deadline. The process-wide
// instance is created once on first use and lives until process exit.
type Runtime struct {
	sem           *semaphore.Weighted
	maxConcurrent int
	timeout       time.Duration
}

var (
	defaultMu      sync.Mutex
	defaultOnce    sync.Once
	defaultRuntime *Runtime

	configuredConcurrent = DefaultMaxConcurrent
	configuredTimeout    = DefaultRequestTimeout
)

// Configure sets the limits used when the default runtime is first built.
// It has no effect once Default has been called.
func Configure(maxConcurrent int, timeout time.Duration) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if maxConcurrent > 0 {
		configuredConcurrent = maxConcurrent
	}
	if timeout > 0 {
		configuredTimeout = timeout
	}
}

// Default returns the process-wide runtime, building it on first use.
func Default() *Runtime {
	defaultOnce.Do(func() {
		defaultMu.Lock()
		defer defaultMu.Unlock()
		defaultRuntime = NewRuntime(configuredConcurrent, configuredTimeout)
		slog.Debug("worker runtime initialized",
			"max_concurrent", configuredConcurrent,
			"request_timeout", configuredTimeout)
	})
	return defaultRuntime
}

// NewRuntime creates an independent runtime. Tests use this to avoid the
// process-wide singleton.
func NewRuntime(maxConcurrent int, timeout time.Duration) *Runtime {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Runtime{
		sem:           semaphore.NewWeighted(int64(maxConcurrent)),
		maxConcurrent: maxConcurrent,
		timeout:       timeout,
	}
}

// MaxConcurrent returns the concurrency bound.
func (r *Runtime) MaxConcurrent() int {
	return r.maxConcurrent
}

// Timeout returns the per-request deadline.
func (r *Runtime) Timeout() time.Duration {
	return r.timeout
}

// do runs one unit of work under a concurrency permit and the per-request
// deadline, blocking the caller until the unit completes or the deadline
// fires. The deadline must hold even when the work ignores ctx (net/rpc
// plugin calls cannot observe it), so a late completion leaks its goroutine
// rather than stalling the caller.
func (r *Runtime) do(ctx context.Context, work func(ctx context.Context) error) error {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	wctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		defer r.sem.Release(1)
		done <- work(wctx)
	}()

	select {
	case err := <-done:
		return r.mapErr(err)
	case <-wctx.Done():
		// The work may have finished in the same instant; prefer its result.
		select {
		case err := <-done:
			return r.mapErr(err)
		default:
		}
		return r.mapErr(wctx.Err())
	}
}

func (r *Runtime) mapErr(err error) error {
	if err != nil && errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", types.ErrTimeout, r.timeout)
	}
	return err
}
