package services

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// TaskGroup runs fire-and-forget work detached from the request that started
// it, and lets shutdown wait for whatever is still in flight.
type TaskGroup struct {
	wg      sync.WaitGroup
	log     *zap.Logger
	metrics *Metrics
}

func NewTaskGroup(log *zap.Logger, metrics *Metrics) *TaskGroup {
	if log == nil {
		log = zap.NewNop()
	}
	return &TaskGroup{log: log, metrics: metrics}
}

// Go runs fn in its own goroutine with a context that is never cancelled by
// the caller. A panic in fn is logged, not propagated.
func (g *TaskGroup) Go(name string, fn func(ctx context.Context)) {
	g.wg.Add(1)
	g.metrics.taskStarted()
	go func() {
		defer g.wg.Done()
		defer g.metrics.taskDone()
		defer func() {
			if r := recover(); r != nil {
				g.log.Error("background task panicked", zap.String("task", name), zap.Any("panic", r))
			}
		}()
		fn(context.Background())
	}()
}

// Wait blocks until all tasks finish or ctx is done.
func (g *TaskGroup) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		g.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// keyedMutex serializes work per key.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*keyedEntry)}
}

// Lock acquires the lock for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		k.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
