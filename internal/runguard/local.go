package runguard

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// LocalGuard serializes runs inside one process.
type LocalGuard struct {
	mu    sync.Mutex
	locks map[string]*semaphore.Weighted
}

// NewLocalGuard creates an in-process guard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{locks: make(map[string]*semaphore.Weighted)}
}

func (g *LocalGuard) lock(key string) *semaphore.Weighted {
	g.mu.Lock()
	defer g.mu.Unlock()
	sem, ok := g.locks[key]
	if !ok {
		sem = semaphore.NewWeighted(1)
		g.locks[key] = sem
	}
	return sem
}

func (g *LocalGuard) TryAcquire(ctx context.Context, key string) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sem := g.lock(key)
	if !sem.TryAcquire(1) {
		return nil, ErrHeld
	}
	var once sync.Once
	return func() { once.Do(func() { sem.Release(1) }) }, nil
}

func (g *LocalGuard) Held(ctx context.Context, key string) (bool, error) {
	sem := g.lock(key)
	if !sem.TryAcquire(1) {
		return true, nil
	}
	sem.Release(1)
	return false, nil
}
