// Package guard provides a scoped, non-reentrant exclusion lock.
//
// A writer that enters the guard receives a derived context marking it as
// the holder. Any further Enter with that context (a collaborator calling
// back into the owner mid-operation) fails fast with ErrReentrant instead of
// deadlocking. Readers holding a marked context skip locking entirely, so a
// callback can still inspect committed state.
//
// A callback that drops the marked context and re-enters with an unrelated
// one (context.Background, say) cannot be told apart from an ordinary
// caller. It waits for the guard like any other, and only its own context
// bounds that wait.
package guard

import (
	"context"
	"errors"
	"sync"
)

// ErrReentrant is returned when Enter is called from inside the guard.
var ErrReentrant = errors.New("guard: reentrant call")

type holderKey struct{ g *Guard }

// Guard serializes writers and lets readers run concurrently between them.
// Waiting writers hold off new readers.
type Guard struct {
	// gate holds one token while a writer is inside or draining readers.
	gate chan struct{}

	mu      sync.Mutex
	readers int
	drained chan struct{}
}

// New returns an unlocked Guard.
func New() *Guard {
	return &Guard{gate: make(chan struct{}, 1)}
}

// Enter acquires the guard exclusively, waiting until ctx is done. The
// returned release func must be called exactly once; defer it immediately.
func (g *Guard) Enter(ctx context.Context) (context.Context, func(), error) {
	if g.Held(ctx) {
		return ctx, func() {}, ErrReentrant
	}
	if err := g.acquire(ctx); err != nil {
		return ctx, func() {}, err
	}
	if err := g.drain(ctx); err != nil {
		<-g.gate
		return ctx, func() {}, err
	}

	var once sync.Once
	release := func() { once.Do(func() { <-g.gate }) }

	return context.WithValue(ctx, holderKey{g}, true), release, nil
}

// Read acquires the guard for reading, waiting until ctx is done. Inside
// the guard it is a no-op.
func (g *Guard) Read(ctx context.Context) (func(), error) {
	if g.Held(ctx) {
		return func() {}, nil
	}
	if err := g.acquire(ctx); err != nil {
		return func() {}, err
	}
	g.mu.Lock()
	g.readers++
	g.mu.Unlock()
	<-g.gate

	var once sync.Once
	return func() { once.Do(g.leave) }, nil
}

// Held reports whether ctx was derived from a context that entered g.
func (g *Guard) Held(ctx context.Context) bool {
	held, _ := ctx.Value(holderKey{g}).(bool)
	return held
}

func (g *Guard) acquire(ctx context.Context) error {
	select {
	case g.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// drain waits for readers that got in before the gate closed.
func (g *Guard) drain(ctx context.Context) error {
	g.mu.Lock()
	if g.readers == 0 {
		g.mu.Unlock()
		return nil
	}
	done := make(chan struct{})
	g.drained = done
	g.mu.Unlock()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		g.mu.Lock()
		if g.drained == done {
			g.drained = nil
		}
		g.mu.Unlock()
		return ctx.Err()
	}
}

func (g *Guard) leave() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.readers--
	if g.readers == 0 && g.drained != nil {
		close(g.drained)
		g.drained = nil
	}
}
