// Package worker runs blocking calls off the caller's goroutine and tracks
// which actions are in flight.
package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrBusy is returned when an action is already running.
var ErrBusy = errors.New("action already in progress")

// Result is the single outcome of a call started with Go.
type Result[T any] struct {
	Value T
	Err   error
}

// Go runs fn on its own goroutine. The returned channel receives exactly one
// Result and is then closed. A panic in fn is reported as an error.
func Go[T any](ctx context.Context, fn func(context.Context) (T, error)) <-chan Result[T] {
	ch := make(chan Result[T], 1)
	go func() {
		defer close(ch)
		var res Result[T]
		defer func() {
			if r := recover(); r != nil {
				res = Result[T]{Err: fmt.Errorf("worker panic: %v", r)}
			}
			ch <- res
		}()
		res.Value, res.Err = fn(ctx)
	}()
	return ch
}

// Guard tracks an idle/busy state per action name.
type Guard struct {
	mu   sync.Mutex
	busy map[string]bool
}

// NewGuard creates a Guard with every action idle.
func NewGuard() *Guard {
	return &Guard{busy: make(map[string]bool)}
}

// Begin marks action busy. The returned release func restores idle and is
// safe to call more than once.
func (g *Guard) Begin(action string) (release func(), err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.busy[action] {
		return nil, fmt.Errorf("%s: %w", action, ErrBusy)
	}
	g.busy[action] = true

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			delete(g.busy, action)
		})
	}, nil
}

// Busy reports whether action is in flight.
func (g *Guard) Busy(action string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.busy[action]
}

// Run starts fn under action's guard and waits for it. Once started, fn is
// not cancelled: if ctx ends first, Run returns ctx.Err() and the action stays
// busy until fn finishes.
func Run[T any](ctx context.Context, g *Guard, action string, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	release, err := g.Begin(action)
	if err != nil {
		return zero, err
	}

	done := Go(context.WithoutCancel(ctx), fn)
	select {
	case res := <-done:
		release()
		return res.Value, res.Err
	case <-ctx.Done():
		go func() {
			<-done
			release()
		}()
		return zero, ctx.Err()
	}
}
