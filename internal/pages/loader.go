// Package pages drives the screens of the application: each controller owns
// the state of one page and loads it through the API.
package pages

import (
	"context"
	"errors"
	"sync"

	"github.com/felixgeelhaar/vedic/internal/api"
)

// ErrNoProfile is returned when a page that works on the selected profile is
// opened without one.
var ErrNoProfile = errors.New("no profile selected")

// State is the lifecycle of a page load.
type State int

// Load states
const (
	Idle State = iota
	Loading
	Success
	Error
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Loading:
		return "loading"
	case Success:
		return "success"
	case Error:
		return "error"
	default:
		return "unknown"
	}
}

// Snapshot is the observable state of a Loader. Data holds the last
// successful result, even while a later run is loading or has failed.
type Snapshot[T any] struct {
	State   State
	Data    T
	Message string
	Err     error
}

// Loader runs a request and records its outcome. Runs are never cancelled and
// never serialised: when two overlap, whichever resolves last wins.
type Loader[T any] struct {
	fallback string

	mu   sync.Mutex
	snap Snapshot[T]
}

// NewLoader returns an idle loader. fallback is the message shown when a
// failed request carries no reason.
func NewLoader[T any](fallback string) *Loader[T] {
	return &Loader[T]{fallback: fallback}
}

// Run marks the loader as loading, calls fn, and records its result.
func (l *Loader[T]) Run(ctx context.Context, fn func(context.Context) (T, error)) Snapshot[T] {
	l.mu.Lock()
	l.snap.State = Loading
	l.snap.Message = ""
	l.snap.Err = nil
	l.mu.Unlock()

	data, err := fn(ctx)

	l.mu.Lock()
	defer l.mu.Unlock()
	if err != nil {
		l.snap.State = Error
		l.snap.Message = api.Message(err, l.fallback)
		l.snap.Err = err
	} else {
		l.snap.State = Success
		l.snap.Data = data
	}
	return l.snap
}

// Fail puts the loader in the error state without a request, for input
// rejected before anything is sent.
func (l *Loader[T]) Fail(message string) Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snap.State = Error
	l.snap.Message = message
	l.snap.Err = &api.ValidationError{Message: message}
	return l.snap
}

// Snapshot returns the current state.
func (l *Loader[T]) Snapshot() Snapshot[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snap
}
