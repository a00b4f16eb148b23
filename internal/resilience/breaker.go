// Package resilience stops the harness from hammering a failing remote
// dependency, such as the screenshot bucket, once per failed test.
package resilience

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the state of a Breaker
type State int32

const (
	// StateClosed lets calls through
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown elapses
	StateOpen
	// StateHalfOpen lets a single probe through
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

var (
	// ErrOpen is returned while the breaker rejects calls
	ErrOpen = errors.New("circuit breaker is open")

	// ErrProbeInFlight is returned when a half-open probe is already running
	ErrProbeInFlight = errors.New("circuit breaker probe in flight")
)

// Config configures a Breaker
type Config struct {
	// Name identifies the breaker in logs
	Name string

	// MaxFailures is the number of consecutive failures that opens the breaker
	MaxFailures int

	// Cooldown is how long the breaker stays open before probing
	Cooldown time.Duration

	// OnStateChange is called with the breaker lock released
	OnStateChange func(name string, from, to State)
}

// DefaultConfig returns the breaker settings used for screenshot uploads
func DefaultConfig(name string) Config {
	return Config{
		Name:        name,
		MaxFailures: 3,
		Cooldown:    30 * time.Second,
	}
}

// Breaker is a consecutive-failure circuit breaker
type Breaker struct {
	name          string
	maxFailures   int
	cooldown      time.Duration
	onStateChange func(name string, from, to State)
	now           func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// New creates a closed Breaker
func New(cfg Config) *Breaker {
	b := &Breaker{
		name:          cfg.Name,
		maxFailures:   cfg.MaxFailures,
		cooldown:      cfg.Cooldown,
		onStateChange: cfg.OnStateChange,
		now:           time.Now,
	}
	if b.maxFailures <= 0 {
		b.maxFailures = 1
	}
	if b.cooldown <= 0 {
		b.cooldown = 30 * time.Second
	}
	return b
}

// Name returns the breaker name
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state
func (b *Breaker) State() State {
	b.mu.Lock()
	state, change := b.refresh()
	b.mu.Unlock()

	b.notify(change)
	return state
}

// Do runs fn unless the breaker is open.
// A cancelled context is returned as is and does not count as a failure.
func (b *Breaker) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	probe, err := b.before()
	if err != nil {
		return err
	}

	err = fn(ctx)
	if err != nil && ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		b.release(probe)
		return err
	}

	b.after(probe, err == nil)
	return err
}

type transition struct {
	from, to State
}

func (b *Breaker) before() (bool, error) {
	b.mu.Lock()
	state, change := b.refresh()

	var (
		probe bool
		err   error
	)
	switch state {
	case StateOpen:
		err = ErrOpen
	case StateHalfOpen:
		if b.probing {
			err = ErrProbeInFlight
		} else {
			b.probing = true
			probe = true
		}
	}
	b.mu.Unlock()

	b.notify(change)
	return probe, err
}

func (b *Breaker) after(probe, ok bool) {
	b.mu.Lock()
	if probe {
		b.probing = false
	}

	var change *transition
	switch {
	case ok:
		b.failures = 0
		if b.state == StateHalfOpen {
			change = b.setState(StateClosed)
		}
	case b.state == StateHalfOpen:
		change = b.setState(StateOpen)
	default:
		b.failures++
		if b.failures >= b.maxFailures {
			change = b.setState(StateOpen)
		}
	}
	b.mu.Unlock()

	b.notify(change)
}

func (b *Breaker) release(probe bool) {
	if !probe {
		return
	}
	b.mu.Lock()
	b.probing = false
	b.mu.Unlock()
}

// refresh moves an expired open breaker to half-open. Callers hold mu.
func (b *Breaker) refresh() (State, *transition) {
	if b.state == StateOpen && !b.now().Before(b.openedAt.Add(b.cooldown)) {
		return StateHalfOpen, b.setState(StateHalfOpen)
	}
	return b.state, nil
}

// setState changes state and returns the transition. Callers hold mu.
func (b *Breaker) setState(to State) *transition {
	from := b.state
	if from == to {
		return nil
	}
	b.state = to
	b.failures = 0
	if to == StateOpen {
		b.openedAt = b.now()
	}
	return &transition{from: from, to: to}
}

func (b *Breaker) notify(change *transition) {
	if change != nil && b.onStateChange != nil {
		b.onStateChange(b.name, change.from, change.to)
	}
}
