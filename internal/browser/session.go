// Package browser owns browser sessions: a narrow Session interface over one live page,
// and a Factory that launches Chromium through playwright-go.
package browser

import (
	"context"
	"time"
)

// Timeouts holds the per-session wait settings
type Timeouts struct {
	// Implicit is the default timeout applied to every element lookup
	Implicit time.Duration
	// Visibility is the default explicit visibility wait used by page objects
	Visibility time.Duration
}

// Session is a live handle to one browser window.
// A Session is owned by exactly one test and must not be shared.
type Session interface {
	ID() string
	Navigate(ctx context.Context, url string) error
	URL() string
	Headless() bool
	Timeouts() Timeouts
	// Find returns a lazy handle; the selector is resolved again on every action
	Find(selector string) Element
	Close() error
}

// Screenshotter is implemented by sessions that can produce PNG bytes
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// Element is a lazily resolved element handle
type Element interface {
	Selector() string
	WaitVisible(ctx context.Context, timeout time.Duration) error
	Click(ctx context.Context) error
	Clear(ctx context.Context) error
	Type(ctx context.Context, text string) error
	Text(ctx context.Context) (string, error)
}

// CanScreenshot reports whether s is non-nil and can produce image bytes
func CanScreenshot(s Session) (Screenshotter, bool) {
	if s == nil {
		return nil, false
	}
	shooter, ok := s.(Screenshotter)
	return shooter, ok
}

// timeoutFor bounds d by the context deadline, if any
func timeoutFor(ctx context.Context, d time.Duration) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return d
	}
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return time.Millisecond
	}
	if d <= 0 || remaining < d {
		return remaining
	}
	return d
}
