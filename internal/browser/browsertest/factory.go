package browsertest

import (
	"context"
	"sync"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/config"
	"github.com/gymguard/uiharness/internal/domain"
)

// Factory hands out fake sessions and records every one it created
type Factory struct {
	mu       sync.Mutex
	sessions []*Session
	configs  []config.RunConfig

	// Err makes Create fail with a DRIVER_STARTUP_ERROR wrapping it
	Err error
	// Prepare, if set, is applied to every new session before it is returned
	Prepare func(*Session)
	// NoScreenshots makes Create return sessions without the Screenshotter capability
	NoScreenshots bool
}

// Create returns a new fake session configured from cfg
func (f *Factory) Create(ctx context.Context, cfg config.RunConfig) (browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.DriverStartupError("start", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.configs = append(f.configs, cfg)
	if f.Err != nil {
		return nil, domain.DriverStartupError("launch", f.Err)
	}

	s := NewSession(
		WithHeadless(cfg.Headless),
		WithTimeouts(browser.Timeouts{
			Implicit:   cfg.ImplicitWait,
			Visibility: cfg.VisibilityTimeout,
		}),
	)
	if f.Prepare != nil {
		f.Prepare(s)
	}
	f.sessions = append(f.sessions, s)

	if f.NoScreenshots {
		return WithoutScreenshots(s), nil
	}
	return s, nil
}

// Sessions returns the sessions created so far
func (f *Factory) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*Session(nil), f.sessions...)
}

// Configs returns the configs passed to Create
func (f *Factory) Configs() []config.RunConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]config.RunConfig(nil), f.configs...)
}
