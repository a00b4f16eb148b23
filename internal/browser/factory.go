package browser

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/config"
	"github.com/gymguard/uiharness/internal/domain"
)

// Window size used when maximizing is meaningless (headless)
const (
	HeadlessWidth  = 1920
	HeadlessHeight = 1080
)

// Factory creates configured browser sessions.
// It holds no per-session state; every Create call returns an independent session.
type Factory struct {
	logger       *zap.Logger
	preinstalled bool
	browsers     []string

	install func(*playwright.RunOptions) error
	run     func(*playwright.RunOptions) (*playwright.Playwright, error)
}

// FactoryOption configures a Factory
type FactoryOption func(*Factory)

// WithPreinstalled skips the driver/browser installation step
func WithPreinstalled(preinstalled bool) FactoryOption {
	return func(f *Factory) {
		f.preinstalled = preinstalled
	}
}

// NewFactory creates a Chromium session factory
func NewFactory(logger *zap.Logger, opts ...FactoryOption) *Factory {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}

	f := &Factory{
		logger:   logger,
		browsers: []string{"chromium"},
		install: func(o *playwright.RunOptions) error {
			return playwright.Install(o)
		},
		run: func(o *playwright.RunOptions) (*playwright.Playwright, error) {
			return playwright.Run(o)
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Create installs the driver if needed, launches Chromium and opens one page.
// Any failure is returned as a DRIVER_STARTUP_ERROR wrapping the original cause,
// after every resource created so far has been released.
func (f *Factory) Create(ctx context.Context, cfg config.RunConfig) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.DriverStartupError("start", err)
	}

	runOpts := &playwright.RunOptions{
		Browsers: f.browsers,
		Verbose:  false,
	}

	if !f.preinstalled {
		if err := f.install(runOpts); err != nil {
			return nil, domain.DriverStartupError("install", err)
		}
	}

	pw, err := f.run(runOpts)
	if err != nil {
		return nil, domain.DriverStartupError("run", err)
	}

	s := &pwSession{
		id:       uuid.NewString(),
		pw:       pw,
		headless: cfg.Headless,
		timeouts: Timeouts{
			Implicit:   cfg.ImplicitWait,
			Visibility: cfg.VisibilityTimeout,
		},
		logger: f.logger,
	}

	fail := func(stage string, cause error) (Session, error) {
		if closeErr := s.Close(); closeErr != nil {
			f.logger.Warn("Releasing partially started session failed",
				zap.String("stage", stage),
				zap.Error(closeErr),
			)
		}
		return nil, domain.DriverStartupError(stage, cause)
	}

	s.browser, err = pw.Chromium.Launch(launchOptions(cfg))
	if err != nil {
		return fail("launch", err)
	}

	s.context, err = s.browser.NewContext(contextOptions(cfg))
	if err != nil {
		return fail("context", err)
	}

	s.page, err = s.context.NewPage()
	if err != nil {
		return fail("page", err)
	}

	s.page.SetDefaultTimeout(*millis(cfg.ImplicitWait))

	f.logger.Info("Browser session created",
		zap.String("session_id", s.id),
		zap.Bool("headless", cfg.Headless),
		zap.Duration("implicit_wait", cfg.ImplicitWait),
	)

	return s, nil
}

// launchOptions maps the run config to Chromium launch flags
func launchOptions(cfg config.RunConfig) playwright.BrowserTypeLaunchOptions {
	opts := playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Headless),
	}
	if cfg.Headless {
		opts.Args = []string{fmt.Sprintf("--window-size=%d,%d", HeadlessWidth, HeadlessHeight)}
	} else {
		opts.Args = []string{"--start-maximized"}
	}
	return opts
}

// contextOptions maximizes headed windows and pins a large viewport when headless
func contextOptions(cfg config.RunConfig) playwright.BrowserNewContextOptions {
	if cfg.Headless {
		return playwright.BrowserNewContextOptions{
			Viewport: &playwright.Size{
				Width:  HeadlessWidth,
				Height: HeadlessHeight,
			},
		}
	}
	return playwright.BrowserNewContextOptions{
		NoViewport: playwright.Bool(true),
	}
}
