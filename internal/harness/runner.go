// Package harness runs UI tests through a fixed lifecycle: load config, open a browser
// session, navigate to the base URL, run the body, notify listeners, capture a
// screenshot on failure and dispose the session.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/config"
	"github.com/gymguard/uiharness/internal/domain"
	"github.com/gymguard/uiharness/internal/observability"
	"github.com/gymguard/uiharness/internal/resilience"
	"github.com/gymguard/uiharness/internal/screenshot"
	"github.com/gymguard/uiharness/internal/storage"
)

// SessionFactory creates one browser session per call
type SessionFactory interface {
	Create(ctx context.Context, cfg config.RunConfig) (browser.Session, error)
}

// ConfigLoader resolves the configuration for one test
type ConfigLoader func() (config.RunConfig, error)

// Body is a test body. Returning an error fails the test; returning Skip skips it.
type Body func(ctx context.Context, tc *TestCase) error

// Runner drives the test lifecycle
type Runner struct {
	loadConfig      ConfigLoader
	factory         SessionFactory
	capturer        *screenshot.Capturer
	uploader        screenshot.Uploader
	listeners       []Listener
	logger          *zap.Logger
	metrics         *observability.Metrics
	metricsTextfile string
}

// Option configures a Runner
type Option func(*Runner)

// WithConfigLoader sets how the per-test configuration is resolved
func WithConfigLoader(load ConfigLoader) Option {
	return func(r *Runner) {
		r.loadConfig = load
	}
}

// WithConfig uses a fixed configuration for every test
func WithConfig(cfg config.RunConfig) Option {
	return func(r *Runner) {
		r.loadConfig = func() (config.RunConfig, error) {
			return cfg, cfg.Validate()
		}
	}
}

// WithFactory sets the session factory
func WithFactory(f SessionFactory) Option {
	return func(r *Runner) {
		r.factory = f
	}
}

// WithCapturer uses c for every test instead of one built from the test config
func WithCapturer(c *screenshot.Capturer) Option {
	return func(r *Runner) {
		r.capturer = c
	}
}

// WithUploader uploads failure screenshots with u
func WithUploader(u screenshot.Uploader) Option {
	return func(r *Runner) {
		r.uploader = u
	}
}

// WithListeners appends outcome listeners, notified in order
func WithListeners(listeners ...Listener) Option {
	return func(r *Runner) {
		r.listeners = append(r.listeners, listeners...)
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithMetrics records lifecycle metrics on m
func WithMetrics(m *observability.Metrics) Option {
	return func(r *Runner) {
		r.metrics = m
	}
}

// WithMetricsTextfile makes Close write the metrics to path
func WithMetricsTextfile(path string) Option {
	return func(r *Runner) {
		r.metricsTextfile = path
	}
}

// NewRunner creates a Runner. Without options it loads config from properties files
// and launches Chromium through playwright.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{}
	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger, _ = zap.NewDevelopment()
	}
	if r.loadConfig == nil {
		logger := r.logger
		r.loadConfig = func() (config.RunConfig, error) {
			return config.Load(config.WithLogger(logger))
		}
	}
	if r.factory == nil {
		r.factory = browser.NewFactory(r.logger)
	}

	return r
}

// NewDefaultRunner wires a Runner from the process environment: log level, driver
// install policy, metrics textfile, optional S3 uploads and the screenshot listener.
// opts are applied after the defaults.
func NewDefaultRunner(ctx context.Context, opts ...Option) (*Runner, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(env.LogLevel)
	metrics := observability.NewMetrics("uiharness")

	defaults := []Option{
		WithLogger(logger),
		WithMetrics(metrics),
		WithMetricsTextfile(env.MetricsTextfile),
		WithConfigLoader(func() (config.RunConfig, error) {
			return config.Load(config.WithLogger(logger), config.WithEnv(env))
		}),
		WithFactory(browser.NewFactory(logger, browser.WithPreinstalled(env.PlaywrightPreinstalled))),
		WithListeners(NewScreenshotListener(nil, logger)),
	}

	if env.S3.Enabled() {
		client, err := storage.NewMinIOClient(storage.FromS3Config(env.S3))
		if err != nil {
			return nil, fmt.Errorf("creating screenshot uploader: %w", err)
		}
		if err := client.EnsureBucket(ctx); err != nil {
			logger.Warn("Screenshot uploads disabled",
				zap.String("endpoint", env.S3.Endpoint),
				zap.Error(err),
			)
		} else {
			cfg := resilience.DefaultConfig("screenshot-upload")
			cfg.OnStateChange = func(name string, from, to resilience.State) {
				logger.Warn("Upload breaker state changed",
					zap.String("breaker", name),
					zap.Stringer("from", from),
					zap.Stringer("to", to),
				)
			}
			defaults = append(defaults, WithUploader(resilience.GuardUploader(client, resilience.New(cfg))))
		}
	}

	return NewRunner(append(defaults, opts...)...), nil
}

// Logger returns the runner logger
func (r *Runner) Logger() *zap.Logger {
	return r.logger
}

// Metrics returns the runner metrics, possibly nil
func (r *Runner) Metrics() *observability.Metrics {
	return r.metrics
}

// Run executes body inside the full lifecycle and returns its result.
// Setup errors and body panics fail the test; teardown always runs.
func (r *Runner) Run(ctx context.Context, name string, body Body) TestResult {
	tc, err := r.Start(ctx, name)
	if err == nil && body != nil {
		err = runBody(ctx, tc, body)
	}

	outcome := domain.OutcomePassed
	switch {
	case IsSkip(err):
		outcome = domain.OutcomeSkipped
	case err != nil:
		outcome = domain.OutcomeFailed
	}

	return r.Finish(ctx, tc, outcome, err)
}

func runBody(ctx context.Context, tc *TestCase, body Body) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("test panicked: %v", p)
		}
	}()
	return body(ctx, tc)
}

// Start notifies listeners and performs setup: load config, create the session and
// navigate to the base URL. The returned TestCase is never nil and must be passed to
// Finish even when Start fails.
func (r *Runner) Start(ctx context.Context, name string) (*TestCase, error) {
	tc := newTestCase(name, r.logger)
	r.notify(ctx, TestResult{Name: name, Instance: tc}, Listener.OnTestStart)

	cfg, err := r.loadConfig()
	if err != nil {
		tc.logger.Error("Loading config failed", zap.Error(err))
		return tc, err
	}
	tc.cfg = cfg
	tc.capturer = r.capturerFor(cfg)

	begin := time.Now()
	session, err := r.factory.Create(ctx, cfg)
	if err != nil {
		r.metrics.RecordSessionCreated(err, 0)
		tc.logger.Error("Creating browser session failed", zap.Error(err))
		return tc, err
	}
	r.metrics.RecordSessionCreated(nil, time.Since(begin))
	tc.setSession(session)
	tc.logger = tc.logger.With(zap.String("session_id", session.ID()))

	err = session.Navigate(ctx, cfg.BaseURL)
	r.metrics.RecordNavigation(err)
	if err != nil {
		err = domain.NavigationError(cfg.BaseURL, err)
		tc.logger.Error("Navigating to base url failed", zap.Error(err))
		return tc, err
	}

	tc.logger.Info("Test started",
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("headless", cfg.Headless),
	)
	return tc, nil
}

// Finish notifies listeners of the outcome and tears the test down.
// err is the failure or skip cause, nil for passed tests.
func (r *Runner) Finish(ctx context.Context, tc *TestCase, outcome domain.Outcome, err error) TestResult {
	if !outcome.IsValid() {
		tc.logger.Warn("Unknown outcome reported as failure", zap.String("outcome", string(outcome)))
		if err == nil {
			err = fmt.Errorf("unknown test outcome %q", outcome)
		}
		outcome = domain.OutcomeFailed
	}

	result := TestResult{
		Name:     tc.name,
		Outcome:  outcome,
		Instance: tc,
		Err:      err,
	}
	if err != nil {
		result.Reason = err.Error()
	}

	switch outcome {
	case domain.OutcomeFailed:
		lctx, cancel := detached(ctx, tc)
		r.notify(lctx, result, Listener.OnTestFailure)
		cancel()
	case domain.OutcomeSkipped:
		r.notify(ctx, result, Listener.OnTestSkipped)
	default:
		r.notify(ctx, result, Listener.OnTestSuccess)
	}

	r.teardown(ctx, tc, outcome.IsFailure())

	result.Duration = time.Since(tc.started)
	r.metrics.RecordTest(string(outcome), result.Duration)

	fields := []zap.Field{
		zap.String("outcome", string(outcome)),
		zap.Duration("duration", result.Duration),
	}
	if outcome.IsFailure() {
		tc.logger.Error("Test finished", append(fields, zap.String("reason", result.Reason))...)
	} else {
		tc.logger.Info("Test finished", fields...)
	}

	return result
}

// teardown captures a screenshot on failure, unless one was already taken, then
// disposes the session. Screenshot strictly precedes disposal; errors are logged only.
func (r *Runner) teardown(ctx context.Context, tc *TestCase, failed bool) {
	session := tc.Session()
	if session == nil {
		return
	}

	if failed && tc.ScreenshotPath() == "" {
		r.captureFailure(ctx, tc, session)
	}

	if err := closeSession(session); err != nil {
		r.metrics.RecordSessionClosed(err)
		tc.logger.Warn("Closing browser session failed", zap.Error(err))
	} else {
		r.metrics.RecordSessionClosed(nil)
	}
	tc.setSession(nil)
}

func (r *Runner) captureFailure(ctx context.Context, tc *TestCase, session browser.Session) {
	cctx, cancel := detached(ctx, tc)
	defer cancel()

	capturer := tc.capturer
	if capturer == nil {
		capturer = screenshot.Default()
	}

	path := capturer.Capture(cctx, session, tc.name)
	if path == "" {
		tc.logger.Error("Screenshot not captured for failed test")
		return
	}
	tc.RecordScreenshot(path)
	tc.logger.Error("Screenshot captured for failed test", zap.String("path", path))
}

func closeSession(s browser.Session) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("close panicked: %v", p)
		}
	}()
	return s.Close()
}

// detached returns a context that survives cancellation of ctx and expires after the
// test's visibility timeout, so a timed out test still gets its failure capture.
func detached(ctx context.Context, tc *TestCase) (context.Context, context.CancelFunc) {
	timeout := tc.cfg.VisibilityTimeout
	if timeout <= 0 {
		timeout = config.DefaultVisibilityTimeout
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

func (r *Runner) notify(ctx context.Context, result TestResult, fn func(Listener, context.Context, TestResult)) {
	for _, l := range r.listeners {
		func() {
			defer func() {
				if p := recover(); p != nil {
					r.logger.Warn("Listener panicked",
						zap.String("test", result.Name),
						zap.Any("panic", p),
					)
				}
			}()
			fn(l, ctx, result)
		}()
	}
}

func (r *Runner) capturerFor(cfg config.RunConfig) *screenshot.Capturer {
	if r.capturer != nil {
		return r.capturer
	}
	return screenshot.New(
		screenshot.WithDir(cfg.ScreenshotDir),
		screenshot.WithUTC(cfg.ScreenshotUTC),
		screenshot.WithLogger(r.logger),
		screenshot.WithMetrics(r.metrics),
		screenshot.WithUploader(r.uploader),
	)
}

// Close flushes metrics to the configured textfile
func (r *Runner) Close() error {
	return r.metrics.WriteTextfile(r.metricsTextfile)
}

// IsSetupError reports whether err is a setup error that prevented the body from running
func IsSetupError(err error) bool {
	return errors.Is(err, domain.ErrConfigLoad) ||
		errors.Is(err, domain.ErrDriverStartup) ||
		errors.Is(err, domain.ErrNavigation)
}
