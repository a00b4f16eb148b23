package harness

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/config"
	"github.com/gymguard/uiharness/internal/domain"
	"github.com/gymguard/uiharness/internal/screenshot"
)

// TestResult is the outcome of one test as seen by listeners
type TestResult struct {
	Name    string
	Outcome domain.Outcome
	// Reason describes a failure or skip; empty for passed tests
	Reason string
	// Instance is the test object; listeners type-assert it to SessionHolder
	Instance any
	Duration time.Duration
	// Err is the error that failed or skipped the test
	Err error
}

// SessionHolder is implemented by test objects that own a browser session
type SessionHolder interface {
	Session() browser.Session
}

// ScreenshotRecorder is implemented by test objects that remember the screenshot
// captured for them, so the same failure is not captured twice
type ScreenshotRecorder interface {
	RecordScreenshot(path string)
	ScreenshotPath() string
}

// skipError marks a test body that asked to be skipped
type skipError struct {
	reason string
}

func (e *skipError) Error() string {
	return "test skipped: " + e.reason
}

// Skip returns an error that makes Run report the test as skipped
func Skip(reason string) error {
	return &skipError{reason: reason}
}

// IsSkip reports whether err was produced by Skip
func IsSkip(err error) bool {
	var s *skipError
	return errors.As(err, &s)
}

// TestCase is the per-test state handed to a test body.
// It owns the browser session from setup until teardown.
type TestCase struct {
	name     string
	cfg      config.RunConfig
	logger   *zap.Logger
	capturer *screenshot.Capturer
	started  time.Time

	mu             sync.Mutex
	session        browser.Session
	screenshotPath string
}

func newTestCase(name string, logger *zap.Logger) *TestCase {
	return &TestCase{
		name:    name,
		logger:  logger.With(zap.String("test", name)),
		started: time.Now(),
	}
}

// Name returns the test name used for screenshots and logs
func (tc *TestCase) Name() string {
	return tc.name
}

// Config returns the configuration loaded for this test
func (tc *TestCase) Config() config.RunConfig {
	return tc.cfg
}

// Logger returns a logger annotated with the test name and session id
func (tc *TestCase) Logger() *zap.Logger {
	return tc.logger
}

// Capturer returns the screenshot capturer configured for this test
func (tc *TestCase) Capturer() *screenshot.Capturer {
	return tc.capturer
}

// Session returns the live session, or nil before setup and after teardown
func (tc *TestCase) Session() browser.Session {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.session
}

func (tc *TestCase) setSession(s browser.Session) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.session = s
}

// RecordScreenshot stores the path of the screenshot taken for this test
func (tc *TestCase) RecordScreenshot(path string) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.screenshotPath = path
}

// ScreenshotPath returns the recorded screenshot path, empty if none was taken
func (tc *TestCase) ScreenshotPath() string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.screenshotPath
}
