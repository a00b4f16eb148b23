// Package screenshot persists PNG captures of a browser session for failure diagnostics.
//
// Capture never returns an error: every failure is logged and reported as an empty path.
package screenshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/domain"
	"github.com/gymguard/uiharness/internal/observability"
)

const (
	// DefaultDir is the output directory relative to the working directory
	DefaultDir = "screenshots"
	// DefaultName is used when the caller supplies no name
	DefaultName = "screenshot"

	timestampLayout = "20060102-150405"
)

var errEmptyPayload = errors.New("empty screenshot payload")

// Uploader copies a written screenshot to remote storage and returns its location
type Uploader interface {
	UploadScreenshot(ctx context.Context, name string, data []byte) (string, error)
}

// Capturer writes screenshots to a directory
type Capturer struct {
	dir      string
	utc      bool
	now      func() time.Time
	logger   *zap.Logger
	metrics  *observability.Metrics
	uploader Uploader
}

// Option configures a Capturer
type Option func(*Capturer)

// WithDir sets the output directory
func WithDir(dir string) Option {
	return func(c *Capturer) {
		if dir != "" {
			c.dir = dir
		}
	}
}

// WithUTC formats timestamps in UTC instead of local time
func WithUTC(utc bool) Option {
	return func(c *Capturer) {
		c.utc = utc
	}
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(c *Capturer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Capturer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics records capture results on m
func WithMetrics(m *observability.Metrics) Option {
	return func(c *Capturer) {
		c.metrics = m
	}
}

// WithUploader uploads every written screenshot with u
func WithUploader(u Uploader) Option {
	return func(c *Capturer) {
		c.uploader = u
	}
}

// New creates a Capturer writing to DefaultDir in local time
func New(opts ...Option) *Capturer {
	c := &Capturer{
		dir:    DefaultDir,
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dir returns the output directory
func (c *Capturer) Dir() string {
	return c.dir
}

var defaultCapturer = New()

// Default returns the package Capturer used by Capture
func Default() *Capturer {
	return defaultCapturer
}

// Capture captures s with the default Capturer
func Capture(ctx context.Context, s browser.Session, name string) string {
	return defaultCapturer.Capture(ctx, s, name)
}

// Capture takes a screenshot of s and writes it to <dir>/<name>-<timestamp>.png.
// It returns the written path, or "" if the session cannot capture or anything fails.
func (c *Capturer) Capture(ctx context.Context, s browser.Session, name string) (path string) {
	logger := c.logger.With(zap.String("name", name))

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Screenshot capture panicked", zap.Any("panic", r))
			c.metrics.RecordScreenshot(observability.ScreenshotFailed)
			path = ""
		}
	}()

	shooter, ok := browser.CanScreenshot(s)
	if !ok {
		logger.Debug("Session cannot capture screenshots")
		c.metrics.RecordScreenshot(observability.ScreenshotUnsupported)
		return ""
	}

	data, err := shooter.Screenshot(ctx)
	if err == nil && len(data) == 0 {
		err = errEmptyPayload
	}
	if err != nil {
		c.fail(logger, domain.ScreenshotError(name, err))
		return ""
	}

	path = filepath.Join(c.dir, c.FileName(name))
	if err := writeFile(c.dir, path, data); err != nil {
		c.fail(logger, domain.ScreenshotError(name, err))
		return ""
	}

	c.metrics.RecordScreenshot(observability.ScreenshotSaved)
	logger.Debug("Screenshot saved", zap.String("path", path))

	if c.uploader != nil {
		c.upload(ctx, logger, path, data)
	}

	return path
}

// FileName builds <sanitized name>-<YYYYMMDD-HHmmssSSS>.png for the current time
func (c *Capturer) FileName(name string) string {
	t := c.now()
	if c.utc {
		t = t.UTC()
	}
	return fmt.Sprintf("%s-%s.png", Sanitize(name), Timestamp(t))
}

func (c *Capturer) fail(logger *zap.Logger, err error) {
	logger.Warn("Failed to capture screenshot", zap.Error(err))
	c.metrics.RecordScreenshot(observability.ScreenshotFailed)
}

func (c *Capturer) upload(ctx context.Context, logger *zap.Logger, path string, data []byte) {
	location, err := c.uploader.UploadScreenshot(ctx, path, data)
	c.metrics.RecordUpload(err)
	if err != nil {
		logger.Warn("Failed to upload screenshot", zap.String("path", path), zap.Error(err))
		return
	}
	logger.Info("Screenshot uploaded", zap.String("path", path), zap.String("location", location))
}

// Timestamp formats t as YYYYMMDD-HHmmssSSS
func Timestamp(t time.Time) string {
	return t.Format(timestampLayout) + fmt.Sprintf("%03d", t.Nanosecond()/int(time.Millisecond))
}

// Sanitize replaces every character outside [A-Za-z0-9._-] with '_'.
// An empty name becomes DefaultName.
func Sanitize(name string) string {
	if name == "" {
		return DefaultName
	}
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// writeFile writes data to a temp file in dir and renames it to path,
// so a reader never observes a partially written screenshot.
func writeFile(dir, path string, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating screenshot dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".capture-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming screenshot: %w", err)
	}
	return nil
}
