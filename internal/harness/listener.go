package harness

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/screenshot"
)

// Listener observes test outcomes
type Listener interface {
	OnTestStart(ctx context.Context, r TestResult)
	OnTestSuccess(ctx context.Context, r TestResult)
	OnTestFailure(ctx context.Context, r TestResult)
	OnTestSkipped(ctx context.Context, r TestResult)
}

// NopListener implements Listener with no-ops; embed it to override only what you need
type NopListener struct{}

func (NopListener) OnTestStart(context.Context, TestResult)   {}
func (NopListener) OnTestSuccess(context.Context, TestResult) {}
func (NopListener) OnTestFailure(context.Context, TestResult) {}
func (NopListener) OnTestSkipped(context.Context, TestResult) {}

// ScreenshotListener captures a screenshot of the failing test's session
type ScreenshotListener struct {
	NopListener

	capturer *screenshot.Capturer
	logger   *zap.Logger
}

// NewScreenshotListener creates a listener. A nil capturer means the capturer
// configured for each test is used, falling back to the package default.
func NewScreenshotListener(capturer *screenshot.Capturer, logger *zap.Logger) *ScreenshotListener {
	if logger == nil {
		logger, _ = zap.NewDevelopment()
	}
	return &ScreenshotListener{
		capturer: capturer,
		logger:   logger,
	}
}

// OnTestFailure captures the session of r.Instance named after the test
func (l *ScreenshotListener) OnTestFailure(ctx context.Context, r TestResult) {
	defer func() {
		if p := recover(); p != nil {
			l.logger.Debug("Screenshot lookup panicked",
				zap.String("test", r.Name),
				zap.Any("panic", p),
			)
		}
	}()

	holder, ok := r.Instance.(SessionHolder)
	if !ok {
		l.logger.Error("Screenshot not captured for failed test",
			zap.String("test", r.Name),
			zap.String("reason", r.Reason),
			zap.String("instance", fmt.Sprintf("%T", r.Instance)),
		)
		return
	}

	recorder, _ := r.Instance.(ScreenshotRecorder)
	if recorder != nil && recorder.ScreenshotPath() != "" {
		return
	}

	path := l.capturerFor(r.Instance).Capture(ctx, holder.Session(), r.Name)
	if path == "" {
		l.logger.Error("Screenshot not captured for failed test",
			zap.String("test", r.Name),
			zap.String("reason", r.Reason),
		)
		return
	}

	if recorder != nil {
		recorder.RecordScreenshot(path)
	}
	l.logger.Error("Screenshot captured for failed test",
		zap.String("test", r.Name),
		zap.String("path", path),
		zap.String("reason", r.Reason),
	)
}

func (l *ScreenshotListener) capturerFor(instance any) *screenshot.Capturer {
	if l.capturer != nil {
		return l.capturer
	}
	if p, ok := instance.(interface{ Capturer() *screenshot.Capturer }); ok {
		if c := p.Capturer(); c != nil {
			return c
		}
	}
	return screenshot.Default()
}
