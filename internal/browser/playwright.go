package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// pwSession is a Session backed by one playwright page in its own browser context
type pwSession struct {
	id       string
	pw       *playwright.Playwright
	browser  playwright.Browser
	context  playwright.BrowserContext
	page     playwright.Page
	headless bool
	timeouts Timeouts
	logger   *zap.Logger
}

func (s *pwSession) ID() string {
	return s.id
}

func (s *pwSession) Headless() bool {
	return s.headless
}

func (s *pwSession) Timeouts() Timeouts {
	return s.timeouts
}

func (s *pwSession) URL() string {
	return s.page.URL()
}

// Navigate loads url and waits for the DOM to be ready
func (s *pwSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   millis(timeoutFor(ctx, 30*time.Second)),
	})
	if err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	return nil
}

func (s *pwSession) Find(selector string) Element {
	return &pwElement{session: s, selector: selector}
}

// Screenshot captures the viewport as PNG
func (s *pwSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := s.page.Screenshot(playwright.PageScreenshotOptions{
		Type:    playwright.ScreenshotTypePng,
		Timeout: millis(timeoutFor(ctx, s.timeouts.Visibility)),
	})
	if err != nil {
		return nil, fmt.Errorf("taking screenshot: %w", err)
	}
	return data, nil
}

// Close releases the page, context, browser and driver in that order
func (s *pwSession) Close() error {
	var errs []error

	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing page: %w", err))
		}
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing context: %w", err))
		}
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing browser: %w", err))
		}
	}
	if s.pw != nil {
		if err := s.pw.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stopping playwright: %w", err))
		}
	}

	s.logger.Debug("Browser session closed",
		zap.String("session_id", s.id),
		zap.Int("close_errors", len(errs)),
	)

	return errors.Join(errs...)
}

// pwElement re-resolves its selector through page.Locator on every call
type pwElement struct {
	session  *pwSession
	selector string
}

func (e *pwElement) locator() playwright.Locator {
	return e.session.page.Locator(e.selector)
}

// actionTimeout bounds element actions by the session's implicit wait.
// WaitVisible alone uses the explicit visibility timeout.
func (e *pwElement) actionTimeout(ctx context.Context) *float64 {
	return millis(timeoutFor(ctx, e.session.timeouts.Implicit))
}

func (e *pwElement) Selector() string {
	return e.selector
}

func (e *pwElement) WaitVisible(ctx context.Context, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.locator().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: millis(timeoutFor(ctx, timeout)),
	})
}

func (e *pwElement) Click(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.locator().Click(playwright.LocatorClickOptions{
		Timeout: e.actionTimeout(ctx),
	})
}

func (e *pwElement) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.locator().Clear(playwright.LocatorClearOptions{
		Timeout: e.actionTimeout(ctx),
	})
}

func (e *pwElement) Type(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.locator().PressSequentially(text, playwright.LocatorPressSequentiallyOptions{
		Timeout: e.actionTimeout(ctx),
	})
}

func (e *pwElement) Text(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return e.locator().InnerText(playwright.LocatorInnerTextOptions{
		Timeout: e.actionTimeout(ctx),
	})
}

// millis converts d to a playwright timeout.
// Playwright treats 0 as "no timeout", so a zero wait becomes the smallest positive one.
func millis(d time.Duration) *float64 {
	ms := float64(d.Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return playwright.Float(ms)
}
