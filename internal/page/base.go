// Package page provides the building blocks shared by all page objects:
// wait-then-act primitives in Base and the Init page factory.
package page

import (
	"context"
	"time"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/domain"
)

// Base is embedded by every page object and binds it to one session
type Base struct {
	session browser.Session
}

// NewBase binds a page to s
func NewBase(s browser.Session) Base {
	return Base{session: s}
}

// Session returns the session this page is bound to
func (b Base) Session() browser.Session {
	return b.session
}

// Element returns a lazy handle for selector on the bound session
func (b Base) Element(selector string) browser.Element {
	return b.session.Find(selector)
}

// DefaultTimeout is the visibility wait used by Click, ClearAndType and ElementText
func (b Base) DefaultTimeout() time.Duration {
	return b.session.Timeouts().Visibility
}

// WaitForVisible blocks until el is present and visible, or fails after timeout
func (b Base) WaitForVisible(ctx context.Context, el browser.Element, timeout time.Duration) error {
	if err := el.WaitVisible(ctx, timeout); err != nil {
		return domain.ElementNotVisibleError(el.Selector(), err).
			WithMetadata("timeout", timeout.String())
	}
	return nil
}

// Click waits for visibility then clicks
func (b Base) Click(ctx context.Context, el browser.Element) error {
	if err := b.WaitForVisible(ctx, el, b.DefaultTimeout()); err != nil {
		return err
	}
	if err := el.Click(ctx); err != nil {
		return domain.ElementInteractionError("click", el.Selector(), err)
	}
	return nil
}

// ClearAndType waits for visibility, clears the field, then types text
func (b Base) ClearAndType(ctx context.Context, el browser.Element, text string) error {
	if err := b.WaitForVisible(ctx, el, b.DefaultTimeout()); err != nil {
		return err
	}
	if err := el.Clear(ctx); err != nil {
		return domain.ElementInteractionError("clear", el.Selector(), err)
	}
	if err := el.Type(ctx, text); err != nil {
		return domain.ElementInteractionError("type", el.Selector(), err)
	}
	return nil
}

// ElementText waits for visibility and returns the visible text
func (b Base) ElementText(ctx context.Context, el browser.Element) (string, error) {
	if err := b.WaitForVisible(ctx, el, b.DefaultTimeout()); err != nil {
		return "", err
	}
	text, err := el.Text(ctx)
	if err != nil {
		return "", domain.ElementInteractionError("text", el.Selector(), err)
	}
	return text, nil
}

// urlPollInterval is how often WaitForURL re-reads the session URL
const urlPollInterval = 50 * time.Millisecond

// WaitForURL blocks until match accepts the session URL, or fails with a
// NAVIGATION_ERROR after timeout
func (b Base) WaitForURL(ctx context.Context, match func(url string) bool, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(urlPollInterval)
	defer ticker.Stop()

	for {
		current := b.session.URL()
		if match(current) {
			return nil
		}
		select {
		case <-ctx.Done():
			return domain.NavigationError(current, ctx.Err()).
				WithMetadata("timeout", timeout.String())
		case <-ticker.C:
		}
	}
}
