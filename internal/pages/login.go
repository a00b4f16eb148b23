// Package pages holds the page objects of the application under test.
package pages

import (
	"context"
	"errors"
	"time"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/page"
)

// Login page selectors. They use the stable data-test-id attributes emitted by the
// application and must match its markup exactly.
const (
	LoginEmailSelector    = "[data-test-id='input--login--email'] input"
	LoginPasswordSelector = "[data-test-id='input--login--password'] input"
	LoginSubmitSelector   = "[data-test-id='button--login--submit']"
	// The MUI Alert renders with role="alert"
	LoginErrorSelector = "[role='alert']"
)

// LoginPage is the page object for the login screen
type LoginPage struct {
	page.Base

	emailInput    browser.Element
	passwordInput browser.Element
	submitButton  browser.Element
	errorMessage  browser.Element
}

// NewLoginPage binds a LoginPage to s
func NewLoginPage(s browser.Session) (*LoginPage, error) {
	if s == nil {
		return nil, errors.New("login page requires a session")
	}

	b := page.NewBase(s)
	return &LoginPage{
		Base:          b,
		emailInput:    b.Element(LoginEmailSelector),
		passwordInput: b.Element(LoginPasswordSelector),
		submitButton:  b.Element(LoginSubmitSelector),
		errorMessage:  b.Element(LoginErrorSelector),
	}, nil
}

// Login fills the credentials, submits the form and returns the dashboard bound to the
// same session. It does not wait for the dashboard to be ready.
func (p *LoginPage) Login(ctx context.Context, email, password string) (*DashboardPage, error) {
	if err := p.ClearAndType(ctx, p.emailInput, email); err != nil {
		return nil, err
	}
	if err := p.ClearAndType(ctx, p.passwordInput, password); err != nil {
		return nil, err
	}
	if err := p.Click(ctx, p.submitButton); err != nil {
		return nil, err
	}
	return page.Init(p.Session(), NewDashboardPage)
}

// ErrorMessage returns the visible alert text.
// It fails with ELEMENT_NOT_VISIBLE when no alert shows up within the default timeout.
func (p *LoginPage) ErrorMessage(ctx context.Context) (string, error) {
	return p.ElementText(ctx, p.errorMessage)
}

// TryErrorMessage is the non-failing probe: it reports false when no alert is visible
func (p *LoginPage) TryErrorMessage(ctx context.Context) (string, bool) {
	text, err := p.ErrorMessage(ctx)
	if err != nil {
		return "", false
	}
	return text, true
}

// HasErrorMessage reports whether an alert becomes visible within timeout
func (p *LoginPage) HasErrorMessage(ctx context.Context, timeout time.Duration) bool {
	return p.WaitForVisible(ctx, p.errorMessage, timeout) == nil
}
