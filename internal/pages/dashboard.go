package pages

import (
	"context"
	"errors"
	"strings"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/page"
)

// DashboardPage is the landing screen after a successful login
type DashboardPage struct {
	page.Base
}

// NewDashboardPage binds a DashboardPage to s
func NewDashboardPage(s browser.Session) (*DashboardPage, error) {
	if s == nil {
		return nil, errors.New("dashboard page requires a session")
	}
	return &DashboardPage{Base: page.NewBase(s)}, nil
}

// WaitLoaded waits until the browser has left the login route
func (p *DashboardPage) WaitLoaded(ctx context.Context) error {
	return p.WaitForURL(ctx, func(url string) bool {
		return !strings.Contains(url, "/login")
	}, p.DefaultTimeout())
}
