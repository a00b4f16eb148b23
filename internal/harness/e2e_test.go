//go:build e2e

// End-to-end login tests against the fixture app in a real Chromium.
//
// Prerequisites:
//   - go run github.com/playwright-community/playwright-go/cmd/playwright install --with-deps chromium
//   - go test -tags e2e ./internal/harness/...
package harness

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/config"
	"github.com/gymguard/uiharness/internal/domain"
	"github.com/gymguard/uiharness/internal/page"
	"github.com/gymguard/uiharness/internal/pages"
	"github.com/gymguard/uiharness/internal/testapp"
)

func startFixture(t *testing.T) *testapp.Server {
	t.Helper()
	srv, err := testapp.Start("127.0.0.1:0", testapp.New(testapp.Config{Logger: zaptest.NewLogger(t)}))
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
	})
	return srv
}

func newE2ERunner(t *testing.T, baseURL string) (*Runner, config.RunConfig) {
	t.Helper()
	logger := zaptest.NewLogger(t)

	cfg := config.Default()
	cfg.BaseURL = baseURL
	cfg.Headless = true
	cfg.ScreenshotDir = filepath.Join(t.TempDir(), "screenshots")

	factory := browser.NewFactory(logger, browser.WithPreinstalled(os.Getenv("PLAYWRIGHT_PREINSTALLED") == "true"))
	return NewRunner(
		WithConfig(cfg),
		WithFactory(factory),
		WithLogger(logger),
		WithListeners(NewScreenshotListener(nil, logger)),
	), cfg
}

type e2eLoginSuite struct {
	BaseSuite
}

func (s *e2eLoginSuite) TestValidLogin() {
	s.True(s.Session().Headless())
	s.True(strings.HasSuffix(s.Session().URL(), "/login"), "root redirects to the login screen")

	login, err := page.Init(s.Session(), pages.NewLoginPage)
	s.Require().NoError(err)

	dashboard, err := login.Login(s.context(), testapp.DefaultEmail, testapp.DefaultPassword)
	s.Require().NoError(err)
	s.Require().NoError(dashboard.WaitLoaded(s.context()))
	s.True(strings.HasSuffix(s.Session().URL(), "/dashboard"))
}

func (s *e2eLoginSuite) TestInvalidLoginShowsError() {
	login, err := page.Init(s.Session(), pages.NewLoginPage)
	s.Require().NoError(err)

	_, err = login.Login(s.context(), testapp.DefaultEmail, "wrong-password")
	s.Require().NoError(err)

	msg, err := login.ErrorMessage(s.context())
	s.Require().NoError(err)
	s.Contains(msg, testapp.InvalidCredentialsMessage)
}

func TestE2E_LoginSuite(t *testing.T) {
	srv := startFixture(t)
	runner, cfg := newE2ERunner(t, srv.URL())

	suite.Run(t, &e2eLoginSuite{BaseSuite: BaseSuite{Runner: runner}})

	assert.Empty(t, screenshots(t, cfg.ScreenshotDir))
}

func TestE2E_FailureLeavesScreenshot(t *testing.T) {
	srv := startFixture(t)
	runner, cfg := newE2ERunner(t, srv.URL())

	result := runner.Run(t.Context(), "TestFailureCapture", func(ctx context.Context, tc *TestCase) error {
		return errors.New("forced failure")
	})

	assert.Equal(t, domain.OutcomeFailed, result.Outcome)
	files := screenshots(t, cfg.ScreenshotDir)
	require.Len(t, files, 1)
	assert.Regexp(t, `^TestFailureCapture-\d{8}-\d{9}\.png$`, files[0])

	info, err := os.Stat(filepath.Join(cfg.ScreenshotDir, files[0]))
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestE2E_NavigationErrorOnUnreachableHost(t *testing.T) {
	runner, _ := newE2ERunner(t, "http://127.0.0.1:1")

	result := runner.Run(t.Context(), "TestUnreachable", func(ctx context.Context, tc *TestCase) error {
		t.Error("body must not run when navigation fails")
		return nil
	})

	assert.Equal(t, domain.OutcomeFailed, result.Outcome)
	assert.ErrorIs(t, result.Err, domain.ErrNavigation)
	assert.True(t, IsSetupError(result.Err))
	runner.Logger().Info("Navigation failure observed", zap.Error(result.Err))
}
