package harness

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/browser/browsertest"
	"github.com/gymguard/uiharness/internal/config"
	"github.com/gymguard/uiharness/internal/page"
	"github.com/gymguard/uiharness/internal/pages"
)

// renderLoginForm makes a fake session behave like the login screen
func renderLoginForm(s *browsertest.Session) {
	s.SetElement(pages.LoginEmailSelector, browsertest.ElementState{Visible: true})
	s.SetElement(pages.LoginPasswordSelector, browsertest.ElementState{Visible: true})
	s.SetElement(pages.LoginSubmitSelector, browsertest.ElementState{Visible: true})
	s.OnClick(pages.LoginSubmitSelector, func(s *browsertest.Session) {
		password, _ := s.Element(pages.LoginPasswordSelector)
		if password.Value == "Password123" {
			s.SetURL(testBaseURL + "/dashboard")
			return
		}
		s.SetElement(pages.LoginErrorSelector, browsertest.ElementState{Visible: true, Text: "Invalid credentials"})
	})
}

type loginSuite struct {
	BaseSuite

	ran []string
}

func (s *loginSuite) TestValidLogin() {
	s.ran = append(s.ran, "TestValidLogin")
	s.Require().NotNil(s.Session())
	s.Equal("TestValidLogin", s.Case().Name())

	login, err := page.Init(s.Session(), pages.NewLoginPage)
	s.Require().NoError(err)

	dashboard, err := login.Login(s.T().Context(), "user@example.com", "Password123")
	s.Require().NoError(err)
	s.Same(s.Session(), dashboard.Session())
	s.False(strings.HasSuffix(s.Session().URL(), "/login"))
}

func (s *loginSuite) TestInvalidLoginShowsError() {
	s.ran = append(s.ran, "TestInvalidLoginShowsError")

	login, err := page.Init(s.Session(), pages.NewLoginPage)
	s.Require().NoError(err)

	_, err = login.Login(s.T().Context(), "user@example.com", "wrong")
	s.Require().NoError(err)

	msg, err := login.ErrorMessage(s.T().Context())
	s.Require().NoError(err)
	s.Contains(msg, "Invalid credentials")
}

func (s *loginSuite) TestSkipped() {
	s.ran = append(s.ran, "TestSkipped")
	s.T().Skip("not applicable")
}

func TestBaseSuite(t *testing.T) {
	factory := &browsertest.Factory{Prepare: renderLoginForm}
	listener := &recordingListener{}
	runner, cfg := newTestRunner(t, factory,
		WithLogger(zap.NewNop()),
		WithListeners(listener, NewScreenshotListener(nil, zap.NewNop())),
	)

	s := &loginSuite{BaseSuite: BaseSuite{Runner: runner}}
	suite.Run(t, s)

	assert.ElementsMatch(t, []string{"TestValidLogin", "TestInvalidLoginShowsError", "TestSkipped"}, s.ran)

	sessions := factory.Sessions()
	require.Len(t, sessions, 3, "one session per test method")
	for _, session := range sessions {
		assert.True(t, session.Closed())
	}
	assert.Nil(t, s.Session(), "no session outlives its test")
	assert.Empty(t, screenshots(t, cfg.ScreenshotDir), "passing tests never capture")

	events := listener.Events()
	assert.Contains(t, events, "success TestValidLogin")
	assert.Contains(t, events, "success TestInvalidLoginShowsError")
	assert.Contains(t, events, "skipped TestSkipped")
}

// failingSuiteDirEnv makes TestFailingSuite run and write its screenshots to the given dir
const failingSuiteDirEnv = "UIHARNESS_FAILING_SUITE_DIR"

type failingSuite struct {
	BaseSuite
}

func (s *failingSuite) TestAssertionFails() {
	s.Require().NotNil(s.Session())
	s.Fail("dashboard not reached")
}

func (s *failingSuite) TestPanics() {
	var visits map[string]int
	visits["dashboard"]++
}

func (s *failingSuite) TestPasses() {
	s.NotNil(s.Session())
}

// TestFailingSuite fails on purpose. It only runs as the child process started by
// TestBaseSuite_FailuresLeaveScreenshots.
func TestFailingSuite(t *testing.T) {
	dir := os.Getenv(failingSuiteDirEnv)
	if dir == "" {
		t.Skip("runs only in a child process")
	}

	cfg := config.Default()
	cfg.BaseURL = testBaseURL
	cfg.ScreenshotDir = dir

	factory := &browsertest.Factory{}
	runner := NewRunner(
		WithConfig(cfg),
		WithFactory(factory),
		WithLogger(zap.NewNop()),
		WithListeners(NewScreenshotListener(nil, zap.NewNop())),
	)

	suite.Run(t, &failingSuite{BaseSuite: BaseSuite{Runner: runner}})

	closed := 0
	for _, session := range factory.Sessions() {
		if session.Closed() {
			closed++
		}
	}
	summary := fmt.Sprintf("%d/%d", closed, len(factory.Sessions()))
	if err := os.WriteFile(filepath.Join(dir, "sessions"), []byte(summary), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBaseSuite_FailuresLeaveScreenshots(t *testing.T) {
	if testing.Short() {
		t.Skip("starts a child test process")
	}
	dir := t.TempDir()

	cmd := exec.Command(os.Args[0], "-test.run=^TestFailingSuite$", "-test.v")
	cmd.Env = append(os.Environ(), failingSuiteDirEnv+"="+dir)
	out, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	require.True(t, errors.As(err, &exitErr), "failing suite must fail the child process:\n%s", out)
	assert.Contains(t, string(out), "--- FAIL: TestFailingSuite/TestAssertionFails")
	assert.Contains(t, string(out), "--- FAIL: TestFailingSuite/TestPanics")
	assert.Contains(t, string(out), "--- PASS: TestFailingSuite/TestPasses")

	files := screenshots(t, dir)
	require.Len(t, files, 2, "one screenshot per failing method:\n%s", out)
	for _, prefix := range []string{"TestAssertionFails-", "TestPanics-"} {
		found := false
		for _, f := range files {
			found = found || strings.HasPrefix(f, prefix)
		}
		assert.True(t, found, "missing screenshot for %s", prefix)
	}

	sessions, err := os.ReadFile(filepath.Join(dir, "sessions"))
	require.NoError(t, err, "child did not report its sessions:\n%s", out)
	assert.Equal(t, "3/3", string(sessions), "every session closed")
}
