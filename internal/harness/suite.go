package harness

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/domain"
)

var errTestFailed = errors.New("test failed")

// BaseSuite binds the Runner lifecycle to a testify suite. Embed it and set Runner
// before suite.Run, or leave it nil to get NewDefaultRunner. The session stays live
// through the suite's own TearDownTest and is disposed in the test's cleanup.
//
//	type LoginSuite struct{ harness.BaseSuite }
//
//	func (s *LoginSuite) TestValidLogin() {
//		login, err := page.Init(s.Session(), pages.NewLoginPage)
//		s.Require().NoError(err)
//		...
//	}
type BaseSuite struct {
	suite.Suite

	Runner *Runner

	tc         *TestCase
	ownsRunner bool
}

// SetupSuite creates the default runner when none was injected
func (s *BaseSuite) SetupSuite() {
	if s.Runner != nil {
		return
	}
	r, err := NewDefaultRunner(s.context())
	s.Require().NoError(err, "creating runner")
	s.Runner = r
	s.ownsRunner = true
}

// TearDownSuite flushes metrics of a runner created by SetupSuite
func (s *BaseSuite) TearDownSuite() {
	if s.ownsRunner && s.Runner != nil {
		if err := s.Runner.Close(); err != nil {
			s.T().Logf("closing runner: %v", err)
		}
	}
}

// SetupTest opens and navigates the session for the current test method and
// registers its teardown on the test's cleanup.
func (s *BaseSuite) SetupTest() {
	t := s.T()
	tc, err := s.Runner.Start(s.context(), MethodName(t.Name()))
	s.tc = tc
	t.Cleanup(func() {
		s.finish(t, tc, err)
	})
	s.Require().NoError(err, "test setup")
}

// finish reports the outcome and disposes the session. testify marks a recovered
// panic as a failure only after TearDownTest returns, so the outcome is read in a
// cleanup, once the test function is done.
func (s *BaseSuite) finish(t *testing.T, tc *TestCase, setupErr error) {
	outcome, err := outcomeOf(t)
	if setupErr != nil {
		outcome, err = domain.OutcomeFailed, setupErr
	}

	s.Runner.Finish(context.WithoutCancel(t.Context()), tc, outcome, err)
	if s.tc == tc {
		s.tc = nil
	}
}

func outcomeOf(t *testing.T) (domain.Outcome, error) {
	switch {
	case t.Failed():
		return domain.OutcomeFailed, errTestFailed
	case t.Skipped():
		return domain.OutcomeSkipped, Skip("skipped by test")
	default:
		return domain.OutcomePassed, nil
	}
}

// Session returns the session of the current test
func (s *BaseSuite) Session() browser.Session {
	if s.tc == nil {
		return nil
	}
	return s.tc.Session()
}

// Case returns the state of the current test. It is not named TestCase because
// testify would run it as a test method.
func (s *BaseSuite) Case() *TestCase {
	return s.tc
}

func (s *BaseSuite) context() context.Context {
	if t := s.T(); t != nil {
		return t.Context()
	}
	return context.Background()
}

// MethodName returns the last element of a go test name, so "TestLogin/TestValid"
// becomes "TestValid"
func MethodName(testName string) string {
	if i := strings.LastIndex(testName, "/"); i >= 0 {
		return testName[i+1:]
	}
	return testName
}
