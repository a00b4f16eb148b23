package browser

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gymguard/uiharness/internal/config"
	"github.com/gymguard/uiharness/internal/domain"
)

func newTestFactory(opts ...FactoryOption) *Factory {
	return NewFactory(zap.NewNop(), opts...)
}

func TestFactory_Create_InstallFailure(t *testing.T) {
	cause := errors.New("driver download failed")
	f := newTestFactory()
	f.install = func(*playwright.RunOptions) error { return cause }
	f.run = func(*playwright.RunOptions) (*playwright.Playwright, error) {
		t.Fatal("run must not be called after a failed install")
		return nil, nil
	}

	s, err := f.Create(context.Background(), config.Default())

	require.Error(t, err)
	assert.Nil(t, s)
	assert.True(t, errors.Is(err, domain.ErrDriverStartup))
	assert.True(t, errors.Is(err, cause), "original cause must be preserved")

	hErr, ok := domain.AsHarnessError(err)
	require.True(t, ok)
	assert.Equal(t, "install", hErr.Metadata["stage"])
}

func TestFactory_Create_RunFailure(t *testing.T) {
	cause := errors.New("driver binary unavailable")
	installed := false

	f := newTestFactory(WithPreinstalled(true))
	f.install = func(*playwright.RunOptions) error {
		installed = true
		return nil
	}
	f.run = func(o *playwright.RunOptions) (*playwright.Playwright, error) {
		assert.Equal(t, []string{"chromium"}, o.Browsers)
		return nil, cause
	}

	s, err := f.Create(context.Background(), config.Default())

	require.Error(t, err)
	assert.Nil(t, s)
	assert.False(t, installed, "preinstalled factories skip installation")
	assert.True(t, errors.Is(err, domain.ErrDriverStartup))
	assert.True(t, errors.Is(err, cause))
}

func TestFactory_Create_CancelledContext(t *testing.T) {
	f := newTestFactory()
	f.install = func(*playwright.RunOptions) error {
		t.Fatal("install must not be called with a cancelled context")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.Create(ctx, config.Default())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDriverStartup))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestLaunchOptions(t *testing.T) {
	t.Run("headless", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headless = true

		opts := launchOptions(cfg)
		require.NotNil(t, opts.Headless)
		assert.True(t, *opts.Headless)
		assert.Equal(t, []string{"--window-size=1920,1080"}, opts.Args)
	})

	t.Run("headed", func(t *testing.T) {
		opts := launchOptions(config.Default())
		require.NotNil(t, opts.Headless)
		assert.False(t, *opts.Headless)
		assert.Equal(t, []string{"--start-maximized"}, opts.Args)
	})
}

func TestContextOptions(t *testing.T) {
	t.Run("headless pins viewport", func(t *testing.T) {
		cfg := config.Default()
		cfg.Headless = true

		opts := contextOptions(cfg)
		require.NotNil(t, opts.Viewport)
		assert.Equal(t, HeadlessWidth, opts.Viewport.Width)
		assert.Equal(t, HeadlessHeight, opts.Viewport.Height)
		assert.Nil(t, opts.NoViewport)
	})

	t.Run("headed uses window size", func(t *testing.T) {
		opts := contextOptions(config.Default())
		assert.Nil(t, opts.Viewport)
		require.NotNil(t, opts.NoViewport)
		assert.True(t, *opts.NoViewport)
	})
}

func TestMillis(t *testing.T) {
	assert.Equal(t, 1.0, *millis(0))
	assert.Equal(t, 5000.0, *millis(5*time.Second))
}

func TestTimeoutFor(t *testing.T) {
	assert.Equal(t, 10*time.Second, timeoutFor(context.Background(), 10*time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	got := timeoutFor(ctx, 10*time.Second)
	assert.LessOrEqual(t, got, time.Second)
	assert.Greater(t, got, time.Duration(0))
}

func TestElement_ActionTimeoutUsesImplicitWait(t *testing.T) {
	s := &pwSession{timeouts: Timeouts{Implicit: 2 * time.Second, Visibility: 10 * time.Second}}
	e := s.Find("#submit").(*pwElement)

	assert.Equal(t, 2000.0, *e.actionTimeout(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	assert.LessOrEqual(t, *e.actionTimeout(ctx), 500.0, "context deadline still bounds the action")

	s.timeouts.Implicit = 0
	assert.Equal(t, 1.0, *e.actionTimeout(context.Background()), "zero implicit wait fails fast")
}

func TestCanScreenshot_Nil(t *testing.T) {
	_, ok := CanScreenshot(nil)
	assert.False(t, ok)
}
