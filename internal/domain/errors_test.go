package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestHarnessError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *HarnessError
		want string
	}{
		{
			name: "error without cause",
			err: &HarnessError{
				Code:    ErrCodeElementNotVisible,
				Message: "element not visible",
			},
			want: "[ELEMENT_NOT_VISIBLE] element not visible",
		},
		{
			name: "error with cause",
			err: &HarnessError{
				Code:    ErrCodeDriverStartup,
				Message: "driver startup failed at launch",
				Cause:   errors.New("chromium missing"),
			},
			want: "[DRIVER_STARTUP_ERROR] driver startup failed at launch: chromium missing",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("HarnessError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestHarnessError_Unwrap(t *testing.T) {
	inner := errors.New("inner error")
	err := DriverStartupError("install", inner)

	if !errors.Is(err, inner) {
		t.Error("Unwrap() should allow errors.Is to find inner error")
	}
}

func TestHarnessError_IsByCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		sentinel error
		want     bool
	}{
		{"config", ConfigLoadError("base.url", "bad"), ErrConfigLoad, true},
		{"driver", DriverStartupError("run", errors.New("x")), ErrDriverStartup, true},
		{"navigation", NavigationError("http://x", errors.New("x")), ErrNavigation, true},
		{"page", PageInstantiationError("*pages.LoginPage", nil), ErrPageInstantiation, true},
		{"not visible", ElementNotVisibleError("#a", nil), ErrElementNotVisible, true},
		{"interaction", ElementInteractionError("click", "#a", nil), ErrElementInteraction, true},
		{"screenshot", ScreenshotError("t", nil), ErrScreenshot, true},
		{"mismatch", ElementNotVisibleError("#a", nil), ErrDriverStartup, false},
		{"wrapped", fmt.Errorf("setup: %w", DriverStartupError("launch", nil)), ErrDriverStartup, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.sentinel); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestHarnessError_Metadata(t *testing.T) {
	err := ElementInteractionError("click", "#submit", nil)

	if err.Metadata["action"] != "click" {
		t.Errorf("Metadata[action] = %v, want click", err.Metadata["action"])
	}
	if err.Metadata["selector"] != "#submit" {
		t.Errorf("Metadata[selector] = %v, want #submit", err.Metadata["selector"])
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := GetErrorCode(fmt.Errorf("wrap: %w", PageInstantiationError("X", nil))); got != ErrCodePageInstantiation {
		t.Errorf("GetErrorCode() = %q, want %q", got, ErrCodePageInstantiation)
	}
	if got := GetErrorCode(errors.New("plain")); got != "" {
		t.Errorf("GetErrorCode(plain) = %q, want empty", got)
	}
}
