package domain

import (
	"errors"
	"fmt"
)

// Error codes for categorization
const (
	// Setup errors (fail the test before its body runs)
	ErrCodeConfigLoad        = "CONFIG_LOAD_ERROR"
	ErrCodeDriverStartup     = "DRIVER_STARTUP_ERROR"
	ErrCodeNavigation        = "NAVIGATION_ERROR"
	ErrCodePageInstantiation = "PAGE_INSTANTIATION_ERROR"

	// Interaction errors (surfaced to the test body)
	ErrCodeElementNotVisible  = "ELEMENT_NOT_VISIBLE"
	ErrCodeElementInteraction = "ELEMENT_INTERACTION_ERROR"

	// Diagnostics errors (logged, never surfaced)
	ErrCodeScreenshot = "SCREENSHOT_ERROR"
)

// HarnessError is the error type shared by every harness component
type HarnessError struct {
	// Error code for programmatic handling
	Code string `json:"code"`

	// Human-readable message
	Message string `json:"message"`

	// Original error (for error wrapping)
	Cause error `json:"-"`

	// Metadata for additional context (selector, page type, url...)
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Error implements the error interface
func (e *HarnessError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *HarnessError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is for error comparison by code
func (e *HarnessError) Is(target error) bool {
	t, ok := target.(*HarnessError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithCause adds the underlying cause
func (e *HarnessError) WithCause(err error) *HarnessError {
	e.Cause = err
	return e
}

// WithMetadata adds metadata to the error
func (e *HarnessError) WithMetadata(key string, value any) *HarnessError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]any)
	}
	e.Metadata[key] = value
	return e
}

// NewError creates a new HarnessError
func NewError(code, message string) *HarnessError {
	return &HarnessError{
		Code:    code,
		Message: message,
	}
}

// Sentinel errors for comparison (used with errors.Is)
var (
	ErrConfigLoad         = NewError(ErrCodeConfigLoad, "config load failed")
	ErrDriverStartup      = NewError(ErrCodeDriverStartup, "driver startup failed")
	ErrNavigation         = NewError(ErrCodeNavigation, "navigation failed")
	ErrPageInstantiation  = NewError(ErrCodePageInstantiation, "page instantiation failed")
	ErrElementNotVisible  = NewError(ErrCodeElementNotVisible, "element not visible")
	ErrElementInteraction = NewError(ErrCodeElementInteraction, "element interaction failed")
	ErrScreenshot         = NewError(ErrCodeScreenshot, "screenshot failed")
)

// Error constructors

func ConfigLoadError(key, message string) *HarnessError {
	return NewError(ErrCodeConfigLoad, fmt.Sprintf("%s: %s", key, message)).
		WithMetadata("key", key)
}

func DriverStartupError(stage string, err error) *HarnessError {
	return NewError(ErrCodeDriverStartup, fmt.Sprintf("driver startup failed at %s", stage)).
		WithCause(err).
		WithMetadata("stage", stage)
}

func NavigationError(url string, err error) *HarnessError {
	return NewError(ErrCodeNavigation, fmt.Sprintf("navigating to %s", url)).
		WithCause(err).
		WithMetadata("url", url)
}

func PageInstantiationError(pageType string, err error) *HarnessError {
	return NewError(ErrCodePageInstantiation, fmt.Sprintf("failed to instantiate page %s", pageType)).
		WithCause(err).
		WithMetadata("page", pageType)
}

func ElementNotVisibleError(selector string, err error) *HarnessError {
	return NewError(ErrCodeElementNotVisible, fmt.Sprintf("element %q not visible", selector)).
		WithCause(err).
		WithMetadata("selector", selector)
}

func ElementInteractionError(action, selector string, err error) *HarnessError {
	return NewError(ErrCodeElementInteraction, fmt.Sprintf("%s on %q failed", action, selector)).
		WithCause(err).
		WithMetadata("action", action).
		WithMetadata("selector", selector)
}

func ScreenshotError(name string, err error) *HarnessError {
	return NewError(ErrCodeScreenshot, fmt.Sprintf("capturing screenshot %q", name)).
		WithCause(err).
		WithMetadata("name", name)
}

// Helper functions

// AsHarnessError converts an error to HarnessError if possible
func AsHarnessError(err error) (*HarnessError, bool) {
	var hErr *HarnessError
	if errors.As(err, &hErr) {
		return hErr, true
	}
	return nil, false
}

// GetErrorCode returns the error code for an error, or "" for foreign errors
func GetErrorCode(err error) string {
	if hErr, ok := AsHarnessError(err); ok {
		return hErr.Code
	}
	return ""
}
