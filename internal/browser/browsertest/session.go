// Package browsertest provides an in-memory browser.Session for unit tests.
package browsertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gymguard/uiharness/internal/browser"
)

// ErrNotVisible is returned by WaitVisible when the element is missing or hidden
var ErrNotVisible = errors.New("browsertest: element not visible within timeout")

// PNG is a minimal payload returned by Screenshot by default
var PNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// ElementState describes one fake DOM node
type ElementState struct {
	Visible bool
	Text    string
	Value   string
}

// Session is a fake browser.Session and browser.Screenshotter.
// Every action is appended to Actions so tests can assert on ordering.
type Session struct {
	mu sync.Mutex

	id       string
	url      string
	headless bool
	timeouts browser.Timeouts
	elements map[string]*ElementState
	onClick  map[string]func(*Session)
	actions  []string
	closed   bool

	NavigateErr    error
	CloseErr       error
	ScreenshotData []byte
	ScreenshotErr  error
}

// Option configures a fake Session
type Option func(*Session)

// WithHeadless marks the session as headless
func WithHeadless(headless bool) Option {
	return func(s *Session) {
		s.headless = headless
	}
}

// WithTimeouts sets the reported timeouts
func WithTimeouts(t browser.Timeouts) Option {
	return func(s *Session) {
		s.timeouts = t
	}
}

// NewSession returns an empty fake page at about:blank
func NewSession(opts ...Option) *Session {
	s := &Session{
		id:  uuid.NewString(),
		url: "about:blank",
		timeouts: browser.Timeouts{
			Implicit:   5 * time.Second,
			Visibility: 10 * time.Second,
		},
		elements:       make(map[string]*ElementState),
		onClick:        make(map[string]func(*Session)),
		ScreenshotData: PNG,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithoutScreenshots hides the Screenshotter capability of s
func WithoutScreenshots(s *Session) browser.Session {
	return struct{ browser.Session }{s}
}

// SetElement adds or replaces the node matching selector
func (s *Session) SetElement(selector string, state ElementState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := state
	s.elements[selector] = &st
}

// RemoveElement deletes the node matching selector
func (s *Session) RemoveElement(selector string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.elements, selector)
}

// Element returns the current state of the node matching selector
func (s *Session) Element(selector string) (ElementState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.elements[selector]
	if !ok {
		return ElementState{}, false
	}
	return *st, true
}

// OnClick registers a hook run after the element matching selector is clicked
func (s *Session) OnClick(selector string, fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onClick[selector] = fn
}

// SetURL changes the current page URL without recording a navigation
func (s *Session) SetURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.url = url
}

// Actions returns a copy of the recorded actions
func (s *Session) Actions() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.actions...)
}

// Closed reports whether Close has been called
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func (s *Session) record(format string, args ...any) {
	s.actions = append(s.actions, fmt.Sprintf(format, args...))
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Headless() bool {
	return s.headless
}

func (s *Session) Timeouts() browser.Timeouts {
	return s.timeouts
}

func (s *Session) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("navigate %s", url)
	if s.NavigateErr != nil {
		return s.NavigateErr
	}
	s.url = url
	return nil
}

func (s *Session) Find(selector string) browser.Element {
	return &Element{session: s, selector: selector}
}

func (s *Session) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("screenshot")
	if s.closed {
		return nil, errors.New("browsertest: session closed")
	}
	if s.ScreenshotErr != nil {
		return nil, s.ScreenshotErr
	}
	return s.ScreenshotData, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("close")
	s.closed = true
	return s.CloseErr
}

// Element is a lazy fake element; the selector is looked up on every call
type Element struct {
	session  *Session
	selector string
}

func (e *Element) Selector() string {
	return e.selector
}

// resolve returns the live node, or an error when it is absent, hidden or closed
func (e *Element) resolve(ctx context.Context) (*ElementState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if e.session.closed {
		return nil, errors.New("browsertest: session closed")
	}
	st, ok := e.session.elements[e.selector]
	if !ok || !st.Visible {
		return nil, ErrNotVisible
	}
	return st, nil
}

func (e *Element) WaitVisible(ctx context.Context, timeout time.Duration) error {
	s := e.session
	s.mu.Lock()
	defer s.mu.Unlock()
	s.record("wait %s %s", e.selector, timeout)
	_, err := e.resolve(ctx)
	return err
}

func (e *Element) Click(ctx context.Context) error {
	s := e.session
	s.mu.Lock()
	if _, err := e.resolve(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	s.record("click %s", e.selector)
	hook := s.onClick[e.selector]
	s.mu.Unlock()

	if hook != nil {
		hook(s)
	}
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	s := e.session
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := e.resolve(ctx)
	if err != nil {
		return err
	}
	s.record("clear %s", e.selector)
	st.Value = ""
	return nil
}

func (e *Element) Type(ctx context.Context, text string) error {
	s := e.session
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := e.resolve(ctx)
	if err != nil {
		return err
	}
	s.record("type %s %s", e.selector, text)
	st.Value += text
	return nil
}

func (e *Element) Text(ctx context.Context) (string, error) {
	s := e.session
	s.mu.Lock()
	defer s.mu.Unlock()
	st, err := e.resolve(ctx)
	if err != nil {
		return "", err
	}
	return st.Text, nil
}
