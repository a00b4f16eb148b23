package page

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/browser/browsertest"
	"github.com/gymguard/uiharness/internal/domain"
)

type samplePage struct {
	Base
	field browser.Element
}

func newSamplePage(s browser.Session) (*samplePage, error) {
	b := NewBase(s)
	return &samplePage{Base: b, field: b.Element("#field")}, nil
}

func TestInit(t *testing.T) {
	s := browsertest.NewSession()

	p, err := Init(s, newSamplePage)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Same(t, s, p.Session().(*browsertest.Session))
	assert.Equal(t, "#field", p.field.Selector())
}

func TestInit_Errors(t *testing.T) {
	ctorErr := errors.New("boom")

	tests := []struct {
		name    string
		session browser.Session
		ctor    Constructor[*samplePage]
		cause   error
	}{
		{
			name:    "nil session",
			session: nil,
			ctor:    newSamplePage,
			cause:   errNilSession,
		},
		{
			name:    "nil constructor",
			session: browsertest.NewSession(),
			ctor:    nil,
			cause:   errNilConstructor,
		},
		{
			name:    "constructor error",
			session: browsertest.NewSession(),
			ctor:    func(browser.Session) (*samplePage, error) { return nil, ctorErr },
			cause:   ctorErr,
		},
		{
			name:    "nil page",
			session: browsertest.NewSession(),
			ctor:    func(browser.Session) (*samplePage, error) { return nil, nil },
			cause:   errNilPage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Init(tt.session, tt.ctor)

			require.Error(t, err)
			assert.Nil(t, p)
			assert.True(t, errors.Is(err, domain.ErrPageInstantiation))
			assert.True(t, errors.Is(err, tt.cause))

			hErr, ok := domain.AsHarnessError(err)
			require.True(t, ok)
			assert.Equal(t, "*page.samplePage", hErr.Metadata["page"])
		})
	}
}

func TestBase_ClearAndType(t *testing.T) {
	s := browsertest.NewSession()
	s.SetElement("#field", browsertest.ElementState{Visible: true, Value: "old"})
	p, err := Init(s, newSamplePage)
	require.NoError(t, err)

	require.NoError(t, p.ClearAndType(context.Background(), p.field, "new"))

	st, _ := s.Element("#field")
	assert.Equal(t, "new", st.Value)
	assert.Equal(t, []string{
		"wait #field 10s",
		"clear #field",
		"type #field new",
	}, s.Actions())
}

func TestBase_Click_WaitsWithDefaultTimeout(t *testing.T) {
	s := browsertest.NewSession(browsertest.WithTimeouts(browser.Timeouts{
		Implicit:   time.Second,
		Visibility: 3 * time.Second,
	}))
	s.SetElement("#field", browsertest.ElementState{Visible: true})
	p, err := Init(s, newSamplePage)
	require.NoError(t, err)

	require.NoError(t, p.Click(context.Background(), p.field))
	assert.Equal(t, []string{"wait #field 3s", "click #field"}, s.Actions())
}

func TestBase_NotVisible(t *testing.T) {
	s := browsertest.NewSession()
	s.SetElement("#field", browsertest.ElementState{Visible: false})
	p, err := Init(s, newSamplePage)
	require.NoError(t, err)
	ctx := context.Background()

	err = p.Click(ctx, p.field)
	assert.True(t, errors.Is(err, domain.ErrElementNotVisible))

	_, err = p.ElementText(ctx, p.field)
	assert.True(t, errors.Is(err, domain.ErrElementNotVisible))

	err = p.WaitForVisible(ctx, p.Element("#missing"), time.Second)
	assert.True(t, errors.Is(err, domain.ErrElementNotVisible))
	assert.True(t, errors.Is(err, browsertest.ErrNotVisible))
}

func TestBase_LazyResolution(t *testing.T) {
	s := browsertest.NewSession()
	p, err := Init(s, newSamplePage)
	require.NoError(t, err)

	// Bound before the element exists, resolved when used
	s.SetElement("#field", browsertest.ElementState{Visible: true, Text: "hello"})

	text, err := p.ElementText(context.Background(), p.field)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)

	s.SetElement("#field", browsertest.ElementState{Visible: true, Text: "replaced"})
	text, err = p.ElementText(context.Background(), p.field)
	require.NoError(t, err)
	assert.Equal(t, "replaced", text)
}

func TestBase_WaitForURL(t *testing.T) {
	s := browsertest.NewSession()
	s.SetURL("http://localhost:3000/login")
	p, err := Init(s, newSamplePage)
	require.NoError(t, err)

	go func() {
		time.Sleep(120 * time.Millisecond)
		s.SetURL("http://localhost:3000/dashboard")
	}()

	err = p.WaitForURL(context.Background(), func(url string) bool {
		return strings.HasSuffix(url, "/dashboard")
	}, 2*time.Second)
	assert.NoError(t, err)
}

func TestBase_WaitForURL_Timeout(t *testing.T) {
	s := browsertest.NewSession()
	s.SetURL("http://localhost:3000/login")
	p, err := Init(s, newSamplePage)
	require.NoError(t, err)

	err = p.WaitForURL(context.Background(), func(url string) bool {
		return false
	}, 100*time.Millisecond)

	assert.True(t, errors.Is(err, domain.ErrNavigation))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}
