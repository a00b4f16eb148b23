package page

import (
	"errors"
	"reflect"

	"github.com/gymguard/uiharness/internal/browser"
	"github.com/gymguard/uiharness/internal/domain"
)

// Constructor builds a page object bound to a session
type Constructor[T any] func(browser.Session) (T, error)

var (
	errNilSession     = errors.New("session is nil")
	errNilConstructor = errors.New("constructor is nil")
	errNilPage        = errors.New("constructor returned a nil page")
)

// Init builds a page with ctor. Every failure is a PAGE_INSTANTIATION_ERROR naming the page type.
func Init[T any](s browser.Session, ctor Constructor[T]) (T, error) {
	var zero T
	name := TypeName[T]()

	if s == nil {
		return zero, domain.PageInstantiationError(name, errNilSession)
	}
	if ctor == nil {
		return zero, domain.PageInstantiationError(name, errNilConstructor)
	}

	p, err := ctor(s)
	if err != nil {
		return zero, domain.PageInstantiationError(name, err)
	}
	if isNil(p) {
		return zero, domain.PageInstantiationError(name, errNilPage)
	}
	return p, nil
}

// TypeName returns the printable name of T, e.g. "*pages.LoginPage"
func TypeName[T any]() string {
	return reflect.TypeFor[T]().String()
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
