// Package invariant provides contract assertions for states that a correct
// compiler never reaches. A failed assertion is a compiler bug, not a user
// error, so every helper panics instead of returning an error.
package invariant

import (
	"fmt"
	"reflect"
)

// ViolationError is the panic value raised by a failed assertion.
type ViolationError struct {
	Kind    string // "precondition", "postcondition", "invariant", "unreachable"
	Message string
}

func (e *ViolationError) Error() string {
	return fmt.Sprintf("%s violated: %s", e.Kind, e.Message)
}

func fail(kind, format string, args ...any) {
	panic(&ViolationError{Kind: kind, Message: fmt.Sprintf(format, args...)})
}

// Precondition panics if an input contract does not hold.
func Precondition(cond bool, format string, args ...any) {
	if !cond {
		fail("precondition", format, args...)
	}
}

// Postcondition panics if an output contract does not hold.
func Postcondition(cond bool, format string, args ...any) {
	if !cond {
		fail("postcondition", format, args...)
	}
}

// Invariant panics if an internal consistency check does not hold.
func Invariant(cond bool, format string, args ...any) {
	if !cond {
		fail("invariant", format, args...)
	}
}

// NotNil panics if v is nil, including typed nil pointers, maps and slices.
func NotNil(v any, name string) {
	if v == nil {
		fail("precondition", "%s must not be nil", name)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		if rv.IsNil() {
			fail("precondition", "%s must not be nil", name)
		}
	}
}

// Unreachable panics unconditionally. Use it for switch arms that the type
// checker rules out.
func Unreachable(format string, args ...any) {
	fail("unreachable", format, args...)
}
