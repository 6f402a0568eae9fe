package obj

import (
	"cmp"
	"fmt"
)

// Maybe is either a decoded value or a reason why there is none. The zero
// Maybe is empty with no reason.
type Maybe[T any] struct {
	val    T
	reason string
	ok     bool
}

// Some wraps a present value.
func Some[T any](v T) Maybe[T] {
	return Maybe[T]{val: v, ok: true}
}

// None returns an empty result carrying a diagnostic.
func None[T any](format string, args ...any) Maybe[T] {
	return Maybe[T]{reason: fmt.Sprintf(format, args...)}
}

// NoneFrom carries another result's reason over to a different value type.
func NoneFrom[T, U any](m Maybe[U]) Maybe[T] {
	return Maybe[T]{reason: m.reason}
}

// Get returns the value and whether it is present.
func (m Maybe[T]) Get() (T, bool) { return m.val, m.ok }

// OK reports whether a value is present.
func (m Maybe[T]) OK() bool { return m.ok }

// Or returns the value, or def when absent.
func (m Maybe[T]) Or(def T) T {
	if m.ok {
		return m.val
	}
	return def
}

// Reason returns the diagnostic of an empty result, or "" when present.
func (m Maybe[T]) Reason() string {
	if m.ok {
		return ""
	}
	return m.reason
}

// String renders the value, or "" when absent.
func (m Maybe[T]) String() string {
	if !m.ok {
		return ""
	}
	if s, ok := any(m.val).(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(m.val)
}

// Render renders the value with verb, or "-" when absent.
func (m Maybe[T]) Render(verb string) string {
	if !m.ok {
		return "-"
	}
	return fmt.Sprintf(verb, m.val)
}

// Map applies fn to a present value; an empty result passes through with its reason.
func Map[T, U any](m Maybe[T], fn func(T) U) Maybe[U] {
	if !m.ok {
		return NoneFrom[U](m)
	}
	return Some(fn(m.val))
}

// Compare orders two results. ok is false when either side is empty.
func Compare[T cmp.Ordered](a, b Maybe[T]) (c int, ok bool) {
	if !a.ok || !b.ok {
		return 0, false
	}
	return cmp.Compare(a.val, b.val), true
}
