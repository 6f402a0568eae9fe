package obj

import "iter"

// Suggester yields candidate values for a Magic, best first.
type Suggester func(m *Magic) iter.Seq[any]

// Magic is an object whose value is computed rather than read. A "value"
// argument pins the value and bypasses the suggester.
type Magic struct {
	Base
	suggest Suggester
}

// NewMagic builds a Magic over cfg.
func NewMagic(cfg Config, s Suggester) *Magic {
	return &Magic{Base: NewBase(cfg), suggest: s}
}

// MagicClass returns a Factory building Magic objects with s.
func MagicClass(s Suggester) Factory {
	return func(cfg Config) (Object, error) {
		return NewMagic(cfg, s), nil
	}
}

// Suggestions yields candidate values, best first.
func (m *Magic) Suggestions() iter.Seq[any] {
	if v, ok := m.Args()["value"]; ok {
		return func(yield func(any) bool) { yield(v) }
	}
	if m.suggest == nil {
		return func(func(any) bool) {}
	}
	return m.suggest(m)
}

// Best returns the first suggestion.
func (m *Magic) Best() Maybe[any] {
	for v := range m.Suggestions() {
		return Some(v)
	}
	return None[any]("%s: no suggestions", m.TypeName())
}

func (m *Magic) Size() int         { return 0 }
func (m *Magic) Value() Maybe[any] { return m.Best() }
func (m *Magic) IsValid() bool     { return m.Best().OK() }
func (m *Magic) String() string    { return m.Best().String() }
