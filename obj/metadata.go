package obj

import (
	"fmt"
	"reflect"
)

// Well-known metadata keys.
const (
	MetaOS          = "os"
	MetaMajor       = "major"
	MetaMinor       = "minor"
	MetaBuild       = "build"
	MetaMemoryModel = "memory_model"
	MetaProduct     = "product"
	MetaVTypeModule = "vtype_module"
	MetaEndian      = "endian"
)

// Metadata describes the system a profile targets.
type Metadata map[string]any

// Clone returns a shallow copy.
func (m Metadata) Clone() Metadata {
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns a string entry.
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	return s, ok
}

// Int returns an integer entry of any width.
func (m Metadata) Int(key string) (int64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// Condition is a predicate over one metadata value.
type Condition func(v any) bool

// Conditions maps metadata keys to predicates.
type Conditions map[string]Condition

// Match reports whether every predicate accepts its metadata value. A key
// missing from md fails the match.
func (c Conditions) Match(md Metadata) bool {
	for key, pred := range c {
		v, ok := md[key]
		if !ok || pred == nil || !pred(v) {
			return false
		}
	}
	return true
}

// Equals matches values equal to want. Integers compare by value regardless
// of width, so a TOML int64 matches a Go int.
func Equals(want any) Condition {
	return func(v any) bool { return valuesEqual(v, want) }
}

// OneOf matches any of vals.
func OneOf(vals ...any) Condition {
	return func(v any) bool {
		for _, want := range vals {
			if valuesEqual(v, want) {
				return true
			}
		}
		return false
	}
}

// AtLeast matches integers >= n.
func AtLeast(n int64) Condition {
	return func(v any) bool {
		got, ok := toInt64(v)
		return ok && got >= n
	}
}

// AtMost matches integers <= n.
func AtMost(n int64) Condition {
	return func(v any) bool {
		got, ok := toInt64(v)
		return ok && got <= n
	}
}

func valuesEqual(a, b any) bool {
	ai, aok := toInt64(a)
	bi, bok := toInt64(b)
	if aok && bok {
		return ai == bi
	}
	if aok != bok {
		return false
	}
	if as, ok := a.(string); ok {
		bs, ok := b.(string)
		return ok && as == bs
	}
	return reflect.DeepEqual(a, b)
}

func (m Metadata) describe() string {
	os, _ := m.String(MetaOS)
	model, _ := m.String(MetaMemoryModel)
	major, _ := m.Int(MetaMajor)
	minor, _ := m.Int(MetaMinor)
	return fmt.Sprintf("%s %d.%d %s", os, major, minor, model)
}
