package obj

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Built-in descriptor names understood by Instantiate without a profile entry.
const (
	TypePointer   = "pointer"
	TypePointer32 = "pointer32"
	TypePointer64 = "pointer64"
	TypeArray     = "array"
	TypeVoid      = "void"
	TypeBitField  = "BitField"
)

// TypeDesc describes the type of a field: a type name plus, for pointers and
// arrays, the target type, and for object classes, keyword arguments.
//
// The serialized form is the nested list used by type tables:
//
//	["unsigned long"]
//	["pointer", ["_LIST_ENTRY"]]
//	["array", 16, ["unsigned char"]]
//	["String", {"length": 16, "encoding": "utf16"}]
type TypeDesc struct {
	Name   string
	Target *TypeDesc // pointer target or array element
	Count  int       // array length
	Args   Args
}

// Type returns a bare descriptor for name.
func Type(name string) TypeDesc { return TypeDesc{Name: name} }

// TypeWith returns a descriptor for an object class with keyword arguments.
func TypeWith(name string, args Args) TypeDesc { return TypeDesc{Name: name, Args: args} }

// PointerTo returns a native-width pointer descriptor.
func PointerTo(target TypeDesc) TypeDesc {
	return TypeDesc{Name: TypePointer, Target: &target}
}

// ArrayOf returns an array descriptor of n elements.
func ArrayOf(n int, elem TypeDesc) TypeDesc {
	return TypeDesc{Name: TypeArray, Count: n, Target: &elem}
}

// IsPointer reports whether the descriptor is one of the pointer forms.
func (d TypeDesc) IsPointer() bool {
	return d.Name == TypePointer || d.Name == TypePointer32 || d.Name == TypePointer64
}

// Clone returns a deep copy.
func (d TypeDesc) Clone() TypeDesc {
	out := TypeDesc{Name: d.Name, Count: d.Count, Args: d.Args.Clone()}
	if d.Target != nil {
		t := d.Target.Clone()
		out.Target = &t
	}
	return out
}

func (d TypeDesc) String() string {
	switch {
	case d.IsPointer() && d.Target != nil:
		return d.Name + " -> " + d.Target.String()
	case d.Name == TypeArray && d.Target != nil:
		return fmt.Sprintf("%s[%d]", d.Target.String(), d.Count)
	case len(d.Args) > 0:
		return d.Name + d.Args.format()
	default:
		return d.Name
	}
}

// Encode returns the nested-list form. Length callbacks cannot be encoded and
// are dropped; LengthOf members encode as their member name.
func (d TypeDesc) Encode() []any {
	out := []any{d.Name}
	switch {
	case d.IsPointer() && d.Target != nil:
		out = append(out, d.Target.Encode())
	case d.Name == TypeArray && d.Target != nil:
		out = append(out, int64(d.Count), d.Target.Encode())
	}
	if len(d.Args) > 0 {
		out = append(out, d.Args.encode())
	}
	return out
}

// ParseTypeDesc decodes the nested-list form. A bare string is accepted as a
// descriptor with no arguments.
func ParseTypeDesc(v any) (TypeDesc, error) {
	switch t := v.(type) {
	case TypeDesc:
		return t, nil
	case string:
		return Type(t), nil
	case []string:
		items := make([]any, len(t))
		for i, s := range t {
			items[i] = s
		}
		return ParseTypeDesc(items)
	case []any:
		return parseList(t)
	default:
		return TypeDesc{}, newError(KindMalformed, fmt.Sprintf("type descriptor: unexpected %T", v), nil)
	}
}

func parseList(items []any) (TypeDesc, error) {
	if len(items) == 0 {
		return TypeDesc{}, newError(KindMalformed, "type descriptor: empty list", nil)
	}
	name, ok := items[0].(string)
	if !ok || name == "" {
		return TypeDesc{}, newError(KindMalformed, fmt.Sprintf("type descriptor: name must be a string, got %T", items[0]), nil)
	}
	d := TypeDesc{Name: name}
	rest := items[1:]

	if d.IsPointer() && len(rest) > 0 {
		if _, isArgs := asMap(rest[0]); !isArgs {
			target, err := ParseTypeDesc(rest[0])
			if err != nil {
				return TypeDesc{}, fmt.Errorf("pointer target: %w", err)
			}
			d.Target = &target
			rest = rest[1:]
		}
	}
	if name == TypeArray {
		if len(rest) < 2 {
			return TypeDesc{}, newError(KindMalformed, "type descriptor: array needs a count and element type", nil)
		}
		n, ok := toInt64(rest[0])
		if !ok || n < 0 {
			return TypeDesc{}, newError(KindMalformed, fmt.Sprintf("type descriptor: bad array count %v", rest[0]), nil)
		}
		elem, err := ParseTypeDesc(rest[1])
		if err != nil {
			return TypeDesc{}, fmt.Errorf("array element: %w", err)
		}
		d.Count = int(n)
		d.Target = &elem
		rest = rest[2:]
	}
	if len(rest) > 0 {
		m, ok := asMap(rest[0])
		if !ok {
			return TypeDesc{}, newError(KindMalformed, fmt.Sprintf("type descriptor %q: expected argument table, got %T", name, rest[0]), nil)
		}
		d.Args = Args(m)
	}
	return d, nil
}

// Args are the keyword arguments of an object-class descriptor.
type Args map[string]any

// Clone returns a shallow copy; argument values are treated as immutable.
func (a Args) Clone() Args {
	if a == nil {
		return nil
	}
	out := make(Args, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Has reports whether key is set.
func (a Args) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// Int returns an integer argument, accepting any integer width and integral floats.
func (a Args) Int(key string) (int64, bool) {
	v, ok := a[key]
	if !ok {
		return 0, false
	}
	return toInt64(v)
}

// String returns a string argument.
func (a Args) String(key string) (string, bool) {
	s, ok := a[key].(string)
	return s, ok
}

// Map returns a table argument with string keys.
func (a Args) Map(key string) (map[string]any, bool) {
	return asMap(a[key])
}

// Desc returns an argument holding a type descriptor (a name, a list, or a TypeDesc).
func (a Args) Desc(key string) (TypeDesc, bool) {
	v, ok := a[key]
	if !ok {
		return TypeDesc{}, false
	}
	d, err := ParseTypeDesc(v)
	return d, err == nil
}

// Length returns a length argument: an integer, a Length, a func(Object) int,
// or a string naming a sibling member.
func (a Args) Length(key string) (Length, bool) {
	switch v := a[key].(type) {
	case nil:
		return Length{}, false
	case Length:
		return v, true
	case func(Object) int:
		return LengthFunc(v), true
	case string:
		return LengthOf(v), true
	default:
		n, ok := toInt64(v)
		if !ok {
			return Length{}, false
		}
		return FixedLength(int(n)), true
	}
}

func (a Args) format() string {
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, a[k])
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

func (a Args) encode() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		switch t := v.(type) {
		case Length:
			if t.member != "" {
				out[k] = t.member
			} else if t.fn == nil {
				out[k] = int64(t.n)
			}
		case func(Object) int:
		case TypeDesc:
			out[k] = t.Encode()
		default:
			out[k] = v
		}
	}
	return out
}

// Length is a fixed byte count or one computed from the parent object,
// resolved once when the object is constructed.
type Length struct {
	n      int
	fn     func(parent Object) int
	member string
}

// FixedLength is a constant length.
func FixedLength(n int) Length { return Length{n: n} }

// LengthFunc computes the length from the parent object.
func LengthFunc(fn func(parent Object) int) Length { return Length{fn: fn} }

// LengthOf reads the length from the named member of the parent.
func LengthOf(member string) Length { return Length{member: member} }

// Resolve evaluates the length against parent. Unresolvable lengths are 0.
func (l Length) Resolve(parent Object) int {
	switch {
	case l.fn != nil:
		if parent == nil {
			return 0
		}
		return l.fn(parent)
	case l.member != "":
		if parent == nil {
			return 0
		}
		n, ok := Uint(Member(parent, l.member)).Get()
		if !ok || n > math.MaxInt32 {
			return 0
		}
		return int(n)
	default:
		return l.n
	}
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Args:
		return map[string]any(m), true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[fmt.Sprint(k)] = val
		}
		return out, true
	case map[string]int:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	case map[string]string:
		out := make(map[string]any, len(m))
		for k, val := range m {
			out[k] = val
		}
		return out, true
	default:
		return nil, false
	}
}

// AsInt converts an integer of any width, or an integral float, to int64.
// Decoded type tables carry int64 (TOML) or uint64 (CBOR) and Go callers
// usually pass int.
func AsInt(v any) (int64, bool) { return toInt64(v) }

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int64(n), true
	default:
		return 0, false
	}
}
