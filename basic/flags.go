package basic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/joshuapare/vtypekit/obj"
)

const defaultTarget = "unsigned long"

// target instantiates the integer a Flags or Enumeration wraps, at the
// wrapper's own offset.
func target(cfg obj.Config) (obj.Object, error) {
	d, ok := cfg.Desc.Args.Desc("target")
	if !ok {
		d = obj.Type(defaultTarget)
	}
	return obj.Instantiate(obj.Config{
		Desc:    d,
		Name:    cfg.Name,
		Offset:  cfg.Offset,
		VM:      cfg.VM,
		Parent:  cfg.Parent,
		Profile: cfg.Profile,
	})
}

type bit struct {
	label string
	pos   uint
}

type mask struct {
	start, width uint
}

// Flags decodes an integer into the labels of its set bits.
//
// Arguments: target (default "unsigned long"), bitmap (label -> bit index)
// and maskmap (label -> [start bit, width]).
type Flags struct {
	obj.Base
	target  obj.Object
	bits    []bit
	maskmap map[string]mask
}

// NewFlags builds a Flags from cfg.Desc.Args.
func NewFlags(cfg obj.Config) (*Flags, error) {
	t, err := target(cfg)
	if err != nil {
		return nil, fmt.Errorf("flags %s: %w", cfg.Name, err)
	}
	f := &Flags{Base: obj.NewBase(cfg), target: t, maskmap: map[string]mask{}}

	if bm, ok := cfg.Desc.Args.Map("bitmap"); ok {
		for label, v := range bm {
			n, ok := obj.AsInt(v)
			if !ok || n < 0 || n > 63 {
				return nil, fmt.Errorf("flags %s: bit %q = %v: %w", cfg.Name, label, v, obj.ErrMalformed)
			}
			f.bits = append(f.bits, bit{label: label, pos: uint(n)})
		}
	}
	sort.Slice(f.bits, func(i, j int) bool {
		if f.bits[i].pos != f.bits[j].pos {
			return f.bits[i].pos < f.bits[j].pos
		}
		return f.bits[i].label < f.bits[j].label
	})

	if mm, ok := cfg.Desc.Args.Map("maskmap"); ok {
		for label, v := range mm {
			start, width, ok := intPair(v)
			if !ok || start < 0 || width < 0 || start > 63 || width > 64 {
				return nil, fmt.Errorf("flags %s: mask %q = %v: %w", cfg.Name, label, v, obj.ErrMalformed)
			}
			f.maskmap[label] = mask{start: uint(start), width: uint(width)}
		}
	}
	return f, nil
}

func intPair(v any) (int64, int64, bool) {
	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case []int:
		items = []any{}
		for _, n := range t {
			items = append(items, n)
		}
	case []int64:
		items = []any{}
		for _, n := range t {
			items = append(items, n)
		}
	case [2]int:
		items = []any{t[0], t[1]}
	}
	if len(items) != 2 {
		return 0, 0, false
	}
	a, ok1 := obj.AsInt(items[0])
	b, ok2 := obj.AsInt(items[1])
	return a, b, ok1 && ok2
}

// Target is the wrapped integer object.
func (f *Flags) Target() obj.Object { return f.target }

func (f *Flags) Size() int               { return f.target.Size() }
func (f *Flags) IsValid() bool           { return f.target.IsValid() }
func (f *Flags) Uint() obj.Maybe[uint64] { return obj.Uint(f.target) }

func (f *Flags) Value() obj.Maybe[any] {
	return obj.Map(f.Uint(), func(v uint64) any { return v })
}

// Labels lists the labels whose bit is set, in ascending bit order.
func (f *Flags) Labels() obj.Maybe[[]string] {
	return obj.Map(f.Uint(), func(v uint64) []string {
		var set []string
		for _, b := range f.bits {
			if v&(1<<b.pos) != 0 {
				set = append(set, b.label)
			}
		}
		return set
	})
}

// IsSet reports whether label's bit is set.
func (f *Flags) IsSet(label string) obj.Maybe[bool] {
	for _, b := range f.bits {
		if b.label == label {
			return obj.Map(f.Uint(), func(v uint64) bool { return v&(1<<b.pos) != 0 })
		}
	}
	return obj.None[bool]("flag %s not known", label)
}

// Mask extracts the bit range named label from maskmap.
func (f *Flags) Mask(label string) obj.Maybe[uint64] {
	m, ok := f.maskmap[label]
	if !ok {
		return obj.None[uint64]("mask %s not known", label)
	}
	return obj.Map(f.Uint(), func(v uint64) uint64 {
		v >>= m.start
		if m.width >= 64 {
			return v
		}
		return v & (1<<m.width - 1)
	})
}

func (f *Flags) String() string {
	return strings.Join(f.Labels().Or(nil), ", ")
}

// Enumeration maps an integer to a label.
//
// Arguments: target (default "unsigned long"), choices (value -> label) and
// enum_name (a profile enumeration, keyed by the decimal value).
type Enumeration struct {
	obj.Base
	target   obj.Object
	signed   bool
	choices  map[string]string
	enumName string
	enum     map[string]string
}

// NewEnumeration builds an Enumeration from cfg.Desc.Args. An enum_name the
// profile does not know is logged and treated as an empty table.
func NewEnumeration(cfg obj.Config) (*Enumeration, error) {
	t, err := target(cfg)
	if err != nil {
		return nil, fmt.Errorf("enumeration %s: %w", cfg.Name, err)
	}
	choices, err := parseChoices(cfg.Desc.Args["choices"])
	if err != nil {
		return nil, fmt.Errorf("enumeration %s: %w", cfg.Name, err)
	}
	e := &Enumeration{
		Base:    obj.NewBase(cfg),
		target:  t,
		signed:  signedTarget(t),
		choices: choices,
		enum:    map[string]string{},
	}
	if name, ok := cfg.Desc.Args.String("enum_name"); ok && name != "" {
		e.enumName = name
		if table, ok := cfg.Profile.Enum(name); ok {
			e.enum = table
		} else {
			e.Logger().Warn("enumeration refers to unknown enum", "enum", name, "member", cfg.Name)
		}
	}
	return e, nil
}

func signedTarget(t obj.Object) bool {
	n, ok := t.(*obj.Native)
	return ok && n.NativeType().Kind == obj.NativeSigned
}

// parseChoices normalizes choice keys to their decimal string form, the
// same keying profile enumerations use.
func parseChoices(v any) (map[string]string, error) {
	out := map[string]string{}
	switch c := v.(type) {
	case nil:
	case map[int]string:
		for k, label := range c {
			out[strconv.Itoa(k)] = label
		}
	case map[int64]string:
		for k, label := range c {
			out[strconv.FormatInt(k, 10)] = label
		}
	case map[uint64]string:
		for k, label := range c {
			out[strconv.FormatUint(k, 10)] = label
		}
	default:
		m, ok := obj.Args{"choices": v}.Map("choices")
		if !ok {
			return nil, fmt.Errorf("choices: unexpected %T: %w", v, obj.ErrMalformed)
		}
		for k, label := range m {
			key, err := choiceKey(k)
			if err != nil {
				return nil, err
			}
			out[key] = fmt.Sprint(label)
		}
	}
	return out, nil
}

func choiceKey(k string) (string, error) {
	if n, err := strconv.ParseInt(k, 0, 64); err == nil {
		return strconv.FormatInt(n, 10), nil
	}
	if n, err := strconv.ParseUint(k, 0, 64); err == nil {
		return strconv.FormatUint(n, 10), nil
	}
	return "", fmt.Errorf("choices key %q: %w", k, obj.ErrMalformed)
}

// EnumName is the profile enumeration consulted after the local choices.
func (e *Enumeration) EnumName() string { return e.enumName }

// Target is the wrapped integer object.
func (e *Enumeration) Target() obj.Object { return e.target }

func (e *Enumeration) Size() int               { return e.target.Size() }
func (e *Enumeration) IsValid() bool           { return e.target.IsValid() }
func (e *Enumeration) Uint() obj.Maybe[uint64] { return obj.Uint(e.target) }

// Signed reports whether the target is a signed native.
func (e *Enumeration) Signed() bool { return e.signed }

// Int is the wrapped value, sign-extended when the target is signed.
func (e *Enumeration) Int() obj.Maybe[int64] {
	if i, ok := e.target.(interface{ Int() obj.Maybe[int64] }); ok {
		return i.Int()
	}
	return obj.Map(e.Uint(), func(v uint64) int64 { return int64(v) })
}

// Value is an int64 for signed targets and a uint64 otherwise.
func (e *Enumeration) Value() obj.Maybe[any] {
	if e.signed {
		return obj.Map(e.Int(), func(v int64) any { return v })
	}
	return obj.Map(e.Uint(), func(v uint64) any { return v })
}

// key is the decimal string form of the value.
func (e *Enumeration) key() obj.Maybe[string] {
	if e.signed {
		return obj.Map(e.Int(), func(v int64) string { return strconv.FormatInt(v, 10) })
	}
	return obj.Map(e.Uint(), func(v uint64) string { return strconv.FormatUint(v, 10) })
}

// Label resolves the value: local choices, then the profile enumeration,
// then "Unknown choice N".
func (e *Enumeration) Label() obj.Maybe[string] {
	return obj.Map(e.key(), func(k string) string {
		if label, ok := e.choices[k]; ok {
			return label
		}
		if label, ok := e.enum[k]; ok {
			return label
		}
		return "Unknown choice " + k
	})
}

func (e *Enumeration) String() string { return e.Label().Or("") }
