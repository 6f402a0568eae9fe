package obj

import (
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"sort"
)

// VType is the layout of a structured type.
type VType struct {
	Size   int
	Fields map[string]Field
}

// Field is one member of a VType.
type Field struct {
	Offset int
	Type   TypeDesc
}

// Overlay patches a VType. A nil Size keeps the existing size.
type Overlay struct {
	Size   *int
	Fields map[string]FieldOverlay
}

// FieldOverlay patches one field. A nil Offset or Type keeps the existing
// value; for a new field both must be set.
type FieldOverlay struct {
	Offset *int
	Type   *TypeDesc
}

// Factory constructs the object class bound to a type name.
type Factory func(cfg Config) (Object, error)

// tables are everything Reset derives.
type tables struct {
	types   map[string]VType
	enums   map[string]map[string]string
	classes map[string]Factory
	natives map[string]NativeType
	applied []string
	ptrSize int
	order   binary.ByteOrder
}

// Profile bundles metadata, type layouts, enumerations, object-class bindings
// and the modifications that patch them.
//
// A Profile is built by Reset and is read-only afterwards: mutators return
// ErrFrozen unless called from a Modification during Reset. Read-only
// profiles can be shared between goroutines; Reset must not run concurrently
// with readers.
type Profile struct {
	metadata  Metadata
	baseTypes map[string]VType
	baseEnums map[string]map[string]string
	mods      []Modification
	logger    *slog.Logger

	cur    *tables
	staged *tables // non-nil only while Reset runs
}

// ProfileOption configures NewProfile.
type ProfileOption func(*Profile)

// WithTypes adds base type layouts. Later options win on name clashes.
func WithTypes(types map[string]VType) ProfileOption {
	return func(p *Profile) {
		for name, vt := range types {
			p.baseTypes[name] = cloneVType(vt)
		}
	}
}

// WithEnums adds base enumeration tables.
func WithEnums(enums map[string]map[string]string) ProfileOption {
	return func(p *Profile) {
		for name, e := range enums {
			p.baseEnums[name] = cloneEnum(e)
		}
	}
}

// WithModifications registers modifications. They are considered in
// registration order on every Reset.
func WithModifications(mods ...Modification) ProfileOption {
	return func(p *Profile) { p.mods = append(p.mods, mods...) }
}

// WithLogger sets the logger used for modification and soft-failure tracing.
func WithLogger(l *slog.Logger) ProfileOption {
	return func(p *Profile) {
		if l != nil {
			p.logger = l
		}
	}
}

// NewProfile builds a profile for md and runs Reset.
func NewProfile(md Metadata, opts ...ProfileOption) (*Profile, error) {
	p := &Profile{
		metadata:  md.Clone(),
		baseTypes: map[string]VType{},
		baseEnums: map[string]map[string]string{},
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	if err := p.Reset(); err != nil {
		return nil, err
	}
	return p, nil
}

// Reset rebuilds every derived table from the base tables, the native types
// of the memory model, and each modification whose conditions match the
// metadata. On error the previous tables stay in place.
func (p *Profile) Reset() error {
	model, _ := p.metadata.String(MetaMemoryModel)
	if model == "" {
		model = MemoryModel32
	}
	natives, ok := nativesFor(model)
	if !ok {
		return newError(KindMalformed, fmt.Sprintf("unsupported memory model %q", model), nil)
	}
	t := &tables{
		types:   make(map[string]VType, len(p.baseTypes)),
		enums:   make(map[string]map[string]string, len(p.baseEnums)),
		classes: map[string]Factory{},
		natives: natives,
		ptrSize: natives["address"].Size,
		order:   binary.LittleEndian,
	}
	if endian, _ := p.metadata.String(MetaEndian); endian == "big" {
		t.order = binary.BigEndian
	}
	for name, vt := range p.baseTypes {
		t.types[name] = cloneVType(vt)
	}
	for name, e := range p.baseEnums {
		t.enums[name] = cloneEnum(e)
	}

	p.staged = t
	defer func() { p.staged = nil }()

	for _, m := range p.mods {
		if !m.Conditions().Match(p.metadata) {
			p.logger.Debug("skipping modification", "name", m.Name(), "profile", p.metadata.describe())
			continue
		}
		if err := m.Modify(p); err != nil {
			return fmt.Errorf("modification %s: %w", m.Name(), err)
		}
		t.applied = append(t.applied, m.Name())
		p.logger.Debug("applied modification", "name", m.Name())
	}

	p.cur = t
	return nil
}

// t returns the tables visible to lookups: the staged set while Reset runs.
func (p *Profile) t() *tables {
	if p.staged != nil {
		return p.staged
	}
	return p.cur
}

func (p *Profile) mutable(op string) (*tables, error) {
	if p.staged == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrFrozen)
	}
	return p.staged, nil
}

// Metadata returns a copy of the profile metadata.
func (p *Profile) Metadata() Metadata { return p.metadata.Clone() }

// MetadataValue returns one metadata entry.
func (p *Profile) MetadataValue(key string) (any, bool) {
	v, ok := p.metadata[key]
	return v, ok
}

// SetMetadata changes a metadata entry. The change takes effect on the next Reset.
func (p *Profile) SetMetadata(key string, v any) {
	p.metadata[key] = v
}

// Logger returns the profile logger.
func (p *Profile) Logger() *slog.Logger { return p.logger }

// AddTypes adds or replaces whole type layouts.
func (p *Profile) AddTypes(types map[string]VType) error {
	t, err := p.mutable("add types")
	if err != nil {
		return err
	}
	for name, vt := range types {
		t.types[name] = cloneVType(vt)
	}
	return nil
}

// AddEnums adds or replaces enumeration tables.
func (p *Profile) AddEnums(enums map[string]map[string]string) error {
	t, err := p.mutable("add enums")
	if err != nil {
		return err
	}
	for name, e := range enums {
		t.enums[name] = cloneEnum(e)
	}
	return nil
}

// MergeOverlay patches type layouts. Fields not named in an overlay are
// untouched; an overlay for an unknown type creates it.
func (p *Profile) MergeOverlay(overlays map[string]Overlay) error {
	t, err := p.mutable("merge overlay")
	if err != nil {
		return err
	}
	names := make([]string, 0, len(overlays))
	for name := range overlays {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		ov := overlays[name]
		vt, ok := t.types[name]
		if !ok {
			vt = VType{Fields: map[string]Field{}}
		}
		if vt.Fields == nil {
			vt.Fields = map[string]Field{}
		}
		if ov.Size != nil {
			vt.Size = *ov.Size
		}
		for fname, fo := range ov.Fields {
			f, exists := vt.Fields[fname]
			if !exists && (fo.Offset == nil || fo.Type == nil) {
				return newError(KindMalformed, fmt.Sprintf("overlay %s.%s: new field needs offset and type", name, fname), nil)
			}
			if fo.Offset != nil {
				f.Offset = *fo.Offset
			}
			if fo.Type != nil {
				f.Type = fo.Type.Clone()
			}
			vt.Fields[fname] = f
		}
		t.types[name] = vt
	}
	return nil
}

// RegisterClass binds an object class to a type name.
func (p *Profile) RegisterClass(name string, f Factory) error {
	t, err := p.mutable("register class")
	if err != nil {
		return err
	}
	t.classes[name] = f
	return nil
}

// RegisterClasses binds several object classes.
func (p *Profile) RegisterClasses(classes map[string]Factory) error {
	for name, f := range classes {
		if err := p.RegisterClass(name, f); err != nil {
			return err
		}
	}
	return nil
}

// Applied lists the modifications applied by the last Reset, in order.
func (p *Profile) Applied() []string {
	return append([]string(nil), p.t().applied...)
}

// PointerSize is the address width in bytes for the memory model.
func (p *Profile) PointerSize() int { return p.t().ptrSize }

// ByteOrder is the default byte order for native types.
func (p *Profile) ByteOrder() binary.ByteOrder { return p.t().order }

// HasType reports whether name is a structured type.
func (p *Profile) HasType(name string) bool {
	_, ok := p.t().types[name]
	return ok
}

// Type returns a copy of a structured type layout.
func (p *Profile) Type(name string) (VType, bool) {
	vt, ok := p.t().types[name]
	if !ok {
		return VType{}, false
	}
	return cloneVType(vt), true
}

// TypeNames lists structured types in sorted order.
func (p *Profile) TypeNames() []string {
	names := make([]string, 0, len(p.t().types))
	for name := range p.t().types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Field returns one field of a structured type.
func (p *Profile) Field(typeName, member string) (Field, bool) {
	vt, ok := p.t().types[typeName]
	if !ok {
		return Field{}, false
	}
	f, ok := vt.Fields[member]
	return f, ok
}

// FieldOffset returns the byte offset of member within typeName.
func (p *Profile) FieldOffset(typeName, member string) (int, error) {
	vt, ok := p.t().types[typeName]
	if !ok {
		return 0, newError(KindUnknownType, fmt.Sprintf("type %q not in profile", typeName), nil)
	}
	f, ok := vt.Fields[member]
	if !ok {
		return 0, newError(KindMalformed, fmt.Sprintf("type %q has no member %q", typeName, member), nil)
	}
	return f.Offset, nil
}

// Native returns a native type layout.
func (p *Profile) Native(name string) (NativeType, bool) {
	nt, ok := p.t().natives[name]
	return nt, ok
}

// Enum returns an enumeration table keyed by the decimal string of each value.
func (p *Profile) Enum(name string) (map[string]string, bool) {
	e, ok := p.t().enums[name]
	return e, ok
}

// Class returns the object class bound to name.
func (p *Profile) Class(name string) (Factory, bool) {
	f, ok := p.t().classes[name]
	return f, ok
}

// ClassNames lists bound object classes in sorted order.
func (p *Profile) ClassNames() []string {
	names := make([]string, 0, len(p.t().classes))
	for name := range p.t().classes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TypeSize returns the size of a native, pointer or structured type.
func (p *Profile) TypeSize(name string) (int, bool) {
	t := p.t()
	switch name {
	case TypePointer:
		return t.ptrSize, true
	case TypePointer32:
		return 4, true
	case TypePointer64:
		return 8, true
	case TypeVoid:
		return 0, true
	}
	if nt, ok := t.natives[name]; ok {
		return nt.Size, true
	}
	if vt, ok := t.types[name]; ok {
		return vt.Size, true
	}
	return 0, false
}

// DescSize returns the size of a descriptor, following array element sizes,
// BitField native types, and the length or target arguments of object classes.
func (p *Profile) DescSize(d TypeDesc) (int, bool) {
	switch {
	case d.Name == TypeArray:
		if d.Target == nil {
			return 0, false
		}
		n, ok := p.DescSize(*d.Target)
		return n * d.Count, ok
	case d.Name == TypeBitField:
		nt, ok := d.Args.String("native_type")
		if !ok {
			nt = "unsigned long"
		}
		return p.TypeSize(nt)
	}
	if n, ok := p.TypeSize(d.Name); ok {
		return n, true
	}
	if l, ok := d.Args.Length("length"); ok && l.fn == nil && l.member == "" {
		return l.n, true
	}
	if target, ok := d.Args.Desc("target"); ok {
		return p.DescSize(target)
	}
	return 0, false
}

// Snapshot is a deep copy of a profile's derived tables.
type Snapshot struct {
	Types   map[string]VType
	Enums   map[string]map[string]string
	Natives map[string]NativeType
	Classes []string
	Applied []string
}

// Snapshot copies the current tables. Object classes are reported by name.
func (p *Profile) Snapshot() Snapshot {
	t := p.t()
	s := Snapshot{
		Types:   make(map[string]VType, len(t.types)),
		Enums:   make(map[string]map[string]string, len(t.enums)),
		Natives: cloneNatives(t.natives),
		Classes: p.ClassNames(),
		Applied: p.Applied(),
	}
	for name, vt := range t.types {
		s.Types[name] = cloneVType(vt)
	}
	for name, e := range t.enums {
		s.Enums[name] = cloneEnum(e)
	}
	return s
}

func cloneVType(vt VType) VType {
	out := VType{Size: vt.Size, Fields: make(map[string]Field, len(vt.Fields))}
	for name, f := range vt.Fields {
		out.Fields[name] = Field{Offset: f.Offset, Type: f.Type.Clone()}
	}
	return out
}

func cloneEnum(e map[string]string) map[string]string {
	out := make(map[string]string, len(e))
	for k, v := range e {
		out[k] = v
	}
	return out
}
