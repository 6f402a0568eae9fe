// Package typetable reads and writes type tables: named bundles of structure
// layouts, enumerations and metadata that seed a profile.
//
// Tables are authored in TOML and may be compiled to canonical CBOR. Both
// forms share one layout; each field is an [offset, descriptor] pair where
// the descriptor uses the nested-list form understood by obj.ParseTypeDesc:
//
//	name = "example"
//
//	[metadata]
//	os = "windows"
//	memory_model = "32bit"
//
//	[types._LIST_ENTRY]
//	size = 8
//	[types._LIST_ENTRY.fields]
//	Flink = [0, ["pointer", ["_LIST_ENTRY"]]]
//	Blink = [4, ["pointer", ["_LIST_ENTRY"]]]
//
//	[enums.Color]
//	"1" = "Red"
package typetable

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fxamacker/cbor/v2"

	"github.com/joshuapare/vtypekit/obj"
)

// File extensions recognized by Load and WriteFile.
const (
	ExtTOML = ".toml"
	ExtCBOR = ".cbor"
)

// Table is one decoded type table.
type Table struct {
	Name     string
	Metadata obj.Metadata
	Types    map[string]obj.VType
	Enums    map[string]map[string]string
}

type wireTable struct {
	Name     string                       `toml:"name" cbor:"name"`
	Metadata map[string]any               `toml:"metadata,omitempty" cbor:"metadata,omitempty"`
	Types    map[string]wireType          `toml:"types" cbor:"types"`
	Enums    map[string]map[string]string `toml:"enums,omitempty" cbor:"enums,omitempty"`
}

type wireType struct {
	Size   int              `toml:"size" cbor:"size"`
	Fields map[string][]any `toml:"fields" cbor:"fields"`
}

var (
	cborEncMode cbor.EncMode
	cborDecMode cbor.DecMode
)

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("typetable: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em

	dm, err := cbor.DecOptions{DefaultMapType: reflect.TypeOf(map[string]any(nil))}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("typetable: failed to create CBOR dec mode: %v", err))
	}
	cborDecMode = dm
}

// ParseTOML decodes a TOML table. Unknown keys are rejected.
func ParseTOML(data []byte) (*Table, error) {
	var w wireTable
	md, err := toml.Decode(string(data), &w)
	if err != nil {
		return nil, fmt.Errorf("typetable: %w", err)
	}
	if keys := unknownKeys(md); len(keys) > 0 {
		return nil, fmt.Errorf("typetable: unknown keys %s: %w", strings.Join(keys, ", "), obj.ErrMalformed)
	}
	return fromWire(&w)
}

// unknownKeys reports keys the table layout does not define. Values decoded
// into interfaces (descriptor arguments, nested metadata) are never marked
// as decoded, so keys below them are skipped.
func unknownKeys(md toml.MetaData) []string {
	var keys []string
	for _, k := range md.Undecoded() {
		switch {
		case len(k) > 4 && k[0] == "types":
			continue
		case len(k) > 2 && k[0] == "metadata":
			continue
		}
		keys = append(keys, k.String())
	}
	return keys
}

// ParseCBOR decodes a compiled table.
func ParseCBOR(data []byte) (*Table, error) {
	var w wireTable
	if err := cborDecMode.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("typetable: unmarshal cbor: %w", err)
	}
	return fromWire(&w)
}

// TOML encodes the table as TOML.
func (t *Table) TOML() ([]byte, error) {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(t.toWire()); err != nil {
		return nil, fmt.Errorf("typetable: encode toml: %w", err)
	}
	return buf.Bytes(), nil
}

// CBOR encodes the table as canonical CBOR, so equal tables encode to equal bytes.
func (t *Table) CBOR() ([]byte, error) {
	return cborEncMode.Marshal(t.toWire())
}

// Load reads a table from path, choosing the format by extension. A table
// without a name takes the file's base name.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	var t *Table
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtTOML:
		t, err = ParseTOML(data)
	case ExtCBOR:
		t, err = ParseCBOR(data)
	default:
		return nil, fmt.Errorf("%s: unsupported table format %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if t.Name == "" {
		t.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return t, nil
}

// WriteFile encodes the table in the format named by path's extension.
func (t *Table) WriteFile(path string) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ExtTOML:
		data, err = t.TOML()
	case ExtCBOR:
		data, err = t.CBOR()
	default:
		return fmt.Errorf("%s: unsupported table format %q", path, ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// ProfileOptions seeds a profile with the table's types and enums.
func (t *Table) ProfileOptions() []obj.ProfileOption {
	return []obj.ProfileOption{obj.WithTypes(t.Types), obj.WithEnums(t.Enums)}
}

// TypeNames lists the table's types in sorted order.
func (t *Table) TypeNames() []string {
	names := make([]string, 0, len(t.Types))
	for name := range t.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func fromWire(w *wireTable) (*Table, error) {
	t := &Table{
		Name:     w.Name,
		Metadata: obj.Metadata(w.Metadata),
		Types:    make(map[string]obj.VType, len(w.Types)),
		Enums:    w.Enums,
	}
	if t.Metadata == nil {
		t.Metadata = obj.Metadata{}
	}
	if t.Enums == nil {
		t.Enums = map[string]map[string]string{}
	}
	for name, wt := range w.Types {
		vt := obj.VType{Size: wt.Size, Fields: make(map[string]obj.Field, len(wt.Fields))}
		for fname, pair := range wt.Fields {
			f, err := parseField(pair)
			if err != nil {
				return nil, fmt.Errorf("type %s field %s: %w", name, fname, err)
			}
			vt.Fields[fname] = f
		}
		t.Types[name] = vt
	}
	return t, nil
}

func parseField(pair []any) (obj.Field, error) {
	if len(pair) != 2 {
		return obj.Field{}, fmt.Errorf("want [offset, type], got %d items: %w", len(pair), obj.ErrMalformed)
	}
	off, ok := obj.AsInt(pair[0])
	if !ok {
		return obj.Field{}, fmt.Errorf("offset %v is not an integer: %w", pair[0], obj.ErrMalformed)
	}
	d, err := obj.ParseTypeDesc(pair[1])
	if err != nil {
		return obj.Field{}, err
	}
	return obj.Field{Offset: int(off), Type: d}, nil
}

func (t *Table) toWire() *wireTable {
	w := &wireTable{
		Name:     t.Name,
		Metadata: map[string]any(t.Metadata),
		Types:    make(map[string]wireType, len(t.Types)),
		Enums:    t.Enums,
	}
	for name, vt := range t.Types {
		wt := wireType{Size: vt.Size, Fields: make(map[string][]any, len(vt.Fields))}
		for fname, f := range vt.Fields {
			wt.Fields[fname] = []any{int64(f.Offset), f.Type.Encode()}
		}
		w.Types[name] = wt
	}
	return w
}
