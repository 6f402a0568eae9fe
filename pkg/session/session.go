// Package session pairs a profile with an address space.
//
// A Session is itself an address space that carries its profile, so objects
// built over it need no explicit profile:
//
//	s, err := session.ForParams(32, "winxp_x86", backend, session.WithCatalog(cat))
//	if err != nil {
//		return err
//	}
//	task, err := s.Object("_EPROCESS", addr)
package session

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/joshuapare/vtypekit/addrspace"
	"github.com/joshuapare/vtypekit/basic"
	"github.com/joshuapare/vtypekit/obj"
	"github.com/joshuapare/vtypekit/typetable"
)

// ErrUnknownTable indicates the requested type table is not in the catalog.
var ErrUnknownTable = errors.New("session: unknown type table")

// Session is an address space bound to a profile.
type Session struct {
	addrspace.AddressSpace
	backend addrspace.Backend
	profile *obj.Profile
}

// Profile returns the bound profile.
func (s *Session) Profile() *obj.Profile { return s.profile }

// Object constructs typeName at offset using the bound profile.
func (s *Session) Object(typeName string, offset uint64, opts ...obj.Option) (obj.Object, error) {
	return obj.New(typeName, offset, s, opts...)
}

// Close releases the backend if it holds resources.
func (s *Session) Close() error {
	if c, ok := s.backend.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

type options struct {
	catalog  *typetable.Catalog
	metadata obj.Metadata
	mods     []obj.Modification
	logger   *slog.Logger
}

// Option configures ForParams.
type Option func(*options)

// WithCatalog sets the catalog type tables are looked up in.
func WithCatalog(c *typetable.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithMetadata adds profile metadata. It overrides the table's metadata
// but not the memory model or module name.
func WithMetadata(md obj.Metadata) Option {
	return func(o *options) {
		for k, v := range md {
			o.metadata[k] = v
		}
	}
}

// WithModifications appends modifications applied after the basic object classes.
func WithModifications(mods ...obj.Modification) Option {
	return func(o *options) { o.mods = append(o.mods, mods...) }
}

// WithLogger sets the profile's logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// ForParams builds a profile for a bits-wide memory model from the named
// type table and binds it to backend. An empty tableName yields a profile
// with natives and object classes only.
func ForParams(bits int, tableName string, backend addrspace.Backend, opts ...Option) (*Session, error) {
	if bits != 32 && bits != 64 {
		return nil, fmt.Errorf("session: unsupported word size %d", bits)
	}
	o := &options{metadata: obj.Metadata{}}
	for _, opt := range opts {
		opt(o)
	}

	md := obj.Metadata{}
	var popts []obj.ProfileOption
	if tableName != "" {
		if o.catalog == nil {
			return nil, fmt.Errorf("%w: %s (no catalog)", ErrUnknownTable, tableName)
		}
		t, ok := o.catalog.Get(tableName)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTable, tableName)
		}
		for k, v := range t.Metadata {
			md[k] = v
		}
		popts = append(popts, t.ProfileOptions()...)
	}
	for k, v := range o.metadata {
		md[k] = v
	}
	md[obj.MetaMemoryModel] = fmt.Sprintf("%dbit", bits)
	md[obj.MetaVTypeModule] = tableName

	popts = append(popts, obj.WithModifications(append([]obj.Modification{basic.ObjectClasses()}, o.mods...)...))
	if o.logger != nil {
		popts = append(popts, obj.WithLogger(o.logger))
	}

	p, err := obj.NewProfile(md, popts...)
	if err != nil {
		return nil, fmt.Errorf("session: build profile for %s: %w", tableName, err)
	}
	return newSession(p, backend), nil
}

// ForProfile resets p and binds it to backend.
func ForProfile(p *obj.Profile, backend addrspace.Backend) (*Session, error) {
	if err := p.Reset(); err != nil {
		return nil, fmt.Errorf("session: reset profile: %w", err)
	}
	return newSession(p, backend), nil
}

func newSession(p *obj.Profile, backend addrspace.Backend) *Session {
	return &Session{AddressSpace: addrspace.Wrap(backend), backend: backend, profile: p}
}
