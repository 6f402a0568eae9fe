package basic

import (
	"errors"
	"iter"

	"github.com/joshuapare/vtypekit/internal/buf"
	"github.com/joshuapare/vtypekit/obj"
)

// Type names bound by ObjectClasses for profile-resolved constants.
const (
	MagicNamespaceType = "MAGIC_NAMESPACE"
	MaxAddressType     = "MaxAddressMagic"
)

// MagicNamespace is a struct of constants. It usually sits at an offset the
// address space does not back, so an invalid offset builds a degraded struct
// instead of failing.
type MagicNamespace struct {
	*obj.Struct
}

// NewMagicNamespace builds the namespace, tolerating only ErrInvalidOffset.
func NewMagicNamespace(cfg obj.Config) (*MagicNamespace, error) {
	s, err := obj.NewStruct(cfg)
	if errors.Is(err, obj.ErrInvalidOffset) {
		s, err = obj.NewUncheckedStruct(cfg)
	}
	if err != nil {
		return nil, err
	}
	m := &MagicNamespace{Struct: s}
	s.Embed(m)
	return m, nil
}

// MaxAddress suggests the largest address the profile's memory model can
// express: 2^(8*sizeof(address)) - 1.
func MaxAddress(m *obj.Magic) iter.Seq[any] {
	return func(yield func(any) bool) {
		size, ok := m.Profile().TypeSize("address")
		if !ok {
			return
		}
		yield(buf.MaxUint(size))
	}
}
