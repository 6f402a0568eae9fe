package basic

import "github.com/joshuapare/vtypekit/obj"

// Classes returns the object classes this package provides, keyed by the
// type name they bind to.
func Classes() map[string]obj.Factory {
	return map[string]obj.Factory{
		"String":           factory(NewString),
		"Flags":            factory(NewFlags),
		"Enumeration":      factory(NewEnumeration),
		"IpAddress":        factory(NewIpAddress),
		"Ipv6Address":      factory(NewIpv6Address),
		"_UNICODE_STRING":  factory(NewUnicodeString),
		"_LIST_ENTRY":      factory(NewListEntry),
		MagicNamespaceType: factory(NewMagicNamespace),
		MaxAddressType:     obj.MagicClass(MaxAddress),
	}
}

// ObjectClasses is the modification that binds Classes into every profile
// and places MaxAddress at offset 0 of the magic namespace.
func ObjectClasses() obj.Modification {
	return obj.NewModification("BasicObjectClasses", nil, func(p *obj.Profile) error {
		if err := p.RegisterClasses(Classes()); err != nil {
			return err
		}
		zero := 0
		maxAddr := obj.Type(MaxAddressType)
		return p.MergeOverlay(map[string]obj.Overlay{
			MagicNamespaceType: {
				Fields: map[string]obj.FieldOverlay{
					"MaxAddress": {Offset: &zero, Type: &maxAddr},
				},
			},
		})
	})
}

func factory[T obj.Object](fn func(obj.Config) (T, error)) obj.Factory {
	return func(cfg obj.Config) (obj.Object, error) {
		o, err := fn(cfg)
		if err != nil {
			return nil, err
		}
		return o, nil
	}
}
