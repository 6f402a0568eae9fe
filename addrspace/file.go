package addrspace

import (
	"fmt"

	"github.com/joshuapare/vtypekit/internal/mmfile"
)

// File is a raw memory image mapped read-only at a base address.
type File struct {
	*Buffer

	path string
	m    *mmfile.Mapping
}

// OpenFile maps the image at path so that its first byte sits at base.
func OpenFile(path string, base uint64) (*File, error) {
	m, err := mmfile.Map(path)
	if err != nil {
		return nil, fmt.Errorf("addrspace: open image: %w", err)
	}
	return &File{
		Buffer: NewReadOnlyBuffer(base, m.Bytes()),
		path:   path,
		m:      m,
	}, nil
}

// Path returns the image path.
func (f *File) Path() string { return f.path }

// Close unmaps the image. The File must not be used afterwards.
func (f *File) Close() error {
	f.Buffer.Data = nil
	return f.m.Close()
}
