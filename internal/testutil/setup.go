// Package testutil builds fixtures shared by tests outside the core packages:
// the sample table catalog and synthetic memory images.
package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/joshuapare/vtypekit/addrspace"
	"github.com/joshuapare/vtypekit/typetable"
)

// Addresses of the records in TaskImage.
const (
	TaskBase = 0x1000
	TaskA    = 0x1000 // pid 4, "init", Flags Active|Exiting, State Stopped, Name "hi"
	TaskB    = 0x1040 // pid 9, "worker", State Stopped, Parent TaskA, Slots [1 2]
	TaskHead = 0x1080 // bare _LIST_ENTRY: head <-> A <-> B <-> head
	TaskName = 0x1088 // UTF-16 "hi"
)

// Image is a little-endian memory image under construction.
type Image struct {
	base uint64
	data []byte
}

// NewImage returns a zeroed image of size bytes starting at base.
func NewImage(base uint64, size int) *Image {
	return &Image{base: base, data: make([]byte, size)}
}

// PutUint16 stores v at addr.
func (m *Image) PutUint16(addr uint64, v uint16) *Image {
	binary.LittleEndian.PutUint16(m.data[addr-m.base:], v)
	return m
}

// PutUint32 stores v at addr.
func (m *Image) PutUint32(addr uint64, v uint32) *Image {
	binary.LittleEndian.PutUint32(m.data[addr-m.base:], v)
	return m
}

// PutBytes copies b to addr.
func (m *Image) PutBytes(addr uint64, b []byte) *Image {
	copy(m.data[addr-m.base:], b)
	return m
}

// Bytes returns the image contents.
func (m *Image) Bytes() []byte { return m.data }

// Buffer returns the image as a writable address space.
func (m *Image) Buffer() *addrspace.Buffer {
	return addrspace.NewBuffer(m.base, m.data)
}

// WriteFile writes the image to a file in a test temp directory and returns its path.
// Calls t.Fatal if the write fails.
func (m *Image) WriteFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, m.data, 0o644); err != nil {
		t.Fatalf("Failed to write image: %v", err)
	}
	return path
}

// TaskImage lays out two _TASK records of the sample table on a list with
// a bare head.
//
// Example:
//
//	s, err := session.ForParams(32, testutil.SampleTable, testutil.TaskImage().Buffer(),
//		session.WithCatalog(testutil.SampleCatalog(t)))
func TaskImage() *Image {
	m := NewImage(TaskBase, 0x90)

	m.PutUint32(TaskHead, TaskA+4).PutUint32(TaskHead+4, TaskB+4)

	m.PutUint32(TaskA, 4).
		PutUint32(TaskA+4, TaskB+4).
		PutUint32(TaskA+8, TaskHead).
		PutBytes(TaskA+12, []byte("init\x00")).
		PutUint32(TaskA+28, 0b101).
		PutUint32(TaskA+32, 1).
		PutUint16(TaskA+36, 4).
		PutUint16(TaskA+38, 4).
		PutUint32(TaskA+40, TaskName)

	m.PutUint32(TaskB, 9).
		PutUint32(TaskB+4, TaskHead).
		PutUint32(TaskB+8, TaskA+4).
		PutBytes(TaskB+12, []byte("worker")).
		PutUint32(TaskB+32, 1).
		PutUint32(TaskB+44, TaskA).
		PutUint16(TaskB+48, 1).
		PutUint16(TaskB+50, 2)

	m.PutBytes(TaskName, []byte{'h', 0, 'i', 0})
	return m
}

// SampleTablesPath returns the path to the sample table directory.
// Calls t.Skip if the directory is not found.
func SampleTablesPath(t *testing.T) string {
	t.Helper()
	return resolveTestPath(t, SampleTablesDir)
}

// SampleCatalog loads the sample tables.
func SampleCatalog(t *testing.T) *typetable.Catalog {
	t.Helper()
	c, err := typetable.LoadDir(SampleTablesPath(t))
	if err != nil {
		t.Fatalf("Failed to load sample tables: %v", err)
	}
	return c
}

// resolveTestPath attempts to find a fixture by trying multiple path resolutions.
// This handles the fact that tests may be run from different working directories.
func resolveTestPath(t *testing.T, relativePath string) string {
	t.Helper()

	// Try paths in order of likelihood
	candidates := []string{
		relativePath,               // Direct path (from repo root)
		"../" + relativePath,       // From a top-level package
		"../../" + relativePath,    // From package two levels deep (e.g., pkg/session/)
		"../../../" + relativePath, // From package three levels deep
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			abs, err := filepath.Abs(path)
			if err != nil {
				t.Fatalf("Failed to resolve %s: %v", path, err)
			}
			return abs
		}
	}

	t.Skipf("Fixture not found at any candidate path starting from: %s", relativePath)
	return "" // unreachable
}
