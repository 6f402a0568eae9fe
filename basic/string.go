// Package basic provides the semantic object classes most profiles bind:
// strings, flag sets, enumerations, IP addresses, counted unicode strings,
// doubly linked list entries and the magic namespace.
//
// ObjectClasses returns the modification that binds them into a profile.
package basic

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/joshuapare/vtypekit/addrspace"
	"github.com/joshuapare/vtypekit/obj"
)

// String is a fixed-length byte run decoded with a text encoding.
//
// Arguments: length (int, obj.Length, func(obj.Object) int, or the name of a
// sibling member; default 1) and encoding (default ascii).
type String struct {
	obj.Base
	length   int
	encoding string
	decoder  *encoding.Decoder // nil for ascii
}

// NewString builds a String; the length is resolved once, against cfg.Parent.
func NewString(cfg obj.Config) (*String, error) {
	args := cfg.Desc.Args
	length := 1
	if l, ok := args.Length("length"); ok {
		length = l.Resolve(cfg.Parent)
	}
	if length < 0 {
		length = 0
	}
	enc := "ascii"
	if e, ok := args.String("encoding"); ok && e != "" {
		enc = strings.ToLower(e)
	}
	dec, err := decoderFor(enc)
	if err != nil {
		return nil, err
	}
	return &String{Base: obj.NewBase(cfg), length: length, encoding: enc, decoder: dec}, nil
}

func decoderFor(enc string) (*encoding.Decoder, error) {
	switch enc {
	case "ascii", "us-ascii":
		return nil, nil
	case "utf8", "utf-8":
		return unicode.UTF8.NewDecoder(), nil
	case "utf16", "utf-16", "utf-16-le", "utf-16le", "utf_16_le":
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM).NewDecoder(), nil
	case "utf-16-be", "utf-16be", "utf_16_be":
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder(), nil
	case "latin1", "latin-1", "iso-8859-1":
		return charmap.ISO8859_1.NewDecoder(), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder(), nil
	default:
		return nil, fmt.Errorf("string encoding %q: %w", enc, obj.ErrMalformed)
	}
}

// Length is the byte count read from memory.
func (s *String) Length() int { return s.length }

// Encoding is the normalized encoding name.
func (s *String) Encoding() string { return s.encoding }

func (s *String) Size() int { return s.length }

// IsValid reports whether at least the first byte is readable.
func (s *String) IsValid() bool { return s.length > 0 && s.VM().IsValidAddress(s.Offset()) }

// Bytes returns exactly Length bytes, zero-padding whatever is unreadable.
// A zero length or a span with no readable byte yields an empty result.
func (s *String) Bytes() obj.Maybe[[]byte] {
	if s.length == 0 {
		return obj.None[[]byte]("cannot read string length 0 at 0x%X", s.Offset())
	}
	b, got := addrspace.ZReadN(s.VM(), s.Offset(), s.length)
	if got == 0 {
		return obj.None[[]byte]("cannot read string length %d at 0x%X", s.length, s.Offset())
	}
	return obj.Some(b)
}

// Value is the raw bytes.
func (s *String) Value() obj.Maybe[any] {
	return obj.Map(s.Bytes(), func(b []byte) any { return b })
}

// Text decodes the bytes, replacing undecodable input with U+FFFD, and cuts
// the result at the first NUL.
func (s *String) Text() obj.Maybe[string] {
	raw := s.Bytes()
	b, ok := raw.Get()
	if !ok {
		return obj.NoneFrom[string](raw)
	}
	text := s.decode(b)
	text, _, _ = strings.Cut(text, "\x00")
	return obj.Some(text)
}

func (s *String) decode(b []byte) string {
	if s.decoder == nil {
		var sb strings.Builder
		sb.Grow(len(b))
		for _, c := range b {
			if c >= utf8.RuneSelf {
				sb.WriteRune(utf8.RuneError)
				continue
			}
			sb.WriteByte(c)
		}
		return sb.String()
	}
	out, err := s.decoder.Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	return string(out)
}

// String is the decoded text, or "" when nothing could be read.
func (s *String) String() string { return s.Text().Or("") }

// Len is the number of characters in the decoded text.
func (s *String) Len() int { return utf8.RuneCountInString(s.String()) }

// Compare orders the decoded text against other.
func (s *String) Compare(other string) int { return strings.Compare(s.String(), other) }

// Concat appends other to the decoded text.
func (s *String) Concat(other string) string { return s.String() + other }
