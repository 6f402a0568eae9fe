package basic

import (
	"unicode/utf8"

	"github.com/joshuapare/vtypekit/obj"
)

// maxUnicodeLength bounds the byte count a _UNICODE_STRING may claim.
const maxUnicodeLength = 1024

// UnicodeString is a _UNICODE_STRING: a byte Length and a Buffer pointer to
// UTF-16 text.
type UnicodeString struct {
	*obj.Struct
}

// NewUnicodeString wraps the _UNICODE_STRING struct at cfg.Offset.
func NewUnicodeString(cfg obj.Config) (*UnicodeString, error) {
	s, err := obj.NewStruct(cfg)
	if err != nil {
		return nil, err
	}
	u := &UnicodeString{Struct: s}
	s.Embed(u)
	return u, nil
}

func (u *UnicodeString) length() (uint64, bool) {
	n, ok := obj.Uint(u.Member("Length")).Get()
	return n, ok && n > 0 && n <= maxUnicodeLength
}

// IsValid reports whether Buffer is a valid pointer and 0 < Length <= 1024.
func (u *UnicodeString) IsValid() bool {
	if _, ok := u.length(); !ok {
		return false
	}
	return u.Member("Buffer").IsValid()
}

// Dereference returns the String that Buffer points at, Length bytes long.
func (u *UnicodeString) Dereference() obj.Object {
	n, ok := u.length()
	if !ok {
		return u.None("Buffer length %d for _UNICODE_STRING not within bounds", obj.Uint(u.Member("Length")).Or(0))
	}
	buffer, ok := u.Member("Buffer").(*obj.Pointer)
	if !ok {
		return u.None("_UNICODE_STRING Buffer is not a pointer")
	}
	return buffer.DereferenceAs(obj.TypeWith("String", obj.Args{"encoding": "utf16", "length": int(n)}))
}

// Text is the decoded string.
func (u *UnicodeString) Text() obj.Maybe[string] {
	switch s := u.Dereference().(type) {
	case *String:
		return s.Text()
	case *obj.NoneObject:
		return obj.None[string]("%s", s.Reason())
	default:
		return obj.None[string]("_UNICODE_STRING Buffer dereferenced to %s", s.TypeName())
	}
}

func (u *UnicodeString) Value() obj.Maybe[any] {
	return obj.Map(u.Text(), func(s string) any { return s })
}

func (u *UnicodeString) String() string { return u.Text().Or("") }

// Len is the number of characters in the decoded text.
func (u *UnicodeString) Len() int { return utf8.RuneCountInString(u.String()) }
