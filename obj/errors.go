package obj

// ErrKind classifies hard failures so callers can branch on intent rather than text.
type ErrKind int

const (
	KindInvalidOffset ErrKind = iota // object constructed over an address the space cannot back
	KindUnknownType                  // type name not present in the profile
	KindMalformed                    // type-table or descriptor data is inconsistent
	KindFrozen                       // profile mutated outside Reset
	KindNoProfile                    // no profile reachable for a lookup
)

func (k ErrKind) String() string {
	switch k {
	case KindInvalidOffset:
		return "invalid offset"
	case KindUnknownType:
		return "unknown type"
	case KindMalformed:
		return "malformed type data"
	case KindFrozen:
		return "profile frozen"
	case KindNoProfile:
		return "no profile"
	default:
		return "unknown"
	}
}

// Error is a hard failure with an optional underlying cause. Soft failures
// never use Error; they surface as NoneObject or an empty Maybe.
type Error struct {
	Kind ErrKind
	Msg  string
	Err  error // optional underlying cause
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, ErrInvalidOffset)
// works for every invalid-offset failure regardless of message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && e != nil && t != nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrInvalidOffset = &Error{Kind: KindInvalidOffset, Msg: "invalid offset"}
	ErrUnknownType   = &Error{Kind: KindUnknownType, Msg: "unknown type"}
	ErrMalformed     = &Error{Kind: KindMalformed, Msg: "malformed type data"}
	ErrFrozen        = &Error{Kind: KindFrozen, Msg: "profile is frozen outside Reset"}
	ErrNoProfile     = &Error{Kind: KindNoProfile, Msg: "no profile available"}
)

func newError(kind ErrKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}
