package battle

import "strings"

// ErrorKind is the error taxonomy from spec §7. It is never surfaced as a Go
// type switch across packages; callers compare Kind fields, the same way the
// teacher's handlers compare sentinel errors with errors.Is.
type ErrorKind int

const (
	KindValidation ErrorKind = iota
	KindChoice
	KindNotFound
	KindUnauthorized
	KindLifecycleViolation
	KindInternal
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindChoice:
		return "choice"
	case KindNotFound:
		return "not_found"
	case KindUnauthorized:
		return "unauthorized"
	case KindLifecycleViolation:
		return "lifecycle_violation"
	case KindInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the single error type the engine returns. It carries a Kind plus
// a list of human-readable problem strings, matching the Validation variant
// in spec §7 ("carries a list of human strings") generalized to every kind
// so callers always get the same shape back.
type Error struct {
	Kind     ErrorKind
	Messages []string
}

func (e *Error) Error() string {
	if len(e.Messages) == 0 {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + strings.Join(e.Messages, "; ")
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Messages: []string{msg}}
}

func newValidationError(problems []string) *Error {
	return &Error{Kind: KindValidation, Messages: problems}
}

// ErrLearnMoveUnimplemented is the error for the named-but-unimplemented
// LearnMove request kind (spec §9 Open Questions: "the spec leaves LearnMove
// as a named but unimplemented request kind — do not guess semantics").
// The engine never issues a LearnMove request, so no code path returns it.
var ErrLearnMoveUnimplemented = newError(KindInternal, "LearnMove requests are not implemented")
