package channel

import "fmt"

type Kind string

const (
	KindInvalidInput      Kind = "invalid_input"
	KindUndefinedGeometry Kind = "undefined_geometry"
	KindNonConvergence    Kind = "non_convergence"
	KindNoTarget          Kind = "no_target_selected"
)

// Error is the only failure the solver returns. Two errors match under
// errors.Is when their kinds are equal.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

var (
	ErrInvalidInput      = &Error{Kind: KindInvalidInput, Message: "invalid input"}
	ErrUndefinedGeometry = &Error{Kind: KindUndefinedGeometry, Message: "wetted perimeter is zero"}
	ErrNonConvergence    = &Error{Kind: KindNonConvergence, Message: "solver did not converge"}
	ErrNoTarget          = &Error{Kind: KindNoTarget, Message: "nothing selected"}
)

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

func newError(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
