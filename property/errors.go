package property

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrCircularBinding is returned when a binding re-enters its own evaluation,
	// directly or through a chain of other bindings.
	ErrCircularBinding = errors.New("circular binding")

	// ErrDanglingReference is returned when a cell whose owning instance was
	// destroyed is read. The read yields the last known value.
	ErrDanglingReference = errors.New("dangling reference")

	// ErrReentrantMutation is returned when a change listener writes the cell
	// that is notifying it, or when a two-way forward is re-entered.
	ErrReentrantMutation = errors.New("reentrant mutation during notification")

	// ErrReadOnly is returned when writing an output or constant cell.
	ErrReadOnly = errors.New("read-only property")
)

// BindingError carries the failing cell and, for circular bindings, the
// chain of cells that closed the cycle. It unwraps to one of the sentinel
// errors above.
type BindingError struct {
	Kind error
	Cell string
	Path []string
}

func (e *BindingError) Error() string {
	if len(e.Path) > 0 {
		return fmt.Sprintf("%s: %s (%s)", e.Cell, e.Kind, strings.Join(e.Path, " -> "))
	}
	return fmt.Sprintf("%s: %s", e.Cell, e.Kind)
}

func (e *BindingError) Unwrap() error {
	return e.Kind
}

func newBindingError(kind error, n *node, path ...string) *BindingError {
	return &BindingError{
		Kind: kind,
		Cell: n.label(),
		Path: path,
	}
}
