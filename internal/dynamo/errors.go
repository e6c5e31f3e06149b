package dynamo

import (
	"errors"
	"fmt"

	"github.com/san-kum/chainsim/internal/spatial"
	"github.com/san-kum/chainsim/internal/vmap"
)

// Domain errors for system construction, state handling and stepping.
var (
	// ErrInvalidState indicates a state with NaN or Inf entries.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")

	// ErrUnstable indicates the simulation became numerically unstable.
	ErrUnstable = errors.New("dynamo: simulation unstable (state diverged)")

	// ErrParameterBounds indicates a parameter value is outside valid range.
	ErrParameterBounds = errors.New("dynamo: parameter out of valid bounds")

	// ErrDimensionMismatch indicates a q or qd of the wrong length.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch between state and system")

	// ErrInvalidTree indicates a malformed body tree.
	ErrInvalidTree = errors.New("dynamo: invalid kinematic tree")

	// ErrImmutableField indicates an attempt to replace a structural field.
	ErrImmutableField = errors.New("dynamo: field is structural and cannot be replaced")

	// ErrUnknownField indicates a field name missing from the schema.
	ErrUnknownField = errors.New("dynamo: unknown field")

	// ErrFieldType indicates a replacement value of the wrong type.
	ErrFieldType = errors.New("dynamo: wrong value type for field")
)

// ErrStructuralMismatch indicates values whose structure disagrees, either
// across the lanes of a batch or between a system and a state.
var ErrStructuralMismatch = vmap.ErrShapeMismatch

// ErrShapeMismatch is an alias of ErrStructuralMismatch.
var ErrShapeMismatch = vmap.ErrShapeMismatch

// ErrDegenerateOrientation is returned when a quaternion joint collapses to
// zero norm.
var ErrDegenerateOrientation = spatial.ErrDegenerateOrientation

// FieldError reports a rejected Replace.
type FieldError struct {
	Field   string
	Wrapped error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s", e.Wrapped, e.Field)
}

func (e *FieldError) Unwrap() error {
	return e.Wrapped
}

// SimulationError wraps an error with rollout context.
type SimulationError struct {
	Step    int
	Time    float64
	State   State
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
