package extract

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the extraction pipeline.
var (
	// ErrNoSamples indicates the trace has no samples after ignition trimming.
	ErrNoSamples = errors.New("simulation trace has no samples after ignition")
	// ErrNoBurnout indicates the normalized propellant curve never reaches zero.
	ErrNoBurnout = errors.New("propellant mass never reaches zero")
	// ErrNoRadius indicates no numeric radius was found on any body component.
	ErrNoRadius = errors.New("no numeric body radius found")
	// ErrNoPropellant indicates the rocket mass does not drop between ignition and burnout.
	ErrNoPropellant = errors.New("rocket mass does not change between ignition and burnout")
	// ErrNoMotorMount indicates the document has no motor mount.
	ErrNoMotorMount = errors.New("no motor mount found")
)

// MissingColumnError is returned when a required time-series column is absent.
type MissingColumnError struct {
	Label        string
	Alternatives []string
}

func (e *MissingColumnError) Error() string {
	if len(e.Alternatives) == 0 {
		return fmt.Sprintf("simulation trace has no %q column", e.Label)
	}
	return fmt.Sprintf("simulation trace has no %q column (also tried %s)",
		e.Label, strings.Join(e.Alternatives, ", "))
}

// ElementNotFoundError is returned when a surface has no counterpart in the
// position map built by the tree walker.
type ElementNotFoundError struct {
	Kind string
	Name string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found in component tree", e.Kind, e.Name)
}
