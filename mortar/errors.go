package mortar

import (
	"errors"
	"fmt"
)

var (
	ErrGeometry      = errors.New("mortar geometry error")
	ErrSingularBasis = errors.New("mortar singular dual basis")
	ErrConfiguration = errors.New("mortar configuration error")
	ErrIndex         = errors.New("mortar index error")
	ErrStaleSegments = errors.New("mortar segments are stale")
	ErrNoMaster      = errors.New("no master face projects onto region")
	ErrNonFinite     = errors.New("non-finite contribution")
)

// GeometryError reports degenerate or non-projecting surfaces where a
// projection is mandatory. It aborts the current assembly pass.
type GeometryError struct {
	Surface string
	Face    int
	Reason  string
	Err     error
}

func (e *GeometryError) Error() string {
	msg := fmt.Sprintf("geometry error on %s face %d: %s", e.Surface, e.Face, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *GeometryError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrGeometry}
	}
	return []error{ErrGeometry, e.Err}
}

// SingularBasisError reports a per-face mass matrix that cannot be inverted
// while building the dual multiplier basis. It is also a configuration
// error: the multiplier discretization does not fit the secondary mesh.
type SingularBasisError struct {
	Face      int
	Condition float64
	Reason    string
}

func (e *SingularBasisError) Error() string {
	return fmt.Sprintf("singular dual basis on secondary face %d (condition %g): %s", e.Face, e.Condition, e.Reason)
}

func (e *SingularBasisError) Unwrap() []error { return []error{ErrSingularBasis, ErrConfiguration} }

// ConfigurationError reports inconsistent wiring detected at setup time
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string { return "configuration error: " + e.Reason }

func (e *ConfigurationError) Unwrap() error { return ErrConfiguration }

func configErrorf(format string, args ...any) error {
	return &ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// IndexError reports a dof that is not present in the coupling registry
type IndexError struct {
	Variable string
	Dof      int
	NumDofs  int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index error: variable %q references dof %d, registry holds %d dofs", e.Variable, e.Dof, e.NumDofs)
}

func (e *IndexError) Unwrap() error { return ErrIndex }
