// Package mortar couples two independently discretized boundary surfaces
// with a Lagrange multiplier field on the secondary side.
//
// Indexing:
//
//	              u_s           u_m          lambda
//	         +-------------+-------------+-------------+
//	u_s      | Sec-Sec     | Sec-Mas     | Sec-Mult    |
//	         +-------------+-------------+-------------+
//	u_m      | Mas-Sec     | Mas-Mas     | Mas-Mult    |
//	         +-------------+-------------+-------------+
//	lambda   | Mult-Sec    | Mult-Mas    | Mult-Mult   |
//	         +-------------+-------------+-------------+
//
// Work flows Generator -> Mapper -> DualBasis -> Assembler. Segments are
// regenerated whenever the pair is displaced; quadrature data is transient.
package mortar

import "fmt"

// MortarType selects the row (test function) or column (trial function)
// space of a contribution.
type MortarType int

const (
	Secondary MortarType = iota
	Master
	Multiplier
	numMortarTypes
)

// MortarTypes lists every row/column space in assembly order
var MortarTypes = [...]MortarType{Secondary, Master, Multiplier}

func (t MortarType) String() string {
	switch t {
	case Secondary:
		return "Secondary"
	case Master:
		return "Master"
	case Multiplier:
		return "Multiplier"
	}
	return fmt.Sprintf("MortarType(%d)", int(t))
}

// Side returns the surface a space lives on; the multiplier lives on the
// secondary surface.
func (t MortarType) Side() Side {
	if t == Master {
		return MasterSide
	}
	return SecondarySide
}

// BlockKey names one coupling block by its row and column spaces
type BlockKey struct {
	Row, Col MortarType
}

func (k BlockKey) String() string { return k.Row.String() + "-" + k.Col.String() }

// Side of the interface
type Side int

const (
	SecondarySide Side = iota
	MasterSide
)

func (s Side) String() string {
	if s == MasterSide {
		return "master"
	}
	return "secondary"
}

// Family distinguishes nodal fields from one-value-per-face fields
type Family int

const (
	Nodal Family = iota
	Elemental
)

func (f Family) String() string {
	if f == Elemental {
		return "elemental"
	}
	return "nodal"
}

// CoordSystem scales every quadrature weight, as for axisymmetric problems
type CoordSystem int

const (
	XYZ CoordSystem = iota
	RZ
)

func (c CoordSystem) String() string {
	if c == RZ {
		return "RZ"
	}
	return "XYZ"
}

func ParseCoordSystem(name string) (c CoordSystem, err error) {
	switch name {
	case "", "XYZ", "xyz":
		c = XYZ
	case "RZ", "rz":
		c = RZ
	default:
		err = &ConfigurationError{Reason: fmt.Sprintf("unknown coordinate system %q", name)}
	}
	return
}
