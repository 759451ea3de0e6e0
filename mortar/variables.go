package mortar

import (
	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/utils"
)

// Variable is a scalar field living on one side of the interface, numbered
// into the global system either per node or per face.
type Variable struct {
	Name   string
	Side   Side
	Family Family
	dofs   []int
}

// NewVariable takes ownership of dofs, indexed by surface node for Nodal and
// by face for Elemental fields.
func NewVariable(name string, side Side, family Family, dofs []int) *Variable {
	return &Variable{Name: name, Side: side, Family: family, dofs: dofs}
}

func (v *Variable) Size() int { return len(v.dofs) }

func (v *Variable) Dof(i int) int { return v.dofs[i] }

// FaceDofs returns the dofs a face touches, in face node order
func (v *Variable) FaceDofs(face mesh.Face) (d []int) {
	if v.Family == Elemental {
		return []int{v.dofs[face.ID]}
	}
	d = make([]int, len(face.Nodes))
	for i, n := range face.Nodes {
		d[i] = v.dofs[n]
	}
	return
}

// NodalValues reads the field from sol, one value per dof entry
func (v *Variable) NodalValues(sol Solution) (u []float64) {
	u = make([]float64, len(v.dofs))
	for i, d := range v.dofs {
		u[i] = sol.Value(d)
	}
	return
}

// Variables is the triple coupled by one constraint, plus foreign fields that
// only enter through off-diagonal Jacobian contributions.
type Variables struct {
	Secondary  *Variable
	Master     *Variable
	Multiplier utils.Option[*Variable]
	Coupled    []*Variable
}

// DofRegistry is the set of dofs known to the global system
type DofRegistry interface {
	Has(dof int) bool
	NumDofs() int
}

// Solution supplies current field values by global dof
type Solution interface {
	Value(dof int) float64
}

// ResidualTarget accumulates residual entries; implementations must add,
// never overwrite.
type ResidualTarget interface {
	AddResidual(dof int, v float64)
}

// JacobianTarget accumulates Jacobian entries additively
type JacobianTarget interface {
	AddJacobian(row, col int, v float64)
}
