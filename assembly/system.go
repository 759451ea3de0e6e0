package assembly

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"github.com/notargets/gomortar/mortar"
	"gonum.org/v1/gonum/mat"
)

// System is a global residual vector, sparse Jacobian and solution vector
// indexed by dof. It implements the mortar Solution, ResidualTarget and
// JacobianTarget interfaces.
type System struct {
	N        int
	U        *mat.VecDense
	Residual *mat.VecDense
	Jacobian *sparse.DOK
}

func NewSystem(n int) (s *System, err error) {
	if n < 1 {
		return nil, fmt.Errorf("system needs at least one dof, have %d", n)
	}
	s = &System{
		N:        n,
		U:        mat.NewVecDense(n, nil),
		Residual: mat.NewVecDense(n, nil),
		Jacobian: sparse.NewDOK(n, n),
	}
	return
}

func (s *System) Value(dof int) float64 { return s.U.AtVec(dof) }

func (s *System) SetValue(dof int, v float64) { s.U.SetVec(dof, v) }

// Fill sets every dof of v from f, called with the variable local index
func (s *System) Fill(v *mortar.Variable, f func(i int) float64) {
	for i := 0; i < v.Size(); i++ {
		s.U.SetVec(v.Dof(i), f(i))
	}
}

func (s *System) AddResidual(dof int, v float64) {
	s.Residual.SetVec(dof, s.Residual.AtVec(dof)+v)
}

func (s *System) AddJacobian(row, col int, v float64) {
	s.Jacobian.Set(row, col, s.Jacobian.At(row, col)+v)
}

// Reset zeroes the residual and the Jacobian, keeping the solution
func (s *System) Reset() {
	s.Residual.Zero()
	s.Jacobian = sparse.NewDOK(s.N, s.N)
}

func (s *System) JacobianCSR() *sparse.CSR { return s.Jacobian.ToCSR() }

func (s *System) NNZ() int { return s.Jacobian.NNZ() }

// Print writes the non-zero residual entries grouped by variable
func (s *System) Print(dm *DofMap) {
	fmt.Printf("Residual, %d dofs, %d Jacobian entries\n", s.N, s.NNZ())
	for _, name := range dm.Names() {
		v, _ := dm.Variable(name)
		fmt.Printf("  %s (%s, %s)\n", v.Name, v.Side, v.Family)
		for i := 0; i < v.Size(); i++ {
			if r := s.Residual.AtVec(v.Dof(i)); r != 0 {
				fmt.Printf("    [%4d] %12.6g\n", v.Dof(i), r)
			}
		}
	}
}

var (
	_ mortar.Solution       = (*System)(nil)
	_ mortar.ResidualTarget = (*System)(nil)
	_ mortar.JacobianTarget = (*System)(nil)
	_ mortar.DofRegistry    = (*DofMap)(nil)
)
