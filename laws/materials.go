package laws

import (
	"fmt"

	"github.com/notargets/gomortar/mortar"
	"gonum.org/v1/gonum/spatial/r3"
)

// NewStress builds a stress tensor from up to three rows of up to three
// components; missing entries are zero.
func NewStress(rows [][]float64) (sigma *r3.Mat, err error) {
	sigma = r3.NewMat(nil)
	if len(rows) > 3 {
		return nil, fmt.Errorf("stress has %d rows, want at most 3", len(rows))
	}
	for i, row := range rows {
		if len(row) > 3 {
			return nil, fmt.Errorf("stress row %d has %d columns, want at most 3", i, len(row))
		}
		for j, v := range row {
			sigma.Set(i, j, v)
		}
	}
	return
}

func orZero(m *r3.Mat) *r3.Mat {
	if m == nil {
		return r3.NewMat(nil)
	}
	return m
}

func scaled(a float64, m *r3.Mat) (s *r3.Mat) {
	s = r3.NewMat(nil)
	s.Scale(a, orZero(m))
	return
}

// Component returns v.X, v.Y or v.Z for k = 0, 1, 2
func Component(v r3.Vec, k int) float64 {
	switch k {
	case 0:
		return v.X
	case 1:
		return v.Y
	}
	return v.Z
}

// StressProvider supplies the material stress at a quadrature point and its
// sensitivity to a coupled field. Values are read only.
type StressProvider interface {
	Stress(qp *mortar.QPoint) *r3.Mat
	StressDerivative(qp *mortar.QPoint, name string) *r3.Mat
}

// ConstantStress is a uniform stress state with no field dependence. A nil
// Sigma is the zero tensor.
type ConstantStress struct {
	Sigma *r3.Mat
}

func (c ConstantStress) Stress(*mortar.QPoint) *r3.Mat { return orZero(c.Sigma) }

func (c ConstantStress) StressDerivative(*mortar.QPoint, string) *r3.Mat { return r3.NewMat(nil) }

// DamagedStress degrades an undamaged stress with the quadratic damage
// function (1-c)^2, where c is the coupled field named Damage.
type DamagedStress struct {
	Undamaged *r3.Mat
	Damage    string
}

func (d DamagedStress) damage(qp *mortar.QPoint) (c float64) {
	c, _ = qp.Coupled(d.Damage)
	return
}

func (d DamagedStress) Stress(qp *mortar.QPoint) *r3.Mat {
	c := d.damage(qp)
	return scaled((1-c)*(1-c), d.Undamaged)
}

func (d DamagedStress) StressDerivative(qp *mortar.QPoint, name string) *r3.Mat {
	if name != d.Damage {
		return r3.NewMat(nil)
	}
	return scaled(-2*(1-d.damage(qp)), d.Undamaged)
}
