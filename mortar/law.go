package mortar

import "gonum.org/v1/gonum/mat"

// JacobianRow holds the element blocks for one row space at one quadrature
// point, one matrix per column space. Inactive columns are nil.
type JacobianRow struct {
	Cols [numMortarTypes]*mat.Dense
}

// Col returns the block for column space t, or nil when it is inactive
func (r *JacobianRow) Col(t MortarType) *mat.Dense { return r.Cols[t] }

// Law is a constraint law. ComputeResidual writes the weak form integrand
// of row space kind into r, one entry per test function in qp.Phi[kind]; the
// engine applies JxW and the coordinate factor. ComputeJacobian does the
// same for each active column block of row.
type Law interface {
	ComputeResidual(kind MortarType, qp *QPoint, r []float64)
	ComputeJacobian(kind MortarType, qp *QPoint, row *JacobianRow)
}

// CoupledLaw is a Law whose residual depends on foreign variables. jac is
// sized len(qp.Phi[kind]) x len(qp.CoupledPhi(v.Name)).
type CoupledLaw interface {
	Law
	ComputeCoupledJacobian(kind MortarType, v *Variable, qp *QPoint, jac *mat.Dense)
}

// PointwiseLaw is the test-function-at-a-time form of a Law
type PointwiseLaw interface {
	QpResidual(kind MortarType, i int, qp *QPoint) float64
	QpJacobian(block BlockKey, i, j int, qp *QPoint) float64
}

// PointwiseCoupledLaw adds foreign variable columns to a PointwiseLaw
type PointwiseCoupledLaw interface {
	PointwiseLaw
	QpCoupledJacobian(kind MortarType, v *Variable, i, j int, qp *QPoint) float64
}

// Pointwise adapts a PointwiseLaw into a Law. The result is a CoupledLaw
// when p implements PointwiseCoupledLaw.
func Pointwise(p PointwiseLaw) Law {
	if pc, ok := p.(PointwiseCoupledLaw); ok {
		return pointwiseCoupled{pointwise{p}, pc}
	}
	return pointwise{p}
}

type pointwise struct {
	p PointwiseLaw
}

func (pw pointwise) ComputeResidual(kind MortarType, qp *QPoint, r []float64) {
	for i := range r {
		r[i] = pw.p.QpResidual(kind, i, qp)
	}
}

func (pw pointwise) ComputeJacobian(kind MortarType, qp *QPoint, row *JacobianRow) {
	for _, col := range MortarTypes {
		jac := row.Col(col)
		if jac == nil {
			continue
		}
		nr, nc := jac.Dims()
		key := BlockKey{Row: kind, Col: col}
		for i := 0; i < nr; i++ {
			for j := 0; j < nc; j++ {
				jac.Set(i, j, pw.p.QpJacobian(key, i, j, qp))
			}
		}
	}
}

type pointwiseCoupled struct {
	pointwise
	pc PointwiseCoupledLaw
}

func (pw pointwiseCoupled) ComputeCoupledJacobian(kind MortarType, v *Variable, qp *QPoint, jac *mat.Dense) {
	nr, nc := jac.Dims()
	for i := 0; i < nr; i++ {
		for j := 0; j < nc; j++ {
			jac.Set(i, j, pw.pc.QpCoupledJacobian(kind, v, i, j, qp))
		}
	}
}
