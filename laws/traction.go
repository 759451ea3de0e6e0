package laws

import (
	"github.com/notargets/gomortar/mortar"
	"gonum.org/v1/gonum/mat"
)

// TractionTransfer ties the multiplier to component k of the secondary
// traction, lambda = (sigma n)_k, and transmits it to both primal fields as
// an equal and opposite load. The stress may depend on a coupled field; its
// sensitivity enters the multiplier row as an off-diagonal block.
type TractionTransfer struct {
	Component int
	Materials StressProvider
}

func (t TractionTransfer) traction(qp *mortar.QPoint) float64 {
	return Component(t.Materials.Stress(qp).MulVec(qp.Normal), t.Component)
}

func (t TractionTransfer) ComputeResidual(kind mortar.MortarType, qp *mortar.QPoint, r []float64) {
	lambda := qp.U[mortar.Multiplier]
	switch kind {
	case mortar.Secondary:
		for i, phi := range qp.Phi[mortar.Secondary] {
			r[i] = phi * lambda
		}
	case mortar.Master:
		for i, phi := range qp.Phi[mortar.Master] {
			r[i] = -phi * lambda
		}
	case mortar.Multiplier:
		g := lambda - t.traction(qp)
		for i, psi := range qp.Phi[mortar.Multiplier] {
			r[i] = psi * g
		}
	}
}

func (t TractionTransfer) ComputeJacobian(kind mortar.MortarType, qp *mortar.QPoint, row *mortar.JacobianRow) {
	psi := qp.Phi[mortar.Multiplier]
	switch kind {
	case mortar.Secondary:
		outer(row.Col(mortar.Multiplier), 1, qp.Phi[mortar.Secondary], psi)
	case mortar.Master:
		outer(row.Col(mortar.Multiplier), -1, qp.Phi[mortar.Master], psi)
	case mortar.Multiplier:
		outer(row.Col(mortar.Multiplier), 1, psi, psi)
	}
}

// ComputeCoupledJacobian fills -psi_i ((dsigma/dc) n)_k phi_c,j
func (t TractionTransfer) ComputeCoupledJacobian(kind mortar.MortarType, v *mortar.Variable, qp *mortar.QPoint, jac *mat.Dense) {
	if kind != mortar.Multiplier {
		return
	}
	ds := Component(t.Materials.StressDerivative(qp, v.Name).MulVec(qp.Normal), t.Component)
	outer(jac, -ds, qp.Phi[mortar.Multiplier], qp.CoupledPhi(v.Name))
}
