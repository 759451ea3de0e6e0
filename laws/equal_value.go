// Package laws holds concrete constraint laws for the mortar assembler.
//
// Sign convention: every law is the variation of int lambda * g, where g is
// the constraint function. Rows of the primal spaces carry +/- phi * lambda
// and the multiplier row carries psi * g, so the primal-multiplier blocks are
// transposes of the multiplier-primal blocks.
package laws

import (
	"github.com/notargets/gomortar/mortar"
)

// EqualValue enforces u_master = u_secondary weakly. On non-projecting
// segments the multiplier row becomes psi * lambda, which drives the
// multiplier to zero where there is nothing to couple to.
type EqualValue struct{}

func (EqualValue) ComputeResidual(kind mortar.MortarType, qp *mortar.QPoint, r []float64) {
	lambda := qp.U[mortar.Multiplier]
	switch kind {
	case mortar.Secondary:
		for i, phi := range qp.Phi[mortar.Secondary] {
			r[i] = -phi * lambda
		}
	case mortar.Master:
		for i, phi := range qp.Phi[mortar.Master] {
			r[i] = phi * lambda
		}
	case mortar.Multiplier:
		g := lambda
		if qp.HasMaster {
			g = qp.U[mortar.Master] - qp.U[mortar.Secondary]
		}
		for i, psi := range qp.Phi[mortar.Multiplier] {
			r[i] = psi * g
		}
	}
}

func (EqualValue) ComputeJacobian(kind mortar.MortarType, qp *mortar.QPoint, row *mortar.JacobianRow) {
	psi := qp.Phi[mortar.Multiplier]
	switch kind {
	case mortar.Secondary:
		outer(row.Col(mortar.Multiplier), -1, qp.Phi[mortar.Secondary], psi)
	case mortar.Master:
		outer(row.Col(mortar.Multiplier), 1, qp.Phi[mortar.Master], psi)
	case mortar.Multiplier:
		if qp.HasMaster {
			outer(row.Col(mortar.Master), 1, psi, qp.Phi[mortar.Master])
			outer(row.Col(mortar.Secondary), -1, psi, qp.Phi[mortar.Secondary])
			return
		}
		outer(row.Col(mortar.Multiplier), 1, psi, psi)
	}
}
