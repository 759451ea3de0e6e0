package laws

import "github.com/notargets/gomortar/mortar"

// Penalty enforces u_master = u_secondary with a penalty stiffness instead of
// a multiplier. It is written one test function at a time; wrap it with
// mortar.Pointwise.
type Penalty struct {
	Stiffness float64
}

func (p Penalty) QpResidual(kind mortar.MortarType, i int, qp *mortar.QPoint) float64 {
	if !qp.HasMaster {
		return 0
	}
	jump := qp.U[mortar.Master] - qp.U[mortar.Secondary]
	switch kind {
	case mortar.Secondary:
		return -p.Stiffness * jump * qp.Phi[mortar.Secondary][i]
	case mortar.Master:
		return p.Stiffness * jump * qp.Phi[mortar.Master][i]
	}
	return 0
}

func (p Penalty) QpJacobian(block mortar.BlockKey, i, j int, qp *mortar.QPoint) float64 {
	if !qp.HasMaster || block.Row == mortar.Multiplier || block.Col == mortar.Multiplier {
		return 0
	}
	sign := 1.
	if block.Row != block.Col {
		sign = -1
	}
	return sign * p.Stiffness * qp.Phi[block.Row][i] * qp.Phi[block.Col][j]
}
