package laws

import (
	"math"

	"github.com/notargets/gomortar/mortar"
)

// GapConductance transfers heat across the interface with flux
// q = h (T_secondary - T_master). It has no multiplier; run it with
// ComputeLagrangeMultiplierResiduals off. When Conductivity is set the
// coefficient is Conductivity / max(|gap|, MinGap) instead of H.
type GapConductance struct {
	H            float64
	Conductivity float64
	MinGap       float64
}

func (g GapConductance) coefficient(qp *mortar.QPoint) float64 {
	if g.Conductivity == 0 {
		return g.H
	}
	return g.Conductivity / math.Max(math.Abs(qp.Gap), g.MinGap)
}

func (g GapConductance) ComputeResidual(kind mortar.MortarType, qp *mortar.QPoint, r []float64) {
	if !qp.HasMaster {
		return
	}
	q := g.coefficient(qp) * (qp.U[mortar.Secondary] - qp.U[mortar.Master])
	switch kind {
	case mortar.Secondary:
		for i, phi := range qp.Phi[mortar.Secondary] {
			r[i] = phi * q
		}
	case mortar.Master:
		for i, phi := range qp.Phi[mortar.Master] {
			r[i] = -phi * q
		}
	}
}

func (g GapConductance) ComputeJacobian(kind mortar.MortarType, qp *mortar.QPoint, row *mortar.JacobianRow) {
	if !qp.HasMaster {
		return
	}
	var (
		h      = g.coefficient(qp)
		ps, pm = qp.Phi[mortar.Secondary], qp.Phi[mortar.Master]
	)
	switch kind {
	case mortar.Secondary:
		outer(row.Col(mortar.Secondary), h, ps, ps)
		outer(row.Col(mortar.Master), -h, ps, pm)
	case mortar.Master:
		outer(row.Col(mortar.Secondary), -h, pm, ps)
		outer(row.Col(mortar.Master), h, pm, pm)
	}
}
