package laws

import "gonum.org/v1/gonum/mat"

// outer sets jac = a * u v^T. A nil jac is an inactive block and is skipped.
func outer(jac *mat.Dense, a float64, u, v []float64) {
	if jac == nil {
		return
	}
	for i, ui := range u {
		for j, vj := range v {
			jac.Set(i, j, a*ui*vj)
		}
	}
}
