package quadrature

import "fmt"

// Rule holds integration points in reference coordinates and their weights.
// Points has one row per point, each row of length Dim.
type Rule struct {
	Dim     int
	Points  [][]float64
	Weights []float64
}

func (r Rule) Len() int { return len(r.Weights) }

// GaussLegendre returns the n point rule on [-1,1]
func GaussLegendre(n int) (R Rule) {
	if n < 1 {
		panic(fmt.Errorf("GaussLegendre: need at least one point, have %d", n))
	}
	x, w := JacobiGQ(0, 0, n-1)
	R = Rule{Dim: 1, Points: make([][]float64, n), Weights: w}
	for i := range x {
		R.Points[i] = []float64{x[i]}
	}
	return
}

// Quad returns the n x n tensor Gauss-Legendre rule on [-1,1]^2
func Quad(n int) (R Rule) {
	var (
		gl = GaussLegendre(n)
	)
	R = Rule{Dim: 2}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			R.Points = append(R.Points, []float64{gl.Points[i][0], gl.Points[j][0]})
			R.Weights = append(R.Weights, gl.Weights[i]*gl.Weights[j])
		}
	}
	return
}

// Triangle returns an n x n collapsed-coordinate rule on the reference
// triangle (0,0), (1,0), (0,1). It is exact for polynomials of degree 2n-1.
func Triangle(n int) (R Rule) {
	if n < 1 {
		panic(fmt.Errorf("Triangle: need at least one point, have %d", n))
	}
	var (
		a, wa = JacobiGQ(0, 0, n-1)
		b, wb = JacobiGQ(1, 0, n-1) // absorbs the (1-b) collapse Jacobian
	)
	R = Rule{Dim: 2}
	for j := 0; j < n; j++ {
		for i := 0; i < n; i++ {
			r := (1 + a[i]) * (1 - b[j]) / 4
			s := (1 + b[j]) / 2
			R.Points = append(R.Points, []float64{r, s})
			R.Weights = append(R.Weights, wa[i]*wb[j]/8)
		}
	}
	return
}
