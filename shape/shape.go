// Package shape implements reference shape functions for boundary faces.
package shape

import (
	"fmt"

	"github.com/notargets/gomortar/quadrature"
)

// Type enumerates the supported face geometries
type Type int

const (
	Edge2 Type = iota
	Edge3
	Tri3
	Quad4
)

func (t Type) String() string {
	return [...]string{"Edge2", "Edge3", "Tri3", "Quad4"}[t]
}

// ParseType converts a face name as written in an input deck
func ParseType(name string) (t Type, err error) {
	switch name {
	case "Edge2", "edge2", "lin2":
		t = Edge2
	case "Edge3", "edge3", "lin3":
		t = Edge3
	case "Tri3", "tri3":
		t = Tri3
	case "Quad4", "quad4", "qua4":
		t = Quad4
	default:
		err = fmt.Errorf("unknown face type: %q", name)
	}
	return
}

// Func computes S[nverts] and, when derivs is set, dSdR[nverts][gndim] at r
type Func func(S []float64, dSdR [][]float64, r []float64, derivs bool)

// Shape holds the reference data of one face geometry
type Shape struct {
	Type      Type
	Func      Func
	Gndim     int         // parametric dimension: 1 for edges, 2 for surfaces
	Nverts    int         // number of nodes
	Ncorners  int         // nodes that bound the face; mid-side nodes come after
	NatCoords [][]float64 // natural coordinates [nverts][gndim]
}

var factory = map[Type]*Shape{
	Edge2: {
		Type: Edge2, Func: edge2, Gndim: 1, Nverts: 2, Ncorners: 2,
		NatCoords: [][]float64{{-1}, {1}},
	},
	Edge3: {
		Type: Edge3, Func: edge3, Gndim: 1, Nverts: 3, Ncorners: 2,
		NatCoords: [][]float64{{-1}, {1}, {0}},
	},
	Tri3: {
		Type: Tri3, Func: tri3, Gndim: 2, Nverts: 3, Ncorners: 3,
		NatCoords: [][]float64{{0, 0}, {1, 0}, {0, 1}},
	},
	Quad4: {
		Type: Quad4, Func: quad4, Gndim: 2, Nverts: 4, Ncorners: 4,
		NatCoords: [][]float64{{-1, -1}, {1, -1}, {1, 1}, {-1, 1}},
	},
}

// Get returns the shared, read-only shape of type t
func Get(t Type) *Shape {
	s, ok := factory[t]
	if !ok {
		panic(fmt.Errorf("shape type %d not registered", t))
	}
	return s
}

// Eval allocates and returns S and dSdR at r
func (o *Shape) Eval(r []float64) (S []float64, dSdR [][]float64) {
	S = make([]float64, o.Nverts)
	dSdR = make([][]float64, o.Nverts)
	for m := range dSdR {
		dSdR[m] = make([]float64, o.Gndim)
	}
	o.Func(S, dSdR, r, true)
	return
}

// Rule returns a quadrature rule with n points per parametric direction
func (o *Shape) Rule(n int) quadrature.Rule {
	switch o.Type {
	case Tri3:
		return quadrature.Triangle(n)
	case Quad4:
		return quadrature.Quad(n)
	default:
		return quadrature.GaussLegendre(n)
	}
}

// Inside reports whether r lies in the reference element, up to tol
func (o *Shape) Inside(r []float64, tol float64) bool {
	switch o.Type {
	case Tri3:
		return r[0] >= -tol && r[1] >= -tol && r[0]+r[1] <= 1+tol
	case Quad4:
		return r[0] >= -1-tol && r[0] <= 1+tol && r[1] >= -1-tol && r[1] <= 1+tol
	default:
		return r[0] >= -1-tol && r[0] <= 1+tol
	}
}

// Clamp moves r onto the closest point of the reference element
func (o *Shape) Clamp(r []float64) {
	clamp := func(v, lo, hi float64) float64 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	switch o.Type {
	case Tri3:
		r[0], r[1] = clamp(r[0], 0, 1), clamp(r[1], 0, 1)
		if s := r[0] + r[1]; s > 1 {
			r[0], r[1] = r[0]/s, r[1]/s
		}
	case Quad4:
		r[0], r[1] = clamp(r[0], -1, 1), clamp(r[1], -1, 1)
	default:
		r[0] = clamp(r[0], -1, 1)
	}
}

func edge2(S []float64, dSdR [][]float64, r []float64, derivs bool) {
	x := r[0]
	S[0] = 0.5 * (1 - x)
	S[1] = 0.5 * (1 + x)
	if !derivs {
		return
	}
	dSdR[0][0] = -0.5
	dSdR[1][0] = 0.5
}

//   -1     0    +1
//    0-----2-----1
func edge3(S []float64, dSdR [][]float64, r []float64, derivs bool) {
	x := r[0]
	S[0] = 0.5 * x * (x - 1)
	S[1] = 0.5 * x * (x + 1)
	S[2] = 1 - x*x
	if !derivs {
		return
	}
	dSdR[0][0] = x - 0.5
	dSdR[1][0] = x + 0.5
	dSdR[2][0] = -2 * x
}

func tri3(S []float64, dSdR [][]float64, r []float64, derivs bool) {
	x, y := r[0], r[1]
	S[0] = 1 - x - y
	S[1] = x
	S[2] = y
	if !derivs {
		return
	}
	dSdR[0][0], dSdR[0][1] = -1, -1
	dSdR[1][0], dSdR[1][1] = 1, 0
	dSdR[2][0], dSdR[2][1] = 0, 1
}

//  3-----------2
//  |     s     |
//  |     |     |
//  |     +--r  |
//  |           |
//  0-----------1
func quad4(S []float64, dSdR [][]float64, r []float64, derivs bool) {
	x, y := r[0], r[1]
	S[0] = 0.25 * (1 - x) * (1 - y)
	S[1] = 0.25 * (1 + x) * (1 - y)
	S[2] = 0.25 * (1 + x) * (1 + y)
	S[3] = 0.25 * (1 - x) * (1 + y)
	if !derivs {
		return
	}
	dSdR[0][0], dSdR[0][1] = -0.25*(1-y), -0.25*(1-x)
	dSdR[1][0], dSdR[1][1] = 0.25*(1-y), -0.25*(1+x)
	dSdR[2][0], dSdR[2][1] = 0.25*(1+y), 0.25*(1+x)
	dSdR[3][0], dSdR[3][1] = -0.25*(1+y), 0.25*(1-x)
}
