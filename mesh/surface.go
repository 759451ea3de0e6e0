// Package mesh holds the boundary surfaces that take part in a mortar
// interface, with the face level geometry needed to project one surface onto
// another.
package mesh

import (
	"errors"
	"fmt"
	"math"

	"github.com/notargets/gomortar/shape"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

var (
	ErrDegenerate    = errors.New("degenerate face")
	ErrNoProjection  = errors.New("projection direction is tangent to face")
	ErrNoConvergence = errors.New("projection did not converge")
)

// constants
const (
	MINDET     = 1.0e-14 // minimum face Jacobian relative to the squared face size
	INVMAP_TOL = 1.0e-12 // tolerance for the projection Newton iterations
	INVMAP_NIT = 25      // maximum number of projection iterations
)

// Face is one boundary element of a Surface
type Face struct {
	ID    int
	Type  shape.Type
	Nodes []int
}

// Surface is a set of boundary faces with nodal coordinates. Dim is the
// spatial dimension: line faces live in the z = 0 plane of a 2D problem,
// triangle and quad faces live in 3D.
type Surface struct {
	Name  string
	Dim   int
	X     []r3.Vec
	Faces []Face
}

// NewSurface validates connectivity and builds a Surface. coords is
// [nnodes][dim], conn is [nfaces][nverts], types is [nfaces].
func NewSurface(name string, dim int, coords [][]float64, conn [][]int, types []shape.Type) (s *Surface, err error) {
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("surface %q: spatial dimension must be 2 or 3, have %d", name, dim)
	}
	if len(conn) != len(types) {
		return nil, fmt.Errorf("surface %q: %d faces but %d face types", name, len(conn), len(types))
	}
	s = &Surface{
		Name:  name,
		Dim:   dim,
		X:     make([]r3.Vec, len(coords)),
		Faces: make([]Face, len(conn)),
	}
	for n, c := range coords {
		if len(c) < dim {
			return nil, fmt.Errorf("surface %q: node %d has %d coordinates, need %d", name, n, len(c), dim)
		}
		s.X[n] = r3.Vec{X: c[0], Y: c[1]}
		if dim == 3 {
			s.X[n].Z = c[2]
		}
	}
	for f, nodes := range conn {
		shp := shape.Get(types[f])
		if (shp.Gndim == 1) != (dim == 2) {
			return nil, fmt.Errorf("surface %q: face %d of type %s does not fit a %dD problem", name, f, types[f], dim)
		}
		if len(nodes) != shp.Nverts {
			return nil, fmt.Errorf("surface %q: face %d of type %s needs %d nodes, have %d",
				name, f, types[f], shp.Nverts, len(nodes))
		}
		for _, n := range nodes {
			if n < 0 || n >= len(coords) {
				return nil, fmt.Errorf("surface %q: face %d references node %d, have %d nodes", name, f, n, len(coords))
			}
		}
		s.Faces[f] = Face{ID: f, Type: types[f], Nodes: append([]int{}, nodes...)}
	}
	return
}

func (s *Surface) NumNodes() int { return len(s.X) }

func (s *Surface) NumFaces() int { return len(s.Faces) }

func (s *Surface) Shape(f int) *shape.Shape { return shape.Get(s.Faces[f].Type) }

// Displaced returns a copy of s with nodal coordinates moved by u, where
// u[component][node] holds up to Dim displacement components.
func (s *Surface) Displaced(u [][]float64) (d *Surface, err error) {
	if len(u) > s.Dim {
		return nil, fmt.Errorf("surface %q: %d displacement components for a %dD problem", s.Name, len(u), s.Dim)
	}
	d = &Surface{
		Name:  s.Name,
		Dim:   s.Dim,
		X:     append([]r3.Vec{}, s.X...),
		Faces: s.Faces,
	}
	for c, comp := range u {
		if len(comp) != len(s.X) {
			return nil, fmt.Errorf("surface %q: displacement component %d has %d values, have %d nodes",
				s.Name, c, len(comp), len(s.X))
		}
		for n, val := range comp {
			switch c {
			case 0:
				d.X[n].X += val
			case 1:
				d.X[n].Y += val
			case 2:
				d.X[n].Z += val
			}
		}
	}
	return
}

// Corners returns the vertices bounding face f, in face order
func (s *Surface) Corners(f int) (c []r3.Vec) {
	var (
		face = s.Faces[f]
		shp  = shape.Get(face.Type)
	)
	c = make([]r3.Vec, shp.Ncorners)
	for i := 0; i < shp.Ncorners; i++ {
		c[i] = s.X[face.Nodes[i]]
	}
	return
}

func (s *Surface) Centroid(f int) (c r3.Vec) {
	corners := s.Corners(f)
	for _, p := range corners {
		c = r3.Add(c, p)
	}
	return r3.Scale(1/float64(len(corners)), c)
}

// Diameter is the largest distance between two nodes of face f
func (s *Surface) Diameter(f int) (d float64) {
	nodes := s.Faces[f].Nodes
	for i := range nodes {
		for j := i + 1; j < len(nodes); j++ {
			d = math.Max(d, r3.Norm(r3.Sub(s.X[nodes[i]], s.X[nodes[j]])))
		}
	}
	return
}

// Bounds returns the axis aligned box of face f
func (s *Surface) Bounds(f int) (lo, hi r3.Vec) {
	for i, n := range s.Faces[f].Nodes {
		x := s.X[n]
		if i == 0 {
			lo, hi = x, x
			continue
		}
		lo = r3.Vec{X: math.Min(lo.X, x.X), Y: math.Min(lo.Y, x.Y), Z: math.Min(lo.Z, x.Z)}
		hi = r3.Vec{X: math.Max(hi.X, x.X), Y: math.Max(hi.Y, x.Y), Z: math.Max(hi.Z, x.Z)}
	}
	return
}

// FacePoint is the geometry of a face evaluated at one natural coordinate
type FacePoint struct {
	X        r3.Vec
	Tangents []r3.Vec // covariant base vectors dx/dr_a
	Normal   r3.Vec   // unit outward normal
	DetJ     float64  // length or area scale of the face mapping
	N        []float64
	GradN    []r3.Vec // surface gradients of N
}

// UnitTangents returns the normalized covariant base vectors
func (fp FacePoint) UnitTangents() (t []r3.Vec) {
	t = make([]r3.Vec, len(fp.Tangents))
	for i, g := range fp.Tangents {
		t[i] = r3.Unit(g)
	}
	return
}

// Eval computes position, base vectors, normal, DetJ, shape functions and
// their surface gradients for face f at natural coordinates r.
func (s *Surface) Eval(f int, r []float64) (fp FacePoint, err error) {
	var (
		face    = s.Faces[f]
		shp     = shape.Get(face.Type)
		S, dSdR = shp.Eval(r)
		h       = s.Diameter(f)
	)
	fp.N = S
	fp.Tangents = make([]r3.Vec, shp.Gndim)
	for m, n := range face.Nodes {
		x := s.X[n]
		fp.X = r3.Add(fp.X, r3.Scale(S[m], x))
		for a := 0; a < shp.Gndim; a++ {
			fp.Tangents[a] = r3.Add(fp.Tangents[a], r3.Scale(dSdR[m][a], x))
		}
	}
	fp.GradN = make([]r3.Vec, shp.Nverts)
	if shp.Gndim == 1 {
		g := fp.Tangents[0]
		fp.DetJ = r3.Norm(g)
		if fp.DetJ < MINDET*math.Max(h, MINDET) {
			err = fmt.Errorf("surface %q face %d: %w", s.Name, f, ErrDegenerate)
			return
		}
		fp.Normal = r3.Vec{X: g.Y / fp.DetJ, Y: -g.X / fp.DetJ}
		gc := r3.Scale(1/(fp.DetJ*fp.DetJ), g)
		for m := range S {
			fp.GradN[m] = r3.Scale(dSdR[m][0], gc)
		}
		return
	}
	g1, g2 := fp.Tangents[0], fp.Tangents[1]
	nv := r3.Cross(g1, g2)
	fp.DetJ = r3.Norm(nv)
	if fp.DetJ < MINDET*math.Max(h*h, MINDET) {
		err = fmt.Errorf("surface %q face %d: %w", s.Name, f, ErrDegenerate)
		return
	}
	fp.Normal = r3.Scale(1/fp.DetJ, nv)
	var (
		g11 = r3.Dot(g1, g1)
		g12 = r3.Dot(g1, g2)
		g22 = r3.Dot(g2, g2)
		det = g11*g22 - g12*g12
	)
	// contravariant base vectors from the inverse metric
	c1 := r3.Scale(1/det, r3.Sub(r3.Scale(g22, g1), r3.Scale(g12, g2)))
	c2 := r3.Scale(1/det, r3.Sub(r3.Scale(g11, g2), r3.Scale(g12, g1)))
	for m := range S {
		fp.GradN[m] = r3.Add(r3.Scale(dSdR[m][0], c1), r3.Scale(dSdR[m][1], c2))
	}
	return
}

// Measure integrates DetJ over face f
func (s *Surface) Measure(f int) (area float64, err error) {
	var (
		shp  = s.Shape(f)
		rule = shp.Rule(4)
		fp   FacePoint
	)
	for i, r := range rule.Points {
		if fp, err = s.Eval(f, r); err != nil {
			return
		}
		area += rule.Weights[i] * fp.DetJ
	}
	return
}

// Center returns the natural coordinates of the face center
func Center(shp *shape.Shape) []float64 {
	switch shp.Type {
	case shape.Tri3:
		return []float64{1. / 3., 1. / 3.}
	case shape.Quad4:
		return []float64{0, 0}
	default:
		return []float64{0}
	}
}

// Project finds natural coordinates r and distance t such that
// x(r) = x0 + t*dir on face f, using Newton iterations started at the face
// center. The returned r may lie outside the reference element; callers
// decide what to accept.
func (s *Surface) Project(f int, x0, dir r3.Vec) (r []float64, t float64, err error) {
	var (
		shp  = s.Shape(f)
		nd   = s.Dim
		nu   = shp.Gndim + 1
		J    = mat.NewDense(nd, nu, nil)
		e    = mat.NewVecDense(nd, nil)
		dr   = mat.NewVecDense(nu, nil)
		h    = math.Max(s.Diameter(f), INVMAP_TOL)
		comp = func(v r3.Vec, i int) float64 {
			switch i {
			case 0:
				return v.X
			case 1:
				return v.Y
			}
			return v.Z
		}
		fp FacePoint
	)
	r = Center(shp)
	for it := 0; it < INVMAP_NIT; it++ {
		if fp, err = s.Eval(f, r); err != nil {
			return
		}
		// residual: e = x0 + t*dir - x(r)
		res := r3.Sub(r3.Add(x0, r3.Scale(t, dir)), fp.X)
		for i := 0; i < nd; i++ {
			e.SetVec(i, comp(res, i))
			for a := 0; a < shp.Gndim; a++ {
				J.Set(i, a, comp(fp.Tangents[a], i))
			}
			J.Set(i, shp.Gndim, -comp(dir, i))
		}
		if err = dr.SolveVec(J, e); err != nil {
			var cond mat.Condition
			if errors.As(err, &cond) && float64(cond) <= 1/MINDET {
				err = nil
			} else {
				err = fmt.Errorf("surface %q face %d: %w", s.Name, f, ErrNoProjection)
				return
			}
		}
		var norm float64
		for a := 0; a < shp.Gndim; a++ {
			r[a] += dr.AtVec(a)
			norm += dr.AtVec(a) * dr.AtVec(a)
		}
		t += dr.AtVec(shp.Gndim)
		if math.Sqrt(norm) < INVMAP_TOL && math.Abs(dr.AtVec(shp.Gndim)) < INVMAP_TOL*h {
			return
		}
	}
	err = fmt.Errorf("surface %q face %d: %w after %d iterations", s.Name, f, ErrNoConvergence, INVMAP_NIT)
	return
}
