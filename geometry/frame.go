package geometry

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// ErrDegenerate is returned when a frame cannot be built from the supplied points
var ErrDegenerate = errors.New("degenerate geometry")

// Frame is a local orthonormal frame attached to a face. For line faces
// (Dim == 1) E2 is the zero vector and plane coordinates have Y == 0.
type Frame struct {
	Dim    int
	Origin r3.Vec
	E1, E2 r3.Vec
	Normal r3.Vec
}

// NewLineFrame builds the chord frame of a line face in the z = 0 plane.
// The normal is the right-hand normal of the chord, pointing outward for a
// boundary traversed counter-clockwise.
func NewLineFrame(a, b r3.Vec) (f Frame, err error) {
	chord := r3.Sub(b, a)
	l := r3.Norm(chord)
	if l < Tol*math.Max(1, math.Max(r3.Norm(a), r3.Norm(b))) {
		err = ErrDegenerate
		return
	}
	e1 := r3.Scale(1/l, chord)
	f = Frame{
		Dim:    1,
		Origin: a,
		E1:     e1,
		Normal: r3.Vec{X: e1.Y, Y: -e1.X},
	}
	return
}

// NewPlaneFrame builds a frame through the centroid of the corners with the
// Newell normal of the corner polygon.
func NewPlaneFrame(corners []r3.Vec) (f Frame, err error) {
	var (
		n      r3.Vec
		c      r3.Vec
		nc     = len(corners)
		extent float64
	)
	if nc < 3 {
		err = ErrDegenerate
		return
	}
	for i, p := range corners {
		q := corners[(i+1)%nc]
		n.X += (p.Y - q.Y) * (p.Z + q.Z)
		n.Y += (p.Z - q.Z) * (p.X + q.X)
		n.Z += (p.X - q.X) * (p.Y + q.Y)
		c = r3.Add(c, p)
		extent = math.Max(extent, r3.Norm(r3.Sub(q, p)))
	}
	c = r3.Scale(1/float64(nc), c)
	ln := r3.Norm(n)
	if extent == 0 || ln < Tol*extent*extent {
		err = ErrDegenerate
		return
	}
	n = r3.Scale(1/ln, n)
	d := r3.Sub(corners[1], corners[0])
	d = r3.Sub(d, r3.Scale(r3.Dot(d, n), n))
	if r3.Norm(d) < Tol*extent {
		err = ErrDegenerate
		return
	}
	e1 := r3.Unit(d)
	f = Frame{
		Dim:    2,
		Origin: c,
		E1:     e1,
		E2:     r3.Cross(n, e1),
		Normal: n,
	}
	return
}

// ToPlane returns the in-frame coordinates of the orthogonal projection of x
func (f Frame) ToPlane(x r3.Vec) r2.Vec {
	d := r3.Sub(x, f.Origin)
	return r2.Vec{X: r3.Dot(d, f.E1), Y: r3.Dot(d, f.E2)}
}

// FromPlane maps in-frame coordinates back to a physical point on the frame
func (f Frame) FromPlane(p r2.Vec) r3.Vec {
	return r3.Add(f.Origin, r3.Add(r3.Scale(p.X, f.E1), r3.Scale(p.Y, f.E2)))
}

// Height is the signed distance of x above the frame along its normal
func (f Frame) Height(x r3.Vec) float64 {
	return r3.Dot(r3.Sub(x, f.Origin), f.Normal)
}
