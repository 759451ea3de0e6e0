package geometry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

const Tol = 1.e-12

func cross(a, b r2.Vec) float64 { return a.X*b.Y - a.Y*b.X }

// Polygon is a closed polygon in a frame; counter-clockwise when convex
// polygons are produced by this package.
type Polygon []r2.Vec

// SignedArea is positive for counter-clockwise vertex order
func (p Polygon) SignedArea() (a float64) {
	n := len(p)
	for i := 0; i < n; i++ {
		a += cross(p[i], p[(i+1)%n])
	}
	return 0.5 * a
}

func (p Polygon) Area() float64 { return math.Abs(p.SignedArea()) }

func (p Polygon) Centroid() (c r2.Vec) {
	var (
		n = len(p)
		a = p.SignedArea()
	)
	if n == 0 {
		return
	}
	if math.Abs(a) < Tol*p.Diameter()*p.Diameter() {
		for _, v := range p {
			c = r2.Add(c, v)
		}
		return r2.Scale(1/float64(n), c)
	}
	for i := 0; i < n; i++ {
		q, r := p[i], p[(i+1)%n]
		w := cross(q, r)
		c.X += (q.X + r.X) * w
		c.Y += (q.Y + r.Y) * w
	}
	return r2.Scale(1/(6*a), c)
}

func (p Polygon) Diameter() (d float64) {
	for i := range p {
		for j := i + 1; j < len(p); j++ {
			d = math.Max(d, r2.Norm(r2.Sub(p[i], p[j])))
		}
	}
	return
}

// CCW returns the polygon in counter-clockwise order
func (p Polygon) CCW() Polygon {
	if p.SignedArea() >= 0 {
		return p
	}
	q := make(Polygon, len(p))
	for i := range p {
		q[i] = p[len(p)-1-i]
	}
	return q
}

// IsConvex reports whether a counter-clockwise polygon is convex, allowing
// collinear vertices up to tol relative to its diameter.
func (p Polygon) IsConvex(tol float64) bool {
	var (
		n     = len(p)
		scale = p.Diameter()
	)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a, b, c := p[i], p[(i+1)%n], p[(i+2)%n]
		if cross(r2.Sub(b, a), r2.Sub(c, b)) < -tol*scale*scale {
			return false
		}
	}
	return true
}

// clipHalf keeps the part of p on the left (keepLeft) or right of the
// directed line a->b. Sutherland-Hodgman on a single edge.
func clipHalf(p Polygon, a, b r2.Vec, keepLeft bool) (out Polygon) {
	var (
		n   = len(p)
		dir = r2.Sub(b, a)
	)
	side := func(v r2.Vec) float64 {
		s := cross(dir, r2.Sub(v, a))
		if !keepLeft {
			s = -s
		}
		return s
	}
	for i := 0; i < n; i++ {
		cur, prev := p[i], p[(i+n-1)%n]
		sc, sp := side(cur), side(prev)
		if sc >= 0 {
			if sp < 0 {
				out = append(out, lerp(prev, cur, sp/(sp-sc)))
			}
			out = append(out, cur)
		} else if sp >= 0 {
			out = append(out, lerp(prev, cur, sp/(sp-sc)))
		}
	}
	return out.dedupe()
}

func lerp(a, b r2.Vec, t float64) r2.Vec {
	return r2.Add(a, r2.Scale(t, r2.Sub(b, a)))
}

func (p Polygon) dedupe() (out Polygon) {
	scale := p.Diameter()
	for i, v := range p {
		if i > 0 && r2.Norm(r2.Sub(v, out[len(out)-1])) <= Tol*scale {
			continue
		}
		out = append(out, v)
	}
	if len(out) > 1 && r2.Norm(r2.Sub(out[0], out[len(out)-1])) <= Tol*scale {
		out = out[:len(out)-1]
	}
	return
}

// Intersect returns p ∩ clip for a counter-clockwise convex clip polygon
func (p Polygon) Intersect(clip Polygon) (out Polygon) {
	out = p
	n := len(clip)
	for i := 0; i < n && len(out) > 2; i++ {
		out = clipHalf(out, clip[i], clip[(i+1)%n], true)
	}
	if len(out) < 3 {
		return nil
	}
	return
}

// Subtract returns a set of disjoint convex pieces covering p \ clip, for
// convex p and counter-clockwise convex clip.
func (p Polygon) Subtract(clip Polygon) (pieces []Polygon) {
	var (
		rest = p
		n    = len(clip)
	)
	for i := 0; i < n && len(rest) > 2; i++ {
		a, b := clip[i], clip[(i+1)%n]
		if outside := clipHalf(rest, a, b, false); len(outside) > 2 && outside.Area() > 0 {
			pieces = append(pieces, outside)
		}
		rest = clipHalf(rest, a, b, true)
	}
	return
}

// Fan splits a convex polygon into triangles sharing vertex 0
func (p Polygon) Fan() (tris [][3]r2.Vec) {
	for i := 1; i+1 < len(p); i++ {
		tris = append(tris, [3]r2.Vec{p[0], p[i], p[i+1]})
	}
	return
}
