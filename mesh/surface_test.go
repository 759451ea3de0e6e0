package mesh

import (
	"math"
	"testing"

	"github.com/notargets/gomortar/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"
)

func unitSquare(t *testing.T, z float64) *Surface {
	s, err := NewSurface("square", 3,
		[][]float64{{0, 0, z}, {1, 0, z}, {1, 1, z}, {0, 1, z}},
		[][]int{{0, 1, 2, 3}}, []shape.Type{shape.Quad4})
	require.NoError(t, err)
	return s
}

func TestNewSurface_Validation(t *testing.T) {
	_, err := NewSurface("bad", 4, nil, nil, nil)
	assert.Error(t, err)
	_, err = NewSurface("bad", 2, [][]float64{{0, 0}, {1, 0}}, [][]int{{0, 1}}, []shape.Type{shape.Quad4})
	assert.Error(t, err)
	_, err = NewSurface("bad", 2, [][]float64{{0, 0}, {1, 0}}, [][]int{{0, 2}}, []shape.Type{shape.Edge2})
	assert.Error(t, err)
	_, err = NewSurface("bad", 3, [][]float64{{0, 0, 0}}, [][]int{{0, 0, 0}}, []shape.Type{shape.Quad4})
	assert.Error(t, err)
}

func TestSurface_EvalQuad(t *testing.T) {
	s := unitSquare(t, 0)
	fp, err := s.Eval(0, []float64{0, 0})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, fp.DetJ, 1e-15)
	assert.InDelta(t, 1., fp.Normal.Z, 1e-15)
	assert.InDelta(t, 0.5, fp.X.X, 1e-15)
	assert.InDelta(t, 1., floats.Sum(fp.N), 1e-15)
	assert.InDelta(t, -0.5, fp.GradN[0].X, 1e-15)
	assert.InDelta(t, -0.5, fp.GradN[0].Y, 1e-15)
	assert.InDelta(t, 0.5, fp.GradN[2].X, 1e-15)

	// Surface gradients of a partition of unity sum to zero
	var sum r3.Vec
	for _, g := range fp.GradN {
		sum = r3.Add(sum, g)
	}
	assert.InDelta(t, 0., r3.Norm(sum), 1e-15)

	area, err := s.Measure(0)
	require.NoError(t, err)
	assert.InDelta(t, 1., area, 1e-14)

	tt := fp.UnitTangents()
	require.Len(t, tt, 2)
	assert.InDelta(t, 1., tt[0].X, 1e-15)
	assert.InDelta(t, 1., tt[1].Y, 1e-15)
}

func TestSurface_EvalEdge(t *testing.T) {
	s, err := NewSurface("line", 2, [][]float64{{0, 0}, {2, 0}, {1, 0.5}}, [][]int{{0, 1}}, []shape.Type{shape.Edge2})
	require.NoError(t, err)
	fp, err := s.Eval(0, []float64{0.5})
	require.NoError(t, err)
	assert.InDelta(t, 1., fp.DetJ, 1e-15)
	assert.InDelta(t, -1., fp.Normal.Y, 1e-15)
	assert.InDelta(t, 1.5, fp.X.X, 1e-15)
	assert.InDelta(t, -0.5, fp.GradN[0].X, 1e-15)

	{ // Quadratic arc measure converges to the parabola length
		arc, err := NewSurface("arc", 2, [][]float64{{0, 0}, {2, 0}, {1, 0.5}}, [][]int{{0, 1, 2}}, []shape.Type{shape.Edge3})
		require.NoError(t, err)
		l, err := arc.Measure(0)
		require.NoError(t, err)
		// y = 0.5*(1-(x-1)^2), length = ∫_0^2 sqrt(1 + (x-1)^2) dx
		exact := math.Sqrt2 + math.Asinh(1)
		assert.InDelta(t, exact, l, 1e-3)
	}
}

func TestSurface_Degenerate(t *testing.T) {
	s, err := NewSurface("flat", 3,
		[][]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
		[][]int{{0, 1, 2, 3}}, []shape.Type{shape.Quad4})
	require.NoError(t, err)
	_, err = s.Eval(0, []float64{0, 0})
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestSurface_Project(t *testing.T) {
	s := unitSquare(t, 0)
	r, dist, err := s.Project(0, r3.Vec{X: 0.75, Y: 0.25, Z: 1}, r3.Vec{Z: -1})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, r[0], 1e-12)
	assert.InDelta(t, -0.5, r[1], 1e-12)
	assert.InDelta(t, 1., dist, 1e-12)

	// Direction in the face plane has no projection axis
	_, _, err = s.Project(0, r3.Vec{X: 0.5, Y: 0.5, Z: 1}, r3.Vec{X: 1})
	assert.ErrorIs(t, err, ErrNoProjection)
}

func TestSurface_Displaced(t *testing.T) {
	s := unitSquare(t, 0)
	d, err := s.Displaced([][]float64{{0, 0, 0, 0}, {0, 0, 0, 0}, {1, 1, 1, 1}})
	require.NoError(t, err)
	assert.InDelta(t, 1., d.X[2].Z, 1e-15)
	assert.InDelta(t, 0., s.X[2].Z, 1e-15)
	_, err = s.Displaced([][]float64{{0}})
	assert.Error(t, err)
}

func TestFaceIndex(t *testing.T) {
	var (
		coords [][]float64
		conn   [][]int
		types  []shape.Type
	)
	for i := 0; i <= 4; i++ {
		coords = append(coords, []float64{float64(i), 0})
	}
	for i := 0; i < 4; i++ {
		conn = append(conn, []int{i, i + 1})
		types = append(types, shape.Edge2)
	}
	s, err := NewSurface("line", 2, coords, conn, types)
	require.NoError(t, err)

	_, err = NewFaceIndex(s, 0)
	assert.Error(t, err)

	fi, err := NewFaceIndex(s, 0.01)
	require.NoError(t, err)
	assert.Equal(t, 4, fi.Size())
	ids, err := fi.Search(r3.Vec{X: 1.2, Y: -0.1}, r3.Vec{X: 2.5, Y: 0.1}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, ids)
	ids, err = fi.Search(r3.Vec{X: 10, Y: 10}, r3.Vec{X: 11, Y: 11}, 0)
	require.NoError(t, err)
	assert.Len(t, ids, 0)
}
