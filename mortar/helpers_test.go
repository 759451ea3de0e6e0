package mortar

import (
	"testing"

	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/shape"
	"github.com/stretchr/testify/require"
)

// QuadGrid builds an nx by ny grid of Quad4 faces covering
// [x0, x0+w] x [y0, y0+h] at height z. With down set the faces are wound
// clockwise seen from +z, so their normals point down.
func QuadGrid(t *testing.T, name string, nx, ny int, x0, y0, w, h, z float64, down bool) *mesh.Surface {
	var (
		coords [][]float64
		conn   [][]int
		types  []shape.Type
		node   = func(i, j int) int { return j*(nx+1) + i }
	)
	for j := 0; j <= ny; j++ {
		for i := 0; i <= nx; i++ {
			coords = append(coords, []float64{x0 + w*float64(i)/float64(nx), y0 + h*float64(j)/float64(ny), z})
		}
	}
	for j := 0; j < ny; j++ {
		for i := 0; i < nx; i++ {
			f := []int{node(i, j), node(i+1, j), node(i+1, j+1), node(i, j+1)}
			if down {
				f = []int{f[0], f[3], f[2], f[1]}
			}
			conn = append(conn, f)
			types = append(types, shape.Quad4)
		}
	}
	s, err := mesh.NewSurface(name, 3, coords, conn, types)
	require.NoError(t, err)
	return s
}

// EdgeLine builds consecutive Edge2 faces through the points xs on the line
// y = y0. With reverse set the faces run from right to left.
func EdgeLine(t *testing.T, name string, xs []float64, y0 float64, reverse bool) *mesh.Surface {
	var (
		coords [][]float64
		conn   [][]int
		types  []shape.Type
	)
	for _, x := range xs {
		coords = append(coords, []float64{x, y0})
	}
	for i := 0; i+1 < len(xs); i++ {
		f := []int{i, i + 1}
		if reverse {
			f = []int{i + 1, i}
		}
		conn = append(conn, f)
		types = append(types, shape.Edge2)
	}
	s, err := mesh.NewSurface(name, 2, coords, conn, types)
	require.NoError(t, err)
	return s
}

// Edges builds a 2D surface of disconnected Edge2 faces, one per point pair
func Edges(t *testing.T, name string, ends [][4]float64) *mesh.Surface {
	var (
		coords [][]float64
		conn   [][]int
		types  []shape.Type
	)
	for i, e := range ends {
		coords = append(coords, []float64{e[0], e[1]}, []float64{e[2], e[3]})
		conn = append(conn, []int{2 * i, 2*i + 1})
		types = append(types, shape.Edge2)
	}
	s, err := mesh.NewSurface(name, 2, coords, conn, types)
	require.NoError(t, err)
	return s
}

// Segments pairs master and secondary and generates their segment mesh
func Segments(t *testing.T, cfg Config, master, secondary *mesh.Surface) *SegmentMesh {
	pair, err := NewInterfacePair(master, secondary)
	require.NoError(t, err)
	g, err := NewGenerator(cfg)
	require.NoError(t, err)
	sm, err := g.Generate(pair)
	require.NoError(t, err)
	return sm
}
