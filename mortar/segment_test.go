package mortar

import (
	"errors"
	"testing"

	"github.com/notargets/gomortar/geometry"
	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkConservation compares, per secondary face, the segment measures and
// the mapped quadrature weights against the face measure.
func checkConservation(t *testing.T, sm *SegmentMesh, cfg Config) {
	var (
		sec = sm.Pair.Secondary()
		mp  = NewMapper(cfg)
	)
	for f := range sec.Faces {
		area, err := sec.Measure(f)
		require.NoError(t, err)
		var wsum float64
		for _, id := range sm.BySecondary[f] {
			qps, err := mp.Map(sm, id, sm.Segments[id].HasMaster())
			require.NoError(t, err)
			for _, qp := range qps {
				wsum += qp.JxW
			}
		}
		assert.InDelta(t, 1., sm.Coverage(f)/area, 1.e-10, "face %d coverage", f)
		assert.InDelta(t, 1., wsum/area, 1.e-10, "face %d weights", f)
	}
}

func TestGenerate_Conforming(t *testing.T) {
	cfg := DefaultConfig()
	sm := Segments(t, cfg,
		QuadGrid(t, "master", 1, 1, 0, 0, 1, 1, 0, true),
		QuadGrid(t, "secondary", 1, 1, 0, 0, 1, 1, 0, false))
	require.Len(t, sm.Segments, 1)
	seg := sm.Segments[0]
	assert.Equal(t, 0, seg.Master)
	assert.Equal(t, 0, seg.Secondary)
	assert.Equal(t, -1, seg.Orientation)
	assert.InDelta(t, 1., seg.Measure, 1.e-14)
	assert.Equal(t, 0, sm.NumNonProjecting())
	assert.False(t, sm.Stale())
	checkConservation(t, sm, cfg)
}

// checkCurvedConservation is checkConservation for faces that do not lie in
// their frame: segment measures add up to the in-frame image of the face and
// the mapped weights add up to its surface measure.
func checkCurvedConservation(t *testing.T, sm *SegmentMesh, cfg Config, tol float64) {
	var (
		sec = sm.Pair.Secondary()
		mp  = NewMapper(cfg)
	)
	for f := range sec.Faces {
		var (
			corners = sec.Corners(f)
			img     = make(geometry.Polygon, len(corners))
			wsum    float64
		)
		for i, c := range corners {
			img[i] = sm.Frames[f].ToPlane(c)
		}
		area, err := sec.Measure(f)
		require.NoError(t, err)
		for _, id := range sm.BySecondary[f] {
			qps, err := mp.Map(sm, id, sm.Segments[id].HasMaster())
			require.NoError(t, err)
			for _, qp := range qps {
				wsum += qp.JxW
			}
		}
		assert.InDelta(t, 1., sm.Coverage(f)/img.Area(), 1.e-12, "face %d coverage", f)
		assert.InDelta(t, 1., wsum/area, tol, "face %d weights", f)
	}
}

// massMatrix integrates N_i N_j over the segments of secondary face f
func massMatrix(t *testing.T, sm *SegmentMesh, cfg Config, f int) (m [][]float64) {
	mp := NewMapper(cfg)
	n := sm.Pair.Secondary().Shape(f).Nverts
	m = make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	for _, id := range sm.BySecondary[f] {
		qps, err := mp.Map(sm, id, false)
		require.NoError(t, err)
		for _, qp := range qps {
			for i, ni := range qp.Phi[Secondary] {
				for j, nj := range qp.Phi[Secondary] {
					m[i][j] += qp.JxW * ni * nj
				}
			}
		}
	}
	return
}

func warpedQuad(t *testing.T, z float64) *mesh.Surface {
	s, err := mesh.NewSurface("secondary", 3,
		[][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, z}, {0, 1, 0}},
		[][]int{{0, 1, 2, 3}}, []shape.Type{shape.Quad4})
	require.NoError(t, err)
	return s
}

func TestGenerate_WarpedQuad(t *testing.T) {
	cfg := DefaultConfig()
	cfg.QuadratureOrder = 6
	sm := Segments(t, cfg, QuadGrid(t, "master", 2, 2, -0.5, -0.5, 2, 2, 0, true), warpedQuad(t, 0.4))
	require.Len(t, sm.Segments, 4)
	assert.Equal(t, 0, sm.NumNonProjecting())
	area, err := sm.Pair.Secondary().Measure(0)
	require.NoError(t, err)
	assert.InDelta(t, 1.0514989391, area, 1.e-9)
	checkCurvedConservation(t, sm, cfg, 1.e-9)
}

func TestGenerate_FoldedTriangles(t *testing.T) {
	// two planar triangles that are not coplanar with each other or the master
	sec, err := mesh.NewSurface("secondary", 3,
		[][]float64{{0, 0, 0}, {1, 0, 0.3}, {1, 1, 0.2}, {0, 1, 0.1}},
		[][]int{{0, 1, 2}, {0, 2, 3}}, []shape.Type{shape.Tri3, shape.Tri3})
	require.NoError(t, err)
	cfg := DefaultConfig()
	sm := Segments(t, cfg, QuadGrid(t, "master", 3, 2, -0.2, -0.2, 1.4, 1.4, -0.1, true), sec)
	assert.Equal(t, 0, sm.NumNonProjecting())
	// affine faces integrate exactly
	checkCurvedConservation(t, sm, cfg, 1.e-12)
	for f := 0; f < 2; f++ {
		area, err := sec.Measure(f)
		require.NoError(t, err)
		m := massMatrix(t, sm, cfg, f)
		for i := range m {
			for j := range m[i] {
				want := area / 12
				if i == j {
					want = area / 6
				}
				assert.InDelta(t, want, m[i][j], 1.e-13, "face %d M[%d][%d]", f, i, j)
			}
		}
	}
}

func TestMapper_MassMatrix(t *testing.T) {
	{ // conforming unit square, cut across its diagonal by the fan
		cfg := DefaultConfig()
		sm := Segments(t, cfg,
			QuadGrid(t, "master", 1, 1, 0, 0, 1, 1, 0, true),
			QuadGrid(t, "secondary", 1, 1, 0, 0, 1, 1, 0, false))
		require.Len(t, sm.Segments, 1)
		m := massMatrix(t, sm, cfg, 0)
		for i := range m {
			for j := range m[i] {
				want := 1. / 18.
				switch (j - i + 4) % 4 {
				case 0:
					want = 1. / 9.
				case 2:
					want = 1. / 36.
				}
				assert.InDelta(t, want, m[i][j], 1.e-14, "M[%d][%d]", i, j)
			}
		}
	}
	{ // warped face against a fine rule in natural coordinates
		var (
			cfg = DefaultConfig()
			sec = warpedQuad(t, 0.4)
		)
		cfg.QuadratureOrder = 6
		sm := Segments(t, cfg, QuadGrid(t, "master", 2, 2, -0.5, -0.5, 2, 2, 0, true), sec)
		m := massMatrix(t, sm, cfg, 0)
		rule := sec.Shape(0).Rule(10)
		ref := make([][]float64, 4)
		for i := range ref {
			ref[i] = make([]float64, 4)
		}
		for q, r := range rule.Points {
			fp, err := sec.Eval(0, r)
			require.NoError(t, err)
			for i := range ref {
				for j := range ref[i] {
					ref[i][j] += rule.Weights[q] * fp.DetJ * fp.N[i] * fp.N[j]
				}
			}
		}
		for i := range m {
			assert.InDeltaSlice(t, ref[i], m[i], 1.e-12, "row %d", i)
		}
		// the raised corner carries the most weight
		assert.Greater(t, m[2][2], m[0][0])
	}
}

func TestGenerate_NonConformingQuads(t *testing.T) {
	cfg := DefaultConfig()
	sm := Segments(t, cfg,
		QuadGrid(t, "master", 2, 2, 0, 0, 1, 1, 0, true),
		QuadGrid(t, "secondary", 3, 3, 0, 0, 1, 1, 0, false))
	assert.Equal(t, 0, sm.NumNonProjecting())
	// the corner secondary face sees one master face, the center one four
	assert.Len(t, sm.BySecondary[0], 1)
	assert.Len(t, sm.BySecondary[4], 4)
	checkConservation(t, sm, cfg)

	var total float64
	for _, s := range sm.Segments {
		total += s.Measure
	}
	assert.InDelta(t, 1., total, 1.e-12)
}

func TestGenerate_PartialOverlap(t *testing.T) {
	cfg := DefaultConfig()
	sm := Segments(t, cfg,
		QuadGrid(t, "master", 2, 2, 0.3, -0.2, 1, 1, 0.01, true),
		QuadGrid(t, "secondary", 3, 3, 0, 0, 1, 1, 0, false))
	require.Greater(t, sm.NumNonProjecting(), 0)
	checkConservation(t, sm, cfg)

	var projecting, free float64
	for _, s := range sm.Segments {
		if s.HasMaster() {
			projecting += s.Measure
		} else {
			free += s.Measure
		}
	}
	assert.InDelta(t, 0.7*0.8, projecting, 1.e-12)
	assert.InDelta(t, 1-0.7*0.8, free, 1.e-12)

	cfg.RequireProjection = true
	pair, err := NewInterfacePair(sm.Pair.Master(), sm.Pair.Secondary())
	require.NoError(t, err)
	g, err := NewGenerator(cfg)
	require.NoError(t, err)
	_, err = g.Generate(pair)
	assert.True(t, errors.Is(err, ErrGeometry))
	assert.True(t, errors.Is(err, ErrNoMaster))
	var gerr *GeometryError
	require.True(t, errors.As(err, &gerr))
	assert.Equal(t, "secondary", gerr.Surface)
}

func TestGenerate_Triangles(t *testing.T) {
	sec, err := mesh.NewSurface("secondary", 3,
		[][]float64{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}},
		[][]int{{0, 1, 2}, {0, 2, 3}}, []shape.Type{shape.Tri3, shape.Tri3})
	require.NoError(t, err)
	cfg := DefaultConfig()
	sm := Segments(t, cfg, QuadGrid(t, "master", 3, 2, 0, 0, 1, 1, 0.05, true), sec)
	assert.Equal(t, 0, sm.NumNonProjecting())
	checkConservation(t, sm, cfg)
}

func TestGenerate_Edges(t *testing.T) {
	cfg := DefaultConfig()
	sm := Segments(t, cfg,
		EdgeLine(t, "master", []float64{-0.1, 0.5, 0.9}, 0, true),
		EdgeLine(t, "secondary", []float64{0, 0.3, 0.7, 1}, 0, false))
	checkConservation(t, sm, cfg)
	require.Len(t, sm.BySecondary[2], 2)
	var free float64
	for _, s := range sm.Segments {
		if !s.HasMaster() {
			free += s.Measure
			assert.Equal(t, 2, s.Secondary)
		}
	}
	assert.InDelta(t, 0.1, free, 1.e-12)
}

func TestGenerate_Determinism(t *testing.T) {
	var (
		master    = QuadGrid(t, "master", 5, 4, 0.05, -0.1, 1.1, 1.2, 0, true)
		secondary = QuadGrid(t, "secondary", 7, 6, 0, 0, 1, 1, 0, false)
		cfg       = DefaultConfig()
	)
	cfg.Threads = 1
	serial := Segments(t, cfg, master, secondary)
	cfg.Threads = 5
	parallel := Segments(t, cfg, master, secondary)
	assert.Equal(t, serial.Segments, parallel.Segments)
	assert.Equal(t, serial.BySecondary, parallel.BySecondary)
}

func TestGenerate_TieBreak(t *testing.T) {
	cfg := DefaultConfig()
	secondary := EdgeLine(t, "secondary", []float64{0, 1}, 0, false)
	{ // Best aligned normal wins over an inclined face sharing the overlap
		for _, ends := range [][][4]float64{
			{{1, 0.1, 0, 0.1}, {1, 0.4, 0.5, 0.1}},
			{{1, 0.4, 0.5, 0.1}, {1, 0.1, 0, 0.1}},
		} {
			sm := Segments(t, cfg, Edges(t, "master", ends), secondary)
			require.Len(t, sm.Segments, 1)
			flat := 0
			if ends[0][1] != ends[0][3] {
				flat = 1
			}
			assert.Equal(t, flat, sm.Segments[0].Master)
			assert.InDelta(t, 1., sm.Segments[0].Measure, 1.e-14)
		}
	}
	{ // Equal alignment, the nearer master centroid takes the shared part
		sm := Segments(t, cfg, Edges(t, "master", [][4]float64{
			{1.2, 0.1, 0.4, 0.1},
			{0.6, 0.1, 0, 0.1},
		}), secondary)
		require.Len(t, sm.Segments, 2)
		byMaster := make(map[int]float64)
		for _, s := range sm.Segments {
			byMaster[s.Master] += s.Measure
		}
		assert.InDelta(t, 0.6, byMaster[1], 1.e-14)
		assert.InDelta(t, 0.4, byMaster[0], 1.e-14)
	}
	{ // Equal alignment and distance, the lower master id wins
		sm := Segments(t, cfg, Edges(t, "master", [][4]float64{
			{1.0, 0.1, 0.25, 0.1},
			{0.75, 0.1, 0, 0.1},
		}), secondary)
		byMaster := make(map[int]float64)
		for _, s := range sm.Segments {
			byMaster[s.Master] += s.Measure
		}
		assert.InDelta(t, 0.75, byMaster[0], 1.e-14)
		assert.InDelta(t, 0.25, byMaster[1], 1.e-14)
	}
}

func TestGenerate_Perpendicular(t *testing.T) {
	cfg := DefaultConfig()
	secondary := EdgeLine(t, "secondary", []float64{0, 1}, 0, false)
	{ // every nearby master face is edge-on: no projection axis exists
		pair, err := NewInterfacePair(Edges(t, "master", [][4]float64{{0.5, 0, 0.5, 1}}), secondary)
		require.NoError(t, err)
		g, err := NewGenerator(cfg)
		require.NoError(t, err)
		_, err = g.Generate(pair)
		assert.True(t, errors.Is(err, ErrGeometry))
		assert.True(t, errors.Is(err, mesh.ErrNoProjection))
		var ge *GeometryError
		require.True(t, errors.As(err, &ge))
		assert.Equal(t, "secondary", ge.Surface)
	}
	{ // an edge-on face beside a projecting one is skipped
		sm := Segments(t, cfg, Edges(t, "master", [][4]float64{
			{0.5, 0, 0.5, 1},
			{1, 0.1, 0, 0.1},
		}), secondary)
		require.Len(t, sm.Segments, 1)
		assert.Equal(t, 1, sm.Segments[0].Master)
		assert.InDelta(t, 1., sm.Segments[0].Measure, 1.e-14)
	}
}

func TestGenerate_Degenerate(t *testing.T) {
	sec, err := mesh.NewSurface("flat", 3,
		[][]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {3, 0, 0}},
		[][]int{{0, 1, 2, 3}}, []shape.Type{shape.Quad4})
	require.NoError(t, err)
	pair, err := NewInterfacePair(QuadGrid(t, "master", 1, 1, 0, 0, 1, 1, 0, true), sec)
	require.NoError(t, err)
	g, err := NewGenerator(DefaultConfig())
	require.NoError(t, err)
	_, err = g.Generate(pair)
	assert.True(t, errors.Is(err, ErrGeometry))
	assert.True(t, errors.Is(err, mesh.ErrDegenerate))
}

func TestGenerate_Displaced(t *testing.T) {
	var (
		master    = EdgeLine(t, "master", []float64{0, 0.5, 1}, 0, true)
		secondary = EdgeLine(t, "secondary", []float64{0, 1}, 0, false)
		cfg       = DefaultConfig()
	)
	pair, err := NewInterfacePair(master, secondary)
	require.NoError(t, err)
	g, err := NewGenerator(cfg)
	require.NoError(t, err)
	sm, err := g.Generate(pair)
	require.NoError(t, err)
	assert.Equal(t, 0, sm.NumNonProjecting())

	shift := []float64{0.25, 0.25, 0.25}
	require.NoError(t, pair.Displace([][]float64{shift}, nil))
	assert.True(t, sm.Stale())
	assert.Equal(t, uint64(1), pair.Epoch())
	assert.InDelta(t, 0.25, pair.Master().X[0].X, 1.e-15)
	assert.InDelta(t, 0., master.X[0].X, 1.e-15)

	sm, err = g.Generate(pair)
	require.NoError(t, err)
	require.Equal(t, 1, sm.NumNonProjecting())
	for _, s := range sm.Segments {
		if !s.HasMaster() {
			assert.InDelta(t, 0.25, s.Measure, 1.e-14)
		}
	}
	assert.InDelta(t, 1., sm.Coverage(0), 1.e-14)
}

func TestNewInterfacePair(t *testing.T) {
	_, err := NewInterfacePair(nil, nil)
	assert.True(t, errors.Is(err, ErrConfiguration))
	_, err = NewInterfacePair(
		QuadGrid(t, "master", 1, 1, 0, 0, 1, 1, 0, true),
		EdgeLine(t, "secondary", []float64{0, 1}, 0, false))
	assert.True(t, errors.Is(err, ErrConfiguration))
}
