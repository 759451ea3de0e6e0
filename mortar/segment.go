package mortar

import (
	"fmt"
	"log"
	"math"
	"sort"

	"github.com/notargets/gomortar/geometry"
	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/utils"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// Segment is one piece of the mortar mesh: a region of a single secondary
// face that projects onto at most one master face. Vertices are given in the
// plane frame of the secondary face; for line faces they are the two
// interval ends with Y == 0.
type Segment struct {
	ID          int
	Secondary   int
	Master      int // -1 when no master face projects here
	Vertices    geometry.Polygon
	Orientation int // sign of n_m . n_s, 0 when non-projecting
	Measure     float64
}

func (s Segment) HasMaster() bool { return s.Master >= 0 }

// SegmentMesh partitions the secondary surface of a pair. It is bound to the
// pair epoch it was built for.
type SegmentMesh struct {
	Pair        *InterfacePair
	Epoch       uint64
	Segments    []Segment
	BySecondary [][]int          // segment ids per secondary face
	Frames      []geometry.Frame // plane frame per secondary face
}

func (m *SegmentMesh) Stale() bool { return m.Epoch != m.Pair.Epoch() }

func (m *SegmentMesh) NumNonProjecting() (n int) {
	for _, s := range m.Segments {
		if !s.HasMaster() {
			n++
		}
	}
	return
}

// Coverage sums the in-frame segment measures of secondary face f
func (m *SegmentMesh) Coverage(f int) (a float64) {
	for _, id := range m.BySecondary[f] {
		a += m.Segments[id].Measure
	}
	return
}

// region is a piece of a secondary face image, an interval on line frames or
// a convex polygon on plane frames.
type region struct {
	line bool
	iv   geometry.Interval
	poly geometry.Polygon
}

func (r region) measure() float64 {
	if r.line {
		return r.iv.Length()
	}
	return r.poly.Area()
}

func (r region) centroid() r2.Vec {
	if r.line {
		return r2.Vec{X: r.iv.Mid()}
	}
	return r.poly.Centroid()
}

func (r region) vertices() geometry.Polygon {
	if r.line {
		return geometry.Polygon{{X: r.iv.Lo}, {X: r.iv.Hi}}
	}
	return r.poly
}

func (r region) intersect(o region) (out region, ok bool) {
	out.line = r.line
	if r.line {
		out.iv, ok = r.iv.Intersect(o.iv)
		return
	}
	out.poly = r.poly.Intersect(o.poly)
	ok = len(out.poly) > 2
	return
}

func (r region) subtract(o region) (pieces []region) {
	if r.line {
		for _, iv := range r.iv.Subtract(o.iv) {
			pieces = append(pieces, region{line: true, iv: iv})
		}
		return
	}
	for _, p := range r.poly.Subtract(o.poly) {
		pieces = append(pieces, region{poly: p})
	}
	return
}

type candidate struct {
	master      int
	align       float64
	dist        float64
	orientation int
	image       region
}

// byPriority orders master candidates for the greedy assignment: best
// normal alignment first, then the nearest image centroid, then master id.
type byPriority []candidate

func (c byPriority) Len() int      { return len(c) }
func (c byPriority) Swap(i, j int) { c[i], c[j] = c[j], c[i] }
func (c byPriority) Less(i, j int) bool {
	a, b := c[i], c[j]
	if math.Abs(a.align-b.align) > geometry.Tol {
		return a.align > b.align
	}
	if a.dist != b.dist {
		return a.dist < b.dist
	}
	return a.master < b.master
}

// Generator builds segment meshes. It is stateless between calls.
type Generator struct {
	cfg Config
}

func NewGenerator(cfg Config) (g *Generator, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	g = &Generator{cfg: cfg}
	return
}

// Generate partitions the current secondary surface of p into segments.
// Secondary faces are processed in parallel; the result is deterministic.
func (g *Generator) Generate(p *InterfacePair) (sm *SegmentMesh, err error) {
	var (
		sec, mas = p.Secondary(), p.Master()
		nf       = sec.NumFaces()
		results  = make([][]Segment, nf)
		frames   = make([]geometry.Frame, nf)
		index    *mesh.FaceIndex
	)
	if mas.NumFaces() > 0 {
		if index, err = mesh.NewFaceIndex(mas, geometry.Tol*math.Max(1, extent(mas, sec))); err != nil {
			return
		}
	}
	pm := utils.NewPartitionMap(g.cfg.Threads, nf)
	err = pm.Run(func(_, kMin, kMax int) (err error) {
		for f := kMin; f < kMax; f++ {
			if frames[f], results[f], err = g.segmentFace(p, index, f); err != nil {
				return
			}
		}
		return
	})
	if err != nil {
		return
	}
	sm = &SegmentMesh{
		Pair:        p,
		Epoch:       p.Epoch(),
		BySecondary: make([][]int, nf),
		Frames:      frames,
	}
	for f, segs := range results {
		for _, s := range segs {
			s.ID = len(sm.Segments)
			sm.BySecondary[f] = append(sm.BySecondary[f], s.ID)
			sm.Segments = append(sm.Segments, s)
		}
	}
	log.Printf("mortar %s/%s: %d segments on %d secondary faces, %d non-projecting\n",
		mas.Name, sec.Name, len(sm.Segments), nf, sm.NumNonProjecting())
	return
}

func extent(surfs ...*mesh.Surface) (e float64) {
	for _, s := range surfs {
		for f := range s.Faces {
			lo, hi := s.Bounds(f)
			e = math.Max(e, r3.Norm(r3.Sub(hi, lo)))
		}
	}
	return
}

func (g *Generator) image(fr geometry.Frame, corners []r3.Vec) (r region) {
	if fr.Dim == 1 {
		return region{line: true, iv: geometry.NewInterval(fr.ToPlane(corners[0]).X, fr.ToPlane(corners[1]).X)}
	}
	r.poly = make(geometry.Polygon, len(corners))
	for i, c := range corners {
		r.poly[i] = fr.ToPlane(c)
	}
	r.poly = r.poly.CCW()
	return
}

func (g *Generator) segmentFace(p *InterfacePair, index *mesh.FaceIndex, f int) (fr geometry.Frame, segs []Segment, err error) {
	var (
		sec, mas = p.Secondary(), p.Master()
		corners  = sec.Corners(f)
		shp      = sec.Shape(f)
		secErr   = func(reason string, e error) error {
			return &GeometryError{Surface: sec.Name, Face: f, Reason: reason, Err: e}
		}
	)
	if _, err = sec.Measure(f); err != nil {
		err = secErr("secondary face has no measure", err)
		return
	}
	if shp.Gndim == 1 {
		fr, err = geometry.NewLineFrame(corners[0], corners[1])
	} else {
		fr, err = geometry.NewPlaneFrame(corners)
	}
	if err != nil {
		err = secErr("cannot build face frame", err)
		return
	}
	self := g.image(fr, corners)
	if !self.line && !self.poly.IsConvex(geometry.Tol) {
		err = secErr("secondary face image is not convex", nil)
		return
	}
	var (
		selfMeasure = self.measure()
		tol         = g.cfg.AreaTol * selfMeasure
		cands       []candidate
		fp          mesh.FacePoint
	)
	if fp, err = sec.Eval(f, mesh.Center(shp)); err != nil {
		err = secErr("secondary face has no normal", err)
		return
	}
	ns := fp.Normal
	if index != nil {
		pad := g.cfg.SearchPad
		if pad == 0 {
			pad = 0.25 * sec.Diameter(f)
		}
		lo, hi := sec.Bounds(f)
		var ids []int
		if ids, err = index.Search(lo, hi, pad); err != nil {
			err = secErr("master face search failed", err)
			return
		}
		axes := 0
		for _, m := range ids {
			var (
				c          candidate
				ok, edgeOn bool
			)
			if c, ok, edgeOn, err = g.candidate(mas, m, fr, ns, self, tol); err != nil {
				return
			}
			if !edgeOn {
				axes++
			}
			if ok {
				cands = append(cands, c)
			}
		}
		if len(ids) > 0 && axes == 0 {
			err = secErr("every nearby master face is seen edge-on", mesh.ErrNoProjection)
			return
		}
	}
	sort.Sort(byPriority(cands))
	remaining := []region{self}
	for _, c := range cands {
		var next []region
		for _, r := range remaining {
			piece, ok := r.intersect(c.image)
			if !ok || piece.measure() <= tol {
				next = append(next, r)
				continue
			}
			segs = append(segs, Segment{
				Secondary:   f,
				Master:      c.master,
				Vertices:    piece.vertices(),
				Orientation: c.orientation,
				Measure:     piece.measure(),
			})
			for _, rest := range r.subtract(c.image) {
				if rest.measure() > tol {
					next = append(next, rest)
				}
			}
		}
		remaining = next
	}
	for _, r := range remaining {
		if r.measure() <= tol {
			continue
		}
		if g.cfg.RequireProjection {
			err = secErr(fmt.Sprintf("region of measure %g has no master face", r.measure()), ErrNoMaster)
			return
		}
		segs = append(segs, Segment{
			Secondary: f,
			Master:    -1,
			Vertices:  r.vertices(),
			Measure:   r.measure(),
		})
	}
	return
}

// candidate screens master face m against the secondary image self. Faces
// seen edge-on from the frame are reported by edgeOn; they and faces
// overlapping by no more than tol are skipped.
func (g *Generator) candidate(mas *mesh.Surface, m int, fr geometry.Frame, ns r3.Vec, self region, tol float64) (c candidate, ok, edgeOn bool, err error) {
	var (
		shp = mas.Shape(m)
		fp  mesh.FacePoint
	)
	if fp, err = mas.Eval(m, mesh.Center(shp)); err != nil {
		err = &GeometryError{Surface: mas.Name, Face: m, Reason: "master face has no normal", Err: err}
		return
	}
	if math.Abs(r3.Dot(fp.Normal, fr.Normal)) < g.cfg.ParallelTol {
		edgeOn = true
		return
	}
	img := g.image(fr, mas.Corners(m))
	if !img.line && !img.poly.IsConvex(geometry.Tol) {
		err = &GeometryError{Surface: mas.Name, Face: m, Reason: "master face image is not convex"}
		return
	}
	overlap, hit := self.intersect(img)
	if !hit || overlap.measure() <= tol {
		return
	}
	ok = true
	c = candidate{
		master:      m,
		align:       math.Abs(r3.Dot(fp.Normal, ns)),
		dist:        r2.Norm(r2.Sub(img.centroid(), self.centroid())),
		orientation: 1,
		image:       img,
	}
	if r3.Dot(fp.Normal, ns) < 0 {
		c.orientation = -1
	}
	return
}
