package mortar

import (
	"fmt"
	"math"

	"github.com/notargets/gomortar/geometry"
	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/quadrature"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/spatial/r3"
)

// INSIDE_TOL is how far outside a reference element a projected point may
// land before it is treated as a geometry failure; smaller excursions are
// clamped back onto the element.
const INSIDE_TOL = 1.e-6

// QPoint is everything a constraint law sees at one quadrature point. Entries
// indexed by MortarType are empty for inactive spaces.
type QPoint struct {
	Index         int
	HasMaster     bool
	XiSecondary   []float64
	XiMaster      []float64
	PhysSecondary r3.Vec
	PhysMaster    r3.Vec
	Normal        r3.Vec   // unit secondary normal
	Tangents      []r3.Vec // unit secondary tangents
	Gap           float64  // signed distance to the master point along the frame normal
	JxW           float64
	Coord         float64

	Phi     [numMortarTypes][]float64
	GradPhi [numMortarTypes][]r3.Vec
	U       [numMortarTypes]float64
	GradU   [numMortarTypes]r3.Vec

	coupled map[string]coupledValue
}

type coupledValue struct {
	u    float64
	grad r3.Vec
	phi  []float64
}

// Coupled returns the interpolated value of a foreign variable
func (qp *QPoint) Coupled(name string) (u float64, ok bool) {
	var cv coupledValue
	if cv, ok = qp.coupled[name]; ok {
		u = cv.u
	}
	return
}

func (qp *QPoint) CoupledGrad(name string) r3.Vec { return qp.coupled[name].grad }

// CoupledPhi returns the trial functions of a foreign variable, the column
// basis of its off-diagonal block.
func (qp *QPoint) CoupledPhi(name string) []float64 { return qp.coupled[name].phi }

// SetCoupled records the value, gradient and trial functions of a foreign
// variable at this point.
func (qp *QPoint) SetCoupled(name string, u float64, grad r3.Vec, phi []float64) {
	if qp.coupled == nil {
		qp.coupled = make(map[string]coupledValue)
	}
	qp.coupled[name] = coupledValue{u: u, grad: grad, phi: phi}
}

// Mapper places quadrature points on segments and maps them to both faces
type Mapper struct {
	coord CoordSystem
	line  quadrature.Rule
	tri   quadrature.Rule
}

func NewMapper(cfg Config) *Mapper {
	return &Mapper{
		coord: cfg.Coord,
		line:  quadrature.GaussLegendre(cfg.QuadratureOrder),
		tri:   quadrature.Triangle(cfg.QuadratureOrder),
	}
}

// frameSample is a point in a segment frame with its weight on the frame
type frameSample struct {
	p r2.Vec
	w float64
}

func (mp *Mapper) samples(seg Segment, fr geometry.Frame) (out []frameSample) {
	if fr.Dim == 1 {
		lo, hi := seg.Vertices[0].X, seg.Vertices[1].X
		mid, half := 0.5*(lo+hi), 0.5*(hi-lo)
		for i, x := range mp.line.Points {
			out = append(out, frameSample{p: r2.Vec{X: mid + half*x[0]}, w: mp.line.Weights[i] * half})
		}
		return
	}
	for _, t := range seg.Vertices.Fan() {
		var (
			d1   = r2.Sub(t[1], t[0])
			d2   = r2.Sub(t[2], t[0])
			jac2 = math.Abs(d1.X*d2.Y - d1.Y*d2.X)
		)
		for i, rs := range mp.tri.Points {
			p := r2.Add(t[0], r2.Add(r2.Scale(rs[0], d1), r2.Scale(rs[1], d2)))
			out = append(out, frameSample{p: p, w: mp.tri.Weights[i] * jac2})
		}
	}
	return
}

// Map returns the quadrature points of segment id. With hasMaster false the
// master face is ignored even if the segment has one.
func (mp *Mapper) Map(sm *SegmentMesh, id int, hasMaster bool) (qps []QPoint, err error) {
	var (
		seg      = sm.Segments[id]
		fr       = sm.Frames[seg.Secondary]
		sec, mas = sm.Pair.Secondary(), sm.Pair.Master()
		sshp     = sec.Shape(seg.Secondary)
		fail     = func(s *mesh.Surface, f int, reason string, e error) error {
			return &GeometryError{Surface: s.Name, Face: f, Reason: fmt.Sprintf("segment %d: %s", id, reason), Err: e}
		}
	)
	if hasMaster && !seg.HasMaster() {
		err = fail(sec, seg.Secondary, "no master face", ErrNoMaster)
		return
	}
	for q, smp := range mp.samples(seg, fr) {
		var (
			xp    = fr.FromPlane(smp.p)
			xi    []float64
			fs    mesh.FacePoint
			frame float64
		)
		if xi, _, err = sec.Project(seg.Secondary, xp, fr.Normal); err != nil {
			err = fail(sec, seg.Secondary, "secondary projection", err)
			return
		}
		if !sshp.Inside(xi, INSIDE_TOL) {
			err = fail(sec, seg.Secondary, fmt.Sprintf("point %v falls outside the face", xi), nil)
			return
		}
		sshp.Clamp(xi)
		if fs, err = sec.Eval(seg.Secondary, xi); err != nil {
			err = fail(sec, seg.Secondary, "secondary evaluation", err)
			return
		}
		if fr.Dim == 1 {
			frame = math.Abs(r3.Dot(fs.Tangents[0], fr.E1))
		} else {
			frame = math.Abs(r3.Dot(r3.Cross(fs.Tangents[0], fs.Tangents[1]), fr.Normal))
		}
		if frame < mesh.MINDET*fs.DetJ {
			err = fail(sec, seg.Secondary, "face folds over its frame", mesh.ErrDegenerate)
			return
		}
		qp := QPoint{
			Index:         q,
			HasMaster:     hasMaster,
			XiSecondary:   xi,
			PhysSecondary: fs.X,
			Normal:        fs.Normal,
			Tangents:      fs.UnitTangents(),
			JxW:           smp.w * fs.DetJ / frame,
			Coord:         1,
		}
		if mp.coord == RZ {
			qp.Coord = 2 * math.Pi * fs.X.X
		}
		qp.Phi[Secondary], qp.GradPhi[Secondary] = fs.N, fs.GradN
		if hasMaster {
			var (
				mshp = mas.Shape(seg.Master)
				fm   mesh.FacePoint
			)
			if qp.XiMaster, qp.Gap, err = mas.Project(seg.Master, fs.X, fr.Normal); err != nil {
				err = fail(mas, seg.Master, "master projection", err)
				return
			}
			if !mshp.Inside(qp.XiMaster, INSIDE_TOL) {
				err = fail(mas, seg.Master, fmt.Sprintf("point %v falls outside the face", qp.XiMaster), ErrNoMaster)
				return
			}
			mshp.Clamp(qp.XiMaster)
			if fm, err = mas.Eval(seg.Master, qp.XiMaster); err != nil {
				err = fail(mas, seg.Master, "master evaluation", err)
				return
			}
			qp.PhysMaster = fm.X
			qp.Phi[Master], qp.GradPhi[Master] = fm.N, fm.GradN
		}
		qps = append(qps, qp)
	}
	return
}
