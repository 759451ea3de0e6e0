package mesh

import (
	"fmt"
	"math"
	"sort"

	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/r3"
)

type faceBox struct {
	id   int
	rect *rtreego.Rect
}

func (b *faceBox) Bounds() *rtreego.Rect { return b.rect }

// FaceIndex is an R-tree over the padded bounding boxes of a surface's faces
type FaceIndex struct {
	tree *rtreego.Rtree
	dim  int
	pad  float64
}

// NewFaceIndex indexes every face of s. pad must be positive; boxes of flat
// faces would otherwise have zero extent along one axis.
func NewFaceIndex(s *Surface, pad float64) (fi *FaceIndex, err error) {
	if !(pad > 0) {
		return nil, fmt.Errorf("face index for %q: pad must be positive, have %g", s.Name, pad)
	}
	fi = &FaceIndex{
		tree: rtreego.NewTree(s.Dim, 25, 50),
		dim:  s.Dim,
		pad:  pad,
	}
	for f := range s.Faces {
		lo, hi := s.Bounds(f)
		var rect *rtreego.Rect
		if rect, err = fi.rect(lo, hi, 0); err != nil {
			return nil, fmt.Errorf("face index for %q face %d: %w", s.Name, f, err)
		}
		fi.tree.Insert(&faceBox{id: f, rect: rect})
	}
	return
}

func (fi *FaceIndex) rect(lo, hi r3.Vec, extra float64) (*rtreego.Rect, error) {
	var (
		p    = rtreego.Point{lo.X, lo.Y, lo.Z}[:fi.dim]
		top  = []float64{hi.X, hi.Y, hi.Z}[:fi.dim]
		lens = make([]float64, fi.dim)
		pad  = fi.pad + extra
	)
	for i := range p {
		if math.IsNaN(p[i]) || math.IsNaN(top[i]) || math.IsInf(p[i], 0) || math.IsInf(top[i], 0) {
			return nil, fmt.Errorf("non-finite coordinate %v", p)
		}
		lens[i] = top[i] - p[i] + 2*pad
		p[i] -= pad
	}
	return rtreego.NewRect(p, lens)
}

// Search returns the ids, in ascending order, of faces whose padded box
// intersects the box [lo, hi] grown by extra.
func (fi *FaceIndex) Search(lo, hi r3.Vec, extra float64) (ids []int, err error) {
	var rect *rtreego.Rect
	if rect, err = fi.rect(lo, hi, extra); err != nil {
		return
	}
	for _, obj := range fi.tree.SearchIntersect(rect) {
		ids = append(ids, obj.(*faceBox).id)
	}
	sort.Ints(ids)
	return
}

func (fi *FaceIndex) Size() int { return fi.tree.Size() }
