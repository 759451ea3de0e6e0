// Package readfiles reads boundary markers from grid files as interface
// surfaces.
package readfiles

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/shape"
)

// From here: https://su2code.github.io/docs_v7/Mesh-File/
type SU2ElementType uint8

const (
	ELType_LINE          SU2ElementType = 3
	ELType_Triangle      SU2ElementType = 5
	ELType_Quadrilateral SU2ElementType = 9
)

func (et SU2ElementType) shape() (t shape.Type, err error) {
	switch et {
	case ELType_LINE:
		return shape.Edge2, nil
	case ELType_Triangle:
		return shape.Tri3, nil
	case ELType_Quadrilateral:
		return shape.Quad4, nil
	}
	err = fmt.Errorf("SU2 element type %d is not a boundary face type", et)
	return
}

type su2Reader struct {
	*bufio.Reader
	line int
}

func (r *su2Reader) getLine() (line string, err error) {
	line, err = r.ReadString('\n')
	if err == io.EOF && len(line) != 0 {
		err = nil
	}
	if err != nil {
		if err == io.EOF {
			err = fmt.Errorf("early end of file after line %d", r.line)
		}
		return
	}
	r.line++
	line = strings.TrimRight(line, "\r\n")
	return
}

func (r *su2Reader) getLineNoComments() (line string, err error) {
	for {
		if line, err = r.getLine(); err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if len(line) != 0 && !strings.HasPrefix(line, "%") {
			return
		}
	}
}

// getToken reads "KEY= value" and checks the key
func (r *su2Reader) getToken(key string) (token string, err error) {
	var line string
	if line, err = r.getLineNoComments(); err != nil {
		return
	}
	ind := strings.Index(line, "=")
	if ind < 0 || strings.TrimSpace(line[:ind]) != key {
		err = fmt.Errorf("line %d: badly formed input line [%s], want %s=", r.line, line, key)
		return
	}
	token = strings.TrimSpace(line[ind+1:])
	return
}

func (r *su2Reader) readNumber(key string) (num int, err error) {
	var token string
	if token, err = r.getToken(key); err != nil {
		return
	}
	if num, err = strconv.Atoi(token); err != nil {
		err = fmt.Errorf("line %d: unable to read %s from [%s]", r.line, key, token)
	}
	return
}

func (r *su2Reader) readInts(n int) (vals []int, err error) {
	var line string
	if line, err = r.getLineNoComments(); err != nil {
		return
	}
	fields := strings.Fields(line)
	if len(fields) < n {
		return nil, fmt.Errorf("line %d: want %d integers, have [%s]", r.line, n, line)
	}
	vals = make([]int, len(fields))
	for i, f := range fields {
		if vals[i], err = strconv.Atoi(f); err != nil {
			return nil, fmt.Errorf("line %d: %w", r.line, err)
		}
	}
	return
}

func (r *su2Reader) readVertices(dim int) (X [][]float64, err error) {
	var (
		nv   int
		line string
	)
	if nv, err = r.readNumber("NPOIN"); err != nil {
		return
	}
	X = make([][]float64, nv)
	for i := 0; i < nv; i++ {
		if line, err = r.getLineNoComments(); err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) < dim {
			return nil, fmt.Errorf("line %d: unable to read %d coordinates from [%s]", r.line, dim, line)
		}
		X[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			if X[i][d], err = strconv.ParseFloat(fields[d], 64); err != nil {
				return nil, fmt.Errorf("line %d: %w", r.line, err)
			}
		}
	}
	return
}

// marker is a boundary element list still in global point numbering
type marker struct {
	tag   string
	conn  [][]int
	types []shape.Type
}

func (r *su2Reader) readMarkers() (markers []marker, err error) {
	var nm int
	if nm, err = r.readNumber("NMARK"); err != nil {
		return
	}
	markers = make([]marker, nm)
	for n := range markers {
		var ne int
		if markers[n].tag, err = r.getToken("MARKER_TAG"); err != nil {
			return
		}
		if ne, err = r.readNumber("MARKER_ELEMS"); err != nil {
			return
		}
		for i := 0; i < ne; i++ {
			var (
				vals []int
				t    shape.Type
			)
			if vals, err = r.readInts(2); err != nil {
				return
			}
			if t, err = SU2ElementType(vals[0]).shape(); err != nil {
				return nil, fmt.Errorf("marker %s: %w", markers[n].tag, err)
			}
			nverts := shape.Get(t).Nverts
			if len(vals) < nverts+1 {
				return nil, fmt.Errorf("marker %s: element %d has %d vertices, want %d",
					markers[n].tag, i, len(vals)-1, nverts)
			}
			markers[n].conn = append(markers[n].conn, vals[1:nverts+1])
			markers[n].types = append(markers[n].types, t)
		}
	}
	return
}

// surface renumbers the points a marker touches in order of first use
func (m marker) surface(dim int, X [][]float64) (s *mesh.Surface, err error) {
	var (
		local  = make(map[int]int)
		coords [][]float64
		conn   = make([][]int, len(m.conn))
	)
	for f, nodes := range m.conn {
		conn[f] = make([]int, len(nodes))
		for i, n := range nodes {
			if n < 0 || n >= len(X) {
				return nil, fmt.Errorf("marker %s: face %d references point %d, have %d points", m.tag, f, n, len(X))
			}
			ln, ok := local[n]
			if !ok {
				ln = len(coords)
				local[n] = ln
				coords = append(coords, X[n])
			}
			conn[f][i] = ln
		}
	}
	return mesh.NewSurface(m.tag, dim, coords, conn, m.types)
}

// ReadSU2Markers reads an SU2 grid and returns each boundary marker as a
// surface, keyed by marker tag. Volume elements are skipped.
func ReadSU2Markers(rd io.Reader) (surfaces map[string]*mesh.Surface, err error) {
	var (
		dim, nelem int
		X          [][]float64
		markers    []marker
		r          = &su2Reader{Reader: bufio.NewReader(rd)}
	)
	if dim, err = r.readNumber("NDIME"); err != nil {
		return
	}
	if dim != 2 && dim != 3 {
		return nil, fmt.Errorf("SU2 grid dimension must be 2 or 3, have %d", dim)
	}
	if nelem, err = r.readNumber("NELEM"); err != nil {
		return
	}
	for k := 0; k < nelem; k++ {
		if _, err = r.getLineNoComments(); err != nil {
			return
		}
	}
	if X, err = r.readVertices(dim); err != nil {
		return
	}
	if markers, err = r.readMarkers(); err != nil {
		return
	}
	surfaces = make(map[string]*mesh.Surface, len(markers))
	for _, m := range markers {
		if _, ok := surfaces[m.tag]; ok {
			return nil, fmt.Errorf("duplicate marker found with tag: [%s]", m.tag)
		}
		if surfaces[m.tag], err = m.surface(dim, X); err != nil {
			return nil, err
		}
	}
	return
}

func ReadSU2MarkersFile(filename string) (surfaces map[string]*mesh.Surface, err error) {
	var file *os.File
	if file, err = os.Open(filename); err != nil {
		return nil, fmt.Errorf("unable to open file %s: %w", filename, err)
	}
	defer file.Close()
	if surfaces, err = ReadSU2Markers(file); err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return
}
