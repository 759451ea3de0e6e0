package readfiles

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/notargets/gomortar/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadSU2Markers(t *testing.T) {
	surfaces, err := ReadSU2Markers(bytes.NewReader(inputFile))
	require.NoError(t, err)
	require.Len(t, surfaces, 4)
	nfaces := map[string]int{"periodic-left": 2, "periodic-right": 2, "top": 4, "bottom": 4}
	for tag, n := range nfaces {
		s, ok := surfaces[tag]
		require.True(t, ok, tag)
		assert.Equal(t, tag, s.Name)
		assert.Equal(t, 2, s.Dim)
		assert.Equal(t, n, s.NumFaces())
		assert.Equal(t, n+1, s.NumNodes())
	}
	bottom := surfaces["bottom"]
	assert.Equal(t, shape.Edge2, bottom.Faces[0].Type)
	assert.Equal(t, []int{0, 1}, bottom.Faces[0].Nodes)
	assert.Equal(t, []int{3, 4}, bottom.Faces[3].Nodes)
	assert.Equal(t, -10., bottom.X[0].X)
	assert.Equal(t, 10., bottom.X[4].X)
	var length float64
	for f := 0; f < bottom.NumFaces(); f++ {
		l, err := bottom.Measure(f)
		require.NoError(t, err)
		length += l
	}
	assert.InDelta(t, 20., length, 1.e-9)
	fp, err := bottom.Eval(0, []float64{0})
	require.NoError(t, err)
	assert.InDelta(t, -1., fp.Normal.Y, 1.e-14)
}

func TestReadSU2Markers_Errors(t *testing.T) {
	_, err := ReadSU2Markers(bytes.NewReader(inputFile[:200]))
	assert.Error(t, err)
	_, err = ReadSU2Markers(strings.NewReader("NDIME= 4\n"))
	assert.Error(t, err)
	_, err = ReadSU2Markers(strings.NewReader("NDIME= 2\nNPOIN= 0\n"))
	assert.Error(t, err)
	bad := "NDIME= 2\nNELEM= 0\nNPOIN= 2\n0 0\n1 0\nNMARK= 1\nMARKER_TAG= wall\nMARKER_ELEMS= 1\n5 0 1 2\n"
	_, err = ReadSU2Markers(strings.NewReader(bad))
	assert.Error(t, err)
	_, err = ReadSU2MarkersFile(filepath.Join(t.TempDir(), "missing.su2"))
	assert.Error(t, err)
}

func TestReadSU2MarkersFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "grid.su2")
	require.NoError(t, os.WriteFile(file, inputFile, 0644))
	surfaces, err := ReadSU2MarkersFile(file)
	require.NoError(t, err)
	assert.Equal(t, 4, surfaces["top"].NumFaces())
}

var (
	inputFile = []byte(` %This is an example input file in SU2 format, output from gmsh
% Comments can appear outside of data areas
NDIME= 2
% Comments can appear outside of data areas
NELEM= 22
5 5 6 13 0
5 9 10 12 1
5 12 5 13 2
5 9 12 13 3
5 13 6 14 4
5 12 10 15 5
5 8 9 13 6
5 4 5 12 7
5 1 7 14 8
5 6 1 14 9
5 3 11 15 10
5 10 3 15 11
5 8 13 16 12
5 4 12 17 13
5 13 14 16 14
5 12 15 17 15
5 7 2 16 16
5 11 0 17 17
5 2 8 16 18
5 0 4 17 19
5 14 7 16 20
5 15 11 17 21
% Comments can appear outside of data areas
NPOIN= 18
-10 0 0
10 0 1
10 10 2
-10 10 3
-5.000000000004944 0 4
-1.231725832440134e-11 0 5
4.99999999999384 0 6
10 4.999999999992398 7
5.000000000004944 10 8
1.231725832440134e-11 10 9
-4.99999999999384 10 10
-10 5 11
-2.500000000008632 4.330127018915808 12
2.50000000000863 5.669872981084192 13
6.712741669205853 3.668411415814691 14
-6.712741669205681 6.331588584184096 15
7.100939331384343 7.110089675963254 16
-7.100939331382065 2.889910324036197 17
NMARK= 4
% Comments can appear outside of data areas
MARKER_TAG= periodic-left
% Comments can appear outside of data areas
MARKER_ELEMS= 2
3 3 11
3 11 0
% Comments can appear outside of data areas
MARKER_TAG= periodic-right
MARKER_ELEMS= 2
3 1 7
3 7 2
% Comments can appear outside of data areas
MARKER_TAG= top
MARKER_ELEMS= 4
3 2 8
3 8 9
3 9 10
3 10 3
MARKER_TAG= bottom
% Comments can appear outside of data areas
MARKER_ELEMS= 4
3 0 4
3 4 5
3 5 6
3 6 1
% Comments can appear outside of data areas
`)
)
