package InputParameters

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/notargets/gomortar/mortar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

var deck = []byte(`
Title: Unit squares
Dimension: 3
Law: EqualValue
Multiplier: Elemental
ComputePrimalResiduals: false
QuadratureOrder: 4
LawParameters:
  H: 2.5
Master:
  Name: master
  FaceType: Quad4
  Coordinates: [[0,0,0],[1,0,0],[1,1,0],[0,1,0]]
  Faces: [[0,3,2,1]]
  Value: 1
Secondary:
  Name: secondary
  FaceType: Quad4
  Coordinates: [[0,0,0],[1,0,0],[1,1,0],[0,1,0]]
  Faces: [[0,1,2,3]]
`)

func TestCaseParameters(t *testing.T) {
	var cp CaseParameters
	require.NoError(t, cp.Parse(deck))
	cp.Print()
	assert.Equal(t, "Unit squares", cp.Title)
	assert.Equal(t, 1., cp.Master.Value)
	assert.Equal(t, 2.5, cp.Parameter("H", 0))
	assert.Equal(t, 7., cp.Parameter("K", 7))

	cfg, err := cp.Config(2)
	require.NoError(t, err)
	assert.False(t, cfg.ComputePrimalResiduals)
	assert.True(t, cfg.ComputeLagrangeMultiplierResiduals)
	assert.Equal(t, 4, cfg.QuadratureOrder)
	assert.Equal(t, 2, cfg.Threads)
	assert.Equal(t, mortar.XYZ, cfg.Coord)

	family, ok, err := cp.MultiplierFamily()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, mortar.Elemental, family)

	master, secondary, err := cp.Surfaces()
	require.NoError(t, err)
	assert.Equal(t, 1, master.NumFaces())
	assert.Equal(t, 4, secondary.NumNodes())
}

func TestCaseParameters_Errors(t *testing.T) {
	var cp CaseParameters
	require.NoError(t, cp.Parse(deck))
	cp.Coord = "Spherical"
	_, err := cp.Config(1)
	assert.Error(t, err)

	cp.Coord = ""
	cp.QuadratureOrder = 40
	_, err = cp.Config(1)
	assert.True(t, errors.Is(err, mortar.ErrConfiguration))

	cp.Multiplier = "Quadratic"
	_, _, err = cp.MultiplierFamily()
	assert.Error(t, err)

	cp.Master.FaceType = "Hex8"
	cp.Secondary.Faces = [][]int{{0, 1, 9, 3}}
	_, _, err = cp.Surfaces()
	assert.Len(t, multierr.Errors(err), 2)
}

var grid = []byte(`% two coincident walls of a split channel
NDIME= 2
NELEM= 0
NPOIN= 3
0 0 0
0.5 0 1
1 0 2
NMARK= 2
MARKER_TAG= upper
MARKER_ELEMS= 1
3 2 0
MARKER_TAG= lower
MARKER_ELEMS= 2
3 0 1
3 1 2
`)

func TestCaseParameters_Markers(t *testing.T) {
	var (
		cp   CaseParameters
		file = filepath.Join(t.TempDir(), "split.su2")
	)
	require.NoError(t, os.WriteFile(file, grid, 0644))
	require.NoError(t, cp.Parse([]byte(`
Dimension: 2
GridFile: `+file+`
Master:
  Marker: upper
Secondary:
  Marker: lower
`)))
	master, secondary, err := cp.Surfaces()
	require.NoError(t, err)
	assert.Equal(t, "upper", master.Name)
	assert.Equal(t, 1, master.NumFaces())
	assert.Equal(t, 2, secondary.NumFaces())
	assert.Equal(t, 3, secondary.NumNodes())

	cp.Secondary.Marker = "side"
	_, _, err = cp.Surfaces()
	assert.Error(t, err)
	cp.Secondary.Marker, cp.Dimension = "lower", 3
	_, _, err = cp.Surfaces()
	assert.Len(t, multierr.Errors(err), 2)
	cp.GridFile = ""
	_, _, err = cp.Surfaces()
	assert.Error(t, err)
}
