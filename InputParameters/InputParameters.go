package InputParameters

import (
	"fmt"
	"sort"

	"github.com/ghodss/yaml"
	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/mortar"
	"github.com/notargets/gomortar/readfiles"
	"github.com/notargets/gomortar/shape"
	"go.uber.org/multierr"
)

// SurfaceParameters describes one side of the interface in the input deck
type SurfaceParameters struct {
	Name         string               `json:"Name"`
	Coordinates  [][]float64          `json:"Coordinates"`
	Faces        [][]int              `json:"Faces"`
	FaceType     string               `json:"FaceType"` // one of Edge2, Edge3, Tri3, Quad4, used for every face
	Value        float64              `json:"Value"`    // initial value of the primal field
	Displacement map[string][]float64 `json:"Displacement"`
	Marker       string               `json:"Marker"` // boundary marker in GridFile, replaces Coordinates and Faces
}

func (sp *SurfaceParameters) Surface(dim int) (s *mesh.Surface, err error) {
	var t shape.Type
	if t, err = shape.ParseType(sp.FaceType); err != nil {
		return nil, fmt.Errorf("surface %q: %w", sp.Name, err)
	}
	types := make([]shape.Type, len(sp.Faces))
	for i := range types {
		types[i] = t
	}
	return mesh.NewSurface(sp.Name, dim, sp.Coordinates, sp.Faces, types)
}

// CaseParameters is an interface case read from a YAML input deck
type CaseParameters struct {
	Title                              string             `json:"Title"`
	GridFile                           string             `json:"GridFile"` // SU2 grid holding the surface markers
	Dimension                          int                `json:"Dimension"`
	Law                                string             `json:"Law"`        // EqualValue, GapConductance, TractionTransfer or Penalty
	Multiplier                         string             `json:"Multiplier"` // Nodal, Elemental or None
	MultiplierValue                    float64            `json:"MultiplierValue"`
	UseDual                            bool               `json:"UseDual"`
	ComputePrimalResiduals             *bool              `json:"ComputePrimalResiduals"`
	ComputeLagrangeMultiplierResiduals *bool              `json:"ComputeLagrangeMultiplierResiduals"`
	QuadratureOrder                    int                `json:"QuadratureOrder"`
	Coord                              string             `json:"Coord"`
	RequireProjection                  bool               `json:"RequireProjection"`
	Displacements                      []string           `json:"Displacements"`
	LawParameters                      map[string]float64 `json:"LawParameters"`
	Stress                             [][]float64        `json:"Stress"` // 3x3 stress for TractionTransfer
	Master                             SurfaceParameters  `json:"Master"`
	Secondary                          SurfaceParameters  `json:"Secondary"`
}

func (cp *CaseParameters) Parse(data []byte) error {
	return yaml.Unmarshal(data, cp)
}

// Config merges the deck over the engine defaults
func (cp *CaseParameters) Config(threads int) (cfg mortar.Config, err error) {
	cfg = mortar.DefaultConfig()
	cfg.UseDual = cp.UseDual
	cfg.RequireProjection = cp.RequireProjection
	cfg.Displacements = cp.Displacements
	if cp.ComputePrimalResiduals != nil {
		cfg.ComputePrimalResiduals = *cp.ComputePrimalResiduals
	}
	if cp.ComputeLagrangeMultiplierResiduals != nil {
		cfg.ComputeLagrangeMultiplierResiduals = *cp.ComputeLagrangeMultiplierResiduals
	}
	if cp.QuadratureOrder != 0 {
		cfg.QuadratureOrder = cp.QuadratureOrder
	}
	if threads > 0 {
		cfg.Threads = threads
	}
	if cp.Coord != "" {
		if cfg.Coord, err = mortar.ParseCoordSystem(cp.Coord); err != nil {
			return
		}
	}
	err = cfg.Validate()
	return
}

// MultiplierFamily returns the multiplier family, ok is false for "None"
func (cp *CaseParameters) MultiplierFamily() (family mortar.Family, ok bool, err error) {
	switch cp.Multiplier {
	case "", "Nodal":
		return mortar.Nodal, true, nil
	case "Elemental", "Constant":
		return mortar.Elemental, true, nil
	case "None":
		return
	}
	err = fmt.Errorf("unknown multiplier family %q", cp.Multiplier)
	return
}

// Surfaces builds the master and secondary surfaces, reading GridFile when
// either side names a marker.
func (cp *CaseParameters) Surfaces() (master, secondary *mesh.Surface, err error) {
	var (
		markers map[string]*mesh.Surface
		e       error
	)
	if cp.Master.Marker != "" || cp.Secondary.Marker != "" {
		if cp.GridFile == "" {
			return nil, nil, fmt.Errorf("surface markers need a GridFile")
		}
		if markers, err = readfiles.ReadSU2MarkersFile(cp.GridFile); err != nil {
			return
		}
	}
	build := func(sp *SurfaceParameters) (s *mesh.Surface, err error) {
		if sp.Marker == "" {
			return sp.Surface(cp.Dimension)
		}
		var ok bool
		if s, ok = markers[sp.Marker]; !ok {
			return nil, fmt.Errorf("marker %q not found in %s", sp.Marker, cp.GridFile)
		}
		if s.Dim != cp.Dimension {
			return nil, fmt.Errorf("marker %q is %dD, case is %dD", sp.Marker, s.Dim, cp.Dimension)
		}
		return
	}
	if master, e = build(&cp.Master); e != nil {
		err = multierr.Append(err, e)
	}
	if secondary, e = build(&cp.Secondary); e != nil {
		err = multierr.Append(err, e)
	}
	return
}

// Parameter returns a law parameter or its default
func (cp *CaseParameters) Parameter(name string, def float64) float64 {
	if v, ok := cp.LawParameters[name]; ok {
		return v
	}
	return def
}

func (cp *CaseParameters) Print() {
	fmt.Printf("\"%s\"\t\t= Title\n", cp.Title)
	fmt.Printf("[%d]\t\t\t\t= Dimension\n", cp.Dimension)
	fmt.Printf("[%s]\t\t\t= Law\n", cp.Law)
	fmt.Printf("[%s]\t\t\t= Multiplier\n", cp.Multiplier)
	fmt.Printf("[%v]\t\t\t= UseDual\n", cp.UseDual)
	fmt.Printf("[%d]\t\t\t\t= Quadrature Order\n", cp.QuadratureOrder)
	fmt.Printf("[%s] %d faces\t\t= Master\n", cp.Master.Name, len(cp.Master.Faces))
	fmt.Printf("[%s] %d faces\t\t= Secondary\n", cp.Secondary.Name, len(cp.Secondary.Faces))
	keys := make([]string, len(cp.LawParameters))
	i := 0
	for k := range cp.LawParameters {
		keys[i] = k
		i++
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Printf("LawParameters[%s] = %v\n", key, cp.LawParameters[key])
	}
}
