package mortar

import (
	"runtime"

	"go.uber.org/multierr"
)

// Config carries the toggles recognized by the engine. The zero value is not
// useful; start from DefaultConfig.
type Config struct {
	UseDual                            bool
	ComputePrimalResiduals             bool
	ComputeLagrangeMultiplierResiduals bool
	Displacements                      []string // displacement component names used to move the surfaces
	QuadratureOrder                    int      // points per parametric direction on each segment
	Coord                              CoordSystem
	Threads                            int
	RequireProjection                  bool    // every part of the secondary surface must see a master face
	SearchPad                          float64 // box padding for master face search; 0 picks a size based value
	AreaTol                            float64 // segments below AreaTol x face measure are dropped
	ParallelTol                        float64 // |n_m . n_s| below this means no projection axis
	MaxCondition                       float64 // dual basis mass matrices above this are singular
}

func DefaultConfig() Config {
	return Config{
		ComputePrimalResiduals:             true,
		ComputeLagrangeMultiplierResiduals: true,
		QuadratureOrder:                    3,
		Threads:                            runtime.NumCPU(),
		AreaTol:                            1.e-12,
		ParallelTol:                        1.e-10,
		MaxCondition:                       1.e12,
	}
}

// Validate returns every problem found, combined
func (c Config) Validate() (err error) {
	if c.QuadratureOrder < 1 || c.QuadratureOrder > 12 {
		err = multierr.Append(err, configErrorf("QuadratureOrder must be in [1,12], have %d", c.QuadratureOrder))
	}
	if c.Threads < 1 {
		err = multierr.Append(err, configErrorf("Threads must be positive, have %d", c.Threads))
	}
	if c.SearchPad < 0 {
		err = multierr.Append(err, configErrorf("SearchPad must not be negative, have %g", c.SearchPad))
	}
	if c.AreaTol < 0 || c.AreaTol >= 1 {
		err = multierr.Append(err, configErrorf("AreaTol must be in [0,1), have %g", c.AreaTol))
	}
	if c.ParallelTol < 0 || c.ParallelTol >= 1 {
		err = multierr.Append(err, configErrorf("ParallelTol must be in [0,1), have %g", c.ParallelTol))
	}
	if c.MaxCondition <= 1 {
		err = multierr.Append(err, configErrorf("MaxCondition must exceed 1, have %g", c.MaxCondition))
	}
	if len(c.Displacements) > 3 {
		err = multierr.Append(err, configErrorf("at most three displacement components, have %d", len(c.Displacements)))
	}
	seen := make(map[string]bool)
	for _, name := range c.Displacements {
		if name == "" {
			err = multierr.Append(err, configErrorf("empty displacement component name"))
		} else if seen[name] {
			err = multierr.Append(err, configErrorf("displacement component %q listed twice", name))
		}
		seen[name] = true
	}
	return
}
