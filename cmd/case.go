/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"
	"io/ioutil"
	"log"

	"github.com/notargets/gomortar/InputParameters"
	"github.com/notargets/gomortar/assembly"
	"github.com/notargets/gomortar/laws"
	"github.com/notargets/gomortar/mortar"
	"github.com/notargets/gomortar/utils"
	"gonum.org/v1/gonum/spatial/r3"
)

const damageName = "damage"

// Case is an input deck turned into a numbered, ready to assemble interface
type Case struct {
	Params *InputParameters.CaseParameters
	Config mortar.Config
	Pair   *mortar.InterfacePair
	Dofs   *assembly.DofMap
	Vars   mortar.Variables
	Law    mortar.Law
	System *assembly.System

	masterDisp, secondaryDisp []*mortar.Variable
}

// LoadCase reads and builds the case in file
func LoadCase(file string, threads int) (c *Case, err error) {
	var data []byte
	if data, err = ioutil.ReadFile(file); err != nil {
		return nil, fmt.Errorf("unable to read input file %s: %w", file, err)
	}
	cp := &InputParameters.CaseParameters{}
	if err = cp.Parse(data); err != nil {
		return nil, fmt.Errorf("unable to parse input file %s: %w", file, err)
	}
	return NewCase(cp, threads)
}

// NewCase numbers the fields named by cp and loads their initial values
func NewCase(cp *InputParameters.CaseParameters, threads int) (c *Case, err error) {
	c = &Case{Params: cp, Dofs: assembly.NewDofMap()}
	if c.Config, err = cp.Config(threads); err != nil {
		return nil, err
	}
	master, secondary, err := cp.Surfaces()
	if err != nil {
		return nil, err
	}
	if c.Pair, err = mortar.NewInterfacePair(master, secondary); err != nil {
		return nil, err
	}
	dm := c.Dofs
	if c.Vars.Master, err = dm.AddNodal("u_master", mortar.MasterSide, master); err != nil {
		return nil, err
	}
	if c.Vars.Secondary, err = dm.AddNodal("u_secondary", mortar.SecondarySide, secondary); err != nil {
		return nil, err
	}
	family, useLM, err := cp.MultiplierFamily()
	if err != nil {
		return nil, err
	}
	if useLM {
		var lm *mortar.Variable
		if family == mortar.Elemental {
			lm, err = dm.AddElemental("lambda", mortar.SecondarySide, secondary)
		} else {
			lm, err = dm.AddNodal("lambda", mortar.SecondarySide, secondary)
		}
		if err != nil {
			return nil, err
		}
		c.Vars.Multiplier = utils.Some(lm)
	} else {
		c.Vars.Multiplier = utils.None[*mortar.Variable]()
	}
	for _, comp := range c.Config.Displacements {
		var v *mortar.Variable
		if v, err = dm.AddNodal("master_"+comp, mortar.MasterSide, master); err != nil {
			return nil, err
		}
		c.masterDisp = append(c.masterDisp, v)
		if v, err = dm.AddNodal("secondary_"+comp, mortar.SecondarySide, secondary); err != nil {
			return nil, err
		}
		c.secondaryDisp = append(c.secondaryDisp, v)
	}
	if c.Law, err = c.buildLaw(); err != nil {
		return nil, err
	}
	if c.System, err = assembly.NewSystem(dm.NumDofs()); err != nil {
		return nil, err
	}
	return c, c.fill()
}

func (c *Case) buildLaw() (law mortar.Law, err error) {
	cp := c.Params
	switch cp.Law {
	case "", "EqualValue":
		return laws.EqualValue{}, nil
	case "GapConductance":
		return laws.GapConductance{
			H:            cp.Parameter("H", 1),
			Conductivity: cp.Parameter("Conductivity", 0),
			MinGap:       cp.Parameter("MinGap", 1.e-6),
		}, nil
	case "Penalty":
		return mortar.Pointwise(laws.Penalty{Stiffness: cp.Parameter("Stiffness", 1)}), nil
	case "TractionTransfer":
		var sigma *r3.Mat
		if sigma, err = laws.NewStress(cp.Stress); err != nil {
			return
		}
		tt := laws.TractionTransfer{
			Component: int(cp.Parameter("Component", 0)),
			Materials: laws.ConstantStress{Sigma: sigma},
		}
		if _, ok := cp.LawParameters["Damage"]; ok {
			var v *mortar.Variable
			if v, err = c.Dofs.AddNodal(damageName, mortar.SecondarySide, c.Pair.Secondary()); err != nil {
				return
			}
			c.Vars.Coupled = append(c.Vars.Coupled, v)
			tt.Materials = laws.DamagedStress{Undamaged: sigma, Damage: damageName}
		}
		return tt, nil
	}
	return nil, fmt.Errorf("unknown law %q", cp.Law)
}

func (c *Case) fill() (err error) {
	var (
		cp  = c.Params
		sys = c.System
	)
	sys.Fill(c.Vars.Master, func(int) float64 { return cp.Master.Value })
	sys.Fill(c.Vars.Secondary, func(int) float64 { return cp.Secondary.Value })
	if lm, ok := c.Vars.Multiplier.Get(); ok {
		sys.Fill(lm, func(int) float64 { return cp.MultiplierValue })
	}
	if v, ok := c.Dofs.Variable(damageName); ok {
		d := cp.Parameter("Damage", 0)
		sys.Fill(v, func(int) float64 { return d })
	}
	load := func(sp InputParameters.SurfaceParameters, comps []*mortar.Variable) error {
		for i, v := range comps {
			name := c.Config.Displacements[i]
			vals, ok := sp.Displacement[name]
			if !ok {
				continue
			}
			if len(vals) != v.Size() {
				return fmt.Errorf("surface %q: displacement %q has %d values, have %d nodes",
					sp.Name, name, len(vals), v.Size())
			}
			sys.Fill(v, func(n int) float64 { return vals[n] })
		}
		return nil
	}
	if err = load(cp.Master, c.masterDisp); err != nil {
		return
	}
	return load(cp.Secondary, c.secondaryDisp)
}

// Segments moves the pair to the current displacement and builds its segments
func (c *Case) Segments() (sm *mortar.SegmentMesh, err error) {
	if len(c.masterDisp) != 0 {
		if err = c.Pair.DisplaceFromSolution(c.System, c.masterDisp, c.secondaryDisp); err != nil {
			return
		}
	}
	var g *mortar.Generator
	if g, err = mortar.NewGenerator(c.Config); err != nil {
		return
	}
	return g.Generate(c.Pair)
}

// Assemble builds segments and evaluates the interface residual and Jacobian
// into the case System. The Jacobian blocks are returned for inspection.
func (c *Case) Assemble() (blocks *mortar.CouplingBlocks, err error) {
	var (
		sm *mortar.SegmentMesh
		a  *mortar.Assembler
	)
	if sm, err = c.Segments(); err != nil {
		return
	}
	if a, err = mortar.NewAssembler(c.Config, c.Pair, c.Vars, c.Law, c.Dofs); err != nil {
		return
	}
	if err = a.Reinit(sm); err != nil {
		return
	}
	c.System.Reset()
	if err = a.ComputeResidual(c.System, c.System); err != nil {
		return
	}
	blocks = a.NewBlocks()
	if err = a.ComputeJacobian(c.System, blocks); err != nil {
		return
	}
	blocks.Scatter(c.System)
	log.Printf("assembled %d segments, %d Jacobian entries in %d blocks",
		len(sm.Segments), c.System.NNZ(), len(blocks.Keys())+len(blocks.ForeignKeys()))
	return
}
