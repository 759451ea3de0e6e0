package mortar

import (
	"fmt"

	"github.com/notargets/gomortar/mesh"
)

// InterfacePair is the ordered (master, secondary) pair of surfaces. It keeps
// the reference configuration and the current one; Epoch advances on every
// Displace so segment meshes built before the move can be detected as stale.
type InterfacePair struct {
	masterRef, secondaryRef *mesh.Surface
	master, secondary       *mesh.Surface
	epoch                   uint64
}

func NewInterfacePair(master, secondary *mesh.Surface) (p *InterfacePair, err error) {
	switch {
	case master == nil || secondary == nil:
		return nil, configErrorf("interface pair needs both a master and a secondary surface")
	case master.Dim != secondary.Dim:
		return nil, configErrorf("master %q is %dD but secondary %q is %dD",
			master.Name, master.Dim, secondary.Name, secondary.Dim)
	case secondary.NumFaces() == 0:
		return nil, configErrorf("secondary surface %q has no faces", secondary.Name)
	}
	p = &InterfacePair{
		masterRef:    master,
		secondaryRef: secondary,
		master:       master,
		secondary:    secondary,
	}
	return
}

func (p *InterfacePair) Master() *mesh.Surface { return p.master }

func (p *InterfacePair) Secondary() *mesh.Surface { return p.secondary }

func (p *InterfacePair) Surface(side Side) *mesh.Surface {
	if side == MasterSide {
		return p.master
	}
	return p.secondary
}

func (p *InterfacePair) Dim() int { return p.secondary.Dim }

func (p *InterfacePair) Epoch() uint64 { return p.epoch }

// Displace moves both surfaces to reference + u, where u[component][node].
// Either side may be nil to leave that surface at its reference position.
func (p *InterfacePair) Displace(masterU, secondaryU [][]float64) (err error) {
	var (
		m, s = p.masterRef, p.secondaryRef
	)
	if masterU != nil {
		if m, err = p.masterRef.Displaced(masterU); err != nil {
			return fmt.Errorf("displacing master: %w", err)
		}
	}
	if secondaryU != nil {
		if s, err = p.secondaryRef.Displaced(secondaryU); err != nil {
			return fmt.Errorf("displacing secondary: %w", err)
		}
	}
	p.master, p.secondary = m, s
	p.epoch++
	return
}

// DisplaceFromSolution gathers nodal displacement components from sol and
// moves the pair. masterComps and secondaryComps hold one Variable per
// component, in the order of Config.Displacements.
func (p *InterfacePair) DisplaceFromSolution(sol Solution, masterComps, secondaryComps []*Variable) error {
	gather := func(side Side, comps []*Variable) (u [][]float64, err error) {
		surf := p.Surface(side)
		for _, v := range comps {
			if v.Side != side || v.Family != Nodal || v.Size() != surf.NumNodes() {
				return nil, configErrorf("displacement variable %q does not match the %s surface", v.Name, side)
			}
			u = append(u, v.NodalValues(sol))
		}
		return
	}
	mu, err := gather(MasterSide, masterComps)
	if err != nil {
		return err
	}
	su, err := gather(SecondarySide, secondaryComps)
	if err != nil {
		return err
	}
	return p.Displace(mu, su)
}
