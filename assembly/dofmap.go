// Package assembly provides the global side of a mortar solve: dof
// numbering for interface fields and an additive residual and Jacobian
// target.
package assembly

import (
	"fmt"

	"github.com/notargets/gomortar/mesh"
	"github.com/notargets/gomortar/mortar"
)

// DofMap numbers fields contiguously in the order they are added
type DofMap struct {
	names []string
	vars  map[string]*mortar.Variable
	next  int
}

func NewDofMap() *DofMap {
	return &DofMap{vars: make(map[string]*mortar.Variable)}
}

func (dm *DofMap) add(name string, side mortar.Side, family mortar.Family, n int) (v *mortar.Variable, err error) {
	if name == "" {
		return nil, fmt.Errorf("dof map: empty variable name")
	}
	if _, ok := dm.vars[name]; ok {
		return nil, fmt.Errorf("dof map: variable %q already numbered", name)
	}
	dofs := make([]int, n)
	for i := range dofs {
		dofs[i] = dm.next + i
	}
	dm.next += n
	v = mortar.NewVariable(name, side, family, dofs)
	dm.vars[name] = v
	dm.names = append(dm.names, name)
	return
}

// AddNodal numbers one dof per node of s
func (dm *DofMap) AddNodal(name string, side mortar.Side, s *mesh.Surface) (*mortar.Variable, error) {
	return dm.add(name, side, mortar.Nodal, s.NumNodes())
}

// AddElemental numbers one dof per face of s
func (dm *DofMap) AddElemental(name string, side mortar.Side, s *mesh.Surface) (*mortar.Variable, error) {
	return dm.add(name, side, mortar.Elemental, s.NumFaces())
}

func (dm *DofMap) Variable(name string) (v *mortar.Variable, ok bool) {
	v, ok = dm.vars[name]
	return
}

// Names lists variables in numbering order
func (dm *DofMap) Names() []string { return dm.names }

func (dm *DofMap) Has(dof int) bool { return dof >= 0 && dof < dm.next }

func (dm *DofMap) NumDofs() int { return dm.next }
