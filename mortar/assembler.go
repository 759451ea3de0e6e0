package mortar

import (
	"fmt"
	"math"
	"sort"

	"github.com/notargets/gomortar/utils"
	"go.uber.org/multierr"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"
)

// Assembler evaluates a constraint law over the segments of one interface
// pair and scatters the result into global residual and Jacobian targets.
// Whole-pass methods run in parallel over secondary faces; every worker
// accumulates locally and results are merged in partition order only when
// all workers succeed, so an aborted pass leaves the targets untouched.
type Assembler struct {
	cfg    Config
	pair   *InterfacePair
	vars   Variables
	lm     *Variable
	law    Law
	cLaw   CoupledLaw
	mapper *Mapper
	segs   *SegmentMesh
	basis  multiplierBasis
	ndofs  int
}

// NewAssembler checks the wiring of vars against the pair, the law and the
// registry. Every problem found is returned, combined.
func NewAssembler(cfg Config, pair *InterfacePair, vars Variables, law Law, reg DofRegistry) (a *Assembler, err error) {
	if err = cfg.Validate(); err != nil {
		return
	}
	if pair == nil || law == nil || reg == nil {
		return nil, configErrorf("assembler needs an interface pair, a law and a dof registry")
	}
	a = &Assembler{
		cfg:    cfg,
		pair:   pair,
		vars:   vars,
		law:    law,
		mapper: NewMapper(cfg),
		ndofs:  reg.NumDofs(),
	}
	if lm, ok := vars.Multiplier.Get(); ok {
		if lm == nil {
			err = multierr.Append(err, configErrorf("multiplier option holds a nil variable"))
		}
		a.lm = lm
	}
	err = multierr.Append(err, a.checkWiring())
	if err == nil {
		err = a.checkDofs(reg)
	}
	if err != nil {
		return nil, err
	}
	return
}

func (a *Assembler) checkWiring() (err error) {
	var (
		sec, mas = a.pair.Secondary(), a.pair.Master()
		names    = make(map[string]bool)
		check    = func(role string, v *Variable, side Side) {
			if v == nil {
				err = multierr.Append(err, configErrorf("%s variable is missing", role))
				return
			}
			if names[v.Name] {
				err = multierr.Append(err, configErrorf("variable %q appears twice", v.Name))
			}
			names[v.Name] = true
			if v.Side != side {
				err = multierr.Append(err, configErrorf("%s variable %q lives on the %s side, want %s", role, v.Name, v.Side, side))
				return
			}
			want := a.pair.Surface(side).NumNodes()
			if v.Family == Elemental {
				want = a.pair.Surface(side).NumFaces()
			}
			if v.Size() != want {
				err = multierr.Append(err, configErrorf("%s variable %q has %d dofs, %s surface needs %d", role, v.Name, v.Size(), side, want))
			}
		}
	)
	check("secondary", a.vars.Secondary, SecondarySide)
	check("master", a.vars.Master, MasterSide)
	for _, v := range []*Variable{a.vars.Secondary, a.vars.Master} {
		if v != nil && v.Family != Nodal {
			err = multierr.Append(err, configErrorf("primal variable %q must be nodal", v.Name))
		}
	}
	if a.lm != nil {
		check("multiplier", a.lm, SecondarySide)
		if a.cfg.UseDual && a.lm.Family != Nodal {
			err = multierr.Append(err, configErrorf("dual basis requested for elemental multiplier %q", a.lm.Name))
		}
	} else {
		if a.cfg.ComputeLagrangeMultiplierResiduals {
			err = multierr.Append(err, configErrorf("multiplier residuals requested without a multiplier variable"))
		}
		if a.cfg.UseDual {
			err = multierr.Append(err, configErrorf("dual basis requested without a multiplier variable"))
		}
	}
	for _, v := range a.vars.Coupled {
		if v == nil {
			err = multierr.Append(err, configErrorf("coupled variable is nil"))
			continue
		}
		check("coupled", v, v.Side)
	}
	if len(a.vars.Coupled) > 0 {
		var ok bool
		if a.cLaw, ok = a.law.(CoupledLaw); !ok {
			err = multierr.Append(err, configErrorf("law %T has coupled variables but no coupled Jacobian", a.law))
		}
	}
	if a.cfg.Coord == RZ && sec.Dim != 2 {
		err = multierr.Append(err, configErrorf("RZ coordinates need a 2D interface, %q is %dD", sec.Name, sec.Dim))
	}
	if mas.Dim != sec.Dim {
		err = multierr.Append(err, configErrorf("surfaces %q and %q differ in dimension", mas.Name, sec.Name))
	}
	return
}

func (a *Assembler) checkDofs(reg DofRegistry) (err error) {
	all := []*Variable{a.vars.Secondary, a.vars.Master}
	if a.lm != nil {
		all = append(all, a.lm)
	}
	all = append(all, a.vars.Coupled...)
	for _, v := range all {
		for _, d := range v.dofs {
			if !reg.Has(d) {
				err = multierr.Append(err, &IndexError{Variable: v.Name, Dof: d, NumDofs: reg.NumDofs()})
			}
		}
	}
	return
}

// Variable returns the multiplier variable, if any
func (a *Assembler) Variable() utils.Option[*Variable] { return a.vars.Multiplier }

func (a *Assembler) UseDual() bool { return a.cfg.UseDual }

func (a *Assembler) Config() Config { return a.cfg }

func (a *Assembler) Segments() *SegmentMesh { return a.segs }

// Reinit adopts a segment mesh built for the current pair epoch and rebuilds
// the dual basis when one is in use.
func (a *Assembler) Reinit(sm *SegmentMesh) (err error) {
	if sm == nil || sm.Pair != a.pair {
		return configErrorf("segment mesh belongs to a different interface pair")
	}
	if sm.Stale() {
		return fmt.Errorf("reinit at epoch %d with segments from epoch %d: %w", a.pair.Epoch(), sm.Epoch, ErrStaleSegments)
	}
	basis := multiplierBasis{family: Nodal}
	if a.lm != nil {
		basis.family = a.lm.Family
	}
	if a.cfg.UseDual && basis.family == Nodal {
		if basis.dual, err = BuildDualBasis(a.pair.Secondary(), a.cfg.QuadratureOrder, a.cfg.MaxCondition, a.cfg.Threads); err != nil {
			return
		}
		basis.dual.Epoch = sm.Epoch
	}
	a.segs, a.basis = sm, basis
	return
}

func (a *Assembler) ready() error {
	if a.segs == nil {
		return configErrorf("Reinit has not been called")
	}
	if a.segs.Stale() {
		return fmt.Errorf("pair at epoch %d, segments from epoch %d: %w", a.pair.Epoch(), a.segs.Epoch, ErrStaleSegments)
	}
	return nil
}

// rowActive reports whether row space kind contributes on a segment
func (a *Assembler) rowActive(kind MortarType, hasMaster bool) bool {
	switch kind {
	case Secondary:
		return a.cfg.ComputePrimalResiduals
	case Master:
		return hasMaster && a.cfg.ComputePrimalResiduals
	default:
		return a.lm != nil && a.cfg.ComputeLagrangeMultiplierResiduals
	}
}

// colActive reports whether column space kind exists on a segment
func (a *Assembler) colActive(kind MortarType, hasMaster bool) bool {
	switch kind {
	case Secondary:
		return true
	case Master:
		return hasMaster
	default:
		return a.lm != nil
	}
}

func (a *Assembler) coupledActive(v *Variable, hasMaster bool) bool {
	return v.Side == SecondarySide || hasMaster
}

func (a *Assembler) dofs(kind MortarType, seg Segment) []int {
	switch kind {
	case Secondary:
		return a.vars.Secondary.FaceDofs(a.pair.Secondary().Faces[seg.Secondary])
	case Master:
		return a.vars.Master.FaceDofs(a.pair.Master().Faces[seg.Master])
	default:
		return a.lm.FaceDofs(a.pair.Secondary().Faces[seg.Secondary])
	}
}

func (a *Assembler) coupledDofs(v *Variable, seg Segment) []int {
	f := a.pair.Secondary().Faces[seg.Secondary]
	if v.Side == MasterSide {
		f = a.pair.Master().Faces[seg.Master]
	}
	return v.FaceDofs(f)
}

func interpolate(phi []float64, grad []r3.Vec, dofs []int, sol Solution) (u float64, g r3.Vec) {
	for i, d := range dofs {
		val := sol.Value(d)
		u += phi[i] * val
		if grad != nil {
			g = r3.Add(g, r3.Scale(val, grad[i]))
		}
	}
	return
}

// points maps segment id and fills basis and field values at every point
func (a *Assembler) points(seg Segment, hasMaster bool, sol Solution) (qps []QPoint, err error) {
	if qps, err = a.mapper.Map(a.segs, seg.ID, hasMaster); err != nil {
		return
	}
	var (
		sdofs = a.dofs(Secondary, seg)
		mdofs []int
		ldofs []int
	)
	if hasMaster {
		mdofs = a.dofs(Master, seg)
	}
	if a.lm != nil {
		ldofs = a.dofs(Multiplier, seg)
	}
	for q := range qps {
		qp := &qps[q]
		qp.U[Secondary], qp.GradU[Secondary] = interpolate(qp.Phi[Secondary], qp.GradPhi[Secondary], sdofs, sol)
		if hasMaster {
			qp.U[Master], qp.GradU[Master] = interpolate(qp.Phi[Master], qp.GradPhi[Master], mdofs, sol)
		}
		if a.lm != nil {
			qp.Phi[Multiplier] = a.basis.values(seg.Secondary, qp.Phi[Secondary])
			qp.U[Multiplier], _ = interpolate(qp.Phi[Multiplier], nil, ldofs, sol)
		}
		for _, v := range a.vars.Coupled {
			if !a.coupledActive(v, hasMaster) {
				continue
			}
			var (
				side = Secondary
				phi  []float64
				grad []r3.Vec
			)
			if v.Side == MasterSide {
				side = Master
			}
			if v.Family == Elemental {
				phi = []float64{1}
			} else {
				phi, grad = qp.Phi[side], qp.GradPhi[side]
			}
			u, g := interpolate(phi, grad, a.coupledDofs(v, seg), sol)
			qp.SetCoupled(v.Name, u, g, phi)
		}
	}
	return
}

func finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (a *Assembler) segment(id int) (seg Segment, err error) {
	if err = a.ready(); err != nil {
		return
	}
	if id < 0 || id >= len(a.segs.Segments) {
		err = fmt.Errorf("segment %d out of range [0,%d): %w", id, len(a.segs.Segments), ErrIndex)
		return
	}
	seg = a.segs.Segments[id]
	return
}

// ComputeSegmentResidual adds the residual of segment id to r. With
// hasMaster false the segment is treated as non-projecting. Nothing is added
// unless the whole segment evaluates cleanly.
func (a *Assembler) ComputeSegmentResidual(id int, hasMaster bool, sol Solution, r ResidualTarget) (err error) {
	var (
		seg Segment
		qps []QPoint
	)
	if seg, err = a.segment(id); err != nil {
		return
	}
	if qps, err = a.points(seg, hasMaster, sol); err != nil {
		return
	}
	type staged struct {
		dofs []int
		res  []float64
	}
	var rows []staged
	for _, kind := range MortarTypes {
		if !a.rowActive(kind, hasMaster) {
			continue
		}
		st := staged{dofs: a.dofs(kind, seg)}
		st.res = make([]float64, len(st.dofs))
		tmp := make([]float64, len(st.dofs))
		for q := range qps {
			qp := &qps[q]
			for i := range tmp {
				tmp[i] = 0
			}
			a.law.ComputeResidual(kind, qp, tmp)
			for i, v := range tmp {
				st.res[i] += v * qp.JxW * qp.Coord
			}
		}
		if !finite(st.res...) {
			return fmt.Errorf("segment %d %s residual: %w", id, kind, ErrNonFinite)
		}
		rows = append(rows, st)
	}
	for _, st := range rows {
		for i, d := range st.dofs {
			r.AddResidual(d, st.res[i])
		}
	}
	return
}

// ComputeSegmentJacobian adds the Jacobian blocks of segment id to blocks.
// Blocks whose row or column space is inactive receive nothing; exact zeros
// are not stored.
func (a *Assembler) ComputeSegmentJacobian(id int, hasMaster bool, sol Solution, blocks *CouplingBlocks) (err error) {
	var (
		seg Segment
		qps []QPoint
	)
	if err = a.checkBlocks(blocks); err != nil {
		return
	}
	if seg, err = a.segment(id); err != nil {
		return
	}
	if qps, err = a.points(seg, hasMaster, sol); err != nil {
		return
	}
	type staged struct {
		block      *CouplingBlock
		rows, cols []int
		jac        *mat.Dense
	}
	var (
		out  []staged
		cols = make(map[MortarType][]int)
	)
	for _, col := range MortarTypes {
		if a.colActive(col, hasMaster) {
			cols[col] = a.dofs(col, seg)
		}
	}
	for _, kind := range MortarTypes {
		if !a.rowActive(kind, hasMaster) {
			continue
		}
		var (
			rdofs = a.dofs(kind, seg)
			acc   JacobianRow
			tmp   JacobianRow
		)
		for _, col := range MortarTypes {
			if cd, ok := cols[col]; ok {
				acc.Cols[col] = mat.NewDense(len(rdofs), len(cd), nil)
				tmp.Cols[col] = mat.NewDense(len(rdofs), len(cd), nil)
			}
		}
		accC := make([]*mat.Dense, len(a.vars.Coupled))
		tmpC := make([]*mat.Dense, len(a.vars.Coupled))
		for c, v := range a.vars.Coupled {
			if a.coupledActive(v, hasMaster) {
				n := len(a.coupledDofs(v, seg))
				accC[c] = mat.NewDense(len(rdofs), n, nil)
				tmpC[c] = mat.NewDense(len(rdofs), n, nil)
			}
		}
		for q := range qps {
			qp := &qps[q]
			w := qp.JxW * qp.Coord
			for _, col := range MortarTypes {
				if tmp.Cols[col] != nil {
					tmp.Cols[col].Zero()
				}
			}
			a.law.ComputeJacobian(kind, qp, &tmp)
			for _, col := range MortarTypes {
				if tmp.Cols[col] != nil {
					acc.Cols[col].Apply(func(i, j int, v float64) float64 {
						return v + w*tmp.Cols[col].At(i, j)
					}, acc.Cols[col])
				}
			}
			for c, v := range a.vars.Coupled {
				if tmpC[c] == nil {
					continue
				}
				tmpC[c].Zero()
				a.cLaw.ComputeCoupledJacobian(kind, v, qp, tmpC[c])
				accC[c].Apply(func(i, j int, val float64) float64 {
					return val + w*tmpC[c].At(i, j)
				}, accC[c])
			}
		}
		for _, col := range MortarTypes {
			if acc.Cols[col] != nil {
				out = append(out, staged{block: blocks.Block(kind, col), rows: rdofs, cols: cols[col], jac: acc.Cols[col]})
			}
		}
		for c, v := range a.vars.Coupled {
			if accC[c] != nil {
				out = append(out, staged{block: blocks.Foreign(kind, v.Name), rows: rdofs, cols: a.coupledDofs(v, seg), jac: accC[c]})
			}
		}
	}
	for _, st := range out {
		if !finite(st.jac.RawMatrix().Data...) {
			return fmt.Errorf("segment %d %s Jacobian: %w", id, st.block.Name, ErrNonFinite)
		}
	}
	for _, st := range out {
		for i, rd := range st.rows {
			for j, cd := range st.cols {
				if v := st.jac.At(i, j); v != 0 {
					st.block.Add(rd, cd, v)
				}
			}
		}
	}
	return
}

type localResidual map[int]float64

func (l localResidual) AddResidual(dof int, v float64) { l[dof] += v }

func (a *Assembler) checkBlocks(blocks *CouplingBlocks) error {
	if blocks == nil || blocks.Size() < a.ndofs {
		return configErrorf("coupling blocks must span the %d registered dofs", a.ndofs)
	}
	return nil
}

// NewBlocks returns empty coupling blocks sized for the registered dofs
func (a *Assembler) NewBlocks() *CouplingBlocks { return NewCouplingBlocks(a.ndofs) }

// residualPass evaluates every segment into per-partition accumulators
func (a *Assembler) residualPass(sol Solution) (locals []localResidual, err error) {
	if err = a.ready(); err != nil {
		return
	}
	pm := utils.NewPartitionMap(a.cfg.Threads, len(a.segs.BySecondary))
	locals = make([]localResidual, pm.ParallelDegree)
	err = pm.Run(func(bn, kMin, kMax int) (err error) {
		loc := make(localResidual)
		for f := kMin; f < kMax; f++ {
			for _, id := range a.segs.BySecondary[f] {
				if err = a.ComputeSegmentResidual(id, a.segs.Segments[id].HasMaster(), sol, loc); err != nil {
					return
				}
			}
		}
		locals[bn] = loc
		return
	})
	if err != nil {
		return nil, err
	}
	return
}

func commitResidual(locals []localResidual, target ResidualTarget) {
	for _, loc := range locals {
		dofs := make([]int, 0, len(loc))
		for d := range loc {
			dofs = append(dofs, d)
		}
		sort.Ints(dofs)
		for _, d := range dofs {
			target.AddResidual(d, loc[d])
		}
	}
}

// jacobianPass evaluates every segment and merges the partitions in order
func (a *Assembler) jacobianPass(sol Solution) (blocks *CouplingBlocks, err error) {
	if err = a.ready(); err != nil {
		return
	}
	var (
		pm     = utils.NewPartitionMap(a.cfg.Threads, len(a.segs.BySecondary))
		locals = make([]*CouplingBlocks, pm.ParallelDegree)
	)
	err = pm.Run(func(bn, kMin, kMax int) (err error) {
		loc := a.NewBlocks()
		for f := kMin; f < kMax; f++ {
			for _, id := range a.segs.BySecondary[f] {
				if err = a.ComputeSegmentJacobian(id, a.segs.Segments[id].HasMaster(), sol, loc); err != nil {
					return
				}
			}
		}
		locals[bn] = loc
		return
	})
	if err != nil {
		return nil, err
	}
	blocks = a.NewBlocks()
	for _, loc := range locals {
		if loc != nil {
			blocks.Merge(loc)
		}
	}
	return
}

// ComputeResidual evaluates every segment and adds the result to target
func (a *Assembler) ComputeResidual(sol Solution, target ResidualTarget) (err error) {
	var locals []localResidual
	if locals, err = a.residualPass(sol); err != nil {
		return
	}
	commitResidual(locals, target)
	return
}

// ComputeJacobian evaluates every segment and adds the blocks into blocks
func (a *Assembler) ComputeJacobian(sol Solution, blocks *CouplingBlocks) (err error) {
	var local *CouplingBlocks
	if err = a.checkBlocks(blocks); err != nil {
		return
	}
	if local, err = a.jacobianPass(sol); err != nil {
		return
	}
	blocks.Merge(local)
	return
}

// Assemble runs both passes and commits to r and j only when both succeed.
// Either target may be nil to skip its pass.
func (a *Assembler) Assemble(sol Solution, r ResidualTarget, j JacobianTarget) (err error) {
	var (
		locals []localResidual
		blocks *CouplingBlocks
	)
	if r != nil {
		if locals, err = a.residualPass(sol); err != nil {
			return
		}
	}
	if j != nil {
		if blocks, err = a.jacobianPass(sol); err != nil {
			return
		}
	}
	if r != nil {
		commitResidual(locals, r)
	}
	if j != nil {
		blocks.Scatter(j)
	}
	return
}
