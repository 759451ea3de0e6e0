package mortar

import (
	"fmt"
	"sort"

	"github.com/james-bowman/sparse"
)

// Entry is one stored value of a CouplingBlock
type Entry struct {
	Row, Col int
	Value    float64
}

// CouplingBlock is a sparse block of the global Jacobian keyed by global
// (row, col) dofs, stored as an n x n DOK. Adds accumulate.
type CouplingBlock struct {
	Name string
	dok  *sparse.DOK
}

func NewCouplingBlock(name string, n int) *CouplingBlock {
	return &CouplingBlock{Name: name, dok: sparse.NewDOK(n, n)}
}

func (b *CouplingBlock) Add(row, col int, v float64) { b.dok.Set(row, col, b.dok.At(row, col)+v) }

func (b *CouplingBlock) At(row, col int) float64 { return b.dok.At(row, col) }

// Has reports a non-zero value at (row, col)
func (b *CouplingBlock) Has(row, col int) bool { return b.dok.At(row, col) != 0 }

func (b *CouplingBlock) Len() int { return b.dok.NNZ() }

func (b *CouplingBlock) Sum() (s float64) {
	b.dok.DoNonZero(func(_, _ int, v float64) { s += v })
	return
}

// Entries returns the stored values ordered by row, then column
func (b *CouplingBlock) Entries() (e []Entry) {
	e = make([]Entry, 0, b.dok.NNZ())
	b.dok.DoNonZero(func(i, j int, v float64) {
		e = append(e, Entry{Row: i, Col: j, Value: v})
	})
	sort.Slice(e, func(i, j int) bool {
		if e[i].Row != e[j].Row {
			return e[i].Row < e[j].Row
		}
		return e[i].Col < e[j].Col
	})
	return
}

// CSR returns a compressed copy of the block
func (b *CouplingBlock) CSR() *sparse.CSR { return b.dok.ToCSR() }

func (b *CouplingBlock) String() string {
	return fmt.Sprintf("%s: %d entries, sum %8.5g", b.Name, b.Len(), b.Sum())
}

// ForeignKey names an off-diagonal block against a variable outside the triple
type ForeignKey struct {
	Row      MortarType
	Variable string
}

// CouplingBlocks is the set of Jacobian blocks filled by one assembly pass
type CouplingBlocks struct {
	n       int
	blocks  map[BlockKey]*CouplingBlock
	foreign map[ForeignKey]*CouplingBlock
}

// NewCouplingBlocks holds blocks over n global dofs
func NewCouplingBlocks(n int) *CouplingBlocks {
	return &CouplingBlocks{
		n:       n,
		blocks:  make(map[BlockKey]*CouplingBlock),
		foreign: make(map[ForeignKey]*CouplingBlock),
	}
}

// Size is the number of global dofs each block spans
func (c *CouplingBlocks) Size() int { return c.n }

// Block returns the (row, col) block, creating it empty if needed
func (c *CouplingBlocks) Block(row, col MortarType) *CouplingBlock {
	key := BlockKey{Row: row, Col: col}
	b, ok := c.blocks[key]
	if !ok {
		b = NewCouplingBlock(key.String(), c.n)
		c.blocks[key] = b
	}
	return b
}

// Foreign returns the block of row space against a foreign variable
func (c *CouplingBlocks) Foreign(row MortarType, name string) *CouplingBlock {
	key := ForeignKey{Row: row, Variable: name}
	b, ok := c.foreign[key]
	if !ok {
		b = NewCouplingBlock(row.String()+"-"+name, c.n)
		c.foreign[key] = b
	}
	return b
}

// Keys lists the non-empty triple blocks in row-major MortarType order
func (c *CouplingBlocks) Keys() (keys []BlockKey) {
	for _, row := range MortarTypes {
		for _, col := range MortarTypes {
			key := BlockKey{Row: row, Col: col}
			if b, ok := c.blocks[key]; ok && b.Len() > 0 {
				keys = append(keys, key)
			}
		}
	}
	return
}

// ForeignKeys lists the non-empty foreign blocks ordered by row, then name
func (c *CouplingBlocks) ForeignKeys() (keys []ForeignKey) {
	for k, b := range c.foreign {
		if b.Len() > 0 {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Row != keys[j].Row {
			return keys[i].Row < keys[j].Row
		}
		return keys[i].Variable < keys[j].Variable
	})
	return
}

// Merge adds every entry of o into c
func (c *CouplingBlocks) Merge(o *CouplingBlocks) {
	for k, b := range o.blocks {
		dst := c.Block(k.Row, k.Col)
		b.dok.DoNonZero(dst.Add)
	}
	for k, b := range o.foreign {
		dst := c.Foreign(k.Row, k.Variable)
		b.dok.DoNonZero(dst.Add)
	}
}

// Scatter adds every block into t, in a deterministic order
func (c *CouplingBlocks) Scatter(t JacobianTarget) {
	for _, k := range c.Keys() {
		for _, e := range c.blocks[k].Entries() {
			t.AddJacobian(e.Row, e.Col, e.Value)
		}
	}
	for _, k := range c.ForeignKeys() {
		for _, e := range c.foreign[k].Entries() {
			t.AddJacobian(e.Row, e.Col, e.Value)
		}
	}
}
