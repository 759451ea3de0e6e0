package mortar

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCouplingBlocks(t *testing.T) {
	c := NewCouplingBlocks(5)
	assert.Equal(t, 5, c.Size())
	b := c.Block(Multiplier, Master)
	b.Add(4, 1, 0.5)
	b.Add(4, 1, 0.25)
	b.Add(0, 3, -1)
	assert.Equal(t, 0.75, b.At(4, 1))
	assert.True(t, b.Has(0, 3))
	assert.False(t, b.Has(3, 0))
	assert.Equal(t, 2, b.Len())
	assert.Equal(t, -0.25, b.Sum())
	assert.Equal(t, []Entry{{0, 3, -1}, {4, 1, 0.75}}, b.Entries())
	assert.Panics(t, func() { b.Add(5, 0, 1) })

	csr := b.CSR()
	r, cols := csr.Dims()
	assert.Equal(t, 5, r)
	assert.Equal(t, 5, cols)
	assert.Equal(t, 0.75, csr.At(4, 1))
	assert.Equal(t, 2, csr.NNZ())

	// empty blocks are not listed
	c.Block(Secondary, Secondary)
	assert.Equal(t, []BlockKey{{Row: Multiplier, Col: Master}}, c.Keys())

	o := NewCouplingBlocks(5)
	o.Block(Multiplier, Master).Add(4, 1, 1)
	o.Foreign(Master, "temp").Add(2, 2, 3)
	c.Merge(o)
	assert.Equal(t, 1.75, c.Block(Multiplier, Master).At(4, 1))
	assert.Equal(t, []ForeignKey{{Row: Master, Variable: "temp"}}, c.ForeignKeys())
	assert.Equal(t, 3., c.Foreign(Master, "temp").At(2, 2))
}
