package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeLines(t *testing.T) {
	lines := []StockLine{
		{ProductID: "p1", Size: "M", Quantity: 1},
		{ProductID: "p2", Size: "L", Quantity: 2},
		{ProductID: "p1", Size: "M", Quantity: 3},
		{ProductID: "p1", Size: "S", Quantity: 1},
	}

	merged := MergeLines(lines)

	assert.Equal(t, []StockLine{
		{ProductID: "p1", Size: "M", Quantity: 4},
		{ProductID: "p2", Size: "L", Quantity: 2},
		{ProductID: "p1", Size: "S", Quantity: 1},
	}, merged)
	// input untouched
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestProductIDs(t *testing.T) {
	ids := ProductIDs([]StockLine{{ProductID: "a"}, {ProductID: "b"}, {ProductID: "a"}})
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestValidSizeLabel(t *testing.T) {
	assert.True(t, ValidSizeLabel("M"))
	assert.True(t, ValidSizeLabel("XXL"))
	assert.False(t, ValidSizeLabel(""))
	assert.False(t, ValidSizeLabel(" M"))
	assert.False(t, ValidSizeLabel("a.b"))
	assert.False(t, ValidSizeLabel("$inc"))
}

func TestInsufficientStockError(t *testing.T) {
	err := &InsufficientStockError{ProductID: "p1", SKU: "TEE-BLK", Size: "M", Requested: 2, Available: 0}
	assert.Equal(t, "insufficient stock for TEE-BLK size M: requested 2, available 0", err.Error())
}

func TestProduct_Available(t *testing.T) {
	p := &Product{Sizes: map[string]int{"M": 3}}

	n, ok := p.Available("M")
	assert.True(t, ok)
	assert.Equal(t, 3, n)

	_, ok = p.Available("XL")
	assert.False(t, ok)
}
