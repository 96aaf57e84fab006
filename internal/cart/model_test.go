package cart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func item(productID string, price float64, qty int) Item {
	return Item{Product: Product{ID: productID, Name: productID, Category: "T-Shirts"}, Price: price, Quantity: qty}
}

func TestSubtotal(t *testing.T) {
	tests := map[string]struct {
		items []Item
		want  float64
	}{
		"empty":            {nil, 0},
		"two lines":        {[]Item{item("a", 10, 2), item("b", 5, 1)}, 25},
		"rounded to cents": {[]Item{item("a", 19.99, 3)}, 59.97},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			c := &Cart{Items: tt.items}
			assert.Equal(t, tt.want, c.Subtotal())
		})
	}
}

func TestAdd_MergesIdenticalItems(t *testing.T) {
	c := New("s1")

	first, err := c.Add(item("tee", 20, 1))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)

	merged, err := c.Add(item("tee", 20, 2))
	require.NoError(t, err)
	assert.Equal(t, first.ID, merged.ID)
	assert.Equal(t, 3, merged.Quantity)
	assert.Len(t, c.Items, 1)

	other := item("tee", 20, 1)
	other.Variant = Variant{Color: "black", Size: "L"}
	_, err = c.Add(other)
	require.NoError(t, err)
	assert.Len(t, c.Items, 2)

	catalog := other
	catalog.VariantID = "4017"
	added, err := c.Add(catalog)
	require.NoError(t, err)
	assert.Len(t, c.Items, 3)
	assert.Equal(t, "4017", added.VariantID)
}

func TestAdd_Validation(t *testing.T) {
	tests := map[string]Item{
		"no product":        {Price: 1, Quantity: 1},
		"zero quantity":     item("a", 1, 0),
		"negative price":    item("a", -1, 1),
		"bad orientation":   {Product: Product{ID: "a"}, Price: 1, Quantity: 1, ToolSettings: &ToolSettings{ImageOrientation: "diagonal", Frame: FrameNo}},
		"bad frame":         {Product: Product{ID: "a"}, Price: 1, Quantity: 1, ToolSettings: &ToolSettings{ImageOrientation: OrientationPortrait, Frame: "maybe"}},
		"negative feathers": {Product: Product{ID: "a"}, Price: 1, Quantity: 1, ToolSettings: &ToolSettings{ImageOrientation: OrientationPortrait, Frame: FrameNo, Feather: -2}},
	}

	for name, it := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New("s1").Add(it)
			require.ErrorIs(t, err, ErrInvalidItem)
		})
	}
}

func TestUpdatePreferencesAndRemove(t *testing.T) {
	c := New("s1")
	it, err := c.Add(item("tee", 20, 1))
	require.NoError(t, err)

	ts := &ToolSettings{ImageOrientation: OrientationLandscape, Feather: 4, CornerRadius: 12, Frame: FrameYes}
	updated, err := c.UpdatePreferences(it.ID, ts)
	require.NoError(t, err)
	assert.Equal(t, ts, updated.ToolSettings)

	_, err = c.UpdatePreferences("missing", ts)
	require.ErrorIs(t, err, ErrItemNotFound)

	_, err = c.UpdateQuantity(it.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 80.0, c.Subtotal())

	require.NoError(t, c.Remove(it.ID))
	require.ErrorIs(t, c.Remove(it.ID), ErrItemNotFound)
	assert.Empty(t, c.Items)
}

func TestProductIsShirt(t *testing.T) {
	assert.True(t, Product{Category: "T-Shirts"}.IsShirt())
	assert.True(t, Product{Category: "tee"}.IsShirt())
	assert.False(t, Product{Category: "Mugs"}.IsShirt())
}
