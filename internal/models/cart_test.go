package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecomputeDerivesTotals(t *testing.T) {
	cart := Cart{Items: []CartLine{
		{
			Product:  ProductSnapshot{ProductID: "p1", Price: 1000},
			Quantity: 2,
			Strap:    &VariantStrap{Material: "acier", PriceModifier: 150},
		},
		{
			Product:  ProductSnapshot{ProductID: "p2", Price: 300},
			Quantity: 1,
		},
	}}

	cart.Recompute()

	assert.Equal(t, 3, cart.Count)
	assert.Equal(t, 1150.0, cart.Items[0].UnitPrice, "prix de base + modificateur bracelet")
	assert.Equal(t, 300.0, cart.Items[1].UnitPrice)
	assert.Equal(t, 2*1150.0+300.0, cart.Subtotal)
}

func TestRecomputeEmptyCart(t *testing.T) {
	var cart Cart
	cart.Recompute()
	assert.Zero(t, cart.Count)
	assert.Zero(t, cart.Subtotal)
}

func TestSameVariant(t *testing.T) {
	or := &VariantColor{Name: "or"}
	acier := &VariantStrap{Material: "acier", PriceModifier: 150}
	line := CartLine{Product: ProductSnapshot{ProductID: "p1"}, Color: or, Strap: acier}

	assert.True(t, line.SameVariant("p1", &VariantColor{Name: "or"}, &VariantStrap{Material: "acier"}))
	assert.False(t, line.SameVariant("p2", or, acier), "produit différent")
	assert.False(t, line.SameVariant("p1", &VariantColor{Name: "argent"}, acier), "coloris différent")
	assert.False(t, line.SameVariant("p1", or, &VariantStrap{Material: "cuir"}), "bracelet différent")
	assert.False(t, line.SameVariant("p1", nil, acier), "absence de coloris ne matche pas un coloris")
	assert.False(t, line.SameVariant("p1", or, nil))

	nue := CartLine{Product: ProductSnapshot{ProductID: "p1"}}
	assert.True(t, nue.SameVariant("p1", nil, nil))
}

func TestWishlistContains(t *testing.T) {
	w := Wishlist{Items: []ProductSnapshot{{ProductID: "a"}, {ProductID: "b"}}}
	assert.True(t, w.Contains("a"))
	assert.False(t, w.Contains("c"))
}
