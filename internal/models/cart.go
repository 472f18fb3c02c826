package models

// VariantColor est le coloris choisi pour une ligne de panier
type VariantColor struct {
	Name string `json:"name"`
	Hex  string `json:"hex,omitempty"`
}

// VariantStrap est le bracelet choisi (le matériau peut modifier le prix)
type VariantStrap struct {
	Material      string  `json:"material"`
	PriceModifier float64 `json:"price_modifier,omitempty"`
}

// ProductSnapshot est la copie dénormalisée du produit embarquée dans le panier
// et la wishlist (le prix du catalogue peut bouger, pas celui de la ligne)
type ProductSnapshot struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	ImageURL  string  `json:"image_url,omitempty"`
}

type CartLine struct {
	LineID    string          `json:"line_id"`
	Product   ProductSnapshot `json:"product"`
	Quantity  int             `json:"quantity"`
	Color     *VariantColor   `json:"color,omitempty"`
	Strap     *VariantStrap   `json:"strap,omitempty"`
	UnitPrice float64         `json:"unit_price"` // prix de base + modificateur bracelet
}

type Cart struct {
	Items    []CartLine `json:"items"`
	Count    int        `json:"count"`
	Subtotal float64    `json:"subtotal"`
}

// EffectiveUnitPrice recalcule le prix unitaire d'une ligne
func (l CartLine) EffectiveUnitPrice() float64 {
	price := l.Product.Price
	if l.Strap != nil {
		price += l.Strap.PriceModifier
	}
	return price
}

// SameVariant compare produit + coloris + bracelet (clé de fusion des lignes)
func (l CartLine) SameVariant(productID string, color *VariantColor, strap *VariantStrap) bool {
	if l.Product.ProductID != productID {
		return false
	}
	if (l.Color == nil) != (color == nil) || (l.Strap == nil) != (strap == nil) {
		return false
	}
	if l.Color != nil && l.Color.Name != color.Name {
		return false
	}
	if l.Strap != nil && l.Strap.Material != strap.Material {
		return false
	}
	return true
}

// Recompute dérive count et subtotal depuis les lignes.
// Seul point de calcul des totaux : le serveur et le mode invité du client
// passent tous les deux par ici.
func (c *Cart) Recompute() {
	count := 0
	subtotal := 0.0
	for i := range c.Items {
		c.Items[i].UnitPrice = c.Items[i].EffectiveUnitPrice()
		count += c.Items[i].Quantity
		subtotal += c.Items[i].UnitPrice * float64(c.Items[i].Quantity)
	}
	c.Count = count
	c.Subtotal = subtotal
}
