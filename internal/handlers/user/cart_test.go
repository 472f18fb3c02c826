package user

import (
	"strings"
	"testing"

	"velours_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func produitCatalogue() models.Product {
	return models.Product{
		Name:  "Montre Héritage",
		Price: 1000,
		Colors: []models.VariantColor{
			{Name: "or", Hex: "#d4af37"},
			{Name: "argent", Hex: "#c0c0c0"},
		},
		Straps: []models.VariantStrap{
			{Material: "acier", PriceModifier: 150},
			{Material: "cuir", PriceModifier: 80},
		},
	}
}

func TestResolveVariantsUsesCatalogModifier(t *testing.T) {
	p := produitCatalogue()

	// le client annonce un modificateur fantaisiste, le catalogue fait foi
	color, strap, ok := resolveVariants(p,
		&models.VariantColor{Name: "or"},
		&models.VariantStrap{Material: "acier", PriceModifier: -900})

	require.True(t, ok)
	require.NotNil(t, strap)
	assert.Equal(t, 150.0, strap.PriceModifier)
	require.NotNil(t, color)
	assert.Equal(t, "#d4af37", color.Hex)
}

func TestResolveVariantsRejectsUnknownSelectors(t *testing.T) {
	p := produitCatalogue()

	_, _, ok := resolveVariants(p, nil, &models.VariantStrap{Material: "titane"})
	assert.False(t, ok, "matériau absent du catalogue")

	_, _, ok = resolveVariants(p, &models.VariantColor{Name: "rose"}, nil)
	assert.False(t, ok, "coloris absent du catalogue")
}

func TestResolveVariantsWithoutSelectors(t *testing.T) {
	color, strap, ok := resolveVariants(produitCatalogue(), nil, nil)
	require.True(t, ok)
	assert.Nil(t, color)
	assert.Nil(t, strap)
}

// L'identifiant produit de la requête est canonisé avant la fusion : une
// casse différente ne crée pas de ligne en double.
func TestAddMergeKeyIsCanonical(t *testing.T) {
	upper := "0E9B41C3-5A6F-4C2D-9E1B-7F3A2D8C4B10"
	parsed, err := uuid.Parse(upper)
	require.NoError(t, err)

	snapshot := models.Product{ID: gocql.UUID(parsed)}.Snapshot()
	assert.Equal(t, parsed.String(), snapshot.ProductID)
	assert.Equal(t, strings.ToLower(upper), parsed.String())

	line := models.CartLine{Product: snapshot}
	assert.True(t, line.SameVariant(parsed.String(), nil, nil))
	assert.False(t, line.SameVariant(upper, nil, nil))
}
