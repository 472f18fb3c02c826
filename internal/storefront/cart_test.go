package storefront

import (
	"errors"
	"math/rand"
	"sync"
	"testing"

	"velours_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCartAPI struct {
	mu          sync.Mutex
	fetchCalls  int
	addCalls    int
	fetchFn     func() (*models.Cart, error)
	addFn       func(productID string, quantity int, color *models.VariantColor, strap *models.VariantStrap) (*models.Cart, error)
	updateFn    func(lineID string, quantity int) (*models.Cart, error)
	removeFn    func(lineID string) (*models.Cart, error)
	clearErr    error
	clearCalled bool
}

func (f *fakeCartAPI) FetchCart() (*models.Cart, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.mu.Unlock()
	return f.fetchFn()
}

func (f *fakeCartAPI) AddItem(productID string, quantity int, color *models.VariantColor, strap *models.VariantStrap) (*models.Cart, error) {
	f.mu.Lock()
	f.addCalls++
	f.mu.Unlock()
	return f.addFn(productID, quantity, color, strap)
}

func (f *fakeCartAPI) UpdateQuantity(lineID string, quantity int) (*models.Cart, error) {
	return f.updateFn(lineID, quantity)
}

func (f *fakeCartAPI) RemoveItem(lineID string) (*models.Cart, error) {
	return f.removeFn(lineID)
}

func (f *fakeCartAPI) ClearCart() error {
	f.mu.Lock()
	f.clearCalled = true
	f.mu.Unlock()
	return f.clearErr
}

func guest() bool         { return false }
func authenticated() bool { return true }

func montre(id string, price float64) models.ProductSnapshot {
	return models.ProductSnapshot{ProductID: id, Name: "Montre " + id, Price: price}
}

func TestGuestAddMergesSameVariant(t *testing.T) {
	store := NewCartStore(nil, NewMemoryStorage(), guest)

	acier := &models.VariantStrap{Material: "acier", PriceModifier: 150}
	or := &models.VariantColor{Name: "or"}

	require.True(t, store.Add(montre("p1", 1000), 1, or, acier))
	require.True(t, store.Add(montre("p1", 1000), 2, or, acier))

	items := store.Items()
	require.Len(t, items, 1, "même produit + mêmes variantes = une seule ligne")
	assert.Equal(t, 3, items[0].Quantity)
	assert.Equal(t, 1150.0, items[0].UnitPrice)
	assert.Equal(t, 3, store.Count())
	assert.Equal(t, 3450.0, store.Subtotal())
}

func TestGuestAddMergeRefreshesStrapModifier(t *testing.T) {
	store := NewCartStore(nil, NewMemoryStorage(), guest)

	or := &models.VariantColor{Name: "or"}
	acier := &models.VariantStrap{Material: "acier", PriceModifier: 150}
	require.True(t, store.Add(montre("p1", 1000), 1, or, acier))

	// le tarif du bracelet a changé au catalogue entre les deux ajouts
	acierMaj := &models.VariantStrap{Material: "acier", PriceModifier: 200}
	require.True(t, store.Add(montre("p1", 1000), 1, or, acierMaj))

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].Quantity)
	assert.Equal(t, 1200.0, items[0].UnitPrice, "le modificateur entrant remplace l'ancien")
	assert.Equal(t, 2400.0, store.Subtotal())
}

func TestGuestAddDifferentStrapCreatesNewLine(t *testing.T) {
	store := NewCartStore(nil, NewMemoryStorage(), guest)

	or := &models.VariantColor{Name: "or"}
	acier := &models.VariantStrap{Material: "acier", PriceModifier: 150}
	cuir := &models.VariantStrap{Material: "cuir", PriceModifier: 80}

	require.True(t, store.Add(montre("p1", 1000), 1, or, acier))
	require.True(t, store.Add(montre("p1", 1000), 1, or, cuir))

	items := store.Items()
	require.Len(t, items, 2, "bracelet différent = ligne distincte")
	assert.NotEqual(t, items[0].LineID, items[1].LineID)
	assert.Equal(t, 2, store.Count())
	assert.Equal(t, 1150.0+1080.0, store.Subtotal())
}

// Séquences aléatoires d'opérations invité : les totaux dérivés restent
// toujours cohérents avec la liste de lignes.
func TestGuestDerivedTotalsProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	store := NewCartStore(nil, NewMemoryStorage(), guest)

	straps := []*models.VariantStrap{
		nil,
		{Material: "acier", PriceModifier: 150},
		{Material: "cuir", PriceModifier: 80},
	}
	colors := []*models.VariantColor{nil, {Name: "or"}, {Name: "argent"}}

	for i := 0; i < 500; i++ {
		switch rng.Intn(4) {
		case 0, 1:
			id := string(rune('a' + rng.Intn(5)))
			store.Add(montre(id, 100+float64(rng.Intn(900))), 1+rng.Intn(3),
				colors[rng.Intn(len(colors))], straps[rng.Intn(len(straps))])
		case 2:
			if items := store.Items(); len(items) > 0 {
				store.Remove(items[rng.Intn(len(items))].LineID)
			}
		case 3:
			if items := store.Items(); len(items) > 0 {
				store.UpdateQuantity(items[rng.Intn(len(items))].LineID, rng.Intn(5))
			}
		}

		wantCount := 0
		wantSubtotal := 0.0
		for _, line := range store.Items() {
			require.GreaterOrEqual(t, line.Quantity, 1)
			wantCount += line.Quantity
			wantSubtotal += line.EffectiveUnitPrice() * float64(line.Quantity)
		}
		require.Equal(t, wantCount, store.Count())
		require.InDelta(t, wantSubtotal, store.Subtotal(), 1e-9)
	}
}

// En mode connecté les totaux sont recopiés de la réponse serveur, même
// incohérents avec les lignes : un miroir, pas un recalcul.
func TestAuthenticatedMirrorsServerTotals(t *testing.T) {
	api := &fakeCartAPI{
		addFn: func(string, int, *models.VariantColor, *models.VariantStrap) (*models.Cart, error) {
			return &models.Cart{
				Items:    []models.CartLine{{LineID: "l1", Quantity: 1, UnitPrice: 10}},
				Count:    42,
				Subtotal: 999.99,
			}, nil
		},
	}
	store := NewCartStore(api, NewMemoryStorage(), authenticated)

	require.True(t, store.Add(montre("p1", 10), 1, nil, nil))
	assert.Equal(t, 42, store.Count())
	assert.Equal(t, 999.99, store.Subtotal())
	assert.Empty(t, store.Err())
}

func TestFetchGuestIsNoop(t *testing.T) {
	api := &fakeCartAPI{fetchFn: func() (*models.Cart, error) {
		return &models.Cart{Items: []models.CartLine{}}, nil
	}}
	store := NewCartStore(api, NewMemoryStorage(), guest)

	assert.True(t, store.Fetch())
	assert.Zero(t, api.fetchCalls)
}

// Deux Fetch concurrents : un seul appel réseau part, le second est absorbé.
func TestFetchReentrancyGuard(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	api := &fakeCartAPI{fetchFn: func() (*models.Cart, error) {
		close(started)
		<-release
		return &models.Cart{Items: []models.CartLine{}}, nil
	}}
	store := NewCartStore(api, NewMemoryStorage(), authenticated)

	done := make(chan bool)
	go func() { done <- store.Fetch() }()
	<-started

	assert.True(t, store.Fetch(), "le second appel est absorbé sans réseau")
	close(release)
	assert.True(t, <-done)
	assert.Equal(t, 1, api.fetchCalls)
}

func TestMalformedResponseLeavesStateIntact(t *testing.T) {
	store := NewCartStore(nil, NewMemoryStorage(), guest)
	require.True(t, store.Add(montre("p1", 500), 2, nil, nil))

	before := store.Items()
	api := &fakeCartAPI{
		fetchFn: func() (*models.Cart, error) {
			return &models.Cart{}, nil // pas de collection d'articles
		},
		addFn: func(string, int, *models.VariantColor, *models.VariantStrap) (*models.Cart, error) {
			return &models.Cart{}, nil
		},
	}
	store.api = api
	store.loggedIn = authenticated

	assert.False(t, store.Fetch())
	assert.NotEmpty(t, store.Err())
	assert.Equal(t, before, store.Items())
	assert.Equal(t, 2, store.Count())
	assert.Equal(t, 1000.0, store.Subtotal())

	assert.False(t, store.Add(montre("p2", 100), 1, nil, nil))
	assert.Equal(t, before, store.Items())
}

func TestTransportErrorSetsMessage(t *testing.T) {
	api := &fakeCartAPI{
		addFn: func(string, int, *models.VariantColor, *models.VariantStrap) (*models.Cart, error) {
			return nil, &APIError{Status: 400, Message: "Stock insuffisant"}
		},
	}
	store := NewCartStore(api, NewMemoryStorage(), authenticated)

	assert.False(t, store.Add(montre("p1", 10), 1, nil, nil))
	assert.Equal(t, "Stock insuffisant", store.Err())
	assert.Empty(t, store.Items())
}

func TestGenericTransportErrorFallbackMessage(t *testing.T) {
	api := &fakeCartAPI{
		fetchFn: func() (*models.Cart, error) { return nil, errors.New("connection refused") },
	}
	store := NewCartStore(api, NewMemoryStorage(), authenticated)

	assert.False(t, store.Fetch())
	assert.Equal(t, "Une erreur est survenue, veuillez réessayer", store.Err())
}

// Une réponse en retard ne doit jamais écraser le miroir d'une mutation plus
// récente.
func TestStaleMutationResponseDiscarded(t *testing.T) {
	firstBlocked := make(chan struct{})
	releaseFirst := make(chan struct{})
	calls := 0
	var mu sync.Mutex

	api := &fakeCartAPI{
		addFn: func(string, int, *models.VariantColor, *models.VariantStrap) (*models.Cart, error) {
			mu.Lock()
			calls++
			first := calls == 1
			mu.Unlock()
			if first {
				close(firstBlocked)
				<-releaseFirst
				return &models.Cart{Items: []models.CartLine{{LineID: "vieux"}}, Count: 1}, nil
			}
			return &models.Cart{Items: []models.CartLine{{LineID: "recent"}}, Count: 2}, nil
		},
	}
	store := NewCartStore(api, NewMemoryStorage(), authenticated)

	done := make(chan bool)
	go func() { done <- store.Add(montre("p1", 10), 1, nil, nil) }()
	<-firstBlocked

	// la seconde mutation part et revient pendant que la première traîne
	require.True(t, store.Add(montre("p2", 10), 1, nil, nil))
	require.Equal(t, 2, store.Count())

	close(releaseFirst)
	assert.True(t, <-done)

	items := store.Items()
	require.Len(t, items, 1)
	assert.Equal(t, "recent", items[0].LineID, "la réponse périmée est jetée")
	assert.Equal(t, 2, store.Count())
}

func TestClearResetsLocallyEvenWhenServerFails(t *testing.T) {
	api := &fakeCartAPI{
		addFn: func(string, int, *models.VariantColor, *models.VariantStrap) (*models.Cart, error) {
			return &models.Cart{Items: []models.CartLine{{LineID: "l1", Quantity: 1}}, Count: 1, Subtotal: 10}, nil
		},
		clearErr: &APIError{Status: 500, Message: "Erreur lors du vidage du panier"},
	}
	store := NewCartStore(api, NewMemoryStorage(), authenticated)
	require.True(t, store.Add(montre("p1", 10), 1, nil, nil))

	store.Clear()

	assert.True(t, api.clearCalled)
	assert.Empty(t, store.Items())
	assert.Zero(t, store.Count())
	assert.Zero(t, store.Subtotal())
	assert.Equal(t, "Erreur lors du vidage du panier", store.Err())
}

func TestGuestCartSurvivesRestart(t *testing.T) {
	storage := NewMemoryStorage()

	store := NewCartStore(nil, storage, guest)
	require.True(t, store.Add(montre("p1", 250), 2, nil, &models.VariantStrap{Material: "cuir", PriceModifier: 50}))

	reloaded := NewCartStore(nil, storage, guest)
	require.Len(t, reloaded.Items(), 1)
	assert.Equal(t, 2, reloaded.Count())
	assert.Equal(t, 600.0, reloaded.Subtotal())
}

func TestFileStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	storage, err := NewFileStorage(dir)
	require.NoError(t, err)

	store := NewCartStore(nil, storage, guest)
	require.True(t, store.Add(montre("p1", 100), 1, nil, nil))

	reloaded := NewCartStore(nil, storage, guest)
	assert.Equal(t, 1, reloaded.Count())

	require.NoError(t, storage.Delete(CartStorageKey))
	empty := NewCartStore(nil, storage, guest)
	assert.Zero(t, empty.Count())
}
