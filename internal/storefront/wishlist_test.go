package storefront

import (
	"sync"
	"testing"

	"velours_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWishlistAPI struct {
	mu         sync.Mutex
	fetchCalls int
	fetchFn    func() (*models.Wishlist, error)
	toggleFn   func(productID string) (*models.Wishlist, error)
}

func (f *fakeWishlistAPI) FetchWishlist() (*models.Wishlist, error) {
	f.mu.Lock()
	f.fetchCalls++
	f.mu.Unlock()
	return f.fetchFn()
}

func (f *fakeWishlistAPI) ToggleWishlist(productID string) (*models.Wishlist, error) {
	return f.toggleFn(productID)
}

func TestGuestToggleMembership(t *testing.T) {
	store := NewWishlistStore(nil, NewMemoryStorage(), guest)
	p := montre("p1", 900)

	require.True(t, store.Toggle(p))
	assert.True(t, store.IsInWishlist("p1"))
	assert.False(t, store.IsInWishlist("p2"))

	require.True(t, store.Toggle(p))
	assert.False(t, store.IsInWishlist("p1"))
	assert.Empty(t, store.Items())
}

func TestGuestWishlistSurvivesRestart(t *testing.T) {
	storage := NewMemoryStorage()
	store := NewWishlistStore(nil, storage, guest)
	require.True(t, store.Toggle(montre("p1", 900)))

	reloaded := NewWishlistStore(nil, storage, guest)
	assert.True(t, reloaded.IsInWishlist("p1"))
}

func TestAuthenticatedToggleMirrorsServerList(t *testing.T) {
	api := &fakeWishlistAPI{
		toggleFn: func(string) (*models.Wishlist, error) {
			return &models.Wishlist{Items: []models.ProductSnapshot{
				{ProductID: "a"}, {ProductID: "b"},
			}}, nil
		},
	}
	store := NewWishlistStore(api, NewMemoryStorage(), authenticated)

	require.True(t, store.Toggle(montre("a", 100)))
	assert.True(t, store.IsInWishlist("a"))
	assert.True(t, store.IsInWishlist("b"), "la liste complète du serveur est recopiée")
}

func TestWishlistFetchGuardAndMalformedResponse(t *testing.T) {
	store := NewWishlistStore(nil, NewMemoryStorage(), guest)
	require.True(t, store.Toggle(montre("p1", 900)))

	api := &fakeWishlistAPI{
		fetchFn: func() (*models.Wishlist, error) {
			return &models.Wishlist{}, nil // pas de collection d'articles
		},
	}
	store.api = api
	store.loggedIn = authenticated

	assert.False(t, store.Fetch())
	assert.NotEmpty(t, store.Err())
	assert.True(t, store.IsInWishlist("p1"), "l'état antérieur reste intact")

	started := make(chan struct{})
	release := make(chan struct{})
	api.fetchFn = func() (*models.Wishlist, error) {
		close(started)
		<-release
		return &models.Wishlist{Items: []models.ProductSnapshot{}}, nil
	}
	api.fetchCalls = 0

	done := make(chan bool)
	go func() { done <- store.Fetch() }()
	<-started
	assert.True(t, store.Fetch())
	close(release)
	assert.True(t, <-done)
	assert.Equal(t, 1, api.fetchCalls)
}
