package storefront

import (
	"sync"
	"sync/atomic"

	"velours_back_end/internal/models"
)

// wishlistProjection est la partie de la wishlist écrite dans le Storage
type wishlistProjection struct {
	Items []models.ProductSnapshot `json:"items"`
}

// WishlistStore est la wishlist double mode. Même dualité que le panier mais
// une seule mutation : basculer l'appartenance d'un produit.
type WishlistStore struct {
	api      WishlistAPI
	storage  Storage
	loggedIn AuthStatus

	mu    sync.Mutex
	items []models.ProductSnapshot
	err   string

	fetching atomic.Bool
}

func NewWishlistStore(api WishlistAPI, storage Storage, loggedIn AuthStatus) *WishlistStore {
	s := &WishlistStore{api: api, storage: storage, loggedIn: loggedIn}
	var proj wishlistProjection
	if loadJSON(storage, WishlistStorageKey, &proj) && proj.Items != nil {
		s.items = proj.Items
	} else {
		s.items = []models.ProductSnapshot{}
	}
	return s
}

func (s *WishlistStore) mode() Mode {
	if s.loggedIn() {
		return ModeAuthenticated
	}
	return ModeGuest
}

func (s *WishlistStore) Items() []models.ProductSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.ProductSnapshot, len(s.items))
	copy(items, s.items)
	return items
}

func (s *WishlistStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// IsInWishlist est un simple scan linéaire, les wishlists restent petites
func (s *WishlistStore) IsInWishlist(productID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return models.Wishlist{Items: s.items}.Contains(productID)
}

func (s *WishlistStore) commitLocked(items []models.ProductSnapshot) {
	if items == nil {
		items = []models.ProductSnapshot{}
	}
	s.items = items
	s.err = ""
	saveJSON(s.storage, WishlistStorageKey, wishlistProjection{Items: s.items})
}

// Fetch recharge la wishlist depuis le serveur, no-op en invité, avec la même
// garde anti-réentrance que le panier
func (s *WishlistStore) Fetch() bool {
	if s.mode() == ModeGuest {
		return true
	}
	if !s.fetching.CompareAndSwap(false, true) {
		return true
	}
	defer s.fetching.Store(false)

	w, err := s.api.FetchWishlist()
	if err != nil {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.err = errorMessage(err)
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if w == nil || w.Items == nil {
		s.err = "Réponse serveur invalide"
		return false
	}
	s.commitLocked(w.Items)
	return true
}

// Toggle bascule l'appartenance du produit. En mode connecté le serveur
// renvoie la liste complète mise à jour, en invité la bascule est locale.
func (s *WishlistStore) Toggle(product models.ProductSnapshot) bool {
	if s.mode() == ModeAuthenticated {
		w, err := s.api.ToggleWishlist(product.ProductID)
		if err != nil {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.err = errorMessage(err)
			return false
		}
		s.mu.Lock()
		defer s.mu.Unlock()
		if w == nil || w.Items == nil {
			s.err = "Réponse serveur invalide"
			return false
		}
		s.commitLocked(w.Items)
		return true
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]models.ProductSnapshot, 0, len(s.items)+1)
	removed := false
	for _, item := range s.items {
		if item.ProductID == product.ProductID {
			removed = true
			continue
		}
		next = append(next, item)
	}
	if !removed {
		next = append(next, product)
	}
	s.commitLocked(next)
	return true
}
