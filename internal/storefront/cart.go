package storefront

import (
	"sync"
	"sync/atomic"

	"velours_back_end/internal/models"

	"github.com/google/uuid"
)

// Mode est résolu une fois par opération depuis l'accesseur injecté
type Mode int

const (
	// ModeGuest : aucune identité serveur, l'état vit dans le stockage local
	ModeGuest Mode = iota
	// ModeAuthenticated : le serveur fait foi, chaque mutation remplace le
	// miroir local par sa réponse
	ModeAuthenticated
)

// cartProjection est la partie du panier écrite dans le Storage
type cartProjection struct {
	Items    []models.CartLine `json:"items"`
	Count    int               `json:"count"`
	Subtotal float64           `json:"subtotal"`
}

// CartStore est le panier double mode. En mode invité les lignes sont gérées
// localement et les totaux dérivés par models.Cart.Recompute ; en mode
// connecté chaque mutation envoie au serveur et recopie sa réponse sans
// jamais recalculer les totaux côté client.
type CartStore struct {
	api      CartAPI
	storage  Storage
	loggedIn AuthStatus

	mu   sync.Mutex
	cart models.Cart
	err  string

	// garde anti-réentrance de Fetch
	fetching atomic.Bool

	// numéros de séquence des mutations connectées : une réponse en retard
	// n'écrase jamais le miroir d'une mutation plus récente
	seq        uint64
	appliedSeq uint64
}

func NewCartStore(api CartAPI, storage Storage, loggedIn AuthStatus) *CartStore {
	s := &CartStore{api: api, storage: storage, loggedIn: loggedIn}
	var proj cartProjection
	if loadJSON(storage, CartStorageKey, &proj) {
		s.cart = models.Cart{Items: proj.Items, Count: proj.Count, Subtotal: proj.Subtotal}
		if s.cart.Items == nil {
			s.cart.Items = []models.CartLine{}
		}
	} else {
		s.cart.Items = []models.CartLine{}
	}
	return s
}

func (s *CartStore) mode() Mode {
	if s.loggedIn() {
		return ModeAuthenticated
	}
	return ModeGuest
}

// Items renvoie une copie des lignes courantes
func (s *CartStore) Items() []models.CartLine {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]models.CartLine, len(s.cart.Items))
	copy(items, s.cart.Items)
	return items
}

func (s *CartStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Count
}

func (s *CartStore) Subtotal() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Subtotal
}

// Err renvoie le dernier message d'erreur, vide si la dernière opération a réussi
func (s *CartStore) Err() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// reconcileLocked est l'unique point de validation d'un nouvel état : miroir
// serveur ou résultat d'une mutation invitée, tout passe par ici avant d'être
// persisté. Appelé verrou tenu.
func (s *CartStore) reconcileLocked(cart models.Cart) {
	if cart.Items == nil {
		cart.Items = []models.CartLine{}
	}
	s.cart = cart
	s.err = ""
	saveJSON(s.storage, CartStorageKey, cartProjection{
		Items:    s.cart.Items,
		Count:    s.cart.Count,
		Subtotal: s.cart.Subtotal,
	})
}

// mutateGuest applique une mutation locale puis redérive les totaux.
// Le chemin invité ne fait pas d'E/S réseau et ne peut pas échouer.
func (s *CartStore) mutateGuest(apply func(cart *models.Cart)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := models.Cart{Items: append([]models.CartLine(nil), s.cart.Items...)}
	apply(&next)
	next.Recompute()
	s.reconcileLocked(next)
}

// nextSeq réserve un numéro pour une mutation connectée
func (s *CartStore) nextSeq() uint64 {
	return atomic.AddUint64(&s.seq, 1)
}

// commitRemote recopie une réponse serveur si elle n'est pas périmée.
// Une réponse sans collection d'articles est considérée corrompue et
// laisse l'état antérieur intact.
func (s *CartStore) commitRemote(seq uint64, cart *models.Cart) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cart == nil || cart.Items == nil {
		s.err = "Réponse serveur invalide"
		return false
	}
	if seq < s.appliedSeq {
		return true // réponse périmée, une mutation plus récente a déjà été appliquée
	}
	s.appliedSeq = seq
	s.reconcileLocked(*cart)
	return true
}

func (s *CartStore) fail(err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = errorMessage(err)
	return false
}

// Fetch recharge le miroir depuis le serveur. No-op en mode invité (le
// stockage local fait déjà foi). Un Fetch déjà en cours absorbe les appels
// suivants au lieu de courir avec eux.
func (s *CartStore) Fetch() bool {
	if s.mode() == ModeGuest {
		return true
	}
	if !s.fetching.CompareAndSwap(false, true) {
		return true
	}
	defer s.fetching.Store(false)

	seq := s.nextSeq()
	cart, err := s.api.FetchCart()
	if err != nil {
		return s.fail(err)
	}
	return s.commitRemote(seq, cart)
}

// Add ajoute un produit au panier. En mode invité une ligne existante sur le
// même (produit, coloris, bracelet) est fusionnée, sinon une ligne est créée
// avec un identifiant local.
func (s *CartStore) Add(product models.ProductSnapshot, quantity int, color *models.VariantColor, strap *models.VariantStrap) bool {
	if quantity < 1 {
		quantity = 1
	}

	if s.mode() == ModeAuthenticated {
		seq := s.nextSeq()
		cart, err := s.api.AddItem(product.ProductID, quantity, color, strap)
		if err != nil {
			return s.fail(err)
		}
		return s.commitRemote(seq, cart)
	}

	s.mutateGuest(func(cart *models.Cart) {
		for i := range cart.Items {
			if cart.Items[i].SameVariant(product.ProductID, color, strap) {
				cart.Items[i].Quantity += quantity
				// la ligne reprend le prix et les sélecteurs entrants pour que
				// le modificateur de bracelet à jour entre dans le prix unitaire
				cart.Items[i].Product.Price = product.Price
				cart.Items[i].Color = color
				cart.Items[i].Strap = strap
				return
			}
		}
		cart.Items = append(cart.Items, models.CartLine{
			LineID:   uuid.NewString(),
			Product:  product,
			Quantity: quantity,
			Color:    color,
			Strap:    strap,
		})
	})
	return true
}

// UpdateQuantity change la quantité d'une ligne, une quantité nulle la retire
func (s *CartStore) UpdateQuantity(lineID string, quantity int) bool {
	if quantity < 1 {
		return s.Remove(lineID)
	}

	if s.mode() == ModeAuthenticated {
		seq := s.nextSeq()
		cart, err := s.api.UpdateQuantity(lineID, quantity)
		if err != nil {
			return s.fail(err)
		}
		return s.commitRemote(seq, cart)
	}

	s.mutateGuest(func(cart *models.Cart) {
		for i := range cart.Items {
			if cart.Items[i].LineID == lineID {
				cart.Items[i].Quantity = quantity
				return
			}
		}
	})
	return true
}

// Remove retire une ligne du panier
func (s *CartStore) Remove(lineID string) bool {
	if s.mode() == ModeAuthenticated {
		seq := s.nextSeq()
		cart, err := s.api.RemoveItem(lineID)
		if err != nil {
			return s.fail(err)
		}
		return s.commitRemote(seq, cart)
	}

	s.mutateGuest(func(cart *models.Cart) {
		kept := cart.Items[:0]
		for _, line := range cart.Items {
			if line.LineID != lineID {
				kept = append(kept, line)
			}
		}
		cart.Items = kept
	})
	return true
}

// Clear vide le panier. L'appel serveur est fait au mieux : l'état local est
// remis à zéro quoi qu'il arrive.
func (s *CartStore) Clear() {
	if s.mode() == ModeAuthenticated {
		if err := s.api.ClearCart(); err != nil {
			s.fail(err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.appliedSeq = atomic.AddUint64(&s.seq, 1)
	cleared := models.Cart{Items: []models.CartLine{}}
	errMsg := s.err
	s.reconcileLocked(cleared)
	s.err = errMsg
}
