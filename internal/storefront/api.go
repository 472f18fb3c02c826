// Package storefront est le SDK client de la boutique Velours : panier et
// wishlist en double mode (invité local / connecté miroir serveur) et machine
// à états d'enrôlement MFA. Les dépendances (client réseau, stockage durable,
// indicateur d'authentification) sont injectées à la construction.
package storefront

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"velours_back_end/internal/models"
)

// CartAPI est la ressource panier du serveur. Chaque mutation renvoie le
// panier complet avec les totaux calculés côté serveur.
type CartAPI interface {
	FetchCart() (*models.Cart, error)
	AddItem(productID string, quantity int, color *models.VariantColor, strap *models.VariantStrap) (*models.Cart, error)
	UpdateQuantity(lineID string, quantity int) (*models.Cart, error)
	RemoveItem(lineID string) (*models.Cart, error)
	ClearCart() error
}

// WishlistAPI est la ressource wishlist du serveur
type WishlistAPI interface {
	FetchWishlist() (*models.Wishlist, error)
	ToggleWishlist(productID string) (*models.Wishlist, error)
}

// BackupCodeStatus décrit l'état des codes de secours sans jamais exposer le clair
type BackupCodeStatus struct {
	Codes     []models.BackupCode `json:"codes"`
	Remaining int                 `json:"remaining"`
}

// MFAAPI est la ressource MFA du serveur
type MFAAPI interface {
	EnableMFA() (*models.MFASetupResponse, error)
	VerifyMFA(code string) error
	CancelMFA() error
	DisableMFA(password string) error
	GetBackupCodes(password string) (*BackupCodeStatus, error)
	RegenerateBackupCodes(password string) ([]string, error)
}

// AuthStatus indique si une identité serveur est présente au moment de l'appel
type AuthStatus func() bool

// APIError est l'erreur renvoyée par le serveur, déjà lisible par un humain
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("erreur serveur (%d)", e.Status)
}

// errorMessage normalise n'importe quelle erreur de transport en message affichable
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return "Une erreur est survenue, veuillez réessayer"
}

// Client parle à l'API REST de la boutique. Il implémente CartAPI,
// WishlistAPI et MFAAPI.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string // JWT de session, vide en mode invité
}

func NewClient(baseURL string, token func() string) *Client {
	if token == nil {
		token = func() string { return "" }
	}
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   token,
	}
}

// doJSON envoie la requête et décode la réponse. Une réponse non-2xx devient
// une APIError portant le message du serveur.
func (c *Client) doJSON(method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if t := c.token(); t != "" {
		req.Header.Set("Authorization", "Bearer "+t)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var payload struct {
			Error string `json:"error"`
		}
		json.Unmarshal(data, &payload)
		return &APIError{Status: resp.StatusCode, Message: payload.Error}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("réponse illisible: %w", err)
		}
	}
	return nil
}

// LoginResult est la réponse du login : soit un jeton de session, soit un
// challenge MFA à résoudre avec un code TOTP ou de secours
type LoginResult struct {
	Token          string `json:"token"`
	RefreshToken   string `json:"refresh_token"`
	MFARequired    bool   `json:"mfa_required"`
	ChallengeToken string `json:"challenge_token"`
	Name           string `json:"name"`
	Email          string `json:"email"`
}

func (c *Client) Login(email, password string) (*LoginResult, error) {
	var result LoginResult
	body := map[string]any{"email": email, "password": password}
	if err := c.doJSON(http.MethodPost, "/api/auth/login", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SolveMFAChallenge échange le challenge et un code (TOTP ou code de secours)
// contre le jeton de session
func (c *Client) SolveMFAChallenge(challengeToken, code, backupCode string) (string, error) {
	var result struct {
		Token string `json:"token"`
	}
	body := map[string]any{
		"challenge_token": challengeToken,
		"code":            code,
		"backup_code":     backupCode,
	}
	if err := c.doJSON(http.MethodPost, "/api/auth/mfa/challenge", body, &result); err != nil {
		return "", err
	}
	return result.Token, nil
}

// Profile est la vue du profil renvoyée par /api/auth/me
type Profile struct {
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	MFAEnabled bool   `json:"mfa_enabled"`
}

func (c *Client) Me() (*Profile, error) {
	var p Profile
	if err := c.doJSON(http.MethodGet, "/api/auth/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) FetchCart() (*models.Cart, error) {
	var cart models.Cart
	if err := c.doJSON(http.MethodGet, "/api/cart", nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddItem(productID string, quantity int, color *models.VariantColor, strap *models.VariantStrap) (*models.Cart, error) {
	body := map[string]any{
		"product_id": productID,
		"quantity":   quantity,
	}
	if color != nil {
		body["color"] = color
	}
	if strap != nil {
		body["strap"] = strap
	}
	var cart models.Cart
	if err := c.doJSON(http.MethodPost, "/api/cart/add", body, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) UpdateQuantity(lineID string, quantity int) (*models.Cart, error) {
	var cart models.Cart
	if err := c.doJSON(http.MethodPut, "/api/cart/"+lineID, map[string]any{"quantity": quantity}, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) RemoveItem(lineID string) (*models.Cart, error) {
	var cart models.Cart
	if err := c.doJSON(http.MethodDelete, "/api/cart/"+lineID, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) ClearCart() error {
	return c.doJSON(http.MethodDelete, "/api/cart/clear", nil, nil)
}

func (c *Client) FetchWishlist() (*models.Wishlist, error) {
	var w models.Wishlist
	if err := c.doJSON(http.MethodGet, "/api/wishlist", nil, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) ToggleWishlist(productID string) (*models.Wishlist, error) {
	var w models.Wishlist
	if err := c.doJSON(http.MethodPost, "/api/wishlist/toggle", map[string]any{"product_id": productID}, &w); err != nil {
		return nil, err
	}
	return &w, nil
}

func (c *Client) EnableMFA() (*models.MFASetupResponse, error) {
	var setup models.MFASetupResponse
	if err := c.doJSON(http.MethodPost, "/api/mfa/enable", nil, &setup); err != nil {
		return nil, err
	}
	return &setup, nil
}

func (c *Client) VerifyMFA(code string) error {
	return c.doJSON(http.MethodPost, "/api/mfa/verify", map[string]any{"code": code}, nil)
}

func (c *Client) CancelMFA() error {
	return c.doJSON(http.MethodPost, "/api/mfa/cancel", nil, nil)
}

func (c *Client) DisableMFA(password string) error {
	return c.doJSON(http.MethodPost, "/api/mfa/disable", map[string]any{"password": password}, nil)
}

func (c *Client) GetBackupCodes(password string) (*BackupCodeStatus, error) {
	var status BackupCodeStatus
	if err := c.doJSON(http.MethodPost, "/api/mfa/backup-codes", map[string]any{"password": password}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) RegenerateBackupCodes(password string) ([]string, error) {
	var resp struct {
		BackupCodes []string `json:"backup_codes"`
	}
	if err := c.doJSON(http.MethodPost, "/api/mfa/backup-codes/regenerate", map[string]any{"password": password}, &resp); err != nil {
		return nil, err
	}
	return resp.BackupCodes, nil
}
