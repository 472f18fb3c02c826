package storefront

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"velours_back_end/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetchCart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/cart", r.URL.Path)
		assert.Equal(t, "Bearer jeton", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(models.Cart{
			Items:    []models.CartLine{{LineID: "l1", Quantity: 2}},
			Count:    2,
			Subtotal: 300,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, func() string { return "jeton" })
	cart, err := client.FetchCart()
	require.NoError(t, err)
	assert.Equal(t, 2, cart.Count)
	assert.Len(t, cart.Items, 1)
}

func TestClientAddItemSendsVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/cart/add", r.URL.Path)
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "p1", body["product_id"])
		assert.Equal(t, float64(2), body["quantity"])
		strap := body["strap"].(map[string]any)
		assert.Equal(t, "acier", strap["material"])
		json.NewEncoder(w).Encode(models.Cart{Items: []models.CartLine{}})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.AddItem("p1", 2, nil, &models.VariantStrap{Material: "acier", PriceModifier: 150})
	require.NoError(t, err)
}

func TestClientServerErrorBecomesAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Stock insuffisant"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, nil)
	_, err := client.AddItem("p1", 99, nil, nil)
	require.Error(t, err)

	apiErr, ok := err.(*APIError)
	require.True(t, ok)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Stock insuffisant", apiErr.Message)
	assert.Equal(t, "Stock insuffisant", errorMessage(err))
}

func TestClientMFAEndpoints(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/mfa/enable":
			json.NewEncoder(w).Encode(testSetup())
		case "/api/mfa/verify":
			var body map[string]string
			json.NewDecoder(r.Body).Decode(&body)
			if body["code"] != "123456" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "Code invalide"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{"mfa_enabled": true})
		case "/api/mfa/backup-codes/regenerate":
			json.NewEncoder(w).Encode(map[string]any{"backup_codes": []string{"XXXX-YYYY"}})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL, func() string { return "jeton" })

	setup, err := client.EnableMFA()
	require.NoError(t, err)
	assert.Equal(t, "JBSWY3DPEHPK3PXP", setup.Secret)
	assert.Len(t, setup.BackupCodes, 10)

	require.NoError(t, client.VerifyMFA("123456"))
	require.Error(t, client.VerifyMFA("000000"))

	codes, err := client.RegenerateBackupCodes("pw")
	require.NoError(t, err)
	assert.Equal(t, []string{"XXXX-YYYY"}, codes)
}
