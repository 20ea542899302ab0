package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benjuxx2303/products-api/docstore"
	"github.com/Benjuxx2303/products-api/models"
)

type listedProduct struct {
	ID            string   `json:"id"`
	Name          *string  `json:"name"`
	Price         *float64 `json:"price"`
	Retailer      *string  `json:"retailer"`
	AmountInStock *float64 `json:"amountInStock"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	repo := models.NewProductsRepository(docstore.NewMemoryStore())
	srv := httptest.NewServer(NewRouter("/api", repo))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, string) {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(b)
}

func list(t *testing.T, srv *httptest.Server) []listedProduct {
	t.Helper()
	code, body := do(t, srv, http.MethodGet, "/api/products", "")
	require.Equal(t, http.StatusOK, code, body)
	var out []listedProduct
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out
}

func TestListOnEmptyCollection(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/api/products", "")

	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "no products found", body)
}

func TestCreateThenList(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, srv, http.MethodPost, "/api/products",
		`{"name":"Widget","price":9.99,"retailer":"Acme","amountInStock":10}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "product created successfully", body)

	products := list(t, srv)
	require.Len(t, products, 1)
	assert.NotEmpty(t, products[0].ID)
	_, body = do(t, srv, http.MethodGet, "/api/products", "")
	assert.JSONEq(t, `[{"id":"`+products[0].ID+`","name":"Widget","price":9.99,"retailer":"Acme","amountInStock":10}]`, body)
}

func TestClientSuppliedIDIsNotUsed(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodPost, "/api/products", `{"id":"mine","name":"Widget"}`)
	require.Equal(t, http.StatusOK, code)

	products := list(t, srv)
	require.Len(t, products, 1)
	assert.NotEqual(t, "mine", products[0].ID)

	code, _ = do(t, srv, http.MethodGet, "/api/products/mine", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetUpdateDelete(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodPost, "/api/products",
		`{"name":"Widget","price":9.99,"retailer":"Acme","amountInStock":10}`)
	require.Equal(t, http.StatusOK, code)
	id := list(t, srv)[0].ID

	code, body := do(t, srv, http.MethodGet, "/api/products/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"name":"Widget","price":9.99,"retailer":"Acme","amountInStock":10}`, body)

	code, body = do(t, srv, http.MethodPatch, "/api/products/"+id, `{"price":12.5}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "product updated successfully", body)

	code, body = do(t, srv, http.MethodPut, "/api/products/"+id, `{"amountInStock":3}`)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "product updated successfully", body)

	_, body = do(t, srv, http.MethodGet, "/api/products/"+id, "")
	assert.JSONEq(t, `{"name":"Widget","price":12.5,"retailer":"Acme","amountInStock":3}`, body)

	code, body = do(t, srv, http.MethodDelete, "/api/products/"+id, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "product deleted successfully", body)

	code, body = do(t, srv, http.MethodGet, "/api/products/"+id, "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "product not found", body)
}

func TestGetUnknownProduct(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, srv, http.MethodGet, "/api/products/doesnotexist", "")

	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "product not found", body)
}

func TestDeleteUnknownProduct(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, srv, http.MethodDelete, "/api/products/doesnotexist", "")

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "product deleted successfully", body)
}

func TestUpdateUnknownProductCreatesIt(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodPatch, "/api/products/new-id", `{"name":"Late"}`)
	require.Equal(t, http.StatusOK, code)

	code, body := do(t, srv, http.MethodGet, "/api/products/new-id", "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"name":"Late"}`, body)
}

func TestMalformedPayloadIsPersisted(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodPost, "/api/products", `{"name":7,"price":"free"}`)
	require.Equal(t, http.StatusOK, code)

	products := list(t, srv)
	require.Len(t, products, 1)
	assert.Nil(t, products[0].Name)
	assert.Nil(t, products[0].Price)
	assert.Nil(t, products[0].Retailer)

	code, body := do(t, srv, http.MethodGet, "/api/products/"+products[0].ID, "")
	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"name":7,"price":"free"}`, body)
}

func TestInvalidJSONIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	code, body := do(t, srv, http.MethodPost, "/api/products", `{"name":`)

	assert.Equal(t, http.StatusBadRequest, code)
	assert.NotEmpty(t, body)
}

func TestTrailingDataIsBadRequest(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodPost, "/api/products", `{"name":"a"} not json`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := do(t, srv, http.MethodGet, "/api/products", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "no products found", body)
}

func TestUnavailableStoreIsBadRequestWithStoreMessage(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := docstore.OpenRedis(context.Background(), mr.Addr(), "", 0)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	srv := httptest.NewServer(NewRouter("/api", models.NewProductsRepository(store)))
	t.Cleanup(srv.Close)
	mr.Close()

	for _, path := range []string{"/api/products", "/api/products/x"} {
		code, body := do(t, srv, http.MethodGet, path, "")
		assert.Equal(t, http.StatusBadRequest, code, path)
		assert.NotEmpty(t, body, path)
		assert.NotContains(t, body, docstore.ErrUnavailable.Error(), path)
	}
}

func TestCORSAllowsAnyOrigin(t *testing.T) {
	srv := newTestServer(t)

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/api/products/abc", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), http.MethodPatch)

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/api/products/abc", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://shop.example.com")
	resp, err = srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRoutesOutsideBasePath(t *testing.T) {
	srv := newTestServer(t)

	code, _ := do(t, srv, http.MethodGet, "/products", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, srv, http.MethodPost, "/api/products/abc", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, code)
}
