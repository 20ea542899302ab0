// Package app assembles the HTTP surface of the products API.
package app

import (
	"net/http"

	"github.com/rs/cors"

	"github.com/Benjuxx2303/products-api/app/products"
)

// NewRouter registers the product routes under basePath and applies an
// allow-all cross-origin policy. No other middleware is installed.
func NewRouter(basePath string, repo products.ProductProvider) http.Handler {
	mux := http.NewServeMux()
	products.NewProductHandler(repo).RegisterRoutes(mux, basePath)
	return cors.AllowAll().Handler(mux)
}
