package products

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Benjuxx2303/products-api/docstore"
	"github.com/Benjuxx2303/products-api/models"
)

const (
	msgCreated = "product created successfully"
	msgUpdated = "product updated successfully"
	msgDeleted = "product deleted successfully"
)

// Product is the list item shape: the document id plus the product fields the
// document actually holds.
type Product struct {
	ID            string   `json:"id"`
	Name          *string  `json:"name,omitempty"`
	Price         *float64 `json:"price,omitempty"`
	Retailer      *string  `json:"retailer,omitempty"`
	AmountInStock *float64 `json:"amountInStock,omitempty"`
}

type ProductProvider interface {
	CreateProduct(ctx context.Context, data docstore.Document) (string, error)
	GetAllProducts(ctx context.Context) ([]models.Product, error)
	GetProductByID(ctx context.Context, id string) (docstore.Document, error)
	UpdateProduct(ctx context.Context, id string, data docstore.Document) error
	DeleteProduct(ctx context.Context, id string) error
}

type ProductHandler struct {
	repo ProductProvider
}

func NewProductHandler(r ProductProvider) *ProductHandler {
	return &ProductHandler{
		repo: r,
	}
}

// RegisterRoutes binds the five product routes under basePath.
func (h *ProductHandler) RegisterRoutes(mux *http.ServeMux, basePath string) {
	collection := basePath + "/products"
	item := collection + "/{id}"

	mux.HandleFunc("POST "+collection, h.HandleCreate)
	mux.HandleFunc("GET "+collection, h.HandleList)
	mux.HandleFunc("GET "+item, h.HandleGet)
	mux.HandleFunc("PATCH "+item, h.HandleUpdate)
	mux.HandleFunc("PUT "+item, h.HandleUpdate)
	mux.HandleFunc("DELETE "+item, h.HandleDelete)
}

func (h *ProductHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if _, err := h.repo.CreateProduct(r.Context(), data); err != nil {
		writeError(w, err)
		return
	}
	writeText(w, http.StatusOK, msgCreated)
}

func (h *ProductHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	res, err := h.repo.GetAllProducts(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	products := make([]Product, len(res))
	for i, p := range res {
		products[i] = Product{
			ID:            p.ID,
			Name:          p.Name,
			Price:         number(p.Price),
			Retailer:      p.Retailer,
			AmountInStock: number(p.AmountInStock),
		}
	}
	writeJSON(w, http.StatusOK, products)
}

func (h *ProductHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := h.repo.GetProductByID(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (h *ProductHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	data, err := decodeBody(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.repo.UpdateProduct(r.Context(), r.PathValue("id"), data); err != nil {
		writeError(w, err)
		return
	}
	writeText(w, http.StatusOK, msgUpdated)
}

func (h *ProductHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.repo.DeleteProduct(r.Context(), r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}
	writeText(w, http.StatusOK, msgDeleted)
}

func number(d decimal.NullDecimal) *float64 {
	if !d.Valid {
		return nil
	}
	f := d.Decimal.InexactFloat64()
	return &f
}

// decodeBody reads a JSON object. An absent or blank body is an empty
// document; anything else must be exactly one JSON object.
func decodeBody(r *http.Request) (docstore.Document, error) {
	if r.Body == nil {
		return docstore.Document{}, nil
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return docstore.Document{}, nil
	}
	var data docstore.Document
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	if data == nil {
		data = docstore.Document{}
	}
	return data, nil
}

// statusFor maps a failure onto its response status: a missing product is
// 404, every other failure is 400.
func statusFor(err error) int {
	if errors.Is(err, models.ErrProductNotFound) {
		return http.StatusNotFound
	}
	return http.StatusBadRequest
}

func writeError(w http.ResponseWriter, err error) {
	writeText(w, statusFor(err), err.Error())
}

// writeText writes msg verbatim; unlike http.Error no newline is appended.
func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(b)
}
