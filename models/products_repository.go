package models

import (
	"context"
	"errors"

	"github.com/Benjuxx2303/products-api/docstore"
)

// ProductsCollection is the collection every product document lives in.
const ProductsCollection = "products"

var (
	// ErrProductNotFound is returned when a product is not found.
	ErrProductNotFound = errors.New("product not found")
	// ErrNoProducts is returned by GetAllProducts when the collection is empty.
	ErrNoProducts = errors.New("no products found")
)

// ProductsRepository issues exactly one document-store call per operation.
type ProductsRepository struct {
	store docstore.Store
}

func NewProductsRepository(store docstore.Store) *ProductsRepository {
	return &ProductsRepository{
		store: store,
	}
}

// CreateProduct writes data as-is and returns the id the store assigned.
func (r *ProductsRepository) CreateProduct(ctx context.Context, data docstore.Document) (string, error) {
	return r.store.Add(ctx, ProductsCollection, data)
}

// GetAllProducts returns products in store iteration order. An empty
// collection is reported as ErrNoProducts rather than an empty slice.
func (r *ProductsRepository) GetAllProducts(ctx context.Context) ([]Product, error) {
	snaps, err := r.store.GetAll(ctx, ProductsCollection)
	if err != nil {
		return nil, err
	}
	if len(snaps) == 0 {
		return nil, ErrNoProducts
	}

	products := make([]Product, len(snaps))
	for i, s := range snaps {
		products[i] = ProductFromDocument(s.ID, s.Data)
	}
	return products, nil
}

// GetProductByID returns the raw document fields.
func (r *ProductsRepository) GetProductByID(ctx context.Context, id string) (docstore.Document, error) {
	doc, err := r.store.Get(ctx, ProductsCollection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	return doc, nil
}

// UpdateProduct merges data into the document without checking it exists.
func (r *ProductsRepository) UpdateProduct(ctx context.Context, id string, data docstore.Document) error {
	return r.store.Merge(ctx, ProductsCollection, id, data)
}

// DeleteProduct removes the document; deleting an unknown id succeeds.
func (r *ProductsRepository) DeleteProduct(ctx context.Context, id string) error {
	return r.store.Delete(ctx, ProductsCollection, id)
}
