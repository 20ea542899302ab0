package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/Benjuxx2303/products-api/docstore"
)

// Product represents a product document in the "products" collection.
// The id is assigned by the document store; the other fields are read from
// whatever the document holds and are unset when it does not hold them.
type Product struct {
	ID            string
	Name          *string
	Price         decimal.NullDecimal
	Retailer      *string
	AmountInStock decimal.NullDecimal
}

// ProductFromDocument builds a Product from a stored document. Fields that are
// missing or hold a value of the wrong type are left unset.
func ProductFromDocument(id string, doc docstore.Document) Product {
	p := Product{ID: id}
	if s, ok := doc["name"].(string); ok {
		p.Name = &s
	}
	if s, ok := doc["retailer"].(string); ok {
		p.Retailer = &s
	}
	if d, ok := toDecimal(doc["price"]); ok {
		p.Price = decimal.NewNullDecimal(d)
	}
	if d, ok := toDecimal(doc["amountInStock"]); ok {
		p.AmountInStock = decimal.NewNullDecimal(d)
	}
	return p
}

// toDecimal normalizes the numeric representations the backends hand back.
func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case float64:
		return decimal.NewFromFloat(n), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(n)
		return d, err == nil
	default:
		return decimal.Decimal{}, false
	}
}
