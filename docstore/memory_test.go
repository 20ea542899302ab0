package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeContract runs the behavior every backend must share.
func storeContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("add assigns distinct ids and get returns the fields", func(t *testing.T) {
		s := newStore(t)
		id1, err := s.Add(ctx, "products", Document{"name": "Widget", "price": 9.99})
		require.NoError(t, err)
		id2, err := s.Add(ctx, "products", Document{"name": "Gadget"})
		require.NoError(t, err)
		assert.NotEmpty(t, id1)
		assert.NotEqual(t, id1, id2)

		doc, err := s.Get(ctx, "products", id1)
		require.NoError(t, err)
		assert.Equal(t, "Widget", doc["name"])
		assert.Equal(t, 9.99, doc["price"])
	})

	t.Run("get unknown id is ErrNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "products", "doesnotexist")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("get rejects malformed ids", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Get(ctx, "products", "")
		assert.ErrorIs(t, err, ErrInvalidID)
		_, err = s.Get(ctx, "products", "a/b")
		assert.ErrorIs(t, err, ErrInvalidID)
	})

	t.Run("get all lists the collection only", func(t *testing.T) {
		s := newStore(t)
		snaps, err := s.GetAll(ctx, "products")
		require.NoError(t, err)
		assert.Empty(t, snaps)

		id, err := s.Add(ctx, "products", Document{"name": "Widget"})
		require.NoError(t, err)
		_, err = s.Add(ctx, "other", Document{"name": "Elsewhere"})
		require.NoError(t, err)

		snaps, err = s.GetAll(ctx, "products")
		require.NoError(t, err)
		require.Len(t, snaps, 1)
		assert.Equal(t, id, snaps[0].ID)
		assert.Equal(t, "Widget", snaps[0].Data["name"])
	})

	t.Run("merge keeps untouched fields", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Add(ctx, "products", Document{"name": "Widget", "retailer": "Acme", "amountInStock": float64(10)})
		require.NoError(t, err)

		require.NoError(t, s.Merge(ctx, "products", id, Document{"amountInStock": float64(4)}))

		doc, err := s.Get(ctx, "products", id)
		require.NoError(t, err)
		assert.Equal(t, "Widget", doc["name"])
		assert.Equal(t, "Acme", doc["retailer"])
		assert.EqualValues(t, 4, doc["amountInStock"])
	})

	t.Run("merge creates an absent document", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Merge(ctx, "products", "fresh", Document{"name": "New"}))

		doc, err := s.Get(ctx, "products", "fresh")
		require.NoError(t, err)
		assert.Equal(t, "New", doc["name"])

		snaps, err := s.GetAll(ctx, "products")
		require.NoError(t, err)
		assert.Len(t, snaps, 1)
	})

	t.Run("delete removes and tolerates absent ids", func(t *testing.T) {
		s := newStore(t)
		id, err := s.Add(ctx, "products", Document{"name": "Widget"})
		require.NoError(t, err)

		require.NoError(t, s.Delete(ctx, "products", id))
		_, err = s.Get(ctx, "products", id)
		assert.ErrorIs(t, err, ErrNotFound)

		assert.NoError(t, s.Delete(ctx, "products", "doesnotexist"))

		snaps, err := s.GetAll(ctx, "products")
		require.NoError(t, err)
		assert.Empty(t, snaps)
	})
}

func TestMemoryStore(t *testing.T) {
	storeContract(t, func(t *testing.T) Store { return NewMemoryStore() })
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	in := Document{"tags": []any{"a"}, "dims": map[string]any{"w": 1.0}}
	id, err := s.Add(ctx, "products", in)
	require.NoError(t, err)

	in["tags"].([]any)[0] = "mutated"
	out, err := s.Get(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, "a", out["tags"].([]any)[0])

	out["dims"].(map[string]any)["w"] = 2.0
	again, err := s.Get(ctx, "products", id)
	require.NoError(t, err)
	assert.Equal(t, 1.0, again["dims"].(map[string]any)["w"])
}

func TestMemoryStoreCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s := NewMemoryStore()

	_, err := s.Add(ctx, "products", Document{})
	assert.ErrorIs(t, err, context.Canceled)
	_, err = s.GetAll(ctx, "products")
	assert.ErrorIs(t, err, context.Canceled)
}
