package service

import (
	"context"
	"errors"
	"testing"

	"marketnet/config"
	"marketnet/internal/models"
	"marketnet/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newCatalog(st *mockStore, cache ProductCache, bus *recordingBus) *CatalogService {
	return NewCatalogService(st, cache, bus, config.DefaultBusiness())
}

func TestCreateProduct_RoundsPrice(t *testing.T) {
	st := &mockStore{}
	st.On("GetCollection", mock.Anything, int64(1)).Return(&models.Collection{ID: 1}, nil)
	st.On("CreateProduct", mock.Anything, mock.MatchedBy(func(p *models.Product) bool {
		return p.UnitPrice.Equal(decimal.RequireFromString("19.99"))
	})).Return(nil)

	product, err := newCatalog(st, nil, &recordingBus{}).CreateProduct(context.Background(), ProductInput{
		Title:        "Teapot",
		Slug:         "teapot",
		UnitPrice:    decimal.RequireFromString("19.987"),
		Inventory:    3,
		CollectionID: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "19.99", product.UnitPrice.StringFixed(2))
	st.AssertExpectations(t)
}

func TestCreateProduct_Validation(t *testing.T) {
	valid := ProductInput{Title: "Teapot", Slug: "teapot", UnitPrice: decimal.NewFromInt(5), CollectionID: 1}

	tests := []struct {
		name    string
		mutate  func(*ProductInput)
		field   string
		collErr error
	}{
		{"below minimum price", func(in *ProductInput) { in.UnitPrice = decimal.RequireFromString("0.50") }, "unit_price", nil},
		{"negative inventory", func(in *ProductInput) { in.Inventory = -1 }, "inventory", nil},
		{"blank slug", func(in *ProductInput) { in.Slug = " " }, "slug", nil},
		{"unknown collection", func(in *ProductInput) {}, "collection_id", store.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStore{}
			st.On("GetCollection", mock.Anything, int64(1)).Return(&models.Collection{ID: 1}, tt.collErr).Maybe()

			in := valid
			tt.mutate(&in)
			_, err := newCatalog(st, nil, &recordingBus{}).CreateProduct(context.Background(), in)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			st.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
		})
	}
}

func TestPriceWithTax(t *testing.T) {
	svc := newCatalog(&mockStore{}, nil, &recordingBus{})
	product := &models.Product{UnitPrice: decimal.RequireFromString("10.00")}
	assert.Equal(t, "11.00", svc.PriceWithTax(product).StringFixed(2))
}

func TestGetProduct_ReadThrough(t *testing.T) {
	product := &models.Product{ID: 2, Title: "Kettle"}

	t.Run("hit skips the store", func(t *testing.T) {
		st := &mockStore{}
		cache := &mockCache{}
		cache.On("GetProduct", mock.Anything, int64(2)).Return(product, true, nil)

		got, err := newCatalog(st, cache, &recordingBus{}).GetProduct(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, "Kettle", got.Title)
		st.AssertNotCalled(t, "GetProduct", mock.Anything, mock.Anything)
	})

	t.Run("miss fills the cache", func(t *testing.T) {
		st := &mockStore{}
		cache := &mockCache{}
		cache.On("GetProduct", mock.Anything, int64(2)).Return(nil, false, nil)
		st.On("GetProduct", mock.Anything, int64(2)).Return(product, nil)
		cache.On("FillProduct", mock.Anything, product).Return(true, nil)

		_, err := newCatalog(st, cache, &recordingBus{}).GetProduct(context.Background(), 2)
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})

	t.Run("cache error falls back to the store", func(t *testing.T) {
		st := &mockStore{}
		cache := &mockCache{}
		cache.On("GetProduct", mock.Anything, int64(2)).Return(nil, false, errors.New("redis down"))
		st.On("GetProduct", mock.Anything, int64(2)).Return(product, nil)
		cache.On("FillProduct", mock.Anything, product).Return(false, errors.New("redis down"))

		got, err := newCatalog(st, cache, &recordingBus{}).GetProduct(context.Background(), 2)
		require.NoError(t, err)
		assert.Equal(t, int64(2), got.ID)
	})
}

func TestDeleteCollection(t *testing.T) {
	t.Run("with products is a conflict", func(t *testing.T) {
		st := &mockStore{}
		bus := &recordingBus{}
		st.On("DeleteCollection", mock.Anything, int64(1)).Return(store.ErrHasDependents)

		err := newCatalog(st, nil, bus).DeleteCollection(context.Background(), 1)
		assert.True(t, IsConflict(err))
		assert.Empty(t, bus.published())
	})

	t.Run("empty collection announces deletion", func(t *testing.T) {
		st := &mockStore{}
		bus := &recordingBus{}
		st.On("DeleteCollection", mock.Anything, int64(1)).Return(nil)

		require.NoError(t, newCatalog(st, nil, bus).DeleteCollection(context.Background(), 1))

		events := bus.published()
		require.Len(t, events, 1)
		deleted := events[0].(*models.ObjectDeletedEvent)
		assert.Equal(t, models.KindCollection, deleted.Kind)
		assert.Equal(t, int64(1), deleted.ObjectID)
	})
}

func TestUpdateProduct_WritesThroughCache(t *testing.T) {
	in := ProductInput{Title: "Kettle", Slug: "kettle", UnitPrice: decimal.RequireFromString("20.00"), Inventory: 4, CollectionID: 1}
	isUpdated := mock.MatchedBy(func(p *models.Product) bool {
		return p.ID == 2 && p.Title == "Kettle"
	})

	t.Run("committed row replaces cached copy", func(t *testing.T) {
		st := &mockStore{}
		cache := &mockCache{}
		st.On("GetCollection", mock.Anything, int64(1)).Return(&models.Collection{ID: 1}, nil)
		st.On("UpdateProduct", mock.Anything, isUpdated).Return(nil)
		cache.On("SetProduct", mock.Anything, isUpdated).Return(nil)

		_, err := newCatalog(st, cache, &recordingBus{}).UpdateProduct(context.Background(), 2, in)
		require.NoError(t, err)
		cache.AssertExpectations(t)
		cache.AssertNotCalled(t, "FillProduct", mock.Anything, mock.Anything)
	})

	t.Run("failed write falls back to invalidation", func(t *testing.T) {
		st := &mockStore{}
		cache := &mockCache{}
		st.On("GetCollection", mock.Anything, int64(1)).Return(&models.Collection{ID: 1}, nil)
		st.On("UpdateProduct", mock.Anything, isUpdated).Return(nil)
		cache.On("SetProduct", mock.Anything, isUpdated).Return(errors.New("redis down"))
		cache.On("InvalidateProduct", mock.Anything, int64(2)).Return(nil)

		_, err := newCatalog(st, cache, &recordingBus{}).UpdateProduct(context.Background(), 2, in)
		require.NoError(t, err)
		cache.AssertExpectations(t)
	})
}

func TestDeleteProduct(t *testing.T) {
	t.Run("ordered product is a conflict", func(t *testing.T) {
		st := &mockStore{}
		cache := &mockCache{}
		st.On("DeleteProduct", mock.Anything, int64(4)).Return(store.ErrHasDependents)

		err := newCatalog(st, cache, &recordingBus{}).DeleteProduct(context.Background(), 4)
		assert.True(t, IsConflict(err))
		cache.AssertNotCalled(t, "InvalidateProduct", mock.Anything, mock.Anything)
	})

	t.Run("invalidates cache", func(t *testing.T) {
		st := &mockStore{}
		cache := &mockCache{}
		st.On("DeleteProduct", mock.Anything, int64(4)).Return(nil)
		cache.On("InvalidateProduct", mock.Anything, int64(4)).Return(nil)

		require.NoError(t, newCatalog(st, cache, &recordingBus{}).DeleteProduct(context.Background(), 4))
		cache.AssertExpectations(t)
	})

	t.Run("unknown", func(t *testing.T) {
		st := &mockStore{}
		st.On("DeleteProduct", mock.Anything, int64(4)).Return(store.ErrProductNotFound)

		err := newCatalog(st, nil, &recordingBus{}).DeleteProduct(context.Background(), 4)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestCreateCollection_FeaturedProductMustExist(t *testing.T) {
	st := &mockStore{}
	featured := int64(99)
	st.On("GetProduct", mock.Anything, featured).Return(nil, store.ErrProductNotFound)

	_, err := newCatalog(st, nil, &recordingBus{}).CreateCollection(context.Background(),
		CollectionInput{Title: "Kitchen", FeaturedProductID: &featured})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "featured_product_id", verr.Field)
}

func TestListProducts_ClampsPage(t *testing.T) {
	st := &mockStore{}
	st.On("ListProducts", mock.Anything, models.ProductFilter{Limit: maxPageSize, Search: "tea"}).
		Return([]models.Product{}, nil)

	_, err := newCatalog(st, nil, &recordingBus{}).ListProducts(context.Background(),
		models.ProductFilter{Limit: 1000, Offset: -5, Search: " tea "})
	require.NoError(t, err)
	st.AssertExpectations(t)
}

func TestCreateReview_UnknownProduct(t *testing.T) {
	st := &mockStore{}
	st.On("CreateReview", mock.Anything, mock.Anything).Return(store.ErrProductNotFound)

	_, err := newCatalog(st, nil, &recordingBus{}).CreateReview(context.Background(), 8, "Ana", "great")
	assert.ErrorIs(t, err, ErrNotFound)
}
