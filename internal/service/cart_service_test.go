package service

import (
	"context"
	"testing"

	"marketnet/internal/models"
	"marketnet/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAddItem(t *testing.T) {
	cartID := uuid.New()
	product := &models.Product{ID: 5, Title: "Mug", UnitPrice: decimal.RequireFromString("8.00"), Inventory: 10}

	t.Run("merges into existing line", func(t *testing.T) {
		st := &mockStore{}
		st.On("GetCart", mock.Anything, cartID).Return(&models.Cart{ID: cartID}, nil)
		st.On("GetProduct", mock.Anything, int64(5)).Return(product, nil)
		st.On("UpsertCartItem", mock.Anything, cartID, int64(5), 3).
			Return(&models.CartItem{ID: 11, CartID: cartID, ProductID: 5, Quantity: 5}, nil)

		line, err := NewCartService(st).AddItem(context.Background(), cartID, 5, 3)
		require.NoError(t, err)

		assert.Equal(t, int64(11), line.ID)
		assert.Equal(t, 5, line.Quantity)
		assert.True(t, line.TotalPrice().Equal(decimal.RequireFromString("40.00")))
	})

	t.Run("merged quantity above inventory", func(t *testing.T) {
		st := &mockStore{}
		st.On("GetCart", mock.Anything, cartID).Return(&models.Cart{ID: cartID}, nil)
		st.On("GetProduct", mock.Anything, int64(5)).Return(product, nil)
		// line already holds 8, inventory is 10
		st.On("UpsertCartItem", mock.Anything, cartID, int64(5), 5).Return(nil, store.ErrInsufficientStock)

		line, err := NewCartService(st).AddItem(context.Background(), cartID, 5, 5)
		assert.Nil(t, line)

		var verr *ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, "quantity", verr.Field)
		assert.Equal(t, "only 10 in stock", verr.Message)
	})

	tests := []struct {
		name     string
		quantity int
		setup    func(st *mockStore)
		wantMsg  string
	}{
		{
			name:     "zero quantity",
			quantity: 0,
			setup:    func(st *mockStore) {},
			wantMsg:  "must be at least 1",
		},
		{
			name:     "unknown cart",
			quantity: 1,
			setup: func(st *mockStore) {
				st.On("GetCart", mock.Anything, cartID).Return(nil, store.ErrCartNotFound)
			},
			wantMsg: "no such cart",
		},
		{
			name:     "unknown product",
			quantity: 1,
			setup: func(st *mockStore) {
				st.On("GetCart", mock.Anything, cartID).Return(&models.Cart{ID: cartID}, nil)
				st.On("GetProduct", mock.Anything, int64(5)).Return(nil, store.ErrProductNotFound)
			},
			wantMsg: "no such product",
		},
		{
			name:     "more than in stock",
			quantity: 11,
			setup: func(st *mockStore) {
				st.On("GetCart", mock.Anything, cartID).Return(&models.Cart{ID: cartID}, nil)
				st.On("GetProduct", mock.Anything, int64(5)).Return(product, nil)
			},
			wantMsg: "only 10 in stock",
		},
		{
			name:     "cart deleted during upsert",
			quantity: 1,
			setup: func(st *mockStore) {
				st.On("GetCart", mock.Anything, cartID).Return(&models.Cart{ID: cartID}, nil)
				st.On("GetProduct", mock.Anything, int64(5)).Return(product, nil)
				st.On("UpsertCartItem", mock.Anything, cartID, int64(5), 1).Return(nil, store.ErrCartNotFound)
			},
			wantMsg: "no such cart",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := &mockStore{}
			tt.setup(st)

			_, err := NewCartService(st).AddItem(context.Background(), cartID, 5, tt.quantity)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantMsg, verr.Message)
		})
	}
}

func TestGetCart_Totals(t *testing.T) {
	cartID := uuid.New()
	st := &mockStore{}
	st.On("GetCart", mock.Anything, cartID).Return(&models.Cart{ID: cartID}, nil)
	st.On("ListCartLines", mock.Anything, cartID).Return([]models.CartLine{
		{ID: 1, ProductID: 1, UnitPrice: decimal.RequireFromString("2.50"), Quantity: 4},
		{ID: 2, ProductID: 2, UnitPrice: decimal.RequireFromString("1.25"), Quantity: 2},
	}, nil)

	view, err := NewCartService(st).GetCart(context.Background(), cartID)
	require.NoError(t, err)
	assert.True(t, view.TotalPrice.Equal(decimal.RequireFromString("12.50")))
}

func TestGetCart_Unknown(t *testing.T) {
	cartID := uuid.New()
	st := &mockStore{}
	st.On("GetCart", mock.Anything, cartID).Return(nil, store.ErrCartNotFound)

	_, err := NewCartService(st).GetCart(context.Background(), cartID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateItem(t *testing.T) {
	cartID := uuid.New()

	t.Run("sets quantity", func(t *testing.T) {
		st := &mockStore{}
		st.On("GetCartLine", mock.Anything, cartID, int64(3)).
			Return(&models.CartLine{ID: 3, CartID: cartID, ProductID: 5, Quantity: 1}, nil)
		st.On("GetProduct", mock.Anything, int64(5)).Return(&models.Product{ID: 5, Inventory: 4}, nil)
		st.On("UpdateCartItemQuantity", mock.Anything, cartID, int64(3), 4).Return(nil)

		line, err := NewCartService(st).UpdateItem(context.Background(), cartID, 3, 4)
		require.NoError(t, err)
		assert.Equal(t, 4, line.Quantity)
	})

	t.Run("unknown item", func(t *testing.T) {
		st := &mockStore{}
		st.On("GetCartLine", mock.Anything, cartID, int64(3)).Return(nil, store.ErrNotFound)

		_, err := NewCartService(st).UpdateItem(context.Background(), cartID, 3, 2)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
