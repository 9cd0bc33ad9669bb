package store

import (
	"context"
	"os"
	"sync"
	"testing"

	"marketnet/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newIntegrationStore connects to the database named by TEST_DATABASE_URL,
// applies migrations and empties every table.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("Integration test - requires database (set TEST_DATABASE_URL)")
	}

	s, err := NewStore(url)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Migrate())
	_, err = s.db.Exec(`TRUNCATE tagged_items, tags, order_items, orders, cart_items, carts,
		customers, reviews, product_promotions, promotions, products, collections, users
		RESTART IDENTITY CASCADE`)
	require.NoError(t, err)

	return s
}

type fixture struct {
	collection *models.Collection
	product    *models.Product
	customer   *models.Customer
}

func seedFixture(t *testing.T, s *Store) fixture {
	t.Helper()
	ctx := context.Background()

	collection := &models.Collection{Title: "Beverages"}
	require.NoError(t, s.CreateCollection(ctx, collection))

	product := &models.Product{
		Title:        "Coffee",
		Slug:         "coffee",
		UnitPrice:    decimal.RequireFromString("10.00"),
		Inventory:    50,
		CollectionID: collection.ID,
	}
	require.NoError(t, s.CreateProduct(ctx, product))

	user := &models.User{Username: "ada", Email: "ada@example.com"}
	require.NoError(t, s.CreateUser(ctx, user))

	customer := &models.Customer{UserID: user.ID, Membership: models.MembershipSilver}
	require.NoError(t, s.CreateCustomer(ctx, customer))

	return fixture{collection: collection, product: product, customer: customer}
}

func TestIntegration_UpsertMergesQuantity(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	cart, err := s.CreateCart(ctx)
	require.NoError(t, err)

	first, err := s.UpsertCartItem(ctx, cart.ID, f.product.ID, 2)
	require.NoError(t, err)
	second, err := s.UpsertCartItem(ctx, cart.ID, f.product.ID, 3)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 5, second.Quantity)

	count, err := s.CountCartItems(ctx, cart.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestIntegration_UpsertHoldsMergedQuantityToInventory(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	cart, err := s.CreateCart(ctx)
	require.NoError(t, err)

	_, err = s.UpsertCartItem(ctx, cart.ID, f.product.ID, 48)
	require.NoError(t, err)

	_, err = s.UpsertCartItem(ctx, cart.ID, f.product.ID, 5)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	lines, err := s.ListCartLines(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 48, lines[0].Quantity)

	full, err := s.UpsertCartItem(ctx, cart.ID, f.product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 50, full.Quantity)
}

func TestIntegration_ConcurrentUpsertsKeepOneRow(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	cart, err := s.CreateCart(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.UpsertCartItem(ctx, cart.ID, f.product.ID, 1)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	lines, err := s.ListCartLines(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 10, lines[0].Quantity)
}

func TestIntegration_PriceSnapshotSurvivesPriceChange(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	cart, err := s.CreateCart(ctx)
	require.NoError(t, err)
	_, err = s.UpsertCartItem(ctx, cart.ID, f.product.ID, 1)
	require.NoError(t, err)

	order, _, err := s.PlaceOrder(ctx, cart.ID, f.customer.ID)
	require.NoError(t, err)

	f.product.UnitPrice = decimal.RequireFromString("20.00")
	require.NoError(t, s.UpdateProduct(ctx, f.product))

	items, err := s.ListOrderItems(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, decimal.RequireFromString("10.00").Equal(items[0].UnitPrice))
}

func TestIntegration_CartIsSingleUse(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	cart, err := s.CreateCart(ctx)
	require.NoError(t, err)
	_, err = s.UpsertCartItem(ctx, cart.ID, f.product.ID, 1)
	require.NoError(t, err)

	_, _, err = s.PlaceOrder(ctx, cart.ID, f.customer.ID)
	require.NoError(t, err)

	_, _, err = s.PlaceOrder(ctx, cart.ID, f.customer.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)

	_, err = s.GetCart(ctx, cart.ID)
	assert.ErrorIs(t, err, ErrCartNotFound)
}

func TestIntegration_EmptyCartCreatesNothing(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	cart, err := s.CreateCart(ctx)
	require.NoError(t, err)

	_, _, err = s.PlaceOrder(ctx, cart.ID, f.customer.ID)
	assert.ErrorIs(t, err, ErrCartEmpty)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestIntegration_FailedPlacementLeavesCartIntact(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	cart, err := s.CreateCart(ctx)
	require.NoError(t, err)
	_, err = s.UpsertCartItem(ctx, cart.ID, f.product.ID, 2)
	require.NoError(t, err)

	// customer 9999 does not exist, so the order insert violates its foreign key
	_, _, err = s.PlaceOrder(ctx, cart.ID, 9999)
	require.Error(t, err)

	lines, err := s.ListCartLines(ctx, cart.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)

	orders, err := s.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestIntegration_DeletionGuards(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)
	ctx := context.Background()

	assert.ErrorIs(t, s.DeleteCollection(ctx, f.collection.ID), ErrHasDependents)

	cart, err := s.CreateCart(ctx)
	require.NoError(t, err)
	_, err = s.UpsertCartItem(ctx, cart.ID, f.product.ID, 1)
	require.NoError(t, err)
	_, _, err = s.PlaceOrder(ctx, cart.ID, f.customer.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, s.DeleteProduct(ctx, f.product.ID), ErrHasDependents)
	assert.ErrorIs(t, s.DeleteCustomer(ctx, f.customer.ID), ErrHasDependents)

	_, err = s.GetProduct(ctx, f.product.ID)
	assert.NoError(t, err)
	_, err = s.GetCollection(ctx, f.collection.ID)
	assert.NoError(t, err)
}

func TestIntegration_OneCustomerPerUser(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)

	err := s.CreateCustomer(context.Background(), &models.Customer{
		UserID:     f.customer.UserID,
		Membership: models.MembershipGolden,
	})
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestIntegration_UnknownCartOnUpsert(t *testing.T) {
	s := newIntegrationStore(t)
	f := seedFixture(t, s)

	_, err := s.UpsertCartItem(context.Background(), uuid.New(), f.product.ID, 1)
	assert.ErrorIs(t, err, ErrCartNotFound)
}
