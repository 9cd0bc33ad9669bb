package service

import (
	"context"
	"sync"

	"marketnet/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// mockStore satisfies every store interface the services declare
type mockStore struct {
	mock.Mock
}

func (m *mockStore) ListCollections(ctx context.Context) ([]models.Collection, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Collection), args.Error(1)
}

func (m *mockStore) GetCollection(ctx context.Context, id int64) (*models.Collection, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Collection)
	return c, args.Error(1)
}

func (m *mockStore) CreateCollection(ctx context.Context, c *models.Collection) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) UpdateCollection(ctx context.Context, c *models.Collection) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) DeleteCollection(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *mockStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Error(1)
}

func (m *mockStore) CreateProduct(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) DeleteProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) ListPromotions(ctx context.Context) ([]models.Promotion, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Promotion), args.Error(1)
}

func (m *mockStore) CreatePromotion(ctx context.Context, p *models.Promotion) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) SetProductPromotions(ctx context.Context, productID int64, promotionIDs []int64) error {
	return m.Called(ctx, productID, promotionIDs).Error(0)
}

func (m *mockStore) ListProductPromotions(ctx context.Context, productID int64) ([]models.Promotion, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]models.Promotion), args.Error(1)
}

func (m *mockStore) ListReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockStore) CreateReview(ctx context.Context, r *models.Review) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockStore) CreateCart(ctx context.Context) (*models.Cart, error) {
	args := m.Called(ctx)
	c, _ := args.Get(0).(*models.Cart)
	return c, args.Error(1)
}

func (m *mockStore) GetCart(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Cart)
	return c, args.Error(1)
}

func (m *mockStore) DeleteCart(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) CountCartItems(ctx context.Context, cartID uuid.UUID) (int, error) {
	args := m.Called(ctx, cartID)
	return args.Int(0), args.Error(1)
}

func (m *mockStore) ListCartLines(ctx context.Context, cartID uuid.UUID) ([]models.CartLine, error) {
	args := m.Called(ctx, cartID)
	return args.Get(0).([]models.CartLine), args.Error(1)
}

func (m *mockStore) GetCartLine(ctx context.Context, cartID uuid.UUID, itemID int64) (*models.CartLine, error) {
	args := m.Called(ctx, cartID, itemID)
	l, _ := args.Get(0).(*models.CartLine)
	return l, args.Error(1)
}

func (m *mockStore) UpsertCartItem(ctx context.Context, cartID uuid.UUID, productID int64, quantity int) (*models.CartItem, error) {
	args := m.Called(ctx, cartID, productID, quantity)
	i, _ := args.Get(0).(*models.CartItem)
	return i, args.Error(1)
}

func (m *mockStore) UpdateCartItemQuantity(ctx context.Context, cartID uuid.UUID, itemID int64, quantity int) error {
	return m.Called(ctx, cartID, itemID, quantity).Error(0)
}

func (m *mockStore) DeleteCartItem(ctx context.Context, cartID uuid.UUID, itemID int64) error {
	return m.Called(ctx, cartID, itemID).Error(0)
}

func (m *mockStore) CreateUser(ctx context.Context, u *models.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	u, _ := args.Get(0).(*models.User)
	return u, args.Error(1)
}

func (m *mockStore) CreateCustomer(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*models.Customer)
	return c, args.Error(1)
}

func (m *mockStore) GetCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error) {
	args := m.Called(ctx, userID)
	c, _ := args.Get(0).(*models.Customer)
	return c, args.Error(1)
}

func (m *mockStore) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Customer), args.Error(1)
}

func (m *mockStore) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) DeleteCustomer(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockStore) PlaceOrder(ctx context.Context, cartID uuid.UUID, customerID int64) (*models.Order, []models.OrderItem, error) {
	args := m.Called(ctx, cartID, customerID)
	o, _ := args.Get(0).(*models.Order)
	items, _ := args.Get(1).([]models.OrderItem)
	return o, items, args.Error(2)
}

func (m *mockStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockStore) ListOrders(ctx context.Context) ([]models.Order, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockStore) ListOrdersByCustomer(ctx context.Context, customerID int64) ([]models.Order, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]models.Order), args.Error(1)
}

func (m *mockStore) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	args := m.Called(ctx, orderID)
	return args.Get(0).([]models.OrderItem), args.Error(1)
}

func (m *mockStore) UpdateOrderPaymentStatus(ctx context.Context, orderID int64, status string) (*models.Order, error) {
	args := m.Called(ctx, orderID, status)
	o, _ := args.Get(0).(*models.Order)
	return o, args.Error(1)
}

func (m *mockStore) ListTags(ctx context.Context) ([]models.Tag, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *mockStore) CreateTag(ctx context.Context, t *models.Tag) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockStore) TagObject(ctx context.Context, tagID int64, target models.Taggable) (*models.TaggedItem, error) {
	args := m.Called(ctx, tagID, target)
	i, _ := args.Get(0).(*models.TaggedItem)
	return i, args.Error(1)
}

func (m *mockStore) TagsFor(ctx context.Context, target models.Taggable) ([]models.Tag, error) {
	args := m.Called(ctx, target)
	return args.Get(0).([]models.Tag), args.Error(1)
}

func (m *mockStore) UntagObject(ctx context.Context, tagID int64, target models.Taggable) error {
	return m.Called(ctx, tagID, target).Error(0)
}

func (m *mockStore) DeleteTaggedItemsFor(ctx context.Context, target models.Taggable) (int64, error) {
	args := m.Called(ctx, target)
	return args.Get(0).(int64), args.Error(1)
}

type mockCache struct {
	mock.Mock
}

func (m *mockCache) GetProduct(ctx context.Context, id int64) (*models.Product, bool, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*models.Product)
	return p, args.Bool(1), args.Error(2)
}

func (m *mockCache) FillProduct(ctx context.Context, p *models.Product) (bool, error) {
	args := m.Called(ctx, p)
	return args.Bool(0), args.Error(1)
}

func (m *mockCache) SetProduct(ctx context.Context, p *models.Product) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockCache) InvalidateProduct(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

// recordingBus keeps every published event
type recordingBus struct {
	mu     sync.Mutex
	events []models.Event
}

func (b *recordingBus) Publish(ctx context.Context, event models.Event) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
	return 0
}

func (b *recordingBus) published() []models.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]models.Event(nil), b.events...)
}
