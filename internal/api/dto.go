package api

import (
	"time"

	"marketnet/internal/models"
	"marketnet/internal/service"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type productResponse struct {
	models.Product
	PriceWithTax decimal.Decimal `json:"price_with_tax"`
}

type simpleProduct struct {
	ID        int64           `json:"id"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type cartItemResponse struct {
	ID         int64           `json:"id"`
	Product    simpleProduct   `json:"product"`
	Quantity   int             `json:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price"`
}

type cartResponse struct {
	ID         uuid.UUID          `json:"id"`
	CreatedAt  time.Time          `json:"created_at"`
	Items      []cartItemResponse `json:"items"`
	TotalPrice decimal.Decimal    `json:"total_price"`
}

type orderItemResponse struct {
	ID        int64           `json:"id"`
	ProductID int64           `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type orderResponse struct {
	ID            int64               `json:"id"`
	CustomerID    int64               `json:"customer_id"`
	PaymentStatus string              `json:"payment_status"`
	PlacedAt      time.Time           `json:"placed_at"`
	Items         []orderItemResponse `json:"items"`
	TotalPrice    decimal.Decimal     `json:"total_price"`
}

type addCartItemRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity"`
}

type updateCartItemRequest struct {
	Quantity int `json:"quantity"`
}

type placeOrderRequest struct {
	CartID string `json:"cart_id" binding:"required"`
}

type updateOrderRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

type promotionRequest struct {
	Description string  `json:"description" binding:"required"`
	Discount    float64 `json:"discount"`
}

type setPromotionsRequest struct {
	PromotionIDs []int64 `json:"promotion_ids"`
}

type reviewRequest struct {
	Name        string `json:"name" binding:"required,max=255"`
	Description string `json:"description"`
}

type tagRequest struct {
	Label string `json:"label" binding:"required,max=255"`
}

type tagObjectRequest struct {
	TagID int64 `json:"tag_id" binding:"required"`
}

func toCartItem(line models.CartLine) cartItemResponse {
	return cartItemResponse{
		ID: line.ID,
		Product: simpleProduct{
			ID:        line.ProductID,
			Title:     line.ProductTitle,
			UnitPrice: line.UnitPrice,
		},
		Quantity:   line.Quantity,
		TotalPrice: line.TotalPrice(),
	}
}

func toCart(view *service.CartView) cartResponse {
	items := make([]cartItemResponse, 0, len(view.Lines))
	for _, line := range view.Lines {
		items = append(items, toCartItem(line))
	}
	return cartResponse{
		ID:         view.Cart.ID,
		CreatedAt:  view.Cart.CreatedAt,
		Items:      items,
		TotalPrice: view.TotalPrice,
	}
}

func toOrder(detail *service.OrderDetail) orderResponse {
	items := make([]orderItemResponse, 0, len(detail.Items))
	for _, item := range detail.Items {
		items = append(items, orderItemResponse{
			ID:        item.ID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}
	return orderResponse{
		ID:            detail.Order.ID,
		CustomerID:    detail.Order.CustomerID,
		PaymentStatus: detail.Order.PaymentStatus,
		PlacedAt:      detail.Order.PlacedAt,
		Items:         items,
		TotalPrice:    detail.TotalPrice(),
	}
}
