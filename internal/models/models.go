package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Collection groups products in the catalog
type Collection struct {
	ID                int64  `db:"id" json:"id"`
	Title             string `db:"title" json:"title"`
	FeaturedProductID *int64 `db:"featured_product_id" json:"featured_product_id"`
	ProductsCount     int    `db:"products_count" json:"products_count"`
}

// Product represents a product in the catalog
type Product struct {
	ID           int64           `db:"id" json:"id"`
	Title        string          `db:"title" json:"title"`
	Slug         string          `db:"slug" json:"slug"`
	Description  string          `db:"description" json:"description"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
	Inventory    int             `db:"inventory" json:"inventory"`
	CollectionID int64           `db:"collection_id" json:"collection_id"`
	LastUpdate   time.Time       `db:"last_update" json:"last_update"`
}

// ProductFilter narrows product listings
type ProductFilter struct {
	CollectionID *int64
	Search       string
	Limit        int
	Offset       int
}

// Promotion is a discount that can apply to many products
type Promotion struct {
	ID          int64   `db:"id" json:"id"`
	Description string  `db:"description" json:"description"`
	Discount    float64 `db:"discount" json:"discount"`
}

// Review is a customer review of a product
type Review struct {
	ID          int64     `db:"id" json:"id"`
	ProductID   int64     `db:"product_id" json:"product_id"`
	Name        string    `db:"name" json:"name"`
	Description string    `db:"description" json:"description"`
	Date        time.Time `db:"date" json:"date"`
}

// Cart is an anonymous, short-lived basket of products
type Cart struct {
	ID        uuid.UUID `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// CartItem is one product line in a cart. (cart_id, product_id) is unique.
type CartItem struct {
	ID        int64     `db:"id" json:"id"`
	CartID    uuid.UUID `db:"cart_id" json:"cart_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
}

// CartLine is a cart item joined with the product's live price
type CartLine struct {
	ID           int64           `db:"id"`
	CartID       uuid.UUID       `db:"cart_id"`
	ProductID    int64           `db:"product_id"`
	ProductTitle string          `db:"product_title"`
	UnitPrice    decimal.Decimal `db:"unit_price"`
	Quantity     int             `db:"quantity"`
}

// TotalPrice returns quantity × live unit price
func (l CartLine) TotalPrice() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// User is an authenticated identity
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	FirstName string    `db:"first_name" json:"first_name"`
	LastName  string    `db:"last_name" json:"last_name"`
	IsStaff   bool      `db:"is_staff" json:"is_staff"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Customer is the commerce profile bound one-to-one to a User
type Customer struct {
	ID         int64      `db:"id" json:"id"`
	UserID     int64      `db:"user_id" json:"user_id"`
	Membership string     `db:"membership" json:"membership"`
	Phone      string     `db:"phone" json:"phone"`
	BirthDate  *time.Time `db:"birth_date" json:"birth_date"`
}

// Order is a checked-out cart owned by a customer
type Order struct {
	ID            int64     `db:"id" json:"id"`
	CustomerID    int64     `db:"customer_id" json:"customer_id"`
	PaymentStatus string    `db:"payment_status" json:"payment_status"`
	PlacedAt      time.Time `db:"placed_at" json:"placed_at"`
}

// OrderItem holds the unit price as it was when the order was placed
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Tag is a free-form label
type Tag struct {
	ID    int64  `db:"id" json:"id"`
	Label string `db:"label" json:"label"`
}

// TaggedItem associates a tag with one object of a taggable kind
type TaggedItem struct {
	ID         int64        `db:"id" json:"id"`
	TagID      int64        `db:"tag_id" json:"tag_id"`
	ObjectKind TaggableKind `db:"object_kind" json:"object_kind"`
	ObjectID   int64        `db:"object_id" json:"object_id"`
}

// Membership tiers
const (
	MembershipBronze = "B"
	MembershipSilver = "S"
	MembershipGolden = "G"
)

// ValidMembership reports whether m is a known membership tier
func ValidMembership(m string) bool {
	switch m {
	case MembershipBronze, MembershipSilver, MembershipGolden:
		return true
	}
	return false
}

// Payment statuses
const (
	PaymentStatusPending  = "P"
	PaymentStatusComplete = "C"
	PaymentStatusFailed   = "F"
)

// ValidPaymentStatus reports whether s is a known payment status
func ValidPaymentStatus(s string) bool {
	switch s {
	case PaymentStatusPending, PaymentStatusComplete, PaymentStatusFailed:
		return true
	}
	return false
}
