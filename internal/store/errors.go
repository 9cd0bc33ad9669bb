package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"
)

var (
	ErrNotFound        = errors.New("record not found")
	ErrCartNotFound    = errors.New("cart not found")
	ErrCartEmpty       = errors.New("cart is empty")
	ErrProductNotFound = errors.New("product not found")
	ErrHasDependents   = errors.New("record has dependent rows")
	ErrDuplicate       = errors.New("duplicate record")

	// ErrInsufficientStock means a merged cart quantity would exceed product inventory
	ErrInsufficientStock = errors.New("insufficient stock")
)

// Constraint names from the schema that callers care about
const (
	constraintCartItemCart    = "cart_items_cart_fk"
	constraintCartItemProduct = "cart_items_product_fk"
)

func pqError(err error) *pq.Error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr
	}
	return nil
}

func isUniqueViolation(err error) bool {
	pqErr := pqError(err)
	return pqErr != nil && string(pqErr.Code) == pgerrcode.UniqueViolation
}

func isForeignKeyViolation(err error) bool {
	pqErr := pqError(err)
	return pqErr != nil && string(pqErr.Code) == pgerrcode.ForeignKeyViolation
}

func violatedConstraint(err error) string {
	if pqErr := pqError(err); pqErr != nil {
		return pqErr.Constraint
	}
	return ""
}
