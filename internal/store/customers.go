package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"marketnet/internal/models"

	"github.com/jmoiron/sqlx"
)

// CreateUser inserts an identity
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO users (username, email, first_name, last_name, is_staff)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query,
		u.Username, u.Email, u.FirstName, u.LastName, u.IsStaff).Scan(&u.ID, &u.CreatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// GetUser retrieves an identity by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// CreateCustomer inserts the profile for an identity. ErrDuplicate if one already exists.
func (s *Store) CreateCustomer(ctx context.Context, c *models.Customer) error {
	query := `
		INSERT INTO customers (user_id, membership, phone, birth_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := s.db.GetContext(ctx, &c.ID, query, c.UserID, c.Membership, c.Phone, c.BirthDate)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// GetCustomer retrieves a customer by ID
func (s *Store) GetCustomer(ctx context.Context, id int64) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// GetCustomerByUserID retrieves the customer bound to an identity
func (s *Store) GetCustomerByUserID(ctx context.Context, userID int64) (*models.Customer, error) {
	var customer models.Customer
	err := s.db.GetContext(ctx, &customer, "SELECT * FROM customers WHERE user_id = $1", userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

// ListCustomers retrieves all customers
func (s *Store) ListCustomers(ctx context.Context) ([]models.Customer, error) {
	customers := []models.Customer{}
	err := s.db.SelectContext(ctx, &customers, "SELECT * FROM customers ORDER BY id")
	return customers, err
}

// UpdateCustomer updates the editable profile fields
func (s *Store) UpdateCustomer(ctx context.Context, c *models.Customer) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE customers SET membership = $1, phone = $2, birth_date = $3 WHERE id = $4",
		c.Membership, c.Phone, c.BirthDate, c.ID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// DeleteCustomer deletes a customer that has no orders
func (s *Store) DeleteCustomer(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var orders int
		if err := tx.GetContext(ctx, &orders,
			"SELECT COUNT(*) FROM orders WHERE customer_id = $1", id); err != nil {
			return fmt.Errorf("failed to count orders: %w", err)
		}
		if orders > 0 {
			return ErrHasDependents
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM customers WHERE id = $1", id)
		if isForeignKeyViolation(err) {
			return ErrHasDependents
		}
		if err != nil {
			return err
		}
		return expectOneRow(res)
	})
}
