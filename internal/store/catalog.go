package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"marketnet/internal/models"

	"github.com/jmoiron/sqlx"
)

//go:embed seed/seed.sql
var seedSQL string

const collectionColumns = `
	SELECT c.id, c.title, c.featured_product_id, COUNT(p.id) AS products_count
	FROM collections c
	LEFT JOIN products p ON p.collection_id = c.id`

// Seed loads the sample catalog
func (s *Store) Seed(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, seedSQL)
	return err
}

// ListCollections retrieves all collections with their product counts
func (s *Store) ListCollections(ctx context.Context) ([]models.Collection, error) {
	collections := []models.Collection{}
	err := s.db.SelectContext(ctx, &collections,
		collectionColumns+" GROUP BY c.id ORDER BY c.id")
	return collections, err
}

// GetCollection retrieves a collection by ID
func (s *Store) GetCollection(ctx context.Context, id int64) (*models.Collection, error) {
	var collection models.Collection
	err := s.db.GetContext(ctx, &collection,
		collectionColumns+" WHERE c.id = $1 GROUP BY c.id", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &collection, nil
}

// CreateCollection inserts a collection
func (s *Store) CreateCollection(ctx context.Context, c *models.Collection) error {
	err := s.db.GetContext(ctx, &c.ID,
		"INSERT INTO collections (title, featured_product_id) VALUES ($1, $2) RETURNING id",
		c.Title, c.FeaturedProductID)
	if isForeignKeyViolation(err) {
		return ErrProductNotFound
	}
	return err
}

// UpdateCollection updates title and featured product
func (s *Store) UpdateCollection(ctx context.Context, c *models.Collection) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE collections SET title = $1, featured_product_id = $2 WHERE id = $3",
		c.Title, c.FeaturedProductID, c.ID)
	if isForeignKeyViolation(err) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// DeleteCollection deletes a collection that has no products
func (s *Store) DeleteCollection(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var locked int64
		err := tx.GetContext(ctx, &locked, "SELECT id FROM collections WHERE id = $1 FOR UPDATE", id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock collection: %w", err)
		}

		var products int
		if err := tx.GetContext(ctx, &products,
			"SELECT COUNT(*) FROM products WHERE collection_id = $1", id); err != nil {
			return fmt.Errorf("failed to count products: %w", err)
		}
		if products > 0 {
			return ErrHasDependents
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM collections WHERE id = $1", id)
		if isForeignKeyViolation(err) {
			return ErrHasDependents
		}
		return err
	})
}

// CreateProduct inserts a product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (title, slug, description, unit_price, inventory, collection_id)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, last_update`

	err := s.db.QueryRowxContext(ctx, query,
		p.Title, p.Slug, p.Description, p.UnitPrice, p.Inventory, p.CollectionID).
		Scan(&p.ID, &p.LastUpdate)
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// likeEscaper makes a search term match literally inside an ILIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListProducts retrieves a page of products matching the filter
func (s *Store) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products WHERE 1 = 1"
	args := []interface{}{}

	if f.CollectionID != nil {
		args = append(args, *f.CollectionID)
		query += fmt.Sprintf(" AND collection_id = $%d", len(args))
	}
	if f.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(f.Search)+"%")
		query += fmt.Sprintf(` AND (title ILIKE $%d ESCAPE '\' OR description ILIKE $%d ESCAPE '\')`, len(args), len(args))
	}

	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// UpdateProduct updates all editable product fields
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	query := `
		UPDATE products
		SET title = $1, slug = $2, description = $3, unit_price = $4, inventory = $5,
			collection_id = $6, last_update = NOW()
		WHERE id = $7
		RETURNING last_update`

	err := s.db.GetContext(ctx, &p.LastUpdate, query,
		p.Title, p.Slug, p.Description, p.UnitPrice, p.Inventory, p.CollectionID, p.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProductNotFound
	}
	if isForeignKeyViolation(err) {
		return ErrNotFound
	}
	return err
}

// DeleteProduct deletes a product that was never ordered
func (s *Store) DeleteProduct(ctx context.Context, id int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		var locked int64
		err := tx.GetContext(ctx, &locked, "SELECT id FROM products WHERE id = $1 FOR UPDATE", id)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProductNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock product: %w", err)
		}

		var orderItems int
		if err := tx.GetContext(ctx, &orderItems,
			"SELECT COUNT(*) FROM order_items WHERE product_id = $1", id); err != nil {
			return fmt.Errorf("failed to count order items: %w", err)
		}
		if orderItems > 0 {
			return ErrHasDependents
		}

		_, err = tx.ExecContext(ctx, "DELETE FROM products WHERE id = $1", id)
		if isForeignKeyViolation(err) {
			return ErrHasDependents
		}
		return err
	})
}

// ListPromotions retrieves all promotions
func (s *Store) ListPromotions(ctx context.Context) ([]models.Promotion, error) {
	promotions := []models.Promotion{}
	err := s.db.SelectContext(ctx, &promotions, "SELECT * FROM promotions ORDER BY id")
	return promotions, err
}

// CreatePromotion inserts a promotion
func (s *Store) CreatePromotion(ctx context.Context, p *models.Promotion) error {
	return s.db.GetContext(ctx, &p.ID,
		"INSERT INTO promotions (description, discount) VALUES ($1, $2) RETURNING id",
		p.Description, p.Discount)
}

// SetProductPromotions replaces the promotions attached to a product
func (s *Store) SetProductPromotions(ctx context.Context, productID int64, promotionIDs []int64) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM product_promotions WHERE product_id = $1", productID); err != nil {
			return err
		}

		for _, promotionID := range promotionIDs {
			_, err := tx.ExecContext(ctx,
				"INSERT INTO product_promotions (product_id, promotion_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
				productID, promotionID)
			if isForeignKeyViolation(err) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// ListProductPromotions retrieves the promotions attached to a product
func (s *Store) ListProductPromotions(ctx context.Context, productID int64) ([]models.Promotion, error) {
	promotions := []models.Promotion{}
	err := s.db.SelectContext(ctx, &promotions, `
		SELECT pr.id, pr.description, pr.discount
		FROM promotions pr
		JOIN product_promotions pp ON pp.promotion_id = pr.id
		WHERE pp.product_id = $1
		ORDER BY pr.id`, productID)
	return promotions, err
}

// ListReviews retrieves reviews for a product
func (s *Store) ListReviews(ctx context.Context, productID int64) ([]models.Review, error) {
	reviews := []models.Review{}
	err := s.db.SelectContext(ctx, &reviews,
		"SELECT * FROM reviews WHERE product_id = $1 ORDER BY id", productID)
	return reviews, err
}

// CreateReview inserts a review for a product
func (s *Store) CreateReview(ctx context.Context, r *models.Review) error {
	err := s.db.QueryRowxContext(ctx,
		"INSERT INTO reviews (product_id, name, description) VALUES ($1, $2, $3) RETURNING id, date",
		r.ProductID, r.Name, r.Description).Scan(&r.ID, &r.Date)
	if isForeignKeyViolation(err) {
		return ErrProductNotFound
	}
	return err
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
