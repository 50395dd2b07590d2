package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"dhaba-pos/internal/models"

	"github.com/jmoiron/sqlx"
)

const productColumns = `
	p.id, p.name, p.price, p.category_id, c.name AS category, p.is_available, p.created_at`

// ListProducts retrieves the full catalog
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	products := []models.Product{}
	err := s.db.SelectContext(ctx, &products, `
		SELECT`+productColumns+`
		FROM products p JOIN categories c ON c.id = p.category_id
		ORDER BY c.name, p.name`)
	return products, err
}

// GetProductByID retrieves a product by ID
func (s *Store) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, `
		SELECT`+productColumns+`
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound("product", id)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProductsByIDs retrieves multiple products by IDs
func (s *Store) GetProductsByIDs(ctx context.Context, ids []int64) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In(`
		SELECT`+productColumns+`
		FROM products p JOIN categories c ON c.id = p.category_id
		WHERE p.id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	query = s.db.Rebind(query)

	var products []models.Product
	err = s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// CreateProduct inserts a product, creating its category on first use
func (s *Store) CreateProduct(ctx context.Context, product *models.Product) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		err := tx.GetContext(ctx, &product.CategoryID, `
			INSERT INTO categories (name) VALUES ($1)
			ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`, product.Category)
		if err != nil {
			return fmt.Errorf("failed to upsert category: %w", err)
		}

		return tx.QueryRowxContext(ctx, `
			INSERT INTO products (name, price, category_id, is_available)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at`,
			product.Name, product.Price, product.CategoryID, product.IsAvailable,
		).Scan(&product.ID, &product.CreatedAt)
	})
}
