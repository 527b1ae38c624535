package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetUser retrieves a user by ID
func (s *Store) GetUser(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := s.db.GetContext(ctx, &user, "SELECT * FROM users WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetProduct retrieves a product by ID
func (s *Store) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	var product models.Product
	err := s.db.GetContext(ctx, &product, "SELECT * FROM products WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductFilter narrows catalog browse queries.
type ProductFilter struct {
	Category        string
	FeaturedOnly    bool
	IncludeInactive bool
}

// ListProducts retrieves catalog products, active-only unless the filter says
// otherwise
func (s *Store) ListProducts(ctx context.Context, filter ProductFilter) ([]models.Product, error) {
	query := "SELECT * FROM products WHERE 1=1"
	args := []interface{}{}

	if !filter.IncludeInactive {
		query += " AND is_active = true"
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if filter.FeaturedOnly {
		query += " AND is_featured = true"
	}
	query += " ORDER BY id"

	var products []models.Product
	err := s.db.SelectContext(ctx, &products, query, args...)
	return products, err
}

// ListLowStockProducts retrieves active products at or below the threshold,
// for the admin dashboard
func (s *Store) ListLowStockProducts(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := s.db.SelectContext(ctx, &products,
		"SELECT * FROM products WHERE is_active = true AND stock <= $1 ORDER BY stock, id", threshold)
	return products, err
}

// CreateProduct inserts a new product
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	query := `
		INSERT INTO products (name, description, price, discount_price, category, subcategory, sizes, colors, stock, images, is_active, is_featured)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		p.Name, p.Description, p.Price, p.DiscountPrice, p.Category, p.Subcategory,
		p.Sizes, p.Colors, p.Stock, p.Images, p.IsActive, p.IsFeatured,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// UpdateProduct updates mutable product fields. Stock is adjusted separately
// through AdjustStockTx so concurrent checkouts are never overwritten.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, description = $2, price = $3, discount_price = $4,
		    category = $5, subcategory = $6, sizes = $7, colors = $8,
		    images = $9, is_featured = $10, updated_at = NOW()
		WHERE id = $11`,
		p.Name, p.Description, p.Price, p.DiscountPrice, p.Category, p.Subcategory,
		p.Sizes, p.Colors, p.Images, p.IsFeatured, p.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("product %d: %w", p.ID, models.ErrNotFound)
	}
	return err
}

// SetProductActive flips the active flag. Historical orders referencing the
// product are untouched.
func (s *Store) SetProductActive(ctx context.Context, productID int64, active bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE products SET is_active = $1, updated_at = NOW() WHERE id = $2",
		active, productID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}
	return err
}

// AdjustStockTx applies a stock delta under a row lock. It fails with
// ErrInsufficientStock if the result would be negative, so stock can never go
// below zero regardless of concurrent adjustments.
func (s *Store) AdjustStockTx(ctx context.Context, productID int64, delta int) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var stock int
	err = tx.GetContext(ctx, &stock,
		"SELECT stock FROM products WHERE id = $1 FOR UPDATE", productID)
	if err == sql.ErrNoRows {
		return fmt.Errorf("product %d: %w", productID, models.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to lock product: %w", err)
	}

	if stock+delta < 0 {
		return fmt.Errorf("product %d: stock %d, delta %d: %w",
			productID, stock, delta, models.ErrInsufficientStock)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE products SET stock = stock + $1, updated_at = NOW() WHERE id = $2",
		delta, productID)
	if err != nil {
		return fmt.Errorf("failed to adjust stock: %w", err)
	}

	return tx.Commit()
}

// GetOffer retrieves an offer by ID
func (s *Store) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.GetContext(ctx, &offer, "SELECT * FROM offers WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("offer %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// GetActiveOffer retrieves the offer active for a product at the given
// instant, or nil when there is none. The single-active-offer invariant means
// at most one row can match.
func (s *Store) GetActiveOffer(ctx context.Context, productID int64, at time.Time) (*models.Offer, error) {
	var offer models.Offer
	err := s.db.GetContext(ctx, &offer, `
		SELECT * FROM offers
		WHERE product_id = $1 AND is_active = true AND starts_at <= $2 AND ends_at > $2
		ORDER BY id DESC LIMIT 1`,
		productID, at)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

// ListOffers retrieves all offers, newest first
func (s *Store) ListOffers(ctx context.Context) ([]models.Offer, error) {
	var offers []models.Offer
	err := s.db.SelectContext(ctx, &offers, "SELECT * FROM offers ORDER BY created_at DESC")
	return offers, err
}

// CreateOfferTx inserts a new active offer and deactivates any prior active
// offer on the same product in the same transaction, preserving the
// single-active-offer invariant. Returns the ID of the replaced offer, or 0.
func (s *Store) CreateOfferTx(ctx context.Context, o *models.Offer) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	previousID, err := deactivateActiveOffer(ctx, tx, o.ProductID)
	if err != nil {
		return 0, err
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO offers (product_id, title, description, discount_pct, is_active, starts_at, ends_at)
		VALUES ($1, $2, $3, $4, true, $5, $6)
		RETURNING id, created_at`,
		o.ProductID, o.Title, o.Description, o.DiscountPct, o.StartsAt, o.EndsAt,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to create offer: %w", err)
	}
	o.IsActive = true

	return previousID, tx.Commit()
}

// ActivateOfferTx re-activates an existing offer, deactivating any other
// active offer on the same product first. Returns the replaced offer ID, or 0.
func (s *Store) ActivateOfferTx(ctx context.Context, offerID int64) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var productID int64
	err = tx.GetContext(ctx, &productID,
		"SELECT product_id FROM offers WHERE id = $1 FOR UPDATE", offerID)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("offer %d: %w", offerID, models.ErrNotFound)
	}
	if err != nil {
		return 0, err
	}

	previousID, err := deactivateActiveOffer(ctx, tx, productID)
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE offers SET is_active = true WHERE id = $1", offerID); err != nil {
		return 0, err
	}

	return previousID, tx.Commit()
}

// DeactivateOffer switches an offer off
func (s *Store) DeactivateOffer(ctx context.Context, offerID int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE offers SET is_active = false WHERE id = $1", offerID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("offer %d: %w", offerID, models.ErrNotFound)
	}
	return err
}

func deactivateActiveOffer(ctx context.Context, tx *sqlx.Tx, productID int64) (int64, error) {
	var previousID int64
	err := tx.GetContext(ctx, &previousID, `
		SELECT id FROM offers
		WHERE product_id = $1 AND is_active = true
		FOR UPDATE`, productID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx,
		"UPDATE offers SET is_active = false WHERE id = $1", previousID); err != nil {
		return 0, fmt.Errorf("failed to deactivate prior offer: %w", err)
	}
	return previousID, nil
}
