package store

import (
	"context"
	"database/sql"
	"fmt"

	"storefront-service/internal/models"
)

// UpsertCartLine adds a cart line, incrementing quantity when the same
// (user, product, size, color) combination already exists. Uniqueness on the
// tuple is enforced by the database.
func (s *Store) UpsertCartLine(ctx context.Context, line *models.CartLine) error {
	query := `
		INSERT INTO cart_lines (user_id, product_id, size, color, quantity)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, product_id, size, color)
		DO UPDATE SET quantity = cart_lines.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, quantity, created_at, updated_at`

	return s.db.QueryRowxContext(ctx, query,
		line.UserID, line.ProductID, line.Size, line.Color, line.Quantity,
	).Scan(&line.ID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
}

// GetCartLine retrieves one cart line by ID
func (s *Store) GetCartLine(ctx context.Context, lineID int64) (*models.CartLine, error) {
	var line models.CartLine
	err := s.db.GetContext(ctx, &line, "SELECT * FROM cart_lines WHERE id = $1", lineID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("cart line %d: %w", lineID, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &line, nil
}

// GetCartLines retrieves all cart lines for a user
func (s *Store) GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	var lines []models.CartLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM cart_lines WHERE user_id = $1 ORDER BY id", userID)
	return lines, err
}

// SetCartLineQuantity sets an exact quantity on an existing line
func (s *Store) SetCartLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE cart_lines SET quantity = $1, updated_at = NOW() WHERE id = $2",
		quantity, lineID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("cart line %d: %w", lineID, models.ErrNotFound)
	}
	return err
}

// DeleteCartLine removes one cart line
func (s *Store) DeleteCartLine(ctx context.Context, lineID int64) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM cart_lines WHERE id = $1", lineID)
	return err
}

// GetWishlistEntry retrieves a wishlist entry for (user, product), or nil
func (s *Store) GetWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error) {
	var entry models.WishlistEntry
	err := s.db.GetContext(ctx, &entry,
		"SELECT * FROM wishlist_entries WHERE user_id = $1 AND product_id = $2",
		userID, productID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// CreateWishlistEntry adds a product to a user's wishlist. The (user,
// product) pair is unique; re-adding is a no-op at the database level.
func (s *Store) CreateWishlistEntry(ctx context.Context, entry *models.WishlistEntry) error {
	query := `
		INSERT INTO wishlist_entries (user_id, product_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, product_id) DO NOTHING
		RETURNING id, created_at`

	err := s.db.QueryRowxContext(ctx, query, entry.UserID, entry.ProductID).
		Scan(&entry.ID, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		// Conflict: the entry already existed.
		return nil
	}
	return err
}

// DeleteWishlistEntry removes a product from a user's wishlist
func (s *Store) DeleteWishlistEntry(ctx context.Context, userID, productID int64) error {
	_, err := s.db.ExecContext(ctx,
		"DELETE FROM wishlist_entries WHERE user_id = $1 AND product_id = $2",
		userID, productID)
	return err
}

// GetWishlist retrieves a user's wishlist entries
func (s *Store) GetWishlist(ctx context.Context, userID int64) ([]models.WishlistEntry, error) {
	var entries []models.WishlistEntry
	err := s.db.SelectContext(ctx, &entries,
		"SELECT * FROM wishlist_entries WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return entries, err
}

// CreateComment inserts a customer comment
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (user_id, comment_type, subject, message)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	return s.db.QueryRowxContext(ctx, query,
		c.UserID, c.Type, c.Subject, c.Message,
	).Scan(&c.ID, &c.CreatedAt)
}

// GetComment retrieves a comment by ID
func (s *Store) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	var comment models.Comment
	err := s.db.GetContext(ctx, &comment, "SELECT * FROM comments WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("comment %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByUserID retrieves a user's comments, newest first
func (s *Store) GetCommentsByUserID(ctx context.Context, userID int64) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.SelectContext(ctx, &comments,
		"SELECT * FROM comments WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return comments, err
}

// ListUnansweredComments retrieves comments awaiting an admin response
func (s *Store) ListUnansweredComments(ctx context.Context) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.SelectContext(ctx, &comments,
		"SELECT * FROM comments WHERE is_answered = false ORDER BY created_at")
	return comments, err
}

// RespondToComment records an admin response and marks the comment answered
func (s *Store) RespondToComment(ctx context.Context, commentID, adminID int64, response string) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE comments
		SET is_answered = true, admin_response = $1, responded_by = $2, responded_at = NOW()
		WHERE id = $3`,
		response, adminID, commentID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("comment %d: %w", commentID, models.ErrNotFound)
	}
	return err
}
