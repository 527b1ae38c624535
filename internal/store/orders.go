package store

import (
	"context"
	"database/sql"
	"fmt"
	"sort"

	"storefront-service/internal/models"
)

// PlaceOrderTx commits a checkout attempt in a single transaction: it locks
// every product in the cart, re-validates stock, decrements it, writes the
// order and its items, and clears the user's cart. If any line would drive
// stock negative the whole transaction rolls back and nothing is persisted.
//
// Product rows are locked in ascending ID order so two concurrent checkouts
// sharing products cannot deadlock; the loser of a last-unit race observes
// ErrInsufficientStock wrapped with the losing product ID.
func (s *Store) PlaceOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// Aggregate quantities per product; one cart may hold several variants
	// of the same product.
	required := make(map[int64]int)
	for _, item := range items {
		required[item.ProductID] += item.Quantity
	}
	productIDs := make([]int64, 0, len(required))
	for id := range required {
		productIDs = append(productIDs, id)
	}
	sort.Slice(productIDs, func(i, j int) bool { return productIDs[i] < productIDs[j] })

	for _, id := range productIDs {
		var row struct {
			Stock    int  `db:"stock"`
			IsActive bool `db:"is_active"`
		}
		err := tx.GetContext(ctx, &row,
			"SELECT stock, is_active FROM products WHERE id = $1 FOR UPDATE", id)
		if err == sql.ErrNoRows {
			return fmt.Errorf("product %d: %w", id, models.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("failed to lock product %d: %w", id, err)
		}
		if !row.IsActive {
			return &models.ConflictError{ProductID: id, Err: models.ErrProductInactive}
		}
		if row.Stock < required[id] {
			return &models.ConflictError{ProductID: id, Err: models.ErrInsufficientStock}
		}
	}

	for _, id := range productIDs {
		_, err := tx.ExecContext(ctx,
			"UPDATE products SET stock = stock - $1, updated_at = NOW() WHERE id = $2",
			required[id], id)
		if err != nil {
			return fmt.Errorf("failed to decrement stock for product %d: %w", id, err)
		}
	}

	err = tx.QueryRowxContext(ctx, `
		INSERT INTO orders (user_id, order_number, total_amount, status,
			shipping_name, shipping_phone, shipping_address, shipping_city,
			shipping_state, shipping_pincode, payment_method)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		order.UserID, order.OrderNumber, order.TotalAmount, order.Status,
		order.Name, order.Phone, order.Address, order.City,
		order.State, order.Pincode, order.PaymentMethod,
	).Scan(&order.ID, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	for i := range items {
		items[i].OrderID = order.ID
		err := tx.QueryRowxContext(ctx, `
			INSERT INTO order_items (order_id, product_id, quantity, unit_price, size, color)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id`,
			items[i].OrderID, items[i].ProductID, items[i].Quantity,
			items[i].UnitPrice, items[i].Size, items[i].Color,
		).Scan(&items[i].ID)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	// Clear the cart only as part of a successful commit.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM cart_lines WHERE user_id = $1", order.UserID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return tx.Commit()
}

// GetOrder retrieves an order by ID
func (s *Store) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("order %d: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves a user's order history, newest first
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// ListOrders retrieves all orders, optionally filtered by status
func (s *Store) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	var orders []models.Order
	if status != "" {
		err := s.db.SelectContext(ctx, &orders,
			"SELECT * FROM orders WHERE status = $1 ORDER BY created_at DESC", status)
		return orders, err
	}
	err := s.db.SelectContext(ctx, &orders, "SELECT * FROM orders ORDER BY created_at DESC")
	return orders, err
}

// GetOrderItemsByOrderID retrieves all items for an order
func (s *Store) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus updates order status
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2",
		status, orderID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("order %d: %w", orderID, models.ErrNotFound)
	}
	return err
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
