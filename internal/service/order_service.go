package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// OrderService converts carts into immutable orders. A checkout attempt moves
// through Validating, Reserving and Committed; validation failures reject the
// whole attempt with per-line reasons and the reserve+commit step is a single
// database transaction, so no partial order is ever visible.
type OrderService struct {
	store     OrderStore
	publisher EventSink
	logger    *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(st OrderStore, publisher EventSink) *OrderService {
	return &OrderService{
		store:     st,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// PlaceOrderRequest carries everything checkout needs beyond the cart itself.
type PlaceOrderRequest struct {
	UserID        int64
	Shipping      models.ShippingAddress
	PaymentMethod string
}

// PlaceOrder runs a checkout attempt for the user's cart. On success it
// returns the committed order and its items; the cart has been cleared and
// stock decremented atomically. On rejection it returns a
// *models.RejectionDetail identifying the offending lines, and nothing was
// persisted.
func (s *OrderService) PlaceOrder(ctx context.Context, req *PlaceOrderRequest) (*models.Order, []models.OrderItem, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if err := validateShipping(req); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("bad_request").Inc()
		return nil, nil, err
	}

	lines, err := s.store.GetCartLines(ctx, req.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if len(lines) == 0 {
		util.OrdersRejectedTotal.WithLabelValues("empty_cart").Inc()
		return nil, nil, models.ErrEmptyCart
	}

	// Validating: prices are resolved exactly once, at this instant, and
	// frozen. Offers changing mid-checkout cannot move the charged amount.
	frozenAt := time.Now()
	items := make([]models.OrderItem, 0, len(lines))
	var rejected []models.LineRejection
	var total int64

	for _, line := range lines {
		product, err := s.store.GetProduct(ctx, line.ProductID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load product %d: %w", line.ProductID, err)
		}

		if reason, ok := validateLine(product, &line); !ok {
			rejected = append(rejected, models.LineRejection{
				ProductID: line.ProductID,
				Size:      line.Size,
				Color:     line.Color,
				Reason:    reason,
			})
			continue
		}

		offer, err := s.store.GetActiveOffer(ctx, line.ProductID, frozenAt)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load offer for product %d: %w", line.ProductID, err)
		}

		unitPrice := pricing.Resolve(product, offer, frozenAt)
		total += pricing.LineTotal(unitPrice, line.Quantity)
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			UnitPrice: unitPrice,
			Size:      line.Size,
			Color:     line.Color,
		})
	}

	if len(rejected) > 0 {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, nil, &models.RejectionDetail{Lines: rejected}
	}

	order := &models.Order{
		UserID:          req.UserID,
		OrderNumber:     generateOrderNumber(req.UserID, frozenAt),
		TotalAmount:     total,
		Status:          models.OrderStatusPlaced,
		ShippingAddress: req.Shipping,
		PaymentMethod:   req.PaymentMethod,
	}

	// Reserving + Committed: one transaction. A concurrent checkout winning
	// the last unit surfaces here as a ConflictError and nothing persists.
	if err := s.store.PlaceOrderTx(ctx, order, items); err != nil {
		var conflict *models.ConflictError
		if errors.As(err, &conflict) {
			util.OrdersRejectedTotal.WithLabelValues("conflict").Inc()
			s.logger.Warn("Checkout lost stock race",
				zap.Int64("user_id", req.UserID),
				zap.Int64("product_id", conflict.ProductID))
			return nil, nil, &models.RejectionDetail{Lines: []models.LineRejection{{
				ProductID: conflict.ProductID,
				Reason:    conflictReason(conflict),
			}}}
		}
		util.OrdersRejectedTotal.WithLabelValues("db_error").Inc()
		return nil, nil, fmt.Errorf("failed to place order: %w", err)
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("total_amount", order.TotalAmount))

	s.publishOrderPlaced(ctx, order, items)

	return order, items, nil
}

// GetOrder retrieves an order and its items, restricted to the owning user
func (s *OrderService) GetOrder(ctx context.Context, userID, orderID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.UserID != userID {
		return nil, nil, models.ErrNotFound
	}

	items, err := s.store.GetOrderItemsByOrderID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, items, nil
}

// ListOrders retrieves the user's order history
func (s *OrderService) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.store.GetOrdersByUserID(ctx, userID)
}

func (s *OrderService) publishOrderPlaced(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.publisher == nil {
		return
	}

	eventItems := make([]models.OrderLineData, 0, len(items))
	for _, item := range items {
		eventItems = append(eventItems, models.OrderLineData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Size:      item.Size,
			Color:     item.Color,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		TotalAmount: order.TotalAmount,
		Items:       eventItems,
	}

	// The order is already committed; a publish failure is logged, never
	// propagated.
	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event",
			zap.Int64("order_id", order.ID), zap.Error(err))
	}
}

func validateLine(product *models.Product, line *models.CartLine) (string, bool) {
	if !product.IsActive {
		return models.RejectProductInactive, false
	}
	if (len(product.Sizes) > 0 && !product.HasSize(line.Size)) ||
		(len(product.Colors) > 0 && !product.HasColor(line.Color)) {
		return models.RejectInvalidVariant, false
	}
	if line.Quantity > product.Stock {
		return models.RejectOutOfStock, false
	}
	return "", true
}

func validateShipping(req *PlaceOrderRequest) error {
	fe := models.FieldErrors{}
	if strings.TrimSpace(req.Shipping.Name) == "" {
		fe["shipping_name"] = "must not be empty"
	}
	if strings.TrimSpace(req.Shipping.Address) == "" {
		fe["shipping_address"] = "must not be empty"
	}
	if strings.TrimSpace(req.PaymentMethod) == "" {
		fe["payment_method"] = "must not be empty"
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func conflictReason(conflict *models.ConflictError) string {
	if errors.Is(conflict, models.ErrProductInactive) {
		return models.RejectProductInactive
	}
	return models.RejectOutOfStock
}

// generateOrderNumber builds a human-readable unique order number, e.g.
// AV20260830112233-42-7031. The random suffix keeps two orders by one user
// in the same second distinct; the unique index backs it up.
func generateOrderNumber(userID int64, at time.Time) string {
	return fmt.Sprintf("AV%s-%d-%04d", at.UTC().Format("20060102150405"), userID, rand.Intn(10000))
}
