package service

import (
	"context"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AdminService gates every privileged catalog mutation behind an explicit
// caller identity. Authorization is checked here, not assumed from ambient
// session state; callers that are not admins are rejected before any store
// access happens.
type AdminService struct {
	store             AdminStore
	publisher         EventSink
	lowStockThreshold int
	logger            *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(st AdminStore, publisher EventSink, lowStockThreshold int) *AdminService {
	return &AdminService{
		store:             st,
		publisher:         publisher,
		lowStockThreshold: lowStockThreshold,
		logger:            util.GetLogger(),
	}
}

// ProductInput carries the admin-editable product fields.
type ProductInput struct {
	Name          models.LocalizedText
	Description   models.LocalizedText
	Price         int64
	DiscountPrice *int64
	Category      string
	Subcategory   string
	Sizes         []string
	Colors        []string
	Stock         int
	Images        []string
	IsFeatured    bool
}

// OfferInput carries the admin-editable offer fields.
type OfferInput struct {
	ProductID   int64
	Title       models.LocalizedText
	Description models.LocalizedText
	DiscountPct decimal.Decimal
	StartsAt    time.Time
	EndsAt      time.Time
}

// CreateProduct validates and inserts a new product
func (s *AdminService) CreateProduct(ctx context.Context, callerID int64, input *ProductInput) (*models.Product, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if err := validateProductInput(input); err != nil {
		util.AdminMutationsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	product := &models.Product{
		Name:          input.Name,
		Description:   input.Description,
		Price:         input.Price,
		DiscountPrice: input.DiscountPrice,
		Category:      input.Category,
		Subcategory:   input.Subcategory,
		Sizes:         input.Sizes,
		Colors:        input.Colors,
		Stock:         input.Stock,
		Images:        input.Images,
		IsActive:      true,
		IsFeatured:    input.IsFeatured,
	}
	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, err
	}

	util.AdminMutationsTotal.WithLabelValues("create_product").Inc()
	s.logger.Info("Product created",
		zap.Int64("admin_id", callerID),
		zap.Int64("product_id", product.ID))
	s.publishProductUpdated(ctx, product.ID)
	return product, nil
}

// UpdateProduct validates and applies edits to an existing product. Stock is
// not touched here; RestockProduct adjusts it atomically.
func (s *AdminService) UpdateProduct(ctx context.Context, callerID, productID int64, input *ProductInput) (*models.Product, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if err := validateProductInput(input); err != nil {
		util.AdminMutationsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.Name = input.Name
	product.Description = input.Description
	product.Price = input.Price
	product.DiscountPrice = input.DiscountPrice
	product.Category = input.Category
	product.Subcategory = input.Subcategory
	product.Sizes = input.Sizes
	product.Colors = input.Colors
	product.Images = input.Images
	product.IsFeatured = input.IsFeatured

	if err := s.store.UpdateProduct(ctx, product); err != nil {
		return nil, err
	}

	util.AdminMutationsTotal.WithLabelValues("update_product").Inc()
	s.publishProductUpdated(ctx, productID)
	return product, nil
}

// DeactivateProduct hides a product from the storefront. Existing orders and
// order items referencing it are untouched; cart lines for it fail checkout
// validation instead of being dropped.
func (s *AdminService) DeactivateProduct(ctx context.Context, callerID, productID int64) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if err := s.store.SetProductActive(ctx, productID, false); err != nil {
		return err
	}

	util.AdminMutationsTotal.WithLabelValues("deactivate_product").Inc()
	s.logger.Info("Product deactivated",
		zap.Int64("admin_id", callerID),
		zap.Int64("product_id", productID))
	s.publishProductUpdated(ctx, productID)
	return nil
}

// RestockProduct adjusts stock by delta. Negative deltas that would take
// stock below zero fail with ErrInsufficientStock.
func (s *AdminService) RestockProduct(ctx context.Context, callerID, productID int64, delta int) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if delta == 0 {
		return models.FieldErrors{"delta": "must not be zero"}
	}
	if err := s.store.AdjustStockTx(ctx, productID, delta); err != nil {
		return err
	}

	util.AdminMutationsTotal.WithLabelValues("restock").Inc()
	s.publishProductUpdated(ctx, productID)
	return nil
}

// CreateOffer validates and activates a new offer. Any offer already active
// on the same product is deactivated in the same transaction, so exactly one
// offer per product is active before and after.
func (s *AdminService) CreateOffer(ctx context.Context, callerID int64, input *OfferInput) (*models.Offer, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	if err := validateOfferInput(input); err != nil {
		util.AdminMutationsRejected.WithLabelValues("validation").Inc()
		return nil, err
	}
	if _, err := s.store.GetProduct(ctx, input.ProductID); err != nil {
		return nil, err
	}

	offer := &models.Offer{
		ProductID:   input.ProductID,
		Title:       input.Title,
		Description: input.Description,
		DiscountPct: input.DiscountPct,
		StartsAt:    input.StartsAt,
		EndsAt:      input.EndsAt,
	}
	previousID, err := s.store.CreateOfferTx(ctx, offer)
	if err != nil {
		return nil, err
	}

	util.AdminMutationsTotal.WithLabelValues("create_offer").Inc()
	s.logger.Info("Offer created",
		zap.Int64("admin_id", callerID),
		zap.Int64("offer_id", offer.ID),
		zap.Int64("product_id", offer.ProductID),
		zap.Int64("replaced_offer_id", previousID))
	s.publishOfferActivated(ctx, offer, previousID)
	return offer, nil
}

// ListOffers retrieves all offers for the back-office, newest first
func (s *AdminService) ListOffers(ctx context.Context, callerID int64) ([]models.Offer, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.store.ListOffers(ctx)
}

// ActivateOffer re-activates an existing offer, swapping out whatever offer
// is currently active on the same product.
func (s *AdminService) ActivateOffer(ctx context.Context, callerID, offerID int64) (*models.Offer, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return nil, err
	}
	if !validateOfferWindow(offer) {
		util.AdminMutationsRejected.WithLabelValues("validation").Inc()
		return nil, models.FieldErrors{"ends_at": "offer window already closed"}
	}

	previousID, err := s.store.ActivateOfferTx(ctx, offerID)
	if err != nil {
		return nil, err
	}
	offer.IsActive = true

	util.AdminMutationsTotal.WithLabelValues("activate_offer").Inc()
	s.logger.Info("Offer activated",
		zap.Int64("admin_id", callerID),
		zap.Int64("offer_id", offerID),
		zap.Int64("replaced_offer_id", previousID))
	s.publishOfferActivated(ctx, offer, previousID)
	return offer, nil
}

// DeactivateOffer switches an offer off
func (s *AdminService) DeactivateOffer(ctx context.Context, callerID, offerID int64) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	offer, err := s.store.GetOffer(ctx, offerID)
	if err != nil {
		return err
	}
	if err := s.store.DeactivateOffer(ctx, offerID); err != nil {
		return err
	}

	util.AdminMutationsTotal.WithLabelValues("deactivate_offer").Inc()
	if s.publisher != nil {
		event := &models.OfferDeactivatedEvent{
			BaseEvent: baseEvent(models.EventTypeOfferDeactivated),
			OfferID:   offerID,
			ProductID: offer.ProductID,
		}
		if err := s.publisher.PublishOfferDeactivated(ctx, event); err != nil {
			s.logger.Error("Failed to publish OfferDeactivated event", zap.Error(err))
		}
	}
	return nil
}

// UpdateOrderStatus applies a forward-only status transition to an order
func (s *AdminService) UpdateOrderStatus(ctx context.Context, callerID, orderID int64, status string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}

	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return err
	}
	if !models.ValidStatusTransition(order.Status, status) {
		util.AdminMutationsRejected.WithLabelValues("bad_transition").Inc()
		return models.FieldErrors{"status": "invalid transition from " + order.Status}
	}

	if err := s.store.UpdateOrderStatus(ctx, orderID, status); err != nil {
		return err
	}

	util.AdminMutationsTotal.WithLabelValues("order_status").Inc()
	s.logger.Info("Order status updated",
		zap.Int64("admin_id", callerID),
		zap.Int64("order_id", orderID),
		zap.String("from", order.Status),
		zap.String("to", status))

	if s.publisher != nil {
		event := &models.OrderStatusChangedEvent{
			BaseEvent:  baseEvent(models.EventTypeOrderStatusChanged),
			OrderID:    orderID,
			FromStatus: order.Status,
			ToStatus:   status,
		}
		if err := s.publisher.PublishOrderStatusChanged(ctx, event); err != nil {
			s.logger.Error("Failed to publish OrderStatusChanged event", zap.Error(err))
		}
	}
	return nil
}

// ListOrders retrieves all orders for the back-office, optionally by status
func (s *AdminService) ListOrders(ctx context.Context, callerID int64, status string) ([]models.Order, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}
	return s.store.ListOrders(ctx, status)
}

// RespondToComment records an admin response on a customer comment
func (s *AdminService) RespondToComment(ctx context.Context, callerID, commentID int64, response string) error {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return err
	}
	if strings.TrimSpace(response) == "" {
		return models.FieldErrors{"response": "must not be empty"}
	}
	if _, err := s.store.GetComment(ctx, commentID); err != nil {
		return err
	}
	if err := s.store.RespondToComment(ctx, commentID, callerID, strings.TrimSpace(response)); err != nil {
		return err
	}
	util.AdminMutationsTotal.WithLabelValues("respond_comment").Inc()
	return nil
}

// Dashboard aggregates the back-office landing data.
type Dashboard struct {
	LowStockProducts   []models.Product `json:"low_stock_products"`
	UnansweredComments []models.Comment `json:"unanswered_comments"`
}

// GetDashboard returns low-stock products and unanswered comments
func (s *AdminService) GetDashboard(ctx context.Context, callerID int64) (*Dashboard, error) {
	if err := s.requireAdmin(ctx, callerID); err != nil {
		return nil, err
	}

	lowStock, err := s.store.ListLowStockProducts(ctx, s.lowStockThreshold)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListUnansweredComments(ctx)
	if err != nil {
		return nil, err
	}
	return &Dashboard{LowStockProducts: lowStock, UnansweredComments: comments}, nil
}

func (s *AdminService) requireAdmin(ctx context.Context, callerID int64) error {
	user, err := s.store.GetUser(ctx, callerID)
	if err != nil {
		return models.ErrUnauthorized
	}
	if !user.IsAdmin {
		util.AdminMutationsRejected.WithLabelValues("unauthorized").Inc()
		s.logger.Warn("Non-admin attempted privileged mutation", zap.Int64("caller_id", callerID))
		return models.ErrUnauthorized
	}
	return nil
}

func (s *AdminService) publishProductUpdated(ctx context.Context, productID int64) {
	if s.publisher == nil {
		return
	}
	event := &models.ProductUpdatedEvent{
		BaseEvent: baseEvent(models.EventTypeProductUpdated),
		ProductID: productID,
	}
	if err := s.publisher.PublishProductUpdated(ctx, event); err != nil {
		s.logger.Error("Failed to publish ProductUpdated event", zap.Error(err))
	}
}

func (s *AdminService) publishOfferActivated(ctx context.Context, offer *models.Offer, previousID int64) {
	if s.publisher == nil {
		return
	}
	event := &models.OfferActivatedEvent{
		BaseEvent:       baseEvent(models.EventTypeOfferActivated),
		OfferID:         offer.ID,
		ProductID:       offer.ProductID,
		PreviousOfferID: previousID,
	}
	if err := s.publisher.PublishOfferActivated(ctx, event); err != nil {
		s.logger.Error("Failed to publish OfferActivated event", zap.Error(err))
	}
}

func baseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

func validateProductInput(input *ProductInput) error {
	fe := models.FieldErrors{}
	if strings.TrimSpace(input.Name[models.LangEnglish]) == "" {
		fe["name"] = "english name must not be empty"
	}
	if input.Price <= 0 {
		fe["price"] = "must be positive"
	}
	if input.DiscountPrice != nil {
		if *input.DiscountPrice <= 0 {
			fe["discount_price"] = "must be positive"
		} else if *input.DiscountPrice >= input.Price {
			fe["discount_price"] = "must be lower than base price"
		}
	}
	if input.Stock < 0 {
		fe["stock"] = "must not be negative"
	}
	if strings.TrimSpace(input.Category) == "" {
		fe["category"] = "must not be empty"
	}
	if len(input.Images) > 3 {
		fe["images"] = "at most three images"
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}

func validateOfferWindow(offer *models.Offer) bool {
	return offer.EndsAt.After(time.Now())
}

func validateOfferInput(input *OfferInput) error {
	fe := models.FieldErrors{}
	if strings.TrimSpace(input.Title[models.LangEnglish]) == "" {
		fe["title"] = "english title must not be empty"
	}
	// Percentage bounds are exclusive on both ends.
	if input.DiscountPct.LessThanOrEqual(decimal.Zero) || input.DiscountPct.GreaterThanOrEqual(decimal.NewFromInt(100)) {
		fe["discount_pct"] = "must be between 0 and 100 exclusive"
	}
	if !input.EndsAt.After(input.StartsAt) {
		fe["ends_at"] = "must be after starts_at"
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}
