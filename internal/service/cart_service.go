package service

import (
	"context"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/util"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CartService owns the per-user cart. A cart line may legitimately exceed
// momentary stock; stock is only enforced at checkout, so adding here never
// reserves anything.
type CartService struct {
	store         CartStore
	maxConcurrent int
	logger        *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(st CartStore, maxConcurrent int) *CartService {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &CartService{
		store:         st,
		maxConcurrent: maxConcurrent,
		logger:        util.GetLogger(),
	}
}

// CartLineView is a cart line joined with its current resolved price.
type CartLineView struct {
	Line      models.CartLine `json:"line"`
	UnitPrice int64           `json:"unit_price"`
	LineTotal int64           `json:"line_total"`
	Inactive  bool            `json:"inactive,omitempty"`
}

// CartView is a read-only projection of a user's cart. Total is computed at
// read time and never persisted.
type CartView struct {
	Lines []CartLineView `json:"lines"`
	Total int64          `json:"total"`
}

// AddItem adds quantity of a (product, size, color) variant to the cart,
// merging into an existing line when the combination is already present.
func (s *CartService) AddItem(ctx context.Context, userID, productID int64, size, color string, qty int) (*models.CartLine, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if qty <= 0 {
		return nil, models.FieldErrors{"quantity": "must be positive"}
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := validateVariant(product, size, color); err != nil {
		return nil, err
	}

	line := &models.CartLine{
		UserID:    userID,
		ProductID: productID,
		Size:      size,
		Color:     color,
		Quantity:  qty,
	}
	if err := s.store.UpsertCartLine(ctx, line); err != nil {
		return nil, err
	}

	util.CartMutationsTotal.WithLabelValues("add").Inc()
	s.logger.Info("Cart line upserted",
		zap.Int64("user_id", userID),
		zap.Int64("product_id", productID),
		zap.Int("quantity", line.Quantity))
	return line, nil
}

// UpdateQuantity sets an exact quantity on a cart line owned by the user
func (s *CartService) UpdateQuantity(ctx context.Context, userID, lineID int64, qty int) error {
	if qty <= 0 {
		return models.FieldErrors{"quantity": "must be positive"}
	}

	line, err := s.ownedLine(ctx, userID, lineID)
	if err != nil {
		return err
	}

	product, err := s.store.GetProduct(ctx, line.ProductID)
	if err != nil {
		return err
	}
	if err := validateVariant(product, line.Size, line.Color); err != nil {
		return err
	}

	if err := s.store.SetCartLineQuantity(ctx, lineID, qty); err != nil {
		return err
	}
	util.CartMutationsTotal.WithLabelValues("update").Inc()
	return nil
}

// RemoveItem deletes a cart line owned by the user
func (s *CartService) RemoveItem(ctx context.Context, userID, lineID int64) error {
	if _, err := s.ownedLine(ctx, userID, lineID); err != nil {
		return err
	}
	if err := s.store.DeleteCartLine(ctx, lineID); err != nil {
		return err
	}
	util.CartMutationsTotal.WithLabelValues("remove").Inc()
	return nil
}

// GetCart returns the user's cart with resolved prices and the snapshot
// total. Lines for deactivated products are flagged rather than dropped so
// the user can remove them; they do not count toward the total.
func (s *CartService) GetCart(ctx context.Context, userID int64) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetCart")
	defer span.End()

	lines, err := s.store.GetCartLines(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]CartLineView, len(lines))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)
	for idx := range lines {
		idx := idx
		g.Go(func() error {
			line := lines[idx]
			product, err := s.store.GetProduct(ctx, line.ProductID)
			if err != nil {
				return err
			}
			offer, err := s.store.GetActiveOffer(ctx, line.ProductID, now)
			if err != nil {
				return err
			}

			view := CartLineView{Line: line}
			if product.IsActive {
				view.UnitPrice = pricing.Resolve(product, offer, now)
				view.LineTotal = pricing.LineTotal(view.UnitPrice, line.Quantity)
			} else {
				view.Inactive = true
			}
			views[idx] = view
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var total int64
	for _, v := range views {
		total += v.LineTotal
	}
	return &CartView{Lines: views, Total: total}, nil
}

// SnapshotTotal sums resolved price times quantity over the user's cart
func (s *CartService) SnapshotTotal(ctx context.Context, userID int64) (int64, error) {
	view, err := s.GetCart(ctx, userID)
	if err != nil {
		return 0, err
	}
	return view.Total, nil
}

func (s *CartService) ownedLine(ctx context.Context, userID, lineID int64) (*models.CartLine, error) {
	line, err := s.store.GetCartLine(ctx, lineID)
	if err != nil {
		return nil, err
	}
	if line.UserID != userID {
		// Another user's line is indistinguishable from a missing one.
		return nil, models.ErrNotFound
	}
	return line, nil
}

func validateVariant(product *models.Product, size, color string) error {
	if !product.IsActive {
		return models.ErrProductInactive
	}
	fe := models.FieldErrors{}
	if len(product.Sizes) > 0 && !product.HasSize(size) {
		fe["size"] = "not available for this product"
	}
	if len(product.Colors) > 0 && !product.HasColor(color) {
		fe["color"] = "not available for this product"
	}
	if len(fe) > 0 {
		return fe
	}
	return nil
}
