package service

import (
	"context"
	"strings"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/pricing"
	"storefront-service/internal/store"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// CatalogService serves catalog reads, wishlist toggles and comments. Product
// and price reads go through the cache; stock shown to the user is always
// whatever the database row held when the cache entry was written, and the
// checkout path never trusts it.
type CatalogService struct {
	store           CatalogStore
	cache           CatalogCache
	productCacheTTL time.Duration
	priceCacheTTL   time.Duration
	logger          *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(st CatalogStore, cache CatalogCache, productTTL, priceTTL time.Duration) *CatalogService {
	return &CatalogService{
		store:           st,
		cache:           cache,
		productCacheTTL: productTTL,
		priceCacheTTL:   priceTTL,
		logger:          util.GetLogger(),
	}
}

// GetProduct retrieves a product, read-through cached.
func (s *CatalogService) GetProduct(ctx context.Context, productID int64) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.GetProduct")
	defer span.End()

	if s.cache != nil {
		cached, err := s.cache.GetProduct(ctx, productID)
		if err != nil {
			s.logger.Warn("Product cache read failed", zap.Int64("product_id", productID), zap.Error(err))
		} else if cached != nil {
			util.CatalogCacheHits.WithLabelValues("product").Inc()
			return cached, nil
		}
		util.CatalogCacheMisses.WithLabelValues("product").Inc()
	}

	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetProduct(ctx, product, s.productCacheTTL); err != nil {
			s.logger.Warn("Product cache write failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
	return product, nil
}

// ListProducts retrieves active catalog products for browsing
func (s *CatalogService) ListProducts(ctx context.Context, category string, featuredOnly bool) ([]models.Product, error) {
	return s.store.ListProducts(ctx, store.ProductFilter{
		Category:     category,
		FeaturedOnly: featuredOnly,
	})
}

// EffectivePrice returns the current effective unit price for a product. The
// result is cached with a short TTL; checkout resolves prices independently
// so a stale displayed price can never leak into an order.
func (s *CatalogService) EffectivePrice(ctx context.Context, productID int64) (int64, error) {
	ctx, span := util.StartSpan(ctx, "CatalogService.EffectivePrice")
	defer span.End()

	if s.cache != nil {
		price, ok, err := s.cache.GetEffectivePrice(ctx, productID)
		if err != nil {
			s.logger.Warn("Price cache read failed", zap.Int64("product_id", productID), zap.Error(err))
		} else if ok {
			util.CatalogCacheHits.WithLabelValues("price").Inc()
			return price, nil
		}
		util.CatalogCacheMisses.WithLabelValues("price").Inc()
	}

	now := time.Now()
	product, err := s.store.GetProduct(ctx, productID)
	if err != nil {
		return 0, err
	}
	offer, err := s.store.GetActiveOffer(ctx, productID, now)
	if err != nil {
		return 0, err
	}

	price := pricing.Resolve(product, offer, now)

	if s.cache != nil {
		if err := s.cache.SetEffectivePrice(ctx, productID, price, s.priceCacheTTL); err != nil {
			s.logger.Warn("Price cache write failed", zap.Int64("product_id", productID), zap.Error(err))
		}
	}
	return price, nil
}

// ToggleWishlist adds the product to the user's wishlist, or removes it when
// already present. Returns true when the product ended up on the list.
func (s *CatalogService) ToggleWishlist(ctx context.Context, userID, productID int64) (bool, error) {
	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		return false, err
	}

	existing, err := s.store.GetWishlistEntry(ctx, userID, productID)
	if err != nil {
		return false, err
	}
	if existing != nil {
		return false, s.store.DeleteWishlistEntry(ctx, userID, productID)
	}

	entry := &models.WishlistEntry{UserID: userID, ProductID: productID}
	return true, s.store.CreateWishlistEntry(ctx, entry)
}

// GetWishlist retrieves a user's wishlist
func (s *CatalogService) GetWishlist(ctx context.Context, userID int64) ([]models.WishlistEntry, error) {
	return s.store.GetWishlist(ctx, userID)
}

// SubmitComment records a customer request, suggestion or feedback message
func (s *CatalogService) SubmitComment(ctx context.Context, userID int64, commentType, subject, message string) (*models.Comment, error) {
	fe := models.FieldErrors{}
	switch commentType {
	case models.CommentTypeRequest, models.CommentTypeSuggestion, models.CommentTypeFeedback:
	default:
		fe["type"] = "must be request, suggestion or feedback"
	}
	if strings.TrimSpace(message) == "" {
		fe["message"] = "must not be empty"
	}
	if len(fe) > 0 {
		return nil, fe
	}

	comment := &models.Comment{
		UserID:  userID,
		Type:    commentType,
		Subject: strings.TrimSpace(subject),
		Message: strings.TrimSpace(message),
	}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// GetComments retrieves a user's own comments
func (s *CatalogService) GetComments(ctx context.Context, userID int64) ([]models.Comment, error) {
	return s.store.GetCommentsByUserID(ctx, userID)
}
