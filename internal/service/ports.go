package service

import (
	"context"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
)

// Storage interfaces narrow *store.Store to what each service touches, so
// tests can substitute in-memory fakes.

// CatalogStore serves catalog reads and the wishlist/comment extras.
type CatalogStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error)
	GetActiveOffer(ctx context.Context, productID int64, at time.Time) (*models.Offer, error)
	GetWishlist(ctx context.Context, userID int64) ([]models.WishlistEntry, error)
	GetWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error)
	CreateWishlistEntry(ctx context.Context, entry *models.WishlistEntry) error
	DeleteWishlistEntry(ctx context.Context, userID, productID int64) error
	CreateComment(ctx context.Context, c *models.Comment) error
	GetCommentsByUserID(ctx context.Context, userID int64) ([]models.Comment, error)
}

// CartStore serves cart line mutations and the reads they validate against.
type CartStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetActiveOffer(ctx context.Context, productID int64, at time.Time) (*models.Offer, error)
	UpsertCartLine(ctx context.Context, line *models.CartLine) error
	GetCartLine(ctx context.Context, lineID int64) (*models.CartLine, error)
	GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	SetCartLineQuantity(ctx context.Context, lineID int64, quantity int) error
	DeleteCartLine(ctx context.Context, lineID int64) error
}

// OrderStore serves checkout and order history.
type OrderStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetActiveOffer(ctx context.Context, productID int64, at time.Time) (*models.Offer, error)
	GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error)
	PlaceOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// AdminStore serves the privileged back-office mutations.
type AdminStore interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	SetProductActive(ctx context.Context, productID int64, active bool) error
	AdjustStockTx(ctx context.Context, productID int64, delta int) error
	GetOffer(ctx context.Context, id int64) (*models.Offer, error)
	ListOffers(ctx context.Context) ([]models.Offer, error)
	CreateOfferTx(ctx context.Context, o *models.Offer) (int64, error)
	ActivateOfferTx(ctx context.Context, offerID int64) (int64, error)
	DeactivateOffer(ctx context.Context, offerID int64) error
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	ListOrders(ctx context.Context, status string) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, orderID int64, status string) error
	ListLowStockProducts(ctx context.Context, threshold int) ([]models.Product, error)
	ListUnansweredComments(ctx context.Context) ([]models.Comment, error)
	GetComment(ctx context.Context, id int64) (*models.Comment, error)
	RespondToComment(ctx context.Context, commentID, adminID int64, response string) error
}

// EventSink publishes domain events; satisfied by *broker.EventPublisher.
type EventSink interface {
	PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error
	PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error
	PublishProductUpdated(ctx context.Context, event *models.ProductUpdatedEvent) error
	PublishOfferActivated(ctx context.Context, event *models.OfferActivatedEvent) error
	PublishOfferDeactivated(ctx context.Context, event *models.OfferDeactivatedEvent) error
}

// CatalogCache is the read-through cache in front of catalog queries;
// satisfied by *redisclient.Client.
type CatalogCache interface {
	GetProduct(ctx context.Context, productID int64) (*models.Product, error)
	SetProduct(ctx context.Context, product *models.Product, ttl time.Duration) error
	GetEffectivePrice(ctx context.Context, productID int64) (int64, bool, error)
	SetEffectivePrice(ctx context.Context, productID, price int64, ttl time.Duration) error
	InvalidateProduct(ctx context.Context, productID int64) error
}
