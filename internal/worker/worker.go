package worker

import (
	"context"
	"log"

	"storefront-service/internal/broker"
	"storefront-service/internal/models"
	"storefront-service/internal/util"

	"go.uber.org/zap"
)

// WorkerStore is what the cache worker needs from persistence.
type WorkerStore interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

// Invalidator drops cached catalog entries; satisfied by *redisclient.Client.
type Invalidator interface {
	InvalidateProduct(ctx context.Context, productID int64) error
}

// CacheWorker consumes order and catalog events, invalidates the redis
// catalog cache for touched products and warns when committed orders leave a
// product low on stock. Consumption is idempotent through processed_events.
type CacheWorker struct {
	consumer          *broker.Consumer
	eventHandler      *broker.EventHandler
	store             WorkerStore
	cache             Invalidator
	lowStockThreshold int
	logger            *zap.Logger
}

// NewCacheWorker creates a worker bound to one topic consumer
func NewCacheWorker(consumer *broker.Consumer, store WorkerStore, cache Invalidator, lowStockThreshold int) *CacheWorker {
	w := &CacheWorker{
		consumer:          consumer,
		store:             store,
		cache:             cache,
		lowStockThreshold: lowStockThreshold,
		logger:            util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnOrderPlaced(w.handleOrderPlaced)
	eventHandler.OnProductUpdated(w.handleProductUpdated)
	eventHandler.OnOfferActivated(w.handleOfferActivated)
	eventHandler.OnOfferDeactivated(w.handleOfferDeactivated)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *CacheWorker) Start(ctx context.Context) error {
	log.Println("Starting cache worker...")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *CacheWorker) Stop() error {
	log.Println("Stopping cache worker...")
	return w.consumer.Close()
}

func (w *CacheWorker) handleOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	done, err := w.alreadyProcessed(ctx, event.EventID)
	if err != nil || done {
		return err
	}

	for _, item := range event.Items {
		w.invalidate(ctx, item.ProductID)

		product, err := w.store.GetProduct(ctx, item.ProductID)
		if err != nil {
			w.logger.Error("Failed to load product for low-stock check",
				zap.Int64("product_id", item.ProductID), zap.Error(err))
			continue
		}
		if product.Stock <= w.lowStockThreshold {
			w.logger.Warn("Product low on stock",
				zap.Int64("product_id", product.ID),
				zap.Int("stock", product.Stock),
				zap.Int("threshold", w.lowStockThreshold))
		}
	}

	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *CacheWorker) handleProductUpdated(ctx context.Context, event *models.ProductUpdatedEvent) error {
	done, err := w.alreadyProcessed(ctx, event.EventID)
	if err != nil || done {
		return err
	}
	w.invalidate(ctx, event.ProductID)
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *CacheWorker) handleOfferActivated(ctx context.Context, event *models.OfferActivatedEvent) error {
	done, err := w.alreadyProcessed(ctx, event.EventID)
	if err != nil || done {
		return err
	}
	w.invalidate(ctx, event.ProductID)
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *CacheWorker) handleOfferDeactivated(ctx context.Context, event *models.OfferDeactivatedEvent) error {
	done, err := w.alreadyProcessed(ctx, event.EventID)
	if err != nil || done {
		return err
	}
	w.invalidate(ctx, event.ProductID)
	return w.store.MarkEventProcessed(ctx, event.EventID, event.EventType)
}

func (w *CacheWorker) alreadyProcessed(ctx context.Context, eventID string) (bool, error) {
	processed, err := w.store.IsEventProcessed(ctx, eventID)
	if err != nil {
		return false, err
	}
	if processed {
		w.logger.Info("Event already processed", zap.String("event_id", eventID))
	}
	return processed, nil
}

func (w *CacheWorker) invalidate(ctx context.Context, productID int64) {
	if w.cache == nil {
		return
	}
	if err := w.cache.InvalidateProduct(ctx, productID); err != nil {
		w.logger.Error("Failed to invalidate product cache",
			zap.Int64("product_id", productID), zap.Error(err))
	}
}
