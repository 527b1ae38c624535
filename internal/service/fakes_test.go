package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"storefront-service/internal/models"
	"storefront-service/internal/store"
)

// fakeStore is an in-memory stand-in for *store.Store. PlaceOrderTx and
// AdjustStockTx hold the mutex for the whole operation, mirroring the
// serialization the database row locks provide.
type fakeStore struct {
	mu sync.Mutex

	users    map[int64]*models.User
	products map[int64]*models.Product
	offers   map[int64]*models.Offer
	lines    map[int64]*models.CartLine
	orders   map[int64]*models.Order
	items    map[int64][]models.OrderItem
	wishlist map[int64]*models.WishlistEntry
	comments map[int64]*models.Comment

	nextLineID    int64
	nextOrderID   int64
	nextProductID int64
	nextOfferID   int64
	nextEntryID   int64
	nextCommentID int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:    make(map[int64]*models.User),
		products: make(map[int64]*models.Product),
		offers:   make(map[int64]*models.Offer),
		lines:    make(map[int64]*models.CartLine),
		orders:   make(map[int64]*models.Order),
		items:    make(map[int64][]models.OrderItem),
		wishlist: make(map[int64]*models.WishlistEntry),
		comments: make(map[int64]*models.Comment),
	}
}

func (f *fakeStore) addUser(u models.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := u
	f.users[u.ID] = &cp
}

func (f *fakeStore) addProduct(p models.Product) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == 0 {
		f.nextProductID++
		p.ID = f.nextProductID
	} else if p.ID > f.nextProductID {
		f.nextProductID = p.ID
	}
	cp := p
	f.products[p.ID] = &cp
}

func (f *fakeStore) addOffer(o models.Offer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.ID == 0 {
		f.nextOfferID++
		o.ID = f.nextOfferID
	} else if o.ID > f.nextOfferID {
		f.nextOfferID = o.ID
	}
	cp := o
	f.offers[o.ID] = &cp
}

func (f *fakeStore) stockOf(productID int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[productID].Stock
}

func (f *fakeStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListProducts(ctx context.Context, filter store.ProductFilter) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		if !filter.IncludeInactive && !p.IsActive {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.FeaturedOnly && !p.IsFeatured {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) CreateProduct(ctx context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextProductID++
	p.ID = f.nextProductID
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.products[p.ID]
	if !ok {
		return models.ErrNotFound
	}
	stock := existing.Stock
	cp := *p
	cp.Stock = stock
	cp.UpdatedAt = time.Now()
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeStore) SetProductActive(ctx context.Context, productID int64, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return models.ErrNotFound
	}
	p.IsActive = active
	return nil
}

func (f *fakeStore) AdjustStockTx(ctx context.Context, productID int64, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return models.ErrNotFound
	}
	if p.Stock+delta < 0 {
		return models.ErrInsufficientStock
	}
	p.Stock += delta
	return nil
}

func (f *fakeStore) GetOffer(ctx context.Context, id int64) (*models.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) ListOffers(ctx context.Context) ([]models.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Offer
	for _, o := range f.offers {
		out = append(out, *o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) GetActiveOffer(ctx context.Context, productID int64, at time.Time) (*models.Offer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.offers {
		if o.ProductID == productID && o.IsActive && o.InWindow(at) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateOfferTx(ctx context.Context, o *models.Offer) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var previousID int64
	for _, existing := range f.offers {
		if existing.ProductID == o.ProductID && existing.IsActive {
			existing.IsActive = false
			previousID = existing.ID
		}
	}
	f.nextOfferID++
	o.ID = f.nextOfferID
	o.IsActive = true
	o.CreatedAt = time.Now()
	cp := *o
	f.offers[o.ID] = &cp
	return previousID, nil
}

func (f *fakeStore) ActivateOfferTx(ctx context.Context, offerID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[offerID]
	if !ok {
		return 0, models.ErrNotFound
	}
	var previousID int64
	for _, existing := range f.offers {
		if existing.ProductID == o.ProductID && existing.IsActive && existing.ID != offerID {
			existing.IsActive = false
			previousID = existing.ID
		}
	}
	o.IsActive = true
	return previousID, nil
}

func (f *fakeStore) DeactivateOffer(ctx context.Context, offerID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.offers[offerID]
	if !ok {
		return models.ErrNotFound
	}
	o.IsActive = false
	return nil
}

func (f *fakeStore) UpsertCartLine(ctx context.Context, line *models.CartLine) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.lines {
		if existing.UserID == line.UserID && existing.ProductID == line.ProductID &&
			existing.Size == line.Size && existing.Color == line.Color {
			existing.Quantity += line.Quantity
			*line = *existing
			return nil
		}
	}
	f.nextLineID++
	line.ID = f.nextLineID
	line.CreatedAt = time.Now()
	line.UpdatedAt = line.CreatedAt
	cp := *line
	f.lines[line.ID] = &cp
	return nil
}

func (f *fakeStore) GetCartLine(ctx context.Context, lineID int64) (*models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f *fakeStore) GetCartLines(ctx context.Context, userID int64) ([]models.CartLine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.CartLine
	for _, l := range f.lines {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) SetCartLineQuantity(ctx context.Context, lineID int64, quantity int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.lines[lineID]
	if !ok {
		return models.ErrNotFound
	}
	l.Quantity = quantity
	return nil
}

func (f *fakeStore) DeleteCartLine(ctx context.Context, lineID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.lines[lineID]; !ok {
		return models.ErrNotFound
	}
	delete(f.lines, lineID)
	return nil
}

func (f *fakeStore) PlaceOrderTx(ctx context.Context, order *models.Order, items []models.OrderItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	required := make(map[int64]int)
	for _, item := range items {
		required[item.ProductID] += item.Quantity
	}

	ids := make([]int64, 0, len(required))
	for id := range required {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		p, ok := f.products[id]
		if !ok {
			return models.ErrNotFound
		}
		if !p.IsActive {
			return &models.ConflictError{ProductID: id, Err: models.ErrProductInactive}
		}
		if p.Stock < required[id] {
			return &models.ConflictError{ProductID: id, Err: models.ErrInsufficientStock}
		}
	}

	for _, id := range ids {
		f.products[id].Stock -= required[id]
	}

	f.nextOrderID++
	order.ID = f.nextOrderID
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	cp := *order
	f.orders[order.ID] = &cp

	stored := make([]models.OrderItem, len(items))
	for i := range items {
		items[i].ID = int64(i + 1)
		items[i].OrderID = order.ID
		stored[i] = items[i]
	}
	f.items[order.ID] = stored

	for id, l := range f.lines {
		if l.UserID == order.UserID {
			delete(f.lines, id)
		}
	}
	return nil
}

func (f *fakeStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeStore) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) ListOrders(ctx context.Context, status string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Order
	for _, o := range f.orders {
		if status == "" || o.Status == status {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (f *fakeStore) GetOrderItemsByOrderID(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.OrderItem(nil), f.items[orderID]...), nil
}

func (f *fakeStore) UpdateOrderStatus(ctx context.Context, orderID int64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[orderID]
	if !ok {
		return models.ErrNotFound
	}
	o.Status = status
	o.UpdatedAt = time.Now()
	return nil
}

func (f *fakeStore) ListLowStockProducts(ctx context.Context, threshold int) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		if p.IsActive && p.Stock <= threshold {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Stock != out[j].Stock {
			return out[i].Stock < out[j].Stock
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (f *fakeStore) GetWishlist(ctx context.Context, userID int64) ([]models.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.WishlistEntry
	for _, e := range f.wishlist {
		if e.UserID == userID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) GetWishlistEntry(ctx context.Context, userID, productID int64) (*models.WishlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.wishlist {
		if e.UserID == userID && e.ProductID == productID {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateWishlistEntry(ctx context.Context, entry *models.WishlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.wishlist {
		if e.UserID == entry.UserID && e.ProductID == entry.ProductID {
			return nil
		}
	}
	f.nextEntryID++
	entry.ID = f.nextEntryID
	entry.CreatedAt = time.Now()
	cp := *entry
	f.wishlist[entry.ID] = &cp
	return nil
}

func (f *fakeStore) DeleteWishlistEntry(ctx context.Context, userID, productID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, e := range f.wishlist {
		if e.UserID == userID && e.ProductID == productID {
			delete(f.wishlist, id)
			return nil
		}
	}
	return nil
}

func (f *fakeStore) CreateComment(ctx context.Context, c *models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextCommentID++
	c.ID = f.nextCommentID
	c.CreatedAt = time.Now()
	cp := *c
	f.comments[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetComment(ctx context.Context, id int64) (*models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) GetCommentsByUserID(ctx context.Context, userID int64) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for _, c := range f.comments {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) ListUnansweredComments(ctx context.Context) ([]models.Comment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Comment
	for _, c := range f.comments {
		if !c.IsAnswered {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeStore) RespondToComment(ctx context.Context, commentID, adminID int64, response string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.comments[commentID]
	if !ok {
		return models.ErrNotFound
	}
	now := time.Now()
	c.IsAnswered = true
	c.AdminResponse = &response
	c.RespondedBy = &adminID
	c.RespondedAt = &now
	return nil
}

// fakeSink records published events instead of writing to a broker.
type fakeSink struct {
	mu             sync.Mutex
	orderPlaced    []*models.OrderPlacedEvent
	statusChanged  []*models.OrderStatusChangedEvent
	productUpdated []*models.ProductUpdatedEvent
	offerActivated []*models.OfferActivatedEvent
	offerDropped   []*models.OfferDeactivatedEvent
}

func (f *fakeSink) PublishOrderPlaced(ctx context.Context, event *models.OrderPlacedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orderPlaced = append(f.orderPlaced, event)
	return nil
}

func (f *fakeSink) PublishOrderStatusChanged(ctx context.Context, event *models.OrderStatusChangedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusChanged = append(f.statusChanged, event)
	return nil
}

func (f *fakeSink) PublishProductUpdated(ctx context.Context, event *models.ProductUpdatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productUpdated = append(f.productUpdated, event)
	return nil
}

func (f *fakeSink) PublishOfferActivated(ctx context.Context, event *models.OfferActivatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offerActivated = append(f.offerActivated, event)
	return nil
}

func (f *fakeSink) PublishOfferDeactivated(ctx context.Context, event *models.OfferDeactivatedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offerDropped = append(f.offerDropped, event)
	return nil
}
