package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Supported languages for localized fields.
const (
	LangEnglish = "en"
	LangKannada = "kn"
)

// LocalizedText maps a language code to a translated string. It is persisted
// as a single JSONB column so new languages need no schema change.
type LocalizedText map[string]string

// Get returns the text for lang, falling back to English.
func (lt LocalizedText) Get(lang string) string {
	if v, ok := lt[lang]; ok && v != "" {
		return v
	}
	return lt[LangEnglish]
}

func (lt LocalizedText) Value() (driver.Value, error) {
	if lt == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(lt)
}

func (lt *LocalizedText) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*lt = LocalizedText{}
		return nil
	case []byte:
		return json.Unmarshal(v, lt)
	case string:
		return json.Unmarshal([]byte(v), lt)
	default:
		return fmt.Errorf("cannot scan %T into LocalizedText", src)
	}
}

// User identifies a caller. Authentication lives in the presentation layer;
// the core only needs identity and role.
type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Email     string    `db:"email" json:"email"`
	IsAdmin   bool      `db:"is_admin" json:"is_admin"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Product is a catalog item. Prices are in minor currency units (paise).
type Product struct {
	ID            int64          `db:"id" json:"id"`
	Name          LocalizedText  `db:"name" json:"name"`
	Description   LocalizedText  `db:"description" json:"description"`
	Price         int64          `db:"price" json:"price"`
	DiscountPrice *int64         `db:"discount_price" json:"discount_price,omitempty"`
	Category      string         `db:"category" json:"category"`
	Subcategory   string         `db:"subcategory" json:"subcategory,omitempty"`
	Sizes         pq.StringArray `db:"sizes" json:"sizes"`
	Colors        pq.StringArray `db:"colors" json:"colors"`
	Stock         int            `db:"stock" json:"stock"`
	Images        pq.StringArray `db:"images" json:"images"`
	IsActive      bool           `db:"is_active" json:"is_active"`
	IsFeatured    bool           `db:"is_featured" json:"is_featured"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// HasSize reports whether the size is in the product's available set.
func (p *Product) HasSize(size string) bool {
	for _, s := range p.Sizes {
		if s == size {
			return true
		}
	}
	return false
}

// HasColor reports whether the color is in the product's available set.
func (p *Product) HasColor(color string) bool {
	for _, c := range p.Colors {
		if c == color {
			return true
		}
	}
	return false
}

// Offer is a time-bounded percentage discount attached to one product.
// At most one offer per product is active at any instant.
type Offer struct {
	ID          int64           `db:"id" json:"id"`
	ProductID   int64           `db:"product_id" json:"product_id"`
	Title       LocalizedText   `db:"title" json:"title"`
	Description LocalizedText   `db:"description" json:"description"`
	DiscountPct decimal.Decimal `db:"discount_pct" json:"discount_pct"`
	IsActive    bool            `db:"is_active" json:"is_active"`
	StartsAt    time.Time       `db:"starts_at" json:"starts_at"`
	EndsAt      time.Time       `db:"ends_at" json:"ends_at"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// InWindow reports whether at falls in [StartsAt, EndsAt).
func (o *Offer) InWindow(at time.Time) bool {
	return !at.Before(o.StartsAt) && at.Before(o.EndsAt)
}

// CartLine is one (user, product, size, color) entry in a cart. Re-adding the
// same combination increments Quantity instead of creating a second row.
type CartLine struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	Size      string    `db:"size" json:"size"`
	Color     string    `db:"color" json:"color"`
	Quantity  int       `db:"quantity" json:"quantity"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Order statuses. Transitions are forward-only; cancelled is reachable from
// placed and processing only.
const (
	OrderStatusPlaced     = "placed"
	OrderStatusProcessing = "processing"
	OrderStatusShipped    = "shipped"
	OrderStatusDelivered  = "delivered"
	OrderStatusCancelled  = "cancelled"
)

// ValidStatusTransition reports whether an order may move from one status to
// another. History is immutable; only the status field advances.
func ValidStatusTransition(from, to string) bool {
	switch from {
	case OrderStatusPlaced:
		return to == OrderStatusProcessing || to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusProcessing:
		return to == OrderStatusShipped || to == OrderStatusCancelled
	case OrderStatusShipped:
		return to == OrderStatusDelivered
	default:
		return false
	}
}

// ShippingAddress is captured at checkout and frozen on the order.
type ShippingAddress struct {
	Name    string `db:"shipping_name" json:"name"`
	Phone   string `db:"shipping_phone" json:"phone"`
	Address string `db:"shipping_address" json:"address"`
	City    string `db:"shipping_city" json:"city"`
	State   string `db:"shipping_state" json:"state"`
	Pincode string `db:"shipping_pincode" json:"pincode"`
}

// Order is immutable once committed except for status transitions.
type Order struct {
	ID          int64  `db:"id" json:"id"`
	UserID      int64  `db:"user_id" json:"user_id"`
	OrderNumber string `db:"order_number" json:"order_number"`
	TotalAmount int64  `db:"total_amount" json:"total_amount"`
	Status      string `db:"status" json:"status"`
	ShippingAddress
	PaymentMethod string    `db:"payment_method" json:"payment_method"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// OrderItem snapshots a cart line at commit time. UnitPrice is the resolved
// price frozen at the start of checkout, never recomputed.
type OrderItem struct {
	ID        int64  `db:"id" json:"id"`
	OrderID   int64  `db:"order_id" json:"order_id"`
	ProductID int64  `db:"product_id" json:"product_id"`
	Quantity  int    `db:"quantity" json:"quantity"`
	UnitPrice int64  `db:"unit_price" json:"unit_price"`
	Size      string `db:"size" json:"size"`
	Color     string `db:"color" json:"color"`
}

// WishlistEntry is unique per (user, product) and carries no quantity.
type WishlistEntry struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	ProductID int64     `db:"product_id" json:"product_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Comment types.
const (
	CommentTypeRequest    = "request"
	CommentTypeSuggestion = "suggestion"
	CommentTypeFeedback   = "feedback"
)

// Comment is a customer request, suggestion or feedback message, optionally
// answered by an admin.
type Comment struct {
	ID            int64      `db:"id" json:"id"`
	UserID        int64      `db:"user_id" json:"user_id"`
	Type          string     `db:"comment_type" json:"type"`
	Subject       string     `db:"subject" json:"subject"`
	Message       string     `db:"message" json:"message"`
	IsAnswered    bool       `db:"is_answered" json:"is_answered"`
	AdminResponse *string    `db:"admin_response" json:"admin_response,omitempty"`
	RespondedBy   *int64     `db:"responded_by" json:"responded_by,omitempty"`
	RespondedAt   *time.Time `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
}

// ProcessedEvent records consumed event IDs for idempotent workers.
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
