package models

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors shared across store, services and transport.
var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrProductInactive   = errors.New("product inactive")
	ErrInvalidVariant    = errors.New("invalid size/color variant")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrEmptyCart         = errors.New("cart is empty")
	// ErrConflictNoRetry marks the concurrent last-unit race. It is surfaced
	// to the caller as "item no longer available" and never retried, since an
	// automatic retry could double-charge once payment is attached.
	ErrConflictNoRetry = errors.New("item no longer available")
)

// ConflictError reports which product made a stock transaction fail, so the
// checkout boundary can attribute the failure to a cart line. Err is one of
// ErrInsufficientStock or ErrProductInactive.
type ConflictError struct {
	ProductID int64
	Err       error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("product %d: %v", e.ProductID, e.Err)
}

func (e *ConflictError) Unwrap() error { return e.Err }

// FieldErrors maps field names to validation failure reasons. Admin mutations
// return it so forms can highlight the offending fields.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for k := range fe {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, fe[k]))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Per-line checkout rejection reasons.
const (
	RejectOutOfStock      = "OUT_OF_STOCK"
	RejectProductInactive = "PRODUCT_INACTIVE"
	RejectInvalidVariant  = "INVALID_VARIANT"
)

// LineRejection identifies one cart line that failed checkout validation.
type LineRejection struct {
	ProductID int64  `json:"product_id"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
	Reason    string `json:"reason"`
}

// RejectionDetail is returned when a checkout attempt is rejected. The whole
// attempt is atomic: if this error is returned, nothing was persisted.
type RejectionDetail struct {
	Lines []LineRejection `json:"lines"`
}

func (r *RejectionDetail) Error() string {
	return fmt.Sprintf("order rejected: %d line(s) failed validation", len(r.Lines))
}
