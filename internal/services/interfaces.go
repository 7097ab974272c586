package services

import (
	"context"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

// Type aliases expose domain models to the services package without reversing dependency direction.
type (
	Order           = domain.Order
	OrderStatus     = domain.OrderStatus
	CartItem        = domain.CartItem
	Product         = domain.Product
	Category        = domain.Category
	AppliedDiscount = domain.AppliedDiscount
	DiscountCode    = domain.DiscountCode
	DiscountType    = domain.DiscountType
	PackagingType   = domain.PackagingType
	DayConfig       = domain.DayConfig
	EventSlot       = domain.EventSlot
	Settings        = domain.Settings
)

// AdmissionService composes the capacity, discount and packaging engine for checkout and order placement.
type AdmissionService interface {
	// Quote previews capacity, discounts and packaging for a cart. The result is advisory.
	Quote(ctx context.Context, cmd QuoteCommand) (Quote, error)
	// PlaceOrder re-runs every check inside a transaction and persists the order when admitted.
	PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (Order, error)
	// ValidateDiscountCode validates a single code against the cart using fresh snapshots.
	ValidateDiscountCode(ctx context.Context, cmd ValidateDiscountCommand) (DiscountResult, error)
	// EventDates lists admissible dates for an event product.
	EventDates(ctx context.Context, productID string) ([]string, error)
	// DailyLoad reports per-category load against limits for one date.
	DailyLoad(ctx context.Context, date string, view LoadView) (DailyLoad, error)
}

// OrderEventPublisher publishes order domain events for downstream consumers.
type OrderEventPublisher interface {
	PublishOrderEvent(ctx context.Context, event OrderEvent) error
}
