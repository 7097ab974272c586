package domain

import (
	"maps"
	"slices"
	"time"
)

// OrderStatus enumerates the order lifecycle.
type OrderStatus string

const (
	OrderStatusCreated     OrderStatus = "created"
	OrderStatusConfirmed   OrderStatus = "confirmed"
	OrderStatusPreparing   OrderStatus = "preparing"
	OrderStatusReady       OrderStatus = "ready"
	OrderStatusOnWay       OrderStatus = "on_way"
	OrderStatusDelivered   OrderStatus = "delivered"
	OrderStatusNotPickedUp OrderStatus = "not_picked_up"
	OrderStatusCancelled   OrderStatus = "cancelled"
)

// DiscountType selects how a discount code value is interpreted.
type DiscountType string

const (
	// DiscountTypePercentage treats Value as whole percent of the qualifying subtotal.
	DiscountTypePercentage DiscountType = "percentage"
	// DiscountTypeFixed treats Value as an absolute amount, capped by the qualifying subtotal.
	DiscountTypeFixed DiscountType = "fixed"
)

// Product is the catalog entry as configured by the back-office.
type Product struct {
	ID                 string
	Name               string
	Price              int64
	Category           string
	Workload           float64
	WorkloadOverhead   float64
	CapacityCategoryID string
	Volume             float64
	IsEventProduct     bool
	LeadTimeDays       int
	NoPackaging        bool
}

// CartItem is a product snapshot plus quantity. The snapshot keeps historical orders
// computable after the live product is edited or deleted.
type CartItem struct {
	Product
	Quantity int
}

// LineTotal returns price multiplied by quantity.
func (i CartItem) LineTotal() int64 {
	if i.Quantity <= 0 {
		return 0
	}
	return i.Price * int64(i.Quantity)
}

// AppliedDiscount records a discount code and the amount it contributed to an order.
type AppliedDiscount struct {
	Code   string
	Amount int64
}

// Order is a placed catering order. Orders are never removed, only moved to a terminal status.
type Order struct {
	ID               string
	Items            []CartItem
	Status           OrderStatus
	DeliveryDate     string
	AppliedDiscounts []AppliedDiscount
	PackagingFee     int64
	DeliveryFee      int64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Subtotal sums line totals of every item.
func (o Order) Subtotal() int64 {
	var total int64
	for _, item := range o.Items {
		total += item.LineTotal()
	}
	return total
}

// Category groups products for capacity planning and discount scoping.
type Category struct {
	ID    string
	Name  string
	Order int
}

// DiscountCode is a back-office configured promotion code.
type DiscountCode struct {
	Code                 string
	Type                 DiscountType
	Value                int64
	ValidFrom            string
	ValidTo              string
	MinOrderValue        int64
	MaxUsage             int
	Enabled              bool
	ApplicableCategories []string
	IsEventOnly          bool
}

// PackagingType is a box that can be charged for packing an order.
type PackagingType struct {
	ID     string
	Name   string
	Volume float64
	Price  int64
}

// DayConfig overrides opening and capacity for a single date.
type DayConfig struct {
	Date              string
	IsOpen            bool
	CapacityOverrides map[string]float64
}

// EventSlot opens a date for event-only products with its own capacity lane.
type EventSlot struct {
	Date              string
	CapacityOverrides map[string]float64
}

// Settings is the snapshot of back-office capacity and packaging configuration.
type Settings struct {
	Categories        []Category
	DefaultCapacities map[string]float64
	DayConfigs        []DayConfig
	EventSlots        []EventSlot
	PackagingTypes    []PackagingType
	PackagingFreeFrom int64
}

// Clone returns a deep copy so callers can hand the snapshot to concurrent readers.
func (s Settings) Clone() Settings {
	out := Settings{
		Categories:        slices.Clone(s.Categories),
		DefaultCapacities: maps.Clone(s.DefaultCapacities),
		PackagingTypes:    slices.Clone(s.PackagingTypes),
		PackagingFreeFrom: s.PackagingFreeFrom,
	}
	if s.DayConfigs != nil {
		out.DayConfigs = make([]DayConfig, len(s.DayConfigs))
		for i, cfg := range s.DayConfigs {
			cfg.CapacityOverrides = maps.Clone(cfg.CapacityOverrides)
			out.DayConfigs[i] = cfg
		}
	}
	if s.EventSlots != nil {
		out.EventSlots = make([]EventSlot, len(s.EventSlots))
		for i, slot := range s.EventSlots {
			slot.CapacityOverrides = maps.Clone(slot.CapacityOverrides)
			out.EventSlots[i] = slot
		}
	}
	return out
}

// CategoryByID returns the category with the given id.
func (s Settings) CategoryByID(id string) (Category, bool) {
	for _, c := range s.Categories {
		if c.ID == id {
			return c, true
		}
	}
	return Category{}, false
}
