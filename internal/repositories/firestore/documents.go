package firestore

import (
	"time"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

type categoryDocument struct {
	ID    string `firestore:"id"`
	Name  string `firestore:"name"`
	Order int    `firestore:"order"`
}

type dayConfigDocument struct {
	Date              string             `firestore:"date"`
	IsOpen            bool               `firestore:"isOpen"`
	CapacityOverrides map[string]float64 `firestore:"capacityOverrides,omitempty"`
}

type eventSlotDocument struct {
	Date              string             `firestore:"date"`
	CapacityOverrides map[string]float64 `firestore:"capacityOverrides,omitempty"`
}

type packagingDocument struct {
	ID     string  `firestore:"id"`
	Name   string  `firestore:"name"`
	Volume float64 `firestore:"volume"`
	Price  int64   `firestore:"price"`
}

type settingsDocument struct {
	Categories        []categoryDocument  `firestore:"categories"`
	DefaultCapacities map[string]float64  `firestore:"defaultCapacities"`
	DayConfigs        []dayConfigDocument `firestore:"dayConfigs"`
	EventSlots        []eventSlotDocument `firestore:"eventSlots"`
	PackagingTypes    []packagingDocument `firestore:"packagingTypes"`
	PackagingFreeFrom int64               `firestore:"packagingFreeFrom"`
}

type productDocument struct {
	Name               string  `firestore:"name"`
	Price              int64   `firestore:"price"`
	Category           string  `firestore:"category"`
	Workload           float64 `firestore:"workload"`
	WorkloadOverhead   float64 `firestore:"workloadOverhead"`
	CapacityCategoryID string  `firestore:"capacityCategoryId,omitempty"`
	Volume             float64 `firestore:"volume"`
	IsEventProduct     bool    `firestore:"isEventProduct"`
	LeadTimeDays       int     `firestore:"leadTimeDays"`
	NoPackaging        bool    `firestore:"noPackaging"`
}

type discountCodeDocument struct {
	Code                 string   `firestore:"code"`
	Type                 string   `firestore:"type"`
	Value                int64    `firestore:"value"`
	ValidFrom            string   `firestore:"validFrom,omitempty"`
	ValidTo              string   `firestore:"validTo,omitempty"`
	MinOrderValue        int64    `firestore:"minOrderValue"`
	MaxUsage             int      `firestore:"maxUsage"`
	Enabled              bool     `firestore:"enabled"`
	ApplicableCategories []string `firestore:"applicableCategories,omitempty"`
	IsEventOnly          bool     `firestore:"isEventOnly"`
}

// orderItemDocument stores the product snapshot taken when the order was placed.
type orderItemDocument struct {
	ProductID string          `firestore:"productId"`
	Product   productDocument `firestore:"product"`
	Quantity  int             `firestore:"quantity"`
}

type appliedDiscountDocument struct {
	Code   string `firestore:"code"`
	Amount int64  `firestore:"amount"`
}

type orderDocument struct {
	Items            []orderItemDocument       `firestore:"items"`
	Status           string                    `firestore:"status"`
	DeliveryDate     string                    `firestore:"deliveryDate"`
	AppliedDiscounts []appliedDiscountDocument `firestore:"appliedDiscounts"`
	// HasDiscounts backs the discount-usage ledger query.
	HasDiscounts bool      `firestore:"hasDiscounts"`
	PackagingFee int64     `firestore:"packagingFee"`
	DeliveryFee  int64     `firestore:"deliveryFee"`
	CreatedAt    time.Time `firestore:"createdAt"`
	UpdatedAt    time.Time `firestore:"updatedAt"`
}

func (d settingsDocument) toDomain() domain.Settings {
	out := domain.Settings{
		DefaultCapacities: d.DefaultCapacities,
		PackagingFreeFrom: d.PackagingFreeFrom,
	}
	for _, c := range d.Categories {
		out.Categories = append(out.Categories, domain.Category{ID: c.ID, Name: c.Name, Order: c.Order})
	}
	for _, c := range d.DayConfigs {
		out.DayConfigs = append(out.DayConfigs, domain.DayConfig{Date: c.Date, IsOpen: c.IsOpen, CapacityOverrides: c.CapacityOverrides})
	}
	for _, s := range d.EventSlots {
		out.EventSlots = append(out.EventSlots, domain.EventSlot{Date: s.Date, CapacityOverrides: s.CapacityOverrides})
	}
	for _, p := range d.PackagingTypes {
		out.PackagingTypes = append(out.PackagingTypes, domain.PackagingType{ID: p.ID, Name: p.Name, Volume: p.Volume, Price: p.Price})
	}
	return out
}

func settingsToDocument(s domain.Settings) settingsDocument {
	doc := settingsDocument{
		DefaultCapacities: s.DefaultCapacities,
		PackagingFreeFrom: s.PackagingFreeFrom,
	}
	for _, c := range s.Categories {
		doc.Categories = append(doc.Categories, categoryDocument{ID: c.ID, Name: c.Name, Order: c.Order})
	}
	for _, c := range s.DayConfigs {
		doc.DayConfigs = append(doc.DayConfigs, dayConfigDocument{Date: c.Date, IsOpen: c.IsOpen, CapacityOverrides: c.CapacityOverrides})
	}
	for _, e := range s.EventSlots {
		doc.EventSlots = append(doc.EventSlots, eventSlotDocument{Date: e.Date, CapacityOverrides: e.CapacityOverrides})
	}
	for _, p := range s.PackagingTypes {
		doc.PackagingTypes = append(doc.PackagingTypes, packagingDocument{ID: p.ID, Name: p.Name, Volume: p.Volume, Price: p.Price})
	}
	return doc
}

func (d productDocument) toDomain(id string) domain.Product {
	return domain.Product{
		ID:                 id,
		Name:               d.Name,
		Price:              d.Price,
		Category:           d.Category,
		Workload:           d.Workload,
		WorkloadOverhead:   d.WorkloadOverhead,
		CapacityCategoryID: d.CapacityCategoryID,
		Volume:             d.Volume,
		IsEventProduct:     d.IsEventProduct,
		LeadTimeDays:       d.LeadTimeDays,
		NoPackaging:        d.NoPackaging,
	}
}

func productToDocument(p domain.Product) productDocument {
	return productDocument{
		Name:               p.Name,
		Price:              p.Price,
		Category:           p.Category,
		Workload:           p.Workload,
		WorkloadOverhead:   p.WorkloadOverhead,
		CapacityCategoryID: p.CapacityCategoryID,
		Volume:             p.Volume,
		IsEventProduct:     p.IsEventProduct,
		LeadTimeDays:       p.LeadTimeDays,
		NoPackaging:        p.NoPackaging,
	}
}

func (d discountCodeDocument) toDomain() domain.DiscountCode {
	return domain.DiscountCode{
		Code:                 d.Code,
		Type:                 domain.DiscountType(d.Type),
		Value:                d.Value,
		ValidFrom:            d.ValidFrom,
		ValidTo:              d.ValidTo,
		MinOrderValue:        d.MinOrderValue,
		MaxUsage:             d.MaxUsage,
		Enabled:              d.Enabled,
		ApplicableCategories: d.ApplicableCategories,
		IsEventOnly:          d.IsEventOnly,
	}
}

func discountCodeToDocument(c domain.DiscountCode) discountCodeDocument {
	return discountCodeDocument{
		Code:                 c.Code,
		Type:                 string(c.Type),
		Value:                c.Value,
		ValidFrom:            c.ValidFrom,
		ValidTo:              c.ValidTo,
		MinOrderValue:        c.MinOrderValue,
		MaxUsage:             c.MaxUsage,
		Enabled:              c.Enabled,
		ApplicableCategories: c.ApplicableCategories,
		IsEventOnly:          c.IsEventOnly,
	}
}

func (d orderDocument) toDomain(id string) domain.Order {
	order := domain.Order{
		ID:           id,
		Status:       domain.OrderStatus(d.Status),
		DeliveryDate: d.DeliveryDate,
		PackagingFee: d.PackagingFee,
		DeliveryFee:  d.DeliveryFee,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
	for _, item := range d.Items {
		order.Items = append(order.Items, domain.CartItem{Product: item.Product.toDomain(item.ProductID), Quantity: item.Quantity})
	}
	for _, applied := range d.AppliedDiscounts {
		order.AppliedDiscounts = append(order.AppliedDiscounts, domain.AppliedDiscount{Code: applied.Code, Amount: applied.Amount})
	}
	return order
}

func orderToDocument(o domain.Order) orderDocument {
	doc := orderDocument{
		Status:           string(o.Status),
		DeliveryDate:     o.DeliveryDate,
		AppliedDiscounts: []appliedDiscountDocument{},
		HasDiscounts:     len(o.AppliedDiscounts) > 0,
		PackagingFee:     o.PackagingFee,
		DeliveryFee:      o.DeliveryFee,
		CreatedAt:        o.CreatedAt.UTC(),
		UpdatedAt:        o.UpdatedAt.UTC(),
	}
	for _, item := range o.Items {
		doc.Items = append(doc.Items, orderItemDocument{ProductID: item.ID, Product: productToDocument(item.Product), Quantity: item.Quantity})
	}
	for _, applied := range o.AppliedDiscounts {
		doc.AppliedDiscounts = append(doc.AppliedDiscounts, appliedDiscountDocument{Code: applied.Code, Amount: applied.Amount})
	}
	return doc
}
