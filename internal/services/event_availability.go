package services

import (
	"time"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

// EventAvailabilityRequest carries the snapshots needed to list admissible dates for an event product.
type EventAvailabilityRequest struct {
	Product  Product
	Settings Settings
	Orders   []Order
	Products []Product
	Today    time.Time
}

// AvailableEventDates returns event slot dates, ascending, that still have room in the event lane
// of the product's category and respect its lead time.
//
// A slot is admissible only when its event limit is strictly greater than the event load already
// booked. The product's own workload is not added before comparing.
func AvailableEventDates(req EventAvailabilityRequest) []string {
	if !req.Product.IsEventProduct {
		return nil
	}
	resolver, err := NewCapacityResolver(req.Settings)
	if err != nil {
		return nil
	}

	minDate := domain.FormatDate(req.Today.AddDate(0, 0, req.Product.LeadTimeDays))
	active := ActiveOrders(req.Orders, ProductionExcludedStatuses)

	var dates []string
	for _, date := range resolver.EventSlotDates() {
		if date < minDate {
			continue
		}
		totals := AggregateWorkload(OrdersForDate(active, date), req.Products, req.Settings.Categories)
		limit := resolver.EventLimit(date, req.Product.Category)
		if hasRoom(totals.EventLoad[req.Product.Category], limit) {
			dates = append(dates, date)
		}
	}
	return dates
}
