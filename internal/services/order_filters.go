package services

import domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"

// ProductionExcludedStatuses is the exclusion set used by production planning and capacity checks.
var ProductionExcludedStatuses = []OrderStatus{
	domain.OrderStatusDelivered,
	domain.OrderStatusCancelled,
	domain.OrderStatusNotPickedUp,
}

// DashboardExcludedStatuses is the exclusion set used by the admin dashboard load view.
var DashboardExcludedStatuses = []OrderStatus{
	domain.OrderStatusCancelled,
}

// ActiveOrders returns the orders whose status is not in excluded. The input is not modified.
func ActiveOrders(orders []Order, excluded []OrderStatus) []Order {
	skip := make(map[OrderStatus]struct{}, len(excluded))
	for _, status := range excluded {
		skip[status] = struct{}{}
	}
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		if _, ok := skip[order.Status]; ok {
			continue
		}
		out = append(out, order)
	}
	return out
}

// OrdersForDate returns the orders delivered on date.
func OrdersForDate(orders []Order, date string) []Order {
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		if order.DeliveryDate == date {
			out = append(out, order)
		}
	}
	return out
}

func withoutOrder(orders []Order, orderID string) []Order {
	if orderID == "" {
		return orders
	}
	out := make([]Order, 0, len(orders))
	for _, order := range orders {
		if order.ID == orderID {
			continue
		}
		out = append(out, order)
	}
	return out
}
