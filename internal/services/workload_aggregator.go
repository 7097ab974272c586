package services

// WorkloadTotals holds per-category production load for the standard and event lanes.
type WorkloadTotals struct {
	Load      map[string]float64
	EventLoad map[string]float64
}

// AggregateWorkload sums production load of every line item of the given orders.
//
// The function applies no status filtering: callers pick the active set (see ActiveOrders).
// Overhead is credited once per capacity group for the whole pass; the first item visited
// for a group decides the overhead amount. Items whose category cannot be resolved are skipped.
func AggregateWorkload(orders []Order, products []Product, categories []Category) WorkloadTotals {
	totals := WorkloadTotals{
		Load:      make(map[string]float64, len(categories)),
		EventLoad: make(map[string]float64, len(categories)),
	}
	for _, c := range categories {
		totals.Load[c.ID] = 0
		totals.EventLoad[c.ID] = 0
	}

	catalog := indexProducts(products)

	usedOverhead := make(map[string]struct{})
	for _, order := range orders {
		for _, item := range order.Items {
			product := resolveProduct(catalog, item)
			if product.Category == "" {
				continue
			}

			key := product.CapacityCategoryID
			if key == "" {
				key = item.ID
			}

			amount := product.Workload * float64(item.Quantity)
			if _, used := usedOverhead[key]; !used {
				amount += product.WorkloadOverhead
				usedOverhead[key] = struct{}{}
			}
			if amount < 0 {
				amount = 0
			}

			if product.IsEventProduct {
				totals.EventLoad[product.Category] += amount
			} else {
				totals.Load[product.Category] += amount
			}
		}
	}
	return totals
}
