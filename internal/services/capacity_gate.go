package services

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

// CapacityStatus classifies a capacity decision.
type CapacityStatus string

const (
	CapacityStatusOK          CapacityStatus = "ok"
	CapacityStatusInvalidDate CapacityStatus = "invalid_date"
	CapacityStatusPast        CapacityStatus = "past"
	CapacityStatusClosed      CapacityStatus = "closed"
	CapacityStatusLeadTime    CapacityStatus = "lead_time"
	CapacityStatusExceeds     CapacityStatus = "exceeds"
)

// CapacityRequest asks whether the cart still fits on Date. Orders is the full ledger; the gate
// keeps only production-active orders of that date.
type CapacityRequest struct {
	Date           string
	Cart           []CartItem
	Orders         []Order
	Products       []Product
	Settings       Settings
	Today          time.Time
	ExcludeOrderID string
}

// CategoryLoad reports one category's booked and projected load against its limits.
type CategoryLoad struct {
	CategoryID         string
	Load               float64
	EventLoad          float64
	Limit              float64
	EventLimit         float64
	ProjectedLoad      float64
	ProjectedEventLoad float64
}

// CapacityDecision is a boolean gate with a reason that can be shown to the customer as-is.
type CapacityDecision struct {
	Allowed  bool
	Status   CapacityStatus
	Reason   string
	Date     string
	MinDate  string
	Loads    []CategoryLoad
	Exceeded []string
}

// CheckCapacity decides whether the cart can be admitted on the requested date.
func CheckCapacity(req CapacityRequest) CapacityDecision {
	decision := CapacityDecision{Date: req.Date}
	if _, err := domain.ParseDate(req.Date); err != nil {
		return refuse(decision, CapacityStatusInvalidDate, "The selected date is not valid.")
	}
	resolver, err := NewCapacityResolver(req.Settings)
	if err != nil {
		return refuse(decision, CapacityStatusInvalidDate, "Capacity settings are inconsistent for the selected date.")
	}

	today := domain.FormatDate(req.Today)
	if req.Date < today {
		return refuse(decision, CapacityStatusPast, "The selected date is in the past.")
	}
	if !resolver.IsOpen(req.Date) {
		return refuse(decision, CapacityStatusClosed, "We are closed on the selected date.")
	}

	catalog := indexProducts(req.Products)
	leadTime := 0
	for _, item := range req.Cart {
		leadTime = max(leadTime, resolveProduct(catalog, item).LeadTimeDays)
	}
	decision.MinDate = domain.FormatDate(req.Today.AddDate(0, 0, leadTime))
	if req.Date < decision.MinDate {
		return refuse(decision, CapacityStatusLeadTime,
			fmt.Sprintf("The earliest possible date for this cart is %s.", decision.MinDate))
	}

	booked := ActiveOrders(withoutOrder(OrdersForDate(req.Orders, req.Date), req.ExcludeOrderID), ProductionExcludedStatuses)
	current := AggregateWorkload(booked, req.Products, req.Settings.Categories)
	projectedOrders := append(booked[:len(booked):len(booked)], Order{Items: req.Cart, DeliveryDate: req.Date})
	projected := AggregateWorkload(projectedOrders, req.Products, req.Settings.Categories)

	decision.Loads = categoryLoads(req.Settings.Categories, req.Date, resolver, current, projected)

	touched := make(map[string]struct{})
	for _, item := range req.Cart {
		product := resolveProduct(catalog, item)
		if product.Category == "" {
			continue
		}
		lane := "std:"
		if product.IsEventProduct {
			lane = "evt:"
		}
		key := lane + product.Category
		if _, ok := touched[key]; ok {
			continue
		}
		touched[key] = struct{}{}

		if product.IsEventProduct {
			// Same admission rule as AvailableEventDates: the slot must exist and still have room
			// before the cart is added, and the cart must then fit.
			limit := resolver.EventLimit(req.Date, product.Category)
			if !resolver.HasEventSlot(req.Date) ||
				!hasRoom(current.EventLoad[product.Category], limit) ||
				exceeds(projected.EventLoad[product.Category], limit) {
				decision.Exceeded = append(decision.Exceeded, product.Category)
			}
			continue
		}
		if exceeds(projected.Load[product.Category], resolver.DayLimit(req.Date, product.Category)) {
			decision.Exceeded = append(decision.Exceeded, product.Category)
		}
	}
	if len(decision.Exceeded) > 0 {
		names := make([]string, 0, len(decision.Exceeded))
		for _, id := range decision.Exceeded {
			if c, ok := req.Settings.CategoryByID(id); ok && c.Name != "" {
				names = append(names, c.Name)
				continue
			}
			names = append(names, id)
		}
		return refuse(decision, CapacityStatusExceeds,
			fmt.Sprintf("Production capacity on %s is exhausted for: %s.", req.Date, strings.Join(names, ", ")))
	}

	decision.Allowed = true
	decision.Status = CapacityStatusOK
	return decision
}

func categoryLoads(categories []Category, date string, resolver *CapacityResolver, current, projected WorkloadTotals) []CategoryLoad {
	sorted := append([]Category(nil), categories...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})
	loads := make([]CategoryLoad, 0, len(sorted))
	for _, c := range sorted {
		loads = append(loads, CategoryLoad{
			CategoryID:         c.ID,
			Load:               current.Load[c.ID],
			EventLoad:          current.EventLoad[c.ID],
			Limit:              resolver.DayLimit(date, c.ID),
			EventLimit:         resolver.EventLimit(date, c.ID),
			ProjectedLoad:      projected.Load[c.ID],
			ProjectedEventLoad: projected.EventLoad[c.ID],
		})
	}
	return loads
}

// loadPrecision is the number of decimal places loads and limits are compared at, so that
// decimal workloads such as 0.1*3 fill a limit of 0.3 exactly.
const loadPrecision = 1e6

func roundLoad(v float64) float64 {
	return math.Round(v*loadPrecision) / loadPrecision
}

func exceeds(load, limit float64) bool {
	return roundLoad(load) > roundLoad(limit)
}

func hasRoom(load, limit float64) bool {
	return roundLoad(limit) > roundLoad(load)
}

func refuse(decision CapacityDecision, status CapacityStatus, reason string) CapacityDecision {
	decision.Allowed = false
	decision.Status = status
	decision.Reason = reason
	return decision
}

func indexProducts(products []Product) map[string]Product {
	catalog := make(map[string]Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}
	return catalog
}

func resolveProduct(catalog map[string]Product, item CartItem) Product {
	if p, ok := catalog[item.ID]; ok {
		return p
	}
	return item.Product
}
