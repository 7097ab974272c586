package services

import (
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

var gateToday = time.Date(2025, time.September, 1, 14, 0, 0, 0, time.UTC)

var (
	burger   = Product{ID: "burger", Category: "hot", Price: 200, Workload: 5}
	terrine  = Product{ID: "terrine", Category: "cold", Price: 300, Workload: 1, LeadTimeDays: 2}
	fountain = Product{ID: "fountain", Category: "cold", Price: 900, Workload: 4, IsEventProduct: true}
)

func gateSettings() Settings {
	return Settings{
		Categories: []Category{
			{ID: "hot", Name: "Hot kitchen", Order: 2},
			{ID: "cold", Name: "Cold kitchen", Order: 1},
		},
		DefaultCapacities: map[string]float64{"hot": 20, "cold": 100},
		DayConfigs:        []DayConfig{{Date: "2025-09-05", IsOpen: false}},
		EventSlots:        []EventSlot{{Date: "2025-09-06", CapacityOverrides: map[string]float64{"cold": 8}}},
	}
}

func gateOrders() []Order {
	return []Order{
		{ID: "booked", DeliveryDate: "2025-09-03", Status: domain.OrderStatusConfirmed, Items: []CartItem{{Product: burger, Quantity: 3}}},
		{ID: "cancelled", DeliveryDate: "2025-09-03", Status: domain.OrderStatusCancelled, Items: []CartItem{{Product: burger, Quantity: 10}}},
		{ID: "other-day", DeliveryDate: "2025-09-04", Status: domain.OrderStatusConfirmed, Items: []CartItem{{Product: burger, Quantity: 10}}},
	}
}

func TestCheckCapacityStatuses(t *testing.T) {
	tests := []struct {
		name    string
		date    string
		cart    []CartItem
		exclude string
		allowed bool
		status  CapacityStatus
	}{
		{name: "malformed date", date: "03/09/2025", cart: []CartItem{{Product: burger, Quantity: 1}}, status: CapacityStatusInvalidDate},
		{name: "past date", date: "2025-08-31", cart: []CartItem{{Product: burger, Quantity: 1}}, status: CapacityStatusPast},
		{name: "closed day", date: "2025-09-05", cart: []CartItem{{Product: burger, Quantity: 1}}, status: CapacityStatusClosed},
		{name: "lead time", date: "2025-09-02", cart: []CartItem{{Product: terrine, Quantity: 1}}, status: CapacityStatusLeadTime},
		{name: "fits exactly", date: "2025-09-03", cart: []CartItem{{Product: burger, Quantity: 1}}, allowed: true, status: CapacityStatusOK},
		{name: "over limit", date: "2025-09-03", cart: []CartItem{{Product: burger, Quantity: 2}}, status: CapacityStatusExceeds},
		{name: "edited order excluded", date: "2025-09-03", cart: []CartItem{{Product: burger, Quantity: 4}}, exclude: "booked", allowed: true, status: CapacityStatusOK},
		{name: "event lane without slot", date: "2025-09-03", cart: []CartItem{{Product: fountain, Quantity: 1}}, status: CapacityStatusExceeds},
		{name: "event lane within slot", date: "2025-09-06", cart: []CartItem{{Product: fountain, Quantity: 2}}, allowed: true, status: CapacityStatusOK},
		{name: "event lane over slot", date: "2025-09-06", cart: []CartItem{{Product: fountain, Quantity: 3}}, status: CapacityStatusExceeds},
		{name: "today allowed", date: "2025-09-01", cart: []CartItem{{Product: burger, Quantity: 1}}, allowed: true, status: CapacityStatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			decision := CheckCapacity(CapacityRequest{
				Date:           tc.date,
				Cart:           tc.cart,
				Orders:         gateOrders(),
				Products:       []Product{burger, terrine, fountain},
				Settings:       gateSettings(),
				Today:          gateToday,
				ExcludeOrderID: tc.exclude,
			})
			if decision.Allowed != tc.allowed {
				t.Fatalf("expected allowed=%v, got %+v", tc.allowed, decision)
			}
			if decision.Status != tc.status {
				t.Fatalf("expected status %s, got %s (%s)", tc.status, decision.Status, decision.Reason)
			}
			if !decision.Allowed && decision.Reason == "" {
				t.Fatalf("expected a reason for refusal")
			}
		})
	}
}

func TestCheckCapacityReportsLoads(t *testing.T) {
	decision := CheckCapacity(CapacityRequest{
		Date:     "2025-09-03",
		Cart:     []CartItem{{Product: burger, Quantity: 2}},
		Orders:   gateOrders(),
		Products: []Product{burger, terrine, fountain},
		Settings: gateSettings(),
		Today:    gateToday,
	})
	if !strings.Contains(decision.Reason, "Hot kitchen") {
		t.Fatalf("expected category name in reason, got %q", decision.Reason)
	}
	if len(decision.Exceeded) != 1 || decision.Exceeded[0] != "hot" {
		t.Fatalf("expected hot exceeded, got %v", decision.Exceeded)
	}
	if len(decision.Loads) != 2 || decision.Loads[0].CategoryID != "cold" || decision.Loads[1].CategoryID != "hot" {
		t.Fatalf("expected loads ordered cold, hot; got %+v", decision.Loads)
	}
	hot := decision.Loads[1]
	if hot.Load != 15 || hot.ProjectedLoad != 25 || hot.Limit != 20 {
		t.Fatalf("unexpected hot load %+v", hot)
	}
}

func TestCheckCapacityLeadTimeReportsMinDate(t *testing.T) {
	decision := CheckCapacity(CapacityRequest{
		Date:     "2025-09-02",
		Cart:     []CartItem{{Product: burger, Quantity: 1}, {Product: terrine, Quantity: 1}},
		Settings: gateSettings(),
		Today:    gateToday,
	})
	if decision.MinDate != "2025-09-03" {
		t.Fatalf("expected min date 2025-09-03, got %q", decision.MinDate)
	}
}

func TestCapacityErrorUnwraps(t *testing.T) {
	err := error(&CapacityError{Decision: CapacityDecision{Status: CapacityStatusExceeds, Reason: "full"}})
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected errors.Is ErrCapacityExceeded")
	}
	if !strings.Contains(err.Error(), "full") {
		t.Fatalf("expected reason in message, got %q", err.Error())
	}
}

func TestActiveOrderSets(t *testing.T) {
	orders := []Order{
		{ID: "a", Status: domain.OrderStatusCreated},
		{ID: "b", Status: domain.OrderStatusDelivered},
		{ID: "c", Status: domain.OrderStatusNotPickedUp},
		{ID: "d", Status: domain.OrderStatusCancelled},
	}
	if got := ActiveOrders(orders, ProductionExcludedStatuses); len(got) != 1 || got[0].ID != "a" {
		t.Fatalf("unexpected production set %+v", got)
	}
	if got := ActiveOrders(orders, DashboardExcludedStatuses); len(got) != 3 {
		t.Fatalf("unexpected dashboard set %+v", got)
	}
	if len(orders) != 4 {
		t.Fatalf("input must not be modified")
	}
}

func TestCheckCapacityAgreesWithEventDates(t *testing.T) {
	sparkler := Product{ID: "sparkler", Category: "cold", Price: 50, IsEventProduct: true}
	settings := gateSettings()
	settings.EventSlots = append(settings.EventSlots,
		EventSlot{Date: "2025-09-07", CapacityOverrides: map[string]float64{"hot": 10}},
		EventSlot{Date: "2025-09-08", CapacityOverrides: map[string]float64{"cold": 4}},
	)
	orders := []Order{
		{ID: "full", DeliveryDate: "2025-09-08", Status: domain.OrderStatusConfirmed, Items: []CartItem{{Product: fountain, Quantity: 1}}},
	}
	products := []Product{burger, terrine, fountain, sparkler}

	offered := AvailableEventDates(EventAvailabilityRequest{
		Product:  sparkler,
		Settings: settings,
		Orders:   orders,
		Products: products,
		Today:    gateToday,
	})
	isOffered := make(map[string]bool, len(offered))
	for _, date := range offered {
		isOffered[date] = true
	}

	// 09-03 has no slot, 09-07 has no cold override, 09-08 is already full, 09-06 has room.
	for _, date := range []string{"2025-09-03", "2025-09-06", "2025-09-07", "2025-09-08"} {
		decision := CheckCapacity(CapacityRequest{
			Date:     date,
			Cart:     []CartItem{{Product: sparkler, Quantity: 3}},
			Orders:   orders,
			Products: products,
			Settings: settings,
			Today:    gateToday,
		})
		if decision.Allowed != isOffered[date] {
			t.Fatalf("%s: gate allowed=%v but date offered=%v (%s)", date, decision.Allowed, isOffered[date], decision.Reason)
		}
	}
	if len(offered) != 1 || offered[0] != "2025-09-06" {
		t.Fatalf("expected only 2025-09-06 offered, got %v", offered)
	}
}

func TestCheckCapacityDecimalWorkloadFitsExactly(t *testing.T) {
	canape := Product{ID: "canape", Category: "cold", Price: 20, Workload: 0.1}
	settings := Settings{
		Categories:        []Category{{ID: "cold", Name: "Cold kitchen"}},
		DefaultCapacities: map[string]float64{"cold": 0.3},
	}

	decision := CheckCapacity(CapacityRequest{
		Date:     "2025-09-03",
		Cart:     []CartItem{{Product: canape, Quantity: 3}},
		Products: []Product{canape},
		Settings: settings,
		Today:    gateToday,
	})
	if !decision.Allowed {
		t.Fatalf("expected 0.1*3 to fit a limit of 0.3, got %+v", decision)
	}

	decision = CheckCapacity(CapacityRequest{
		Date:     "2025-09-03",
		Cart:     []CartItem{{Product: canape, Quantity: 4}},
		Products: []Product{canape},
		Settings: settings,
		Today:    gateToday,
	})
	if decision.Allowed || decision.Status != CapacityStatusExceeds {
		t.Fatalf("expected 0.4 to exceed 0.3, got %+v", decision)
	}
}
