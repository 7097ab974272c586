package services

import (
	"testing"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

func TestAggregateWorkloadSharedOverheadFirstEncounteredWins(t *testing.T) {
	a := Product{ID: "a", Category: "hot", Workload: 10, WorkloadOverhead: 100, CapacityCategoryID: "fry"}
	b := Product{ID: "b", Category: "hot", Workload: 10, WorkloadOverhead: 200, CapacityCategoryID: "fry"}
	categories := []Category{{ID: "hot"}}

	tests := []struct {
		name  string
		items []CartItem
		want  float64
	}{
		{name: "a visited first", items: []CartItem{{Product: a, Quantity: 1}, {Product: b, Quantity: 1}}, want: 120},
		{name: "b visited first", items: []CartItem{{Product: b, Quantity: 1}, {Product: a, Quantity: 1}}, want: 220},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			orders := []Order{{ID: "o1", Items: tc.items, Status: domain.OrderStatusConfirmed}}
			got := AggregateWorkload(orders, []Product{a, b}, categories)
			if got.Load["hot"] != tc.want {
				t.Fatalf("expected load %v, got %v", tc.want, got.Load["hot"])
			}
		})
	}
}

func TestAggregateWorkloadOverheadOncePerPassAcrossOrders(t *testing.T) {
	p := Product{ID: "p", Category: "cold", Workload: 2, WorkloadOverhead: 50}
	orders := []Order{
		{ID: "o1", Items: []CartItem{{Product: p, Quantity: 3}}},
		{ID: "o2", Items: []CartItem{{Product: p, Quantity: 5}}},
	}
	got := AggregateWorkload(orders, []Product{p}, []Category{{ID: "cold"}})
	if want := 2.0*8 + 50; got.Load["cold"] != want {
		t.Fatalf("expected %v, got %v", want, got.Load["cold"])
	}

	// a second call starts with a fresh overhead set
	again := AggregateWorkload(orders, []Product{p}, []Category{{ID: "cold"}})
	if again.Load["cold"] != got.Load["cold"] {
		t.Fatalf("expected repeatable result, got %v then %v", got.Load["cold"], again.Load["cold"])
	}
}

func TestAggregateWorkloadDoesNotFilterStatuses(t *testing.T) {
	p := Product{ID: "p", Category: "cold", Workload: 4}
	orders := []Order{
		{ID: "live", Status: domain.OrderStatusConfirmed, Items: []CartItem{{Product: p, Quantity: 1}}},
		{ID: "gone", Status: domain.OrderStatusCancelled, Items: []CartItem{{Product: p, Quantity: 1}}},
	}
	got := AggregateWorkload(orders, []Product{p}, []Category{{ID: "cold"}})
	if got.Load["cold"] != 8 {
		t.Fatalf("expected cancelled order to be summed, got %v", got.Load["cold"])
	}

	filtered := AggregateWorkload(ActiveOrders(orders, ProductionExcludedStatuses), []Product{p}, []Category{{ID: "cold"}})
	if filtered.Load["cold"] != 4 {
		t.Fatalf("expected filtered load 4, got %v", filtered.Load["cold"])
	}
}

func TestAggregateWorkloadLanesAndSeeding(t *testing.T) {
	regular := Product{ID: "r", Category: "cake", Workload: 3}
	event := Product{ID: "e", Category: "cake", Workload: 7, IsEventProduct: true}
	orders := []Order{{ID: "o", Items: []CartItem{{Product: regular, Quantity: 2}, {Product: event, Quantity: 1}}}}

	got := AggregateWorkload(orders, []Product{regular, event}, []Category{{ID: "cake"}, {ID: "bread"}})
	if got.Load["cake"] != 6 || got.EventLoad["cake"] != 7 {
		t.Fatalf("unexpected lanes: load=%v event=%v", got.Load["cake"], got.EventLoad["cake"])
	}
	if v, ok := got.Load["bread"]; !ok || v != 0 {
		t.Fatalf("expected bread seeded to 0, got %v (present=%v)", v, ok)
	}
	if v, ok := got.EventLoad["bread"]; !ok || v != 0 {
		t.Fatalf("expected bread event lane seeded to 0, got %v (present=%v)", v, ok)
	}
}

func TestAggregateWorkloadFallsBackToSnapshot(t *testing.T) {
	deleted := Product{ID: "gone", Category: "soup", Workload: 5, WorkloadOverhead: 1}
	uncategorised := Product{ID: "loose", Workload: 100}
	orders := []Order{{ID: "o", Items: []CartItem{
		{Product: deleted, Quantity: 2},
		{Product: uncategorised, Quantity: 1},
	}}}

	got := AggregateWorkload(orders, nil, []Category{{ID: "soup"}})
	if got.Load["soup"] != 11 {
		t.Fatalf("expected snapshot workload 11, got %v", got.Load["soup"])
	}
	for cat, v := range got.Load {
		if cat != "soup" && v != 0 {
			t.Fatalf("uncategorised item leaked into %q: %v", cat, v)
		}
	}
}

func TestAggregateWorkloadPrefersLiveProduct(t *testing.T) {
	snapshot := Product{ID: "p", Category: "soup", Workload: 1}
	live := Product{ID: "p", Category: "soup", Workload: 9}
	orders := []Order{{ID: "o", Items: []CartItem{{Product: snapshot, Quantity: 1}}}}

	got := AggregateWorkload(orders, []Product{live}, []Category{{ID: "soup"}})
	if got.Load["soup"] != 9 {
		t.Fatalf("expected live workload 9, got %v", got.Load["soup"])
	}
}
