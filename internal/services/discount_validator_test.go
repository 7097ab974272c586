package services

import (
	"testing"
	"time"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

var discountToday = time.Date(2025, time.July, 15, 10, 0, 0, 0, time.UTC)

func discountCart() []CartItem {
	return []CartItem{
		{Product: Product{ID: "canape", Category: "cold", Price: 100}, Quantity: 1},
		{Product: Product{ID: "tower", Category: "cake", Price: 100, IsEventProduct: true}, Quantity: 1},
	}
}

func TestValidateDiscountFailureOrder(t *testing.T) {
	usedTwice := []Order{
		{ID: "o1", Status: domain.OrderStatusDelivered, AppliedDiscounts: []AppliedDiscount{{Code: "limited", Amount: 10}}},
		{ID: "o2", Status: domain.OrderStatusConfirmed, AppliedDiscounts: []AppliedDiscount{{Code: "LIMITED", Amount: 10}, {Code: "Limited", Amount: 10}}},
		{ID: "o3", Status: domain.OrderStatusCancelled, AppliedDiscounts: []AppliedDiscount{{Code: "LIMITED", Amount: 10}}},
	}
	codes := []DiscountCode{
		{Code: "OFF", Type: domain.DiscountTypeFixed, Value: 10, Enabled: false},
		{Code: "LIMITED", Type: domain.DiscountTypeFixed, Value: 10, Enabled: true, MaxUsage: 2},
		{Code: "SPARE", Type: domain.DiscountTypeFixed, Value: 10, Enabled: true, MaxUsage: 3},
		{Code: "SOON", Type: domain.DiscountTypeFixed, Value: 10, Enabled: true, ValidFrom: "2025-07-16"},
		{Code: "OLD", Type: domain.DiscountTypeFixed, Value: 10, Enabled: true, ValidTo: "2025-07-14"},
		{Code: "LASTDAY", Type: domain.DiscountTypeFixed, Value: 10, Enabled: true, ValidTo: "2025-07-15"},
		{Code: "EVENTSALAD", Type: domain.DiscountTypePercentage, Value: 10, Enabled: true, IsEventOnly: true, ApplicableCategories: []string{"cold"}},
		{Code: "BREAD", Type: domain.DiscountTypeFixed, Value: 10, Enabled: true, ApplicableCategories: []string{"bread"}},
		{Code: "BIG", Type: domain.DiscountTypeFixed, Value: 10, Enabled: true, MinOrderValue: 150},
		{Code: "BIGCAKE", Type: domain.DiscountTypeFixed, Value: 10, Enabled: true, MinOrderValue: 150, ApplicableCategories: []string{"cake"}},
	}

	tests := []struct {
		code    string
		failure DiscountFailure
		message string
	}{
		{code: "nope", failure: DiscountFailureInvalidCode, message: "Invalid discount code."},
		{code: "  ", failure: DiscountFailureInvalidCode, message: "Invalid discount code."},
		{code: "off", failure: DiscountFailureDisabled, message: "This discount code is not active."},
		{code: "limited", failure: DiscountFailureExhausted, message: "This discount code has reached its usage limit."},
		{code: "soon", failure: DiscountFailureNotYetValid, message: "This discount code is not valid yet."},
		{code: "old", failure: DiscountFailureExpired, message: "This discount code has expired."},
		{code: "eventsalad", failure: DiscountFailureEventOnly, message: "This discount code applies only to event products."},
		{code: "bread", failure: DiscountFailureNotApplicableCategory, message: "This discount code does not apply to the product categories in your cart."},
		{code: "bigcake", failure: DiscountFailureMinOrderValue, message: "Minimum order value for this code is 150."},
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			res := ValidateDiscount(DiscountRequest{Code: tc.code, Cart: discountCart(), Codes: codes, Orders: usedTwice, Today: discountToday})
			if res.Success {
				t.Fatalf("expected failure, got success with amount %d", res.Amount)
			}
			if res.Failure != tc.failure {
				t.Fatalf("expected failure %s, got %s", tc.failure, res.Failure)
			}
			if res.Error != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, res.Error)
			}
		})
	}

	for _, code := range []string{"spare", "lastday", " big "} {
		res := ValidateDiscount(DiscountRequest{Code: code, Cart: discountCart(), Codes: codes, Orders: usedTwice, Today: discountToday})
		if !res.Success || res.Amount != 10 {
			t.Fatalf("%s: expected success with 10, got %+v", code, res)
		}
	}
}

func TestValidateDiscountUsageExcludesEditedOrder(t *testing.T) {
	codes := []DiscountCode{{Code: "ONCE", Type: domain.DiscountTypeFixed, Value: 20, Enabled: true, MaxUsage: 1}}
	orders := []Order{{ID: "mine", Status: domain.OrderStatusCreated, AppliedDiscounts: []AppliedDiscount{{Code: "ONCE", Amount: 20}}}}

	res := ValidateDiscount(DiscountRequest{Code: "once", Cart: discountCart(), Codes: codes, Orders: orders, Today: discountToday})
	if res.Failure != DiscountFailureExhausted {
		t.Fatalf("expected exhausted, got %+v", res)
	}
	res = ValidateDiscount(DiscountRequest{Code: "once", Cart: discountCart(), Codes: codes, Orders: orders, Today: discountToday, ExcludeOrderID: "mine"})
	if !res.Success {
		t.Fatalf("expected success when editing the order itself, got %+v", res)
	}
}

func TestValidateDiscountEventOnlyScopesAmount(t *testing.T) {
	codes := []DiscountCode{{Code: "EVENT50", Type: domain.DiscountTypePercentage, Value: 50, Enabled: true, IsEventOnly: true}}
	res := ValidateDiscount(DiscountRequest{Code: "event50", Cart: discountCart(), Codes: codes, Today: discountToday})
	if !res.Success || res.Amount != 50 {
		t.Fatalf("expected 50, got %+v", res)
	}
}

func TestValidateDiscountPercentageOnStrictSubset(t *testing.T) {
	cart := []CartItem{
		{Product: Product{ID: "a", Category: "cake", Price: 333}, Quantity: 1},
		{Product: Product{ID: "b", Category: "cold", Price: 250}, Quantity: 2},
	}
	codes := []DiscountCode{{Code: "CAKE15", Type: domain.DiscountTypePercentage, Value: 15, Enabled: true, ApplicableCategories: []string{"cake"}}}

	res := ValidateDiscount(DiscountRequest{Code: "cake15", Cart: cart, Codes: codes, Today: discountToday})
	if !res.Success {
		t.Fatalf("expected success, got %+v", res)
	}
	if want := int64(333 * 15 / 100); res.Amount != want {
		t.Fatalf("expected %d, got %d", want, res.Amount)
	}
	if full := int64(833 * 15 / 100); res.Amount >= full {
		t.Fatalf("expected scoped amount below %d, got %d", full, res.Amount)
	}
}

func TestValidateDiscountFixedNeverExceedsSubtotal(t *testing.T) {
	codes := []DiscountCode{{Code: "HUGE", Type: domain.DiscountTypeFixed, Value: 10_000, Enabled: true, ApplicableCategories: []string{"cold"}}}
	res := ValidateDiscount(DiscountRequest{Code: "huge", Cart: discountCart(), Codes: codes, Today: discountToday})
	if !res.Success || res.Amount != 100 {
		t.Fatalf("expected amount capped at 100, got %+v", res)
	}
}

func TestValidateDiscountRejectsUnknownType(t *testing.T) {
	codes := []DiscountCode{{Code: "MYSTERY", Type: domain.DiscountType("bogo"), Value: 50, Enabled: true}}
	res := ValidateDiscount(DiscountRequest{Code: "mystery", Cart: discountCart(), Codes: codes, Today: discountToday})
	if res.Success || res.Failure != DiscountFailureInvalidCode || res.Amount != 0 {
		t.Fatalf("expected invalid_code for unknown type, got %+v", res)
	}
}

func TestValidateDiscountUnicodeFolding(t *testing.T) {
	codes := []DiscountCode{{Code: "LÉTO", Type: domain.DiscountTypeFixed, Value: 5, Enabled: true}}
	res := ValidateDiscount(DiscountRequest{Code: "léto", Cart: discountCart(), Codes: codes, Today: discountToday})
	if !res.Success || res.Code != "LÉTO" {
		t.Fatalf("expected folded match, got %+v", res)
	}
}

func TestValidateDiscountEmptyCart(t *testing.T) {
	codes := []DiscountCode{{Code: "ANY", Type: domain.DiscountTypeFixed, Value: 5, Enabled: true}}
	res := ValidateDiscount(DiscountRequest{Code: "any", Codes: codes, Today: discountToday})
	if res.Failure != DiscountFailureNotApplicable {
		t.Fatalf("expected not_applicable, got %+v", res)
	}
}

func TestRecalculateDiscounts(t *testing.T) {
	codes := []DiscountCode{
		{Code: "HALF", Type: domain.DiscountTypePercentage, Value: 50, Enabled: true},
		{Code: "BIGFIX", Type: domain.DiscountTypeFixed, Value: 150, Enabled: true},
		{Code: "OFF", Type: domain.DiscountTypeFixed, Value: 10, Enabled: false},
	}
	got := RecalculateDiscounts(RecalculateRequest{
		Requested: []string{"half", "HALF", "off", "bigfix"},
		Cart:      discountCart(),
		Codes:     codes,
		Today:     discountToday,
	})

	if len(got.Applied) != 2 {
		t.Fatalf("expected 2 applied codes, got %+v", got.Applied)
	}
	if got.Applied[0] != (AppliedDiscount{Code: "HALF", Amount: 100}) {
		t.Fatalf("unexpected first discount %+v", got.Applied[0])
	}
	if got.Applied[1] != (AppliedDiscount{Code: "BIGFIX", Amount: 100}) {
		t.Fatalf("expected second discount clamped to remaining subtotal, got %+v", got.Applied[1])
	}
	if got.Total != 200 {
		t.Fatalf("expected total 200, got %d", got.Total)
	}
	if len(got.Rejected) != 1 || got.Rejected[0].Failure != DiscountFailureDisabled || got.Rejected[0].Code != "off" {
		t.Fatalf("unexpected rejections %+v", got.Rejected)
	}
}
