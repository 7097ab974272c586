package services

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

// DiscountFailure identifies which validation step refused a code.
type DiscountFailure string

const (
	DiscountFailureInvalidCode           DiscountFailure = "invalid_code"
	DiscountFailureDisabled              DiscountFailure = "disabled"
	DiscountFailureExhausted             DiscountFailure = "exhausted"
	DiscountFailureNotYetValid           DiscountFailure = "not_yet_valid"
	DiscountFailureExpired               DiscountFailure = "expired"
	DiscountFailureEventOnly             DiscountFailure = "event_only"
	DiscountFailureNotApplicable         DiscountFailure = "not_applicable"
	DiscountFailureNotApplicableCategory DiscountFailure = "not_applicable_category"
	DiscountFailureMinOrderValue         DiscountFailure = "min_order_value"
)

var discountMessages = map[DiscountFailure]string{
	DiscountFailureInvalidCode:           "Invalid discount code.",
	DiscountFailureDisabled:              "This discount code is not active.",
	DiscountFailureExhausted:             "This discount code has reached its usage limit.",
	DiscountFailureNotYetValid:           "This discount code is not valid yet.",
	DiscountFailureExpired:               "This discount code has expired.",
	DiscountFailureEventOnly:             "This discount code applies only to event products.",
	DiscountFailureNotApplicable:         "This discount code does not apply to any item in your cart.",
	DiscountFailureNotApplicableCategory: "This discount code does not apply to the product categories in your cart.",
	DiscountFailureMinOrderValue:         "Minimum order value for this code is %d.",
}

// DiscountRequest is the input of ValidateDiscount. Orders is the full order ledger used to
// recompute usage; ExcludeOrderID leaves out an order that is being edited.
type DiscountRequest struct {
	Code           string
	Cart           []CartItem
	Codes          []DiscountCode
	Orders         []Order
	Today          time.Time
	ExcludeOrderID string
}

// DiscountResult is the outcome of a validation. Failures are values, not errors.
type DiscountResult struct {
	Success  bool
	Code     string
	Amount   int64
	Failure  DiscountFailure
	Error    string
	Discount *DiscountCode
}

// ValidateDiscount checks a code against the cart in a fixed order and computes the amount
// scoped to the qualifying items.
func ValidateDiscount(req DiscountRequest) DiscountResult {
	key := foldCode(req.Code)
	if key == "" {
		return discountFailure(DiscountFailureInvalidCode)
	}
	idx := slices.IndexFunc(req.Codes, func(dc DiscountCode) bool { return foldCode(dc.Code) == key })
	if idx < 0 {
		return discountFailure(DiscountFailureInvalidCode)
	}
	code := req.Codes[idx]

	if !code.Enabled {
		return discountFailure(DiscountFailureDisabled)
	}

	if code.MaxUsage > 0 && discountUsage(key, req.Orders, req.ExcludeOrderID) >= code.MaxUsage {
		return discountFailure(DiscountFailureExhausted)
	}

	today := domain.FormatDate(req.Today)
	if from := strings.TrimSpace(code.ValidFrom); from != "" && today < from {
		return discountFailure(DiscountFailureNotYetValid)
	}
	if to := strings.TrimSpace(code.ValidTo); to != "" && today > to {
		return discountFailure(DiscountFailureExpired)
	}

	categoryScoped := len(code.ApplicableCategories) > 0
	applicable := make([]CartItem, 0, len(req.Cart))
	for _, item := range req.Cart {
		if categoryScoped && !slices.Contains(code.ApplicableCategories, item.Category) {
			continue
		}
		applicable = append(applicable, item)
	}
	if code.IsEventOnly {
		applicable = slices.DeleteFunc(applicable, func(item CartItem) bool { return !item.IsEventProduct })
		if len(applicable) == 0 {
			return discountFailure(DiscountFailureEventOnly)
		}
	}

	applicableTotal := cartTotal(applicable)
	if applicableTotal <= 0 {
		if categoryScoped {
			return discountFailure(DiscountFailureNotApplicableCategory)
		}
		return discountFailure(DiscountFailureNotApplicable)
	}

	threshold := cartTotal(req.Cart)
	if categoryScoped || code.IsEventOnly {
		threshold = applicableTotal
	}
	if code.MinOrderValue > 0 && threshold < code.MinOrderValue {
		res := discountFailure(DiscountFailureMinOrderValue)
		res.Error = fmt.Sprintf(res.Error, code.MinOrderValue)
		return res
	}

	var amount int64
	switch code.Type {
	case domain.DiscountTypePercentage:
		amount = applicableTotal * code.Value / 100
	case domain.DiscountTypeFixed:
		amount = min(code.Value, applicableTotal)
	default:
		return discountFailure(DiscountFailureInvalidCode)
	}
	amount = max(0, min(amount, applicableTotal))

	return DiscountResult{
		Success:  true,
		Code:     code.Code,
		Amount:   amount,
		Discount: &code,
	}
}

// RecalculateRequest re-validates the codes currently applied to a cart.
type RecalculateRequest struct {
	Requested      []string
	Cart           []CartItem
	Codes          []DiscountCode
	Orders         []Order
	Today          time.Time
	ExcludeOrderID string
}

// DiscountRejection explains why a previously applied code was dropped.
type DiscountRejection struct {
	Code    string
	Failure DiscountFailure
	Error   string
}

// DiscountRecalculation replaces the applied discounts of a cart.
type DiscountRecalculation struct {
	Applied  []AppliedDiscount
	Rejected []DiscountRejection
	Total    int64
}

// RecalculateDiscounts validates every requested code from scratch. Duplicate codes are applied
// once and the cumulative discount never exceeds the cart subtotal.
func RecalculateDiscounts(req RecalculateRequest) DiscountRecalculation {
	out := DiscountRecalculation{}
	subtotal := cartTotal(req.Cart)
	seen := make(map[string]struct{}, len(req.Requested))
	for _, requested := range req.Requested {
		key := foldCode(requested)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		res := ValidateDiscount(DiscountRequest{
			Code:           requested,
			Cart:           req.Cart,
			Codes:          req.Codes,
			Orders:         req.Orders,
			Today:          req.Today,
			ExcludeOrderID: req.ExcludeOrderID,
		})
		if !res.Success {
			out.Rejected = append(out.Rejected, DiscountRejection{
				Code:    strings.TrimSpace(requested),
				Failure: res.Failure,
				Error:   res.Error,
			})
			continue
		}
		amount := min(res.Amount, subtotal-out.Total)
		out.Applied = append(out.Applied, AppliedDiscount{Code: res.Code, Amount: amount})
		out.Total += amount
	}
	return out
}

// discountUsage counts non-cancelled orders that reference the code at least once.
func discountUsage(key string, orders []Order, excludeOrderID string) int {
	used := 0
	for _, order := range orders {
		if order.Status == domain.OrderStatusCancelled {
			continue
		}
		if excludeOrderID != "" && order.ID == excludeOrderID {
			continue
		}
		for _, applied := range order.AppliedDiscounts {
			if foldCode(applied.Code) == key {
				used++
				break
			}
		}
	}
	return used
}

func discountFailure(failure DiscountFailure) DiscountResult {
	return DiscountResult{Failure: failure, Error: discountMessages[failure]}
}

func foldCode(code string) string {
	return cases.Fold().String(strings.TrimSpace(code))
}

func cartTotal(items []CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}
