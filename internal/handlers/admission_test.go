package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/platform/idempotency"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/services"
)

type stubAdmissionService struct {
	quote      services.Quote
	order      services.Order
	discount   services.DiscountResult
	dates      []string
	load       services.DailyLoad
	err        error
	placeCalls int
	lastQuote  services.QuoteCommand
	lastPlace  services.PlaceOrderCommand
	lastView   services.LoadView
}

func (s *stubAdmissionService) Quote(_ context.Context, cmd services.QuoteCommand) (services.Quote, error) {
	s.lastQuote = cmd
	return s.quote, s.err
}

func (s *stubAdmissionService) PlaceOrder(_ context.Context, cmd services.PlaceOrderCommand) (services.Order, error) {
	s.placeCalls++
	s.lastPlace = cmd
	return s.order, s.err
}

func (s *stubAdmissionService) ValidateDiscountCode(context.Context, services.ValidateDiscountCommand) (services.DiscountResult, error) {
	return s.discount, s.err
}

func (s *stubAdmissionService) EventDates(context.Context, string) ([]string, error) {
	return s.dates, s.err
}

func (s *stubAdmissionService) DailyLoad(_ context.Context, date string, view services.LoadView) (services.DailyLoad, error) {
	s.lastView = view
	return s.load, s.err
}

func newTestRouter(svc services.AdmissionService, opts ...AdmissionOption) http.Handler {
	return NewRouter(WithRoutes(NewAdmissionHandlers(svc, opts...).Routes))
}

func doRequest(t *testing.T, h http.Handler, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestQuoteReturnsTotals(t *testing.T) {
	svc := &stubAdmissionService{quote: services.Quote{
		DeliveryDate: "2025-05-14",
		Items:        []services.CartItem{{Product: services.Product{ID: "gulas", Name: "Guláš", Price: 150}, Quantity: 2}},
		Capacity:     services.CapacityDecision{Allowed: true, Status: services.CapacityStatusOK, Date: "2025-05-14"},
		Discounts: services.DiscountRecalculation{
			Applied:  []services.AppliedDiscount{{Code: "LETO", Amount: 30}},
			Rejected: []services.DiscountRejection{{Code: "old", Failure: services.DiscountFailureExpired, Error: "This discount code has expired."}},
			Total:    30,
		},
		Subtotal:      300,
		DiscountTotal: 30,
		PackagingFee:  35,
		PackageCount:  1,
		Total:         305,
	}}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/v1/checkout/quote",
		`{"deliveryDate":"2025-05-14","items":[{"productId":" gulas ","quantity":2}],"discountCodes":["LETO","old"],"orderId":"ord_1"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.EqualValues(t, 305, body["total"])
	require.EqualValues(t, 1, body["packageCount"])
	require.Len(t, body["rejectedDiscounts"], 1)
	require.Equal(t, true, body["capacity"].(map[string]any)["allowed"])

	require.Equal(t, "gulas", svc.lastQuote.Items[0].ProductID)
	require.Equal(t, "ord_1", svc.lastQuote.OrderID)
	require.Equal(t, []string{"LETO", "old"}, svc.lastQuote.DiscountCodes)
}

func TestQuoteRejectsInvalidBodies(t *testing.T) {
	router := newTestRouter(&stubAdmissionService{})

	rec := doRequest(t, router, http.MethodPost, "/api/v1/checkout/quote", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/checkout/quote", "{not json")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_json", decodeBody(t, rec)["error"])

	huge := `{"deliveryDate":"` + strings.Repeat("x", maxAdmissionBodySize) + `"}`
	rec = doRequest(t, router, http.MethodPost, "/api/v1/checkout/quote", huge)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestPlaceOrderCreated(t *testing.T) {
	created := time.Date(2025, time.May, 10, 22, 30, 0, 0, time.UTC)
	svc := &stubAdmissionService{order: services.Order{
		ID:           "ord_01",
		Status:       domain.OrderStatusCreated,
		DeliveryDate: "2025-05-14",
		Items:        []services.CartItem{{Product: services.Product{ID: "gulas", Price: 150}, Quantity: 2}},
		PackagingFee: 35,
		CreatedAt:    created,
	}}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/v1/orders",
		`{"deliveryDate":"2025-05-14","items":[{"productId":"gulas","quantity":2}]}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/api/v1/orders/ord_01", rec.Header().Get("Location"))
	body := decodeBody(t, rec)
	require.Equal(t, "ord_01", body["id"])
	require.EqualValues(t, 300, body["subtotal"])
	require.Equal(t, "2025-05-10T22:30:00Z", body["createdAt"])
}

func TestPlaceOrderCapacityRefusal(t *testing.T) {
	svc := &stubAdmissionService{err: fmt.Errorf("wrapped: %w", &services.CapacityError{Decision: services.CapacityDecision{
		Status:   services.CapacityStatusExceeds,
		Reason:   "Capacity exceeded for Hot kitchen",
		Date:     "2025-05-14",
		Loads:    []services.CategoryLoad{{CategoryID: "hot", Load: 15, Limit: 20, ProjectedLoad: 25}},
		Exceeded: []string{"hot"},
	}})}

	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/v1/orders",
		`{"deliveryDate":"2025-05-14","items":[{"productId":"gulas","quantity":2}]}`)

	require.Equal(t, http.StatusConflict, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, "capacity_exceeded", body["error"])
	require.Equal(t, "Capacity exceeded for Hot kitchen", body["message"])
	capacity := body["capacity"].(map[string]any)
	require.Equal(t, "exceeds", capacity["status"])
	loads := capacity["loads"].([]any)
	require.EqualValues(t, 25, loads[0].(map[string]any)["projectedLoad"])
}

func TestPlaceOrderWithIdempotencyGuard(t *testing.T) {
	svc := &stubAdmissionService{order: services.Order{ID: "ord_01", Status: domain.OrderStatusCreated}}
	router := newTestRouter(svc, WithSubmitGuard(idempotency.Middleware(idempotency.NewMemoryStore())))
	payload := `{"deliveryDate":"2025-05-14","items":[{"productId":"gulas","quantity":1}]}`

	first := doRequest(t, router, http.MethodPost, "/api/v1/orders", payload, "Idempotency-Key", "abc")
	second := doRequest(t, router, http.MethodPost, "/api/v1/orders", payload, "Idempotency-Key", "abc")

	require.Equal(t, http.StatusCreated, first.Code)
	require.Equal(t, http.StatusCreated, second.Code)
	require.Equal(t, "true", second.Header().Get("X-Idempotent-Replay"))
	require.Equal(t, 1, svc.placeCalls)

	missing := doRequest(t, router, http.MethodPost, "/api/v1/orders", payload)
	require.Equal(t, http.StatusBadRequest, missing.Code)

	quote := doRequest(t, router, http.MethodPost, "/api/v1/checkout/quote", payload)
	require.Equal(t, http.StatusOK, quote.Code, "quote is not guarded")
}

func TestAdmissionErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "invalid input", err: fmt.Errorf("%w: quantity must be positive", services.ErrAdmissionInvalidInput), status: http.StatusBadRequest, code: "invalid_request"},
		{name: "unknown product", err: fmt.Errorf("%w: ghost", services.ErrProductNotFound), status: http.StatusNotFound, code: "product_not_found"},
		{name: "broken settings", err: services.ErrDuplicateDayConfig, status: http.StatusInternalServerError, code: "settings_invalid"},
		{name: "timeout", err: context.DeadlineExceeded, status: http.StatusGatewayTimeout, code: "timeout"},
		{name: "storage outage", err: stubRepoError{unavailable: true}, status: http.StatusServiceUnavailable, code: "unavailable"},
		{name: "contention", err: stubRepoError{conflict: true}, status: http.StatusConflict, code: "conflict"},
		{name: "unexpected", err: fmt.Errorf("boom"), status: http.StatusInternalServerError, code: "internal_server_error"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(t, newTestRouter(&stubAdmissionService{err: tc.err}), http.MethodPost, "/api/v1/orders",
				`{"deliveryDate":"2025-05-14","items":[{"productId":"gulas","quantity":1}]}`)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.code, decodeBody(t, rec)["error"])
		})
	}
}

func TestValidateDiscountReturnsFailureAsValue(t *testing.T) {
	svc := &stubAdmissionService{discount: services.DiscountResult{
		Failure: services.DiscountFailureExhausted,
		Error:   "This discount code has reached its usage limit.",
	}}
	rec := doRequest(t, newTestRouter(svc), http.MethodPost, "/api/v1/discounts/validate",
		`{"code":"leto","items":[{"productId":"gulas","quantity":1}]}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	require.Equal(t, false, body["success"])
	require.Equal(t, "exhausted", body["failure"])
	require.NotContains(t, body, "amount")
}

func TestEventDatesAndDailyLoad(t *testing.T) {
	svc := &stubAdmissionService{
		dates: []string{"2025-06-06", "2025-06-08"},
		load: services.DailyLoad{
			Date:       "2025-06-06",
			View:       services.LoadViewDashboard,
			IsOpen:     true,
			Categories: []services.CategoryLoad{{CategoryID: "cake", Load: 10, Limit: 20}},
		},
	}
	router := newTestRouter(svc)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/event-products/buffet/dates", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, []any{"2025-06-06", "2025-06-08"}, decodeBody(t, rec)["dates"])

	rec = doRequest(t, router, http.MethodGet, "/api/v1/admin/capacity/2025-06-06?view=Dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, services.LoadViewDashboard, svc.lastView)
	body := decodeBody(t, rec)
	require.Equal(t, "dashboard", body["view"])
	require.Len(t, body["categories"], 1)
}

func TestRouterFallbacks(t *testing.T) {
	router := newTestRouter(nil)

	rec := doRequest(t, router, http.MethodGet, "/api/v1/nope", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "route_not_found", decodeBody(t, rec)["error"])

	rec = doRequest(t, router, http.MethodGet, "/api/v1/orders", "")
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = doRequest(t, router, http.MethodPost, "/api/v1/orders", `{}`)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NotEmpty(t, decodeBody(t, rec)["request_id"])
}

type stubRepoError struct {
	notFound    bool
	conflict    bool
	unavailable bool
}

func (e stubRepoError) Error() string { return "repository failure" }
func (e stubRepoError) IsNotFound() bool { return e.notFound }
func (e stubRepoError) IsConflict() bool { return e.conflict }
func (e stubRepoError) IsUnavailable() bool { return e.unavailable }

func TestValidateDiscountRateLimited(t *testing.T) {
	svc := &stubAdmissionService{discount: services.DiscountResult{Success: true, Code: "LETO", Amount: 30}}
	router := newTestRouter(svc, WithDiscountRateLimit(1, time.Hour))
	payload := `{"code":"LETO","items":[{"productId":"gulas","quantity":1}]}`

	rec := doRequest(t, router, http.MethodPost, "/api/v1/discounts/validate", payload)
	require.Equal(t, http.StatusOK, rec.Code)
	require.EqualValues(t, 30, decodeBody(t, rec)["amount"])

	rec = doRequest(t, router, http.MethodPost, "/api/v1/discounts/validate", payload)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "rate_limited", decodeBody(t, rec)["error"])
}
