package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/zdsmarda-cell/4Gracie-sub001/internal/platform/httpx"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/repositories"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/services"
)

const maxAdmissionBodySize = 64 * 1024

var (
	errEmptyBody    = errors.New("request body is empty")
	errBodyTooLarge = errors.New("request body too large")
)

// AdmissionHandlers exposes checkout quotes, order submission and the capacity views.
type AdmissionHandlers struct {
	admission       services.AdmissionService
	submitGuard     func(http.Handler) http.Handler
	discountLimiter rateLimiter
}

// AdmissionOption customises AdmissionHandlers.
type AdmissionOption func(*AdmissionHandlers)

// WithSubmitGuard wraps POST /orders, typically with the idempotency middleware.
func WithSubmitGuard(mw func(http.Handler) http.Handler) AdmissionOption {
	return func(h *AdmissionHandlers) {
		h.submitGuard = mw
	}
}

// WithDiscountRateLimit caps discount validations per client to limit per window, so codes
// cannot be enumerated.
func WithDiscountRateLimit(limit int, window time.Duration) AdmissionOption {
	return func(h *AdmissionHandlers) {
		h.discountLimiter = newKeyedRateLimiter(limit, window, time.Now)
	}
}

// NewAdmissionHandlers constructs the handlers.
func NewAdmissionHandlers(admission services.AdmissionService, opts ...AdmissionOption) *AdmissionHandlers {
	h := &AdmissionHandlers{admission: admission}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the admission endpoints.
func (h *AdmissionHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/checkout/quote", h.quote)
	r.Group(func(g chi.Router) {
		if h.submitGuard != nil {
			g.Use(h.submitGuard)
		}
		g.Post("/orders", h.placeOrder)
	})
	r.Post("/discounts/validate", h.validateDiscount)
	r.Get("/event-products/{productId}/dates", h.eventDates)
	r.Get("/admin/capacity/{date}", h.dailyLoad)
}

type cartLinePayload struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type quoteRequest struct {
	DeliveryDate  string            `json:"deliveryDate"`
	Items         []cartLinePayload `json:"items"`
	DiscountCodes []string          `json:"discountCodes"`
	DeliveryFee   int64             `json:"deliveryFee"`
	OrderID       string            `json:"orderId"`
}

type validateDiscountRequest struct {
	Code    string            `json:"code"`
	Items   []cartLinePayload `json:"items"`
	OrderID string            `json:"orderId"`
}

type categoryLoadPayload struct {
	CategoryID         string  `json:"categoryId"`
	Load               float64 `json:"load"`
	EventLoad          float64 `json:"eventLoad"`
	Limit              float64 `json:"limit"`
	EventLimit         float64 `json:"eventLimit"`
	ProjectedLoad      float64 `json:"projectedLoad"`
	ProjectedEventLoad float64 `json:"projectedEventLoad"`
}

type capacityPayload struct {
	Allowed  bool                  `json:"allowed"`
	Status   string                `json:"status"`
	Reason   string                `json:"reason,omitempty"`
	Date     string                `json:"date"`
	MinDate  string                `json:"minDate,omitempty"`
	Loads    []categoryLoadPayload `json:"loads"`
	Exceeded []string              `json:"exceeded,omitempty"`
}

type appliedDiscountPayload struct {
	Code   string `json:"code"`
	Amount int64  `json:"amount"`
}

type rejectedDiscountPayload struct {
	Code    string `json:"code"`
	Failure string `json:"failure"`
	Error   string `json:"error"`
}

type orderItemPayload struct {
	ProductID string `json:"productId"`
	Name      string `json:"name"`
	Price     int64  `json:"price"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"lineTotal"`
}

type quoteResponse struct {
	DeliveryDate      string                    `json:"deliveryDate"`
	Items             []orderItemPayload        `json:"items"`
	Capacity          capacityPayload           `json:"capacity"`
	AppliedDiscounts  []appliedDiscountPayload  `json:"appliedDiscounts"`
	RejectedDiscounts []rejectedDiscountPayload `json:"rejectedDiscounts"`
	Subtotal          int64                     `json:"subtotal"`
	DiscountTotal     int64                     `json:"discountTotal"`
	PackagingFee      int64                     `json:"packagingFee"`
	PackageCount      int                       `json:"packageCount"`
	DeliveryFee       int64                     `json:"deliveryFee"`
	Total             int64                     `json:"total"`
}

type orderResponse struct {
	ID               string                   `json:"id"`
	Status           string                   `json:"status"`
	DeliveryDate     string                   `json:"deliveryDate"`
	Items            []orderItemPayload       `json:"items"`
	AppliedDiscounts []appliedDiscountPayload `json:"appliedDiscounts"`
	Subtotal         int64                    `json:"subtotal"`
	PackagingFee     int64                    `json:"packagingFee"`
	DeliveryFee      int64                    `json:"deliveryFee"`
	CreatedAt        string                   `json:"createdAt"`
}

type discountResponse struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Amount  int64  `json:"amount,omitempty"`
	Failure string `json:"failure,omitempty"`
	Error   string `json:"error,omitempty"`
}

type dailyLoadResponse struct {
	Date         string                `json:"date"`
	View         string                `json:"view"`
	IsOpen       bool                  `json:"isOpen"`
	HasEventSlot bool                  `json:"hasEventSlot"`
	Categories   []categoryLoadPayload `json:"categories"`
}

func (h *AdmissionHandlers) quote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req quoteRequest
	if !h.decode(ctx, w, r, &req) {
		return
	}
	quote, err := h.admission.Quote(ctx, services.QuoteCommand{
		DeliveryDate:  req.DeliveryDate,
		Items:         toCartLines(req.Items),
		DiscountCodes: req.DiscountCodes,
		DeliveryFee:   req.DeliveryFee,
		OrderID:       strings.TrimSpace(req.OrderID),
	})
	if err != nil {
		writeAdmissionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, newQuoteResponse(quote))
}

func (h *AdmissionHandlers) placeOrder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req quoteRequest
	if !h.decode(ctx, w, r, &req) {
		return
	}
	order, err := h.admission.PlaceOrder(ctx, services.PlaceOrderCommand{
		DeliveryDate:  req.DeliveryDate,
		Items:         toCartLines(req.Items),
		DiscountCodes: req.DiscountCodes,
		DeliveryFee:   req.DeliveryFee,
	})
	if err != nil {
		writeAdmissionError(ctx, w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/orders/"+order.ID)
	writeJSONResponse(w, http.StatusCreated, newOrderResponse(order))
}

func (h *AdmissionHandlers) validateDiscount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.discountLimiter != nil && !h.discountLimiter.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many discount validations, try again later", http.StatusTooManyRequests))
		return
	}
	var req validateDiscountRequest
	if !h.decode(ctx, w, r, &req) {
		return
	}
	result, err := h.admission.ValidateDiscountCode(ctx, services.ValidateDiscountCommand{
		Code:    req.Code,
		Items:   toCartLines(req.Items),
		OrderID: strings.TrimSpace(req.OrderID),
	})
	if err != nil {
		writeAdmissionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, discountResponse{
		Success: result.Success,
		Code:    result.Code,
		Amount:  result.Amount,
		Failure: string(result.Failure),
		Error:   result.Error,
	})
}

func (h *AdmissionHandlers) eventDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.admission == nil {
		writeServiceUnavailable(ctx, w)
		return
	}
	productID := chi.URLParam(r, "productId")
	dates, err := h.admission.EventDates(ctx, productID)
	if err != nil {
		writeAdmissionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"productId": productID, "dates": dates})
}

func (h *AdmissionHandlers) dailyLoad(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.admission == nil {
		writeServiceUnavailable(ctx, w)
		return
	}
	view := services.LoadView(strings.ToLower(strings.TrimSpace(r.URL.Query().Get("view"))))
	report, err := h.admission.DailyLoad(ctx, chi.URLParam(r, "date"), view)
	if err != nil {
		writeAdmissionError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, dailyLoadResponse{
		Date:         report.Date,
		View:         string(report.View),
		IsOpen:       report.IsOpen,
		HasEventSlot: report.HasEventSlot,
		Categories:   toCategoryLoads(report.Categories),
	})
}

// decode reads a bounded JSON body into dst and writes the error response itself on failure.
func (h *AdmissionHandlers) decode(ctx context.Context, w http.ResponseWriter, r *http.Request, dst any) bool {
	if h.admission == nil {
		writeServiceUnavailable(ctx, w)
		return false
	}
	data, err := readLimitedBody(r, maxAdmissionBodySize)
	if err != nil {
		switch {
		case errors.Is(err, errBodyTooLarge):
			httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body too large", http.StatusRequestEntityTooLarge))
		case errors.Is(err, errEmptyBody):
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		default:
			httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "unable to read request body", http.StatusBadRequest))
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_json", "request body must be valid JSON", http.StatusBadRequest))
		return false
	}
	return true
}

func writeAdmissionError(ctx context.Context, w http.ResponseWriter, err error) {
	var capErr *services.CapacityError
	if errors.As(err, &capErr) {
		decision := capErr.Decision
		httpx.WriteError(ctx, w, httpx.NewError("capacity_exceeded", decision.Reason, http.StatusConflict).WithDetails(map[string]any{
			"capacity": newCapacityPayload(decision),
		}))
		return
	}

	var repoErr repositories.RepositoryError
	switch {
	case errors.Is(err, services.ErrAdmissionInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("product_not_found", err.Error(), http.StatusNotFound))
	case errors.Is(err, services.ErrDuplicateDayConfig), errors.Is(err, services.ErrDuplicateEventSlot):
		httpx.WriteError(ctx, w, httpx.NewError("settings_invalid", "capacity settings are inconsistent", http.StatusInternalServerError))
	case errors.Is(err, context.DeadlineExceeded):
		httpx.WriteError(ctx, w, httpx.NewError("timeout", "request timed out", http.StatusGatewayTimeout))
	case errors.As(err, &repoErr) && repoErr.IsConflict():
		httpx.WriteError(ctx, w, httpx.NewError("conflict", "concurrent update, please retry", http.StatusConflict))
	case errors.As(err, &repoErr) && repoErr.IsUnavailable():
		httpx.WriteError(ctx, w, httpx.NewError("unavailable", "storage temporarily unavailable", http.StatusServiceUnavailable))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "internal server error", http.StatusInternalServerError))
	}
}

func writeServiceUnavailable(ctx context.Context, w http.ResponseWriter) {
	httpx.WriteError(ctx, w, httpx.NewError("admission_service_unavailable", "admission service unavailable", http.StatusServiceUnavailable))
}

func toCartLines(items []cartLinePayload) []services.CartLine {
	lines := make([]services.CartLine, 0, len(items))
	for _, item := range items {
		lines = append(lines, services.CartLine{ProductID: strings.TrimSpace(item.ProductID), Quantity: item.Quantity})
	}
	return lines
}

func toItems(items []services.CartItem) []orderItemPayload {
	out := make([]orderItemPayload, 0, len(items))
	for _, item := range items {
		out = append(out, orderItemPayload{
			ProductID: item.ID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			LineTotal: item.LineTotal(),
		})
	}
	return out
}

func toApplied(applied []services.AppliedDiscount) []appliedDiscountPayload {
	out := make([]appliedDiscountPayload, 0, len(applied))
	for _, a := range applied {
		out = append(out, appliedDiscountPayload{Code: a.Code, Amount: a.Amount})
	}
	return out
}

func toCategoryLoads(loads []services.CategoryLoad) []categoryLoadPayload {
	out := make([]categoryLoadPayload, 0, len(loads))
	for _, l := range loads {
		out = append(out, categoryLoadPayload(l))
	}
	return out
}

func newCapacityPayload(d services.CapacityDecision) capacityPayload {
	return capacityPayload{
		Allowed:  d.Allowed,
		Status:   string(d.Status),
		Reason:   d.Reason,
		Date:     d.Date,
		MinDate:  d.MinDate,
		Loads:    toCategoryLoads(d.Loads),
		Exceeded: d.Exceeded,
	}
}

func newQuoteResponse(q services.Quote) quoteResponse {
	rejected := make([]rejectedDiscountPayload, 0, len(q.Discounts.Rejected))
	for _, r := range q.Discounts.Rejected {
		rejected = append(rejected, rejectedDiscountPayload{Code: r.Code, Failure: string(r.Failure), Error: r.Error})
	}
	return quoteResponse{
		DeliveryDate:      q.DeliveryDate,
		Items:             toItems(q.Items),
		Capacity:          newCapacityPayload(q.Capacity),
		AppliedDiscounts:  toApplied(q.Discounts.Applied),
		RejectedDiscounts: rejected,
		Subtotal:          q.Subtotal,
		DiscountTotal:     q.DiscountTotal,
		PackagingFee:      q.PackagingFee,
		PackageCount:      q.PackageCount,
		DeliveryFee:       q.DeliveryFee,
		Total:             q.Total,
	}
}

func newOrderResponse(o services.Order) orderResponse {
	return orderResponse{
		ID:               o.ID,
		Status:           string(o.Status),
		DeliveryDate:     o.DeliveryDate,
		Items:            toItems(o.Items),
		AppliedDiscounts: toApplied(o.AppliedDiscounts),
		Subtotal:         o.Subtotal(),
		PackagingFee:     o.PackagingFee,
		DeliveryFee:      o.DeliveryFee,
		CreatedAt:        o.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r == nil || r.Body == nil {
		return nil, errEmptyBody
	}
	data, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, errEmptyBody
	}
	if int64(len(data)) > limit {
		return nil, errBodyTooLarge
	}
	return data, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
