package services

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/repositories"
)

const (
	orderIDPrefix = "ord_"

	// OrderEventAdmitted is published after an order passed the capacity gate and was stored.
	OrderEventAdmitted = "order.admitted"
)

var tracer = otel.Tracer("github.com/zdsmarda-cell/4Gracie-sub001/internal/services")

// LoadView selects which active-order set a load report uses.
type LoadView string

const (
	LoadViewProduction LoadView = "production"
	LoadViewDashboard  LoadView = "dashboard"
)

// CartLine references a catalog product by id.
type CartLine struct {
	ProductID string
	Quantity  int
}

// QuoteCommand previews a cart for a delivery date. OrderID marks an order being edited so it
// does not count against its own capacity or discount usage.
type QuoteCommand struct {
	DeliveryDate  string
	Items         []CartLine
	DiscountCodes []string
	DeliveryFee   int64
	OrderID       string
}

// PlaceOrderCommand submits a new order.
type PlaceOrderCommand struct {
	DeliveryDate  string
	Items         []CartLine
	DiscountCodes []string
	DeliveryFee   int64
}

// ValidateDiscountCommand validates one code against a cart.
type ValidateDiscountCommand struct {
	Code    string
	Items   []CartLine
	OrderID string
}

// Quote is the advisory checkout preview.
type Quote struct {
	DeliveryDate  string
	Items         []CartItem
	Capacity      CapacityDecision
	Discounts     DiscountRecalculation
	Subtotal      int64
	DiscountTotal int64
	PackagingFee  int64
	PackageCount  int
	DeliveryFee   int64
	Total         int64
}

// DailyLoad is the per-category load report for one date.
type DailyLoad struct {
	Date         string
	View         LoadView
	IsOpen       bool
	HasEventSlot bool
	Categories   []CategoryLoad
}

// OrderEvent describes an order domain event published to downstream consumers.
type OrderEvent struct {
	Type         string
	OrderID      string
	DeliveryDate string
	Status       string
	Total        int64
	OccurredAt   time.Time
	Metadata     map[string]any
}

// AdmissionServiceDeps bundles collaborators required to construct the admission service.
type AdmissionServiceDeps struct {
	Settings    repositories.SettingsRepository
	Catalog     repositories.CatalogRepository
	Discounts   repositories.DiscountRepository
	Orders      repositories.OrderRepository
	UnitOfWork  repositories.UnitOfWork
	Clock       func() time.Time
	Location    *time.Location
	IDGenerator func() string
	Events      OrderEventPublisher
	Logger      func(ctx context.Context, event string, fields map[string]any)
}

type admissionService struct {
	settings   repositories.SettingsRepository
	catalog    repositories.CatalogRepository
	discounts  repositories.DiscountRepository
	orders     repositories.OrderRepository
	unitOfWork repositories.UnitOfWork
	clock      func() time.Time
	location   *time.Location
	newID      func() string
	events     OrderEventPublisher
	logger     func(context.Context, string, map[string]any)
}

type admissionSnapshot struct {
	settings Settings
	products []Product
	codes    []DiscountCode
	orders   []Order
}

// NewAdmissionService wires dependencies into a concrete AdmissionService implementation.
func NewAdmissionService(deps AdmissionServiceDeps) (AdmissionService, error) {
	if deps.Settings == nil || deps.Catalog == nil || deps.Discounts == nil || deps.Orders == nil {
		return nil, ErrAdmissionRepositoryMissing
	}

	unit := deps.UnitOfWork
	if unit == nil {
		unit = noopUnitOfWork{}
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	location := deps.Location
	if location == nil {
		location = time.UTC
	}
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string {
			return ulid.Make().String()
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &admissionService{
		settings:   deps.Settings,
		catalog:    deps.Catalog,
		discounts:  deps.Discounts,
		orders:     deps.Orders,
		unitOfWork: unit,
		clock:      clock,
		location:   location,
		newID:      idGen,
		events:     deps.Events,
		logger:     logger,
	}, nil
}

func (s *admissionService) Quote(ctx context.Context, cmd QuoteCommand) (quote Quote, err error) {
	ctx, span := tracer.Start(ctx, "admission.Quote", trace.WithAttributes(
		attribute.String("delivery_date", cmd.DeliveryDate),
		attribute.Int("items", len(cmd.Items)),
	))
	defer func() { endSpan(span, err) }()

	date := strings.TrimSpace(cmd.DeliveryDate)
	if err := validateLines(cmd.Items); err != nil {
		return Quote{}, err
	}
	snap, err := s.loadSnapshot(ctx, date)
	if err != nil {
		return Quote{}, err
	}
	cart, err := buildCart(snap.products, cmd.Items)
	if err != nil {
		return Quote{}, err
	}
	return s.evaluate(snap, date, cart, cmd.DiscountCodes, cmd.DeliveryFee, cmd.OrderID), nil
}

func (s *admissionService) PlaceOrder(ctx context.Context, cmd PlaceOrderCommand) (order Order, err error) {
	ctx, span := tracer.Start(ctx, "admission.PlaceOrder", trace.WithAttributes(
		attribute.String("delivery_date", cmd.DeliveryDate),
		attribute.Int("items", len(cmd.Items)),
	))
	defer func() { endSpan(span, err) }()

	date := strings.TrimSpace(cmd.DeliveryDate)
	if date == "" {
		return Order{}, fmt.Errorf("%w: delivery date is required", ErrAdmissionInvalidInput)
	}
	if err := validateLines(cmd.Items); err != nil {
		return Order{}, err
	}

	var quote Quote
	err = s.runInTx(ctx, func(txCtx context.Context) error {
		snap, err := s.loadSnapshot(txCtx, date)
		if err != nil {
			return err
		}
		cart, err := buildCart(snap.products, cmd.Items)
		if err != nil {
			return err
		}
		quote = s.evaluate(snap, date, cart, cmd.DiscountCodes, cmd.DeliveryFee, "")
		if !quote.Capacity.Allowed {
			return &CapacityError{Decision: quote.Capacity}
		}

		now := s.clock().UTC()
		order = Order{
			ID:               orderIDPrefix + s.newID(),
			Items:            cart,
			Status:           domain.OrderStatusCreated,
			DeliveryDate:     date,
			AppliedDiscounts: quote.Discounts.Applied,
			PackagingFee:     quote.PackagingFee,
			DeliveryFee:      quote.DeliveryFee,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.orders.Insert(txCtx, order); err != nil {
			return fmt.Errorf("admission service: insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		var capErr *CapacityError
		if errors.As(err, &capErr) {
			s.logger(ctx, "admission.order.refused", map[string]any{
				"date":   date,
				"status": string(capErr.Decision.Status),
				"reason": capErr.Decision.Reason,
			})
		}
		return Order{}, err
	}

	for _, rejected := range quote.Discounts.Rejected {
		s.logger(ctx, "admission.discount.dropped", map[string]any{
			"order":   order.ID,
			"code":    rejected.Code,
			"failure": string(rejected.Failure),
		})
	}

	s.publishEvent(ctx, OrderEvent{
		Type:         OrderEventAdmitted,
		OrderID:      order.ID,
		DeliveryDate: order.DeliveryDate,
		Status:       string(order.Status),
		Total:        quote.Total,
		OccurredAt:   order.CreatedAt,
		Metadata: map[string]any{
			"packagingFee": quote.PackagingFee,
			"packageCount": quote.PackageCount,
			"discount":     quote.DiscountTotal,
		},
	})
	return order, nil
}

func (s *admissionService) ValidateDiscountCode(ctx context.Context, cmd ValidateDiscountCommand) (result DiscountResult, err error) {
	ctx, span := tracer.Start(ctx, "admission.ValidateDiscountCode")
	defer func() { endSpan(span, err) }()

	if err := validateLines(cmd.Items); err != nil {
		return DiscountResult{}, err
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return DiscountResult{}, fmt.Errorf("admission service: list products: %w", err)
	}
	cart, err := buildCart(products, cmd.Items)
	if err != nil {
		return DiscountResult{}, err
	}
	codes, err := s.discounts.ListDiscountCodes(ctx)
	if err != nil {
		return DiscountResult{}, fmt.Errorf("admission service: list discount codes: %w", err)
	}
	ledger, err := s.orders.ListWithDiscounts(ctx)
	if err != nil {
		return DiscountResult{}, fmt.Errorf("admission service: list discounted orders: %w", err)
	}

	return ValidateDiscount(DiscountRequest{
		Code:           cmd.Code,
		Cart:           cart,
		Codes:          codes,
		Orders:         ledger,
		Today:          s.today(),
		ExcludeOrderID: cmd.OrderID,
	}), nil
}

func (s *admissionService) EventDates(ctx context.Context, productID string) (dates []string, err error) {
	ctx, span := tracer.Start(ctx, "admission.EventDates", trace.WithAttributes(attribute.String("product_id", productID)))
	defer func() { endSpan(span, err) }()

	productID = strings.TrimSpace(productID)
	if productID == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrAdmissionInvalidInput)
	}
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, productID)
		}
		return nil, fmt.Errorf("admission service: get product: %w", err)
	}
	if !product.IsEventProduct {
		return []string{}, nil
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("admission service: load settings: %w", err)
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("admission service: list products: %w", err)
	}
	slotDates := make([]string, 0, len(settings.EventSlots))
	for _, slot := range settings.EventSlots {
		slotDates = append(slotDates, slot.Date)
	}
	var orders []Order
	if len(slotDates) > 0 {
		orders, err = s.orders.ListByDeliveryDates(ctx, slotDates)
		if err != nil {
			return nil, fmt.Errorf("admission service: list orders: %w", err)
		}
	}

	dates = AvailableEventDates(EventAvailabilityRequest{
		Product:  product,
		Settings: settings,
		Orders:   orders,
		Products: products,
		Today:    s.today(),
	})
	if dates == nil {
		dates = []string{}
	}
	return dates, nil
}

func (s *admissionService) DailyLoad(ctx context.Context, date string, view LoadView) (report DailyLoad, err error) {
	ctx, span := tracer.Start(ctx, "admission.DailyLoad", trace.WithAttributes(
		attribute.String("date", date),
		attribute.String("view", string(view)),
	))
	defer func() { endSpan(span, err) }()

	date = strings.TrimSpace(date)
	if _, err := domain.ParseDate(date); err != nil {
		return DailyLoad{}, fmt.Errorf("%w: %v", ErrAdmissionInvalidInput, err)
	}
	var excluded []OrderStatus
	switch view {
	case "", LoadViewProduction:
		view = LoadViewProduction
		excluded = ProductionExcludedStatuses
	case LoadViewDashboard:
		excluded = DashboardExcludedStatuses
	default:
		return DailyLoad{}, fmt.Errorf("%w: unknown view %q", ErrAdmissionInvalidInput, view)
	}

	settings, err := s.loadSettings(ctx)
	if err != nil {
		return DailyLoad{}, fmt.Errorf("admission service: load settings: %w", err)
	}
	resolver, err := NewCapacityResolver(settings)
	if err != nil {
		return DailyLoad{}, err
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return DailyLoad{}, fmt.Errorf("admission service: list products: %w", err)
	}
	orders, err := s.orders.ListByDeliveryDate(ctx, date)
	if err != nil {
		return DailyLoad{}, fmt.Errorf("admission service: list orders: %w", err)
	}

	totals := AggregateWorkload(ActiveOrders(OrdersForDate(orders, date), excluded), products, settings.Categories)
	return DailyLoad{
		Date:         date,
		View:         view,
		IsOpen:       resolver.IsOpen(date),
		HasEventSlot: resolver.HasEventSlot(date),
		Categories:   categoryLoads(settings.Categories, date, resolver, totals, totals),
	}, nil
}

// evaluate runs the engine over one snapshot. Quote and PlaceOrder share it so the preview and
// the authoritative gate cannot drift apart.
func (s *admissionService) evaluate(snap admissionSnapshot, date string, cart []CartItem, codes []string, deliveryFee int64, excludeOrderID string) Quote {
	today := s.today()
	decision := CheckCapacity(CapacityRequest{
		Date:           date,
		Cart:           cart,
		Orders:         snap.orders,
		Products:       snap.products,
		Settings:       snap.settings,
		Today:          today,
		ExcludeOrderID: excludeOrderID,
	})
	discounts := RecalculateDiscounts(RecalculateRequest{
		Requested:      codes,
		Cart:           cart,
		Codes:          snap.codes,
		Orders:         snap.orders,
		Today:          today,
		ExcludeOrderID: excludeOrderID,
	})
	subtotal := cartTotal(cart)
	fee := CalculatePackagingFee(cart, snap.settings.PackagingTypes, snap.settings.PackagingFreeFrom)
	if deliveryFee < 0 {
		deliveryFee = 0
	}

	return Quote{
		DeliveryDate:  date,
		Items:         cart,
		Capacity:      decision,
		Discounts:     discounts,
		Subtotal:      subtotal,
		DiscountTotal: discounts.Total,
		PackagingFee:  fee,
		PackageCount:  CalculatePackageCount(cart, snap.settings.PackagingTypes),
		DeliveryFee:   deliveryFee,
		Total:         subtotal - discounts.Total + fee + deliveryFee,
	}
}

// loadSnapshot reads everything the engine needs for one date. The order ledger merges the
// date's orders with every discounted order so usage counts stay exact.
func (s *admissionService) loadSnapshot(ctx context.Context, date string) (admissionSnapshot, error) {
	settings, err := s.loadSettings(ctx)
	if err != nil {
		return admissionSnapshot{}, fmt.Errorf("admission service: load settings: %w", err)
	}
	products, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return admissionSnapshot{}, fmt.Errorf("admission service: list products: %w", err)
	}
	codes, err := s.discounts.ListDiscountCodes(ctx)
	if err != nil {
		return admissionSnapshot{}, fmt.Errorf("admission service: list discount codes: %w", err)
	}
	var dated []Order
	if _, perr := domain.ParseDate(date); perr == nil {
		dated, err = s.orders.ListByDeliveryDate(ctx, date)
		if err != nil {
			return admissionSnapshot{}, fmt.Errorf("admission service: list orders: %w", err)
		}
	}
	discounted, err := s.orders.ListWithDiscounts(ctx)
	if err != nil {
		return admissionSnapshot{}, fmt.Errorf("admission service: list discounted orders: %w", err)
	}

	return admissionSnapshot{
		settings: settings,
		products: products,
		codes:    codes,
		orders:   mergeOrders(dated, discounted),
	}, nil
}

// loadSettings returns a deep copy of the stored settings.
func (s *admissionService) loadSettings(ctx context.Context) (Settings, error) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		return Settings{}, err
	}
	return settings.Clone(), nil
}

func (s *admissionService) today() time.Time {
	return s.clock().In(s.location)
}

func (s *admissionService) runInTx(ctx context.Context, fn func(context.Context) error) error {
	if s.unitOfWork == nil {
		return fn(ctx)
	}
	return s.unitOfWork.RunInTx(ctx, fn)
}

func (s *admissionService) publishEvent(ctx context.Context, event OrderEvent) {
	if s.events == nil {
		return
	}
	if event.Metadata != nil {
		event.Metadata = maps.Clone(event.Metadata)
	}
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger(ctx, "admission.event.publish.failed", map[string]any{
			"type":  event.Type,
			"order": event.OrderID,
			"error": err.Error(),
		})
	}
}

func buildCart(products []Product, lines []CartLine) ([]CartItem, error) {
	catalog := indexProducts(products)
	cart := make([]CartItem, 0, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ProductID)
		product, ok := catalog[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrProductNotFound, id)
		}
		cart = append(cart, CartItem{Product: product, Quantity: line.Quantity})
	}
	return cart, nil
}

func validateLines(lines []CartLine) error {
	if len(lines) == 0 {
		return fmt.Errorf("%w: cart must contain at least one item", ErrAdmissionInvalidInput)
	}
	for _, line := range lines {
		if strings.TrimSpace(line.ProductID) == "" {
			return fmt.Errorf("%w: product id is required", ErrAdmissionInvalidInput)
		}
		if line.Quantity <= 0 {
			return fmt.Errorf("%w: quantity must be positive", ErrAdmissionInvalidInput)
		}
	}
	return nil
}

func mergeOrders(sets ...[]Order) []Order {
	seen := make(map[string]struct{})
	var out []Order
	for _, set := range sets {
		for _, order := range set {
			if order.ID != "" {
				if _, dup := seen[order.ID]; dup {
					continue
				}
				seen[order.ID] = struct{}{}
			}
			out = append(out, order)
		}
	}
	return out
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

type noopUnitOfWork struct{}

func (noopUnitOfWork) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	return fn(ctx)
}
