package repositories

import (
	"context"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
)

// Registry exposes typed repository accessors and lifecycle hooks for dependency injection.
type Registry interface {
	Close(ctx context.Context) error

	Settings() SettingsRepository
	Catalog() CatalogRepository
	Discounts() DiscountRepository
	Orders() OrderRepository
	Health() HealthRepository
	UnitOfWork
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// UnitOfWork allows grouping repository operations in a transactional boundary when supported.
// Repositories invoked with the context passed to fn participate in the same transaction.
type UnitOfWork interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// SettingsRepository loads the capacity and packaging configuration snapshot.
type SettingsRepository interface {
	Load(ctx context.Context) (domain.Settings, error)
}

// CatalogRepository reads the live product catalog.
type CatalogRepository interface {
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, productID string) (domain.Product, error)
}

// DiscountRepository reads configured discount codes.
type DiscountRepository interface {
	ListDiscountCodes(ctx context.Context) ([]domain.DiscountCode, error)
}

// OrderRepository persists orders and reads the order ledger.
type OrderRepository interface {
	Insert(ctx context.Context, order domain.Order) error
	FindByID(ctx context.Context, orderID string) (domain.Order, error)
	// ListByDeliveryDate returns every order of the date regardless of status.
	ListByDeliveryDate(ctx context.Context, date string) ([]domain.Order, error)
	// ListByDeliveryDates returns every order delivered on any of the dates.
	ListByDeliveryDates(ctx context.Context, dates []string) ([]domain.Order, error)
	// ListWithDiscounts returns orders that carry at least one applied discount.
	ListWithDiscounts(ctx context.Context) ([]domain.Order, error)
}

// HealthRepository collects dependency health for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
