package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/api/iterator"

	pfirestore "github.com/zdsmarda-cell/4Gracie-sub001/internal/platform/firestore"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/repositories"
)

const firestoreCheckTimeout = 1500 * time.Millisecond

// RegistryOption customises the Firestore registry.
type RegistryOption func(*registryConfig)

type registryConfig struct {
	txOpts []pfirestore.TxOption
	checks []repositories.DependencyCheck
}

// WithTxOptions applies transaction options to every RunInTx call.
func WithTxOptions(opts ...pfirestore.TxOption) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.txOpts = append(cfg.txOpts, opts...)
	}
}

// WithDependencyChecks adds readiness checks for dependencies outside Firestore.
func WithDependencyChecks(checks ...repositories.DependencyCheck) RegistryOption {
	return func(cfg *registryConfig) {
		cfg.checks = append(cfg.checks, checks...)
	}
}

// Registry assembles every Firestore repository over one provider.
type Registry struct {
	provider  *pfirestore.Provider
	unit      *pfirestore.UnitOfWork
	settings  *SettingsRepository
	catalog   *CatalogRepository
	discounts *DiscountRepository
	orders    *OrderRepository
	health    repositories.HealthRepository
}

var _ repositories.Registry = (*Registry)(nil)

// NewRegistry constructs the repositories. Closing the registry closes the provider.
func NewRegistry(provider *pfirestore.Provider, opts ...RegistryOption) (*Registry, error) {
	if provider == nil {
		return nil, errors.New("firestore registry requires provider")
	}
	var cfg registryConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	settings, err := NewSettingsRepository(provider)
	if err != nil {
		return nil, err
	}
	catalog, err := NewCatalogRepository(provider)
	if err != nil {
		return nil, err
	}
	discounts, err := NewDiscountRepository(provider)
	if err != nil {
		return nil, err
	}
	orders, err := NewOrderRepository(provider)
	if err != nil {
		return nil, err
	}

	checks := append([]repositories.DependencyCheck{{
		Name:    "firestore",
		Timeout: firestoreCheckTimeout,
		Check: func(ctx context.Context) error {
			client, err := provider.Client(ctx)
			if err != nil {
				return err
			}
			_, err = client.Collections(ctx).Next()
			if errors.Is(err, iterator.Done) {
				return nil
			}
			return err
		},
	}}, cfg.checks...)
	health, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, fmt.Errorf("firestore registry: %w", err)
	}

	return &Registry{
		provider:  provider,
		unit:      pfirestore.NewUnitOfWork(provider, cfg.txOpts...),
		settings:  settings,
		catalog:   catalog,
		discounts: discounts,
		orders:    orders,
		health:    health,
	}, nil
}

func (r *Registry) Close(ctx context.Context) error {
	return r.provider.Close(ctx)
}

func (r *Registry) Settings() repositories.SettingsRepository { return r.settings }
func (r *Registry) Catalog() repositories.CatalogRepository { return r.catalog }
func (r *Registry) Discounts() repositories.DiscountRepository { return r.discounts }
func (r *Registry) Orders() repositories.OrderRepository { return r.orders }
func (r *Registry) Health() repositories.HealthRepository { return r.health }

// RunInTx runs fn in one Firestore transaction; repositories called with the callback context
// join it.
func (r *Registry) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return r.unit.RunInTx(ctx, fn)
}
