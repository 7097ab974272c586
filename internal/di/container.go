package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zdsmarda-cell/4Gracie-sub001/internal/platform/config"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/repositories"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/services"
)

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Admission services.AdmissionService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories repositories.Registry
	Services     Services
}

// Option customises container construction.
type Option func(*options)

type options struct {
	events services.OrderEventPublisher
	logger func(ctx context.Context, event string, fields map[string]any)
	clock  func() time.Time
}

// WithOrderEvents publishes admitted orders through publisher.
func WithOrderEvents(publisher services.OrderEventPublisher) Option {
	return func(o *options) {
		o.events = publisher
	}
}

// WithEventLogger routes service events to logger.
func WithEventLogger(logger func(ctx context.Context, event string, fields map[string]any)) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithClock overrides the service clock.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// NewContainer constructs the runtime dependencies. Tests can supply in-memory registries.
func NewContainer(ctx context.Context, cfg config.Config, reg repositories.Registry, opts ...Option) (*Container, error) {
	if reg == nil {
		return nil, errors.New("repositories registry is required")
	}
	o := options{clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	svc, err := buildServices(ctx, reg, cfg, o)
	if err != nil {
		return nil, err
	}

	return &Container{
		Config:       cfg,
		Repositories: reg,
		Services:     svc,
	}, nil
}

// Close releases the repository clients.
func (c *Container) Close(ctx context.Context) error {
	if c == nil || c.Repositories == nil {
		return nil
	}
	return c.Repositories.Close(ctx)
}

func buildServices(_ context.Context, reg repositories.Registry, cfg config.Config, o options) (Services, error) {
	admission, err := services.NewAdmissionService(services.AdmissionServiceDeps{
		Settings:   reg.Settings(),
		Catalog:    reg.Catalog(),
		Discounts:  reg.Discounts(),
		Orders:     reg.Orders(),
		UnitOfWork: reg,
		Clock:      o.clock,
		Location:   cfg.Admission.Location,
		Events:     o.events,
		Logger:     o.logger,
	})
	if err != nil {
		return Services{}, fmt.Errorf("build admission service: %w", err)
	}
	return Services{Admission: admission}, nil
}
