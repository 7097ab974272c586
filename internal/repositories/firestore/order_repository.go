package firestore

import (
	"context"
	"errors"
	"slices"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
	pfirestore "github.com/zdsmarda-cell/4Gracie-sub001/internal/platform/firestore"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/repositories"
)

const (
	ordersCollection = "orders"
	// Firestore caps the number of values in an "in" filter.
	maxInFilterValues = 30
)

// OrderRepository persists orders and serves the ledger queries used by the admission flow.
type OrderRepository struct {
	orders *pfirestore.Collection[domain.Order]
}

var _ repositories.OrderRepository = (*OrderRepository)(nil)

// NewOrderRepository constructs a Firestore-backed order repository.
func NewOrderRepository(provider *pfirestore.Provider) (*OrderRepository, error) {
	if provider == nil {
		return nil, errors.New("order repository requires firestore provider")
	}
	return &OrderRepository{
		orders: pfirestore.NewCollection(provider, ordersCollection, func(snap *firestore.DocumentSnapshot) (domain.Order, error) {
			var doc orderDocument
			if err := snap.DataTo(&doc); err != nil {
				return domain.Order{}, err
			}
			return doc.toDomain(snap.Ref.ID), nil
		}),
	}, nil
}

// Insert creates the order; an existing id is reported as a conflict.
func (r *OrderRepository) Insert(ctx context.Context, order domain.Order) error {
	id := strings.TrimSpace(order.ID)
	if id == "" {
		return errors.New("order repository: order id is required")
	}
	return r.orders.Create(ctx, id, orderToDocument(order))
}

func (r *OrderRepository) FindByID(ctx context.Context, orderID string) (domain.Order, error) {
	return r.orders.Get(ctx, strings.TrimSpace(orderID))
}

func (r *OrderRepository) ListByDeliveryDate(ctx context.Context, date string) ([]domain.Order, error) {
	return r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("deliveryDate", "==", date)
	})
}

func (r *OrderRepository) ListByDeliveryDates(ctx context.Context, dates []string) ([]domain.Order, error) {
	unique := slices.Compact(slices.Sorted(slices.Values(dates)))
	var out []domain.Order
	for chunk := range slices.Chunk(unique, maxInFilterValues) {
		values := chunk
		orders, err := r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
			return q.Where("deliveryDate", "in", values)
		})
		if err != nil {
			return nil, err
		}
		out = append(out, orders...)
	}
	return out, nil
}

func (r *OrderRepository) ListWithDiscounts(ctx context.Context) ([]domain.Order, error) {
	return r.orders.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("hasDiscounts", "==", true)
	})
}
