package firestore

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/firestore"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
	pfirestore "github.com/zdsmarda-cell/4Gracie-sub001/internal/platform/firestore"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/repositories"
)

const productsCollection = "products"

// CatalogRepository reads products keyed by document id.
type CatalogRepository struct {
	products *pfirestore.Collection[domain.Product]
}

var _ repositories.CatalogRepository = (*CatalogRepository)(nil)

// NewCatalogRepository constructs a Firestore-backed catalog repository.
func NewCatalogRepository(provider *pfirestore.Provider) (*CatalogRepository, error) {
	if provider == nil {
		return nil, errors.New("catalog repository requires firestore provider")
	}
	return &CatalogRepository{
		products: pfirestore.NewCollection(provider, productsCollection, func(snap *firestore.DocumentSnapshot) (domain.Product, error) {
			var doc productDocument
			if err := snap.DataTo(&doc); err != nil {
				return domain.Product{}, err
			}
			return doc.toDomain(snap.Ref.ID), nil
		}),
	}, nil
}

func (r *CatalogRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return r.products.Query(ctx, func(q firestore.Query) firestore.Query {
		return q.OrderBy(firestore.DocumentID, firestore.Asc)
	})
}

func (r *CatalogRepository) GetProduct(ctx context.Context, productID string) (domain.Product, error) {
	return r.products.Get(ctx, strings.TrimSpace(productID))
}

// SaveProduct upserts a product under its id.
func (r *CatalogRepository) SaveProduct(ctx context.Context, product domain.Product) error {
	return r.products.Set(ctx, strings.TrimSpace(product.ID), productToDocument(product))
}
