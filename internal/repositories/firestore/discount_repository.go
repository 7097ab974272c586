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

const discountCodesCollection = "discountCodes"

// DiscountRepository reads configured discount codes.
type DiscountRepository struct {
	codes *pfirestore.Collection[domain.DiscountCode]
}

var _ repositories.DiscountRepository = (*DiscountRepository)(nil)

// NewDiscountRepository constructs a Firestore-backed discount code repository.
func NewDiscountRepository(provider *pfirestore.Provider) (*DiscountRepository, error) {
	if provider == nil {
		return nil, errors.New("discount repository requires firestore provider")
	}
	return &DiscountRepository{
		codes: pfirestore.NewCollection(provider, discountCodesCollection, func(snap *firestore.DocumentSnapshot) (domain.DiscountCode, error) {
			var doc discountCodeDocument
			if err := snap.DataTo(&doc); err != nil {
				return domain.DiscountCode{}, err
			}
			if strings.TrimSpace(doc.Code) == "" {
				doc.Code = snap.Ref.ID
			}
			return doc.toDomain(), nil
		}),
	}, nil
}

// ListDiscountCodes returns every code, enabled or not; the validator reports disabled codes.
func (r *DiscountRepository) ListDiscountCodes(ctx context.Context) ([]domain.DiscountCode, error) {
	return r.codes.Query(ctx, nil)
}

// SaveDiscountCode upserts a code keyed by its upper-cased value.
func (r *DiscountRepository) SaveDiscountCode(ctx context.Context, code domain.DiscountCode) error {
	return r.codes.Set(ctx, strings.ToUpper(strings.TrimSpace(code.Code)), discountCodeToDocument(code))
}
