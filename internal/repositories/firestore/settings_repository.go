package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"

	domain "github.com/zdsmarda-cell/4Gracie-sub001/internal/domain"
	pfirestore "github.com/zdsmarda-cell/4Gracie-sub001/internal/platform/firestore"
	"github.com/zdsmarda-cell/4Gracie-sub001/internal/repositories"
)

const (
	settingsCollection = "settings"
	settingsDocID      = "capacity"
)

// SettingsRepository reads the capacity settings singleton document.
type SettingsRepository struct {
	docs *pfirestore.Collection[domain.Settings]
}

var _ repositories.SettingsRepository = (*SettingsRepository)(nil)

// NewSettingsRepository constructs a Firestore-backed settings repository.
func NewSettingsRepository(provider *pfirestore.Provider) (*SettingsRepository, error) {
	if provider == nil {
		return nil, errors.New("settings repository requires firestore provider")
	}
	return &SettingsRepository{
		docs: pfirestore.NewCollection(provider, settingsCollection, func(snap *firestore.DocumentSnapshot) (domain.Settings, error) {
			var doc settingsDocument
			if err := snap.DataTo(&doc); err != nil {
				return domain.Settings{}, err
			}
			return doc.toDomain(), nil
		}),
	}, nil
}

// Load returns the current settings. A missing document yields empty settings, which closes
// every date for lack of capacity.
func (r *SettingsRepository) Load(ctx context.Context) (domain.Settings, error) {
	settings, err := r.docs.Get(ctx, settingsDocID)
	if err != nil {
		var repoErr repositories.RepositoryError
		if errors.As(err, &repoErr) && repoErr.IsNotFound() {
			return domain.Settings{}, nil
		}
		return domain.Settings{}, err
	}
	return settings, nil
}

// Save overwrites the settings document.
func (r *SettingsRepository) Save(ctx context.Context, settings domain.Settings) error {
	return r.docs.Set(ctx, settingsDocID, settingsToDocument(settings))
}
