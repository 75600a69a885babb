package settingsrepo

import (
	"context"
	"errors"
	"strings"

	"deliveryhub/internal/core/domain/model/restaurant"
	"deliveryhub/internal/pkg/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormSettingsRepository implements ports.RestaurantSettingsRepository using GORM.
type GormSettingsRepository struct {
	db *gorm.DB
}

func NewGormSettingsRepository(db *gorm.DB) *GormSettingsRepository {
	return &GormSettingsRepository{db: db}
}

func (r *GormSettingsRepository) Get(ctx context.Context, restaurantID string) (restaurant.Settings, error) {
	restaurantID = strings.TrimSpace(restaurantID)
	if restaurantID == "" {
		return restaurant.Settings{}, errs.NewValueIsRequiredError("restaurantId")
	}

	var dto SettingsDTO
	if err := r.db.WithContext(ctx).First(&dto, "restaurant_id = ?", restaurantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return restaurant.Settings{}, errs.NewObjectNotFoundError("restaurant settings", restaurantID)
		}
		return restaurant.Settings{}, err
	}

	return toDomain(dto)
}

// Save upserts on restaurant_id.
func (r *GormSettingsRepository) Save(ctx context.Context, settings restaurant.Settings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dto := fromDomain(settings)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "restaurant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"default_provider", "enabled_providers", "updated_at"}),
		}).
		Create(&dto).Error
}
