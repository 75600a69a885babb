package deliveryrepo

import (
	"context"
	"errors"
	"strings"

	"deliveryhub/internal/core/domain/model/delivery"
	"deliveryhub/internal/core/domain/model/kernel"
	"deliveryhub/internal/pkg/errs"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const uniqueViolation = "23505"

// GormDeliveryRepository implements ports.DeliveryRepository using GORM.
type GormDeliveryRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
}

// aggregateTracker collects aggregates whose domain events are published after commit.
type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormDeliveryRepository(db *gorm.DB, tracker aggregateTracker) *GormDeliveryRepository {
	return &GormDeliveryRepository{
		db:      db,
		tracker: tracker,
	}
}

// Add inserts a new delivery. The unique order_id index turns a second delivery for the
// same order into ObjectAlreadyExistsError.
func (r *GormDeliveryRepository) Add(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return errs.NewObjectAlreadyExistsErrorWithCause("delivery for order", aggregate.OrderID(), err)
		}
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return errs.NewObjectAlreadyExistsErrorWithCause("delivery for order", aggregate.OrderID(), err)
		}
		return err
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes every column of the delivery, including zeroed ones.
func (r *GormDeliveryRepository) Update(ctx context.Context, aggregate *delivery.Delivery) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	result := r.db.WithContext(ctx).Model(&DeliveryDTO{ID: dto.ID}).Select("*").Updates(&dto)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		return errs.NewObjectNotFoundError("delivery", aggregate.ID().String())
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormDeliveryRepository) Get(ctx context.Context, id kernel.UUID) (*delivery.Delivery, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}
	return r.first(ctx, id.String(), "id = ?", id.Bytes())
}

func (r *GormDeliveryRepository) GetByOrderID(ctx context.Context, orderID string) (*delivery.Delivery, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, errs.NewValueIsRequiredError("orderId")
	}
	return r.first(ctx, orderID, "order_id = ?", orderID)
}

func (r *GormDeliveryRepository) GetByProviderIdentifier(
	ctx context.Context,
	provider delivery.Provider,
	providerIdentifier string,
) (*delivery.Delivery, error) {
	if err := provider.Validate(); err != nil {
		return nil, err
	}
	providerIdentifier = strings.TrimSpace(providerIdentifier)
	if providerIdentifier == "" {
		return nil, errs.NewValueIsRequiredError("providerIdentifier")
	}
	return r.first(ctx, string(provider)+":"+providerIdentifier,
		"provider = ? AND provider_identifier = ?", string(provider), providerIdentifier)
}

// GetAwaitingDispatch returns the oldest deliveries that have a provider but no booking.
// Rows are not locked; the dispatch handler re-reads each one under lock before it
// records the outcome.
func (r *GormDeliveryRepository) GetAwaitingDispatch(ctx context.Context, limit int) ([]*delivery.Delivery, error) {
	if limit <= 0 {
		return nil, errs.NewValueIsOutOfRangeError("limit", limit, 1, "unbounded")
	}

	var dtos []DeliveryDTO
	err := r.db.WithContext(ctx).
		Where("status = ? AND provider IS NOT NULL AND dispatched_at IS NULL AND failure_reason = ''",
			delivery.Pending.String()).
		Order("created_at").
		Limit(limit).
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(dtos)
}

func (r *GormDeliveryRepository) GetActiveByProvider(
	ctx context.Context,
	provider delivery.Provider,
) ([]*delivery.Delivery, error) {
	if err := provider.Validate(); err != nil {
		return nil, err
	}

	var dtos []DeliveryDTO
	err := r.db.WithContext(ctx).
		Where("provider = ? AND dispatched_at IS NOT NULL AND status NOT IN ?",
			string(provider), terminalStatuses()).
		Order("dispatched_at").
		Find(&dtos).Error
	if err != nil {
		return nil, err
	}
	return toDomainList(dtos)
}

// first loads one delivery and locks its row until the enclosing transaction ends.
func (r *GormDeliveryRepository) first(ctx context.Context, key string, query string, args ...any) (*delivery.Delivery, error) {
	var dto DeliveryDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where(query, args...).
		First(&dto).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("delivery", key)
		}
		return nil, err
	}
	return toDomain(dto)
}

func toDomainList(dtos []DeliveryDTO) ([]*delivery.Delivery, error) {
	deliveries := make([]*delivery.Delivery, 0, len(dtos))
	for _, dto := range dtos {
		d, err := toDomain(dto)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, nil
}

func terminalStatuses() []string {
	var terminal []string
	for _, s := range delivery.Statuses() {
		if s.IsTerminal() {
			terminal = append(terminal, s.String())
		}
	}
	return terminal
}
