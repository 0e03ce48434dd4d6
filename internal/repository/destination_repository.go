package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	destinationDomain "github.com/wayfinder-labs/service-wayfinding/internal/domain/destination"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"gorm.io/gorm"
)

// DestinationModel is the GORM model for the destinations table.
type DestinationModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null;size:200"`
	SessionID string    `gorm:"size:100;index"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName returns the table name for the GORM model.
func (DestinationModel) TableName() string {
	return "destinations"
}

// GormDestinationRepository is the GORM-based implementation of destination.Repository.
type GormDestinationRepository struct {
	db *gorm.DB
}

// NewGormDestinationRepository creates a new GormDestinationRepository.
func NewGormDestinationRepository(db *gorm.DB) *GormDestinationRepository {
	return &GormDestinationRepository{db: db}
}

// Latest retrieves the most recently created destination.
func (r *GormDestinationRepository) Latest(ctx context.Context) (*destinationDomain.Destination, error) {
	var model DestinationModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Destination", "latest")
		}
		return nil, fmt.Errorf("failed to find latest destination: %w", err)
	}
	return destinationDomain.ReconstructDestination(model.ID, model.Name, model.SessionID, model.CreatedAt), nil
}

// Save persists a new destination.
func (r *GormDestinationRepository) Save(ctx context.Context, d *destinationDomain.Destination) error {
	model := DestinationModel{
		ID:        d.ID(),
		Name:      d.Name(),
		SessionID: d.SessionID(),
		CreatedAt: d.CreatedAt(),
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save destination: %w", err)
	}
	return nil
}
