package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/movement"
	"github.com/wayfinder-labs/service-wayfinding/internal/domain/navigation"
	"github.com/wayfinder-labs/service-wayfinding/internal/platform/domain"
	"gorm.io/gorm"
)

// MovementModel is one step row in the movements table.
type MovementModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	RouteID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_movements_route_seq"`
	Seq         int       `gorm:"not null;uniqueIndex:idx_movements_route_seq"`
	Start       string    `gorm:"size:200"`
	Destination string    `gorm:"size:200"`
	Action      string    `gorm:"not null;size:20"`
	Distance    float64   `gorm:"not null;default:0"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName returns the table name for the GORM model.
func (MovementModel) TableName() string {
	return "movements"
}

// MovementBatchModel holds a whole route as one row in the movement_batches table.
type MovementBatchModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	RouteID       uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null"`
	Start         string          `gorm:"size:200"`
	Destination   string          `gorm:"size:200"`
	Steps         json.RawMessage `gorm:"type:jsonb;not null"`
	TotalDistance float64         `gorm:"not null;default:0"`
	CreatedAt     time.Time       `gorm:"not null;index"`
}

// TableName returns the table name for the GORM model.
func (MovementBatchModel) TableName() string {
	return "movement_batches"
}

// GormStepMovementRepository writes one row per step, in a single transaction per route.
type GormStepMovementRepository struct {
	db *gorm.DB
}

// NewGormStepMovementRepository creates a new GormStepMovementRepository.
func NewGormStepMovementRepository(db *gorm.DB) *GormStepMovementRepository {
	return &GormStepMovementRepository{db: db}
}

// Write persists every step of rec.
func (r *GormStepMovementRepository) Write(ctx context.Context, rec *movement.Record) error {
	if len(rec.Steps) == 0 {
		return nil
	}

	models := make([]MovementModel, len(rec.Steps))
	for i, s := range rec.Steps {
		models[i] = MovementModel{
			ID:          uuid.New(),
			RouteID:     rec.RouteID,
			Seq:         i,
			Start:       rec.Start,
			Destination: rec.Destination,
			Action:      string(s.Action),
			Distance:    s.Distance,
			CreatedAt:   rec.CreatedAt,
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		return fmt.Errorf("failed to save movements: %w", err)
	}
	return nil
}

// Latest reassembles the most recently written route.
func (r *GormStepMovementRepository) Latest(ctx context.Context) (*movement.Record, error) {
	var head MovementModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&head).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Movement", "latest")
		}
		return nil, fmt.Errorf("failed to find latest movement: %w", err)
	}

	var models []MovementModel
	if err := r.db.WithContext(ctx).
		Where("route_id = ?", head.RouteID).
		Order("seq ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load route movements: %w", err)
	}

	steps := make([]navigation.Step, len(models))
	for i, m := range models {
		steps[i] = navigation.Step{Action: navigation.StepAction(m.Action), Distance: m.Distance}
	}
	return &movement.Record{
		RouteID:     head.RouteID,
		Start:       head.Start,
		Destination: head.Destination,
		Steps:       steps,
		CreatedAt:   head.CreatedAt,
	}, nil
}

// GormBatchMovementRepository writes each route as a single JSONB row.
type GormBatchMovementRepository struct {
	db *gorm.DB
}

// NewGormBatchMovementRepository creates a new GormBatchMovementRepository.
func NewGormBatchMovementRepository(db *gorm.DB) *GormBatchMovementRepository {
	return &GormBatchMovementRepository{db: db}
}

// Write persists rec as one row.
func (r *GormBatchMovementRepository) Write(ctx context.Context, rec *movement.Record) error {
	stepsJSON, err := json.Marshal(rec.Steps)
	if err != nil {
		return fmt.Errorf("failed to marshal steps: %w", err)
	}

	model := MovementBatchModel{
		ID:            uuid.New(),
		RouteID:       rec.RouteID,
		Start:         rec.Start,
		Destination:   rec.Destination,
		Steps:         stepsJSON,
		TotalDistance: rec.TotalDistance(),
		CreatedAt:     rec.CreatedAt,
	}
	if err := r.db.WithContext(ctx).Create(&model).Error; err != nil {
		return fmt.Errorf("failed to save movement batch: %w", err)
	}
	return nil
}

// Latest returns the most recently written route.
func (r *GormBatchMovementRepository) Latest(ctx context.Context) (*movement.Record, error) {
	var model MovementBatchModel
	if err := r.db.WithContext(ctx).Order("created_at DESC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Movement", "latest")
		}
		return nil, fmt.Errorf("failed to find latest movement batch: %w", err)
	}

	var steps []navigation.Step
	if err := json.Unmarshal(model.Steps, &steps); err != nil {
		return nil, fmt.Errorf("failed to unmarshal steps: %w", err)
	}
	return &movement.Record{
		RouteID:     model.RouteID,
		Start:       model.Start,
		Destination: model.Destination,
		Steps:       steps,
		CreatedAt:   model.CreatedAt,
	}, nil
}
