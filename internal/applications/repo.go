package applications

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Fares-ag/blox-backend/pkg/db/models"
	"github.com/Fares-ag/blox-backend/pkg/types"
)

// Repository handles application persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a GORM DB to application operations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindByID loads an application by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	var app models.Application
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// UpdatePlan replaces the installment plan column for one application.
func (r *Repository) UpdatePlan(ctx context.Context, id uuid.UUID, plan types.InstallmentPlan) error {
	result := r.db.WithContext(ctx).
		Model(&models.Application{}).
		Where("id = ?", id).
		Update("installment_plan", plan)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Create persists a new application row.
func (r *Repository) Create(ctx context.Context, app *models.Application) error {
	if app == nil {
		return fmt.Errorf("application is required")
	}
	return r.db.WithContext(ctx).Create(app).Error
}
