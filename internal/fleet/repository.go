package fleet

import (
	"context"
	"errors"

	"dejair/internal/shared/apperrors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, helicopter *Helicopter) error
	GetByID(ctx context.Context, id uuid.UUID) (*Helicopter, error)
	List(ctx context.Context) ([]Helicopter, error)
	Update(ctx context.Context, helicopter *Helicopter) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, helicopter *Helicopter) error {
	return r.db.WithContext(ctx).Create(helicopter).Error
}

func (r *repository) GetByID(ctx context.Context, id uuid.UUID) (*Helicopter, error) {
	var helicopter Helicopter
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&helicopter).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("helicopter %s not found", id)
		}
		return nil, err
	}
	return &helicopter, nil
}

func (r *repository) List(ctx context.Context) ([]Helicopter, error) {
	var helicopters []Helicopter
	err := r.db.WithContext(ctx).Order("model ASC").Find(&helicopters).Error
	return helicopters, err
}

func (r *repository) Update(ctx context.Context, helicopter *Helicopter) error {
	return r.db.WithContext(ctx).Save(helicopter).Error
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&Helicopter{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.NotFound("helicopter %s not found", id)
	}
	return nil
}
