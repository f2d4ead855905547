package auth

import (
	"context"
	"errors"

	"dejair/internal/actors"

	"gorm.io/gorm"
)

type Repository interface {
	CreateClient(ctx context.Context, client *actors.Client) error
	GetClientByEmail(ctx context.Context, email string) (*actors.Client, error)
	GetClientByID(ctx context.Context, id string) (*actors.Client, error)
	ClientEmailExists(ctx context.Context, email string) (bool, error)

	GetAdminByEmail(ctx context.Context, email string) (*actors.Admin, error)
	GetAdminByID(ctx context.Context, id string) (*actors.Admin, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{
		db: db,
	}
}

func (r *repository) CreateClient(ctx context.Context, client *actors.Client) error {
	if err := r.db.WithContext(ctx).Create(client).Error; err != nil {
		return err
	}
	return nil
}

func (r *repository) GetClientByEmail(ctx context.Context, email string) (*actors.Client, error) {
	var client actors.Client
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *repository) GetClientByID(ctx context.Context, id string) (*actors.Client, error) {
	var client actors.Client
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &client, nil
}

func (r *repository) ClientEmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&actors.Client{}).Where("email = ?", email).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) GetAdminByEmail(ctx context.Context, email string) (*actors.Admin, error) {
	var admin actors.Admin
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &admin, nil
}

func (r *repository) GetAdminByID(ctx context.Context, id string) (*actors.Admin, error) {
	var admin actors.Admin
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&admin).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &admin, nil
}
