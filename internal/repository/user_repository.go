package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

type UserRepository interface {
	FindOrCreateByExternalID(ctx context.Context, externalID string) (*domain.User, error)
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository {
	return &GormUserRepository{db: db}
}

func (r *GormUserRepository) FindOrCreateByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).
		Where(domain.User{ExternalID: externalID}).
		FirstOrCreate(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
