package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

var ErrGuardNotFound = errors.New("guard config not found")

type GuardRepository interface {
	List(ctx context.Context) ([]domain.GuardConfig, error)
	Save(ctx context.Context, cfg *domain.GuardConfig) error
}

type GormGuardRepository struct{ db *gorm.DB }

func NewGuardRepository(db *gorm.DB) GuardRepository {
	return &GormGuardRepository{db: db}
}

func (r *GormGuardRepository) List(ctx context.Context) ([]domain.GuardConfig, error) {
	var configs []domain.GuardConfig
	err := r.db.WithContext(ctx).Order("created_at asc").Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *GormGuardRepository) Save(ctx context.Context, cfg *domain.GuardConfig) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(cfg).Error
}
