package database

import (
	"gorm.io/gorm"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.PaymentIntent{},
		&domain.GuardConfig{},
	)
}
