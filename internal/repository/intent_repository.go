package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

type IntentRepository interface {
	Upsert(ctx context.Context, intent *domain.PaymentIntent) error
	FindByID(ctx context.Context, id string) (*domain.PaymentIntent, error)
	List(ctx context.Context) ([]domain.PaymentIntent, error)
}

type GormIntentRepository struct {
	db    *gorm.DB
	users UserRepository
}

func NewIntentRepository(db *gorm.DB, users UserRepository) IntentRepository {
	return &GormIntentRepository{db: db, users: users}
}

// Upsert writes the intent row keyed by id; repeated saves converge to
// last-write-wins. The external subject id in metadata is resolved to an
// internal user row first (created on first sight). That lookup is not
// transactional with the upsert: a user row without an intent row self-heals
// on the next save.
func (r *GormIntentRepository) Upsert(ctx context.Context, intent *domain.PaymentIntent) error {
	row := intent.Clone()
	if ext := row.Metadata["user_id"]; ext != "" && row.UserID == 0 {
		user, err := r.users.FindOrCreateByExternalID(ctx, ext)
		if err != nil {
			return err
		}
		row.UserID = user.ID
	}

	assignments := map[string]any{
		"user_id":       row.UserID,
		"amount":        row.Amount,
		"currency":      row.Currency,
		"recipient":     row.Recipient,
		"status":        row.Status,
		"route":         row.Route,
		"steps":         row.Steps,
		"guard_results": row.GuardResults,
		"metadata":      row.Metadata,
		"updated_at":    time.Now().UTC(),
	}
	// Execution artifacts merge in only when present; an absent value never
	// clears a populated column.
	if row.TxHash != "" {
		assignments["tx_hash"] = row.TxHash
	}
	if row.BlockchainTxHash != "" {
		assignments["blockchain_tx_hash"] = row.BlockchainTxHash
	}
	if row.CircleTransferID != "" {
		assignments["circle_transfer_id"] = row.CircleTransferID
	}
	if row.CircleTransactionID != "" {
		assignments["circle_transaction_id"] = row.CircleTransactionID
	}
	if row.ExplorerURL != "" {
		assignments["explorer_url"] = row.ExplorerURL
	}
	if row.ExecutedAt != nil {
		assignments["executed_at"] = row.ExecutedAt
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.Assignments(assignments),
	}).Create(row).Error
}

func (r *GormIntentRepository) FindByID(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	var intent domain.PaymentIntent
	err := r.db.WithContext(ctx).First(&intent, "id = ?", id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, domain.ErrIntentNotFound
		}
		return nil, err
	}
	return &intent, nil
}

func (r *GormIntentRepository) List(ctx context.Context) ([]domain.PaymentIntent, error) {
	var intents []domain.PaymentIntent
	err := r.db.WithContext(ctx).Order("created_at asc").Find(&intents).Error
	if err != nil {
		return nil, err
	}
	return intents, nil
}
