package domain

import "time"

type GuardType string

const (
	GuardBudget      GuardType = "budget"
	GuardSingleTx    GuardType = "single_tx"
	GuardRateLimit   GuardType = "rate_limit"
	GuardAutoApprove GuardType = "auto_approve"
)

type GuardPeriod string

const (
	PeriodHour GuardPeriod = "hour"
	PeriodDay  GuardPeriod = "day"
)

// Window returns the duration covered by the period. Unknown periods fall
// back to a day, the most conservative of the two.
func (p GuardPeriod) Window() time.Duration {
	if p == PeriodHour {
		return time.Hour
	}
	return 24 * time.Hour
}

// GuardConfig is the persisted form of a policy. The typed guard values in
// internal/guard are built from these rows at load time.
type GuardConfig struct {
	ID        string      `gorm:"primaryKey;size:64" json:"id"`
	Name      string      `gorm:"size:128;not null" json:"name"`
	Type      GuardType   `gorm:"size:32;not null;index" json:"type"`
	Enabled   bool        `gorm:"not null;default:true" json:"enabled"`
	Limit     float64     `json:"limit,omitempty"`
	Period    GuardPeriod `gorm:"size:16" json:"period,omitempty"`
	Threshold float64     `json:"threshold,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}
