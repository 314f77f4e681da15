package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type IntentStatus string

const (
	IntentCreated   IntentStatus = "created"
	IntentSimulated IntentStatus = "simulated"
	IntentBlocked   IntentStatus = "blocked"
	IntentApproved  IntentStatus = "approved"
	IntentExecuting IntentStatus = "executing"
	IntentSucceeded IntentStatus = "succeeded"
	IntentFailed    IntentStatus = "failed"
)

// Terminal reports whether the intent has reached a final state. Terminal
// intents are never mutated in place; a fresh execution requires a new
// intent or an explicit reset.
func (s IntentStatus) Terminal() bool {
	return s == IntentBlocked || s == IntentSucceeded || s == IntentFailed
}

var statusRank = map[IntentStatus]int{
	IntentCreated:   0,
	IntentSimulated: 1,
	IntentBlocked:   2,
	IntentApproved:  2,
	IntentExecuting: 3,
	IntentSucceeded: 4,
	IntentFailed:    4,
}

// CanTransition reports whether moving from one status to another keeps the
// lifecycle monotonic forward. Equal statuses are allowed so that repeated
// saves of the same state stay legal.
func CanTransition(from, to IntentStatus) bool {
	if from == to {
		return true
	}
	if from.Terminal() {
		return false
	}
	return statusRank[to] > statusRank[from]
}

type GuardResult struct {
	GuardID string `json:"guard_id"`
	Name    string `json:"name"`
	Passed  bool   `json:"passed"`
	Reason  string `json:"reason,omitempty"`
}

type GuardResults []GuardResult

func (g GuardResults) Value() (driver.Value, error) {
	if g == nil {
		return "[]", nil
	}
	b, err := json.Marshal(g)
	return string(b), err
}

func (g *GuardResults) Scan(value any) error {
	return scanJSON(value, g)
}

type Steps []string

func (s Steps) Value() (driver.Value, error) {
	if s == nil {
		return "[]", nil
	}
	b, err := json.Marshal(s)
	return string(b), err
}

func (s *Steps) Scan(value any) error {
	return scanJSON(value, s)
}

type Metadata map[string]string

func (m Metadata) Value() (driver.Value, error) {
	if m == nil {
		return "{}", nil
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func (m *Metadata) Scan(value any) error {
	return scanJSON(value, m)
}

func scanJSON(value any, dst any) error {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("unsupported column type %T", value)
	}
}

// PaymentIntent is a requested transfer. The in-memory record held by the
// intent store is the source of truth; the persisted row is a best-effort
// mirror written through asynchronously.
type PaymentIntent struct {
	ID               string       `gorm:"primaryKey;size:64" json:"id"`
	UserID           uint         `gorm:"index" json:"user_id,omitempty"`
	Amount           float64      `gorm:"not null" json:"amount"`
	Currency         string       `gorm:"size:16;not null" json:"currency"`
	Recipient        string       `gorm:"size:255" json:"recipient"`
	RecipientAddress string       `gorm:"size:128;not null" json:"recipient_address"`
	Status           IntentStatus `gorm:"size:32;not null;index" json:"status"`
	WalletID         string       `gorm:"size:128;not null" json:"wallet_id"`
	TxHash           string       `gorm:"size:128" json:"tx_hash,omitempty"`
	Chain            string       `gorm:"size:64;not null" json:"chain"`
	Route            string       `gorm:"size:32" json:"route,omitempty"`
	Steps            Steps        `gorm:"type:text" json:"steps,omitempty"`
	GuardResults     GuardResults `gorm:"type:text" json:"guard_results,omitempty"`
	Metadata         Metadata     `gorm:"type:text" json:"metadata,omitempty"`

	BlockchainTxHash    string     `gorm:"size:128" json:"blockchain_tx_hash,omitempty"`
	CircleTransferID    string     `gorm:"size:64" json:"circle_transfer_id,omitempty"`
	CircleTransactionID string     `gorm:"size:64" json:"circle_transaction_id,omitempty"`
	ExplorerURL         string     `gorm:"size:255" json:"explorer_url,omitempty"`
	ExecutedAt          *time.Time `json:"executed_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Clone returns a deep copy so that store readers never alias the
// authoritative record.
func (p *PaymentIntent) Clone() *PaymentIntent {
	cp := *p
	if p.Steps != nil {
		cp.Steps = append(Steps(nil), p.Steps...)
	}
	if p.GuardResults != nil {
		cp.GuardResults = append(GuardResults(nil), p.GuardResults...)
	}
	if p.Metadata != nil {
		cp.Metadata = make(Metadata, len(p.Metadata))
		for k, v := range p.Metadata {
			cp.Metadata[k] = v
		}
	}
	if p.ExecutedAt != nil {
		at := *p.ExecutedAt
		cp.ExecutedAt = &at
	}
	return &cp
}

// SetMeta assigns a metadata key, allocating the map on first use.
func (p *PaymentIntent) SetMeta(key, value string) {
	if p.Metadata == nil {
		p.Metadata = Metadata{}
	}
	p.Metadata[key] = value
}
