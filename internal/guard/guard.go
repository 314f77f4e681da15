package guard

import (
	"fmt"
	"time"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
)

// Guard is one policy kind evaluated against a candidate intent. Each kind
// carries only its own typed config so adding a kind is a compile-time
// checked change.
type Guard interface {
	ID() string
	Name() string
	Evaluate(candidate *domain.PaymentIntent, ledger []domain.PaymentIntent, now time.Time) domain.GuardResult
}

type base struct {
	id   string
	name string
}

func (b base) ID() string   { return b.id }
func (b base) Name() string { return b.name }

// BudgetGuard caps total spend per wallet within a rolling period.
type BudgetGuard struct {
	base
	Limit  float64
	Period domain.GuardPeriod
}

// spendStatuses are the lifecycle states that count toward the budget.
// Blocked and failed intents never moved funds.
var spendStatuses = map[domain.IntentStatus]bool{
	domain.IntentApproved:  true,
	domain.IntentExecuting: true,
	domain.IntentSucceeded: true,
}

func (g BudgetGuard) Evaluate(candidate *domain.PaymentIntent, ledger []domain.PaymentIntent, now time.Time) domain.GuardResult {
	cutoff := now.Add(-g.Period.Window())
	var spent float64
	for i := range ledger {
		it := &ledger[i]
		if it.ID == candidate.ID || it.WalletID != candidate.WalletID {
			continue
		}
		if !spendStatuses[it.Status] || it.CreatedAt.Before(cutoff) {
			continue
		}
		spent += it.Amount
	}
	if spent+candidate.Amount > g.Limit {
		return domain.GuardResult{
			GuardID: g.id,
			Name:    g.name,
			Passed:  false,
			Reason:  fmt.Sprintf("budget exceeded: %.2f spent + %.2f requested > %.2f per %s", spent, candidate.Amount, g.Limit, g.Period),
		}
	}
	return domain.GuardResult{GuardID: g.id, Name: g.name, Passed: true}
}

// SingleTxGuard caps the amount of any one transfer.
type SingleTxGuard struct {
	base
	Limit float64
}

func (g SingleTxGuard) Evaluate(candidate *domain.PaymentIntent, _ []domain.PaymentIntent, _ time.Time) domain.GuardResult {
	if candidate.Amount > g.Limit {
		return domain.GuardResult{
			GuardID: g.id,
			Name:    g.name,
			Passed:  false,
			Reason:  fmt.Sprintf("amount %.2f exceeds per-transaction limit %.2f", candidate.Amount, g.Limit),
		}
	}
	return domain.GuardResult{GuardID: g.id, Name: g.name, Passed: true}
}

// RateLimitGuard caps how many intents one actor may create per period.
type RateLimitGuard struct {
	base
	Limit  int
	Period domain.GuardPeriod
}

// rateLimitActor identifies the actor behind an intent. Anonymous intents
// fall back to the wallet id so unauthenticated callers never pool into one
// shared bucket.
func rateLimitActor(it *domain.PaymentIntent) string {
	if actor := it.Metadata["user_id"]; actor != "" {
		return "sub:" + actor
	}
	return "wallet:" + it.WalletID
}

func (g RateLimitGuard) Evaluate(candidate *domain.PaymentIntent, ledger []domain.PaymentIntent, now time.Time) domain.GuardResult {
	actor := rateLimitActor(candidate)
	cutoff := now.Add(-g.Period.Window())
	count := 0
	for i := range ledger {
		it := &ledger[i]
		if it.ID == candidate.ID || it.CreatedAt.Before(cutoff) {
			continue
		}
		if rateLimitActor(it) == actor {
			count++
		}
	}
	if count >= g.Limit {
		return domain.GuardResult{
			GuardID: g.id,
			Name:    g.name,
			Passed:  false,
			Reason:  fmt.Sprintf("rate limit reached: %d intents in the last %s (limit %d)", count, g.Period, g.Limit),
		}
	}
	return domain.GuardResult{GuardID: g.id, Name: g.name, Passed: true}
}

// AutoApproveGuard never blocks; it records whether the amount is small
// enough to skip human confirmation.
type AutoApproveGuard struct {
	base
	Threshold float64
}

func (g AutoApproveGuard) Evaluate(candidate *domain.PaymentIntent, _ []domain.PaymentIntent, _ time.Time) domain.GuardResult {
	if candidate.Amount <= g.Threshold {
		return domain.GuardResult{
			GuardID: g.id,
			Name:    g.name,
			Passed:  true,
			Reason:  fmt.Sprintf("amount %.2f within auto-approve threshold %.2f", candidate.Amount, g.Threshold),
		}
	}
	return domain.GuardResult{
		GuardID: g.id,
		Name:    g.name,
		Passed:  true,
		Reason:  fmt.Sprintf("amount %.2f above auto-approve threshold %.2f; confirmation required", candidate.Amount, g.Threshold),
	}
}

// AutoApproved reports whether an auto-approve result granted unattended
// approval for the candidate.
func (g AutoApproveGuard) AutoApproved(candidate *domain.PaymentIntent) bool {
	return candidate.Amount <= g.Threshold
}

// FromConfig builds the typed guard for a persisted config row. Disabled
// configs must be filtered out by the caller; this only validates shape.
func FromConfig(cfg domain.GuardConfig) (Guard, error) {
	b := base{id: cfg.ID, name: cfg.Name}
	switch cfg.Type {
	case domain.GuardBudget:
		if cfg.Limit <= 0 {
			return nil, fmt.Errorf("guard %s: budget limit must be > 0", cfg.ID)
		}
		return BudgetGuard{base: b, Limit: cfg.Limit, Period: cfg.Period}, nil
	case domain.GuardSingleTx:
		if cfg.Limit <= 0 {
			return nil, fmt.Errorf("guard %s: single_tx limit must be > 0", cfg.ID)
		}
		return SingleTxGuard{base: b, Limit: cfg.Limit}, nil
	case domain.GuardRateLimit:
		if cfg.Limit < 1 {
			return nil, fmt.Errorf("guard %s: rate limit must be >= 1", cfg.ID)
		}
		return RateLimitGuard{base: b, Limit: int(cfg.Limit), Period: cfg.Period}, nil
	case domain.GuardAutoApprove:
		if cfg.Threshold < 0 {
			return nil, fmt.Errorf("guard %s: auto-approve threshold must be >= 0", cfg.ID)
		}
		return AutoApproveGuard{base: b, Threshold: cfg.Threshold}, nil
	default:
		return nil, fmt.Errorf("guard %s: unknown type %q", cfg.ID, cfg.Type)
	}
}
