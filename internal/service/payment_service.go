package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
	"github.com/omniagentpay/application-layer-sub001/internal/gateway"
	"github.com/omniagentpay/application-layer-sub001/internal/guard"
	"github.com/omniagentpay/application-layer-sub001/internal/observability"
	"github.com/omniagentpay/application-layer-sub001/internal/receipt"
	"github.com/omniagentpay/application-layer-sub001/internal/route"
	"github.com/omniagentpay/application-layer-sub001/internal/store"
)

type CreateIntentInput struct {
	Amount           float64
	Currency         string
	Recipient        string
	RecipientAddress string
	WalletID         string
	Chain            string
	Description      string
	PreferredRoute   string
	Subject          string
}

type SimulationResult struct {
	Allowed      bool                 `json:"allowed"`
	AutoApproved bool                 `json:"auto_approved"`
	EstimatedFee float64              `json:"estimated_fee"`
	Route        route.Estimate       `json:"route"`
	GuardResults []domain.GuardResult `json:"guard_results"`
}

// ExecutionOutcome is either a guard block (a normal outcome, not an error)
// or a normalized backend result.
type ExecutionOutcome struct {
	Blocked      bool                    `json:"blocked"`
	GuardResults []domain.GuardResult    `json:"guard_results,omitempty"`
	Result       *domain.ExecutionResult `json:"result,omitempty"`
}

type PaymentService interface {
	CreateIntent(ctx context.Context, in CreateIntentInput) (*domain.PaymentIntent, error)
	SimulateIntent(ctx context.Context, id string) (*SimulationResult, error)
	ExecuteIntent(ctx context.Context, id string) (*ExecutionOutcome, error)
	// ConfirmBackendIntent settles via the legacy backend-side intent path.
	//
	// Deprecated: secondary compatibility path.
	ConfirmBackendIntent(ctx context.Context, id, backendIntentID string) (*ExecutionOutcome, error)
	ResetIntent(ctx context.Context, id string) (*domain.PaymentIntent, error)
	GetIntent(id string) (*domain.PaymentIntent, error)
	ListIntents() []domain.PaymentIntent
}

type paymentService struct {
	store          *store.IntentStore
	guards         *GuardRegistry
	backend        gateway.Backend
	receipts       receipt.Archiver
	logger         *slog.Logger
	homeChain      string
	backendTimeout time.Duration
	now            func() time.Time
}

func NewPaymentService(
	intents *store.IntentStore,
	guards *GuardRegistry,
	backend gateway.Backend,
	receipts receipt.Archiver,
	logger *slog.Logger,
	homeChain string,
	backendTimeout time.Duration,
) PaymentService {
	if homeChain == "" {
		homeChain = "ethereum"
	}
	if backendTimeout <= 0 {
		backendTimeout = 30 * time.Second
	}
	return &paymentService{
		store:          intents,
		guards:         guards,
		backend:        backend,
		receipts:       receipts,
		logger:         logger,
		homeChain:      homeChain,
		backendTimeout: backendTimeout,
		now:            time.Now,
	}
}

func (s *paymentService) CreateIntent(_ context.Context, in CreateIntentInput) (*domain.PaymentIntent, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	currency := in.Currency
	if currency == "" {
		currency = "USDC"
	}
	intent := &domain.PaymentIntent{
		ID:               "pi_" + uuid.NewString(),
		Amount:           in.Amount,
		Currency:         currency,
		Recipient:        in.Recipient,
		RecipientAddress: in.RecipientAddress,
		WalletID:         in.WalletID,
		Chain:            in.Chain,
		Status:           domain.IntentCreated,
		CreatedAt:        s.now().UTC(),
	}
	if in.Subject != "" {
		intent.SetMeta("user_id", in.Subject)
	}
	if in.Description != "" {
		intent.SetMeta("description", in.Description)
	}
	if in.PreferredRoute != "" {
		intent.SetMeta("preferred_route", in.PreferredRoute)
	}
	s.store.Save(intent)
	s.logger.Info("intent created", "intent_id", intent.ID, "amount", intent.Amount, "chain", intent.Chain)
	return intent, nil
}

func (s *paymentService) SimulateIntent(_ context.Context, id string) (*SimulationResult, error) {
	intent, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if intent.Status.Terminal() {
		return nil, domain.ErrIntentTerminal
	}
	// Simulation ends in approved or blocked; an intent already past those
	// ranks (executing) must not regress.
	if !domain.CanTransition(intent.Status, domain.IntentApproved) {
		return nil, domain.ErrIntentInFlight
	}
	if domain.CanTransition(intent.Status, domain.IntentSimulated) {
		intent.Status = domain.IntentSimulated
		s.store.Save(intent)
	}

	outcome, err := s.evaluate(intent)
	if err != nil {
		return nil, err
	}
	estimate := route.Select(s.homeChain, intent.Chain, intent.Amount, intent.Metadata["preferred_route"])

	intent.GuardResults = outcome.Results
	intent.Route = estimate.Route
	intent.Steps = estimate.Steps
	intent.SetMeta("auto_approve", strconv.FormatBool(outcome.AutoApproved))
	intent.SetMeta("estimated_fee", strconv.FormatFloat(estimate.Fee, 'f', -1, 64))
	if outcome.Allowed {
		intent.Status = domain.IntentApproved
	} else {
		intent.Status = domain.IntentBlocked
		s.countGuardBlocks(outcome.Results)
	}
	s.store.Save(intent)

	return &SimulationResult{
		Allowed:      outcome.Allowed,
		AutoApproved: outcome.AutoApproved,
		EstimatedFee: estimate.Fee,
		Route:        estimate,
		GuardResults: outcome.Results,
	}, nil
}

func (s *paymentService) ExecuteIntent(ctx context.Context, id string) (*ExecutionOutcome, error) {
	intent, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if intent.Status.Terminal() {
		return nil, domain.ErrIntentTerminal
	}
	if intent.Status == domain.IntentExecuting {
		return nil, domain.ErrIntentInFlight
	}
	// The wallet-kind check runs before any state change or backend call:
	// a wrong wallet kind leaves the intent untouched.
	if domain.IsExternallySignedWallet(intent.WalletID) {
		return nil, &domain.WalletKindError{WalletRef: intent.WalletID}
	}

	outcome, err := s.evaluate(intent)
	if err != nil {
		return nil, err
	}
	if !outcome.Allowed {
		intent.GuardResults = outcome.Results
		intent.Status = domain.IntentBlocked
		s.store.Save(intent)
		s.countGuardBlocks(outcome.Results)
		return &ExecutionOutcome{Blocked: true, GuardResults: outcome.Results}, nil
	}

	if intent.Route == "" {
		estimate := route.Select(s.homeChain, intent.Chain, intent.Amount, intent.Metadata["preferred_route"])
		intent.Route = estimate.Route
		intent.Steps = estimate.Steps
	}
	intent.GuardResults = outcome.Results
	intent.Status = domain.IntentExecuting
	s.store.Save(intent)

	execCtx, cancel := context.WithTimeout(ctx, s.backendTimeout)
	defer cancel()
	result, err := gateway.Execute(execCtx, s.backend, intent)
	if err != nil {
		// A timed-out or failed call must not leave the intent executing.
		intent.Status = domain.IntentFailed
		intent.SetMeta("execution_error", err.Error())
		s.store.Save(intent)
		observability.IntentsTotal.WithLabelValues(string(domain.IntentFailed)).Inc()
		return nil, err
	}

	intent.MergeExecution(result, s.now().UTC())
	s.store.Save(intent)
	observability.IntentsTotal.WithLabelValues(string(intent.Status)).Inc()

	if result.Success {
		s.archiveReceipt(intent)
	}
	s.logger.Info("intent executed",
		"intent_id", intent.ID,
		"status", intent.Status,
		"tx_hash", result.TxHash,
	)
	return &ExecutionOutcome{GuardResults: outcome.Results, Result: &result}, nil
}

func (s *paymentService) ConfirmBackendIntent(ctx context.Context, id, backendIntentID string) (*ExecutionOutcome, error) {
	intent, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if intent.Status.Terminal() {
		return nil, domain.ErrIntentTerminal
	}
	if backendIntentID == "" {
		return nil, &domain.ValidationError{Field: "backend_intent_id", Reason: "required"}
	}

	execCtx, cancel := context.WithTimeout(ctx, s.backendTimeout)
	defer cancel()
	result, err := gateway.ConfirmExecute(execCtx, s.backend, intent, backendIntentID)
	if err != nil {
		intent.Status = domain.IntentFailed
		intent.SetMeta("execution_error", err.Error())
		s.store.Save(intent)
		return nil, err
	}

	intent.SetMeta("backend_intent_id", backendIntentID)
	intent.MergeExecution(result, s.now().UTC())
	s.store.Save(intent)
	observability.IntentsTotal.WithLabelValues(string(intent.Status)).Inc()
	return &ExecutionOutcome{Result: &result}, nil
}

// ResetIntent moves a blocked or failed intent back to created so it can go
// through simulation again. Succeeded intents stay immutable.
func (s *paymentService) ResetIntent(_ context.Context, id string) (*domain.PaymentIntent, error) {
	intent, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if intent.Status != domain.IntentBlocked && intent.Status != domain.IntentFailed {
		return nil, &domain.ValidationError{Field: "status", Reason: "only blocked or failed intents can be reset"}
	}
	intent.Status = domain.IntentCreated
	intent.GuardResults = nil
	intent.Route = ""
	intent.Steps = nil
	delete(intent.Metadata, "auto_approve")
	delete(intent.Metadata, "execution_error")
	s.store.Save(intent)
	return intent, nil
}

func (s *paymentService) GetIntent(id string) (*domain.PaymentIntent, error) {
	return s.store.Get(id)
}

func (s *paymentService) ListIntents() []domain.PaymentIntent {
	return s.store.List()
}

func (s *paymentService) evaluate(intent *domain.PaymentIntent) (guard.Outcome, error) {
	guards, err := s.guards.ActiveGuards()
	if err != nil {
		return guard.Outcome{}, fmt.Errorf("build guards: %w", err)
	}
	return guard.Evaluate(intent, guards, s.store.List(), s.now()), nil
}

func (s *paymentService) countGuardBlocks(results []domain.GuardResult) {
	for _, r := range results {
		if !r.Passed {
			observability.GuardBlocks.WithLabelValues(r.GuardID).Inc()
		}
	}
}

func (s *paymentService) archiveReceipt(intent *domain.PaymentIntent) {
	if s.receipts == nil {
		return
	}
	// Best effort; receipts are a convenience artifact, never load-bearing.
	go func(snapshot *domain.PaymentIntent) {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := s.receipts.Archive(ctx, snapshot); err != nil {
			s.logger.Warn("receipt archive failed", "intent_id", snapshot.ID, "error", err.Error())
		}
	}(intent.Clone())
}

func validateCreate(in CreateIntentInput) error {
	if in.Amount <= 0 || math.IsNaN(in.Amount) || math.IsInf(in.Amount, 0) {
		return &domain.ValidationError{Field: "amount", Reason: "must be a positive number"}
	}
	if in.RecipientAddress == "" {
		return &domain.ValidationError{Field: "recipient_address", Reason: "required"}
	}
	if in.WalletID == "" {
		return &domain.ValidationError{Field: "wallet_id", Reason: "required"}
	}
	if in.Chain == "" {
		return &domain.ValidationError{Field: "chain", Reason: "required"}
	}
	return nil
}
