package gateway

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
	"github.com/omniagentpay/application-layer-sub001/internal/observability"
)

var tracer = otel.Tracer("gateway")

// Execute runs the transfer for an intent and normalizes the backend's
// response. Backend failures are reported, never retried here; retry policy
// belongs to the caller. No partial state is committed on a network failure.
func Execute(ctx context.Context, backend Backend, intent *domain.PaymentIntent) (domain.ExecutionResult, error) {
	if domain.IsExternallySignedWallet(intent.WalletID) {
		return domain.ExecutionResult{}, &domain.WalletKindError{WalletRef: intent.WalletID}
	}

	ctx, span := tracer.Start(ctx, "backend.pay_recipient")
	span.SetAttributes(
		attribute.String("intent.id", intent.ID),
		attribute.String("intent.chain", intent.Chain),
		attribute.Float64("intent.amount", intent.Amount),
	)
	defer span.End()

	start := time.Now()
	payload, err := backend.PayRecipient(ctx, TransferRequest{
		WalletID:  intent.WalletID,
		ToAddress: intent.RecipientAddress,
		Amount:    intent.Amount,
		Currency:  intent.Currency,
	})
	observability.ExecutionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.ExecutionResult{}, &domain.ExternalServiceError{Op: "pay_recipient", Message: err.Error(), Err: err}
	}
	return Normalize(payload, intent.Chain), nil
}

// ConfirmExecute settles an intent the backend already holds via the legacy
// confirmation call.
//
// Deprecated: secondary path kept for compatibility; flag any observed use
// (LegacyConfirms metric) for removal.
func ConfirmExecute(ctx context.Context, backend Backend, intent *domain.PaymentIntent, backendIntentID string) (domain.ExecutionResult, error) {
	observability.LegacyConfirms.Inc()
	ctx, span := tracer.Start(ctx, "backend.confirm_payment_intent")
	span.SetAttributes(attribute.String("intent.id", intent.ID))
	defer span.End()

	payload, err := backend.ConfirmIntent(ctx, backendIntentID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.ExecutionResult{}, &domain.ExternalServiceError{Op: "confirm_payment_intent", Message: err.Error(), Err: err}
	}
	return Normalize(payload, intent.Chain), nil
}
