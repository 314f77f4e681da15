package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/omniagentpay/application-layer-sub001/internal/abuse"
	"github.com/omniagentpay/application-layer-sub001/internal/domain"
	"github.com/omniagentpay/application-layer-sub001/internal/http/middleware"
	"github.com/omniagentpay/application-layer-sub001/internal/http/response"
	"github.com/omniagentpay/application-layer-sub001/internal/service"
)

type IntentHandler struct {
	svc     service.PaymentService
	tracker abuse.Tracker
}

func NewIntentHandler(svc service.PaymentService, tracker abuse.Tracker) *IntentHandler {
	return &IntentHandler{svc: svc, tracker: tracker}
}

func (h *IntentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Amount           float64 `json:"amount"`
		Currency         string  `json:"currency"`
		Recipient        string  `json:"recipient"`
		RecipientAddress string  `json:"recipient_address"`
		WalletID         string  `json:"wallet_id"`
		Chain            string  `json:"chain"`
		Description      string  `json:"description"`
		PreferredRoute   string  `json:"preferred_route"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	intent, err := h.svc.CreateIntent(r.Context(), service.CreateIntentInput{
		Amount:           body.Amount,
		Currency:         body.Currency,
		Recipient:        body.Recipient,
		RecipientAddress: body.RecipientAddress,
		WalletID:         body.WalletID,
		Chain:            body.Chain,
		Description:      body.Description,
		PreferredRoute:   body.PreferredRoute,
		Subject:          middleware.Subject(r),
	})
	if err != nil {
		h.writeError(w, r, err, "create")
		return
	}
	response.JSON(w, r, http.StatusCreated, intent)
}

func (h *IntentHandler) Simulate(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.SimulateIntent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "simulate")
		return
	}
	if !result.Allowed {
		h.trackFailure(r, "guard_blocked")
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *IntentHandler) Execute(w http.ResponseWriter, r *http.Request) {
	outcome, err := h.svc.ExecuteIntent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "execute")
		return
	}
	if outcome.Blocked {
		h.trackFailure(r, "guard_blocked")
		response.Error(w, r, http.StatusForbidden, "GUARD_BLOCKED", "one or more guards blocked this payment", outcome.GuardResults)
		return
	}
	if outcome.Result != nil && !outcome.Result.Success {
		h.trackFailure(r, "execution_failed")
	}
	response.JSON(w, r, http.StatusOK, outcome)
}

// Confirm settles a backend-side intent via the legacy confirmation path.
//
// Deprecated: kept for compatibility with backend-stored intents.
func (h *IntentHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BackendIntentID string `json:"backend_intent_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	outcome, err := h.svc.ConfirmBackendIntent(r.Context(), chi.URLParam(r, "id"), body.BackendIntentID)
	if err != nil {
		h.writeError(w, r, err, "confirm")
		return
	}
	response.JSON(w, r, http.StatusOK, outcome)
}

func (h *IntentHandler) Reset(w http.ResponseWriter, r *http.Request) {
	intent, err := h.svc.ResetIntent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "reset")
		return
	}
	response.JSON(w, r, http.StatusOK, intent)
}

func (h *IntentHandler) Get(w http.ResponseWriter, r *http.Request) {
	intent, err := h.svc.GetIntent(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err, "get")
		return
	}
	response.JSON(w, r, http.StatusOK, intent)
}

func (h *IntentHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]any{"items": h.svc.ListIntents()})
}

func (h *IntentHandler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	var validationErr *domain.ValidationError
	var walletErr *domain.WalletKindError
	var backendErr *domain.ExternalServiceError
	switch {
	case errors.Is(err, domain.ErrIntentNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "payment intent not found", nil)
	case errors.Is(err, domain.ErrIntentTerminal):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "payment intent is in a terminal state", nil)
	case errors.Is(err, domain.ErrIntentInFlight):
		response.Error(w, r, http.StatusConflict, "CONFLICT", "payment intent is already executing", nil)
	case errors.As(err, &validationErr):
		h.trackFailure(r, "validation")
		response.Error(w, r, http.StatusBadRequest, "VALIDATION", validationErr.Error(), nil)
	case errors.As(err, &walletErr):
		h.trackFailure(r, "wallet_kind")
		response.Error(w, r, http.StatusUnprocessableEntity, "WALLET_KIND", walletErr.Error(), nil)
	case errors.As(err, &backendErr):
		h.trackFailure(r, "backend")
		response.Error(w, r, http.StatusBadGateway, "EXTERNAL_SERVICE", backendErr.Error(), nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to "+op+" intent", nil)
	}
}

// Failed guard checks and rejected requests feed the abuse counters for both
// keyspaces.
func (h *IntentHandler) trackFailure(r *http.Request, reason string) {
	ipKey, subKey := middleware.ClientKeys(r)
	h.tracker.TrackFailure(r.Context(), ipKey, reason)
	if subKey != "" {
		h.tracker.TrackFailure(r.Context(), subKey, reason)
	}
}
