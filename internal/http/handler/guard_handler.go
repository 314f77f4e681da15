package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/omniagentpay/application-layer-sub001/internal/domain"
	"github.com/omniagentpay/application-layer-sub001/internal/http/response"
	"github.com/omniagentpay/application-layer-sub001/internal/service"
)

type GuardHandler struct {
	registry *service.GuardRegistry
}

func NewGuardHandler(registry *service.GuardRegistry) *GuardHandler {
	return &GuardHandler{registry: registry}
}

func (h *GuardHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, r, http.StatusOK, map[string]any{"items": h.registry.List()})
}

func (h *GuardHandler) Save(w http.ResponseWriter, r *http.Request) {
	var body domain.GuardConfig
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if err := h.registry.Save(r.Context(), body); err != nil {
		var validationErr *domain.ValidationError
		if errors.As(err, &validationErr) {
			response.Error(w, r, http.StatusBadRequest, "VALIDATION", validationErr.Error(), nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "failed to save guard config", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, body)
}
