package authz

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/gatekeep-io/gatekeep/internal/observability"
	"github.com/gatekeep-io/gatekeep/internal/platform/httpx"
	"github.com/gatekeep-io/gatekeep/internal/shared"
)

// Handler exposes the decision endpoint for collaborating services.
type Handler struct {
	logger    *slog.Logger
	engine    *Engine
	metrics   *observability.Metrics
	validator *validator.Validate
}

// NewHandler builds a Handler. metrics may be nil.
func NewHandler(logger *slog.Logger, engine *Engine, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, engine: engine, metrics: metrics, validator: validator.New()}
}

// MountRoutes registers authorization routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/check", h.check)
}

type checkRequest struct {
	PrincipalID int64  `json:"principal_id" validate:"required"`
	Permission  string `json:"permission" validate:"required"`
}

type checkResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	Role    string `json:"role,omitempty"`
}

// check renders a verdict. Denials are normal outcomes and answer 200; only
// infrastructure failures surface as errors.
func (h *Handler) check(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "principal_id and permission are required")
		return
	}
	decision, err := h.engine.Authorize(r.Context(), req.PrincipalID, req.Permission)
	if err != nil && !errors.Is(err, shared.ErrUnauthenticated) && !errors.Is(err, shared.ErrPermissionDenied) {
		httpx.RespondError(w, err)
		return
	}
	h.metrics.RecordDecision(decision.Allowed)
	httpx.JSON(w, http.StatusOK, checkResponse{
		Allowed: decision.Allowed,
		Reason:  decision.Reason,
		Role:    decision.RoleName,
	})
}
