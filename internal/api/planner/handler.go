package planner

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/voyago/tripweaver/internal/api"
	"github.com/voyago/tripweaver/internal/types"
)

// Handler exposes the planning pipeline over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func NewHandler(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// CreatePlan handles POST /plan. Malformed bodies and a missing city are
// client errors; everything past validation always yields a plan.
func (h *Handler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("PlannerHandler").Start(r.Context(), "CreatePlan")
	defer span.End()
	r = r.WithContext(ctx)

	l := h.logger.With(slog.String("handler", "CreatePlan"))

	var req types.PlanRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Invalid plan request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	if strings.TrimSpace(req.City) == "" {
		span.SetStatus(codes.Error, "Missing city")
		api.ErrorResponse(w, r, http.StatusBadRequest, "city is required")
		return
	}
	if req.Days < 1 {
		req.Days = defaultDays
	}

	plan := h.service.PlanTrip(ctx, req)

	span.SetStatus(codes.Ok, "Plan created")
	api.WriteJSONResponse(w, r, http.StatusOK, plan)
}
