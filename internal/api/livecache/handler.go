package livecache

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/voyago/tripweaver/internal/api"
)

// Handler exposes cache administration over HTTP.
type Handler struct {
	repository Repository
	logger     *slog.Logger
}

func NewHandler(repository Repository, logger *slog.Logger) *Handler {
	return &Handler{repository: repository, logger: logger}
}

// ClearCache handles DELETE /cache by wiping both live-data tables.
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LiveCacheHandler").Start(r.Context(), "ClearCache")
	defer span.End()
	r = r.WithContext(ctx)

	if err := h.repository.Clear(ctx); err != nil {
		h.logger.ErrorContext(ctx, "Failed to clear live-data cache", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Clear failed")
		api.ErrorResponse(w, r, http.StatusInternalServerError, "failed to clear cache")
		return
	}

	span.SetStatus(codes.Ok, "Cache cleared")
	api.WriteJSONResponse(w, r, http.StatusNoContent, nil)
}
