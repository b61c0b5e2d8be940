package analytichttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/backoffice/superadmin/internal/analytics"
	"github.com/backoffice/superadmin/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	Summary(ctx context.Context) (analytics.Summary, error)
}

// Handler serves the analytics summary.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service}
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.Summary(ctx)
	if err != nil {
		h.logger.Error("load analytics summary", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	httpx.JSON(w, http.StatusOK, summary)
}
