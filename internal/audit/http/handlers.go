package audithttp

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/backoffice/superadmin/internal/audit"
	"github.com/backoffice/superadmin/internal/platform/httpx"
	"github.com/backoffice/superadmin/internal/shared"
)

// AuditService defines the business contract for audit trail reads.
type AuditService interface {
	List(ctx context.Context, f audit.Filters) (audit.Page, error)
	Export(ctx context.Context, f audit.Filters) ([]audit.Entry, error)
}

// Handler serves the audit trail.
type Handler struct {
	logger  *slog.Logger
	service AuditService
	now     func() time.Time
}

// NewHandler builds an audit Handler.
func NewHandler(logger *slog.Logger, service AuditService) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{logger: logger, service: service, now: time.Now}
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	page, err := h.service.List(r.Context(), parseFilters(r))
	if err != nil {
		h.handleServerError(w, "list audit logs", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Export(r.Context(), parseFilters(r))
	if err != nil {
		h.handleServerError(w, "export audit logs", err)
		return
	}
	body, err := audit.WriteCSV(entries)
	if err != nil {
		h.handleServerError(w, "encode csv", err)
		return
	}
	filename := "audit-logs-" + h.now().UTC().Format("20060102") + ".csv"
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	if _, err := w.Write(body); err != nil {
		h.logger.Warn("write csv", slog.Any("error", err))
	}
}

func parseFilters(r *http.Request) audit.Filters {
	q := r.URL.Query()
	return audit.Filters{
		Search: q.Get("searchTerm"),
		Action: q.Get("action"),
		Page:   shared.ParseWindow(q.Get("skip"), q.Get("take")),
	}
}

func (h *Handler) handleServerError(w http.ResponseWriter, message string, err error) {
	h.logger.Error(message, slog.Any("error", err))
	httpx.RespondError(w, err)
}
