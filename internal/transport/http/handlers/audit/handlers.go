package audithandler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gocarina/gocsv"

	"paycalc/internal/domain/audit"
	"paycalc/internal/transport/http/api"
	"paycalc/internal/transport/http/middleware"
	"paycalc/internal/transport/http/shared"
)

type Handler struct {
	Service *audit.Service
}

func NewHandler(service *audit.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/audit", func(r chi.Router) {
		r.Get("/events", h.handleListEvents)
		r.Get("/events/export", h.handleExportEvents)
	})
}

type exportRow struct {
	ID         string `csv:"id"`
	Action     string `csv:"action"`
	EntityType string `csv:"entity_type"`
	EntityID   string `csv:"entity_id"`
	RequestID  string `csv:"request_id"`
	IP         string `csv:"ip"`
	CreatedAt  string `csv:"created_at"`
}

func (h *Handler) handleListEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 100, 500)
	query := r.URL.Query()
	filter := audit.Filter{Action: query.Get("action"), EntityType: query.Get("entityType")}
	includeDetails := query.Get("includeDetails") == "true"

	total, err := h.Service.Count(r.Context(), filter)
	if err != nil {
		slog.Warn("audit count failed", "err", err)
	}

	events, err := h.Service.List(r.Context(), filter, includeDetails, page.Limit, page.Offset)
	if err != nil {
		slog.Error("audit list failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "audit_list_failed", "failed to list audit events", reqID)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, events, reqID)
}

func (h *Handler) handleExportEvents(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	events, err := h.Service.ListExport(r.Context())
	if err != nil {
		slog.Error("audit export failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", reqID)
		return
	}

	rows := make([]exportRow, 0, len(events))
	for _, evt := range events {
		rows = append(rows, exportRow{
			ID:         evt.ID,
			Action:     evt.Action,
			EntityType: evt.EntityType,
			EntityID:   evt.EntityID,
			RequestID:  evt.RequestID,
			IP:         evt.IP,
			CreatedAt:  evt.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	out, err := gocsv.MarshalBytes(&rows)
	if err != nil {
		slog.Error("audit export encode failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "audit_export_failed", "failed to export audit events", reqID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=audit-events.csv")
	if _, err := w.Write(out); err != nil {
		slog.Warn("audit export write failed", "err", err)
	}
}
