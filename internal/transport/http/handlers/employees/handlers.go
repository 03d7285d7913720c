package employeeshandler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"paycalc/internal/domain/payroll"
	"paycalc/internal/transport/http/api"
	"paycalc/internal/transport/http/middleware"
	"paycalc/internal/transport/http/shared"
)

type Handler struct {
	Service *payroll.Service
}

func NewHandler(service *payroll.Service) *Handler {
	return &Handler{Service: service}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/employees", func(r chi.Router) {
		r.Get("/", h.handleListEmployees)
		r.Route("/{employeeID}", func(r chi.Router) {
			r.Get("/", h.handleGetEmployee)
			r.Get("/attendance", h.handleAttendanceLog)
		})
	})
}

func (h *Handler) handleListEmployees(w http.ResponseWriter, r *http.Request) {
	page := shared.ParsePagination(r, 100, 500)
	matches := h.Service.Data.Employees.Search(r.URL.Query().Get("q"))
	total := len(matches)

	start := min(page.Offset, total)
	end := min(start+page.Limit, total)

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, matches[start:end], middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleGetEmployee(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "employeeID"))
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_employee_id", "employee id must be a positive integer", reqID)
		return
	}
	emp, err := h.Service.Employee(id)
	if err != nil {
		if errors.Is(err, payroll.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return
		}
		slog.Error("employee lookup failed", "employeeId", id, "err", err)
		api.Fail(w, http.StatusInternalServerError, "employee_lookup_failed", "failed to load employee", reqID)
		return
	}
	api.Success(w, emp, reqID)
}

func (h *Handler) handleAttendanceLog(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id, err := strconv.Atoi(chi.URLParam(r, "employeeID"))
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_employee_id", "employee id must be a positive integer", reqID)
		return
	}

	validator := shared.NewValidator()
	query := r.URL.Query()
	from, _ := validator.Date("from", query.Get("from"))
	to, _ := validator.Date("to", query.Get("to"))
	validator.DateOrder("from", from, "to", to)
	if validator.Reject(w, reqID) {
		return
	}

	entries, err := h.Service.AttendanceLog(id, payroll.NewPeriod(from, to))
	if err != nil {
		if errors.Is(err, payroll.ErrEmployeeNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
			return
		}
		slog.Error("attendance log failed", "employeeId", id, "err", err)
		api.Fail(w, http.StatusInternalServerError, "attendance_failed", "failed to load attendance", reqID)
		return
	}
	api.Success(w, map[string]any{
		"employeeId": id,
		"from":       from,
		"to":         to,
		"entries":    entries,
	}, reqID)
}
