package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"paycalc/internal/domain/audit"
	"paycalc/internal/domain/payroll"
	"paycalc/internal/platform/jobs"
	"paycalc/internal/platform/metrics"
	"paycalc/internal/transport/http/api"
	"paycalc/internal/transport/http/middleware"
	"paycalc/internal/transport/http/shared"
)

const (
	endpointPost = "payroll.post"
	endpointRuns = "payroll.runs"
)

type Handler struct {
	Service     *payroll.Service
	Jobs        *jobs.Service
	Metrics     *metrics.Collector
	Idempotency *middleware.IdempotencyStore
	Audit       *audit.Service
}

func NewHandler(service *payroll.Service, jobsSvc *jobs.Service, collector *metrics.Collector, idempotency *middleware.IdempotencyStore, auditSvc *audit.Service) *Handler {
	return &Handler{Service: service, Jobs: jobsSvc, Metrics: collector, Idempotency: idempotency, Audit: auditSvc}
}

func (h *Handler) record(r *http.Request, action, entityType, entityID string, details any) {
	if h.Audit == nil {
		return
	}
	if err := h.Audit.Record(r.Context(), action, entityType, entityID, middleware.GetRequestID(r.Context()), middleware.ClientIP(r), details); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/payroll", func(r chi.Router) {
		r.Post("/compute", h.handleCompute)
		r.Post("/batch", h.handleBatch)
		r.Post("/post", h.handlePost)
		r.Get("/posted", h.handleListPosted)
		r.Get("/posted/{employeeID}", h.handleGetPosted)
		r.Get("/summary", h.handleSummary)
		r.Get("/payslips/{employeeID}", h.handlePayslip)
		r.Get("/register", h.handleRegister)
		r.Post("/runs", h.handleSubmitRun)
		r.Get("/runs/{runID}", h.handleGetRun)
	})
}

type periodPayload struct {
	EmployeeID  int    `json:"employeeId"`
	EmployeeIDs []int  `json:"employeeIds"`
	From        string `json:"from"`
	To          string `json:"to"`
	Post        bool   `json:"post"`
}

// period validates a required from/to pair.
func period(v *shared.Validator, fromRaw, toRaw string) payroll.Period {
	from, _ := v.Date("from", fromRaw)
	to, _ := v.Date("to", toRaw)
	v.DateOrder("from", from, "to", to)
	return payroll.NewPeriod(from, to)
}

// optionalDate parses a filter bound; an empty value is an open bound.
func optionalDate(v *shared.Validator, field, raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	parsed, _ := v.Date(field, raw)
	return parsed
}

// decodePayload reads the JSON body and returns its hash for idempotency
// checks.
func decodePayload(w http.ResponseWriter, r *http.Request, payload *periodPayload) (string, bool) {
	body, err := io.ReadAll(r.Body)
	if err == nil {
		err = json.Unmarshal(body, payload)
	}
	if err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return "", false
	}
	return middleware.RequestHash(body), true
}

// replay answers a repeated Idempotency-Key with the stored response. It
// reports whether the request has been handled.
func (h *Handler) replay(w http.ResponseWriter, r *http.Request, endpoint, requestHash string, status int) bool {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return false
	}
	reqID := middleware.GetRequestID(r.Context())
	stored, found, err := h.Idempotency.Check(r.Context(), endpoint, key, requestHash)
	if errors.Is(err, middleware.ErrIdempotencyConflict) {
		api.Fail(w, http.StatusConflict, "idempotency_conflict", "idempotency key was used with a different payload", reqID)
		return true
	}
	if err != nil {
		slog.Warn("idempotency check failed", "endpoint", endpoint, "err", err)
		return false
	}
	if !found {
		return false
	}
	api.WriteJSON(w, status, api.Envelope{Success: true, Data: json.RawMessage(stored), RequestID: reqID})
	return true
}

func (h *Handler) remember(r *http.Request, endpoint, requestHash string, data any) {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return
	}
	encoded, err := json.Marshal(data)
	if err != nil {
		slog.Warn("idempotency response marshal failed", "endpoint", endpoint, "err", err)
		return
	}
	if err := h.Idempotency.Save(r.Context(), endpoint, key, requestHash, encoded); err != nil {
		slog.Warn("idempotency save failed", "endpoint", endpoint, "err", err)
	}
}

func employeeIDParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "employeeID"))
	if err != nil || id <= 0 {
		api.Fail(w, http.StatusBadRequest, "invalid_employee_id", "employee id must be a positive integer", middleware.GetRequestID(r.Context()))
		return 0, false
	}
	return id, true
}

// fail maps domain errors onto HTTP responses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	reqID := middleware.GetRequestID(r.Context())
	switch {
	case errors.Is(err, payroll.ErrEmployeeNotFound):
		api.Fail(w, http.StatusNotFound, "not_found", "employee not found", reqID)
	case errors.Is(err, payroll.ErrNotPosted):
		api.Fail(w, http.StatusNotFound, "not_posted", "no posted payroll for that employee and period", reqID)
	case errors.Is(err, payroll.ErrInvalidPeriod):
		api.Fail(w, http.StatusBadRequest, "invalid_period", "period start and end are required", reqID)
	case errors.Is(err, payroll.ErrUnsupportedFormat):
		api.Fail(w, http.StatusBadRequest, "unsupported_format", "format must be csv or xlsx", reqID)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		api.Fail(w, http.StatusServiceUnavailable, "cancelled", "request cancelled", reqID)
	default:
		slog.Error("payroll request failed", "op", op, "err", err)
		api.Fail(w, http.StatusInternalServerError, op+"_failed", "payroll request failed", reqID)
	}
}

func (h *Handler) handleCompute(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	if _, ok := decodePayload(w, r, &payload); !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	validator := shared.NewValidator()
	if payload.EmployeeID <= 0 {
		validator.Add("employeeId", "must be a positive integer")
	}
	p := period(validator, payload.From, payload.To)
	if validator.Reject(w, reqID) {
		return
	}

	res, err := h.Service.Compute(payload.EmployeeID, p)
	if err != nil {
		h.fail(w, r, "compute", err)
		return
	}
	h.Metrics.RecordComputations(1)
	api.Success(w, res, reqID)
}

func (h *Handler) handleBatch(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	if _, ok := decodePayload(w, r, &payload); !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	validator := shared.NewValidator()
	p := period(validator, payload.From, payload.To)
	if validator.Reject(w, reqID) {
		return
	}

	results, err := h.Service.Batch(r.Context(), p)
	if err != nil {
		h.fail(w, r, "batch", err)
		return
	}
	h.Metrics.RecordComputations(len(results))
	api.Success(w, results, reqID)
}

func (h *Handler) handlePost(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	requestHash, ok := decodePayload(w, r, &payload)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	validator := shared.NewValidator()
	p := period(validator, payload.From, payload.To)
	for _, id := range payload.EmployeeIDs {
		if id <= 0 {
			validator.Add("employeeIds", "must contain positive integers")
			break
		}
	}
	if validator.Reject(w, reqID) {
		return
	}

	if h.replay(w, r, endpointPost, requestHash, http.StatusCreated) {
		return
	}

	results, err := h.Service.Post(r.Context(), p, payload.EmployeeIDs)
	if err != nil {
		h.fail(w, r, "post", err)
		return
	}
	h.Metrics.RecordComputations(len(results))
	slog.Info("payroll posted", "period", p.String(), "employees", len(results), "requestId", reqID)
	h.record(r, audit.ActionPayrollPosted, audit.EntityPayPeriod, p.String(), map[string]any{"employees": len(results)})
	h.remember(r, endpointPost, requestHash, results)
	api.Created(w, results, reqID)
}

func (h *Handler) handleListPosted(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	validator := shared.NewValidator()
	id := 0
	if raw := query.Get("employeeId"); raw != "" {
		id, _ = validator.Positive("employeeId", raw)
	}
	from := optionalDate(validator, "from", query.Get("from"))
	to := optionalDate(validator, "to", query.Get("to"))
	validator.DateOrder("from", from, "to", to)
	if validator.Reject(w, reqID) {
		return
	}

	page := shared.ParsePagination(r, 100, 500)
	results, err := h.Service.ListPosted(r.Context(), id, from, to)
	if err != nil {
		h.fail(w, r, "list_posted", err)
		return
	}
	total := len(results)
	start := min(page.Offset, total)
	end := min(start+page.Limit, total)

	w.Header().Set("X-Total-Count", strconv.Itoa(total))
	api.Success(w, results[start:end], reqID)
}

func (h *Handler) handleGetPosted(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeIDParam(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	validator := shared.NewValidator()
	p := period(validator, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if validator.Reject(w, reqID) {
		return
	}

	res, err := h.Service.Posted(r.Context(), id, p)
	if err != nil {
		h.fail(w, r, "get_posted", err)
		return
	}
	api.Success(w, res, reqID)
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	validator := shared.NewValidator()
	from := optionalDate(validator, "from", query.Get("from"))
	to := optionalDate(validator, "to", query.Get("to"))
	validator.DateOrder("from", from, "to", to)
	if validator.Reject(w, reqID) {
		return
	}

	summaries, err := h.Service.Summary(r.Context(), from, to)
	if err != nil {
		h.fail(w, r, "summary", err)
		return
	}
	api.Success(w, summaries, reqID)
}

func (h *Handler) handlePayslip(w http.ResponseWriter, r *http.Request) {
	id, ok := employeeIDParam(w, r)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	validator := shared.NewValidator()
	p := period(validator, r.URL.Query().Get("from"), r.URL.Query().Get("to"))
	if validator.Reject(w, reqID) {
		return
	}
	var buf bytes.Buffer
	if err := h.Service.WritePayslip(&buf, id, p); err != nil {
		h.fail(w, r, "payslip", err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=payslip-%d-%s.pdf", id, p.Start.Format("2006-01-02")))
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("payslip write failed", "employeeId", id, "err", err)
	}
	h.Metrics.RecordComputations(1)
	h.Metrics.RecordPayslip()
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	query := r.URL.Query()
	format := strings.ToLower(strings.TrimSpace(query.Get("format")))
	if format == "" {
		format = payroll.FormatCSV
	}
	validator := shared.NewValidator()
	validator.Enum("format", format, []string{payroll.FormatCSV, payroll.FormatXLSX}, "must be csv or xlsx")
	p := period(validator, query.Get("from"), query.Get("to"))
	if validator.Reject(w, reqID) {
		return
	}

	results, err := h.Service.Batch(r.Context(), p)
	if err != nil {
		h.fail(w, r, "register", err)
		return
	}
	var buf bytes.Buffer
	if err := payroll.WriteRegister(&buf, format, results); err != nil {
		h.fail(w, r, "register", err)
		return
	}

	filename := "payroll-register-" + p.Start.Format("2006-01-02")
	if format == payroll.FormatXLSX {
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename+".xlsx")
	} else {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename="+filename+".csv")
	}
	if _, err := buf.WriteTo(w); err != nil {
		slog.Warn("register write failed", "format", format, "err", err)
	}
	h.Metrics.RecordComputations(len(results))
}

func (h *Handler) handleSubmitRun(w http.ResponseWriter, r *http.Request) {
	var payload periodPayload
	requestHash, ok := decodePayload(w, r, &payload)
	if !ok {
		return
	}
	reqID := middleware.GetRequestID(r.Context())
	validator := shared.NewValidator()
	p := period(validator, payload.From, payload.To)
	if validator.Reject(w, reqID) {
		return
	}

	if h.replay(w, r, endpointRuns, requestHash, http.StatusAccepted) {
		return
	}

	post := payload.Post
	run, err := h.Jobs.Enqueue(jobs.JobPayrollBatch, func(ctx context.Context) (any, error) {
		var (
			results []payroll.Result
			err     error
		)
		if post {
			results, err = h.Service.Post(ctx, p, nil)
		} else {
			results, err = h.Service.Batch(ctx, p)
		}
		if err != nil {
			return nil, err
		}
		h.Metrics.RecordComputations(len(results))
		return runDetails(p, post, results), nil
	})
	if err != nil {
		if errors.Is(err, jobs.ErrQueueFull) {
			api.Fail(w, http.StatusServiceUnavailable, "queue_full", "payroll run queue is full, retry later", reqID)
			return
		}
		h.fail(w, r, "submit_run", err)
		return
	}
	h.record(r, audit.ActionPayrollRunSubmitted, audit.EntityPayrollRun, run.ID, map[string]any{"period": p.String(), "post": post})
	h.remember(r, endpointRuns, requestHash, run)
	api.WriteJSON(w, http.StatusAccepted, api.Envelope{Success: true, Data: run, RequestID: reqID})
}

func (h *Handler) handleGetRun(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	run, err := h.Jobs.Get(chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, jobs.ErrRunNotFound) {
			api.Fail(w, http.StatusNotFound, "not_found", "payroll run not found", reqID)
			return
		}
		h.fail(w, r, "get_run", err)
		return
	}
	api.Success(w, run, reqID)
}

func runDetails(p payroll.Period, posted bool, results []payroll.Result) map[string]any {
	gross, net := decimal.Zero, decimal.Zero
	for _, res := range results {
		gross = gross.Add(res.GrossPay)
		net = net.Add(res.NetPay)
	}
	return map[string]any{
		"period":    p.String(),
		"posted":    posted,
		"employees": len(results),
		"grossPay":  gross.StringFixed(2),
		"netPay":    net.StringFixed(2),
	}
}
