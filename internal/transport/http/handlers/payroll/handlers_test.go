package payrollhandler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"paycalc/internal/domain/attendance"
	"paycalc/internal/domain/audit"
	"paycalc/internal/domain/employee"
	"paycalc/internal/domain/payroll"
	"paycalc/internal/platform/jobs"
	"paycalc/internal/platform/metrics"
	"paycalc/internal/platform/rules"
	"paycalc/internal/timeparse"
	"paycalc/internal/transport/http/middleware"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTestRouter(t *testing.T) (http.Handler, *metrics.Collector) {
	t.Helper()
	h, collector, _ := newAuditedRouter(t)
	return h, collector
}

func newAuditedRouter(t *testing.T) (http.Handler, *metrics.Collector, *audit.Service) {
	t.Helper()
	data := payroll.Dataset{
		Employees: employee.NewDirectory([]employee.Record{
			{ID: 10001, FirstName: "Ana", LastName: "Reyes", Position: "Rank and File"},
			{ID: 10002, FirstName: "Ben", LastName: "Cruz", Position: "Account Manager"},
		}),
		Attendance: []attendance.Record{
			{EmployeeID: 10001, Date: time.Date(2024, time.June, 3, 0, 0, 0, 0, time.UTC), TimeIn: timeparse.NewClock(8, 0), TimeOut: timeparse.NewClock(17, 30)},
		},
	}
	svc := payroll.NewService(payroll.NewEngine(rules.Default()), data, nil, 2)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	jobsSvc := jobs.New(nil, 4)
	jobsSvc.Start(ctx)

	collector := metrics.New()
	r := chi.NewRouter()
	auditSvc := audit.New(nil)
	NewHandler(svc, jobsSvc, collector, middleware.NewIdempotencyStore(nil), auditSvc).RegisterRoutes(r)
	return r, collector, auditSvc
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func doWithKey(t *testing.T, h http.Handler, target, key, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Idempotency-Key", key)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestComputeReturnsPayBreakdown(t *testing.T) {
	h, collector := newTestRouter(t)
	rec := do(t, h, http.MethodPost, "/payroll/compute", `{"employeeId":10001,"from":"2024-06-03","to":"06/07/2024"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decode(t, rec)
	require.True(t, env.Success)
	var res struct {
		GrossPay string `json:"grossPay"`
		NetPay   string `json:"netPay"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	require.Equal(t, "1322.56", res.GrossPay)
	require.Equal(t, "1144.01", res.NetPay)
	require.EqualValues(t, 1, collector.Snapshot()["payrollComputationsTotal"])
}

func TestComputeValidation(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/payroll/compute", `{"employeeId":0,"from":"2024-06-07","to":"2024-06-03"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "validation_error", decode(t, rec).Error.Code)

	rec = do(t, h, http.MethodPost, "/payroll/compute", `{not json`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, "invalid_payload", decode(t, rec).Error.Code)

	rec = do(t, h, http.MethodPost, "/payroll/compute", `{"employeeId":999,"from":"2024-06-03","to":"2024-06-07"}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_found", decode(t, rec).Error.Code)
}

func TestPostThenReadBack(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/payroll/posted/10001?from=2024-06-03&to=2024-06-07", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, "not_posted", decode(t, rec).Error.Code)

	rec = do(t, h, http.MethodPost, "/payroll/post", `{"from":"2024-06-03","to":"2024-06-07"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, h, http.MethodGet, "/payroll/posted/10001?from=2024-06-03&to=2024-06-07", "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/payroll/posted?employeeId=10002", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "1", rec.Header().Get("X-Total-Count"))

	rec = do(t, h, http.MethodGet, "/payroll/posted?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	var page []struct {
		EmployeeID int `json:"employeeId"`
	}
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	require.Len(t, page, 1)
	require.Equal(t, 10001, page[0].EmployeeID)

	rec = do(t, h, http.MethodGet, "/payroll/posted?limit=1&offset=1", "")
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &page))
	require.Len(t, page, 1)
	require.Equal(t, 10002, page[0].EmployeeID)

	rec = do(t, h, http.MethodGet, "/payroll/posted?offset=5", "")
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))
	require.Contains(t, rec.Body.String(), `"data":[]`)

	rec = do(t, h, http.MethodGet, "/payroll/summary?from=2024-06-01&to=2024-06-30", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var summaries []map[string]any
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &summaries))
	require.Len(t, summaries, 2)
}

func TestPayslipAndRegisterDownloads(t *testing.T) {
	h, collector := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/payroll/payslips/10001?from=2024-06-03&to=2024-06-07", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
	require.EqualValues(t, 1, collector.Snapshot()["payslipsRenderedTotal"])

	rec = do(t, h, http.MethodGet, "/payroll/payslips/999?from=2024-06-03&to=2024-06-07", "")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodGet, "/payroll/register?from=2024-06-03&to=2024-06-07", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	require.Len(t, lines, 3)

	rec = do(t, h, http.MethodGet, "/payroll/register?format=XLSX&from=2024-06-03&to=2024-06-07", "")
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))

	rec = do(t, h, http.MethodGet, "/payroll/register?format=pdf&from=2024-06-03&to=2024-06-07", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmittedRunCompletes(t *testing.T) {
	h, _ := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/payroll/runs", `{"from":"2024-06-03","to":"2024-06-07","post":true}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	var run jobs.Run
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, &run))
	require.NotEmpty(t, run.ID)

	require.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, "/payroll/runs/"+run.ID, "")
		if rec.Code != http.StatusOK {
			return false
		}
		var env struct {
			Data jobs.Run `json:"data"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			return false
		}
		return env.Data.Status == jobs.StatusCompleted
	}, 2*time.Second, 10*time.Millisecond)

	rec = do(t, h, http.MethodGet, "/payroll/posted", "")
	require.Equal(t, "2", rec.Header().Get("X-Total-Count"))

	rec = do(t, h, http.MethodGet, "/payroll/runs/missing", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunSubmissionIdempotency(t *testing.T) {
	h, _ := newTestRouter(t)
	body := `{"from":"2024-06-03","to":"2024-06-07"}`

	first := doWithKey(t, h, "/payroll/runs", "run-june-1", body)
	require.Equal(t, http.StatusAccepted, first.Code, first.Body.String())
	var firstRun jobs.Run
	require.NoError(t, json.Unmarshal(decode(t, first).Data, &firstRun))

	replayed := doWithKey(t, h, "/payroll/runs", "run-june-1", body)
	require.Equal(t, http.StatusAccepted, replayed.Code)
	var replayedRun jobs.Run
	require.NoError(t, json.Unmarshal(decode(t, replayed).Data, &replayedRun))
	require.Equal(t, firstRun.ID, replayedRun.ID)

	conflict := doWithKey(t, h, "/payroll/runs", "run-june-1", `{"from":"2024-06-10","to":"2024-06-14"}`)
	require.Equal(t, http.StatusConflict, conflict.Code)
	require.Equal(t, "idempotency_conflict", decode(t, conflict).Error.Code)

	fresh := doWithKey(t, h, "/payroll/runs", "run-june-2", body)
	require.Equal(t, http.StatusAccepted, fresh.Code)
	var freshRun jobs.Run
	require.NoError(t, json.Unmarshal(decode(t, fresh).Data, &freshRun))
	require.NotEqual(t, firstRun.ID, freshRun.ID)
}

func TestPostIdempotencyReplaysResults(t *testing.T) {
	h, _ := newTestRouter(t)
	body := `{"employeeIds":[10001],"from":"2024-06-03","to":"2024-06-07"}`

	first := doWithKey(t, h, "/payroll/post", "post-1", body)
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())
	second := doWithKey(t, h, "/payroll/post", "post-1", body)
	require.Equal(t, http.StatusCreated, second.Code)
	require.JSONEq(t, string(decode(t, first).Data), string(decode(t, second).Data))
}

func TestPostAndRunsAreAudited(t *testing.T) {
	h, _, auditSvc := newAuditedRouter(t)

	rec := do(t, h, http.MethodPost, "/payroll/post", `{"from":"2024-06-03","to":"2024-06-07"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec = do(t, h, http.MethodPost, "/payroll/runs", `{"from":"2024-06-03","to":"2024-06-07"}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	posted, err := auditSvc.List(context.Background(), audit.Filter{Action: audit.ActionPayrollPosted}, true, 10, 0)
	require.NoError(t, err)
	require.Len(t, posted, 1)
	require.Equal(t, "2024-06-03..2024-06-07", posted[0].EntityID)
	require.JSONEq(t, `{"employees":2}`, string(posted[0].Details))

	total, err := auditSvc.Count(context.Background(), audit.Filter{Action: audit.ActionPayrollRunSubmitted})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}
