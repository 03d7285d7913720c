package metrics

import (
	"sync/atomic"
	"time"
)

type Collector struct {
	totalRequests   uint64
	errorRequests   uint64
	clientErrors    uint64
	totalDurationMs uint64
	payslips        uint64
	computations    uint64
}

func New() *Collector {
	return &Collector{}
}

func (c *Collector) Record(status int, duration time.Duration) {
	atomic.AddUint64(&c.totalRequests, 1)
	if status >= 500 {
		atomic.AddUint64(&c.errorRequests, 1)
	} else if status >= 400 {
		atomic.AddUint64(&c.clientErrors, 1)
	}
	atomic.AddUint64(&c.totalDurationMs, uint64(duration.Milliseconds()))
}

// RecordComputations counts employee pay computations served.
func (c *Collector) RecordComputations(n int) {
	if n > 0 {
		atomic.AddUint64(&c.computations, uint64(n))
	}
}

func (c *Collector) RecordPayslip() {
	atomic.AddUint64(&c.payslips, 1)
}

func (c *Collector) Snapshot() map[string]any {
	total := atomic.LoadUint64(&c.totalRequests)
	errs := atomic.LoadUint64(&c.errorRequests)
	clientErrs := atomic.LoadUint64(&c.clientErrors)
	totalMs := atomic.LoadUint64(&c.totalDurationMs)
	avg := float64(0)
	if total > 0 {
		avg = float64(totalMs) / float64(total)
	}
	return map[string]any{
		"requestsTotal":            total,
		"errorsTotal":              errs,
		"clientErrorsTotal":        clientErrs,
		"avgDurationMs":            avg,
		"totalDurationMs":          totalMs,
		"payrollComputationsTotal": atomic.LoadUint64(&c.computations),
		"payslipsRenderedTotal":    atomic.LoadUint64(&c.payslips),
	}
}
