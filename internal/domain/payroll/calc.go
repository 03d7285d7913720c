package payroll

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"paycalc/internal/domain/allowance"
	"paycalc/internal/domain/attendance"
	"paycalc/internal/domain/deduction"
	"paycalc/internal/domain/employee"
	"paycalc/internal/domain/rate"
	"paycalc/internal/platform/rules"
	"paycalc/internal/timeparse"
)

var sixty = decimal.NewFromInt(60)

// Engine computes pay from attendance and employee records. It holds no
// mutable state and is safe for concurrent use.
type Engine struct {
	rules      rules.Rules
	rates      *rate.Resolver
	deductions *deduction.Calculator
	policy     attendance.Policy
}

func NewEngine(r rules.Rules) *Engine {
	late, ok := timeparse.ParseClock(r.LateThreshold)
	if !ok {
		late = timeparse.NewClock(8, 10)
	}
	return &Engine{
		rules:      r,
		rates:      rate.NewResolver(r),
		deductions: deduction.New(r),
		policy: attendance.Policy{
			RegularMinutesPerDay: r.RegularMinutesPerDay(),
			LateThreshold:        late,
		},
	}
}

func (e *Engine) Rules() rules.Rules { return e.rules }

func (e *Engine) Policy() attendance.Policy { return e.policy }

// Compute produces the employee's result for period. Records belonging to
// other employees or outside the period are ignored. A period whose start
// is after its end yields a zero result.
func (e *Engine) Compute(emp employee.Record, records []attendance.Record, period Period) (Result, error) {
	if period.IsZero() {
		return Result{}, ErrInvalidPeriod
	}
	period = NewPeriod(period.Start, period.End)
	hourly, source := e.rates.Resolve(emp)

	res := Result{
		EmployeeID:    emp.ID,
		EmployeeName:  emp.FullName(),
		Position:      emp.Position,
		Period:        period,
		HourlyRate:    hourly,
		RateSource:    source,
		RegularHours:  decimal.Zero,
		OvertimeHours: decimal.Zero,
		RegularPay:    decimal.Zero,
		OvertimePay:   decimal.Zero,
		GrossPay:      decimal.Zero,
		Deductions:    zeroBreakdown(),
		Allowances:    allowance.ProRate(emp.Allowances, period.Start, period.End, e.rules.WorkDaysPerMonth),
		NetPay:        decimal.Zero,
		Days:          []attendance.Day{},
	}
	if period.Reversed() {
		return res, nil
	}

	summary := attendance.Aggregate(records, emp.ID, period.Start, period.End, e.policy)
	res.Days = summary.Days
	res.RegularHours = summary.RegularHours().Round(2)
	res.OvertimeHours = summary.OvertimeHours().Round(2)
	res.RegularPay = pay(summary.RegularMinutes, hourly, decimal.NewFromInt(1))
	res.OvertimePay = pay(summary.OvertimeMinutes, hourly, e.rules.OvertimeMultiplier)
	res.GrossPay = res.RegularPay.Add(res.OvertimePay)

	res.Deductions = e.deductions.Compute(res.GrossPay)
	res.NetPay = NetPay(res.GrossPay, res.Deductions.Total, res.Allowances.Total)
	return res, nil
}

// ComputeByID looks the employee up in dir before computing.
func (e *Engine) ComputeByID(dir *employee.Directory, id int, records []attendance.Record, period Period) (Result, error) {
	emp, err := dir.Find(id)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return Result{}, fmt.Errorf("%w: %d", ErrEmployeeNotFound, id)
		}
		return Result{}, err
	}
	return e.Compute(emp, records, period)
}

// ComputeBatch computes every employee in input order.
func (e *Engine) ComputeBatch(employees []employee.Record, records []attendance.Record, period Period) ([]Result, error) {
	if period.IsZero() {
		return nil, ErrInvalidPeriod
	}
	grouped := attendance.GroupByEmployee(records)
	out := make([]Result, 0, len(employees))
	for _, emp := range employees {
		res, err := e.Compute(emp, grouped[emp.ID], period)
		if err != nil {
			return nil, err
		}
		out = append(out, res)
	}
	return out, nil
}

// ComputeBatchParallel is ComputeBatch spread over at most workers
// goroutines. Output order matches input order.
func (e *Engine) ComputeBatchParallel(ctx context.Context, employees []employee.Record, records []attendance.Record, period Period, workers int) ([]Result, error) {
	if period.IsZero() {
		return nil, ErrInvalidPeriod
	}
	if workers < 1 {
		workers = 1
	}
	grouped := attendance.GroupByEmployee(records)
	out := make([]Result, len(employees))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, emp := range employees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.Compute(emp, grouped[emp.ID], period)
			if err != nil {
				return err
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// NetPay is gross minus deductions plus allowances, never below zero.
func NetPay(gross, deductions, allowances decimal.Decimal) decimal.Decimal {
	net := gross.Sub(deductions).Add(allowances)
	if net.IsNegative() {
		return decimal.Zero
	}
	return net
}

func pay(minutes int, hourly, multiplier decimal.Decimal) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Mul(hourly).Mul(multiplier).Div(sixty).Round(2)
}

func zeroBreakdown() deduction.Breakdown {
	return deduction.Breakdown{
		SocialInsurance: decimal.Zero,
		HealthInsurance: decimal.Zero,
		HousingFund:     decimal.Zero,
		WithholdingTax:  decimal.Zero,
		TaxableIncome:   decimal.Zero,
		Total:           decimal.Zero,
	}
}
