package payroll

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"paycalc/internal/domain/attendance"
	"paycalc/internal/domain/employee"
)

// Dataset is the employee directory and parsed attendance the service
// computes against.
type Dataset struct {
	Employees      *employee.Directory
	Attendance     []attendance.Record
	SkippedRecords int
}

type Service struct {
	Engine  *Engine
	Data    Dataset
	Ledger  Ledger
	Workers int
}

func NewService(engine *Engine, data Dataset, ledger Ledger, workers int) *Service {
	if ledger == nil {
		ledger = NewMemoryStore()
	}
	return &Service{Engine: engine, Data: data, Ledger: ledger, Workers: workers}
}

func (s *Service) Employee(id int) (employee.Record, error) {
	emp, err := s.Data.Employees.Find(id)
	if err != nil {
		if errors.Is(err, employee.ErrNotFound) {
			return employee.Record{}, fmt.Errorf("%w: %d", ErrEmployeeNotFound, id)
		}
		return employee.Record{}, err
	}
	return emp, nil
}

func (s *Service) Compute(id int, period Period) (Result, error) {
	return s.Engine.ComputeByID(s.Data.Employees, id, s.Data.Attendance, period)
}

// Batch computes every employee in the directory, in load order.
func (s *Service) Batch(ctx context.Context, period Period) ([]Result, error) {
	employees := s.Data.Employees.All()
	start := time.Now()
	var (
		results []Result
		err     error
	)
	if s.Workers > 1 {
		results, err = s.Engine.ComputeBatchParallel(ctx, employees, s.Data.Attendance, period, s.Workers)
	} else {
		results, err = s.Engine.ComputeBatch(employees, s.Data.Attendance, period)
	}
	if err != nil {
		return nil, err
	}
	slog.Debug("payroll batch computed", "period", period.String(), "employees", len(results), "durationMs", time.Since(start).Milliseconds())
	return results, nil
}

// Post computes and records results for the given employees, or for
// everyone when ids is empty.
func (s *Service) Post(ctx context.Context, period Period, ids []int) ([]Result, error) {
	var results []Result
	if len(ids) == 0 {
		all, err := s.Batch(ctx, period)
		if err != nil {
			return nil, err
		}
		results = all
	} else {
		for _, id := range ids {
			res, err := s.Compute(id, period)
			if err != nil {
				return nil, err
			}
			results = append(results, res)
		}
	}
	for _, res := range results {
		if err := s.Ledger.Put(ctx, res); err != nil {
			return nil, fmt.Errorf("post payroll %s: %w", KeyOf(res), err)
		}
	}
	return results, nil
}

func (s *Service) Posted(ctx context.Context, id int, period Period) (Result, error) {
	period = NewPeriod(period.Start, period.End)
	return s.Ledger.Get(ctx, Key{EmployeeID: id, Start: period.Start, End: period.End})
}

// ListPosted returns posted results overlapping [from, to], optionally for
// one employee (id > 0).
func (s *Service) ListPosted(ctx context.Context, id int, from, to time.Time) ([]Result, error) {
	var (
		all []Result
		err error
	)
	if id > 0 {
		all, err = s.Ledger.ListByEmployee(ctx, id)
	} else {
		all, err = s.Ledger.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	out := make([]Result, 0, len(all))
	for _, res := range all {
		if res.Period.Overlaps(from, to) {
			out = append(out, res)
		}
	}
	return out, nil
}

func (s *Service) Summary(ctx context.Context, from, to time.Time) ([]EmployeeSummary, error) {
	posted, err := s.Ledger.List(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(posted, from, to), nil
}

// AttendanceLog is the employee's daily log with lateness remarks.
func (s *Service) AttendanceLog(id int, period Period) ([]attendance.Entry, error) {
	if _, err := s.Employee(id); err != nil {
		return nil, err
	}
	if period.IsZero() {
		return nil, ErrInvalidPeriod
	}
	return attendance.DailyLog(s.Data.Attendance, id, period.Start, period.End, s.Engine.Policy().LateThreshold), nil
}

func (s *Service) WritePayslip(w io.Writer, id int, period Period) error {
	res, err := s.Compute(id, period)
	if err != nil {
		return err
	}
	return WritePayslipPDF(w, res, s.Engine.Rules().WorkDaysPerMonth)
}

func (s *Service) WriteRegister(ctx context.Context, w io.Writer, format string, period Period) error {
	results, err := s.Batch(ctx, period)
	if err != nil {
		return err
	}
	return WriteRegister(w, format, results)
}
