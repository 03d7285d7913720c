package csvsource

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"paycalc/internal/domain/attendance"
	"paycalc/internal/domain/employee"
	"paycalc/internal/domain/payroll"
)

// LoadDataset fetches both sheets concurrently and parses the attendance
// rows. Unparseable attendance rows are counted, not fatal.
func (l *Loader) LoadDataset(ctx context.Context, employeesSource, attendanceSource string) (payroll.Dataset, error) {
	var (
		employees []employee.Record
		raw       []attendance.RawRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		employees, err = l.LoadEmployees(gctx, employeesSource)
		return err
	})
	g.Go(func() error {
		var err error
		raw, err = l.LoadAttendance(gctx, attendanceSource)
		return err
	})
	if err := g.Wait(); err != nil {
		return payroll.Dataset{}, err
	}

	records, skipped := attendance.ParseRecords(raw)
	if skipped > 0 {
		slog.Warn("skipped unparseable attendance rows", "skipped", skipped, "source", attendanceSource)
	}
	return payroll.Dataset{
		Employees:      employee.NewDirectory(employees),
		Attendance:     records,
		SkippedRecords: skipped,
	}, nil
}
