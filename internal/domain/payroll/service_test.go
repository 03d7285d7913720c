package payroll

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"paycalc/internal/domain/employee"
	"paycalc/internal/platform/rules"
)

func newTestService(workers int) *Service {
	return NewService(
		NewEngine(rules.Default()),
		Dataset{Employees: employee.NewDirectory(sampleEmployees()), Attendance: sampleRecords()},
		NewMemoryStore(),
		workers,
	)
}

func TestMemoryStoreOverwritesAndLists(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	period := NewPeriod(day(3), day(7))

	_, err := store.Get(ctx, Key{EmployeeID: 1, Start: period.Start, End: period.End})
	require.True(t, errors.Is(err, ErrNotPosted))

	require.NoError(t, store.Put(ctx, Result{EmployeeID: 2, Period: period, Position: "old"}))
	require.NoError(t, store.Put(ctx, Result{EmployeeID: 2, Period: period, Position: "new"}))
	require.NoError(t, store.Put(ctx, Result{EmployeeID: 1, Period: NewPeriod(day(10), day(14))}))
	require.NoError(t, store.Put(ctx, Result{EmployeeID: 1, Period: period}))

	got, err := store.Get(ctx, Key{EmployeeID: 2, Start: period.Start, End: period.End})
	require.NoError(t, err)
	require.Equal(t, "new", got.Position)

	all, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, 1, all[0].EmployeeID)
	require.True(t, all[0].Period.Start.Equal(day(3)))
	require.Equal(t, 2, all[2].EmployeeID)

	mine, err := store.ListByEmployee(ctx, 1)
	require.NoError(t, err)
	require.Len(t, mine, 2)
}

func TestServicePostAndSummary(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(2)
	week1 := NewPeriod(day(3), day(7))
	week2 := NewPeriod(day(10), day(14))

	posted, err := svc.Post(ctx, week1, nil)
	require.NoError(t, err)
	require.Len(t, posted, 4)

	_, err = svc.Post(ctx, week2, []int{1})
	require.NoError(t, err)

	res, err := svc.Posted(ctx, 1, week1)
	require.NoError(t, err)
	require.Equal(t, 1, res.EmployeeID)

	_, err = svc.Posted(ctx, 1, NewPeriod(day(17), day(21)))
	require.True(t, errors.Is(err, ErrNotPosted))

	mine, err := svc.ListPosted(ctx, 1, day(1), day(30))
	require.NoError(t, err)
	require.Len(t, mine, 2)

	onlyWeek2, err := svc.ListPosted(ctx, 0, day(10), day(14))
	require.NoError(t, err)
	require.Len(t, onlyWeek2, 1)

	summaries, err := svc.Summary(ctx, day(1), day(30))
	require.NoError(t, err)
	require.Len(t, summaries, 4)
	require.Equal(t, 1, summaries[0].EmployeeID)
	require.Equal(t, 2, summaries[0].Periods)

	first, _ := svc.Posted(ctx, 1, week1)
	second, _ := svc.Posted(ctx, 1, week2)
	require.True(t, summaries[0].NetPay.Equal(first.NetPay.Add(second.NetPay)))

	_, err = svc.Post(ctx, week1, []int{99})
	require.True(t, errors.Is(err, ErrEmployeeNotFound))
}

func TestServiceBatchKeepsLoadOrder(t *testing.T) {
	for _, workers := range []int{1, 3} {
		svc := NewService(
			NewEngine(rules.Default()),
			Dataset{Employees: employee.NewDirectory([]employee.Record{{ID: 3}, {ID: 1}, {ID: 2}})},
			NewMemoryStore(),
			workers,
		)
		results, err := svc.Batch(context.Background(), NewPeriod(day(3), day(7)))
		require.NoError(t, err)
		ids := make([]int, 0, len(results))
		for _, res := range results {
			ids = append(ids, res.EmployeeID)
		}
		require.Equal(t, []int{3, 1, 2}, ids, "workers=%d", workers)

		posted, err := svc.Post(context.Background(), NewPeriod(day(3), day(7)), nil)
		require.NoError(t, err)
		require.Equal(t, 3, posted[0].EmployeeID)
	}
}

func TestServiceAttendanceLog(t *testing.T) {
	svc := newTestService(1)
	log, err := svc.AttendanceLog(1, NewPeriod(day(1), day(30)))
	require.NoError(t, err)
	require.Len(t, log, 2)
	require.Equal(t, "On Time", log[0].Remark)

	_, err = svc.AttendanceLog(42, NewPeriod(day(1), day(30)))
	require.True(t, errors.Is(err, ErrEmployeeNotFound))
}

func TestWritePayslipPDF(t *testing.T) {
	svc := newTestService(1)
	var buf bytes.Buffer
	require.NoError(t, svc.WritePayslip(&buf, 1, NewPeriod(day(3), day(7))))
	require.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF")))

	err := svc.WritePayslip(&buf, 42, NewPeriod(day(3), day(7)))
	require.True(t, errors.Is(err, ErrEmployeeNotFound))
}

func TestWriteRegisterCSV(t *testing.T) {
	svc := newTestService(1)
	var buf bytes.Buffer
	require.NoError(t, svc.WriteRegister(context.Background(), &buf, FormatCSV, NewPeriod(day(3), day(7))))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 5)
	require.Equal(t, registerHeaders, rows[0])
	require.Equal(t, "3", rows[1][0])
	require.Equal(t, "535.71", rows[1][5])
	require.Equal(t, "1", rows[2][0])
	require.Equal(t, "130.95", rows[2][5])
}

func TestWriteRegisterEmptyCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRegisterCSV(&buf, nil))
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1)
}

func TestWriteRegisterXLSX(t *testing.T) {
	svc := newTestService(1)
	var buf bytes.Buffer
	require.NoError(t, svc.WriteRegister(context.Background(), &buf, FormatXLSX, NewPeriod(day(3), day(7))))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	header, err := f.GetCellValue(registerSheet, "A1")
	require.NoError(t, err)
	require.Equal(t, "Employee #", header)
	id, err := f.GetCellValue(registerSheet, "A2")
	require.NoError(t, err)
	require.Equal(t, "3", id)
}

func TestWriteRegisterUnknownFormat(t *testing.T) {
	err := WriteRegister(&bytes.Buffer{}, "pdf", nil)
	require.True(t, errors.Is(err, ErrUnsupportedFormat))
}
