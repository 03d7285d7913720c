// Package csvsource loads employee and attendance sheets exported as CSV,
// from a local path or an http(s) URL such as a published spreadsheet.
package csvsource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"

	"paycalc/internal/domain/attendance"
	"paycalc/internal/domain/employee"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

type employeeRow struct {
	ID          string `csv:"Employee #"`
	LastName    string `csv:"Last Name"`
	FirstName   string `csv:"First Name"`
	Status      string `csv:"Status"`
	Position    string `csv:"Position"`
	BasicSalary string `csv:"Basic Salary"`
	Rice        string `csv:"Rice Subsidy"`
	Phone       string `csv:"Phone Allowance"`
	Clothing    string `csv:"Clothing Allowance"`
	HourlyRate  string `csv:"Hourly Rate"`
}

type attendanceRow struct {
	EmployeeID string `csv:"Employee #"`
	Date       string `csv:"Date"`
	LogIn      string `csv:"Log In"`
	LogOut     string `csv:"Log Out"`
}

// Loader opens sources. Client is used for http(s) sources.
type Loader struct {
	Client *http.Client
}

func NewLoader(timeout time.Duration) *Loader {
	return &Loader{Client: &http.Client{Timeout: timeout}}
}

// Open returns a reader for a file path or an http(s) URL.
func (l *Loader) Open(ctx context.Context, source string) (io.ReadCloser, error) {
	source = strings.TrimSpace(source)
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		return os.Open(source)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("%w: %s returned %d", ErrUnexpectedStatus, source, resp.StatusCode)
	}
	return resp.Body, nil
}

func (l *Loader) LoadEmployees(ctx context.Context, source string) ([]employee.Record, error) {
	rc, err := l.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("open employees %s: %w", source, err)
	}
	defer rc.Close()
	records, dropped, err := ReadEmployees(rc)
	if err != nil {
		return nil, fmt.Errorf("read employees %s: %w", source, err)
	}
	slog.Info("employees loaded", "source", source, "records", len(records), "dropped", dropped)
	return records, nil
}

func (l *Loader) LoadAttendance(ctx context.Context, source string) ([]attendance.RawRecord, error) {
	rc, err := l.Open(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("open attendance %s: %w", source, err)
	}
	defer rc.Close()
	rows, err := ReadAttendance(rc)
	if err != nil {
		return nil, fmt.Errorf("read attendance %s: %w", source, err)
	}
	slog.Info("attendance loaded", "source", source, "rows", len(rows))
	return rows, nil
}

func newReader(r io.Reader) *csv.Reader {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	return reader
}

// ReadEmployees decodes an employee sheet. Rows without a numeric employee
// id are dropped and counted.
func ReadEmployees(r io.Reader) ([]employee.Record, int, error) {
	var rows []employeeRow
	if err := gocsv.UnmarshalCSV(newReader(r), &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, 0, nil
		}
		return nil, 0, err
	}
	out := make([]employee.Record, 0, len(rows))
	dropped := 0
	for i, row := range rows {
		id, err := strconv.Atoi(strings.TrimSpace(row.ID))
		if err != nil {
			slog.Debug("dropping employee row", "row", i+2, "id", row.ID)
			dropped++
			continue
		}
		out = append(out, employee.Record{
			ID:          id,
			LastName:    strings.TrimSpace(row.LastName),
			FirstName:   strings.TrimSpace(row.FirstName),
			Status:      strings.TrimSpace(row.Status),
			Position:    strings.TrimSpace(row.Position),
			BasicSalary: employee.ParseAmount(row.BasicSalary),
			HourlyRate:  employee.ParseAmount(row.HourlyRate),
			Allowances: employee.Allowances{
				Rice:     employee.ParseAmount(row.Rice),
				Phone:    employee.ParseAmount(row.Phone),
				Clothing: employee.ParseAmount(row.Clothing),
			},
		})
	}
	return out, dropped, nil
}

// ReadAttendance decodes an attendance sheet into raw rows. Values are not
// validated here; attendance.ParseRecords does that.
func ReadAttendance(r io.Reader) ([]attendance.RawRecord, error) {
	var rows []attendanceRow
	if err := gocsv.UnmarshalCSV(newReader(r), &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]attendance.RawRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, attendance.RawRecord{
			EmployeeID: row.EmployeeID,
			Date:       row.Date,
			TimeIn:     row.LogIn,
			TimeOut:    row.LogOut,
		})
	}
	return out, nil
}
