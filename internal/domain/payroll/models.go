package payroll

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"paycalc/internal/domain/allowance"
	"paycalc/internal/domain/attendance"
	"paycalc/internal/domain/deduction"
	"paycalc/internal/domain/rate"
	"paycalc/internal/timeparse"
)

const dateLayout = "2006-01-02"

// Period is an inclusive date range.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func NewPeriod(start, end time.Time) Period {
	return Period{Start: timeparse.DateOnly(start), End: timeparse.DateOnly(end)}
}

func (p Period) IsZero() bool {
	return p.Start.IsZero() || p.End.IsZero()
}

func (p Period) Reversed() bool {
	return p.Start.After(p.End)
}

// Overlaps reports whether p shares at least one day with [from, to]. A zero
// bound is open.
func (p Period) Overlaps(from, to time.Time) bool {
	if !to.IsZero() && p.Start.After(timeparse.DateOnly(to)) {
		return false
	}
	if !from.IsZero() && p.End.Before(timeparse.DateOnly(from)) {
		return false
	}
	return true
}

func (p Period) String() string {
	return fmt.Sprintf("%s..%s", p.Start.Format(dateLayout), p.End.Format(dateLayout))
}

// Result is one employee's pay for one period.
type Result struct {
	EmployeeID    int                 `json:"employeeId"`
	EmployeeName  string              `json:"employeeName"`
	Position      string              `json:"position"`
	Period        Period              `json:"period"`
	HourlyRate    decimal.Decimal     `json:"hourlyRate"`
	RateSource    rate.Source         `json:"rateSource"`
	RegularHours  decimal.Decimal     `json:"regularHours"`
	OvertimeHours decimal.Decimal     `json:"overtimeHours"`
	RegularPay    decimal.Decimal     `json:"regularPay"`
	OvertimePay   decimal.Decimal     `json:"overtimePay"`
	GrossPay      decimal.Decimal     `json:"grossPay"`
	Deductions    deduction.Breakdown `json:"deductions"`
	Allowances    allowance.Result    `json:"allowances"`
	NetPay        decimal.Decimal     `json:"netPay"`
	Days          []attendance.Day    `json:"days"`
}

// Key identifies a posted result.
type Key struct {
	EmployeeID int
	Start      time.Time
	End        time.Time
}

func KeyOf(res Result) Key {
	return Key{EmployeeID: res.EmployeeID, Start: res.Period.Start, End: res.Period.End}
}

func (k Key) String() string {
	return fmt.Sprintf("%d_%s_%s", k.EmployeeID, k.Start.Format(dateLayout), k.End.Format(dateLayout))
}

// EmployeeSummary totals an employee's posted results over a window.
type EmployeeSummary struct {
	EmployeeID      int             `json:"employeeId"`
	EmployeeName    string          `json:"employeeName"`
	Periods         int             `json:"periods"`
	RegularHours    decimal.Decimal `json:"regularHours"`
	OvertimeHours   decimal.Decimal `json:"overtimeHours"`
	GrossPay        decimal.Decimal `json:"grossPay"`
	TotalDeductions decimal.Decimal `json:"totalDeductions"`
	Allowances      decimal.Decimal `json:"allowances"`
	NetPay          decimal.Decimal `json:"netPay"`
}
