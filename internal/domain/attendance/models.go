package attendance

import (
	"time"

	"github.com/shopspring/decimal"

	"paycalc/internal/timeparse"
)

// RawRecord is an attendance row exactly as the source delivered it.
type RawRecord struct {
	EmployeeID string
	Date       string
	TimeIn     string
	TimeOut    string
}

// Record is one parsed time-in/time-out pair. Date is midnight UTC.
type Record struct {
	EmployeeID int             `json:"employeeId"`
	Date       time.Time       `json:"date"`
	TimeIn     timeparse.Clock `json:"timeIn"`
	TimeOut    timeparse.Clock `json:"timeOut"`
}

// Minutes is the worked duration; a time-out before time-in counts as zero.
func (r Record) Minutes() int {
	return max(0, r.TimeOut.Sub(r.TimeIn))
}

// Policy carries the daily regular-hours limit and the lateness threshold.
type Policy struct {
	RegularMinutesPerDay int
	LateThreshold        timeparse.Clock
}

type Day struct {
	Date            time.Time       `json:"date"`
	WorkedMinutes   int             `json:"workedMinutes"`
	RegularMinutes  int             `json:"regularMinutes"`
	OvertimeMinutes int             `json:"overtimeMinutes"`
	RegularHours    decimal.Decimal `json:"regularHours"`
	OvertimeHours   decimal.Decimal `json:"overtimeHours"`
}

type Summary struct {
	EmployeeID      int   `json:"employeeId"`
	Days            []Day `json:"days"`
	RegularMinutes  int   `json:"regularMinutes"`
	OvertimeMinutes int   `json:"overtimeMinutes"`
}

func (s Summary) RegularHours() decimal.Decimal  { return minutesToHours(s.RegularMinutes) }
func (s Summary) OvertimeHours() decimal.Decimal { return minutesToHours(s.OvertimeMinutes) }

const (
	RemarkOnTime = "On Time"
	RemarkLate   = "Late"
)

// Entry is one row of an employee's attendance log.
type Entry struct {
	Date    time.Time       `json:"date"`
	TimeIn  string          `json:"timeIn"`
	TimeOut string          `json:"timeOut"`
	Hours   decimal.Decimal `json:"hours"`
	Remark  string          `json:"remark"`
}

var sixty = decimal.NewFromInt(60)

func minutesToHours(minutes int) decimal.Decimal {
	return decimal.NewFromInt(int64(minutes)).Div(sixty)
}
