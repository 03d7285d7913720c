// Package allowance pro-rates fixed monthly allowances to a pay period by
// counting working days.
package allowance

import (
	"time"

	"github.com/shopspring/decimal"

	"paycalc/internal/domain/employee"
	"paycalc/internal/timeparse"
)

type Result struct {
	Rice     decimal.Decimal `json:"rice"`
	Phone    decimal.Decimal `json:"phone"`
	Clothing decimal.Decimal `json:"clothing"`
	Total    decimal.Decimal `json:"total"`
	// WorkingDays is the uncapped weekday count of the period.
	WorkingDays int `json:"workingDays"`
	// EffectiveDays is WorkingDays capped at the monthly working days.
	EffectiveDays int `json:"effectiveDays"`
}

// CountWeekdays counts Monday to Friday dates in [start, end].
func CountWeekdays(start, end time.Time) int {
	start, end = timeparse.DateOnly(start), timeparse.DateOnly(end)
	if start.IsZero() || end.IsZero() || start.After(end) {
		return 0
	}
	count := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		switch day.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			count++
		}
	}
	return count
}

// ProRate scales each monthly allowance by min(weekdays, workDaysPerMonth)
// / workDaysPerMonth. Each allowance is rounded to cents and the total is
// the sum of the rounded parts.
func ProRate(monthly employee.Allowances, start, end time.Time, workDaysPerMonth int) Result {
	days := CountWeekdays(start, end)
	res := Result{
		Rice:        decimal.Zero,
		Phone:       decimal.Zero,
		Clothing:    decimal.Zero,
		Total:       decimal.Zero,
		WorkingDays: days,
	}
	if days == 0 || workDaysPerMonth <= 0 {
		return res
	}
	res.EffectiveDays = min(days, workDaysPerMonth)

	effective := decimal.NewFromInt(int64(res.EffectiveDays))
	perMonth := decimal.NewFromInt(int64(workDaysPerMonth))
	scale := func(amount decimal.Decimal) decimal.Decimal {
		return amount.Mul(effective).Div(perMonth).Round(2)
	}
	res.Rice = scale(monthly.Rice)
	res.Phone = scale(monthly.Phone)
	res.Clothing = scale(monthly.Clothing)
	res.Total = res.Rice.Add(res.Phone).Add(res.Clothing)
	return res
}
