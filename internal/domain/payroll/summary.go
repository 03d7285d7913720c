package payroll

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Summarize totals posted results per employee for every result whose
// period overlaps [from, to]. Zero bounds are open.
func Summarize(results []Result, from, to time.Time) []EmployeeSummary {
	byEmployee := make(map[int]*EmployeeSummary)
	for _, res := range results {
		if !res.Period.Overlaps(from, to) {
			continue
		}
		sum, ok := byEmployee[res.EmployeeID]
		if !ok {
			sum = &EmployeeSummary{
				EmployeeID:      res.EmployeeID,
				EmployeeName:    res.EmployeeName,
				RegularHours:    decimal.Zero,
				OvertimeHours:   decimal.Zero,
				GrossPay:        decimal.Zero,
				TotalDeductions: decimal.Zero,
				Allowances:      decimal.Zero,
				NetPay:          decimal.Zero,
			}
			byEmployee[res.EmployeeID] = sum
		}
		sum.Periods++
		sum.RegularHours = sum.RegularHours.Add(res.RegularHours)
		sum.OvertimeHours = sum.OvertimeHours.Add(res.OvertimeHours)
		sum.GrossPay = sum.GrossPay.Add(res.GrossPay)
		sum.TotalDeductions = sum.TotalDeductions.Add(res.Deductions.Total)
		sum.Allowances = sum.Allowances.Add(res.Allowances.Total)
		sum.NetPay = sum.NetPay.Add(res.NetPay)
	}

	out := make([]EmployeeSummary, 0, len(byEmployee))
	for _, sum := range byEmployee {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out
}
