// Package attendance turns time-in/time-out rows into per-day regular and
// overtime hours.
package attendance

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"paycalc/internal/timeparse"
)

// ParseRecords converts raw rows, dropping any row whose employee id, date
// or clock values cannot be read. It returns the number of dropped rows.
func ParseRecords(raw []RawRecord) ([]Record, int) {
	out := make([]Record, 0, len(raw))
	skipped := 0
	for _, row := range raw {
		rec, ok := ParseRecord(row)
		if !ok {
			skipped++
			continue
		}
		out = append(out, rec)
	}
	return out, skipped
}

func ParseRecord(row RawRecord) (Record, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(row.EmployeeID))
	if err != nil {
		return Record{}, false
	}
	date, ok := timeparse.ParseDate(row.Date)
	if !ok {
		return Record{}, false
	}
	in, ok := timeparse.ParseClock(row.TimeIn)
	if !ok {
		return Record{}, false
	}
	out, ok := timeparse.ParseClock(row.TimeOut)
	if !ok {
		return Record{}, false
	}
	return Record{EmployeeID: id, Date: date, TimeIn: in, TimeOut: out}, true
}

// GroupByEmployee buckets records by employee id, keeping input order.
func GroupByEmployee(records []Record) map[int][]Record {
	out := make(map[int][]Record)
	for _, rec := range records {
		out[rec.EmployeeID] = append(out[rec.EmployeeID], rec)
	}
	return out
}

func inPeriod(date, start, end time.Time) bool {
	date = timeparse.DateOnly(date)
	return !date.Before(start) && !date.After(end)
}

// Aggregate sums the employee's worked minutes per calendar date within
// [start, end] and splits each day at the regular limit. Overtime never
// carries over between days.
func Aggregate(records []Record, employeeID int, start, end time.Time, policy Policy) Summary {
	summary := Summary{EmployeeID: employeeID, Days: []Day{}}
	start, end = timeparse.DateOnly(start), timeparse.DateOnly(end)
	if start.After(end) {
		return summary
	}

	byDate := make(map[time.Time]*Day)
	for _, rec := range records {
		if rec.EmployeeID != employeeID || !inPeriod(rec.Date, start, end) {
			continue
		}
		key := timeparse.DateOnly(rec.Date)
		day, ok := byDate[key]
		if !ok {
			day = &Day{Date: key}
			byDate[key] = day
		}
		day.WorkedMinutes += rec.Minutes()
	}

	limit := max(0, policy.RegularMinutesPerDay)
	for _, day := range byDate {
		day.RegularMinutes = min(day.WorkedMinutes, limit)
		day.OvertimeMinutes = day.WorkedMinutes - day.RegularMinutes
		day.RegularHours = minutesToHours(day.RegularMinutes)
		day.OvertimeHours = minutesToHours(day.OvertimeMinutes)
		summary.RegularMinutes += day.RegularMinutes
		summary.OvertimeMinutes += day.OvertimeMinutes
		summary.Days = append(summary.Days, *day)
	}
	sort.Slice(summary.Days, func(i, j int) bool { return summary.Days[i].Date.Before(summary.Days[j].Date) })
	return summary
}

// DailyLog lists the employee's rows within [start, end] ordered by date and
// time-in. A time-in after the threshold is marked late.
func DailyLog(records []Record, employeeID int, start, end time.Time, lateThreshold timeparse.Clock) []Entry {
	start, end = timeparse.DateOnly(start), timeparse.DateOnly(end)
	var selected []Record
	for _, rec := range records {
		if rec.EmployeeID == employeeID && inPeriod(rec.Date, start, end) {
			selected = append(selected, rec)
		}
	}
	sort.SliceStable(selected, func(i, j int) bool {
		if !selected[i].Date.Equal(selected[j].Date) {
			return selected[i].Date.Before(selected[j].Date)
		}
		return selected[i].TimeIn < selected[j].TimeIn
	})

	out := make([]Entry, 0, len(selected))
	for _, rec := range selected {
		remark := RemarkOnTime
		if rec.TimeIn > lateThreshold {
			remark = RemarkLate
		}
		out = append(out, Entry{
			Date:    timeparse.DateOnly(rec.Date),
			TimeIn:  rec.TimeIn.String(),
			TimeOut: rec.TimeOut.String(),
			Hours:   minutesToHours(rec.Minutes()).Round(2),
			Remark:  remark,
		})
	}
	return out
}
