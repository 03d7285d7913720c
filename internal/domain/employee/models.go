package employee

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Allowances are the fixed monthly benefits paid on top of earned pay.
type Allowances struct {
	Rice     decimal.Decimal `json:"rice"`
	Phone    decimal.Decimal `json:"phone"`
	Clothing decimal.Decimal `json:"clothing"`
}

func (a Allowances) Total() decimal.Decimal {
	return a.Rice.Add(a.Phone).Add(a.Clothing)
}

// Record is an employee's compensation data as loaded from the directory
// source. A zero HourlyRate means the source had none.
type Record struct {
	ID          int             `json:"id"`
	LastName    string          `json:"lastName"`
	FirstName   string          `json:"firstName"`
	Status      string          `json:"status"`
	Position    string          `json:"position"`
	BasicSalary decimal.Decimal `json:"basicSalary"`
	HourlyRate  decimal.Decimal `json:"hourlyRate"`
	Allowances  Allowances      `json:"allowances"`
}

func (r Record) FullName() string {
	return strings.TrimSpace(r.FirstName + " " + r.LastName)
}

var nonNumeric = regexp.MustCompile(`[^0-9.]`)

// ParseAmount reads a money amount written the way spreadsheets export it
// ("₱ 1,500.00", "90,170"). Anything that is not a digit or '.' is dropped;
// what remains must be a number or the amount is zero.
func ParseAmount(raw string) decimal.Decimal {
	cleaned := nonNumeric.ReplaceAllString(raw, "")
	if cleaned == "" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return amount
}
