// Package rate resolves an employee's hourly rate from whatever the
// employee record provides, falling back through an ordered strategy list.
package rate

import (
	"strings"

	"github.com/shopspring/decimal"

	"paycalc/internal/domain/employee"
	"paycalc/internal/platform/rules"
)

type Source string

const (
	SourceDirect   Source = "direct"
	SourceSalary   Source = "salary"
	SourcePosition Source = "position"
	SourceBaseline Source = "baseline"
)

// Strategy yields a rate or reports that it has none for the record.
type Strategy struct {
	Source  Source
	Resolve func(employee.Record) (decimal.Decimal, bool)
}

type Resolver struct {
	strategies []Strategy
	baseline   decimal.Decimal
}

func NewResolver(r rules.Rules) *Resolver {
	return &Resolver{strategies: DefaultStrategies(r), baseline: r.BaselineRate.Round(2)}
}

// NewResolverWith uses a custom strategy order. The baseline applies when
// none of them yields a positive rate.
func NewResolverWith(baseline decimal.Decimal, strategies ...Strategy) *Resolver {
	return &Resolver{strategies: strategies, baseline: baseline.Round(2)}
}

// DefaultStrategies is direct rate, then monthly salary spread over the
// regular month, then the position table with its baseline.
func DefaultStrategies(r rules.Rules) []Strategy {
	hoursPerMonth := decimal.NewFromInt(int64(r.WorkDaysPerMonth * r.RegularHoursPerDay))
	positions := make([]rules.PositionRate, len(r.PositionRates))
	copy(positions, r.PositionRates)
	baseline := r.BaselineRate

	return []Strategy{
		{
			Source: SourceDirect,
			Resolve: func(emp employee.Record) (decimal.Decimal, bool) {
				return emp.HourlyRate, emp.HourlyRate.IsPositive()
			},
		},
		{
			Source: SourceSalary,
			Resolve: func(emp employee.Record) (decimal.Decimal, bool) {
				if !emp.BasicSalary.IsPositive() || !hoursPerMonth.IsPositive() {
					return decimal.Zero, false
				}
				return emp.BasicSalary.Div(hoursPerMonth), true
			},
		},
		{
			Source: SourcePosition,
			Resolve: func(emp employee.Record) (decimal.Decimal, bool) {
				return PositionRate(positions, baseline, emp.Position), true
			},
		},
	}
}

// PositionRate matches title case-insensitively against each entry's
// keywords in order; unmatched titles get the baseline.
func PositionRate(table []rules.PositionRate, baseline decimal.Decimal, title string) decimal.Decimal {
	title = strings.ToLower(title)
	for _, entry := range table {
		for _, keyword := range entry.Keywords {
			keyword = strings.ToLower(strings.TrimSpace(keyword))
			if keyword != "" && strings.Contains(title, keyword) {
				return entry.Rate
			}
		}
	}
	return baseline
}

// Resolve returns the first positive rate, rounded to cents, and the
// strategy that produced it.
func (r *Resolver) Resolve(emp employee.Record) (decimal.Decimal, Source) {
	for _, strategy := range r.strategies {
		value, ok := strategy.Resolve(emp)
		if !ok {
			continue
		}
		value = value.Round(2)
		if value.IsPositive() {
			return value, strategy.Source
		}
	}
	return r.baseline, SourceBaseline
}
