package rules

import "github.com/shopspring/decimal"

func d(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

// Default returns the built-in tables.
func Default() Rules {
	return Rules{
		Version:            CurrentVersion,
		RegularHoursPerDay: 8,
		OvertimeMultiplier: d("1.25"),
		WorkDaysPerMonth:   21,
		LateThreshold:      "8:10",
		PositionRates: []PositionRate{
			{Keywords: []string{"chief", "ceo"}, Rate: d("535.71")},
			{Keywords: []string{"manager", "head"}, Rate: d("313.51")},
			{Keywords: []string{"team leader"}, Rate: d("255.80")},
		},
		BaselineRate: d("133.93"),
		SocialInsurance: SocialInsurance{
			Steps: &BracketSteps{
				FirstBound:        d("4250"),
				FirstContribution: d("180"),
				BoundStep:         d("500"),
				ContributionStep:  d("22.50"),
				LastBound:         d("20750"),
			},
			Top: d("945"),
		},
		HealthInsurance: HealthInsurance{Rate: d("0.03"), EmployeeShare: d("0.5")},
		HousingFund:     HousingFund{Rate: d("0.02")},
		WithholdingTax: []TaxBracket{
			{Over: d("0"), Base: d("0"), Rate: d("0")},
			{Over: d("2083"), Base: d("0"), Rate: d("0.20")},
			{Over: d("33333"), Base: d("6250"), Rate: d("0.25")},
			{Over: d("66667"), Base: d("14583.33"), Rate: d("0.30")},
			{Over: d("166667"), Base: d("44583.33"), Rate: d("0.32")},
			{Over: d("666667"), Base: d("204583.33"), Rate: d("0.35")},
		},
		Caps: Caps{
			Enabled:         true,
			SocialInsurance: d("0.10"),
			HealthInsurance: d("0.03"),
			HousingFund:     d("0.02"),
			WithholdingTax:  d("0.20"),
		},
	}
}

// SteppedBrackets expands a stepped description into explicit rows, from
// FirstBound up to and including LastBound.
func SteppedBrackets(s BracketSteps) []Bracket {
	if !s.BoundStep.IsPositive() || s.LastBound.LessThan(s.FirstBound) {
		return []Bracket{{UpperBound: s.FirstBound, Contribution: s.FirstContribution}}
	}
	var out []Bracket
	bound, contribution := s.FirstBound, s.FirstContribution
	for !bound.GreaterThan(s.LastBound) {
		out = append(out, Bracket{UpperBound: bound, Contribution: contribution})
		bound = bound.Add(s.BoundStep)
		contribution = contribution.Add(s.ContributionStep)
	}
	return out
}
