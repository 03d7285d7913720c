// Package deduction computes the statutory deductions taken from gross pay:
// social insurance, health insurance, housing fund and withholding tax.
package deduction

import (
	"sort"

	"github.com/shopspring/decimal"

	"paycalc/internal/platform/rules"
)

// Breakdown is every deduction for one gross amount, rounded to cents.
type Breakdown struct {
	SocialInsurance decimal.Decimal `json:"socialInsurance"`
	HealthInsurance decimal.Decimal `json:"healthInsurance"`
	HousingFund     decimal.Decimal `json:"housingFund"`
	WithholdingTax  decimal.Decimal `json:"withholdingTax"`
	TaxableIncome   decimal.Decimal `json:"taxableIncome"`
	Total           decimal.Decimal `json:"total"`
}

// Calculator applies one set of rule tables. It is safe for concurrent use.
type Calculator struct {
	social []rules.Bracket
	top    decimal.Decimal
	health rules.HealthInsurance
	house  rules.HousingFund
	tax    []rules.TaxBracket
	caps   rules.Caps
}

func New(r rules.Rules) *Calculator {
	tax := make([]rules.TaxBracket, len(r.WithholdingTax))
	copy(tax, r.WithholdingTax)
	sort.SliceStable(tax, func(i, j int) bool { return tax[i].Over.LessThan(tax[j].Over) })
	return &Calculator{
		social: r.SocialInsurance.Table(),
		top:    r.SocialInsurance.Top,
		health: r.HealthInsurance,
		house:  r.HousingFund,
		tax:    tax,
		caps:   r.Caps,
	}
}

// Compute derives all deductions from gross pay. Negative gross is treated
// as zero.
func (c *Calculator) Compute(gross decimal.Decimal) Breakdown {
	if gross.IsNegative() {
		gross = decimal.Zero
	}
	social := c.SocialInsurance(gross)
	health := c.HealthInsurance(gross)
	housing := c.HousingFund(gross)

	taxable := gross.Sub(social).Sub(health).Sub(housing)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	taxable = round(taxable)
	tax := c.WithholdingTax(taxable)

	return Breakdown{
		SocialInsurance: social,
		HealthInsurance: health,
		HousingFund:     housing,
		WithholdingTax:  tax,
		TaxableIncome:   taxable,
		Total:           social.Add(health).Add(housing).Add(tax),
	}
}

// SocialInsurance looks up the first bracket whose upper bound is strictly
// greater than gross; above every bound the top contribution applies.
func (c *Calculator) SocialInsurance(gross decimal.Decimal) decimal.Decimal {
	amount := c.top
	for _, b := range c.social {
		if gross.LessThan(b.UpperBound) {
			amount = b.Contribution
			break
		}
	}
	return round(c.capped(amount, gross, c.caps.SocialInsurance))
}

func (c *Calculator) HealthInsurance(gross decimal.Decimal) decimal.Decimal {
	amount := gross.Mul(c.health.Rate).Mul(c.health.EmployeeShare)
	return round(c.capped(amount, gross, c.caps.HealthInsurance))
}

func (c *Calculator) HousingFund(gross decimal.Decimal) decimal.Decimal {
	amount := gross.Mul(c.house.Rate)
	if c.house.Ceiling.IsPositive() {
		amount = decimal.Min(amount, c.house.Ceiling)
	}
	return round(c.capped(amount, gross, c.caps.HousingFund))
}

// WithholdingTax applies the highest bracket whose threshold taxable income
// exceeds.
func (c *Calculator) WithholdingTax(taxable decimal.Decimal) decimal.Decimal {
	if !taxable.IsPositive() {
		return decimal.Zero
	}
	amount := decimal.Zero
	for _, b := range c.tax {
		if !taxable.GreaterThan(b.Over) {
			break
		}
		amount = b.Base.Add(taxable.Sub(b.Over).Mul(b.Rate))
	}
	return round(c.capped(amount, taxable, c.caps.WithholdingTax))
}

func (c *Calculator) capped(amount, basis, rate decimal.Decimal) decimal.Decimal {
	if !c.caps.Enabled || rate.IsZero() {
		return amount
	}
	return decimal.Min(amount, basis.Mul(rate))
}

func round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}
