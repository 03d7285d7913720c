// Package rules holds the statutory tables and payroll constants. They are
// loaded once at startup and treated as read-only afterwards.
package rules

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	CurrentVersion  = 1
	DefaultFileName = "payroll_rules.yaml"
)

var ErrUnsupportedVersion = errors.New("unsupported payroll rules version")

// Bracket is one row of a contribution table: gross strictly below
// UpperBound pays Contribution.
type Bracket struct {
	UpperBound   decimal.Decimal `yaml:"upperBound"`
	Contribution decimal.Decimal `yaml:"contribution"`
}

// BracketSteps describes a table that grows by a fixed step per row.
type BracketSteps struct {
	FirstBound        decimal.Decimal `yaml:"firstBound"`
	FirstContribution decimal.Decimal `yaml:"firstContribution"`
	BoundStep         decimal.Decimal `yaml:"boundStep"`
	ContributionStep  decimal.Decimal `yaml:"contributionStep"`
	LastBound         decimal.Decimal `yaml:"lastBound"`
}

type SocialInsurance struct {
	Brackets []Bracket       `yaml:"brackets"`
	Steps    *BracketSteps   `yaml:"steps"`
	Top      decimal.Decimal `yaml:"top"`
}

// Table returns the explicit brackets, or the ones generated from Steps.
func (s SocialInsurance) Table() []Bracket {
	if len(s.Brackets) > 0 {
		out := make([]Bracket, len(s.Brackets))
		copy(out, s.Brackets)
		return out
	}
	if s.Steps == nil {
		return nil
	}
	return SteppedBrackets(*s.Steps)
}

type HealthInsurance struct {
	Rate          decimal.Decimal `yaml:"rate"`
	EmployeeShare decimal.Decimal `yaml:"employeeShare"`
}

type HousingFund struct {
	Rate decimal.Decimal `yaml:"rate"`
	// Ceiling of zero means no ceiling.
	Ceiling decimal.Decimal `yaml:"ceiling"`
}

// TaxBracket taxes income above Over at Rate on top of Base.
type TaxBracket struct {
	Over decimal.Decimal `yaml:"over"`
	Base decimal.Decimal `yaml:"base"`
	Rate decimal.Decimal `yaml:"rate"`
}

type Caps struct {
	Enabled         bool            `yaml:"enabled"`
	SocialInsurance decimal.Decimal `yaml:"socialInsurance"`
	HealthInsurance decimal.Decimal `yaml:"healthInsurance"`
	HousingFund     decimal.Decimal `yaml:"housingFund"`
	WithholdingTax  decimal.Decimal `yaml:"withholdingTax"`
}

type PositionRate struct {
	Keywords []string        `yaml:"keywords"`
	Rate     decimal.Decimal `yaml:"rate"`
}

type Rules struct {
	Version            int             `yaml:"version"`
	RegularHoursPerDay int             `yaml:"regularHoursPerDay"`
	OvertimeMultiplier decimal.Decimal `yaml:"overtimeMultiplier"`
	WorkDaysPerMonth   int             `yaml:"workDaysPerMonth"`
	LateThreshold      string          `yaml:"lateThreshold"`
	PositionRates      []PositionRate  `yaml:"positionRates"`
	BaselineRate       decimal.Decimal `yaml:"baselineRate"`
	SocialInsurance    SocialInsurance `yaml:"socialInsurance"`
	HealthInsurance    HealthInsurance `yaml:"healthInsurance"`
	HousingFund        HousingFund     `yaml:"housingFund"`
	WithholdingTax     []TaxBracket    `yaml:"withholdingTax"`
	Caps               Caps            `yaml:"caps"`
}

// Load reads a rule file. Keys missing from the file keep their Default
// values. An empty path means Default.
func Load(path string) (Rules, error) {
	r := Default()
	if strings.TrimSpace(path) == "" {
		return r, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read payroll rules: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (Rules, error) {
	r := Default()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Rules{}, fmt.Errorf("parse payroll rules: %w", err)
	}
	if r.Version != CurrentVersion {
		return Rules{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, r.Version)
	}
	if err := r.Validate(); err != nil {
		return Rules{}, err
	}
	return r, nil
}

// FindFile walks up from the working directory looking for
// config/payroll_rules.yaml. It returns "" when nothing is found.
func FindFile() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}
	for i := 0; i < 8; i++ {
		candidate := filepath.Join(dir, "config", DefaultFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return ""
}

// Resolve loads the rule file at path, or the one FindFile locates when
// path is empty. It returns the path actually read ("" for Default).
func Resolve(path string) (Rules, string, error) {
	if strings.TrimSpace(path) == "" {
		path = FindFile()
	}
	r, err := Load(path)
	return r, path, err
}

func (r Rules) Validate() error {
	if r.RegularHoursPerDay <= 0 {
		return fmt.Errorf("regularHoursPerDay must be positive")
	}
	if r.WorkDaysPerMonth <= 0 {
		return fmt.Errorf("workDaysPerMonth must be positive")
	}
	if r.OvertimeMultiplier.IsNegative() {
		return fmt.Errorf("overtimeMultiplier must not be negative")
	}
	if !r.BaselineRate.IsPositive() {
		return fmt.Errorf("baselineRate must be positive")
	}
	table := r.SocialInsurance.Table()
	if len(table) == 0 {
		return fmt.Errorf("socialInsurance needs brackets or steps")
	}
	for i := 1; i < len(table); i++ {
		if !table[i].UpperBound.GreaterThan(table[i-1].UpperBound) {
			return fmt.Errorf("socialInsurance brackets must ascend (row %d)", i)
		}
	}
	if len(r.WithholdingTax) == 0 {
		return fmt.Errorf("withholdingTax needs at least one bracket")
	}
	for i := 1; i < len(r.WithholdingTax); i++ {
		if !r.WithholdingTax[i].Over.GreaterThan(r.WithholdingTax[i-1].Over) {
			return fmt.Errorf("withholdingTax brackets must ascend (row %d)", i)
		}
	}
	return nil
}

// RegularMinutesPerDay is the daily regular-hours limit in minutes.
func (r Rules) RegularMinutesPerDay() int {
	return r.RegularHoursPerDay * 60
}
