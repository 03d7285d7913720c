package rules

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestDefaultSocialInsuranceTable(t *testing.T) {
	table := Default().SocialInsurance.Table()
	require.Len(t, table, 34)
	require.True(t, table[0].UpperBound.Equal(decimal.NewFromInt(4250)))
	require.True(t, table[0].Contribution.Equal(decimal.NewFromInt(180)))
	last := table[len(table)-1]
	require.True(t, last.UpperBound.Equal(decimal.NewFromInt(20750)))
	require.True(t, last.Contribution.Equal(decimal.RequireFromString("922.5")))
}

func TestDefaultValidates(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestParseOverridesDefaults(t *testing.T) {
	r, err := Parse([]byte(`
version: 1
workDaysPerMonth: 22
housingFund:
  rate: 0.02
  ceiling: 100
caps:
  enabled: false
`))
	require.NoError(t, err)
	require.Equal(t, 22, r.WorkDaysPerMonth)
	require.Equal(t, 8, r.RegularHoursPerDay)
	require.True(t, r.HousingFund.Ceiling.Equal(decimal.NewFromInt(100)))
	require.False(t, r.Caps.Enabled)
	require.True(t, r.BaselineRate.Equal(decimal.RequireFromString("133.93")))
}

func TestParseExplicitBrackets(t *testing.T) {
	r, err := Parse([]byte(`
version: 1
socialInsurance:
  brackets:
    - {upperBound: 1000, contribution: 10}
    - {upperBound: 2000, contribution: 20}
  top: 30
`))
	require.NoError(t, err)
	table := r.SocialInsurance.Table()
	require.Len(t, table, 2)
	require.True(t, table[1].Contribution.Equal(decimal.NewFromInt(20)))
	require.True(t, r.SocialInsurance.Top.Equal(decimal.NewFromInt(30)))
}

func TestParseRejectsUnknownVersion(t *testing.T) {
	_, err := Parse([]byte("version: 2\n"))
	require.True(t, errors.Is(err, ErrUnsupportedVersion), "got %v", err)
}

func TestParseRejectsDescendingTax(t *testing.T) {
	_, err := Parse([]byte(`
version: 1
withholdingTax:
  - {over: 100, base: 0, rate: 0.1}
  - {over: 50, base: 0, rate: 0.2}
`))
	require.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), DefaultFileName)
	require.NoError(t, os.WriteFile(path, []byte("version: 1\nlateThreshold: \"8:00\"\n"), 0o600))

	r, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "8:00", r.LateThreshold)

	r, err = Load("")
	require.NoError(t, err)
	require.Equal(t, "8:10", r.LateThreshold)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSteppedBracketsDegenerate(t *testing.T) {
	out := SteppedBrackets(BracketSteps{FirstBound: decimal.NewFromInt(10), FirstContribution: decimal.NewFromInt(1)})
	require.Len(t, out, 1)
}

func TestShippedRuleFileMatchesDefault(t *testing.T) {
	r, path, err := Resolve("")
	require.NoError(t, err)
	require.NotEmpty(t, path)

	def := Default()
	require.Equal(t, def.LateThreshold, r.LateThreshold)
	require.True(t, def.BaselineRate.Equal(r.BaselineRate))
	require.Equal(t, def.Caps.Enabled, r.Caps.Enabled)

	want, got := def.SocialInsurance.Table(), r.SocialInsurance.Table()
	require.Len(t, got, len(want))
	for i := range want {
		require.True(t, want[i].UpperBound.Equal(got[i].UpperBound), "row %d", i)
		require.True(t, want[i].Contribution.Equal(got[i].Contribution), "row %d", i)
	}
	require.Len(t, r.WithholdingTax, len(def.WithholdingTax))
	for i := range def.WithholdingTax {
		require.True(t, def.WithholdingTax[i].Base.Equal(r.WithholdingTax[i].Base), "row %d", i)
	}
}
