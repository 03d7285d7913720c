package allowance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"paycalc/internal/domain/employee"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func monthly() employee.Allowances {
	return employee.Allowances{
		Rice:     decimal.NewFromInt(1500),
		Phone:    decimal.NewFromInt(2000),
		Clothing: decimal.NewFromInt(1000),
	}
}

func TestCountWeekdays(t *testing.T) {
	cases := []struct {
		name       string
		start, end time.Time
		want       int
	}{
		{"single monday", date(2024, time.June, 3), date(2024, time.June, 3), 1},
		{"weekend only", date(2024, time.June, 8), date(2024, time.June, 9), 0},
		{"full week", date(2024, time.June, 3), date(2024, time.June, 9), 5},
		{"june 2024", date(2024, time.June, 1), date(2024, time.June, 30), 20},
		{"reversed", date(2024, time.June, 9), date(2024, time.June, 3), 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, CountWeekdays(tc.start, tc.end))
		})
	}
}

func TestProRateFullMonthAtCap(t *testing.T) {
	// July 2024 has 23 weekdays; the factor caps at 21/21.
	res := ProRate(monthly(), date(2024, time.July, 1), date(2024, time.July, 31), 21)
	require.Equal(t, 23, res.WorkingDays)
	require.Equal(t, 21, res.EffectiveDays)
	require.True(t, res.Total.Equal(decimal.NewFromInt(4500)), "got %s", res.Total)
}

func TestProRateExactlyTwentyOneDays(t *testing.T) {
	// 2024-06-03 (Mon) .. 2024-07-01 (Mon) spans 21 weekdays.
	res := ProRate(monthly(), date(2024, time.June, 3), date(2024, time.July, 1), 21)
	require.Equal(t, 21, res.WorkingDays)
	require.True(t, res.Rice.Equal(decimal.NewFromInt(1500)))
	require.True(t, res.Total.Equal(decimal.NewFromInt(4500)))
}

func TestProRateTenDays(t *testing.T) {
	res := ProRate(monthly(), date(2024, time.June, 3), date(2024, time.June, 14), 21)
	require.Equal(t, 10, res.WorkingDays)
	require.Equal(t, "714.29", res.Rice.StringFixed(2))
	require.Equal(t, "952.38", res.Phone.StringFixed(2))
	require.Equal(t, "476.19", res.Clothing.StringFixed(2))
	require.Equal(t, "2142.86", res.Total.StringFixed(2))
}

func TestProRateNeverExceedsMonthly(t *testing.T) {
	start := date(2024, time.January, 1)
	for span := 0; span < 90; span++ {
		res := ProRate(monthly(), start, start.AddDate(0, 0, span), 21)
		require.True(t, res.Total.LessThanOrEqual(monthly().Total()), "span %d total %s", span, res.Total)
	}
}

func TestProRateReversedPeriod(t *testing.T) {
	res := ProRate(monthly(), date(2024, time.June, 14), date(2024, time.June, 3), 21)
	require.Zero(t, res.WorkingDays)
	require.True(t, res.Total.IsZero())
}
