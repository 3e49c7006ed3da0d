package accrual

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Period is the cadence a contract's return rate is quoted over.
type Period string

const (
	PeriodDaily       Period = "daily"
	PeriodWeekly      Period = "weekly"
	PeriodFortnightly Period = "fortnightly"
	PeriodMonthly     Period = "monthly"
)

// ErrInvalidPeriod is returned for any period outside the known set.
// There is no silent daily fallback: a contract with a bad period must
// fail loudly rather than accrue at the wrong rate.
var ErrInvalidPeriod = errors.New("invalid contract period")

// daysInPeriod uses a fixed 30-day month approximation, not calendar days.
var daysInPeriod = map[Period]int64{
	PeriodDaily:       1,
	PeriodWeekly:      7,
	PeriodFortnightly: 14,
	PeriodMonthly:     30,
}

// ParsePeriod validates a raw period string.
func ParsePeriod(raw string) (Period, error) {
	p := Period(raw)
	if _, ok := daysInPeriod[p]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidPeriod, raw)
	}
	return p, nil
}

// DaysInPeriod returns the day-count divisor for a period.
func DaysInPeriod(p Period) (int64, error) {
	days, ok := daysInPeriod[p]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPeriod, p)
	}
	return days, nil
}

// DailyRate converts a period return rate to a per-day rate. Both input
// and output are percentages; callers divide by 100 to get a fraction.
func DailyRate(periodReturnPercent decimal.Decimal, p Period) (decimal.Decimal, error) {
	days, err := DaysInPeriod(p)
	if err != nil {
		return decimal.Zero, err
	}
	return periodReturnPercent.Div(decimal.NewFromInt(days)), nil
}
