package accrual

import (
	"errors"
	"testing"

	"mining-invest-go/internal/store"

	"github.com/shopspring/decimal"
)

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	if err != nil {
		t.Fatalf("bad decimal %q: %v", s, err)
	}
	return d
}

func TestComputeEarning_WeeklyContract(t *testing.T) {
	// 1000 deposited on a 7%-per-week contract: 1% per day = 10.00.
	earning, err := ComputeEarning(mustDecimal(t, "1000"), mustDecimal(t, "7"), PeriodWeekly, 1)
	if err != nil {
		t.Fatalf("ComputeEarning failed: %v", err)
	}
	if !earning.Equal(mustDecimal(t, "10.00")) {
		t.Errorf("Expected 10.00, got %s", earning.String())
	}
}

func TestComputeEarning_MonthlyRounding(t *testing.T) {
	// dailyRate = 10/30 = 0.3333%; 100 * 0.003333 = 0.3333 -> 0.33.
	earning, err := ComputeEarning(mustDecimal(t, "100"), mustDecimal(t, "10"), PeriodMonthly, 1)
	if err != nil {
		t.Fatalf("ComputeEarning failed: %v", err)
	}
	if !earning.Equal(mustDecimal(t, "0.33")) {
		t.Errorf("Expected 0.33, got %s", earning.String())
	}
}

func TestComputeEarning_ZeroDeposit(t *testing.T) {
	for _, p := range []Period{PeriodDaily, PeriodWeekly, PeriodFortnightly, PeriodMonthly} {
		earning, err := ComputeEarning(decimal.Zero, mustDecimal(t, "5"), p, 3)
		if err != nil {
			t.Fatalf("ComputeEarning(%s) failed: %v", p, err)
		}
		if !earning.IsZero() {
			t.Errorf("Expected zero earning for zero deposit on %s, got %s", p, earning.String())
		}
	}
}

func TestComputeEarning_LinearInAmountAndDays(t *testing.T) {
	base, err := ComputeEarning(mustDecimal(t, "500"), mustDecimal(t, "7"), PeriodWeekly, 1)
	if err != nil {
		t.Fatalf("ComputeEarning failed: %v", err)
	}

	doubleAmount, err := ComputeEarning(mustDecimal(t, "1000"), mustDecimal(t, "7"), PeriodWeekly, 1)
	if err != nil {
		t.Fatalf("ComputeEarning failed: %v", err)
	}
	if !doubleAmount.Equal(base.Mul(decimal.NewFromInt(2))) {
		t.Errorf("Doubling the amount should double the earning: %s vs %s", base.String(), doubleAmount.String())
	}

	tripleDays, err := ComputeEarning(mustDecimal(t, "500"), mustDecimal(t, "7"), PeriodWeekly, 3)
	if err != nil {
		t.Fatalf("ComputeEarning failed: %v", err)
	}
	if !tripleDays.Equal(base.Mul(decimal.NewFromInt(3))) {
		t.Errorf("Tripling the days should triple the earning: %s vs %s", base.String(), tripleDays.String())
	}
}

func TestComputeEarning_NegativeDepositRejected(t *testing.T) {
	_, err := ComputeEarning(mustDecimal(t, "-100"), mustDecimal(t, "7"), PeriodWeekly, 1)
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for negative deposit, got: %v", err)
	}
}

func TestComputeEarning_NegativeDaysRejected(t *testing.T) {
	_, err := ComputeEarning(mustDecimal(t, "100"), mustDecimal(t, "7"), PeriodWeekly, -1)
	if !errors.Is(err, store.ErrValidation) {
		t.Errorf("Expected ErrValidation for negative days, got: %v", err)
	}
}

func TestComputeEarning_UnknownPeriod(t *testing.T) {
	_, err := ComputeEarning(mustDecimal(t, "100"), mustDecimal(t, "7"), Period("quarterly"), 1)
	if !errors.Is(err, ErrInvalidPeriod) {
		t.Errorf("Expected ErrInvalidPeriod, got: %v", err)
	}
}
