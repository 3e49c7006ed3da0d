package accrual

import (
	"fmt"

	"mining-invest-go/internal/store"

	"github.com/shopspring/decimal"
)

var oneHundred = decimal.NewFromInt(100)

// ComputeEarning returns the monetary earning for holding amountDeposited
// under a contract's (periodReturnPercent, period) rate for the given
// number of days, rounded half-up to 2 decimal places.
//
// A zero deposit earns zero without error. Negative deposits and negative
// day counts are invariant violations and are rejected.
func ComputeEarning(amountDeposited, periodReturnPercent decimal.Decimal, p Period, days int) (decimal.Decimal, error) {
	if amountDeposited.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative deposited amount %s", store.ErrValidation, amountDeposited.String())
	}
	if days < 0 {
		return decimal.Zero, fmt.Errorf("%w: negative day count %d", store.ErrValidation, days)
	}

	rate, err := DailyRate(periodReturnPercent, p)
	if err != nil {
		return decimal.Zero, err
	}

	earning := amountDeposited.
		Mul(rate).
		Div(oneHundred).
		Mul(decimal.NewFromInt(int64(days)))

	return earning.Round(2), nil
}

// ComputeDailyEarning is the one-day case appended to the ledger on each
// batch pass.
func ComputeDailyEarning(amountDeposited, periodReturnPercent decimal.Decimal, p Period) (decimal.Decimal, error) {
	return ComputeEarning(amountDeposited, periodReturnPercent, p, 1)
}
