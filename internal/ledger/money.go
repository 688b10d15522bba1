package ledger

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// halfShare returns amount/2 rounded half-up to two decimal places.
// This is the only point where ledger math rounds; everything else
// accumulates at float64 precision.
func halfShare(amount float64) float64 {
	return decimal.NewFromFloat(amount / 2).Round(2).InexactFloat64()
}

// reasonTag is the stored form of a reason: the caller's text plus the
// full moved amount, e.g. "dinner-120BGN".
func reasonTag(reason string, amount float64) string {
	return reason + "-" + FormatAmount(amount) + "BGN"
}

// FormatAmount renders a monetary value with the shortest exact decimal
// representation ("50", "33.33", "-0").
func FormatAmount(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}
