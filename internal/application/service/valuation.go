package service

import "github.com/shopspring/decimal"

// CalculateAmount returns serves × rate rounded to two decimals.
// A missing or negative serving count is valued at zero.
func CalculateAmount(serves *int, rate decimal.Decimal) decimal.Decimal {
	if serves == nil || *serves <= 0 {
		return decimal.Zero
	}
	return rate.Mul(decimal.NewFromInt(int64(*serves))).Round(2)
}

// FormatAmount renders an amount with its currency code, e.g. "INR 1000.00"
func FormatAmount(currency string, amount decimal.Decimal) string {
	return currency + " " + amount.StringFixed(2)
}
