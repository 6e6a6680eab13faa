package contract

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CURRENCY PRECISION
// =============================================================================

// minorUnits lists ISO 4217 currencies whose minor unit is not 2 digits.
var minorUnits = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0,
	"KRW": 0, "PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0,
	"XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

// MinorUnits returns the number of decimal places of the currency.
func MinorUnits(currency string) int32 {
	if places, ok := minorUnits[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return places
	}
	return 2
}

// RoundToCurrency rounds half away from zero to the currency's minor unit.
func RoundToCurrency(amount decimal.Decimal, currency string) decimal.Decimal {
	return amount.Round(MinorUnits(currency))
}

// SplitInstallments divides total into n installments. All installments
// but the last are rounded to the minor unit; the last absorbs the
// remainder, so the parts always sum to total exactly.
func SplitInstallments(total decimal.Decimal, n int, currency string) []decimal.Decimal {
	if n < 1 {
		n = 1
	}
	parts := make([]decimal.Decimal, n)
	each := RoundToCurrency(total.Div(decimal.NewFromInt(int64(n))), currency)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = each
		allocated = allocated.Add(each)
	}
	parts[n-1] = total.Sub(allocated)
	return parts
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal { return &d }
