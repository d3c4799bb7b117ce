package genesis

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ISO 4217 minor unit exponents that differ from 2
var currencyExponents = map[string]int32{
	"BIF": 0, "CLP": 0, "DJF": 0, "GNF": 0, "ISK": 0, "JPY": 0, "KMF": 0, "KRW": 0,
	"PYG": 0, "RWF": 0, "UGX": 0, "VND": 0, "VUV": 0, "XAF": 0, "XOF": 0, "XPF": 0,
	"BHD": 3, "IQD": 3, "JOD": 3, "KWD": 3, "LYD": 3, "OMR": 3, "TND": 3,
}

func exponent(currency string) int32 {
	if e, ok := currencyExponents[strings.ToUpper(currency)]; ok {
		return e
	}
	return 2
}

// ToMinor converts a major unit amount into gateway minor units, rounding half away from zero
func ToMinor(amount decimal.Decimal, currency string) (int64, error) {
	if amount.IsNegative() {
		return 0, fmt.Errorf("genesis: negative amount %s", amount)
	}
	minor := amount.Shift(exponent(currency)).Round(0)
	if !minor.IsInteger() || minor.GreaterThan(decimal.NewFromInt(1<<53)) {
		return 0, fmt.Errorf("genesis: amount %s out of range", amount)
	}
	return minor.IntPart(), nil
}

// FromMinor converts a gateway minor unit string into major units
func FromMinor(raw, currency string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return decimal.Zero, fmt.Errorf("genesis: invalid amount %q: %w", raw, err)
	}
	return decimal.New(v, -exponent(currency)), nil
}
