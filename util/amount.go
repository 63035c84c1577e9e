package util

import (
	"fmt"
	"strings"
)

// Amount represents a quantity of coins in the smallest indivisible unit of
// an asset. Assets declare their own precision; the same integer amount
// renders differently under different precisions.
type Amount uint64

// FormatAmount renders an amount as a decimal string under the given
// precision, trimming insignificant trailing zeros but always keeping at
// least one fractional digit when the precision is non-zero.
func FormatAmount(amount Amount, precision uint8) string {
	if precision == 0 {
		return fmt.Sprintf("%d", uint64(amount))
	}

	divisor := uint64(1)
	for i := uint8(0); i < precision; i++ {
		divisor *= 10
	}

	whole := uint64(amount) / divisor
	frac := uint64(amount) % divisor

	fracStr := fmt.Sprintf("%0*d", precision, frac)
	fracStr = strings.TrimRight(fracStr, "0")
	if fracStr == "" {
		fracStr = "0"
	}

	return fmt.Sprintf("%d.%s", whole, fracStr)
}
