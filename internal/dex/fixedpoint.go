package dex

import (
	"math/big"
	"strconv"
	"strings"
)

// ToDecimal converts a raw integer token amount into a float by right-aligning
// the amount's digit string against the token's decimal precision and parsing
// the result once. Converting the big integer to a float before scaling loses
// precision past 2^53; the digit string keeps every digit until the final
// parse.
func ToDecimal(raw *big.Int, decimals uint8) float64 {
	if raw == nil || raw.Sign() == 0 {
		return 0
	}

	digits := new(big.Int).Abs(raw).String()
	prec := int(decimals)

	var text string
	switch {
	case prec == 0:
		text = digits
	case len(digits) <= prec:
		text = "0." + strings.Repeat("0", prec-len(digits)) + digits
	default:
		text = digits[:len(digits)-prec] + "." + digits[len(digits)-prec:]
	}

	value, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0
	}
	if raw.Sign() < 0 {
		return -value
	}
	return value
}
