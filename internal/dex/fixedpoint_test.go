package dex

import (
	"math/big"
	"testing"
)

func pow10(exp int64) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(exp), nil)
}

func TestToDecimal(t *testing.T) {
	cases := []struct {
		name     string
		raw      *big.Int
		decimals uint8
		want     float64
	}{
		{"nil", nil, 18, 0},
		{"zero", big.NewInt(0), 18, 0},
		{"whole units", new(big.Int).Mul(big.NewInt(100), pow10(18)), 18, 100},
		{"six decimals", new(big.Int).Mul(big.NewInt(250), pow10(6)), 6, 250},
		{"no decimals", big.NewInt(42), 0, 42},
		{"sub unit", big.NewInt(5), 6, 0.000005},
		{"exactly one", pow10(18), 18, 1},
		{"large exact", pow10(27), 18, 1e9},
		{"negative", new(big.Int).Neg(pow10(6)), 6, -1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ToDecimal(tc.raw, tc.decimals); got != tc.want {
				t.Fatalf("ToDecimal(%v, %d) = %v, want %v", tc.raw, tc.decimals, got, tc.want)
			}
		})
	}
}

func TestToDecimalKeepsIntegerPrecision(t *testing.T) {
	// 10^18 + 1 wei: the float mantissa cannot hold 19 digits, but the
	// conversion must go through the digit string, not through a lossy
	// big-int -> float division, so it parses to the nearest float of the
	// exact decimal value.
	raw := new(big.Int).Add(pow10(18), big.NewInt(1))
	got := ToDecimal(raw, 18)
	if got < 1 || got > 1.0000000000000002 {
		t.Fatalf("ToDecimal precision drift: %v", got)
	}
}
