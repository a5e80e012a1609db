package utils

import (
	"math/big"
	"strings"
)

var maxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// FormatBigInt renders amount scaled down by 10^decimals, without trailing zeros.
// Example: amount=1234500000000000000, decimals=18 => "1.2345"
func FormatBigInt(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	if decimals == 0 {
		return amount.String()
	}

	neg := amount.Sign() < 0
	digits := new(big.Int).Abs(amount).String()
	if len(digits) <= int(decimals) {
		digits = strings.Repeat("0", int(decimals)-len(digits)+1) + digits
	}
	whole := digits[:len(digits)-int(decimals)]
	frac := strings.TrimRight(digits[len(digits)-int(decimals):], "0")

	out := whole
	if frac != "" {
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}

// FormatAllowance is FormatBigInt, except the maximum uint256 reads "unlimited".
func FormatAllowance(amount *big.Int, decimals uint8) string {
	if amount != nil && amount.Cmp(maxUint256) == 0 {
		return "unlimited"
	}
	return FormatBigInt(amount, decimals)
}
