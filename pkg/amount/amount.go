// Package amount converts between human-readable decimal amounts and
// integer base-unit amounts using a token's decimal precision. All
// arithmetic is done on big.Int so conversions stay exact for native
// 18-decimal precision and beyond.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// ErrInvalidAmount is returned when an input cannot be interpreted as a
// non-negative finite decimal number.
var ErrInvalidAmount = errors.New("invalid amount")

// DisplayPrecision is the number of fractional digits kept when
// formatting base-unit amounts for display.
const DisplayPrecision = 6

// ToBaseUnits converts a decimal amount string to an integer base-unit
// string, e.g. "1.5" with 9 decimals -> "1500000000". Fractional digits
// beyond the token's precision are truncated. "0" is accepted; callers
// that require a positive amount must check that themselves.
func ToBaseUnits(decimalAmount string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}

	s := strings.TrimSpace(decimalAmount)
	if s == "" {
		return "", fmt.Errorf("%w: empty string", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return "", fmt.Errorf("%w: negative amount %q", ErrInvalidAmount, decimalAmount)
	}
	if strings.HasPrefix(s, "+") {
		s = s[1:]
	}

	whole, frac, err := splitDecimal(s)
	if err != nil {
		return "", err
	}

	// Pad or truncate the fractional part to the token's precision.
	if len(frac) < decimals {
		frac += strings.Repeat("0", decimals-len(frac))
	} else {
		frac = frac[:decimals]
	}

	combined := strings.TrimLeft(whole+frac, "0")
	if combined == "" {
		return "0", nil
	}

	n, ok := new(big.Int).SetString(combined, 10)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidAmount, decimalAmount)
	}
	return n.String(), nil
}

// FromBaseUnits converts an integer base-unit string back to a decimal
// amount string, e.g. "1500000000" with 9 decimals -> "1.5". Trailing
// zeros in the fractional part are dropped.
func FromBaseUnits(baseAmount string, decimals int) (string, error) {
	if decimals < 0 {
		return "", fmt.Errorf("%w: negative decimals %d", ErrInvalidAmount, decimals)
	}

	s := strings.TrimSpace(baseAmount)
	n, ok := new(big.Int).SetString(s, 10)
	if !ok || n.Sign() < 0 {
		return "", fmt.Errorf("%w: %q is not a non-negative integer", ErrInvalidAmount, baseAmount)
	}

	digits := n.String()
	if len(digits) <= decimals {
		digits = strings.Repeat("0", decimals-len(digits)+1) + digits
	}

	cut := len(digits) - decimals
	whole := digits[:cut]
	frac := strings.TrimRight(digits[cut:], "0")

	if frac == "" {
		return whole, nil
	}
	return whole + "." + frac, nil
}

// FormatBaseUnits renders a base-unit amount for display, keeping at
// most DisplayPrecision fractional digits.
func FormatBaseUnits(baseAmount string, decimals int) (string, error) {
	s, err := FromBaseUnits(baseAmount, decimals)
	if err != nil {
		return "", err
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 || len(s)-dot-1 <= DisplayPrecision {
		return s, nil
	}
	s = s[:dot+1+DisplayPrecision]
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, "."), nil
}

func splitDecimal(s string) (whole, frac string, err error) {
	parts := strings.Split(s, ".")
	switch len(parts) {
	case 1:
		whole = parts[0]
	case 2:
		whole, frac = parts[0], parts[1]
	default:
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}

	if whole == "" && frac == "" {
		return "", "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	for _, part := range []string{whole, frac} {
		for _, r := range part {
			if r < '0' || r > '9' {
				return "", "", fmt.Errorf("%w: %q", ErrInvalidAmount, s)
			}
		}
	}
	return whole, frac, nil
}
