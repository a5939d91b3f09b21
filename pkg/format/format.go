// Package format turns raw device counters into the short display strings
// used by the console views.
package format

import (
	"math"
	"strconv"
	"strings"
)

const (
	oneMHz = 1000000
	oneKB  = 1024
	oneMB  = oneKB * 1024

	// Exponents outside [-6, precision) switch to exponential notation.
	minFixedExponent = -6
	sizePrecision    = 2

	// digits past the first kept digit; enough to tell a double below a
	// decimal tie from the tie itself
	exactDigits = 30
)

// Frequency renders a clock frequency in hertz, switching to megahertz
// above 1MHz. The value is printed in its shortest form without rounding.
func Frequency(hz float64) string {
	if hz > oneMHz {
		return formatNumber(hz/oneMHz) + "mhz"
	}
	return formatNumber(hz) + "hz"
}

// Size renders a byte count as "mb", "kb" or "b". Thresholds are strict, so
// exactly 1024 bytes is "1024b" and exactly 1MiB is reported in kilobytes.
func Size(bytes int64) string {
	switch {
	case bytes > oneMB:
		return Precision2(float64(bytes)/oneMB) + "mb"
	case bytes > oneKB:
		return Precision2(float64(bytes)/oneKB) + "kb"
	default:
		return strconv.FormatInt(bytes, 10) + "b"
	}
}

// Usage returns the used share of capacity as a whole percentage, rounding
// halves up. A zero capacity is not guarded against.
func Usage(capacity, free float64) int {
	return int(math.Floor((capacity-free)/capacity*100.0 + 0.5))
}

// Precision2 formats v with two significant digits the way browsers do for
// Number.prototype.toPrecision(2): fixed notation for exponents in [-6, 2),
// otherwise "d.de+x". Ties round away from zero.
func Precision2(v float64) string {
	if v == 0 {
		return "0.0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return formatNumber(v)
	}

	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}

	digits, exponent := roundDigits(v, sizePrecision)

	if exponent < minFixedExponent || exponent >= sizePrecision {
		expSign := "+"
		if exponent < 0 {
			expSign = "-"
			exponent = -exponent
		}
		return sign + digits[:1] + "." + digits[1:] + "e" + expSign + strconv.Itoa(exponent)
	}

	switch {
	case exponent >= sizePrecision-1:
		return sign + digits + strings.Repeat("0", exponent-(sizePrecision-1))
	case exponent >= 0:
		return sign + digits[:exponent+1] + "." + digits[exponent+1:]
	default:
		return sign + "0." + strings.Repeat("0", -exponent-1) + digits
	}
}

// roundDigits returns the first n significant decimal digits of v (v > 0)
// rounded half up, and the decimal exponent of the leading digit. Rounding
// works on the binary value, so 1.45 (stored as 1.4499...) rounds down.
func roundDigits(v float64, n int) (string, int) {
	repr := strconv.FormatFloat(v, 'e', exactDigits, 64)
	mantissa, expPart, _ := strings.Cut(repr, "e")
	exponent, _ := strconv.Atoi(expPart)

	all := []byte(strings.Replace(mantissa, ".", "", 1))
	for len(all) <= n {
		all = append(all, '0')
	}

	kept := all[:n]
	if all[n] >= '5' {
		i := n - 1
		for ; i >= 0; i-- {
			if kept[i] < '9' {
				kept[i]++
				break
			}
			kept[i] = '0'
		}
		if i < 0 {
			kept = append([]byte{'1'}, kept[:n-1]...)
			exponent++
		}
	}
	return string(kept), exponent
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
