// Package format renders values for human consumption.
package format

import (
	"math"
	"strconv"
)

// DefaultPrecision is the number of decimals used by Bytes.
const DefaultPrecision = 2

var units = []string{"Bytes", "KB", "MB", "GB", "TB"}

// Bytes renders a byte count as "<value> <unit>" with two decimals, e.g. "1.20 MB".
func Bytes(n int64) string {
	return BytesPrecision(n, DefaultPrecision)
}

// BytesPrecision is Bytes with an explicit number of decimals. A negative
// precision is treated as zero.
func BytesPrecision(n int64, precision int) string {
	if n <= 0 {
		return "0 Bytes"
	}
	if precision < 0 {
		precision = 0
	}

	idx := 0
	value := float64(n)
	for value >= 1024 && idx < len(units)-1 {
		value /= 1024
		idx++
	}

	scale := math.Pow(10, float64(precision))
	value = math.Round(value*scale) / scale

	return strconv.FormatFloat(value, 'f', precision, 64) + " " + units[idx]
}
