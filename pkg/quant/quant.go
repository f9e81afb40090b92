package quant

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// PriceMicros represents a limit price multiplied by 1,000,000 (10^6).
// E.g., 100.50 = 100,500,000 PriceMicros.
type PriceMicros int64

// Qty represents a resting order quantity in whole units (shares/contracts).
type Qty int64

// TimeStamp represents simulator event time in Unix nanoseconds.
type TimeStamp int64

const (
	PriceScale = 1000000
)

// ToPriceMicros converts a float64 (from external storage) to PriceMicros.
// Note: Only used at the boundary. Internal logic uses PriceMicros directly.
func ToPriceMicros(f float64) PriceMicros {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return PriceMicros(math.Round(f * PriceScale))
}

// Float converts PriceMicros back to float64 for the columnar sink.
func (p PriceMicros) Float() float64 {
	return float64(p) / PriceScale
}

func (p PriceMicros) String() string {
	return fmt.Sprintf("%.6f", float64(p)/PriceScale)
}

// ToPriceMicrosStr converts a numeric string to PriceMicros without using float64.
// Rule #1: No Float. Using fixed-point string parsing.
func ToPriceMicrosStr(s string) PriceMicros {
	return PriceMicros(parseFixedPoint(s, 6))
}

// parseFixedPoint parses a numeric string into an int64 with the given precision.
// E.g., parseFixedPoint("100.5", 6) -> 100,500,000.
// Malformed input parses to 0, which callers treat as an invalid price.
func parseFixedPoint(s string, precision int) int64 {
	if s == "" || s == "null" {
		return 0
	}

	intStr := s
	fracStr := ""
	if dot := strings.IndexByte(s, '.'); dot != -1 {
		intStr = s[:dot]
		fracStr = s[dot+1:]
	}

	intPart, err := strconv.ParseInt(intStr, 10, 64)
	if err != nil && intStr != "" && intStr != "-" {
		return 0
	}
	for i := 0; i < precision; i++ {
		intPart *= 10
	}

	if fracStr == "" {
		return intPart
	}

	if len(fracStr) > precision {
		fracStr = fracStr[:precision]
	}
	fracPart, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0
	}
	for i := len(fracStr); i < precision; i++ {
		fracPart *= 10
	}

	if strings.HasPrefix(intStr, "-") {
		return intPart - fracPart
	}
	return intPart + fracPart
}
