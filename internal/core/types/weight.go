// Package types provides common type aliases and utilities.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Weight is a fixed-point weight in pounds with 4 decimal places (scale = 1e4).
//
// Rationale:
// - Matches Postgres NUMERIC(15,4) semantics without floating point errors
// - Easy to store as BIGINT in DB (scaled integer)
// - JSON remains a number with up to 4 decimals
//
// Scale weights arrive as whole pounds; the fractional digits exist so that
// derived values (ton weights back-converted, manual adjustments) never lose
// precision in storage.
type Weight int64

const WeightScale int64 = 10_000

// PoundsPerTon is the short-ton divisor used for all ton weight derivations.
const PoundsPerTon int64 = 2000

func NewWeightFromFloat64(v float64) Weight {
	return Weight(math.Round(v * float64(WeightScale)))
}

// NewWeightFromPounds creates a Weight from whole pounds.
func NewWeightFromPounds(lbs int64) Weight {
	return Weight(lbs * WeightScale)
}

func NewWeightFromInt64Scaled(v int64) Weight { return Weight(v) }

func (w Weight) Int64Scaled() int64 { return int64(w) }

func (w Weight) Float64() float64 { return float64(w) / float64(WeightScale) }

func (w Weight) IsZero() bool { return w == 0 }

func (w Weight) IsPositive() bool { return w > 0 }

func (w Weight) IsNegative() bool { return w < 0 }

func (w Weight) Neg() Weight { return -w }

func (w Weight) Abs() Weight {
	if w < 0 {
		return -w
	}
	return w
}

// Decimal returns the weight as an exact decimal value in pounds.
func (w Weight) Decimal() decimal.Decimal {
	return decimal.New(int64(w), -4)
}

// Tons converts a net weight in pounds to short tons (net / 2000), exactly.
func (w Weight) Tons() decimal.Decimal {
	return w.Decimal().Div(decimal.NewFromInt(PoundsPerTon))
}

// String returns a decimal string with 4 fractional digits.
func (w Weight) String() string {
	neg := w < 0
	v := w
	if neg {
		v = -v
	}
	intPart := int64(v) / WeightScale
	frac := int64(v) % WeightScale
	if neg {
		return fmt.Sprintf("-%d.%04d", intPart, frac)
	}
	return fmt.Sprintf("%d.%04d", intPart, frac)
}

// MarshalJSON encodes Weight as JSON number (not string), preserving 4 digits.
func (w Weight) MarshalJSON() ([]byte, error) {
	return []byte(w.String()), nil
}

// UnmarshalJSON accepts either a JSON number or string and parses to fixed-point (4 digits).
func (w *Weight) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*w = 0
		return nil
	}

	// If string, unquote first.
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		parsed, err := parseWeightString(s)
		if err != nil {
			return err
		}
		*w = parsed
		return nil
	}

	// Otherwise treat as number token.
	parsed, err := parseWeightString(string(data))
	if err != nil {
		return err
	}
	*w = parsed
	return nil
}

func parseWeightString(s string) (Weight, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty weight")
	}

	// We intentionally do NOT support exponent form to keep parsing strict.
	if strings.ContainsAny(s, "eE") {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("parse weight: %w", err)
		}
		return NewWeightFromFloat64(f), nil
	}

	sign := int64(1)
	if strings.HasPrefix(s, "-") {
		sign = -1
		s = strings.TrimPrefix(s, "-")
	} else if strings.HasPrefix(s, "+") {
		s = strings.TrimPrefix(s, "+")
	}

	parts := strings.SplitN(s, ".", 2)
	intPartStr := parts[0]
	fracStr := ""
	if len(parts) == 2 {
		fracStr = parts[1]
	}

	if intPartStr == "" {
		intPartStr = "0"
	}
	intPart, err := strconv.ParseInt(intPartStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse weight integer part: %w", err)
	}

	// Normalize fractional part to 4 digits (pad right, truncate extra digits).
	if len(fracStr) > 4 {
		fracStr = fracStr[:4]
	}
	for len(fracStr) < 4 {
		fracStr += "0"
	}
	frac, err := strconv.ParseInt(fracStr, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse weight fractional part: %w", err)
	}

	return Weight(sign * (intPart*WeightScale + frac)), nil
}
