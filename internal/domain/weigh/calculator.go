// Package weigh provides pure weight derivations for truck loads.
//
// All scale readings are pounds. Net weight is gross minus tare; ton weight is
// net divided by 2000 (short tons), computed exactly with decimals. Callers
// are responsible for rejecting gross < tare before asking for a derivation.
package weigh

import (
	"github.com/shopspring/decimal"

	"railload/internal/core/types"
)

// Leg is one weigh-in/weigh-out pair (primary load or split-load secondary).
type Leg struct {
	Gross types.Weight
	Tare  types.Weight
}

// LegResult holds the derived weights for one leg.
type LegResult struct {
	Net  types.Weight
	Tons decimal.Decimal
}

// LoadResult holds derived weights for a whole load, including the optional
// split-load secondary leg and the combined totals.
type LoadResult struct {
	Primary   LegResult
	Secondary *LegResult

	CombinedNet  types.Weight
	CombinedTons decimal.Decimal
}

// ComputeLeg derives net and ton weight for a single leg.
// Deterministic, no side effects.
func ComputeLeg(leg Leg) LegResult {
	net := leg.Gross - leg.Tare
	return LegResult{
		Net:  net,
		Tons: net.Tons(),
	}
}

// Compute derives weights for a load. The secondary leg participates in the
// combined totals only when present (split load); otherwise combined equals
// primary.
func Compute(primary Leg, secondary *Leg) LoadResult {
	result := LoadResult{
		Primary: ComputeLeg(primary),
	}

	combined := result.Primary.Net
	if secondary != nil {
		sec := ComputeLeg(*secondary)
		result.Secondary = &sec
		combined += sec.Net
	}

	result.CombinedNet = combined
	result.CombinedTons = combined.Tons()

	return result
}
