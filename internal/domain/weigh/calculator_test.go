package weigh

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"railload/internal/core/types"
)

func lbs(v int64) types.Weight { return types.NewWeightFromPounds(v) }

func TestComputeLeg(t *testing.T) {
	tests := []struct {
		name     string
		gross    int64
		tare     int64
		wantNet  int64
		wantTons string
	}{
		{"typical load", 600, 100, 500, "0.25"},
		{"zero tare", 2000, 0, 2000, "1"},
		{"equal gross and tare", 34500, 34500, 0, "0"},
		{"heavy load", 80000, 32000, 48000, "24"},
		{"odd pounds", 4501, 2000, 2501, "1.2505"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeLeg(Leg{Gross: lbs(tt.gross), Tare: lbs(tt.tare)})

			assert.Equal(t, lbs(tt.wantNet), got.Net)
			assert.True(t, got.Tons.Equal(decimal.RequireFromString(tt.wantTons)),
				"tons = %s, want %s", got.Tons, tt.wantTons)
		})
	}
}

func TestCompute_SingleLeg(t *testing.T) {
	got := Compute(Leg{Gross: lbs(600), Tare: lbs(100)}, nil)

	assert.Nil(t, got.Secondary)
	assert.Equal(t, lbs(500), got.CombinedNet)
	assert.Equal(t, got.Primary.Net, got.CombinedNet)
	assert.True(t, got.CombinedTons.Equal(decimal.RequireFromString("0.25")))
}

func TestCompute_SplitLoad(t *testing.T) {
	// Split-load convention: the truck's weight after dropping the first load
	// becomes the tare for the second leg.
	primary := Leg{Gross: lbs(5000), Tare: lbs(2000)}
	secondary := Leg{Gross: lbs(7200), Tare: lbs(5000)}

	got := Compute(primary, &secondary)

	assert.Equal(t, lbs(3000), got.Primary.Net)
	if assert.NotNil(t, got.Secondary) {
		assert.Equal(t, lbs(2200), got.Secondary.Net)
	}
	assert.Equal(t, lbs(5200), got.CombinedNet)
	assert.True(t, got.CombinedTons.Equal(decimal.RequireFromString("2.6")))
}

func TestCompute_CombinedIsSumOfLegs(t *testing.T) {
	cases := []struct{ pg, pt, sg, st int64 }{
		{5000, 2000, 4800, 1900},
		{100, 100, 50, 50},
		{44000, 15500, 46120, 44000},
	}

	for _, c := range cases {
		got := Compute(
			Leg{Gross: lbs(c.pg), Tare: lbs(c.pt)},
			&Leg{Gross: lbs(c.sg), Tare: lbs(c.st)},
		)

		assert.Equal(t, got.Primary.Net+got.Secondary.Net, got.CombinedNet)
		assert.True(t, got.CombinedTons.Equal(got.CombinedNet.Tons()))
	}
}
