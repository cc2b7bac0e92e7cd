package types

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWeightTonsExact(t *testing.T) {
	// 500 lbs is exactly a quarter short ton; no float rounding allowed.
	w := NewWeightFromPounds(500)
	assert.True(t, decimal.RequireFromString("0.25").Equal(w.Tons()), "got %s", w.Tons())

	w = NewWeightFromPounds(5200)
	assert.True(t, decimal.RequireFromString("2.6").Equal(w.Tons()), "got %s", w.Tons())

	assert.True(t, Weight(0).Tons().IsZero())
}

func TestWeightString(t *testing.T) {
	assert.Equal(t, "500.0000", NewWeightFromPounds(500).String())
	assert.Equal(t, "-12.5000", NewWeightFromFloat64(-12.5).String())
	assert.Equal(t, "0.0001", Weight(1).String())
}

func TestWeightUnmarshal(t *testing.T) {
	var w Weight

	require.NoError(t, json.Unmarshal([]byte("46500"), &w))
	assert.Equal(t, NewWeightFromPounds(46500), w)

	require.NoError(t, json.Unmarshal([]byte(`"120.25"`), &w))
	assert.Equal(t, NewWeightFromFloat64(120.25), w)

	require.NoError(t, json.Unmarshal([]byte("null"), &w))
	assert.True(t, w.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`"not a weight"`), &w))
}
