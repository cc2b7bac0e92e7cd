package inventory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/types"
	"railload/pkg/numerator"
)

func newTestConverter(repo *fakeLotRepo) *Converter {
	return NewConverter(repo, numerator.New(&seqQuerier{}), fakeTxManager{})
}

func releaseInput(customerID, railcarID, materialID id.ID) ReleaseInput {
	return ReleaseInput{
		CustomerID:        customerID,
		RailcarID:         railcarID,
		RailcarMark:       "BNSF 467812",
		ShipmentBolNumber: "RR-88213",
		MaterialID:        materialID,
		RemainingWeight:   types.NewWeightFromPounds(14000),
	}
}

func TestConversionTokenDeterministic(t *testing.T) {
	customerID := id.New()
	railcarID := id.New()

	a := ConversionToken(customerID, railcarID, "RR-88213")
	b := ConversionToken(customerID, railcarID, "RR-88213")
	assert.Equal(t, a, b)

	c := ConversionToken(customerID, railcarID, "RR-99999")
	assert.NotEqual(t, a, c)

	d := ConversionToken(customerID, id.New(), "RR-88213")
	assert.NotEqual(t, a, d)
}

func TestConvertRelease(t *testing.T) {
	ctx := context.Background()
	customerID := id.New()
	railcarID := id.New()
	materialID := id.New()

	t.Run("creates lot from release", func(t *testing.T) {
		repo := newFakeLotRepo()
		conv := newTestConverter(repo)

		lot, created, err := conv.ConvertRelease(ctx, releaseInput(customerID, railcarID, materialID))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, SourceRailcarConversion, lot.SourceType)
		assert.Equal(t, customerID, lot.CustomerID)
		assert.Equal(t, materialID, lot.MaterialID)
		assert.Equal(t, types.NewWeightFromPounds(14000), lot.StartingWeight)
		assert.Equal(t, types.NewWeightFromPounds(14000), lot.RemainingWeight)
		assert.Equal(t, LotAvailable, lot.Status)
		assert.Equal(t, "BNSF 467812", lot.SourceRailcarMark)
		assert.Equal(t, "RR-88213", lot.ShipmentBolNumber)
		assert.NotEmpty(t, lot.Number)
		require.NotNil(t, lot.SourceRailcarID)
		assert.Equal(t, railcarID, *lot.SourceRailcarID)
	})

	t.Run("repeat release returns existing lot", func(t *testing.T) {
		repo := newFakeLotRepo()
		conv := newTestConverter(repo)

		first, created, err := conv.ConvertRelease(ctx, releaseInput(customerID, railcarID, materialID))
		require.NoError(t, err)
		require.True(t, created)

		second, created, err := conv.ConvertRelease(ctx, releaseInput(customerID, railcarID, materialID))
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.Len(t, repo.lots, 1)
	})

	t.Run("duplicate insert race falls back to existing lot", func(t *testing.T) {
		repo := newFakeLotRepo()
		conv := newTestConverter(repo)

		input := releaseInput(customerID, railcarID, materialID)
		winner := NewLot(customerID, materialID, SourceRailcarConversion, input.RemainingWeight)
		winner.ConversionToken = ConversionToken(customerID, railcarID, input.ShipmentBolNumber)
		winner.Number = "LOT-2026-00042"
		require.NoError(t, repo.Create(ctx, winner))

		// The other writer landed between our token lookup and insert: the
		// unique violation must resolve to the winner's lot.
		repo.hideTokenOnce = true

		lot, created, err := conv.ConvertRelease(ctx, input)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, winner.ID, lot.ID)
	})

	t.Run("zero remaining weight rejected", func(t *testing.T) {
		conv := newTestConverter(newFakeLotRepo())

		input := releaseInput(customerID, railcarID, materialID)
		input.RemainingWeight = 0
		_, _, err := conv.ConvertRelease(ctx, input)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("missing material rejected", func(t *testing.T) {
		conv := newTestConverter(newFakeLotRepo())

		input := releaseInput(customerID, railcarID, materialID)
		input.MaterialID = id.Nil()
		_, _, err := conv.ConvertRelease(ctx, input)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}
