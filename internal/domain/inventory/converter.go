package inventory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/tx"
	"railload/internal/core/types"
	"railload/pkg/logger"
	"railload/pkg/numerator"
)

// conversionNamespace seeds deterministic conversion tokens so that the same
// release event always produces the same token.
var conversionNamespace = uuid.MustParse("7c9e4a1d-52b3-4f6e-9d08-31a4c5e8b2f0")

// ReleaseInput carries the railcar facts needed to convert a release into a
// ground inventory lot.
type ReleaseInput struct {
	CustomerID        id.ID
	RailcarID         id.ID
	RailcarMark       string
	ShipmentBolNumber string
	MaterialID        id.ID
	RemainingWeight   types.Weight
}

// Converter turns railcar releases into ground inventory lots exactly once
// per release event.
type Converter struct {
	repo      LotRepository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewConverter creates the release-to-lot converter.
func NewConverter(repo LotRepository, num *numerator.Service, txManager tx.Manager) *Converter {
	return &Converter{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// ConversionToken derives the deterministic idempotency token for a release
// event from the identifiers that define it.
func ConversionToken(customerID, railcarID id.ID, shipmentBolNumber string) string {
	seed := fmt.Sprintf("%s|%s|%s", customerID, railcarID, shipmentBolNumber)
	return uuid.NewSHA1(conversionNamespace, []byte(seed)).String()
}

// ConvertRelease creates a lot for a released railcar's residual weight.
// Repeat calls with the same release identifiers return the existing lot.
// Returns created=false when the lot already existed.
func (c *Converter) ConvertRelease(ctx context.Context, input ReleaseInput) (*GroundInventoryLot, bool, error) {
	if id.IsNil(input.CustomerID) || id.IsNil(input.RailcarID) {
		return nil, false, apperror.NewValidation("customer and railcar are required for conversion")
	}
	if id.IsNil(input.MaterialID) {
		return nil, false, apperror.NewValidation("railcar has no material assigned").
			WithDetail("railcarId", input.RailcarID)
	}
	if !input.RemainingWeight.IsPositive() {
		return nil, false, apperror.NewValidation("remaining weight must be positive for conversion").
			WithDetail("railcarId", input.RailcarID)
	}

	token := ConversionToken(input.CustomerID, input.RailcarID, input.ShipmentBolNumber)

	existing, err := c.repo.FindByConversionToken(ctx, token)
	if err == nil {
		return existing, false, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, false, err
	}

	lot := NewLot(input.CustomerID, input.MaterialID, SourceRailcarConversion, input.RemainingWeight)
	railcarID := input.RailcarID
	lot.SourceRailcarID = &railcarID
	lot.SourceRailcarMark = input.RailcarMark
	lot.ShipmentBolNumber = input.ShipmentBolNumber
	lot.ConversionToken = token

	err = c.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		number, err := c.numerator.GetNextNumber(ctx,
			numerator.DefaultConfig("LOT"), nil, time.Now())
		if err != nil {
			return err
		}
		lot.Number = number
		return c.repo.Create(ctx, lot)
	})
	if err != nil {
		// Two releases racing on the same token: the unique constraint lets
		// exactly one insert through, the loser picks up the winner's lot.
		if apperror.IsCode(err, apperror.CodeDuplicate) {
			existing, ferr := c.repo.FindByConversionToken(ctx, token)
			if ferr != nil {
				return nil, false, ferr
			}
			return existing, false, nil
		}
		return nil, false, err
	}

	logger.Info(ctx, "railcar release converted to ground lot",
		"lot_id", lot.ID,
		"number", lot.Number,
		"railcar_mark", input.RailcarMark,
		"weight", input.RemainingWeight)

	return lot, true, nil
}
