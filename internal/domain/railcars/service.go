package railcars

import (
	"context"
	"strings"
	"time"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/security"
	"railload/internal/core/tx"
	"railload/internal/core/types"
	"railload/internal/domain"
	"railload/internal/domain/inventory"
	"railload/pkg/logger"
	"railload/pkg/numerator"
)

// GroundModeChecker reports whether a customer participates in ground
// inventory mode.
type GroundModeChecker interface {
	GroundInventoryEnabled(ctx context.Context, customerID id.ID) bool
}

// ReleaseConverter turns a release into a ground inventory lot.
// Satisfied by inventory.Converter.
type ReleaseConverter interface {
	ConvertRelease(ctx context.Context, input inventory.ReleaseInput) (*inventory.GroundInventoryLot, bool, error)
}

// Service provides railcar business logic: the shipment number lookup used
// by BOL completion and the release-empty workflow.
type Service struct {
	*domain.CatalogService[*Railcar]
	repo      Repository
	customers GroundModeChecker
	converter ReleaseConverter
	flags     security.FeatureFlagProvider
	txManager tx.Manager
}

// NewService creates a new Railcar service.
func NewService(
	repo Repository,
	customers GroundModeChecker,
	converter ReleaseConverter,
	flags security.FeatureFlagProvider,
	txManager tx.Manager,
	num *numerator.Service,
) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Railcar]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  num,
		EntityName: "railcar",
		CodePrefix: "CAR",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
		customers:      customers,
		converter:      converter,
		flags:          flags,
		txManager:      txManager,
	}
}

// Create generates a code when absent, then delegates.
func (s *Service) Create(ctx context.Context, rc *Railcar) error {
	if rc.Code == "" {
		code, err := s.NextCode(ctx)
		if err != nil {
			return err
		}
		rc.Code = code
	}
	if rc.Status == "" {
		rc.Status = StatusActive
	}
	return s.CatalogService.Create(ctx, rc)
}

// FindActiveShipmentNumber returns the carrier shipment/BOL number of the
// customer's active railcar with the given mark. Blank inputs or no active
// match return "" without error; the lookup is advisory.
func (s *Service) FindActiveShipmentNumber(ctx context.Context, customerID id.ID, mark string) (string, error) {
	if id.IsNil(customerID) || normalizeMark(mark) == "" {
		return "", nil
	}

	rc, err := s.repo.FindActiveByMark(ctx, customerID, normalizeMark(mark))
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil
		}
		return "", err
	}

	return rc.ShipmentBolNumber, nil
}

// RecordUnloadedWeight accumulates net weight taken off the car by a
// completed load.
func (s *Service) RecordUnloadedWeight(ctx context.Context, railcarID id.ID, weight types.Weight) error {
	if !weight.IsPositive() {
		return nil
	}
	return s.repo.AddUnloadedWeight(ctx, railcarID, weight)
}

// RecordUnloadedByMark accumulates unloaded weight on the customer's active
// railcar with the given mark. A missing car is not an error; the tally is
// advisory.
func (s *Service) RecordUnloadedByMark(ctx context.Context, customerID id.ID, mark string, weight types.Weight) error {
	if !weight.IsPositive() || id.IsNil(customerID) || normalizeMark(mark) == "" {
		return nil
	}

	rc, err := s.repo.FindActiveByMark(ctx, customerID, normalizeMark(mark))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil
		}
		return err
	}

	return s.repo.AddUnloadedWeight(ctx, rc.ID, weight)
}

// ReleaseResult reports the outcome of releasing a railcar.
type ReleaseResult struct {
	Railcar *Railcar

	// Lot is the ground inventory lot the residual weight converted into,
	// nil when no conversion applied
	Lot *inventory.GroundInventoryLot

	// LotCreated is true when this release created the lot (as opposed to
	// finding one from an earlier attempt)
	LotCreated bool
}

// ReleaseEmpty releases a railcar back to the carrier. Releasing an already
// released car is a no-op. When the customer runs in ground inventory mode
// and residual reported weight remains on the car, the residue converts into
// a ground inventory lot exactly once per release.
func (s *Service) ReleaseEmpty(ctx context.Context, railcarID id.ID) (*ReleaseResult, error) {
	var result ReleaseResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		rc, err := s.repo.GetByID(ctx, railcarID)
		if err != nil {
			return err
		}

		if rc.IsReleased() {
			result.Railcar = rc
			return nil
		}

		now := time.Now().UTC()
		rc.Status = StatusReleased
		rc.ReleasedAt = &now

		if err := s.repo.Update(ctx, rc); err != nil {
			return err
		}
		result.Railcar = rc

		if !s.shouldConvert(ctx, rc) {
			return nil
		}

		lot, created, err := s.converter.ConvertRelease(ctx, inventory.ReleaseInput{
			CustomerID:        rc.CustomerID,
			RailcarID:         rc.ID,
			RailcarMark:       rc.Mark,
			ShipmentBolNumber: rc.ShipmentBolNumber,
			MaterialID:        *rc.MaterialID,
			RemainingWeight:   rc.RemainingWeight(),
		})
		if err != nil {
			return err
		}
		result.Lot = lot
		result.LotCreated = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Lot != nil {
		logger.Info(ctx, "railcar released",
			"railcar_id", railcarID,
			"mark", result.Railcar.Mark,
			"lot_number", result.Lot.Number,
			"lot_created", result.LotCreated)
	}

	return &result, nil
}

func (s *Service) shouldConvert(ctx context.Context, rc *Railcar) bool {
	if !s.flags.IsEnabled(ctx, security.FlagReleaseConversion) {
		return false
	}
	if rc.MaterialID == nil || id.IsNil(*rc.MaterialID) {
		logger.Warn(ctx, "railcar released with residual weight but no material, skipping conversion",
			"railcar_id", rc.ID, "mark", rc.Mark)
		return false
	}
	if !rc.RemainingWeight().IsPositive() {
		return false
	}
	return s.customers.GroundInventoryEnabled(ctx, rc.CustomerID)
}

func normalizeMark(mark string) string {
	return strings.ToUpper(strings.TrimSpace(mark))
}
