package inventory

import (
	"context"
	"time"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/security"
	"railload/internal/core/tx"
	"railload/internal/core/types"
	"railload/internal/domain"
	"railload/pkg/logger"
	"railload/pkg/numerator"
)

// ConsumeResult reports the outcome of one lot consumption.
type ConsumeResult struct {
	Lot             *GroundInventoryLot
	ConsumedWeight  types.Weight
	RemainingWeight types.Weight
}

// Ledger coordinates lot availability checks, atomic consumption,
// compensating restores, and the append-only allocation trail.
type Ledger struct {
	repo      LotRepository
	numerator *numerator.Service
	txManager tx.Manager
}

// NewLedger creates the inventory ledger service.
func NewLedger(repo LotRepository, num *numerator.Service, txManager tx.Manager) *Ledger {
	return &Ledger{
		repo:      repo,
		numerator: num,
		txManager: txManager,
	}
}

// GetLot retrieves a lot by ID.
func (l *Ledger) GetLot(ctx context.Context, lotID id.ID) (*GroundInventoryLot, error) {
	return l.repo.GetByID(ctx, lotID)
}

// ListLots lists lots by filter.
func (l *Ledger) ListLots(ctx context.Context, filter LotFilter) (domain.ListResult[*GroundInventoryLot], error) {
	return l.repo.List(ctx, filter)
}

// Allocations returns the ledger entries for a lot, newest first.
func (l *Ledger) Allocations(ctx context.Context, lotID id.ID) ([]*GroundInventoryAllocation, error) {
	if _, err := l.repo.GetByID(ctx, lotID); err != nil {
		return nil, err
	}
	return l.repo.AllocationsByLot(ctx, lotID)
}

// CheckUsable verifies that a lot exists, belongs to the customer and
// material, and can currently be drawn from. A drained or archived lot is
// unavailable even for selection on a draft.
func (l *Ledger) CheckUsable(ctx context.Context, lotID, customerID, materialID id.ID) (*GroundInventoryLot, error) {
	lot, err := l.repo.GetByID(ctx, lotID)
	if err != nil {
		return nil, err
	}

	if lot.CustomerID != customerID {
		return nil, apperror.NewScopeMismatch(lot.Number, "customer")
	}
	if lot.MaterialID != materialID {
		return nil, apperror.NewScopeMismatch(lot.Number, "material")
	}
	if lot.Status == LotArchived {
		return nil, apperror.NewLotUnavailable(lot.Number, "lot is archived")
	}
	if !lot.IsConsumable() {
		return nil, apperror.NewLotUnavailable(lot.Number, "lot is depleted")
	}

	return lot, nil
}

// Consume draws weight from a lot on behalf of a customer/material pair.
//
// The scope and status checks run first so callers get the most specific
// error. The decrement itself is a conditional UPDATE; when it matches no
// row the lot is re-read to classify what changed underneath us. A zero
// weight is a validation-only call and performs no write.
func (l *Ledger) Consume(ctx context.Context, lotID, customerID, materialID id.ID, weight types.Weight) (*ConsumeResult, error) {
	if weight.IsNegative() {
		return nil, apperror.NewValidation("consumption weight cannot be negative").
			WithDetail("field", "weight")
	}

	lot, err := l.CheckUsable(ctx, lotID, customerID, materialID)
	if err != nil {
		return nil, err
	}

	if weight.IsZero() {
		return &ConsumeResult{Lot: lot, RemainingWeight: lot.RemainingWeight}, nil
	}

	remaining, ok, err := l.repo.ConsumeRemaining(ctx, lotID, customerID, materialID, weight)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Guard did not match: another writer changed the lot between the
		// check and the decrement. Re-read to report the current state.
		current, rerr := l.repo.GetByID(ctx, lotID)
		if rerr != nil {
			return nil, rerr
		}
		if current.Status == LotArchived {
			return nil, apperror.NewLotUnavailable(current.Number, "lot is archived")
		}
		return nil, apperror.NewInsufficientInventory(
			current.Number, weight.Float64(), current.RemainingWeight.Float64())
	}

	if !remaining.IsPositive() && lot.Status != LotDepleted {
		// Status is derived from remaining weight; the flip is cosmetic and
		// must not fail a consumption that already took effect.
		if serr := l.repo.SetStatus(ctx, lotID, LotDepleted); serr != nil {
			logger.Warn(ctx, "failed to mark lot depleted",
				"lot_id", lotID, "error", serr)
		}
	}

	lot.RemainingWeight = remaining
	if !remaining.IsPositive() {
		lot.Status = LotDepleted
	}

	return &ConsumeResult{
		Lot:             lot,
		ConsumedWeight:  weight,
		RemainingWeight: remaining,
	}, nil
}

// Restore gives previously consumed weight back to a lot. Used to unwind a
// partial consumption when a later step of an operation fails.
func (l *Ledger) Restore(ctx context.Context, lotID id.ID, weight types.Weight) error {
	if !weight.IsPositive() {
		return nil
	}
	return l.repo.AddRemaining(ctx, lotID, weight)
}

// RecordAllocation appends one consumption entry to the allocation trail.
func (l *Ledger) RecordAllocation(ctx context.Context, alloc *GroundInventoryAllocation) error {
	if id.IsNil(alloc.ID) {
		alloc.ID = id.New()
	}
	if alloc.CreatedAt.IsZero() {
		alloc.CreatedAt = time.Now().UTC()
	}
	if alloc.CreatedBy == "" {
		if user := security.GetUser(ctx); user != nil {
			alloc.CreatedBy = user.Email
		}
	}
	if alloc.AllocationType == "" {
		alloc.AllocationType = AllocationBolCompletion
	}
	return l.repo.CreateAllocation(ctx, alloc)
}

// CreateManualLot creates an operator-entered lot.
func (l *Ledger) CreateManualLot(ctx context.Context, lot *GroundInventoryLot) (*GroundInventoryLot, error) {
	lot.SourceType = SourceManualAdjustment
	if lot.Status == "" {
		lot.Status = LotAvailable
	}
	if lot.RemainingWeight.IsZero() && lot.StartingWeight.IsPositive() {
		lot.RemainingWeight = lot.StartingWeight
	}

	if err := lot.Validate(ctx); err != nil {
		return nil, err
	}

	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if lot.Number == "" {
			number, err := l.numerator.GetNextNumber(ctx,
				numerator.DefaultConfig("LOT"), nil, time.Now())
			if err != nil {
				return err
			}
			lot.Number = number
		}
		return l.repo.Create(ctx, lot)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "manual lot created",
		"lot_id", lot.ID, "number", lot.Number, "weight", lot.StartingWeight)
	return lot, nil
}

// AdjustLot edits a lot's remaining weight and notes. Remaining weight may
// only change while the lot has no allocation history.
func (l *Ledger) AdjustLot(ctx context.Context, lotID id.ID, remaining *types.Weight, notes *string) (*GroundInventoryLot, error) {
	var lot *GroundInventoryLot

	err := l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		lot, err = l.repo.GetByID(ctx, lotID)
		if err != nil {
			return err
		}
		if lot.Status == LotArchived {
			return apperror.NewLotUnavailable(lot.Number, "lot is archived")
		}

		if remaining != nil {
			count, err := l.repo.CountAllocationsByLot(ctx, lotID)
			if err != nil {
				return err
			}
			if count > 0 {
				return apperror.NewConflict(
					"remaining weight cannot be edited on a lot with allocations")
			}
			if remaining.IsNegative() {
				return apperror.NewValidation("remaining weight cannot be negative").
					WithDetail("field", "remainingWeight")
			}
			lot.RemainingWeight = *remaining
			if lot.RemainingWeight > lot.StartingWeight {
				lot.StartingWeight = lot.RemainingWeight
			}
			if lot.RemainingWeight.IsPositive() {
				lot.Status = LotAvailable
			} else {
				lot.Status = LotDepleted
			}
		}
		if notes != nil {
			lot.Notes = *notes
		}

		return l.repo.Update(ctx, lot)
	})
	if err != nil {
		return nil, err
	}
	return lot, nil
}

// ArchiveLot closes a lot. Only lots with no allocation history may be
// archived.
func (l *Ledger) ArchiveLot(ctx context.Context, lotID id.ID) error {
	return l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		lot, err := l.repo.GetByID(ctx, lotID)
		if err != nil {
			return err
		}
		if lot.Status == LotArchived {
			return nil
		}

		count, err := l.repo.CountAllocationsByLot(ctx, lotID)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperror.NewConflict("lot with allocations cannot be archived")
		}

		return l.repo.SetStatus(ctx, lotID, LotArchived)
	})
}

// DeleteLot removes a lot that has never been consumed from.
func (l *Ledger) DeleteLot(ctx context.Context, lotID id.ID) error {
	return l.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if _, err := l.repo.GetByID(ctx, lotID); err != nil {
			return err
		}

		count, err := l.repo.CountAllocationsByLot(ctx, lotID)
		if err != nil {
			return err
		}
		if count > 0 {
			return apperror.NewConflict("lot with allocations cannot be deleted")
		}

		return l.repo.Delete(ctx, lotID)
	})
}
