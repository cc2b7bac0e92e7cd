package bol

import (
	"context"
	"time"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/security"
	"railload/internal/core/tx"
	"railload/internal/core/types"
	"railload/internal/domain"
	"railload/internal/domain/inventory"
	"railload/internal/domain/orders"
	"railload/internal/domain/weigh"
	"railload/pkg/logger"
	"railload/pkg/numerator"
)

// InventoryLedger is the slice of the inventory ledger that BOL completion
// needs. Satisfied by inventory.Ledger.
type InventoryLedger interface {
	CheckUsable(ctx context.Context, lotID, customerID, materialID id.ID) (*inventory.GroundInventoryLot, error)
	Consume(ctx context.Context, lotID, customerID, materialID id.ID, weight types.Weight) (*inventory.ConsumeResult, error)
	Restore(ctx context.Context, lotID id.ID, weight types.Weight) error
	RecordAllocation(ctx context.Context, alloc *inventory.GroundInventoryAllocation) error
}

// RailcarGateway resolves carrier shipment numbers and tallies unloaded
// weight. Satisfied by railcars.Service.
type RailcarGateway interface {
	FindActiveShipmentNumber(ctx context.Context, customerID id.ID, mark string) (string, error)
	RecordUnloadedByMark(ctx context.Context, customerID id.ID, mark string, weight types.Weight) error
}

// CompletionAuditor records an immutable snapshot of a completed BOL.
type CompletionAuditor interface {
	RecordCompletion(ctx context.Context, b *BOL) error
}

// CompletionInput carries the operator-supplied completion data. Nil fields
// leave the corresponding BOL field as is.
type CompletionInput struct {
	GrossWeight  *types.Weight
	TareWeight   *types.Weight
	WeighInTime  *time.Time
	WeighOutTime *time.Time

	SplitLoad            *bool
	SecondaryRailcarMark *string
	SecondaryGrossWeight *types.Weight
	SecondaryTareWeight  *types.Weight

	RailcarMark           *string
	GroundLotID           *id.ID
	SecondaryGroundLotID  *id.ID
	RailShipmentBolNumber *string

	DriverName     *string
	SignatureImage []byte
	SignedAt       *time.Time
	Comment        *string
}

// Service drives the BOL lifecycle.
type Service struct {
	repo      Repository
	orders    orders.Repository
	ledger    InventoryLedger
	railcars  RailcarGateway
	auditor   CompletionAuditor
	flags     security.FeatureFlagProvider
	numerator *numerator.Service
	txManager tx.Manager
}

// NewService creates the BOL service. The auditor is optional.
func NewService(
	repo Repository,
	orderRepo orders.Repository,
	ledger InventoryLedger,
	railcarGw RailcarGateway,
	auditor CompletionAuditor,
	flags security.FeatureFlagProvider,
	num *numerator.Service,
	txManager tx.Manager,
) *Service {
	return &Service{
		repo:      repo,
		orders:    orderRepo,
		ledger:    ledger,
		railcars:  railcarGw,
		auditor:   auditor,
		flags:     flags,
		numerator: num,
		txManager: txManager,
	}
}

// GetByID retrieves a BOL.
func (s *Service) GetByID(ctx context.Context, bolID id.ID) (*BOL, error) {
	return s.repo.GetByID(ctx, bolID)
}

// List retrieves BOLs by filter.
func (s *Service) List(ctx context.Context, filter Filter) (domain.ListResult[*BOL], error) {
	return s.repo.List(ctx, filter)
}

// Create persists a new BOL. The document may be created in Draft with only
// the minimal fields, or directly as Completed when all completion data is
// present; in the latter case creation runs the full completion flow, so a
// failed completion persists nothing.
func (s *Service) Create(ctx context.Context, b *BOL, input *CompletionInput) (*BOL, error) {
	b.NormalizeSource()
	if b.Status == "" {
		b.Status = StatusDraft
	}
	completeNow := b.Status == StatusCompleted
	b.Status = StatusDraft

	if err := s.normalizeSourceFields(ctx, b); err != nil {
		return nil, err
	}

	if err := b.Validate(ctx); err != nil {
		return nil, err
	}

	if completeNow && input == nil && !b.HasCompletionWeights() {
		return nil, apperror.NewValidation(
			"completion requires gross weight, tare weight and weigh-in/out times")
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if b.Number == "" {
			number, err := s.numerator.GetNextNumber(ctx,
				numerator.DefaultConfig("BOL"), nil, b.Date)
			if err != nil {
				return err
			}
			b.Number = number
		}
		if b.CreatedBy == "" {
			if user := security.GetUser(ctx); user != nil {
				b.CreatedBy = user.Email
			}
		}
		if err := s.repo.Create(ctx, b); err != nil {
			return err
		}

		if completeNow {
			completed, err := s.complete(ctx, b.ID, input)
			if err != nil {
				return err
			}
			*b = *completed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "bol created",
		"bol_id", b.ID, "number", b.Number, "status", b.Status)
	return b, nil
}

// Update patches a Draft BOL. Completed documents are locked.
func (s *Service) Update(ctx context.Context, b *BOL) error {
	current, err := s.repo.GetByID(ctx, b.ID)
	if err != nil {
		return err
	}
	if current.IsCompleted() {
		return apperror.NewBusinessRule(apperror.CodeBolCompleted,
			"completed BOL cannot be modified")
	}

	b.Status = StatusDraft
	b.NormalizeSource()
	if err := s.normalizeSourceFields(ctx, b); err != nil {
		return err
	}
	if err := b.Validate(ctx); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Update(ctx, b)
	})
}

// Delete removes a Draft BOL. Completed documents are locked.
func (s *Service) Delete(ctx context.Context, bolID id.ID) error {
	current, err := s.repo.GetByID(ctx, bolID)
	if err != nil {
		return err
	}
	if current.IsCompleted() {
		return apperror.NewBusinessRule(apperror.CodeBolCompleted,
			"completed BOL cannot be deleted")
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, bolID)
	})
}

// Complete transitions a Draft BOL to Completed.
//
// The sequence is strict: validate and backfill first (no side effects),
// then debit ground inventory, then flip the status under the version check.
// The inventory debit and the status flip are tied together by compensation:
// if the save fails after lots were debited, the debits are restored, so a
// BOL that stays Draft never leaves consumption behind.
func (s *Service) Complete(ctx context.Context, bolID id.ID, input *CompletionInput) (*BOL, error) {
	return s.complete(ctx, bolID, input)
}

func (s *Service) complete(ctx context.Context, bolID id.ID, input *CompletionInput) (*BOL, error) {
	b, err := s.repo.GetByID(ctx, bolID)
	if err != nil {
		return nil, err
	}

	if b.IsCompleted() {
		return nil, apperror.NewBusinessRule(apperror.CodeBolCompleted,
			"BOL is already completed").WithDetail("number", b.Number)
	}

	applyCompletionInput(b, input)
	b.NormalizeSource()
	b.ClearInactiveSourceFields()

	if err := s.backfillFromOrder(ctx, b); err != nil {
		return nil, err
	}
	if err := s.validateCompletion(ctx, b); err != nil {
		return nil, err
	}

	result := s.computeWeights(b)

	if err := s.resolveShipmentNumbers(ctx, b); err != nil {
		return nil, err
	}

	consumed, err := s.consumeGroundInventory(ctx, b)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	b.Status = StatusCompleted
	b.CompletedAt = &now
	if user := security.GetUser(ctx); user != nil {
		b.CompletedBy = user.Email
	}

	if err := s.repo.Update(ctx, b); err != nil {
		s.restoreConsumed(ctx, b, consumed)
		return nil, err
	}

	s.recordAllocations(ctx, b, consumed)
	s.afterCompletion(ctx, b, result)

	logger.Info(ctx, "bol completed",
		"bol_id", b.ID,
		"number", b.Number,
		"source", b.InventorySource,
		"net_weight", b.CombinedNetWeight)

	return b, nil
}

// normalizeSourceFields clears the fields that do not apply to the chosen
// inventory source and backfills the shipment number for railcar loads.
func (s *Service) normalizeSourceFields(ctx context.Context, b *BOL) error {
	b.ClearInactiveSourceFields()

	if b.IsGroundSource() {
		if b.GroundLotID != nil && !id.IsNil(b.MaterialID) {
			if _, err := s.ledger.CheckUsable(ctx, *b.GroundLotID, b.CustomerID, b.MaterialID); err != nil {
				return err
			}
		}
		if b.SplitLoad && b.SecondaryGroundLotID != nil {
			if b.GroundLotID != nil && *b.SecondaryGroundLotID == *b.GroundLotID {
				return apperror.NewValidation("secondary lot must differ from primary lot").
					WithDetail("field", "secondaryGroundLotId")
			}
			if !id.IsNil(b.MaterialID) {
				if _, err := s.ledger.CheckUsable(ctx, *b.SecondaryGroundLotID, b.CustomerID, b.MaterialID); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if b.RailShipmentBolNumber == "" && b.RailcarMark != "" {
		number, err := s.railcars.FindActiveShipmentNumber(ctx, b.CustomerID, b.RailcarMark)
		if err != nil {
			return err
		}
		b.RailShipmentBolNumber = number
	}
	return nil
}

// backfillFromOrder fills missing references from the originating order.
func (s *Service) backfillFromOrder(ctx context.Context, b *BOL) error {
	if b.OrderID == nil || id.IsNil(*b.OrderID) {
		return nil
	}

	needed := id.IsNil(b.CustomerID) || id.IsNil(b.MaterialID) ||
		b.ShipperName == "" || b.ProjectName == "" || b.Date.IsZero()
	if !needed {
		return nil
	}

	order, err := s.orders.GetByID(ctx, *b.OrderID)
	if err != nil {
		return err
	}

	if id.IsNil(b.CustomerID) {
		b.CustomerID = order.CustomerID
	}
	if id.IsNil(b.MaterialID) {
		b.MaterialID = order.MaterialID
	}
	if b.ShipperName == "" {
		b.ShipperName = order.ShipperName
	}
	if b.ReceiverName == "" {
		b.ReceiverName = order.ReceiverName
	}
	if b.ProjectName == "" {
		b.ProjectName = order.ProjectName
	}
	if b.Date.IsZero() {
		b.Date = order.OrderDate
	}
	return nil
}

func (s *Service) validateCompletion(ctx context.Context, b *BOL) error {
	if id.IsNil(b.CustomerID) {
		return apperror.NewValidation("customer is required for completion").
			WithDetail("field", "customerId")
	}
	if id.IsNil(b.MaterialID) {
		return apperror.NewValidation("material is required for completion").
			WithDetail("field", "materialId")
	}
	if b.Date.IsZero() {
		return apperror.NewValidation("BOL date is required for completion").
			WithDetail("field", "date")
	}

	if !b.HasCompletionWeights() {
		return apperror.NewValidation(
			"completion requires gross weight, tare weight and weigh-in/out times")
	}
	if *b.GrossWeight < *b.TareWeight {
		return apperror.NewValidation("gross weight must be at least tare weight").
			WithDetail("grossWeight", b.GrossWeight.String()).
			WithDetail("tareWeight", b.TareWeight.String())
	}
	if b.WeighOutTime.Before(*b.WeighInTime) {
		return apperror.NewValidation("weigh-out time cannot precede weigh-in time")
	}

	if !b.SplitLoad {
		return nil
	}

	// Split-load consistency.
	if b.IsGroundSource() {
		if b.SecondaryGroundLotID == nil || id.IsNil(*b.SecondaryGroundLotID) {
			return apperror.NewValidation("split load requires a secondary lot").
				WithDetail("field", "secondaryGroundLotId")
		}
		if b.GroundLotID != nil && *b.SecondaryGroundLotID == *b.GroundLotID {
			return apperror.NewValidation("secondary lot must differ from primary lot").
				WithDetail("field", "secondaryGroundLotId")
		}
	} else {
		if b.SecondaryRailcarMark == "" {
			return apperror.NewValidation("split load requires a secondary railcar").
				WithDetail("field", "secondaryRailcarMark")
		}
		if b.SecondaryRailcarMark == b.RailcarMark {
			return apperror.NewValidation("secondary railcar must differ from primary railcar").
				WithDetail("field", "secondaryRailcarMark")
		}
	}

	if b.SecondaryGrossWeight == nil {
		return apperror.NewValidation("split load requires a secondary gross weight").
			WithDetail("field", "secondaryGrossWeight")
	}

	// A truck that drops its first load weighs in for the second leg at its
	// loaded weight from the first: absent an explicit secondary tare, the
	// primary gross serves as one.
	if b.SecondaryTareWeight == nil {
		tare := *b.GrossWeight
		b.SecondaryTareWeight = &tare
	}
	if *b.SecondaryGrossWeight < *b.SecondaryTareWeight {
		return apperror.NewValidation("secondary gross weight must be at least secondary tare weight").
			WithDetail("secondaryGrossWeight", b.SecondaryGrossWeight.String()).
			WithDetail("secondaryTareWeight", b.SecondaryTareWeight.String())
	}

	return nil
}

func (s *Service) computeWeights(b *BOL) weigh.LoadResult {
	primary := weigh.Leg{Gross: *b.GrossWeight, Tare: *b.TareWeight}

	var secondary *weigh.Leg
	if b.SplitLoad {
		secondary = &weigh.Leg{Gross: *b.SecondaryGrossWeight, Tare: *b.SecondaryTareWeight}
	}

	result := weigh.Compute(primary, secondary)

	b.NetWeight = result.Primary.Net
	b.TonWeight = result.Primary.Tons
	if result.Secondary != nil {
		b.SecondaryNetWeight = result.Secondary.Net
		b.SecondaryTonWeight = result.Secondary.Tons
	} else {
		b.SecondaryNetWeight = 0
		b.SecondaryTonWeight = types.Weight(0).Tons()
	}
	b.CombinedNetWeight = result.CombinedNet
	b.CombinedTonWeight = result.CombinedTons

	return result
}

func (s *Service) resolveShipmentNumbers(ctx context.Context, b *BOL) error {
	if b.IsGroundSource() {
		b.RailShipmentBolNumber = ""
		b.SecondaryRailShipmentBolNumber = ""
		return nil
	}

	if b.RailShipmentBolNumber == "" {
		number, err := s.railcars.FindActiveShipmentNumber(ctx, b.CustomerID, b.RailcarMark)
		if err != nil {
			return err
		}
		b.RailShipmentBolNumber = number
	}
	if b.SplitLoad && b.SecondaryRailShipmentBolNumber == "" {
		number, err := s.railcars.FindActiveShipmentNumber(ctx, b.CustomerID, b.SecondaryRailcarMark)
		if err != nil {
			return err
		}
		b.SecondaryRailShipmentBolNumber = number
	}
	return nil
}

// consumedLeg remembers one successful debit for compensation.
type consumedLeg struct {
	lotID  id.ID
	weight types.Weight
}

// consumeGroundInventory debits the selected lots for a ground-sourced load.
// The two-lot debit is all-or-nothing from the caller's perspective: when the
// secondary consume fails, the primary debit is restored before returning.
func (s *Service) consumeGroundInventory(ctx context.Context, b *BOL) ([]consumedLeg, error) {
	if !b.IsGroundSource() {
		return nil, nil
	}

	if b.GroundLotID == nil || id.IsNil(*b.GroundLotID) {
		return nil, apperror.NewValidation("ground source requires a lot selection").
			WithDetail("field", "groundLotId")
	}

	primaryWeight := *b.GrossWeight - *b.TareWeight
	var secondaryWeight types.Weight
	if b.SplitLoad {
		secondaryWeight = *b.SecondaryGrossWeight - *b.SecondaryTareWeight
	}

	var consumed []consumedLeg

	primaryRes, err := s.ledger.Consume(ctx, *b.GroundLotID, b.CustomerID, b.MaterialID, primaryWeight)
	if err != nil {
		return nil, err
	}
	if primaryRes.ConsumedWeight.IsPositive() {
		consumed = append(consumed, consumedLeg{lotID: *b.GroundLotID, weight: primaryRes.ConsumedWeight})
	}
	b.AllocatedPrimaryWeight = primaryWeight

	if b.SplitLoad {
		secondaryRes, err := s.ledger.Consume(ctx, *b.SecondaryGroundLotID, b.CustomerID, b.MaterialID, secondaryWeight)
		if err != nil {
			s.restoreConsumed(ctx, b, consumed)
			return nil, err
		}
		if secondaryRes.ConsumedWeight.IsPositive() {
			consumed = append(consumed, consumedLeg{lotID: *b.SecondaryGroundLotID, weight: secondaryRes.ConsumedWeight})
		}
		b.AllocatedSecondaryWeight = secondaryWeight
	}

	return consumed, nil
}

// restoreConsumed undoes successful debits after a later step failed. A
// failed restore cannot itself be compensated; it is logged for manual
// reconciliation.
func (s *Service) restoreConsumed(ctx context.Context, b *BOL, consumed []consumedLeg) {
	for _, leg := range consumed {
		if err := s.ledger.Restore(ctx, leg.lotID, leg.weight); err != nil {
			logger.Error(ctx, "failed to restore consumed inventory",
				"bol_id", b.ID,
				"lot_id", leg.lotID,
				"weight", leg.weight,
				"error", err)
		}
	}
}

// recordAllocations appends ledger entries after the completed BOL is saved.
// Allocation history is audit data; a failure here leaves the completion in
// place and is only logged.
func (s *Service) recordAllocations(ctx context.Context, b *BOL, consumed []consumedLeg) {
	for _, leg := range consumed {
		bolID := b.ID
		err := s.ledger.RecordAllocation(ctx, &inventory.GroundInventoryAllocation{
			LotID:           leg.lotID,
			BolID:           &bolID,
			CustomerID:      b.CustomerID,
			MaterialID:      b.MaterialID,
			AllocatedWeight: leg.weight,
			AllocationType:  inventory.AllocationBolCompletion,
			CreatedBy:       b.CompletedBy,
		})
		if err != nil {
			logger.Error(ctx, "failed to record allocation",
				"bol_id", b.ID, "lot_id", leg.lotID, "error", err)
		}
	}
}

// afterCompletion performs the best-effort follow-ups that never fail a
// completed BOL: the railcar unload tally and the audit snapshot.
func (s *Service) afterCompletion(ctx context.Context, b *BOL, result weigh.LoadResult) {
	if !b.IsGroundSource() {
		if err := s.railcars.RecordUnloadedByMark(ctx, b.CustomerID, b.RailcarMark, result.Primary.Net); err != nil {
			logger.Warn(ctx, "failed to record unloaded weight",
				"bol_id", b.ID, "mark", b.RailcarMark, "error", err)
		}
		if b.SplitLoad && result.Secondary != nil {
			if err := s.railcars.RecordUnloadedByMark(ctx, b.CustomerID, b.SecondaryRailcarMark, result.Secondary.Net); err != nil {
				logger.Warn(ctx, "failed to record unloaded weight",
					"bol_id", b.ID, "mark", b.SecondaryRailcarMark, "error", err)
			}
		}
	}

	if s.auditor != nil && s.flags.IsEnabled(ctx, security.FlagCompletionAudit) {
		if err := s.auditor.RecordCompletion(ctx, b); err != nil {
			logger.Warn(ctx, "failed to record completion audit snapshot",
				"bol_id", b.ID, "error", err)
		}
	}
}

func applyCompletionInput(b *BOL, input *CompletionInput) {
	if input == nil {
		return
	}

	if input.GrossWeight != nil {
		b.GrossWeight = input.GrossWeight
	}
	if input.TareWeight != nil {
		b.TareWeight = input.TareWeight
	}
	if input.WeighInTime != nil {
		b.WeighInTime = input.WeighInTime
	}
	if input.WeighOutTime != nil {
		b.WeighOutTime = input.WeighOutTime
	}
	if input.SplitLoad != nil {
		b.SplitLoad = *input.SplitLoad
	}
	if input.SecondaryRailcarMark != nil {
		b.SecondaryRailcarMark = *input.SecondaryRailcarMark
	}
	if input.SecondaryGrossWeight != nil {
		b.SecondaryGrossWeight = input.SecondaryGrossWeight
	}
	if input.SecondaryTareWeight != nil {
		b.SecondaryTareWeight = input.SecondaryTareWeight
	}
	if input.RailcarMark != nil {
		b.RailcarMark = *input.RailcarMark
	}
	if input.GroundLotID != nil {
		b.GroundLotID = input.GroundLotID
	}
	if input.SecondaryGroundLotID != nil {
		b.SecondaryGroundLotID = input.SecondaryGroundLotID
	}
	if input.RailShipmentBolNumber != nil {
		b.RailShipmentBolNumber = *input.RailShipmentBolNumber
	}
	if input.DriverName != nil {
		b.DriverName = *input.DriverName
	}
	if input.SignatureImage != nil {
		b.SignatureImage = input.SignatureImage
	}
	if input.SignedAt != nil {
		b.SignedAt = input.SignedAt
	}
	if input.Comment != nil {
		b.Comment = *input.Comment
	}
}
