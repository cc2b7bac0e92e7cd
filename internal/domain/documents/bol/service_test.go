package bol

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/security"
	"railload/internal/core/types"
	"railload/internal/domain"
	"railload/internal/domain/inventory"
	"railload/internal/domain/orders"
)

// --- fakes ---

type fakeBolRepo struct {
	mu   sync.Mutex
	bols map[id.ID]*BOL

	updateErr error
	creates   int
	updates   int
}

func newFakeBolRepo() *fakeBolRepo {
	return &fakeBolRepo{bols: make(map[id.ID]*BOL)}
}

func (f *fakeBolRepo) Create(ctx context.Context, b *BOL) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	cp := *b
	f.bols[b.ID] = &cp
	return nil
}

func (f *fakeBolRepo) GetByID(ctx context.Context, bolID id.ID) (*BOL, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.bols[bolID]
	if !ok {
		return nil, apperror.NewNotFound("bol", bolID)
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBolRepo) Update(ctx context.Context, b *BOL) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	current, ok := f.bols[b.ID]
	if !ok {
		return nil
	}
	if current.Version != b.Version {
		return apperror.NewConcurrentModification("bol", b.ID)
	}
	f.updates++
	cp := *b
	cp.Version++
	f.bols[b.ID] = &cp
	b.Version = cp.Version
	return nil
}

func (f *fakeBolRepo) Delete(ctx context.Context, bolID id.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.bols, bolID)
	return nil
}

func (f *fakeBolRepo) List(ctx context.Context, filter Filter) (domain.ListResult[*BOL], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res domain.ListResult[*BOL]
	for _, b := range f.bols {
		cp := *b
		res.Items = append(res.Items, &cp)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

// fakeLedger mirrors the inventory ledger's guard semantics in memory.
type fakeLedger struct {
	mu          sync.Mutex
	lots        map[id.ID]*inventory.GroundInventoryLot
	allocations []*inventory.GroundInventoryAllocation

	consumeErrFor map[id.ID]error
	allocErr      error
	restores      []id.ID
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{
		lots:          make(map[id.ID]*inventory.GroundInventoryLot),
		consumeErrFor: make(map[id.ID]error),
	}
}

func (f *fakeLedger) addLot(customerID, materialID id.ID, lbs int64) *inventory.GroundInventoryLot {
	lot := inventory.NewLot(customerID, materialID, inventory.SourceManualAdjustment, types.NewWeightFromPounds(lbs))
	lot.Number = "LOT-2026-00001"
	f.lots[lot.ID] = lot
	return lot
}

func (f *fakeLedger) CheckUsable(ctx context.Context, lotID, customerID, materialID id.ID) (*inventory.GroundInventoryLot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lot, ok := f.lots[lotID]
	if !ok {
		return nil, apperror.NewNotFound("lot", lotID)
	}
	if lot.CustomerID != customerID {
		return nil, apperror.NewScopeMismatch(lot.Number, "customer")
	}
	if lot.MaterialID != materialID {
		return nil, apperror.NewScopeMismatch(lot.Number, "material")
	}
	if lot.Status == inventory.LotArchived {
		return nil, apperror.NewLotUnavailable(lot.Number, "lot is archived")
	}
	if !lot.IsConsumable() {
		return nil, apperror.NewLotUnavailable(lot.Number, "lot is depleted")
	}
	cp := *lot
	return &cp, nil
}

func (f *fakeLedger) Consume(ctx context.Context, lotID, customerID, materialID id.ID, weight types.Weight) (*inventory.ConsumeResult, error) {
	if _, err := f.CheckUsable(ctx, lotID, customerID, materialID); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.consumeErrFor[lotID]; ok {
		return nil, err
	}
	lot := f.lots[lotID]

	if weight.IsZero() {
		cp := *lot
		return &inventory.ConsumeResult{Lot: &cp, RemainingWeight: lot.RemainingWeight}, nil
	}
	if lot.RemainingWeight < weight {
		return nil, apperror.NewInsufficientInventory(
			lot.Number, weight.Float64(), lot.RemainingWeight.Float64())
	}

	lot.RemainingWeight -= weight
	if !lot.RemainingWeight.IsPositive() {
		lot.Status = inventory.LotDepleted
	}
	cp := *lot
	return &inventory.ConsumeResult{Lot: &cp, ConsumedWeight: weight, RemainingWeight: lot.RemainingWeight}, nil
}

func (f *fakeLedger) Restore(ctx context.Context, lotID id.ID, weight types.Weight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lot, ok := f.lots[lotID]
	if !ok {
		return apperror.NewNotFound("lot", lotID)
	}
	lot.RemainingWeight += weight
	if lot.RemainingWeight.IsPositive() {
		lot.Status = inventory.LotAvailable
	}
	f.restores = append(f.restores, lotID)
	return nil
}

func (f *fakeLedger) RecordAllocation(ctx context.Context, alloc *inventory.GroundInventoryAllocation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.allocErr != nil {
		return f.allocErr
	}
	cp := *alloc
	f.allocations = append(f.allocations, &cp)
	return nil
}

type fakeRailcarGateway struct {
	shipments map[string]string
	unloaded  map[string]types.Weight
}

func newFakeRailcarGateway() *fakeRailcarGateway {
	return &fakeRailcarGateway{
		shipments: make(map[string]string),
		unloaded:  make(map[string]types.Weight),
	}
}

func (f *fakeRailcarGateway) FindActiveShipmentNumber(ctx context.Context, customerID id.ID, mark string) (string, error) {
	return f.shipments[mark], nil
}

func (f *fakeRailcarGateway) RecordUnloadedByMark(ctx context.Context, customerID id.ID, mark string, weight types.Weight) error {
	f.unloaded[mark] += weight
	return nil
}

type fakeOrderRepo struct {
	orders map[id.ID]*orders.Order
}

func (f *fakeOrderRepo) GetByID(ctx context.Context, orderID id.ID) (*orders.Order, error) {
	if o, ok := f.orders[orderID]; ok {
		cp := *o
		return &cp, nil
	}
	return nil, apperror.NewNotFound("order", orderID)
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAuditor struct {
	snapshots []id.ID
}

func (f *fakeAuditor) RecordCompletion(ctx context.Context, b *BOL) error {
	f.snapshots = append(f.snapshots, b.ID)
	return nil
}

// --- fixture ---

type fixture struct {
	repo     *fakeBolRepo
	ledger   *fakeLedger
	railcars *fakeRailcarGateway
	orders   *fakeOrderRepo
	auditor  *fakeAuditor
	flags    *security.InMemoryFlags
	svc      *Service

	customerID id.ID
	materialID id.ID
}

func newFixture() *fixture {
	fx := &fixture{
		repo:       newFakeBolRepo(),
		ledger:     newFakeLedger(),
		railcars:   newFakeRailcarGateway(),
		orders:     &fakeOrderRepo{orders: make(map[id.ID]*orders.Order)},
		auditor:    &fakeAuditor{},
		flags:      security.NewInMemoryFlags(),
		customerID: id.New(),
		materialID: id.New(),
	}
	fx.svc = NewService(fx.repo, fx.orders, fx.ledger, fx.railcars, fx.auditor, fx.flags, nil, fakeTxManager{})
	return fx
}

func lbs(v int64) *types.Weight {
	w := types.NewWeightFromPounds(v)
	return &w
}

func (fx *fixture) draftBOL(source InventorySource) *BOL {
	b := NewBOL(fx.customerID)
	b.Number = "BOL-2026-00001"
	b.MaterialID = fx.materialID
	b.InventorySource = source
	b.ShipperName = "Ridgeline Aggregates"
	b.ProjectName = "US-12 overlay"
	now := time.Now().UTC()
	in := now.Add(-30 * time.Minute)
	b.WeighInTime = &in
	b.WeighOutTime = &now
	_ = fx.repo.Create(context.Background(), b)
	return b
}

func groundInput(lotID id.ID, grossLbs, tareLbs int64) *CompletionInput {
	return &CompletionInput{
		GrossWeight: lbs(grossLbs),
		TareWeight:  lbs(tareLbs),
		GroundLotID: &lotID,
	}
}

// --- tests ---

func TestCompleteGroundSingleLot(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 1000)
	b := fx.draftBOL(SourceGround)

	completed, err := fx.svc.Complete(ctx, b.ID, groundInput(lot.ID, 600, 100))
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, completed.Status)
	require.NotNil(t, completed.CompletedAt)
	// The returned document reflects the bumped optimistic-lock version.
	assert.Equal(t, 2, completed.Version)
	assert.Equal(t, types.NewWeightFromPounds(500), completed.NetWeight)
	assert.True(t, decimal.RequireFromString("0.25").Equal(completed.TonWeight),
		"ton weight = %s", completed.TonWeight)
	assert.Equal(t, types.NewWeightFromPounds(500), completed.CombinedNetWeight)
	assert.Equal(t, types.NewWeightFromPounds(500), completed.AllocatedPrimaryWeight)

	assert.Equal(t, types.NewWeightFromPounds(500), fx.ledger.lots[lot.ID].RemainingWeight)
	assert.Equal(t, inventory.LotAvailable, fx.ledger.lots[lot.ID].Status)

	require.Len(t, fx.ledger.allocations, 1)
	alloc := fx.ledger.allocations[0]
	assert.Equal(t, lot.ID, alloc.LotID)
	require.NotNil(t, alloc.BolID)
	assert.Equal(t, b.ID, *alloc.BolID)
	assert.Equal(t, types.NewWeightFromPounds(500), alloc.AllocatedWeight)

	// Ground loads carry no carrier shipment numbers.
	assert.Empty(t, completed.RailShipmentBolNumber)
}

func TestCompleteGroundInsufficientInventory(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 500)
	b := fx.draftBOL(SourceGround)

	_, err := fx.svc.Complete(ctx, b.ID, groundInput(lot.ID, 700, 100))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientInventory))

	assert.Equal(t, types.NewWeightFromPounds(500), fx.ledger.lots[lot.ID].RemainingWeight)
	stored, _ := fx.repo.GetByID(ctx, b.ID)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Empty(t, fx.ledger.allocations)
}

func TestCompleteGroundSplitRollback(t *testing.T) {
	// Secondary consume fails after the primary succeeded: the primary
	// debit must be restored and the BOL stay Draft.
	ctx := context.Background()
	fx := newFixture()
	primary := fx.ledger.addLot(fx.customerID, fx.materialID, 10000)
	secondary := fx.ledger.addLot(fx.customerID, fx.materialID, 100)
	b := fx.draftBOL(SourceGround)

	split := true
	input := groundInput(primary.ID, 5000, 2000)
	input.SplitLoad = &split
	input.SecondaryGroundLotID = &secondary.ID
	input.SecondaryGrossWeight = lbs(7200)
	input.SecondaryTareWeight = lbs(5000)

	_, err := fx.svc.Complete(ctx, b.ID, input)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeInsufficientInventory))

	assert.Equal(t, types.NewWeightFromPounds(10000), fx.ledger.lots[primary.ID].RemainingWeight)
	assert.Equal(t, types.NewWeightFromPounds(100), fx.ledger.lots[secondary.ID].RemainingWeight)
	assert.Equal(t, []id.ID{primary.ID}, fx.ledger.restores)

	stored, _ := fx.repo.GetByID(ctx, b.ID)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Empty(t, fx.ledger.allocations)
}

func TestCompleteGroundSplitSuccess(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	primary := fx.ledger.addLot(fx.customerID, fx.materialID, 10000)
	secondary := fx.ledger.addLot(fx.customerID, fx.materialID, 10000)
	b := fx.draftBOL(SourceGround)

	split := true
	input := groundInput(primary.ID, 5000, 2000)
	input.SplitLoad = &split
	input.SecondaryGroundLotID = &secondary.ID
	input.SecondaryGrossWeight = lbs(7200)
	input.SecondaryTareWeight = lbs(5000)

	completed, err := fx.svc.Complete(ctx, b.ID, input)
	require.NoError(t, err)

	assert.Equal(t, types.NewWeightFromPounds(3000), completed.NetWeight)
	assert.Equal(t, types.NewWeightFromPounds(2200), completed.SecondaryNetWeight)
	assert.Equal(t, types.NewWeightFromPounds(5200), completed.CombinedNetWeight)
	assert.True(t, decimal.RequireFromString("2.6").Equal(completed.CombinedTonWeight),
		"combined tons = %s", completed.CombinedTonWeight)

	assert.Equal(t, types.NewWeightFromPounds(7000), fx.ledger.lots[primary.ID].RemainingWeight)
	assert.Equal(t, types.NewWeightFromPounds(7800), fx.ledger.lots[secondary.ID].RemainingWeight)
	require.Len(t, fx.ledger.allocations, 2)
}

func TestCompleteSplitFlippedOffDropsSecondary(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	primary := fx.ledger.addLot(fx.customerID, fx.materialID, 10000)
	secondary := fx.ledger.addLot(fx.customerID, fx.materialID, 10000)
	b := fx.draftBOL(SourceGround)

	// The draft carries split fields from an earlier edit.
	b.SplitLoad = true
	b.GroundLotID = &primary.ID
	b.SecondaryGroundLotID = &secondary.ID
	b.SecondaryGrossWeight = lbs(7200)
	b.SecondaryTareWeight = lbs(5000)
	require.NoError(t, fx.repo.Update(ctx, b))

	split := false
	input := groundInput(primary.ID, 5000, 2000)
	input.SplitLoad = &split

	completed, err := fx.svc.Complete(ctx, b.ID, input)
	require.NoError(t, err)

	assert.False(t, completed.SplitLoad)
	assert.Nil(t, completed.SecondaryGroundLotID)
	assert.Nil(t, completed.SecondaryGrossWeight)
	assert.Nil(t, completed.SecondaryTareWeight)
	assert.True(t, completed.SecondaryNetWeight.IsZero())
	assert.True(t, completed.AllocatedSecondaryWeight.IsZero())

	// Only the primary lot is debited.
	assert.Equal(t, types.NewWeightFromPounds(7000), fx.ledger.lots[primary.ID].RemainingWeight)
	assert.Equal(t, types.NewWeightFromPounds(10000), fx.ledger.lots[secondary.ID].RemainingWeight)
	require.Len(t, fx.ledger.allocations, 1)
}

func TestCompleteGroundSameLotTwiceRejected(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 10000)
	b := fx.draftBOL(SourceGround)

	split := true
	input := groundInput(lot.ID, 5000, 2000)
	input.SplitLoad = &split
	input.SecondaryGroundLotID = &lot.ID
	input.SecondaryGrossWeight = lbs(7200)

	_, err := fx.svc.Complete(ctx, b.ID, input)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	assert.Equal(t, types.NewWeightFromPounds(10000), fx.ledger.lots[lot.ID].RemainingWeight)
}

func TestCompleteAlreadyCompleted(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 1000)
	b := fx.draftBOL(SourceGround)

	_, err := fx.svc.Complete(ctx, b.ID, groundInput(lot.ID, 600, 100))
	require.NoError(t, err)
	updatesAfterFirst := fx.repo.updates

	_, err = fx.svc.Complete(ctx, b.ID, groundInput(lot.ID, 600, 100))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBolCompleted))

	assert.Equal(t, updatesAfterFirst, fx.repo.updates)
	assert.Equal(t, types.NewWeightFromPounds(500), fx.ledger.lots[lot.ID].RemainingWeight)
	require.Len(t, fx.ledger.allocations, 1)
}

func TestCompleteSaveFailureRestoresInventory(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 1000)
	b := fx.draftBOL(SourceGround)

	fx.repo.updateErr = apperror.NewConcurrentModification("bol", b.ID)

	_, err := fx.svc.Complete(ctx, b.ID, groundInput(lot.ID, 600, 100))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeConcurrentModification))

	assert.Equal(t, types.NewWeightFromPounds(1000), fx.ledger.lots[lot.ID].RemainingWeight)
	assert.Equal(t, []id.ID{lot.ID}, fx.ledger.restores)
	assert.Empty(t, fx.ledger.allocations)
}

func TestCompleteRailcarSource(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.railcars.shipments["BNSF 467812"] = "RR-88213"
	b := fx.draftBOL(SourceRailcar)

	mark := "BNSF 467812"
	input := &CompletionInput{
		GrossWeight: lbs(48600),
		TareWeight:  lbs(30100),
		RailcarMark: &mark,
	}

	completed, err := fx.svc.Complete(ctx, b.ID, input)
	require.NoError(t, err)

	assert.Equal(t, "RR-88213", completed.RailShipmentBolNumber)
	assert.Equal(t, types.NewWeightFromPounds(18500), completed.NetWeight)
	assert.Nil(t, completed.GroundLotID)
	assert.Equal(t, types.NewWeightFromPounds(18500), fx.railcars.unloaded["BNSF 467812"])
	assert.Empty(t, fx.ledger.allocations)
}

func TestCompleteRailcarSplitTareConvention(t *testing.T) {
	// The secondary leg weighs in at the truck's loaded weight from the
	// first leg, so a missing secondary tare defaults to the primary gross.
	ctx := context.Background()
	fx := newFixture()

	t.Run("secondary gross below primary gross fails validation", func(t *testing.T) {
		b := fx.draftBOL(SourceRailcar)
		mark, secondMark := "BNSF 467812", "UP 220045"
		split := true
		input := &CompletionInput{
			GrossWeight:          lbs(5000),
			TareWeight:           lbs(2000),
			RailcarMark:          &mark,
			SplitLoad:            &split,
			SecondaryRailcarMark: &secondMark,
			SecondaryGrossWeight: lbs(4800),
		}

		_, err := fx.svc.Complete(ctx, b.ID, input)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))

		stored, _ := fx.repo.GetByID(ctx, b.ID)
		assert.Equal(t, StatusDraft, stored.Status)
	})

	t.Run("defaulted tare yields secondary net", func(t *testing.T) {
		b := fx.draftBOL(SourceRailcar)
		mark, secondMark := "BNSF 467812", "UP 220045"
		split := true
		input := &CompletionInput{
			GrossWeight:          lbs(5000),
			TareWeight:           lbs(2000),
			RailcarMark:          &mark,
			SplitLoad:            &split,
			SecondaryRailcarMark: &secondMark,
			SecondaryGrossWeight: lbs(7200),
		}

		completed, err := fx.svc.Complete(ctx, b.ID, input)
		require.NoError(t, err)
		require.NotNil(t, completed.SecondaryTareWeight)
		assert.Equal(t, types.NewWeightFromPounds(5000), *completed.SecondaryTareWeight)
		assert.Equal(t, types.NewWeightFromPounds(2200), completed.SecondaryNetWeight)
		assert.Equal(t, types.NewWeightFromPounds(5200), completed.CombinedNetWeight)
	})
}

func TestCompleteBackfillsFromOrder(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	order := &orders.Order{
		CustomerID:   fx.customerID,
		MaterialID:   fx.materialID,
		ShipperName:  "Ridgeline Aggregates",
		ReceiverName: "Cascade Paving",
		ProjectName:  "US-12 overlay",
		OrderDate:    time.Date(2026, 8, 12, 0, 0, 0, 0, time.UTC),
	}
	order.ID = id.New()
	fx.orders.orders[order.ID] = order

	b := NewBOL(fx.customerID)
	b.Number = "BOL-2026-00007"
	b.OrderID = &order.ID
	b.MaterialID = id.Nil()
	b.Date = time.Time{}
	now := time.Now().UTC()
	in := now.Add(-20 * time.Minute)
	b.WeighInTime = &in
	b.WeighOutTime = &now
	require.NoError(t, fx.repo.Create(ctx, b))

	input := &CompletionInput{GrossWeight: lbs(40000), TareWeight: lbs(28000)}
	completed, err := fx.svc.Complete(ctx, b.ID, input)
	require.NoError(t, err)

	assert.Equal(t, fx.materialID, completed.MaterialID)
	assert.Equal(t, "Ridgeline Aggregates", completed.ShipperName)
	assert.Equal(t, "Cascade Paving", completed.ReceiverName)
	assert.Equal(t, "US-12 overlay", completed.ProjectName)
	assert.Equal(t, order.OrderDate, completed.Date)
}

func TestCompleteValidation(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	t.Run("gross below tare", func(t *testing.T) {
		b := fx.draftBOL(SourceRailcar)
		_, err := fx.svc.Complete(ctx, b.ID, &CompletionInput{
			GrossWeight: lbs(1000),
			TareWeight:  lbs(2000),
		})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("missing weigh data", func(t *testing.T) {
		b := NewBOL(fx.customerID)
		b.Number = "BOL-2026-00009"
		b.MaterialID = fx.materialID
		require.NoError(t, fx.repo.Create(ctx, b))

		_, err := fx.svc.Complete(ctx, b.ID, nil)
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})

	t.Run("missing bol", func(t *testing.T) {
		_, err := fx.svc.Complete(ctx, id.New(), nil)
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})

	t.Run("ground without lot selection", func(t *testing.T) {
		b := fx.draftBOL(SourceGround)
		_, err := fx.svc.Complete(ctx, b.ID, &CompletionInput{
			GrossWeight: lbs(600),
			TareWeight:  lbs(100),
		})
		require.Error(t, err)
		assert.True(t, apperror.IsCode(err, apperror.CodeValidation))
	})
}

func TestUpdateAndDeleteLockedWhenCompleted(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 1000)
	b := fx.draftBOL(SourceGround)

	completed, err := fx.svc.Complete(ctx, b.ID, groundInput(lot.ID, 600, 100))
	require.NoError(t, err)

	err = fx.svc.Update(ctx, completed)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBolCompleted))

	err = fx.svc.Delete(ctx, b.ID)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeBolCompleted))

	stored, err := fx.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, stored.Status)
}

func TestUpdateDraft(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	b := fx.draftBOL(SourceRailcar)

	b.DriverName = "M. Okafor"
	require.NoError(t, fx.svc.Update(ctx, b))

	stored, err := fx.repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "M. Okafor", stored.DriverName)
	assert.Equal(t, StatusDraft, stored.Status)
	assert.Equal(t, 2, stored.Version)
	assert.Equal(t, 2, b.Version)
}

func TestCreateDraft(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()

	b := NewBOL(fx.customerID)
	b.Number = "BOL-2026-00031"
	b.MaterialID = fx.materialID
	b.InventorySource = "GROUND"
	lotID := id.New()
	b.RailShipmentBolNumber = "RR-12345"
	b.GroundLotID = &lotID

	// Unknown lots fail the usability check up front.
	_, err := fx.svc.Create(ctx, b, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsNotFound(err))

	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 1000)
	b.GroundLotID = &lot.ID
	created, err := fx.svc.Create(ctx, b, nil)
	require.NoError(t, err)

	assert.Equal(t, StatusDraft, created.Status)
	assert.Equal(t, SourceGround, created.InventorySource)
	// Ground loads never carry shipment numbers.
	assert.Empty(t, created.RailShipmentBolNumber)
}

func TestDrainedLotRejected(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 500)
	lot.RemainingWeight = 0
	lot.Status = inventory.LotDepleted

	// A drained lot cannot be selected on a draft.
	b := NewBOL(fx.customerID)
	b.Number = "BOL-2026-00040"
	b.MaterialID = fx.materialID
	b.InventorySource = SourceGround
	b.GroundLotID = &lot.ID
	_, err := fx.svc.Create(ctx, b, nil)
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLotUnavailable))

	// Nor completed against.
	draft := fx.draftBOL(SourceGround)
	_, err = fx.svc.Complete(ctx, draft.ID, groundInput(lot.ID, 600, 100))
	require.Error(t, err)
	assert.True(t, apperror.IsCode(err, apperror.CodeLotUnavailable))

	stored, err := fx.repo.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusDraft, stored.Status)
}

func TestAllocationFailureDoesNotUndoCompletion(t *testing.T) {
	// Allocation history is best-effort audit data: a storage error while
	// recording it leaves the completed BOL and the debit in place.
	ctx := context.Background()
	fx := newFixture()
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 1000)
	b := fx.draftBOL(SourceGround)

	fx.ledger.allocErr = apperror.NewDatabase(assert.AnError)

	completed, err := fx.svc.Complete(ctx, b.ID, groundInput(lot.ID, 600, 100))
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, completed.Status)
	assert.Equal(t, types.NewWeightFromPounds(500), fx.ledger.lots[lot.ID].RemainingWeight)
	assert.Empty(t, fx.ledger.allocations)
	assert.Empty(t, fx.ledger.restores)
}

func TestCompletionAuditSnapshot(t *testing.T) {
	ctx := context.Background()
	fx := newFixture()
	fx.flags.SetFlag(security.FlagCompletionAudit, true)
	lot := fx.ledger.addLot(fx.customerID, fx.materialID, 1000)
	b := fx.draftBOL(SourceGround)

	_, err := fx.svc.Complete(ctx, b.ID, groundInput(lot.ID, 600, 100))
	require.NoError(t, err)
	assert.Equal(t, []id.ID{b.ID}, fx.auditor.snapshots)
}
