package railcars

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/security"
	"railload/internal/core/types"
	"railload/internal/domain"
	"railload/internal/domain/inventory"
)

type fakeRailcarRepo struct {
	mu   sync.Mutex
	cars map[id.ID]*Railcar
}

func newFakeRailcarRepo() *fakeRailcarRepo {
	return &fakeRailcarRepo{cars: make(map[id.ID]*Railcar)}
}

func (f *fakeRailcarRepo) Create(ctx context.Context, rc *Railcar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *rc
	f.cars[rc.ID] = &cp
	return nil
}

func (f *fakeRailcarRepo) GetByID(ctx context.Context, railcarID id.ID) (*Railcar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc, ok := f.cars[railcarID]
	if !ok {
		return nil, apperror.NewNotFound("railcar", railcarID)
	}
	cp := *rc
	return &cp, nil
}

func (f *fakeRailcarRepo) GetByCode(ctx context.Context, code string) (*Railcar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rc := range f.cars {
		if rc.Code == code {
			cp := *rc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("railcar", code)
}

func (f *fakeRailcarRepo) Update(ctx context.Context, rc *Railcar) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.cars[rc.ID]; !ok {
		return apperror.NewNotFound("railcar", rc.ID)
	}
	cp := *rc
	cp.Version++
	f.cars[rc.ID] = &cp
	rc.Version = cp.Version
	return nil
}

func (f *fakeRailcarRepo) SetDeletionMark(ctx context.Context, railcarID id.ID, marked bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc, ok := f.cars[railcarID]
	if !ok {
		return apperror.NewNotFound("railcar", railcarID)
	}
	rc.DeletionMark = marked
	return nil
}

func (f *fakeRailcarRepo) List(ctx context.Context, filter domain.ListFilter) (domain.ListResult[*Railcar], error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var res domain.ListResult[*Railcar]
	for _, rc := range f.cars {
		cp := *rc
		res.Items = append(res.Items, &cp)
	}
	res.TotalCount = int64(len(res.Items))
	return res, nil
}

func (f *fakeRailcarRepo) Exists(ctx context.Context, railcarID id.ID) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.cars[railcarID]
	return ok, nil
}

func (f *fakeRailcarRepo) FindActiveByMark(ctx context.Context, customerID id.ID, mark string) (*Railcar, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rc := range f.cars {
		if rc.CustomerID == customerID && rc.Mark == strings.ToUpper(mark) && rc.Status == StatusActive {
			cp := *rc
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("railcar", mark)
}

func (f *fakeRailcarRepo) AddUnloadedWeight(ctx context.Context, railcarID id.ID, weight types.Weight) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	rc, ok := f.cars[railcarID]
	if !ok {
		return apperror.NewNotFound("railcar", railcarID)
	}
	rc.UnloadedWeight += weight
	return nil
}

type fakeTxManager struct{}

func (fakeTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeGroundMode struct {
	enabled map[id.ID]bool
}

func (f *fakeGroundMode) GroundInventoryEnabled(ctx context.Context, customerID id.ID) bool {
	return f.enabled[customerID]
}

type fakeConverter struct {
	calls    int
	lots     map[string]*inventory.GroundInventoryLot
	failWith error
}

func newFakeConverter() *fakeConverter {
	return &fakeConverter{lots: make(map[string]*inventory.GroundInventoryLot)}
}

func (f *fakeConverter) ConvertRelease(ctx context.Context, input inventory.ReleaseInput) (*inventory.GroundInventoryLot, bool, error) {
	f.calls++
	if f.failWith != nil {
		return nil, false, f.failWith
	}
	token := inventory.ConversionToken(input.CustomerID, input.RailcarID, input.ShipmentBolNumber)
	if lot, ok := f.lots[token]; ok {
		return lot, false, nil
	}
	lot := inventory.NewLot(input.CustomerID, input.MaterialID, inventory.SourceRailcarConversion, input.RemainingWeight)
	lot.ConversionToken = token
	f.lots[token] = lot
	return lot, true, nil
}

type serviceFixture struct {
	repo      *fakeRailcarRepo
	customers *fakeGroundMode
	converter *fakeConverter
	flags     *security.InMemoryFlags
	svc       *Service
}

func newServiceFixture() *serviceFixture {
	fx := &serviceFixture{
		repo:      newFakeRailcarRepo(),
		customers: &fakeGroundMode{enabled: make(map[id.ID]bool)},
		converter: newFakeConverter(),
		flags:     security.NewInMemoryFlags(),
	}
	fx.flags.SetFlag(security.FlagReleaseConversion, true)
	fx.svc = NewService(fx.repo, fx.customers, fx.converter, fx.flags, fakeTxManager{}, nil)
	return fx
}

func (fx *serviceFixture) seedCar(customerID id.ID, mark, shipment string, reportedLbs, unloadedLbs int64, materialID *id.ID) *Railcar {
	rc := NewRailcar(customerID, mark)
	rc.Code = "CAR-" + mark
	rc.ShipmentBolNumber = shipment
	rc.ReportedWeight = types.NewWeightFromPounds(reportedLbs)
	rc.UnloadedWeight = types.NewWeightFromPounds(unloadedLbs)
	rc.MaterialID = materialID
	_ = fx.repo.Create(context.Background(), rc)
	return rc
}

func TestFindActiveShipmentNumber(t *testing.T) {
	ctx := context.Background()
	customerID := id.New()
	materialID := id.New()

	fx := newServiceFixture()
	fx.seedCar(customerID, "BNSF 467812", "RR-88213", 190000, 0, &materialID)

	t.Run("active match returns shipment number", func(t *testing.T) {
		num, err := fx.svc.FindActiveShipmentNumber(ctx, customerID, "BNSF 467812")
		require.NoError(t, err)
		assert.Equal(t, "RR-88213", num)
	})

	t.Run("mark is case insensitive", func(t *testing.T) {
		num, err := fx.svc.FindActiveShipmentNumber(ctx, customerID, "  bnsf 467812 ")
		require.NoError(t, err)
		assert.Equal(t, "RR-88213", num)
	})

	t.Run("no match returns empty without error", func(t *testing.T) {
		num, err := fx.svc.FindActiveShipmentNumber(ctx, customerID, "UP 111111")
		require.NoError(t, err)
		assert.Empty(t, num)
	})

	t.Run("other customer returns empty", func(t *testing.T) {
		num, err := fx.svc.FindActiveShipmentNumber(ctx, id.New(), "BNSF 467812")
		require.NoError(t, err)
		assert.Empty(t, num)
	})

	t.Run("blank inputs return empty", func(t *testing.T) {
		num, err := fx.svc.FindActiveShipmentNumber(ctx, customerID, "   ")
		require.NoError(t, err)
		assert.Empty(t, num)

		num, err = fx.svc.FindActiveShipmentNumber(ctx, id.Nil(), "BNSF 467812")
		require.NoError(t, err)
		assert.Empty(t, num)
	})

	t.Run("released car is not active", func(t *testing.T) {
		released := fx.seedCar(customerID, "CSXT 90001", "RR-55001", 100000, 0, &materialID)
		_, err := fx.svc.ReleaseEmpty(ctx, released.ID)
		require.NoError(t, err)

		num, err := fx.svc.FindActiveShipmentNumber(ctx, customerID, "CSXT 90001")
		require.NoError(t, err)
		assert.Empty(t, num)
	})
}

func TestReleaseEmpty(t *testing.T) {
	ctx := context.Background()

	t.Run("converts residue for ground mode customer", func(t *testing.T) {
		customerID := id.New()
		materialID := id.New()
		fx := newServiceFixture()
		fx.customers.enabled[customerID] = true
		rc := fx.seedCar(customerID, "BNSF 467812", "RR-88213", 190000, 176000, &materialID)

		res, err := fx.svc.ReleaseEmpty(ctx, rc.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusReleased, res.Railcar.Status)
		require.NotNil(t, res.Railcar.ReleasedAt)
		require.NotNil(t, res.Lot)
		assert.True(t, res.LotCreated)
		assert.Equal(t, types.NewWeightFromPounds(14000), res.Lot.StartingWeight)
		assert.Equal(t, 1, fx.converter.calls)
	})

	t.Run("repeat release creates no second lot", func(t *testing.T) {
		customerID := id.New()
		materialID := id.New()
		fx := newServiceFixture()
		fx.customers.enabled[customerID] = true
		rc := fx.seedCar(customerID, "BNSF 467812", "RR-88213", 190000, 176000, &materialID)

		first, err := fx.svc.ReleaseEmpty(ctx, rc.ID)
		require.NoError(t, err)
		require.NotNil(t, first.Lot)

		second, err := fx.svc.ReleaseEmpty(ctx, rc.ID)
		require.NoError(t, err)
		assert.Nil(t, second.Lot)
		assert.Len(t, fx.converter.lots, 1)
	})

	t.Run("customer not in ground mode skips conversion", func(t *testing.T) {
		customerID := id.New()
		materialID := id.New()
		fx := newServiceFixture()
		rc := fx.seedCar(customerID, "BNSF 467812", "RR-88213", 190000, 176000, &materialID)

		res, err := fx.svc.ReleaseEmpty(ctx, rc.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusReleased, res.Railcar.Status)
		assert.Nil(t, res.Lot)
		assert.Zero(t, fx.converter.calls)
	})

	t.Run("no residual weight skips conversion", func(t *testing.T) {
		customerID := id.New()
		materialID := id.New()
		fx := newServiceFixture()
		fx.customers.enabled[customerID] = true
		rc := fx.seedCar(customerID, "BNSF 467812", "RR-88213", 190000, 190000, &materialID)

		res, err := fx.svc.ReleaseEmpty(ctx, rc.ID)
		require.NoError(t, err)
		assert.Nil(t, res.Lot)
		assert.Zero(t, fx.converter.calls)
	})

	t.Run("missing material skips conversion", func(t *testing.T) {
		customerID := id.New()
		fx := newServiceFixture()
		fx.customers.enabled[customerID] = true
		rc := fx.seedCar(customerID, "BNSF 467812", "RR-88213", 190000, 176000, nil)

		res, err := fx.svc.ReleaseEmpty(ctx, rc.ID)
		require.NoError(t, err)
		assert.Equal(t, StatusReleased, res.Railcar.Status)
		assert.Nil(t, res.Lot)
		assert.Zero(t, fx.converter.calls)
	})

	t.Run("feature flag off skips conversion", func(t *testing.T) {
		customerID := id.New()
		materialID := id.New()
		fx := newServiceFixture()
		fx.flags.SetFlag(security.FlagReleaseConversion, false)
		fx.customers.enabled[customerID] = true
		rc := fx.seedCar(customerID, "BNSF 467812", "RR-88213", 190000, 176000, &materialID)

		res, err := fx.svc.ReleaseEmpty(ctx, rc.ID)
		require.NoError(t, err)
		assert.Nil(t, res.Lot)
		assert.Zero(t, fx.converter.calls)
	})

	t.Run("missing railcar", func(t *testing.T) {
		fx := newServiceFixture()
		_, err := fx.svc.ReleaseEmpty(ctx, id.New())
		require.Error(t, err)
		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestRecordUnloadedWeight(t *testing.T) {
	ctx := context.Background()
	customerID := id.New()
	materialID := id.New()

	fx := newServiceFixture()
	rc := fx.seedCar(customerID, "BNSF 467812", "RR-88213", 190000, 0, &materialID)

	require.NoError(t, fx.svc.RecordUnloadedWeight(ctx, rc.ID, types.NewWeightFromPounds(48000)))
	require.NoError(t, fx.svc.RecordUnloadedWeight(ctx, rc.ID, 0))

	stored, err := fx.repo.GetByID(ctx, rc.ID)
	require.NoError(t, err)
	assert.Equal(t, types.NewWeightFromPounds(48000), stored.UnloadedWeight)
	assert.Equal(t, types.NewWeightFromPounds(142000), stored.RemainingWeight())
}
