// Package inventory_repo provides the PostgreSQL implementation of the
// ground inventory lot repository.
//
// The consume/restore primitives are single conditional UPDATE statements.
// The database row is the arbiter: of N concurrent consumers only those whose
// guard still matches get a row back, so total consumption can never exceed
// the lot's starting weight.
package inventory_repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/types"
	"railload/internal/domain"
	"railload/internal/domain/inventory"
	"railload/internal/infrastructure/storage/postgres"
)

const (
	lotTable        = "inv_ground_lots"
	allocationTable = "inv_ground_allocations"
)

// LotRepo implements inventory.LotRepository.
type LotRepo struct {
	txManager  *postgres.TxManager
	selectCols []string
}

// NewLotRepo creates a new lot repository.
func NewLotRepo(txManager *postgres.TxManager) *LotRepo {
	return &LotRepo{
		txManager:  txManager,
		selectCols: postgres.ExtractDBColumns[inventory.GroundInventoryLot](),
	}
}

func (r *LotRepo) builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func (r *LotRepo) querier(ctx context.Context) postgres.Querier {
	return r.txManager.GetQuerier(ctx)
}

func (r *LotRepo) baseSelect() squirrel.SelectBuilder {
	return r.builder().
		Select(r.selectCols...).
		From(lotTable)
}

// Create inserts a new lot. A unique index on conversion_token (where
// non-empty) turns racing conversions into a Duplicate error.
func (r *LotRepo) Create(ctx context.Context, lot *inventory.GroundInventoryLot) error {
	data := postgres.StructToMap(lot)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Insert(lotTable).
		SetMap(filteredData)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return apperror.NewDuplicate("lot", "conversion_token", lot.ConversionToken).
				WithCause(err)
		}
		return fmt.Errorf("insert lot: %w", err)
	}

	return nil
}

// GetByID retrieves a lot by ID.
func (r *LotRepo) GetByID(ctx context.Context, lotID id.ID) (*inventory.GroundInventoryLot, error) {
	return r.findOne(ctx, r.baseSelect().Where(squirrel.Eq{"id": lotID}), lotID.String())
}

// FindByConversionToken retrieves the lot created for an idempotency token.
func (r *LotRepo) FindByConversionToken(ctx context.Context, token string) (*inventory.GroundInventoryLot, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"conversion_token": token}).
		Limit(1)
	return r.findOne(ctx, q, token)
}

func (r *LotRepo) findOne(ctx context.Context, q squirrel.SelectBuilder, key string) (*inventory.GroundInventoryLot, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var lot inventory.GroundInventoryLot
	if err := pgxscan.Get(ctx, r.querier(ctx), &lot, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("lot", key)
		}
		return nil, fmt.Errorf("get lot: %w", err)
	}

	return &lot, nil
}

// Update modifies a lot with optimistic locking. remaining_weight and status
// never go through here; manual edits to them happen in the service only
// when the lot has no allocations, and concurrent consumption is excluded by
// the version check.
func (r *LotRepo) Update(ctx context.Context, lot *inventory.GroundInventoryLot) error {
	data := postgres.StructToMap(lot)

	filteredData := make(map[string]any, len(r.selectCols))
	for _, col := range r.selectCols {
		switch col {
		case "id", "created_at", "created_by", "version", "updated_at":
			continue
		}
		if val, ok := data[col]; ok {
			filteredData[col] = val
		}
	}

	q := r.builder().
		Update(lotTable).
		SetMap(filteredData).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": lot.ID}).
		Where(squirrel.Eq{"version": lot.Version}).
		Suffix("RETURNING version")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	var newVersion int
	err = r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&newVersion)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperror.NewConcurrentModification("lot", lot.ID)
	}
	if err != nil {
		return fmt.Errorf("update lot: %w", err)
	}
	lot.SetVersion(newVersion)

	return nil
}

// Delete removes a lot. Allocations cascade at the schema level, and the
// service only permits deletion when none exist.
func (r *LotRepo) Delete(ctx context.Context, lotID id.ID) error {
	q := r.builder().
		Delete(lotTable).
		Where(squirrel.Eq{"id": lotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete lot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lotID.String())
	}

	return nil
}

// List retrieves lots by filter.
func (r *LotRepo) List(ctx context.Context, filter inventory.LotFilter) (domain.ListResult[*inventory.GroundInventoryLot], error) {
	result := domain.ListResult[*inventory.GroundInventoryLot]{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.baseSelect()

	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.SourceType != nil {
		q = q.Where(squirrel.Eq{"source_type": *filter.SourceType})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"source_railcar_mark": pattern},
		})
	}

	countQ := r.builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.querier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count lots: %w", err)
	}

	q = q.OrderBy("created_at DESC")
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	if err := pgxscan.Select(ctx, querier, &result.Items, sql, args...); err != nil {
		return result, fmt.Errorf("list lots: %w", err)
	}

	return result, nil
}

// ConsumeRemaining atomically decrements remaining weight when the guard
// matches: right customer and material, not archived, enough weight left.
func (r *LotRepo) ConsumeRemaining(ctx context.Context, lotID, customerID, materialID id.ID, weight types.Weight) (types.Weight, bool, error) {
	const sql = `
		UPDATE inv_ground_lots
		SET remaining_weight = remaining_weight - $1,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $2
		  AND customer_id = $3
		  AND material_id = $4
		  AND status IN ('available', 'depleted')
		  AND remaining_weight >= $1
		RETURNING remaining_weight`

	var remaining types.Weight
	err := r.querier(ctx).QueryRow(ctx, sql, weight, lotID, customerID, materialID).Scan(&remaining)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("consume lot: %w", err)
	}

	return remaining, true, nil
}

// AddRemaining atomically increments remaining weight and revives a depleted
// lot. Archived lots stay archived; a compensating restore must not resurrect
// a manually closed lot.
func (r *LotRepo) AddRemaining(ctx context.Context, lotID id.ID, weight types.Weight) error {
	const sql = `
		UPDATE inv_ground_lots
		SET remaining_weight = remaining_weight + $1,
		    status = CASE WHEN status = 'depleted' THEN 'available' ELSE status END,
		    version = version + 1,
		    updated_at = NOW()
		WHERE id = $2`

	result, err := r.querier(ctx).Exec(ctx, sql, weight, lotID)
	if err != nil {
		return fmt.Errorf("restore lot: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lotID.String())
	}

	return nil
}

// SetStatus updates only the lot status.
func (r *LotRepo) SetStatus(ctx context.Context, lotID id.ID, status inventory.LotStatus) error {
	q := r.builder().
		Update(lotTable).
		Set("status", status).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": lotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build set status: %w", err)
	}

	result, err := r.querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("set lot status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("lot", lotID.String())
	}

	return nil
}

// CreateAllocation appends one ledger entry.
func (r *LotRepo) CreateAllocation(ctx context.Context, alloc *inventory.GroundInventoryAllocation) error {
	data := postgres.StructToMap(alloc)

	q := r.builder().
		Insert(allocationTable).
		SetMap(data)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert allocation: %w", err)
	}

	if _, err := r.querier(ctx).Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert allocation: %w", err)
	}

	return nil
}

// AllocationsByLot returns ledger entries for a lot, newest first.
func (r *LotRepo) AllocationsByLot(ctx context.Context, lotID id.ID) ([]*inventory.GroundInventoryAllocation, error) {
	q := r.builder().
		Select(postgres.ExtractDBColumns[inventory.GroundInventoryAllocation]()...).
		From(allocationTable).
		Where(squirrel.Eq{"lot_id": lotID}).
		OrderBy("created_at DESC")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var items []*inventory.GroundInventoryAllocation
	if err := pgxscan.Select(ctx, r.querier(ctx), &items, sql, args...); err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}

	return items, nil
}

// CountAllocationsByLot reports how many ledger entries reference a lot.
func (r *LotRepo) CountAllocationsByLot(ctx context.Context, lotID id.ID) (int64, error) {
	q := r.builder().
		Select("COUNT(*)").
		From(allocationTable).
		Where(squirrel.Eq{"lot_id": lotID})

	sql, args, err := q.ToSql()
	if err != nil {
		return 0, fmt.Errorf("build count: %w", err)
	}

	var count int64
	if err := r.querier(ctx).QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count allocations: %w", err)
	}

	return count, nil
}

var _ inventory.LotRepository = (*LotRepo)(nil)
