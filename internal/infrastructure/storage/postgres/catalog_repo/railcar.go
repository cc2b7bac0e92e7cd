package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"

	"railload/internal/core/apperror"
	"railload/internal/core/id"
	"railload/internal/core/types"
	"railload/internal/domain/railcars"
	"railload/internal/infrastructure/storage/postgres"
)

const railcarTable = "cat_railcars"

// RailcarRepo implements railcars.Repository.
type RailcarRepo struct {
	*BaseCatalogRepo[*railcars.Railcar]
}

// NewRailcarRepo creates a new railcar repository.
func NewRailcarRepo(txManager *postgres.TxManager) *RailcarRepo {
	return &RailcarRepo{
		BaseCatalogRepo: NewBaseCatalogRepo[*railcars.Railcar](
			txManager,
			railcarTable,
			postgres.ExtractDBColumns[railcars.Railcar](),
			func() *railcars.Railcar { return &railcars.Railcar{} },
		),
	}
}

// FindActiveByMark retrieves the active railcar for a customer by reporting
// mark.
func (r *RailcarRepo) FindActiveByMark(ctx context.Context, customerID id.ID, mark string) (*railcars.Railcar, error) {
	q := r.baseSelect().
		Where(squirrel.Eq{"customer_id": customerID}).
		Where(squirrel.Eq{"mark": mark}).
		Where(squirrel.Eq{"status": railcars.StatusActive}).
		Where(squirrel.Eq{"deletion_mark": false}).
		OrderBy("id DESC").
		Limit(1)

	rc, err := r.FindOne(ctx, q)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.NewNotFound("railcar", mark)
		}
		return nil, err
	}
	return rc, nil
}

// AddUnloadedWeight accumulates net weight taken off the car.
func (r *RailcarRepo) AddUnloadedWeight(ctx context.Context, railcarID id.ID, weight types.Weight) error {
	q := r.Builder().
		Update(railcarTable).
		Set("unloaded_weight", squirrel.Expr("unloaded_weight + ?", weight)).
		Set("version", squirrel.Expr("version + 1")).
		Where(squirrel.Eq{"id": railcarID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build add unloaded weight: %w", err)
	}

	result, err := r.Querier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("execute add unloaded weight: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("railcar", railcarID.String())
	}

	return nil
}
