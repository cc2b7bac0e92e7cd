package document_repo

import (
	"context"

	"github.com/Masterminds/squirrel"

	"railload/internal/domain"
	"railload/internal/domain/documents/bol"
	"railload/internal/infrastructure/storage/postgres"
)

const bolTable = "doc_bols"

// BolRepo implements bol.Repository.
type BolRepo struct {
	*BaseDocumentRepo[*bol.BOL]
}

// NewBolRepo creates a new BOL repository.
func NewBolRepo(txManager *postgres.TxManager) *BolRepo {
	return &BolRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*bol.BOL](
			txManager,
			bolTable,
			postgres.ExtractDBColumns[bol.BOL](),
			func() *bol.BOL { return &bol.BOL{} },
		),
	}
}

// List retrieves BOLs with domain-specific filtering.
func (r *BolRepo) List(ctx context.Context, filter bol.Filter) (domain.ListResult[*bol.BOL], error) {
	q := r.baseSelect()

	if !filter.IncludeDeleted {
		q = q.Where(squirrel.Eq{"deletion_mark": false})
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"number": pattern},
			squirrel.ILike{"driver_name": pattern},
			squirrel.ILike{"railcar_mark": pattern},
		})
	}
	if filter.CustomerID != nil {
		q = q.Where(squirrel.Eq{"customer_id": *filter.CustomerID})
	}
	if filter.Status != nil {
		q = q.Where(squirrel.Eq{"status": *filter.Status})
	}
	if filter.Source != nil {
		q = q.Where(squirrel.Eq{"inventory_source": *filter.Source})
	}
	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"date": *filter.DateFrom})
	}
	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"date": *filter.DateTo})
	}

	return r.listQuery(ctx, q, filter.ListFilter)
}
