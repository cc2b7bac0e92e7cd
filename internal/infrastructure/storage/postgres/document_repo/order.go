package document_repo

import (
	"railload/internal/domain/orders"
	"railload/internal/infrastructure/storage/postgres"
)

const orderTable = "doc_orders"

// OrderRepo implements orders.Repository. The transload core only reads
// orders; the booking side owns writes.
type OrderRepo struct {
	*BaseDocumentRepo[*orders.Order]
}

// NewOrderRepo creates a new order repository.
func NewOrderRepo(txManager *postgres.TxManager) *OrderRepo {
	return &OrderRepo{
		BaseDocumentRepo: NewBaseDocumentRepo[*orders.Order](
			txManager,
			orderTable,
			postgres.ExtractDBColumns[orders.Order](),
			func() *orders.Order { return &orders.Order{} },
		),
	}
}
