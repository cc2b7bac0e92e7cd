package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// NumeratorQuerier adapts the TxManager to the numerator's Querier interface.
// Each call routes through the context so sequence bumps join the caller's
// transaction and roll back with it.
type NumeratorQuerier struct {
	txManager *TxManager
}

// NewNumeratorQuerier creates a querier backed by the transaction manager.
func NewNumeratorQuerier(txManager *TxManager) *NumeratorQuerier {
	return &NumeratorQuerier{txManager: txManager}
}

func (q *NumeratorQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return q.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...)
}
