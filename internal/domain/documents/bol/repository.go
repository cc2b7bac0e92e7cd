package bol

import (
	"context"
	"time"

	"railload/internal/core/id"
	"railload/internal/domain"
)

// Filter narrows BOL listings.
type Filter struct {
	domain.ListFilter

	CustomerID *id.ID
	Status     *Status
	Source     *InventorySource
	DateFrom   *time.Time
	DateTo     *time.Time
}

// Repository defines persistence for BOL documents.
//
// Update uses optimistic locking on the version column and returns
// ConcurrentModification when the stored version moved. The completion
// status flip rides on that check, so two racing completions of the same
// BOL cannot both land.
type Repository interface {
	Create(ctx context.Context, b *BOL) error
	GetByID(ctx context.Context, bolID id.ID) (*BOL, error)
	Update(ctx context.Context, b *BOL) error
	Delete(ctx context.Context, bolID id.ID) error
	List(ctx context.Context, filter Filter) (domain.ListResult[*BOL], error)
}
