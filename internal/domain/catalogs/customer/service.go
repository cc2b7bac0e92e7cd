package customer

import (
	"context"

	"railload/internal/core/id"
	"railload/internal/core/tx"
	"railload/internal/domain"
	"railload/pkg/numerator"
)

// Service provides business logic for the Customer catalog.
// Uses composition with domain.CatalogService for common CRUD operations.
type Service struct {
	*domain.CatalogService[*Customer]
	repo Repository
}

// NewService creates a new Customer service.
func NewService(repo Repository, txManager tx.Manager, numerator *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Customer]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  numerator,
		EntityName: "customer",
		CodePrefix: "CUST",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// Create generates a code when absent, then delegates.
func (s *Service) Create(ctx context.Context, c *Customer) error {
	if c.Code == "" {
		code, err := s.NextCode(ctx)
		if err != nil {
			return err
		}
		c.Code = code
	}
	return s.CatalogService.Create(ctx, c)
}

// GroundInventoryEnabled reports whether the customer participates in ground
// inventory mode. Missing customers report false rather than an error; release
// conversion treats that the same as opted-out.
func (s *Service) GroundInventoryEnabled(ctx context.Context, customerID id.ID) bool {
	c, err := s.repo.GetByID(ctx, customerID)
	if err != nil {
		return false
	}
	return c.GroundInventoryEnabled
}
