package material

import (
	"context"

	"railload/internal/core/tx"
	"railload/internal/domain"
	"railload/pkg/numerator"
)

// Service provides business logic for the Material catalog.
type Service struct {
	*domain.CatalogService[*Material]
	repo Repository
}

// NewService creates a new Material service.
func NewService(repo Repository, txManager tx.Manager, numerator *numerator.Service) *Service {
	base := domain.NewCatalogService(domain.CatalogServiceConfig[*Material]{
		Repo:       repo,
		TxManager:  txManager,
		Numerator:  numerator,
		EntityName: "material",
		CodePrefix: "MAT",
	})

	return &Service{
		CatalogService: base,
		repo:           repo,
	}
}

// Create generates a code when absent, then delegates.
func (s *Service) Create(ctx context.Context, m *Material) error {
	if m.Code == "" {
		code, err := s.NextCode(ctx)
		if err != nil {
			return err
		}
		m.Code = code
	}
	return s.CatalogService.Create(ctx, m)
}
