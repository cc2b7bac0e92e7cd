// Package material provides the Material catalog (commodities moved through
// the transload yard: aggregates, lumber, pipe, etc.).
package material

import (
	"context"

	"railload/internal/core/entity"
)

// Material represents a commodity type.
type Material struct {
	entity.Catalog

	// Description is an optional free-form description
	Description *string `db:"description" json:"description,omitempty"`

	// HazmatCode is set for regulated materials
	HazmatCode *string `db:"hazmat_code" json:"hazmatCode,omitempty"`
}

// NewMaterial creates a new Material with required fields.
func NewMaterial(code, name string) *Material {
	return &Material{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (m *Material) Validate(ctx context.Context) error {
	return m.Catalog.Validate(ctx)
}
