// Package customer provides the Customer catalog.
// Customers are the railroad's transload accounts; each owns railcars, orders,
// and (optionally) ground inventory lots.
package customer

import (
	"context"
	"regexp"

	"railload/internal/core/apperror"
	"railload/internal/core/entity"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Customer represents a transload account.
type Customer struct {
	entity.Catalog

	// ContactEmail is the primary contact for completed-BOL notifications
	ContactEmail *string `db:"contact_email" json:"contactEmail,omitempty"`

	// Phone is the primary contact phone
	Phone *string `db:"phone" json:"phone,omitempty"`

	// Address is the billing address
	Address *string `db:"address" json:"address,omitempty"`

	// GroundInventoryEnabled opts the customer into ground inventory mode:
	// released railcars convert residual weight into consumable lots, and
	// BOLs may draw from those lots instead of a railcar.
	GroundInventoryEnabled bool `db:"ground_inventory_enabled" json:"groundInventoryEnabled"`
}

// NewCustomer creates a new Customer with required fields.
func NewCustomer(code, name string) *Customer {
	return &Customer{
		Catalog: entity.NewCatalog(code, name),
	}
}

// Validate implements entity.Validatable interface.
func (c *Customer) Validate(ctx context.Context) error {
	if err := c.Catalog.Validate(ctx); err != nil {
		return err
	}

	if c.ContactEmail != nil && *c.ContactEmail != "" && !emailRE.MatchString(*c.ContactEmail) {
		return apperror.NewValidation("invalid contact email").
			WithDetail("field", "contactEmail")
	}

	return nil
}
