package dto

import (
	"railload/internal/domain/catalogs/customer"
	"railload/internal/domain/catalogs/material"
)

// --- Customers ---

// CreateCustomerRequest for creating customer accounts.
type CreateCustomerRequest struct {
	Code                   string  `json:"code"`
	Name                   string  `json:"name" binding:"required"`
	ContactEmail           *string `json:"contactEmail"`
	Phone                  *string `json:"phone"`
	Address                *string `json:"address"`
	GroundInventoryEnabled bool    `json:"groundInventoryEnabled"`
}

// ToEntity builds a customer from the request.
func (r CreateCustomerRequest) ToEntity() *customer.Customer {
	c := customer.NewCustomer(r.Code, r.Name)
	c.ContactEmail = r.ContactEmail
	c.Phone = r.Phone
	c.Address = r.Address
	c.GroundInventoryEnabled = r.GroundInventoryEnabled
	return c
}

// UpdateCustomerRequest for editing customer accounts.
type UpdateCustomerRequest struct {
	Code                   *string `json:"code"`
	Name                   *string `json:"name"`
	ContactEmail           *string `json:"contactEmail"`
	Phone                  *string `json:"phone"`
	Address                *string `json:"address"`
	GroundInventoryEnabled *bool   `json:"groundInventoryEnabled"`
	Version                int     `json:"version" binding:"required,min=1"`
}

// Apply copies non-nil fields onto the customer.
func (r UpdateCustomerRequest) Apply(c *customer.Customer) {
	if r.Code != nil {
		c.Code = *r.Code
	}
	if r.Name != nil {
		c.Name = *r.Name
	}
	if r.ContactEmail != nil {
		c.ContactEmail = r.ContactEmail
	}
	if r.Phone != nil {
		c.Phone = r.Phone
	}
	if r.Address != nil {
		c.Address = r.Address
	}
	if r.GroundInventoryEnabled != nil {
		c.GroundInventoryEnabled = *r.GroundInventoryEnabled
	}
	c.Version = r.Version
}

// --- Materials ---

// CreateMaterialRequest for creating materials.
type CreateMaterialRequest struct {
	Code        string  `json:"code"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description"`
	HazmatCode  *string `json:"hazmatCode"`
}

// ToEntity builds a material from the request.
func (r CreateMaterialRequest) ToEntity() *material.Material {
	m := material.NewMaterial(r.Code, r.Name)
	m.Description = r.Description
	m.HazmatCode = r.HazmatCode
	return m
}

// UpdateMaterialRequest for editing materials.
type UpdateMaterialRequest struct {
	Code        *string `json:"code"`
	Name        *string `json:"name"`
	Description *string `json:"description"`
	HazmatCode  *string `json:"hazmatCode"`
	Version     int     `json:"version" binding:"required,min=1"`
}

// Apply copies non-nil fields onto the material.
func (r UpdateMaterialRequest) Apply(m *material.Material) {
	if r.Code != nil {
		m.Code = *r.Code
	}
	if r.Name != nil {
		m.Name = *r.Name
	}
	if r.Description != nil {
		m.Description = r.Description
	}
	if r.HazmatCode != nil {
		m.HazmatCode = r.HazmatCode
	}
	m.Version = r.Version
}
