package handlers

import (
	"railload/internal/domain/catalogs/material"
	"railload/internal/infrastructure/http/v1/dto"
)

// MaterialHTTPHandler serves the material catalog.
type MaterialHTTPHandler = CatalogHandler[
	*material.Material,
	dto.CreateMaterialRequest,
	dto.UpdateMaterialRequest,
]

// NewMaterialHandler wires the material service into the generic catalog handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHTTPHandler {
	config := CatalogHandlerConfig[
		*material.Material,
		dto.CreateMaterialRequest,
		dto.UpdateMaterialRequest,
	]{
		Service:    service.CatalogService,
		EntityName: "material",
		CreateFn:   service.Create,

		MapCreateDTO: func(req dto.CreateMaterialRequest) *material.Material {
			return req.ToEntity()
		},
		MapUpdateDTO: func(req dto.UpdateMaterialRequest, existing *material.Material) *material.Material {
			req.Apply(existing)
			return existing
		},
	}

	return NewCatalogHandler(base, config)
}
