package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/dto"
	"github.com/spec-kit/inventory-service/internal/service"
)

// SuppliersHandler exposes supplier CRUD.
type SuppliersHandler struct {
	suppliers *service.SupplierService
}

// NewSuppliersHandler constructs handler.
func NewSuppliersHandler(suppliers *service.SupplierService) *SuppliersHandler {
	return &SuppliersHandler{suppliers: suppliers}
}

func supplierInput(req dto.SupplierRequest) service.SupplierInput {
	return service.SupplierInput{
		Name:         req.Name,
		ContactName:  req.ContactName,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
	}
}

// Create handles POST /suppliers.
func (h *SuppliersHandler) Create(c *fiber.Ctx) error {
	var req dto.SupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	supplier, err := h.suppliers.Create(c.UserContext(), supplierInput(req))
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewSupplierResponse(supplier))
}

// List handles GET /suppliers.
func (h *SuppliersHandler) List(c *fiber.Ctx) error {
	suppliers, err := h.suppliers.List(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		resp = append(resp, dto.NewSupplierResponse(&suppliers[i]))
	}
	return c.JSON(resp)
}

// Get handles GET /suppliers/:id.
func (h *SuppliersHandler) Get(c *fiber.Ctx) error {
	supplier, err := h.suppliers.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSupplierResponse(supplier))
}

// Update handles PUT /suppliers/:id.
func (h *SuppliersHandler) Update(c *fiber.Ctx) error {
	var req dto.SupplierRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	supplier, err := h.suppliers.Update(c.UserContext(), c.Params("id"), supplierInput(req))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewSupplierResponse(supplier))
}

// Delete handles DELETE /suppliers/:id.
func (h *SuppliersHandler) Delete(c *fiber.Ctx) error {
	if err := h.suppliers.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
