package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/dto"
	"github.com/spec-kit/inventory-service/internal/service"
)

// CategoriesHandler exposes category CRUD.
type CategoriesHandler struct {
	categories *service.CategoryService
}

// NewCategoriesHandler constructs handler.
func NewCategoriesHandler(categories *service.CategoryService) *CategoriesHandler {
	return &CategoriesHandler{categories: categories}
}

// Create handles POST /categories.
func (h *CategoriesHandler) Create(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	category, err := h.categories.Create(c.UserContext(), service.CategoryInput{Name: req.Name})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(dto.NewCategoryResponse(category))
}

// List handles GET /categories.
func (h *CategoriesHandler) List(c *fiber.Ctx) error {
	categories, err := h.categories.List(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		resp = append(resp, dto.NewCategoryResponse(&categories[i]))
	}
	return c.JSON(resp)
}

// Get handles GET /categories/:id.
func (h *CategoriesHandler) Get(c *fiber.Ctx) error {
	category, err := h.categories.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCategoryResponse(category))
}

// Update handles PUT /categories/:id.
func (h *CategoriesHandler) Update(c *fiber.Ctx) error {
	var req dto.CategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidBody()
	}
	category, err := h.categories.Update(c.UserContext(), c.Params("id"), service.CategoryInput{Name: req.Name})
	if err != nil {
		return err
	}
	return c.JSON(dto.NewCategoryResponse(category))
}

// Delete handles DELETE /categories/:id.
func (h *CategoriesHandler) Delete(c *fiber.Ctx) error {
	if err := h.categories.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
