package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/inventory-service/internal/api/http/handlers"
	"github.com/spec-kit/inventory-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	BasePath       string
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Products       *handlers.ProductsHandler
	Categories     *handlers.CategoriesHandler
	Suppliers      *handlers.SuppliersHandler
	AuthMiddleware *auth.AuthMiddleware
	AuthLimiter    fiber.Handler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/", cfg.Health.Root)
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/health/metrics", cfg.Health.Metrics)

	api := app.Group(cfg.BasePath)

	authGroup := api.Group("/auth")
	if cfg.AuthLimiter != nil {
		authGroup.Use(cfg.AuthLimiter)
	}
	authGroup.Post("/register", cfg.Auth.Register)
	authGroup.Post("/verify-otp", cfg.Auth.VerifyOTP)
	authGroup.Post("/login", cfg.Auth.Login)

	admin := auth.RequireAdmin()

	products := api.Group("/products", cfg.AuthMiddleware.Handle)
	products.Get("/", cfg.Products.List)
	products.Post("/", admin, cfg.Products.Create)
	products.Get("/:id", cfg.Products.Get)
	products.Put("/:id", admin, cfg.Products.Update)
	products.Delete("/:id", admin, cfg.Products.Delete)

	categories := api.Group("/categories", cfg.AuthMiddleware.Handle)
	categories.Get("/", cfg.Categories.List)
	categories.Post("/", admin, cfg.Categories.Create)
	categories.Get("/:id", cfg.Categories.Get)
	categories.Put("/:id", admin, cfg.Categories.Update)
	categories.Delete("/:id", admin, cfg.Categories.Delete)

	suppliers := api.Group("/suppliers", cfg.AuthMiddleware.Handle, admin)
	suppliers.Get("/", cfg.Suppliers.List)
	suppliers.Post("/", cfg.Suppliers.Create)
	suppliers.Get("/:id", cfg.Suppliers.Get)
	suppliers.Put("/:id", cfg.Suppliers.Update)
	suppliers.Delete("/:id", cfg.Suppliers.Delete)
}
