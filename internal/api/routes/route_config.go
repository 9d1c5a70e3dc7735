package routes

import (
	"Smart-Picking/internal/api/handlers"
	"Smart-Picking/internal/middleware"
	"Smart-Picking/pkg/jwt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type Config struct {
	App             *fiber.App
	AuthHandler     handlers.AuthHandler
	PickingHandler  handlers.PickingHandler
	CatalogHandler  handlers.CatalogHandler
	LedgerHandler   handlers.LedgerHandler
	HandoverHandler handlers.HandoverHandler
	Middleware      middleware.Middleware
	JWTService      jwt.JWTService
	Metrics         http.Handler
}

func (c *Config) Setup() {
	c.App.Use(c.Middleware.CORSMiddleware())
	c.Auth()
	c.Picking()
	c.Catalog()
	c.Ledger()
	c.Handover()
	c.GuestRoute()
}

func (c *Config) Auth() {
	auth := c.App.Group("/api/v1/auth")
	{
		auth.Post("/login", c.AuthHandler.Login)
		auth.Post("/logout", c.Middleware.AuthMiddleware(c.JWTService), c.AuthHandler.Logout)
	}
}

func (c *Config) Picking() {
	pick := c.App.Group("/api/v1/picking", c.Middleware.AuthMiddleware(c.JWTService))
	pick.Get("/state", c.PickingHandler.GetState)

	// scans
	pick.Post("/order", c.PickingHandler.ScanOrder)
	pick.Post("/product", c.PickingHandler.ScanProduct)
	pick.Post("/location", c.PickingHandler.ScanLocation)
	pick.Post("/quantity", c.PickingHandler.ConfirmQuantity)

	// cart
	pick.Post("/cart/review", c.PickingHandler.ReviewCart)
	pick.Post("/cart/pack", c.PickingHandler.BeginPacking)
	pick.Delete("/cart/:index", c.PickingHandler.RemoveCartItem)

	// evidence
	pick.Post("/photos", c.PickingHandler.CapturePhoto)
	pick.Delete("/photos/:index", c.PickingHandler.RemovePhoto)

	pick.Post("/revert", c.PickingHandler.Revert)
	pick.Post("/reset-item", c.PickingHandler.ResetItem)
	pick.Post("/cancel-order", c.PickingHandler.CancelOrder)
	pick.Post("/commit", c.PickingHandler.Commit)
}

func (c *Config) Catalog() {
	catalog := c.App.Group("/api/v1/catalog", c.Middleware.AuthMiddleware(c.JWTService))
	catalog.Get("/:code", c.CatalogHandler.GetEntry)
	catalog.Post("/import", c.CatalogHandler.Import)
}

func (c *Config) Ledger() {
	ledger := c.App.Group("/api/v1/ledger", c.Middleware.AuthMiddleware(c.JWTService))
	ledger.Get("/:sheet/export", c.LedgerHandler.Export)
}

func (c *Config) Handover() {
	handover := c.App.Group("/api/v1/handover", c.Middleware.AuthMiddleware(c.JWTService))
	handover.Get("/:order", c.HandoverHandler.FindFolder)
	handover.Post("/:order", c.HandoverHandler.UploadPhoto)
}

func (c *Config) GuestRoute() {
	c.App.Get("/api/ping", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": "pong"})
	})
	if c.Metrics != nil {
		c.App.Get("/metrics", adaptor.HTTPHandler(c.Metrics))
	}
}
