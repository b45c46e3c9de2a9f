package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vendmart/vendmart/internal/catalog"
	"github.com/vendmart/vendmart/internal/middleware"
	"github.com/vendmart/vendmart/internal/vend"
)

// RegisterProductRoutes wires catalog CRUD and the purchase endpoint.
func RegisterProductRoutes(r fiber.Router, products *catalog.Handler, vending *vend.Handler) {
	group := r.Group("/products")

	group.Post("/", products.Create)
	group.Get("/", products.List)

	buyerOnly := middleware.RequireRole(string(vend.RoleBuyer))
	group.Get("/purchased", buyerOnly, products.Purchased)
	group.Post("/:productId/buy", buyerOnly, vending.Buy)

	group.Put("/:id", products.Update)
	group.Delete("/:id", products.Delete)
}
