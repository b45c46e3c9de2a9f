package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vendmart/vendmart/internal/identity"
	"github.com/vendmart/vendmart/internal/middleware"
	"github.com/vendmart/vendmart/internal/vend"
)

// RegisterUserRoutes wires user CRUD and the buyer deposit endpoints.
func RegisterUserRoutes(r fiber.Router, users *identity.Handler, vending *vend.Handler) {
	group := r.Group("/users")

	buyerOnly := middleware.RequireRole(string(vend.RoleBuyer))
	group.Post("/deposit", buyerOnly, vending.Deposit)
	group.Post("/deposit/reset", buyerOnly, vending.Reset)

	group.Get("/:id", users.Get)
	group.Put("/:id", users.Update)
	group.Delete("/:id", users.Delete)
}
