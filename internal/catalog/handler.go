package catalog

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vendmart/vendmart/internal/vend"
)

// Handler exposes product CRUD endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a catalog HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type productRequest struct {
	ProductName     string `json:"product_name"`
	Cost            int64  `json:"cost"`
	AmountAvailable int64  `json:"amount_available"`
}

type productResponse struct {
	ID              string `json:"id"`
	SellerID        string `json:"seller_id"`
	ProductName     string `json:"product_name"`
	Cost            int64  `json:"cost"`
	AmountAvailable int64  `json:"amount_available"`
}

func toResponse(p vend.Product) productResponse {
	return productResponse{
		ID:              p.ID,
		SellerID:        p.SellerID,
		ProductName:     p.Name,
		Cost:            p.Price,
		AmountAvailable: p.Stock,
	}
}

// Create lists a new product owned by the caller.
func (h *Handler) Create(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)
	product, err := h.service.Create(c.UserContext(), uid, Input{
		Name:  req.ProductName,
		Price: req.Cost,
		Stock: req.AmountAvailable,
	})
	if err != nil {
		return mapCatalogError(err)
	}
	return c.Status(http.StatusCreated).JSON(toResponse(product))
}

// List returns the catalog visible to the caller.
func (h *Handler) List(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)
	products, err := h.service.List(c.UserContext(), uid, vend.Role(role))
	if err != nil {
		return mapCatalogError(err)
	}
	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toResponse(p))
	}
	return c.Status(http.StatusOK).JSON(out)
}

// Update modifies a product owned by the caller.
func (h *Handler) Update(c *fiber.Ctx) error {
	var req productRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)
	product, err := h.service.Update(c.UserContext(), uid, c.Params("id"), Input{
		Name:  req.ProductName,
		Price: req.Cost,
		Stock: req.AmountAvailable,
	})
	if err != nil {
		return mapCatalogError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(product))
}

// Delete removes a product owned by the caller.
func (h *Handler) Delete(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	if err := h.service.Delete(c.UserContext(), uid, c.Params("id")); err != nil {
		return mapCatalogError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "Product deleted"})
}

// Purchased lists the authenticated buyer's purchase history.
func (h *Handler) Purchased(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	lines, err := h.service.Purchased(c.UserContext(), uid)
	if err != nil {
		return mapCatalogError(err)
	}
	out := make([]fiber.Map, 0, len(lines))
	for _, line := range lines {
		out = append(out, fiber.Map{
			"product_id":   line.ProductID,
			"product_name": line.ProductName,
			"quantity":     line.Quantity,
			"price":        line.UnitPrice,
			"total_cost":   line.TotalCost,
		})
	}
	return c.Status(http.StatusOK).JSON(out)
}

func mapCatalogError(err error) error {
	switch {
	case errors.Is(err, vend.ErrProductNotFound):
		return fiber.NewError(http.StatusNotFound, "Product not found")
	case errors.Is(err, ErrNotOwner):
		return fiber.NewError(http.StatusForbidden, "Permission denied")
	case errors.Is(err, ErrInvalidProduct):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, vend.ErrConflict):
		return fiber.NewError(http.StatusConflict, "conflicting update, retry the request")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
