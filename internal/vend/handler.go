package vend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vendmart/vendmart/internal/notification"
)

// Handler exposes the deposit and purchase endpoints.
type Handler struct {
	engine   *Engine
	notifier notification.Notifier
}

// NewHandler builds the vending HTTP handler.
func NewHandler(engine *Engine, notifier notification.Notifier) *Handler {
	return &Handler{engine: engine, notifier: notifier}
}

type depositRequest struct {
	Amount int64 `json:"amount"`
}

// Deposit adds a coin to the authenticated buyer's balance.
func (h *Handler) Deposit(c *fiber.Ctx) error {
	var req depositRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)

	balance, err := h.engine.Deposit(c.UserContext(), uid, req.Amount)
	if err != nil {
		return mapEngineError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"deposit": balance})
}

// Reset zeroes the authenticated buyer's balance.
func (h *Handler) Reset(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)

	balance, err := h.engine.ResetDeposit(c.UserContext(), uid)
	if err != nil {
		return mapEngineError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"deposit": balance})
}

type buyRequest struct {
	Quantity int64 `json:"quantity"`
}

// Buy purchases the product in the path for the authenticated buyer.
func (h *Handler) Buy(c *fiber.Ctx) error {
	var req buyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	uid, _ := c.Locals("user_id").(string)
	productID := c.Params("productId")

	receipt, err := h.engine.Buy(c.UserContext(), uid, productID, req.Quantity)
	if err != nil {
		return mapEngineError(err)
	}

	if h.notifier != nil {
		_ = h.notifier.Send(c.UserContext(), notification.Message{
			Kind:        notification.KindProductSale,
			Destination: receipt.Product.SellerID,
			Body:        fmt.Sprintf("Sold %d x %s", receipt.Product.Quantity, receipt.Product.Name),
		})
	}

	return c.Status(http.StatusOK).JSON(fiber.Map{
		"message":     "Purchase successful",
		"total_spent": receipt.TotalSpent,
		"deposit":     receipt.Balance,
		"product_purchased": fiber.Map{
			"product_id":       receipt.Product.ID,
			"product_name":     receipt.Product.Name,
			"amount_available": receipt.Product.Remaining,
			"quantity":         receipt.Product.Quantity,
		},
		"change": receipt.Change,
	})
}

func mapEngineError(err error) error {
	switch {
	case errors.Is(err, ErrPermissionDenied):
		return fiber.NewError(http.StatusForbidden, "Permission denied")
	case errors.Is(err, ErrAccountNotFound), errors.Is(err, ErrProductNotFound):
		return fiber.NewError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidDenomination),
		errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrOutOfStock),
		errors.Is(err, ErrInsufficientStock),
		errors.Is(err, ErrInsufficientFunds):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrConflict):
		return fiber.NewError(http.StatusConflict, "conflicting update, retry the request")
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
