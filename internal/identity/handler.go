package identity

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vendmart/vendmart/internal/vend"
)

// Handler exposes user endpoints.
type Handler struct {
	service *Service
}

// NewHandler builds a user HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type userResponse struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	Deposit   int64  `json:"deposit"`
	CreatedAt string `json:"created_at"`
}

func toResponse(user User) userResponse {
	return userResponse{
		ID:        user.ID,
		Username:  user.Username,
		Role:      string(user.Role),
		Deposit:   user.Balance,
		CreatedAt: user.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// Get returns the user identified in the path. Users may only read their own
// profile.
func (h *Handler) Get(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	id := c.Params("id")
	if id != uid {
		return fiber.NewError(http.StatusForbidden, "Permission denied")
	}
	user, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return mapUserError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(user))
}

type updateRequest struct {
	Role string `json:"role"`
}

// Update changes the caller's role.
func (h *Handler) Update(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	id := c.Params("id")
	if id != uid {
		return fiber.NewError(http.StatusForbidden, "Permission denied")
	}
	var req updateRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.service.UpdateRole(c.UserContext(), id, vend.Role(req.Role))
	if err != nil {
		return mapUserError(err)
	}
	return c.Status(http.StatusOK).JSON(toResponse(user))
}

// Delete removes the caller's account.
func (h *Handler) Delete(c *fiber.Ctx) error {
	uid, _ := c.Locals("user_id").(string)
	id := c.Params("id")
	if id != uid {
		return fiber.NewError(http.StatusForbidden, "Permission denied")
	}
	if err := h.service.Delete(c.UserContext(), id); err != nil {
		return mapUserError(err)
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"message": "User deleted"})
}

func mapUserError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(http.StatusNotFound, "User not found")
	case errors.Is(err, ErrInvalidRole), errors.Is(err, ErrWeakPassword), errors.Is(err, ErrUsernameTaken):
		return fiber.NewError(http.StatusBadRequest, err.Error())
	default:
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
}
