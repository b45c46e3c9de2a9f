package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/vendmart/vendmart/internal/identity"
	"github.com/vendmart/vendmart/internal/vend"
)

// Handler exposes registration and login endpoints.
type Handler struct {
	ids *identity.Service
	svc *Service
}

// NewHandler builds an auth handler.
func NewHandler(ids *identity.Service, svc *Service) *Handler {
	return &Handler{ids: ids, svc: svc}
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// Register creates a user and returns a token so the client can start
// depositing or listing immediately.
func (h *Handler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.ids.Register(c.UserContext(), identity.Credentials{
		Username: req.Username,
		Password: req.Password,
		Role:     vend.Role(req.Role),
	})
	if err != nil {
		if errors.Is(err, identity.ErrUsernameTaken) {
			return fiber.NewError(http.StatusBadRequest, "User already exists")
		}
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, err := h.svc.Issue(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"role":     string(user.Role),
			"deposit":  user.Balance,
		},
		"token":      token.AccessToken,
		"expires_in": token.ExpiresIn,
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login validates credentials and returns an access token.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	user, err := h.ids.Authenticate(c.UserContext(), identity.Credentials{
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "Invalid credentials")
	}
	token, err := h.svc.Issue(user)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{
		"token":      token.AccessToken,
		"expires_in": token.ExpiresIn,
		"user": fiber.Map{
			"id":       user.ID,
			"username": user.Username,
			"role":     string(user.Role),
			"deposit":  user.Balance,
		},
	})
}
