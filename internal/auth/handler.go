package auth

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/congo-pay/admin_console/internal/operator"
)

// Handler exposes auth endpoints for login/refresh/logout.
type Handler struct {
	operators *operator.Service
	svc       *Service
}

// NewHandler constructs the auth handler.
func NewHandler(operators *operator.Service, svc *Service) *Handler {
	return &Handler{operators: operators, svc: svc}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	OperatorID   string `json:"operator_id"`
	Name         string `json:"name"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Login validates credentials and returns a token pair.
func (h *Handler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	op, err := h.operators.Authenticate(c.UserContext(), operator.Credentials{Email: req.Email, Password: req.Password})
	if err != nil {
		if errors.Is(err, operator.ErrInvalidCredentials) {
			return fiber.NewError(http.StatusUnauthorized, err.Error())
		}
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	pair, err := h.svc.Login(op)
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, err.Error())
	}
	return c.Status(http.StatusOK).JSON(loginResponse{
		OperatorID:   op.ID,
		Name:         op.Name,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresIn:    pair.ExpiresIn,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh issues a new access token using a valid refresh token.
func (h *Handler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	token, exp, err := h.svc.Refresh(c.UserContext(), req.RefreshToken)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"access_token": token, "expires_in": exp})
}

// Logout invalidates the operator's existing tokens. It runs behind JWTAuth.
func (h *Handler) Logout(c *fiber.Ctx) error {
	operatorID, _ := c.Locals("operator_id").(string)
	if operatorID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	if err := h.svc.Logout(c.UserContext(), operatorID); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	return c.Status(http.StatusOK).JSON(fiber.Map{"status": "logged_out"})
}

// Me returns the authenticated operator's profile.
func (h *Handler) Me(c *fiber.Ctx) error {
	operatorID, _ := c.Locals("operator_id").(string)
	if operatorID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	op, err := h.svc.repo.FindByID(c.UserContext(), operatorID)
	if err != nil {
		return fiber.NewError(http.StatusUnauthorized, "operator not found")
	}
	return c.JSON(fiber.Map{
		"operator_id":   op.ID,
		"email":         op.Email,
		"name":          op.Name,
		"token_version": op.TokenVersion,
		"created_at":    op.CreatedAt,
		"last_login":    op.LastLogin,
	})
}
