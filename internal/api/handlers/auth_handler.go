package handlers

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/api/presenters"
	"Smart-Picking/pkg/picking"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	AuthHandler interface {
		Login(c *fiber.Ctx) error
		Logout(c *fiber.Ctx) error
	}

	authHandler struct {
		pickingService picking.PickingService
		validator      *validator.Validate
	}
)

func NewAuthHandler(pickingService picking.PickingService, validator *validator.Validate) AuthHandler {
	return &authHandler{
		pickingService: pickingService,
		validator:      validator,
	}
}

func (h *authHandler) Login(c *fiber.Ctx) error {
	req := new(domain.LoginRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedLogin, err)
	}

	fh, err := optionalFile(c, "badge")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	badge, err := readFormFile(fh)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.pickingService.Login(c.Context(), *req, badge)
	if err != nil {
		status := fiber.StatusBadRequest
		if errors.Is(err, domain.ErrOperatorNotFound) || errors.Is(err, domain.ErrOperatorPassword) ||
			errors.Is(err, domain.ErrPasswordRequired) {
			status = fiber.StatusUnauthorized
		}
		return presenters.ErrorResponse(c, status, domain.MessageFailedLogin, err)
	}

	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessLogin)
}

func (h *authHandler) Logout(c *fiber.Ctx) error {
	if err := h.pickingService.Logout(c.Context(), sessionID(c)); err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedLogout, err)
	}
	return presenters.SuccessResponse(c, nil, fiber.StatusOK, domain.MessageSuccessLogout)
}
