package handlers

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/api/presenters"
	"Smart-Picking/pkg/handover"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	HandoverHandler interface {
		FindFolder(c *fiber.Ctx) error
		UploadPhoto(c *fiber.Ctx) error
	}

	handoverHandler struct {
		handoverService handover.HandoverService
		validator       *validator.Validate
	}
)

func NewHandoverHandler(handoverService handover.HandoverService, validator *validator.Validate) HandoverHandler {
	return &handoverHandler{
		handoverService: handoverService,
		validator:       validator,
	}
}

func (h *handoverHandler) FindFolder(c *fiber.Ctx) error {
	res, err := h.handoverService.FindFolder(c.Context(), c.Params("order"))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedFindHandover, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessFindHandover)
}

func (h *handoverHandler) UploadPhoto(c *fiber.Ctx) error {
	req := &domain.UploadHandoverRequest{Order: c.Params("order")}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedUploadHandover, err)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	data, err := readFormFile(fh)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	operatorName, _ := c.Locals("operator_name").(string)
	res, err := h.handoverService.UploadPhoto(c.Context(), req.Order, operatorName, data)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedUploadHandover, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessUploadHandover)
}
