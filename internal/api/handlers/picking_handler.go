package handlers

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/api/presenters"
	"Smart-Picking/pkg/picking"
	"context"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

type (
	PickingHandler interface {
		ScanOrder(c *fiber.Ctx) error
		ScanProduct(c *fiber.Ctx) error
		ScanLocation(c *fiber.Ctx) error
		ConfirmQuantity(c *fiber.Ctx) error
		ReviewCart(c *fiber.Ctx) error
		BeginPacking(c *fiber.Ctx) error
		RemoveCartItem(c *fiber.Ctx) error
		CapturePhoto(c *fiber.Ctx) error
		RemovePhoto(c *fiber.Ctx) error
		Revert(c *fiber.Ctx) error
		ResetItem(c *fiber.Ctx) error
		CancelOrder(c *fiber.Ctx) error
		Commit(c *fiber.Ctx) error
		GetState(c *fiber.Ctx) error
	}

	pickingHandler struct {
		pickingService picking.PickingService
		validator      *validator.Validate
	}

	scanFunc func(ctx context.Context, sessionID string, in picking.ScanInput) (domain.SessionStateResponse, error)
)

func NewPickingHandler(pickingService picking.PickingService, validator *validator.Validate) PickingHandler {
	return &pickingHandler{
		pickingService: pickingService,
		validator:      validator,
	}
}

func (h *pickingHandler) respond(c *fiber.Ctx, res domain.SessionStateResponse, err error, message string) error {
	if err != nil {
		return presenters.FailResponse(c, statusFor(err), domain.MessageInputRejected, err, res)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, message)
}

func (h *pickingHandler) scan(c *fiber.Ctx, fn scanFunc) error {
	req := new(domain.ScanRequest)
	if len(c.Body()) > 0 {
		if err := c.BodyParser(req); err != nil {
			return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
		}
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInputRejected, err)
	}

	fh, err := optionalFile(c, "image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	image, err := readFormFile(fh)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := fn(c.Context(), sessionID(c), picking.ScanInput{Code: req.Code, Image: image})
	return h.respond(c, res, err, domain.MessageSuccessScan)
}

func (h *pickingHandler) ScanOrder(c *fiber.Ctx) error {
	return h.scan(c, h.pickingService.ScanOrder)
}

func (h *pickingHandler) ScanProduct(c *fiber.Ctx) error {
	return h.scan(c, h.pickingService.ScanProduct)
}

func (h *pickingHandler) ScanLocation(c *fiber.Ctx) error {
	return h.scan(c, h.pickingService.ScanLocation)
}

func (h *pickingHandler) ConfirmQuantity(c *fiber.Ctx) error {
	req := new(domain.ConfirmQuantityRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInputRejected, err)
	}

	res, err := h.pickingService.ConfirmQuantity(c.Context(), sessionID(c), req.Quantity)
	return h.respond(c, res, err, domain.MessageSuccessConfirmQty)
}

func (h *pickingHandler) ReviewCart(c *fiber.Ctx) error {
	res, err := h.pickingService.ReviewCart(c.Context(), sessionID(c))
	return h.respond(c, res, err, domain.MessageSuccessGetState)
}

func (h *pickingHandler) BeginPacking(c *fiber.Ctx) error {
	res, err := h.pickingService.BeginPacking(c.Context(), sessionID(c))
	return h.respond(c, res, err, domain.MessageSuccessGetState)
}

func (h *pickingHandler) RemoveCartItem(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInputRejected, domain.ErrCartItemNotFound)
	}
	res, err := h.pickingService.RemoveCartItem(c.Context(), sessionID(c), index)
	return h.respond(c, res, err, domain.MessageSuccessRemoveItem)
}

func (h *pickingHandler) CapturePhoto(c *fiber.Ctx) error {
	fh, err := c.FormFile("image")
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	data, err := readFormFile(fh)
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}

	res, err := h.pickingService.CapturePhoto(c.Context(), sessionID(c), data)
	return h.respond(c, res, err, domain.MessageSuccessCapturePhoto)
}

func (h *pickingHandler) RemovePhoto(c *fiber.Ctx) error {
	index, err := strconv.Atoi(c.Params("index"))
	if err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInputRejected, domain.ErrPhotoNotFound)
	}
	res, err := h.pickingService.RemovePhoto(c.Context(), sessionID(c), index)
	return h.respond(c, res, err, domain.MessageSuccessRemovePhoto)
}

func (h *pickingHandler) Revert(c *fiber.Ctx) error {
	req := new(domain.RevertRequest)
	if err := c.BodyParser(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageFailedBodyRequest, err)
	}
	if err := h.validator.Struct(req); err != nil {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInputRejected, err)
	}
	to, ok := picking.ParseState(req.To)
	if !ok {
		return presenters.ErrorResponse(c, fiber.StatusBadRequest, domain.MessageInputRejected, domain.ErrIllegalTransition)
	}

	res, err := h.pickingService.Revert(c.Context(), sessionID(c), to)
	return h.respond(c, res, err, domain.MessageSuccessRevert)
}

func (h *pickingHandler) ResetItem(c *fiber.Ctx) error {
	res, err := h.pickingService.ResetItem(c.Context(), sessionID(c))
	return h.respond(c, res, err, domain.MessageSuccessReset)
}

func (h *pickingHandler) CancelOrder(c *fiber.Ctx) error {
	res, err := h.pickingService.CancelOrder(c.Context(), sessionID(c))
	return h.respond(c, res, err, domain.MessageSuccessReset)
}

func (h *pickingHandler) Commit(c *fiber.Ctx) error {
	// a dropped connection must not stop a commit halfway through its uploads
	ctx := context.WithoutCancel(c.UserContext())

	res, err := h.pickingService.Commit(ctx, sessionID(c))
	if err != nil {
		return presenters.FailResponse(c, statusFor(err), domain.MessageFailedCommit, err, res)
	}
	if res.Warning != "" {
		return presenters.SuccessResponse(c, res, fiber.StatusAccepted, domain.MessageSuccessCommitWarning)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusCreated, domain.MessageSuccessCommit)
}

func (h *pickingHandler) GetState(c *fiber.Ctx) error {
	res, err := h.pickingService.GetState(c.Context(), sessionID(c))
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedGetState, err)
	}
	return presenters.SuccessResponse(c, res, fiber.StatusOK, domain.MessageSuccessGetState)
}
