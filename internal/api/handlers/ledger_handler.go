package handlers

import (
	"Smart-Picking/domain"
	"Smart-Picking/internal/api/presenters"
	"Smart-Picking/pkg/ledger"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

type (
	LedgerHandler interface {
		Export(c *fiber.Ctx) error
	}

	ledgerHandler struct {
		ledgerService ledger.LedgerService
	}
)

func NewLedgerHandler(ledgerService ledger.LedgerService) LedgerHandler {
	return &ledgerHandler{
		ledgerService: ledgerService,
	}
}

func (h *ledgerHandler) Export(c *fiber.Ctx) error {
	sheet := c.Params("sheet")
	data, err := h.ledgerService.ExportSheet(c.Context(), sheet)
	if err != nil {
		return presenters.ErrorResponse(c, statusFor(err), domain.MessageFailedExportLedger, err)
	}

	c.Set(fiber.HeaderContentType, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", sheet+".xlsx"))
	return c.Status(fiber.StatusOK).Send(data)
}
