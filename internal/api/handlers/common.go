package handlers

import (
	"Smart-Picking/domain"
	"Smart-Picking/pkg/picking"
	"errors"
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
)

const maxUploadBytes = 12 << 20

var errFileTooLarge = errors.New("uploaded file is too large")

func readFormFile(fh *multipart.FileHeader) ([]byte, error) {
	if fh == nil {
		return nil, nil
	}
	if fh.Size > maxUploadBytes {
		return nil, errFileTooLarge
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxUploadBytes))
}

// optionalFile returns the named multipart file, or nil when the request carries none.
func optionalFile(c *fiber.Ctx, name string) (*multipart.FileHeader, error) {
	if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
		return nil, nil
	}
	fh, err := c.FormFile(name)
	if errors.Is(err, fiber.ErrUnprocessableEntity) || errors.Is(err, multipart.ErrMessageTooLarge) {
		return nil, err
	}
	if err != nil {
		return nil, nil
	}
	return fh, nil
}

func sessionID(c *fiber.Ctx) string {
	id, _ := c.Locals("session_id").(string)
	return id
}

// statusFor maps a service error to the HTTP status the client sees.
func statusFor(err error) int {
	var rej *picking.Rejection
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrNotLoggedIn):
		return fiber.StatusUnauthorized
	case errors.Is(err, domain.ErrSessionBusy), errors.Is(err, domain.ErrCommitPending):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrProvisionFailed), errors.Is(err, domain.ErrUploadFailed):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrSheetNotFound),
		errors.Is(err, domain.ErrDateFolderNotFound), errors.Is(err, domain.ErrOrderFolderNotFound):
		return fiber.StatusNotFound
	case errors.As(err, &rej):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrCartEmpty), errors.Is(err, domain.ErrNoPhotos), errors.Is(err, domain.ErrIllegalTransition):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusBadRequest
	}
}
