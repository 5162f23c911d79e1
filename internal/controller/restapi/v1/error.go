package v1

import (
	"errors"
	"net/http"
	"strings"

	"github.com/CodyMacMLE/ShendereyWebApp-sub002/internal/controller/restapi/v1/response"
	"github.com/CodyMacMLE/ShendereyWebApp-sub002/pkg/types/errs"
	"github.com/gofiber/fiber/v2"
)

func errorResponse(ctx *fiber.Ctx, code int, msg string) error {
	return ctx.Status(code).JSON(response.Error{Success: false, Error: msg})
}

// fail maps err onto the error taxonomy. Server-side failures are logged and
// reported without internals.
func (r *V1) fail(ctx *fiber.Ctx, err error, where string) error {
	code := errorStatus(err)

	if code >= http.StatusInternalServerError {
		r.logger.Error(err, where)
	}

	return errorResponse(ctx, code, errorMessage(code, err))
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, errs.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, errs.ErrRecordNotFound), errors.Is(err, errs.ErrNoNextImage):
		return http.StatusNotFound
	case errors.Is(err, errs.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func errorMessage(code int, err error) string {
	switch code {
	case http.StatusBadRequest:
		return detail(err, errs.ErrValidation)
	case http.StatusNotFound:
		if errors.Is(err, errs.ErrNoNextImage) {
			return errs.ErrNoNextImage.Error()
		}
		return "not found"
	case http.StatusConflict:
		return "record was modified concurrently, retry the request"
	}

	switch {
	case errors.Is(err, errs.ErrStorage):
		return "storage error"
	case errors.Is(err, errs.ErrStore):
		return "database error"
	default:
		return "internal error"
	}
}

// detail strips the "Type - Method:" call-site labels and the sentinel suffix
// from err, leaving the human part.
func detail(err error, sentinel error) string {
	msg := err.Error()

	if i := strings.LastIndex(msg, " - "); i >= 0 {
		if j := strings.Index(msg[i:], ": "); j >= 0 {
			msg = msg[i+j+2:]
		}
	}

	msg = strings.TrimSuffix(msg, ": "+sentinel.Error())
	if msg == "" || msg == sentinel.Error() {
		return sentinel.Error()
	}

	return msg
}
