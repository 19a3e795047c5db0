package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"historicalmap/internal/exchange"
	"historicalmap/internal/http/middleware"
	"historicalmap/internal/i18n"
	hlog "historicalmap/internal/log"
	"historicalmap/internal/service"
	"historicalmap/internal/tile"
	"historicalmap/internal/worker"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response. The message is looked up in the
// error catalog for the request language and never carries internal details.
func writeError(c *fiber.Ctx, status int, code string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: i18n.T(middleware.LanguageFromCtx(c), "error."+code),
		},
	}
	return c.Status(status).JSON(res)
}

var exchangeStatus = map[exchange.Code]int{
	exchange.CodeFileExists:           fiber.StatusConflict,
	exchange.CodeFileNotExists:        fiber.StatusNotFound,
	exchange.CodeParseFileError:       fiber.StatusUnprocessableEntity,
	exchange.CodeFileFormatNotSupport: fiber.StatusUnsupportedMediaType,
	exchange.CodeFileEmpty:            fiber.StatusUnprocessableEntity,
	exchange.CodeInvalidParam:         fiber.StatusBadRequest,
	exchange.CodeNetworkError:         fiber.StatusBadGateway,
}

// fail maps a service error onto the error envelope.
func fail(c *fiber.Ctx, err error) error {
	var (
		aerr *apiError
		xerr *exchange.Error
	)
	switch {
	case errors.As(err, &aerr):
		return writeError(c, aerr.status, aerr.code)
	case errors.As(err, &xerr):
		status, ok := exchangeStatus[xerr.Code]
		if !ok {
			status = fiber.StatusInternalServerError
		}
		return writeError(c, status, string(xerr.Code))
	case errors.Is(err, service.ErrYearOutOfRange):
		return writeError(c, fiber.StatusBadRequest, "YEAR_OUT_OF_RANGE")
	case errors.Is(err, service.ErrInvalidRange):
		return writeError(c, fiber.StatusBadRequest, "INVALID_RANGE")
	case errors.Is(err, service.ErrSourceExists):
		return writeError(c, fiber.StatusConflict, "SOURCE_EXISTS")
	case errors.Is(err, service.ErrSourceNotFound):
		return writeError(c, fiber.StatusNotFound, "SOURCE_NOT_FOUND")
	case errors.Is(err, service.ErrPermanentSource):
		return writeError(c, fiber.StatusConflict, "SOURCE_PERMANENT")
	case errors.Is(err, service.ErrSaveInProgress):
		return writeError(c, fiber.StatusConflict, "SAVE_IN_PROGRESS")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND")
	case errors.Is(err, worker.ErrQueueFull):
		return writeError(c, fiber.StatusServiceUnavailable, "QUEUE_FULL")
	case errors.Is(err, worker.ErrStopped), errors.Is(err, tile.ErrNoSource):
		return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE")
	default:
		logger := hlog.WithComponent("http")
		logger.Error().Err(err).
			Str("request_id", requestIDFromCtx(c)).
			Str("path", c.Path()).
			Msg("request failed")
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR")
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED")
		default:
			return writeError(c, status, "INTERNAL_ERROR")
		}
	}
}
