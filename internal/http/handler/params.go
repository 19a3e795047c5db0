package handler

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"historicalmap/internal/service"
)

// apiError is a request error that already knows its status and code.
type apiError struct {
	status int
	code   string
}

func (e *apiError) Error() string { return e.code }

var (
	errBadRequest  = &apiError{status: fiber.StatusBadRequest, code: "BAD_REQUEST"}
	errInvalidYear = &apiError{status: fiber.StatusBadRequest, code: "INVALID_YEAR"}
	errEditFailed  = &apiError{status: fiber.StatusNotFound, code: "EDIT_FAILED"}
)

// yearParam parses and range checks the :year route parameter. There is no year 0.
func yearParam(c *fiber.Ctx) (int, error) {
	return parseYear(c.Params("year"))
}

func parseYear(s string) (int, error) {
	year, err := strconv.Atoi(s)
	if err != nil || year == 0 {
		return 0, errInvalidYear
	}
	if year < service.MinYear || year > service.MaxYear {
		return 0, service.ErrYearOutOfRange
	}
	return year, nil
}

// nameParam returns the unescaped route parameter key.
func nameParam(c *fiber.Ctx, key string) string {
	v := c.Params(key)
	if u, err := url.PathUnescape(v); err == nil {
		return u
	}
	return v
}

func intParam(c *fiber.Ctx, key string) (int, error) {
	v, err := strconv.Atoi(c.Params(key))
	if err != nil {
		return 0, errBadRequest
	}
	return v, nil
}

// bind decodes the JSON body into v.
func bind(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return errBadRequest
	}
	return nil
}

// edited answers an edit operation: 204 when it applied, EDIT_FAILED otherwise.
func edited(c *fiber.Ctx, applied bool) error {
	if !applied {
		return fail(c, errEditFailed)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
