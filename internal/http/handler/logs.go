package handler

import (
	"github.com/gofiber/fiber/v2"

	hlog "historicalmap/internal/log"
)

type levelBody struct {
	Level string `json:"level"`
}

// Logs returns the buffered log entries at or above ?level=.
func Logs(sink *hlog.Sink) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if sink == nil {
			return c.JSON([]hlog.Entry{})
		}
		return c.JSON(sink.Entries(c.Query("level")))
	}
}

func SetLogLevel() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body levelBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		if body.Level == "" {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LEVEL")
		}
		if err := hlog.SetLevel(body.Level); err != nil {
			return writeError(c, fiber.StatusBadRequest, "INVALID_LEVEL")
		}
		return c.JSON(levelBody{Level: hlog.Level()})
	}
}
