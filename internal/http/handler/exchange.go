package handler

import (
	"github.com/gofiber/fiber/v2"

	"historicalmap/internal/exchange"
	"historicalmap/internal/service"
)

// importBody names a file relative to the exchange directory.
type importBody struct {
	File string `json:"file"`
}

func Formats(ex service.ExchangeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(ex.Formats())
	}
}

// Export godoc
// @Summary Export a source to a file
// @Description Only selected items are written; with nothing selected the whole source is.
// @Description file is relative to the exchange directory.
// @Tags exchange
// @Accept json
// @Produce json
// @Param body body service.ExportRequest true "export request"
// @Success 200 {object} map[string]int
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Failure 415 {object} errorPayload
// @Router /export [post]
func Export(ex service.ExchangeService, root string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req service.ExportRequest
		if err := bind(c, &req); err != nil {
			return fail(c, err)
		}
		file, err := exchange.Resolve(root, req.File)
		if err != nil {
			return fail(c, err)
		}
		req.File = file
		n, err := ex.Export(c.UserContext(), req)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{"years": n})
	}
}

// Import godoc
// @Summary Import a file into a new source
// @Tags exchange
// @Accept json
// @Produce json
// @Param body body importBody true "file path"
// @Success 201 {object} service.ImportResult
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 422 {object} errorPayload
// @Router /import [post]
func Import(ex service.ExchangeService, root string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body importBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		file, err := exchange.Resolve(root, body.File)
		if err != nil {
			return fail(c, err)
		}
		res, err := ex.Import(c.UserContext(), file)
		if err != nil {
			return fail(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(res)
	}
}

func ExchangeProgress(ex service.ExchangeService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(ex.Progress())
	}
}
