package handler

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"historicalmap/internal/model"
	"historicalmap/internal/service"
)

type tileQueryBody struct {
	XAxis    model.Range `json:"x_axis"`
	YAxis    model.Range `json:"y_axis"`
	PlotSize model.Vec2  `json:"plot_size"`
}

type templateBody struct {
	Template string `json:"template"`
}

type engineBody struct {
	Name string `json:"name"`
}

// QueryTiles godoc
// @Summary Tiles covering a plot viewport
// @Description Axis ranges are in zoom-0 tile units; tiles that cannot be loaded are left out.
// @Tags tiles
// @Accept json
// @Produce json
// @Param body body tileQueryBody true "viewport"
// @Success 200 {object} service.TileQuery
// @Failure 400 {object} errorPayload
// @Router /tiles/query [post]
func QueryTiles(tiles service.TileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body tileQueryBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		q, err := tiles.Tiles(c.UserContext(), body.XAxis, body.YAxis, body.PlotSize)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(q)
	}
}

// TileImage serves the encoded image of one tile as fetched from the source.
func TileImage(tiles service.TileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		z, err := intParam(c, "z")
		if err != nil {
			return fail(c, err)
		}
		x, err := intParam(c, "x")
		if err != nil {
			return fail(c, err)
		}
		y, err := intParam(c, "y")
		if err != nil {
			return fail(c, err)
		}
		raw, err := tiles.Raw(c.UserContext(), model.TileCoordinate{X: x, Y: y, Zoom: z})
		if err != nil {
			return fail(c, err)
		}
		c.Set(fiber.HeaderContentType, http.DetectContentType(raw))
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
		return c.Send(raw)
	}
}

func GetTileSource(tiles service.TileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"template": tiles.Source(), "types": tiles.SourceTypes()})
	}
}

func SetTileSource(tiles service.TileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body templateBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		if err := tiles.SetSource(body.Template); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func TileEngines(tiles service.TileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"current": tiles.Engine(), "engines": tiles.Engines()})
	}
}

func SetTileEngine(tiles service.TileService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body engineBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		if err := tiles.SetEngine(body.Name); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
