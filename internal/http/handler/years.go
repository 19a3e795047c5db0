package handler

import (
	"github.com/gofiber/fiber/v2"

	"historicalmap/internal/service"
)

type yearBody struct {
	Year int `json:"year"`
}

// CurrentYear godoc
// @Summary Current year
// @Tags years
// @Produce json
// @Success 200 {object} yearBody
// @Router /years/current [get]
func CurrentYear(years service.YearService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(yearBody{Year: years.Year()})
	}
}

// SetYear godoc
// @Summary Jump to a year
// @Description Year 0 does not exist and is mapped to 1.
// @Tags years
// @Accept json
// @Produce json
// @Param body body yearBody true "target year"
// @Success 200 {object} yearBody
// @Failure 400 {object} errorPayload
// @Router /years/current [put]
func SetYear(years service.YearService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body yearBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		y, err := years.Set(body.Year)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(yearBody{Year: y})
	}
}

// StepYear moves one year forward or backward, skipping year 0.
func StepYear(years service.YearService, forward bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		step := years.Backward
		if forward {
			step = years.Forward
		}
		y, err := step()
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(yearBody{Year: y})
	}
}

func YearBounds(years service.YearService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lo, hi := years.Bounds()
		return c.JSON(fiber.Map{"min": lo, "max": hi})
	}
}

// StoredYears godoc
// @Summary Years present in the store
// @Tags years
// @Produce json
// @Success 200 {array} int
// @Router /years [get]
func StoredYears(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		years, err := data.ListYears(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(nonNil(years))
	}
}
