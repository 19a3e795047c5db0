package handler

import (
	"github.com/gofiber/fiber/v2"

	"historicalmap/internal/http/middleware"
	"historicalmap/internal/i18n"
	"historicalmap/internal/service"
)

// GetHistory godoc
// @Summary Atlas data of one year
// @Description Served from the year cache. On a miss the load is queued and 202 is returned,
// @Description unless wait=true, which blocks until the year is loaded.
// @Tags history
// @Produce json
// @Param year path int true "year"
// @Param wait query bool false "block until loaded"
// @Success 200 {object} model.Data
// @Success 202 {object} map[string]string
// @Failure 400 {object} errorPayload
// @Failure 503 {object} errorPayload
// @Router /history/{year} [get]
func GetHistory(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearParam(c)
		if err != nil {
			return fail(c, err)
		}
		if c.QueryBool("wait") {
			d, err := data.Load(c.UserContext(), year)
			if err != nil {
				return fail(c, err)
			}
			return c.JSON(d)
		}
		d, ok, err := data.Request(c.UserContext(), year)
		if err != nil {
			return fail(c, err)
		}
		if !ok {
			return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
				"status": i18n.T(middleware.LanguageFromCtx(c), "core.status.pending"),
			})
		}
		return c.JSON(d)
	}
}

func HistoryCountries(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearParam(c)
		if err != nil {
			return fail(c, err)
		}
		names, err := data.LoadCountryList(c.UserContext(), year)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(nonNil(names))
	}
}

func HistoryCities(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearParam(c)
		if err != nil {
			return fail(c, err)
		}
		names, err := data.LoadCityList(c.UserContext(), year)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(nonNil(names))
	}
}

func HistoryNote(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearParam(c)
		if err != nil {
			return fail(c, err)
		}
		note, err := data.LoadNote(c.UserContext(), year)
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(note)
	}
}

func HistoryCountry(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearParam(c)
		if err != nil {
			return fail(c, err)
		}
		country, err := data.LoadCountry(c.UserContext(), year, nameParam(c, "name"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(country)
	}
}

func HistoryCity(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearParam(c)
		if err != nil {
			return fail(c, err)
		}
		city, err := data.LoadCity(c.UserContext(), year, nameParam(c, "name"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(city)
	}
}

// AllCities lists every stored city name across years.
func AllCities(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		names, err := data.LoadAllCityNames(c.UserContext())
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(nonNil(names))
	}
}

// FindCity looks a city up by name in any year.
func FindCity(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		city, err := data.FindCity(c.UserContext(), nameParam(c, "name"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(city)
	}
}

func WorkLoad(data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"workload": data.WorkLoad()})
	}
}
