package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"historicalmap/internal/model"
	"historicalmap/internal/service"
)

type sourceBody struct {
	Name string `json:"name"`
}

type noteBody struct {
	Text string `json:"text"`
}

type saveBody struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// sourceYear reads :source and :year and checks the source exists.
func sourceYear(c *fiber.Ctx, sources service.SourceService) (string, int, error) {
	source := nameParam(c, "source")
	if !sources.HasSource(source) {
		return "", 0, service.ErrSourceNotFound
	}
	year, err := yearParam(c)
	if err != nil {
		return "", 0, err
	}
	return source, year, nil
}

func ListSources(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(sources.Sources())
	}
}

// CreateSource godoc
// @Summary Create an empty edit source
// @Tags sources
// @Accept json
// @Param body body sourceBody true "source name"
// @Success 201
// @Failure 409 {object} errorPayload
// @Router /sources [post]
func CreateSource(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body sourceBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		if body.Name == "" {
			return fail(c, errBadRequest)
		}
		if !sources.AddSource(body.Name) {
			return fail(c, service.ErrSourceExists)
		}
		return c.Status(fiber.StatusCreated).JSON(sourceBody{Name: body.Name})
	}
}

func DeleteSource(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := sources.RemoveSource(nameParam(c, "source")); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SourceYears(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		years, err := sources.Years(nameParam(c, "source"))
		if err != nil {
			return fail(c, err)
		}
		return c.JSON(fiber.Map{
			"years":    years,
			"modified": sources.ModifiedYears(nameParam(c, "source")),
		})
	}
}

func GetSourceYear(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		d, ok := sources.Data(source, year)
		if !ok {
			return fail(c, service.ErrNotFound)
		}
		return c.JSON(fiber.Map{"data": d, "modified": sources.IsModified(source, year)})
	}
}

// PutSourceYear replaces the year with the request body.
func PutSourceYear(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		d := model.NewData(year)
		if err := bind(c, d); err != nil {
			return fail(c, err)
		}
		d.Year = year
		if err := sources.Put(source, d); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// LoadSourceYear godoc
// @Summary Copy a stored year into a source
// @Tags sources
// @Param source path string true "source"
// @Param year path int true "year"
// @Success 200 {object} model.Data
// @Router /sources/{source}/years/{year}/load [post]
func LoadSourceYear(sources service.SourceService, data service.DataManager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		d, err := data.Load(c.UserContext(), year)
		if err != nil {
			return fail(c, err)
		}
		if err := sources.Put(source, d); err != nil {
			return fail(c, err)
		}
		return c.JSON(d)
	}
}

func DeleteSourceYear(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		return edited(c, sources.RemoveYear(source, year))
	}
}

func GetSourceCountry(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		country, ok := sources.Country(source, year, nameParam(c, "name"))
		if !ok {
			return fail(c, service.ErrNotFound)
		}
		return c.JSON(country)
	}
}

// AddSourceCountry adds a country. A body without contour adds an empty border.
func AddSourceCountry(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		var country model.Country
		if err := bind(c, &country); err != nil {
			return fail(c, err)
		}
		if country.Name == "" {
			return fail(c, errBadRequest)
		}
		if country.Contour == nil {
			country.Contour = []model.Coordinate{}
		}
		return edited(c, sources.AddCountry(source, year, country))
	}
}

func RemoveSourceCountry(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		return edited(c, sources.RemoveCountry(source, year, nameParam(c, "name")))
	}
}

func ExtendContour(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		var p model.Coordinate
		if err := bind(c, &p); err != nil {
			return fail(c, err)
		}
		return edited(c, sources.ExtendContour(source, year, nameParam(c, "name"), p))
	}
}

func UpdateContour(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		idx, err := intParam(c, "idx")
		if err != nil {
			return fail(c, err)
		}
		var p model.Coordinate
		if err := bind(c, &p); err != nil {
			return fail(c, err)
		}
		return edited(c, sources.UpdateContour(source, year, nameParam(c, "name"), idx, p))
	}
}

func DeleteFromContour(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		idx, err := intParam(c, "idx")
		if err != nil {
			return fail(c, err)
		}
		return edited(c, sources.DeleteFromContour(source, year, nameParam(c, "name"), idx))
	}
}

func GetSourceCity(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		city, ok := sources.City(source, year, nameParam(c, "name"))
		if !ok {
			return fail(c, service.ErrNotFound)
		}
		return c.JSON(city)
	}
}

func AddSourceCity(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		var city model.City
		if err := bind(c, &city); err != nil {
			return fail(c, err)
		}
		if city.Name == "" {
			return fail(c, errBadRequest)
		}
		return edited(c, sources.AddCity(source, year, city))
	}
}

func RemoveSourceCity(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		return edited(c, sources.RemoveCity(source, year, nameParam(c, "name")))
	}
}

// MoveCity godoc
// @Summary Move a city
// @Description The new coordinate applies to every year of the source containing the city.
// @Tags sources
// @Accept json
// @Param body body model.Coordinate true "coordinate"
// @Success 204
// @Failure 404 {object} errorPayload
// @Router /sources/{source}/years/{year}/cities/{name}/coordinate [put]
func MoveCity(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		var p model.Coordinate
		if err := bind(c, &p); err != nil {
			return fail(c, err)
		}
		return edited(c, sources.UpdateCityCoordinate(source, year, nameParam(c, "name"), p))
	}
}

func GetSourceNote(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		text, ok := sources.Note(source, year)
		if !ok {
			return fail(c, service.ErrNotFound)
		}
		return c.JSON(noteBody{Text: text})
	}
}

func PutSourceNote(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		var body noteBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		return edited(c, sources.AddNote(source, year, body.Text))
	}
}

func RemoveSourceNote(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		return edited(c, sources.RemoveNote(source, year))
	}
}

func RemovedItems(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		d, ok := sources.Removed(source, year)
		if !ok {
			return fail(c, service.ErrNotFound)
		}
		return c.JSON(d)
	}
}

func ClearRemoved(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		source, year, err := sourceYear(c, sources)
		if err != nil {
			return fail(c, err)
		}
		return edited(c, sources.ClearRemoved(source, year))
	}
}

// SaveSource godoc
// @Summary Save a year range of a source to the store
// @Tags sources
// @Accept json
// @Param body body saveBody true "inclusive year range"
// @Success 204
// @Failure 400 {object} errorPayload
// @Failure 409 {object} errorPayload
// @Router /sources/{source}/save [post]
func SaveSource(saver service.SaverService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body saveBody
		if err := bind(c, &body); err != nil {
			return fail(c, err)
		}
		if err := saver.Save(c.UserContext(), nameParam(c, "source"), body.Start, body.End); err != nil {
			return fail(c, err)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func SaveProgress(saver service.SaverService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(saver.Progress())
	}
}

func GetHovered(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := sources.HoveredCoordinate()
		if !ok {
			return c.SendStatus(fiber.StatusNoContent)
		}
		return c.JSON(p)
	}
}

func SetHovered(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var p model.Coordinate
		if err := bind(c, &p); err != nil {
			return fail(c, err)
		}
		sources.SetHoveredCoordinate(p)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ClearHovered(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sources.ClearHoveredCoordinate()
		return c.SendStatus(fiber.StatusNoContent)
	}
}

// NextEvent long-polls for the next source event. It answers 204 when none arrives
// within timeout (default 10s, at most 60s).
func NextEvent(sources service.SourceService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		timeout := 10 * time.Second
		if v := c.Query("timeout"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil || d <= 0 {
				return fail(c, errBadRequest)
			}
			timeout = min(d, time.Minute)
		}
		events, cancel := sources.Subscribe(1)
		defer cancel()

		timer := time.NewTimer(timeout)
		defer timer.Stop()
		select {
		case e := <-events:
			return c.JSON(e)
		case <-timer.C:
			return c.SendStatus(fiber.StatusNoContent)
		case <-c.UserContext().Done():
			return c.SendStatus(fiber.StatusNoContent)
		}
	}
}
