package handler

import (
	"github.com/gofiber/fiber/v2"

	"historicalmap/internal/service"
)

// GetSelection returns every selected item grouped by year plus the total quantity.
func GetSelection(sel service.Selector) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"quantity": sel.Quantity(), "years": sel.All()})
	}
}

// SelectionKind names the item type a selection route addresses.
type SelectionKind int

const (
	SelectCountry SelectionKind = iota
	SelectCity
	SelectNote
)

// Select marks (on=true) or unmarks an item of a year.
func Select(sel service.Selector, kind SelectionKind, on bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		year, err := yearParam(c)
		if err != nil {
			return fail(c, err)
		}
		name := nameParam(c, "name")
		switch {
		case kind == SelectCountry && on:
			sel.SelectCountry(year, name)
		case kind == SelectCountry:
			sel.DeselectCountry(year, name)
		case kind == SelectCity && on:
			sel.SelectCity(year, name)
		case kind == SelectCity:
			sel.DeselectCity(year, name)
		case on:
			sel.SelectNote(year)
		default:
			sel.DeselectNote(year)
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func ClearSelection(sel service.Selector) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Params("year") == "" {
			sel.ClearAll()
			return c.SendStatus(fiber.StatusNoContent)
		}
		year, err := yearParam(c)
		if err != nil {
			return fail(c, err)
		}
		sel.Clear(year)
		return c.SendStatus(fiber.StatusNoContent)
	}
}
