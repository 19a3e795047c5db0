package handler

import (
	"database/sql"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"

	hlog "historicalmap/internal/log"
	"historicalmap/internal/service"
)

// Services bundles what the routes need.
type Services struct {
	Years    service.YearService
	Data     service.DataManager
	Sources  service.SourceService
	Saver    service.SaverService
	Selector service.Selector
	Exchange service.ExchangeService
	Tiles    service.TileService
	Logs     *hlog.Sink

	// ExchangeDir holds the files /export and /import work on.
	ExchangeDir string
}

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
func RegisterRoutes(app *fiber.App, db *sql.DB, svc Services, gatherer prometheus.Gatherer) {
	app.Get("/health", HealthCheck(db))
	app.Get("/healthz", LivenessProbe())
	if gatherer != nil {
		app.Get("/metrics", Metrics(gatherer))
	}

	years := app.Group("/years")
	years.Get("/", StoredYears(svc.Data))
	years.Get("/current", CurrentYear(svc.Years))
	years.Put("/current", SetYear(svc.Years))
	years.Post("/current/forward", StepYear(svc.Years, true))
	years.Post("/current/backward", StepYear(svc.Years, false))
	years.Get("/bounds", YearBounds(svc.Years))

	history := app.Group("/history/:year")
	history.Get("/", GetHistory(svc.Data))
	history.Get("/countries", HistoryCountries(svc.Data))
	history.Get("/countries/:name", HistoryCountry(svc.Data))
	history.Get("/cities", HistoryCities(svc.Data))
	history.Get("/cities/:name", HistoryCity(svc.Data))
	history.Get("/note", HistoryNote(svc.Data))
	app.Get("/cities", AllCities(svc.Data))
	app.Get("/cities/:name", FindCity(svc.Data))
	app.Get("/workload", WorkLoad(svc.Data))

	app.Get("/sources", ListSources(svc.Sources))
	app.Post("/sources", CreateSource(svc.Sources))
	app.Delete("/sources/:source", DeleteSource(svc.Sources))
	app.Get("/sources/:source/years", SourceYears(svc.Sources))
	app.Post("/sources/:source/save", SaveSource(svc.Saver))
	app.Get("/save/progress", SaveProgress(svc.Saver))

	year := app.Group("/sources/:source/years/:year")
	year.Get("/", GetSourceYear(svc.Sources))
	year.Put("/", PutSourceYear(svc.Sources))
	year.Delete("/", DeleteSourceYear(svc.Sources))
	year.Post("/load", LoadSourceYear(svc.Sources, svc.Data))
	year.Post("/countries", AddSourceCountry(svc.Sources))
	year.Get("/countries/:name", GetSourceCountry(svc.Sources))
	year.Delete("/countries/:name", RemoveSourceCountry(svc.Sources))
	year.Post("/countries/:name/contour", ExtendContour(svc.Sources))
	year.Put("/countries/:name/contour/:idx", UpdateContour(svc.Sources))
	year.Delete("/countries/:name/contour/:idx", DeleteFromContour(svc.Sources))
	year.Post("/cities", AddSourceCity(svc.Sources))
	year.Get("/cities/:name", GetSourceCity(svc.Sources))
	year.Delete("/cities/:name", RemoveSourceCity(svc.Sources))
	year.Put("/cities/:name/coordinate", MoveCity(svc.Sources))
	year.Get("/note", GetSourceNote(svc.Sources))
	year.Put("/note", PutSourceNote(svc.Sources))
	year.Delete("/note", RemoveSourceNote(svc.Sources))
	year.Get("/removed", RemovedItems(svc.Sources))
	year.Delete("/removed", ClearRemoved(svc.Sources))

	app.Get("/hovered", GetHovered(svc.Sources))
	app.Put("/hovered", SetHovered(svc.Sources))
	app.Delete("/hovered", ClearHovered(svc.Sources))
	app.Get("/events", NextEvent(svc.Sources))

	sel := app.Group("/selection")
	sel.Get("/", GetSelection(svc.Selector))
	sel.Delete("/", ClearSelection(svc.Selector))
	sel.Delete("/:year", ClearSelection(svc.Selector))
	sel.Post("/:year/countries/:name", Select(svc.Selector, SelectCountry, true))
	sel.Delete("/:year/countries/:name", Select(svc.Selector, SelectCountry, false))
	sel.Post("/:year/cities/:name", Select(svc.Selector, SelectCity, true))
	sel.Delete("/:year/cities/:name", Select(svc.Selector, SelectCity, false))
	sel.Post("/:year/note", Select(svc.Selector, SelectNote, true))
	sel.Delete("/:year/note", Select(svc.Selector, SelectNote, false))

	app.Get("/formats", Formats(svc.Exchange))
	app.Post("/export", Export(svc.Exchange, svc.ExchangeDir))
	app.Post("/import", Import(svc.Exchange, svc.ExchangeDir))
	app.Get("/exchange/progress", ExchangeProgress(svc.Exchange))

	tiles := app.Group("/tiles")
	tiles.Post("/query", QueryTiles(svc.Tiles))
	tiles.Get("/source", GetTileSource(svc.Tiles))
	tiles.Put("/source", SetTileSource(svc.Tiles))
	tiles.Get("/engines", TileEngines(svc.Tiles))
	tiles.Put("/engine", SetTileEngine(svc.Tiles))
	tiles.Get("/:z/:x/:y", TileImage(svc.Tiles))

	app.Get("/logs", Logs(svc.Logs))
	app.Put("/logs/level", SetLogLevel())
}
