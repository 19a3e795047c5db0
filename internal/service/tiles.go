package service

import (
	"context"
	"math"
	"sync"

	"historicalmap/internal/exchange"
	"historicalmap/internal/model"
	"historicalmap/internal/tile"
)

// TileQuery is the answer to a viewport query.
type TileQuery struct {
	Zoom  int                `json:"zoom"`
	BBox  model.BoundingBox  `json:"bbox"`
	Tiles []model.PlacedTile `json:"tiles"`
}

// TileService resolves the background tiles of a plot viewport.
type TileService interface {
	// Tiles loads every tile covering the axes. Tiles that cannot be loaded are left out.
	Tiles(ctx context.Context, xAxis, yAxis model.Range, plotSize model.Vec2) (TileQuery, error)
	// Raw returns the encoded image of one tile.
	Raw(ctx context.Context, c model.TileCoordinate) ([]byte, error)
	SetSource(template string) error
	Source() string
	SetEngine(name string) error
	Engine() string
	Engines() []string
	SourceTypes() []string
}

type tileService struct {
	loader  *tile.Loader
	engines *tile.Engines

	mu     sync.Mutex
	source *tile.URLSource
}

func NewTileService(loader *tile.Loader, source *tile.URLSource, engines *tile.Engines) TileService {
	if engines == nil {
		engines = tile.DefaultEngines()
	}
	return &tileService{loader: loader, source: source, engines: engines}
}

func (s *tileService) Tiles(ctx context.Context, xAxis, yAxis model.Range, plotSize model.Vec2) (TileQuery, error) {
	if !validRange(xAxis) || !validRange(yAxis) {
		return TileQuery{}, exchange.Errorf(exchange.CodeInvalidParam, "invalid viewport")
	}
	if !(plotSize.X > 0 && plotSize.X <= tile.MaxPlotSize && plotSize.Y > 0 && plotSize.Y <= tile.MaxPlotSize) {
		return TileQuery{}, exchange.Errorf(exchange.CodeInvalidParam,
			"plot size %gx%g outside (0, %d]", plotSize.X, plotSize.Y, tile.MaxPlotSize)
	}
	w := tile.WindowFor(xAxis, yAxis, plotSize)
	if n := w.Len(); n > tile.MaxWindowTiles {
		return TileQuery{}, exchange.Errorf(exchange.CodeInvalidParam, "viewport needs %d tiles", n)
	}
	loaded := s.loader.LoadAll(ctx, w.Coordinates())
	out := TileQuery{Zoom: w.Zoom, BBox: w.BBox, Tiles: make([]model.PlacedTile, 0, len(loaded))}
	for _, t := range loaded {
		minB, maxB := tile.Place(t.Coordinate)
		out.Tiles = append(out.Tiles, model.PlacedTile{
			Coordinate: t.Coordinate,
			Min:        minB,
			Max:        maxB,
			Width:      t.Width,
			Height:     t.Height,
		})
	}
	return out, nil
}

func validRange(r model.Range) bool {
	for _, v := range []float64{r.Min, r.Max} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return r.Min <= r.Max
}

func (s *tileService) Raw(ctx context.Context, c model.TileCoordinate) ([]byte, error) {
	if c.Zoom < tile.MinZoom || c.Zoom > tile.MaxZoom {
		return nil, exchange.Errorf(exchange.CodeInvalidParam, "zoom %d out of range", c.Zoom)
	}
	limit := 1 << c.Zoom
	if c.X < 0 || c.X >= limit || c.Y < 0 || c.Y >= limit {
		return nil, exchange.Errorf(exchange.CodeInvalidParam, "tile %d/%d/%d out of range", c.Zoom, c.X, c.Y)
	}
	return s.loader.Raw(ctx, c)
}

func (s *tileService) SetSource(template string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.source.WithTemplate(template)
	if err != nil {
		return err
	}
	s.source = next
	s.loader.SetSource(next)
	return nil
}

func (s *tileService) Source() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source.Template()
}

func (s *tileService) SetEngine(name string) error {
	e, err := s.engines.Lookup(name)
	if err != nil {
		return err
	}
	s.loader.SetEngine(e)
	return nil
}

func (s *tileService) Engine() string {
	if e := s.loader.Engine(); e != nil {
		return e.Name()
	}
	return ""
}

func (s *tileService) Engines() []string { return s.engines.Names() }

func (s *tileService) SourceTypes() []string { return tile.SourceTypes() }
