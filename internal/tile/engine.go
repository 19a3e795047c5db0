package tile

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"sort"
	"sync"

	"historicalmap/internal/exchange"
	"historicalmap/internal/model"
)

// Engine turns raw tile bytes into a decoded tile.
type Engine interface {
	Name() string
	Decode(c model.TileCoordinate, raw []byte) (*model.Tile, error)
}

// RasterEngineName is the display name of the raster engine; "raster" is accepted too.
const RasterEngineName = "Raster Tile"

// Raster decodes PNG and JPEG tiles into RGBA pixels.
type Raster struct{}

func (Raster) Name() string { return RasterEngineName }

func (Raster) Decode(c model.TileCoordinate, raw []byte) (*model.Tile, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode tile %d/%d/%d: %w", c.Zoom, c.X, c.Y, err)
	}
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*b.Dx() {
		rgba = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	}
	return &model.Tile{
		Coordinate: c,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Pixels:     rgba.Pix,
		Raw:        raw,
	}, nil
}

// Engines is a name keyed engine registry.
type Engines struct {
	mu      sync.RWMutex
	engines map[string]Engine
	aliases map[string]string
}

// DefaultEngines holds the raster engine under "Raster Tile" and "raster".
func DefaultEngines() *Engines {
	e := &Engines{engines: make(map[string]Engine), aliases: make(map[string]string)}
	e.Register(Raster{}, "raster")
	return e
}

// Register adds engine under its name and the given aliases.
func (e *Engines) Register(engine Engine, aliases ...string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.engines[engine.Name()] = engine
	for _, a := range aliases {
		e.aliases[a] = engine.Name()
	}
}

// Lookup resolves a name or alias. Unknown names are INVALID_PARAM.
func (e *Engines) Lookup(name string) (Engine, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if canonical, ok := e.aliases[name]; ok {
		name = canonical
	}
	engine, ok := e.engines[name]
	if !ok {
		return nil, exchange.Errorf(exchange.CodeInvalidParam, "invalid tile engine %q", name)
	}
	return engine, nil
}

// Names lists engine names without aliases, sorted.
func (e *Engines) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.engines))
	for n := range e.engines {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
