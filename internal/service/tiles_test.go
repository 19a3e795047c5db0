package service

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"historicalmap/internal/config"
	"historicalmap/internal/exchange"
	"historicalmap/internal/model"
	"historicalmap/internal/storage"
	"historicalmap/internal/tile"
)

func newTileService(t *testing.T) (TileService, *atomic.Int32) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, tile.Size, tile.Size))
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(buf.Bytes())
	}))
	t.Cleanup(srv.Close)

	source, err := tile.NewURLSource(config.TileConfig{URLTemplate: srv.URL + "/{Z}/{X}/{Y}.png"})
	require.NoError(t, err)
	engines := tile.DefaultEngines()
	raster, err := engines.Lookup("raster")
	require.NoError(t, err)
	loader, err := tile.NewLoader(source, storage.NewMemory(0), raster, 0, nil)
	require.NoError(t, err)
	return NewTileService(loader, source, engines), &hits
}

func TestTileService_WholeWorld(t *testing.T) {
	svc, hits := newTileService(t)

	q, err := svc.Tiles(context.Background(), model.Range{Min: 0, Max: 1}, model.Range{Min: 0, Max: 1}, model.Vec2{X: 256, Y: 256})
	require.NoError(t, err)
	assert.Equal(t, 0, q.Zoom)
	require.Len(t, q.Tiles, 1)
	assert.Equal(t, model.PlacedTile{
		Coordinate: model.TileCoordinate{},
		Min:        model.Vec2{X: 0, Y: 0},
		Max:        model.Vec2{X: 1, Y: 1},
		Width:      tile.Size,
		Height:     tile.Size,
	}, q.Tiles[0])

	_, err = svc.Tiles(context.Background(), model.Range{Min: 0, Max: 1}, model.Range{Min: 0, Max: 1}, model.Vec2{X: 256, Y: 256})
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestTileService_InvalidInput(t *testing.T) {
	svc, _ := newTileService(t)
	ctx := context.Background()

	_, err := svc.Tiles(ctx, model.Range{Min: 1, Max: 0}, model.Range{Min: 0, Max: 1}, model.Vec2{X: 10, Y: 10})
	assert.ErrorIs(t, err, exchange.ErrInvalidParam)
	_, err = svc.Tiles(ctx, model.Range{Min: 0, Max: 1}, model.Range{Min: 0, Max: 1}, model.Vec2{})
	assert.ErrorIs(t, err, exchange.ErrInvalidParam)

	unit := model.Range{Min: 0, Max: 1}
	for _, size := range []model.Vec2{
		{X: 1e7, Y: 1e7},
		{X: tile.MaxPlotSize + 1, Y: 10},
		{X: 10, Y: math.NaN()},
		{X: math.Inf(1), Y: 10},
	} {
		_, err = svc.Tiles(ctx, unit, unit, size)
		assert.ErrorIs(t, err, exchange.ErrInvalidParam, "plot size %v", size)
	}
	_, err = svc.Tiles(ctx, model.Range{Min: math.NaN(), Max: 1}, unit, model.Vec2{X: 10, Y: 10})
	assert.ErrorIs(t, err, exchange.ErrInvalidParam)

	_, err = svc.Raw(ctx, model.TileCoordinate{Zoom: 19})
	assert.ErrorIs(t, err, exchange.ErrInvalidParam)
	_, err = svc.Raw(ctx, model.TileCoordinate{Zoom: 1, X: 2})
	assert.ErrorIs(t, err, exchange.ErrInvalidParam)

	raw, err := svc.Raw(ctx, model.TileCoordinate{Zoom: 1, X: 1, Y: 1})
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}

func TestTileService_Settings(t *testing.T) {
	svc, _ := newTileService(t)

	assert.Equal(t, []string{tile.SourceTypeURL}, svc.SourceTypes())
	assert.Equal(t, []string{tile.RasterEngineName}, svc.Engines())
	assert.Equal(t, tile.RasterEngineName, svc.Engine())

	assert.ErrorIs(t, svc.SetEngine("vector"), exchange.ErrInvalidParam)
	require.NoError(t, svc.SetEngine("Raster Tile"))

	assert.ErrorIs(t, svc.SetSource("https://tiles.example.com/static.png"), exchange.ErrInvalidParam)
	before := svc.Source()
	require.NoError(t, svc.SetSource("https://tiles.example.com/{zoom}/{x}/{y}.png"))
	assert.Equal(t, "https://tiles.example.com/{Z}/{X}/{Y}.png", svc.Source())
	require.NoError(t, svc.SetSource(before))
	assert.Equal(t, before, svc.Source())
}
