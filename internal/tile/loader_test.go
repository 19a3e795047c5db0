package tile

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"historicalmap/internal/config"
	"historicalmap/internal/exchange"
	"historicalmap/internal/model"
	"historicalmap/internal/storage"
	storeMocks "historicalmap/internal/storage/mocks"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// fakeSource serves a fixed image and counts fetches. Coordinates with X < 0 fail.
type fakeSource struct {
	id      string
	raw     []byte
	fetches atomic.Int32
	gate    chan struct{}
}

func (f *fakeSource) ID() string { return f.id }

func (f *fakeSource) Fetch(_ context.Context, c model.TileCoordinate) ([]byte, error) {
	f.fetches.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	if c.X < 0 {
		return nil, exchange.Errorf(exchange.CodeNetworkError, "offline")
	}
	return f.raw, nil
}

func TestRaster_Decode(t *testing.T) {
	c := model.TileCoordinate{X: 1, Y: 2, Zoom: 3}
	tile, err := Raster{}.Decode(c, pngBytes(t, 4, 2))
	require.NoError(t, err)

	assert.Equal(t, 4, tile.Width)
	assert.Equal(t, 2, tile.Height)
	assert.Len(t, tile.Pixels, 4*2*4)
	assert.Equal(t, []byte{255, 0, 0, 255}, tile.Pixels[:4])
	assert.Equal(t, c, tile.Coordinate)

	_, err = Raster{}.Decode(c, []byte("not an image"))
	assert.Error(t, err)
}

func TestEngines(t *testing.T) {
	e := DefaultEngines()
	assert.Equal(t, []string{RasterEngineName}, e.Names())

	for _, name := range []string{"raster", "Raster Tile"} {
		engine, err := e.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, RasterEngineName, engine.Name())
	}
	_, err := e.Lookup("vector")
	assert.ErrorIs(t, err, exchange.ErrInvalidParam)
}

func TestLoader_Layers(t *testing.T) {
	ctx := context.Background()
	src := &fakeSource{id: "a", raw: pngBytes(t, 2, 2)}
	store := storage.NewMemory(0)
	reg := prometheus.NewRegistry()
	l, err := NewLoader(src, store, Raster{}, 0, reg)
	require.NoError(t, err)

	c := model.TileCoordinate{X: 0, Y: 0, Zoom: 0}
	tile, err := l.Get(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, 2, tile.Width)
	assert.Equal(t, int32(1), src.fetches.Load())
	assert.Equal(t, 1, store.Len())

	again, err := l.Get(ctx, c)
	require.NoError(t, err)
	assert.Same(t, tile, again)
	assert.Equal(t, float64(1), testutil.ToFloat64(l.metrics.hits.WithLabelValues("memory")))

	// a new engine drops decoded tiles but the raw bytes come from the store
	l.SetEngine(Raster{})
	_, err = l.Get(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.fetches.Load())
	assert.Equal(t, float64(1), testutil.ToFloat64(l.metrics.hits.WithLabelValues("store")))

	// another source never sees the tiles of the first one
	other := &fakeSource{id: "b", raw: src.raw}
	l.SetSource(other)
	_, err = l.Get(ctx, c)
	require.NoError(t, err)
	assert.Equal(t, int32(1), other.fetches.Load())
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, float64(2), testutil.ToFloat64(l.metrics.fetches.WithLabelValues("ok")))
}

func TestLoader_DedupesConcurrentLoads(t *testing.T) {
	src := &fakeSource{id: "a", raw: pngBytes(t, 1, 1), gate: make(chan struct{})}
	l, err := NewLoader(src, storage.NewMemory(0), Raster{}, 0, nil)
	require.NoError(t, err)

	c := model.TileCoordinate{X: 1, Y: 1, Zoom: 1}
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.Get(context.Background(), c)
			assert.NoError(t, err)
		}()
	}
	require.Eventually(t, func() bool { return src.fetches.Load() > 0 }, time.Second, time.Millisecond)
	close(src.gate)
	wg.Wait()

	assert.Equal(t, int32(1), src.fetches.Load())
}

func TestLoader_LoadAllSkipsMissing(t *testing.T) {
	src := &fakeSource{id: "a", raw: pngBytes(t, 1, 1)}
	l, err := NewLoader(src, storage.NewMemory(0), Raster{}, 2, nil)
	require.NoError(t, err)

	coords := []model.TileCoordinate{{X: 0, Y: 0, Zoom: 1}, {X: -1, Y: 0, Zoom: 1}, {X: 1, Y: 0, Zoom: 1}, {X: 1, Y: 1, Zoom: 1}}
	tiles := l.LoadAll(context.Background(), coords)

	require.Len(t, tiles, 3)
	assert.Equal(t, coords[0], tiles[0].Coordinate)
	assert.Equal(t, coords[2], tiles[1].Coordinate)
	assert.Equal(t, coords[3], tiles[2].Coordinate)
	assert.Len(t, l.tiles, 2, "decoded tiles are bounded")
}

func TestLoader_StoreFailuresAreNotFatal(t *testing.T) {
	src := &fakeSource{id: "a", raw: pngBytes(t, 1, 1)}
	store := new(storeMocks.MockTileStore)
	store.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("down"))
	store.On("Put", mock.Anything, mock.Anything, src.raw).Return(errors.New("down"))

	l, err := NewLoader(src, store, Raster{}, 0, nil)
	require.NoError(t, err)

	_, err = l.Get(context.Background(), model.TileCoordinate{})
	require.NoError(t, err)
	store.AssertExpectations(t)
}

func TestLoader_NoSource(t *testing.T) {
	l, err := NewLoader(nil, storage.NewMemory(0), Raster{}, 0, nil)
	require.NoError(t, err)
	_, err = l.Get(context.Background(), model.TileCoordinate{})
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestLoader_TemplateSwitchDuringFetch(t *testing.T) {
	release := make(chan struct{})
	requested := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested <- r.URL.Path
		if r.URL.Path == "/A/1/1/1" {
			<-release
		}
		_, _ = w.Write([]byte("from:" + r.URL.Path))
	}))
	defer srv.Close()

	base, err := NewURLSource(config.TileConfig{URLTemplate: srv.URL + "/A/{Z}/{X}/{Y}", TimeoutMs: 5000})
	require.NoError(t, err)
	b, err := base.WithTemplate(srv.URL + "/B/{Z}/{X}/{Y}")
	require.NoError(t, err)
	store := storage.NewMemory(0)
	l, err := NewLoader(base, store, Raster{}, 0, nil)
	require.NoError(t, err)

	c := model.TileCoordinate{X: 1, Y: 1, Zoom: 1}
	done := make(chan []byte)
	go func() {
		raw, err := l.Raw(context.Background(), c)
		assert.NoError(t, err)
		done <- raw
	}()
	assert.Equal(t, "/A/1/1/1", <-requested)

	l.SetSource(b)
	a, err := b.WithTemplate(base.Template())
	require.NoError(t, err)
	l.SetSource(a)
	close(release)

	assert.Equal(t, "from:/A/1/1/1", string(<-done), "an in-flight fetch keeps its template")
	raw, err := l.Raw(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, "from:/A/1/1/1", string(raw))
	stored, err := store.Get(context.Background(), key(a, c))
	require.NoError(t, err)
	assert.Equal(t, "from:/A/1/1/1", string(stored))
}

func TestLoader_StaleSourceIsNotCached(t *testing.T) {
	src := &fakeSource{id: "a", raw: pngBytes(t, 1, 1), gate: make(chan struct{})}
	l, err := NewLoader(src, storage.NewMemory(0), Raster{}, 0, nil)
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := l.Get(context.Background(), model.TileCoordinate{})
		assert.NoError(t, err)
	}()
	require.Eventually(t, func() bool { return src.fetches.Load() > 0 }, time.Second, time.Millisecond)
	l.SetSource(&fakeSource{id: "b", raw: src.raw})
	close(src.gate)
	<-done

	l.mu.RLock()
	defer l.mu.RUnlock()
	assert.Empty(t, l.tiles, "tile of the replaced source stays out of memory")
}
