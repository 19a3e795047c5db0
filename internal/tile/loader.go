package tile

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	hlog "historicalmap/internal/log"
	"historicalmap/internal/model"
	"historicalmap/internal/storage"
)

// ErrNoSource is returned when the loader has no tile source.
var ErrNoSource = errors.New("no tile source")

const parallelFetches = 8

type loaderMetrics struct {
	fetches *prometheus.CounterVec
	hits    *prometheus.CounterVec
}

func newLoaderMetrics(reg prometheus.Registerer) (*loaderMetrics, error) {
	m := &loaderMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "historicalmap_tile_fetch_total",
			Help: "Tile downloads from the tile source by result.",
		}, []string{"result"}),
		hits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "historicalmap_tile_cache_hits_total",
			Help: "Tiles served without a download, by cache layer.",
		}, []string{"layer"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.fetches, m.hits} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Loader resolves tiles through three layers: decoded tiles in memory, raw tiles in the
// TileStore, then the Source. Concurrent requests for one tile share a single load.
type Loader struct {
	store   storage.TileStore
	group   singleflight.Group
	metrics *loaderMetrics
	logger  zerolog.Logger
	limit   int

	mu     sync.RWMutex
	source Source
	engine Engine
	tiles  map[model.TileCoordinate]*model.Tile
	order  []model.TileCoordinate
}

// NewLoader wires the layers. limit bounds the decoded tiles kept in memory (0 = unbounded).
func NewLoader(source Source, store storage.TileStore, engine Engine, limit int, reg prometheus.Registerer) (*Loader, error) {
	metrics, err := newLoaderMetrics(reg)
	if err != nil {
		return nil, err
	}
	return &Loader{
		store:   store,
		metrics: metrics,
		logger:  hlog.WithComponent("tile"),
		limit:   limit,
		source:  source,
		engine:  engine,
		tiles:   make(map[model.TileCoordinate]*model.Tile),
	}, nil
}

// SetSource switches the tile set and drops decoded tiles of the previous one.
func (l *Loader) SetSource(s Source) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.source = s
	l.resetLocked()
}

// SetEngine switches the decoder. Raw tiles stay in the store and are decoded again on demand.
func (l *Loader) SetEngine(e Engine) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.engine = e
	l.resetLocked()
}

func (l *Loader) Engine() Engine {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.engine
}

func (l *Loader) resetLocked() {
	l.tiles = make(map[model.TileCoordinate]*model.Tile)
	l.order = nil
}

func (l *Loader) current() (Source, Engine) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.source, l.engine
}

// key namespaces the store key with the source identity.
func key(s Source, c model.TileCoordinate) string {
	return fmt.Sprintf("%016x/%s", xxhash.Sum64String(s.ID()), storage.TileKey(c.Zoom, c.X, c.Y))
}

// Raw returns the encoded tile, fetching and storing it if needed.
func (l *Loader) Raw(ctx context.Context, c model.TileCoordinate) ([]byte, error) {
	source, _ := l.current()
	if source == nil {
		return nil, ErrNoSource
	}
	return l.raw(ctx, source, c)
}

// raw resolves c against one source only; the bytes are stored under that source's key.
func (l *Loader) raw(ctx context.Context, source Source, c model.TileCoordinate) ([]byte, error) {
	k := key(source, c)
	v, err, _ := l.group.Do("raw:"+k, func() (any, error) {
		raw, err := l.store.Get(ctx, k)
		if err == nil {
			l.metrics.hits.WithLabelValues("store").Inc()
			return raw, nil
		}
		if !errors.Is(err, storage.ErrNotFound) {
			l.logger.Warn().Err(err).Str("key", k).Msg("tile store get failed")
		}

		raw, err = source.Fetch(ctx, c)
		if err != nil {
			l.metrics.fetches.WithLabelValues("error").Inc()
			return nil, err
		}
		l.metrics.fetches.WithLabelValues("ok").Inc()
		if err := l.store.Put(ctx, k, raw); err != nil {
			l.logger.Warn().Err(err).Str("key", k).Msg("tile store put failed")
		}
		return raw, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// Get returns the decoded tile at c.
func (l *Loader) Get(ctx context.Context, c model.TileCoordinate) (*model.Tile, error) {
	l.mu.RLock()
	t, ok := l.tiles[c]
	l.mu.RUnlock()
	if ok {
		l.metrics.hits.WithLabelValues("memory").Inc()
		return t, nil
	}

	source, engine := l.current()
	if source == nil {
		return nil, ErrNoSource
	}
	v, err, _ := l.group.Do("tile:"+engine.Name()+":"+key(source, c), func() (any, error) {
		raw, err := l.raw(ctx, source, c)
		if err != nil {
			return nil, err
		}
		t, err := engine.Decode(c, raw)
		if err != nil {
			return nil, err
		}
		l.remember(source, engine, t)
		return t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.Tile), nil
}

// remember caches t unless the source or the engine changed while it was loading.
func (l *Loader) remember(from Source, decodedBy Engine, t *model.Tile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.source != from || l.engine != decodedBy {
		return
	}
	if _, ok := l.tiles[t.Coordinate]; !ok {
		if l.limit > 0 && len(l.order) >= l.limit {
			delete(l.tiles, l.order[0])
			l.order = l.order[1:]
		}
		l.order = append(l.order, t.Coordinate)
	}
	l.tiles[t.Coordinate] = t
}

// LoadAll fetches coords in parallel. Tiles that cannot be loaded are skipped,
// the result keeps the order of coords.
func (l *Loader) LoadAll(ctx context.Context, coords []model.TileCoordinate) []*model.Tile {
	results := make([]*model.Tile, len(coords))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelFetches)
	for i, c := range coords {
		g.Go(func() error {
			t, err := l.Get(gctx, c)
			if err != nil {
				l.logger.Debug().Err(err).
					Int("x", c.X).Int("y", c.Y).Int("z", c.Zoom).
					Msg("tile skipped")
				return nil
			}
			results[i] = t
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*model.Tile, 0, len(coords))
	for _, t := range results {
		if t != nil {
			out = append(out, t)
		}
	}
	return out
}
