package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	hlog "historicalmap/internal/log"
	"historicalmap/internal/model"
	"historicalmap/internal/repository"
	"historicalmap/internal/worker"
)

// DefaultCacheSize is how many loaded years the data manager keeps.
const DefaultCacheSize = 8

// DataManager fronts the historical store with a small year cache and a serial write queue.
type DataManager interface {
	// Request returns cached data without blocking. On a miss it schedules a load
	// (at most one per year while pending) and returns nil, false.
	Request(ctx context.Context, year int) (*model.Data, bool, error)

	// Load reads year from the store, filling the cache.
	Load(ctx context.Context, year int) (*model.Data, error)

	// Upsert and Remove are queued on the worker and return once queued.
	Upsert(ctx context.Context, data *model.Data) error
	Remove(ctx context.Context, data *model.Data) error

	// Apply queues remove then upsert for one year and waits for both to finish.
	Apply(ctx context.Context, remove, upsert *model.Data) error

	// WorkLoad is the number of queued or running jobs.
	WorkLoad() int

	ListYears(ctx context.Context) ([]int, error)
	LoadCountryList(ctx context.Context, year int) ([]string, error)
	LoadCityList(ctx context.Context, year int) ([]string, error)
	LoadAllCityNames(ctx context.Context) ([]string, error)
	LoadCountry(ctx context.Context, year int, name string) (*model.Country, error)
	LoadCity(ctx context.Context, year int, name string) (*model.City, error)
	FindCity(ctx context.Context, name string) (*model.City, error)
	LoadNote(ctx context.Context, year int) (*model.Note, error)
}

type dataManager struct {
	repo   repository.HistoricalRepository
	queue  *worker.Queue
	group  singleflight.Group
	logger zerolog.Logger

	mu      sync.Mutex
	size    int
	cache   map[int]*model.Data
	order   []int
	pending map[int]struct{}
	// bumped by every invalidate; a load only fills the cache when it is unchanged
	versions map[int]uint64
}

// NewDataManager builds a DataManager. cacheSize <= 0 uses DefaultCacheSize.
func NewDataManager(repo repository.HistoricalRepository, queue *worker.Queue, cacheSize int) DataManager {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &dataManager{
		repo:     repo,
		queue:    queue,
		logger:   hlog.WithComponent("data_manager"),
		size:     cacheSize,
		cache:    make(map[int]*model.Data),
		pending:  make(map[int]struct{}),
		versions: make(map[int]uint64),
	}
}

func (m *dataManager) Request(_ context.Context, year int) (*model.Data, bool, error) {
	m.mu.Lock()
	if d, ok := m.cache[year]; ok {
		m.mu.Unlock()
		return d.Clone(), true, nil
	}
	if _, ok := m.pending[year]; ok {
		m.mu.Unlock()
		return nil, false, nil
	}
	m.pending[year] = struct{}{}
	m.mu.Unlock()

	err := m.queue.Submit(func(ctx context.Context) {
		defer m.clearPending(year)
		if _, err := m.Load(ctx, year); err != nil {
			m.logger.Error().Err(err).Int("year", year).Msg("background load failed")
		}
	})
	if err != nil {
		m.clearPending(year)
		return nil, false, err
	}
	return nil, false, nil
}

func (m *dataManager) clearPending(year int) {
	m.mu.Lock()
	delete(m.pending, year)
	m.mu.Unlock()
}

func (m *dataManager) Load(ctx context.Context, year int) (*model.Data, error) {
	version := m.version(year)
	key := strconv.Itoa(year) + "@" + strconv.FormatUint(version, 10)
	v, err, _ := m.group.Do(key, func() (any, error) {
		d, err := m.repo.Load(ctx, year)
		if err != nil {
			return nil, err
		}
		m.put(d, version)
		return d, nil
	})
	if err != nil {
		return nil, fmt.Errorf("load year %d: %w", year, err)
	}
	return v.(*model.Data).Clone(), nil
}

func (m *dataManager) version(year int) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.versions[year]
}

// put stores d, evicting the oldest year once the cache is full. A load that a write
// overtook (version no longer current) is dropped.
func (m *dataManager) put(d *model.Data, version uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.versions[d.Year] != version {
		return
	}
	if _, ok := m.cache[d.Year]; !ok {
		if len(m.order) >= m.size {
			delete(m.cache, m.order[0])
			m.order = m.order[1:]
		}
		m.order = append(m.order, d.Year)
	}
	m.cache[d.Year] = d
}

func (m *dataManager) invalidate(year int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.versions[year]++
	if _, ok := m.cache[year]; !ok {
		return
	}
	delete(m.cache, year)
	for i, y := range m.order {
		if y == year {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
}

func (m *dataManager) Upsert(_ context.Context, data *model.Data) error {
	return m.write("upsert", data, m.repo.Upsert)
}

func (m *dataManager) Remove(_ context.Context, data *model.Data) error {
	return m.write("remove", data, m.repo.Remove)
}

func (m *dataManager) write(op string, data *model.Data, fn func(context.Context, *model.Data) error) error {
	if data == nil {
		return nil
	}
	data = data.Clone()
	m.invalidate(data.Year)
	return m.queue.Submit(func(ctx context.Context) {
		defer m.invalidate(data.Year)
		if err := fn(ctx, data); err != nil {
			m.logger.Error().Err(err).Str("op", op).Int("year", data.Year).Msg("background write failed")
		}
	})
}

func (m *dataManager) Apply(ctx context.Context, remove, upsert *model.Data) error {
	remove, upsert = remove.Clone(), upsert.Clone()
	done := make(chan error, 1)
	err := m.queue.Submit(func(jobCtx context.Context) {
		var err error
		if remove != nil {
			m.invalidate(remove.Year)
			err = m.repo.Remove(jobCtx, remove)
			m.invalidate(remove.Year)
		}
		if err == nil && upsert != nil {
			m.invalidate(upsert.Year)
			err = m.repo.Upsert(jobCtx, upsert)
			m.invalidate(upsert.Year)
		}
		done <- err
	})
	if err != nil {
		return err
	}
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *dataManager) WorkLoad() int { return m.queue.Len() }

func (m *dataManager) ListYears(ctx context.Context) ([]int, error) {
	return m.repo.ListYears(ctx)
}

func (m *dataManager) LoadCountryList(ctx context.Context, year int) ([]string, error) {
	return m.repo.LoadCountryList(ctx, year)
}

func (m *dataManager) LoadCityList(ctx context.Context, year int) ([]string, error) {
	return m.repo.LoadCityList(ctx, year)
}

func (m *dataManager) LoadAllCityNames(ctx context.Context) ([]string, error) {
	return m.repo.LoadAllCityNames(ctx)
}

func (m *dataManager) LoadCountry(ctx context.Context, year int, name string) (*model.Country, error) {
	return m.repo.LoadCountry(ctx, year, name)
}

func (m *dataManager) LoadCity(ctx context.Context, year int, name string) (*model.City, error) {
	return m.repo.LoadCity(ctx, year, name)
}

func (m *dataManager) FindCity(ctx context.Context, name string) (*model.City, error) {
	return m.repo.FindCity(ctx, name)
}

func (m *dataManager) LoadNote(ctx context.Context, year int) (*model.Note, error) {
	return m.repo.LoadNote(ctx, year)
}
