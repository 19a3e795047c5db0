package service

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"historicalmap/internal/model"
	repoMocks "historicalmap/internal/repository/mocks"
	"historicalmap/internal/worker"
)

func newQueue(t *testing.T, size int) *worker.Queue {
	t.Helper()
	q, err := worker.New(size, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = q.Stop(context.Background()) })
	return q
}

func yearData(year int, countries ...string) *model.Data {
	d := model.NewData(year)
	for i, name := range countries {
		d.Countries = append(d.Countries, model.Country{
			Name:    name,
			Contour: []model.Coordinate{{Latitude: float32(i), Longitude: float32(i + 1)}},
		})
	}
	return d
}

func forYear(year int) any {
	return mock.MatchedBy(func(d *model.Data) bool { return d != nil && d.Year == year })
}

func TestDataManager_RequestLoadsInBackground(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockHistoricalRepository)
	repo.On("Load", mock.Anything, 1900).Return(yearData(1900, "France"), nil).Once()

	m := NewDataManager(repo, newQueue(t, 8), 0)

	d, ok, err := m.Request(ctx, 1900)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, d)

	require.Eventually(t, func() bool {
		_, ok, _ := m.Request(ctx, 1900)
		return ok
	}, time.Second, 5*time.Millisecond)

	d, ok, err = m.Request(ctx, 1900)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "France", d.Countries[0].Name)

	// callers get copies
	d.Countries[0].Name = "changed"
	again, _, _ := m.Request(ctx, 1900)
	assert.Equal(t, "France", again.Countries[0].Name)

	repo.AssertExpectations(t)
}

func TestDataManager_RequestQueueFull(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockHistoricalRepository)
	q := newQueue(t, 1)

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, q.Submit(func(context.Context) {
		close(started)
		<-release
	}))
	<-started
	require.NoError(t, q.Submit(func(context.Context) {}))

	m := NewDataManager(repo, q, 0)
	_, ok, err := m.Request(ctx, 1)
	assert.False(t, ok)
	assert.ErrorIs(t, err, worker.ErrQueueFull)

	close(release)
}

func TestDataManager_LoadEvictsOldest(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockHistoricalRepository)
	for y := 1; y <= 3; y++ {
		repo.On("Load", mock.Anything, y).Return(yearData(y), nil)
	}
	m := NewDataManager(repo, newQueue(t, 8), 2)

	for y := 1; y <= 3; y++ {
		_, err := m.Load(ctx, y)
		require.NoError(t, err)
	}

	dm := m.(*dataManager)
	dm.mu.Lock()
	assert.Equal(t, []int{2, 3}, dm.order)
	_, has1 := dm.cache[1]
	dm.mu.Unlock()
	assert.False(t, has1)
}

func TestDataManager_LoadError(t *testing.T) {
	repo := new(repoMocks.MockHistoricalRepository)
	repo.On("Load", mock.Anything, 5).Return(nil, errors.New("disk gone"))
	m := NewDataManager(repo, newQueue(t, 8), 0)

	_, err := m.Load(context.Background(), 5)
	assert.EqualError(t, err, "load year 5: disk gone")
}

func TestDataManager_LoadDeduplicates(t *testing.T) {
	repo := new(repoMocks.MockHistoricalRepository)
	gate := make(chan struct{})
	var calls atomic.Int32
	repo.On("Load", mock.Anything, 7).Run(func(mock.Arguments) {
		calls.Add(1)
		<-gate
	}).Return(yearData(7), nil)
	m := NewDataManager(repo, newQueue(t, 8), 0)

	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := m.Load(context.Background(), 7)
			errs <- err
		}()
	}
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(gate)
	for i := 0; i < 4; i++ {
		require.NoError(t, <-errs)
	}
	assert.LessOrEqual(t, calls.Load(), int32(4))
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
}

func TestDataManager_WritesInvalidateCache(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockHistoricalRepository)
	repo.On("Load", mock.Anything, 10).Return(yearData(10, "Old"), nil).Once()
	repo.On("Upsert", mock.Anything, forYear(10)).Return(nil).Once()
	repo.On("Load", mock.Anything, 10).Return(yearData(10, "New"), nil).Once()

	q := newQueue(t, 8)
	m := NewDataManager(repo, q, 0)

	_, err := m.Load(ctx, 10)
	require.NoError(t, err)

	require.NoError(t, m.Upsert(ctx, yearData(10, "New")))
	require.Eventually(t, func() bool { return m.WorkLoad() == 0 }, time.Second, time.Millisecond)

	d, err := m.Load(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, "New", d.Countries[0].Name)
	repo.AssertExpectations(t)
}

func TestDataManager_Apply(t *testing.T) {
	ctx := context.Background()

	t.Run("removes then upserts", func(t *testing.T) {
		repo := new(repoMocks.MockHistoricalRepository)
		var order []string
		repo.On("Remove", mock.Anything, forYear(3)).Run(func(mock.Arguments) { order = append(order, "remove") }).Return(nil)
		repo.On("Upsert", mock.Anything, forYear(3)).Run(func(mock.Arguments) { order = append(order, "upsert") }).Return(nil)
		m := NewDataManager(repo, newQueue(t, 8), 0)

		require.NoError(t, m.Apply(ctx, yearData(3, "Gone"), yearData(3, "Kept")))
		assert.Equal(t, []string{"remove", "upsert"}, order)
	})

	t.Run("remove failure skips upsert", func(t *testing.T) {
		repo := new(repoMocks.MockHistoricalRepository)
		repo.On("Remove", mock.Anything, forYear(3)).Return(errors.New("locked"))
		m := NewDataManager(repo, newQueue(t, 8), 0)

		err := m.Apply(ctx, yearData(3), yearData(3))
		assert.EqualError(t, err, "locked")
		repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
	})

	t.Run("nil parts are skipped", func(t *testing.T) {
		repo := new(repoMocks.MockHistoricalRepository)
		m := NewDataManager(repo, newQueue(t, 8), 0)
		require.NoError(t, m.Apply(ctx, nil, nil))
		repo.AssertExpectations(t)
	})
}

func TestDataManager_PassThrough(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockHistoricalRepository)
	repo.On("ListYears", ctx).Return([]int{-200, 1900}, nil)
	repo.On("LoadCountryList", ctx, 1900).Return([]string{"France"}, nil)
	repo.On("FindCity", ctx, "Paris").Return(&model.City{Name: "Paris"}, nil)
	repo.On("LoadNote", ctx, 1900).Return(nil, ErrNotFound)

	m := NewDataManager(repo, newQueue(t, 8), 0)

	years, err := m.ListYears(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int{-200, 1900}, years)

	names, err := m.LoadCountryList(ctx, 1900)
	require.NoError(t, err)
	assert.Equal(t, []string{"France"}, names)

	city, err := m.FindCity(ctx, "Paris")
	require.NoError(t, err)
	assert.Equal(t, "Paris", city.Name)

	_, err = m.LoadNote(ctx, 1900)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDataManager_LoadOvertakenByWrite(t *testing.T) {
	ctx := context.Background()
	repo := new(repoMocks.MockHistoricalRepository)
	entered, release := make(chan struct{}), make(chan struct{})
	repo.On("Load", mock.Anything, 1900).Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(yearData(1900, "Old"), nil).Once()
	repo.On("Upsert", mock.Anything, forYear(1900)).Return(nil).Once()
	repo.On("Load", mock.Anything, 1900).Return(yearData(1900, "New"), nil).Once()

	m := NewDataManager(repo, newQueue(t, 8), 0)
	loaded := make(chan *model.Data)
	go func() {
		d, err := m.Load(ctx, 1900)
		assert.NoError(t, err)
		loaded <- d
	}()
	<-entered
	require.NoError(t, m.Apply(ctx, nil, yearData(1900, "New")))
	close(release)
	assert.Equal(t, "Old", (<-loaded).Countries[0].Name)

	_, ok, err := m.Request(ctx, 1900)
	require.NoError(t, err)
	assert.False(t, ok, "the overtaken load is not cached")
	require.Eventually(t, func() bool {
		d, ok, _ := m.Request(ctx, 1900)
		return ok && d.Countries[0].Name == "New"
	}, time.Second, time.Millisecond)
	repo.AssertExpectations(t)
}
