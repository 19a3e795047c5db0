package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
	"historicalmap/internal/model"
)

type MockHistoricalRepository struct {
	mock.Mock
}

func (m *MockHistoricalRepository) Load(ctx context.Context, year int) (*model.Data, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Data), args.Error(1)
}

func (m *MockHistoricalRepository) Upsert(ctx context.Context, data *model.Data) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockHistoricalRepository) Remove(ctx context.Context, data *model.Data) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockHistoricalRepository) ListYears(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockHistoricalRepository) LoadCountryList(ctx context.Context, year int) ([]string, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHistoricalRepository) LoadCityList(ctx context.Context, year int) ([]string, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHistoricalRepository) LoadAllCityNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockHistoricalRepository) LoadCountry(ctx context.Context, year int, name string) (*model.Country, error) {
	args := m.Called(ctx, year, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Country), args.Error(1)
}

func (m *MockHistoricalRepository) LoadCity(ctx context.Context, year int, name string) (*model.City, error) {
	args := m.Called(ctx, year, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.City), args.Error(1)
}

func (m *MockHistoricalRepository) FindCity(ctx context.Context, name string) (*model.City, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.City), args.Error(1)
}

func (m *MockHistoricalRepository) LoadNote(ctx context.Context, year int) (*model.Note, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}
