package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"historicalmap/internal/model"
)

type MockDataManager struct {
	mock.Mock
}

func (m *MockDataManager) Request(ctx context.Context, year int) (*model.Data, bool, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*model.Data), args.Bool(1), args.Error(2)
}

func (m *MockDataManager) Load(ctx context.Context, year int) (*model.Data, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Data), args.Error(1)
}

func (m *MockDataManager) Upsert(ctx context.Context, data *model.Data) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockDataManager) Remove(ctx context.Context, data *model.Data) error {
	args := m.Called(ctx, data)
	return args.Error(0)
}

func (m *MockDataManager) Apply(ctx context.Context, remove, upsert *model.Data) error {
	args := m.Called(ctx, remove, upsert)
	return args.Error(0)
}

func (m *MockDataManager) WorkLoad() int {
	args := m.Called()
	return args.Int(0)
}

func (m *MockDataManager) ListYears(ctx context.Context) ([]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]int), args.Error(1)
}

func (m *MockDataManager) LoadCountryList(ctx context.Context, year int) ([]string, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDataManager) LoadCityList(ctx context.Context, year int) ([]string, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDataManager) LoadAllCityNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockDataManager) LoadCountry(ctx context.Context, year int, name string) (*model.Country, error) {
	args := m.Called(ctx, year, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Country), args.Error(1)
}

func (m *MockDataManager) LoadCity(ctx context.Context, year int, name string) (*model.City, error) {
	args := m.Called(ctx, year, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.City), args.Error(1)
}

func (m *MockDataManager) FindCity(ctx context.Context, name string) (*model.City, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.City), args.Error(1)
}

func (m *MockDataManager) LoadNote(ctx context.Context, year int) (*model.Note, error) {
	args := m.Called(ctx, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Note), args.Error(1)
}
