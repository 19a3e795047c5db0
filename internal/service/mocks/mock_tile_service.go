package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"historicalmap/internal/model"
	"historicalmap/internal/service"
)

type MockTileService struct {
	mock.Mock
}

func (m *MockTileService) Tiles(ctx context.Context, xAxis, yAxis model.Range, plotSize model.Vec2) (service.TileQuery, error) {
	args := m.Called(ctx, xAxis, yAxis, plotSize)
	return args.Get(0).(service.TileQuery), args.Error(1)
}

func (m *MockTileService) Raw(ctx context.Context, c model.TileCoordinate) ([]byte, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockTileService) SetSource(template string) error {
	args := m.Called(template)
	return args.Error(0)
}

func (m *MockTileService) Source() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTileService) SetEngine(name string) error {
	args := m.Called(name)
	return args.Error(0)
}

func (m *MockTileService) Engine() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockTileService) Engines() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockTileService) SourceTypes() []string {
	args := m.Called()
	return args.Get(0).([]string)
}
