package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"historicalmap/internal/service"
)

type MockExchangeService struct {
	mock.Mock
}

func (m *MockExchangeService) Export(ctx context.Context, req service.ExportRequest) (int, error) {
	args := m.Called(ctx, req)
	return args.Int(0), args.Error(1)
}

func (m *MockExchangeService) Import(ctx context.Context, file string) (service.ImportResult, error) {
	args := m.Called(ctx, file)
	return args.Get(0).(service.ImportResult), args.Error(1)
}

func (m *MockExchangeService) Formats() []string {
	args := m.Called()
	return args.Get(0).([]string)
}

func (m *MockExchangeService) Progress() service.Progress {
	args := m.Called()
	return args.Get(0).(service.Progress)
}
