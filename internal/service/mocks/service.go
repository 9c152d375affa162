package mocks

import (
	"context"

	"questcycle/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockGeneratorService struct {
	mock.Mock
}

func (m *MockGeneratorService) Generate(ctx context.Context) *model.GenerationResult {
	args := m.Called(ctx)
	return args.Get(0).(*model.GenerationResult)
}

type MockExpirationService struct {
	mock.Mock
}

func (m *MockExpirationService) Expire(ctx context.Context) *model.ExpirationResult {
	args := m.Called(ctx)
	return args.Get(0).(*model.ExpirationResult)
}

type MockJobService struct {
	mock.Mock
}

func (m *MockJobService) RunAll(ctx context.Context) *model.JobReport {
	args := m.Called(ctx)
	return args.Get(0).(*model.JobReport)
}

func (m *MockJobService) RunGeneration(ctx context.Context) *model.JobReport {
	args := m.Called(ctx)
	return args.Get(0).(*model.JobReport)
}

func (m *MockJobService) RunExpiration(ctx context.Context) *model.JobReport {
	args := m.Called(ctx)
	return args.Get(0).(*model.JobReport)
}

type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) Alert(ctx context.Context, job string, report *model.JobReport) error {
	args := m.Called(ctx, job, report)
	return args.Error(0)
}
