package features

import (
	"context"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	"datapoint-service/domain/events"
	"datapoint-service/infrastructure/persistence/abstractions"

	"github.com/stretchr/testify/mock"
)

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) Save(ctx context.Context, point *entities.DataPoint) (*entities.DataPoint, error) {
	args := m.Called(ctx, point)
	if p := args.Get(0); p != nil {
		return p.(*entities.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) FindOne(ctx context.Context, criteria abstractions.Criteria) (*entities.DataPoint, error) {
	args := m.Called(ctx, criteria)
	if p := args.Get(0); p != nil {
		return p.(*entities.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) FindAll(ctx context.Context, criteria abstractions.Criteria) ([]*entities.DataPoint, error) {
	args := m.Called(ctx, criteria)
	if p := args.Get(0); p != nil {
		return p.([]*entities.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockRepository) Count(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

type mockExternalService struct {
	mock.Mock
}

func (m *mockExternalService) GetAll(ctx context.Context) ([]ports.ExternalDataPoint, error) {
	args := m.Called(ctx)
	if p := args.Get(0); p != nil {
		return p.([]ports.ExternalDataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	return m.Called(ctx, event).Error(0)
}

func (m *mockPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	return m.Called(ctx, evts).Error(0)
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordImport(ctx context.Context, created, updated int) {
	m.Called(ctx, created, updated)
}

type mockLookup struct {
	mock.Mock
}

func (m *mockLookup) Get(ctx context.Context, externalID string) (*entities.DataPoint, error) {
	args := m.Called(ctx, externalID)
	if p := args.Get(0); p != nil {
		return p.(*entities.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockCreator struct {
	mock.Mock
}

func (m *mockCreator) Create(ctx context.Context, model CreateDataPointModel) (*entities.DataPoint, error) {
	args := m.Called(ctx, model)
	if p := args.Get(0); p != nil {
		return p.(*entities.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

type mockUpdater struct {
	mock.Mock
}

func (m *mockUpdater) Update(ctx context.Context, existing *entities.DataPoint, model UpdateDataPointModel) (*entities.DataPoint, error) {
	args := m.Called(ctx, existing, model)
	if p := args.Get(0); p != nil {
		return p.(*entities.DataPoint), args.Error(1)
	}
	return nil, args.Error(1)
}

func strPtr(s string) *string { return &s }
