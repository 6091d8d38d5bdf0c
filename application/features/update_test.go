package features

import (
	"context"
	"errors"
	"testing"
	"time"

	"datapoint-service/domain/core/entities"
	"datapoint-service/domain/events"
	"datapoint-service/pkg/trace"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newUpdateFeature(repo *mockRepository, publisher *mockPublisher, logger *zap.Logger) *UpdateDataPointFeature {
	f := NewUpdateDataPointFeature(NewPersistDataPointFeature(repo), publisher, logger)
	f.now = func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) }
	return f
}

func TestUpdateDataPointFeature_OverwritesAllFields(t *testing.T) {
	ctx := trace.NewContext(context.Background(), trace.NewTraceContext("trace-7"))
	repo := new(mockRepository)
	publisher := new(mockPublisher)

	existing := &entities.DataPoint{ID: 5, ExternalID: "e5", Value: "old", Comment: strPtr("old"), Significance: 1}
	model := UpdateDataPointModel{ExternalID: "e5", Value: "new", Comment: nil, Significance: 9}

	repo.On("Save", ctx, mock.MatchedBy(func(p *entities.DataPoint) bool {
		return p.ID == 5 && p.Value == "new" && p.Comment == nil && p.Significance == 9
	})).Return(&entities.DataPoint{ID: 5, ExternalID: "e5", Value: "new", Significance: 9}, nil)

	publisher.On("Publish", ctx, mock.MatchedBy(func(e events.DataPointSaved) bool {
		return e.EventType == events.TypeDataPointUpdated && e.DataPointID == 5 && e.TraceID == "trace-7"
	})).Return(nil)

	saved, err := newUpdateFeature(repo, publisher, zap.NewNop()).Update(ctx, existing, model)

	require.NoError(t, err)
	assert.Equal(t, int64(5), saved.ID)
	assert.Equal(t, "new", saved.Value)
	repo.AssertExpectations(t)
	publisher.AssertExpectations(t)
}

func TestUpdateDataPointFeature_NewPointPublishesCreated(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	publisher := new(mockPublisher)

	repo.On("Save", ctx, mock.Anything).Return(&entities.DataPoint{ID: 1, ExternalID: "e1"}, nil)
	publisher.On("Publish", ctx, mock.MatchedBy(func(e events.DataPointSaved) bool {
		return e.EventType == events.TypeDataPointCreated && e.AggregateID == "1"
	})).Return(nil)

	_, err := newUpdateFeature(repo, publisher, zap.NewNop()).Update(ctx, &entities.DataPoint{}, UpdateDataPointModel{ExternalID: "e1"})

	require.NoError(t, err)
	publisher.AssertExpectations(t)
}

func TestUpdateDataPointFeature_PublishFailureOnlyWarns(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	publisher := new(mockPublisher)
	core, logs := observer.New(zapcore.DebugLevel)

	repo.On("Save", ctx, mock.Anything).Return(&entities.DataPoint{ID: 1}, nil)
	publisher.On("Publish", ctx, mock.Anything).Return(errors.New("bus unavailable"))

	saved, err := newUpdateFeature(repo, publisher, zap.New(core)).Update(ctx, &entities.DataPoint{}, UpdateDataPointModel{ExternalID: "e1"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestUpdateDataPointFeature_SaveFailureSkipsPublish(t *testing.T) {
	ctx := context.Background()
	repo := new(mockRepository)
	publisher := new(mockPublisher)

	repo.On("Save", ctx, mock.Anything).Return(nil, errors.New("down"))

	_, err := newUpdateFeature(repo, publisher, zap.NewNop()).Update(ctx, &entities.DataPoint{}, UpdateDataPointModel{})

	assert.Error(t, err)
	publisher.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestCreateDataPointFeature_DelegatesWithEmptyPoint(t *testing.T) {
	ctx := context.Background()
	updater := new(mockUpdater)
	model := CreateDataPointModel{ExternalID: "e1", Value: "v", Comment: strPtr("c"), Significance: 3}

	updater.On("Update", ctx, &entities.DataPoint{}, UpdateDataPointModel{ExternalID: "e1", Value: "v", Comment: model.Comment, Significance: 3}).
		Return(&entities.DataPoint{ID: 1, ExternalID: "e1"}, nil)

	saved, err := NewCreateDataPointFeature(updater).Create(ctx, model)

	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)
	updater.AssertExpectations(t)
}
