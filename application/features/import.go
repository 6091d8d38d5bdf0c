package features

import (
	"context"
	"time"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	apperrors "datapoint-service/pkg/errors"
	"datapoint-service/pkg/trace"

	"go.uber.org/zap"
)

// DataPointCreator creates data points
type DataPointCreator interface {
	Create(ctx context.Context, model CreateDataPointModel) (*entities.DataPoint, error)
}

// ExternalIDLookup finds a data point by external id
type ExternalIDLookup interface {
	Get(ctx context.Context, externalID string) (*entities.DataPoint, error)
}

// ImportDataPointsFeature reconciles local data points with the upstream
// service: existing external ids are updated, unknown ones are created
type ImportDataPointsFeature struct {
	external ports.ExternalService
	lookup   ExternalIDLookup
	creator  DataPointCreator
	updater  DataPointUpdater
	recorder ports.ImportRecorder
	logger   *zap.Logger
}

// NewImportDataPointsFeature creates the import feature
func NewImportDataPointsFeature(
	external ports.ExternalService,
	lookup ExternalIDLookup,
	creator DataPointCreator,
	updater DataPointUpdater,
	recorder ports.ImportRecorder,
	logger *zap.Logger,
) *ImportDataPointsFeature {
	return &ImportDataPointsFeature{
		external: external,
		lookup:   lookup,
		creator:  creator,
		updater:  updater,
		recorder: recorder,
		logger:   logger,
	}
}

// Execute fetches upstream records and upserts each one in fetch order.
// Records persisted before a failure stay persisted.
func (f *ImportDataPointsFeature) Execute(ctx context.Context) ([]*entities.DataPoint, error) {
	start := time.Now()
	logger := trace.Logger(ctx, f.logger)

	records, err := f.external.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]*entities.DataPoint, 0, len(records))
	var created, updated int

	for _, record := range records {
		existing, err := f.lookup.Get(ctx, record.ExternalID)

		var saved *entities.DataPoint
		switch {
		case err == nil:
			saved, err = f.updater.Update(ctx, existing, UpdateDataPointModel{
				ExternalID:   record.ExternalID,
				Value:        record.Value,
				Comment:      record.Comment,
				Significance: record.Significance,
			})
			updated++
		case apperrors.IsNotFound(err):
			saved, err = f.creator.Create(ctx, CreateDataPointModel{
				ExternalID:   record.ExternalID,
				Value:        record.Value,
				Comment:      record.Comment,
				Significance: record.Significance,
			})
			created++
		}
		if err != nil {
			logger.Error("Import aborted",
				zap.String("external_id", record.ExternalID),
				zap.Int("processed", len(result)),
				zap.Error(err),
			)
			return nil, err
		}

		result = append(result, saved)
	}

	f.recorder.RecordImport(ctx, created, updated)
	logger.Info("Import completed",
		zap.Int("fetched", len(records)),
		zap.Int("created", created),
		zap.Int("updated", updated),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}
