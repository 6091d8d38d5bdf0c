// Package memory provides a process-local DataPointRepository used for
// development and end-to-end tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	"datapoint-service/infrastructure/persistence/abstractions"

	"go.uber.org/zap"
)

// DataPointRepository stores data points in a map keyed by id
type DataPointRepository struct {
	mu         sync.RWMutex
	points     map[int64]*entities.DataPoint
	byExternal map[string]int64
	nextID     int64
	logger     *zap.Logger
}

// NewDataPointRepository creates an empty repository
func NewDataPointRepository(logger *zap.Logger) *DataPointRepository {
	return &DataPointRepository{
		points:     make(map[int64]*entities.DataPoint),
		byExternal: make(map[string]int64),
		logger:     logger,
	}
}

// Save inserts or updates a data point, enforcing external id uniqueness
func (r *DataPointRepository) Save(ctx context.Context, point *entities.DataPoint) (*entities.DataPoint, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if owner, taken := r.byExternal[point.ExternalID]; taken && owner != point.ID {
		return nil, fmt.Errorf("external id %q: %w", point.ExternalID, ports.ErrUniqueViolation)
	}

	stored := point.Clone()
	if stored.IsNew() {
		r.nextID++
		stored.ID = r.nextID
	} else {
		previous, ok := r.points[stored.ID]
		if !ok {
			return nil, fmt.Errorf("data point %d: %w", stored.ID, ports.ErrNotFound)
		}
		delete(r.byExternal, previous.ExternalID)
	}

	r.points[stored.ID] = stored
	r.byExternal[stored.ExternalID] = stored.ID

	r.logger.Debug("Data point saved",
		zap.Int64("id", stored.ID),
		zap.String("external_id", stored.ExternalID),
	)

	return stored.Clone(), nil
}

// FindOne returns the first match in id order
func (r *DataPointRepository) FindOne(ctx context.Context, criteria abstractions.Criteria) (*entities.DataPoint, error) {
	criteria.Limit = 1
	matches, err := r.FindAll(ctx, criteria)
	if err != nil {
		return nil, err
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%s: %w", criteria, ports.ErrNotFound)
	}
	return matches[0], nil
}

// FindAll returns copies of the matching records ordered by id unless the
// criteria requests another order
func (r *DataPointRepository) FindAll(ctx context.Context, criteria abstractions.Criteria) ([]*entities.DataPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	result := make([]*entities.DataPoint, 0, len(r.points))
	for _, p := range r.points {
		if criteria.Matches(p.FieldByName) {
			result = append(result, p.Clone())
		}
	}
	r.mu.RUnlock()

	sortPoints(result, criteria)

	if criteria.Limit > 0 && len(result) > criteria.Limit {
		result = result[:criteria.Limit]
	}
	return result, nil
}

// Count returns the number of stored records
func (r *DataPointRepository) Count(ctx context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.points)), nil
}

func sortPoints(points []*entities.DataPoint, criteria abstractions.Criteria) {
	sort.SliceStable(points, func(i, j int) bool {
		if cmp := criteria.Order(points[i].FieldByName, points[j].FieldByName); cmp != 0 {
			return cmp < 0
		}
		return points[i].ID < points[j].ID
	})
}
