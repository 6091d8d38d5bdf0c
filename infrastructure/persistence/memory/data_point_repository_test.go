package memory

import (
	"context"
	"sync"
	"testing"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	"datapoint-service/infrastructure/persistence/abstractions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPoint(externalID string) *entities.DataPoint {
	return &entities.DataPoint{ExternalID: externalID, Value: "value-" + externalID, Significance: 1}
}

func TestDataPointRepository_SaveAssignsSequentialIDs(t *testing.T) {
	repo := NewDataPointRepository(zap.NewNop())
	ctx := context.Background()

	first, err := repo.Save(ctx, newPoint("e1"))
	require.NoError(t, err)
	second, err := repo.Save(ctx, newPoint("e2"))
	require.NoError(t, err)

	assert.Equal(t, int64(1), first.ID)
	assert.Equal(t, int64(2), second.ID)
}

func TestDataPointRepository_SaveDoesNotAliasCallerValue(t *testing.T) {
	repo := NewDataPointRepository(zap.NewNop())
	ctx := context.Background()

	input := newPoint("e1")
	saved, err := repo.Save(ctx, input)
	require.NoError(t, err)
	assert.True(t, input.IsNew())

	saved.Value = "mutated"
	found, err := repo.FindOne(ctx, abstractions.Where(entities.FieldID).Eq(saved.ID).Build())
	require.NoError(t, err)
	assert.Equal(t, "value-e1", found.Value)
}

func TestDataPointRepository_UniqueExternalID(t *testing.T) {
	repo := NewDataPointRepository(zap.NewNop())
	ctx := context.Background()

	_, err := repo.Save(ctx, newPoint("e1"))
	require.NoError(t, err)

	_, err = repo.Save(ctx, newPoint("e1"))
	assert.ErrorIs(t, err, ports.ErrUniqueViolation)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDataPointRepository_UpdateKeepsIDAndMovesExternalID(t *testing.T) {
	repo := NewDataPointRepository(zap.NewNop())
	ctx := context.Background()

	saved, err := repo.Save(ctx, newPoint("e1"))
	require.NoError(t, err)

	saved.ExternalID = "e1-renamed"
	saved.Significance = 5
	updated, err := repo.Save(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, updated.ID)

	_, err = repo.FindOne(ctx, abstractions.Where(entities.FieldExternalID).Eq("e1").Build())
	assert.ErrorIs(t, err, ports.ErrNotFound)

	// the old external id is free again
	_, err = repo.Save(ctx, newPoint("e1"))
	assert.NoError(t, err)
}

func TestDataPointRepository_UpdateUnknownID(t *testing.T) {
	repo := NewDataPointRepository(zap.NewNop())

	p := newPoint("e1")
	p.ID = 99
	_, err := repo.Save(context.Background(), p)
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestDataPointRepository_FindAllOrdering(t *testing.T) {
	repo := NewDataPointRepository(zap.NewNop())
	ctx := context.Background()

	for _, ext := range []string{"c", "a", "b"} {
		_, err := repo.Save(ctx, newPoint(ext))
		require.NoError(t, err)
	}

	all, err := repo.FindAll(ctx, abstractions.All().Build())
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{1, 2, 3}, []int64{all[0].ID, all[1].ID, all[2].ID})

	byExternal, err := repo.FindAll(ctx, abstractions.All().OrderBy(entities.FieldExternalID, abstractions.SortDescending).Build())
	require.NoError(t, err)
	assert.Equal(t, "c", byExternal[0].ExternalID)
	assert.Equal(t, "a", byExternal[2].ExternalID)
}

func TestDataPointRepository_ConcurrentSaves(t *testing.T) {
	repo := NewDataPointRepository(zap.NewNop())
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = repo.Save(ctx, newPoint(string(rune('A'+i))))
		}(i)
	}
	wg.Wait()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), count)
}
