package postgres_test

import (
	"context"
	"os"
	"testing"

	"datapoint-service/application/ports"
	"datapoint-service/domain/core/entities"
	"datapoint-service/infrastructure/persistence/abstractions"
	"datapoint-service/infrastructure/persistence/postgres"
	"datapoint-service/infrastructure/persistence/postgres/migrate"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// Requires TEST_DATABASE_URL pointing at a disposable database.
func TestDataPointRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	ctx := context.Background()

	require.NoError(t, migrate.Run(dsn, "down"))
	require.NoError(t, migrate.Run(dsn, "up"))

	pool, err := postgres.Open(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()

	repo := postgres.NewDataPointRepository(pool, zap.NewNop())
	require.NoError(t, repo.Ping(ctx))

	comment := "first"
	first, err := repo.Save(ctx, &entities.DataPoint{ExternalID: "e1", Value: "v1", Comment: &comment, Significance: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), first.ID)

	_, err = repo.Save(ctx, &entities.DataPoint{ExternalID: "e1", Value: "dup", Significance: 2})
	assert.ErrorIs(t, err, ports.ErrUniqueViolation)

	first.Value = "v1-updated"
	first.Comment = nil
	updated, err := repo.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, first.ID, updated.ID)
	assert.Nil(t, updated.Comment)

	found, err := repo.FindOne(ctx, abstractions.Where(entities.FieldExternalID).Eq("e1").Build())
	require.NoError(t, err)
	assert.Equal(t, "v1-updated", found.Value)

	_, err = repo.FindOne(ctx, abstractions.Where(entities.FieldID).Eq(int64(999)).Build())
	assert.ErrorIs(t, err, ports.ErrNotFound)

	_, err = repo.Save(ctx, &entities.DataPoint{ID: 999, ExternalID: "e9", Value: "v", Significance: 1})
	assert.ErrorIs(t, err, ports.ErrNotFound)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
