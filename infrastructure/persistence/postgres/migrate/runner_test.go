package migrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun_EmptyDSN(t *testing.T) {
	err := Run("", "up")

	assert.EqualError(t, err, "DATABASE_URL is not set")
}

func TestRun_InvalidDirection(t *testing.T) {
	for _, direction := range []string{"", "sideways", "UP"} {
		t.Run(direction, func(t *testing.T) {
			err := Run("postgres://localhost/test", direction)
			assert.ErrorContains(t, err, "direction must be up or down")
		})
	}
}
