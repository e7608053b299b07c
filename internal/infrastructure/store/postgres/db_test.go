package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@localhost:5432/testbrain?sslmode=disable",
		migrateURL("postgres://u:p@localhost:5432/testbrain?sslmode=disable"))
	assert.Equal(t, "pgx5://u@db/x", migrateURL("postgresql://u@db/x"))
	assert.Equal(t, "pgx5://already", migrateURL("pgx5://already"))
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	assert.NoError(t, err)
	assert.Len(t, entries, 4)
}
