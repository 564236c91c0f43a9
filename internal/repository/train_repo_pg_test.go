package repository

import (
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
)

func TestNewTrainRepository(t *testing.T) {
	pool := &pgxpool.Pool{}
	repo := NewTrainRepository(pool)
	assert.NotNil(t, repo)
}
