package mongodb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/mongo"

	"icpep-backend/internal/models"
)

func TestParseID(t *testing.T) {
	id, err := ParseID("65f1c2a9e4b0a1b2c3d4e5f6")
	assert.NoError(t, err)
	assert.Equal(t, "65f1c2a9e4b0a1b2c3d4e5f6", id.Hex())

	_, err = ParseID("nope")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}

func TestPaginate(t *testing.T) {
	page, limit, skip, lim := Paginate(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, DefaultLimit, limit)
	assert.Equal(t, int64(0), skip)
	assert.Equal(t, int64(DefaultLimit), lim)

	page, limit, skip, _ = Paginate(3, 500)
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxLimit, limit)
	assert.Equal(t, int64(200), skip)
}

func TestNotFound(t *testing.T) {
	err := NotFound(mongo.ErrNoDocuments, "event")
	assert.ErrorIs(t, err, models.ErrNotFound)

	other := errors.New("socket closed")
	assert.Equal(t, other, NotFound(other, "event"))
	assert.NotErrorIs(t, NotFound(fmt.Errorf("wrapped: %w", other), "x"), models.ErrNotFound)
}
