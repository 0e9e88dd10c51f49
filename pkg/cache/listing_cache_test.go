package cache

import (
	"context"
	"testing"

	"github.com/dataweston/Dinewith/internal/data/entity"
	"github.com/dataweston/Dinewith/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWithoutAddrIsNoop(t *testing.T) {
	c, closeFn := New(utils.RedisConfig{}, zap.NewNop())
	require.NoError(t, closeFn())

	_, ok := c.(NoopCache)
	require.True(t, ok)

	listing := &entity.ListingWithHost{Listing: entity.Listing{Slug: "pasta-night-abc123"}}
	listing.ID = uuid.New()

	require.NoError(t, c.Set(context.Background(), listing))
	got, err := c.GetByID(context.Background(), listing.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, c.Invalidate(context.Background(), &listing.Listing))
}

func TestKeys(t *testing.T) {
	id := uuid.MustParse("7f8b1c2a-4d5e-4f60-8a9b-0c1d2e3f4a5b")
	assert.Equal(t, "listing:id:7f8b1c2a-4d5e-4f60-8a9b-0c1d2e3f4a5b", idKey(id))
	assert.Equal(t, "listing:slug:pasta-night", slugKey("pasta-night"))
}
