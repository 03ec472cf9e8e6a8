package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/timetable-ga-api/pkg/errors"
)

func TestCacheRepositoryKeyPrefix(t *testing.T) {
	repo := NewCacheRepository(nil, "tga:")
	assert.Equal(t, "tga:timetable:1", repo.key("timetable:1"))
	assert.Equal(t, "tga:timetable:1", repo.key("tga:timetable:1"))
	assert.Equal(t, "timetable:*", NewCacheRepository(nil, "").key("timetable:*"))
}

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, "tga:")
	ctx := context.Background()

	var dest map[string]string
	require.ErrorIs(t, repo.Get(ctx, "timetable:1", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "timetable:1", map[string]string{"a": "b"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "timetable:*"))
	assert.NoError(t, repo.Ping(ctx))
}
