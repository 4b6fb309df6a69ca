package profile

import (
	"testing"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-repository-cache/cache"
	"github.com/goliatone/go-repository-cache/repositorycache"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestRepository_CacheWrapsStore(t *testing.T) {
	db := newTestDB(t)
	applyDDL(t, db)

	repo, err := NewRepository(RepositoryConfig{DB: db}, WithCache(true))
	require.NoError(t, err)

	_, ok := repo.profileStore.(*repositorycache.CachedRepository[*Record])
	require.True(t, ok)
}

func TestRepository_CacheDoesNotDoubleWrap(t *testing.T) {
	db := newTestDB(t)
	applyDDL(t, db)

	base := repository.NewRepository(db, repository.ModelHandlers[*Record]{
		NewRecord: func() *Record { return &Record{} },
		GetID: func(rec *Record) uuid.UUID {
			if rec == nil {
				return uuid.Nil
			}
			return rec.ID
		},
		SetID: func(rec *Record, id uuid.UUID) {
			if rec != nil {
				rec.ID = id
			}
		},
	})
	cacheService, err := cache.NewCacheService(cache.DefaultConfig())
	require.NoError(t, err)
	cached := repositorycache.New(base, cacheService, cache.NewDefaultKeySerializer())

	repo, err := NewRepository(RepositoryConfig{Repository: cached}, WithCache(true))
	require.NoError(t, err)

	stored, ok := repo.profileStore.(*repositorycache.CachedRepository[*Record])
	require.True(t, ok)
	require.Same(t, cached, stored)
}
