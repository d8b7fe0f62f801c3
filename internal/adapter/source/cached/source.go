package cached

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"user-browser-service/internal/adapter/cache"
	domain "user-browser-service/internal/domain/user"
	"user-browser-service/internal/usecase/userlist"
)

// CachedSource implements userlist.Source with caching support.
// It wraps a remote source and a cache implementation.
type CachedSource struct {
	remote userlist.Source
	cache  cache.PageCache
	log    *zap.Logger
	group  singleflight.Group
}

// NewCachedSource creates a new instance of CachedSource.
// If cache is nil, every call goes to the remote source.
func NewCachedSource(remote userlist.Source, cache cache.PageCache, log *zap.Logger) userlist.Source {
	return &CachedSource{
		remote: remote,
		cache:  cache,
		log:    log,
	}
}

// FetchPage retrieves a page using the Cache-Aside pattern. Fresh requests
// skip the cache read but still repopulate it.
func (s *CachedSource) FetchPage(ctx context.Context, req domain.PageRequest) ([]domain.Record, error) {
	if s.cache != nil && !req.Fresh {
		records, found, err := s.cache.Get(ctx, req)
		if err != nil {
			s.log.Warn("cache get error, falling back to remote", zap.Int("page", req.Page), zap.Error(err))
		} else if found {
			s.log.Debug("page retrieved from cache", zap.Int("page", req.Page))
			return records, nil
		}
	}

	// Use single-flight to prevent concurrent identical fetches
	key := fmt.Sprintf("%s:%d:%d:%t", req.Seed, req.Size, req.Page, req.Fresh)
	result, err, shared := s.group.Do(key, func() (any, error) {
		records, err := s.remote.FetchPage(ctx, req)
		if err != nil {
			return nil, err
		}

		if s.cache != nil {
			if err := s.cache.Set(ctx, req, records); err != nil {
				s.log.Warn("failed to cache page", zap.Int("page", req.Page), zap.Error(err))
			}
		}

		return records, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		s.log.Debug("page fetch shared with concurrent caller", zap.Int("page", req.Page))
	}

	return result.([]domain.Record), nil
}
