package weather

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// SnapshotCache is the read-through store the service memoizes provider
// responses in. *cache.TTLCache[Snapshot] satisfies it.
type SnapshotCache interface {
	Get(ctx context.Context, key string) (Snapshot, bool)
	Set(ctx context.Context, key string, value Snapshot)
}

// Service serves weather snapshots from cache, falling through to the provider on a miss.
type Service struct {
	provider Provider
	cache    SnapshotCache
	logger   zerolog.Logger

	// The cache has no single-flight of its own; concurrent misses for one
	// location inside this process share a single upstream call.
	group singleflight.Group
}

// NewService creates a new Service.
func NewService(provider Provider, cache SnapshotCache, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		cache:    cache,
		logger:   logger.With().Str("component", "weather").Logger(),
	}
}

// Current returns a cached snapshot for loc, fetching from the provider when
// nothing fresh is cached. Provider failures are returned wrapped in ErrUpstream
// and are never retried here.
func (s *Service) Current(ctx context.Context, loc Location) (Snapshot, error) {
	key := loc.Key()
	if snap, ok := s.cache.Get(ctx, key); ok {
		return snap, nil
	}

	return s.fetchShared(ctx, loc, true)
}

// Refresh fetches a new snapshot regardless of what is cached and stores it.
func (s *Service) Refresh(ctx context.Context, loc Location) (Snapshot, error) {
	return s.fetchShared(ctx, loc, false)
}

func (s *Service) fetchShared(ctx context.Context, loc Location, checkCache bool) (Snapshot, error) {
	key := loc.Key()

	// The shared fetch must not die with whichever caller happened to start
	// it; the provider's HTTP timeout bounds it instead.
	flightCtx := context.WithoutCancel(ctx)

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		if checkCache {
			// A flight that finished just before this one may have filled it.
			if snap, ok := s.cache.Get(flightCtx, key); ok {
				return snap, nil
			}
		}
		return s.fetchAndStore(flightCtx, loc)
	})
	if err != nil {
		return Snapshot{}, err
	}
	if shared {
		s.logger.Debug().Str("key", key).Msg("joined in-flight weather fetch")
	}
	return v.(Snapshot), nil
}

func (s *Service) fetchAndStore(ctx context.Context, loc Location) (Snapshot, error) {
	if s.provider == nil {
		return Snapshot{}, fmt.Errorf("%w: no weather provider configured", ErrUpstream)
	}

	start := time.Now()
	snap, err := s.provider.Fetch(ctx, loc)
	if err != nil {
		if !errors.Is(err, ErrUpstream) {
			err = fmt.Errorf("%w: %s: %v", ErrUpstream, s.provider.Name(), err)
		}
		s.logger.Error().Err(err).Str("provider", s.provider.Name()).Str("key", loc.Key()).Msg("weather fetch failed")
		return Snapshot{}, err
	}

	s.logger.Debug().
		Str("provider", s.provider.Name()).
		Str("key", loc.Key()).
		Dur("took", time.Since(start)).
		Msg("fetched weather snapshot")

	s.cache.Set(ctx, loc.Key(), snap)
	return snap, nil
}
