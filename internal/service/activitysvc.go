package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reelmates/internal/cache"
	"reelmates/internal/domain"

	"golang.org/x/sync/errgroup"
)

type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
}

type FriendLister interface {
	ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error)
}

type SnapshotCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

const profileFetchLimit = 8

// ActivityService rebuilds the viewer's friend-activity snapshot. A rebuild
// fans out one profile fetch per friend and reduces the results with
// BuildSnapshot. Per viewer, only the most recent trigger may publish: an
// older in-flight run is cancelled and its result discarded.
type ActivityService struct {
	Profiles ProfileSource
	Friends  FriendLister
	Cache    SnapshotCache
	CacheTTL time.Duration
	Log      *slog.Logger

	mu   sync.Mutex
	gens map[string]uint64
}

// Snapshot returns the viewer's current snapshot, from cache when the friend
// set is unchanged and the entry has not expired.
func (s *ActivityService) Snapshot(ctx context.Context, viewerID string) (domain.ActivitySnapshot, error) {
	friends, err := s.Friends.ListFriends(ctx, viewerID)
	if err != nil {
		return domain.ActivitySnapshot{}, err
	}

	ids := make([]string, 0, len(friends))
	for _, f := range friends {
		ids = append(ids, f.ID)
	}
	key := cache.SnapshotKey(viewerID, domain.ContentKey(ids))

	if s.Cache != nil {
		var cached domain.ActivitySnapshot
		hit, err := s.Cache.GetJSON(ctx, key, &cached)
		if err != nil && s.Log != nil {
			s.Log.Warn("snapshot cache read failed", "viewer_id", viewerID, "err", err)
		}
		if hit {
			return cached, nil
		}
	}

	snap, err := s.rebuild(ctx, viewerID, friends)
	if err != nil {
		return domain.ActivitySnapshot{}, err
	}

	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, key, snap, s.CacheTTL); err != nil && s.Log != nil {
			s.Log.Warn("snapshot cache write failed", "viewer_id", viewerID, "err", err)
		}
	}
	return snap, nil
}

func (s *ActivityService) rebuild(ctx context.Context, viewerID string, friends []domain.UserSummary) (domain.ActivitySnapshot, error) {
	gen := s.begin(viewerID)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		profiles []domain.Profile
	)

	g, gctx := errgroup.WithContext(runCtx)
	g.SetLimit(profileFetchLimit)
	for _, friend := range friends {
		g.Go(func() error {
			// One slow or broken profile must not sink the whole
			// snapshot; failures are logged and the friend skipped.
			p, err := s.Profiles.GetProfile(gctx, friend.ID)
			if err != nil {
				if s.Log != nil {
					s.Log.Warn("profile fetch failed", "viewer_id", viewerID, "friend_id", friend.ID, "err", err)
				}
				return nil
			}
			if !s.current(viewerID, gen) {
				cancel()
				return nil
			}
			mu.Lock()
			profiles = append(profiles, p)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return domain.ActivitySnapshot{}, err
	}
	if !s.current(viewerID, gen) {
		return domain.ActivitySnapshot{}, context.Canceled
	}

	return domain.BuildSnapshot(profiles), nil
}

// begin registers a new rebuild for the viewer and returns its generation.
// Any older run observes the bump and stops publishing.
func (s *ActivityService) begin(viewerID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gens == nil {
		s.gens = map[string]uint64{}
	}
	s.gens[viewerID]++
	return s.gens[viewerID]
}

func (s *ActivityService) current(viewerID string, gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[viewerID] == gen
}
