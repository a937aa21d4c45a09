package service

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"reelmates/internal/domain"
)

type stubProfileSource struct {
	getProfileFunc func(context.Context, string) (domain.Profile, error)
}

func (s *stubProfileSource) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return s.getProfileFunc(ctx, userID)
}

type stubFriendLister struct {
	friends []domain.UserSummary
}

func (s *stubFriendLister) ListFriends(_ context.Context, _ string) ([]domain.UserSummary, error) {
	return s.friends, nil
}

type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func (c *memoryCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.entries[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(raw, dest)
}

func (c *memoryCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string][]byte{}
	}
	c.entries[key] = raw
	c.sets++
	return nil
}

func activityProfiles() map[string]domain.Profile {
	return map[string]domain.Profile{
		"user-2": {
			User:           domain.UserSummary{ID: "user-2", Username: "bruno"},
			FavoriteMovies: []string{"m1", "m2"},
			WatchStatuses:  map[string]domain.WatchStatus{"m3": domain.WatchStatusWatching},
		},
		"user-3": {
			User:           domain.UserSummary{ID: "user-3", Username: "carla"},
			FavoriteMovies: []string{"m2"},
			FavoritePeople: []string{"p1"},
		},
	}
}

func TestActivityServiceSnapshotAggregates(t *testing.T) {
	profiles := activityProfiles()
	svc := &ActivityService{
		Profiles: &stubProfileSource{
			getProfileFunc: func(_ context.Context, userID string) (domain.Profile, error) {
				p, ok := profiles[userID]
				if !ok {
					return domain.Profile{}, domain.ErrNotFound
				}
				return p, nil
			},
		},
		Friends: &stubFriendLister{friends: []domain.UserSummary{
			{ID: "user-2", Username: "bruno"},
			{ID: "user-3", Username: "carla"},
		}},
	}

	snap, err := svc.Snapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if want := []string{"m1", "m2"}; !reflect.DeepEqual(snap.FavoriteMovies, want) {
		t.Fatalf("favorite movies: got %v, want %v", snap.FavoriteMovies, want)
	}
	if want := []string{"m3"}; !reflect.DeepEqual(snap.Watching, want) {
		t.Fatalf("watching: got %v, want %v", snap.Watching, want)
	}
	if len(snap.Contributors) != 2 {
		t.Fatalf("contributors: %+v", snap.Contributors)
	}
}

func TestActivityServiceSkipsFailingFriend(t *testing.T) {
	profiles := activityProfiles()
	svc := &ActivityService{
		Profiles: &stubProfileSource{
			getProfileFunc: func(_ context.Context, userID string) (domain.Profile, error) {
				if userID == "user-3" {
					return domain.Profile{}, errors.New("profile store down")
				}
				return profiles[userID], nil
			},
		},
		Friends: &stubFriendLister{friends: []domain.UserSummary{
			{ID: "user-2", Username: "bruno"},
			{ID: "user-3", Username: "carla"},
		}},
	}

	snap, err := svc.Snapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if len(snap.Contributors) != 1 || snap.Contributors[0].ID != "user-2" {
		t.Fatalf("expected only the healthy friend to contribute: %+v", snap.Contributors)
	}
}

func TestActivityServiceUsesCache(t *testing.T) {
	calls := 0
	cache := &memoryCache{}
	svc := &ActivityService{
		Profiles: &stubProfileSource{
			getProfileFunc: func(_ context.Context, userID string) (domain.Profile, error) {
				calls++
				return activityProfiles()[userID], nil
			},
		},
		Friends:  &stubFriendLister{friends: []domain.UserSummary{{ID: "user-2", Username: "bruno"}}},
		Cache:    cache,
		CacheTTL: time.Minute,
	}

	first, err := svc.Snapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	second, err := svc.Snapshot(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected one profile fetch, got %d", calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("cached snapshot differs:\n%+v\n%+v", first, second)
	}
}

func TestActivityServiceSupersededRunDoesNotPublish(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	var once sync.Once

	cache := &memoryCache{}
	svc := &ActivityService{
		Profiles: &stubProfileSource{
			getProfileFunc: func(_ context.Context, userID string) (domain.Profile, error) {
				once.Do(func() { close(started) })
				<-block
				return activityProfiles()[userID], nil
			},
		},
		Friends:  &stubFriendLister{friends: []domain.UserSummary{{ID: "user-2", Username: "bruno"}}},
		Cache:    cache,
		CacheTTL: time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		_, err := svc.Snapshot(context.Background(), "user-1")
		errCh <- err
	}()

	<-started
	// A newer trigger for the same viewer supersedes the blocked run.
	svc.begin("user-1")
	close(block)

	if err := <-errCh; err == nil {
		t.Fatal("superseded run must not return a snapshot")
	}
	if cache.sets != 0 {
		t.Fatalf("superseded run must not write the cache, got %d writes", cache.sets)
	}
}
