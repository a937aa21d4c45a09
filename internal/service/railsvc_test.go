package service

import (
	"context"
	"testing"
	"time"

	"reelmates/internal/catalog"
	"reelmates/internal/domain"
)

type stubRecommender struct {
	calls     int
	lastQuery catalog.RecommendationQuery
	rails     map[string][]catalog.Movie
}

func (s *stubRecommender) Recommendations(_ context.Context, q catalog.RecommendationQuery) (map[string][]catalog.Movie, error) {
	s.calls++
	s.lastQuery = q
	return s.rails, nil
}

type stubActivity struct {
	snap domain.ActivitySnapshot
}

func (s *stubActivity) Snapshot(_ context.Context, _ string) (domain.ActivitySnapshot, error) {
	return s.snap, nil
}

type stubMovieResolver struct{}

func (stubMovieResolver) ResolveMovies(_ context.Context, ids []string) ([]catalog.Movie, error) {
	out := make([]catalog.Movie, 0, len(ids))
	for _, id := range ids {
		out = append(out, catalog.Movie{ID: id, Title: "title-" + id})
	}
	return out, nil
}

type stubPersonResolver struct {
	names map[string]string
}

func (s *stubPersonResolver) ResolvePeople(_ context.Context, ids []string) ([]catalog.Person, error) {
	out := make([]catalog.Person, 0, len(ids))
	for _, id := range ids {
		if name, ok := s.names[id]; ok {
			out = append(out, catalog.Person{ID: id, Name: name})
		}
	}
	return out, nil
}

func railByCategory(t *testing.T, rails []domain.Rail, category string) domain.Rail {
	t.Helper()
	for _, r := range rails {
		if r.Category == category {
			return r
		}
	}
	t.Fatalf("rail %s missing", category)
	return domain.Rail{}
}

func TestRailsServiceAnonymousLocksPersonalisedRails(t *testing.T) {
	rec := &stubRecommender{rails: map[string][]catalog.Movie{
		"new": {{ID: "m1", Title: "One"}},
	}}
	svc := &RailsService{
		Catalog:  rec,
		Activity: &stubActivity{},
		Movies:   stubMovieResolver{},
		Profiles: &stubProfileSource{},
		Year:     2025,
		Limit:    10,
	}

	rails, err := svc.Rails(context.Background(), "", "", 0)
	if err != nil {
		t.Fatalf("Rails: %v", err)
	}
	if len(rails) != len(domain.DefaultRailCategories(2025)) {
		t.Fatalf("expected all categories present, got %d", len(rails))
	}

	for _, category := range []string{domain.RailActorFavorite, domain.RailLikedByFriends} {
		rail := railByCategory(t, rails, category)
		if !rail.SignInRequired || rail.Message == "" {
			t.Fatalf("%s must render locked for anonymous viewers: %+v", category, rail)
		}
		if len(rail.Items) != 0 {
			t.Fatalf("%s must carry no items when locked", category)
		}
	}

	for _, c := range rec.lastQuery.Categories {
		if domain.RailRequiresViewer(c) {
			t.Fatalf("personalised category %s must not be requested anonymously", c)
		}
	}
}

func TestRailsServiceYearAndFormatParams(t *testing.T) {
	rec := &stubRecommender{rails: map[string][]catalog.Movie{}}
	svc := &RailsService{
		Catalog:  rec,
		Activity: &stubActivity{},
		Movies:   stubMovieResolver{},
		Profiles: &stubProfileSource{},
		Year:     2025,
	}

	rails, err := svc.Rails(context.Background(), "", "series", 2024)
	if err != nil {
		t.Fatalf("Rails: %v", err)
	}

	railByCategory(t, rails, "top-2024")
	railByCategory(t, rails, "top-2024-popular")
	if rec.lastQuery.Year != 2024 || rec.lastQuery.Type != "series" {
		t.Fatalf("query params: got year=%d type=%q", rec.lastQuery.Year, rec.lastQuery.Type)
	}
}

func TestRailsServicePassesResolvedActorNames(t *testing.T) {
	rec := &stubRecommender{rails: map[string][]catalog.Movie{}}
	svc := &RailsService{
		Catalog:  rec,
		Activity: &stubActivity{},
		Movies:   stubMovieResolver{},
		People:   &stubPersonResolver{names: map[string]string{"p1": "Tim Robbins"}},
		Profiles: &stubProfileSource{
			getProfileFunc: func(_ context.Context, _ string) (domain.Profile, error) {
				return domain.Profile{
					User:           domain.UserSummary{ID: "user-1"},
					FavoritePeople: []string{"p1", "p-unknown"},
				}, nil
			},
		},
		Year: 2025,
	}

	if _, err := svc.Rails(context.Background(), "user-1", "", 0); err != nil {
		t.Fatalf("Rails: %v", err)
	}
	if len(rec.lastQuery.Actors) != 1 || rec.lastQuery.Actors[0] != "Tim Robbins" {
		t.Fatalf("actor seed: got %v", rec.lastQuery.Actors)
	}
}

func TestRailsServiceLikedByFriendsExcludesOwnFavorites(t *testing.T) {
	profile := domain.Profile{
		User:           domain.UserSummary{ID: "user-1", Username: "alice"},
		FavoriteMovies: []string{"m1"},
	}
	activity := &stubActivity{snap: domain.ActivitySnapshot{
		FavoriteMovies: []string{"m1", "m2", "m3"},
		LikedBy: map[string][]string{
			"m2": {"bruno"},
			"m3": {"bruno", "carla"},
		},
	}}
	svc := &RailsService{
		Catalog:  &stubRecommender{rails: map[string][]catalog.Movie{}},
		Activity: activity,
		Movies:   stubMovieResolver{},
		Profiles: &stubProfileSource{
			getProfileFunc: func(_ context.Context, _ string) (domain.Profile, error) { return profile, nil },
		},
		Year:  2025,
		Limit: 10,
	}

	rails, err := svc.Rails(context.Background(), "user-1", "", 0)
	if err != nil {
		t.Fatalf("Rails: %v", err)
	}

	rail := railByCategory(t, rails, domain.RailLikedByFriends)
	if rail.SignInRequired {
		t.Fatal("signed-in viewer must not see a locked rail")
	}
	if len(rail.Items) != 2 {
		t.Fatalf("own favorites must be excluded: %+v", rail.Items)
	}
	if rail.Items[0].ID != "m2" || len(rail.Items[1].LikedBy) != 2 {
		t.Fatalf("unexpected items: %+v", rail.Items)
	}
}

func TestRailsServiceCachesAssembledRails(t *testing.T) {
	rec := &stubRecommender{rails: map[string][]catalog.Movie{}}
	svc := &RailsService{
		Catalog:  rec,
		Activity: &stubActivity{},
		Movies:   stubMovieResolver{},
		Profiles: &stubProfileSource{
			getProfileFunc: func(_ context.Context, _ string) (domain.Profile, error) {
				return domain.Profile{User: domain.UserSummary{ID: "user-1"}}, nil
			},
		},
		Cache:    &memoryCache{},
		CacheTTL: time.Minute,
		Year:     2025,
	}

	if _, err := svc.Rails(context.Background(), "user-1", "", 0); err != nil {
		t.Fatalf("Rails: %v", err)
	}
	if _, err := svc.Rails(context.Background(), "user-1", "", 0); err != nil {
		t.Fatalf("Rails: %v", err)
	}

	if rec.calls != 1 {
		t.Fatalf("expected one catalog call, got %d", rec.calls)
	}
}
