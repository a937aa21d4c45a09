package service

import (
	"context"
	"log/slog"
	"time"

	"reelmates/internal/cache"
	"reelmates/internal/catalog"
	"reelmates/internal/domain"
)

type RecommendationClient interface {
	Recommendations(ctx context.Context, q catalog.RecommendationQuery) (map[string][]catalog.Movie, error)
}

type ActivitySource interface {
	Snapshot(ctx context.Context, viewerID string) (domain.ActivitySnapshot, error)
}

type MovieResolver interface {
	ResolveMovies(ctx context.Context, ids []string) ([]catalog.Movie, error)
}

type PersonResolver interface {
	ResolvePeople(ctx context.Context, ids []string) ([]catalog.Person, error)
}

// RailsService assembles the home-page rails. Catalog-driven rails come from
// one batched recommendations call; the liked-by-friends rail is built from
// the viewer's activity snapshot. Personalised rails render locked for
// anonymous viewers instead of disappearing.
type RailsService struct {
	Catalog  RecommendationClient
	Activity ActivitySource
	Movies   MovieResolver
	People   PersonResolver
	Profiles ProfileSource
	Cache    SnapshotCache
	CacheTTL time.Duration
	Year     int
	Limit    int
	Log      *slog.Logger
	Now      func() time.Time
}

const signInMessage = "Sign in to see this"

func (s *RailsService) defaultYear() int {
	if s.Year > 0 {
		return s.Year
	}
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	return now().UTC().Year()
}

// Rails returns the assembled rail list for the viewer; viewerID is empty
// for anonymous requests. format filters by title type ("movie", "series" or
// empty for both) and year overrides the default top-of-year rails.
func (s *RailsService) Rails(ctx context.Context, viewerID, format string, year int) ([]domain.Rail, error) {
	if year <= 0 {
		year = s.defaultYear()
	}
	categories := domain.DefaultRailCategories(year)

	var profile domain.Profile
	if viewerID != "" {
		p, err := s.Profiles.GetProfile(ctx, viewerID)
		if err != nil {
			return nil, err
		}
		profile = p
	}

	favKey := domain.ContentKey(append(append([]string{}, profile.FavoriteMovies...), profile.FavoritePeople...))
	key := cache.RailsKey(viewerID, format, year, favKey)
	if s.Cache != nil {
		var cached []domain.Rail
		hit, err := s.Cache.GetJSON(ctx, key, &cached)
		if err != nil && s.Log != nil {
			s.Log.Warn("rails cache read failed", "viewer_id", viewerID, "err", err)
		}
		if hit {
			return cached, nil
		}
	}

	catalogCategories := make([]string, 0, len(categories))
	for _, c := range categories {
		if c == domain.RailLikedByFriends {
			continue
		}
		if viewerID == "" && domain.RailRequiresViewer(c) {
			continue
		}
		catalogCategories = append(catalogCategories, c)
	}

	q := catalog.RecommendationQuery{
		Categories: catalogCategories,
		Type:       format,
		Year:       year,
		Limit:      s.Limit,
	}
	if viewerID != "" {
		q.Favorites = profile.FavoriteMovies
		q.Actors = s.favoriteActorNames(ctx, profile.FavoritePeople)
		q.Exclude = profile.FavoriteMovies
	}

	byCategory, err := s.Catalog.Recommendations(ctx, q)
	if err != nil {
		return nil, err
	}

	rails := make([]domain.Rail, 0, len(categories))
	for _, category := range categories {
		if viewerID == "" && domain.RailRequiresViewer(category) {
			rails = append(rails, domain.Rail{
				Category:       category,
				Items:          []domain.RailItem{},
				SignInRequired: true,
				Message:        signInMessage,
			})
			continue
		}

		if category == domain.RailLikedByFriends {
			rail, err := s.likedByFriendsRail(ctx, viewerID, profile)
			if err != nil {
				return nil, err
			}
			rails = append(rails, rail)
			continue
		}

		rails = append(rails, domain.Rail{Category: category, Items: railItems(byCategory[category])})
	}

	if s.Cache != nil {
		if err := s.Cache.SetJSON(ctx, key, rails, s.CacheTTL); err != nil && s.Log != nil {
			s.Log.Warn("rails cache write failed", "viewer_id", viewerID, "err", err)
		}
	}
	return rails, nil
}

// favoriteActorNames resolves the viewer's favorite people into names for
// the actor-favorite rail. Resolution failures degrade to an empty seed.
func (s *RailsService) favoriteActorNames(ctx context.Context, personIDs []string) []string {
	if len(personIDs) == 0 || s.People == nil {
		return nil
	}
	people, err := s.People.ResolvePeople(ctx, personIDs)
	if err != nil {
		if s.Log != nil {
			s.Log.Warn("actor resolution failed", "err", err)
		}
		return nil
	}
	names := make([]string, 0, len(people))
	for _, p := range people {
		if p.Name != "" {
			names = append(names, p.Name)
		}
	}
	return names
}

// likedByFriendsRail hydrates the snapshot's favorite movies, minus titles
// the viewer already favorited, and annotates each with who liked it.
func (s *RailsService) likedByFriendsRail(ctx context.Context, viewerID string, profile domain.Profile) (domain.Rail, error) {
	snap, err := s.Activity.Snapshot(ctx, viewerID)
	if err != nil {
		return domain.Rail{}, err
	}

	own := make(map[string]struct{}, len(profile.FavoriteMovies))
	for _, id := range profile.FavoriteMovies {
		own[id] = struct{}{}
	}

	ids := make([]string, 0, len(snap.FavoriteMovies))
	for _, id := range snap.FavoriteMovies {
		if _, mine := own[id]; !mine {
			ids = append(ids, id)
		}
	}
	if s.Limit > 0 && len(ids) > s.Limit {
		ids = ids[:s.Limit]
	}

	movies, err := s.Movies.ResolveMovies(ctx, ids)
	if err != nil {
		return domain.Rail{}, err
	}

	items := railItems(movies)
	for i := range items {
		items[i].LikedBy = snap.LikedBy[items[i].ID]
	}
	return domain.Rail{Category: domain.RailLikedByFriends, Items: items}, nil
}

func railItems(movies []catalog.Movie) []domain.RailItem {
	items := make([]domain.RailItem, 0, len(movies))
	for _, m := range movies {
		items = append(items, domain.RailItem{
			ID:     m.ID,
			Title:  m.Title,
			Year:   m.Year,
			Type:   m.Type,
			Poster: m.PosterURL,
			Rating: m.Rating,
		})
	}
	return items
}
