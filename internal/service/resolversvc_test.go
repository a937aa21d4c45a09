package service

import (
	"context"
	"sync"
	"testing"

	"reelmates/internal/catalog"
	"reelmates/internal/domain"
)

type stubCatalog struct {
	movieFunc  func(context.Context, string) (catalog.Movie, error)
	personFunc func(context.Context, string) (catalog.Person, error)
}

func (s *stubCatalog) Movie(ctx context.Context, id string) (catalog.Movie, error) {
	return s.movieFunc(ctx, id)
}

func (s *stubCatalog) Person(ctx context.Context, id string) (catalog.Person, error) {
	return s.personFunc(ctx, id)
}

func TestResolverServiceMoviesKeepsInputOrder(t *testing.T) {
	svc := &ResolverService{
		Catalog: &stubCatalog{
			movieFunc: func(_ context.Context, id string) (catalog.Movie, error) {
				return catalog.Movie{ID: id, Title: "title-" + id}, nil
			},
		},
	}

	movies, err := svc.ResolveMovies(context.Background(), []string{"m3", "m1", "m2"})
	if err != nil {
		t.Fatalf("ResolveMovies: %v", err)
	}
	if len(movies) != 3 {
		t.Fatalf("expected 3 movies, got %d", len(movies))
	}
	for i, want := range []string{"m3", "m1", "m2"} {
		if movies[i].ID != want {
			t.Fatalf("position %d: got %s, want %s", i, movies[i].ID, want)
		}
	}
}

func TestResolverServiceMoviesDropsFailures(t *testing.T) {
	svc := &ResolverService{
		Catalog: &stubCatalog{
			movieFunc: func(_ context.Context, id string) (catalog.Movie, error) {
				if id == "m2" {
					return catalog.Movie{}, domain.ErrNotFound
				}
				return catalog.Movie{ID: id}, nil
			},
		},
	}

	movies, err := svc.ResolveMovies(context.Background(), []string{"m1", "m2", "m3"})
	if err != nil {
		t.Fatalf("ResolveMovies: %v", err)
	}
	if len(movies) != 2 || movies[0].ID != "m1" || movies[1].ID != "m3" {
		t.Fatalf("unexpected result: %+v", movies)
	}
}

func TestResolverServicePeopleRespectsCap(t *testing.T) {
	var mu sync.Mutex
	fetched := map[string]bool{}
	svc := &ResolverService{
		PersonCap: 2,
		Catalog: &stubCatalog{
			personFunc: func(_ context.Context, id string) (catalog.Person, error) {
				mu.Lock()
				fetched[id] = true
				mu.Unlock()
				return catalog.Person{ID: id}, nil
			},
		},
	}

	people, err := svc.ResolvePeople(context.Background(), []string{"p1", "p2", "p3", "p4"})
	if err != nil {
		t.Fatalf("ResolvePeople: %v", err)
	}
	if len(people) != 2 {
		t.Fatalf("expected cap of 2, got %d", len(people))
	}
	if fetched["p3"] || fetched["p4"] {
		t.Fatalf("ids past the cap must not be fetched: %v", fetched)
	}
}
