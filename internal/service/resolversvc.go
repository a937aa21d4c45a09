package service

import (
	"context"
	"log/slog"

	"reelmates/internal/catalog"

	"golang.org/x/sync/errgroup"
)

type CatalogClient interface {
	Movie(ctx context.Context, id string) (catalog.Movie, error)
	Person(ctx context.Context, id string) (catalog.Person, error)
}

const resolveFetchLimit = 8

// ResolverService hydrates catalog ids into display entities. Lookups run
// concurrently; an id that fails to resolve is dropped from the output rather
// than failing the batch, and output order follows input order.
type ResolverService struct {
	Catalog   CatalogClient
	PersonCap int
	Log       *slog.Logger
}

func (s *ResolverService) ResolveMovies(ctx context.Context, ids []string) ([]catalog.Movie, error) {
	results := make([]*catalog.Movie, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveFetchLimit)
	for i, id := range ids {
		if id == "" {
			continue
		}
		g.Go(func() error {
			m, err := s.Catalog.Movie(gctx, id)
			if err != nil {
				if s.Log != nil {
					s.Log.Debug("movie resolve failed", "movie_id", id, "err", err)
				}
				return nil
			}
			results[i] = &m
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.Movie, 0, len(ids))
	for _, m := range results {
		if m != nil {
			out = append(out, *m)
		}
	}
	return out, nil
}

// ResolvePeople resolves at most PersonCap ids; anything past the cap is
// silently dropped.
func (s *ResolverService) ResolvePeople(ctx context.Context, ids []string) ([]catalog.Person, error) {
	if s.PersonCap > 0 && len(ids) > s.PersonCap {
		ids = ids[:s.PersonCap]
	}
	results := make([]*catalog.Person, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(resolveFetchLimit)
	for i, id := range ids {
		if id == "" {
			continue
		}
		g.Go(func() error {
			p, err := s.Catalog.Person(gctx, id)
			if err != nil {
				if s.Log != nil {
					s.Log.Debug("person resolve failed", "person_id", id, "err", err)
				}
				return nil
			}
			results[i] = &p
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]catalog.Person, 0, len(ids))
	for _, p := range results {
		if p != nil {
			out = append(out, *p)
		}
	}
	return out, nil
}
