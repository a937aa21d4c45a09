package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"reelmates/internal/auth"
	"reelmates/internal/domain"
)

type ProfilesStore interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	AddFavoriteMovie(ctx context.Context, userID, movieID string, when time.Time) error
	RemoveFavoriteMovie(ctx context.Context, userID, movieID string) error
	AddFavoritePerson(ctx context.Context, userID, personID string, when time.Time) error
	RemoveFavoritePerson(ctx context.Context, userID, personID string) error
	SetWatchStatus(ctx context.Context, userID, movieID string, status domain.WatchStatus, when time.Time) error
	SetRating(ctx context.Context, userID, movieID string, rating int, when time.Time) error
	ClearRating(ctx context.Context, userID, movieID string) error
	ListRatings(ctx context.Context, userID string) (map[string]int, error)
	SetComment(ctx context.Context, userID, movieID, text string, when time.Time) error
	ClearComment(ctx context.Context, userID, movieID string) error
	ListComments(ctx context.Context, userID string) (map[string]domain.MovieComment, error)
	ImportUser(ctx context.Context, rec domain.LegacyUserRecord, passwordHash string, when time.Time) (string, int, error)
}

type ProfileService struct {
	Store ProfilesStore
	Cache SnapshotInvalidator
	Log   *slog.Logger
	Now   func() time.Time
}

func (s *ProfileService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ProfileService) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	return s.Store.GetProfile(ctx, userID)
}

func (s *ProfileService) AddFavoriteMovie(ctx context.Context, userID, movieID string) error {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return domain.NewValidationError(map[string]string{"movie_id": "required"})
	}
	if err := s.Store.AddFavoriteMovie(ctx, userID, movieID, s.now()); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) RemoveFavoriteMovie(ctx context.Context, userID, movieID string) error {
	if err := s.Store.RemoveFavoriteMovie(ctx, userID, movieID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) AddFavoritePerson(ctx context.Context, userID, personID string) error {
	personID = strings.TrimSpace(personID)
	if personID == "" {
		return domain.NewValidationError(map[string]string{"person_id": "required"})
	}
	if err := s.Store.AddFavoritePerson(ctx, userID, personID, s.now()); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *ProfileService) RemoveFavoritePerson(ctx context.Context, userID, personID string) error {
	if err := s.Store.RemoveFavoritePerson(ctx, userID, personID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// SetWatchStatus normalizes the client-supplied status before storing it.
// Clearing to "none" is a valid transition from any bucket.
func (s *ProfileService) SetWatchStatus(ctx context.Context, userID, movieID, rawStatus string) (domain.WatchStatus, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return "", domain.NewValidationError(map[string]string{"movie_id": "required"})
	}
	status, ok := domain.NormalizeWatchStatus(rawStatus)
	if !ok {
		return "", domain.NewValidationError(map[string]string{"status": "unknown watch status"})
	}
	if err := s.Store.SetWatchStatus(ctx, userID, movieID, status, s.now()); err != nil {
		return "", err
	}
	s.invalidate(ctx, userID)
	return status, nil
}

// SetRating stores a 1 to 5 star rating for a title; a nil rating clears the
// entry. The full rating map comes back so the client can replace its copy,
// the way the previous system answered.
func (s *ProfileService) SetRating(ctx context.Context, userID, movieID string, rating *int) (map[string]int, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return nil, domain.NewValidationError(map[string]string{"movie_id": "required"})
	}

	if rating == nil {
		if err := s.Store.ClearRating(ctx, userID, movieID); err != nil {
			return nil, err
		}
	} else {
		if *rating < domain.RatingMin || *rating > domain.RatingMax {
			return nil, domain.NewValidationError(map[string]string{"rating": "must be between 1 and 5"})
		}
		if err := s.Store.SetRating(ctx, userID, movieID, *rating, s.now()); err != nil {
			return nil, err
		}
	}

	s.invalidate(ctx, userID)
	return s.Store.ListRatings(ctx, userID)
}

// SetComment stores a free-text note for a title; blank text clears the
// entry. Returns the full comment map.
func (s *ProfileService) SetComment(ctx context.Context, userID, movieID, text string) (map[string]domain.MovieComment, error) {
	movieID = strings.TrimSpace(movieID)
	if movieID == "" {
		return nil, domain.NewValidationError(map[string]string{"movie_id": "required"})
	}

	text = strings.TrimSpace(text)
	if len(text) > domain.CommentMaxLen {
		return nil, domain.NewValidationError(map[string]string{"comment": "too long"})
	}

	if text == "" {
		if err := s.Store.ClearComment(ctx, userID, movieID); err != nil {
			return nil, err
		}
	} else if err := s.Store.SetComment(ctx, userID, movieID, text, s.now()); err != nil {
		return nil, err
	}

	s.invalidate(ctx, userID)
	return s.Store.ListComments(ctx, userID)
}

// ImportReport summarises one batch of legacy documents.
type ImportReport struct {
	Imported       int      `json:"imported"`
	SkippedFriends int      `json:"skipped_friends"`
	Failed         []string `json:"failed,omitempty"`
}

// ImportUsers loads exported legacy documents. Each user gets a random
// password hash; imported accounts cannot sign in until a password is
// assigned out of band. A document that fails is recorded and the batch
// continues.
func (s *ProfileService) ImportUsers(ctx context.Context, recs []domain.LegacyUserRecord) (ImportReport, error) {
	report := ImportReport{}
	for _, rec := range recs {
		if strings.TrimSpace(rec.Username) == "" {
			report.Failed = append(report.Failed, fmt.Sprintf("%s: username missing", rec.LegacyID))
			continue
		}

		hash, err := auth.HashPassword(randomSecret())
		if err != nil {
			return report, err
		}

		userID, skipped, err := s.Store.ImportUser(ctx, rec, hash, s.now())
		if err != nil {
			report.Failed = append(report.Failed, fmt.Sprintf("%s: %v", rec.Username, err))
			if s.Log != nil {
				s.Log.Warn("legacy import failed", "username", rec.Username, "err", err)
			}
			continue
		}
		report.Imported++
		report.SkippedFriends += skipped
		s.invalidate(ctx, userID)
	}
	return report, nil
}

func (s *ProfileService) invalidate(ctx context.Context, userID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateViewer(ctx, userID); err != nil && s.Log != nil {
		s.Log.Warn("cache invalidation failed", "user_id", userID, "err", err)
	}
}

func randomSecret() string {
	var buf [24]byte
	_, _ = rand.Read(buf[:])
	return hex.EncodeToString(buf[:])
}
