package postgres

import (
	"context"
	"fmt"
	"time"

	"reelmates/internal/domain"
)

func (s *UsersStore) SetRating(ctx context.Context, userID, movieID string, rating int, when time.Time) error {
	const q = `
		INSERT INTO movie_ratings (user_id, movie_id, rating, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET rating = $3, updated_at = $4
	`
	if _, err := s.pool.Exec(ctx, q, userID, movieID, rating, when); err != nil {
		return fmt.Errorf("set rating: %w", err)
	}
	return nil
}

// ClearRating removes the entry; clearing an absent rating is not an error.
func (s *UsersStore) ClearRating(ctx context.Context, userID, movieID string) error {
	const q = `DELETE FROM movie_ratings WHERE user_id = $1 AND movie_id = $2`
	if _, err := s.pool.Exec(ctx, q, userID, movieID); err != nil {
		return fmt.Errorf("clear rating: %w", err)
	}
	return nil
}

func (s *UsersStore) ListRatings(ctx context.Context, userID string) (map[string]int, error) {
	const q = `SELECT movie_id, rating FROM movie_ratings WHERE user_id = $1`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var movieID string
		var rating int
		if err := rows.Scan(&movieID, &rating); err != nil {
			return nil, fmt.Errorf("scan rating: %w", err)
		}
		out[movieID] = rating
	}
	return out, rows.Err()
}

func (s *UsersStore) SetComment(ctx context.Context, userID, movieID, text string, when time.Time) error {
	const q = `
		INSERT INTO movie_comments (user_id, movie_id, body, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET body = $3, updated_at = $4
	`
	if _, err := s.pool.Exec(ctx, q, userID, movieID, text, when); err != nil {
		return fmt.Errorf("set comment: %w", err)
	}
	return nil
}

func (s *UsersStore) ClearComment(ctx context.Context, userID, movieID string) error {
	const q = `DELETE FROM movie_comments WHERE user_id = $1 AND movie_id = $2`
	if _, err := s.pool.Exec(ctx, q, userID, movieID); err != nil {
		return fmt.Errorf("clear comment: %w", err)
	}
	return nil
}

func (s *UsersStore) ListComments(ctx context.Context, userID string) (map[string]domain.MovieComment, error) {
	const q = `SELECT movie_id, body, updated_at FROM movie_comments WHERE user_id = $1`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()

	out := map[string]domain.MovieComment{}
	for rows.Next() {
		var movieID string
		var c domain.MovieComment
		if err := rows.Scan(&movieID, &c.Text, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		out[movieID] = c
	}
	return out, rows.Err()
}
