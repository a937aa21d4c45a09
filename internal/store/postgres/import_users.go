package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"reelmates/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// ImportUser upserts one exported user document inside a transaction. The
// legacy id is stored so friend references from other documents can be
// resolved once their users exist; refs that resolve to nobody are skipped
// and counted.
func (s *UsersStore) ImportUser(ctx context.Context, rec domain.LegacyUserRecord, passwordHash string, when time.Time) (userID string, skippedFriends int, err error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return "", 0, fmt.Errorf("import user: %w", err)
	}
	defer tx.Rollback(ctx)

	const upsertQ = `
		INSERT INTO users (email, username, full_name, password_hash, legacy_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE
		SET email = COALESCE(EXCLUDED.email, users.email),
		    full_name = COALESCE(EXCLUDED.full_name, users.full_name),
		    legacy_id = COALESCE(EXCLUDED.legacy_id, users.legacy_id),
		    updated_at = $6
		RETURNING id
	`
	var idUUID pgtype.UUID
	err = tx.QueryRow(ctx, upsertQ,
		nullIfEmpty(rec.Email), rec.Username, nullIfEmpty(rec.FullName),
		passwordHash, nullIfEmpty(rec.LegacyID), when,
	).Scan(&idUUID)
	if err != nil {
		return "", 0, mapUserWriteError(err)
	}
	userID = uuidOrEmpty(idUUID)

	for _, movieID := range rec.FavoriteMovies {
		const q = `
			INSERT INTO favorite_movies (user_id, movie_id, added_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, movie_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, q, userID, movieID, when); err != nil {
			return "", 0, fmt.Errorf("import favorite movie: %w", err)
		}
	}
	for _, personID := range rec.FavoritePeople {
		const q = `
			INSERT INTO favorite_people (user_id, person_id, added_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (user_id, person_id) DO NOTHING
		`
		if _, err := tx.Exec(ctx, q, userID, personID, when); err != nil {
			return "", 0, fmt.Errorf("import favorite person: %w", err)
		}
	}

	for movieID, raw := range rec.WatchStatuses {
		status, ok := domain.NormalizeWatchStatus(raw)
		if !ok || status == domain.WatchStatusNone {
			continue
		}
		const q = `
			INSERT INTO watch_statuses (user_id, movie_id, status, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, movie_id) DO UPDATE SET status = $3, updated_at = $4
		`
		if _, err := tx.Exec(ctx, q, userID, movieID, string(status), when); err != nil {
			return "", 0, fmt.Errorf("import watch status: %w", err)
		}
	}

	for movieID, raw := range rec.MovieRatings {
		rating := int(raw)
		if rating < domain.RatingMin || rating > domain.RatingMax {
			continue
		}
		const q = `
			INSERT INTO movie_ratings (user_id, movie_id, rating, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, movie_id) DO UPDATE SET rating = $3, updated_at = $4
		`
		if _, err := tx.Exec(ctx, q, userID, movieID, rating, when); err != nil {
			return "", 0, fmt.Errorf("import rating: %w", err)
		}
	}

	for movieID, c := range rec.MovieComments {
		text := strings.TrimSpace(c.Text)
		if text == "" || len(text) > domain.CommentMaxLen {
			continue
		}
		updatedAt := when
		if ts, err := time.Parse(time.RFC3339, c.UpdatedAt); err == nil {
			updatedAt = ts
		}
		const q = `
			INSERT INTO movie_comments (user_id, movie_id, body, updated_at)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, movie_id) DO UPDATE SET body = $3, updated_at = $4
		`
		if _, err := tx.Exec(ctx, q, userID, movieID, text, updatedAt); err != nil {
			return "", 0, fmt.Errorf("import comment: %w", err)
		}
	}

	for _, ref := range rec.Friends {
		if ref.ID == "" {
			skippedFriends++
			continue
		}
		friendID, err := lookupByLegacyID(ctx, tx, ref.ID)
		if errors.Is(err, domain.ErrNotFound) {
			skippedFriends++
			continue
		}
		if err != nil {
			return "", 0, err
		}
		if friendID == userID {
			skippedFriends++
			continue
		}
		const q = `
			INSERT INTO friend_edges (user_a, user_b, created_at)
			VALUES (LEAST($1::uuid, $2::uuid), GREATEST($1::uuid, $2::uuid), $3)
			ON CONFLICT (user_a, user_b) DO NOTHING
		`
		if _, err := tx.Exec(ctx, q, userID, friendID, when); err != nil {
			return "", 0, fmt.Errorf("import friend edge: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return "", 0, fmt.Errorf("import user: %w", err)
	}
	return userID, skippedFriends, nil
}

func lookupByLegacyID(ctx context.Context, tx pgx.Tx, legacyID string) (string, error) {
	const q = `SELECT id FROM users WHERE legacy_id = $1`
	var idUUID pgtype.UUID
	if err := tx.QueryRow(ctx, q, legacyID).Scan(&idUUID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", fmt.Errorf("resolve legacy id: %w", err)
	}
	return uuidOrEmpty(idUUID), nil
}
