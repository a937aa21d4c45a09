package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelmates/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersStore struct {
	pool *pgxpool.Pool
}

func NewUsersStore(pool *pgxpool.Pool) *UsersStore {
	return &UsersStore{pool: pool}
}

func (s *UsersStore) CreateUser(ctx context.Context, email, username, fullName, passwordHash string) (domain.User, error) {
	const q = `
		INSERT INTO users (email, username, full_name, password_hash)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, username, full_name, status, created_at, updated_at, last_login_at
	`

	u, err := scanUserRow(s.pool.QueryRow(ctx, q, nullIfEmpty(email), username, nullIfEmpty(fullName), passwordHash))
	if err != nil {
		return domain.User{}, mapUserWriteError(err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	const q = `
		SELECT id, email, username, full_name, status, created_at, updated_at, last_login_at
		FROM users
		WHERE id = $1
	`

	u, err := scanUserRow(s.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.User{}, domain.ErrNotFound
		}
		return domain.User{}, fmt.Errorf("get user by id: %w", err)
	}
	return u, nil
}

func (s *UsersStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	const q = `
		SELECT id, email, username, full_name, password_hash, status, created_at, updated_at, last_login_at
		FROM users
		WHERE username = $1 OR (email IS NOT NULL AND email = $1)
		ORDER BY (username = $1) DESC
		LIMIT 1
	`

	var (
		u           domain.UserWithPassword
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		fullName    pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, q, login).Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&fullName,
		&u.PasswordHash,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserWithPassword{}, domain.ErrNotFound
		}
		return domain.UserWithPassword{}, fmt.Errorf("get user by login: %w", err)
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.FullName = textOrEmpty(fullName)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

func (s *UsersStore) SetLastLogin(ctx context.Context, userID string, when time.Time) error {
	const q = `UPDATE users SET last_login_at = $2 WHERE id = $1`
	if _, err := s.pool.Exec(ctx, q, userID, when); err != nil {
		return fmt.Errorf("set last login: %w", err)
	}
	return nil
}

// GetProfile assembles the snapshot the aggregator and profile endpoints
// consume: identity, friend list, favorites and watch statuses.
func (s *UsersStore) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	u, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	p := domain.Profile{
		User:           domain.UserSummary{ID: u.ID, Username: u.Username, FullName: u.FullName},
		Friends:        []domain.UserSummary{},
		FavoriteMovies: []string{},
		FavoritePeople: []string{},
		WatchStatuses:  map[string]domain.WatchStatus{},
	}

	const friendsQ = `
		SELECT u.id, u.username, u.full_name
		FROM friend_edges e
		JOIN users u ON u.id = CASE WHEN e.user_a = $1 THEN e.user_b ELSE e.user_a END
		WHERE e.user_a = $1 OR e.user_b = $1
		ORDER BY u.username ASC
	`
	rows, err := s.pool.Query(ctx, friendsQ, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list friends: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var idUUID pgtype.UUID
		var username string
		var fullName pgtype.Text
		if err := rows.Scan(&idUUID, &username, &fullName); err != nil {
			return domain.Profile{}, fmt.Errorf("scan friend: %w", err)
		}
		p.Friends = append(p.Friends, domain.UserSummary{ID: uuidOrEmpty(idUUID), Username: username, FullName: textOrEmpty(fullName)})
	}
	if err := rows.Err(); err != nil {
		return domain.Profile{}, fmt.Errorf("list friends: %w", err)
	}

	p.FavoriteMovies, err = s.listIDs(ctx, `SELECT movie_id FROM favorite_movies WHERE user_id = $1 ORDER BY added_at ASC`, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list favorite movies: %w", err)
	}
	p.FavoritePeople, err = s.listIDs(ctx, `SELECT person_id FROM favorite_people WHERE user_id = $1 ORDER BY added_at ASC`, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list favorite people: %w", err)
	}

	const watchQ = `SELECT movie_id, status FROM watch_statuses WHERE user_id = $1`
	wrows, err := s.pool.Query(ctx, watchQ, userID)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("list watch statuses: %w", err)
	}
	defer wrows.Close()
	for wrows.Next() {
		var movieID, status string
		if err := wrows.Scan(&movieID, &status); err != nil {
			return domain.Profile{}, fmt.Errorf("scan watch status: %w", err)
		}
		p.WatchStatuses[movieID] = domain.WatchStatus(status)
	}
	if err := wrows.Err(); err != nil {
		return domain.Profile{}, fmt.Errorf("list watch statuses: %w", err)
	}

	p.Ratings, err = s.ListRatings(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}
	p.Comments, err = s.ListComments(ctx, userID)
	if err != nil {
		return domain.Profile{}, err
	}

	return p, nil
}

func (s *UsersStore) AddFavoriteMovie(ctx context.Context, userID, movieID string, when time.Time) error {
	const q = `
		INSERT INTO favorite_movies (user_id, movie_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, movie_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, q, userID, movieID, when); err != nil {
		return fmt.Errorf("add favorite movie: %w", err)
	}
	return nil
}

func (s *UsersStore) RemoveFavoriteMovie(ctx context.Context, userID, movieID string) error {
	const q = `DELETE FROM favorite_movies WHERE user_id = $1 AND movie_id = $2`
	ct, err := s.pool.Exec(ctx, q, userID, movieID)
	if err != nil {
		return fmt.Errorf("remove favorite movie: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *UsersStore) AddFavoritePerson(ctx context.Context, userID, personID string, when time.Time) error {
	const q = `
		INSERT INTO favorite_people (user_id, person_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, person_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, q, userID, personID, when); err != nil {
		return fmt.Errorf("add favorite person: %w", err)
	}
	return nil
}

func (s *UsersStore) RemoveFavoritePerson(ctx context.Context, userID, personID string) error {
	const q = `DELETE FROM favorite_people WHERE user_id = $1 AND person_id = $2`
	ct, err := s.pool.Exec(ctx, q, userID, personID)
	if err != nil {
		return fmt.Errorf("remove favorite person: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SetWatchStatus upserts the bucket for a movie; WatchStatusNone clears the
// entry instead of storing it.
func (s *UsersStore) SetWatchStatus(ctx context.Context, userID, movieID string, status domain.WatchStatus, when time.Time) error {
	if status == domain.WatchStatusNone {
		const del = `DELETE FROM watch_statuses WHERE user_id = $1 AND movie_id = $2`
		if _, err := s.pool.Exec(ctx, del, userID, movieID); err != nil {
			return fmt.Errorf("clear watch status: %w", err)
		}
		return nil
	}

	const q = `
		INSERT INTO watch_statuses (user_id, movie_id, status, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, movie_id) DO UPDATE SET status = $3, updated_at = $4
	`
	if _, err := s.pool.Exec(ctx, q, userID, movieID, string(status), when); err != nil {
		return fmt.Errorf("set watch status: %w", err)
	}
	return nil
}

func (s *UsersStore) listIDs(ctx context.Context, query, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

func scanUserRow(row pgx.Row) (domain.User, error) {
	var (
		u           domain.User
		idUUID      pgtype.UUID
		emailText   pgtype.Text
		fullName    pgtype.Text
		lastLoginTS pgtype.Timestamptz
	)
	err := row.Scan(
		&idUUID,
		&emailText,
		&u.Username,
		&fullName,
		&u.Status,
		&u.CreatedAt,
		&u.UpdatedAt,
		&lastLoginTS,
	)
	if err != nil {
		return domain.User{}, err
	}

	u.ID = uuidOrEmpty(idUUID)
	u.Email = textOrEmpty(emailText)
	u.FullName = textOrEmpty(fullName)
	u.LastLoginAt = timestamptzPtr(lastLoginTS)
	return u, nil
}

func mapUserWriteError(err error) error {
	var pgerr *pgconn.PgError
	if errors.As(err, &pgerr) && pgerr.Code == "23505" {
		switch pgerr.ConstraintName {
		case "users_username_uq", "users_username_key":
			return domain.ErrUsernameTaken
		case "users_email_uq", "users_email_key":
			return domain.ErrEmailTaken
		}
	}
	return fmt.Errorf("write user: %w", err)
}
