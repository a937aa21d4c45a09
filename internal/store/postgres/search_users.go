package postgres

import (
	"context"
	"fmt"
	"strings"

	"reelmates/internal/domain"

	"github.com/jackc/pgx/v5/pgtype"
)

// SearchUsers matches on username or full name, prefix matches ranked before
// substring matches.
func (s *UsersStore) SearchUsers(ctx context.Context, query string, limit int, excludeUserID string) ([]domain.UserSummary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.UserSummary{}, nil
	}
	if limit <= 0 || limit > 50 {
		limit = 20
	}

	const q = `
		SELECT id, username, full_name
		FROM users
		WHERE status = 'active'
		  AND ($3 = '' OR id::text != $3)
		  AND (username ILIKE '%' || $1 || '%' OR full_name ILIKE '%' || $1 || '%')
		ORDER BY (username ILIKE $1 || '%') DESC, username ASC
		LIMIT $2
	`
	rows, err := s.pool.Query(ctx, q, query, limit, excludeUserID)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	defer rows.Close()

	out := []domain.UserSummary{}
	for rows.Next() {
		var idUUID pgtype.UUID
		var username string
		var fullName pgtype.Text
		if err := rows.Scan(&idUUID, &username, &fullName); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, domain.UserSummary{ID: uuidOrEmpty(idUUID), Username: username, FullName: textOrEmpty(fullName)})
	}
	return out, rows.Err()
}
