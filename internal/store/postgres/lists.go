package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reelmates/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func (s *UsersStore) CreateList(ctx context.Context, userID, name, description string, typ domain.ListType, isPublic bool, when time.Time) (domain.CustomList, error) {
	const q = `
		INSERT INTO user_lists (user_id, name, description, list_type, is_public, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id
	`
	var idUUID pgtype.UUID
	err := s.pool.QueryRow(ctx, q, userID, name, nullIfEmpty(description), string(typ), isPublic, when).Scan(&idUUID)
	if err != nil {
		return domain.CustomList{}, fmt.Errorf("create list: %w", err)
	}
	return domain.CustomList{
		ID:          uuidOrEmpty(idUUID),
		Name:        name,
		Description: description,
		Type:        typ,
		IsPublic:    isPublic,
		Items:       []domain.ListItem{},
		CreatedAt:   when,
		UpdatedAt:   when,
	}, nil
}

func (s *UsersStore) ListLists(ctx context.Context, userID string) ([]domain.CustomList, error) {
	const q = `
		SELECT id, name, description, list_type, is_public, created_at, updated_at
		FROM user_lists
		WHERE user_id = $1
		ORDER BY created_at ASC
	`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	out := []domain.CustomList{}
	for rows.Next() {
		l, err := scanListRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}

	for i := range out {
		out[i].Items, err = s.listItems(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *UsersStore) GetList(ctx context.Context, userID, listID string) (domain.CustomList, error) {
	const q = `
		SELECT id, name, description, list_type, is_public, created_at, updated_at
		FROM user_lists
		WHERE id = $1 AND user_id = $2
	`
	l, err := scanListRow(s.pool.QueryRow(ctx, q, listID, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.CustomList{}, domain.ErrNotFound
		}
		return domain.CustomList{}, err
	}
	l.Items, err = s.listItems(ctx, l.ID)
	if err != nil {
		return domain.CustomList{}, err
	}
	return l, nil
}

func (s *UsersStore) UpdateList(ctx context.Context, userID, listID, name, description string, isPublic bool, when time.Time) error {
	const q = `
		UPDATE user_lists
		SET name = $3, description = $4, is_public = $5, updated_at = $6
		WHERE id = $1 AND user_id = $2
	`
	ct, err := s.pool.Exec(ctx, q, listID, userID, name, nullIfEmpty(description), isPublic, when)
	if err != nil {
		return fmt.Errorf("update list: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DeleteList removes the list and its items.
func (s *UsersStore) DeleteList(ctx context.Context, userID, listID string) error {
	const q = `DELETE FROM user_lists WHERE id = $1 AND user_id = $2`
	ct, err := s.pool.Exec(ctx, q, listID, userID)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// AddListItem appends an entity to a list the user owns. The ownership check
// doubles as the updated_at bump; zero rows means the list is not theirs.
func (s *UsersStore) AddListItem(ctx context.Context, userID, listID, entityID string, when time.Time) error {
	const touch = `UPDATE user_lists SET updated_at = $3 WHERE id = $1 AND user_id = $2`
	ct, err := s.pool.Exec(ctx, touch, listID, userID, when)
	if err != nil {
		return fmt.Errorf("add list item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	const q = `
		INSERT INTO user_list_items (list_id, entity_id, added_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (list_id, entity_id) DO NOTHING
	`
	if _, err := s.pool.Exec(ctx, q, listID, entityID, when); err != nil {
		return fmt.Errorf("add list item: %w", err)
	}
	return nil
}

func (s *UsersStore) RemoveListItem(ctx context.Context, userID, listID, entityID string, when time.Time) error {
	const touch = `UPDATE user_lists SET updated_at = $3 WHERE id = $1 AND user_id = $2`
	ct, err := s.pool.Exec(ctx, touch, listID, userID, when)
	if err != nil {
		return fmt.Errorf("remove list item: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	const q = `DELETE FROM user_list_items WHERE list_id = $1 AND entity_id = $2`
	if _, err := s.pool.Exec(ctx, q, listID, entityID); err != nil {
		return fmt.Errorf("remove list item: %w", err)
	}
	return nil
}

func (s *UsersStore) listItems(ctx context.Context, listID string) ([]domain.ListItem, error) {
	const q = `
		SELECT entity_id, added_at
		FROM user_list_items
		WHERE list_id = $1
		ORDER BY added_at ASC
	`
	rows, err := s.pool.Query(ctx, q, listID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	out := []domain.ListItem{}
	for rows.Next() {
		var it domain.ListItem
		if err := rows.Scan(&it.EntityID, &it.AddedAt); err != nil {
			return nil, fmt.Errorf("scan list item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

func scanListRow(row pgx.Row) (domain.CustomList, error) {
	var (
		l           domain.CustomList
		idUUID      pgtype.UUID
		description pgtype.Text
		listType    string
	)
	err := row.Scan(&idUUID, &l.Name, &description, &listType, &l.IsPublic, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return domain.CustomList{}, err
	}
	l.ID = uuidOrEmpty(idUUID)
	l.Description = textOrEmpty(description)
	l.Type = domain.ListType(listType)
	l.Items = []domain.ListItem{}
	return l, nil
}
