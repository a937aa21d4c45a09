package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"reelmates/internal/domain"
)

type ListsStore interface {
	CreateList(ctx context.Context, userID, name, description string, typ domain.ListType, isPublic bool, when time.Time) (domain.CustomList, error)
	ListLists(ctx context.Context, userID string) ([]domain.CustomList, error)
	GetList(ctx context.Context, userID, listID string) (domain.CustomList, error)
	UpdateList(ctx context.Context, userID, listID, name, description string, isPublic bool, when time.Time) error
	DeleteList(ctx context.Context, userID, listID string) error
	AddListItem(ctx context.Context, userID, listID, entityID string, when time.Time) error
	RemoveListItem(ctx context.Context, userID, listID, entityID string, when time.Time) error
}

// ListsService manages user-curated lists of movies or people.
type ListsService struct {
	Store ListsStore
	Cache SnapshotInvalidator
	Log   *slog.Logger
	Now   func() time.Time
}

// defaultListName backfills unnamed lists, the same placeholder legacy
// documents were repaired with.
const defaultListName = "Custom List"

func (s *ListsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *ListsService) Create(ctx context.Context, userID, name, description, rawType string, isPublic bool) (domain.CustomList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultListName
	}

	l, err := s.Store.CreateList(ctx, userID, name, strings.TrimSpace(description), domain.NormalizeListType(rawType), isPublic, s.now())
	if err != nil {
		return domain.CustomList{}, err
	}
	s.invalidate(ctx, userID)
	return l, nil
}

func (s *ListsService) Lists(ctx context.Context, userID string) ([]domain.CustomList, error) {
	return s.Store.ListLists(ctx, userID)
}

func (s *ListsService) Update(ctx context.Context, userID, listID, name, description string, isPublic bool) (domain.CustomList, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultListName
	}

	if err := s.Store.UpdateList(ctx, userID, listID, name, strings.TrimSpace(description), isPublic, s.now()); err != nil {
		return domain.CustomList{}, err
	}
	s.invalidate(ctx, userID)
	return s.Store.GetList(ctx, userID, listID)
}

func (s *ListsService) Delete(ctx context.Context, userID, listID string) error {
	if err := s.Store.DeleteList(ctx, userID, listID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	return nil
}

// AddItem appends an entity and returns the updated list. Re-adding an item
// already present is a no-op, not an error.
func (s *ListsService) AddItem(ctx context.Context, userID, listID, entityID string) (domain.CustomList, error) {
	entityID = strings.TrimSpace(entityID)
	if entityID == "" {
		return domain.CustomList{}, domain.NewValidationError(map[string]string{"entity_id": "required"})
	}

	if err := s.Store.AddListItem(ctx, userID, listID, entityID, s.now()); err != nil {
		return domain.CustomList{}, err
	}
	s.invalidate(ctx, userID)
	return s.Store.GetList(ctx, userID, listID)
}

func (s *ListsService) RemoveItem(ctx context.Context, userID, listID, entityID string) (domain.CustomList, error) {
	if err := s.Store.RemoveListItem(ctx, userID, listID, strings.TrimSpace(entityID), s.now()); err != nil {
		return domain.CustomList{}, err
	}
	s.invalidate(ctx, userID)
	return s.Store.GetList(ctx, userID, listID)
}

func (s *ListsService) invalidate(ctx context.Context, userID string) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateViewer(ctx, userID); err != nil && s.Log != nil {
		s.Log.Warn("cache invalidation failed", "user_id", userID, "err", err)
	}
}
