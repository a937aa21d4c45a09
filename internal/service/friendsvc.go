package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"reelmates/internal/domain"
)

type FriendRequestsStore interface {
	CreateRequest(ctx context.Context, fromID, toID string, when time.Time) (domain.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error)
	RefuseRequest(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error)
	CancelRequest(ctx context.Context, fromID, toID string, when time.Time) error
	RemoveEdge(ctx context.Context, userID, friendID string) error
	AreFriends(ctx context.Context, a, b string) (bool, error)
	ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error)
	ListIncoming(ctx context.Context, userID string) ([]domain.FriendRequest, error)
	ListOutgoing(ctx context.Context, userID string) ([]domain.FriendRequest, error)
}

// SnapshotInvalidator drops cached views after a graph mutation. Failures
// here must never fail the mutation itself.
type SnapshotInvalidator interface {
	InvalidateViewer(ctx context.Context, userID string) error
}

type FriendsService struct {
	Users    UsersStore
	Requests FriendRequestsStore
	Cache    SnapshotInvalidator
	Log      *slog.Logger
	Now      func() time.Time
}

func (s *FriendsService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *FriendsService) ListOverview(ctx context.Context, userID string) (domain.FriendsOverview, error) {
	friends, err := s.Requests.ListFriends(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	incoming, err := s.Requests.ListIncoming(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	outgoing, err := s.Requests.ListOutgoing(ctx, userID)
	if err != nil {
		return domain.FriendsOverview{}, err
	}
	return domain.FriendsOverview{Friends: friends, Incoming: incoming, Outgoing: outgoing}, nil
}

// SendRequest creates a pending request toward the user named by
// targetUsername. Self-targeting, disabled targets, existing edges and an
// already-pending request in either direction are rejected.
func (s *FriendsService) SendRequest(ctx context.Context, requesterID, targetUsername string) (domain.FriendRequest, error) {
	targetUsername = strings.TrimSpace(targetUsername)
	if targetUsername == "" {
		return domain.FriendRequest{}, domain.NewValidationError(map[string]string{"username": "required"})
	}

	target, err := s.Users.GetUserByLogin(ctx, targetUsername)
	if err != nil {
		return domain.FriendRequest{}, err
	}
	if target.ID == requesterID {
		return domain.FriendRequest{}, domain.ErrInvalidTarget
	}
	if target.Status == domain.UserStatusDisabled {
		return domain.FriendRequest{}, domain.ErrForbidden
	}

	req, err := s.Requests.CreateRequest(ctx, requesterID, target.ID, s.now())
	if err != nil {
		return domain.FriendRequest{}, err
	}
	req.User = domain.UserSummary{ID: target.ID, Username: target.Username, FullName: target.FullName}
	return req, nil
}

// AcceptRequest resolves a pending request addressed to userID and returns
// the relationship both parties now share.
func (s *FriendsService) AcceptRequest(ctx context.Context, userID, requestID string) (domain.RelationshipState, error) {
	req, err := s.Requests.AcceptRequest(ctx, requestID, userID, s.now())
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, req.FromUser, req.ToUser)
	return s.Relationship(ctx, userID, req.FromUser)
}

func (s *FriendsService) RefuseRequest(ctx context.Context, userID, requestID string) (domain.RelationshipState, error) {
	req, err := s.Requests.RefuseRequest(ctx, requestID, userID, s.now())
	if err != nil {
		return "", err
	}
	s.invalidate(ctx, req.FromUser, req.ToUser)
	return s.Relationship(ctx, userID, req.FromUser)
}

// CancelRequest withdraws the viewer's pending request toward targetID.
func (s *FriendsService) CancelRequest(ctx context.Context, userID, targetID string) (domain.RelationshipState, error) {
	if err := s.Requests.CancelRequest(ctx, userID, targetID, s.now()); err != nil {
		return "", err
	}
	s.invalidate(ctx, userID, targetID)
	return s.Relationship(ctx, userID, targetID)
}

// Unfriend removes the edge between the viewer and friendID.
func (s *FriendsService) Unfriend(ctx context.Context, userID, friendID string) (domain.RelationshipState, error) {
	if userID == friendID {
		return "", domain.ErrInvalidTarget
	}
	if err := s.Requests.RemoveEdge(ctx, userID, friendID); err != nil {
		return "", err
	}
	s.invalidate(ctx, userID, friendID)
	return s.Relationship(ctx, userID, friendID)
}

// Relationship derives the viewer's relationship to the subject from current
// store state.
func (s *FriendsService) Relationship(ctx context.Context, viewerID, subjectID string) (domain.RelationshipState, error) {
	if viewerID == subjectID {
		return domain.RelationshipSelf, nil
	}
	if _, err := s.Users.GetUserByID(ctx, subjectID); err != nil {
		return "", err
	}

	friends, err := s.Requests.AreFriends(ctx, viewerID, subjectID)
	if err != nil {
		return "", err
	}
	subjectFriends := []domain.FriendRef{}
	if friends {
		subjectFriends = append(subjectFriends, domain.FriendRef{ID: viewerID})
	}

	incoming, err := s.Requests.ListIncoming(ctx, viewerID)
	if err != nil {
		return "", err
	}
	outgoing, err := s.Requests.ListOutgoing(ctx, viewerID)
	if err != nil {
		return "", err
	}

	return domain.DeriveRelationship(viewerID, subjectID, subjectFriends, incoming, outgoing), nil
}

func (s *FriendsService) invalidate(ctx context.Context, userIDs ...string) {
	if s.Cache == nil {
		return
	}
	for _, id := range userIDs {
		if err := s.Cache.InvalidateViewer(ctx, id); err != nil && s.Log != nil {
			s.Log.Warn("cache invalidation failed", "user_id", id, "err", err)
		}
	}
}
