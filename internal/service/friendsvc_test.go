package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"reelmates/internal/domain"
)

type stubRequestsStore struct {
	t *testing.T

	createRequestFunc func(context.Context, string, string, time.Time) (domain.FriendRequest, error)
	acceptRequestFunc func(context.Context, string, string, time.Time) (domain.FriendRequest, error)
	refuseRequestFunc func(context.Context, string, string, time.Time) (domain.FriendRequest, error)
	cancelRequestFunc func(context.Context, string, string, time.Time) error
	removeEdgeFunc    func(context.Context, string, string) error
	areFriendsFunc    func(context.Context, string, string) (bool, error)
	listFriendsFunc   func(context.Context, string) ([]domain.UserSummary, error)
	listIncomingFunc  func(context.Context, string) ([]domain.FriendRequest, error)
	listOutgoingFunc  func(context.Context, string) ([]domain.FriendRequest, error)
}

func (s *stubRequestsStore) CreateRequest(ctx context.Context, fromID, toID string, when time.Time) (domain.FriendRequest, error) {
	if s.createRequestFunc != nil {
		return s.createRequestFunc(ctx, fromID, toID, when)
	}
	s.t.Fatalf("CreateRequest called unexpectedly")
	return domain.FriendRequest{}, errors.New("unexpected call")
}

func (s *stubRequestsStore) AcceptRequest(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	if s.acceptRequestFunc != nil {
		return s.acceptRequestFunc(ctx, requestID, toUserID, when)
	}
	s.t.Fatalf("AcceptRequest called unexpectedly")
	return domain.FriendRequest{}, errors.New("unexpected call")
}

func (s *stubRequestsStore) RefuseRequest(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	if s.refuseRequestFunc != nil {
		return s.refuseRequestFunc(ctx, requestID, toUserID, when)
	}
	s.t.Fatalf("RefuseRequest called unexpectedly")
	return domain.FriendRequest{}, errors.New("unexpected call")
}

func (s *stubRequestsStore) CancelRequest(ctx context.Context, fromID, toID string, when time.Time) error {
	if s.cancelRequestFunc != nil {
		return s.cancelRequestFunc(ctx, fromID, toID, when)
	}
	s.t.Fatalf("CancelRequest called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubRequestsStore) RemoveEdge(ctx context.Context, userID, friendID string) error {
	if s.removeEdgeFunc != nil {
		return s.removeEdgeFunc(ctx, userID, friendID)
	}
	s.t.Fatalf("RemoveEdge called unexpectedly")
	return errors.New("unexpected call")
}

func (s *stubRequestsStore) AreFriends(ctx context.Context, a, b string) (bool, error) {
	if s.areFriendsFunc != nil {
		return s.areFriendsFunc(ctx, a, b)
	}
	s.t.Fatalf("AreFriends called unexpectedly")
	return false, errors.New("unexpected call")
}

func (s *stubRequestsStore) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	if s.listFriendsFunc != nil {
		return s.listFriendsFunc(ctx, userID)
	}
	s.t.Fatalf("ListFriends called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubRequestsStore) ListIncoming(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	if s.listIncomingFunc != nil {
		return s.listIncomingFunc(ctx, userID)
	}
	s.t.Fatalf("ListIncoming called unexpectedly")
	return nil, errors.New("unexpected call")
}

func (s *stubRequestsStore) ListOutgoing(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	if s.listOutgoingFunc != nil {
		return s.listOutgoingFunc(ctx, userID)
	}
	s.t.Fatalf("ListOutgoing called unexpectedly")
	return nil, errors.New("unexpected call")
}

type recordingInvalidator struct {
	users []string
}

func (r *recordingInvalidator) InvalidateViewer(_ context.Context, userID string) error {
	r.users = append(r.users, userID)
	return nil
}

func TestFriendsServiceSendRequestSelfTarget(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		getUserByLoginFunc: func(_ context.Context, login string) (domain.UserWithPassword, error) {
			return domain.UserWithPassword{User: domain.User{ID: "user-1", Username: login, Status: domain.UserStatusActive}}, nil
		},
	}

	svc := &FriendsService{Users: users, Requests: &stubRequestsStore{t: t}}

	_, err := svc.SendRequest(context.Background(), "user-1", "myself")
	if !errors.Is(err, domain.ErrInvalidTarget) {
		t.Fatalf("expected invalid target, got %v", err)
	}
}

func TestFriendsServiceSendRequestDuplicate(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		getUserByLoginFunc: func(_ context.Context, _ string) (domain.UserWithPassword, error) {
			return domain.UserWithPassword{User: domain.User{ID: "user-2", Username: "bruno", Status: domain.UserStatusActive}}, nil
		},
	}
	requests := &stubRequestsStore{
		t: t,
		createRequestFunc: func(_ context.Context, fromID, toID string, _ time.Time) (domain.FriendRequest, error) {
			if fromID != "user-1" || toID != "user-2" {
				t.Fatalf("unexpected pair: %s -> %s", fromID, toID)
			}
			return domain.FriendRequest{}, domain.ErrDuplicateRequest
		},
	}

	svc := &FriendsService{Users: users, Requests: requests}

	_, err := svc.SendRequest(context.Background(), "user-1", "bruno")
	if !errors.Is(err, domain.ErrDuplicateRequest) {
		t.Fatalf("expected duplicate request, got %v", err)
	}
}

func TestFriendsServiceSendRequestFillsTarget(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	users := &stubUsersStore{
		t: t,
		getUserByLoginFunc: func(_ context.Context, _ string) (domain.UserWithPassword, error) {
			return domain.UserWithPassword{User: domain.User{ID: "user-2", Username: "bruno", FullName: "Bruno B", Status: domain.UserStatusActive}}, nil
		},
	}
	requests := &stubRequestsStore{
		t: t,
		createRequestFunc: func(_ context.Context, fromID, toID string, when time.Time) (domain.FriendRequest, error) {
			if !when.Equal(now) {
				t.Fatalf("unexpected time: %s", when)
			}
			return domain.FriendRequest{ID: "req-1", FromUser: fromID, ToUser: toID, Status: domain.RequestStatusPending, CreatedAt: when}, nil
		},
	}

	svc := &FriendsService{Users: users, Requests: requests, Now: func() time.Time { return now }}

	req, err := svc.SendRequest(context.Background(), "user-1", "bruno")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if req.User.ID != "user-2" || req.User.FullName != "Bruno B" {
		t.Fatalf("target summary not filled: %+v", req.User)
	}
}

func TestFriendsServiceAcceptInvalidatesBothParties(t *testing.T) {
	requests := &stubRequestsStore{
		t: t,
		acceptRequestFunc: func(_ context.Context, requestID, toUserID string, _ time.Time) (domain.FriendRequest, error) {
			if requestID != "req-1" || toUserID != "user-2" {
				t.Fatalf("unexpected accept args: %s %s", requestID, toUserID)
			}
			return domain.FriendRequest{ID: requestID, FromUser: "user-1", ToUser: "user-2", Status: domain.RequestStatusAccepted}, nil
		},
		areFriendsFunc: func(_ context.Context, a, b string) (bool, error) { return true, nil },
	}
	users := &stubUsersStore{
		t: t,
		getUserByIDFunc: func(_ context.Context, id string) (domain.User, error) {
			return domain.User{ID: id, Status: domain.UserStatusActive}, nil
		},
	}
	inval := &recordingInvalidator{}

	svc := &FriendsService{Users: users, Requests: requests, Cache: inval}

	state, err := svc.AcceptRequest(context.Background(), "user-2", "req-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != domain.RelationshipFriends {
		t.Fatalf("expected friends state, got %s", state)
	}
	if len(inval.users) != 2 {
		t.Fatalf("expected both parties invalidated, got %v", inval.users)
	}
}

func TestFriendsServiceAcceptAlreadyResolved(t *testing.T) {
	requests := &stubRequestsStore{
		t: t,
		acceptRequestFunc: func(_ context.Context, _, _ string, _ time.Time) (domain.FriendRequest, error) {
			return domain.FriendRequest{}, domain.ErrAlreadyResolved
		},
	}

	svc := &FriendsService{Users: &stubUsersStore{t: t}, Requests: requests}

	_, err := svc.AcceptRequest(context.Background(), "user-2", "req-1")
	if !errors.Is(err, domain.ErrAlreadyResolved) {
		t.Fatalf("expected already resolved, got %v", err)
	}
}

func TestFriendsServiceRelationshipStates(t *testing.T) {
	users := &stubUsersStore{
		t: t,
		getUserByIDFunc: func(_ context.Context, id string) (domain.User, error) {
			return domain.User{ID: id, Status: domain.UserStatusActive}, nil
		},
	}

	cases := []struct {
		name     string
		friends  bool
		incoming []domain.FriendRequest
		outgoing []domain.FriendRequest
		want     domain.RelationshipState
	}{
		{name: "strangers", want: domain.RelationshipStrangers},
		{name: "friends", friends: true, want: domain.RelationshipFriends},
		{
			name:     "incoming",
			incoming: []domain.FriendRequest{{FromUser: "user-2", ToUser: "user-1", Status: domain.RequestStatusPending}},
			want:     domain.RelationshipIncomingPending,
		},
		{
			name:     "outgoing",
			outgoing: []domain.FriendRequest{{FromUser: "user-1", ToUser: "user-2", Status: domain.RequestStatusPending}},
			want:     domain.RelationshipOutgoingPending,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requests := &stubRequestsStore{
				t:                t,
				areFriendsFunc:   func(_ context.Context, _, _ string) (bool, error) { return tc.friends, nil },
				listIncomingFunc: func(_ context.Context, _ string) ([]domain.FriendRequest, error) { return tc.incoming, nil },
				listOutgoingFunc: func(_ context.Context, _ string) ([]domain.FriendRequest, error) { return tc.outgoing, nil },
			}
			svc := &FriendsService{Users: users, Requests: requests}

			state, err := svc.Relationship(context.Background(), "user-1", "user-2")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if state != tc.want {
				t.Fatalf("got %s, want %s", state, tc.want)
			}
		})
	}
}

func TestFriendsServiceRelationshipSelf(t *testing.T) {
	svc := &FriendsService{Users: &stubUsersStore{t: t}, Requests: &stubRequestsStore{t: t}}

	state, err := svc.Relationship(context.Background(), "user-1", "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state != domain.RelationshipSelf {
		t.Fatalf("got %s, want self", state)
	}
}

func TestFriendsServiceUnfriendSelf(t *testing.T) {
	svc := &FriendsService{Users: &stubUsersStore{t: t}, Requests: &stubRequestsStore{t: t}}

	if _, err := svc.Unfriend(context.Background(), "user-1", "user-1"); !errors.Is(err, domain.ErrInvalidTarget) {
		t.Fatalf("expected invalid target, got %v", err)
	}
}
