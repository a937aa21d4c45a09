package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"reelmates/internal/domain"
	"reelmates/internal/service"
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
	return domain.FriendRequest{}, context.Canceled
}

func (s *stubRequestsStore) AcceptRequest(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	if s.acceptRequestFunc != nil {
		return s.acceptRequestFunc(ctx, requestID, toUserID, when)
	}
	s.t.Fatalf("AcceptRequest called unexpectedly")
	return domain.FriendRequest{}, context.Canceled
}

func (s *stubRequestsStore) RefuseRequest(ctx context.Context, requestID, toUserID string, when time.Time) (domain.FriendRequest, error) {
	if s.refuseRequestFunc != nil {
		return s.refuseRequestFunc(ctx, requestID, toUserID, when)
	}
	s.t.Fatalf("RefuseRequest called unexpectedly")
	return domain.FriendRequest{}, context.Canceled
}

func (s *stubRequestsStore) CancelRequest(ctx context.Context, fromID, toID string, when time.Time) error {
	if s.cancelRequestFunc != nil {
		return s.cancelRequestFunc(ctx, fromID, toID, when)
	}
	s.t.Fatalf("CancelRequest called unexpectedly")
	return context.Canceled
}

func (s *stubRequestsStore) RemoveEdge(ctx context.Context, userID, friendID string) error {
	if s.removeEdgeFunc != nil {
		return s.removeEdgeFunc(ctx, userID, friendID)
	}
	s.t.Fatalf("RemoveEdge called unexpectedly")
	return context.Canceled
}

func (s *stubRequestsStore) AreFriends(ctx context.Context, a, b string) (bool, error) {
	if s.areFriendsFunc != nil {
		return s.areFriendsFunc(ctx, a, b)
	}
	s.t.Fatalf("AreFriends called unexpectedly")
	return false, context.Canceled
}

func (s *stubRequestsStore) ListFriends(ctx context.Context, userID string) ([]domain.UserSummary, error) {
	if s.listFriendsFunc != nil {
		return s.listFriendsFunc(ctx, userID)
	}
	s.t.Fatalf("ListFriends called unexpectedly")
	return nil, context.Canceled
}

func (s *stubRequestsStore) ListIncoming(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	if s.listIncomingFunc != nil {
		return s.listIncomingFunc(ctx, userID)
	}
	s.t.Fatalf("ListIncoming called unexpectedly")
	return nil, context.Canceled
}

func (s *stubRequestsStore) ListOutgoing(ctx context.Context, userID string) ([]domain.FriendRequest, error) {
	if s.listOutgoingFunc != nil {
		return s.listOutgoingFunc(ctx, userID)
	}
	s.t.Fatalf("ListOutgoing called unexpectedly")
	return nil, context.Canceled
}

type stubUsersByLoginStore struct {
	t *testing.T

	getUserByLoginFunc func(context.Context, string) (domain.UserWithPassword, error)
	getUserByIDFunc    func(context.Context, string) (domain.User, error)
}

func (s *stubUsersByLoginStore) CreateUser(context.Context, string, string, string, string) (domain.User, error) {
	s.t.Fatalf("CreateUser called unexpectedly")
	return domain.User{}, context.Canceled
}

func (s *stubUsersByLoginStore) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	if s.getUserByIDFunc != nil {
		return s.getUserByIDFunc(ctx, id)
	}
	s.t.Fatalf("GetUserByID called unexpectedly")
	return domain.User{}, context.Canceled
}

func (s *stubUsersByLoginStore) GetUserByLogin(ctx context.Context, login string) (domain.UserWithPassword, error) {
	if s.getUserByLoginFunc != nil {
		return s.getUserByLoginFunc(ctx, login)
	}
	s.t.Fatalf("GetUserByLogin called unexpectedly")
	return domain.UserWithPassword{}, context.Canceled
}

func (s *stubUsersByLoginStore) SetLastLogin(context.Context, string, time.Time) error {
	s.t.Fatalf("SetLastLogin called unexpectedly")
	return context.Canceled
}

func authedRequest(method, target, body, userID string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(context.WithValue(req.Context(), authUserKey, domain.User{ID: userID, Username: "viewer"}))
}

func TestFriendsSendRequestDuplicateConflict(t *testing.T) {
	users := &stubUsersByLoginStore{
		t: t,
		getUserByLoginFunc: func(_ context.Context, _ string) (domain.UserWithPassword, error) {
			return domain.UserWithPassword{User: domain.User{ID: "user-2", Username: "bruno", Status: domain.UserStatusActive}}, nil
		},
	}
	store := &stubRequestsStore{
		t: t,
		createRequestFunc: func(_ context.Context, _, _ string, _ time.Time) (domain.FriendRequest, error) {
			return domain.FriendRequest{}, domain.ErrDuplicateRequest
		},
	}

	api := &api{friendsSvc: &service.FriendsService{Users: users, Requests: store}}

	req := authedRequest(http.MethodPost, "/v1/friends/requests", `{"username":"bruno"}`, "user-1")
	rr := httptest.NewRecorder()
	api.handleFriendsSendRequest(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Error.Code != "duplicate_request" {
		t.Fatalf("unexpected error code: %s", envelope.Error.Code)
	}
}

func TestFriendsAcceptReturnsReconciledState(t *testing.T) {
	store := &stubRequestsStore{
		t: t,
		acceptRequestFunc: func(_ context.Context, requestID, toUserID string, _ time.Time) (domain.FriendRequest, error) {
			if requestID != "req-1" || toUserID != "user-1" {
				t.Fatalf("unexpected accept ids: %s %s", requestID, toUserID)
			}
			return domain.FriendRequest{ID: requestID, FromUser: "user-2", ToUser: "user-1", Status: domain.RequestStatusAccepted}, nil
		},
		areFriendsFunc: func(_ context.Context, _, _ string) (bool, error) { return true, nil },
	}
	users := &stubUsersByLoginStore{
		t: t,
		getUserByIDFunc: func(_ context.Context, id string) (domain.User, error) {
			return domain.User{ID: id, Status: domain.UserStatusActive}, nil
		},
	}

	api := &api{friendsSvc: &service.FriendsService{Users: users, Requests: store}}

	req := authedRequest(http.MethodPost, "/v1/friends/requests/req-1/accept", "", "user-1")
	req.SetPathValue("id", "req-1")
	rr := httptest.NewRecorder()
	api.handleFriendsAccept(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var resp relationshipStateResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.State != domain.RelationshipFriends {
		t.Fatalf("unexpected state: %s", resp.State)
	}
}

func TestFriendsAcceptAlreadyResolvedConflict(t *testing.T) {
	store := &stubRequestsStore{
		t: t,
		acceptRequestFunc: func(_ context.Context, _, _ string, _ time.Time) (domain.FriendRequest, error) {
			return domain.FriendRequest{}, domain.ErrAlreadyResolved
		},
	}

	api := &api{friendsSvc: &service.FriendsService{Users: &stubUsersByLoginStore{t: t}, Requests: store}}

	req := authedRequest(http.MethodPost, "/v1/friends/requests/req-1/accept", "", "user-1")
	req.SetPathValue("id", "req-1")
	rr := httptest.NewRecorder()
	api.handleFriendsAccept(rr, req)

	if rr.Code != http.StatusConflict {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestFriendsRefuseWrongOwnerUnauthorized(t *testing.T) {
	store := &stubRequestsStore{
		t: t,
		refuseRequestFunc: func(_ context.Context, _, _ string, _ time.Time) (domain.FriendRequest, error) {
			return domain.FriendRequest{}, domain.ErrUnauthorized
		},
	}

	api := &api{friendsSvc: &service.FriendsService{Users: &stubUsersByLoginStore{t: t}, Requests: store}}

	req := authedRequest(http.MethodPost, "/v1/friends/requests/req-1/refuse", "", "user-3")
	req.SetPathValue("id", "req-1")
	rr := httptest.NewRecorder()
	api.handleFriendsRefuse(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}

func TestFriendsOverview(t *testing.T) {
	store := &stubRequestsStore{
		t: t,
		listFriendsFunc: func(_ context.Context, userID string) ([]domain.UserSummary, error) {
			if userID != "user-1" {
				t.Fatalf("unexpected user id: %s", userID)
			}
			return []domain.UserSummary{{ID: "user-2", Username: "bruno"}}, nil
		},
		listIncomingFunc: func(_ context.Context, _ string) ([]domain.FriendRequest, error) {
			return []domain.FriendRequest{}, nil
		},
		listOutgoingFunc: func(_ context.Context, _ string) ([]domain.FriendRequest, error) {
			return []domain.FriendRequest{}, nil
		},
	}

	api := &api{friendsSvc: &service.FriendsService{Users: &stubUsersByLoginStore{t: t}, Requests: store}}

	req := authedRequest(http.MethodGet, "/v1/friends", "", "user-1")
	rr := httptest.NewRecorder()
	api.handleFriendsOverview(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	var overview domain.FriendsOverview
	if err := json.NewDecoder(rr.Body).Decode(&overview); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(overview.Friends) != 1 || overview.Friends[0].Username != "bruno" {
		t.Fatalf("unexpected overview: %+v", overview)
	}
}

func TestFriendsUnfriendNotFound(t *testing.T) {
	store := &stubRequestsStore{
		t: t,
		removeEdgeFunc: func(_ context.Context, _, _ string) error {
			return domain.ErrNotFound
		},
	}

	api := &api{friendsSvc: &service.FriendsService{Users: &stubUsersByLoginStore{t: t}, Requests: store}}

	req := authedRequest(http.MethodDelete, "/v1/friends/user-9", "", "user-1")
	req.SetPathValue("userID", "user-9")
	rr := httptest.NewRecorder()
	api.handleFriendsUnfriend(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
}
