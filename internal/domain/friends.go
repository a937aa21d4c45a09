package domain

import (
	"encoding/json"
	"strings"
	"time"
)

type UserSummary struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name,omitempty"`
}

type RequestStatus string

const (
	RequestStatusPending   RequestStatus = "pending"
	RequestStatusAccepted  RequestStatus = "accepted"
	RequestStatusRefused   RequestStatus = "refused"
	RequestStatusCancelled RequestStatus = "cancelled"
)

// Resolved reports whether the request reached a terminal status. Terminal
// requests are never reopened; a new request must be created afresh.
func (s RequestStatus) Resolved() bool {
	return s == RequestStatusAccepted || s == RequestStatusRefused || s == RequestStatusCancelled
}

type FriendRequest struct {
	ID         string        `json:"id"`
	FromUser   string        `json:"from_user"`
	ToUser     string        `json:"to_user"`
	User       UserSummary   `json:"user"`
	Status     RequestStatus `json:"status"`
	CreatedAt  time.Time     `json:"created_at"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
}

type FriendsOverview struct {
	Friends  []UserSummary   `json:"friends"`
	Incoming []FriendRequest `json:"incoming_requests"`
	Outgoing []FriendRequest `json:"outgoing_requests"`
}

// RelationshipState is derived, never stored. Exactly one value holds for a
// (viewer, subject) pair at any instant.
type RelationshipState string

const (
	RelationshipSelf            RelationshipState = "self"
	RelationshipStrangers       RelationshipState = "strangers"
	RelationshipOutgoingPending RelationshipState = "outgoing-pending"
	RelationshipIncomingPending RelationshipState = "incoming-pending"
	RelationshipFriends         RelationshipState = "friends"
)

// FriendRef is a friend-list entry. Documents migrated from the legacy
// datastore hold either a bare id string or an embedded object keyed by
// "_id", "id" or "user_id"; both shapes decode to the identifier.
type FriendRef struct {
	ID string
}

func (f *FriendRef) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		f.ID = strings.TrimSpace(s)
		return nil
	}

	var obj struct {
		MongoID string `json:"_id"`
		ID      string `json:"id"`
		UserID  string `json:"user_id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	for _, candidate := range []string{obj.MongoID, obj.ID, obj.UserID} {
		if v := strings.TrimSpace(candidate); v != "" {
			f.ID = v
			return nil
		}
	}
	return nil
}

func (f FriendRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.ID)
}

// DeriveRelationship computes the relationship between viewer and subject
// from the subject's friend list and the pending requests touching the
// viewer. Edge membership wins over any stale pending-request record: an
// accepted request that failed to clear must not re-surface as pending once
// the edge exists.
func DeriveRelationship(viewerID, subjectID string, subjectFriends []FriendRef, incoming, outgoing []FriendRequest) RelationshipState {
	if viewerID == subjectID {
		return RelationshipSelf
	}

	for _, ref := range subjectFriends {
		if ref.ID == viewerID {
			return RelationshipFriends
		}
	}

	for _, req := range incoming {
		if req.Status == RequestStatusPending && req.FromUser == subjectID {
			return RelationshipIncomingPending
		}
	}

	for _, req := range outgoing {
		if req.Status == RequestStatusPending && req.ToUser == subjectID {
			return RelationshipOutgoingPending
		}
	}

	return RelationshipStrangers
}
