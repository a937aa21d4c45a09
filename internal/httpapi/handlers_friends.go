package httpapi

import (
	"net/http"
	"strings"

	"reelmates/internal/domain"
)

func (a *api) handleFriendsOverview(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	out, err := a.friendsSvc.ListOverview(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, out)
}

type sendFriendRequestRequest struct {
	Username string `json:"username"`
}

func (a *api) handleFriendsSendRequest(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req sendFriendRequestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	fr, err := a.friendsSvc.SendRequest(r.Context(), u.ID, req.Username)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, fr)
}

type relationshipStateResponse struct {
	State domain.RelationshipState `json:"state"`
}

func (a *api) handleFriendsAccept(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	state, err := a.friendsSvc.AcceptRequest(r.Context(), u.ID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, relationshipStateResponse{State: state})
}

func (a *api) handleFriendsRefuse(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	state, err := a.friendsSvc.RefuseRequest(r.Context(), u.ID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, relationshipStateResponse{State: state})
}

func (a *api) handleFriendsCancel(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	targetID := strings.TrimSpace(r.PathValue("userID"))
	if targetID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"userID": "required"}))
		return
	}

	state, err := a.friendsSvc.CancelRequest(r.Context(), u.ID, targetID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, relationshipStateResponse{State: state})
}

func (a *api) handleFriendsUnfriend(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	friendID := strings.TrimSpace(r.PathValue("userID"))
	if friendID == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"userID": "required"}))
		return
	}

	state, err := a.friendsSvc.Unfriend(r.Context(), u.ID, friendID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, relationshipStateResponse{State: state})
}
