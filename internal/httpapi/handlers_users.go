package httpapi

import (
	"net/http"
	"strings"
	"time"

	"reelmates/internal/domain"
)

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func writeUser(w http.ResponseWriter, status int, u domain.User) {
	WriteJSON(w, status, userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FullName:  u.FullName,
		CreatedAt: u.CreatedAt,
	})
}

func (a *api) handleUsersMe(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if a.profileSvc != nil {
		p, err := a.profileSvc.GetProfile(r.Context(), u.ID)
		if err != nil {
			WriteDomainError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, p)
		return
	}

	writeUser(w, http.StatusOK, u)
}

// handleUsersGet returns another user's profile snapshot. Watch statuses and
// favorites are visible to friends and to the profile owner only; everyone
// else gets the identity and friend list.
func (a *api) handleUsersGet(w http.ResponseWriter, r *http.Request) {
	viewer, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	p, err := a.profileSvc.GetProfile(r.Context(), id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	if viewer.ID != id {
		visible := false
		for _, f := range p.Friends {
			if f.ID == viewer.ID {
				visible = true
				break
			}
		}
		if !visible {
			p.FavoriteMovies = []string{}
			p.FavoritePeople = []string{}
			p.WatchStatuses = map[string]domain.WatchStatus{}
			p.Ratings = map[string]int{}
			p.Comments = map[string]domain.MovieComment{}
		}
	}

	WriteJSON(w, http.StatusOK, p)
}

func (a *api) handleUsersRelationship(w http.ResponseWriter, r *http.Request) {
	viewer, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"id": "required"}))
		return
	}

	state, err := a.friendsSvc.Relationship(r.Context(), viewer.ID, id)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, relationshipResponse{UserID: id, State: state})
}

type relationshipResponse struct {
	UserID string                   `json:"user_id"`
	State  domain.RelationshipState `json:"state"`
}
