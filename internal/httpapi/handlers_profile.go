package httpapi

import (
	"net/http"
	"strings"

	"reelmates/internal/domain"
)

func (a *api) handleFavoriteMovieAdd(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.profileSvc.AddFavoriteMovie(r.Context(), u.ID, r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFavoriteMovieRemove(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.profileSvc.RemoveFavoriteMovie(r.Context(), u.ID, r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFavoritePersonAdd(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.profileSvc.AddFavoritePerson(r.Context(), u.ID, r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleFavoritePersonRemove(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.profileSvc.RemoveFavoritePerson(r.Context(), u.ID, r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type watchStatusRequest struct {
	Status string `json:"status"`
}

type watchStatusResponse struct {
	MovieID string             `json:"movie_id"`
	Status  domain.WatchStatus `json:"status"`
}

func (a *api) handleWatchStatusSet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	movieID := strings.TrimSpace(r.PathValue("movieID"))
	var req watchStatusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	status, err := a.profileSvc.SetWatchStatus(r.Context(), u.ID, movieID, req.Status)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, watchStatusResponse{MovieID: movieID, Status: status})
}

type ratingRequest struct {
	Rating *int `json:"rating"`
}

type ratingsResponse struct {
	Ratings map[string]int `json:"movie_ratings"`
}

// handleRatingSet stores or clears a star rating; a null rating clears.
func (a *api) handleRatingSet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	// An empty body clears, same as {"rating": null}.
	var req ratingRequest
	if _, err := decodeJSONAllowEmpty(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	ratings, err := a.profileSvc.SetRating(r.Context(), u.ID, r.PathValue("movieID"), req.Rating)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, ratingsResponse{Ratings: ratings})
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type commentsResponse struct {
	Comments map[string]domain.MovieComment `json:"movie_comments"`
}

// handleCommentSet stores or clears a note; blank text clears.
func (a *api) handleCommentSet(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	comments, err := a.profileSvc.SetComment(r.Context(), u.ID, r.PathValue("movieID"), req.Comment)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, commentsResponse{Comments: comments})
}
