package httpapi

import (
	"net/http"
	"strconv"

	"reelmates/internal/domain"
)

func (a *api) handleActivitySnapshot(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	snap, err := a.activitySvc.Snapshot(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	WriteJSON(w, http.StatusOK, snap)
}

func (a *api) handleRails(w http.ResponseWriter, r *http.Request) {
	viewerID := ""
	if u, ok := CurrentUser(r.Context()); ok {
		viewerID = u.ID
	}

	format := r.URL.Query().Get("format")
	switch format {
	case "", "movie", "series":
	default:
		WriteDomainError(w, domain.NewValidationError(map[string]string{"format": "must be movie or series"}))
		return
	}

	year := 0
	if raw := r.URL.Query().Get("year"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1900 || n > 2200 {
			WriteDomainError(w, domain.NewValidationError(map[string]string{"year": "invalid"}))
			return
		}
		year = n
	}

	rails, err := a.railsSvc.Rails(r.Context(), viewerID, format, year)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, railsResponse{Rails: rails})
}

type railsResponse struct {
	Rails []domain.Rail `json:"rails"`
}
