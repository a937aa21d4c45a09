package httpapi

import (
	"net/http"
	"strings"

	"reelmates/internal/domain"
)

type listRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Type        string `json:"type"`
	IsPublic    bool   `json:"is_public"`
}

type listsResponse struct {
	Lists []domain.CustomList `json:"lists"`
}

func (a *api) handleListsOverview(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	lists, err := a.listsSvc.Lists(r.Context(), u.ID)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, listsResponse{Lists: lists})
}

func (a *api) handleListCreate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	l, err := a.listsSvc.Create(r.Context(), u.ID, req.Name, req.Description, req.Type, req.IsPublic)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, l)
}

func (a *api) handleListUpdate(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req listRequest
	if err := decodeJSON(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}

	l, err := a.listsSvc.Update(r.Context(), u.ID, strings.TrimSpace(r.PathValue("listID")), req.Name, req.Description, req.IsPublic)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (a *api) handleListDelete(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	if err := a.listsSvc.Delete(r.Context(), u.ID, strings.TrimSpace(r.PathValue("listID"))); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *api) handleListItemAdd(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	l, err := a.listsSvc.AddItem(r.Context(), u.ID, strings.TrimSpace(r.PathValue("listID")), r.PathValue("entityID"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}

func (a *api) handleListItemRemove(w http.ResponseWriter, r *http.Request) {
	u, ok := CurrentUser(r.Context())
	if !ok {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	l, err := a.listsSvc.RemoveItem(r.Context(), u.ID, strings.TrimSpace(r.PathValue("listID")), r.PathValue("entityID"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, l)
}
