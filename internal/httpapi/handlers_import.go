package httpapi

import (
	"crypto/subtle"
	"net/http"

	"reelmates/internal/domain"
)

type importUsersRequest struct {
	Users []domain.LegacyUserRecord `json:"users"`
}

// handleImportUsers loads exported legacy user documents. The endpoint is
// token-gated rather than session-gated; it is called by the migration
// tooling, not by signed-in users.
func (a *api) handleImportUsers(w http.ResponseWriter, r *http.Request) {
	if a.importToken == "" {
		WriteError(w, http.StatusServiceUnavailable, "import_disabled", "import is not configured")
		return
	}
	token := r.Header.Get("X-Import-Token")
	if subtle.ConstantTimeCompare([]byte(token), []byte(a.importToken)) != 1 {
		WriteDomainError(w, domain.ErrUnauthorized)
		return
	}

	var req importUsersRequest
	if err := decodeJSONAllowUnknownFields(w, r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "bad_json", "invalid json")
		return
	}
	if len(req.Users) == 0 {
		WriteDomainError(w, domain.NewValidationError(map[string]string{"users": "required"}))
		return
	}

	report, err := a.profileSvc.ImportUsers(r.Context(), req.Users)
	if err != nil {
		WriteDomainError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, report)
}
