package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"indhive.org/internal/audit"
	"indhive.org/internal/auth"
)

type updateProfileRequest struct {
	Username string `json:"username"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func requireAdmin(w http.ResponseWriter, r *http.Request, principal auth.Principal) bool {
	if !principal.HasRole(auth.RoleAdmin) {
		w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
		writeError(w, r, http.StatusForbidden, "insufficient role")
		return false
	}
	return true
}

func (a *API) handleUsers(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	if !requireAdmin(w, r, principal) {
		return
	}
	users, err := a.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}
	res := make([]userResponse, 0, len(users))
	for _, u := range users {
		res = append(res, userToResponse(u))
	}
	writeJSON(w, http.StatusOK, res)
}

// handleUserScoped routes /api/users/me[/password|/creator] and
// /api/users/{email}[/projects].
func (a *API) handleUserScoped(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/users/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")

	if parts[0] == "me" {
		switch {
		case len(parts) == 1:
			a.handleUpdateProfile(w, r, principal)
		case len(parts) == 2 && parts[1] == "password":
			a.handleChangePassword(w, r, principal)
		case len(parts) == 2 && parts[1] == "creator":
			a.handlePromoteCreator(w, r, principal)
		default:
			writeError(w, r, http.StatusNotFound, "resource not found")
		}
		return
	}

	email := parts[0]
	switch {
	case len(parts) == 1:
		a.handleUser(w, r, principal, email)
	case len(parts) == 2 && parts[1] == "projects":
		a.handleUserProjects(w, r, email)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleUser(w http.ResponseWriter, r *http.Request, principal auth.Principal, email string) {
	switch r.Method {
	case http.MethodGet:
		if !requireAdmin(w, r, principal) {
			return
		}
		user, err := a.auth.UserByEmail(r.Context(), email)
		if err != nil {
			handleUserError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, userToResponse(user))
	case http.MethodDelete:
		if !requireAdmin(w, r, principal) {
			return
		}
		if err := a.auth.DeleteUser(r.Context(), email); err != nil {
			handleUserError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "user.delete", map[string]any{"email": email})
		writeJSON(w, http.StatusOK, map[string]any{"message": "user deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}

func (a *API) handleUserProjects(w http.ResponseWriter, r *http.Request, email string) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	list, err := a.projects.ListByOwner(r.Context(), email)
	if err != nil {
		handleProjectError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request, principal auth.Principal) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var req updateProfileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.auth.UpdateProfile(r.Context(), principal.Email, req.Username)
	if err != nil {
		handleUserError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.update", map[string]any{"username": user.Username})
	writeJSON(w, http.StatusOK, userToResponse(user))
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request, principal auth.Principal) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.auth.ChangePassword(r.Context(), principal.Email, req.CurrentPassword, req.NewPassword); err != nil {
		handleUserError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.password_change", nil)
	writeJSON(w, http.StatusOK, map[string]any{"message": "password updated"})
}

func (a *API) handlePromoteCreator(w http.ResponseWriter, r *http.Request, principal auth.Principal) {
	if r.Method != http.MethodPut {
		methodNotAllowed(w, r, http.MethodPut)
		return
	}
	user, err := a.auth.PromoteCreator(r.Context(), principal.Email)
	if err != nil {
		handleUserError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "user.promote_creator", nil)
	writeJSON(w, http.StatusOK, userToResponse(user))
}

func handleUserError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, r, http.StatusBadRequest, "current password is incorrect")
	case errors.Is(err, auth.ErrInvalidInput), errors.Is(err, auth.ErrAlreadyExists):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "user not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
