package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"indhive.org/internal/audit"
	"indhive.org/internal/auth"
	"indhive.org/internal/project"
)

type projectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type collaboratorRequest struct {
	Email string `json:"email"`
}

func (a *API) handleProjects(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}
	switch r.Method {
	case http.MethodGet:
		list, err := a.projects.List(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, list)
	case http.MethodPost:
		var req projectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.projects.Create(r.Context(), principal, req.Title, req.Description)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.create", map[string]any{
			"project_id": p.ID,
			"title":      p.Title,
		})
		w.Header().Set("Location", "/api/projects/"+p.ID)
		writeJSON(w, http.StatusCreated, p)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

// handleProjectScoped routes /api/projects/{id} and
// /api/projects/{id}/collaborators[/{email}].
func (a *API) handleProjectScoped(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.PrincipalFromContext(r.Context())
	if !ok {
		unauthorized(w, r, "authentication required")
		return
	}
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/projects/"), "/")
	if path == "" {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	parts := strings.Split(path, "/")
	id := parts[0]

	switch {
	case len(parts) == 1:
		a.handleProject(w, r, principal, id)
	case len(parts) == 2 && parts[1] == "collaborators":
		a.handleProjectCollaborators(w, r, principal, id)
	case len(parts) == 3 && parts[1] == "collaborators":
		a.handleProjectCollaborator(w, r, principal, id, parts[2])
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleProject(w http.ResponseWriter, r *http.Request, principal auth.Principal, id string) {
	switch r.Method {
	case http.MethodGet:
		p, err := a.projects.Get(r.Context(), id)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, p)
	case http.MethodPut:
		var req projectRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		p, err := a.projects.Update(r.Context(), principal, id, req.Title, req.Description)
		if err != nil {
			handleProjectError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.update", map[string]any{"project_id": id})
		writeJSON(w, http.StatusOK, p)
	case http.MethodDelete:
		if err := a.projects.Delete(r.Context(), principal, id); err != nil {
			handleProjectError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), "project.delete", map[string]any{"project_id": id})
		writeJSON(w, http.StatusOK, map[string]any{"message": "project deleted"})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPut, http.MethodDelete)
	}
}

func (a *API) handleProjectCollaborators(w http.ResponseWriter, r *http.Request, principal auth.Principal, id string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req collaboratorRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if err := a.projects.AddCollaborator(r.Context(), principal, id, req.Email); err != nil {
		handleProjectError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "project.collaborator.add", map[string]any{
		"project_id": id,
		"email":      req.Email,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "collaborator added"})
}

func (a *API) handleProjectCollaborator(w http.ResponseWriter, r *http.Request, principal auth.Principal, id, email string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w, r, http.MethodDelete)
		return
	}
	if err := a.projects.RemoveCollaborator(r.Context(), principal, id, email); err != nil {
		handleProjectError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), "project.collaborator.remove", map[string]any{
		"project_id": id,
		"email":      email,
	})
	writeJSON(w, http.StatusOK, map[string]any{"message": "collaborator removed"})
}

func handleProjectError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, project.ErrInvalidInput):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, project.ErrForbidden):
		writeError(w, r, http.StatusForbidden, "forbidden")
	case errors.Is(err, project.ErrNotFound):
		writeError(w, r, http.StatusNotFound, "project not found")
	default:
		writeError(w, r, http.StatusInternalServerError, "internal error")
	}
}
