package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/househunt/internal/auth"
	"github.com/okian/househunt/internal/domain/types"
)

// ListDependencies defines the interface for listing projects.
type ListDependencies interface {
	ListProjects(ctx context.Context, id auth.Identity) ([]types.ProjectEnvelope, error)
}

// ProjectsHandler handles GET /projects.
type ProjectsHandler struct {
	deps ListDependencies
}

// NewProjectsHandler creates a new projects handler.
func NewProjectsHandler(deps ListDependencies) *ProjectsHandler {
	return &ProjectsHandler{deps: deps}
}

// HandleListProjects returns the caller's projects, or the explicit empty
// message when there are none.
func (h *ProjectsHandler) HandleListProjects(w http.ResponseWriter, r *http.Request) {
	const op = "api.list_projects"
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
		return
	}
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeFailure(w, op, ErrUnauthorized)
		return
	}
	envs, err := h.deps.ListProjects(r.Context(), id)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if len(envs) == 0 {
		writeJSON(w, http.StatusOK, types.Message{Message: types.NoProjectsFound})
		return
	}
	writeJSON(w, http.StatusOK, types.ProjectList{Projects: envs})
}

// ProjectHandler handles GET, POST and PUT on /project.
type ProjectHandler struct {
	deps Dependencies
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(deps Dependencies) *ProjectHandler {
	return &ProjectHandler{deps: deps}
}

// HandleProject dispatches on method.
func (h *ProjectHandler) HandleProject(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		writeFailure(w, "api.project", ErrUnauthorized)
		return
	}
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPost:
		h.create(w, r, id)
	case http.MethodPut:
		h.appendEntry(w, r, id)
	default:
		w.Header().Set("Allow", "GET, POST, PUT")
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	}
}

func (h *ProjectHandler) get(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	const op = "api.get_project"
	projectID, err := projectIDParam(r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	env, err := h.deps.GetProject(r.Context(), id, projectID)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *ProjectHandler) create(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	const op = "api.create_project"
	var req types.CreateProjectRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeFailure(w, op, err)
		return
	}
	projectID, err := h.deps.CreateProject(r.Context(), id, req.Project)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, types.CreateProjectResponse{ProjectID: projectID})
}

func (h *ProjectHandler) appendEntry(w http.ResponseWriter, r *http.Request, id auth.Identity) {
	const op = "api.add_entry"
	projectID, err := projectIDParam(r)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	var entry types.HouseEntry
	if err := decodeBody(w, r, &entry); err != nil {
		writeFailure(w, op, err)
		return
	}
	if err := h.deps.AppendEntry(r.Context(), id, projectID, entry); err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, types.Message{Message: "Entry added"})
}

func projectIDParam(r *http.Request) (string, error) {
	projectID := strings.TrimSpace(r.URL.Query().Get("projectId"))
	if projectID == "" {
		return "", NewKind("api.project_id", ErrBadRequest)
	}
	return projectID, nil
}
