// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/househunt/internal/app"
	"github.com/okian/househunt/internal/auth"
	"github.com/okian/househunt/internal/domain/types"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	ListProjects(ctx context.Context, id auth.Identity) ([]types.ProjectEnvelope, error)
	GetProject(ctx context.Context, id auth.Identity, projectID string) (types.ProjectEnvelope, error)
	CreateProject(ctx context.Context, id auth.Identity, p types.Project) (string, error)
	AppendEntry(ctx context.Context, id auth.Identity, projectID string, e types.HouseEntry) error
}

// Verifier turns a bearer token into the caller's identity.
type Verifier interface {
	Identify(token string) (auth.Identity, error)
}

// Server wires HTTP routes for the project API.
type Server struct {
	healthHandler   *HealthHandler
	projectsHandler *ProjectsHandler
	projectHandler  *ProjectHandler
	verifier        Verifier
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, verifier Verifier) *Server {
	return &Server{
		healthHandler:   NewHealthHandler(),
		projectsHandler: NewProjectsHandler(deps),
		projectHandler:  NewProjectHandler(deps),
		verifier:        verifier,
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/projects", MetricsMiddleware(
		CORSMiddleware(AuthMiddleware(s.verifier, s.projectsHandler.HandleListProjects)), "projects"))
	mux.HandleFunc("/project", MetricsMiddleware(
		CORSMiddleware(AuthMiddleware(s.verifier, s.projectHandler.HandleProject)), "project"))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, types.ErrorResponse{Code: code, Message: msg})
}

// writeFailure maps a handler or service error to its status.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, ErrBadRequest):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrUnauthenticated), errors.Is(err, ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized", WrapKind(op, ErrUnauthorized, err))
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "forbidden", WrapKind(op, ErrForbidden, err))
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", WrapKind(op, ErrInternal, err))
	}
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, service.ErrNotFound) || errors.Is(err, ErrNotFound)
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return WrapKind("api.decode", ErrBadRequest, err)
	}
	return nil
}
