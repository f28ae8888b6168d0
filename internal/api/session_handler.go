package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/calderw/studydeck-api/internal/api/shared"
	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/generation"
)

// Listing defaults.
const (
	defaultListLimit = 20
	maxListLimit     = 100
)

// SessionService is the session lifecycle surface the handlers depend on.
// Implemented by service.SessionService.
type SessionService interface {
	CreateSessionAndEnqueue(ctx context.Context, title string, parts []generation.ContentPart, subject generation.Subject) (*domain.StudySession, error)
	GetSession(ctx context.Context, id uuid.UUID) (*domain.StudySession, error)
	ListSessions(ctx context.Context, limit, offset int) ([]*domain.StudySession, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error
}

// SessionHandler handles study session HTTP requests.
type SessionHandler struct {
	sessions SessionService
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessions SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// CreateSession handles POST /api/sessions. Synthesis runs in the
// background, so the response is 202 Accepted with the pending session;
// the client polls GetSession until the status settles.
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	parts, err := toContentParts(req.Parts)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	session, err := h.sessions.CreateSessionAndEnqueue(
		r.Context(), req.Title, parts, generation.Subject(req.Subject))
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to create session", err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, sessionToResponse(session))
}

// GetSession handles GET /api/sessions/{id}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromURL(w, r)
	if !ok {
		return
	}

	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// ListSessions handles GET /api/sessions with limit/offset paging.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", defaultListLimit)
	if limit < 1 || limit > maxListLimit {
		limit = defaultListLimit
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	sessions, err := h.sessions.ListSessions(r.Context(), limit, offset)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), "Failed to list sessions", err)
		return
	}

	responses := sessionsToResponses(sessions)
	if responses == nil {
		responses = []SessionResponse{}
	}

	shared.RespondWithJSON(w, r, http.StatusOK, responses)
}

// DeleteSession handles DELETE /api/sessions/{id}.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.sessions.DeleteSession(r.Context(), id); err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// sessionIDFromURL parses the {id} URL parameter, responding with 400 on
// malformed IDs.
func sessionIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid session ID")
		return uuid.Nil, false
	}
	return id, true
}

// queryInt parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
