package api

import (
	"context"
	"net/http"

	"github.com/calderw/studydeck-api/internal/api/shared"
	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/generation"
)

// StudyGenerator is the generation surface the handlers depend on.
// Implemented by service.StudyService. Its methods return content, never
// errors; terminal failures surface as fallback material.
type StudyGenerator interface {
	ExtendQuiz(ctx context.Context, parts []generation.ContentPart, subject generation.Subject) []domain.QuizQuestion
	Remediate(ctx context.Context, parts []generation.ContentPart, failedConcept string, subject generation.Subject) []domain.QuizQuestion
	ExtendFlashcards(ctx context.Context, topic string) []domain.Flashcard
}

// StudyHandler handles on-demand generation requests: quiz extension,
// remediation, and flashcard extension. These run synchronously because
// the study service always produces renderable content, degrading to
// fallback material instead of failing; the only error responses here are
// for malformed requests.
type StudyHandler struct {
	study    StudyGenerator
	sessions SessionService
}

// NewStudyHandler creates a new StudyHandler.
func NewStudyHandler(study StudyGenerator, sessions SessionService) *StudyHandler {
	return &StudyHandler{study: study, sessions: sessions}
}

// ExtendQuiz handles POST /api/sessions/{id}/quiz/extend.
func (h *StudyHandler) ExtendQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromURL(w, r)
	if !ok {
		return
	}

	var req ExtendQuizRequest
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

	// The session is loaded for its subject framing and to 404 on
	// unknown sessions before paying for a generation call.
	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	questions := h.study.ExtendQuiz(r.Context(), parts, generation.Subject(session.Subject))
	shared.RespondWithJSON(w, r, http.StatusOK, QuizQuestionsResponse{Questions: questions})
}

// RemediateQuiz handles POST /api/sessions/{id}/quiz/remediate.
func (h *StudyHandler) RemediateQuiz(w http.ResponseWriter, r *http.Request) {
	id, ok := sessionIDFromURL(w, r)
	if !ok {
		return
	}

	var req RemediateRequest
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

	session, err := h.sessions.GetSession(r.Context(), id)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r,
			MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	questions := h.study.Remediate(r.Context(), parts, req.Concept, generation.Subject(session.Subject))
	shared.RespondWithJSON(w, r, http.StatusOK, QuizQuestionsResponse{Questions: questions})
}

// ExtendFlashcards handles POST /api/flashcards/extend. This endpoint is
// session-independent: it generates topic flashcards from the model's own
// knowledge, not from uploaded content.
func (h *StudyHandler) ExtendFlashcards(w http.ResponseWriter, r *http.Request) {
	var req ExtendFlashcardsRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}
	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, SanitizeValidationError(err))
		return
	}

	cards := h.study.ExtendFlashcards(r.Context(), req.Topic)
	shared.RespondWithJSON(w, r, http.StatusOK, FlashcardsResponse{Flashcards: cards})
}
