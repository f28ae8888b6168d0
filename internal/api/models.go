package api

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samber/lo"

	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/generation"
)

// maxUploadParts bounds how many content parts one upload may carry.
const maxUploadParts = 20

// ContentPartDTO is one uploaded piece of study content. Text parts set
// Text; image parts set Data (base64) and MimeType. Filename is optional
// on both.
type ContentPartDTO struct {
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mime_type,omitempty"`
	Filename string `json:"filename,omitempty"`
}

// CreateSessionRequest is the body for POST /api/sessions.
type CreateSessionRequest struct {
	Title   string           `json:"title"   validate:"required,min=1,max=200"`
	Subject string           `json:"subject" validate:"omitempty,oneof=general clinical law stem language"`
	Parts   []ContentPartDTO `json:"parts"   validate:"required,min=1"`
}

// ExtendQuizRequest is the body for POST /api/sessions/{id}/quiz/extend.
// The content parts are re-sent by the client because image bytes are not
// persisted server-side.
type ExtendQuizRequest struct {
	Parts []ContentPartDTO `json:"parts" validate:"required,min=1"`
}

// RemediateRequest is the body for POST /api/sessions/{id}/quiz/remediate.
type RemediateRequest struct {
	Concept string           `json:"concept" validate:"required,min=1,max=500"`
	Parts   []ContentPartDTO `json:"parts"   validate:"required,min=1"`
}

// ExtendFlashcardsRequest is the body for POST /api/flashcards/extend.
type ExtendFlashcardsRequest struct {
	Topic string `json:"topic" validate:"required,min=1,max=200"`
}

// SessionResponse is the wire form of a study session. Material is the
// generated study material document, present once the session completes.
type SessionResponse struct {
	ID         string                `json:"id"`
	Title      string                `json:"title"`
	Subject    string                `json:"subject"`
	Status     string                `json:"status"`
	Material   *domain.StudyMaterial `json:"material,omitempty"`
	CreatedAt  time.Time             `json:"created_at"`
	UpdatedAt  time.Time             `json:"updated_at"`
}

// QuizQuestionsResponse wraps a generated question list.
type QuizQuestionsResponse struct {
	Questions []domain.QuizQuestion `json:"questions"`
}

// FlashcardsResponse wraps a generated flashcard list.
type FlashcardsResponse struct {
	Flashcards []domain.Flashcard `json:"flashcards"`
}

// toContentParts converts wire parts into generation parts, decoding
// base64 image data.
func toContentParts(dtos []ContentPartDTO) ([]generation.ContentPart, error) {
	if len(dtos) > maxUploadParts {
		return nil, fmt.Errorf("too many content parts: %d (limit %d)", len(dtos), maxUploadParts)
	}

	parts := make([]generation.ContentPart, 0, len(dtos))
	for i, dto := range dtos {
		switch {
		case dto.Data != "":
			if dto.MimeType == "" {
				return nil, fmt.Errorf("part %d: image data requires a mime_type", i)
			}
			data, err := base64.StdEncoding.DecodeString(dto.Data)
			if err != nil {
				return nil, fmt.Errorf("part %d: invalid base64 data: %w", i, err)
			}
			parts = append(parts, generation.NewImagePart(data, dto.MimeType, dto.Filename))
		case dto.Text != "":
			parts = append(parts, generation.NewTextPart(dto.Text, dto.Filename))
		default:
			return nil, fmt.Errorf("part %d: either text or data is required", i)
		}
	}
	return parts, nil
}

// sessionToResponse converts a domain session to its wire form. The stored
// material document is decoded so clients receive structured material, not
// a JSON string.
func sessionToResponse(session *domain.StudySession) SessionResponse {
	resp := SessionResponse{
		ID:        session.ID.String(),
		Title:     session.Title,
		Subject:   session.Subject,
		Status:    string(session.Status),
		CreatedAt: session.CreatedAt,
		UpdatedAt: session.UpdatedAt,
	}

	if len(session.Material) > 0 {
		var material domain.StudyMaterial
		if err := json.Unmarshal(session.Material, &material); err == nil {
			resp.Material = &material
		}
	}

	return resp
}

// sessionsToResponses converts a session list to wire form.
func sessionsToResponses(sessions []*domain.StudySession) []SessionResponse {
	return lo.Map(sessions, func(s *domain.StudySession, _ int) SessionResponse {
		return sessionToResponse(s)
	})
}
