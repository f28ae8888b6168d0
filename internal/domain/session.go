package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the processing state of a study session
type SessionStatus string

// Possible session status values
const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusProcessing SessionStatus = "processing"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

// Common validation errors for StudySession
var (
	ErrEmptySessionID       = errors.New("session ID cannot be empty")
	ErrEmptySessionTitle    = errors.New("session title cannot be empty")
	ErrEmptySessionSource   = errors.New("session source text cannot be empty")
	ErrInvalidSessionStatus = errors.New("invalid session status")
	ErrInvalidMaterial      = errors.New("session material must be valid JSON")
)

// StudySession represents one uploaded batch of study content and the
// material generated from it. It tracks both the original source text and
// the processing state; Material is stored as a JSONB document so the
// material shape can evolve without schema changes.
type StudySession struct {
	ID         uuid.UUID       `json:"id"`
	Title      string          `json:"title"`
	SourceText string          `json:"source_text"`
	Subject    string          `json:"subject"`
	Status     SessionStatus   `json:"status"`
	Material   json.RawMessage `json:"material,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NewStudySession creates a new StudySession with the given title, source
// text, and subject. It generates a new UUID for the session ID, sets the
// status to pending, and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewStudySession(title, sourceText, subject string) (*StudySession, error) {
	session := &StudySession{
		ID:         uuid.New(),
		Title:      title,
		SourceText: sourceText,
		Subject:    subject,
		Status:     SessionStatusPending,
		CreatedAt:  time.Now().UTC(),
		UpdatedAt:  time.Now().UTC(),
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the StudySession has valid data.
// Returns an error if any field fails validation.
func (s *StudySession) Validate() error {
	if s.ID == uuid.Nil {
		return ErrEmptySessionID
	}

	if s.Title == "" {
		return ErrEmptySessionTitle
	}

	if s.SourceText == "" {
		return ErrEmptySessionSource
	}

	if !isValidSessionStatus(s.Status) {
		return ErrInvalidSessionStatus
	}

	if len(s.Material) > 0 {
		var js json.RawMessage
		if err := json.Unmarshal(s.Material, &js); err != nil {
			return ErrInvalidMaterial
		}
	}

	return nil
}

// UpdateStatus updates the session's status and the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (s *StudySession) UpdateStatus(status SessionStatus) error {
	if !isValidSessionStatus(status) {
		return ErrInvalidSessionStatus
	}

	s.Status = status
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetMaterial attaches generated material to the session, marks it
// completed, and updates the UpdatedAt timestamp.
// Returns an error if the material is not valid JSON.
func (s *StudySession) SetMaterial(material json.RawMessage) error {
	var js json.RawMessage
	if err := json.Unmarshal(material, &js); err != nil {
		return ErrInvalidMaterial
	}

	s.Material = material
	s.Status = SessionStatusCompleted
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidSessionStatus checks if the given status is a valid SessionStatus.
func isValidSessionStatus(status SessionStatus) bool {
	switch status {
	case SessionStatusPending, SessionStatusProcessing,
		SessionStatusCompleted, SessionStatusFailed:
		return true
	default:
		return false
	}
}
