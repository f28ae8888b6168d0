package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/calderw/studydeck-api/internal/domain"
)

// normalize parses raw model output into v. If the strict parse fails and
// the text looks like a truncated object or list, it appends the single
// missing closing delimiter and re-parses once.
//
// The repair is deliberately narrow: one pass, one character. Output
// truncated any deeper (a cut-off string, a missing field value, two or
// more unclosed delimiters) is not recoverable and fails with
// ErrMalformedResponse. Generalizing this into a full JSON repairer would
// change observable behavior and is out of scope.
func normalize(raw string, v any) error {
	if err := json.Unmarshal([]byte(raw), v); err == nil {
		return nil
	}

	repaired, ok := repairTruncated(raw)
	if !ok {
		return fmt.Errorf("%w: output is not valid JSON", ErrMalformedResponse)
	}

	if err := json.Unmarshal([]byte(repaired), v); err != nil {
		return fmt.Errorf("%w: output is not valid JSON after truncation repair", ErrMalformedResponse)
	}

	return nil
}

// repairTruncated returns raw with a single trailing delimiter appended
// when the trimmed text starts an object without closing it, or starts a
// list without closing it. ok is false when the text does not match
// either truncation shape.
func repairTruncated(raw string) (repaired string, ok bool) {
	trimmed := strings.TrimSpace(raw)

	switch {
	case strings.HasPrefix(trimmed, "{") && !strings.HasSuffix(trimmed, "}"):
		return trimmed + "}", true
	case strings.HasPrefix(trimmed, "[") && !strings.HasSuffix(trimmed, "]"):
		return trimmed + "]", true
	default:
		return "", false
	}
}

// ParseStudyMaterial parses raw model output into a StudyMaterial and
// checks the required top-level fields. Material missing a title or
// summary is malformed even when it parses as JSON.
func ParseStudyMaterial(raw string) (*domain.StudyMaterial, error) {
	var material domain.StudyMaterial
	if err := normalize(raw, &material); err != nil {
		return nil, err
	}

	if err := material.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return &material, nil
}

// ParseQuizQuestions parses raw model output into a list of quiz questions.
func ParseQuizQuestions(raw string) ([]domain.QuizQuestion, error) {
	var questions []domain.QuizQuestion
	if err := normalize(raw, &questions); err != nil {
		return nil, err
	}

	for i, q := range questions {
		if q.Question == "" || len(q.Options) == 0 {
			return nil, fmt.Errorf("%w: question %d is incomplete", ErrMalformedResponse, i)
		}
	}

	return questions, nil
}

// ParseFlashcards parses raw model output into a list of flashcards.
func ParseFlashcards(raw string) ([]domain.Flashcard, error) {
	var cards []domain.Flashcard
	if err := normalize(raw, &cards); err != nil {
		return nil, err
	}

	for i, c := range cards {
		if c.Question == "" || c.Answer == "" {
			return nil, fmt.Errorf("%w: flashcard %d is incomplete", ErrMalformedResponse, i)
		}
	}

	return cards, nil
}
