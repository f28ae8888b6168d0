package domain

import "errors"

// Material-specific validation errors
var (
	// ErrEmptyMaterialTitle is returned when generated material lacks a title.
	ErrEmptyMaterialTitle = errors.New("material title cannot be empty")

	// ErrEmptyMaterialSummary is returned when generated material lacks a summary.
	ErrEmptyMaterialSummary = errors.New("material summary cannot be empty")
)

// QuestionKind identifies the interaction type of a quiz question.
type QuestionKind string

// Possible question kinds. MultipleChoice is the default; the others are
// produced only when the generator mixes interaction types during full
// synthesis.
const (
	QuestionKindMultipleChoice QuestionKind = "multiple_choice"
	QuestionKindDiagramLabel   QuestionKind = "diagram_label"
	QuestionKindMatching       QuestionKind = "matching"
)

// Flashcard is a single question/answer study card.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// MatchPair is one left/right pairing in a matching-type question.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// QuizQuestion is a single quiz item. Options always has four entries for
// multiple-choice questions; CorrectIndex is the zero-based index into
// Options. DiagramLabels and MatchPairs are populated only for the
// corresponding interaction kinds.
type QuizQuestion struct {
	Question      string       `json:"question"`
	Options       []string     `json:"options"`
	CorrectIndex  int          `json:"correctIndex"`
	Explanation   string       `json:"explanation"`
	Subtopic      string       `json:"subtopic,omitempty"`
	Kind          QuestionKind `json:"kind,omitempty"`
	DiagramLabels []string     `json:"diagramLabels,omitempty"`
	MatchPairs    []MatchPair  `json:"matchPairs,omitempty"`
}

// StudyMaterial is the full output of one synthesis pass over uploaded
// study content: a narrative summary plus flashcards and a quiz.
//
// HasMore marks that the generator could not cover all of the input within
// its output budget; Coverage is its rough estimate (0-100) of how much of
// the input the material covers. Continuing synthesis over the leftover
// input is the caller's concern.
type StudyMaterial struct {
	Title      string         `json:"title"`
	Summary    string         `json:"summary"`
	Flashcards []Flashcard    `json:"flashcards"`
	Quiz       []QuizQuestion `json:"quiz"`
	HasMore    bool           `json:"hasMore,omitempty"`
	Coverage   int            `json:"coverage,omitempty"`
}

// Validate checks that the material carries the required top-level fields.
// Sparse material (empty flashcard or quiz lists) is valid; only a missing
// title or summary is a structural failure.
func (m *StudyMaterial) Validate() error {
	if m.Title == "" {
		return ErrEmptyMaterialTitle
	}

	if m.Summary == "" {
		return ErrEmptyMaterialSummary
	}

	return nil
}
