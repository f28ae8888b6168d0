package service

import "github.com/calderw/studydeck-api/internal/domain"

// Fallback content returned when generation is unrecoverable. The client
// renders these instead of an error state, so the literals below are part
// of the service contract: tests assert on them byte-for-byte, and the
// browser app recognizes the title to offer a retry affordance. Do not
// reword them casually.

// FallbackStudyMaterial returns the fixed study material substituted when
// full synthesis fails terminally: one flashcard and one quiz question
// asking the user to retry. Each call returns a fresh value so callers
// can safely append to the lists.
func FallbackStudyMaterial() *domain.StudyMaterial {
	return &domain.StudyMaterial{
		Title:   "Study Material",
		Summary: "We couldn't generate study material from your upload right now. The content service may be busy. Please try again in a few minutes.",
		Flashcards: []domain.Flashcard{
			{
				Question: "Why is this flashcard here?",
				Answer:   "Generation didn't complete. Re-upload your material to try again.",
			},
		},
		Quiz: []domain.QuizQuestion{
			{
				Question:     "What should you do next?",
				Options:      []string{"Try generating again", "Give up", "Refresh forever", "Nothing"},
				CorrectIndex: 0,
				Explanation:  "Generation didn't complete. Trying again usually succeeds once the content service is available.",
				Subtopic:     "retry",
				Kind:         domain.QuestionKindMultipleChoice,
			},
		},
		Coverage: 0,
	}
}

// FallbackQuizQuestions returns the fixed single-question list substituted
// when quiz extension or remediation fails terminally.
func FallbackQuizQuestions() []domain.QuizQuestion {
	return []domain.QuizQuestion{
		{
			Question:     "More questions couldn't be generated. What should you do?",
			Options:      []string{"Try again in a few minutes", "Give up", "Refresh forever", "Nothing"},
			CorrectIndex: 0,
			Explanation:  "The content service didn't respond. Trying again usually succeeds.",
			Subtopic:     "retry",
			Kind:         domain.QuestionKindMultipleChoice,
		},
	}
}

// FallbackFlashcards returns the fixed single-card list substituted when
// flashcard extension fails terminally.
func FallbackFlashcards() []domain.Flashcard {
	return []domain.Flashcard{
		{
			Question: "Why is this the only new flashcard?",
			Answer:   "Flashcard generation didn't complete. Please try again in a few minutes.",
		},
	}
}
