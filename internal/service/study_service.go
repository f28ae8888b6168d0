package service

import (
	"context"
	"log/slog"

	"github.com/calderw/studydeck-api/internal/domain"
	"github.com/calderw/studydeck-api/internal/generation"
	"github.com/calderw/studydeck-api/internal/redact"
)

// StudyService is the orchestration façade over the generation core. Each
// operation builds a task request, runs it through the retrying executor
// (remote call + response normalization per attempt), and converts any
// propagated error into a fixed fallback value.
//
// The façade is the only layer allowed to swallow generation errors: the
// executor and normalizer raise typed errors so they stay independently
// testable, and the façade absorbs the whole taxonomy so the UI layer
// always receives renderable content, never an error.
type StudyService struct {
	caller   generation.ModelCaller
	executor *generation.Executor
	logger   *slog.Logger
}

// NewStudyService creates the façade over the given transport caller and
// retry executor.
func NewStudyService(caller generation.ModelCaller, executor *generation.Executor, logger *slog.Logger) *StudyService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudyService{
		caller:   caller,
		executor: executor,
		logger:   logger.With(slog.String("component", "study_service")),
	}
}

// Synthesize generates a full study package (summary, 15-20 flashcards,
// 15-20 quiz questions) from the uploaded content parts. On unrecoverable
// failure it logs the error and returns FallbackStudyMaterial().
func (s *StudyService) Synthesize(
	ctx context.Context,
	parts []generation.ContentPart,
	subject generation.Subject,
) *domain.StudyMaterial {
	req, err := generation.BuildRequest(generation.TaskSynthesize, subject, generation.PromptData{}, parts)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build synthesis request", "error", err)
		return FallbackStudyMaterial()
	}

	material, err := generation.Execute(ctx, s.executor,
		func(ctx context.Context, credential string) (*domain.StudyMaterial, error) {
			raw, err := s.caller.Generate(ctx, credential, req)
			if err != nil {
				return nil, err
			}
			return generation.ParseStudyMaterial(raw)
		})
	if err != nil {
		s.logger.ErrorContext(ctx, "synthesis failed, returning fallback material",
			"error", redact.Error(err))
		return FallbackStudyMaterial()
	}

	return material
}

// ExtendQuiz generates 5 additional quiz questions over the given content,
// steered away from question styles an initial quiz would contain. On
// unrecoverable failure it returns FallbackQuizQuestions().
func (s *StudyService) ExtendQuiz(
	ctx context.Context,
	parts []generation.ContentPart,
	subject generation.Subject,
) []domain.QuizQuestion {
	req, err := generation.BuildRequest(generation.TaskExtendQuiz, subject, generation.PromptData{}, parts)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build quiz extension request", "error", err)
		return FallbackQuizQuestions()
	}

	questions, err := s.executeQuizRequest(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "quiz extension failed, returning fallback questions",
			"error", redact.Error(err))
		return FallbackQuizQuestions()
	}

	return questions
}

// Remediate generates 2 quiz questions targeting the one concept the
// learner answered incorrectly. On unrecoverable failure it returns
// FallbackQuizQuestions().
func (s *StudyService) Remediate(
	ctx context.Context,
	parts []generation.ContentPart,
	failedConcept string,
	subject generation.Subject,
) []domain.QuizQuestion {
	req, err := generation.BuildRequest(generation.TaskRemediate, subject,
		generation.PromptData{Concept: failedConcept}, parts)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build remediation request", "error", err)
		return FallbackQuizQuestions()
	}

	questions, err := s.executeQuizRequest(ctx, req)
	if err != nil {
		s.logger.ErrorContext(ctx, "remediation failed, returning fallback questions",
			"concept", failedConcept,
			"error", redact.Error(err))
		return FallbackQuizQuestions()
	}

	return questions
}

// ExtendFlashcards generates 15 flashcards about the named topic, steered
// past common knowledge. On unrecoverable failure it returns
// FallbackFlashcards().
func (s *StudyService) ExtendFlashcards(ctx context.Context, topic string) []domain.Flashcard {
	req, err := generation.BuildRequest(generation.TaskExtendFlashcards, generation.SubjectGeneral,
		generation.PromptData{Topic: topic}, nil)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to build flashcard extension request", "error", err)
		return FallbackFlashcards()
	}

	cards, err := generation.Execute(ctx, s.executor,
		func(ctx context.Context, credential string) ([]domain.Flashcard, error) {
			raw, err := s.caller.Generate(ctx, credential, req)
			if err != nil {
				return nil, err
			}
			return generation.ParseFlashcards(raw)
		})
	if err != nil {
		s.logger.ErrorContext(ctx, "flashcard extension failed, returning fallback cards",
			"topic", topic,
			"error", redact.Error(err))
		return FallbackFlashcards()
	}

	return cards
}

// executeQuizRequest runs a quiz-shaped request through the executor.
func (s *StudyService) executeQuizRequest(ctx context.Context, req *generation.Request) ([]domain.QuizQuestion, error) {
	return generation.Execute(ctx, s.executor,
		func(ctx context.Context, credential string) ([]domain.QuizQuestion, error) {
			raw, err := s.caller.Generate(ctx, credential, req)
			if err != nil {
				return nil, err
			}
			return generation.ParseQuizQuestions(raw)
		})
}
