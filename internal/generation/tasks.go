package generation

import (
	"bytes"
	"fmt"
	"text/template"

	"google.golang.org/genai"
)

// TaskKind identifies one of the four generation tasks.
type TaskKind string

// The four generation tasks.
const (
	TaskSynthesize       TaskKind = "synthesize"
	TaskExtendQuiz       TaskKind = "extend_quiz"
	TaskRemediate        TaskKind = "remediate"
	TaskExtendFlashcards TaskKind = "extend_flashcards"
)

// Subject is a subject-matter framing that selects which instructional
// template governs generation tone and structure.
type Subject string

// Supported subjects. Unknown values degrade to SubjectGeneral.
const (
	SubjectGeneral  Subject = "general"
	SubjectClinical Subject = "clinical"
	SubjectLaw      Subject = "law"
	SubjectSTEM     Subject = "stem"
	SubjectLanguage Subject = "language"
)

// systemInstructions maps each subject to its instructional framing.
var systemInstructions = map[Subject]string{
	SubjectGeneral: "You are an expert tutor who turns raw study notes into " +
		"clear, well-organized study material. Write plainly, define terms on " +
		"first use, and test understanding rather than rote recall.",
	SubjectClinical: "You are a clinical educator writing board-exam style " +
		"material. Frame quiz questions as clinical vignettes where possible, " +
		"use standard medical terminology, and make distractors plausible " +
		"differentials rather than obviously wrong answers.",
	SubjectLaw: "You are a law instructor preparing exam material. Frame " +
		"questions around fact patterns and the application of rules to facts, " +
		"cite doctrines by their standard names, and keep answer explanations " +
		"grounded in the controlling rule.",
	SubjectSTEM: "You are a STEM instructor. Prefer questions that require " +
		"applying a concept or working a short derivation over definition " +
		"recall, keep notation consistent with the source material, and " +
		"explain answers step by step.",
	SubjectLanguage: "You are a language teacher. Build questions around " +
		"usage in context rather than isolated vocabulary, include example " +
		"sentences, and keep explanations in the learner's instruction language.",
}

// InstructionFor returns the system instruction for the given subject,
// falling back to the general framing when the subject is unrecognized.
// The fallback is deliberate: an unknown subject is a degraded mode, not
// an error.
func InstructionFor(subject Subject) string {
	if inst, ok := systemInstructions[subject]; ok {
		return inst
	}
	return systemInstructions[SubjectGeneral]
}

// PromptData carries the caller-supplied text interpolated into prompt
// templates. Only the fields a given task's template references are used.
type PromptData struct {
	// Topic names the subject area for flashcard extension.
	Topic string

	// Concept names the concept the learner answered incorrectly,
	// for remediation.
	Concept string
}

// TaskDescriptor is the immutable per-task configuration: the prompt
// template, the response shape the model is asked to conform to, and the
// output-size ceiling. Descriptors are fixed at startup and never mutated.
type TaskDescriptor struct {
	Kind            TaskKind
	Template        *template.Template
	Schema          *genai.Schema
	MaxOutputTokens int32
}

// Prompt templates. text/template, not html/template: prompts are not
// markup and must not be entity-escaped.
var (
	synthesizeTemplate = template.Must(template.New("synthesize").Parse(`Study the attached material and produce a complete study package from it.

Produce:
1. A short, specific title for the material.
2. A narrative summary that a student could revise from without the original notes. Organize it by subtopic and keep every factual claim from the source.
3. Between 15 and 20 flashcards. Each flashcard has a question on the front and a concise answer on the back. Cover the material broadly; do not cluster on one subtopic.
4. Between 15 and 20 quiz questions. Mix interaction types: mostly multiple_choice with exactly four options, plus a few diagram_label or matching questions where the material suits them. Every question needs an explanation of the correct answer and a subtopic tag. Distribute the index of the correct option roughly uniformly between 0 and 3 across the quiz; do not favor any position.

If the material is too large to cover within your output budget, cover as much as you can from the beginning, set hasMore to true, and set coverage to your estimate (0-100) of how much of the input you covered. Otherwise set hasMore to false and coverage to 100.

Respond with JSON only, matching the requested schema exactly.`))

	extendQuizTemplate = template.Must(template.New("extend_quiz").Parse(`The student has finished the existing quiz for the attached material and wants more practice.

Write 5 new multiple-choice quiz questions from the material. Each question has exactly four options, an explanation, and a subtopic tag. Avoid repeating the style or focus of questions a first quiz over this material would contain: prefer angles, subtopics, and question framings that an initial pass would likely have skipped.

Respond with a JSON array of questions only, matching the requested schema exactly.`))

	remediateTemplate = template.Must(template.New("remediate").Parse(`The student answered incorrectly on the concept "{{.Concept}}" in the attached material.

Write 2 multiple-choice questions that target exactly this concept from a different angle than a first-pass question would. Each question has exactly four options, an explanation that corrects the likely misunderstanding, and a subtopic tag.

Respond with a JSON array of questions only, matching the requested schema exactly.`))

	extendFlashcardsTemplate = template.Must(template.New("extend_flashcards").Parse(`Write 15 flashcards about the topic "{{.Topic}}".

Each flashcard has a question on the front and a concise answer on the back. Go beyond common knowledge: skip facts a student picks up in passing and focus on the details, distinctions, and edge cases that are actually tested.

Respond with a JSON array of flashcards only, matching the requested schema exactly.`))
)

// Response shape contracts. These are structural schemas the remote
// generator is instructed to conform to; the normalizer still validates
// the parsed result because schema conformance is advisory for some
// model versions.
var (
	flashcardSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question": {Type: genai.TypeString},
			"answer":   {Type: genai.TypeString},
		},
		Required: []string{"question", "answer"},
	}

	quizQuestionSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question":     {Type: genai.TypeString},
			"options":      {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"correctIndex": {Type: genai.TypeInteger},
			"explanation":  {Type: genai.TypeString},
			"subtopic":     {Type: genai.TypeString},
			"kind": {
				Type: genai.TypeString,
				Enum: []string{"multiple_choice", "diagram_label", "matching"},
			},
			"diagramLabels": {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
			"matchPairs": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"left":  {Type: genai.TypeString},
						"right": {Type: genai.TypeString},
					},
					Required: []string{"left", "right"},
				},
			},
		},
		Required: []string{"question", "options", "correctIndex", "explanation"},
	}

	studyMaterialSchema = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"title":      {Type: genai.TypeString},
			"summary":    {Type: genai.TypeString},
			"flashcards": {Type: genai.TypeArray, Items: flashcardSchema},
			"quiz":       {Type: genai.TypeArray, Items: quizQuestionSchema},
			"hasMore":    {Type: genai.TypeBoolean},
			"coverage":   {Type: genai.TypeInteger},
		},
		Required: []string{"title", "summary", "flashcards", "quiz"},
	}

	quizListSchema      = &genai.Schema{Type: genai.TypeArray, Items: quizQuestionSchema}
	flashcardListSchema = &genai.Schema{Type: genai.TypeArray, Items: flashcardSchema}
)

// taskDescriptors is the static task table. Full synthesis gets the
// largest output budget; the short extension tasks get small ceilings to
// bound latency and cost.
var taskDescriptors = map[TaskKind]*TaskDescriptor{
	TaskSynthesize: {
		Kind:            TaskSynthesize,
		Template:        synthesizeTemplate,
		Schema:          studyMaterialSchema,
		MaxOutputTokens: 16384,
	},
	TaskExtendQuiz: {
		Kind:            TaskExtendQuiz,
		Template:        extendQuizTemplate,
		Schema:          quizListSchema,
		MaxOutputTokens: 4096,
	},
	TaskRemediate: {
		Kind:            TaskRemediate,
		Template:        remediateTemplate,
		Schema:          quizListSchema,
		MaxOutputTokens: 2048,
	},
	TaskExtendFlashcards: {
		Kind:            TaskExtendFlashcards,
		Template:        extendFlashcardsTemplate,
		Schema:          flashcardListSchema,
		MaxOutputTokens: 4096,
	},
}

// BuildRequest assembles a model request for the given task: it renders
// the task's prompt template with the caller-supplied data, selects the
// system instruction for the subject, and attaches the content parts, the
// response shape contract, and the task's output ceiling.
func BuildRequest(kind TaskKind, subject Subject, data PromptData, parts []ContentPart) (*Request, error) {
	desc, ok := taskDescriptors[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTask, kind)
	}

	var prompt bytes.Buffer
	if err := desc.Template.Execute(&prompt, data); err != nil {
		return nil, fmt.Errorf("failed to render prompt for task %q: %w", kind, err)
	}

	return &Request{
		SystemInstruction: InstructionFor(subject),
		Prompt:            prompt.String(),
		Parts:             parts,
		Schema:            desc.Schema,
		MaxOutputTokens:   desc.MaxOutputTokens,
	}, nil
}
