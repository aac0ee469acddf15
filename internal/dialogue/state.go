// Package dialogue holds the per-user conversation position: the state
// variants of every flow, their wire codec, the stores that keep them and the
// per-user lock that serializes transitions.
package dialogue

import "github.com/m3rciful/quizbot/internal/quiz"

// Family groups states by the flow that owns them.
type Family string

const (
	FamilyIdle         Family = "idle"
	FamilyConstruction Family = "construction"
	FamilyEditor       Family = "editor"
	FamilyRunner       Family = "runner"
)

// State is one position in the conversation. The set of implementations is
// closed; each variant carries only the data its transitions need.
type State interface {
	Name() string
	Family() Family
	sealed()
}

type idle struct{}

func (idle) Family() Family { return FamilyIdle }
func (idle) sealed()        {}

type construction struct{}

func (construction) Family() Family { return FamilyConstruction }
func (construction) sealed()        {}

type editor struct{}

func (editor) Family() Family { return FamilyEditor }
func (editor) sealed()        {}

type runner struct{}

func (runner) Family() Family { return FamilyRunner }
func (runner) sealed()        {}

// Start is the initial and terminal state.
type Start struct{ idle }

func (Start) Name() string { return "start" }

// Construction flow.

type AwaitingTitle struct{ construction }

func (AwaitingTitle) Name() string { return "construction.awaiting_title" }

type AwaitingDescription struct {
	construction
	Title string `json:"title"`
}

func (AwaitingDescription) Name() string { return "construction.awaiting_description" }

type AwaitingAddFirstQuestion struct {
	construction
	Draft quiz.Draft `json:"draft"`
}

func (AwaitingAddFirstQuestion) Name() string { return "construction.awaiting_add_first_question" }

type AwaitingQuestionText struct {
	construction
	Draft quiz.Draft `json:"draft"`
}

func (AwaitingQuestionText) Name() string { return "construction.awaiting_question_text" }

// AwaitingAnswerText collects answers for Question; answers gathered so far
// live in Question.Answers.
type AwaitingAnswerText struct {
	construction
	Draft    quiz.Draft         `json:"draft"`
	Question quiz.QuestionDraft `json:"question"`
}

func (AwaitingAnswerText) Name() string { return "construction.awaiting_answer_text" }

type AwaitingAnswerCorrectness struct {
	construction
	Draft    quiz.Draft         `json:"draft"`
	Question quiz.QuestionDraft `json:"question"`
	Pending  string             `json:"pending"`
}

func (AwaitingAnswerCorrectness) Name() string { return "construction.awaiting_answer_correctness" }

type AwaitingAddAnotherAnswer struct {
	construction
	Draft    quiz.Draft         `json:"draft"`
	Question quiz.QuestionDraft `json:"question"`
}

func (AwaitingAddAnotherAnswer) Name() string { return "construction.awaiting_add_another_answer" }

type AwaitingAddAnotherQuestion struct {
	construction
	Draft quiz.Draft `json:"draft"`
}

func (AwaitingAddAnotherQuestion) Name() string { return "construction.awaiting_add_another_question" }

// AwaitingRetitle is entered when the title was taken by someone else
// between the title prompt and the final commit.
type AwaitingRetitle struct {
	construction
	Draft quiz.Draft `json:"draft"`
}

func (AwaitingRetitle) Name() string { return "construction.awaiting_retitle" }

// Editor flow. Entities are addressed by natural key only.

type SelectQuiz struct{ editor }

func (SelectQuiz) Name() string { return "editor.select_quiz" }

type HandleQuiz struct {
	editor
	Quiz string `json:"quiz"`
}

func (HandleQuiz) Name() string { return "editor.handle_quiz" }

type EditName struct {
	editor
	Quiz string `json:"quiz"`
}

func (EditName) Name() string { return "editor.edit_name" }

type EditDescription struct {
	editor
	Quiz string `json:"quiz"`
}

func (EditDescription) Name() string { return "editor.edit_description" }

type AddQuestion struct {
	editor
	Quiz string `json:"quiz"`
}

func (AddQuestion) Name() string { return "editor.add_question" }

type SelectQuestion struct {
	editor
	Quiz string `json:"quiz"`
}

func (SelectQuestion) Name() string { return "editor.select_question" }

type HandleQuestion struct {
	editor
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
}

func (HandleQuestion) Name() string { return "editor.handle_question" }

type EditQuestionText struct {
	editor
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
}

func (EditQuestionText) Name() string { return "editor.edit_question_text" }

type AddAnswer struct {
	editor
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
}

func (AddAnswer) Name() string { return "editor.add_answer" }

type AddAnswerCorrectness struct {
	editor
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (AddAnswerCorrectness) Name() string { return "editor.add_answer_correctness" }

type SelectAnswer struct {
	editor
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
}

func (SelectAnswer) Name() string { return "editor.select_answer" }

type HandleAnswer struct {
	editor
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (HandleAnswer) Name() string { return "editor.handle_answer" }

type EditAnswerText struct {
	editor
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (EditAnswerText) Name() string { return "editor.edit_answer_text" }

type EditCorrectness struct {
	editor
	Quiz     string `json:"quiz"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

func (EditCorrectness) Name() string { return "editor.edit_correctness" }

// Runner flow.

type SelectionAwaitingQuizTitle struct{ runner }

func (SelectionAwaitingQuizTitle) Name() string { return "runner.selection" }

// ReadyToRun holds the loaded quiz until the user confirms the start.
type ReadyToRun struct {
	runner
	Quiz  quiz.Quiz `json:"quiz"`
	Index int       `json:"index"`
}

func (ReadyToRun) Name() string { return "runner.ready" }

// Running points at the question currently shown to the user.
type Running struct {
	runner
	Quiz  quiz.Quiz `json:"quiz"`
	Index int       `json:"index"`
	Score int       `json:"score"`
}

func (Running) Name() string { return "runner.running" }
