package quiz

import "context"

// Repository persists quizzes addressed by natural keys: quiz title, then
// question text within the quiz, then answer text within the question.
// When several children share a text the first in display order is used.
//
// Edit and delete operations return the affected natural key. They report
// ErrNotFound when any segment of the key does not resolve and ErrConflict
// when the new value collides with a sibling.
type Repository interface {
	// Create stores q with all its questions and answers atomically.
	Create(ctx context.Context, q Quiz) (string, error)
	// Retrieve loads the full aggregate in one consistent read.
	Retrieve(ctx context.Context, title string) (Quiz, bool, error)
	RetrieveQuestion(ctx context.Context, quizTitle, questionText string) (Question, bool, error)
	RetrieveAnswer(ctx context.Context, quizTitle, questionText, answerText string) (Answer, bool, error)

	ListQuizTitles(ctx context.Context) ([]string, error)
	ListQuestionTexts(ctx context.Context, quizTitle string) ([]string, error)
	ListAnswerTexts(ctx context.Context, quizTitle, questionText string) ([]string, error)

	EditTitle(ctx context.Context, title, newTitle string) (string, error)
	EditDescription(ctx context.Context, title, description string) (string, error)
	EditQuestionText(ctx context.Context, quizTitle, questionText, newText string) (string, error)
	EditAnswerText(ctx context.Context, quizTitle, questionText, answerText, newText string) (string, error)
	EditAnswerCorrectness(ctx context.Context, quizTitle, questionText, answerText string, correct bool) (string, error)

	CreateQuestion(ctx context.Context, quizTitle, text string) (string, error)
	CreateAnswer(ctx context.Context, quizTitle, questionText, text string, correct bool) (string, error)

	// DeleteQuiz cascades to questions and answers.
	DeleteQuiz(ctx context.Context, title string) (string, error)
	// DeleteQuestion cascades to answers.
	DeleteQuestion(ctx context.Context, quizTitle, questionText string) (string, error)
	DeleteAnswer(ctx context.Context, quizTitle, questionText, answerText string) (string, error)
}
