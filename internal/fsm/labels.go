package fsm

// Menu labels.
const (
	LabelTakeQuiz   = "Take a quiz📝"
	LabelCreateQuiz = "Create a new quiz🏗️"
	LabelEditQuiz   = "Edit an existing quiz✏️"
)

// Yes/No tokens. Both spellings are accepted at every confirmation prompt.
const (
	TokenYes          = "Yes"
	TokenYesDecorated = "Yes✔️"
	TokenNo           = "No"
	TokenNoDecorated  = "No❌"
)

// Editor labels.
const (
	LabelEditName        = "Edit name"
	LabelEditDescription = "Edit description"
	LabelEditQuestion    = "Edit question"
	LabelAddQuestion     = "Add question"
	LabelDeleteQuiz      = "Delete quiz🗑️"

	LabelEditText       = "Edit text"
	LabelEditAnswer     = "Edit answer"
	LabelAddAnswer      = "Add answer"
	LabelDeleteQuestion = "Delete question🗑️"

	LabelEditCorrectness = "Edit correctness"
	LabelDeleteAnswer    = "Delete answer"

	LabelBack   = "Back"
	CommandBack = "/back"
)

// IsYes matches the affirmative tokens exactly.
func IsYes(s string) bool {
	return s == TokenYes || s == TokenYesDecorated
}

// IsNo matches the negative tokens exactly.
func IsNo(s string) bool {
	return s == TokenNo || s == TokenNoDecorated
}

// IsBack matches the upward navigation tokens.
func IsBack(s string) bool {
	return s == LabelBack || s == CommandBack
}

func yesNo() *OptionSet {
	return Grid(2, TokenYesDecorated, TokenNoDecorated)
}

func quizActions() *OptionSet {
	return Grid(2, LabelEditName, LabelEditDescription, LabelEditQuestion, LabelAddQuestion, LabelDeleteQuiz, LabelBack)
}

func questionActions() *OptionSet {
	return Grid(2, LabelEditText, LabelEditAnswer, LabelAddAnswer, LabelDeleteQuestion, LabelBack)
}

func answerActions() *OptionSet {
	return Grid(2, LabelEditText, LabelEditCorrectness, LabelDeleteAnswer, LabelBack)
}

const (
	msgInvalidInput = "Invalid input. Please try again."
	msgYesNo        = "Please enter a valid answer Yes or No."
	msgFallback     = "Unable to handle the message. Enter /help to see usages."
	msgNoQuizzes    = "No available quizzes."
	msgAdminOnly    = "Sorry, only the administrator can create or edit quizzes."
	msgWhatNext     = "What do you want to do now?"
	msgReturning    = "Returning back."

	helpText = "These commands are supported:\n" +
		"/help - display help.\n" +
		"/start - show the main menu.\n" +
		"/cancel - cancel the current dialogue.\n" +
		"/newquiz, /editquiz - author quizzes (administrator only).\n" +
		"/back - return back (only works in editor)."
)
