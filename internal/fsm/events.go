package fsm

// Meta identifies who sent an event and where replies go.
type Meta struct {
	UserID   int64
	ChatID   int64
	Username string
}

// Event is an inbound occurrence delivered by the transport.
type Event interface {
	Source() Meta
	Kind() string
}

// TextMessage is a plain text message, including reply keyboard presses.
type TextMessage struct {
	Meta
	Text string
}

// CallbackSelection is an inline button press. MessageText is the text of
// the message carrying the button so it can be annotated in place.
type CallbackSelection struct {
	Meta
	CallbackID  string
	MessageID   int
	MessageText string
	Data        string
}

// CommandName enumerates the reserved commands valid in every state.
type CommandName string

const (
	CommandHelp   CommandName = "help"
	CommandCancel CommandName = "cancel"
	CommandStart  CommandName = "start"
	// CommandNewQuiz and CommandEditQuiz jump straight into authoring.
	CommandNewQuiz  CommandName = "newquiz"
	CommandEditQuiz CommandName = "editquiz"
)

// Command is a reserved command.
type Command struct {
	Meta
	Name CommandName
}

func (m Meta) Source() Meta { return m }

func (TextMessage) Kind() string       { return "text" }
func (CallbackSelection) Kind() string { return "callback" }
func (Command) Kind() string           { return "command" }
