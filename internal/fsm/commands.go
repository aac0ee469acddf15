package fsm

import "github.com/m3rciful/quizbot/internal/dialogue"

// command handles the reserved commands; they are valid in every state.
func (t *turn) command(c Command) (Result, error) {
	switch c.Name {
	case CommandHelp:
		t.say(helpText)
		return t.to(t.state), nil
	case CommandCancel:
		t.sayWith("Cancelling dialogue.", Remove())
		return t.to(dialogue.Start{}), nil
	case CommandStart:
		return t.home("Please choose what to do:"), nil
	case CommandNewQuiz:
		return t.start(LabelCreateQuiz)
	case CommandEditQuiz:
		return t.start(LabelEditQuiz)
	}
	return t.fallback(), nil
}
