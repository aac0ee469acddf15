package fsm

import (
	"errors"
	"log/slog"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/quiz"
)

// titleFree validates a proposed quiz title. It reports false after queuing
// the re-prompt.
func (t *turn) titleFree(title string) (bool, error) {
	if title == "" {
		t.say("Please, send a title of the new quiz.")
		return false, nil
	}
	_, found, err := t.m.repo.Retrieve(t.ctx, title)
	if err != nil {
		return false, err
	}
	if found {
		t.say("Quiz with this title already exists. Try again.")
		return false, nil
	}
	return true, nil
}

func (t *turn) awaitingTitle(title string) (Result, error) {
	ok, err := t.titleFree(title)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return t.reject(), nil
	}
	t.say("OK. What is new quiz about?")
	return t.to(dialogue.AwaitingDescription{Title: title}), nil
}

func (t *turn) awaitingDescription(st dialogue.AwaitingDescription, description string) Result {
	if description == "" {
		t.say("Please, send a description of the new quiz.")
		return t.reject()
	}
	draft := quiz.Draft{Title: st.Title, Description: description, Author: t.author()}
	t.sayWith("Do you want to add the first question? (Yes/No)", yesNo())
	return t.to(dialogue.AwaitingAddFirstQuestion{Draft: draft})
}

// addQuestionPrompt serves both "first question" and "another question"
// confirmations; No commits the draft.
func (t *turn) addQuestionPrompt(draft quiz.Draft, answer string) (Result, error) {
	switch {
	case IsYes(answer):
		t.sayWith("Great. Please enter a question.", Remove())
		return t.to(dialogue.AwaitingQuestionText{Draft: draft}), nil
	case IsNo(answer):
		return t.commit(draft)
	}
	t.sayWith(msgYesNo, yesNo())
	return t.reject(), nil
}

// commit stores the draft in one repository call. A title taken in the
// meantime asks for another one and keeps the draft.
func (t *turn) commit(draft quiz.Draft) (Result, error) {
	title, err := t.m.repo.Create(t.ctx, draft.Build())
	if errors.Is(err, quiz.ErrConflict) {
		t.sayWith("A quiz with this title was created meanwhile. Please send another title.", Remove())
		return t.to(dialogue.AwaitingRetitle{Draft: draft}), nil
	}
	if err != nil {
		return Result{}, err
	}
	logger.Info(t.ctx, logger.CompFSM, "fsm.quiz_created",
		slog.String("quiz", title),
		slog.Int("count", len(draft.Questions)),
	)
	if t.m.opts.OnQuizCreated != nil {
		t.m.opts.OnQuizCreated(t.ctx, title)
	}
	return t.home("OK. Saving quiz " + title + ". What do you want to do next?"), nil
}

func (t *turn) awaitingRetitle(st dialogue.AwaitingRetitle, title string) (Result, error) {
	ok, err := t.titleFree(title)
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return t.reject(), nil
	}
	return t.commit(st.Draft.WithTitle(title))
}

func (t *turn) awaitingQuestionText(st dialogue.AwaitingQuestionText, text string) Result {
	if text == "" {
		t.say("Please send a valid question.")
		return t.reject()
	}
	if st.Draft.HasQuestion(text) {
		t.say("This quiz already has that question. Try another one.")
		return t.reject()
	}
	t.say("OK. What's the answer to your question?")
	return t.to(dialogue.AwaitingAnswerText{Draft: st.Draft, Question: quiz.QuestionDraft{Text: text}})
}

func (t *turn) awaitingAnswerText(st dialogue.AwaitingAnswerText, text string) Result {
	if text == "" {
		t.say("Please, enter a valid answer.")
		return t.reject()
	}
	if st.Question.HasAnswer(text) {
		t.say("This question already has that answer. Try another one.")
		return t.reject()
	}
	t.sayWith("Got it. Is that answer correct? (Yes/No)", yesNo())
	return t.to(dialogue.AwaitingAnswerCorrectness{Draft: st.Draft, Question: st.Question, Pending: text})
}

func (t *turn) awaitingAnswerCorrectness(st dialogue.AwaitingAnswerCorrectness, answer string) Result {
	var body string
	switch {
	case IsYes(answer):
		body = "Okay, that answer is correct. Do you want to add another answer? (Yes/No)"
	case IsNo(answer):
		body = "Okay, that answer is incorrect. Do you want to add another answer? (Yes/No)"
	default:
		t.sayWith(msgYesNo, yesNo())
		return t.reject()
	}
	question := st.Question.WithAnswer(st.Pending, IsYes(answer))
	t.sayWith(body, yesNo())
	return t.to(dialogue.AwaitingAddAnotherAnswer{Draft: st.Draft, Question: question})
}

func (t *turn) awaitingAddAnotherAnswer(st dialogue.AwaitingAddAnotherAnswer, answer string) Result {
	switch {
	case IsYes(answer):
		t.sayWith("Great. What's the another answer?", Remove())
		return t.to(dialogue.AwaitingAnswerText{Draft: st.Draft, Question: st.Question})
	case IsNo(answer):
		t.sayWith("OK. Saving question. Do you want to add another question? (Yes/No)", yesNo())
		return t.to(dialogue.AwaitingAddAnotherQuestion{Draft: st.Draft.WithQuestion(st.Question)})
	}
	t.sayWith(msgYesNo, yesNo())
	return t.reject()
}
