package fsm

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/m3rciful/quizbot/core/logger"
	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/quiz"
)

func (t *turn) selection(title string) (Result, error) {
	if title == "" {
		t.say("Please, choose a quiz.")
		return t.reject(), nil
	}
	q, found, err := t.m.repo.Retrieve(t.ctx, title)
	if err != nil {
		return Result{}, err
	}
	if !found {
		t.sayf("Quiz with name '%s' not found.", title)
		return t.reject(), nil
	}
	t.sayWith(fmt.Sprintf("Title: %s\nDescription: %s\nBy @%s.\nQuestions: %d\nAre you ready to begin? (Yes/No)",
		q.Title, q.Description, q.Author, len(q.Questions)), yesNo())
	return t.to(dialogue.ReadyToRun{Quiz: q, Index: 0}), nil
}

func (t *turn) readyToRun(st dialogue.ReadyToRun, answer string) Result {
	switch {
	case IsYes(answer):
		t.sayWith("Let's begin!", Remove())
		return t.advance(st.Quiz, st.Index, 0)
	case IsNo(answer):
		t.say("OK. Quitting quiz...")
		return t.home(msgWhatNext)
	}
	t.sayWith(msgYesNo, yesNo())
	return t.reject()
}

// advance presents the first question at or after index that has answers,
// announcing every skipped one. When none is left the run ends.
func (t *turn) advance(q quiz.Quiz, index, score int) Result {
	for index < len(q.Questions) && !q.Questions[index].HasAnswers() {
		t.say("Sorry, this question has no answers. Skipping...")
		index++
	}
	if index >= len(q.Questions) {
		return t.finish(q, score)
	}

	question := q.Questions[index]
	labels := make([]string, len(question.Answers))
	payloads := make([]string, len(question.Answers))
	for i, a := range question.Answers {
		labels[i] = a.Text
		payloads[i] = t.payload(index, i, a.Text)
	}
	t.sayWith(fmt.Sprintf("Question #%d\n%s", index+1, question.Text), Inline(labels, payloads))
	return t.to(dialogue.Running{Quiz: q, Index: index, Score: score})
}

// payload is "<question index>:<answer text>", or "<question index>:#<answer
// index>" when the text does not fit the transport.
func (t *turn) payload(question, answer int, text string) string {
	p := strconv.Itoa(question) + ":" + text
	if t.m.opts.PayloadFits(p) {
		return p
	}
	return strconv.Itoa(question) + ":#" + strconv.Itoa(answer)
}

// resolve finds the answer a payload points at. Exact text wins over the
// positional form.
func resolve(q quiz.Question, index int, payload string) (quiz.Answer, bool) {
	prefix, rest, ok := strings.Cut(payload, ":")
	if !ok || prefix != strconv.Itoa(index) {
		return quiz.Answer{}, false
	}
	if a, ok := q.Answer(rest); ok {
		return a, true
	}
	if pos, found := strings.CutPrefix(rest, "#"); found {
		i, err := strconv.Atoi(pos)
		if err == nil && i >= 0 && i < len(q.Answers) {
			return q.Answers[i], true
		}
	}
	return quiz.Answer{}, false
}

func (t *turn) selectAnswer(st dialogue.Running, cb CallbackSelection) Result {
	if st.Index >= len(st.Quiz.Questions) {
		return t.fallback()
	}
	question := st.Quiz.Questions[st.Index]
	answer, ok := resolve(question, st.Index, cb.Data)
	if !ok {
		t.actions = append(t.actions, AcknowledgeCallback{CallbackID: cb.CallbackID, Text: "This question is no longer active."})
		return t.reject()
	}
	t.actions = append(t.actions, AcknowledgeCallback{CallbackID: cb.CallbackID})

	score := st.Score
	verdict := fmt.Sprintf("Given answer %s. Answer is incorrect.❌", answer.Text)
	if answer.IsCorrect {
		score++
		verdict = fmt.Sprintf("Given answer %s. Answer is correct.✅", answer.Text)
	}
	if cb.MessageID != 0 {
		body := verdict
		if cb.MessageText != "" {
			body = cb.MessageText + "\n" + verdict
		}
		t.actions = append(t.actions, EditMessageText{ChatID: t.meta.ChatID, MessageID: cb.MessageID, Body: body})
	} else {
		t.say(verdict)
	}
	logger.Debug(t.ctx, logger.CompFSM, "fsm.answer",
		slog.String("quiz", st.Quiz.Title),
		slog.String("question", question.Text),
		slog.String("answer", answer.Text),
		slog.Bool("correct", answer.IsCorrect),
	)
	return t.advance(st.Quiz, st.Index+1, score)
}

// finish reports score out of the questions that could be answered.
func (t *turn) finish(q quiz.Quiz, score int) Result {
	total := q.Answerable()
	if total == 0 {
		t.sayf("Sorry, no questions with answers in this quiz. Your result is %d/%d", score, total)
	} else {
		t.say("Congratulations! You completed the quiz!")
		t.sayf("Your result is %d/%d", score, total)
	}
	logger.Info(t.ctx, logger.CompFSM, "fsm.quiz_completed",
		slog.String("quiz", q.Title),
		slog.Int("score", score),
		slog.Int("total", total),
	)
	if t.m.opts.OnQuizCompleted != nil {
		t.m.opts.OnQuizCompleted(t.ctx, q.Title, score, total)
	}
	return t.home(msgWhatNext)
}
