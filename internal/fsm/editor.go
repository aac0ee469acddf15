package fsm

import (
	"errors"
	"fmt"

	"github.com/m3rciful/quizbot/internal/dialogue"
	"github.com/m3rciful/quizbot/internal/quiz"
)

// Editor states address rows by natural key. A key that stopped resolving
// sends the user one level up; a rename that collides with a sibling
// re-prompts.

func (t *turn) quizGone(title string) Result {
	return t.home(fmt.Sprintf("Quiz '%s' not found.", title))
}

func (t *turn) questionGone(title, question string) Result {
	t.sayWith(fmt.Sprintf("Question '%s' not found.", question), quizActions())
	return t.to(dialogue.HandleQuiz{Quiz: title})
}

func (t *turn) answerGone(title, question, answer string) Result {
	t.sayWith(fmt.Sprintf("Answer '%s' not found.", answer), questionActions())
	return t.to(dialogue.HandleQuestion{Quiz: title, Question: question})
}

func (t *turn) nothingEntered() Result {
	t.say("Nothing entered. Try again.")
	return t.reject()
}

func (t *turn) showQuiz(title, lead string) (Result, error) {
	q, found, err := t.m.repo.Retrieve(t.ctx, title)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return t.quizGone(title), nil
	}
	t.sayWith(lead, quizActions())
	t.say(quiz.Render(q))
	return t.to(dialogue.HandleQuiz{Quiz: q.Title}), nil
}

func (t *turn) showQuestion(title, text, lead string) (Result, error) {
	q, found, err := t.m.repo.RetrieveQuestion(t.ctx, title, text)
	if err != nil {
		return Result{}, err
	}
	if !found {
		return t.questionGone(title, text), nil
	}
	t.sayWith(lead, questionActions())
	t.say(quiz.RenderQuestion(q))
	return t.to(dialogue.HandleQuestion{Quiz: title, Question: q.Text}), nil
}

func (t *turn) selectQuiz(title string) (Result, error) {
	if title == "" {
		t.say("Please, select a quiz.")
		return t.reject(), nil
	}
	q, found, err := t.m.repo.Retrieve(t.ctx, title)
	if err != nil {
		return Result{}, err
	}
	if !found {
		t.sayf("Quiz '%s' not found. Try again.", title)
		return t.reject(), nil
	}
	t.sayWith(fmt.Sprintf("Quiz '%s' chosen. Please, select an action:", q.Title), quizActions())
	t.say(quiz.Render(q))
	return t.to(dialogue.HandleQuiz{Quiz: q.Title}), nil
}

func (t *turn) handleQuiz(st dialogue.HandleQuiz, text string) (Result, error) {
	switch {
	case IsBack(text):
		return t.home(msgReturning), nil

	case text == LabelDeleteQuiz:
		deleted, err := t.m.repo.DeleteQuiz(t.ctx, st.Quiz)
		if errors.Is(err, quiz.ErrNotFound) {
			return t.quizGone(st.Quiz), nil
		}
		if err != nil {
			return Result{}, err
		}
		return t.home(fmt.Sprintf("Quiz '%s' deleted.", deleted)), nil

	case text == LabelEditName:
		t.sayWith("What's new quiz name?", Remove())
		return t.to(dialogue.EditName{Quiz: st.Quiz}), nil

	case text == LabelEditDescription:
		t.sayWith("What's new quiz description?", Remove())
		return t.to(dialogue.EditDescription{Quiz: st.Quiz}), nil

	case text == LabelAddQuestion:
		t.sayWith("Send the text of the new question.", Remove())
		return t.to(dialogue.AddQuestion{Quiz: st.Quiz}), nil

	case text == LabelEditQuestion:
		texts, err := t.m.repo.ListQuestionTexts(t.ctx, st.Quiz)
		if errors.Is(err, quiz.ErrNotFound) {
			return t.quizGone(st.Quiz), nil
		}
		if err != nil {
			return Result{}, err
		}
		if len(texts) == 0 {
			t.sayWith("No available questions.", quizActions())
			return t.reject(), nil
		}
		t.sayWith("Choose question to edit:", Reply(append(texts, LabelBack)...))
		return t.to(dialogue.SelectQuestion{Quiz: st.Quiz}), nil
	}
	t.sayWith("Invalid input. Try again.", quizActions())
	return t.reject(), nil
}

func (t *turn) editName(st dialogue.EditName, title string) (Result, error) {
	if title == "" {
		return t.nothingEntered(), nil
	}
	renamed, err := t.m.repo.EditTitle(t.ctx, st.Quiz, title)
	switch {
	case errors.Is(err, quiz.ErrConflict):
		t.say("Quiz with this title already exists. Try another one.")
		return t.reject(), nil
	case errors.Is(err, quiz.ErrNotFound):
		return t.quizGone(st.Quiz), nil
	case err != nil:
		return Result{}, err
	}
	t.sayWith("Quiz name successfully updated.", quizActions())
	return t.to(dialogue.HandleQuiz{Quiz: renamed}), nil
}

func (t *turn) editDescription(st dialogue.EditDescription, description string) (Result, error) {
	if description == "" {
		return t.nothingEntered(), nil
	}
	_, err := t.m.repo.EditDescription(t.ctx, st.Quiz, description)
	if errors.Is(err, quiz.ErrNotFound) {
		return t.quizGone(st.Quiz), nil
	}
	if err != nil {
		return Result{}, err
	}
	t.sayWith("Quiz description successfully updated.", quizActions())
	return t.to(dialogue.HandleQuiz{Quiz: st.Quiz}), nil
}

func (t *turn) addQuestion(st dialogue.AddQuestion, text string) (Result, error) {
	if text == "" {
		return t.nothingEntered(), nil
	}
	created, err := t.m.repo.CreateQuestion(t.ctx, st.Quiz, text)
	switch {
	case errors.Is(err, quiz.ErrConflict):
		t.sayf("Question '%s' already exists. Try another one.", text)
		return t.reject(), nil
	case errors.Is(err, quiz.ErrNotFound):
		return t.quizGone(st.Quiz), nil
	case err != nil:
		return Result{}, err
	}
	t.sayWith(fmt.Sprintf("Question '%s' created.", created), quizActions())
	return t.to(dialogue.HandleQuiz{Quiz: st.Quiz}), nil
}

func (t *turn) selectQuestion(st dialogue.SelectQuestion, text string) (Result, error) {
	if IsBack(text) {
		return t.showQuiz(st.Quiz, msgReturning)
	}
	if text == "" {
		t.say("Please, select a question.")
		return t.reject(), nil
	}
	q, found, err := t.m.repo.RetrieveQuestion(t.ctx, st.Quiz, text)
	if err != nil {
		return Result{}, err
	}
	if !found {
		t.sayf("Question '%s' not found. Try again.", text)
		return t.reject(), nil
	}
	t.sayWith(fmt.Sprintf("Question '%s' selected. Please select an action:", q.Text), questionActions())
	t.say(quiz.RenderQuestion(q))
	return t.to(dialogue.HandleQuestion{Quiz: st.Quiz, Question: q.Text}), nil
}

func (t *turn) handleQuestion(st dialogue.HandleQuestion, text string) (Result, error) {
	switch {
	case IsBack(text):
		return t.showQuiz(st.Quiz, msgReturning)

	case text == LabelDeleteQuestion:
		_, err := t.m.repo.DeleteQuestion(t.ctx, st.Quiz, st.Question)
		if errors.Is(err, quiz.ErrNotFound) {
			return t.questionGone(st.Quiz, st.Question), nil
		}
		if err != nil {
			return Result{}, err
		}
		t.sayWith("Question deleted.", quizActions())
		return t.to(dialogue.HandleQuiz{Quiz: st.Quiz}), nil

	case text == LabelEditText:
		t.sayWith("What's new question text?", Remove())
		return t.to(dialogue.EditQuestionText{Quiz: st.Quiz, Question: st.Question}), nil

	case text == LabelAddAnswer:
		t.sayWith("What does the new answer look like?", Remove())
		return t.to(dialogue.AddAnswer{Quiz: st.Quiz, Question: st.Question}), nil

	case text == LabelEditAnswer:
		texts, err := t.m.repo.ListAnswerTexts(t.ctx, st.Quiz, st.Question)
		if errors.Is(err, quiz.ErrNotFound) {
			return t.questionGone(st.Quiz, st.Question), nil
		}
		if err != nil {
			return Result{}, err
		}
		if len(texts) == 0 {
			t.sayWith("No available answers.", questionActions())
			return t.reject(), nil
		}
		t.sayWith("Choose answer to edit:", Reply(append(texts, LabelBack)...))
		return t.to(dialogue.SelectAnswer{Quiz: st.Quiz, Question: st.Question}), nil
	}
	t.sayWith(msgInvalidInput, questionActions())
	return t.reject(), nil
}

func (t *turn) editQuestionText(st dialogue.EditQuestionText, text string) (Result, error) {
	if text == "" {
		return t.nothingEntered(), nil
	}
	renamed, err := t.m.repo.EditQuestionText(t.ctx, st.Quiz, st.Question, text)
	switch {
	case errors.Is(err, quiz.ErrConflict):
		t.sayf("Question '%s' already exists. Try another one.", text)
		return t.reject(), nil
	case errors.Is(err, quiz.ErrNotFound):
		return t.questionGone(st.Quiz, st.Question), nil
	case err != nil:
		return Result{}, err
	}
	t.sayWith("Question text updated.", questionActions())
	return t.to(dialogue.HandleQuestion{Quiz: st.Quiz, Question: renamed}), nil
}

func (t *turn) addAnswer(st dialogue.AddAnswer, text string) (Result, error) {
	if text == "" {
		return t.nothingEntered(), nil
	}
	_, found, err := t.m.repo.RetrieveAnswer(t.ctx, st.Quiz, st.Question, text)
	if err != nil {
		return Result{}, err
	}
	if found {
		t.sayf("Answer '%s' already exists. Try another one.", text)
		return t.reject(), nil
	}
	t.sayWith("Is that answer correct? (Yes/No)", yesNo())
	return t.to(dialogue.AddAnswerCorrectness{Quiz: st.Quiz, Question: st.Question, Answer: text}), nil
}

// addAnswerCorrectness stores the new answer with the chosen correctness.
func (t *turn) addAnswerCorrectness(st dialogue.AddAnswerCorrectness, answer string) (Result, error) {
	if !IsYes(answer) && !IsNo(answer) {
		t.sayWith(msgYesNo, yesNo())
		return t.reject(), nil
	}
	correct := IsYes(answer)
	_, err := t.m.repo.CreateAnswer(t.ctx, st.Quiz, st.Question, st.Answer, correct)
	switch {
	case errors.Is(err, quiz.ErrConflict):
		t.sayWith(fmt.Sprintf("Answer '%s' already exists.", st.Answer), questionActions())
		return t.to(dialogue.HandleQuestion{Quiz: st.Quiz, Question: st.Question}), nil
	case errors.Is(err, quiz.ErrNotFound):
		return t.questionGone(st.Quiz, st.Question), nil
	case err != nil:
		return Result{}, err
	}
	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	t.sayWith(fmt.Sprintf("Answer %s saved. It is %s.", st.Answer, verdict), questionActions())
	return t.to(dialogue.HandleQuestion{Quiz: st.Quiz, Question: st.Question}), nil
}

func (t *turn) selectAnswerToEdit(st dialogue.SelectAnswer, text string) (Result, error) {
	if IsBack(text) {
		return t.showQuestion(st.Quiz, st.Question, msgReturning)
	}
	if text == "" {
		t.say("Please, select an answer.")
		return t.reject(), nil
	}
	a, found, err := t.m.repo.RetrieveAnswer(t.ctx, st.Quiz, st.Question, text)
	if err != nil {
		return Result{}, err
	}
	if !found {
		t.say("Answer not found. Try again.")
		return t.reject(), nil
	}
	t.sayWith(fmt.Sprintf("Answer '%s' selected. What do you want to do next?", a.Text), answerActions())
	t.say(quiz.RenderAnswer(a))
	return t.to(dialogue.HandleAnswer{Quiz: st.Quiz, Question: st.Question, Answer: a.Text}), nil
}

func (t *turn) handleAnswer(st dialogue.HandleAnswer, text string) (Result, error) {
	switch {
	case IsBack(text):
		return t.showQuestion(st.Quiz, st.Question, msgReturning)

	case text == LabelDeleteAnswer:
		_, err := t.m.repo.DeleteAnswer(t.ctx, st.Quiz, st.Question, st.Answer)
		if errors.Is(err, quiz.ErrNotFound) {
			return t.answerGone(st.Quiz, st.Question, st.Answer), nil
		}
		if err != nil {
			return Result{}, err
		}
		t.sayWith("Answer deleted.", questionActions())
		return t.to(dialogue.HandleQuestion{Quiz: st.Quiz, Question: st.Question}), nil

	case text == LabelEditText:
		t.sayWith("What's new answer text?", Remove())
		return t.to(dialogue.EditAnswerText{Quiz: st.Quiz, Question: st.Question, Answer: st.Answer}), nil

	case text == LabelEditCorrectness:
		t.sayWith("Is that answer correct? (Yes/No)", yesNo())
		return t.to(dialogue.EditCorrectness{Quiz: st.Quiz, Question: st.Question, Answer: st.Answer}), nil
	}
	t.sayWith(msgInvalidInput, answerActions())
	return t.reject(), nil
}

func (t *turn) editAnswerText(st dialogue.EditAnswerText, text string) (Result, error) {
	if text == "" {
		return t.nothingEntered(), nil
	}
	renamed, err := t.m.repo.EditAnswerText(t.ctx, st.Quiz, st.Question, st.Answer, text)
	switch {
	case errors.Is(err, quiz.ErrConflict):
		t.sayf("Answer '%s' already exists. Try another one.", text)
		return t.reject(), nil
	case errors.Is(err, quiz.ErrNotFound):
		return t.answerGone(st.Quiz, st.Question, st.Answer), nil
	case err != nil:
		return Result{}, err
	}
	t.sayWith(fmt.Sprintf("Answer text updated: %s.", renamed), answerActions())
	return t.to(dialogue.HandleAnswer{Quiz: st.Quiz, Question: st.Question, Answer: renamed}), nil
}

func (t *turn) editCorrectness(st dialogue.EditCorrectness, answer string) (Result, error) {
	if !IsYes(answer) && !IsNo(answer) {
		t.sayWith("Invalid input. Try again.", yesNo())
		return t.reject(), nil
	}
	correct := IsYes(answer)
	_, err := t.m.repo.EditAnswerCorrectness(t.ctx, st.Quiz, st.Question, st.Answer, correct)
	if errors.Is(err, quiz.ErrNotFound) {
		return t.answerGone(st.Quiz, st.Question, st.Answer), nil
	}
	if err != nil {
		return Result{}, err
	}
	verdict := "incorrect"
	if correct {
		verdict = "correct"
	}
	t.sayWith(fmt.Sprintf("Answer %s is now %s.", st.Answer, verdict), answerActions())
	return t.to(dialogue.HandleAnswer{Quiz: st.Quiz, Question: st.Question, Answer: st.Answer}), nil
}
