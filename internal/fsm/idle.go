package fsm

import "github.com/m3rciful/quizbot/internal/dialogue"

func (t *turn) start(text string) (Result, error) {
	switch text {
	case LabelCreateQuiz:
		if !t.m.IsAdmin(t.meta) {
			t.sayWith(msgAdminOnly, t.menu())
			return t.reject(), nil
		}
		t.sayWith("Let's start creating a new quiz! What's its title?", Remove())
		return t.to(dialogue.AwaitingTitle{}), nil

	case LabelTakeQuiz:
		titles, err := t.m.repo.ListQuizTitles(t.ctx)
		if err != nil {
			return Result{}, err
		}
		if len(titles) == 0 {
			t.sayWith(msgNoQuizzes, t.menu())
			return t.reject(), nil
		}
		t.sayWith("Please, choose available quiz:", Reply(titles...))
		return t.to(dialogue.SelectionAwaitingQuizTitle{}), nil

	case LabelEditQuiz:
		if !t.m.IsAdmin(t.meta) {
			t.sayWith(msgAdminOnly, t.menu())
			return t.reject(), nil
		}
		titles, err := t.m.repo.ListQuizTitles(t.ctx)
		if err != nil {
			return Result{}, err
		}
		if len(titles) == 0 {
			t.sayWith(msgNoQuizzes, t.menu())
			return t.reject(), nil
		}
		t.sayWith("Select a quiz.", Reply(titles...))
		return t.to(dialogue.SelectQuiz{}), nil
	}

	t.sayWith(msgInvalidInput, t.menu())
	return t.reject(), nil
}
